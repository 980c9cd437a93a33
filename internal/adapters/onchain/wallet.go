// Package onchain lee en Polygon el saldo y el allowance de USDC.e de la
// wallet de trading. Solo hace eth_call: nunca firma ni envía transacciones.
package onchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

const (
	// USDC.e, colateral de Polymarket en Polygon (6 decimales)
	usdcEAddress = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"

	// CTF Exchange, el spender que necesita allowance para órdenes BUY
	exchangeAddress = "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"
)

// ErrInsufficientFunds indica que la wallet no cubre el notional pedido.
var ErrInsufficientFunds = errors.New("insufficient USDC.e")

var erc20ABI abi.ABI

func init() {
	var err error
	erc20ABI, err = abi.JSON(strings.NewReader(`[
		{
			"name": "balanceOf",
			"type": "function",
			"inputs": [{"name": "account", "type": "address"}],
			"outputs": [{"name": "", "type": "uint256"}]
		},
		{
			"name": "allowance",
			"type": "function",
			"inputs": [
				{"name": "owner", "type": "address"},
				{"name": "spender", "type": "address"}
			],
			"outputs": [{"name": "", "type": "uint256"}]
		}
	]`))
	if err != nil {
		panic("erc20 abi parse: " + err.Error())
	}
}

// contractCaller es el subconjunto de ethclient.Client que usa Wallet.
type contractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Funds es la foto de colateral disponible para órdenes live.
type Funds struct {
	Address      string
	BalanceUSD   float64
	AllowanceUSD float64
}

// Available devuelve lo que realmente se puede gastar: el menor de saldo y allowance.
func (f Funds) Available() float64 {
	return min(f.BalanceUSD, f.AllowanceUSD)
}

// Wallet consulta el colateral de una dirección.
type Wallet struct {
	caller   contractCaller
	close    func()
	owner    common.Address
	token    common.Address
	exchange common.Address
}

// Dial conecta al RPC de Polygon. address es la wallet de trading (0x...).
func Dial(ctx context.Context, rpcURL, address string) (*Wallet, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("onchain.Dial: invalid address %q", address)
	}
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("onchain.Dial: %s: %w", rpcURL, err)
	}
	w := newWallet(client, common.HexToAddress(address))
	w.close = client.Close
	return w, nil
}

func newWallet(caller contractCaller, owner common.Address) *Wallet {
	return &Wallet{
		caller:   caller,
		close:    func() {},
		owner:    owner,
		token:    common.HexToAddress(usdcEAddress),
		exchange: common.HexToAddress(exchangeAddress),
	}
}

// Close libera la conexión RPC.
func (w *Wallet) Close() { w.close() }

// Funds lee saldo y allowance hacia el exchange.
func (w *Wallet) Funds(ctx context.Context) (Funds, error) {
	bal, err := w.call(ctx, "balanceOf", w.owner)
	if err != nil {
		return Funds{}, fmt.Errorf("onchain.Funds: balance: %w", err)
	}
	allow, err := w.call(ctx, "allowance", w.owner, w.exchange)
	if err != nil {
		return Funds{}, fmt.Errorf("onchain.Funds: allowance: %w", err)
	}
	return Funds{
		Address:      w.owner.Hex(),
		BalanceUSD:   toUSD(bal),
		AllowanceUSD: toUSD(allow),
	}, nil
}

// Require falla con ErrInsufficientFunds si no se pueden gastar usd.
func (w *Wallet) Require(ctx context.Context, usd float64) (Funds, error) {
	f, err := w.Funds(ctx)
	if err != nil {
		return f, err
	}
	if f.Available() < usd {
		return f, fmt.Errorf("%w: need $%.2f, balance $%.2f, allowance $%.2f",
			ErrInsufficientFunds, usd, f.BalanceUSD, f.AllowanceUSD)
	}
	return f, nil
}

func (w *Wallet) call(ctx context.Context, method string, args ...any) (*big.Int, error) {
	data, err := erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	out, err := w.caller.CallContract(ctx, ethereum.CallMsg{To: &w.token, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	vals, err := erc20ABI.Unpack(method, out)
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("%s: empty result", method)
	}
	v, ok := vals[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected type %T", method, vals[0])
	}
	return v, nil
}

// toUSD convierte unidades base de USDC (6 decimales) a dólares.
func toUSD(v *big.Int) float64 {
	f := new(big.Float).SetInt(v)
	f.Quo(f, new(big.Float).SetFloat64(1e6))
	usd, _ := f.Float64()
	return usd
}
