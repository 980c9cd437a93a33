package polymarket

// trading.go — Real order execution via Polymarket CLOB API.
//
// Implements ports.OrderExecutor using AuthClient for L1/L2 auth.
// Live orders are marketable BUYs posted as FOK (fill-or-kill): either the
// whole amount crosses the book at or below the limit price or nothing does.

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/alejandrodnm/polyedge/internal/domain"
	"github.com/shopspring/decimal"
)

const orderTypeFOK = "FOK"

// TradingClient implements ports.OrderExecutor.
type TradingClient struct {
	auth *AuthClient
}

// NewTradingClient creates a TradingClient over an authenticated client.
func NewTradingClient(auth *AuthClient) *TradingClient {
	return &TradingClient{auth: auth}
}

// MarketBuy signs and submits a BUY for req.AmountUSD rounded down to cents.
// Amounts above domain.MaxLiveOrderUSD are rejected before anything is signed.
func (tc *TradingClient) MarketBuy(ctx context.Context, req domain.OrderRequest) (domain.OrderResponse, error) {
	amount := decimal.NewFromFloat(req.AmountUSD).RoundDown(2)
	if amount.GreaterThan(decimal.NewFromFloat(domain.MaxLiveOrderUSD)) {
		return domain.OrderResponse{}, fmt.Errorf("market buy: %s USD: %w", amount, domain.ErrLiveOverCap)
	}
	if !amount.IsPositive() {
		return domain.OrderResponse{}, fmt.Errorf("market buy: amount %s rounds to zero", amount)
	}
	if req.LimitPrice <= 0 || req.LimitPrice >= 1 {
		return domain.OrderResponse{}, fmt.Errorf("market buy: limit price %.4f outside (0,1)", req.LimitPrice)
	}

	if err := tc.auth.EnsureCreds(ctx); err != nil {
		return domain.OrderResponse{}, fmt.Errorf("market buy: creds: %w", err)
	}

	negRisk, err := tc.IsNegRisk(ctx, req.TokenID)
	if err != nil {
		return domain.OrderResponse{}, fmt.Errorf("market buy: %w", err)
	}

	usd, _ := amount.Float64()
	signed, err := tc.auth.buildSignedOrder(req.TokenID, req.LimitPrice, usd, negRisk)
	if err != nil {
		return domain.OrderResponse{}, fmt.Errorf("market buy: sign: %w", err)
	}

	body := clobOrderRequest{
		Order: clobOrderBody{
			Salt:          json.Number(signed.Order.Salt.String()),
			Maker:         signed.Order.Maker.Hex(),
			Signer:        signed.Order.Signer.Hex(),
			Taker:         signed.Order.Taker.Hex(),
			TokenID:       req.TokenID,
			MakerAmount:   signed.Order.MakerAmount.String(),
			TakerAmount:   signed.Order.TakerAmount.String(),
			Expiration:    signed.Order.Expiration.String(),
			Nonce:         signed.Order.Nonce.String(),
			FeeRateBps:    signed.Order.FeeRateBps.String(),
			Side:          "BUY",
			SignatureType: int(signed.Order.SignatureType.Int64()),
			Signature:     "0x" + hex.EncodeToString(signed.Signature),
		},
		Owner:     tc.auth.apiKey(),
		OrderType: orderTypeFOK,
	}

	var resp clobOrderResponse
	if err := tc.auth.doL2(ctx, http.MethodPost, "/order", body, &resp); err != nil {
		return domain.OrderResponse{}, fmt.Errorf("market buy: post: %w", err)
	}
	if !resp.Success || resp.ErrorMsg != "" {
		return domain.OrderResponse{}, fmt.Errorf("market buy: clob error: %q", resp.ErrorMsg)
	}

	out := domain.OrderResponse{
		OrderID:      resp.OrderID,
		Status:       resp.Status,
		TakingAmount: parseAmount(resp.TakingAmount),
		MakingAmount: parseAmount(resp.MakingAmount),
	}
	slog.Info("live order submitted",
		"token", req.TokenID,
		"usd", amount.String(),
		"limit_price", req.LimitPrice,
		"order_id", out.OrderID,
		"status", out.Status,
	)
	return out, nil
}

// IsNegRisk queries the CLOB to determine if a token uses the NegRisk adapter.
func (tc *TradingClient) IsNegRisk(ctx context.Context, tokenID string) (bool, error) {
	u := tc.auth.clobBase + "/neg-risk?token_id=" + url.QueryEscape(tokenID)

	var resp clobNegRiskResponse
	if err := tc.auth.api.Get(ctx, tc.auth.clobLimiter, u, &resp); err != nil {
		return false, fmt.Errorf("neg-risk check: %w", err)
	}
	return resp.NegRisk, nil
}

// parseAmount converts the CLOB's decimal amount strings ("4.99", "11.9").
// Unparseable values map to 0.
func parseAmount(s string) float64 {
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}
