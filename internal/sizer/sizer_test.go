package sizer_test

import (
	"testing"

	"github.com/alejandrodnm/polyedge/internal/domain"
	"github.com/alejandrodnm/polyedge/internal/sizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signal(model, market float64) domain.Signal {
	return domain.Signal{Side: domain.SideYes, TokenID: "tok", ModelPrice: model, MarketPrice: market, Edge: model - market}
}

func TestFixed(t *testing.T) {
	s := sizer.NewFixed(nil)

	o, ok := s.Size(signal(0.6, 0.5), 1000)
	require.True(t, ok)
	assert.Equal(t, 25.0, o.OrderUSD)
	assert.Equal(t, "tok", o.TokenID)
	assert.Equal(t, "fixed", o.Sizer)

	o, ok = s.Size(signal(0.6, 0.5), 10)
	require.True(t, ok)
	assert.Equal(t, 10.0, o.OrderUSD, "nunca más que el cash")

	_, ok = s.Size(signal(0.6, 0.5), 0)
	assert.False(t, ok)
}

func TestEqualWeight(t *testing.T) {
	o, ok := sizer.NewEqualWeight(domain.Params{"slots": 4}).Size(signal(0.6, 0.5), 1000)
	require.True(t, ok)
	assert.Equal(t, 250.0, o.OrderUSD)

	o, ok = sizer.NewEqualWeight(domain.Params{"slots": 0}).Size(signal(0.6, 0.5), 1000)
	require.True(t, ok)
	assert.Equal(t, 1000.0, o.OrderUSD, "slots se recorta a 1")
}

func TestKelly(t *testing.T) {
	s := sizer.NewKelly(nil)

	// f* = (0.6-0.5)/(1-0.5) = 0.2 → 1000 × 0.25 × 0.2 = 50
	o, ok := s.Size(signal(0.6, 0.5), 1000)
	require.True(t, ok)
	assert.InDelta(t, 50.0, o.OrderUSD, 1e-9)
	assert.InDelta(t, 0.2, o.Metadata["kelly_full"], 1e-9)

	// tope de max_usd
	o, ok = s.Size(signal(0.99, 0.5), 100000)
	require.True(t, ok)
	assert.Equal(t, 250.0, o.OrderUSD)

	// sin edge no hay orden
	_, ok = s.Size(signal(0.4, 0.5), 1000)
	assert.False(t, ok)
}

func TestKelly_FractionClamped(t *testing.T) {
	o, ok := sizer.NewKelly(domain.Params{"fraction": 3, "max_usd": 1e9}).Size(signal(0.6, 0.5), 1000)
	require.True(t, ok)
	assert.InDelta(t, 200.0, o.OrderUSD, 1e-9)

	_, ok = sizer.NewKelly(domain.Params{"fraction": -1}).Size(signal(0.6, 0.5), 1000)
	assert.False(t, ok)
}

func TestRiskFraction(t *testing.T) {
	o, ok := sizer.NewRiskFraction(nil).Size(signal(0.6, 0.5), 1000)
	require.True(t, ok)
	assert.InDelta(t, 20.0, o.OrderUSD, 1e-9)

	o, ok = sizer.NewRiskFraction(nil).Size(signal(0.6, 0.5), 1e6)
	require.True(t, ok)
	assert.Equal(t, 200.0, o.OrderUSD)
}

func TestNeverExceedsCash(t *testing.T) {
	r := sizer.Builtins()
	for _, name := range r.Names() {
		s, err := r.New(name, domain.Params{"usd": 1e6, "slots": 1, "fraction": 1, "max_usd": 1e6, "risk_fraction": 1})
		require.NoError(t, err)
		for _, cash := range []float64{0.5, 3, 1000} {
			if o, ok := s.Size(signal(0.9, 0.1), cash); ok {
				assert.LessOrEqual(t, o.OrderUSD, cash, name)
				assert.Greater(t, o.OrderUSD, 0.0, name)
			}
		}
	}
}

func TestRegistry(t *testing.T) {
	r := sizer.Builtins()
	assert.Equal(t, []string{"equal_weight", "fixed", "kelly", "risk_fraction"}, r.Names())

	_, err := r.New("martingale", nil)
	assert.ErrorIs(t, err, domain.ErrUnknownSizer)
}
