package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeToExpiryYears(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	m := MarketSnapshot{ScannedAt: now, EndDate: now.Add(365 * 24 * time.Hour)}
	assert.InDelta(t, 1.0, m.TimeToExpiryYears(time.Minute), 1e-12)

	// por debajo del mínimo se redondea al mínimo
	m.EndDate = now.Add(10 * time.Second)
	assert.InDelta(t, 60.0/SecondsPerYear, m.TimeToExpiryYears(time.Minute), 1e-15)

	m.EndDate = now.Add(-time.Hour)
	assert.Equal(t, 0.0, m.TimeToExpiryYears(time.Minute))

	m.EndDate = time.Time{}
	assert.Equal(t, 0.0, m.TimeToExpiryYears(time.Minute))
}

func TestCostModel_Breakdown(t *testing.T) {
	c := CostModel{FeeBps: 10, SlippageBps: 20, GasUSD: 0.02}

	b := c.Breakdown(100)
	assert.InDelta(t, 0.001, b.FeeFrac, 1e-12)
	assert.InDelta(t, 0.002, b.SlippageFrac, 1e-12)
	assert.InDelta(t, 0.0002, b.GasFrac, 1e-12)
	assert.InDelta(t, 0.0032, b.Total, 1e-12)
	assert.InDelta(t, 0.05-0.0032, c.NetEdge(0.05, 100), 1e-12)

	// notional cero usa el piso de 0.01 USD
	assert.InDelta(t, 2.0, c.Breakdown(0).GasFrac, 1e-12)
}

func TestEvent_MarshalFlat(t *testing.T) {
	ev := NewEvent(ActionDecision, "abc123", 4).WithSlug("btc-100k").With("net_edge", 0.02)

	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "decision", got["action"])
	assert.Equal(t, "abc123", got["run_id"])
	assert.Equal(t, "btc-100k", got["slug"])
	assert.InDelta(t, 0.02, got["net_edge"], 1e-12)
	assert.NotEmpty(t, got["ts"])
}
