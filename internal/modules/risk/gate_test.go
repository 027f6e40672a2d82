package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_bridge/internal/models"
	"signal_bridge/internal/modules/config"
	"signal_bridge/internal/modules/strategy"
)

func testCfg() *config.Config {
	return &config.Config{
		MaxCapitalPct: 0.05,
		Risk: config.RiskConfig{
			ATRPeriod:      14,
			MinATRMultiple: 0.5,
			MaxATRMultiple: 5.0,
			MinRR:          1.5,
		},
	}
}

// window with every true range exactly 4 (ATR=4) and a breakout close:
// prior 20-bar high 100, last close 101, stop (min low of last 10) 96.
// Generated candidate: entry=101, stop=96, distance=5, tp1=106, rr=1.0.
func atr4Window() []models.Candle {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, 0, 25)
	for i := 0; i < 25; i++ {
		out = append(out, models.Candle{
			Timestamp: start.Add(time.Duration(i) * 5 * time.Minute),
			Open:      99, High: 100, Low: 96, Close: 99,
			Volume: 10,
		})
	}
	out[24].Open = 99
	out[24].High = 101
	out[24].Low = 97
	out[24].Close = 101
	return out
}

func generated(t *testing.T, window []models.Candle) *models.TradingSignal {
	t.Helper()
	sig, err := strategy.Generate("BTC/USDT", window)
	require.NoError(t, err)
	require.NotNil(t, sig)
	return sig
}

func TestApply_RejectsLowRR(t *testing.T) {
	// tp1 sits at 1R, so rr=1.0 < default min_rr 1.5: silent rejection
	w := atr4Window()
	approved, err := Apply(generated(t, w), w, testCfg())
	require.NoError(t, err)
	assert.Nil(t, approved)
}

func TestApply_PassAssignsDecisionID(t *testing.T) {
	w := atr4Window()
	cfg := testCfg()
	cfg.Risk.MinRR = 1.0

	candidate := generated(t, w)
	approved, err := Apply(candidate, w, cfg)
	require.NoError(t, err)
	require.NotNil(t, approved)

	assert.NotEmpty(t, approved.DecisionID)
	assert.False(t, approved.Timestamp.IsZero())
	require.NoError(t, approved.Validate())

	// distance stays inside the ATR corridor it was admitted through
	dist := w[len(w)-1].Close - approved.Risk.InitialStop
	assert.GreaterOrEqual(t, dist, cfg.Risk.MinATRMultiple*4.0)
	assert.LessOrEqual(t, dist, cfg.Risk.MaxATRMultiple*4.0)

	// two approvals of the same candidate are distinct decisions
	again, err := Apply(candidate, w, cfg)
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.NotEqual(t, approved.DecisionID, again.DecisionID)
}

func TestApply_BoundsInclusive(t *testing.T) {
	// distance=5, ATR=4; a bound that lands exactly on the distance admits it
	w := atr4Window()
	cfg := testCfg()
	cfg.Risk.MinRR = 1.0

	cfg.Risk.MinATRMultiple = 1.25 // 1.25*4 == 5
	approved, err := Apply(generated(t, w), w, cfg)
	require.NoError(t, err)
	assert.NotNil(t, approved, "lower bound is inclusive")

	cfg.Risk.MinATRMultiple = 1.3 // 5.2 > 5
	approved, err = Apply(generated(t, w), w, cfg)
	require.NoError(t, err)
	assert.Nil(t, approved)

	cfg.Risk.MinATRMultiple = 0.5
	cfg.Risk.MaxATRMultiple = 1.25 // upper bound exactly at the distance
	approved, err = Apply(generated(t, w), w, cfg)
	require.NoError(t, err)
	assert.NotNil(t, approved, "upper bound is inclusive")

	cfg.Risk.MaxATRMultiple = 1.2 // 4.8 < 5
	approved, err = Apply(generated(t, w), w, cfg)
	require.NoError(t, err)
	assert.Nil(t, approved)
}

func TestApply_ClampsCapitalWithoutMutatingCandidate(t *testing.T) {
	w := atr4Window()
	cfg := testCfg()
	cfg.Risk.MinRR = 1.0
	cfg.MaxCapitalPct = 0.02

	candidate := generated(t, w)
	require.Equal(t, 0.05, candidate.Risk.MaxCapitalPct)

	approved, err := Apply(candidate, w, cfg)
	require.NoError(t, err)
	require.NotNil(t, approved)

	assert.Equal(t, 0.02, approved.Risk.MaxCapitalPct, "clamped, not rejected")
	assert.Equal(t, 0.05, candidate.Risk.MaxCapitalPct, "candidate untouched")
}

func TestApply_ShortMirror(t *testing.T) {
	w := atr4Window()
	cfg := testCfg()
	cfg.Risk.MinRR = 1.0

	candidate := &models.TradingSignal{
		Version:    models.SchemaVersion,
		Timestamp:  w[len(w)-1].Timestamp,
		Symbol:     "BTC/USDT",
		Side:       models.SideShort,
		Confidence: 0.6,
		Entry:      models.EntrySpec{Type: models.EntryMarket},
		Risk: models.RiskPlan{
			InitialStop: 106, // above entry 101
			TakeProfits: []models.TakeProfit{
				{Price: 96, SizePct: 0.5},
				{Price: 91, SizePct: 0.5},
			},
			MaxCapitalPct: 0.05,
		},
		Rationale: "Breakdown below 20-bar low",
	}

	approved, err := Apply(candidate, w, cfg)
	require.NoError(t, err)
	require.NotNil(t, approved)
	assert.Equal(t, models.SideShort, approved.Side)
}

func TestApply_InsufficientData(t *testing.T) {
	w := atr4Window()
	candidate := generated(t, w)

	_, err := Apply(candidate, w[:10], testCfg())
	assert.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestApply_NilCandidate(t *testing.T) {
	approved, err := Apply(nil, atr4Window(), testCfg())
	require.NoError(t, err)
	assert.Nil(t, approved)
}
