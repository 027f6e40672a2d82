package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_bridge/internal/models"
	"signal_bridge/internal/modules/config"
	"signal_bridge/internal/modules/ledger"
	"signal_bridge/internal/modules/queue"
)

// stubSource returns a canned window regardless of symbol.
type stubSource struct {
	window []models.Candle
}

func (s *stubSource) Window(_ context.Context, _ string, _ int) ([]models.Candle, error) {
	return s.window, nil
}

type recordingNotifier struct {
	sent []string
}

func (n *recordingNotifier) Send(msg string)                  { n.sent = append(n.sent, msg) }
func (n *recordingNotifier) Sendf(format string, args ...any) { n.sent = append(n.sent, format) }

// breakout window with ATR=4: prior 20-bar high 100, last close 101,
// stop (min low of last 10) 96, so the candidate carries rr=1.0.
func breakoutWindow() []models.Candle {
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

// flatWindow has no breakout: every close sits at the rolling high.
func flatWindow() []models.Candle {
	w := breakoutWindow()
	last := &w[len(w)-1]
	last.High = 100
	last.Close = 100
	return w
}

func testRunner(t *testing.T, window []models.Candle, minRR float64) (*Runner, *queue.MemoryStore, *ledger.Ledger, *recordingNotifier) {
	t.Helper()
	cfg := &config.Config{
		CandleLimit:   200,
		MaxCapitalPct: 0.05,
		SignalMaxAge:  time.Hour,
		Risk: config.RiskConfig{
			ATRPeriod:      14,
			MinATRMultiple: 0.5,
			MaxATRMultiple: 5.0,
			MinRR:          minRR,
		},
	}
	store := queue.NewMemoryStore()
	led := ledger.New(t.TempDir())
	notifier := &recordingNotifier{}
	r := NewRunner(cfg, &stubSource{window: window}, store, led, notifier)
	return r, store, led, notifier
}

func TestRunCycle_Published(t *testing.T) {
	r, store, led, notifier := testRunner(t, breakoutWindow(), 1.0)

	res, err := r.RunCycle(context.Background(), "btc/usdt", false)
	require.NoError(t, err)
	require.Equal(t, StatusPublished, res.Status)
	assert.Equal(t, "BTC/USDT", res.Symbol)
	assert.NotEmpty(t, res.DecisionID)
	assert.Equal(t, 101.0, res.EntryPrice)
	assert.Equal(t, 96.0, res.Stop)
	assert.Equal(t, 106.0, res.TP1)
	assert.Equal(t, 111.0, res.TP2)

	// signal is in the queue under the normalized symbol
	sig, err := store.FetchLatest(context.Background(), "BTC/USDT", time.Hour)
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, res.DecisionID, sig.DecisionID)

	// and the decision row landed in the journal
	rows, err := led.LoadDecisions()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, res.DecisionID, rows[0].DecisionID)

	assert.NotEmpty(t, notifier.sent)
}

func TestRunCycle_NoTrade(t *testing.T) {
	r, store, led, _ := testRunner(t, flatWindow(), 1.0)

	res, err := r.RunCycle(context.Background(), "BTC/USDT", false)
	require.NoError(t, err)
	assert.Equal(t, StatusNoTrade, res.Status)
	assert.Equal(t, "no_breakout", res.Reason)
	assert.Equal(t, 25, res.Candles)

	sig, err := store.FetchLatest(context.Background(), "BTC/USDT", time.Hour)
	require.NoError(t, err)
	assert.Nil(t, sig)

	rows, err := led.LoadDecisions()
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRunCycle_Filtered(t *testing.T) {
	// rr=1.0 candidate against min_rr 1.5 is filtered, not an error
	r, store, led, notifier := testRunner(t, breakoutWindow(), 1.5)

	res, err := r.RunCycle(context.Background(), "BTC/USDT", false)
	require.NoError(t, err)
	assert.Equal(t, StatusFiltered, res.Status)
	assert.Equal(t, "risk_gate_reject", res.Reason)

	sig, err := store.FetchLatest(context.Background(), "BTC/USDT", time.Hour)
	require.NoError(t, err)
	assert.Nil(t, sig)

	rows, err := led.LoadDecisions()
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Empty(t, notifier.sent)
}

func TestRunCycle_PreviewWritesNothing(t *testing.T) {
	r, store, led, notifier := testRunner(t, breakoutWindow(), 1.0)

	res, err := r.RunCycle(context.Background(), "BTC/USDT", true)
	require.NoError(t, err)
	require.Equal(t, StatusPreview, res.Status)
	assert.NotEmpty(t, res.DecisionID, "the decision is fully formed")
	assert.Equal(t, 106.0, res.TP1)

	// but nothing left the process
	sig, err := store.FetchLatest(context.Background(), "BTC/USDT", time.Hour)
	require.NoError(t, err)
	assert.Nil(t, sig)

	rows, err := led.LoadDecisions()
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Empty(t, notifier.sent)
}
