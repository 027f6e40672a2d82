package runner

import (
	"context"

	"github.com/opentracing/opentracing-go"

	"signal_bridge/internal/models"
	"signal_bridge/internal/modules/candles"
	"signal_bridge/internal/modules/config"
	"signal_bridge/internal/modules/ledger"
	"signal_bridge/internal/modules/queue"
	"signal_bridge/internal/modules/risk"
	"signal_bridge/internal/modules/strategy"
	"signal_bridge/internal/notify"
	"signal_bridge/pkg/logger"
)

// CycleStatus — итог одного прогона пайплайна.
type CycleStatus string

const (
	StatusNoTrade   CycleStatus = "no_trade"  // пробоя нет, система простаивает
	StatusFiltered  CycleStatus = "filtered"  // риск-гейт отбраковал
	StatusPublished CycleStatus = "published" // сигнал в очереди и журнале
	StatusPreview   CycleStatus = "preview"   // посчитали, никуда не писали
)

// CycleResult — что вернул прогон. Отказы ("no_trade"/"filtered")
// выглядят как обычный результат, не как ошибка.
type CycleResult struct {
	Status     CycleStatus `json:"status"`
	Symbol     string      `json:"symbol"`
	Reason     string      `json:"reason,omitempty"`
	DecisionID string      `json:"decision_id,omitempty"`
	Candles    int         `json:"candles,omitempty"`
	EntryPrice float64     `json:"entry_price,omitempty"`
	Stop       float64     `json:"stop,omitempty"`
	TP1        float64     `json:"tp1,omitempty"`
	TP2        float64     `json:"tp2,omitempty"`
}

// Runner гоняет цикл: свечи -> генерация -> риск -> очередь + журнал.
type Runner struct {
	cfg      *config.Config
	source   candles.Source
	store    queue.Store
	ledger   *ledger.Ledger
	notifier notify.Notifier
}

func NewRunner(
	cfg *config.Config,
	source candles.Source,
	store queue.Store,
	led *ledger.Ledger,
	notifier notify.Notifier,
) *Runner {
	return &Runner{
		cfg:      cfg,
		source:   source,
		store:    store,
		ledger:   led,
		notifier: notifier,
	}
}

// RunCycle — один полный прогон для символа. preview: посчитать, но не
// публиковать и не писать в журнал. Структурные ошибки всплывают до
// любой публикации или записи.
func (r *Runner) RunCycle(ctx context.Context, symbol string, preview bool) (*CycleResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "cycle")
	defer span.Finish()

	symbol = models.NormalizeSymbol(symbol)
	span.SetTag("symbol", symbol)

	window, err := r.source.Window(ctx, symbol, r.cfg.CandleLimit)
	if err != nil {
		return nil, err
	}

	candidate, err := r.generate(symbol, window)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return &CycleResult{
			Status:  StatusNoTrade,
			Symbol:  symbol,
			Reason:  "no_breakout",
			Candles: len(window),
		}, nil
	}

	approved, err := r.applyRisk(candidate, window)
	if err != nil {
		return nil, err
	}
	if approved == nil {
		return &CycleResult{
			Status: StatusFiltered,
			Symbol: symbol,
			Reason: "risk_gate_reject",
		}, nil
	}

	entryPrice := window[len(window)-1].Close
	result := &CycleResult{
		Symbol:     symbol,
		DecisionID: approved.DecisionID,
		EntryPrice: entryPrice,
		Stop:       approved.Risk.InitialStop,
		TP1:        approved.Risk.TakeProfits[0].Price,
		TP2:        approved.Risk.TakeProfits[1].Price,
	}

	if preview {
		result.Status = StatusPreview
		return result, nil
	}

	if err := r.publish(ctx, approved); err != nil {
		return nil, err
	}
	if err := r.ledger.AppendDecision(approved, entryPrice); err != nil {
		return nil, err
	}

	result.Status = StatusPublished
	if r.notifier != nil {
		r.notifier.Sendf("📈 %s %s: entry=%.2f stop=%.2f tp1=%.2f tp2=%.2f",
			approved.Symbol, approved.Side, entryPrice,
			result.Stop, result.TP1, result.TP2)
	}
	logger.Info("cycle published: %s decision_id=%s", symbol, approved.DecisionID)
	return result, nil
}

func (r *Runner) generate(symbol string, window []models.Candle) (*models.TradingSignal, error) {
	span := opentracing.StartSpan("generate")
	defer span.Finish()
	return strategy.Generate(symbol, window)
}

func (r *Runner) applyRisk(candidate *models.TradingSignal, window []models.Candle) (*models.TradingSignal, error) {
	span := opentracing.StartSpan("risk_gate")
	defer span.Finish()
	return risk.Apply(candidate, window, r.cfg)
}

func (r *Runner) publish(ctx context.Context, sig *models.TradingSignal) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "publish")
	defer span.Finish()
	return r.store.Publish(ctx, sig)
}
