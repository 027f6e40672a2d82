package strategy

import (
	"fmt"

	"signal_bridge/internal/models"
)

const (
	// BreakoutLookback — за сколько баров ищем пробитый максимум
	// (текущий бар не считается).
	BreakoutLookback = 20

	// StopLookback — минимум low за сколько баров берём стопом.
	StopLookback = 10

	// ConfidenceDefault — фиксированная заглушка уверенности.
	ConfidenceDefault = 0.6

	// MinWindow — лукбек + текущий бар.
	MinWindow = BreakoutLookback + 1
)

// Generate — пробойная long-only стратегия. Чистая функция: без состояния,
// без I/O, одинаковое окно всегда даёт одинаковый результат.
// Нет пробоя — (nil, nil), это штатный исход, не ошибка.
func Generate(symbol string, window []models.Candle) (*models.TradingSignal, error) {
	if len(window) < MinWindow {
		return nil, fmt.Errorf("%w: breakout needs %d candles, got %d", models.ErrInsufficientData, MinWindow, len(window))
	}

	last := window[len(window)-1]
	entry := last.Close

	// максимум high за лукбек, текущий бар исключаем
	prior := window[len(window)-1-BreakoutLookback : len(window)-1]
	recentHigh := prior[0].High
	for _, c := range prior[1:] {
		if c.High > recentHigh {
			recentHigh = c.High
		}
	}
	if entry <= recentHigh {
		return nil, nil
	}

	// стоп — минимум low за последние StopLookback баров
	stopWindow := window[len(window)-StopLookback:]
	stop := stopWindow[0].Low
	for _, c := range stopWindow[1:] {
		if c.Low < stop {
			stop = c.Low
		}
	}

	// вырожденная дистанция риска — сетапа нет
	riskPerUnit := entry - stop
	if riskPerUnit <= 0 {
		return nil, nil
	}

	return &models.TradingSignal{
		Version:    models.SchemaVersion,
		Timestamp:  last.Timestamp.UTC(),
		Symbol:     models.NormalizeSymbol(symbol),
		Side:       models.SideLong,
		Confidence: ConfidenceDefault,
		Entry:      models.EntrySpec{Type: models.EntryMarket},
		Risk: models.RiskPlan{
			InitialStop: stop,
			TakeProfits: []models.TakeProfit{
				{Price: entry + riskPerUnit, SizePct: 0.5},
				{Price: entry + 2*riskPerUnit, SizePct: 0.5},
			},
			MaxCapitalPct: 0.05,
		},
		Rationale: fmt.Sprintf("Breakout above %d-bar high", BreakoutLookback),
	}, nil
}
