package risk

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"signal_bridge/internal/models"
	"signal_bridge/internal/modules/candles"
	"signal_bridge/internal/modules/config"
)

// Apply прогоняет кандидата через числовые фильтры и финализирует сигнал.
// Отказ по границам — это (nil, nil), штатный исход без ошибки: отсутствие
// сделки неотличимо от простоя. Ошибка только на нехватке данных или
// невалидном кандидате.
//
// Фильтры:
//  1. minMult*ATR <= дистанция до стопа <= maxMult*ATR (границы включительно)
//  2. RR по первому тейку >= minRR
//  3. max_capital_pct зажимается конфигом, это клэмп, не отказ
func Apply(candidate *models.TradingSignal, window []models.Candle, cfg *config.Config) (*models.TradingSignal, error) {
	if candidate == nil {
		return nil, nil
	}

	atr, err := candles.ATR(window, cfg.Risk.ATRPeriod)
	if err != nil {
		return nil, err
	}
	if atr <= 0 || math.IsNaN(atr) || math.IsInf(atr, 0) {
		return nil, fmt.Errorf("%w: degenerate atr %v", models.ErrInsufficientData, atr)
	}

	entry := window[len(window)-1].Close
	stop := candidate.Risk.InitialStop
	tp1 := candidate.Risk.TakeProfits[0].Price

	// зеркально для шорта
	var distance, rr float64
	switch candidate.Side {
	case models.SideLong:
		distance = entry - stop
		if distance > 0 {
			rr = (tp1 - entry) / distance
		}
	case models.SideShort:
		distance = stop - entry
		if distance > 0 {
			rr = (entry - tp1) / distance
		}
	default:
		return nil, fmt.Errorf("%w: side %q", models.ErrValidation, candidate.Side)
	}

	if distance <= 0 {
		return nil, nil
	}
	if distance < cfg.Risk.MinATRMultiple*atr || distance > cfg.Risk.MaxATRMultiple*atr {
		return nil, nil
	}
	if rr < cfg.Risk.MinRR {
		return nil, nil
	}

	// новый инстанс: кандидата не мутируем
	approved := *candidate
	approved.Risk.TakeProfits = append([]models.TakeProfit(nil), candidate.Risk.TakeProfits...)
	if approved.Risk.MaxCapitalPct > cfg.MaxCapitalPct {
		approved.Risk.MaxCapitalPct = cfg.MaxCapitalPct
	}
	approved.DecisionID = uuid.NewString()
	approved.Timestamp = time.Now().UTC()

	if err := approved.Validate(); err != nil {
		return nil, err
	}
	return &approved, nil
}
