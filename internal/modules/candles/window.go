package candles

import (
	"fmt"

	"signal_bridge/internal/models"
)

// ValidateWindow проверяет граничный контракт свечного окна:
// строго возрастающие уникальные таймштампы, неотрицательные значения.
// Чистые функции дальше по пайплайну на это полагаются и сами не проверяют.
func ValidateWindow(cs []models.Candle) error {
	for i, c := range cs {
		if c.Open < 0 || c.High < 0 || c.Low < 0 || c.Close < 0 || c.Volume < 0 {
			return fmt.Errorf("%w: candle[%d] has negative field", models.ErrValidation, i)
		}
		if c.High < c.Low {
			return fmt.Errorf("%w: candle[%d] high %v below low %v", models.ErrValidation, i, c.High, c.Low)
		}
		if i == 0 {
			continue
		}
		if !cs[i-1].Timestamp.Before(c.Timestamp) {
			return fmt.Errorf("%w: candle[%d] timestamp not ascending", models.ErrValidation, i)
		}
	}
	return nil
}

// ATR — средний истинный диапазон за period свечей.
// TR_i = max(high-low, |high-prevClose|, |low-prevClose|), усреднение простое.
// Нужно минимум period+1 свечей.
func ATR(cs []models.Candle, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("%w: atr period %d", models.ErrValidation, period)
	}
	if len(cs) < period+1 {
		return 0, fmt.Errorf("%w: atr needs %d candles, got %d", models.ErrInsufficientData, period+1, len(cs))
	}

	trs := make([]float64, 0, len(cs)-1)
	for i := 1; i < len(cs); i++ {
		hl := cs[i].High - cs[i].Low
		hc := abs(cs[i].High - cs[i-1].Close)
		lc := abs(cs[i].Low - cs[i-1].Close)
		trs = append(trs, max3(hl, hc, lc))
	}

	sum := 0.0
	for _, tr := range trs[len(trs)-period:] {
		sum += tr
	}
	return sum / float64(period), nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
