package candles

import (
	"context"
	"time"

	"signal_bridge/internal/models"
)

// Source — источник свечного окна для символа.
// Окно всегда по возрастанию, последняя свеча — самая свежая закрытая.
type Source interface {
	Window(ctx context.Context, symbol string, limit int) ([]models.Candle, error)
}

// SyntheticSource — дефолтный источник без внешних подключений.
type SyntheticSource struct{}

func NewSyntheticSource() *SyntheticSource { return &SyntheticSource{} }

func (s *SyntheticSource) Window(_ context.Context, symbol string, limit int) ([]models.Candle, error) {
	w := Synthetic(symbol, limit, time.Now().UTC())
	if err := ValidateWindow(w); err != nil {
		return nil, err
	}
	return w, nil
}
