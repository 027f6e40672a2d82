package candles

import (
	"math"
	"strings"
	"time"

	"signal_bridge/internal/models"
)

const syntheticInterval = 5 * time.Minute

// Synthetic — детерминированное случайное блуждание, сид от символа.
// Заглушка источника данных: один и тот же символ всегда даёт один и тот же
// ряд (с точностью до привязки к now), таймштампы через 5m по возрастанию.
func Synthetic(symbol string, limit int, now time.Time) []models.Candle {
	if limit < 50 {
		limit = 50
	}

	seed := float64(symbolSeed(symbol) % 10_000)

	base := 1_000.0
	if strings.Contains(strings.ToUpper(symbol), "BTC") {
		base = 50_000.0
	}

	start := now.Truncate(time.Minute).Add(-time.Duration(limit-1) * syntheticInterval)

	out := make([]models.Candle, 0, limit)
	for i := 0; i < limit; i++ {
		tf := (seed + float64(i)) / 1000.0
		trend := float64(i) * 0.001
		noise := math.Sin(tf)*0.02 + math.Cos(tf*1.7)*0.01

		closePx := round2(base * (1 + trend + noise))
		vol := closePx * 0.005
		high := round2(closePx + vol*math.Abs(math.Sin(tf+1)))
		low := round2(closePx - vol*math.Abs(math.Cos(tf+2)))
		if high < closePx {
			high = closePx
		}
		if low > closePx {
			low = closePx
		}

		openPx := round2(base)
		if i > 0 {
			openPx = out[i-1].Close
		}

		out = append(out, models.Candle{
			Timestamp: start.Add(time.Duration(i) * syntheticInterval),
			Open:      openPx,
			High:      high,
			Low:       low,
			Close:     closePx,
			Volume:    round2(20.0 + 30.0*math.Abs(math.Sin(tf+3))),
		})
	}
	return out
}

func symbolSeed(symbol string) uint32 {
	// FNV-1a, чтобы не тянуть math/rand ради сида
	var h uint32 = 2166136261
	for i := 0; i < len(symbol); i++ {
		h ^= uint32(symbol[i])
		h *= 16777619
	}
	return h
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
