package candles

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"signal_bridge/internal/models"
	"signal_bridge/pkg/logger"
)

const (
	okxWSURL = "wss://ws.okx.com:8443/ws/v5/business"

	// сколько закрытых свечей держим на символ
	streamWindowCap = 500
)

// StreamSource — живой источник: один WebSocket на таймфрейм, пачка
// инструментов в args, в окна попадают только закрытые свечи.
type StreamSource struct {
	url       string
	timeframe string
	dialer    *websocket.Dialer

	mu      sync.RWMutex
	windows map[string][]models.Candle // ключ — нормализованный символ
}

func NewStreamSource(timeframe string) *StreamSource {
	return &StreamSource{
		url:       okxWSURL,
		timeframe: timeframe,
		dialer:    &websocket.Dialer{},
		windows:   make(map[string][]models.Candle),
	}
}

// Window отдаёт копию накопленного окна. Пока стрим не прогрелся,
// окно короче limit — минимум дальше проверяет потребитель.
func (s *StreamSource) Window(_ context.Context, symbol string, limit int) ([]models.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w := s.windows[models.NormalizeSymbol(symbol)]
	if len(w) > limit {
		w = w[len(w)-limit:]
	}
	out := make([]models.Candle, len(w))
	copy(out, w)
	return out, nil
}

// Run держит соединение и реконнектится до отмены контекста.
func (s *StreamSource) Run(ctx context.Context, symbols []string) {
	if len(symbols) == 0 {
		return
	}

	channel := "candle" + s.timeframe

	args := make([]map[string]string, 0, len(symbols))
	for _, sym := range symbols {
		args = append(args, map[string]string{
			"channel": channel,
			"instId":  instID(sym),
		})
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		logger.Info("[WS] connect %s, %d symbols", channel, len(symbols))
		conn, _, err := s.dialer.Dial(s.url, nil)
		if err != nil {
			logger.Error("[WS] dial: %v", err)
			time.Sleep(time.Second)
			continue
		}

		sub := map[string]any{"op": "subscribe", "args": args}
		if err := conn.WriteJSON(sub); err != nil {
			logger.Error("[WS] subscribe: %v", err)
			_ = conn.Close()
			continue
		}

		// keepalive, иначе биржа рвёт соединение
		stopPing := make(chan struct{})
		go func() {
			t := time.NewTicker(20 * time.Second)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-stopPing:
					return
				case <-t.C:
					_ = conn.WriteJSON(map[string]string{"op": "ping"})
				}
			}
		}()

		s.readLoop(ctx, conn, channel)
		close(stopPing)
		_ = conn.Close()

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (s *StreamSource) readLoop(ctx context.Context, conn *websocket.Conn, channel string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Error("[WS] read: %v", err)
			return
		}

		var frame struct {
			Arg struct {
				Channel string `json:"channel"`
				InstID  string `json:"instId"`
			} `json:"arg"`
			Data [][]string `json:"data"`
		}
		if err := sonic.Unmarshal(msg, &frame); err != nil {
			continue
		}
		if frame.Arg.Channel != channel || len(frame.Data) == 0 {
			continue
		}

		for _, row := range frame.Data {
			c, ok := parseCandleRow(row)
			if !ok {
				continue
			}
			s.push(symbolFromInstID(frame.Arg.InstID), c)
		}
	}
}

// parseCandleRow — формат [ts, o, h, l, c, vol, ..., confirm],
// берём только подтверждённые (закрытые) свечи.
func parseCandleRow(row []string) (models.Candle, bool) {
	if len(row) < 6 {
		return models.Candle{}, false
	}
	if row[len(row)-1] != "1" {
		return models.Candle{}, false
	}

	tsMs, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return models.Candle{}, false
	}

	open, err1 := strconv.ParseFloat(row[1], 64)
	high, err2 := strconv.ParseFloat(row[2], 64)
	low, err3 := strconv.ParseFloat(row[3], 64)
	closePx, err4 := strconv.ParseFloat(row[4], 64)
	vol, err5 := strconv.ParseFloat(row[5], 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
		return models.Candle{}, false
	}
	if closePx <= 0 {
		return models.Candle{}, false
	}

	return models.Candle{
		Timestamp: time.UnixMilli(tsMs).UTC(),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePx,
		Volume:    vol,
	}, true
}

func (s *StreamSource) push(symbol string, c models.Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.windows[symbol]
	// дубликаты/рассинхрон по времени в окно не пускаем
	if n := len(w); n > 0 && !w[n-1].Timestamp.Before(c.Timestamp) {
		return
	}
	w = append(w, c)
	if len(w) > streamWindowCap {
		w = w[len(w)-streamWindowCap:]
	}
	s.windows[symbol] = w
}

// instID: "BTC/USDT" -> "BTC-USDT"
func instID(symbol string) string {
	return strings.ReplaceAll(models.NormalizeSymbol(symbol), "/", "-")
}

func symbolFromInstID(id string) string {
	return models.NormalizeSymbol(strings.ReplaceAll(id, "-", "/"))
}
