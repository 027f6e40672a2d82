package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"signal_bridge/internal/models"
)

// MemoryStore — дефолтный бэкенд без внешних зависимостей.
// Слот хранит сериализованный payload, так что путь чтения одинаков
// с внешними бэкендами: fetch всегда проходит через декодер.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[string][]byte
	clock func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		slots: make(map[string][]byte),
		clock: func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) Publish(_ context.Context, sig *models.TradingSignal) error {
	if err := sig.Validate(); err != nil {
		return err
	}
	raw, err := sonic.Marshal(Entry{Signal: sig, PublishedAt: m.clock()})
	if err != nil {
		return fmt.Errorf("marshal queue entry: %w", err)
	}

	m.mu.Lock()
	m.slots[models.NormalizeSymbol(sig.Symbol)] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) FetchLatest(_ context.Context, symbol string, maxAge time.Duration) (*models.TradingSignal, error) {
	m.mu.RLock()
	raw, ok := m.slots[models.NormalizeSymbol(symbol)]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return decodeEntry(raw, m.clock(), maxAge)
}

// decodeEntry — общий хвост fetch-пути всех бэкендов.
func decodeEntry(raw []byte, now time.Time, maxAge time.Duration) (*models.TradingSignal, error) {
	var e Entry
	if err := sonic.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if e.Signal == nil {
		return nil, fmt.Errorf("%w: entry without signal", ErrDecode)
	}
	if now.Sub(e.PublishedAt) > maxAge {
		return nil, nil // протух, но в хранилище остаётся
	}
	return e.Signal, nil
}
