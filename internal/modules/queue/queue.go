package queue

import (
	"context"
	"errors"
	"time"

	"signal_bridge/internal/models"
)

// ErrDecode — payload в хранилище нечитаем. Для control-flow вызывающего
// это то же "ничего нет", но в диагностике отличимо от честного отсутствия.
var ErrDecode = errors.New("queue payload decode")

// Store — очередь передачи сигналов бриджу: на символ хранится только
// самый свежий сигнал. Publish/FetchLatest по одному ключу атомарны,
// глобальной блокировки между символами нет.
type Store interface {
	// Publish кладёт сигнал в слот символа, затирая предыдущий.
	// Повторная публикация того же сигнала идемпотентна.
	Publish(ctx context.Context, sig *models.TradingSignal) error

	// FetchLatest отдаёт самый свежий сигнал символа.
	// Нет записи либо запись старше maxAge — (nil, nil); протухшие
	// записи остаются в хранилище для аудита, гейт — свежесть,
	// не удаление. Битый payload — (nil, ErrDecode...).
	FetchLatest(ctx context.Context, symbol string, maxAge time.Duration) (*models.TradingSignal, error)
}

// Entry — то, что реально лежит в хранилище: сигнал плюс время публикации.
type Entry struct {
	Signal      *models.TradingSignal `json:"signal"`
	PublishedAt time.Time             `json:"published_at"`
}
