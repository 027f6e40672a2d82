package bridge

import (
	"context"
	"errors"
	"sync"
	"time"

	"signal_bridge/internal/modules/candles"
	"signal_bridge/internal/modules/ledger"
	"signal_bridge/internal/modules/queue"
	"signal_bridge/pkg/logger"

	"signal_bridge/internal/models"
)

// Paper — исполнитель поверх очереди, без биржи. Контракт ядра:
// забрать свежий сигнал через FetchLatest, взвести вход, держать
// {decision_id, initial_stop, tp1, tp2} в своей бухгалтерии, выйти
// целиком на tp1 либо по стопу — и единственным писать исходы.
type Paper struct {
	store  queue.Store
	ledger *ledger.Ledger
	source candles.Source
	maxAge time.Duration

	mu        sync.Mutex
	positions map[string]*position
	consumed  map[string]struct{} // decision_id уже брали, повторно не входим
}

type position struct {
	DecisionID string
	Side       models.Side
	Entry      float64
	Stop       float64
	TP1        float64
	TP2        float64
	OpenedAt   time.Time
}

func NewPaper(store queue.Store, led *ledger.Ledger, source candles.Source, maxAge time.Duration) *Paper {
	return &Paper{
		store:     store,
		ledger:    led,
		source:    source,
		maxAge:    maxAge,
		positions: make(map[string]*position),
		consumed:  make(map[string]struct{}),
	}
}

// Poll — один шаг бриджа по символу: подобрать свежий сигнал, если
// позиции нет, и прогнать открытую позицию по текущей цене.
func (b *Paper) Poll(ctx context.Context, symbol string) error {
	symbol = models.NormalizeSymbol(symbol)

	window, err := b.source.Window(ctx, symbol, 2)
	if err != nil {
		return err
	}
	if len(window) == 0 {
		return nil
	}
	price := window[len(window)-1].Close

	if err := b.arm(ctx, symbol, price); err != nil {
		return err
	}
	return b.tick(symbol, price)
}

// arm взводит вход по свежему сигналу. Битый payload — не авария:
// логируем и живём дальше, как будто сигнала нет.
func (b *Paper) arm(ctx context.Context, symbol string, price float64) error {
	b.mu.Lock()
	_, busy := b.positions[symbol]
	b.mu.Unlock()
	if busy {
		return nil
	}

	sig, err := b.store.FetchLatest(ctx, symbol, b.maxAge)
	if err != nil {
		if errors.Is(err, queue.ErrDecode) {
			logger.Error("bridge %s: %v", symbol, err)
			return nil
		}
		return err
	}
	if sig == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, seen := b.consumed[sig.DecisionID]; seen {
		return nil
	}
	b.consumed[sig.DecisionID] = struct{}{}
	b.positions[symbol] = &position{
		DecisionID: sig.DecisionID,
		Side:       sig.Side,
		Entry:      price,
		Stop:       sig.Risk.InitialStop,
		TP1:        sig.Risk.TakeProfits[0].Price,
		TP2:        sig.Risk.TakeProfits[1].Price,
		OpenedAt:   time.Now().UTC(),
	}
	logger.Info("bridge %s: armed decision_id=%s entry=%.8f stop=%.8f", symbol, sig.DecisionID, price, sig.Risk.InitialStop)
	return nil
}

// tick — выход целиком на tp1 или по стопу, исход в журнал.
func (b *Paper) tick(symbol string, price float64) error {
	b.mu.Lock()
	p, ok := b.positions[symbol]
	b.mu.Unlock()
	if !ok {
		return nil
	}

	var exitReason string
	switch {
	case p.Side == models.SideLong && price >= p.TP1:
		exitReason = "tp1_hit"
	case p.Side == models.SideLong && price <= p.Stop:
		exitReason = "stop_hit"
	case p.Side == models.SideShort && price <= p.TP1:
		exitReason = "tp1_hit"
	case p.Side == models.SideShort && price >= p.Stop:
		exitReason = "stop_hit"
	default:
		return nil
	}

	if err := b.ledger.AppendTradeResult(p.DecisionID, price, p.RMultiple(price), exitReason, time.Now().UTC()); err != nil {
		return err
	}

	b.mu.Lock()
	delete(b.positions, symbol)
	b.mu.Unlock()

	logger.Info("bridge %s: closed decision_id=%s reason=%s", symbol, p.DecisionID, exitReason)
	return nil
}

// StoplossRatio — относительный стоп от цены входа (stop/entry - 1),
// как его ждёт исполняющий слой.
func (p *position) StoplossRatio() float64 {
	if p.Entry <= 0 {
		return 0
	}
	return p.Stop/p.Entry - 1
}

// RMultiple — исход в единицах начального риска.
func (p *position) RMultiple(exit float64) float64 {
	riskDist := p.Entry - p.Stop
	if p.Side == models.SideShort {
		riskDist = p.Stop - p.Entry
	}
	if riskDist <= 0 {
		return 0
	}
	move := exit - p.Entry
	if p.Side == models.SideShort {
		move = p.Entry - exit
	}
	return move / riskDist
}
