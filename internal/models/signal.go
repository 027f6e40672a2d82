package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// SchemaVersion — версия схемы сигнала. Любое изменение полей = bump.
const SchemaVersion = "1.0"

const (
	// RationaleMaxLen — лимит на короткое обоснование сигнала.
	RationaleMaxLen = 60

	// TakeProfitCount — в схеме v1.0 ровно два тейка.
	TakeProfitCount = 2

	// SizeSumTolerance — допуск на сумму size_pct по тейкам.
	SizeSumTolerance = 1e-6
)

// Side — направление сигнала.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

func (s Side) Valid() bool {
	return s == SideLong || s == SideShort
}

// EntryType — способ входа.
type EntryType string

const (
	EntryMarket EntryType = "market"
	EntryLimit  EntryType = "limit"
)

// EntrySpec — как входим. LimitPrice обязателен только для limit.
type EntrySpec struct {
	Type       EntryType `json:"type"`
	LimitPrice float64   `json:"limit_price,omitempty"`
}

// TakeProfit — уровень фиксации и доля позиции на нём.
type TakeProfit struct {
	Price   float64 `json:"price"`
	SizePct float64 `json:"size_pct"`
}

// RiskPlan — стоп, два тейка и ограничение капитала.
type RiskPlan struct {
	InitialStop   float64      `json:"initial_stop"`
	TakeProfits   []TakeProfit `json:"take_profits"`
	MaxCapitalPct float64      `json:"max_capital_pct"`
}

// TradingSignal — неизменяемое торговое решение.
// DecisionID назначается риск-гейтом; изменение решения = новый инстанс
// с новым DecisionID, поля после конструирования не трогаем.
type TradingSignal struct {
	Version    string    `json:"version"`
	DecisionID string    `json:"decision_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Symbol     string    `json:"symbol"`
	Side       Side      `json:"side"`
	Confidence float64   `json:"confidence"`
	Entry      EntrySpec `json:"entry"`
	Risk       RiskPlan  `json:"risk"`
	Rationale  string    `json:"rationale"`
}

// NormalizeSymbol — единый формат ключа: верхний регистр без пробелов.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Validate проверяет все инварианты схемы v1.0 разом.
// Частично валидный сигнал никогда не должен уйти дальше конструирования.
func (s *TradingSignal) Validate() error {
	if s.Version != SchemaVersion {
		return fmt.Errorf("%w: version %q, want %q", ErrValidation, s.Version, SchemaVersion)
	}
	if s.Symbol == "" {
		return fmt.Errorf("%w: empty symbol", ErrValidation)
	}
	if s.Symbol != NormalizeSymbol(s.Symbol) {
		return fmt.Errorf("%w: symbol %q is not normalized", ErrValidation, s.Symbol)
	}
	if !s.Side.Valid() {
		return fmt.Errorf("%w: side %q", ErrValidation, s.Side)
	}
	if s.Confidence <= 0 || s.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v out of (0,1]", ErrValidation, s.Confidence)
	}
	if s.Rationale != strings.TrimSpace(s.Rationale) {
		return fmt.Errorf("%w: rationale has leading/trailing spaces", ErrValidation)
	}
	if len(s.Rationale) > RationaleMaxLen {
		return fmt.Errorf("%w: rationale longer than %d chars", ErrValidation, RationaleMaxLen)
	}
	if err := s.Entry.validate(); err != nil {
		return err
	}
	return s.Risk.validate(s.Side, s.entryRef())
}

// entryRef — цена входа для проверки сторон стопа/тейков.
// Для market её нет (вход по рынку), тогда проверяем только взаимный
// порядок stop/tp.
func (s *TradingSignal) entryRef() float64 {
	if s.Entry.Type == EntryLimit {
		return s.Entry.LimitPrice
	}
	return 0
}

func (e EntrySpec) validate() error {
	switch e.Type {
	case EntryMarket:
		return nil
	case EntryLimit:
		if e.LimitPrice <= 0 {
			return fmt.Errorf("%w: limit entry requires limit_price", ErrValidation)
		}
		return nil
	default:
		return fmt.Errorf("%w: entry type %q", ErrValidation, e.Type)
	}
}

func (r RiskPlan) validate(side Side, entry float64) error {
	if r.InitialStop <= 0 {
		return fmt.Errorf("%w: initial_stop %v", ErrValidation, r.InitialStop)
	}
	if r.MaxCapitalPct <= 0 || r.MaxCapitalPct > 1 {
		return fmt.Errorf("%w: max_capital_pct %v out of (0,1]", ErrValidation, r.MaxCapitalPct)
	}
	if len(r.TakeProfits) != TakeProfitCount {
		return fmt.Errorf("%w: want exactly %d take_profits, got %d", ErrValidation, TakeProfitCount, len(r.TakeProfits))
	}

	sum := 0.0
	for i, tp := range r.TakeProfits {
		if tp.Price <= 0 {
			return fmt.Errorf("%w: take_profit[%d] price %v", ErrValidation, i, tp.Price)
		}
		if tp.SizePct <= 0 || tp.SizePct > 1 {
			return fmt.Errorf("%w: take_profit[%d] size_pct %v out of (0,1]", ErrValidation, i, tp.SizePct)
		}
		sum += tp.SizePct
	}
	if math.Abs(sum-1.0) > SizeSumTolerance {
		return fmt.Errorf("%w: take_profit size_pct sum %v != 1.0", ErrValidation, sum)
	}

	// стоп и тейки по разные стороны от входа
	for i, tp := range r.TakeProfits {
		switch side {
		case SideLong:
			if entry > 0 && tp.Price <= entry {
				return fmt.Errorf("%w: long take_profit[%d] %v not above entry %v", ErrValidation, i, tp.Price, entry)
			}
			if tp.Price <= r.InitialStop {
				return fmt.Errorf("%w: long take_profit[%d] %v not above stop %v", ErrValidation, i, tp.Price, r.InitialStop)
			}
		case SideShort:
			if entry > 0 && tp.Price >= entry {
				return fmt.Errorf("%w: short take_profit[%d] %v not below entry %v", ErrValidation, i, tp.Price, entry)
			}
			if tp.Price >= r.InitialStop {
				return fmt.Errorf("%w: short take_profit[%d] %v not below stop %v", ErrValidation, i, tp.Price, r.InitialStop)
			}
		}
	}
	if entry > 0 {
		if side == SideLong && r.InitialStop >= entry {
			return fmt.Errorf("%w: long stop %v not below entry %v", ErrValidation, r.InitialStop, entry)
		}
		if side == SideShort && r.InitialStop <= entry {
			return fmt.Errorf("%w: short stop %v not above entry %v", ErrValidation, r.InitialStop, entry)
		}
	}
	return nil
}
