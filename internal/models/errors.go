package models

import "errors"

var (
	// ErrInsufficientData — окно свечей короче минимума операции.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrValidation — сконструированный сигнал/план нарушает инвариант схемы.
	ErrValidation = errors.New("validation")
)
