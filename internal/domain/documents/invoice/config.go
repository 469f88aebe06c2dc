package invoice

import "invoicepro/internal/core/numerator"

const (
	// NumberPrefix starts every invoice number: INV-2026-00001.
	NumberPrefix = "INV"

	// NumeratorStrategy is Strict: invoice numbers must not have gaps.
	NumeratorStrategy = numerator.StrategyStrict

	// SweepBatchSize bounds one overdue sweep pass.
	SweepBatchSize = 500
)
