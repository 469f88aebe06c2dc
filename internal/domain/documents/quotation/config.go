package quotation

import "invoicepro/internal/core/numerator"

const (
	// NumberPrefix starts every quotation number: QUO-2026-00001.
	NumberPrefix = "QUO"

	// NumeratorStrategy is Cached: quotations tolerate gaps.
	NumeratorStrategy = numerator.StrategyCached

	// SweepBatchSize bounds one expiry sweep pass.
	SweepBatchSize = 500
)
