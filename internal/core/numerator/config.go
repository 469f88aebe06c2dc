// Package numerator defines how documents get their human-readable numbers.
package numerator

// Strategy selects how sequence values are taken from storage.
type Strategy int

const (
	// StrategyStrict takes one value per call inside the caller's transaction,
	// so a rolled back document gives its number back and there are no gaps.
	StrategyStrict Strategy = iota

	// StrategyCached reserves a block of values and hands them out from
	// memory. Numbers stay unique; a restart leaves a gap.
	StrategyCached
)

// DefaultRangeSize is the block size StrategyCached reserves when
// Options.RangeSize is zero.
const DefaultRangeSize int64 = 50

// Options tune a single GetNextNumber call.
type Options struct {
	Strategy  Strategy
	RangeSize int64
}

// DefaultOptions returns strict, gap-free numbering.
func DefaultOptions() *Options {
	return &Options{Strategy: StrategyStrict}
}

// ResetPeriod controls when a sequence starts again at 1.
type ResetPeriod string

const (
	ResetYearly  ResetPeriod = "year"
	ResetMonthly ResetPeriod = "month"
	ResetNever   ResetPeriod = "never"
)

// Config describes the number format of one document type, for example
// INV-2026-00042.
type Config struct {
	Prefix      string
	IncludeYear bool
	PadWidth    int // 5 when zero
	ResetPeriod ResetPeriod
}

// DefaultConfig numbers PREFIX-YYYY-NNNNN, restarting every year.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: ResetYearly,
	}
}
