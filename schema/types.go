package schema

import "github.com/speakeasy-api/bsonschema/jsonschema"

// Options configures conversions and the helpers layered on the algebra. The
// algebraic operations themselves take no options.
type Options struct {
	// Limits
	MaxDepth int // Max schema nesting accepted by conversions (default: 2048)

	// Incremental inference
	StabilityLimit float64 // Stability limit given to new Jaccard indexes (default: 0.8)

	// Logging configuration
	LogMaxProps         int // Max document keys to show in summaries (default: 5)
	LogMaxAnyOfBranches int // Max anyOf branches to show in summaries (default: 3)
	LogSummaryDepth     int // Max nesting shown in summaries (default: 2)
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		MaxDepth:            jsonschema.DefaultMaxDepth,
		StabilityLimit:      DefaultStabilityLimit,
		LogMaxProps:         5,
		LogMaxAnyOfBranches: 3,
		LogSummaryDepth:     2,
	}
}

// NewJaccardIndex returns a fresh index using the configured stability limit.
func (o Options) NewJaccardIndex() *JaccardIndex {
	return NewJaccardIndexWithLimit(o.StabilityLimit)
}
