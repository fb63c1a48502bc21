package parser

// Option configures a Parser, ported from the teacher's functional-options
// ParserOpt/ParserConfig shape (runtime/parser/options.go).
type Option func(*config)

type config struct {
	throwOnError  bool
	errorRecovery bool
	trackRanges   bool
	maxErrors     int // 0 means unlimited
}

func defaultConfig() config {
	return config{}
}

// WithThrowOnError makes Parse return the first diagnostic as a Go error
// instead of collecting it (default: false). When WithErrorRecovery is also
// set, recovery wins: the parser always produces *some* AST in that mode.
func WithThrowOnError() Option { return func(c *config) { c.throwOnError = true } }

// WithErrorRecovery enables synchronization-point recovery: a parse failure
// synthesizes an Error/Incomplete node and continues, instead of aborting.
func WithErrorRecovery() Option { return func(c *config) { c.errorRecovery = true } }

// WithTrackRanges makes every AST node carry a full SetRange after it's
// built, not just its starting Position.
func WithTrackRanges() Option { return func(c *config) { c.trackRanges = true } }

// WithMaxErrors caps the number of error-severity diagnostics collected;
// n <= 0 means unlimited.
func WithMaxErrors(n int) Option { return func(c *config) { c.maxErrors = n } }
