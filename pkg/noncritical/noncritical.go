// Package noncritical wraps side-channel calls whose failure must never
// fail the primary operation: access grants during checkout, audit-log
// inserts, customer lookups. The outcome is captured and logged, and the
// caller's flow always continues.
package noncritical

// Logger is the logging subset needed to record a failed side channel.
// *logger.Logger satisfies it.
type Logger interface {
	Warnw(msg string, keysAndValues ...interface{})
}

// Outcome records how a side-channel operation ended.
type Outcome struct {
	Op  string
	Err error
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

// Do runs fn and logs a failure instead of propagating it.
func Do(log Logger, op string, fn func() error) Outcome {
	err := fn()
	if err != nil {
		log.Warnw("side-channel operation failed", "op", op, "error", err)
	}
	return Outcome{Op: op, Err: err}
}

// DoValue is Do for operations that produce a value. On failure the zero
// value is returned alongside the failed outcome.
func DoValue[T any](log Logger, op string, fn func() (T, error)) (T, Outcome) {
	v, err := fn()
	if err != nil {
		log.Warnw("side-channel operation failed", "op", op, "error", err)
		var zero T
		return zero, Outcome{Op: op, Err: err}
	}
	return v, Outcome{Op: op}
}
