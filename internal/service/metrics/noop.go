// Package metrics provides a no-op recorder for tests and for running
// with metrics disabled. The real Prometheus recorder lives in
// pkg/metrics.
package metrics

// Noop satisfies the domain metrics interface without recording.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (Noop) RecordForecastServed(granularity, model string)   {}
func (Noop) RecordTrainingRun(result string, seconds float64) {}
func (Noop) RecordError(kind string)                          {}
func (Noop) RecordModelRMSE(model string, rmse float64)       {}
func (Noop) RecordActiveModel(model string, variants []string) {}
func (Noop) RecordLatency(op string, seconds float64)         {}
func (Noop) RecordCacheLookup(outcome string)                 {}
