// Package metrics defines the observability hooks of the notebook server.
//
// Components take a Recorder and default to NoopRecorder, so metrics stay
// optional. PrometheusRecorder is the real implementation.
package metrics

import "time"

// Outcome labels rebuild and render results.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Recorder receives index and view metrics.
type Recorder interface {
	ObserveRebuild(d time.Duration, outcome Outcome)
	SetIndexSize(categories, posts int)
	AddSkipped(n int)
	IncWatchEvent()
	ObserveRender(kind string, d time.Duration, outcome Outcome)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are off).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRebuild(time.Duration, Outcome)        {}
func (NoopRecorder) SetIndexSize(int, int)                        {}
func (NoopRecorder) AddSkipped(int)                               {}
func (NoopRecorder) IncWatchEvent()                               {}
func (NoopRecorder) ObserveRender(string, time.Duration, Outcome) {}

// OutcomeOf maps an error to its outcome label.
func OutcomeOf(err error, canceled bool) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case canceled:
		return OutcomeCanceled
	default:
		return OutcomeFailed
	}
}
