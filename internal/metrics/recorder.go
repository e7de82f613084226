package metrics

import "time"

// Recorder defines observability hooks for rendering, search and export.
// Implementations may forward to Prometheus, OpenTelemetry, etc. Components
// receive a Recorder through injection and default to NoopRecorder, so
// metrics stay optional.
type Recorder interface {
	ObserveRenderDuration(kind string, d time.Duration) // kind: doc|post|page
	IncRender(kind string)
	IncLinkErrors(kind string, n int)
	IncSearchQuery()
	ObserveExportDuration(d time.Duration)
	IncExportedFiles(n int)
	IncExportOutcome(outcome string) // outcome: success|warning|failed
	ObserveHTTPRequest(route string, status int, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRenderDuration(string, time.Duration)   {}
func (NoopRecorder) IncRender(string)                              {}
func (NoopRecorder) IncLinkErrors(string, int)                     {}
func (NoopRecorder) IncSearchQuery()                               {}
func (NoopRecorder) ObserveExportDuration(time.Duration)           {}
func (NoopRecorder) IncExportedFiles(int)                          {}
func (NoopRecorder) IncExportOutcome(string)                       {}
func (NoopRecorder) ObserveHTTPRequest(string, int, time.Duration) {}
