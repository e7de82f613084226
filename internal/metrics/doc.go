// Package metrics provides observability hooks for rendering, search,
// export and HTTP serving.
//
// The package implements the Null Object pattern: every component takes a
// Recorder through dependency injection and defaults to NoopRecorder, whose
// no-op methods inline away. Enabling metrics means swapping in
// PrometheusRecorder at wiring time; no call sites change.
//
// Components hold the interface, never a concrete recorder:
//
//	type Exporter struct {
//	    recorder metrics.Recorder
//	}
//
// The server exposes the registry via HTTPHandler on /metrics when
// server.metrics.enabled is set.
package metrics
