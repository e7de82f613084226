package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveRenderDuration("doc", 150*time.Millisecond)
	pr.IncRender("doc")
	pr.IncLinkErrors("doc", 2)
	pr.IncSearchQuery()
	pr.ObserveExportDuration(500 * time.Millisecond)
	pr.IncExportedFiles(42)
	pr.IncExportOutcome("warning")
	pr.ObserveHTTPRequest("/docs/{chapter}/{page}", 200, 5*time.Millisecond)
	// Basic scrape to ensure metrics encode without panic
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatalf("expected metrics, got none")
	}
}
