package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("render_pages", 150*time.Millisecond)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncStageResult("render_pages", ResultSuccess)
	pr.IncBuildOutcome("success")
	pr.AddPagesRendered(12)
	pr.AddImageVariantsEncoded(5)
	// Basic scrape to ensure metrics encode without panic
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatalf("expected metrics, got none")
	}
}

func TestNilPrometheusRecorder_MethodsNoop(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveStageDuration("render_pages", time.Second)
	pr.ObserveBuildDuration(time.Second)
	pr.IncStageResult("render_pages", ResultFatal)
	pr.IncBuildOutcome("failed")
	pr.AddPagesRendered(1)
	pr.AddImageVariantsEncoded(1)
}
