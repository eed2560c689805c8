package core

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestExpvarRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	ctx := context.Background()

	rec.Observe(ctx, "add_room", true, 10*time.Millisecond)
	rec.Observe(ctx, "add_room", true, 5*time.Millisecond)
	rec.Observe(ctx, "add_room", false, time.Millisecond)
	rec.Observe(ctx, "", true, time.Millisecond)

	snap := rec.Snapshot()
	if got := snap.Results["add_room"]["success"]; got != 2 {
		t.Fatalf("success count = %d, want 2", got)
	}
	if got := snap.Results["add_room"]["error"]; got != 1 {
		t.Fatalf("error count = %d, want 1", got)
	}
	if got := snap.DurationsMS["add_room"]; got != 16 {
		t.Fatalf("duration total = %v, want 16", got)
	}
	if len(snap.Results) != 1 {
		t.Fatalf("blank operation should be ignored: %+v", snap.Results)
	}
}

func TestPrometheusRecorderRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusMetricsRecorder(reg)

	rec.Observe(context.Background(), "add_bill", true, 2*time.Millisecond)
	rec.Observe(context.Background(), "add_bill", false, time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	if !names["rentledger_service_commands_total"] {
		t.Fatalf("counter not registered: %v", names)
	}
	if !names["rentledger_service_command_duration_seconds"] {
		t.Fatalf("histogram not registered: %v", names)
	}
}
