package chatlisp

import (
	"fmt"
	"testing"
	"time"
)

func TestTraceToMap(t *testing.T) {
	tr := &Trace{
		ID:        "r1",
		Code:      "(+ 2 3)",
		Output:    "5",
		Duration:  1500 * time.Millisecond,
		Timestamp: "2026-02-27T20:00:00Z",
	}

	m := tr.ToMap()
	if m["id"] != "r1" || m["code"] != "(+ 2 3)" || m["output"] != "5" {
		t.Fatalf("unexpected fields: %v", m)
	}
	if m["failed"] != false {
		t.Fatalf("failed should be false, got %v", m["failed"])
	}
	if m["duration_ms"] != int64(1500) {
		t.Fatalf("duration mismatch: %v", m["duration_ms"])
	}
	if m["timestamp"] != "2026-02-27T20:00:00Z" {
		t.Fatalf("timestamp mismatch: %v", m["timestamp"])
	}
}

func TestFatalErrorFormat(t *testing.T) {
	fe := fatalf("/", "division by zero")
	if fe.Error() != "/: division by zero" {
		t.Fatalf("unexpected %q", fe.Error())
	}

	// Without op
	fe2 := &FatalError{Msg: "something wrong"}
	if fe2.Error() != "something wrong" {
		t.Fatalf("unexpected %q", fe2.Error())
	}

	if !IsFatal(fmt.Errorf("wrapped: %w", fe)) {
		t.Fatal("wrapped FatalError not detected")
	}
	if IsFatal(fmt.Errorf("plain")) {
		t.Fatal("plain error detected as fatal")
	}
}

func TestTraceRingCap(t *testing.T) {
	r := traceRing{max: 3}
	for i := 0; i < 5; i++ {
		r.append(Trace{ID: fmt.Sprintf("%d", i)})
	}
	if len(r.traces) != 3 {
		t.Fatalf("expected 3 traces, got %d", len(r.traces))
	}
	// Should have traces 2, 3, 4
	if r.traces[0].ID != "2" {
		t.Fatalf("expected oldest trace '2', got %q", r.traces[0].ID)
	}
	if r.traces[2].ID != "4" {
		t.Fatalf("expected newest trace '4', got %q", r.traces[2].ID)
	}
}

func TestTraceRingLast(t *testing.T) {
	r := traceRing{max: 10}
	for i := 0; i < 4; i++ {
		r.append(Trace{ID: fmt.Sprintf("%d", i)})
	}
	got := r.last(2)
	if len(got) != 2 || got[0].ID != "2" || got[1].ID != "3" {
		t.Fatalf("unexpected last(2): %v", got)
	}
	if len(r.last(-1)) != 4 || len(r.last(100)) != 4 {
		t.Fatal("expected all traces")
	}
	r.clear()
	if len(r.last(-1)) != 0 {
		t.Fatal("expected no traces after clear")
	}
}
