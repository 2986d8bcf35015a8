package chatlisp

import "time"

// Trace records one run handled by the core daemon.
type Trace struct {
	ID        string
	Code      string
	Output    string
	Failed    bool // output is GenericFailure
	Duration  time.Duration
	Timestamp string // ISO 8601
}

// ToMap converts a Trace to the JSON shape returned by the traces op.
func (t *Trace) ToMap() map[string]any {
	return map[string]any{
		"id":          t.ID,
		"code":        t.Code,
		"output":      t.Output,
		"failed":      t.Failed,
		"duration_ms": t.Duration.Milliseconds(),
		"timestamp":   t.Timestamp,
	}
}

// traceRing keeps the most recent traces, dropping the oldest past max.
type traceRing struct {
	traces []Trace
	max    int
}

func (r *traceRing) append(t Trace) {
	r.traces = append(r.traces, t)
	if len(r.traces) > r.max {
		excess := len(r.traces) - r.max
		r.traces = r.traces[excess:]
	}
}

// last returns up to n traces, oldest first. n < 0 means all.
func (r *traceRing) last(n int) []Trace {
	if n < 0 || n > len(r.traces) {
		n = len(r.traces)
	}
	out := make([]Trace, n)
	copy(out, r.traces[len(r.traces)-n:])
	return out
}

func (r *traceRing) clear() {
	r.traces = nil
}
