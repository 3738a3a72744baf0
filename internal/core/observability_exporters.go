package core

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var expvarSeq uint64

// OperationStats aggregates the outcomes of one service operation.
type OperationStats struct {
	Count   int64   `json:"count"`
	Errors  int64   `json:"errors"`
	TotalMS float64 `json:"total_ms"`
	MaxMS   float64 `json:"max_ms"`
}

// MeanMS returns the average latency in milliseconds.
func (s OperationStats) MeanMS() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.TotalMS / float64(s.Count)
}

// ExpvarMetricsRecorder publishes per-operation counters under /debug/vars.
// It suits crmctl and tests where a prometheus registry would be overkill.
type ExpvarMetricsRecorder struct {
	name string
	mu   sync.Mutex
	ops  map[string]*OperationStats
}

// ExpvarMetricsSnapshot is a point-in-time copy of the recorder.
type ExpvarMetricsSnapshot struct {
	Operations map[string]OperationStats `json:"operations"`
	RecordedAt time.Time                 `json:"recorded_at"`
}

// NewExpvarMetricsRecorder publishes a recorder under name, or under a
// generated unique name when name is empty. expvar panics on duplicate names,
// so callers that build several services should pass "".
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		id := atomic.AddUint64(&expvarSeq, 1)
		name = fmt.Sprintf("crmcore_service_%d", id)
	}
	rec := &ExpvarMetricsRecorder{name: name, ops: make(map[string]*OperationStats)}
	expvar.Publish(name, expvar.Func(func() any {
		return rec.Snapshot()
	}))
	return rec
}

// Name returns the expvar key.
func (r *ExpvarMetricsRecorder) Name() string {
	return r.name
}

// Snapshot copies the aggregated statistics.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make(map[string]OperationStats, len(r.ops))
	for op, stats := range r.ops {
		ops[op] = *stats
	}
	return ExpvarMetricsSnapshot{Operations: ops, RecordedAt: time.Now().UTC()}
}

// Observe implements MetricsRecorder.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	ms := float64(duration) / float64(time.Millisecond)

	r.mu.Lock()
	defer r.mu.Unlock()
	stats, ok := r.ops[operation]
	if !ok {
		stats = &OperationStats{}
		r.ops[operation] = stats
	}
	stats.Count++
	if !success {
		stats.Errors++
	}
	stats.TotalMS += ms
	if ms > stats.MaxMS {
		stats.MaxMS = ms
	}
}

// JSONTraceEntry is one finished span as written by JSONTracer.
type JSONTraceEntry struct {
	SpanID     string    `json:"span_id"`
	Operation  string    `json:"operation"`
	Status     string    `json:"status"`
	DurationMS float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

// JSONTracer writes finished spans as JSON lines and keeps the most recent
// ones in memory.
type JSONTracer struct {
	mu      sync.Mutex
	entries []JSONTraceEntry
	keep    int
	enc     *json.Encoder
	now     func() time.Time
}

// DefaultTraceRetention bounds the spans JSONTracer keeps for Entries.
const DefaultTraceRetention = 256

// NewJSONTracer returns a tracer writing to w; a nil writer only retains spans.
func NewJSONTracer(w io.Writer) *JSONTracer {
	t := &JSONTracer{keep: DefaultTraceRetention, now: time.Now}
	if w != nil {
		t.enc = json.NewEncoder(w)
	}
	return t
}

// Entries returns the retained spans, oldest first.
func (t *JSONTracer) Entries() []JSONTraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]JSONTraceEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

type spanIDKey struct{}

// SpanID returns the id of the span carried by ctx, if any.
func SpanID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(spanIDKey{}).(string)
	return id, ok
}

// Start implements Tracer. The returned context carries the span id.
func (t *JSONTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	span := &jsonTraceSpan{
		tracer:    t,
		id:        uuid.NewString(),
		operation: operation,
		started:   t.now().UTC(),
	}
	return context.WithValue(ctx, spanIDKey{}, span.id), span
}

type jsonTraceSpan struct {
	tracer    *JSONTracer
	id        string
	operation string
	started   time.Time
	once      sync.Once
}

func (s *jsonTraceSpan) End(err error) {
	s.once.Do(func() { s.tracer.finish(s, err) })
}

func (t *JSONTracer) finish(s *jsonTraceSpan, err error) {
	ended := t.now().UTC()
	entry := JSONTraceEntry{
		SpanID:     s.id,
		Operation:  s.operation,
		Status:     "success",
		DurationMS: float64(ended.Sub(s.started)) / float64(time.Millisecond),
		StartedAt:  s.started,
		EndedAt:    ended,
	}
	if err != nil {
		entry.Status = "error"
		entry.Error = err.Error()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entry)
	if over := len(t.entries) - t.keep; over > 0 {
		t.entries = append(t.entries[:0:0], t.entries[over:]...)
	}
	if t.enc != nil {
		_ = t.enc.Encode(entry)
	}
}

// LogAuditRecorder writes audit entries to a Logger at info level, or at
// warn level for failed operations.
type LogAuditRecorder struct {
	Logger Logger
}

// Record implements AuditRecorder.
func (r LogAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	if r.Logger == nil {
		return
	}
	args := []any{
		"operation", entry.Operation,
		"entity", entry.Entity,
		"action", entry.Action,
		"entity_id", entry.EntityID,
		"duration", entry.Duration,
	}
	if entry.Status == AuditStatusError {
		r.Logger.Warn("audit", append(args, "error", entry.Error)...)
		return
	}
	r.Logger.Info("audit", args...)
}
