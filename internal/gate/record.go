package gate

import (
	"context"
	"time"
)

// Record is the structured admission record attached to every decision:
// `{ timestamp, complexity, tokens, success }`.
type Record struct {
	Timestamp  time.Time `json:"timestamp"`
	Complexity int       `json:"complexity"`
	Tokens     float64   `json:"tokens"`
	Success    bool      `json:"success"`
}

type recordKey struct{}

func contextWithRecord(ctx context.Context, rec Record) context.Context {
	return context.WithValue(ctx, recordKey{}, rec)
}

// RecordFromContext recovers the admission Record the gate attached to an
// admitted request, for the downstream handler's own logging/inspection.
func RecordFromContext(ctx context.Context) (Record, bool) {
	rec, ok := ctx.Value(recordKey{}).(Record)
	return rec, ok
}
