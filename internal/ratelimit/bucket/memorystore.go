package bucket

import (
	"context"
	"math"
	"sync"
)

type row struct {
	tokens     float64
	lastRefill int64
}

// MemoryStore is an in-process Store for single-instance deployments and
// tests, trading cross-process sharing for a plain mutex-guarded map.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[string]*row
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]*row)}
}

func (s *MemoryStore) Admit(_ context.Context, clientID string, p AdmitParams) (StoreResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[clientID]
	if !ok {
		r = &row{tokens: p.Capacity, lastRefill: p.NowMs}
		s.rows[clientID] = r
	}

	elapsed := p.NowMs - r.lastRefill
	if elapsed > 0 {
		r.tokens = math.Min(p.Capacity, r.tokens+p.RefillRate*float64(elapsed)/1000)
	}
	r.lastRefill = p.NowMs

	if r.tokens >= p.Cost {
		r.tokens -= p.Cost
		return StoreResult{Success: true, Tokens: r.tokens}, nil
	}

	return StoreResult{
		Success:      false,
		Tokens:       r.tokens,
		RetryAfterMs: retryAfterMs(p.Cost, r.tokens, p.RefillRate),
	}, nil
}
