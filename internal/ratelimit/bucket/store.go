package bucket

import "context"

// AdmitParams bundles one admission transaction's inputs other than the
// client: the observation time, the cost to charge, and the bucket's
// capacity, refill rate, and row TTL.
type AdmitParams struct {
	NowMs       int64
	Cost        float64
	Capacity    float64
	RefillRate  float64
	KeyExpiryMs int64
}

// StoreResult is a Store's raw admission outcome, before Bucket wraps it
// into a Result.
type StoreResult struct {
	Success      bool
	Tokens       float64
	RetryAfterMs int64
}

// Store is the counter-store adapter: a thin interface to a shared
// key/value store supporting an atomic multi-step script and per-key TTL.
// Admit MUST perform the full read-refill-charge cycle as a single atomic
// transaction.
type Store interface {
	Admit(ctx context.Context, clientID string, p AdmitParams) (StoreResult, error)
}
