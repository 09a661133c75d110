// Package bucket implements the token-bucket admission algorithm against a
// pluggable, atomically-scripted counter Store.
package bucket

import (
	"context"
	"math"
)

// Result is the admission record returned by a single Admit call.
type Result struct {
	Success      bool
	Tokens       float64
	RetryAfterMs int64
}

// Params are the bucket's per-gate configuration, shared across every
// client row.
type Params struct {
	Capacity    float64
	RefillRate  float64 // tokens per second
	KeyExpiryMs int64
}

// Bucket is a stateless object: it holds only its configuration and a
// reference to the shared Store. All mutable state lives in the Store, one
// row per client.
type Bucket struct {
	store  Store
	params Params
}

// New builds a Bucket against store with the given params.
func New(store Store, params Params) *Bucket {
	return &Bucket{store: store, params: params}
}

// Admit performs the bucket's read-modify-write cycle for clientId at nowMs,
// charging cost tokens. The Store implementation is responsible for making
// this a single atomic transaction; Admit itself does not serialize
// concurrent callers for the same client — that is the serializer's job.
func (b *Bucket) Admit(ctx context.Context, clientID string, nowMs int64, cost float64) (Result, error) {
	res, err := b.store.Admit(ctx, clientID, AdmitParams{
		NowMs:       nowMs,
		Cost:        cost,
		Capacity:    b.params.Capacity,
		RefillRate:  b.params.RefillRate,
		KeyExpiryMs: b.params.KeyExpiryMs,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Success: res.Success, Tokens: res.Tokens, RetryAfterMs: res.RetryAfterMs}, nil
}

// retryAfterMs computes ceil((cost - tokens) * 1000 / refillRate), the
// formula every Store implementation applies on rejection.
func retryAfterMs(cost, tokens, refillRate float64) int64 {
	if refillRate <= 0 {
		return 0
	}
	deficit := cost - tokens
	if deficit <= 0 {
		return 0
	}
	return int64(math.Ceil(deficit * 1000 / refillRate))
}
