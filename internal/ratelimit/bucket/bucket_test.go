package bucket

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdmitScenarioFromCapacityTenRefillOne(t *testing.T) {
	b := New(NewMemoryStore(), Params{Capacity: 10, RefillRate: 1, KeyExpiryMs: 86_400_000})

	first, err := b.Admit(context.Background(), "client-1", 0, 6)
	require.NoError(t, err)
	require.True(t, first.Success)
	require.Equal(t, float64(4), first.Tokens)

	// Same instant as the first call: no refill has elapsed, so the 4
	// remaining tokens are short of the second call's cost by 2, and at a
	// refill rate of 1/s that's a 2000ms wait.
	second, err := b.Admit(context.Background(), "client-1", 0, 6)
	require.NoError(t, err)
	require.False(t, second.Success)
	require.Equal(t, int64(2000), second.RetryAfterMs)
}

func TestAdmitRefillsLazilyOverElapsedTime(t *testing.T) {
	b := New(NewMemoryStore(), Params{Capacity: 10, RefillRate: 1, KeyExpiryMs: 86_400_000})

	_, err := b.Admit(context.Background(), "client-1", 0, 10)
	require.NoError(t, err)

	// 5000ms at 1 token/s refills 5 tokens.
	res, err := b.Admit(context.Background(), "client-1", 5000, 5)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, float64(0), res.Tokens)
}

func TestAdmitNeverExceedsCapacity(t *testing.T) {
	b := New(NewMemoryStore(), Params{Capacity: 10, RefillRate: 1, KeyExpiryMs: 86_400_000})

	_, err := b.Admit(context.Background(), "client-1", 0, 1)
	require.NoError(t, err)

	res, err := b.Admit(context.Background(), "client-1", 1_000_000, 0)
	require.NoError(t, err)
	require.Equal(t, float64(10), res.Tokens)
}

func TestAdmitLazilyInitializesUnseenClient(t *testing.T) {
	b := New(NewMemoryStore(), Params{Capacity: 3, RefillRate: 1, KeyExpiryMs: 1000})

	res, err := b.Admit(context.Background(), "fresh-client", 42, 2)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, float64(1), res.Tokens)
}

func TestAdmitDistinctClientsAreIndependent(t *testing.T) {
	store := NewMemoryStore()
	b := New(store, Params{Capacity: 5, RefillRate: 1, KeyExpiryMs: 1000})

	_, err := b.Admit(context.Background(), "a", 0, 5)
	require.NoError(t, err)

	res, err := b.Admit(context.Background(), "b", 0, 5)
	require.NoError(t, err)
	require.True(t, res.Success)
}
