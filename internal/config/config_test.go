package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "gate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestLoadValidTokenBucketConfig(t *testing.T) {
	path := writeConfig(t, `
rateLimiter:
  type: TOKEN_BUCKET
  bucketSize: 100
  refillRate: 10
redis:
  addr: "localhost:6379"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, TokenBucket, cfg.RateLimiter.Type)
	require.Equal(t, 100, cfg.RateLimiter.BucketSize)
	require.Equal(t, int64(DefaultKeyExpiryMs), cfg.Redis.ResolvedKeyExpiry())
}

func TestLoadRejectsMissingBucketSize(t *testing.T) {
	path := writeConfig(t, `
rateLimiter:
  type: TOKEN_BUCKET
  refillRate: 10
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsUnimplementedAlgorithmFast(t *testing.T) {
	path := writeConfig(t, `
rateLimiter:
  type: SLIDING_WINDOW_COUNTER
`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not implemented")
}

func TestLoadRejectsUnknownAlgorithm(t *testing.T) {
	path := writeConfig(t, `
rateLimiter:
  type: MYSTERY_ALGORITHM
`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown")
}

func TestTypeWeightsResolvedMergesDefaults(t *testing.T) {
	one := 7
	w := TypeWeights{Object: &one}
	mutation, object, scalar, connection := w.Resolved()
	require.Equal(t, DefaultMutationWeight, mutation)
	require.Equal(t, 7, object)
	require.Equal(t, DefaultScalarWeight, scalar)
	require.Equal(t, DefaultConnectionWeight, connection)
}

func TestLoadRejectsNegativeTypeWeight(t *testing.T) {
	path := writeConfig(t, `
rateLimiter:
  type: TOKEN_BUCKET
  bucketSize: 10
  refillRate: 1
typeWeights:
  object: -1
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestResolvedSlicingArgumentsDefaultsWhenUnset(t *testing.T) {
	var c Config
	require.Equal(t, DefaultSlicingArguments, c.ResolvedSlicingArguments())
}

func TestResolvedUnboundedListCostDefaultsWhenUnset(t *testing.T) {
	var c Config
	require.Equal(t, DefaultUnboundedListCost, c.ResolvedUnboundedListCost())
}
