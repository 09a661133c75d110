// Package config loads and validates the gate's runtime configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RateLimiterType names a rate-limiting algorithm tag. Only TokenBucket is
// implemented; the rest are recognized so that a config naming them fails
// fast with a clear error instead of silently falling back to no limiting.
type RateLimiterType string

const (
	TokenBucket        RateLimiterType = "TOKEN_BUCKET"
	LeakyBucket        RateLimiterType = "LEAKY_BUCKET"
	FixedWindow        RateLimiterType = "FIXED_WINDOW"
	SlidingWindowLog   RateLimiterType = "SLIDING_WINDOW_LOG"
	SlidingWindowCount RateLimiterType = "SLIDING_WINDOW_COUNTER"
)

// RateLimiterConfig is the tagged-variant rateLimiter config block.
type RateLimiterConfig struct {
	Type       RateLimiterType `yaml:"type"`
	BucketSize int             `yaml:"bucketSize"`
	RefillRate float64         `yaml:"refillRate"`
}

// TypeWeights is the partial weight-configuration map: any field left nil
// falls back to its corresponding Default*Weight constant.
type TypeWeights struct {
	Mutation   *int `yaml:"mutation,omitempty"`
	Object     *int `yaml:"object,omitempty"`
	Scalar     *int `yaml:"scalar,omitempty"`
	Connection *int `yaml:"connection,omitempty"`
}

// DefaultTypeWeights are the weights used for any key TypeWeights leaves nil.
const (
	DefaultMutationWeight   = 10
	DefaultObjectWeight     = 1
	DefaultScalarWeight     = 0
	DefaultConnectionWeight = 2
)

// Resolved returns mutation, object, scalar, connection weights with defaults
// merged in for any unset field.
func (w TypeWeights) Resolved() (mutation, object, scalar, connection int) {
	mutation, object, scalar, connection =
		DefaultMutationWeight, DefaultObjectWeight, DefaultScalarWeight, DefaultConnectionWeight
	if w.Mutation != nil {
		mutation = *w.Mutation
	}
	if w.Object != nil {
		object = *w.Object
	}
	if w.Scalar != nil {
		scalar = *w.Scalar
	}
	if w.Connection != nil {
		connection = *w.Connection
	}
	return
}

// RedisConfig configures the counter-store adapter.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password,omitempty"`
	DB        int    `yaml:"db,omitempty"`
	KeyExpiry int64  `yaml:"keyExpiry,omitempty"` // milliseconds
}

// DefaultKeyExpiryMs is the default TTL applied to a bucket row, 24 hours.
const DefaultKeyExpiryMs = 86_400_000

// ResolvedKeyExpiry returns the configured TTL or the default.
func (r RedisConfig) ResolvedKeyExpiry() int64 {
	if r.KeyExpiry > 0 {
		return r.KeyExpiry
	}
	return DefaultKeyExpiryMs
}

// Config is the top-level gate configuration.
type Config struct {
	RateLimiter         RateLimiterConfig `yaml:"rateLimiter"`
	TypeWeights         TypeWeights       `yaml:"typeWeights"`
	Redis               RedisConfig       `yaml:"redis"`
	Dark                bool              `yaml:"dark"`
	EnforceBoundedLists bool              `yaml:"enforceBoundedLists"`
	DepthLimit          int               `yaml:"depthLimit,omitempty"` // 0 = unbounded
	SlicingArguments    []string          `yaml:"slicingArguments,omitempty"`
	UnboundedListCost   int               `yaml:"unboundedListCost,omitempty"`
}

// DefaultSlicingArguments names the set of slicing-argument names used to
// recognize bounded list fields when a deployment doesn't override them.
var DefaultSlicingArguments = []string{"first", "last", "limit"}

// DefaultUnboundedListCost is the sentinel multiplier used for an unbounded
// list field when EnforceBoundedLists is false.
const DefaultUnboundedListCost = 1

// ResolvedSlicingArguments returns the configured slicing argument names or
// the default set.
func (c Config) ResolvedSlicingArguments() []string {
	if len(c.SlicingArguments) > 0 {
		return c.SlicingArguments
	}
	return DefaultSlicingArguments
}

// ResolvedUnboundedListCost returns the configured sentinel or the default.
func (c Config) ResolvedUnboundedListCost() int {
	if c.UnboundedListCost > 0 {
		return c.UnboundedListCost
	}
	return DefaultUnboundedListCost
}

// Load reads and validates a YAML config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the configuration invariants. Errors here are fatal at
// setup.
func (c *Config) Validate() error {
	switch c.RateLimiter.Type {
	case TokenBucket:
		if c.RateLimiter.BucketSize <= 0 {
			return fmt.Errorf("config: rateLimiter.bucketSize must be > 0")
		}
		if c.RateLimiter.RefillRate <= 0 {
			return fmt.Errorf("config: rateLimiter.refillRate must be > 0")
		}
	case LeakyBucket, FixedWindow, SlidingWindowLog, SlidingWindowCount:
		return fmt.Errorf("config: rateLimiter type %q is recognized but not implemented", c.RateLimiter.Type)
	default:
		return fmt.Errorf("config: unknown rateLimiter type %q", c.RateLimiter.Type)
	}

	mutation, object, scalar, connection := c.TypeWeights.Resolved()
	for name, w := range map[string]int{
		"mutation": mutation, "object": object, "scalar": scalar, "connection": connection,
	} {
		if w < 0 {
			return fmt.Errorf("config: typeWeights.%s must be >= 0, got %d", name, w)
		}
	}
	if c.Redis.KeyExpiry < 0 {
		return fmt.Errorf("config: redis.keyExpiry must be > 0 (omit it for the default)")
	}
	if c.DepthLimit < 0 {
		return fmt.Errorf("config: depthLimit must be >= 0 (0 means unbounded)")
	}
	return nil
}
