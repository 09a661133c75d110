// Command qgate runs the GraphQL complexity/rate-limiting gate in front of
// an upstream GraphQL server.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"time"

	"github.com/nearclip/qgate/internal/config"
	"github.com/nearclip/qgate/internal/eventbus"
	"github.com/nearclip/qgate/internal/gate"
	"github.com/nearclip/qgate/internal/otel"
	"github.com/nearclip/qgate/internal/ratelimit/bucket"
	"github.com/nearclip/qgate/internal/schema"
	"github.com/nearclip/qgate/internal/weighttable"
	"github.com/redis/go-redis/v9"
)

const usage = `qgate — GraphQL complexity/rate-limiting gate

USAGE:
  qgate -config <file> -schema <file> -upstream <url> [flags]

FLAGS:
  -config <file>        Gate configuration (YAML, see internal/config) (required)
  -schema <file>        Introspected schema, JSON-encoded (required)
  -upstream <url>       Upstream GraphQL server to admit requests through to (required)
  -addr <addr>          HTTP listen address (default ":8080")
  -pretty               Pretty-print JSON error responses
  -otel.endpoint <addr> OTLP collector endpoint
  -otel.service <name>  OpenTelemetry service name (default "qgate")
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	var configPath, schemaPath, upstream, addr, otelEndpoint, otelService string
	var pretty bool

	fs := flag.NewFlagSet("qgate", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&configPath, "config", "", "gate configuration file")
	fs.StringVar(&schemaPath, "schema", "", "introspected schema JSON file")
	fs.StringVar(&upstream, "upstream", "", "upstream GraphQL server URL")
	fs.StringVar(&addr, "addr", ":8080", "HTTP listen address")
	fs.BoolVar(&pretty, "pretty", false, "pretty-print JSON error responses")
	fs.StringVar(&otelEndpoint, "otel.endpoint", "", "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", "qgate", "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, usage)
		return err
	}
	if configPath == "" || schemaPath == "" || upstream == "" {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("-config, -schema, and -upstream are all required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sch, err := loadSchema(schemaPath)
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	schema.MergeBuiltins(sch)

	mutation, object, scalar, connection := cfg.TypeWeights.Resolved()
	table, err := weighttable.Build(sch, weighttable.BuildOptions{
		Weights: weighttable.WeightConfig{
			Mutation: mutation, Object: object, Scalar: scalar, Connection: connection,
		},
		SlicingArguments:    cfg.ResolvedSlicingArguments(),
		EnforceBoundedLists: cfg.EnforceBoundedLists,
		UnboundedListCost:   cfg.ResolvedUnboundedListCost(),
	})
	if err != nil {
		return fmt.Errorf("build weight table: %w", err)
	}

	if cfg.RateLimiter.Type != config.TokenBucket {
		return fmt.Errorf("rateLimiter.type %q is recognized but not implemented", cfg.RateLimiter.Type)
	}

	store, err := newStore(cfg)
	if err != nil {
		return fmt.Errorf("build counter store: %w", err)
	}
	bkt := bucket.New(store, bucket.Params{
		Capacity:    float64(cfg.RateLimiter.BucketSize),
		RefillRate:  cfg.RateLimiter.RefillRate,
		KeyExpiryMs: cfg.Redis.ResolvedKeyExpiry(),
	})

	upstreamURL, err := url.Parse(upstream)
	if err != nil {
		return fmt.Errorf("parse -upstream: %w", err)
	}
	proxy := httputil.NewSingleHostReverseProxy(upstreamURL)

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	var opts []gate.Option
	if pretty {
		opts = append(opts, gate.WithPretty())
	}
	if cfg.Dark {
		opts = append(opts, gate.WithDark(true))
	}
	if cfg.DepthLimit > 0 {
		opts = append(opts, gate.WithDepthLimit(cfg.DepthLimit))
	}
	h := gate.New(table, bkt, proxy, opts...)

	mux := http.NewServeMux()
	mux.Handle("/graphql", h)

	log.Printf("qgate listening on %s, forwarding admitted requests to %s", addr, upstream)
	return http.ListenAndServe(addr, mux)
}

func loadSchema(path string) (*schema.Schema, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sch schema.Schema
	if err := json.Unmarshal(b, &sch); err != nil {
		return nil, err
	}
	return &sch, nil
}

func newStore(cfg *config.Config) (bucket.Store, error) {
	if cfg.Redis.Addr == "" {
		return bucket.NewMemoryStore(), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
	}
	return bucket.NewRedisStore(client), nil
}
