// Package gate implements the admission orchestrator: parse → validate →
// analyze → serialize → bucket → admit/reject/dark-mode.
package gate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nearclip/qgate/internal/complexity"
	eventbus "github.com/nearclip/qgate/internal/eventbus"
	events "github.com/nearclip/qgate/internal/events"
	"github.com/nearclip/qgate/internal/language"
	"github.com/nearclip/qgate/internal/ratelimit/bucket"
	"github.com/nearclip/qgate/internal/ratelimit/serializer"
	reqid "github.com/nearclip/qgate/internal/reqid"
	"github.com/nearclip/qgate/internal/weighttable"
)

// Handler is an http.Handler that admits, dark-admits, or rejects a
// GraphQL request in front of next, the downstream query-execution handler.
type Handler struct {
	table  *weighttable.Table
	bkt    *bucket.Bucket
	serial *serializer.Serializer[bucket.Result]
	next   http.Handler
	opt    Options
}

// Options configures a Handler via functional options.
type Options struct {
	// Timeout sets a default timeout if the incoming request context has
	// none. 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses.
	Pretty bool

	// MaxBodyBytes limits the request body size. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	// Dark enables dark mode: rejections are recorded with success=false
	// but the request is still admitted through to next.
	Dark bool

	// DepthLimit caps selection-set nesting passed to the analyzer. 0 means
	// unlimited.
	DepthLimit int
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithDark(dark bool) Option          { return func(o *Options) { o.Dark = dark } }
func WithDepthLimit(limit int) Option    { return func(o *Options) { o.DepthLimit = limit } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

// New builds a Handler admitting requests against table and bkt, forwarding
// admitted requests to next.
func New(table *weighttable.Table, bkt *bucket.Bucket, next http.Handler, opts ...Option) *Handler {
	op := Options{Timeout: 10 * time.Second}
	for _, f := range opts {
		f(&op)
	}
	return &Handler{
		table:  table,
		bkt:    bkt,
		serial: serializer.New[bucket.Result](),
		next:   next,
		opt:    op,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	ctx, _ = reqid.NewContext(ctx)
	status := http.StatusOK
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: status, Duration: time.Since(start)})
	}()

	if r.Method == http.MethodOptions {
		if len(h.opt.CORS.AllowedOrigins) > 0 {
			setCORSHeaders(w, r, h.opt.CORS)
		}
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		status = http.StatusMethodNotAllowed
		writeJSON(w, status, errorResponse("method not allowed"), h.opt.Pretty)
		return
	}

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}

	req, gerr := parseRequest(r, h.opt.MaxBodyBytes)
	if gerr != nil {
		status = http.StatusBadRequest
		writeJSON(w, status, errorResponse(gerr.Error()), h.opt.Pretty)
		return
	}

	clientID := clientIdentity(r)
	doc, err := language.ParseQuery(req.Query)
	if err != nil {
		status = http.StatusBadRequest
		writeJSON(w, status, errorResponse(err.Error()), h.opt.Pretty)
		return
	}

	cost, err := complexity.Analyze(doc, req.OperationName, h.table, complexity.Options{
		Variables:  req.Variables,
		DepthLimit: h.opt.DepthLimit,
	})
	if err != nil {
		status = http.StatusBadRequest
		writeJSON(w, status, errorResponse(err.Error()), h.opt.Pretty)
		return
	}

	admitStart := time.Now()
	eventbus.Publish(ctx, events.AdmissionStart{ClientID: clientID, Query: req.Query})

	result, err := h.serial.Do(ctx, clientID, func(ctx context.Context) (bucket.Result, error) {
		return h.bkt.Admit(ctx, clientID, time.Now().UnixMilli(), float64(cost))
	})

	rec := Record{
		Timestamp:  admitStart.UTC(),
		Complexity: cost,
		Success:    result.Success,
	}

	if err != nil {
		eventbus.Publish(ctx, events.AdmissionFinish{
			ClientID: clientID, Complexity: cost, Err: err, Duration: time.Since(admitStart),
		})
		status = http.StatusBadGateway
		writeJSON(w, status, errorResponse(err.Error()), h.opt.Pretty)
		return
	}
	rec.Tokens = result.Tokens

	eventbus.Publish(ctx, events.AdmissionFinish{
		ClientID: clientID, Complexity: cost, Tokens: result.Tokens,
		Success: result.Success, Dark: h.opt.Dark, Duration: time.Since(admitStart),
	})

	writeRecordHeader(w, rec)

	if result.Success || h.opt.Dark {
		// rec.Success already reflects the bucket's true outcome even when
		// dark mode admits a request the bucket would otherwise have
		// rejected.
		ctx = contextWithRecord(ctx, rec)
		h.next.ServeHTTP(w, r.WithContext(ctx))
		return
	}

	status = http.StatusTooManyRequests
	w.Header().Set("Retry-After", strconv.FormatInt(ceilSeconds(result.RetryAfterMs), 10))
	writeJSON(w, status, rec, h.opt.Pretty)
}

// clientIdentity extracts the client identity: the first proxied address
// if present, else the direct remote address.
func clientIdentity(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	return r.RemoteAddr
}

func ceilSeconds(ms int64) int64 {
	if ms <= 0 {
		return 0
	}
	return (ms + 999) / 1000
}

// ------------------ request parsing ------------------

type gateRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

func parseRequest(r *http.Request, maxBody int64) (gateRequest, error) {
	if r.Method == http.MethodGet {
		q := r.URL.Query().Get("query")
		if q == "" {
			return gateRequest{}, errMissingQuery
		}
		vars := map[string]any{}
		if v := r.URL.Query().Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &vars); err != nil {
				return gateRequest{}, errInvalidVariables
			}
		}
		return gateRequest{Query: q, Variables: vars, OperationName: r.URL.Query().Get("operationName")}, nil
	}

	reader := io.Reader(r.Body)
	if maxBody > 0 {
		reader = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return gateRequest{}, errReadBody
	}
	defer r.Body.Close()
	if maxBody > 0 && int64(len(body)) > maxBody {
		return gateRequest{}, errBodyTooLarge
	}

	var req gateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return gateRequest{}, errInvalidJSON
	}
	if req.Query == "" {
		return gateRequest{}, errMissingQuery
	}
	if req.Variables == nil {
		req.Variables = map[string]any{}
	}
	return req, nil
}

// ------------------ response formatting ------------------

type errBody struct {
	Message string `json:"message"`
}

func errorResponse(message string) errBody { return errBody{Message: message} }

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

func writeRecordHeader(w http.ResponseWriter, rec Record) {
	b, err := json.Marshal(rec)
	if err != nil {
		return
	}
	w.Header().Set("X-Gate-Admission", string(b))
}

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" || o == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}
	if contains(opts.AllowedOrigins, "*") {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
