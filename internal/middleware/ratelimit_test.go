package middleware_test

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"mime/multipart"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/shortlink/internal/middleware"
	"github.com/serroba/shortlink/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testHostAddr  = "192.168.1.1:12345"
	testUserAgent = "TestAgent/1.0"
)

var errMultipartNotSupported = errors.New("multipart not supported in mock")

func newTestAPI() huma.API {
	return humachi.New(chi.NewMux(), huma.DefaultConfig("Test", "1.0.0"))
}

// mockHumaContext implements huma.Context for testing.
type mockHumaContext struct {
	headers    map[string]string
	host       string
	remoteAddr string
	written    []byte
	statusCode int
	method     string
	operation  *huma.Operation
}

func newMockHumaContext() *mockHumaContext {
	return &mockHumaContext{
		headers:    map[string]string{"User-Agent": testUserAgent},
		remoteAddr: testHostAddr,
		method:     "GET",
	}
}

func (m *mockHumaContext) Operation() *huma.Operation {
	return m.operation
}
func (m *mockHumaContext) Context() context.Context              { return context.Background() }
func (m *mockHumaContext) TLS() *tls.ConnectionState             { return nil }
func (m *mockHumaContext) Version() huma.ProtoVersion            { return huma.ProtoVersion{} }
func (m *mockHumaContext) Method() string                        { return m.method }
func (m *mockHumaContext) Host() string                          { return m.host }
func (m *mockHumaContext) RemoteAddr() string                    { return m.remoteAddr }
func (m *mockHumaContext) URL() url.URL                          { return url.URL{} }
func (m *mockHumaContext) Param(_ string) string                 { return "" }
func (m *mockHumaContext) Query(_ string) string                 { return "" }
func (m *mockHumaContext) Header(name string) string             { return m.headers[name] }
func (m *mockHumaContext) EachHeader(_ func(name, value string)) {}
func (m *mockHumaContext) BodyReader() io.Reader                 { return nil }
func (m *mockHumaContext) GetMultipartForm() (*multipart.Form, error) {
	return nil, errMultipartNotSupported
}
func (m *mockHumaContext) SetReadDeadline(_ time.Time) error { return nil }
func (m *mockHumaContext) SetStatus(code int)                { m.statusCode = code }
func (m *mockHumaContext) Status() int                       { return m.statusCode }
func (m *mockHumaContext) AppendHeader(_, _ string)          {}
func (m *mockHumaContext) SetHeader(_, _ string)             {}
func (m *mockHumaContext) BodyWriter() io.Writer             { return &mockBodyWriter{ctx: m} }

type mockBodyWriter struct {
	ctx *mockHumaContext
}

func (w *mockBodyWriter) Write(p []byte) (n int, err error) {
	w.ctx.written = append(w.ctx.written, p...)

	return len(p), nil
}

// mockPolicyStore counts records per key and remembers the last key.
type mockPolicyStore struct {
	mu      sync.Mutex
	counts  map[string]int64
	lastKey string
	err     error
}

func newMockPolicyStore() *mockPolicyStore {
	return &mockPolicyStore{counts: make(map[string]int64)}
}

func (m *mockPolicyStore) Record(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return 0, m.err
	}

	m.lastKey = key
	m.counts[key]++

	return m.counts[key], nil
}

// clientPart strips the ":scope:window" suffix from the last recorded key.
func (m *mockPolicyStore) clientPart() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, _, _ := strings.Cut(m.lastKey, ":")

	return client
}

// mockScopeResolver is a mock resolver for testing.
type mockScopeResolver struct {
	scopes []ratelimit.Scope
}

func (m *mockScopeResolver) Resolve(_ huma.Context) []ratelimit.Scope {
	return m.scopes
}

type limiterFixture struct {
	store *mockPolicyStore
	mw    func(huma.Context, func(huma.Context))
}

func newLimiterFixture(policy *ratelimit.Policy, scopes ...ratelimit.Scope) *limiterFixture {
	store := newMockPolicyStore()
	limiter := ratelimit.NewPolicyLimiter(store, policy)

	return &limiterFixture{
		store: store,
		mw: middleware.PolicyRateLimiter(newTestAPI(), limiter,
			&mockScopeResolver{scopes: scopes}, zap.NewNop()),
	}
}

// call runs the middleware and reports whether next was reached.
func (f *limiterFixture) call(ctx *mockHumaContext) bool {
	nextCalled := false

	f.mw(ctx, func(_ huma.Context) {
		nextCalled = true
	})

	return nextCalled
}

func TestPolicyRateLimiter(t *testing.T) {
	t.Run("allows request when under limit", func(t *testing.T) {
		f := newLimiterFixture(ratelimit.NewPolicyBuilder().
			AddLimit(ratelimit.ScopeGlobal, 10, time.Minute).
			Build(), ratelimit.ScopeGlobal)

		assert.True(t, f.call(newMockHumaContext()))
	})

	t.Run("returns 429 with limit details when rate limited", func(t *testing.T) {
		f := newLimiterFixture(ratelimit.NewPolicyBuilder().
			AddLimit(ratelimit.ScopeWrite, 1, time.Minute).
			Build(), ratelimit.ScopeWrite)

		require.True(t, f.call(newMockHumaContext()))

		ctx := newMockHumaContext()

		assert.False(t, f.call(ctx), "next should not be called when rate limited")
		assert.Equal(t, 429, ctx.statusCode)
		assert.Contains(t, string(ctx.written), "rate limit exceeded: write scope, 2/1 requests in 1m0s")
	})

	t.Run("applies different limits per scope", func(t *testing.T) {
		policy := ratelimit.NewPolicyBuilder().
			AddLimit(ratelimit.ScopeRead, 5, time.Minute).
			AddLimit(ratelimit.ScopeWrite, 2, time.Minute).
			Build()
		store := newMockPolicyStore()
		limiter := ratelimit.NewPolicyLimiter(store, policy)
		api := newTestAPI()

		readMW := middleware.PolicyRateLimiter(api, limiter,
			&mockScopeResolver{scopes: []ratelimit.Scope{ratelimit.ScopeRead}}, zap.NewNop())
		writeMW := middleware.PolicyRateLimiter(api, limiter,
			&mockScopeResolver{scopes: []ratelimit.Scope{ratelimit.ScopeWrite}}, zap.NewNop())

		read := &limiterFixture{store: store, mw: readMW}
		write := &limiterFixture{store: store, mw: writeMW}

		for i := range 5 {
			assert.True(t, read.call(newMockHumaContext()), "read request %d should be allowed", i+1)
		}

		for i := range 2 {
			assert.True(t, write.call(newMockHumaContext()), "write request %d should be allowed", i+1)
		}

		ctx := newMockHumaContext()

		assert.False(t, write.call(ctx), "3rd write request should be denied")
		assert.Equal(t, 429, ctx.statusCode)
	})

	t.Run("returns 500 on store error", func(t *testing.T) {
		f := newLimiterFixture(ratelimit.NewPolicyBuilder().
			AddLimit(ratelimit.ScopeGlobal, 10, time.Minute).
			Build(), ratelimit.ScopeGlobal)
		f.store.err = errors.New("store error")

		ctx := newMockHumaContext()

		assert.False(t, f.call(ctx))
		assert.Equal(t, 500, ctx.statusCode)
	})

	t.Run("skips rate limiting when disabled via metadata", func(t *testing.T) {
		f := newLimiterFixture(ratelimit.NewPolicyBuilder().
			AddLimit(ratelimit.ScopeGlobal, 1, time.Minute).
			Build(), ratelimit.ScopeGlobal)

		operation := &huma.Operation{
			Path: "/health",
			Metadata: map[string]any{
				ratelimit.MetadataKey: ratelimit.EndpointConfig{Disabled: true},
			},
		}

		for i := range 3 {
			ctx := newMockHumaContext()
			ctx.operation = operation

			assert.True(t, f.call(ctx), "request %d should pass when limiting is disabled", i+1)
		}

		assert.Empty(t, f.store.counts, "disabled endpoints must not record requests")
	})

	t.Run("applies route limits from metadata instead of the policy", func(t *testing.T) {
		f := newLimiterFixture(ratelimit.NewPolicyBuilder().
			AddLimit(ratelimit.ScopeGlobal, 100, time.Minute).
			Build(), ratelimit.ScopeGlobal)

		operation := &huma.Operation{
			Path: "/api/urls/shorten",
			Metadata: map[string]any{
				ratelimit.MetadataKey: ratelimit.EndpointConfig{
					Limits: []ratelimit.LimitConfig{{Window: time.Minute, Max: 2}},
				},
			},
		}

		for i := range 2 {
			ctx := newMockHumaContext()
			ctx.operation = operation

			assert.True(t, f.call(ctx), "request %d should be allowed", i+1)
		}

		ctx := newMockHumaContext()
		ctx.operation = operation

		assert.False(t, f.call(ctx), "third request should be denied by route limit")
		assert.Equal(t, 429, ctx.statusCode)
		assert.Contains(t, string(ctx.written), "rate limit exceeded: 3/2 requests in 1m0s")
		assert.Contains(t, f.store.lastKey, ":route:/api/urls/shorten:")
	})

	t.Run("route limit store error returns 500", func(t *testing.T) {
		f := newLimiterFixture(ratelimit.NewPolicyBuilder().Build())
		f.store.err = errors.New("store error")

		ctx := newMockHumaContext()
		ctx.operation = &huma.Operation{
			Path: "/custom-error",
			Metadata: map[string]any{
				ratelimit.MetadataKey: ratelimit.EndpointConfig{
					Limits: []ratelimit.LimitConfig{{Window: time.Minute, Max: 10}},
				},
			},
		}

		assert.False(t, f.call(ctx))
		assert.Equal(t, 500, ctx.statusCode)
	})

	t.Run("scope metadata flows through the operation resolver", func(t *testing.T) {
		store := newMockPolicyStore()
		limiter := ratelimit.NewPolicyLimiter(store, ratelimit.NewPolicyBuilder().
			AddLimit(ratelimit.ScopeAuth, 1, time.Minute).
			Build())
		mw := middleware.PolicyRateLimiter(newTestAPI(), limiter,
			ratelimit.NewOperationScopeResolver(), zap.NewNop())
		f := &limiterFixture{store: store, mw: mw}

		operation := &huma.Operation{
			Path:   "/api/auth/login",
			Method: "POST",
			Metadata: map[string]any{
				ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeAuth},
			},
		}

		first := newMockHumaContext()
		first.method = "POST"
		first.operation = operation
		require.True(t, f.call(first))

		second := newMockHumaContext()
		second.method = "POST"
		second.operation = operation

		assert.False(t, f.call(second))
		assert.Contains(t, string(second.written), "auth scope")
	})
}

func TestPolicyRateLimiter_ClientKey(t *testing.T) {
	keyFor := func(t *testing.T, ctx *mockHumaContext) string {
		t.Helper()

		f := newLimiterFixture(ratelimit.NewPolicyBuilder().
			AddLimit(ratelimit.ScopeGlobal, 100, time.Minute).
			Build(), ratelimit.ScopeGlobal)
		require.True(t, f.call(ctx))

		return f.store.clientPart()
	}

	with := func(remoteAddr string, headers map[string]string) *mockHumaContext {
		ctx := newMockHumaContext()
		ctx.remoteAddr = remoteAddr

		for k, v := range headers {
			ctx.headers[k] = v
		}

		return ctx
	}

	t.Run("same IP and User-Agent share a key", func(t *testing.T) {
		assert.Equal(t,
			keyFor(t, with(testHostAddr, nil)),
			keyFor(t, with("192.168.1.1:54321", nil)),
		)
	})

	t.Run("different User-Agent yields a different key", func(t *testing.T) {
		assert.NotEqual(t,
			keyFor(t, with(testHostAddr, nil)),
			keyFor(t, with(testHostAddr, map[string]string{"User-Agent": "Other/2.0"})),
		)
	})

	t.Run("uses the first X-Forwarded-For entry", func(t *testing.T) {
		assert.Equal(t,
			keyFor(t, with("10.0.0.1:1", map[string]string{"X-Forwarded-For": "203.0.113.195, 70.41.3.18"})),
			keyFor(t, with("10.0.0.2:2", map[string]string{"X-Forwarded-For": "203.0.113.195"})),
		)
	})

	t.Run("uses X-Real-IP when present", func(t *testing.T) {
		assert.Equal(t,
			keyFor(t, with("10.0.0.1:1", map[string]string{"X-Real-IP": "203.0.113.100"})),
			keyFor(t, with("10.0.0.2:2", map[string]string{"X-Real-IP": "203.0.113.100"})),
		)
	})

	t.Run("uses the remote addr as-is when it has no port", func(t *testing.T) {
		assert.Equal(t,
			keyFor(t, with("192.168.1.1", nil)),
			keyFor(t, with(testHostAddr, nil)),
		)
	})

	t.Run("key does not leak the raw IP", func(t *testing.T) {
		key := keyFor(t, with(testHostAddr, nil))

		assert.Len(t, key, 64)
		assert.NotContains(t, key, "192.168.1.1")
	})
}
