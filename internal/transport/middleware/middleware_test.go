package middleware

import (
	"bytes"
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/frahmantamala/power-data-portal/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"
)

// fakeScripter answers the token bucket script with a fixed reply.
type fakeScripter struct {
	reply []interface{}
	err   error
	calls int
}

func (f *fakeScripter) result(ctx context.Context) *redis.Cmd {
	f.calls++
	cmd := redis.NewCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	cmd.SetVal(f.reply)
	return cmd
}

func (f *fakeScripter) Eval(ctx context.Context, _ string, _ []string, _ ...interface{}) *redis.Cmd {
	return f.result(ctx)
}

func (f *fakeScripter) EvalSha(ctx context.Context, _ string, _ []string, _ ...interface{}) *redis.Cmd {
	return f.result(ctx)
}

func (f *fakeScripter) EvalRO(ctx context.Context, _ string, _ []string, _ ...interface{}) *redis.Cmd {
	return f.result(ctx)
}

func (f *fakeScripter) EvalShaRO(ctx context.Context, _ string, _ []string, _ ...interface{}) *redis.Cmd {
	return f.result(ctx)
}

func (f *fakeScripter) ScriptExists(ctx context.Context, _ ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceCmd(ctx)
}

func (f *fakeScripter) ScriptLoad(ctx context.Context, _ string) *redis.StringCmd {
	return redis.NewStringCmd(ctx)
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

var _ = Describe("Middleware", func() {
	var (
		buf    *bytes.Buffer
		logger *slog.Logger
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		logger = slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	})

	Describe("LoggingMiddleware", func() {
		It("masks passwords and tokens", func() {
			h := RequestID(LoggingMiddleware(logger)(okHandler))
			req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"email":"a@example.com","password":"hunter22"}`))
			req.Header.Set("Authorization", "Bearer abc.def.ghi")
			h.ServeHTTP(httptest.NewRecorder(), req)

			out := buf.String()
			Expect(out).To(ContainSubstring("a@example.com"))
			Expect(out).NotTo(ContainSubstring("hunter22"))
			Expect(out).NotTo(ContainSubstring("abc.def.ghi"))
			Expect(out).To(ContainSubstring("[FILTERED]"))
		})

		It("keeps equipment attributes readable", func() {
			Expect(filterSensitiveBody([]byte(`{"busName":"B1","nominalKV":"400"}`))).To(ContainSubstring(`"nominalKV":"400"`))
		})
	})

	Describe("RequestID", func() {
		It("generates an id and echoes a supplied one", func() {
			rec := httptest.NewRecorder()
			RequestID(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			Expect(rec.Header().Get(RequestIDHeader)).To(HaveLen(36))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(RequestIDHeader, "abc-123")
			rec = httptest.NewRecorder()
			RequestID(okHandler).ServeHTTP(rec, req)
			Expect(rec.Header().Get(RequestIDHeader)).To(Equal("abc-123"))
		})
	})

	Describe("RecoveryMiddleware", func() {
		It("returns 500 without leaking the panic", func() {
			boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("db password is hunter22") })
			rec := httptest.NewRecorder()
			RecoveryMiddleware(logger)(boom).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
			Expect(rec.Body.String()).NotTo(ContainSubstring("hunter22"))
		})
	})

	Describe("CORS", func() {
		It("answers preflight for allowed origins only", func() {
			h := CORS("https://portal.example.com")(okHandler)

			req := httptest.NewRequest(http.MethodOptions, "/api/bus", nil)
			req.Header.Set("Origin", "https://portal.example.com")
			req.Header.Set("Access-Control-Request-Method", "POST")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://portal.example.com"))
			Expect(rec.Header().Get("Access-Control-Allow-Methods")).To(Equal("POST"))

			req.Header.Set("Origin", "https://evil.example.com")
			rec = httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
		})

		It("exposes the request id on simple requests", func() {
			h := CORS("https://portal.example.com, https://ops.example.com")(okHandler)

			req := httptest.NewRequest(http.MethodGet, "/api/bus", nil)
			req.Header.Set("Origin", "https://ops.example.com")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://ops.example.com"))
			Expect(rec.Header().Get("Access-Control-Expose-Headers")).To(ContainSubstring(http.CanonicalHeaderKey(RequestIDHeader)))
		})

		It("allows any origin when none are configured", func() {
			h := CORS("")(okHandler)

			req := httptest.NewRequest(http.MethodGet, "/api/bus", nil)
			req.Header.Set("Origin", "https://anywhere.example.com")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
		})
	})

	Describe("RateLimit", func() {
		var cfg internal.RateLimitConfig

		BeforeEach(func() {
			cfg = internal.RateLimitConfig{Enabled: true, Capacity: 5, RefillTokens: 5, RefillInterval: time.Minute, TTL: time.Hour, Prefix: "rl"}
		})

		It("passes allowed calls and reports the remaining budget", func() {
			fake := &fakeScripter{reply: []interface{}{int64(1), int64(4), int64(0)}}
			rec := httptest.NewRecorder()
			RateLimit(cfg, fake, logger)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/login", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("X-RateLimit-Remaining")).To(Equal("4"))
		})

		It("returns 429 with Retry-After when the bucket is empty", func() {
			fake := &fakeScripter{reply: []interface{}{int64(0), int64(0), int64(1500)}}
			rec := httptest.NewRecorder()
			RateLimit(cfg, fake, logger)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/login", nil))
			Expect(rec.Code).To(Equal(http.StatusTooManyRequests))
			Expect(rec.Header().Get("Retry-After")).To(Equal("2"))
		})

		It("fails open when redis errors", func() {
			fake := &fakeScripter{err: stderrors.New("connection refused")}
			rec := httptest.NewRecorder()
			RateLimit(cfg, fake, logger)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/login", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(fake.calls).To(BeNumerically(">", 0))
		})

		It("is a passthrough when disabled", func() {
			cfg.Enabled = false
			fake := &fakeScripter{reply: []interface{}{int64(0), int64(0), int64(0)}}
			rec := httptest.NewRecorder()
			RateLimit(cfg, fake, logger)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/login", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(fake.calls).To(BeZero())
		})

		It("keys by peer address and route, ignoring client supplied headers", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
			req.RemoteAddr = "198.51.100.7:40000"
			req.Header.Set("X-Forwarded-For", "203.0.113.9")
			req.Header.Set("X-Real-IP", "203.0.113.10")
			Expect(rateKey("rl", req, nil)).To(Equal("rl:ip:198.51.100.7:route:POST /api/login"))
		})

		It("believes X-Forwarded-For only from a trusted proxy", func() {
			trusted, err := internal.ParseTrustedProxies([]string{"10.0.0.0/8"})
			Expect(err).NotTo(HaveOccurred())

			req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
			req.RemoteAddr = "10.0.0.1:40000"
			req.Header.Set("X-Forwarded-For", "1.2.3.4, 203.0.113.9, 10.0.0.2")
			Expect(rateKey("rl", req, trusted)).To(Equal("rl:ip:203.0.113.9:route:POST /api/login"))

			req.RemoteAddr = "198.51.100.7:40000"
			Expect(rateKey("rl", req, trusted)).To(Equal("rl:ip:198.51.100.7:route:POST /api/login"))
		})

		It("does not let rotating forwarded headers escape the bucket", func() {
			fake := &fakeScripter{reply: []interface{}{int64(1), int64(4), int64(0)}}
			h := RateLimit(cfg, fake, logger)(okHandler)
			var keys []string
			for _, fwd := range []string{"1.1.1.1", "2.2.2.2"} {
				req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
				req.Header.Set("X-Forwarded-For", fwd)
				keys = append(keys, rateKey(cfg.Prefix, req, nil))
				h.ServeHTTP(httptest.NewRecorder(), req)
			}
			Expect(keys[0]).To(Equal(keys[1]))
			Expect(fake.calls).To(Equal(2))
		})
	})
})
