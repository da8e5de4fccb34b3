package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"homebudget/internal/metrics"
)

func TestInspect(t *testing.T) {
	d := NewDetector(nil)
	tests := []struct {
		name  string
		build func() *http.Request
		want  string
	}{
		{"clean", func() *http.Request { return httptest.NewRequest(http.MethodGet, "/api/budgets", nil) }, ""},
		{"traversal", func() *http.Request { return httptest.NewRequest(http.MethodGet, "/api/../.env", nil) }, ReasonPath},
		{"query injection", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/api/transactions?q=1%20union%20select", nil)
		}, ReasonQuery},
		{"scanner", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("User-Agent", "sqlmap/1.7")
			return r
		}, ReasonUserAgent},
		{"curl is fine", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("User-Agent", "curl/8.0")
			return r
		}, ""},
		{"trace", func() *http.Request { return httptest.NewRequest("TRACE", "/", nil) }, ReasonMethod},
		{"long url", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/api/transactions?q="+strings.Repeat("a", 2100), nil)
		}, ReasonLength},
		{"forwarded chain", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("X-Forwarded-For", "1.1.1.1,2.2.2.2,3.3.3.3,4.4.4.4,5.5.5.5,6.6.6.6,7.7.7.7")
			return r
		}, ReasonForwarded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Inspect(tt.build()))
		})
	}
}

func TestDetectorMiddleware(t *testing.T) {
	d := NewDetector(nil)
	reached := 0
	h := d.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { reached++ }))

	before := testutil.ToFloat64(metrics.SuspiciousRequests.WithLabelValues(ReasonPath))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wp-admin/setup.php", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, reached)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.SuspiciousRequests.WithLabelValues(ReasonPath)))

	r := httptest.NewRequest(http.MethodGet, "/api/budgets", nil)
	r.Header.Set("User-Agent", "nikto")
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, 1, reached, "flagged user agents are logged but served")
}

func TestExtractClientIP(t *testing.T) {
	d := NewDetector(nil)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.9:4000"
	r.Header.Set("X-Forwarded-For", "198.51.100.1")
	assert.Equal(t, "203.0.113.9", d.ExtractClientIP(r), "untrusted peer cannot forward")

	r.RemoteAddr = "10.1.2.3:4000"
	assert.Equal(t, "198.51.100.1", d.ExtractClientIP(r))

	r.Header.Set("X-Forwarded-For", "garbage")
	r.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", d.ExtractClientIP(r))

	assert.Error(t, d.AddTrustedProxy("nope"))
	assert.NoError(t, d.AddTrustedProxy("203.0.113.0/24"))
	r.RemoteAddr = "203.0.113.9:4000"
	assert.Equal(t, "198.51.100.7", d.ExtractClientIP(r))
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
}
