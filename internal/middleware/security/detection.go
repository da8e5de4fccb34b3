// Package security carries the response-hardening headers, client address
// resolution and the suspicious-request detector.
package security

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"homebudget/internal/metrics"
)

// Reasons reported by Inspect.
const (
	ReasonPath      = "path"
	ReasonQuery     = "query"
	ReasonUserAgent = "user_agent"
	ReasonMethod    = "method"
	ReasonLength    = "length"
	ReasonForwarded = "forwarded"
)

const maxURLLength = 2048

var (
	suspiciousPatterns = []string{
		"../", "..\\", ".env", "wp-admin", "phpmyadmin",
		"admin.php", "config.php", ".git", ".ssh",
		"eval(", "javascript:", "<script", "union select",
		"etc/passwd", "cmd.exe",
	}
	// curl and friends are ordinary API clients here, only scanners are flagged.
	suspiciousAgents = []string{"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan", "zgrab"}
	unusualMethods   = []string{"TRACE", "TRACK", "DEBUG", "CONNECT"}
)

// Detector flags requests that look like probes and resolves client
// addresses behind trusted proxies.
type Detector struct {
	trustedProxies []*net.IPNet
	logger         *slog.Logger
}

func NewDetector(logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		logger: logger,
		trustedProxies: []*net.IPNet{
			parseCIDR("127.0.0.0/8"),
			parseCIDR("10.0.0.0/8"),
			parseCIDR("172.16.0.0/12"),
			parseCIDR("192.168.0.0/16"),
			parseCIDR("::1/128"),
		},
	}
}

func parseCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("failed to parse trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

// Inspect returns the first reason r looks hostile, or "".
func (d *Detector) Inspect(r *http.Request) string {
	if containsAny(strings.ToLower(r.URL.Path), suspiciousPatterns) {
		return ReasonPath
	}
	query, err := url.QueryUnescape(r.URL.RawQuery)
	if err != nil {
		query = r.URL.RawQuery
	}
	if containsAny(strings.ToLower(query), suspiciousPatterns) {
		return ReasonQuery
	}
	if containsAny(strings.ToLower(r.Header.Get("User-Agent")), suspiciousAgents) {
		return ReasonUserAgent
	}
	for _, m := range unusualMethods {
		if r.Method == m {
			return ReasonMethod
		}
	}
	if len(r.URL.String()) > maxURLLength {
		return ReasonLength
	}
	// More than five proxy hops suggests a forged header.
	if strings.Count(r.Header.Get("X-Forwarded-For"), ",") > 5 {
		return ReasonForwarded
	}
	return ""
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// Middleware logs and counts flagged requests. Probes on the path or with an
// unusual method are answered 404 without reaching the router.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reason := d.Inspect(r)
		if reason == "" {
			next.ServeHTTP(w, r)
			return
		}
		metrics.SuspiciousRequests.WithLabelValues(reason).Inc()
		d.logger.WarnContext(r.Context(), "Suspicious request",
			"component", "security",
			"reason", reason,
			"method", r.Method,
			"path", r.URL.Path,
			"client_ip", d.ExtractClientIP(r),
			"user_agent", r.Header.Get("User-Agent"))

		if reason == ReasonPath || reason == ReasonMethod {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ExtractClientIP honors X-Forwarded-For and X-Real-IP only when the direct
// peer is a trusted proxy.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsed := net.ParseIP(directIP)
	if parsed == nil || !d.isTrustedProxy(parsed) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		first = strings.TrimSpace(first)
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" && net.ParseIP(xri) != nil {
		return xri
	}
	return directIP
}

func (d *Detector) isTrustedProxy(ip net.IP) bool {
	for _, network := range d.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

func (d *Detector) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.trustedProxies = append(d.trustedProxies, network)
	return nil
}
