package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Headers the landing pages and the admin dashboard always send.
var defaultCORSHeaders = []string{"Authorization", "Content-Type", "X-Request-ID", "X-Onboarding-Token"}

const corsMethods = "GET, POST, PATCH, DELETE, OPTIONS"

// CORSConfig configures the CORS middleware. Origins may be exact
// ("https://admin.clinica.cl"), a subdomain pattern for per-clinic landing
// pages ("https://*.clinica.cl") or "*". Headers are allowed on top of the
// defaults.
type CORSConfig struct {
	Origins []string
	Headers []string
	MaxAge  time.Duration
}

type originMatcher struct {
	any      bool
	exact    map[string]struct{}
	suffixes []string
	schemes  []string
}

func newOriginMatcher(origins []string) originMatcher {
	m := originMatcher{exact: map[string]struct{}{}}
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		switch {
		case origin == "":
		case origin == "*":
			m.any = true
		case strings.Contains(origin, "://*."):
			scheme, host, _ := strings.Cut(origin, "://*")
			m.schemes = append(m.schemes, scheme+"://")
			m.suffixes = append(m.suffixes, host)
		default:
			m.exact[origin] = struct{}{}
		}
	}
	return m
}

func (m originMatcher) allows(origin string) bool {
	if m.any {
		return true
	}
	if _, ok := m.exact[origin]; ok {
		return true
	}
	for i, suffix := range m.suffixes {
		rest, ok := strings.CutPrefix(origin, m.schemes[i])
		if ok && strings.HasSuffix(rest, suffix) && len(rest) > len(suffix) {
			return true
		}
	}
	return false
}

// CORS echoes allowed origins back and answers preflight requests itself.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	match := newOriginMatcher(cfg.Origins)

	headers := append([]string{}, defaultCORSHeaders...)
	for _, h := range cfg.Headers {
		if h = http.CanonicalHeaderKey(strings.TrimSpace(h)); h != "" {
			headers = append(headers, h)
		}
	}
	allowedHeaders := strings.Join(headers, ", ")
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 10 * time.Minute
	}
	maxAgeSec := strconv.Itoa(int(maxAge / time.Second))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || !match.allows(origin) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
			w.Header().Set("Access-Control-Allow-Methods", corsMethods)
			w.Header().Set("Access-Control-Max-Age", maxAgeSec)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
