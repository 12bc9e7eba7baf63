package middleware

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
)

// envelope is the uniform error body every rejection shares.
type envelope struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}

// SecurityHeaders sets the standard hardening headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		next.ServeHTTP(w, r)
	})
}

// MethodAllowlist rejects any HTTP method outside GET/POST/OPTIONS.
func MethodAllowlist(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodPost, http.MethodOptions:
			next.ServeHTTP(w, r)
		default:
			writeEnvelope(w, http.StatusMethodNotAllowed, envelope{
				Error:   "Method not allowed",
				Message: "HTTP method " + r.Method + " is not supported",
			})
		}
	})
}

// PayloadSizeLimit rejects POST bodies whose declared length exceeds max,
// before any bytes are read.
func PayloadSizeLimit(max int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				if cl := r.Header.Get("Content-Length"); cl != "" {
					if n, err := strconv.ParseInt(cl, 10, 64); err == nil && n > max {
						writeEnvelope(w, http.StatusRequestEntityTooLarge, envelope{
							Error:   "Payload too large",
							Message: "Request body exceeds 10MB limit",
						})
						return
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

var suspiciousAgents = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bot`),
	regexp.MustCompile(`(?i)crawler`),
	regexp.MustCompile(`(?i)spider`),
	regexp.MustCompile(`(?i)scraper`),
	regexp.MustCompile(`(?i)curl`),
	regexp.MustCompile(`(?i)wget`),
	regexp.MustCompile(`(?i)python`),
	regexp.MustCompile(`(?i)java`),
	regexp.MustCompile(`(?i)sqlmap`),
	regexp.MustCompile(`(?i)nikto`),
	regexp.MustCompile(`(?i)nmap`),
}

// BlockSuspiciousAgents rejects scanner/scraper User-Agent signatures.
// An empty User-Agent is allowed.
func BlockSuspiciousAgents(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.UserAgent()
		for _, p := range suspiciousAgents {
			if p.MatchString(ua) {
				writeEnvelope(w, http.StatusForbidden, envelope{
					Error:   "Access denied",
					Message: "Request blocked for security reasons",
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
