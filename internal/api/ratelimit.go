package api

import (
	"net/http"
	"os"
	"strconv"

	"golang.org/x/time/rate"
)

// RateLimit bounds solve submissions. Limits come from RATE_RPS and
// RATE_BURST; unset means 2 rps with a burst of 5. Only POST /v1/plans is
// throttled, reads pass through.
func RateLimit(next http.Handler) http.Handler {
	rps := envFloat("RATE_RPS", 2)
	burst := envInt("RATE_BURST", 5)
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/v1/plans" {
			if !limiter.Allow() {
				writeProblem(w, http.StatusTooManyRequests, "Rate limit exceeded", "try again later", r.URL.Path)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
