package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/good-yellow-bee/statushook/internal/metrics"
)

// jsonUnauthorized writes a 401 for requests with no credentials.
func jsonUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error": map[string]string{
			"code":    "UNAUTHORIZED",
			"message": "missing authentication token",
		},
	})
}

// jsonForbidden writes a 403 for requests with wrong credentials.
func jsonForbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error": map[string]string{
			"code":    "FORBIDDEN",
			"message": "invalid authentication token",
		},
	})
}

// TokenAuth returns middleware that validates the shared webhook secret.
// The token is accepted as a Bearer Authorization header or a token query
// parameter, because Google Cloud Monitoring webhook channels can only
// append the credential to the URL.
func TokenAuth(secret string, disabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if disabled {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token == "" {
				log.Printf("webhook auth failed for %s: no token presented", r.RemoteAddr)
				metrics.AuthFailures.Inc()
				jsonUnauthorized(w)
				return
			}

			if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				// Log a short prefix only, enough to spot a stale
				// credential without disclosing it.
				log.Printf("webhook auth failed for %s: wrong token (prefix %q)", r.RemoteAddr, maskToken(token))
				metrics.AuthFailures.Inc()
				jsonForbidden(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func maskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + "****"
}
