// Package auth guards the HTTP surface with static API keys. Keys are
// hashed at startup with SHA-256 and compared in constant time;
// plaintext keys are never stored.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey struct{}

// keyEntry maps a key hash to a caller name.
type keyEntry struct {
	hash [32]byte
	name string
}

// APIKeyAuthenticator validates bearer tokens against a static key set.
type APIKeyAuthenticator struct {
	keys []keyEntry
}

// Key is one accepted API key with a caller name for logging.
type Key struct {
	Name string
	Key  string
}

// NewAPIKey creates an authenticator from raw keys.
func NewAPIKey(keys []Key) *APIKeyAuthenticator {
	a := &APIKeyAuthenticator{}
	for _, k := range keys {
		a.keys = append(a.keys, keyEntry{
			hash: sha256.Sum256([]byte(k.Key)),
			name: k.Name,
		})
	}
	return a
}

// authenticate returns the caller name for a valid bearer token.
func (a *APIKeyAuthenticator) authenticate(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" {
		return "", false
	}

	tokenHash := sha256.Sum256([]byte(token))
	for _, entry := range a.keys {
		if subtle.ConstantTimeCompare(tokenHash[:], entry.hash[:]) == 1 {
			return entry.name, true
		}
	}
	return "", false
}

// Middleware rejects requests without a valid API key. The caller name
// is placed in the request context for handlers and logs.
func (a *APIKeyAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := a.authenticate(r)
		if !ok {
			slog.Debug("rejected unauthenticated request",
				"method", r.Method,
				"path", r.URL.Path,
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": "missing or invalid API key",
			})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

// WithCaller stores the authenticated caller name in the context.
func WithCaller(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, contextKey{}, name)
}

// CallerFrom returns the authenticated caller name, if any.
func CallerFrom(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(contextKey{}).(string)
	return name, ok
}
