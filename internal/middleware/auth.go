// Package middleware provides HTTP middlewares for access gating and logging.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
)

type ctxKey string

const subjectKey ctxKey = "subject"

// DefaultAccessCookie is the cookie checked by CookieGate when Name is empty.
const DefaultAccessCookie = "rivon-access"

// AuthGate decides whether a request may reach the API.
type AuthGate interface {
	// Subject returns the identity behind r and whether it is authenticated.
	Subject(r *http.Request) (string, bool)
}

// CookieGate admits requests carrying the access cookie with value "true"
// (full access) or "guest".
type CookieGate struct {
	Name string
}

func (g CookieGate) Subject(r *http.Request) (string, bool) {
	name := g.Name
	if name == "" {
		name = DefaultAccessCookie
	}
	c, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	switch c.Value {
	case "true", "guest":
		return c.Value, true
	default:
		return "", false
	}
}

// CertGate admits requests that presented a verified TLS client
// certificate. The subject is the certificate Common Name.
type CertGate struct{}

func (CertGate) Subject(r *http.Request) (string, bool) {
	if r.TLS == nil || len(r.TLS.PeerCertificates) == 0 {
		return "", false
	}
	return r.TLS.PeerCertificates[0].Subject.CommonName, true
}

// RequireAccess rejects requests the gate does not admit with 401 and a JSON
// error body. Paths listed in open skip the check. On success the subject is
// stored in the request context.
func RequireAccess(gate AuthGate, open ...string) func(http.Handler) http.Handler {
	bypass := make(map[string]struct{}, len(open))
	for _, p := range open {
		bypass[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := bypass[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}
			subject, ok := gate.Subject(r)
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
				return
			}
			ctx := context.WithValue(r.Context(), subjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubjectFromContext extracts the authenticated subject from the request
// context. Returns an empty string if not found.
func GetSubjectFromContext(ctx context.Context) string {
	val := ctx.Value(subjectKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
