package auth

import (
	"log"
	"net/http"
	"strings"
)

// Middleware validates bearer tokens and enforces the role policy.
type Middleware struct {
	Secret []byte
	Policy Policy
	logger *log.Logger
}

// MiddlewareOption configures the middleware.
type MiddlewareOption func(*Middleware)

// WithDenyLogger logs every rejected request.
func WithDenyLogger(logger *log.Logger) MiddlewareOption {
	return func(m *Middleware) {
		m.logger = logger
	}
}

// NewMiddleware constructs an auth middleware.
func NewMiddleware(secret []byte, policy Policy, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{Secret: secret, Policy: policy}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Wrap applies auth and RBAC to the handler.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Policy.IsExempt(r) {
			next.ServeHTTP(w, r)
			return
		}
		required, ok := m.Policy.RequiredRole(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := ParseJWT(extractBearer(r), m.Secret)
		if err != nil {
			m.deny(w, r, http.StatusUnauthorized, "", err.Error())
			return
		}
		role, _ := NormalizeRole(claims.Role)
		if !RoleAtLeast(role, required) {
			m.deny(w, r, http.StatusForbidden, claims.Subject, "role "+string(role)+" below "+string(required))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), role, claims.Subject)))
	})
}

func (m *Middleware) deny(w http.ResponseWriter, r *http.Request, status int, subject, reason string) {
	if m.logger != nil {
		m.logger.Printf("auth: %s %s denied %d sub=%q: %s", r.Method, r.URL.Path, status, subject, reason)
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="energy-compare"`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + strings.ToLower(http.StatusText(status)) + `"}` + "\n"))
}

func extractBearer(r *http.Request) string {
	if r == nil {
		return ""
	}
	scheme, token, found := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
