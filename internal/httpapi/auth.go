package httpapi

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"oneonone/agenda-service/internal/models"
)

type identityContextKey struct{}

// WithIdentity stores the session identity in ctx.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext returns the identity set by the session gate.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(models.Identity)
	return identity, ok
}

// requireLogin resolves the session cookie and rejects anonymous requests
// with a redirect to the login page.
func (h *Handler) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := h.authenticate(w, r)
		if !ok {
			redirectToLogin(w, r)
			return
		}
		setRequestUser(r.Context(), identity.Username)
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// authenticate returns the identity of a valid session whose user still
// exists in the store. Stale cookies are cleared.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	identity, err := h.sessions.FromRequest(r)
	if err != nil {
		return models.Identity{}, false
	}
	exists, err := h.store.Exists(r.Context(), identity.Username)
	if err != nil {
		h.log.Error(r.Context(), "user lookup failed", "user", identity.Username, "error", err)
		return models.Identity{}, false
	}
	if !exists {
		h.log.Info(r.Context(), "session user no longer exists", "user", identity.Username)
		h.sessions.Logout(w)
		return models.Identity{}, false
	}
	return identity, true
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := "/login"
	if r.Method == http.MethodGet && r.URL.Path != "/" && r.URL.Path != "/logout" {
		target += "?next=" + url.QueryEscape(r.URL.RequestURI())
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// safeNext only allows local absolute paths as post-login targets.
func safeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	if u.Path == "/login" || u.Path == "/logout" {
		return "/"
	}
	return next
}
