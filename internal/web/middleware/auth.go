package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/fxdesk/internal/config"
	"github.com/JonMunkholm/fxdesk/internal/core"
)

// UserHeader names the acting user when API keys are not required.
const UserHeader = "X-User-ID"

// AnonymousUser is the user id for unauthenticated requests.
const AnonymousUser = "anonymous"

type apiKey struct {
	key  []byte
	user string
}

// APIKeyAuth resolves the acting user for each request and stores it with
// core.ContextWithUserID.
//
// With RequireAPIKey set, X-API-Key must match a configured key and the
// request acts as that key's user. Otherwise the X-User-ID header is trusted
// as-is, falling back to AnonymousUser.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	var keys []apiKey
	for k, u := range cfg.APIKeyUsers() {
		keys = append(keys, apiKey{key: []byte(k), user: u})
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				user := strings.TrimSpace(r.Header.Get(UserHeader))
				if user == "" {
					user = AnonymousUser
				}
				next.ServeHTTP(w, r.WithContext(core.ContextWithUserID(r.Context(), user)))
				return
			}

			presented := r.Header.Get("X-API-Key")
			if presented == "" {
				slog.Warn("auth: missing API key", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				writeAuthError(w, http.StatusUnauthorized, "missing API key", "AUTH_MISSING_KEY")
				return
			}

			user, ok := matchKey(presented, keys)
			if !ok {
				slog.Warn("auth: invalid API key", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				writeAuthError(w, http.StatusForbidden, "invalid API key", "AUTH_INVALID_KEY")
				return
			}
			next.ServeHTTP(w, r.WithContext(core.ContextWithUserID(r.Context(), user)))
		})
	}
}

// matchKey compares against every key in constant time per key, so timing
// does not reveal which key (if any) matched.
func matchKey(presented string, keys []apiKey) (string, bool) {
	p := []byte(presented)
	user := ""
	found := 0
	for _, k := range keys {
		if subtle.ConstantTimeCompare(p, k.key) == 1 {
			user = k.user
			found = 1
		}
	}
	return user, found == 1
}

func writeAuthError(w http.ResponseWriter, status int, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `","code":"` + code + `"}`))
}
