package web

import (
	"net/http"

	"github.com/JonMunkholm/fxdesk/internal/core"
	"github.com/JonMunkholm/fxdesk/internal/web/middleware"
)

// actingUser returns the user id APIKeyAuth resolved for r. Engine calls take
// it explicitly.
func actingUser(r *http.Request) string {
	if u := core.UserIDFromContext(r.Context()); u != "" {
		return u
	}
	return middleware.AnonymousUser
}
