package middleware

import (
	"net/http"

	"github.com/umoc-outing-club/gear-locker/internal/auth"
	"github.com/umoc-outing-club/gear-locker/pkg/logger"
)

// UserContext tags the request logger with the authenticated caller. It
// runs after auth.Handler.AuthMiddleware.
func UserContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.UserFromContext(r.Context())
		if !ok || u == nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := logger.With(r.Context(), "user_id", u.ID, "perm_lvl", u.PermLvl)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
