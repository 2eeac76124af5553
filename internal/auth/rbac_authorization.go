package auth

import (
	"log/slog"
	"net/http"

	apperrors "github.com/umoc-outing-club/gear-locker/internal"
	userDatamodel "github.com/umoc-outing-club/gear-locker/internal/core/datamodel/user"
	"github.com/umoc-outing-club/gear-locker/internal/transport"
)

type RBACAuthorization struct {
	*transport.BaseHandler
	checker PermissionChecker
}

func NewRBACAuthorization(checker PermissionChecker, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: transport.NewBaseHandler(logger),
		checker:     checker,
	}
}

// RequireLevel lets the request through when the caller's permission level
// is at least required.
func (ra *RBACAuthorization) RequireLevel(required int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || user == nil {
				ra.Logger.Warn("authorization check failed: user not found in context")
				ra.WriteAppError(w, apperrors.ErrInvalidToken)
				return
			}

			allowed, err := ra.checker.HasLevel(r.Context(), user.PermLvl, required)
			if err != nil {
				ra.HandleServiceError(w, err)
				return
			}

			if !allowed {
				ra.Logger.WarnContext(r.Context(), "access denied: insufficient permission level",
					"user_id", user.ID,
					"perm_lvl", user.PermLvl,
					"required", required)
				ra.WriteAppError(w, apperrors.ErrInsufficientRole)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RBACAuthorization) RequireLeader() func(http.Handler) http.Handler {
	return ra.RequireLevel(userDatamodel.PermLeader)
}

func (ra *RBACAuthorization) RequireLockerManager() func(http.Handler) http.Handler {
	return ra.RequireLevel(userDatamodel.PermLockerManager)
}
