package auth

import (
	"net/http"

	"github.com/go-chi/chi"
	apperrors "github.com/umoc-outing-club/gear-locker/internal"
	"github.com/umoc-outing-club/gear-locker/internal/transport"
)

// OwnershipPolicy grants access to a user's own document, and to locker
// managers for any document.
type OwnershipPolicy struct {
	*transport.BaseHandler
	checker PermissionChecker
}

func NewOwnershipPolicy(base *transport.BaseHandler, checker PermissionChecker) *OwnershipPolicy {
	return &OwnershipPolicy{BaseHandler: base, checker: checker}
}

func (p *OwnershipPolicy) Allow(u *User, ownerID string) bool {
	if u == nil {
		return false
	}
	if p.checker.CanManageUsers(u.PermLvl) {
		return true
	}
	return ownerID != "" && u.ID == ownerID
}

// RequireSelfOrManager guards routes whose owner is named by the URL
// parameter param.
func (p *OwnershipPolicy) RequireSelfOrManager(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok || u == nil {
				p.WriteAppError(w, apperrors.ErrInvalidToken)
				return
			}
			if !p.Allow(u, chi.URLParam(r, param)) {
				p.Logger.WarnContext(r.Context(), "access denied: not the owner", "user_id", u.ID, "owner_id", chi.URLParam(r, param))
				p.WriteAppError(w, apperrors.NewForbiddenError("you may only modify your own account", apperrors.ErrCodeInsufficientRole))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
