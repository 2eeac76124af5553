package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	userDatamodel "github.com/umoc-outing-club/gear-locker/internal/core/datamodel/user"
)

type ctxKey string

const ContextUserKey ctxKey = "user"

// User is the authenticated caller as seen by route guards.
type User struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	PermLvl int    `json:"permLvl"`
	SpireID string `json:"SPIRE_ID,omitempty"`
}

func (u *User) IsLeader() bool {
	return u.PermLvl >= userDatamodel.PermLeader
}

func (u *User) IsLockerManager() bool {
	return u.PermLvl >= userDatamodel.PermLockerManager
}

func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ContextUserKey).(*User)
	return u, ok
}

func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, u)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Claims represents JWT token claims. TokenVersion lets sign-out revoke
// every refresh token issued before it.
type Claims struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	TokenVersion int    `json:"token_version"`
	Kind         string `json:"kind"`
	jwt.RegisteredClaims
}

const (
	tokenKindAccess  = "access"
	tokenKindRefresh = "refresh"
)

type TokenGenerator interface {
	GenerateAccessToken(userID, email string, version int) (string, error)
	GenerateRefreshToken(userID, email string, version int) (string, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}
