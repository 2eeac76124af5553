package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/umoc-outing-club/gear-locker/internal"
	"github.com/umoc-outing-club/gear-locker/internal/core/common/validation"
	identityDatamodel "github.com/umoc-outing-club/gear-locker/internal/core/datamodel/identity"
	"golang.org/x/crypto/bcrypt"
)

// IdentityRepository finders return (nil, nil) when nothing matches.
type IdentityRepository interface {
	Create(ctx context.Context, identity *identityDatamodel.Identity) error
	GetByEmail(ctx context.Context, email string) (*identityDatamodel.Identity, error)
	GetByID(ctx context.Context, id string) (*identityDatamodel.Identity, error)
	IncrementTokenVersion(ctx context.Context, id string) error
	UpdateEmail(ctx context.Context, id, email string) (bool, error)
}

// UserLookup resolves the user document behind an identity.
type UserLookup interface {
	GetAuthUser(ctx context.Context, userID string) (*User, error)
}

// Service is the local identity service plus token issuance.
type Service struct {
	identities   IdentityRepository
	users        UserLookup
	tokens       TokenGenerator
	bcryptCost   int
	logger       *slog.Logger
	queryTimeout time.Duration
}

func NewService(identities IdentityRepository, users UserLookup, tokens TokenGenerator, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		identities: identities,
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) WithQueryTimeout(d time.Duration) *Service {
	s.queryTimeout = d
	return s
}

// CreateAccount registers credentials and returns the new identity id.
func (s *Service) CreateAccount(ctx context.Context, email, password string) (string, error) {
	if appErr := validation.ValidateEmail(email); appErr != nil {
		return "", appErr
	}
	if appErr := validation.ValidatePassword(password); appErr != nil {
		return "", appErr
	}

	ctx, cancel := apperrors.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	existing, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		return "", apperrors.NewInternalError("failed to look up account", err)
	}
	if existing != nil {
		return "", apperrors.ErrDuplicateAccount
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return "", apperrors.NewInternalError("failed to hash password", err)
	}

	identity := &identityDatamodel.Identity{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.identities.Create(ctx, identity); err != nil {
		// a concurrent sign-up may have won the unique index
		if again, lookupErr := s.identities.GetByEmail(ctx, email); lookupErr == nil && again != nil {
			return "", apperrors.ErrDuplicateAccount
		}
		return "", apperrors.NewInternalError("failed to create account", err)
	}

	s.logger.Info("account created", "user_id", identity.ID)
	return identity.ID, nil
}

// ChangeEmail moves an identity to a new sign-in address.
func (s *Service) ChangeEmail(ctx context.Context, userID, email string) error {
	if appErr := validation.ValidateEmail(email); appErr != nil {
		return appErr
	}

	ctx, cancel := apperrors.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	existing, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		return apperrors.NewInternalError("failed to look up account", err)
	}
	if existing != nil {
		if existing.ID == userID {
			return nil
		}
		return apperrors.ErrDuplicateAccount
	}

	found, err := s.identities.UpdateEmail(ctx, userID, email)
	if err != nil {
		if again, lookupErr := s.identities.GetByEmail(ctx, email); lookupErr == nil && again != nil && again.ID != userID {
			return apperrors.ErrDuplicateAccount
		}
		return apperrors.NewInternalError("failed to change account email", err)
	}
	if !found {
		return apperrors.ErrUserNotFound
	}

	s.logger.Info("account email changed", "user_id", userID)
	return nil
}

// Authenticate checks credentials and returns the identity id.
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, error) {
	identity, err := s.authenticate(ctx, email, password)
	if err != nil {
		return "", err
	}
	return identity.ID, nil
}

func (s *Service) authenticate(ctx context.Context, email, password string) (*identityDatamodel.Identity, error) {
	ctx, cancel := apperrors.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	identity, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to look up account", err)
	}
	if identity == nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := VerifyPassword(identity.PasswordHash, password); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	return identity, nil
}

// SignIn authenticates and issues an access/refresh token pair.
func (s *Service) SignIn(ctx context.Context, dto SignInDTO) (AuthTokens, error) {
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return AuthTokens{}, appErr
	}

	identity, err := s.authenticate(ctx, dto.Email, dto.Password)
	if err != nil {
		s.logger.Warn("sign in failed", "email", dto.Email, "error", err)
		return AuthTokens{}, err
	}

	return s.issue(identity)
}

// RefreshTokens trades a live refresh token for a new pair. Tokens issued
// before the last sign-out are rejected.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	ctx, cancel := apperrors.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	identity, err := s.identities.GetByID(ctx, claims.UserID)
	if err != nil {
		return AuthTokens{}, apperrors.NewInternalError("failed to look up account", err)
	}
	if identity == nil || identity.TokenVersion != claims.TokenVersion {
		return AuthTokens{}, apperrors.ErrInvalidToken
	}

	return s.issue(identity)
}

// SignOut revokes every refresh token issued to the user so far.
func (s *Service) SignOut(ctx context.Context, userID string) error {
	ctx, cancel := apperrors.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if err := s.identities.IncrementTokenVersion(ctx, userID); err != nil {
		return apperrors.NewInternalError("failed to sign out", err)
	}
	s.logger.Info("signed out", "user_id", userID)
	return nil
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokens.ValidateAccessToken(tokenString)
}

func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	ctx, cancel := apperrors.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	u, err := s.users.GetAuthUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load user", err)
	}
	if u == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return u, nil
}

func (s *Service) issue(identity *identityDatamodel.Identity) (AuthTokens, error) {
	accessToken, err := s.tokens.GenerateAccessToken(identity.ID, identity.Email, identity.TokenVersion)
	if err != nil {
		return AuthTokens{}, apperrors.NewInternalError("failed to issue token", err)
	}

	refreshToken, err := s.tokens.GenerateRefreshToken(identity.ID, identity.Email, identity.TokenVersion)
	if err != nil {
		return AuthTokens{}, apperrors.NewInternalError("failed to issue token", err)
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
