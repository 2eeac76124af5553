package user

import (
	"context"
	"log/slog"
	"time"

	apperrors "github.com/umoc-outing-club/gear-locker/internal"
	"github.com/umoc-outing-club/gear-locker/internal/core/common/validation"
	userDatamodel "github.com/umoc-outing-club/gear-locker/internal/core/datamodel/user"
)

// Repository finders return (nil, nil) when nothing matches.
type Repository interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error

	Create(ctx context.Context, u *userDatamodel.User) error
	GetAll(ctx context.Context) ([]*userDatamodel.User, error)
	GetByID(ctx context.Context, id string) (*userDatamodel.User, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*userDatamodel.User, error)
	GetBySpireID(ctx context.Context, spireID string) (*userDatamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// IdentityService owns credentials. It hands back the id every user
// document is keyed by.
type IdentityService interface {
	CreateAccount(ctx context.Context, email, password string) (string, error)
	ChangeEmail(ctx context.Context, userID, email string) error
}

type Service struct {
	repo         Repository
	identity     IdentityService
	logger       *slog.Logger
	queryTimeout time.Duration
}

func NewService(repo Repository, identity IdentityService, logger *slog.Logger, queryTimeout time.Duration) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:         repo,
		identity:     identity,
		logger:       logger,
		queryTimeout: queryTimeout,
	}
}

// SignUp creates the identity account first and then the user document
// keyed by the returned id. The possession list always starts empty.
func (s *Service) SignUp(ctx context.Context, dto SignUpDTO) (*User, error) {
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		s.logger.Warn("sign up: invalid request", "error", appErr.GetDetailedMessage())
		return nil, appErr
	}

	userID, err := s.identity.CreateAccount(ctx, dto.Email, dto.Password)
	if err != nil {
		s.logger.Warn("sign up: identity service rejected account", "email", dto.Email, "error", err)
		return nil, err
	}

	u := &User{
		ID:         userID,
		Email:      dto.Email,
		Name:       dto.Name,
		PermLvl:    *dto.PermLvl,
		PhoneNum:   dto.PhoneNum,
		SpireID:    dto.SpireID,
		Waiver:     *dto.Waiver,
		Possession: []string{},
	}

	ctx, cancel := apperrors.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	model := ToDataModel(u)
	if err := s.repo.Create(ctx, model); err != nil {
		s.logger.Error("sign up: account created but user document was not stored", "user_id", userID, "error", err)
		return nil, apperrors.NewInternalError("failed to store user", err)
	}

	s.logger.Info("user signed up", "user_id", userID, "perm_lvl", u.PermLvl)
	return FromDataModel(model), nil
}

func (s *Service) GetAll(ctx context.Context) ([]*User, error) {
	ctx, cancel := apperrors.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, apperrors.NewInternalError("failed to list users", err)
	}

	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		users = append(users, FromDataModel(row))
	}
	return users, nil
}

func (s *Service) GetByID(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, apperrors.NewValidationFieldError("userId", "userId parameter is required", apperrors.ErrCodeValidationFailed)
	}

	ctx, cancel := apperrors.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	row, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get user", err)
	}
	if row == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return FromDataModel(row), nil
}

// GetByIdentifier looks a user up by institutional id or email address.
// When several documents match, the first one returned wins.
func (s *Service) GetByIdentifier(ctx context.Context, identifier string) (*User, error) {
	if identifier == "" {
		return nil, apperrors.NewValidationFieldError("identifier", "identifier parameter is required", apperrors.ErrCodeValidationFailed)
	}

	ctx, cancel := apperrors.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var (
		row *userDatamodel.User
		err error
	)
	switch {
	case validation.IsInstitutionalID(identifier):
		row, err = s.repo.GetBySpireID(ctx, identifier)
	case validation.IsEmail(identifier):
		row, err = s.repo.GetByEmail(ctx, identifier)
	default:
		return nil, apperrors.NewValidationFieldError("identifier",
			"identifier must be an 8 digit institutional id or an email address",
			apperrors.ErrCodeInvalidIdentifier)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get user", err)
	}
	if row == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return FromDataModel(row), nil
}

// GetPossession returns the gear tags currently held by the user.
func (s *Service) GetPossession(ctx context.Context, identifier string) (*PossessionResponse, error) {
	u, err := s.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return &PossessionResponse{ID: u.ID, Possession: u.Possession}, nil
}

// Update merges the patch into the stored user. Only locker managers may
// change a permission level. A new email moves the sign-in address with it,
// and a user holding gear keeps their institutional id.
func (s *Service) Update(ctx context.Context, userID string, dto UpdateUserDTO, canManage bool) error {
	if dto.IsEmpty() {
		return apperrors.NewValidationError("no updatable fields in request", apperrors.ErrCodeValidationFailed)
	}
	if appErr := dto.Validate(); appErr != nil {
		return appErr
	}
	if dto.PermLvl != nil && !canManage {
		return apperrors.ErrInsufficientRole
	}

	ctx, cancel := apperrors.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	fields := dto.Fields()
	var previousEmail string
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, repo Repository) error {
		current, err := repo.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if current == nil {
			return apperrors.ErrUserNotFound
		}
		if spireID, ok := fields["spire_id"]; ok {
			if err := s.checkSpireID(ctx, repo, current, spireID); err != nil {
				return err
			}
		}
		if email, ok := fields["email"].(string); ok && email != current.Email {
			if err := s.identity.ChangeEmail(ctx, userID, email); err != nil {
				return err
			}
			previousEmail = current.Email
		}
		_, err = repo.Update(ctx, userID, fields)
		return err
	})
	if err != nil {
		if previousEmail != "" {
			s.restoreEmail(ctx, userID, previousEmail)
		}
		if appErr, ok := apperrors.IsAppError(err); ok {
			s.logger.Warn("user update rejected", "user_id", userID, "code", appErr.Code)
			return appErr
		}
		// a concurrent update may have won the unique index
		if s.spireIDTaken(ctx, userID, fields) {
			return apperrors.ErrDuplicateSpireID
		}
		s.logger.Error("failed to update user", "user_id", userID, "error", err)
		return apperrors.NewInternalError("failed to update user", err)
	}

	s.logger.Info("user updated", "user_id", userID)
	return nil
}

// checkSpireID guards a change to the institutional id. Custody finds a
// borrower by that id, so clearing it would strand their gear.
func (s *Service) checkSpireID(ctx context.Context, repo Repository, current *userDatamodel.User, value interface{}) error {
	spireID, ok := value.(string)
	if !ok {
		if len(current.Possession) > 0 {
			return apperrors.ErrUserHoldsGear
		}
		return nil
	}
	other, err := repo.GetBySpireID(ctx, spireID)
	if err != nil {
		return err
	}
	if other != nil && other.ID != current.ID {
		return apperrors.ErrDuplicateSpireID
	}
	return nil
}

func (s *Service) spireIDTaken(ctx context.Context, userID string, fields map[string]interface{}) bool {
	spireID, ok := fields["spire_id"].(string)
	if !ok {
		return false
	}
	other, err := s.repo.GetBySpireID(ctx, spireID)
	return err == nil && other != nil && other.ID != userID
}

func (s *Service) restoreEmail(ctx context.Context, userID, email string) {
	if err := s.identity.ChangeEmail(context.WithoutCancel(ctx), userID, email); err != nil {
		s.logger.Error("sign-in email no longer matches user document", "user_id", userID, "error", err)
	}
}

// Delete removes a user document. A user still holding gear cannot be
// deleted until it is checked back in.
func (s *Service) Delete(ctx context.Context, userID string) error {
	ctx, cancel := apperrors.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	err := s.repo.WithTransaction(ctx, func(ctx context.Context, repo Repository) error {
		current, err := repo.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if current == nil {
			return apperrors.ErrUserNotFound
		}
		if len(current.Possession) > 0 {
			return apperrors.ErrUserHoldsGear
		}
		_, err = repo.Delete(ctx, userID)
		return err
	})
	if err != nil {
		if appErr, ok := apperrors.IsAppError(err); ok {
			s.logger.Warn("user delete rejected", "user_id", userID, "code", appErr.Code)
			return appErr
		}
		s.logger.Error("failed to delete user", "user_id", userID, "error", err)
		return apperrors.NewInternalError("failed to delete user", err)
	}

	s.logger.Info("user deleted", "user_id", userID)
	return nil
}
