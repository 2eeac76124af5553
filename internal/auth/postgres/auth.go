package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/umoc-outing-club/gear-locker/internal/auth"
	identityDatamodel "github.com/umoc-outing-club/gear-locker/internal/core/datamodel/identity"
	"gorm.io/gorm"
)

type IdentityRepository struct {
	db *gorm.DB
}

func NewIdentityRepository(db *gorm.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

func (r *IdentityRepository) Create(ctx context.Context, identity *identityDatamodel.Identity) error {
	return r.db.WithContext(ctx).Create(identity).Error
}

func (r *IdentityRepository) GetByEmail(ctx context.Context, email string) (*identityDatamodel.Identity, error) {
	return r.first(r.db.WithContext(ctx).Where("email = ?", email))
}

func (r *IdentityRepository) GetByID(ctx context.Context, id string) (*identityDatamodel.Identity, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *IdentityRepository) first(db *gorm.DB) (*identityDatamodel.Identity, error) {
	var identity identityDatamodel.Identity
	if err := db.First(&identity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &identity, nil
}

func (r *IdentityRepository) IncrementTokenVersion(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&identityDatamodel.Identity{}).
		Where("id = ?", id).
		Update("token_version", gorm.Expr("token_version + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateEmail reports whether the identity existed.
func (r *IdentityRepository) UpdateEmail(ctx context.Context, id, email string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&identityDatamodel.Identity{}).
		Where("id = ?", id).
		Update("email", email)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UserLookup reads just the columns route guards need from the users table.
type UserLookup struct {
	db *gorm.DB
}

func NewUserLookup(db *gorm.DB) *UserLookup {
	return &UserLookup{db: db}
}

func (l *UserLookup) GetAuthUser(ctx context.Context, userID string) (*auth.User, error) {
	var (
		u       auth.User
		spireID sql.NullString
	)

	query := `SELECT id, email, perm_lvl, spire_id FROM users WHERE id = ?`

	row := l.db.WithContext(ctx).Raw(query, userID).Row()
	if err := row.Scan(&u.ID, &u.Email, &u.PermLvl, &spireID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.SpireID = spireID.String
	return &u, nil
}
