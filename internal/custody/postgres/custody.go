package postgres

import (
	"context"
	"errors"

	checkoutDatamodel "github.com/umoc-outing-club/gear-locker/internal/core/datamodel/checkout"
	gearDatamodel "github.com/umoc-outing-club/gear-locker/internal/core/datamodel/gear"
	userDatamodel "github.com/umoc-outing-club/gear-locker/internal/core/datamodel/user"
	"github.com/umoc-outing-club/gear-locker/internal/custody"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CustodyRepository struct {
	db *gorm.DB
}

func NewCustodyRepository(db *gorm.DB) custody.Repository {
	return &CustodyRepository{db: db}
}

// WithTransaction runs fn against a repository bound to a single transaction.
func (r *CustodyRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo custody.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &CustodyRepository{db: tx})
	})
}

func (r *CustodyRepository) FindUserByInstitutionalID(ctx context.Context, institutionalID string) (*userDatamodel.User, error) {
	return r.findUser(r.db.WithContext(ctx), institutionalID)
}

func (r *CustodyRepository) FindUserByInstitutionalIDForUpdate(ctx context.Context, institutionalID string) (*userDatamodel.User, error) {
	return r.findUser(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), institutionalID)
}

func (r *CustodyRepository) findUser(db *gorm.DB, institutionalID string) (*userDatamodel.User, error) {
	var user userDatamodel.User
	err := db.Where("spire_id = ?", institutionalID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *CustodyRepository) FindGearByTagForUpdate(ctx context.Context, gearTag string) (*gearDatamodel.Gear, error) {
	var gear gearDatamodel.Gear
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("gear_tag = ?", gearTag).
		First(&gear).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &gear, nil
}

func (r *CustodyRepository) UpdatePossession(ctx context.Context, userID string, possession []string) error {
	result := r.db.WithContext(ctx).
		Model(&userDatamodel.User{ID: userID}).
		Select("possession").
		Updates(&userDatamodel.User{Possession: possession})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *CustodyRepository) SetGearCheckedOut(ctx context.Context, gearID string, checkedOut bool) error {
	result := r.db.WithContext(ctx).
		Model(&gearDatamodel.Gear{}).
		Where("id = ?", gearID).
		Update("checked_out", checkedOut)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *CustodyRepository) AppendRecord(ctx context.Context, record *checkoutDatamodel.CheckOut) error {
	return r.db.WithContext(ctx).Create(record).Error
}
