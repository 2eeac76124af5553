package postgres

import (
	"context"
	"errors"

	gearDatamodel "github.com/umoc-outing-club/gear-locker/internal/core/datamodel/gear"
	"github.com/umoc-outing-club/gear-locker/internal/gear"
	"gorm.io/gorm"
)

type GearRepository struct {
	db *gorm.DB
}

func NewGearRepository(db *gorm.DB) gear.Repository {
	return &GearRepository{db: db}
}

func (r *GearRepository) GetAll(ctx context.Context) ([]*gearDatamodel.Gear, error) {
	var items []*gearDatamodel.Gear
	err := r.db.WithContext(ctx).Order("gear_tag ASC").Find(&items).Error
	return items, err
}

func (r *GearRepository) GetByTag(ctx context.Context, gearTag string) (*gearDatamodel.Gear, error) {
	var g gearDatamodel.Gear
	if err := r.db.WithContext(ctx).Where("gear_tag = ?", gearTag).First(&g).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func (r *GearRepository) Create(ctx context.Context, g *gearDatamodel.Gear) error {
	return r.db.WithContext(ctx).Create(g).Error
}

// Update writes every editable column. checked_out is owned by the custody
// flow and is never written here.
func (r *GearRepository) Update(ctx context.Context, g *gearDatamodel.Gear) error {
	result := r.db.WithContext(ctx).
		Model(&gearDatamodel.Gear{ID: g.ID}).
		Select("name", "photo", "category", "gear_fields", "leader_fields", "manager_fields", "extra", "updated_at").
		Updates(g)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
