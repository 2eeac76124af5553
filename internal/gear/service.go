package gear

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/umoc-outing-club/gear-locker/internal"
	"github.com/umoc-outing-club/gear-locker/internal/core/common/validation"
	gearDatamodel "github.com/umoc-outing-club/gear-locker/internal/core/datamodel/gear"
	"github.com/umoc-outing-club/gear-locker/internal/core/events"
)

// AllGearCacheKey prefixes the cached getAllGear listing. The listing is
// stored under AllGearCacheKey:v<n> where n is the counter kept at
// AllGearVersionKey. Bumping the counter retires every older listing.
const (
	AllGearCacheKey   = "gear:all"
	AllGearVersionKey = "gear:all:version"
)

func listingKey(version int64) string {
	return fmt.Sprintf("%s:v%d", AllGearCacheKey, version)
}

// Repository finders return (nil, nil) when nothing matches.
type Repository interface {
	GetAll(ctx context.Context) ([]*gearDatamodel.Gear, error)
	GetByTag(ctx context.Context, gearTag string) (*gearDatamodel.Gear, error)
	Create(ctx context.Context, g *gearDatamodel.Gear) error
	Update(ctx context.Context, g *gearDatamodel.Gear) error
}

type CategoryValidator interface {
	IsValidCategory(ctx context.Context, name string) bool
}

// Cache misses and cache errors look the same to the service.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) bool
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Options struct {
	CacheTTL     time.Duration
	QueryTimeout time.Duration
}

type Service struct {
	repo       Repository
	categories CategoryValidator
	cache      Cache
	publisher  Publisher
	logger     *slog.Logger
	opts       Options
	now        func() time.Time
}

func NewService(repo Repository, categories CategoryValidator, cache Cache, publisher Publisher, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}
	return &Service{
		repo:       repo,
		categories: categories,
		cache:      cache,
		publisher:  publisher,
		logger:     logger,
		opts:       opts,
		now:        time.Now,
	}
}

// GetAll returns every gear document, served from the cache when it is warm.
func (s *Service) GetAll(ctx context.Context) ([]*Gear, error) {
	// read the version before the store so a concurrent invalidation
	// retires whatever this call caches
	version := s.listingVersion(ctx)
	if s.cache != nil {
		var cached []*Gear
		if s.cache.GetJSON(ctx, listingKey(version), &cached) {
			s.logger.Debug("gear list served from cache", "count", len(cached))
			return cached, nil
		}
	}

	qctx, cancel := apperrors.WithTimeout(ctx, s.opts.QueryTimeout)
	defer cancel()

	rows, err := s.repo.GetAll(qctx)
	if err != nil {
		s.logger.Error("failed to list gear", "error", err)
		return nil, apperrors.NewInternalError("failed to list gear", err)
	}

	items := make([]*Gear, 0, len(rows))
	for _, row := range rows {
		items = append(items, FromDataModel(row))
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, listingKey(version), items, s.opts.CacheTTL); err != nil {
			s.logger.Warn("failed to cache gear list", "error", err)
		}
	}
	return items, nil
}

func (s *Service) GetByTag(ctx context.Context, gearTag string) (*Gear, error) {
	if appErr := validation.ValidateGearTag("identifier", gearTag); appErr != nil {
		return nil, appErr
	}

	ctx, cancel := apperrors.WithTimeout(ctx, s.opts.QueryTimeout)
	defer cancel()

	row, err := s.repo.GetByTag(ctx, gearTag)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get gear", err)
	}
	if row == nil {
		return nil, apperrors.ErrGearNotFound
	}
	return FromDataModel(row), nil
}

// Create stores a new gear document. Tags are unique and every category
// must be an active one.
func (s *Service) Create(ctx context.Context, dto CreateGearDTO) (*Gear, error) {
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	qctx, cancel := apperrors.WithTimeout(ctx, s.opts.QueryTimeout)
	defer cancel()

	if appErr := s.checkCategories(qctx, dto.Category); appErr != nil {
		return nil, appErr
	}

	existing, err := s.repo.GetByTag(qctx, dto.GearTag)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get gear", err)
	}
	if existing != nil {
		return nil, apperrors.ErrDuplicateGearTag
	}

	today := s.now().UTC().Format(time.DateOnly)
	managerFields := dto.ManagerFields
	if managerFields.Created == "" {
		managerFields.Created = today
	}
	managerFields.LastUpdated = today

	g := &Gear{
		ID:            uuid.New().String(),
		GearTag:       dto.GearTag,
		Name:          dto.Name,
		Photo:         dto.Photo,
		Category:      dto.Category,
		CheckedOut:    false,
		GearFields:    dto.GearFields,
		LeaderFields:  dto.LeaderFields,
		ManagerFields: managerFields,
		Extra:         dto.Extra,
	}

	model := ToDataModel(g)
	if err := s.repo.Create(qctx, model); err != nil {
		// a concurrent create may have taken the tag
		if again, lookupErr := s.repo.GetByTag(qctx, dto.GearTag); lookupErr == nil && again != nil {
			return nil, apperrors.ErrDuplicateGearTag
		}
		s.logger.Error("failed to create gear", "gear_tag", dto.GearTag, "error", err)
		return nil, apperrors.NewInternalError("failed to create gear", err)
	}

	s.changed(ctx, g.GearTag)
	s.logger.Info("gear created", "gear_tag", g.GearTag, "gear_id", g.ID)
	return FromDataModel(model), nil
}

// Update merges the patch into the stored gear document.
func (s *Service) Update(ctx context.Context, gearTag string, dto UpdateGearDTO) (*Gear, error) {
	if appErr := validation.ValidateGearTag("gearTag", gearTag); appErr != nil {
		return nil, appErr
	}
	if dto.IsEmpty() {
		return nil, apperrors.NewValidationError("no updatable fields in request", apperrors.ErrCodeValidationFailed)
	}
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	qctx, cancel := apperrors.WithTimeout(ctx, s.opts.QueryTimeout)
	defer cancel()

	if dto.Category != nil {
		if appErr := s.checkCategories(qctx, normalizeCategories(*dto.Category)); appErr != nil {
			return nil, appErr
		}
	}

	row, err := s.repo.GetByTag(qctx, gearTag)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get gear", err)
	}
	if row == nil {
		return nil, apperrors.ErrGearNotFound
	}

	g := FromDataModel(row)
	created := g.ManagerFields.Created
	dto.Apply(g)
	if g.ManagerFields.Created == "" {
		g.ManagerFields.Created = created
	}
	g.ManagerFields.LastUpdated = s.now().UTC().Format(time.DateOnly)

	model := ToDataModel(g)
	if err := s.repo.Update(qctx, model); err != nil {
		s.logger.Error("failed to update gear", "gear_tag", gearTag, "error", err)
		return nil, apperrors.NewInternalError("failed to update gear", err)
	}

	s.changed(ctx, gearTag)
	s.logger.Info("gear updated", "gear_tag", gearTag)
	return g, nil
}

// InvalidateListing retires the cached listing. Custody calls it right
// after commit so the next getAllGear reflects the new flag.
func (s *Service) InvalidateListing(ctx context.Context) {
	s.invalidate(ctx)
}

// HandleGearEvent drops the cached listing whenever a gear document
// changes, including custody transitions.
func (s *Service) HandleGearEvent(ctx context.Context, event events.Event) error {
	s.invalidate(ctx)
	s.logger.Debug("gear cache invalidated", "event_type", event.EventType(), "event_id", event.EventID())
	return nil
}

func (s *Service) checkCategories(ctx context.Context, categories []string) *apperrors.AppError {
	if s.categories == nil {
		return nil
	}
	for _, c := range categories {
		if !s.categories.IsValidCategory(ctx, c) {
			return apperrors.NewValidationFieldError("category", fmt.Sprintf("unknown category %q", c), apperrors.ErrCodeInvalidCategory)
		}
	}
	return nil
}

func (s *Service) changed(ctx context.Context, gearTag string) {
	s.invalidate(ctx)
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), events.NewGearChangedEvent(gearTag)); err != nil {
		s.logger.Warn("failed to publish gear change", "gear_tag", gearTag, "error", err)
	}
}

func (s *Service) listingVersion(ctx context.Context) int64 {
	if s.cache == nil {
		return 0
	}
	var version int64
	if !s.cache.GetJSON(ctx, AllGearVersionKey, &version) {
		return 0
	}
	return version
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_, err := s.cache.Incr(ctx, AllGearVersionKey)
	if err == nil {
		return
	}
	s.logger.Warn("failed to bump gear cache version", "error", err)
	if err := s.cache.Delete(ctx, listingKey(s.listingVersion(ctx))); err != nil {
		s.logger.Warn("failed to invalidate gear cache", "error", err)
	}
}
