package category

import (
	"context"
	"log/slog"
	"strings"

	apperrors "github.com/umoc-outing-club/gear-locker/internal"
	categoryDatamodel "github.com/umoc-outing-club/gear-locker/internal/core/datamodel/category"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*categoryDatamodel.GearCategory, error)
	GetByName(ctx context.Context, name string) (*categoryDatamodel.GearCategory, error)
	Create(ctx context.Context, category *categoryDatamodel.GearCategory) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetAllCategories(ctx context.Context) ([]CategoryResponse, error) {
	dataCategories, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to get categories from repository", "error", err)
		return nil, apperrors.NewInternalError("failed to get categories", err)
	}

	responses := make([]CategoryResponse, 0, len(dataCategories))
	for _, dataCategory := range dataCategories {
		domainCategory := FromDataModel(dataCategory)
		if domainCategory.IsActiveCategory() {
			responses = append(responses, domainCategory.ToResponse())
		}
	}

	s.logger.Debug("retrieved categories", "count", len(responses))
	return responses, nil
}

func (s *Service) GetCategoryByName(ctx context.Context, name string) (*CategoryResponse, error) {
	dataCategory, err := s.repo.GetByName(ctx, name)
	if err != nil {
		s.logger.Error("failed to get category from repository", "name", name, "error", err)
		return nil, apperrors.NewInternalError("failed to get category", err)
	}
	if dataCategory == nil || !dataCategory.IsActive {
		return nil, nil
	}

	response := FromDataModel(dataCategory).ToResponse()
	return &response, nil
}

// IsValidCategory reports whether name is an active category. Lookup
// failures count as invalid.
func (s *Service) IsValidCategory(ctx context.Context, name string) bool {
	category, err := s.GetCategoryByName(ctx, name)
	if err != nil {
		s.logger.Warn("error checking category validity", "name", name, "error", err)
		return false
	}
	return category != nil
}

// Create adds an active category. Existing names are left as they are.
func (s *Service) Create(ctx context.Context, name, description string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationFieldError("name", "name is required", apperrors.ErrCodeInvalidCategory)
	}

	existing, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get category", err)
	}
	if existing != nil {
		return FromDataModel(existing), nil
	}

	model := ToDataModel(NewCategory(name, description))
	if err := s.repo.Create(ctx, model); err != nil {
		s.logger.Error("failed to create category", "name", name, "error", err)
		return nil, apperrors.NewInternalError("failed to create category", err)
	}

	s.logger.Info("category created", "name", name)
	return FromDataModel(model), nil
}
