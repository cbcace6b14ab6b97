package service

import (
	"context"
	"errors"
	"time"

	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/internal/app/repository"
	"github.com/ikkim/bizdirectory-backend/internal/db"
	apperrors "github.com/ikkim/bizdirectory-backend/internal/errors"
	"github.com/ikkim/bizdirectory-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	categoryListCacheKey = "categories:all"
	categoryListCacheTTL = 10 * time.Minute
	maxCategoryAttempts  = 3
)

type CategoryListing struct {
	Category   *model.Category                `json:"category"`
	Businesses *repository.BusinessListResult `json:"businesses"`
}

type CategoryService interface {
	ResolveOrCreate(ctx context.Context, name string) (uint, error)
	ResolveOrCreateTx(ctx context.Context, tx *gorm.DB, name string) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	GetBySlug(ctx context.Context, slug string, page, pageSize int) (*CategoryListing, error)
	InvalidateCache(ctx context.Context)
}

type categoryService struct {
	repo         repository.CategoryRepository
	businessRepo repository.BusinessRepository
	cache        Cache
}

func NewCategoryService(repo repository.CategoryRepository, businessRepo repository.BusinessRepository, cache Cache) CategoryService {
	return &categoryService{
		repo:         repo,
		businessRepo: businessRepo,
		cache:        cache,
	}
}

// ResolveOrCreate finds the category matching name case-insensitively or
// creates it. Concurrent callers with the same name get the same id.
func (s *categoryService) ResolveOrCreate(ctx context.Context, name string) (uint, error) {
	category, created, err := s.resolve(ctx, s.repo, nil, name)
	if err != nil {
		return 0, err
	}
	if created {
		s.InvalidateCache(ctx)
	}
	return category.ID, nil
}

// ResolveOrCreateTx is ResolveOrCreate inside tx. The caller invalidates the
// list cache after commit.
func (s *categoryService) ResolveOrCreateTx(ctx context.Context, tx *gorm.DB, name string) (*model.Category, error) {
	category, _, err := s.resolve(ctx, s.repo.WithTx(tx), tx, name)
	return category, err
}

func (s *categoryService) resolve(ctx context.Context, repo repository.CategoryRepository, tx *gorm.DB, name string) (*model.Category, bool, error) {
	display := model.NormalizeCategoryName(name)
	if display == "" {
		return nil, false, ErrCategoryRequired
	}
	key := model.CategoryKey(display)

	for attempt := 1; attempt <= maxCategoryAttempts; attempt++ {
		existing, err := repo.FindByKey(ctx, key)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to look up category", err, map[string]interface{}{
				"name_key": key,
			})
			return nil, false, err
		}

		slug, err := GenerateUniqueSlug(ctx, repo, slugifyOr(display, "category"))
		if err != nil {
			return nil, false, err
		}

		category := &model.Category{Name: display, NameKey: key, Slug: slug}
		if tx != nil {
			err = db.WithSavepoint(tx, "category_resolve", func(tx *gorm.DB) error {
				return s.repo.WithTx(tx).Create(ctx, category)
			})
		} else {
			err = repo.Create(ctx, category)
		}
		if err == nil {
			logger.Info("Category created", map[string]interface{}{
				"category_id": category.ID,
				"name":        category.Name,
				"slug":        category.Slug,
			})
			return category, true, nil
		}
		if !apperrors.IsUniqueViolation(err) {
			logger.Error("Failed to create category", err, map[string]interface{}{
				"name": display,
			})
			return nil, false, err
		}

		logger.Warn("Category insert lost a race, resolving again", map[string]interface{}{
			"name":    display,
			"attempt": attempt,
		})
	}

	return nil, false, ErrCategoryContention
}

func (s *categoryService) List(ctx context.Context) ([]model.Category, error) {
	if s.cache != nil {
		var cached []model.Category
		hit, err := s.cache.GetJSON(ctx, categoryListCacheKey, &cached)
		if err != nil {
			logger.Warn("Category cache read failed, falling back to database", map[string]interface{}{
				"error": err.Error(),
			})
		} else if hit {
			return cached, nil
		}
	}

	categories, err := s.repo.ListWithCounts(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, categoryListCacheKey, categories, categoryListCacheTTL); err != nil {
			logger.Warn("Failed to cache category list", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	return categories, nil
}

// GetBySlug returns the category with its active and pending listings.
func (s *categoryService) GetBySlug(ctx context.Context, slug string, page, pageSize int) (*CategoryListing, error) {
	category, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	businesses, err := s.businessRepo.List(ctx, repository.BusinessFilter{
		CategorySlug: category.Slug,
		Statuses:     []model.BusinessStatus{model.StatusActive, model.StatusPending},
		Page:         page,
		PageSize:     pageSize,
	})
	if err != nil {
		return nil, err
	}

	category.BusinessCount = businesses.Total
	return &CategoryListing{Category: category, Businesses: businesses}, nil
}

func (s *categoryService) InvalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, categoryListCacheKey); err != nil {
		logger.Warn("Failed to invalidate category cache", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
