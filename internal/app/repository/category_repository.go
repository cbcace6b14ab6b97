package repository

import (
	"context"
	"time"

	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/pkg/logger"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	WithTx(tx *gorm.DB) CategoryRepository
	Create(ctx context.Context, category *model.Category) error
	FindByID(ctx context.Context, id uint) (*model.Category, error)
	FindByKey(ctx context.Context, key string) (*model.Category, error)
	FindBySlug(ctx context.Context, slug string) (*model.Category, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListWithCounts(ctx context.Context) ([]model.Category, error)
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) WithTx(tx *gorm.DB) CategoryRepository {
	return &categoryRepository{db: tx}
}

func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	logger.Debug("Creating category in database", map[string]interface{}{
		"name": category.Name,
		"slug": category.Slug,
	})

	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		// duplicates are expected under contention; the caller decides
		logger.Debug("Category insert rejected", map[string]interface{}{
			"name":  category.Name,
			"error": err.Error(),
		})
		return err
	}

	logger.Debug("Category created in database", map[string]interface{}{
		"category_id": category.ID,
	})
	return nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id uint) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindByKey(ctx context.Context, key string) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("name_key = ?", key).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindBySlug(ctx context.Context, slug string) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Category{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

type categoryCountRow struct {
	ID            uint
	Name          string
	Slug          string
	CreatedAt     time.Time
	BusinessCount int64
}

// ListWithCounts returns every category with the number of non-deleted
// listings linked to it, ordered by name.
func (r *categoryRepository) ListWithCounts(ctx context.Context) ([]model.Category, error) {
	logger.Debug("Listing categories with business counts")

	var rows []categoryCountRow
	err := r.db.WithContext(ctx).
		Table("categories").
		Select("categories.id, categories.name, categories.slug, categories.created_at, COUNT(businesses.id) AS business_count").
		Joins("LEFT JOIN business_categories ON business_categories.category_id = categories.id").
		Joins("LEFT JOIN businesses ON businesses.id = business_categories.business_id AND businesses.status <> ?", model.StatusDeleted).
		Group("categories.id, categories.name, categories.slug, categories.created_at").
		Order("categories.name ASC").
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to list categories", err)
		return nil, err
	}

	categories := make([]model.Category, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, model.Category{
			ID:            row.ID,
			Name:          row.Name,
			Slug:          row.Slug,
			CreatedAt:     row.CreatedAt,
			BusinessCount: row.BusinessCount,
		})
	}

	logger.Debug("Categories listed", map[string]interface{}{
		"count": len(categories),
	})
	return categories, nil
}
