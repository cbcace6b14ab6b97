package repository

import (
	"context"
	"fmt"

	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BusinessFilter struct {
	Search       string
	CategorySlug string
	Statuses     []model.BusinessStatus // empty means every status but deleted
	Page         int
	PageSize     int
}

type BusinessListResult struct {
	Businesses []model.Business `json:"businesses"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
}

type BusinessStats struct {
	Total      int64 `json:"total"`
	Active     int64 `json:"active"`
	Pending    int64 `json:"pending"`
	Suspended  int64 `json:"suspended"`
	Subscribed int64 `json:"subscribed"`
	Unverified int64 `json:"unverified"`
}

type BusinessRepository interface {
	WithTx(tx *gorm.DB) BusinessRepository
	Create(ctx context.Context, business *model.Business) error
	FindByID(ctx context.Context, id uint) (*model.Business, error)
	FindBySlug(ctx context.Context, slug string) (*model.Business, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, filter BusinessFilter) (*BusinessListResult, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]model.Business, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	LinkCategory(ctx context.Context, businessID, categoryID uint) error
	DeleteCascade(ctx context.Context, id uint) error
	Stats(ctx context.Context) (*BusinessStats, error)
}

type businessRepository struct {
	db *gorm.DB
}

func NewBusinessRepository(db *gorm.DB) BusinessRepository {
	return &businessRepository{db: db}
}

func (r *businessRepository) WithTx(tx *gorm.DB) BusinessRepository {
	return &businessRepository{db: tx}
}

func (r *businessRepository) Create(ctx context.Context, business *model.Business) error {
	logger.Debug("Creating business in database", map[string]interface{}{
		"name": business.Name,
		"slug": business.Slug,
	})

	if err := r.db.WithContext(ctx).Omit("Categories", "Owner").Create(business).Error; err != nil {
		logger.Debug("Business insert rejected", map[string]interface{}{
			"slug":  business.Slug,
			"error": err.Error(),
		})
		return err
	}

	logger.Debug("Business created in database", map[string]interface{}{
		"business_id": business.ID,
		"slug":        business.Slug,
	})
	return nil
}

func (r *businessRepository) FindByID(ctx context.Context, id uint) (*model.Business, error) {
	var business model.Business
	if err := r.db.WithContext(ctx).Preload("Categories").First(&business, id).Error; err != nil {
		logger.Debug("Business not loaded by ID", map[string]interface{}{
			"business_id": id,
			"error":       err.Error(),
		})
		return nil, err
	}
	return &business, nil
}

func (r *businessRepository) FindBySlug(ctx context.Context, slug string) (*model.Business, error) {
	var business model.Business
	if err := r.db.WithContext(ctx).Preload("Categories").Where("slug = ?", slug).First(&business).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

func (r *businessRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Business{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

var listOrder = fmt.Sprintf(
	"businesses.is_subscribed DESC, CASE WHEN businesses.status = '%s' THEN 0 ELSE 1 END, businesses.created_at DESC",
	model.StatusActive,
)

// List orders subscribed listings first, then active ones, newest first.
func (r *businessRepository) List(ctx context.Context, filter BusinessFilter) (*BusinessListResult, error) {
	logger.Debug("Listing businesses", map[string]interface{}{
		"search":   filter.Search,
		"category": filter.CategorySlug,
		"statuses": filter.Statuses,
		"page":     filter.Page,
	})

	query := r.db.WithContext(ctx).Model(&model.Business{})
	if len(filter.Statuses) > 0 {
		query = query.Where("businesses.status IN ?", filter.Statuses)
	} else {
		query = query.Where("businesses.status <> ?", model.StatusDeleted)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("businesses.name LIKE ? OR businesses.description LIKE ? OR businesses.category LIKE ?", like, like, like)
	}
	if filter.CategorySlug != "" {
		query = query.
			Joins("JOIN business_categories ON business_categories.business_id = businesses.id").
			Joins("JOIN categories ON categories.id = business_categories.category_id").
			Where("categories.slug = ?", filter.CategorySlug)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count businesses", err)
		return nil, err
	}

	page, pageSize := NormalizePage(filter.Page, filter.PageSize)
	var businesses []model.Business
	err := paginate(query, page, pageSize).
		Preload("Categories").
		Order(listOrder).
		Find(&businesses).Error
	if err != nil {
		logger.Error("Failed to list businesses", err)
		return nil, err
	}

	logger.Debug("Businesses listed", map[string]interface{}{
		"count": len(businesses),
		"total": total,
	})
	return &BusinessListResult{
		Businesses: businesses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

func (r *businessRepository) ListByOwner(ctx context.Context, ownerID uint) ([]model.Business, error) {
	var businesses []model.Business
	err := r.db.WithContext(ctx).
		Preload("Categories").
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&businesses).Error
	if err != nil {
		logger.Error("Failed to list businesses by owner", err, map[string]interface{}{
			"owner_id": ownerID,
		})
		return nil, err
	}
	return businesses, nil
}

func (r *businessRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	logger.Debug("Updating business fields", map[string]interface{}{
		"business_id": id,
		"fields":      len(fields),
	})

	result := r.db.WithContext(ctx).Model(&model.Business{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		logger.Error("Failed to update business fields", result.Error, map[string]interface{}{
			"business_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// LinkCategory inserts the pair, ignoring an existing link.
func (r *businessRepository) LinkCategory(ctx context.Context, businessID, categoryID uint) error {
	link := &model.BusinessCategory{BusinessID: businessID, CategoryID: categoryID}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(link).Error
	if err != nil {
		logger.Error("Failed to link business category", err, map[string]interface{}{
			"business_id": businessID,
			"category_id": categoryID,
		})
		return err
	}
	return nil
}

// DeleteCascade removes category links, claims and the subscription before
// the business row. Run it inside a transaction.
func (r *businessRepository) DeleteCascade(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	steps := []struct {
		table string
		run   func() error
	}{
		{"business_categories", func() error {
			return db.Where("business_id = ?", id).Delete(&model.BusinessCategory{}).Error
		}},
		{"claim_requests", func() error {
			return db.Where("business_id = ?", id).Delete(&model.ClaimRequest{}).Error
		}},
		{"subscriptions", func() error {
			return db.Where("business_id = ?", id).Delete(&model.Subscription{}).Error
		}},
		{"businesses", func() error {
			result := db.Delete(&model.Business{}, id)
			if result.Error == nil && result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
			return result.Error
		}},
	}

	for _, step := range steps {
		if err := step.run(); err != nil {
			logger.Error("Failed cascading business delete", err, map[string]interface{}{
				"business_id": id,
				"table":       step.table,
			})
			return err
		}
	}

	logger.Debug("Business deleted with dependents", map[string]interface{}{
		"business_id": id,
	})
	return nil
}

func (r *businessRepository) Stats(ctx context.Context) (*BusinessStats, error) {
	var stats BusinessStats
	err := r.db.WithContext(ctx).Model(&model.Business{}).
		Select(
			"COUNT(*) AS total, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS active, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS suspended, "+
				"COALESCE(SUM(CASE WHEN is_subscribed THEN 1 ELSE 0 END), 0) AS subscribed, "+
				"COALESCE(SUM(CASE WHEN is_verified THEN 0 ELSE 1 END), 0) AS unverified",
			model.StatusActive, model.StatusPending, model.StatusSuspended,
		).
		Where("status <> ?", model.StatusDeleted).
		Scan(&stats).Error
	if err != nil {
		logger.Error("Failed to compute business stats", err)
		return nil, err
	}
	return &stats, nil
}
