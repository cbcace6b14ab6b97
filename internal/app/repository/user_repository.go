package repository

import (
	"context"

	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/pkg/logger"
	"gorm.io/gorm"
)

type UserFilter struct {
	Role     model.UserRole
	Search   string
	Page     int
	PageSize int
}

type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByLogin(ctx context.Context, identifier string) (*model.User, error)
	List(ctx context.Context, filter UserFilter) ([]model.User, int64, error)
	ListByRole(ctx context.Context, role model.UserRole) ([]model.User, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	PromoteToOwner(ctx context.Context, id uint) error
	CountOwnedBusinesses(ctx context.Context, id uint) (int64, error)
	CountClaims(ctx context.Context, id uint) (int64, error)
	Delete(ctx context.Context, id uint) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return &userRepository{db: tx}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	logger.Debug("Creating user in database", map[string]interface{}{
		"email":    user.Email,
		"username": user.Username,
	})

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"email": user.Email,
		})
		return err
	}

	logger.Debug("User created in database", map[string]interface{}{
		"user_id": user.ID,
	})
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		logger.Debug("User not loaded by ID", map[string]interface{}{
			"user_id": id,
			"error":   err.Error(),
		})
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByLogin matches either the email or the username.
func (r *userRepository) FindByLogin(ctx context.Context, identifier string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("email = ? OR username = ?", identifier, identifier).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]model.User, int64, error) {
	logger.Debug("Listing users", map[string]interface{}{
		"role":   filter.Role,
		"search": filter.Search,
		"page":   filter.Page,
	})

	query := r.db.WithContext(ctx).Model(&model.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("username LIKE ? OR email LIKE ? OR name LIKE ?", like, like, like)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count users", err)
		return nil, 0, err
	}

	var users []model.User
	if err := paginate(query, filter.Page, filter.PageSize).Order("created_at DESC").Find(&users).Error; err != nil {
		logger.Error("Failed to list users", err)
		return nil, 0, err
	}

	logger.Debug("Users listed", map[string]interface{}{
		"count": len(users),
		"total": total,
	})
	return users, total, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role model.UserRole) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Where("role = ? AND suspended = ?", role, false).Find(&users).Error; err != nil {
		logger.Error("Failed to list users by role", err, map[string]interface{}{
			"role": role,
		})
		return nil, err
	}
	return users, nil
}

func (r *userRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	logger.Debug("Updating user fields", map[string]interface{}{
		"user_id": id,
		"fields":  len(fields),
	})

	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		logger.Error("Failed to update user fields", err, map[string]interface{}{
			"user_id": id,
		})
		return err
	}
	return nil
}

// PromoteToOwner moves a plain user to the owner role. Admins and existing
// owners are left alone.
func (r *userRepository) PromoteToOwner(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND role = ?", id, model.RoleUser).
		Update("role", model.RoleOwner).Error
	if err != nil {
		logger.Error("Failed to promote user to owner", err, map[string]interface{}{
			"user_id": id,
		})
		return err
	}
	return nil
}

func (r *userRepository) CountOwnedBusinesses(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Business{}).Where("owner_id = ?", id).Count(&count).Error
	return count, err
}

// CountClaims counts claim requests filed by the user, reviewed or not.
func (r *userRepository) CountClaims(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ClaimRequest{}).Where("user_id = ?", id).Count(&count).Error
	return count, err
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	logger.Debug("Deleting user from database", map[string]interface{}{
		"user_id": id,
	})

	if err := r.db.WithContext(ctx).Delete(&model.User{}, id).Error; err != nil {
		logger.Error("Failed to delete user from database", err, map[string]interface{}{
			"user_id": id,
		})
		return err
	}

	logger.Debug("User deleted from database", map[string]interface{}{
		"user_id": id,
	})
	return nil
}
