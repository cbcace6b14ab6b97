package db

import (
	"errors"

	"github.com/ikkim/bizdirectory-backend/config"
	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/pkg/logger"
	"github.com/ikkim/bizdirectory-backend/pkg/util"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Models lists every migrated model in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.UserToken{},
		&model.Category{},
		&model.Business{},
		&model.BusinessCategory{},
		&model.ClaimRequest{},
		&model.BusinessRegistrationRequest{},
		&model.UserRegistrationRequest{},
		&model.SubscriptionPlan{},
		&model.Subscription{},
		&model.AdminActivity{},
	}
}

func setupJoinTables(db *gorm.DB) error {
	return db.SetupJoinTable(&model.Business{}, "Categories", &model.BusinessCategory{})
}

// DefaultPlans are the plans every installation starts with.
var DefaultPlans = []model.SubscriptionPlan{
	{Name: "Monthly", Price: 2000, DurationMonths: 1},
	{Name: "Yearly", Price: 20000, DurationMonths: 12},
}

// Migrate runs database migrations
func Migrate() error {
	return MigrateDB(DB)
}

// MigrateDB migrates db and seeds reference data.
func MigrateDB(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := SeedPlans(db); err != nil {
		logger.Error("Failed to seed subscription plans", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// SeedPlans inserts DefaultPlans, skipping ones already present.
func SeedPlans(db *gorm.DB) error {
	for _, plan := range DefaultPlans {
		p := plan
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&p).Error; err != nil {
			return err
		}
	}
	return nil
}

// SeedAdmin creates the bootstrap administrator when configured and absent.
func SeedAdmin(db *gorm.DB, cfg config.AdminSeedConfig) error {
	if cfg.Email == "" || cfg.Password == "" {
		logger.Debug("Admin seed skipped, ADMIN_EMAIL or ADMIN_PASSWORD not set")
		return nil
	}

	var existing model.User
	err := db.Where("email = ?", cfg.Email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := util.HashPassword(cfg.Password)
	if err != nil {
		return err
	}

	admin := &model.User{
		Username:     "admin",
		Email:        cfg.Email,
		PasswordHash: hash,
		Name:         "Administrator",
		Role:         model.RoleAdmin,
		IsVerified:   true,
	}
	if err := db.Create(admin).Error; err != nil {
		return err
	}

	logger.Info("Bootstrap administrator created", map[string]interface{}{
		"user_id": admin.ID,
		"email":   admin.Email,
	})
	return nil
}
