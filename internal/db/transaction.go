package db

import (
	"context"
	"time"

	"github.com/ikkim/bizdirectory-backend/pkg/logger"
	"gorm.io/gorm"
)

// WithTransaction runs fn inside one transaction bounded by timeout (zero
// means no extra bound). The transaction is rolled back when fn returns an
// error or panics and committed otherwise, so the connection is always released.
func WithTransaction(ctx context.Context, db *gorm.DB, timeout time.Duration, fn func(tx *gorm.DB) error) (err error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		logger.Error("Failed to begin transaction", tx.Error)
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Transaction rolled back due to panic", nil, map[string]interface{}{
				"panic": r,
			})
			panic(r)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			logger.Error("Failed to roll back transaction", rbErr, map[string]interface{}{
				"cause": err.Error(),
			})
		}
		return err
	}

	if err = tx.Commit().Error; err != nil {
		logger.Error("Failed to commit transaction", err)
		return err
	}
	return nil
}

// WithSavepoint runs fn under a savepoint of tx. On error only the work since
// the savepoint is undone, leaving tx usable for a retry.
func WithSavepoint(tx *gorm.DB, name string, fn func(tx *gorm.DB) error) error {
	if err := tx.SavePoint(name).Error; err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.RollbackTo(name).Error; rbErr != nil {
			logger.Error("Failed to roll back to savepoint", rbErr, map[string]interface{}{
				"savepoint": name,
			})
			return rbErr
		}
		return err
	}
	return nil
}
