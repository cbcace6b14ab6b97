package repository

import (
	"fmt"
	"testing"

	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func createUser(t *testing.T, testDB *gorm.DB, username string, role model.UserRole) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashed",
		Role:         role,
		IsVerified:   true,
	}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func createBusiness(t *testing.T, testDB *gorm.DB, name string, mutate func(b *model.Business)) *model.Business {
	t.Helper()
	business := &model.Business{
		Name:   name,
		Slug:   fmt.Sprintf("%s-%d", "biz", nextSeq()),
		Status: model.StatusActive,
	}
	if mutate != nil {
		mutate(business)
	}
	require.NoError(t, testDB.Create(business).Error)
	return business
}

var seq int

func nextSeq() int {
	seq++
	return seq
}
