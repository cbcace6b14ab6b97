package db

import (
	"testing"

	"github.com/ikkim/bizdirectory-backend/config"
	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSetupTestDB_SeedsPlansOnce(t *testing.T) {
	testDB, err := SetupTestDB()
	require.NoError(t, err)
	defer CleanupTestDB(testDB)

	require.NoError(t, SeedPlans(testDB))

	var plans []model.SubscriptionPlan
	require.NoError(t, testDB.Order("duration_months").Find(&plans).Error)
	require.Len(t, plans, 2)
	assert.Equal(t, "Monthly", plans[0].Name)
	assert.Equal(t, int64(2000), plans[0].Price)
	assert.Equal(t, 12, plans[1].DurationMonths)
}

func TestSeedAdmin(t *testing.T) {
	util.BcryptCost = bcrypt.MinCost
	testDB, err := SetupTestDB()
	require.NoError(t, err)
	defer CleanupTestDB(testDB)

	require.NoError(t, SeedAdmin(testDB, config.AdminSeedConfig{}))
	var count int64
	testDB.Model(&model.User{}).Count(&count)
	assert.Zero(t, count)

	cfg := config.AdminSeedConfig{Email: "root@biz.test", Password: "supersecret"}
	require.NoError(t, SeedAdmin(testDB, cfg))
	require.NoError(t, SeedAdmin(testDB, cfg))

	var admins []model.User
	require.NoError(t, testDB.Where("role = ?", model.RoleAdmin).Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.True(t, admins[0].IsVerified)
	assert.True(t, util.VerifyPassword(admins[0].PasswordHash, "supersecret"))
}

func TestTruncateAllTables(t *testing.T) {
	testDB, err := SetupTestDB()
	require.NoError(t, err)
	defer CleanupTestDB(testDB)

	require.NoError(t, TruncateAllTables(testDB))
	var count int64
	testDB.Model(&model.SubscriptionPlan{}).Count(&count)
	assert.Equal(t, int64(2), count)
}
