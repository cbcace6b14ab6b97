package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/internal/app/repository"
	"github.com/ikkim/bizdirectory-backend/internal/app/service"
	"github.com/ikkim/bizdirectory-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadListingsFromXLSX_SkipsIncompleteAndDuplicateRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.xlsx")
	require.NoError(t, WriteListingsToXLSX(path, []Listing{
		{Name: "Mama Put", Category: "restaurants", ShopNo: "12"},
		{Name: "mama put", Category: "Restaurants", ShopNo: "12"},
		{Name: "No Category"},
		{Name: "Gadget Hub", Category: "Electronics", ShopNo: "4", Phone: "+2348012345678"},
	}))

	listings, err := ReadListingsFromXLSX(path)
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, "Mama Put", listings[0].Name)
	assert.Equal(t, "+2348012345678", listings[1].Phone)
}

func TestReadListingsFromXLSX_MissingFile(t *testing.T) {
	_, err := ReadListingsFromXLSX(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestFakeListings_Deterministic(t *testing.T) {
	a := FakeListings(5, 42)
	b := FakeListings(5, 42)
	require.Len(t, a, 5)
	assert.Equal(t, a, b)
	for _, l := range a {
		assert.NotEmpty(t, l.Name)
		assert.Contains(t, fakeCategories, l.Category)
	}
}

func TestImporter_Import(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	businessRepo := repository.NewBusinessRepository(testDB)
	categories := service.NewCategoryService(repository.NewCategoryRepository(testDB), businessRepo, nil)
	importer := NewImporter(testDB, businessRepo, categories)

	result, err := importer.Import(context.Background(), []Listing{
		{Name: "Mama Put", Category: "restaurants"},
		{Name: "Mama Put", Category: "RESTAURANTS "},
		{Name: "Broken", Category: "   "},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.Skipped)

	var businesses []model.Business
	require.NoError(t, testDB.Order("id").Find(&businesses).Error)
	require.Len(t, businesses, 2)
	assert.Equal(t, "mama-put", businesses[0].Slug)
	assert.Equal(t, "mama-put-1", businesses[1].Slug)
	assert.Equal(t, model.StatusActive, businesses[0].Status)
	assert.Nil(t, businesses[0].OwnerID)

	var categoryCount int64
	require.NoError(t, testDB.Model(&model.Category{}).Count(&categoryCount).Error)
	assert.Equal(t, int64(1), categoryCount)
}
