package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/internal/app/repository"
	"github.com/ikkim/bizdirectory-backend/internal/app/service"
	"github.com/ikkim/bizdirectory-backend/internal/db"
	"github.com/ikkim/bizdirectory-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const rowTimeout = 10 * time.Second

// Listing is one directory row before it becomes a business.
type Listing struct {
	Name        string
	Category    string
	ShopNo      string
	BlockNum    string
	Phone       string
	Email       string
	Description string
}

// Sheet columns, in order. Only the first two are required.
var listingColumns = []string{"name", "category", "shop_no", "block_num", "phone", "email", "description"}

// ReadListingsFromXLSX reads the first sheet. The first row is a header;
// rows without a name or category and repeated name+shop pairs are dropped.
func ReadListingsFromXLSX(filePath string) ([]Listing, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	var listings []Listing
	seen := make(map[string]bool)
	skipped := 0

	for _, row := range rows[1:] {
		cell := func(i int) string {
			if i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}

		listing := Listing{
			Name:        cell(0),
			Category:    cell(1),
			ShopNo:      cell(2),
			BlockNum:    cell(3),
			Phone:       cell(4),
			Email:       cell(5),
			Description: cell(6),
		}
		if listing.Name == "" || listing.Category == "" {
			skipped++
			continue
		}

		key := strings.ToLower(listing.Name) + "|" + strings.ToLower(listing.ShopNo)
		if seen[key] {
			skipped++
			continue
		}
		seen[key] = true
		listings = append(listings, listing)
	}

	logger.Info("Parsed listing sheet", map[string]interface{}{
		"sheet":   sheetName,
		"rows":    len(rows) - 1,
		"kept":    len(listings),
		"skipped": skipped,
	})
	return listings, nil
}

// WriteListingsToXLSX writes listings in the layout ReadListingsFromXLSX expects.
func WriteListingsToXLSX(filePath string, listings []Listing) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := make([]interface{}, len(listingColumns))
	for i, col := range listingColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, l := range listings {
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{l.Name, l.Category, l.ShopNo, l.BlockNum, l.Phone, l.Email, l.Description}
		if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
			return err
		}
	}
	return f.SaveAs(filePath)
}

var fakeCategories = []string{"Restaurants", "Fashion", "Electronics", "Beauty", "Groceries", "Pharmacy"}

// FakeListings builds n demo listings from a fixed seed.
func FakeListings(n int, seed int64) []Listing {
	faker := gofakeit.New(seed)
	listings := make([]Listing, 0, n)
	for i := 0; i < n; i++ {
		listings = append(listings, Listing{
			Name:        faker.Company(),
			Category:    fakeCategories[faker.Number(0, len(fakeCategories)-1)],
			ShopNo:      fmt.Sprintf("%d", faker.Number(1, 400)),
			BlockNum:    fmt.Sprintf("%s%d", faker.RandomString([]string{"A", "B", "C", "D"}), faker.Number(1, 20)),
			Phone:       faker.Phone(),
			Email:       faker.Email(),
			Description: faker.Sentence(12),
		})
	}
	return listings
}

type ImportResult struct {
	Imported int
	Skipped  int
}

// Importer creates active, unclaimed businesses and links their category.
type Importer struct {
	db           *gorm.DB
	businessRepo repository.BusinessRepository
	categories   service.CategoryService
}

func NewImporter(database *gorm.DB, businessRepo repository.BusinessRepository, categories service.CategoryService) *Importer {
	return &Importer{db: database, businessRepo: businessRepo, categories: categories}
}

// Import runs one transaction per listing so a bad row does not undo the rest.
func (im *Importer) Import(ctx context.Context, listings []Listing) (*ImportResult, error) {
	result := &ImportResult{}
	for _, l := range listings {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		err := db.WithTransaction(ctx, im.db, rowTimeout, func(tx *gorm.DB) error {
			category, err := im.categories.ResolveOrCreateTx(ctx, tx, l.Category)
			if err != nil {
				return err
			}
			business := &model.Business{
				Name:        l.Name,
				ShopNo:      l.ShopNo,
				BlockNum:    l.BlockNum,
				PhoneNumber: l.Phone,
				Email:       l.Email,
				Description: l.Description,
				Category:    category.Name,
				Status:      model.StatusActive,
			}
			if err := service.CreateBusinessWithUniqueSlug(ctx, tx, im.businessRepo, business); err != nil {
				return err
			}
			return im.businessRepo.WithTx(tx).LinkCategory(ctx, business.ID, category.ID)
		})
		if err != nil {
			logger.Warn("Skipping listing", map[string]interface{}{
				"name":  l.Name,
				"error": err.Error(),
			})
			result.Skipped++
			continue
		}
		result.Imported++
	}
	return result, nil
}
