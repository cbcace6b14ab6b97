package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ikkim/bizdirectory-backend/config"
	"github.com/ikkim/bizdirectory-backend/internal/app/repository"
	"github.com/ikkim/bizdirectory-backend/internal/app/service"
	"github.com/ikkim/bizdirectory-backend/internal/db"
	"github.com/ikkim/bizdirectory-backend/pkg/logger"
)

func main() {
	filePath := flag.String("file", "", "XLSX listing sheet to import")
	fake := flag.Int("fake", 0, "generate N demo listings instead of reading a file")
	yes := flag.Bool("yes", false, "skip the confirmation prompt")
	flag.Parse()

	if *filePath == "" && *fake <= 0 {
		fmt.Fprintln(os.Stderr, "Usage: go run cmd/seed/main.go -file listings.xlsx | -fake 50")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.Initialize(logger.Config{Level: cfg.Server.LogLevel, Format: cfg.Server.LogFormat, EnableColor: true})

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.MigrateDB(db.GetDB()); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	var listings []Listing
	if *filePath != "" {
		fmt.Printf("Reading XLSX file: %s\n", *filePath)
		listings, err = ReadListingsFromXLSX(*filePath)
		if err != nil {
			log.Fatal("Failed to read XLSX:", err)
		}
	} else {
		listings = FakeListings(*fake, time.Now().UnixNano())
	}

	fmt.Printf("Total listings to import: %d\n", len(listings))

	if !*yes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	database := db.GetDB()
	businessRepo := repository.NewBusinessRepository(database)
	categories := service.NewCategoryService(repository.NewCategoryRepository(database), businessRepo, nil)
	importer := NewImporter(database, businessRepo, categories)

	result, err := importer.Import(context.Background(), listings)
	if err != nil {
		log.Fatal("Import failed:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Imported: %d, skipped: %d\n", result.Imported, result.Skipped)
}
