package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/vulnscan-ai/vulnscan/internal/adapters/vulncache"
)

func main() {
	seedFile := flag.String("seed-file", "./configs/nvd_seed.json", "Path to an NVD API 2.0 response dump")
	dbPath := flag.String("db-path", "./data/feedcache.db", "Path to the vulnerability cache database")
	flag.Parse()

	// Positional arguments name additional dumps (NVD publishes one per year)
	files := flag.Args()
	if len(files) == 0 {
		files = []string{*seedFile}
	}

	log.Println("=== Vulnerability Seed Loader ===")
	log.Printf("Seed files: %s", strings.Join(files, ", "))
	log.Printf("Database: %s", *dbPath)

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	cache, err := vulncache.NewSQLiteCache(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open cache: %v", err)
	}
	defer cache.Close()

	// Load seed data
	loader := vulncache.NewSeedLoader(cache)
	ctx := context.Background()

	if err := loader.LoadFromMultipleFiles(ctx, files); err != nil {
		log.Fatalf("Failed to load seed data: %v", err)
	}

	// Show stats
	count, _ := cache.GetTotalCount(ctx)
	log.Printf("✓ Cache now contains %d vulnerability records", count)
}
