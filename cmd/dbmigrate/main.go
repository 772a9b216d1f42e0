package main

import (
	"flag"
	"fmt"
	"log"

	"gorm.io/gorm"

	"tg-unibans/internal/config"
	"tg-unibans/internal/storage"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	action := flag.String("action", "migrate", "Action to perform (migrate, reset, status)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := storage.Open(cfg.Database, cfg.Logger.Level)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	switch *action {
	case "migrate":
		if err := migrateDatabase(db); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migration completed successfully")
	case "reset":
		if err := resetDatabase(db); err != nil {
			log.Fatalf("Reset failed: %v", err)
		}
		log.Println("Database reset completed successfully")
	case "status":
		checkStatus(db)
	default:
		log.Fatalf("Unknown action: %s", *action)
	}
}

func migrateDatabase(db *gorm.DB) error {
	fmt.Println("Migrating database...")
	return storage.Migrate(db)
}

// resetDatabase drops the ledger tables and recreates them
func resetDatabase(db *gorm.DB) error {
	fmt.Println("Resetting database...")

	fmt.Print("WARNING: This will delete the enforcement ledger and known chats! Are you sure? (y/N): ")
	var confirmation string
	fmt.Scanln(&confirmation)

	if confirmation != "y" && confirmation != "Y" {
		return fmt.Errorf("operation cancelled by user")
	}

	if err := db.Migrator().DropTable(storage.Models()...); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	return migrateDatabase(db)
}

func checkStatus(db *gorm.DB) {
	fmt.Println("Checking database status...")

	for _, model := range storage.Models() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			fmt.Printf("❌ cannot parse model %T: %v\n", model, err)
			continue
		}
		table := stmt.Schema.Table

		if !db.Migrator().HasTable(model) {
			fmt.Printf("❌ %s table does not exist\n", table)
			continue
		}
		var count int64
		db.Model(model).Count(&count)
		fmt.Printf("✅ %s table exists\n   - Contains %d records\n", table, count)
	}
}
