// Command main applies the Inkwell database schema.
package main

import (
	"flag"
	"log"

	"inkwell/internal/config"
	"inkwell/internal/database"
)

func main() {
	statusOnly := flag.Bool("status", false, "Print applied schema versions and exit")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *statusOnly {
		var applied []database.MigrationLog
		if err := db.Order("version").Find(&applied).Error; err != nil {
			log.Fatalf("Failed to read migration log: %v", err)
		}
		if len(applied) == 0 {
			log.Printf("No migrations applied yet (target version %d)", database.SchemaVersion)
			return
		}
		for _, m := range applied {
			log.Printf("version %d (%s) applied at %s", m.Version, m.Name, m.AppliedAt.Format("2006-01-02 15:04:05"))
		}
		log.Printf("target version: %d", database.SchemaVersion)
		return
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Schema migrated to version %d", database.SchemaVersion)
}
