package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Gateward/GW-Backend/internal/config"
	"github.com/Gateward/GW-Backend/internal/confirm"
	"github.com/Gateward/GW-Backend/internal/session"
)

// One-shot maintenance run: removes stale confirmations and hard-expired
// sessions. The server does the same on its cron schedule; this exists for
// manual cleanup and migrations.
func main() {
	godotenv.Load(".env.local")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	db, err := gorm.Open(postgres.Open(dbURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("DB connection error: %v", err)
	}

	clock := clockwork.NewRealClock()

	confirms := confirm.NewService(db, clock, nil, cfg.Confirm.Retention.Std())
	n, err := confirms.Purge()
	if err != nil {
		log.Fatalf("Error purging confirmations: %v", err)
	}
	fmt.Printf("✓ Purged %d stale confirmation(s)\n", n)

	sessions := session.New(db, session.FromConfig(cfg.Session), clock)
	n, err = sessions.PurgeHardExpired()
	if err != nil {
		log.Fatalf("Error purging sessions: %v", err)
	}
	fmt.Printf("✓ Purged %d hard-expired session(s)\n", n)
}
