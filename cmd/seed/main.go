package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/Gateward/GW-Backend/internal/config"
	"github.com/Gateward/GW-Backend/internal/suite"
)

// CLI flags
var (
	dsn         = flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
	configPath  = flag.String("config", "config.yaml", "Path to the policy config file")
	email       = flag.String("email", "", "Email of the admin account to create (required)")
	password    = flag.String("password", "", "Password of the admin account (required)")
	accountType = flag.String("account-type", "system", "Account type of the seeded user")
)

// Seeds the first administrator account directly over SQL, so a fresh
// deployment can log in before any registration flow exists.
func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *email == "" || *password == "" {
		fatalf("--email and --password are required")
	}
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatalf("loading config: %v", err)
	}
	policy := cfg.Policy(*accountType)

	chain := suite.Chain(policy.Suite)
	canonical, err := chain.Canonical()
	if err != nil {
		fatalf("canonicalizing suite: %v", err)
	}
	rec, err := chain.Encrypt(*password, config.Settings())
	if err != nil {
		fatalf("encrypting password: %v", err)
	}
	stored, err := json.Marshal(rec)
	if err != nil {
		fatalf("serializing password record: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("opening database: %v", err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		fatalf("starting transaction: %v", err)
	}
	defer tx.Rollback()

	// Content-addressed insert: identical suites share one row.
	var suiteID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO app_auth.password_suites (suite) VALUES ($1)
		ON CONFLICT (suite) DO UPDATE SET suite = EXCLUDED.suite
		RETURNING id`, canonical).Scan(&suiteID)
	if err != nil {
		fatalf("interning suite: %v", err)
	}

	userID := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO app_auth.users (id, uid, email, account_type, roles, password_suite_id, password, login_attempts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0)
		ON CONFLICT (email) DO NOTHING`,
		userID, uuid.NewString(), *email, *accountType, "{admin,user}", suiteID, string(stored))
	if err != nil {
		fatalf("inserting user: %v", err)
	}

	if err := tx.Commit(); err != nil {
		fatalf("committing: %v", err)
	}

	fmt.Printf("Seeded admin %s (account type %s, suite #%d)\n", *email, *accountType, suiteID)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
