package provision

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PreflightChecks verifies the admin connection and that neither the
// database nor the user exist yet
func PreflightChecks(cfg *Config) error {
	fmt.Println("🔍 Pre-flight Checks")

	db, err := sql.Open("pgx", cfg.BuildConnString("postgres"))
	if err != nil {
		return fmt.Errorf("❌ PostgreSQL connection failed: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("❌ PostgreSQL connection failed: %w", err)
	}
	fmt.Println("✅ PostgreSQL connection successful")

	var dbExists, userExists bool
	if err := db.QueryRow("SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", cfg.DBName).Scan(&dbExists); err != nil {
		return fmt.Errorf("❌ Failed to check existing database: %w", err)
	}
	if err := db.QueryRow("SELECT EXISTS (SELECT 1 FROM pg_roles WHERE rolname = $1)", cfg.DBUser).Scan(&userExists); err != nil {
		return fmt.Errorf("❌ Failed to check existing user: %w", err)
	}
	if dbExists || userExists {
		return fmt.Errorf("❌ Database or user already exists (use -reprovision to replace them)")
	}
	fmt.Println("✅ No existing database/user conflicts")

	fmt.Println()
	return nil
}
