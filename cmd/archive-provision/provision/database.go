package provision

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/chrissnell/pinchpoint/internal/database"
)

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// CreateDatabase creates the archive database with UTF8 encoding
func CreateDatabase(cfg *Config) error {
	fmt.Println("🗄️  Creating Database")

	db, err := sql.Open("pgx", cfg.BuildConnString("postgres"))
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(fmt.Sprintf("CREATE DATABASE %s ENCODING 'UTF8' TEMPLATE template0", ident(cfg.DBName))); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	fmt.Printf("✅ Database '%s' created with UTF8 encoding\n", cfg.DBName)
	fmt.Println()
	return nil
}

// CreateUser creates the database user and grants it the archive database
func CreateUser(cfg *Config) error {
	fmt.Println("👤 Creating User")

	db, err := sql.Open("pgx", cfg.BuildConnString("postgres"))
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(fmt.Sprintf("CREATE USER %s WITH PASSWORD %s", ident(cfg.DBUser), literal(cfg.DBPassword))); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	fmt.Printf("✅ User '%s' created\n", cfg.DBUser)

	if _, err := db.Exec(fmt.Sprintf("GRANT ALL PRIVILEGES ON DATABASE %s TO %s", ident(cfg.DBName), ident(cfg.DBUser))); err != nil {
		return fmt.Errorf("failed to grant database privileges: %w", err)
	}

	// Schema privileges are granted inside the target database
	targetDB, err := sql.Open("pgx", cfg.BuildConnString(cfg.DBName))
	if err != nil {
		return fmt.Errorf("failed to connect to target database: %w", err)
	}
	defer targetDB.Close()

	for _, stmt := range []string{
		"GRANT ALL ON SCHEMA public TO %s",
		"ALTER DEFAULT PRIVILEGES IN SCHEMA public GRANT ALL ON TABLES TO %s",
		"ALTER DEFAULT PRIVILEGES IN SCHEMA public GRANT ALL ON SEQUENCES TO %s",
	} {
		if _, err := targetDB.Exec(fmt.Sprintf(stmt, ident(cfg.DBUser))); err != nil {
			return fmt.Errorf("failed to grant schema privileges: %w", err)
		}
	}

	fmt.Printf("✅ Database, schema and default privileges granted\n")
	fmt.Println()
	return nil
}

// DropExistingResources drops the archive database and user if they exist
func DropExistingResources(cfg *Config) error {
	fmt.Println("🗑️  Dropping Existing Resources")

	db, err := sql.Open("pgx", cfg.BuildConnString("postgres"))
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(fmt.Sprintf("DROP DATABASE IF EXISTS %s WITH (FORCE)", ident(cfg.DBName))); err != nil {
		return fmt.Errorf("failed to drop database: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("DROP USER IF EXISTS %s", ident(cfg.DBUser))); err != nil {
		return fmt.Errorf("failed to drop user: %w", err)
	}

	fmt.Println("✅ Existing database and user dropped")
	return nil
}

// CreateSchema connects as the archive user and creates the run archive
// tables
func CreateSchema(connString string) error {
	client, err := database.Open(connString, nil)
	if err != nil {
		return err
	}
	return client.Close()
}

// TestConnection checks that the archive is reachable with connString and
// that its tables exist
func TestConnection(ctx context.Context, connString string) error {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close(ctx)

	var exists bool
	err = conn.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)",
		database.AnalysisRun{}.TableName()).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to query schema: %w", err)
	}
	if !exists {
		return fmt.Errorf("table %s does not exist", database.AnalysisRun{}.TableName())
	}
	return nil
}
