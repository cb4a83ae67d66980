package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/chrissnell/pinchpoint/internal/log"
	"github.com/chrissnell/pinchpoint/pkg/config"
	"github.com/chrissnell/pinchpoint/pkg/migrate"
	_ "modernc.org/sqlite" // SQLite driver
)

func main() {
	var (
		dbDSN          = flag.String("dsn", "", "SQLite configuration database")
		migrationDir   = flag.String("dir", "", "Migration directory (default: built-in configuration schema)")
		migrationTable = flag.String("table", "schema_migrations", "Migration table name, used with -dir")
		command        = flag.String("command", "up", "Migration command: up, down, to, version, status")
		targetVersion  = flag.String("target", "", "Target version for down/to commands")
		debug          = flag.Bool("debug", false, "Turn on debugging output")
		helpFlag       = flag.Bool("help", false, "Show help")
	)

	flag.Parse()

	if *helpFlag {
		showHelp()
		return
	}

	if *dbDSN == "" {
		fmt.Fprintf(os.Stderr, "Error: -dsn flag is required\n")
		showHelp()
		os.Exit(1)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Open database connection
	db, err := sql.Open("sqlite", *dbDSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Test the connection
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	provider := config.SchemaMigrations()
	if *migrationDir != "" {
		provider = migrate.NewFSProvider(os.DirFS(*migrationDir), ".", *migrationTable)
	}
	migrator := migrate.NewMigrator(db, provider, log.GetSugaredLogger())

	if err := execute(migrator, *command, *targetVersion); err != nil {
		log.Fatalf("Migration command failed: %v", err)
	}
}

func execute(migrator *migrate.Migrator, command, targetVersion string) error {
	switch command {
	case "up":
		if err := migrator.MigrateUp(); err != nil {
			return err
		}
	case "down", "to":
		if targetVersion == "" {
			return fmt.Errorf("-target flag is required for %s command", command)
		}
		target, err := strconv.Atoi(targetVersion)
		if err != nil {
			return fmt.Errorf("invalid target version: %w", err)
		}
		if command == "down" {
			err = migrator.MigrateDown(target)
		} else {
			err = migrator.MigrateTo(target)
		}
		if err != nil {
			return err
		}
	case "version":
		version, err := migrator.GetCurrentVersion()
		if err != nil {
			return fmt.Errorf("failed to get current version: %w", err)
		}
		fmt.Printf("Current version: %d\n", version)
		return nil
	case "status":
		return showStatus(migrator)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}

	fmt.Println("Migration completed successfully")
	return nil
}

func showStatus(migrator *migrate.Migrator) error {
	currentVersion, err := migrator.GetCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	pending, err := migrator.GetPendingMigrations()
	if err != nil {
		return fmt.Errorf("failed to get pending migrations: %w", err)
	}

	fmt.Printf("Current version: %d\n", currentVersion)
	fmt.Printf("Pending migrations: %d\n", len(pending))

	if len(pending) > 0 {
		fmt.Println("\nPending migrations:")
		for _, migration := range pending {
			fmt.Printf("  %d: %s\n", migration.Version, migration.Name)
		}
	}

	return nil
}

func showHelp() {
	fmt.Println("Configuration Database Migration Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  migrate [flags]")
	fmt.Println()
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  up                 Apply all pending migrations")
	fmt.Println("  down               Roll back to target version")
	fmt.Println("  to                 Migrate to specific version (up or down)")
	fmt.Println("  version            Show current migration version")
	fmt.Println("  status             Show migration status")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  migrate -dsn pinch.db -command up")
	fmt.Println("  migrate -dsn pinch.db -command down -target 0")
	fmt.Println("  migrate -dsn pinch.db -command status")
}
