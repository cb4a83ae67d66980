// Command archive-provision creates the PostgreSQL database and user of a
// pinch run archive and stores the connection in a SQLite configuration.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/chrissnell/pinchpoint/cmd/archive-provision/provision"
)

const (
	DefaultDBName    = "pinch"
	DefaultDBUser    = "pinch"
	DefaultHost      = "localhost"
	DefaultPort      = 5432
	DefaultSSLMode   = "prefer"
	DefaultConfigDB  = "pinch.db"
	DefaultAdminUser = "postgres"
)

func main() {
	initCmd := flag.NewFlagSet("init", flag.ExitOnError)
	statusCmd := flag.NewFlagSet("status", flag.ExitOnError)
	testCmd := flag.NewFlagSet("test", flag.ExitOnError)

	// Init command flags
	dbName := initCmd.String("db-name", DefaultDBName, "Database name to create")
	dbUser := initCmd.String("db-user", DefaultDBUser, "Database user to create")
	postgresHost := initCmd.String("postgres-host", DefaultHost, "PostgreSQL host")
	postgresPort := initCmd.Int("postgres-port", DefaultPort, "PostgreSQL port")
	postgresAdmin := initCmd.String("postgres-admin", DefaultAdminUser, "PostgreSQL admin user")
	postgresAdminPassword := initCmd.String("postgres-admin-password", "", "PostgreSQL admin password (or use POSTGRES_ADMIN_PASSWORD env var)")
	sslMode := initCmd.String("ssl-mode", DefaultSSLMode, "SSL mode (disable, require, prefer)")
	configDB := initCmd.String("config-db", DefaultConfigDB, "Path to the pinch SQLite configuration")
	reprovision := initCmd.Bool("reprovision", false, "Drop existing database and user before provisioning (DESTRUCTIVE)")

	statusConfigDB := statusCmd.String("config-db", DefaultConfigDB, "Path to the pinch SQLite configuration")
	testConfigDB := testCmd.String("config-db", DefaultConfigDB, "Path to the pinch SQLite configuration")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		initCmd.Parse(os.Args[2:])
		cfg := &provision.Config{
			PostgresHost:     *postgresHost,
			PostgresPort:     *postgresPort,
			PostgresAdmin:    *postgresAdmin,
			PostgresPassword: adminPassword(*postgresAdminPassword),
			DBName:           *dbName,
			DBUser:           *dbUser,
			SSLMode:          *sslMode,
			ConfigDBPath:     *configDB,
		}
		if err := runInit(cfg, *reprovision); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

	case "status":
		statusCmd.Parse(os.Args[2:])
		runStatus(*statusConfigDB)

	case "test":
		testCmd.Parse(os.Args[2:])
		runTest(*testConfigDB)

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("pinch Run Archive Provisioner")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  archive-provision init [flags]")
	fmt.Println("  archive-provision status [flags]")
	fmt.Println("  archive-provision test [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init     Provision the archive database and user")
	fmt.Println("  status   Show the archive connection stored in the configuration")
	fmt.Println("  test     Test the archive connection")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  export POSTGRES_ADMIN_PASSWORD='yourpassword'")
	fmt.Println("  archive-provision init -config-db pinch.db")
	fmt.Println()
	fmt.Println("  # Re-provision (drop and recreate)")
	fmt.Println("  archive-provision init -reprovision")
}

// adminPassword returns the admin password from the flag, the environment
// or an interactive prompt, in that order
func adminPassword(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("POSTGRES_ADMIN_PASSWORD"); env != "" {
		return env
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return ""
	}
	fmt.Print("PostgreSQL admin password (empty for none): ")
	password, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return ""
	}
	return string(password)
}

func runInit(cfg *provision.Config, reprovision bool) error {
	fmt.Println("🚀 pinch Run Archive Provisioner")
	fmt.Println("================================")
	fmt.Println()

	fmt.Println("Configuration:")
	fmt.Printf("  PostgreSQL Host: %s:%d\n", cfg.PostgresHost, cfg.PostgresPort)
	fmt.Printf("  Database Name: %s\n", cfg.DBName)
	fmt.Printf("  Database User: %s\n", cfg.DBUser)
	fmt.Printf("  SSL Mode: %s\n", cfg.SSLMode)
	fmt.Printf("  Config DB: %s\n", cfg.ConfigDBPath)
	fmt.Println()

	dbPassword, err := provision.GeneratePassword(provision.PasswordLength)
	if err != nil {
		return fmt.Errorf("❌ Failed to generate password: %w", err)
	}
	cfg.DBPassword = dbPassword

	if reprovision {
		fmt.Println("⚠️  DESTRUCTIVE OPERATION WARNING")
		fmt.Printf("This will DROP database %s and user %s if they exist.\n", cfg.DBName, cfg.DBUser)
		fmt.Println("⚠️  ALL ARCHIVED RUNS WILL BE PERMANENTLY DELETED")
		fmt.Println()

		reader := bufio.NewReader(os.Stdin)
		fmt.Print("Type 'yes' to confirm you understand and want to proceed: ")
		confirmation, _ := reader.ReadString('\n')
		if strings.TrimSpace(confirmation) != "yes" {
			fmt.Println("❌ Operation cancelled")
			return nil
		}
		fmt.Println()

		if err := provision.DropExistingResources(cfg); err != nil {
			return fmt.Errorf("❌ Failed to drop existing resources: %w", err)
		}
		fmt.Println()
	}

	if err := provision.PreflightChecks(cfg); err != nil {
		return err
	}
	if err := provision.CreateDatabase(cfg); err != nil {
		return fmt.Errorf("❌ Failed to create database: %w", err)
	}
	if err := provision.CreateUser(cfg); err != nil {
		return fmt.Errorf("❌ Failed to create user: %w", err)
	}

	fmt.Println("🧱 Creating Archive Tables")
	if err := provision.CreateSchema(cfg.ArchiveConnString()); err != nil {
		return fmt.Errorf("❌ Failed to create archive tables: %w", err)
	}
	fmt.Println("✅ Archive tables created")
	fmt.Println()

	if err := provision.UpdateConfigDB(cfg); err != nil {
		return fmt.Errorf("❌ Failed to update config database: %w", err)
	}

	fmt.Println("🔍 Verifying Connection")
	if err := provision.TestConnection(context.Background(), cfg.ArchiveConnString()); err != nil {
		return fmt.Errorf("❌ Connection test failed: %w", err)
	}
	fmt.Println("✅ Connection verified")
	fmt.Println()

	fmt.Println("✅ Provisioning Complete!")
	fmt.Println()
	fmt.Printf("The generated password for %s has been saved to %s.\n", cfg.DBUser, cfg.ConfigDBPath)
	fmt.Println("Next Steps:")
	fmt.Printf("  pinch-server -config-backend sqlite -config %s\n", cfg.ConfigDBPath)
	fmt.Println()
	return nil
}

func runStatus(configDB string) {
	fmt.Println("📊 Current Run Archive Configuration")
	fmt.Println("====================================")
	fmt.Println()

	connString, err := provision.GetStorageConfig(configDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to read configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Connection: %s\n", redact(connString))
	fmt.Println()
}

func runTest(configDB string) {
	fmt.Println("🔍 Testing Run Archive Connection")
	fmt.Println("==================================")
	fmt.Println()

	connString, err := provision.GetStorageConfig(configDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to read configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Testing connection to %s...\n", redact(connString))
	if err := provision.TestConnection(context.Background(), connString); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Connection test failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✅ Connection successful")
	fmt.Println("✅ Archive tables exist")
	fmt.Println()
}
