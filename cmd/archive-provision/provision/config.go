// Package provision creates the PostgreSQL database and user of a pinch run
// archive and records the connection in a SQLite configuration database.
package provision

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/chrissnell/pinchpoint/pkg/config"
)

// Config holds the provisioning configuration
type Config struct {
	PostgresHost     string
	PostgresPort     int
	PostgresAdmin    string
	PostgresPassword string
	DBName           string
	DBUser           string
	DBPassword       string
	SSLMode          string
	ConfigDBPath     string
}

// BuildConnString returns the admin connection string for database dbName
func (c *Config) BuildConnString(dbName string) string {
	return keywordConnString(c.PostgresHost, c.PostgresPort, c.PostgresAdmin, c.PostgresPassword, dbName, c.SSLMode)
}

// ArchiveConnString returns the URL the pinch commands use to reach the
// provisioned archive
func (c *Config) ArchiveConnString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.PostgresHost + ":" + strconv.Itoa(c.PostgresPort),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

func keywordConnString(host string, port int, user, password, dbName, sslMode string) string {
	connStr := fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s", host, port, user, dbName, sslMode)
	if password != "" {
		connStr += fmt.Sprintf(" password='%s'", escapeConnValue(password))
	}
	return connStr
}

// escapeConnValue escapes a value for a single-quoted keyword/value
// connection string entry
func escapeConnValue(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' || s[i] == '\\' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

// UpdateConfigDB stores the archive connection in the SQLite configuration
// database, creating it if needed
func UpdateConfigDB(cfg *Config) error {
	fmt.Println("⚙️  Updating Configuration")

	provider, err := config.NewSQLiteProvider(cfg.ConfigDBPath)
	if err != nil {
		return fmt.Errorf("failed to open config database: %w", err)
	}
	defer provider.Close()

	configData, err := provider.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config database: %w", err)
	}

	configData.Storage.Postgres = &config.PostgresData{ConnectionString: cfg.ArchiveConnString()}
	if err := provider.SaveConfig(configData); err != nil {
		return fmt.Errorf("failed to save storage config: %w", err)
	}

	fmt.Println("✅ Config database updated with connection details")
	fmt.Println()
	return nil
}

// GetStorageConfig returns the archive connection string stored in the
// SQLite configuration database
func GetStorageConfig(configDBPath string) (string, error) {
	provider, err := config.NewSQLiteProvider(configDBPath)
	if err != nil {
		return "", fmt.Errorf("failed to open config database: %w", err)
	}
	defer provider.Close()

	configData, err := provider.LoadConfig()
	if err != nil {
		return "", fmt.Errorf("failed to load config database: %w", err)
	}
	if !configData.ArchiveEnabled() {
		return "", fmt.Errorf("no run archive configuration found")
	}
	return configData.Storage.Postgres.ConnectionString, nil
}
