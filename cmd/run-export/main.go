// Command run-export dumps the archived analysis runs of a PostgreSQL run
// archive to CSV or JSON files.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/chrissnell/pinchpoint/internal/constants"
	"github.com/chrissnell/pinchpoint/internal/log"
	"github.com/chrissnell/pinchpoint/pkg/config"
)

// exportTables maps the -table flag onto archive tables and their ordering
var exportTables = map[string]string{
	"runs":    "SELECT * FROM analysis_runs %s ORDER BY created_at",
	"streams": "SELECT s.* FROM analysis_streams s JOIN analysis_runs r ON r.id = s.run_id %s ORDER BY r.created_at, s.position",
	"cascade": "SELECT c.* FROM analysis_cascade c JOIN analysis_runs r ON r.id = c.run_id %s ORDER BY r.created_at, c.position",
}

func main() {
	var (
		dsn        = flag.String("dsn", "", "PostgreSQL connection string (default: PINCH_DATABASE_URL or the configuration)")
		cfgFile    = flag.String("config", "", "Configuration source holding storage.postgres")
		cfgBackend = flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' or 'sqlite'")
		table      = flag.String("table", "runs", "Data to export: runs, streams or cascade")
		problem    = flag.String("problem", "", "Only export runs of this problem")
		format     = flag.String("format", "csv", "Export format: csv or json")
		output     = flag.String("output", "pinch_runs", "Output file base name (extension added automatically)")
		debug      = flag.Bool("debug", false, "Turn on debugging output")
	)
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := godotenv.Load(constants.DotEnvFile); err != nil {
		log.Debugf("no %s file found (using environment variables)", constants.DotEnvFile)
	}

	queryTemplate, ok := exportTables[*table]
	if !ok {
		log.Fatalf("Invalid table: %s. Must be runs, streams or cascade", *table)
	}
	if *format != "csv" && *format != "json" {
		log.Fatalf("Invalid format: %s. Must be csv or json", *format)
	}

	connStr, err := connectionString(*dsn, *cfgFile, *cfgBackend)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	where := ""
	var args []any
	if *problem != "" {
		where = "WHERE r.problem = $1"
		if *table == "runs" {
			where = "WHERE problem = $1"
		}
		args = append(args, *problem)
	}

	filename := *output + "." + *format
	count, err := export(ctx, pool, fmt.Sprintf(queryTemplate, where), args, *format, filename)
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	log.Infow("export completed successfully", "table", *table, "records", count, "file", filename)
}

// connectionString picks the archive connection string from the flag, the
// environment and finally the configuration file
func connectionString(dsn, cfgFile, cfgBackend string) (string, error) {
	if dsn != "" {
		return dsn, nil
	}

	cfg := &config.ConfigData{}
	if cfgFile != "" {
		filename, _ := filepath.Abs(cfgFile)
		provider, err := config.NewProvider(cfgBackend, filename)
		if err != nil {
			return "", err
		}
		defer provider.Close()

		cfg, err = provider.LoadConfig()
		if err != nil {
			return "", fmt.Errorf("error reading config file: %w", err)
		}
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return "", err
	}

	if !cfg.ArchiveEnabled() {
		return "", fmt.Errorf("no run archive configured: pass -dsn, set %s or configure storage.postgres", config.EnvDatabaseURL)
	}
	return cfg.Storage.Postgres.ConnectionString, nil
}

func export(ctx context.Context, pool *pgxpool.Pool, query string, args []any, format, filename string) (int64, error) {
	file, err := os.Create(filename)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = fd.Name
	}

	writer := newRecordWriter(format, file)
	if err := writer.Begin(columns); err != nil {
		return 0, err
	}

	count := int64(0)
	for rows.Next() {
		values, err := pgx.RowToMap(rows)
		if err != nil {
			return count, fmt.Errorf("failed to scan row: %w", err)
		}
		if err := writer.Write(values); err != nil {
			return count, err
		}

		count++
		if count%10000 == 0 {
			log.Infof("processed %d records...", count)
		}
	}

	if err := rows.Err(); err != nil {
		return count, fmt.Errorf("row iteration error: %w", err)
	}

	return count, writer.End()
}
