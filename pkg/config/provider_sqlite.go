package config

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/chrissnell/pinchpoint/pkg/migrate"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SchemaMigrations returns the embedded migrations of the SQLite
// configuration schema
func SchemaMigrations() migrate.MigrationProvider {
	return migrate.NewFSProvider(migrationsFS, "migrations", "")
}

// defaultConfigName is the name of the configuration row read and written
const defaultConfigName = "default"

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider opens the SQLite database at dbPath and brings its
// schema up to date
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	migrator := migrate.NewMigrator(db, SchemaMigrations(), nil)
	if err := migrator.MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate SQLite schema: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	var (
		dtMin      sql.NullFloat64
		listenAddr sql.NullString
		httpPort   sql.NullInt64
		tlsCert    sql.NullString
		tlsKey     sql.NullString
		pgConn     sql.NullString
	)
	err := s.db.QueryRow(`
		SELECT dt_min, listen_addr, http_port, tls_cert_path, tls_key_path, postgres_connection_string
		FROM configs WHERE name = ?`, defaultConfigName).
		Scan(&dtMin, &listenAddr, &httpPort, &tlsCert, &tlsKey, &pgConn)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query config: %w", err)
	}

	config.Analysis.DTMin = dtMin.Float64
	config.Server = ServerData{
		ListenAddr:  listenAddr.String,
		HTTPPort:    int(httpPort.Int64),
		TLSCertPath: tlsCert.String,
		TLSKeyPath:  tlsKey.String,
	}
	if pgConn.String != "" {
		config.Storage.Postgres = &PostgresData{ConnectionString: pgConn.String}
	}

	problems, err := s.GetProblems()
	if err != nil {
		return nil, fmt.Errorf("failed to load problems: %w", err)
	}
	config.Problems = problems

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// GetProblems returns all problems with their streams, ordered by name
func (s *SQLiteProvider) GetProblems() ([]ProblemData, error) {
	rows, err := s.db.Query(`
		SELECT p.id, p.name, p.description, p.dt_min
		FROM problems p
		JOIN configs c ON c.id = p.config_id
		WHERE c.name = ?
		ORDER BY p.name`, defaultConfigName)
	if err != nil {
		return nil, fmt.Errorf("failed to query problems: %w", err)
	}
	defer rows.Close()

	var ids []int64
	var problems []ProblemData
	for rows.Next() {
		var (
			id          int64
			problem     ProblemData
			description sql.NullString
			dtMin       sql.NullFloat64
		)
		if err := rows.Scan(&id, &problem.Name, &description, &dtMin); err != nil {
			return nil, fmt.Errorf("failed to scan problem: %w", err)
		}
		problem.Description = description.String
		problem.DTMin = dtMin.Float64
		ids = append(ids, id)
		problems = append(problems, problem)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, id := range ids {
		streams, err := s.getStreams(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load streams of %s: %w", problems[i].Name, err)
		}
		problems[i].Streams = streams
	}

	return problems, nil
}

// GetProblem returns the problem called name
func (s *SQLiteProvider) GetProblem(name string) (*ProblemData, error) {
	problems, err := s.GetProblems()
	if err != nil {
		return nil, err
	}
	return FindProblem(problems, name)
}

func (s *SQLiteProvider) getStreams(problemID int64) ([]StreamData, error) {
	rows, err := s.db.Query(`
		SELECT name, initial_temperature, final_temperature, heat_capacity_flow
		FROM streams WHERE problem_id = ? ORDER BY position`, problemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var streams []StreamData
	for rows.Next() {
		var stream StreamData
		var name sql.NullString
		if err := rows.Scan(&name, &stream.Initial, &stream.Final, &stream.WCp); err != nil {
			return nil, err
		}
		stream.Name = name.String
		streams = append(streams, stream)
	}
	return streams, rows.Err()
}

// IsReadOnly returns false since SQLite configuration can be modified
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveConfig replaces the stored configuration with configData
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	if err := configData.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid configuration: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	configID, err := s.upsertConfig(tx, configData)
	if err != nil {
		return fmt.Errorf("failed to insert config: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM streams WHERE problem_id IN (SELECT id FROM problems WHERE config_id = ?)`, configID); err != nil {
		return fmt.Errorf("failed to clear existing streams: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM problems WHERE config_id = ?`, configID); err != nil {
		return fmt.Errorf("failed to clear existing problems: %w", err)
	}

	for i := range configData.Problems {
		if err := s.insertProblem(tx, configID, &configData.Problems[i]); err != nil {
			return fmt.Errorf("failed to insert problem %s: %w", configData.Problems[i].Name, err)
		}
	}

	return tx.Commit()
}

// SaveProblem adds a problem, or replaces the problem with the same name
func (s *SQLiteProvider) SaveProblem(problem *ProblemData) error {
	if problem.Name == "" {
		return fmt.Errorf("problem has no name")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	configID, err := s.getOrCreateConfigID(tx)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM streams WHERE problem_id IN (SELECT id FROM problems WHERE config_id = ? AND name = ?)`, configID, problem.Name); err != nil {
		return fmt.Errorf("failed to clear existing streams: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM problems WHERE config_id = ? AND name = ?`, configID, problem.Name); err != nil {
		return fmt.Errorf("failed to clear existing problem: %w", err)
	}

	if err := s.insertProblem(tx, configID, problem); err != nil {
		return fmt.Errorf("failed to insert problem %s: %w", problem.Name, err)
	}

	return tx.Commit()
}

// DeleteProblem removes the problem called name
func (s *SQLiteProvider) DeleteProblem(name string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM streams WHERE problem_id IN (
			SELECT p.id FROM problems p JOIN configs c ON c.id = p.config_id
			WHERE c.name = ? AND p.name = ?)`, defaultConfigName, name); err != nil {
		return fmt.Errorf("failed to delete streams: %w", err)
	}

	result, err := tx.Exec(`
		DELETE FROM problems WHERE name = ? AND config_id = (SELECT id FROM configs WHERE name = ?)`,
		name, defaultConfigName)
	if err != nil {
		return fmt.Errorf("failed to delete problem: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrProblemNotFound, name)
	}

	return tx.Commit()
}

func (s *SQLiteProvider) upsertConfig(tx *sql.Tx, c *ConfigData) (int64, error) {
	var pgConn string
	if c.Storage.Postgres != nil {
		pgConn = c.Storage.Postgres.ConnectionString
	}

	_, err := tx.Exec(`
		INSERT INTO configs (name, dt_min, listen_addr, http_port, tls_cert_path, tls_key_path, postgres_connection_string)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			dt_min = excluded.dt_min,
			listen_addr = excluded.listen_addr,
			http_port = excluded.http_port,
			tls_cert_path = excluded.tls_cert_path,
			tls_key_path = excluded.tls_key_path,
			postgres_connection_string = excluded.postgres_connection_string,
			updated_at = datetime('now')`,
		defaultConfigName, nullFloat(c.Analysis.DTMin), nullString(c.Server.ListenAddr), nullInt(c.Server.HTTPPort),
		nullString(c.Server.TLSCertPath), nullString(c.Server.TLSKeyPath), nullString(pgConn))
	if err != nil {
		return 0, err
	}

	var id int64
	if err := tx.QueryRow(`SELECT id FROM configs WHERE name = ?`, defaultConfigName).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// getOrCreateConfigID gets existing config ID or creates an empty one
func (s *SQLiteProvider) getOrCreateConfigID(tx *sql.Tx) (int64, error) {
	if _, err := tx.Exec(`INSERT OR IGNORE INTO configs (name) VALUES (?)`, defaultConfigName); err != nil {
		return 0, fmt.Errorf("failed to create default config: %w", err)
	}
	var id int64
	if err := tx.QueryRow(`SELECT id FROM configs WHERE name = ?`, defaultConfigName).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *SQLiteProvider) insertProblem(tx *sql.Tx, configID int64, problem *ProblemData) error {
	result, err := tx.Exec(`INSERT INTO problems (config_id, name, description, dt_min) VALUES (?, ?, ?, ?)`,
		configID, problem.Name, nullString(problem.Description), nullFloat(problem.DTMin))
	if err != nil {
		return err
	}
	problemID, err := result.LastInsertId()
	if err != nil {
		return err
	}

	for i, stream := range problem.Streams {
		_, err := tx.Exec(`
			INSERT INTO streams (problem_id, position, name, initial_temperature, final_temperature, heat_capacity_flow)
			VALUES (?, ?, ?, ?, ?, ?)`,
			problemID, i, nullString(stream.Name), stream.Initial, stream.Final, stream.WCp)
		if err != nil {
			return fmt.Errorf("stream %d: %w", i+1, err)
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: f != 0}
}

func nullInt(i int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(i), Valid: i != 0}
}
