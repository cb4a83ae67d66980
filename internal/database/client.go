package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chrissnell/pinchpoint/internal/log"
)

// DefaultListLimit is the number of runs returned by ListRuns when no limit
// is given
const DefaultListLimit = 50

// ErrRunNotFound is returned when no archived run has the requested ID
var ErrRunNotFound = errors.New("analysis run not found")

// Client stores analysis runs in a PostgreSQL/TimescaleDB database
type Client struct {
	DB     *gorm.DB // Exported so it can be accessed from other packages
	logger *zap.SugaredLogger
}

// NewClient wraps an open database connection
func NewClient(db *gorm.DB, logger *zap.SugaredLogger) *Client {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Client{
		DB:     db,
		logger: logger,
	}
}

// Open connects to the database at connectionString and brings the run
// archive schema up to date
func Open(connectionString string, logger *zap.SugaredLogger) (*Client, error) {
	db, err := CreateConnection(connectionString)
	if err != nil {
		return nil, err
	}

	c := NewClient(db, logger)
	if err := c.Migrate(); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateConnection is a helper function to create a database connection with standard GORM configuration
func CreateConnection(connectionString string) (*gorm.DB, error) {
	// Create a logger for gorm
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			Colorful:                  true,
		},
	)

	log.Info("connecting to run archive database...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		log.Warnf("warning: unable to create a run archive connection: %v", err)
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates the run archive tables
func (c *Client) Migrate() error {
	if err := c.DB.AutoMigrate(&AnalysisRun{}, &StreamResult{}, &CascadeEntry{}); err != nil {
		return fmt.Errorf("error migrating run archive schema: %w", err)
	}
	return nil
}

// SaveRun stores a run together with its streams and cascade
func (c *Client) SaveRun(ctx context.Context, run *AnalysisRun) error {
	if err := c.DB.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("error saving analysis run: %w", err)
	}
	c.logger.Debugw("archived analysis run", "id", run.ID, "problem", run.Problem)
	return nil
}

// GetRun loads the run with the given ID
func (c *Client) GetRun(ctx context.Context, id uuid.UUID) (*AnalysisRun, error) {
	var run AnalysisRun
	err := c.DB.WithContext(ctx).
		Preload("Streams", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Cascade", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&run, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("error querying analysis run: %w", err)
	}
	return &run, nil
}

// ListRuns returns the most recent runs, newest first, without their streams
// and cascades. An empty problem lists runs of every problem.
func (c *Client) ListRuns(ctx context.Context, problem string, limit int) ([]AnalysisRun, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := c.DB.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if problem != "" {
		query = query.Where("problem = ?", problem)
	}

	var runs []AnalysisRun
	if err := query.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("error listing analysis runs: %w", err)
	}
	return runs, nil
}

// Close closes the underlying connection pool
func (c *Client) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
