package config

import (
	"errors"
	"fmt"

	"github.com/chrissnell/pinchpoint/pkg/pinch"
)

// Defaults applied by ApplyDefaults
const (
	DefaultListenAddr = "0.0.0.0"
	DefaultHTTPPort   = 8080
)

var (
	// ErrProblemNotFound is returned when a named problem is not configured
	ErrProblemNotFound = errors.New("problem not found")

	// ErrReadOnly is returned by write operations on read-only providers
	ErrReadOnly = errors.New("configuration provider is read-only")
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration, with defaults applied
	LoadConfig() (*ConfigData, error)

	// Get the configured stream problems
	GetProblems() ([]ProblemData, error)
	GetProblem(name string) (*ProblemData, error)

	IsReadOnly() bool
	Close() error
}

// NewProvider opens the configuration backend named by backend ("yaml" or
// "sqlite") at filename
func NewProvider(backend, filename string) (ConfigProvider, error) {
	switch backend {
	case "yaml":
		return NewYAMLProvider(filename), nil
	case "sqlite":
		provider, err := NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", backend)
	}
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Analysis AnalysisData  `json:"analysis"`
	Problems []ProblemData `json:"problems,omitempty"`
	Storage  StorageData   `json:"storage,omitempty"`
	Server   ServerData    `json:"server,omitempty"`
}

// AnalysisData holds the defaults applied to every problem
type AnalysisData struct {
	DTMin float64 `json:"dt_min"`
}

// ProblemData is a named set of process streams
type ProblemData struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	DTMin       float64      `json:"dt_min,omitempty"` // zero means the analysis default
	Streams     []StreamData `json:"streams"`
}

// StreamData is the definition of a single process stream
type StreamData struct {
	Name    string  `json:"name,omitempty"`
	Initial float64 `json:"initial"`
	Final   float64 `json:"final"`
	WCp     float64 `json:"wcp"`
}

// StorageData holds the configuration of the analysis run archive
type StorageData struct {
	Postgres *PostgresData `json:"postgres,omitempty"`
}

// PostgresData configures a PostgreSQL/TimescaleDB archive
type PostgresData struct {
	ConnectionString string `json:"connection_string"`
}

// ServerData configures the REST server
type ServerData struct {
	ListenAddr  string `json:"listen_addr,omitempty"`
	HTTPPort    int    `json:"http_port,omitempty"`
	TLSCertPath string `json:"tls_cert_path,omitempty"`
	TLSKeyPath  string `json:"tls_key_path,omitempty"`
}

// ArchiveEnabled reports whether a run archive is configured
func (c *ConfigData) ArchiveEnabled() bool {
	return c.Storage.Postgres != nil && c.Storage.Postgres.ConnectionString != ""
}

// ApplyDefaults fills unset analysis and server settings
func (c *ConfigData) ApplyDefaults() {
	if c.Analysis.DTMin == 0 {
		c.Analysis.DTMin = pinch.DefaultDTMin
	}
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = DefaultHTTPPort
	}
}

// Validate checks the configuration for structural errors. Stream physics
// are validated when the streams are built.
func (c *ConfigData) Validate() error {
	if c.Analysis.DTMin < 0 {
		return fmt.Errorf("analysis.dt_min must not be negative, got %v", c.Analysis.DTMin)
	}
	if c.Server.HTTPPort < 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range", c.Server.HTTPPort)
	}

	seen := make(map[string]bool, len(c.Problems))
	for i, p := range c.Problems {
		if p.Name == "" {
			return fmt.Errorf("problem %d has no name", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate problem name %q", p.Name)
		}
		seen[p.Name] = true

		if p.DTMin < 0 {
			return fmt.Errorf("problem %q: dt_min must not be negative, got %v", p.Name, p.DTMin)
		}
		if len(p.Streams) == 0 {
			return fmt.Errorf("problem %q has no streams", p.Name)
		}
	}
	return nil
}

// FindProblem returns the problem called name
func FindProblem(problems []ProblemData, name string) (*ProblemData, error) {
	for i := range problems {
		if problems[i].Name == name {
			return &problems[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrProblemNotFound, name)
}

// EffectiveDTMin returns the problem's approach temperature, or fallback
// when the problem does not set one
func (p *ProblemData) EffectiveDTMin(fallback float64) float64 {
	if p.DTMin > 0 {
		return p.DTMin
	}
	return fallback
}

// BuildStreams converts the problem definition into pinch streams
func (p *ProblemData) BuildStreams() ([]*pinch.Stream, error) {
	return BuildStreams(p.Streams)
}

// BuildStreams converts stream definitions into pinch streams, preserving
// order
func BuildStreams(defs []StreamData) ([]*pinch.Stream, error) {
	streams := make([]*pinch.Stream, 0, len(defs))
	for i, d := range defs {
		s, err := pinch.NewNamedStream(d.Name, d.Initial, d.Final, d.WCp)
		if err != nil {
			return nil, fmt.Errorf("stream %d: %w", i+1, err)
		}
		streams = append(streams, s)
	}
	return streams, nil
}
