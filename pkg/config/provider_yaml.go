package config

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string

	mu     sync.Mutex
	config *ConfigData
}

// YAML representation of the configuration file
type configYAML struct {
	Analysis struct {
		DTMin float64 `yaml:"dt_min"`
	} `yaml:"analysis"`
	Problems []problemYAML `yaml:"problems"`
	Storage  struct {
		Postgres *struct {
			ConnectionString string `yaml:"connection_string"`
		} `yaml:"postgres,omitempty"`
	} `yaml:"storage,omitempty"`
	Server struct {
		ListenAddr  string `yaml:"listen_addr,omitempty"`
		HTTPPort    int    `yaml:"http_port,omitempty"`
		TLSCertPath string `yaml:"tls_cert_path,omitempty"`
		TLSKeyPath  string `yaml:"tls_key_path,omitempty"`
	} `yaml:"server,omitempty"`
}

type problemYAML struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	DTMin       float64      `yaml:"dt_min,omitempty"`
	Streams     []streamYAML `yaml:"streams"`
}

type streamYAML struct {
	Name    string  `yaml:"name,omitempty"`
	Initial float64 `yaml:"initial"`
	Final   float64 `yaml:"final"`
	WCp     float64 `yaml:"wcp"`
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from the YAML file. The file
// is read once and cached.
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	y.mu.Lock()
	defer y.mu.Unlock()

	if y.config != nil {
		return y.config, nil
	}

	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	config, err := parseYAML(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", y.filename, err)
	}

	y.config = config
	return config, nil
}

func parseYAML(data []byte) (*ConfigData, error) {
	var yamlConfig configYAML
	if err := yaml.UnmarshalStrict(data, &yamlConfig); err != nil {
		return nil, err
	}

	config := &ConfigData{
		Analysis: AnalysisData{DTMin: yamlConfig.Analysis.DTMin},
		Problems: make([]ProblemData, len(yamlConfig.Problems)),
		Server: ServerData{
			ListenAddr:  yamlConfig.Server.ListenAddr,
			HTTPPort:    yamlConfig.Server.HTTPPort,
			TLSCertPath: yamlConfig.Server.TLSCertPath,
			TLSKeyPath:  yamlConfig.Server.TLSKeyPath,
		},
	}

	for i, p := range yamlConfig.Problems {
		problem := ProblemData{
			Name:        p.Name,
			Description: p.Description,
			DTMin:       p.DTMin,
			Streams:     make([]StreamData, len(p.Streams)),
		}
		for j, s := range p.Streams {
			problem.Streams[j] = StreamData{
				Name:    s.Name,
				Initial: s.Initial,
				Final:   s.Final,
				WCp:     s.WCp,
			}
		}
		config.Problems[i] = problem
	}

	if yamlConfig.Storage.Postgres != nil {
		config.Storage.Postgres = &PostgresData{
			ConnectionString: yamlConfig.Storage.Postgres.ConnectionString,
		}
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// GetProblems returns all configured problems
func (y *YAMLProvider) GetProblems() ([]ProblemData, error) {
	config, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return config.Problems, nil
}

// GetProblem returns the problem called name
func (y *YAMLProvider) GetProblem(name string) (*ProblemData, error) {
	problems, err := y.GetProblems()
	if err != nil {
		return nil, err
	}
	return FindProblem(problems, name)
}

// IsReadOnly returns true since YAML files are not written by the provider
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
