package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variables read by ApplyEnv
const (
	EnvDTMin       = "PINCH_DT_MIN"
	EnvDatabaseURL = "PINCH_DATABASE_URL"
	EnvListenAddr  = "PINCH_LISTEN_ADDR"
	EnvHTTPPort    = "PINCH_HTTP_PORT"
)

// ApplyEnv overrides configuration values from the environment. Commands
// load a .env file into the environment before calling it.
func ApplyEnv(c *ConfigData) error {
	if v := getEnv(EnvDTMin); v != "" {
		dt, err := strconv.ParseFloat(v, 64)
		if err != nil || dt <= 0 {
			return fmt.Errorf("%s must be a positive number, got %q", EnvDTMin, v)
		}
		c.Analysis.DTMin = dt
	}

	if v := getEnv(EnvDatabaseURL); v != "" {
		c.Storage.Postgres = &PostgresData{ConnectionString: v}
	}

	if v := getEnv(EnvListenAddr); v != "" {
		c.Server.ListenAddr = v
	}

	if v := getEnv(EnvHTTPPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("%s must be a TCP port, got %q", EnvHTTPPort, v)
		}
		c.Server.HTTPPort = port
	}

	return nil
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

type envProvider struct {
	ConfigProvider
}

// WithEnv wraps provider so that LoadConfig applies the environment overlay
// on a copy of the loaded configuration
func WithEnv(provider ConfigProvider) ConfigProvider {
	return envProvider{ConfigProvider: provider}
}

func (e envProvider) LoadConfig() (*ConfigData, error) {
	cfg, err := e.ConfigProvider.LoadConfig()
	if err != nil {
		return nil, err
	}

	overlay := *cfg
	if err := ApplyEnv(&overlay); err != nil {
		return nil, err
	}
	return &overlay, nil
}
