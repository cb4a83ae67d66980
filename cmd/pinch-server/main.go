package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/chrissnell/pinchpoint/internal/app"
	"github.com/chrissnell/pinchpoint/internal/constants"
	"github.com/chrissnell/pinchpoint/internal/log"
	"github.com/chrissnell/pinchpoint/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "pinch.yaml", "Path to configuration source:\n\t\t\t  YAML: pinch.yaml\n\t\t\t  SQLite: pinch.db\n\t\t\t  Use 'config-convert' tool to convert YAML→SQLite")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' for YAML files, 'sqlite' for SQLite databases")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("pinch-server %s\n", constants.Version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := godotenv.Load(constants.DotEnvFile); err != nil {
		log.Debugf("no %s file found (using environment variables)", constants.DotEnvFile)
	}

	filename, _ := filepath.Abs(*cfgFile)
	provider, err := config.NewProvider(*cfgBackend, filename)
	if err != nil {
		log.Errorf("Failed to open configuration: %v", err)
		os.Exit(1)
	}
	defer provider.Close()

	// Create and run the application
	application := app.New(config.WithEnv(provider), log.GetSugaredLogger())
	if err := application.Run(context.Background()); err != nil {
		log.Errorf("Application error: %v", err)
		log.Sync()
		os.Exit(1)
	}
}
