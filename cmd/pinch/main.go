// Command pinch computes the pinch temperature and minimum utility targets
// of a configured or ad-hoc stream network.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/chrissnell/pinchpoint/internal/constants"
	"github.com/chrissnell/pinchpoint/internal/database"
	"github.com/chrissnell/pinchpoint/internal/log"
	"github.com/chrissnell/pinchpoint/internal/report"
	"github.com/chrissnell/pinchpoint/pkg/config"
	"github.com/chrissnell/pinchpoint/pkg/pinch"
)

type options struct {
	cfgFile    string
	cfgBackend string
	problem    string
	streams    string
	dtMin      float64
	format     string
	save       bool
}

func main() {
	var opts options
	flag.StringVar(&opts.cfgFile, "config", "", "Path to configuration source (YAML file or SQLite database)")
	flag.StringVar(&opts.cfgBackend, "config-backend", "yaml", "Configuration backend type: 'yaml' or 'sqlite'")
	flag.StringVar(&opts.problem, "problem", "", "Name of the configured problem to analyse")
	flag.StringVar(&opts.streams, "streams", "", "Ad-hoc streams as [name=]initial:final:wcp,... instead of a configured problem")
	flag.Float64Var(&opts.dtMin, "dt-min", 0, "Minimum approach temperature (default: problem or configuration setting, else 10)")
	flag.StringVar(&opts.format, "format", "text", "Output format: 'text' or 'json'")
	flag.BoolVar(&opts.save, "save", false, "Archive the run in the configured database")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("pinch %s\n", constants.Version)
		os.Exit(0)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := godotenv.Load(constants.DotEnvFile); err != nil {
		log.Debugf("no %s file found (using environment variables)", constants.DotEnvFile)
	}

	if err := run(context.Background(), opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unsupported output format %q. Use 'text' or 'json'", opts.format)
	}
	if opts.problem == "" && opts.streams == "" {
		return errors.New("either -problem or -streams is required. Run with -h for help")
	}

	cfg := &config.ConfigData{}
	var provider config.ConfigProvider
	if opts.cfgFile != "" {
		filename, _ := filepath.Abs(opts.cfgFile)
		p, err := config.NewProvider(opts.cfgBackend, filename)
		if err != nil {
			return err
		}
		defer p.Close()
		provider = config.WithEnv(p)

		cfg, err = provider.LoadConfig()
		if err != nil {
			return fmt.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %w", err)
		}
	} else {
		cfg.ApplyDefaults()
		if err := config.ApplyEnv(cfg); err != nil {
			return err
		}
	}

	name, defs, dtMin, err := resolveProblem(opts, cfg, provider)
	if err != nil {
		return err
	}

	streams, err := config.BuildStreams(defs)
	if err != nil {
		return err
	}

	analyzer := pinch.NewAnalyzer(log.GetSugaredLogger())
	result, err := analyzer.Analyze(ctx, streams, dtMin)
	if err != nil {
		return err
	}

	doc, err := report.NewDocument(name, streams, result)
	if err != nil {
		return err
	}

	if opts.save {
		if !cfg.ArchiveEnabled() {
			return errors.New("-save requires storage.postgres in the configuration or PINCH_DATABASE_URL")
		}
		client, err := database.Open(cfg.Storage.Postgres.ConnectionString, log.GetSugaredLogger())
		if err != nil {
			return fmt.Errorf("error opening run archive: %w", err)
		}
		defer client.Close()

		runRecord := database.NewAnalysisRun(name, streams, result)
		if err := client.SaveRun(ctx, runRecord); err != nil {
			return err
		}
		doc.RunID = runRecord.ID.String()
		log.Infow("analysis run archived", "id", doc.RunID)
	}

	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	if err := report.WriteText(out, name, streams, result); err != nil {
		return err
	}
	if doc.RunID != "" {
		_, err = fmt.Fprintf(out, "\nRun: %s\n", doc.RunID)
	}
	return err
}

// resolveProblem returns the problem name, stream definitions and approach
// temperature selected by the options
func resolveProblem(opts options, cfg *config.ConfigData, provider config.ConfigProvider) (string, []config.StreamData, float64, error) {
	dtMin := cfg.Analysis.DTMin
	name := opts.problem
	var defs []config.StreamData

	if opts.streams != "" {
		var err error
		defs, err = config.ParseStreams(opts.streams)
		if err != nil {
			return "", nil, 0, err
		}
	} else {
		if provider == nil {
			return "", nil, 0, errors.New("-problem requires -config")
		}
		problem, err := provider.GetProblem(opts.problem)
		if err != nil {
			return "", nil, 0, err
		}
		defs = problem.Streams
		dtMin = problem.EffectiveDTMin(dtMin)
	}

	if opts.dtMin != 0 {
		dtMin = opts.dtMin
	}
	return name, defs, dtMin, nil
}
