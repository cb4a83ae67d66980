package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/chrissnell/pinchpoint/pkg/config"
	"github.com/chrissnell/pinchpoint/pkg/pinch"
)

// tolerance for comparing stored temperatures and flows
const tolerance = 0.000001

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite configuration file")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <pinch.yaml> -sqlite <pinch.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("Configuration Comparison Test")
	fmt.Println("===========================")

	// Load YAML configuration
	fmt.Printf("Loading YAML configuration: %s\n", *yamlFile)
	yamlProvider := config.NewYAMLProvider(*yamlFile)
	yamlConfig, err := yamlProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML config: %v\n", err)
		os.Exit(1)
	}

	// Load SQLite configuration
	fmt.Printf("Loading SQLite configuration: %s\n", *sqliteFile)
	sqliteProvider, err := config.NewSQLiteProvider(*sqliteFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating SQLite provider: %v\n", err)
		os.Exit(1)
	}
	defer sqliteProvider.Close()

	sqliteConfig, err := sqliteProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading SQLite config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nComparison Results:")
	fmt.Println("==================")

	if compareConfigs(yamlConfig, sqliteConfig) {
		fmt.Println("\nTest completed!")
		return
	}
	fmt.Println("\nTest completed with differences")
	os.Exit(1)
}

// compareConfigs prints a line per compared item and reports whether the
// two configurations are equivalent
func compareConfigs(yamlConfig, sqliteConfig *config.ConfigData) bool {
	ok := true

	if yamlConfig.Analysis.DTMin == sqliteConfig.Analysis.DTMin {
		fmt.Println("✓ Default dt_min matches")
	} else {
		fmt.Printf("✗ Default dt_min differs: YAML=%v, SQLite=%v\n", yamlConfig.Analysis.DTMin, sqliteConfig.Analysis.DTMin)
		ok = false
	}

	fmt.Printf("Problems - YAML: %d, SQLite: %d\n", len(yamlConfig.Problems), len(sqliteConfig.Problems))
	for _, yamlProblem := range yamlConfig.Problems {
		sqliteProblem, err := config.FindProblem(sqliteConfig.Problems, yamlProblem.Name)
		if err != nil {
			fmt.Printf("✗ Problem %s missing from SQLite\n", yamlProblem.Name)
			ok = false
			continue
		}
		if !compareProblems(yamlProblem, *sqliteProblem) {
			fmt.Printf("✗ Problem %s differs\n", yamlProblem.Name)
			ok = false
			continue
		}
		if !compareTargets(yamlProblem, *sqliteProblem, yamlConfig.Analysis.DTMin) {
			fmt.Printf("✗ Problem %s analyses differently\n", yamlProblem.Name)
			ok = false
			continue
		}
		fmt.Printf("✓ Problem %s matches\n", yamlProblem.Name)
	}
	if len(yamlConfig.Problems) != len(sqliteConfig.Problems) {
		fmt.Println("✗ Problem count mismatch")
		ok = false
	}

	if yamlConfig.ArchiveEnabled() == sqliteConfig.ArchiveEnabled() {
		fmt.Println("✓ Run archive setting matches")
	} else {
		fmt.Println("✗ Run archive setting differs")
		ok = false
	}

	return ok
}

func compareProblems(yaml, sqlite config.ProblemData) bool {
	if yaml.DTMin != sqlite.DTMin || len(yaml.Streams) != len(sqlite.Streams) {
		return false
	}
	for i := range yaml.Streams {
		a, b := yaml.Streams[i], sqlite.Streams[i]
		if a.Name != b.Name ||
			math.Abs(a.Initial-b.Initial) > tolerance ||
			math.Abs(a.Final-b.Final) > tolerance ||
			math.Abs(a.WCp-b.WCp) > tolerance {
			return false
		}
	}
	return true
}

// compareTargets analyses both problems and compares their utility targets.
// Problems that do not analyse are only equivalent if both fail.
func compareTargets(yaml, sqlite config.ProblemData, defaultDTMin float64) bool {
	a, errA := analyse(yaml, defaultDTMin)
	b, errB := analyse(sqlite, defaultDTMin)
	if errA != nil || errB != nil {
		return errA != nil && errB != nil
	}
	return a.PinchTemperature == b.PinchTemperature &&
		a.MinHeatingUtility == b.MinHeatingUtility &&
		a.MinCoolingUtility == b.MinCoolingUtility
}

func analyse(problem config.ProblemData, defaultDTMin float64) (*pinch.Result, error) {
	streams, err := problem.BuildStreams()
	if err != nil {
		return nil, err
	}
	return pinch.Analyze(streams, problem.EffectiveDTMin(defaultDTMin))
}
