package main

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/skyradar/reqcover/analysis"
	"github.com/skyradar/reqcover/internal/logger"
	"github.com/skyradar/reqcover/requirement"
	"github.com/skyradar/reqcover/scenario"
)

// Exit codes: 0 = analyzed, no HIGH-severity defects; 1 = HIGH-severity
// defects found; 2 = parse or IO failure
const (
	exitOK      = 0
	exitDefects = 1
	exitFailure = 2
)

var (
	flagRequirements string
	flagFormat       string
	flagWorkers      int
	flagLogLevel     string

	// set by the analyze run, consumed by main after Execute
	exitCode = exitOK
)

func main() {
	root := &cobra.Command{
		Use:           "reqcover",
		Short:         "Requirement-coverage verification for scenario corpora",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (TRACE..FATAL), overrides LOG_LEVEL")

	analyzeCmd := &cobra.Command{
		Use:   "analyze <requirement-id> <scenario-dir>",
		Short: "Verify that a scenario corpus covers a requirement's conditions",
		Long: `Analyze replays every scenario in the corpus directory against the
requirement's conditions, classifies each condition as EXPLICIT, IMPLICIT or
UNTESTED, and reports assertions whose declared outcome contradicts the
scenario's own recorded state.

Use "all" as the requirement ID to analyze every active requirement against
the same corpus.`,
		Args: cobra.ExactArgs(2),
		RunE: runAnalyze,
	}
	analyzeCmd.Flags().StringVarP(&flagRequirements, "requirements", "r", "",
		"YAML requirement file (default: load from DATABASE_URL)")
	analyzeCmd.Flags().StringVarP(&flagFormat, "format", "f", "text", "output format: text or json")
	analyzeCmd.Flags().IntVarP(&flagWorkers, "workers", "w", 0, "concurrent units (default: one per core)")
	root.AddCommand(analyzeCmd)

	if err := root.Execute(); err != nil {
		logger.Error("analysis failed", "error", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitFailure)
	}
	os.Exit(exitCode)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if flagLogLevel != "" {
		level, err := logger.ParseLevel(flagLogLevel)
		if err != nil {
			return err
		}
		logger.SetLevel(level)
	}

	reqID, corpusDir := args[0], args[1]

	store, err := openStore()
	if err != nil {
		return err
	}

	var reqs []*requirement.Requirement
	if reqID == "all" {
		reqs, err = store.ListActive()
		if err != nil {
			return err
		}
		if len(reqs) == 0 {
			return fmt.Errorf("no active requirements found")
		}
	} else {
		req, err := store.Get(reqID)
		if err != nil {
			return err
		}
		reqs = []*requirement.Requirement{req}
	}

	loaded, err := scenario.LoadDir(corpusDir)
	if err != nil {
		return err
	}
	logger.Info("corpus loaded", "dir", corpusDir, "scenarios", len(loaded))

	units := make([]analysis.Unit, 0, len(reqs))
	for _, req := range reqs {
		units = append(units, analysis.NewUnit(req, loaded))
	}

	runner := analysis.NewRunner(flagWorkers)
	reports := runner.Run(cmd.Context(), units)

	for _, report := range reports {
		switch flagFormat {
		case "json":
			if err := report.WriteJSON(os.Stdout); err != nil {
				return err
			}
		case "text":
			if err := report.WriteText(os.Stdout); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown format %q (use text or json)", flagFormat)
		}

		if report.Failed() {
			exitCode = exitFailure
		} else if report.HasHighSeverity() && exitCode == exitOK {
			exitCode = exitDefects
		}
	}
	return nil
}

// openStore picks the requirement source: a YAML file when --requirements
// is given, otherwise the Postgres store behind DATABASE_URL
func openStore() (requirement.Store, error) {
	if flagRequirements != "" {
		return requirement.LoadYAMLFile(flagRequirements)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("no requirement source: pass --requirements or set DATABASE_URL")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return requirement.NewPostgresStore(db), nil
}
