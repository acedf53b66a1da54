package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yumyai/annoteval/internal/util"
	"github.com/yumyai/annoteval/logger"
	"github.com/yumyai/annoteval/pkg/config"
	"github.com/yumyai/annoteval/pkg/db"
	"github.com/yumyai/annoteval/pkg/pipeline"
)

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "annoteval",
		Short:         "Evaluate rule-based ontology annotation predictions",
		Long:          `annoteval propagates scored predictions through a term mapping and an ontology, then reports Fmax, Smin and AUPR over a threshold sweep.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Try load env
			dotenvErr := config.LoadDotEnv()

			if !cmd.Flags().Changed("log-level") {
				logLevel = getenvDefault(config.EnvLogLevel, logLevel)
			}
			level, err := logger.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			if err := logger.InitLogger(level); err != nil {
				return err
			}
			if dotenvErr != nil {
				logger.Warn("No .env found, using local environment")
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(newEvaluateCmd(), newRunsCmd(), newVersionCmd())
	return root
}

type evaluateFlags struct {
	dataDir, ontology, train, test, rules, terms string
	output, curve, report, dbFile                string
	relationships                                []string
	restrictLabels                               bool
	workers                                      int
}

func newEvaluateCmd() *cobra.Command {
	var f evaluateFlags

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run the threshold sweep and write predictions at Fmax",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromFlags(cmd, f)
			if err != nil {
				return err
			}
			logger.Info("Start:", zap.String("Version", VERSION), zap.String("data", cfg.DataDir))
			if !util.DirExists(cfg.DataDir) {
				logger.Warn("Data directory not found, relying on explicit file paths", zap.String("data", cfg.DataDir))
			}

			res, err := pipeline.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			out := res.Outcome
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Fmax: %0.3f, Smin: %0.3f, threshold: %v\n", out.Fmax, out.Smin, out.ThresholdAtFmax)
			fmt.Fprintf(w, "AUPR: %0.3f\n", out.AUPR)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.dataDir, "data", "", "data directory (default $"+config.EnvDataDir+" or "+config.DefaultDataDir+")")
	fl.StringVar(&f.ontology, "ontology", "", "OBO ontology file")
	fl.StringVar(&f.train, "train", "", "training table used for information content")
	fl.StringVar(&f.test, "test", "", "test table with annotations and predictions")
	fl.StringVar(&f.rules, "rules", "", "source to target term mapping")
	fl.StringVar(&f.terms, "terms", "", "term vocabulary, one per line")
	fl.StringVar(&f.output, "output", "", "prediction table written at Fmax")
	fl.StringVar(&f.curve, "curve", "", "per-threshold metrics table")
	fl.StringVar(&f.report, "report", "", "YAML run summary")
	fl.StringVar(&f.dbFile, "db", "", "SQLite result store")
	fl.StringSliceVar(&f.relationships, "relationships", nil, "relationship types counted as parents besides is_a")
	fl.BoolVar(&f.restrictLabels, "restrict-labels", false, "restrict ground truth to the terms vocabulary")
	fl.IntVar(&f.workers, "workers", 1, "thresholds evaluated concurrently")
	return cmd
}

// configFromFlags resolves the environment first, then applies the flags
// that were set explicitly. A new data directory re-roots the default paths.
func configFromFlags(cmd *cobra.Command, f evaluateFlags) (*config.Config, error) {
	fl := cmd.Flags()
	if fl.Changed("data") {
		if err := os.Setenv(config.EnvDataDir, f.dataDir); err != nil {
			return nil, err
		}
	}
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}

	override := func(name string, dst *string, val string) {
		if fl.Changed(name) {
			*dst = val
		}
	}
	override("ontology", &cfg.OntologyFile, f.ontology)
	override("train", &cfg.TrainFile, f.train)
	override("test", &cfg.TestFile, f.test)
	override("rules", &cfg.RulesFile, f.rules)
	override("terms", &cfg.TermsFile, f.terms)
	override("output", &cfg.OutputFile, f.output)
	override("curve", &cfg.CurveFile, f.curve)
	override("report", &cfg.ReportFile, f.report)
	override("db", &cfg.DBFile, f.dbFile)
	if fl.Changed("relationships") {
		cfg.Relationships = f.relationships
	}
	if fl.Changed("restrict-labels") {
		cfg.RestrictLabels = f.restrictLabels
	}
	if fl.Changed("workers") {
		cfg.Workers = f.workers
	}
	return cfg, nil
}

func newRunsCmd() *cobra.Command {
	var dbFile string

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List stored runs, or show one run's thresholds",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbFile == "" {
				dbFile = getenvDefault(config.EnvDB, "")
			}
			if dbFile == "" {
				return fmt.Errorf("no result store: set --db or %s", config.EnvDB)
			}
			store, err := db.Open(dbFile)
			if err != nil {
				return err
			}
			defer store.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer tw.Flush()

			if len(args) == 1 {
				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(tw, "THRESHOLD\tFSCORE\tPRECISION\tRECALL\tS")
				for _, t := range run.Thresholds {
					fmt.Fprintf(tw, "%.2f\t%.3f\t%.3f\t%.3f\t%.3f\n", t.Threshold, t.FScore, t.Precision, t.Recall, t.S)
				}
				return nil
			}

			runs, err := store.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(tw, "RUN ID\tCREATED\tSAMPLES\tFMAX\tTHRESHOLD\tSMIN\tAUPR\tRULES")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%.3f\t%.2f\t%.3f\t%.3f\t%s\n",
					r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Samples,
					r.Fmax, r.ThresholdAtFmax, r.Smin, r.AUPR, r.RulesFile)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbFile, "db", "", "SQLite result store (default $"+config.EnvDB+")")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "annoteval", VERSION)
		},
	}
}

func getenvDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
