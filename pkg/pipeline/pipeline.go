// Package pipeline runs one evaluation end to end: load the inputs named by
// a config.Config, sweep the thresholds, and write every configured output.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yumyai/annoteval/logger"
	"github.com/yumyai/annoteval/pkg/annotation"
	"github.com/yumyai/annoteval/pkg/config"
	"github.com/yumyai/annoteval/pkg/dataset"
	"github.com/yumyai/annoteval/pkg/db"
	"github.com/yumyai/annoteval/pkg/evaluate"
	"github.com/yumyai/annoteval/pkg/ontology"
	"github.com/yumyai/annoteval/pkg/render"
	"github.com/yumyai/annoteval/pkg/rules"
)

// Result is what a run produced.
type Result struct {
	RunID   string
	Samples int
	Outcome *evaluate.Outcome
}

type inputs struct {
	search evaluate.Input
	table  *dataset.Table
}

// Run evaluates the rule table named by cfg against its test set.
func Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runID := db.NewRunID()
	log := logger.With(zap.String("run_id", runID))

	in, err := load(cfg)
	if err != nil {
		return nil, err
	}

	opts := []evaluate.Option{
		evaluate.WithWorkers(cfg.Workers),
		evaluate.WithProgress(func(r evaluate.ThresholdResult) {
			log.Info("Threshold evaluated",
				zap.Float64("Fscore", r.FScore),
				zap.Float64("S", r.S),
				zap.Float64("threshold", r.Threshold))
		}),
	}
	out, err := evaluate.Search(ctx, in.search, opts...)
	if err != nil {
		return nil, fmt.Errorf("threshold search: %w", err)
	}

	res := &Result{
		RunID:   runID,
		Samples: len(in.table.Samples),
		Outcome: out,
	}
	if err := writeOutputs(ctx, log, cfg, in.table, res); err != nil {
		return nil, err
	}
	return res, nil
}

func load(cfg *config.Config) (*inputs, error) {
	ont, err := ontology.Load(cfg.OntologyFile, ontology.WithRelationships(cfg.Relationships...))
	if err != nil {
		return nil, fmt.Errorf("load ontology: %w", err)
	}
	logger.Info("Ontology loaded", zap.String("file", cfg.OntologyFile), zap.Int("terms", ont.Len()))

	ruleTable, err := rules.Load(cfg.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	logger.Info("Rules loaded", zap.String("file", cfg.RulesFile), zap.Int("sources", ruleTable.Len()))

	training, err := dataset.LoadTraining(cfg.TrainFile)
	if err != nil {
		return nil, fmt.Errorf("load training data: %w", err)
	}
	for i, annots := range training {
		closed, err := evaluate.Closure(ont, annots)
		if err != nil {
			return nil, fmt.Errorf("training row %d: %w", i+1, err)
		}
		training[i] = closed
	}
	ic, err := ont.CalculateIC(training)
	if err != nil {
		return nil, fmt.Errorf("calculate IC: %w", err)
	}
	logger.Debug("IC calculated", zap.Int("corpus", len(training)), zap.Int("terms", ic.Len()))

	table, err := dataset.LoadSamples(cfg.TestFile)
	if err != nil {
		return nil, fmt.Errorf("load test data: %w", err)
	}
	logger.Info("Test data loaded", zap.String("file", cfg.TestFile), zap.Int("samples", len(table.Samples)))

	var vocabulary annotation.Set
	if cfg.RestrictLabels {
		vocabulary, err = dataset.LoadTerms(cfg.TermsFile)
		if err != nil {
			return nil, fmt.Errorf("load terms: %w", err)
		}
		logger.Info("Restricting labels", zap.String("file", cfg.TermsFile), zap.Int("terms", vocabulary.Len()))
	}

	return &inputs{
		search: evaluate.Input{
			Ontology:   ont,
			IC:         ic,
			Rules:      ruleTable,
			Samples:    table.Samples,
			Vocabulary: vocabulary,
		},
		table: table,
	}, nil
}

func writeOutputs(ctx context.Context, log *zap.Logger, cfg *config.Config, table *dataset.Table, res *Result) error {
	out := res.Outcome

	if cfg.OutputFile != "" {
		if err := render.WritePredictions(cfg.OutputFile, table, out.BestPredictions); err != nil {
			return fmt.Errorf("write predictions: %w", err)
		}
		log.Info("Predictions written", zap.String("file", cfg.OutputFile))
	}

	if cfg.CurveFile != "" {
		if err := render.WriteCurve(cfg.CurveFile, out.Results); err != nil {
			return fmt.Errorf("write curve: %w", err)
		}
		log.Info("Curve written", zap.String("file", cfg.CurveFile))
	}

	if cfg.ReportFile != "" {
		summary := render.NewSummary(res.RunID, render.Inputs{
			Ontology: cfg.OntologyFile,
			Train:    cfg.TrainFile,
			Test:     cfg.TestFile,
			Rules:    cfg.RulesFile,
			Terms:    cfg.TermsFile,
		}, res.Samples, out)
		if err := render.WriteReport(cfg.ReportFile, summary); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		log.Info("Report written", zap.String("file", cfg.ReportFile))
	}

	if cfg.DBFile != "" {
		if err := saveRun(ctx, cfg, table, res); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		log.Info("Run saved", zap.String("db", cfg.DBFile))
	}
	return nil
}

func saveRun(ctx context.Context, cfg *config.Config, table *dataset.Table, res *Result) error {
	store, err := db.Open(cfg.DBFile)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.SaveRun(ctx, newRun(cfg, table, res))
}

func newRun(cfg *config.Config, table *dataset.Table, res *Result) *db.Run {
	out := res.Outcome
	run := &db.Run{
		ID:              res.RunID,
		OntologyFile:    cfg.OntologyFile,
		RulesFile:       cfg.RulesFile,
		TestFile:        cfg.TestFile,
		Samples:         res.Samples,
		Fmax:            out.Fmax,
		ThresholdAtFmax: out.ThresholdAtFmax,
		Smin:            out.Smin,
		ThresholdAtSmin: out.ThresholdAtSmin,
		AUPR:            out.AUPR,
	}
	for _, r := range out.Results {
		run.Thresholds = append(run.Thresholds, db.ThresholdRow{
			Threshold: r.Threshold,
			FScore:    r.FScore,
			Precision: r.Precision,
			Recall:    r.Recall,
			S:         r.S,
		})
	}
	for i, p := range out.BestPredictions {
		run.Predictions = append(run.Predictions, db.PredictionRow{
			SampleIndex: i,
			Gene:        table.Samples[i].Gene,
			Terms:       p.Sorted(),
		})
	}
	return run
}
