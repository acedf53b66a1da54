package evaluate

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yumyai/annoteval/logger"
	"github.com/yumyai/annoteval/pkg/annotation"
	"github.com/yumyai/annoteval/pkg/dataset"
)

// ThresholdResult holds the metrics for one threshold value.
type ThresholdResult struct {
	Threshold float64
	Metrics
}

// Input bundles the read-only collaborators of a search.
type Input struct {
	Ontology AncestorIndex
	IC       ICSource
	Rules    RuleSource
	Samples  []dataset.Sample

	// Vocabulary, when non-nil, restricts ground truth to the ancestor
	// closure of these terms.
	Vocabulary annotation.Set
}

// Outcome is the result of a threshold sweep.
type Outcome struct {
	Fmax            float64
	ThresholdAtFmax float64
	Best            ThresholdResult // metrics at ThresholdAtFmax

	Smin            float64
	ThresholdAtSmin float64

	AUPR  float64
	Curve []CurvePoint // sorted by recall

	Results []ThresholdResult // grid order

	// BestPredictions are the closed predicted sets at ThresholdAtFmax, one
	// per sample. Nil when no threshold reached a positive F-score.
	BestPredictions []annotation.Set
}

// Search expands and scores every sample at each grid threshold, keeping the
// threshold with the highest F-score and, independently, the lowest S. On a
// tie the first threshold in grid order wins. Any error aborts the sweep.
func Search(ctx context.Context, in Input, opts ...Option) (*Outcome, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(cfg.grid) == 0 {
		return nil, ErrEmptyGrid
	}
	if in.Ontology == nil || in.IC == nil || in.Rules == nil {
		return nil, errors.New("evaluate: search needs an ontology, IC table and rule table")
	}

	truth, err := groundTruth(in)
	if err != nil {
		return nil, err
	}

	logger.Debug("Starting threshold search",
		zap.Int("samples", len(in.Samples)),
		zap.Int("thresholds", len(cfg.grid)),
		zap.Int("workers", cfg.workers))

	out := &Outcome{Smin: math.Inf(1)}
	if cfg.workers > 1 {
		err = sweepParallel(ctx, in, truth, cfg, out)
	} else {
		err = sweep(ctx, in, truth, cfg, out)
	}
	if err != nil {
		return nil, err
	}

	SortCurve(out.Curve)
	out.AUPR = AUPR(out.Curve)

	logger.Debug("Threshold search done",
		zap.Float64("fmax", out.Fmax),
		zap.Float64("threshold", out.ThresholdAtFmax),
		zap.Float64("smin", out.Smin),
		zap.Float64("aupr", out.AUPR))
	return out, nil
}

func sweep(ctx context.Context, in Input, truth []annotation.Set, cfg config, out *Outcome) error {
	for _, t := range cfg.grid {
		if err := ctx.Err(); err != nil {
			return err
		}
		r, preds, err := evaluateAt(in, truth, t)
		if err != nil {
			return err
		}
		if out.observe(r) {
			out.BestPredictions = preds
		}
		if cfg.progress != nil {
			cfg.progress(r)
		}
	}
	return nil
}

// sweepParallel gives every threshold its own result and error slot and
// reduces in grid order once all tasks are done, so ties and the reported
// failure resolve as in sweep. The best predictions are recomputed rather
// than held for every threshold.
func sweepParallel(ctx context.Context, in Input, truth []annotation.Set, cfg config, out *Outcome) error {
	results := make([]ThresholdResult, len(cfg.grid))
	errs := make([]error, len(cfg.grid))

	var g errgroup.Group
	g.SetLimit(cfg.workers)
	for i, t := range cfg.grid {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			results[i], _, errs[i] = evaluateAt(in, truth, t)
			return nil
		})
	}
	_ = g.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	improved := false
	for _, r := range results {
		if out.observe(r) {
			improved = true
		}
		if cfg.progress != nil {
			cfg.progress(r)
		}
	}
	if !improved {
		return nil
	}

	preds, err := predictAll(in, out.ThresholdAtFmax)
	if err != nil {
		return err
	}
	out.BestPredictions = preds
	return nil
}

// observe folds r into the running optimum and reports whether r is the new
// best F-score.
func (o *Outcome) observe(r ThresholdResult) bool {
	o.Results = append(o.Results, r)
	o.Curve = append(o.Curve, CurvePoint{Threshold: r.Threshold, Precision: r.Precision, Recall: r.Recall})

	if o.Smin > r.S {
		o.Smin = r.S
		o.ThresholdAtSmin = r.Threshold
	}
	if o.Fmax < r.FScore {
		o.Fmax = r.FScore
		o.ThresholdAtFmax = r.Threshold
		o.Best = r
		return true
	}
	return false
}

func evaluateAt(in Input, truth []annotation.Set, t float64) (ThresholdResult, []annotation.Set, error) {
	preds, err := predictAll(in, t)
	if err != nil {
		return ThresholdResult{}, nil, fmt.Errorf("threshold %.2f: %w", t, err)
	}

	m, err := Score(in.IC, truth, preds)
	if err != nil {
		var se *SampleError
		if errors.As(err, &se) {
			se.Gene = in.Samples[se.Index].Gene
		}
		return ThresholdResult{}, nil, fmt.Errorf("threshold %.2f: %w", t, err)
	}
	return ThresholdResult{Threshold: t, Metrics: m}, preds, nil
}

func predictAll(in Input, t float64) ([]annotation.Set, error) {
	preds := make([]annotation.Set, len(in.Samples))
	for i := range in.Samples {
		p, err := Expand(in.Ontology, in.Rules, in.Samples[i].Evidence, t)
		if err != nil {
			return nil, &SampleError{Index: i, Gene: in.Samples[i].Gene, Err: err}
		}
		preds[i] = p
	}
	return preds, nil
}

// groundTruth closes every truth set once, and applies the vocabulary
// restriction if one is set.
func groundTruth(in Input) ([]annotation.Set, error) {
	truth := make([]annotation.Set, len(in.Samples))
	for i := range in.Samples {
		closed, err := Closure(in.Ontology, in.Samples[i].Truth)
		if err != nil {
			return nil, &SampleError{Index: i, Gene: in.Samples[i].Gene, Err: fmt.Errorf("close ground truth: %w", err)}
		}
		truth[i] = closed
	}
	if in.Vocabulary == nil {
		return truth, nil
	}

	keep, err := Closure(in.Ontology, in.Vocabulary)
	if err != nil {
		return nil, fmt.Errorf("close vocabulary: %w", err)
	}
	return Restrict(truth, keep), nil
}
