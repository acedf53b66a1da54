package render

import (
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yumyai/annoteval/pkg/evaluate"
)

// Inputs names the files a run was computed from.
type Inputs struct {
	Ontology string `yaml:"ontology"`
	Train    string `yaml:"train"`
	Test     string `yaml:"test"`
	Rules    string `yaml:"rules"`
	Terms    string `yaml:"terms,omitempty"`
}

type Best struct {
	Threshold float64 `yaml:"threshold"`
	Precision float64 `yaml:"precision"`
	Recall    float64 `yaml:"recall"`
	FScore    float64 `yaml:"fscore"`
}

// Summary is the YAML run report.
type Summary struct {
	RunID     string    `yaml:"run_id"`
	CreatedAt time.Time `yaml:"created_at"`
	Inputs    Inputs    `yaml:"inputs"`

	Samples   int `yaml:"samples"`
	Evaluated int `yaml:"evaluated"` // samples with non-empty ground truth

	Fmax            float64 `yaml:"fmax"`
	ThresholdAtFmax float64 `yaml:"threshold_fmax"`
	Smin            float64 `yaml:"smin"`
	ThresholdAtSmin float64 `yaml:"threshold_smin"`
	AUPR            float64 `yaml:"aupr"`
	Best            Best    `yaml:"best"`
}

func NewSummary(runID string, in Inputs, samples int, out *evaluate.Outcome) Summary {
	s := Summary{
		RunID:           runID,
		CreatedAt:       time.Now().UTC(),
		Inputs:          in,
		Samples:         samples,
		Fmax:            out.Fmax,
		ThresholdAtFmax: out.ThresholdAtFmax,
		Smin:            out.Smin,
		ThresholdAtSmin: out.ThresholdAtSmin,
		AUPR:            out.AUPR,
		Best: Best{
			Threshold: out.Best.Threshold,
			Precision: out.Best.Precision,
			Recall:    out.Best.Recall,
			FScore:    out.Best.FScore,
		},
	}
	if len(out.Results) > 0 {
		s.Evaluated = out.Results[0].Total
	}
	return s
}

func Report(w io.Writer, s Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

func WriteReport(path string, s Summary) error {
	return writeFile(path, func(w io.Writer) error {
		return Report(w, s)
	})
}
