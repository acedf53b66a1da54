package render

import (
	"io"
	"strconv"

	"github.com/yumyai/annoteval/pkg/evaluate"
)

var curveHeader = []string{"threshold", "precision", "recall", "fscore", "s"}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Curve writes one row per threshold in the order given, which for a search
// outcome is grid order.
func Curve(w io.Writer, results []evaluate.ThresholdResult) error {
	cw := newWriter(w)
	if err := cw.Write(curveHeader); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.Write([]string{
			formatFloat(r.Threshold),
			formatFloat(r.Precision),
			formatFloat(r.Recall),
			formatFloat(r.FScore),
			formatFloat(r.S),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteCurve(path string, results []evaluate.ThresholdResult) error {
	return writeFile(path, func(w io.Writer) error {
		return Curve(w, results)
	})
}
