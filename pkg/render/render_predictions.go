package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/yumyai/annoteval/internal/util"
	"github.com/yumyai/annoteval/pkg/annotation"
	"github.com/yumyai/annoteval/pkg/dataset"
)

// ColumnBestPredictions is appended to the test table header.
const ColumnBestPredictions = "best_predictions"

func newWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	return cw
}

// Predictions writes the test table back out with the best-threshold
// prediction set of each sample in an extra column. best may be nil, which
// leaves the column empty.
func Predictions(w io.Writer, table *dataset.Table, best []annotation.Set) error {
	if best != nil && len(best) != len(table.Samples) {
		return fmt.Errorf("render: %d prediction sets for %d samples", len(best), len(table.Samples))
	}

	cw := newWriter(w)
	header := append(append([]string{}, table.Header...), ColumnBestPredictions)
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, s := range table.Samples {
		row := make([]string, len(table.Header)+1)
		copy(row, s.Fields)
		if best != nil {
			row[len(row)-1] = dataset.EncodeTerms(best[i])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePredictions is Predictions into a file, creating parent directories.
func WritePredictions(path string, table *dataset.Table, best []annotation.Set) error {
	return writeFile(path, func(w io.Writer) error {
		return Predictions(w, table, best)
	})
}

func writeFile(path string, fn func(io.Writer) error) (err error) {
	if err := util.EnsureParentDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(f)
}
