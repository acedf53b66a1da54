// Package dataset reads the tab-separated training, test and vocabulary
// tables consumed by an evaluation run.
package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/yumyai/annoteval/pkg/annotation"
)

// Column names. The second spelling is the one used by the DeepGO-style
// tables this tool was first run against.
const (
	ColumnGene        = "gene"
	ColumnAnnotations = "annotations"
	ColumnPredictions = "predictions"
)

var columnAliases = map[string][]string{
	ColumnGene:        {ColumnGene, "genes"},
	ColumnAnnotations: {ColumnAnnotations, "hp_annotations"},
	ColumnPredictions: {ColumnPredictions, "deepgo_annotations"},
}

const (
	listSeparator     = ","
	evidenceSeparator = "|"
)

var (
	// ErrMalformedRecord is returned for a row that cannot be decoded.
	ErrMalformedRecord = errors.New("dataset: malformed record")

	// ErrMissingColumn is returned when a required header column is absent.
	ErrMissingColumn = errors.New("dataset: missing column")
)

// RecordError locates a decoding failure in the input table.
type RecordError struct {
	Line   int
	Column string
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d column %q: %v", e.Line, e.Column, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Sample is one evaluated gene: its ground truth and raw prediction
// evidence. Fields keeps the row as read, aligned with Table.Header.
type Sample struct {
	Gene     string
	Truth    annotation.Set
	Evidence []annotation.Scored
	Fields   []string
}

// Table is an ordered test set.
type Table struct {
	Header  []string
	Samples []Sample
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false
	return cr
}

type header map[string]int

func readHeader(cr *csv.Reader) (header, []string, error) {
	names, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%w: empty table", ErrMalformedRecord)
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	h := make(header, len(names))
	for i, n := range names {
		h[strings.TrimSpace(n)] = i
	}
	return h, names, nil
}

// index returns the position of a column by its canonical name or alias.
func (h header) index(column string) (int, error) {
	for _, name := range columnAliases[column] {
		if i, ok := h[name]; ok {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrMissingColumn, column)
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return record[i]
}

// ParseTerms splits a comma-separated term list. Empty items are ignored.
func ParseTerms(s string) annotation.Set {
	set := annotation.NewSet()
	for _, item := range strings.Split(s, listSeparator) {
		if item = strings.TrimSpace(item); item != "" {
			set.Add(item)
		}
	}
	return set
}

// EncodeTerms is the inverse of ParseTerms, with members sorted.
func EncodeTerms(s annotation.Set) string {
	return strings.Join(s.Sorted(), listSeparator)
}

// ParseEvidence decodes a comma-separated list of "sourceID|score" items.
func ParseEvidence(s string) ([]annotation.Scored, error) {
	var out []annotation.Scored
	for _, item := range strings.Split(s, listSeparator) {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		source, rawScore, ok := strings.Cut(item, evidenceSeparator)
		if !ok || source == "" {
			return nil, fmt.Errorf("%w: evidence %q is not source|score", ErrMalformedRecord, item)
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(rawScore), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: evidence %q: %v", ErrMalformedRecord, item, err)
		}
		if math.IsNaN(score) || score < 0 || score > 1 {
			return nil, fmt.Errorf("%w: evidence %q: score outside [0,1]", ErrMalformedRecord, item)
		}
		out = append(out, annotation.Scored{Source: strings.TrimSpace(source), Score: score})
	}
	return out, nil
}

// EncodeEvidence is the inverse of ParseEvidence.
func EncodeEvidence(evidence []annotation.Scored) string {
	items := make([]string, len(evidence))
	for i, e := range evidence {
		items[i] = e.String()
	}
	return strings.Join(items, listSeparator)
}

// ReadTraining reads the annotations column of a training table.
func ReadTraining(r io.Reader) ([]annotation.Set, error) {
	cr := newReader(r)
	h, _, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	col, err := h.index(ColumnAnnotations)
	if err != nil {
		return nil, err
	}

	var sets []annotation.Set
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read training row: %w", err)
		}
		sets = append(sets, ParseTerms(field(record, col)))
	}
	return sets, nil
}

// ReadSamples reads a test table with gene, annotations and predictions
// columns.
func ReadSamples(r io.Reader) (*Table, error) {
	cr := newReader(r)
	h, names, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	geneCol, err := h.index(ColumnGene)
	if err != nil {
		return nil, err
	}
	truthCol, err := h.index(ColumnAnnotations)
	if err != nil {
		return nil, err
	}
	predCol, err := h.index(ColumnPredictions)
	if err != nil {
		return nil, err
	}

	table := &Table{Header: names}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read sample row: %w", err)
		}
		line, _ := cr.FieldPos(0)

		evidence, err := ParseEvidence(field(record, predCol))
		if err != nil {
			return nil, &RecordError{Line: line, Column: names[predCol], Err: err}
		}
		table.Samples = append(table.Samples, Sample{
			Gene:     strings.TrimSpace(field(record, geneCol)),
			Truth:    ParseTerms(field(record, truthCol)),
			Evidence: evidence,
			Fields:   record,
		})
	}
	return table, nil
}

// ReadTerms reads a vocabulary: one term per line, first field only.
func ReadTerms(r io.Reader) (annotation.Set, error) {
	terms := annotation.NewSet()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		terms.Add(fields[0])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan terms: %w", err)
	}
	return terms, nil
}

func LoadTraining(path string) ([]annotation.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open training table: %w", err)
	}
	defer f.Close()
	sets, err := ReadTraining(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sets, nil
}

func LoadSamples(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open test table: %w", err)
	}
	defer f.Close()
	table, err := ReadSamples(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

func LoadTerms(path string) (annotation.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open terms: %w", err)
	}
	defer f.Close()
	terms, err := ReadTerms(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return terms, nil
}
