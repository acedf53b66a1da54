// Package rules loads the source-term to target-term mapping used to turn
// predictions in one ontology into annotations in another.
package rules

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yumyai/annoteval/pkg/annotation"
)

// ErrMalformedLine is returned for a rule line without both columns.
var ErrMalformedLine = errors.New("rules: malformed line")

// LineError points at the offending line of a rule file.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("rule line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Table maps a source term to the set of target terms it implies. It is not
// modified after loading.
type Table map[string]annotation.Set

// Targets returns the targets of source and whether source has a rule.
func (t Table) Targets(source string) (annotation.Set, bool) {
	targets, ok := t[source]
	return targets, ok
}

// Len returns the number of distinct source terms.
func (t Table) Len() int {
	return len(t)
}

// Load reads the rule file at path.
func Load(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules: %w", err)
	}
	defer f.Close()

	table, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return table, nil
}

// Parse reads whitespace-separated "source target" pairs. IDs are written
// with '_' in place of ':' (GO_0008150), and are normalised back. A source
// may appear on many lines. Blank lines and '#' comments are skipped; extra
// columns are ignored.
func Parse(r io.Reader) (Table, error) {
	table := make(Table)
	scanner := bufio.NewScanner(r)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, &LineError{Line: lineNo, Text: line, Err: ErrMalformedLine}
		}

		source := NormalizeID(fields[0])
		target := NormalizeID(fields[1])
		if _, ok := table[source]; !ok {
			table[source] = annotation.NewSet()
		}
		table[source].Add(target)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan rules: %w", err)
	}

	return table, nil
}

// NormalizeID turns "GO_0008150" into "GO:0008150".
func NormalizeID(id string) string {
	return strings.ReplaceAll(id, "_", ":")
}
