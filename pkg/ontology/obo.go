package ontology

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

const scannerBufferSize = 1 << 20 // 1 MB

type parseConfig struct {
	relationships map[string]bool
	cacheSize     int
}

func defaultParseConfig() parseConfig {
	return parseConfig{
		relationships: map[string]bool{},
		cacheSize:     DefaultCacheSize,
	}
}

// ParseOption configures ParseOBO.
type ParseOption func(*parseConfig)

// WithRelationships makes the named relationship types (e.g. "part_of")
// count as parent edges next to is_a.
func WithRelationships(types ...string) ParseOption {
	return func(c *parseConfig) {
		for _, t := range types {
			c.relationships[t] = true
		}
	}
}

// WithCacheSize bounds the number of memoized ancestor closures.
func WithCacheSize(n int) ParseOption {
	return func(c *parseConfig) {
		if n > 0 {
			c.cacheSize = n
		}
	}
}

// Load parses the OBO file at path.
func Load(path string, opts ...ParseOption) (*Ontology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ontology: %w", err)
	}
	defer f.Close()

	ont, err := ParseOBO(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return ont, nil
}

// ParseOBO reads [Term] stanzas from an OBO 1.2/1.4 document. Obsolete terms
// are dropped and other stanza types are skipped.
func ParseOBO(r io.Reader, opts ...ParseOption) (*Ontology, error) {
	cfg := defaultParseConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, scannerBufferSize), scannerBufferSize)

	var (
		terms []*Term
		cur   *Term // nil outside a [Term] stanza
	)
	flush := func() {
		if cur != nil && cur.ID != "" && !cur.Obsolete {
			terms = append(terms, cur)
		}
		cur = nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "["):
			// A header closes the previous stanza even without a blank line.
			flush()
			if line == "[Term]" {
				cur = &Term{}
			}
		case cur != nil:
			parseTag(cur, line, cfg)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan obo: %w", err)
	}
	flush()
	if len(terms) == 0 {
		return nil, ErrEmptyOntology
	}

	return newOntology(terms, cfg.cacheSize)
}

func parseTag(t *Term, line string, cfg parseConfig) {
	key, val, ok := strings.Cut(line, ":")
	if !ok {
		return
	}
	val = stripComment(val)

	switch key {
	case "id":
		t.ID = val
	case "name":
		t.Name = val
	case "namespace":
		t.Namespace = val
	case "alt_id":
		t.AltIDs = append(t.AltIDs, val)
	case "is_a":
		if id := firstField(val); id != "" {
			t.Parents = append(t.Parents, id)
		}
	case "relationship":
		// relationship: part_of HP:0000001 ! name
		fields := strings.Fields(val)
		if len(fields) >= 2 && cfg.relationships[fields[0]] {
			t.Parents = append(t.Parents, fields[1])
		}
	case "is_obsolete":
		t.Obsolete = val == "true"
	}
}

// stripComment drops the trailing "! comment" and surrounding whitespace.
func stripComment(val string) string {
	if i := strings.Index(val, " !"); i >= 0 {
		val = val[:i]
	}
	return strings.TrimSpace(val)
}

func firstField(val string) string {
	fields := strings.Fields(val)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
