package evaluate

import (
	"errors"
	"fmt"

	"github.com/yumyai/annoteval/pkg/annotation"
	"github.com/yumyai/annoteval/pkg/dataset"
	"github.com/yumyai/annoteval/pkg/rules"
)

var errUnknown = errors.New("unknown term")

// graph is a map-backed ontology: term -> direct parents, term -> IC.
type graph struct {
	parents map[string][]string
	ic      map[string]float64
}

func (g graph) Ancestors(id string) (annotation.Set, error) {
	if _, ok := g.parents[id]; !ok {
		return nil, fmt.Errorf("%w: %s", errUnknown, id)
	}
	seen := annotation.NewSet()
	queue := []string{id}
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		if seen.Has(t) {
			continue
		}
		seen.Add(t)
		queue = append(queue, g.parents[t]...)
	}
	return seen, nil
}

func (g graph) IC(id string) (float64, error) {
	if _, ok := g.parents[id]; !ok {
		return 0, fmt.Errorf("%w: %s", errUnknown, id)
	}
	return g.ic[id], nil
}

// testGraph:
//
//	R
//	├── A ── C
//	└── B ── D
func testGraph() graph {
	return graph{
		parents: map[string][]string{
			"R": nil,
			"A": {"R"},
			"B": {"R"},
			"C": {"A"},
			"D": {"B"},
		},
		ic: map[string]float64{"R": 0, "A": 1, "B": 1, "C": 2, "D": 2},
	}
}

func testRules() rules.Table {
	return rules.Table{
		"GO:1": annotation.NewSet("C"),
		"GO:2": annotation.NewSet("D"),
		"GO:3": annotation.NewSet("B"),
	}
}

func testSamples() []dataset.Sample {
	return []dataset.Sample{
		{
			Gene:     "G0",
			Truth:    annotation.NewSet("C"),
			Evidence: []annotation.Scored{{Source: "GO:1", Score: 0.8}, {Source: "GO:2", Score: 0.3}},
		},
		{
			Gene:     "G1",
			Truth:    annotation.NewSet("D"),
			Evidence: []annotation.Scored{{Source: "GO:2", Score: 0.6}, {Source: "GO:1", Score: 0.1}},
		},
		{
			Gene:     "G2",
			Truth:    annotation.NewSet(),
			Evidence: []annotation.Scored{{Source: "GO:3", Score: 0.9}, {Source: "GO:404", Score: 1}},
		},
	}
}

func testInput() Input {
	g := testGraph()
	return Input{Ontology: g, IC: g, Rules: testRules(), Samples: testSamples()}
}

// flat is a parentless ontology where every listed term is its own closure.
func flat(ic map[string]float64) graph {
	g := graph{parents: map[string][]string{}, ic: ic}
	for id := range ic {
		g.parents[id] = nil
	}
	return g
}
