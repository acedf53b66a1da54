package ontology

import (
	"fmt"
	"math"

	"github.com/yumyai/annoteval/pkg/annotation"
)

// ICTable holds information content computed from a reference corpus. It is
// immutable once built.
type ICTable struct {
	ont *Ontology
	ic  map[string]float64
}

// CalculateIC derives information content from the annotation frequency of
// each term in corpus. For a term annotated n times whose direct parents were
// annotated c_1..c_k times, IC = log2(min(c_i) / n); roots get 0. The corpus
// is expected to be ancestor closed.
func (o *Ontology) CalculateIC(corpus []annotation.Set) (*ICTable, error) {
	counts := make(map[string]int)
	for i, annots := range corpus {
		for id := range annots {
			primary, ok := o.Resolve(id)
			if !ok {
				return nil, fmt.Errorf("corpus entry %d: %w: %s", i, ErrUnknownTerm, id)
			}
			counts[primary]++
		}
	}

	ic := make(map[string]float64, len(counts))
	for id, n := range counts {
		parents, err := o.Parents(id)
		if err != nil {
			return nil, err
		}
		minN := n
		if len(parents) > 0 {
			minN = math.MaxInt
			for _, p := range parents {
				minN = min(minN, counts[p])
			}
		}
		ic[id] = informationContent(minN, n)
	}

	return &ICTable{ont: o, ic: ic}, nil
}

// informationContent is clamped at zero: a parent seen less often than its
// child only happens with a corpus that was not ancestor closed.
func informationContent(parentCount, n int) float64 {
	if parentCount <= n {
		return 0
	}
	return math.Log2(float64(parentCount) / float64(n))
}

// IC returns the information content of id. Terms that exist in the
// ontology but never occur in the corpus carry zero IC.
func (t *ICTable) IC(id string) (float64, error) {
	primary, ok := t.ont.Resolve(id)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTerm, id)
	}
	return t.ic[primary], nil
}

// Len returns the number of terms with a computed IC.
func (t *ICTable) Len() int {
	return len(t.ic)
}
