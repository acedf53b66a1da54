package evaluate

import (
	"github.com/yumyai/annoteval/pkg/annotation"
)

// AncestorIndex answers ancestor-closure queries. The returned set includes
// the term itself and is owned by the caller.
type AncestorIndex interface {
	Ancestors(id string) (annotation.Set, error)
}

// ICSource answers information-content queries.
type ICSource interface {
	IC(id string) (float64, error)
}

// RuleSource maps a source-domain term to target ontology terms.
type RuleSource interface {
	Targets(source string) (annotation.Set, bool)
}

// Closure returns the union of the ancestor closures of every term in terms.
func Closure(anc AncestorIndex, terms annotation.Set) (annotation.Set, error) {
	closed := annotation.NewSet()
	for id := range terms {
		// closed is a union of closures, so a member's ancestors are already in.
		if closed.Has(id) {
			continue
		}
		ancestors, err := anc.Ancestors(id)
		if err != nil {
			return nil, err
		}
		closed.AddAll(ancestors)
	}
	return closed, nil
}

// Expand turns one sample's raw evidence into its predicted annotation set at
// threshold: evidence scoring at least threshold contributes the rule targets
// of its source term, and the union is closed under ancestors. Sources
// without a rule are dropped.
func Expand(anc AncestorIndex, rules RuleSource, evidence []annotation.Scored, threshold float64) (annotation.Set, error) {
	targets := annotation.NewSet()
	for _, e := range evidence {
		if e.Score < threshold {
			continue
		}
		mapped, ok := rules.Targets(e.Source)
		if !ok {
			continue
		}
		targets.AddAll(mapped)
	}
	return Closure(anc, targets)
}

// Restrict intersects every set with keep. It is used to limit ground truth
// to the closure of a model's term vocabulary.
func Restrict(sets []annotation.Set, keep annotation.Set) []annotation.Set {
	out := make([]annotation.Set, len(sets))
	for i, s := range sets {
		out[i] = s.Intersect(keep)
	}
	return out
}
