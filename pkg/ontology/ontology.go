// Package ontology loads OBO term hierarchies and answers ancestor-closure
// and information-content queries over them.
package ontology

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/yumyai/annoteval/pkg/annotation"
)

// DefaultCacheSize is the number of ancestor closures kept in memory.
// HPO has ~18k terms, so the default holds the whole ontology.
const DefaultCacheSize = 32768

// Term is one non-obsolete ontology term.
type Term struct {
	ID        string
	Name      string
	Namespace string
	AltIDs    []string
	Parents   []string // is_a targets plus any enabled relationship targets
	Obsolete  bool
}

// Ontology is an immutable term graph. It is safe for concurrent use.
type Ontology struct {
	terms    map[string]*Term
	alias    map[string]string // alt_id -> primary id
	closures *lru.Cache[string, []string]
}

func newOntology(terms []*Term, cacheSize int) (*Ontology, error) {
	cache, err := lru.New[string, []string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("closure cache: %w", err)
	}

	o := &Ontology{
		terms:    make(map[string]*Term, len(terms)),
		alias:    make(map[string]string),
		closures: cache,
	}
	for _, t := range terms {
		o.terms[t.ID] = t
	}
	for _, t := range terms {
		for _, alt := range t.AltIDs {
			if _, primary := o.terms[alt]; !primary {
				o.alias[alt] = t.ID
			}
		}
	}
	return o, nil
}

// Len returns the number of terms.
func (o *Ontology) Len() int {
	return len(o.terms)
}

// Resolve maps a term ID or alt ID to its primary ID.
func (o *Ontology) Resolve(id string) (string, bool) {
	if _, ok := o.terms[id]; ok {
		return id, true
	}
	primary, ok := o.alias[id]
	return primary, ok
}

// Has reports whether id (or an alt ID) names a term.
func (o *Ontology) Has(id string) bool {
	_, ok := o.Resolve(id)
	return ok
}

// Term looks up a term by primary or alt ID.
func (o *Ontology) Term(id string) (*Term, bool) {
	primary, ok := o.Resolve(id)
	if !ok {
		return nil, false
	}
	return o.terms[primary], true
}

// Parents returns the direct parents of id that are present in the
// ontology, resolved to primary IDs.
func (o *Ontology) Parents(id string) ([]string, error) {
	t, ok := o.Term(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTerm, id)
	}
	parents := make([]string, 0, len(t.Parents))
	for _, p := range t.Parents {
		if primary, ok := o.Resolve(p); ok {
			parents = append(parents, primary)
		}
	}
	return parents, nil
}

// Ancestors returns the closure of id under the parent relation, including
// the term itself. The returned set is owned by the caller.
func (o *Ontology) Ancestors(id string) (annotation.Set, error) {
	primary, ok := o.Resolve(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTerm, id)
	}
	if ids, ok := o.closures.Get(primary); ok {
		return annotation.NewSet(ids...), nil
	}

	closure := o.walk(primary)
	o.closures.Add(primary, closure.Sorted())
	return closure, nil
}

// walk does a breadth-first traversal towards the roots.
func (o *Ontology) walk(start string) annotation.Set {
	seen := annotation.NewSet()
	queue := []string{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen.Has(id) {
			continue
		}
		seen.Add(id)
		for _, p := range o.terms[id].Parents {
			if primary, ok := o.Resolve(p); ok && !seen.Has(primary) {
				queue = append(queue, primary)
			}
		}
	}
	return seen
}
