package annotation

import "fmt"

// Scored is one piece of raw prediction evidence: a source-domain term and
// the model's confidence in it.
type Scored struct {
	Source string
	Score  float64
}

// String encodes the evidence the way it appears in prediction tables.
func (s Scored) String() string {
	return fmt.Sprintf("%s|%g", s.Source, s.Score)
}
