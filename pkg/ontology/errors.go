package ontology

import "errors"

var (
	// ErrUnknownTerm is returned when a term ID (or alt ID) is not part of the
	// loaded ontology.
	ErrUnknownTerm = errors.New("ontology: unknown term")

	// ErrEmptyOntology is returned when an OBO file holds no usable terms.
	ErrEmptyOntology = errors.New("ontology: no terms found")
)
