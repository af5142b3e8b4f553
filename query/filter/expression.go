// Package filter implements the query filter AST: JSON-decoded expression
// nodes that compile, once per partition, into bitmap operator trees.
package filter

import (
	silo "github.com/genspectrum/silo"
	"github.com/genspectrum/silo/query/operators"
	"github.com/genspectrum/silo/storage"
)

// AmbiguityMode selects how symbol comparisons treat ambiguity codes.
//
// In upper-bound mode a queried symbol also matches sequences stored under
// any ambiguity code covering it, so the filter never excludes a possibly
// matching sequence. Negation inverts upper bound into lower bound.
type AmbiguityMode uint8

const (
	// ModeExact matches stored symbols exactly.
	ModeExact AmbiguityMode = iota
	// ModeUpperBound expands a symbol into every code that may represent it.
	ModeUpperBound
	// ModeLowerBound matches only certain occurrences; like ModeExact for
	// concrete symbols.
	ModeLowerBound
)

// Invert flips upper and lower bound; exact stays exact.
func (m AmbiguityMode) Invert() AmbiguityMode {
	switch m {
	case ModeUpperBound:
		return ModeLowerBound
	case ModeLowerBound:
		return ModeUpperBound
	default:
		return ModeExact
	}
}

// Expression is one node of the filter AST. Compile emits an operator tree
// against one partition's stores.
type Expression interface {
	Compile(db *silo.Database, part *storage.DatabasePartition, mode AmbiguityMode) (operators.Operator, error)
	String() string
}
