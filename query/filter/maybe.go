package filter

import (
	"fmt"

	silo "github.com/genspectrum/silo"
	"github.com/genspectrum/silo/query/operators"
	"github.com/genspectrum/silo/storage"
)

// Maybe compiles its child in upper-bound mode: symbol comparisons expand
// ambiguity codes, so the result contains every sequence that could match.
type Maybe struct {
	Child Expression
}

func (f *Maybe) Compile(db *silo.Database, part *storage.DatabasePartition, mode AmbiguityMode) (operators.Operator, error) {
	if mode == ModeLowerBound {
		// Under an enclosing negation the sound direction flips.
		return f.Child.Compile(db, part, ModeLowerBound)
	}
	return f.Child.Compile(db, part, ModeUpperBound)
}

func (f *Maybe) String() string {
	return fmt.Sprintf("Maybe(%s)", f.Child)
}
