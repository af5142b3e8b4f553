package filter

import (
	"fmt"
	"strings"

	silo "github.com/genspectrum/silo"
	"github.com/genspectrum/silo/query/operators"
	"github.com/genspectrum/silo/storage"
	"github.com/genspectrum/silo/symbols"
)

// PatternSearch matches sequences holding a short literal symbol pattern
// starting at a 1-based position. It rewrites to the conjunction of
// per-position symbol equalities, so the ambiguity mode applies to every
// position of the pattern.
type PatternSearch struct {
	SequenceName string
	Position     uint32
	Pattern      []symbols.Nucleotide
}

func (f *PatternSearch) Compile(db *silo.Database, part *storage.DatabasePartition, mode AmbiguityMode) (operators.Operator, error) {
	name := f.SequenceName
	if name == "" {
		name = db.DefaultNucleotideSequence()
	}
	store, ok := part.NucSequences[name]
	if !ok {
		return nil, silo.NewQueryParseError("the database does not contain the nucleotide sequence %q", name)
	}
	if len(f.Pattern) == 0 {
		return nil, silo.NewQueryParseError("PatternSearch requires a non-empty pattern")
	}
	if f.Position == 0 || int(f.Position)+len(f.Pattern)-1 > store.Length() {
		return nil, silo.NewQueryParseError(
			"PatternSearch at position %d with %d symbols exceeds the segment length %d",
			f.Position, len(f.Pattern), store.Length(),
		)
	}

	children := make([]Expression, len(f.Pattern))
	for i := range f.Pattern {
		children[i] = &NucleotideSymbolEquals{
			SequenceName: name,
			Position:     f.Position + uint32(i),
			Symbol:       &f.Pattern[i],
		}
	}
	return (&And{Children: children}).Compile(db, part, mode)
}

func (f *PatternSearch) String() string {
	var sb strings.Builder
	for _, s := range f.Pattern {
		sb.WriteString(s.String())
	}
	return fmt.Sprintf("PatternSearch(%d, %s)", f.Position, sb.String())
}
