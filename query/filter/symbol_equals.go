package filter

import (
	"fmt"

	silo "github.com/genspectrum/silo"
	"github.com/genspectrum/silo/query/operators"
	"github.com/genspectrum/silo/storage"
	"github.com/genspectrum/silo/symbols"
)

// compileSymbolEquals emits the operator for "symbol s at 0-based position
// pos" against one segment partition, applying the required rewrites:
//
//   - upper-bound mode expands the symbol into the union over its ambiguity
//     set, compiled exactly;
//   - the missing symbol is answered from the per-sequence missing bitmaps;
//   - a flipped symbol compiles to the complement of its stored bitmap;
//   - an elided (deleted) symbol compiles to the complement of the union of
//     every other symbol at the position.
func compileSymbolEquals[S ~uint8](
	store *storage.SequenceStorePartition[S],
	sequenceCount uint32,
	pos int,
	symbol S,
	mode AmbiguityMode,
) operators.Operator {
	alphabet := store.Alphabet()

	if mode == ModeUpperBound {
		set := alphabet.AmbiguitySet(symbol)
		children := make([]operators.Operator, 0, len(set))
		for _, s := range set {
			children = append(children, compileSymbolEquals(store, sequenceCount, pos, s, ModeExact))
		}
		if len(children) == 1 {
			return children[0]
		}
		return operators.NewUnion(children)
	}

	if symbol == alphabet.Missing() {
		return operators.NewBitmapSelection(store.MissingBitmaps(), operators.ModeContains, uint32(pos))
	}

	position := store.PositionAt(pos)
	if position.IsDeleted(symbol) {
		others := make([]operators.Operator, 0, alphabet.Count()-1)
		for _, s := range alphabet.Symbols() {
			if s == symbol {
				continue
			}
			others = append(others, compileSymbolEquals(store, sequenceCount, pos, s, ModeExact))
		}
		return operators.NewComplement(operators.NewUnion(others), sequenceCount)
	}
	if position.IsFlipped(symbol) {
		return operators.NewComplement(
			operators.NewIndexScan(position.Bitmap(symbol), sequenceCount),
			sequenceCount,
		)
	}
	return operators.NewIndexScan(position.Bitmap(symbol), sequenceCount)
}

// NucleotideSymbolEquals matches sequences holding one nucleotide symbol at
// a 1-based position. A nil Symbol (the '.' query) stands for the reference
// symbol at the position; an absent segment name selects the configured
// default.
type NucleotideSymbolEquals struct {
	SequenceName string
	Position     uint32
	Symbol       *symbols.Nucleotide
}

func (f *NucleotideSymbolEquals) Compile(db *silo.Database, part *storage.DatabasePartition, mode AmbiguityMode) (operators.Operator, error) {
	name := f.SequenceName
	if name == "" {
		name = db.DefaultNucleotideSequence()
	}
	store, ok := part.NucSequences[name]
	if !ok {
		return nil, silo.NewQueryParseError("the database does not contain the nucleotide sequence %q", name)
	}
	if f.Position == 0 || int(f.Position) > store.Length() {
		return nil, silo.NewQueryParseError(
			"NucleotideEquals position %d is out of bounds [1, %d]", f.Position, store.Length(),
		)
	}

	symbol := store.Reference()[f.Position-1]
	if f.Symbol != nil {
		symbol = *f.Symbol
	}
	return compileSymbolEquals(store, part.SequenceCount, int(f.Position-1), symbol, mode), nil
}

func (f *NucleotideSymbolEquals) String() string {
	prefix := ""
	if f.SequenceName != "" {
		prefix = f.SequenceName + ":"
	}
	symbol := "."
	if f.Symbol != nil {
		symbol = f.Symbol.String()
	}
	return fmt.Sprintf("%s%d%s", prefix, f.Position, symbol)
}

// AminoAcidSymbolEquals matches sequences holding one amino-acid symbol at
// a 1-based position of a gene segment.
type AminoAcidSymbolEquals struct {
	SequenceName string
	Position     uint32
	Symbol       *symbols.AminoAcid
}

func (f *AminoAcidSymbolEquals) Compile(db *silo.Database, part *storage.DatabasePartition, mode AmbiguityMode) (operators.Operator, error) {
	store, ok := part.AASequences[f.SequenceName]
	if !ok {
		return nil, silo.NewQueryParseError("the database does not contain the amino-acid sequence %q", f.SequenceName)
	}
	if f.Position == 0 || int(f.Position) > store.Length() {
		return nil, silo.NewQueryParseError(
			"AminoAcidEquals position %d is out of bounds [1, %d]", f.Position, store.Length(),
		)
	}

	symbol := store.Reference()[f.Position-1]
	if f.Symbol != nil {
		symbol = *f.Symbol
	}
	return compileSymbolEquals(store, part.SequenceCount, int(f.Position-1), symbol, mode), nil
}

func (f *AminoAcidSymbolEquals) String() string {
	symbol := "."
	if f.Symbol != nil {
		symbol = f.Symbol.String()
	}
	return fmt.Sprintf("%s:%d%s", f.SequenceName, f.Position, symbol)
}

// HasMutation matches sequences differing from the reference at a 1-based
// position. It rewrites to the negation of equality with the reference
// symbol, so sequences with missing data at the position count as mutated.
type HasMutation struct {
	SequenceName string
	Position     uint32
}

func (f *HasMutation) Compile(db *silo.Database, part *storage.DatabasePartition, mode AmbiguityMode) (operators.Operator, error) {
	name := f.SequenceName
	if name == "" {
		name = db.DefaultNucleotideSequence()
	}
	store, ok := part.NucSequences[name]
	if !ok {
		return nil, silo.NewQueryParseError("the database does not contain the nucleotide sequence %q", name)
	}
	if f.Position == 0 || int(f.Position) > store.Length() {
		return nil, silo.NewQueryParseError(
			"HasMutation position %d is out of bounds [1, %d]", f.Position, store.Length(),
		)
	}

	reference := store.Reference()[f.Position-1]
	rewritten := &Negation{Child: &NucleotideSymbolEquals{
		SequenceName: name,
		Position:     f.Position,
		Symbol:       &reference,
	}}
	return rewritten.Compile(db, part, mode)
}

func (f *HasMutation) String() string {
	prefix := ""
	if f.SequenceName != "" {
		prefix = f.SequenceName + ":"
	}
	return fmt.Sprintf("HasMutation(%s%d)", prefix, f.Position)
}
