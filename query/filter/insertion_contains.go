package filter

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	silo "github.com/genspectrum/silo"
	"github.com/genspectrum/silo/query/operators"
	"github.com/genspectrum/silo/storage"
	"github.com/genspectrum/silo/storage/column"
)

// InsertionContains matches sequences carrying an insertion at a 1-based
// position whose text matches Pattern (regular expression with substring
// semantics). Column selects the insertion column; it may be omitted when
// the schema has exactly one.
type InsertionContains struct {
	Column   string
	Position uint32
	Pattern  string
}

func (f *InsertionContains) resolveColumn(part *storage.DatabasePartition) (*column.InsertionColumnPartition, error) {
	if f.Column != "" {
		col, ok := part.Columns.Insertions[f.Column]
		if !ok {
			return nil, silo.NewQueryParseError("the database does not contain the insertion column %q", f.Column)
		}
		return col, nil
	}
	if len(part.Columns.Insertions) == 1 {
		for _, col := range part.Columns.Insertions {
			return col, nil
		}
	}
	return nil, silo.NewQueryParseError(
		"the database has %d insertion columns; the query must name one", len(part.Columns.Insertions),
	)
}

func (f *InsertionContains) Compile(_ *silo.Database, part *storage.DatabasePartition, _ AmbiguityMode) (operators.Operator, error) {
	col, err := f.resolveColumn(part)
	if err != nil {
		return nil, err
	}
	re, err := column.CompilePattern(f.Pattern)
	if err != nil {
		return nil, &silo.QueryParseError{Msg: "InsertionContains", Cause: err}
	}

	position := f.Position
	return operators.NewProducer(
		fmt.Sprintf("insertion %d ~ %q", f.Position, f.Pattern),
		func() *roaring.Bitmap { return col.Search(position, re) },
	), nil
}

func (f *InsertionContains) String() string {
	return fmt.Sprintf("InsertionContains(%s, %d, %q)", f.Column, f.Position, f.Pattern)
}
