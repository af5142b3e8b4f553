package filter

import (
	"fmt"

	silo "github.com/genspectrum/silo"
	"github.com/genspectrum/silo/common"
	"github.com/genspectrum/silo/query/operators"
	"github.com/genspectrum/silo/storage"
)

// StringEquals matches sequences whose string column equals Value. Indexed
// columns answer from their value bitmap; raw columns fall back to a linear
// scan.
type StringEquals struct {
	Column string
	Value  string
}

func (f *StringEquals) Compile(db *silo.Database, part *storage.DatabasePartition, _ AmbiguityMode) (operators.Operator, error) {
	if col, ok := part.Columns.IndexedStrings[f.Column]; ok {
		return operators.NewIndexScan(col.BitmapForValue(f.Value), part.SequenceCount), nil
	}
	if col, ok := part.Columns.Strings[f.Column]; ok {
		return operators.NewSelection(
			fmt.Sprintf("%s == %q", f.Column, f.Value),
			part.SequenceCount,
			func(id uint32) bool { return col.Equals(common.LocalID(id), f.Value) },
		), nil
	}
	return nil, silo.NewQueryParseError("the database does not contain the string column %q", f.Column)
}

func (f *StringEquals) String() string {
	return fmt.Sprintf("StringEquals(%s, %q)", f.Column, f.Value)
}

// PangoLineageEquals matches sequences of one lineage, optionally together
// with all of its sub-lineages. The queried value is un-aliased before the
// lookup.
type PangoLineageEquals struct {
	Column            string
	Value             string
	IncludeSublineage bool
}

func (f *PangoLineageEquals) Compile(db *silo.Database, part *storage.DatabasePartition, _ AmbiguityMode) (operators.Operator, error) {
	col, ok := part.Columns.PangoLineages[f.Column]
	if !ok {
		return nil, silo.NewQueryParseError("the database does not contain the pango lineage column %q", f.Column)
	}

	canonical := db.Aliases.Resolve(f.Value)
	if f.IncludeSublineage {
		return operators.NewIndexScan(col.SublineageBitmap(canonical), part.SequenceCount), nil
	}
	return operators.NewIndexScan(col.BitmapForValue(canonical), part.SequenceCount), nil
}

func (f *PangoLineageEquals) String() string {
	suffix := ""
	if f.IncludeSublineage {
		suffix = "*"
	}
	return fmt.Sprintf("PangoLineageEquals(%s, %s%s)", f.Column, f.Value, suffix)
}
