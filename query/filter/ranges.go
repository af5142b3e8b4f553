package filter

import (
	"fmt"
	"math"

	silo "github.com/genspectrum/silo"
	"github.com/genspectrum/silo/common"
	"github.com/genspectrum/silo/query/operators"
	"github.com/genspectrum/silo/storage"
	"github.com/genspectrum/silo/storage/column"
)

// DateBetween matches sequences whose date lies in [From, To]. Both
// endpoints are inclusive and either may be open; absent dates never match.
type DateBetween struct {
	Column string
	From   *common.Date
	To     *common.Date
}

func (f *DateBetween) Compile(db *silo.Database, part *storage.DatabasePartition, _ AmbiguityMode) (operators.Operator, error) {
	col, ok := part.Columns.Dates[f.Column]
	if !ok {
		return nil, silo.NewQueryParseError("the database does not contain the date column %q", f.Column)
	}

	from := common.DateNull + 1
	if f.From != nil {
		from = *f.From
	}
	to := common.Date(math.MaxInt32)
	if f.To != nil {
		to = *f.To
	}

	if col.IsSorted() {
		lo, hi := col.RangeBounds(from, to)
		return operators.NewRangeScan(lo, hi), nil
	}

	values := col.Values()
	return operators.NewSelection(
		fmt.Sprintf("%s in [%s, %s]", f.Column, from, to),
		part.SequenceCount,
		func(id uint32) bool {
			v := values[id]
			return !v.IsNull() && v >= from && v <= to
		},
	), nil
}

func (f *DateBetween) String() string {
	return fmt.Sprintf("DateBetween(%s, %s, %s)", f.Column, optional(f.From), optional(f.To))
}

// IntBetween matches sequences whose integer value lies in [From, To].
// Absent values never match.
type IntBetween struct {
	Column string
	From   *int32
	To     *int32
}

func (f *IntBetween) Compile(db *silo.Database, part *storage.DatabasePartition, _ AmbiguityMode) (operators.Operator, error) {
	col, ok := part.Columns.Ints[f.Column]
	if !ok {
		return nil, silo.NewQueryParseError("the database does not contain the int column %q", f.Column)
	}

	from := int32(math.MinInt32 + 1)
	if f.From != nil {
		from = *f.From
	}
	to := int32(math.MaxInt32)
	if f.To != nil {
		to = *f.To
	}

	values := col.Values()
	return operators.NewSelection(
		fmt.Sprintf("%s in [%d, %d]", f.Column, from, to),
		part.SequenceCount,
		func(id uint32) bool {
			v := values[id]
			return v != column.IntNull && v >= from && v <= to
		},
	), nil
}

func (f *IntBetween) String() string {
	return fmt.Sprintf("IntBetween(%s, %s, %s)", f.Column, optional(f.From), optional(f.To))
}

// optional formats a possibly-open range endpoint.
func optional[T any](v *T) string {
	if v == nil {
		return "open"
	}
	return fmt.Sprintf("%v", *v)
}

// FloatBetween matches sequences whose float value lies in [From, To]. NaN
// marks an absent value and never matches.
type FloatBetween struct {
	Column string
	From   *float64
	To     *float64
}

func (f *FloatBetween) Compile(db *silo.Database, part *storage.DatabasePartition, _ AmbiguityMode) (operators.Operator, error) {
	col, ok := part.Columns.Floats[f.Column]
	if !ok {
		return nil, silo.NewQueryParseError("the database does not contain the float column %q", f.Column)
	}

	from := math.Inf(-1)
	if f.From != nil {
		from = *f.From
	}
	to := math.Inf(1)
	if f.To != nil {
		to = *f.To
	}

	values := col.Values()
	return operators.NewSelection(
		fmt.Sprintf("%s in [%g, %g]", f.Column, from, to),
		part.SequenceCount,
		func(id uint32) bool {
			v := values[id]
			return !math.IsNaN(v) && v >= from && v <= to
		},
	), nil
}

func (f *FloatBetween) String() string {
	return fmt.Sprintf("FloatBetween(%s, %s, %s)", f.Column, optional(f.From), optional(f.To))
}
