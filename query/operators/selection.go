package operators

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// Selection linearly scans a non-indexed column, selecting the ids whose
// value satisfies the predicate.
type Selection struct {
	description   string
	sequenceCount uint32
	predicate     func(id uint32) bool
}

// NewSelection creates a linear-scan operator; description names the column
// and predicate for operator tree dumps.
func NewSelection(description string, sequenceCount uint32, predicate func(id uint32) bool) *Selection {
	return &Selection{description: description, sequenceCount: sequenceCount, predicate: predicate}
}

func (o *Selection) Evaluate() Result {
	result := roaring.New()
	for id := uint32(0); id < o.sequenceCount; id++ {
		if o.predicate(id) {
			result.Add(id)
		}
	}
	return Owned(result)
}

func (o *Selection) String() string {
	return fmt.Sprintf("Selection(%s)", o.description)
}

// RangeScan selects the contiguous id run [lo, hi), produced by binary
// search over a sorted column.
type RangeScan struct {
	lo, hi uint32
}

// NewRangeScan creates a range operator over [lo, hi).
func NewRangeScan(lo, hi uint32) *RangeScan { return &RangeScan{lo: lo, hi: hi} }

func (o *RangeScan) Evaluate() Result {
	result := roaring.New()
	if o.lo < o.hi {
		result.AddRange(uint64(o.lo), uint64(o.hi))
	}
	return Owned(result)
}

func (o *RangeScan) String() string {
	return fmt.Sprintf("RangeScan[%d, %d)", o.lo, o.hi)
}
