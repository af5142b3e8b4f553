package operators

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// Operator is one node of a compiled filter. Evaluate produces a bitmap
// over [0, sequenceCount) of the partition the filter was compiled for.
type Operator interface {
	Evaluate() Result
	fmt.Stringer
}

// Empty always evaluates to the empty bitmap.
type Empty struct{}

// NewEmpty creates an Empty operator.
func NewEmpty() *Empty { return &Empty{} }

func (o *Empty) Evaluate() Result { return Owned(roaring.New()) }

func (o *Empty) String() string { return "Empty" }

// Full evaluates to the complete id space [0, SequenceCount).
type Full struct {
	SequenceCount uint32
}

// NewFull creates a Full operator for a partition size.
func NewFull(sequenceCount uint32) *Full { return &Full{SequenceCount: sequenceCount} }

func (o *Full) Evaluate() Result {
	b := roaring.New()
	b.AddRange(0, uint64(o.SequenceCount))
	return Owned(b)
}

func (o *Full) String() string { return "Full" }

// IndexScan returns a stored bitmap as a borrowed, read-only handle.
type IndexScan struct {
	bitmap        *roaring.Bitmap
	sequenceCount uint32
}

// NewIndexScan wraps a stored bitmap.
func NewIndexScan(bitmap *roaring.Bitmap, sequenceCount uint32) *IndexScan {
	return &IndexScan{bitmap: bitmap, sequenceCount: sequenceCount}
}

func (o *IndexScan) Evaluate() Result { return Borrowed(o.bitmap) }

func (o *IndexScan) String() string {
	return fmt.Sprintf("IndexScan(%d)", o.bitmap.GetCardinality())
}

// Cardinality exposes the stored bitmap's cardinality for sorting decisions.
func (o *IndexScan) Cardinality() uint64 { return o.bitmap.GetCardinality() }
