package column

import (
	"github.com/genspectrum/silo/common"
)

// FloatColumn stores 64-bit floats. NaN marks an absent value and is
// excluded from range predicates.
type FloatColumn struct {
	partitions []*FloatColumnPartition
}

// NewFloatColumn creates an empty float column.
func NewFloatColumn() *FloatColumn { return &FloatColumn{} }

// CreatePartition appends a partition.
func (c *FloatColumn) CreatePartition() *FloatColumnPartition {
	p := &FloatColumnPartition{}
	c.partitions = append(c.partitions, p)
	return p
}

// FloatColumnPartition stores one partition's float vector.
type FloatColumnPartition struct {
	values []float64
}

// Insert appends a value for the next local id.
func (p *FloatColumnPartition) Insert(v float64) {
	p.values = append(p.values, v)
}

// Value returns the value at a local id.
func (p *FloatColumnPartition) Value(localID common.LocalID) float64 {
	return p.values[localID]
}

// Len returns the number of rows in the partition.
func (p *FloatColumnPartition) Len() int { return len(p.values) }

// Values returns the raw vector, read-only.
func (p *FloatColumnPartition) Values() []float64 { return p.values }
