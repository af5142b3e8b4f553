package column

import (
	"math"

	"github.com/genspectrum/silo/common"
)

// IntNull marks an absent integer value. Rows holding it are excluded from
// range predicates.
const IntNull = int32(math.MinInt32)

// IntColumn stores 32-bit integers.
type IntColumn struct {
	partitions []*IntColumnPartition
}

// NewIntColumn creates an empty int column.
func NewIntColumn() *IntColumn { return &IntColumn{} }

// CreatePartition appends a partition.
func (c *IntColumn) CreatePartition() *IntColumnPartition {
	p := &IntColumnPartition{}
	c.partitions = append(c.partitions, p)
	return p
}

// IntColumnPartition stores one partition's integer vector.
type IntColumnPartition struct {
	values []int32
}

// Insert appends a value for the next local id.
func (p *IntColumnPartition) Insert(v int32) {
	p.values = append(p.values, v)
}

// Value returns the value at a local id.
func (p *IntColumnPartition) Value(localID common.LocalID) int32 {
	return p.values[localID]
}

// Len returns the number of rows in the partition.
func (p *IntColumnPartition) Len() int { return len(p.values) }

// Values returns the raw vector, read-only.
func (p *IntColumnPartition) Values() []int32 { return p.values }
