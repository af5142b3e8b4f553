package column

import (
	"sort"

	"github.com/genspectrum/silo/common"
)

// DateColumn stores calendar dates as epoch days. When the column is the
// configured date-to-sort-by column, partitions are filled in non-decreasing
// order and range queries binary-search instead of scanning.
type DateColumn struct {
	sorted     bool
	partitions []*DateColumnPartition
}

// NewDateColumn creates a date column; sorted marks the values as
// non-decreasing in local-id order.
func NewDateColumn(sorted bool) *DateColumn {
	return &DateColumn{sorted: sorted}
}

// CreatePartition appends a partition.
func (c *DateColumn) CreatePartition() *DateColumnPartition {
	p := &DateColumnPartition{sorted: c.sorted}
	c.partitions = append(c.partitions, p)
	return p
}

// DateColumnPartition stores one partition's date vector.
type DateColumnPartition struct {
	sorted bool
	values []common.Date
}

// Insert appends a date for the next local id.
func (p *DateColumnPartition) Insert(d common.Date) {
	p.values = append(p.values, d)
}

// Value returns the date at a local id.
func (p *DateColumnPartition) Value(localID common.LocalID) common.Date {
	return p.values[localID]
}

// Len returns the number of rows in the partition.
func (p *DateColumnPartition) Len() int { return len(p.values) }

// IsSorted reports whether values are non-decreasing in local-id order.
func (p *DateColumnPartition) IsSorted() bool { return p.sorted }

// Values returns the raw date vector, read-only.
func (p *DateColumnPartition) Values() []common.Date { return p.values }

// RangeBounds returns the local-id range [lo, hi) of values within
// [from, to], both endpoints inclusive. Only valid on sorted partitions.
func (p *DateColumnPartition) RangeBounds(from, to common.Date) (uint32, uint32) {
	lo := sort.Search(len(p.values), func(i int) bool { return p.values[i] >= from })
	hi := sort.Search(len(p.values), func(i int) bool { return p.values[i] > to })
	if hi < lo {
		hi = lo
	}
	return uint32(lo), uint32(hi)
}
