package column

import (
	"strings"

	"github.com/genspectrum/silo/common"
)

// stringInlineSize is the number of bytes stored inline per value. Longer
// values keep their prefix inline and spill the full string to the shared
// dictionary, so every row occupies the same space.
const stringInlineSize = 12

type smallString struct {
	length uint8
	prefix [stringInlineSize]byte
	spill  common.Idx
}

// StringColumn is a raw (non-indexed) string column supporting equality and
// substring scans.
type StringColumn struct {
	lookup     *common.Dictionary
	partitions []*StringColumnPartition
}

// NewStringColumn creates an empty raw string column.
func NewStringColumn() *StringColumn {
	return &StringColumn{lookup: common.NewDictionary()}
}

// CreatePartition appends a partition sharing this column's spill
// dictionary.
func (c *StringColumn) CreatePartition() *StringColumnPartition {
	p := &StringColumnPartition{lookup: c.lookup}
	c.partitions = append(c.partitions, p)
	return p
}

// StringColumnPartition stores one partition's values in the packed
// small-string encoding.
type StringColumnPartition struct {
	lookup *common.Dictionary
	values []smallString
}

// Insert appends a value for the next local id.
func (p *StringColumnPartition) Insert(value string) {
	var s smallString
	if len(value) <= stringInlineSize {
		s.length = uint8(len(value))
		copy(s.prefix[:], value)
	} else {
		s.length = stringInlineSize + 1
		copy(s.prefix[:], value[:stringInlineSize])
		s.spill = p.lookup.GetOrCreateID(value)
	}
	p.values = append(p.values, s)
}

// Value returns the string at a local id.
func (p *StringColumnPartition) Value(localID common.LocalID) string {
	s := p.values[localID]
	if s.length <= stringInlineSize {
		return string(s.prefix[:s.length])
	}
	return p.lookup.Value(s.spill)
}

// Len returns the number of rows in the partition.
func (p *StringColumnPartition) Len() int { return len(p.values) }

// Equals reports whether the value at localID equals needle. The inline
// prefix filters mismatches before touching the dictionary.
func (p *StringColumnPartition) Equals(localID common.LocalID, needle string) bool {
	s := p.values[localID]
	if len(needle) <= stringInlineSize {
		if int(s.length) != len(needle) {
			return false
		}
		return string(s.prefix[:s.length]) == needle
	}
	if s.length <= stringInlineSize {
		return false
	}
	if string(s.prefix[:]) != needle[:stringInlineSize] {
		return false
	}
	return p.lookup.Value(s.spill) == needle
}

// Contains reports whether the value at localID contains needle.
func (p *StringColumnPartition) Contains(localID common.LocalID, needle string) bool {
	return strings.Contains(p.Value(localID), needle)
}
