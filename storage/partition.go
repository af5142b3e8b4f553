// Package storage implements the columnar stores and the per-position
// sequence indexes that make up a database partition, plus the partition
// model both ingestion and query agree on.
package storage

import (
	"fmt"

	"github.com/genspectrum/silo/common"
	"github.com/genspectrum/silo/storage/column"
	"github.com/genspectrum/silo/symbols"
)

// Chunk describes one contiguous run of partition-by key values inside a
// partition.
type Chunk struct {
	KeyLow  string `json:"keyLow"`
	KeyHigh string `json:"keyHigh"`
	Count   uint32 `json:"count"`
}

// ColumnGroup holds one partition's column stores, keyed by column name.
type ColumnGroup struct {
	Metadata []column.Metadata

	IndexedStrings map[string]*column.IndexedStringColumnPartition
	Strings        map[string]*column.StringColumnPartition
	Dates          map[string]*column.DateColumnPartition
	Ints           map[string]*column.IntColumnPartition
	Floats         map[string]*column.FloatColumnPartition
	PangoLineages  map[string]*column.PangoLineageColumnPartition
	Insertions     map[string]*column.InsertionColumnPartition
}

// NewColumnGroup creates an empty column group.
func NewColumnGroup() ColumnGroup {
	return ColumnGroup{
		IndexedStrings: make(map[string]*column.IndexedStringColumnPartition),
		Strings:        make(map[string]*column.StringColumnPartition),
		Dates:          make(map[string]*column.DateColumnPartition),
		Ints:           make(map[string]*column.IntColumnPartition),
		Floats:         make(map[string]*column.FloatColumnPartition),
		PangoLineages:  make(map[string]*column.PangoLineageColumnPartition),
		Insertions:     make(map[string]*column.InsertionColumnPartition),
	}
}

// MetadataFor returns the schema entry for a column name.
func (g *ColumnGroup) MetadataFor(name string) (column.Metadata, bool) {
	for _, m := range g.Metadata {
		if m.Name == name {
			return m, true
		}
	}
	return column.Metadata{}, false
}

// DatabasePartition is the horizontal shard unit: one column group plus one
// sequence store partition per configured segment, with a dense local id
// space [0, SequenceCount).
type DatabasePartition struct {
	Columns ColumnGroup

	NucSequences map[string]*SequenceStorePartition[symbols.Nucleotide]
	AASequences  map[string]*SequenceStorePartition[symbols.AminoAcid]

	// RawSequences holds, per nucleotide segment, the codec-compressed
	// aligned sequence of every local id. Filled only when the build stores
	// raw sequences; the FASTA action reads from here.
	RawSequences map[string][][]byte

	Chunks        []Chunk
	SequenceCount uint32
}

// NewDatabasePartition creates an empty partition.
func NewDatabasePartition() *DatabasePartition {
	return &DatabasePartition{
		Columns:      NewColumnGroup(),
		NucSequences: make(map[string]*SequenceStorePartition[symbols.Nucleotide]),
		AASequences:  make(map[string]*SequenceStorePartition[symbols.AminoAcid]),
		RawSequences: make(map[string][][]byte),
	}
}

// Validate checks that every store of the partition agrees on the sequence
// count. An inconsistency is a build bug.
func (p *DatabasePartition) Validate() error {
	n := int(p.SequenceCount)
	check := func(name string, got int) error {
		if got != n {
			return fmt.Errorf("store %q has %d rows, partition has %d sequences", name, got, n)
		}
		return nil
	}

	for name, c := range p.Columns.IndexedStrings {
		if err := check(name, c.Len()); err != nil {
			return err
		}
	}
	for name, c := range p.Columns.Strings {
		if err := check(name, c.Len()); err != nil {
			return err
		}
	}
	for name, c := range p.Columns.Dates {
		if err := check(name, c.Len()); err != nil {
			return err
		}
	}
	for name, c := range p.Columns.Ints {
		if err := check(name, c.Len()); err != nil {
			return err
		}
	}
	for name, c := range p.Columns.Floats {
		if err := check(name, c.Len()); err != nil {
			return err
		}
	}
	for name, c := range p.Columns.PangoLineages {
		if err := check(name, c.Len()); err != nil {
			return err
		}
	}
	for name, c := range p.Columns.Insertions {
		if err := check(name, c.Len()); err != nil {
			return err
		}
	}
	for name, s := range p.NucSequences {
		if err := check("nuc:"+name, int(s.SequenceCount())); err != nil {
			return err
		}
	}
	for name, s := range p.AASequences {
		if err := check("aa:"+name, int(s.SequenceCount())); err != nil {
			return err
		}
	}
	return nil
}

// columnValue formats the value of one column at one local id for result
// tuples. Absent values come back as (value, false).
func (g *ColumnGroup) columnValue(name string, id common.LocalID) (any, bool) {
	if c, ok := g.IndexedStrings[name]; ok {
		v := c.Value(id)
		return v, v != ""
	}
	if c, ok := g.Strings[name]; ok {
		v := c.Value(id)
		return v, v != ""
	}
	if c, ok := g.Dates[name]; ok {
		v := c.Value(id)
		return v.String(), !v.IsNull()
	}
	if c, ok := g.Ints[name]; ok {
		v := c.Value(id)
		return v, v != column.IntNull
	}
	if c, ok := g.Floats[name]; ok {
		v := c.Value(id)
		return v, v == v // NaN is absent
	}
	if c, ok := g.PangoLineages[name]; ok {
		v := c.Value(id)
		return v, v != ""
	}
	return nil, false
}

// Value returns the formatted value of a column at a local id; the second
// return is false for absent values and unknown columns.
func (g *ColumnGroup) Value(name string, id common.LocalID) (any, bool) {
	return g.columnValue(name, id)
}
