// Package silo is a read-optimized, in-memory columnar index for large
// collections of aligned biological sequences plus per-sequence metadata.
//
// A Database is an immutable snapshot built once by the preprocessing
// pipeline. The query engine holds a shared read-only view; rebuilds
// produce a new snapshot that the front-end swaps in atomically.
package silo

import (
	"github.com/genspectrum/silo/codec"
	"github.com/genspectrum/silo/config"
	"github.com/genspectrum/silo/lineage"
	"github.com/genspectrum/silo/storage"
	"github.com/genspectrum/silo/storage/column"
	"github.com/genspectrum/silo/symbols"
)

// Database is one immutable snapshot: all partitions plus the shared
// per-column dictionaries and per-segment reference sequences.
type Database struct {
	Config  *config.DatabaseConfig
	Aliases *lineage.AliasLookup

	Partitions []*storage.DatabasePartition

	NucSequences map[string]*storage.SequenceStore[symbols.Nucleotide]
	AASequences  map[string]*storage.SequenceStore[symbols.AminoAcid]

	// Compressors hold the per-nucleotide-segment sequence codecs used by
	// the raw-sequence store and the FASTA action.
	Compressors map[string]*codec.SequenceCompressor

	indexedStringColumns map[string]*column.IndexedStringColumn
	stringColumns        map[string]*column.StringColumn
	dateColumns          map[string]*column.DateColumn
	intColumns           map[string]*column.IntColumn
	floatColumns         map[string]*column.FloatColumn
	pangoLineageColumns  map[string]*column.PangoLineageColumn
	insertionColumns     map[string]*column.InsertionColumn

	// DataVersion identifies the exact on-disk format of this snapshot.
	DataVersion string
}

// NewDatabase creates an empty database for a schema and reference genomes.
// Partitions are added with AddPartition.
func NewDatabase(cfg *config.DatabaseConfig, genomes *config.ReferenceGenomes, aliases *lineage.AliasLookup) (*Database, error) {
	if aliases == nil {
		aliases = lineage.NewAliasLookup(nil)
	}
	db := &Database{
		Config:               cfg,
		Aliases:              aliases,
		NucSequences:         make(map[string]*storage.SequenceStore[symbols.Nucleotide]),
		AASequences:          make(map[string]*storage.SequenceStore[symbols.AminoAcid]),
		Compressors:          make(map[string]*codec.SequenceCompressor),
		indexedStringColumns: make(map[string]*column.IndexedStringColumn),
		stringColumns:        make(map[string]*column.StringColumn),
		dateColumns:          make(map[string]*column.DateColumn),
		intColumns:           make(map[string]*column.IntColumn),
		floatColumns:         make(map[string]*column.FloatColumn),
		pangoLineageColumns:  make(map[string]*column.PangoLineageColumn),
		insertionColumns:     make(map[string]*column.InsertionColumn),
	}

	for name, raw := range genomes.NucleotideSequences {
		ref, err := symbols.Nucleotides.ParseSequence(raw)
		if err != nil {
			return nil, NewPreprocessingError("reference for nucleotide segment %q: %v", name, err)
		}
		db.NucSequences[name] = storage.NewSequenceStore(symbols.Nucleotides, ref)

		compressor, err := codec.NewSequenceCompressor(raw)
		if err != nil {
			return nil, NewPreprocessingError("codec for nucleotide segment %q: %v", name, err)
		}
		db.Compressors[name] = compressor
	}
	for name, raw := range genomes.AminoAcidSequences {
		ref, err := symbols.AminoAcids.ParseSequence(raw)
		if err != nil {
			return nil, NewPreprocessingError("reference for amino-acid segment %q: %v", name, err)
		}
		db.AASequences[name] = storage.NewSequenceStore(symbols.AminoAcids, ref)
	}

	for _, item := range cfg.Schema.Metadata {
		kind, err := item.Kind()
		if err != nil {
			return nil, &config.ConfigError{Msg: err.Error()}
		}
		switch kind {
		case column.KindIndexedString:
			db.indexedStringColumns[item.Name] = column.NewIndexedStringColumn()
		case column.KindString:
			db.stringColumns[item.Name] = column.NewStringColumn()
		case column.KindDate:
			db.dateColumns[item.Name] = column.NewDateColumn(item.Name == cfg.Schema.DateToSortBy)
		case column.KindInt:
			db.intColumns[item.Name] = column.NewIntColumn()
		case column.KindFloat:
			db.floatColumns[item.Name] = column.NewFloatColumn()
		case column.KindPangoLineage:
			db.pangoLineageColumns[item.Name] = column.NewPangoLineageColumn()
		case column.KindInsertion:
			db.insertionColumns[item.Name] = column.NewInsertionColumn()
		}
	}

	return db, nil
}

// AddPartition appends an empty partition wired to every configured column
// and segment store.
func (db *Database) AddPartition() *storage.DatabasePartition {
	p := storage.NewDatabasePartition()

	for _, item := range db.Config.Schema.Metadata {
		kind, _ := item.Kind()
		p.Columns.Metadata = append(p.Columns.Metadata, column.Metadata{Name: item.Name, Kind: kind})
		switch kind {
		case column.KindIndexedString:
			p.Columns.IndexedStrings[item.Name] = db.indexedStringColumns[item.Name].CreatePartition()
		case column.KindString:
			p.Columns.Strings[item.Name] = db.stringColumns[item.Name].CreatePartition()
		case column.KindDate:
			p.Columns.Dates[item.Name] = db.dateColumns[item.Name].CreatePartition()
		case column.KindInt:
			p.Columns.Ints[item.Name] = db.intColumns[item.Name].CreatePartition()
		case column.KindFloat:
			p.Columns.Floats[item.Name] = db.floatColumns[item.Name].CreatePartition()
		case column.KindPangoLineage:
			p.Columns.PangoLineages[item.Name] = db.pangoLineageColumns[item.Name].CreatePartition()
		case column.KindInsertion:
			p.Columns.Insertions[item.Name] = db.insertionColumns[item.Name].CreatePartition()
		}
	}

	for name, store := range db.NucSequences {
		p.NucSequences[name] = store.CreatePartition()
	}
	for name, store := range db.AASequences {
		p.AASequences[name] = store.CreatePartition()
	}

	db.Partitions = append(db.Partitions, p)
	return p
}

// DefaultNucleotideSequence resolves the segment name to use when a query
// does not name one.
func (db *Database) DefaultNucleotideSequence() string {
	if db.Config.Schema.DefaultNucleotide != "" {
		return db.Config.Schema.DefaultNucleotide
	}
	if len(db.NucSequences) == 1 {
		for name := range db.NucSequences {
			return name
		}
	}
	return ""
}

// SequenceCount returns the total number of sequences across partitions.
func (db *Database) SequenceCount() uint32 {
	var total uint32
	for _, p := range db.Partitions {
		total += p.SequenceCount
	}
	return total
}
