package preprocessing

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	silo "github.com/genspectrum/silo"
	"github.com/genspectrum/silo/common"
	"github.com/genspectrum/silo/config"
	"github.com/genspectrum/silo/lineage"
	"github.com/genspectrum/silo/storage"
	"github.com/genspectrum/silo/storage/column"
)

const (
	defaultSequencePrefix = "nuc_"
	defaultGenePrefix     = "gene_"
)

// Builder runs the preprocessing pipeline: read input files, partition,
// fill and finalize a database snapshot. Any input violation aborts the
// build; an existing snapshot on disk is never touched.
type Builder struct {
	preprocessing *config.PreprocessingConfig
	database      *config.DatabaseConfig
	logger        *silo.Logger
}

// NewBuilder creates a builder. A nil logger disables logging.
func NewBuilder(pre *config.PreprocessingConfig, db *config.DatabaseConfig, logger *silo.Logger) *Builder {
	if logger == nil {
		logger = silo.NoopLogger()
	}
	return &Builder{preprocessing: pre, database: db, logger: logger}
}

type buildInput struct {
	rows         []Row
	nucSequences map[string]map[string]string // segment -> primary key -> sequence
	aaSequences  map[string]map[string]string
}

// Build produces a database snapshot and its partition descriptor.
func (b *Builder) Build() (*silo.Database, *Descriptor, error) {
	start := time.Now()

	genomes, err := config.ReadReferenceGenomes(
		filepath.Join(b.preprocessing.InputDirectory, b.preprocessing.ReferenceGenomesFile),
	)
	if err != nil {
		return nil, nil, err
	}

	var aliases *lineage.AliasLookup
	if b.preprocessing.PangoAliasFile != "" {
		aliases, err = lineage.ReadAliasFile(
			filepath.Join(b.preprocessing.InputDirectory, b.preprocessing.PangoAliasFile),
		)
		if err != nil {
			return nil, nil, silo.NewPreprocessingError("reading pango alias file: %v", err)
		}
	} else {
		aliases = lineage.NewAliasLookup(nil)
	}

	db, err := silo.NewDatabase(b.database, genomes, aliases)
	if err != nil {
		return nil, nil, err
	}

	input, err := b.readInput(db)
	if err != nil {
		return nil, nil, err
	}

	descriptor := b.partitionRows(db, input.rows)
	if err := b.fillPartitions(db, descriptor, input); err != nil {
		return nil, nil, err
	}

	db.DataVersion = start.UTC().Format("20060102150405")
	b.logger.LogBuild(len(db.Partitions), db.SequenceCount(), time.Since(start))
	return db, descriptor, nil
}

func (b *Builder) readInput(db *silo.Database) (*buildInput, error) {
	metadataPath := filepath.Join(b.preprocessing.InputDirectory, b.preprocessing.MetadataFilename)
	metadataFile, err := os.Open(metadataPath)
	if err != nil {
		return nil, silo.NewPreprocessingError("opening metadata file: %v", err)
	}
	defer metadataFile.Close()

	reader, err := NewMetadataReader(metadataFile, b.database)
	if err != nil {
		return nil, err
	}
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	primaryKey := b.database.Schema.PrimaryKey
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		key := row[primaryKey]
		if key == "" {
			return nil, silo.NewPreprocessingError("metadata row with empty primary key")
		}
		if seen[key] {
			return nil, silo.NewPreprocessingError("duplicate primary key %q", key)
		}
		seen[key] = true
	}

	input := &buildInput{
		rows:         rows,
		nucSequences: make(map[string]map[string]string),
		aaSequences:  make(map[string]map[string]string),
	}

	sequencePrefix := b.preprocessing.SequencePrefix
	if sequencePrefix == "" {
		sequencePrefix = defaultSequencePrefix
	}
	genePrefix := b.preprocessing.GenePrefix
	if genePrefix == "" {
		genePrefix = defaultGenePrefix
	}

	for name := range db.NucSequences {
		sequences, err := b.readFastaFile(sequencePrefix + name + ".fasta")
		if err != nil {
			return nil, err
		}
		input.nucSequences[name] = sequences
	}
	for name := range db.AASequences {
		sequences, err := b.readFastaFile(genePrefix + name + ".fasta")
		if err != nil {
			return nil, err
		}
		input.aaSequences[name] = sequences
	}
	return input, nil
}

func (b *Builder) readFastaFile(name string) (map[string]string, error) {
	path := filepath.Join(b.preprocessing.InputDirectory, name)
	file, err := os.Open(path)
	if err != nil {
		return nil, silo.NewPreprocessingError("opening sequence file %s: %v", name, err)
	}
	defer file.Close()
	return ReadFasta(file)
}

// partitionValue returns the canonical grouping value of one row.
func (b *Builder) partitionValue(db *silo.Database, row Row) string {
	value := row[b.database.Schema.PartitionBy]
	entry, ok := b.database.ColumnConfigFor(b.database.Schema.PartitionBy)
	if ok {
		if kind, _ := entry.Kind(); kind == column.KindPangoLineage {
			return db.Aliases.Resolve(value)
		}
	}
	return value
}

func (b *Builder) partitionRows(db *silo.Database, rows []Row) *Descriptor {
	if b.database.Schema.PartitionBy == "" {
		return BuildDescriptor(nil, uint32(len(rows)))
	}

	histogram := make(map[string]uint32)
	for _, row := range rows {
		histogram[b.partitionValue(db, row)]++
	}
	buckets := make([]ValueCount, 0, len(histogram))
	for value, count := range histogram {
		buckets = append(buckets, ValueCount{Value: value, Count: count})
	}
	return BuildDescriptor(buckets, uint32(len(rows)))
}

// rowsForPartition collects the rows of one partition in chunk order and
// sorts them into the partition's global sort order: the sort-by date
// first when configured, then the primary key.
func (b *Builder) rowsForPartition(db *silo.Database, chunks []PartitionChunks, partitionIndex int, rowsByValue map[string][]Row, allRows []Row) []Row {
	var rows []Row
	if b.database.Schema.PartitionBy == "" {
		rows = allRows
	} else {
		for _, chunk := range chunks[partitionIndex].Chunks {
			rows = append(rows, rowsByValue[chunk.KeyLow]...)
		}
	}

	primaryKey := b.database.Schema.PrimaryKey
	dateColumn := b.database.Schema.DateToSortBy
	sort.SliceStable(rows, func(i, j int) bool {
		if dateColumn != "" {
			di := parseDateOrNull(rows[i][dateColumn])
			dj := parseDateOrNull(rows[j][dateColumn])
			if di != dj {
				return di < dj
			}
		}
		return rows[i][primaryKey] < rows[j][primaryKey]
	})
	return rows
}

func parseDateOrNull(raw string) common.Date {
	if raw == "" {
		return common.DateNull
	}
	d, err := common.ParseDate(raw)
	if err != nil {
		return common.DateNull
	}
	return d
}

func (b *Builder) fillPartitions(db *silo.Database, descriptor *Descriptor, input *buildInput) error {
	rowsByValue := make(map[string][]Row)
	if b.database.Schema.PartitionBy != "" {
		for _, row := range input.rows {
			value := b.partitionValue(db, row)
			rowsByValue[value] = append(rowsByValue[value], row)
		}
	}

	for partitionIndex := range descriptor.Partitions {
		rows := b.rowsForPartition(db, descriptor.Partitions, partitionIndex, rowsByValue, input.rows)
		part := db.AddPartition()
		part.Chunks = descriptor.Partitions[partitionIndex].Chunks

		for _, row := range rows {
			if err := b.insertRow(db, part.Columns, row); err != nil {
				return err
			}
		}

		primaryKey := b.database.Schema.PrimaryKey
		for name, store := range part.NucSequences {
			genomes := make([]string, len(rows))
			for i, row := range rows {
				genomes[i] = input.nucSequences[name][row[primaryKey]]
			}
			if err := store.AppendSequences(genomes); err != nil {
				return silo.NewPreprocessingError("partition %d segment %q: %v", partitionIndex, name, err)
			}
			store.Finalize()

			compressed := make([][]byte, len(genomes))
			for i, genome := range genomes {
				compressed[i] = db.Compressors[name].Compress(genome)
			}
			part.RawSequences[name] = compressed
		}
		for name, store := range part.AASequences {
			genomes := make([]string, len(rows))
			for i, row := range rows {
				genomes[i] = input.aaSequences[name][row[primaryKey]]
			}
			if err := store.AppendSequences(genomes); err != nil {
				return silo.NewPreprocessingError("partition %d gene %q: %v", partitionIndex, name, err)
			}
			store.Finalize()
		}

		for _, col := range part.Columns.IndexedStrings {
			col.Optimize()
		}
		for _, col := range part.Columns.PangoLineages {
			col.Optimize()
			col.BuildSublineageIndex()
		}
		for _, col := range part.Columns.Insertions {
			col.Optimize()
		}

		part.SequenceCount = uint32(len(rows))
		if err := part.Validate(); err != nil {
			return silo.NewPreprocessingError("partition %d inconsistent after build: %v", partitionIndex, err)
		}
		b.logger.WithPartition(partitionIndex).Debug("partition built", "rows", len(rows))
	}
	return nil
}

func (b *Builder) insertRow(db *silo.Database, columns storage.ColumnGroup, row Row) error {
	for _, item := range b.database.Schema.Metadata {
		kind, _ := item.Kind()
		raw := row[item.Name]
		switch kind {
		case column.KindString:
			columns.Strings[item.Name].Insert(raw)
		case column.KindIndexedString:
			columns.IndexedStrings[item.Name].Insert(raw)
		case column.KindDate:
			if raw == "" {
				columns.Dates[item.Name].Insert(common.DateNull)
				break
			}
			d, err := common.ParseDate(raw)
			if err != nil {
				return silo.NewPreprocessingError("column %q: %v", item.Name, err)
			}
			columns.Dates[item.Name].Insert(d)
		case column.KindInt:
			if raw == "" {
				columns.Ints[item.Name].Insert(column.IntNull)
				break
			}
			v, err := strconv.ParseInt(raw, 10, 32)
			if err != nil {
				return silo.NewPreprocessingError("column %q: invalid integer %q", item.Name, raw)
			}
			columns.Ints[item.Name].Insert(int32(v))
		case column.KindFloat:
			if raw == "" {
				columns.Floats[item.Name].Insert(math.NaN())
				break
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return silo.NewPreprocessingError("column %q: invalid float %q", item.Name, raw)
			}
			columns.Floats[item.Name].Insert(v)
		case column.KindPangoLineage:
			columns.PangoLineages[item.Name].Insert(db.Aliases.Resolve(raw))
		case column.KindInsertion:
			insertions, err := parseInsertionList(raw)
			if err != nil {
				return silo.NewPreprocessingError("column %q: %v", item.Name, err)
			}
			columns.Insertions[item.Name].Insert(insertions)
		}
	}
	return nil
}

// parseInsertionList parses the "position:text,position:text" input format.
func parseInsertionList(raw string) ([]column.Insertion, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	insertions := make([]column.Insertion, 0, len(parts))
	for _, part := range parts {
		pos, text, found := strings.Cut(strings.TrimSpace(part), ":")
		if !found || text == "" {
			return nil, fmt.Errorf("invalid insertion entry %q, expected position:text", part)
		}
		position, err := strconv.ParseUint(pos, 10, 32)
		if err != nil || position == 0 {
			return nil, fmt.Errorf("invalid insertion position %q", pos)
		}
		insertions = append(insertions, column.Insertion{Position: uint32(position), Value: text})
	}
	sort.Slice(insertions, func(i, j int) bool { return insertions[i].Position < insertions[j].Position })
	return insertions, nil
}
