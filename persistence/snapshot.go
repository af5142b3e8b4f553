package persistence

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	silo "github.com/genspectrum/silo"
	"github.com/genspectrum/silo/common"
	"github.com/genspectrum/silo/config"
	"github.com/genspectrum/silo/internal/parallel"
	"github.com/genspectrum/silo/lineage"
	"github.com/genspectrum/silo/preprocessing"
	"github.com/genspectrum/silo/storage"
	"github.com/genspectrum/silo/storage/column"
)

// columnData carries one partition's column values for re-insertion on
// load. Column-level structures (dictionaries, value bitmaps) are rebuilt,
// which keeps the archive independent of dictionary id assignment.
type columnData struct {
	IndexedStrings map[string][]string
	Strings        map[string][]string
	Dates          map[string][]common.Date
	Ints           map[string][]int32
	Floats         map[string][]float64
	PangoLineages  map[string][]string
	Insertions     map[string][][]column.Insertion
}

// partitionArchive is the gob payload of one P<i>.silo file.
type partitionArchive struct {
	Chunks        []storage.Chunk
	SequenceCount uint32
	Columns       columnData
	NucSequences  map[string]*storage.SequenceSnapshot
	AASequences   map[string]*storage.SequenceSnapshot
	RawSequences  map[string][][]byte
}

// Save writes a snapshot directory named by the database's data version
// under baseDir and returns its path. The write goes to a temporary
// directory first so a failed build never corrupts an existing snapshot.
func Save(db *silo.Database, descriptor *preprocessing.Descriptor, baseDir string, compression CompressionType) (string, error) {
	if db.DataVersion == "" {
		return "", fmt.Errorf("database has no data version")
	}
	finalDir := filepath.Join(baseDir, db.DataVersion)
	tmpDir := finalDir + ".tmp"
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("creating snapshot directory: %w", err)
	}

	if err := descriptor.Save(filepath.Join(tmpDir, DescriptorFileName)); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(tmpDir, ConfigFileName), db.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(tmpDir, GenomesFileName), referenceGenomesOf(db)); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(tmpDir, AliasFileName), db.Aliases.Aliases()); err != nil {
		return "", err
	}

	err := parallel.EachErr(len(db.Partitions), func(i int) error {
		archive, err := archivePartition(db, db.Partitions[i])
		if err != nil {
			return fmt.Errorf("partition %d: %w", i, err)
		}
		return writeArchive(filepath.Join(tmpDir, PartitionFileName(i)), archive, compression)
	})
	if err != nil {
		return "", err
	}

	if err := os.Rename(tmpDir, finalDir); err != nil {
		return "", fmt.Errorf("finalizing snapshot directory: %w", err)
	}
	return finalDir, nil
}

// Load reopens a snapshot directory written by Save.
func Load(dir string) (*silo.Database, error) {
	var cfg config.DatabaseConfig
	if err := readJSON(filepath.Join(dir, ConfigFileName), &cfg); err != nil {
		return nil, err
	}
	var genomes config.ReferenceGenomes
	if err := readJSON(filepath.Join(dir, GenomesFileName), &genomes); err != nil {
		return nil, err
	}
	aliasTable := make(map[string]string)
	if err := readJSON(filepath.Join(dir, AliasFileName), &aliasTable); err != nil {
		return nil, err
	}
	descriptor, err := preprocessing.LoadDescriptor(filepath.Join(dir, DescriptorFileName))
	if err != nil {
		return nil, err
	}

	db, err := silo.NewDatabase(&cfg, &genomes, lineage.NewAliasLookup(aliasTable))
	if err != nil {
		return nil, err
	}
	db.DataVersion = filepath.Base(dir)

	for i := range descriptor.Partitions {
		part := db.AddPartition()
		archive, err := readArchive(filepath.Join(dir, PartitionFileName(i)))
		if err != nil {
			return nil, fmt.Errorf("partition %d: %w", i, err)
		}
		if err := restorePartition(part, archive); err != nil {
			return nil, fmt.Errorf("partition %d: %w", i, err)
		}
		if err := part.Validate(); err != nil {
			return nil, fmt.Errorf("partition %d inconsistent after load: %w", i, err)
		}
	}
	return db, nil
}

func archivePartition(db *silo.Database, part *storage.DatabasePartition) (*partitionArchive, error) {
	archive := &partitionArchive{
		Chunks:        part.Chunks,
		SequenceCount: part.SequenceCount,
		Columns: columnData{
			IndexedStrings: make(map[string][]string),
			Strings:        make(map[string][]string),
			Dates:          make(map[string][]common.Date),
			Ints:           make(map[string][]int32),
			Floats:         make(map[string][]float64),
			PangoLineages:  make(map[string][]string),
			Insertions:     make(map[string][][]column.Insertion),
		},
		NucSequences: make(map[string]*storage.SequenceSnapshot),
		AASequences:  make(map[string]*storage.SequenceSnapshot),
		RawSequences: part.RawSequences,
	}

	n := common.LocalID(part.SequenceCount)
	for name, col := range part.Columns.IndexedStrings {
		values := make([]string, n)
		for id := common.LocalID(0); id < n; id++ {
			values[id] = col.Value(id)
		}
		archive.Columns.IndexedStrings[name] = values
	}
	for name, col := range part.Columns.Strings {
		values := make([]string, n)
		for id := common.LocalID(0); id < n; id++ {
			values[id] = col.Value(id)
		}
		archive.Columns.Strings[name] = values
	}
	for name, col := range part.Columns.Dates {
		archive.Columns.Dates[name] = col.Values()
	}
	for name, col := range part.Columns.Ints {
		archive.Columns.Ints[name] = col.Values()
	}
	for name, col := range part.Columns.Floats {
		archive.Columns.Floats[name] = col.Values()
	}
	for name, col := range part.Columns.PangoLineages {
		values := make([]string, n)
		for id := common.LocalID(0); id < n; id++ {
			values[id] = col.Value(id)
		}
		archive.Columns.PangoLineages[name] = values
	}
	for name, col := range part.Columns.Insertions {
		values := make([][]column.Insertion, n)
		for id := common.LocalID(0); id < n; id++ {
			values[id] = col.Values(id)
		}
		archive.Columns.Insertions[name] = values
	}

	for name, store := range part.NucSequences {
		snap, err := store.Snapshot()
		if err != nil {
			return nil, fmt.Errorf("segment %q: %w", name, err)
		}
		archive.NucSequences[name] = snap
	}
	for name, store := range part.AASequences {
		snap, err := store.Snapshot()
		if err != nil {
			return nil, fmt.Errorf("gene %q: %w", name, err)
		}
		archive.AASequences[name] = snap
	}
	return archive, nil
}

func restorePartition(part *storage.DatabasePartition, archive *partitionArchive) error {
	part.Chunks = archive.Chunks
	part.SequenceCount = archive.SequenceCount
	part.RawSequences = archive.RawSequences
	if part.RawSequences == nil {
		part.RawSequences = make(map[string][][]byte)
	}

	for name, values := range archive.Columns.IndexedStrings {
		col, ok := part.Columns.IndexedStrings[name]
		if !ok {
			return fmt.Errorf("archive contains unknown indexed string column %q", name)
		}
		for _, v := range values {
			col.Insert(v)
		}
		col.Optimize()
	}
	for name, values := range archive.Columns.Strings {
		col, ok := part.Columns.Strings[name]
		if !ok {
			return fmt.Errorf("archive contains unknown string column %q", name)
		}
		for _, v := range values {
			col.Insert(v)
		}
	}
	for name, values := range archive.Columns.Dates {
		col, ok := part.Columns.Dates[name]
		if !ok {
			return fmt.Errorf("archive contains unknown date column %q", name)
		}
		for _, v := range values {
			col.Insert(v)
		}
	}
	for name, values := range archive.Columns.Ints {
		col, ok := part.Columns.Ints[name]
		if !ok {
			return fmt.Errorf("archive contains unknown int column %q", name)
		}
		for _, v := range values {
			col.Insert(v)
		}
	}
	for name, values := range archive.Columns.Floats {
		col, ok := part.Columns.Floats[name]
		if !ok {
			return fmt.Errorf("archive contains unknown float column %q", name)
		}
		for _, v := range values {
			col.Insert(v)
		}
	}
	for name, values := range archive.Columns.PangoLineages {
		col, ok := part.Columns.PangoLineages[name]
		if !ok {
			return fmt.Errorf("archive contains unknown pango lineage column %q", name)
		}
		for _, v := range values {
			col.Insert(v)
		}
		col.Optimize()
		col.BuildSublineageIndex()
	}
	for name, values := range archive.Columns.Insertions {
		col, ok := part.Columns.Insertions[name]
		if !ok {
			return fmt.Errorf("archive contains unknown insertion column %q", name)
		}
		for _, v := range values {
			col.Insert(v)
		}
		col.Optimize()
	}

	for name, snap := range archive.NucSequences {
		store, ok := part.NucSequences[name]
		if !ok {
			return fmt.Errorf("archive contains unknown nucleotide segment %q", name)
		}
		if err := store.Restore(snap); err != nil {
			return fmt.Errorf("segment %q: %w", name, err)
		}
	}
	for name, snap := range archive.AASequences {
		store, ok := part.AASequences[name]
		if !ok {
			return fmt.Errorf("archive contains unknown gene %q", name)
		}
		if err := store.Restore(snap); err != nil {
			return fmt.Errorf("gene %q: %w", name, err)
		}
	}
	return nil
}

// writeArchive writes one partition archive: a plain header, the
// compressed gob body and a CRC32 trailer over the compressed bytes.
func writeArchive(path string, archive *partitionArchive, compression CompressionType) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating archive %s: %w", path, err)
	}
	defer file.Close()

	header := make([]byte, 9)
	binary.BigEndian.PutUint32(header[0:4], MagicNumber)
	binary.BigEndian.PutUint32(header[4:8], Version)
	header[8] = byte(compression)
	if _, err := file.Write(header); err != nil {
		return fmt.Errorf("writing archive header: %w", err)
	}

	checksummed := NewChecksumWriter(file)
	compressor, err := compressingWriter(checksummed, compression)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(compressor).Encode(archive); err != nil {
		return fmt.Errorf("encoding archive body: %w", err)
	}
	if err := compressor.Close(); err != nil {
		return fmt.Errorf("flushing archive body: %w", err)
	}

	var trailer [4]byte
	binary.BigEndian.PutUint32(trailer[:], checksummed.Sum())
	if _, err := file.Write(trailer[:]); err != nil {
		return fmt.Errorf("writing archive checksum: %w", err)
	}
	return nil
}

func readArchive(path string) (*partitionArchive, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading archive %s: %w", path, err)
	}
	if len(raw) < 13 {
		return nil, ErrInvalidMagic
	}
	if binary.BigEndian.Uint32(raw[0:4]) != MagicNumber {
		return nil, ErrInvalidMagic
	}
	if binary.BigEndian.Uint32(raw[4:8]) != Version {
		return nil, ErrInvalidVersion
	}
	compression := CompressionType(raw[8])

	body := raw[9 : len(raw)-4]
	expected := binary.BigEndian.Uint32(raw[len(raw)-4:])
	checksummed := NewChecksumReader(bytes.NewReader(body))
	decompressor, err := decompressingReader(checksummed, compression)
	if err != nil {
		return nil, err
	}

	var archive partitionArchive
	if err := gob.NewDecoder(decompressor).Decode(&archive); err != nil {
		return nil, fmt.Errorf("decoding archive body: %w", err)
	}
	// Drain any padding the decompressor did not consume, then verify.
	buf := make([]byte, 4096)
	for {
		if _, err := checksummed.Read(buf); err != nil {
			break
		}
	}
	if checksummed.Sum() != expected {
		return nil, ErrChecksumMismatch
	}
	return &archive, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// referenceGenomesOf reconstructs the raw reference strings from the
// database's symbol-typed references.
func referenceGenomesOf(db *silo.Database) *config.ReferenceGenomes {
	genomes := &config.ReferenceGenomes{
		NucleotideSequences: make(map[string]string),
		AminoAcidSequences:  make(map[string]string),
	}
	for name, store := range db.NucSequences {
		raw := make([]byte, store.Length())
		for i, s := range store.Reference() {
			raw[i] = store.Alphabet().SymbolToChar(s)
		}
		genomes.NucleotideSequences[name] = string(raw)
	}
	for name, store := range db.AASequences {
		raw := make([]byte, store.Length())
		for i, s := range store.Reference() {
			raw[i] = store.Alphabet().SymbolToChar(s)
		}
		genomes.AminoAcidSequences[name] = string(raw)
	}
	return genomes
}
