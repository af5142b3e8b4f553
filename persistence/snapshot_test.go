package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genspectrum/silo/config"
	"github.com/genspectrum/silo/preprocessing"
	"github.com/genspectrum/silo/query"
)

func buildTestSnapshot(t *testing.T) (string, *preprocessing.Descriptor) {
	t.Helper()
	inputDir := t.TempDir()

	files := map[string]string{
		"reference_genomes.json": `{
			"nucleotideSequences": {"main": "ACGT"},
			"aminoAcidSequences": {"S": "MF"}
		}`,
		"pango_alias.json": `{"AY": "B.1.617.2"}`,
		"metadata.tsv": "key\tdate\tcountry\tlineage\n" +
			"S1\t2021-03-18\tGermany\tB.1\n" +
			"S2\t2021-03-19\tGermany\tAY.1\n" +
			"S3\t2021-03-20\tSwitzerland\tB.1\n" +
			"S4\t2021-03-21\tGermany\tA.2\n",
		"nuc_main.fasta": ">S1\nACGT\n>S2\nACGA\n>S3\nAAGT\n>S4\nNCGT\n",
		"gene_S.fasta":   ">S1\nMF\n>S2\nML\n>S3\nXF\n>S4\nMF\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(inputDir, name), []byte(content), 0o644))
	}

	preConfig := &config.PreprocessingConfig{
		InputDirectory:       inputDir,
		OutputDirectory:      t.TempDir(),
		MetadataFilename:     "metadata.tsv",
		ReferenceGenomesFile: "reference_genomes.json",
		PangoAliasFile:       "pango_alias.json",
	}
	dbConfig := &config.DatabaseConfig{Schema: config.Schema{
		InstanceName:      "test",
		PrimaryKey:        "key",
		PartitionBy:       "lineage",
		DateToSortBy:      "date",
		DefaultNucleotide: "main",
		Metadata: []config.ColumnConfig{
			{Name: "key", Type: "string"},
			{Name: "date", Type: "date"},
			{Name: "country", Type: "indexed_string"},
			{Name: "lineage", Type: "pango_lineage"},
		},
	}}

	db, descriptor, err := preprocessing.NewBuilder(preConfig, dbConfig, nil).Build()
	require.NoError(t, err)

	snapshotDir, err := Save(db, descriptor, preConfig.OutputDirectory, CompressionZSTD)
	require.NoError(t, err)
	return snapshotDir, descriptor
}

func countQuery(t *testing.T, engine *query.Engine, filterJSON string) uint64 {
	t.Helper()
	response, err := engine.ExecuteQuery([]byte(
		`{"filter": ` + filterJSON + `, "action": {"type": "Aggregated"}}`,
	))
	require.NoError(t, err)
	return response.QueryResult[0]["count"].(uint64)
}

func TestSnapshotRoundTrip(t *testing.T) {
	snapshotDir, descriptor := buildTestSnapshot(t)

	loaded, err := Load(snapshotDir)
	require.NoError(t, err)

	assert.Equal(t, uint32(4), loaded.SequenceCount())
	assert.Equal(t, len(descriptor.Partitions), len(loaded.Partitions))
	assert.Equal(t, filepath.Base(snapshotDir), loaded.DataVersion)

	engine := query.NewEngine(loaded, nil)
	assert.Equal(t, uint64(4), countQuery(t, engine, `{"type": "True"}`))
	assert.Equal(t, uint64(1), countQuery(t, engine, `{"type": "HasMutation", "position": 2}`))
	assert.Equal(t, uint64(3), countQuery(t, engine,
		`{"type": "NucleotideSymbolEquals", "position": 1, "symbol": "."}`))
	assert.Equal(t, uint64(1), countQuery(t, engine,
		`{"type": "NucleotideSymbolEquals", "position": 1, "symbol": "N"}`))
	assert.Equal(t, uint64(3), countQuery(t, engine,
		`{"type": "PangoLineageEquals", "column": "lineage", "value": "B.1", "includeSubLineages": true}`))
}

func TestSnapshotLayout(t *testing.T) {
	snapshotDir, descriptor := buildTestSnapshot(t)

	entries, err := os.ReadDir(snapshotDir)
	require.NoError(t, err)
	names := make(map[string]bool, len(entries))
	for _, entry := range entries {
		names[entry.Name()] = true
	}
	assert.True(t, names[DescriptorFileName])
	assert.True(t, names[ConfigFileName])
	assert.True(t, names[GenomesFileName])
	for i := range descriptor.Partitions {
		assert.True(t, names[PartitionFileName(i)], "missing %s", PartitionFileName(i))
	}
}

func TestArchiveChecksumDetectsCorruption(t *testing.T) {
	snapshotDir, _ := buildTestSnapshot(t)

	path := filepath.Join(snapshotDir, PartitionFileName(0))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[len(raw)/2] ^= 0xff
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, err = Load(snapshotDir)
	assert.Error(t, err)
}

func TestArchiveRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.silo")
	require.NoError(t, os.WriteFile(path, []byte("definitely not an archive"), 0o644))
	_, err := readArchive(path)
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestCompressionRoundTripAllTypes(t *testing.T) {
	for _, compression := range []CompressionType{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(compression.String(), func(t *testing.T) {
			archive := &partitionArchive{SequenceCount: 7}
			path := filepath.Join(t.TempDir(), "p.silo")
			require.NoError(t, writeArchive(path, archive, compression))

			loaded, err := readArchive(path)
			require.NoError(t, err)
			assert.Equal(t, uint32(7), loaded.SequenceCount)
		})
	}
}
