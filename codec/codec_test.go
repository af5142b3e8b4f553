package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressRoundTrip(t *testing.T) {
	reference := strings.Repeat("ACGT", 1000)
	c, err := NewSequenceCompressor(reference)
	require.NoError(t, err)

	// A near-reference sequence, as aligned genomes are.
	sequence := reference[:100] + "T" + reference[101:]
	compressed := c.Compress(sequence)
	assert.Less(t, len(compressed), len(sequence))

	decompressed, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, sequence, decompressed)
}

func TestCompressEmpty(t *testing.T) {
	c, err := NewSequenceCompressor("ACGT")
	require.NoError(t, err)

	decompressed, err := c.Decompress(c.Compress(""))
	require.NoError(t, err)
	assert.Equal(t, "", decompressed)
}

func TestDecompressGarbage(t *testing.T) {
	c, err := NewSequenceCompressor("ACGT")
	require.NoError(t, err)
	_, err = c.Decompress([]byte("not zstd data"))
	assert.Error(t, err)
}
