// Package codec implements the reversible per-segment sequence compressor.
// Sequences compress against their segment's reference as a zstd
// dictionary, which captures the overwhelming similarity between aligned
// genomes.
package codec

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// SequenceCompressor compresses and decompresses sequences of one segment.
// Safe for concurrent use after construction.
type SequenceCompressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// referenceDictID is the zstd dictionary id under which the reference is
// registered as raw dictionary content.
const referenceDictID = 1

// NewSequenceCompressor creates a compressor with the segment's reference
// sequence as dictionary.
func NewSequenceCompressor(reference string) (*SequenceCompressor, error) {
	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderDictRaw(referenceDictID, []byte(reference)),
	)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil,
		zstd.WithDecoderDictRaw(referenceDictID, []byte(reference)),
	)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return &SequenceCompressor{encoder: encoder, decoder: decoder}, nil
}

// Compress returns the compressed form of a sequence.
func (c *SequenceCompressor) Compress(sequence string) []byte {
	return c.encoder.EncodeAll([]byte(sequence), nil)
}

// Decompress reverses Compress.
func (c *SequenceCompressor) Decompress(compressed []byte) (string, error) {
	raw, err := c.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return "", fmt.Errorf("decompressing sequence: %w", err)
	}
	return string(raw), nil
}
