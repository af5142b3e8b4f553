package storage

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/genspectrum/silo/common"
	"github.com/genspectrum/silo/internal/parallel"
	"github.com/genspectrum/silo/symbols"
)

// positionsPerTask is the grain of position-parallel loops.
const positionsPerTask = 300

// SequenceStoreInfo summarizes one sequence store partition.
type SequenceStoreInfo struct {
	SequenceCount     uint32
	Size              uint64
	MissingBitmapSize uint64
}

// SequenceStorePartition is the per-position inverted bitmap index over one
// segment of one partition.
//
// Sequences carrying the alphabet's missing marker at a position are not
// recorded in the per-position bitmaps; their missing positions live in the
// per-sequence missing-symbol bitmaps instead, which compress better over
// the long runs typical of missing data.
type SequenceStorePartition[S ~uint8] struct {
	alphabet  *symbols.Alphabet[S]
	reference []S

	positions      []Position[S]
	missingBitmaps []*roaring.Bitmap

	sequenceCount uint32
}

// NewSequenceStorePartition creates an empty partition for a segment with
// the given reference.
func NewSequenceStorePartition[S ~uint8](alphabet *symbols.Alphabet[S], reference []S) *SequenceStorePartition[S] {
	positions := make([]Position[S], len(reference))
	for i := range positions {
		positions[i] = newPosition(alphabet)
	}
	return &SequenceStorePartition[S]{
		alphabet:  alphabet,
		reference: reference,
		positions: positions,
	}
}

// Alphabet returns the segment's alphabet.
func (p *SequenceStorePartition[S]) Alphabet() *symbols.Alphabet[S] { return p.alphabet }

// Reference returns the reference sequence as symbols, read-only.
func (p *SequenceStorePartition[S]) Reference() []S { return p.reference }

// Length returns the segment length.
func (p *SequenceStorePartition[S]) Length() int { return len(p.reference) }

// SequenceCount returns the number of sequences interpreted so far.
func (p *SequenceStorePartition[S]) SequenceCount() uint32 { return p.sequenceCount }

// PositionAt exposes the stored position index.
func (p *SequenceStorePartition[S]) PositionAt(pos int) *Position[S] { return &p.positions[pos] }

// MissingBitmaps returns the per-sequence missing-symbol bitmaps, indexed
// by local id. Read-only.
func (p *SequenceStorePartition[S]) MissingBitmaps() []*roaring.Bitmap { return p.missingBitmaps }

// AppendSequences interprets a batch of aligned sequences in partition
// order. An empty string stands for a wholly absent sequence: every
// position is treated as missing. Must not be called after Finalize.
func (p *SequenceStorePartition[S]) AppendSequences(genomes []string) error {
	length := len(p.reference)
	for i, genome := range genomes {
		if genome != "" && len(genome) != length {
			return fmt.Errorf(
				"aligned sequence %d has length %d, segment reference has length %d",
				p.sequenceCount+uint32(i), len(genome), length,
			)
		}
	}

	if err := p.fillIndexes(genomes); err != nil {
		return err
	}
	p.fillMissingBitmaps(genomes)
	p.sequenceCount += uint32(len(genomes))
	return nil
}

func (p *SequenceStorePartition[S]) fillIndexes(genomes []string) error {
	length := len(p.reference)
	missing := p.alphabet.Missing()

	return parallel.ForErr(length, positionsPerTask, func(lo, hi int) error {
		ids := make([][]uint32, p.alphabet.Count())
		for pos := lo; pos < hi; pos++ {
			for seqIdx, genome := range genomes {
				if genome == "" {
					continue
				}
				symbol, ok := p.alphabet.CharToSymbol(genome[pos])
				if !ok {
					return fmt.Errorf("illegal character %q in %s sequence", genome[pos], p.alphabet.Name())
				}
				if symbol != missing {
					ids[symbol] = append(ids[symbol], p.sequenceCount+uint32(seqIdx))
				}
			}
			for symbol := range ids {
				if len(ids[symbol]) > 0 {
					p.positions[pos].bitmaps.Get(S(symbol)).AddMany(ids[symbol])
					ids[symbol] = ids[symbol][:0]
				}
			}
		}
		return nil
	})
}

func (p *SequenceStorePartition[S]) fillMissingBitmaps(genomes []string) {
	length := len(p.reference)
	missing := p.alphabet.Missing()

	start := len(p.missingBitmaps)
	for range genomes {
		p.missingBitmaps = append(p.missingBitmaps, roaring.New())
	}

	parallel.For(len(genomes), 1024, func(lo, hi int) {
		var missingPositions []uint32
		for seqIdx := lo; seqIdx < hi; seqIdx++ {
			bitmap := p.missingBitmaps[start+seqIdx]
			genome := genomes[seqIdx]
			if genome == "" {
				bitmap.AddRange(0, uint64(length))
				bitmap.RunOptimize()
				continue
			}
			missingPositions = missingPositions[:0]
			for pos := 0; pos < length; pos++ {
				if symbol, ok := p.alphabet.CharToSymbol(genome[pos]); ok && symbol == missing {
					missingPositions = append(missingPositions, uint32(pos))
				}
			}
			if len(missingPositions) > 0 {
				bitmap.AddMany(missingPositions)
				bitmap.RunOptimize()
			}
		}
	})
}

// Finalize applies the flipped-majority optimization and run-compresses all
// bitmaps. Called once after the last AppendSequences.
func (p *SequenceStorePartition[S]) Finalize() {
	parallel.For(len(p.positions), positionsPerTask, func(lo, hi int) {
		for pos := lo; pos < hi; pos++ {
			p.positions[pos].flipMostNumerous(p.alphabet, p.sequenceCount)
		}
	})
}

// AddMutationCounts accumulates, for positions [lo, hi) and every mutation
// symbol, the number of ids in filter holding that symbol. counts is
// indexed [symbol][position]. full marks a filter covering the whole
// partition, which skips the intersection.
func (p *SequenceStorePartition[S]) AddMutationCounts(filter *roaring.Bitmap, full bool, counts [][]uint32, lo, hi int) {
	filterCardinality := filter.GetCardinality()
	for pos := lo; pos < hi; pos++ {
		position := &p.positions[pos]
		for _, symbol := range p.alphabet.MutationSymbols() {
			bitmap := position.Bitmap(symbol)
			var count uint64
			switch {
			case full && !position.IsFlipped(symbol):
				count = bitmap.GetCardinality()
			case full:
				count = uint64(p.sequenceCount) - bitmap.GetCardinality()
			case !position.IsFlipped(symbol):
				count = filter.AndCardinality(bitmap)
			default:
				// filter ANDNOT bitmap for the flipped symbol.
				count = filterCardinality - filter.AndCardinality(bitmap)
			}
			counts[symbol][pos] += uint32(count)
		}
	}
}

// SymbolAt reconstructs the symbol of one sequence at one position.
func (p *SequenceStorePartition[S]) SymbolAt(localID common.LocalID, pos int) S {
	if p.missingBitmaps[localID].Contains(uint32(pos)) {
		return p.alphabet.Missing()
	}
	position := &p.positions[pos]
	for _, symbol := range p.alphabet.Symbols() {
		if position.Bitmap(symbol).Contains(uint32(localID)) != position.IsFlipped(symbol) {
			return symbol
		}
	}
	// Not in any explicit bitmap: the sequence holds the flipped symbol.
	if flipped, ok := position.FlippedSymbol(); ok {
		return flipped
	}
	return p.reference[pos]
}

// ReconstructSequence rebuilds the aligned character sequence of one
// sequence from the index. Used by the aligned-FASTA action.
func (p *SequenceStorePartition[S]) ReconstructSequence(localID common.LocalID) string {
	out := make([]byte, len(p.reference))
	for pos := range p.reference {
		out[pos] = p.alphabet.SymbolToChar(p.SymbolAt(localID, pos))
	}
	return string(out)
}

// Info computes size statistics for the partition.
func (p *SequenceStorePartition[S]) Info() SequenceStoreInfo {
	var size uint64
	for i := range p.positions {
		for _, symbol := range p.alphabet.Symbols() {
			size += p.positions[i].Bitmap(symbol).GetSizeInBytes()
		}
	}
	var missingSize uint64
	for _, bitmap := range p.missingBitmaps {
		missingSize += bitmap.GetSizeInBytes()
	}
	return SequenceStoreInfo{
		SequenceCount:     p.sequenceCount,
		Size:              size,
		MissingBitmapSize: missingSize,
	}
}
