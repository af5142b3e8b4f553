package storage

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/genspectrum/silo/symbols"
)

// Position holds the per-symbol inverted bitmaps of one alignment position.
//
// At most one symbol may be flipped: its stored bitmap is the complement of
// the true id set relative to [0, sequenceCount). When the flipped bitmap
// is empty the symbol covers the whole partition and the bitmap is elided;
// the query compiler synthesizes the complement of the other symbols.
type Position[S ~uint8] struct {
	bitmaps    symbols.SymbolMap[S, *roaring.Bitmap]
	flipped    S
	hasFlipped bool
	deleted    bool
}

func newPosition[S ~uint8](alphabet *symbols.Alphabet[S]) Position[S] {
	p := Position[S]{bitmaps: symbols.NewSymbolMap[S, *roaring.Bitmap](alphabet)}
	for _, s := range alphabet.Symbols() {
		p.bitmaps.Set(s, roaring.New())
	}
	return p
}

// Bitmap returns the stored bitmap for a symbol. Callers check IsFlipped to
// know whether it must be complemented. The result is shared and read-only.
func (p *Position[S]) Bitmap(s S) *roaring.Bitmap { return p.bitmaps.Get(s) }

// IsFlipped reports whether the stored bitmap for s is the complement of
// the true set.
func (p *Position[S]) IsFlipped(s S) bool { return p.hasFlipped && p.flipped == s }

// FlippedSymbol returns the flipped symbol, if any.
func (p *Position[S]) FlippedSymbol() (S, bool) { return p.flipped, p.hasFlipped }

// IsDeleted reports whether the bitmap for s has been elided because the
// symbol covers every sequence in the partition.
func (p *Position[S]) IsDeleted(s S) bool { return p.deleted && p.flipped == s }

// flipMostNumerous inspects the true cardinality of every symbol and flips
// the majority symbol when its bitmap would cover more than half the
// partition. Run-optimizes every bitmap.
func (p *Position[S]) flipMostNumerous(alphabet *symbols.Alphabet[S], sequenceCount uint32) {
	var maxSymbol S
	var hasMax bool
	var maxCount uint64

	for _, s := range alphabet.Symbols() {
		bitmap := p.bitmaps.Get(s)
		bitmap.RunOptimize()
		count := bitmap.GetCardinality()
		if p.IsFlipped(s) {
			count = uint64(sequenceCount) - count
		}
		if count > maxCount {
			maxSymbol = s
			hasMax = true
			maxCount = count
		}
	}

	flipWanted := hasMax && maxCount*2 > uint64(sequenceCount)
	switch {
	case flipWanted && (!p.hasFlipped || p.flipped != maxSymbol):
		if p.hasFlipped {
			p.unflip(sequenceCount, p.flipped)
		}
		p.flip(sequenceCount, maxSymbol)
	case !flipWanted && p.hasFlipped:
		p.unflip(sequenceCount, p.flipped)
		p.hasFlipped = false
	}

	p.deleted = p.hasFlipped && p.bitmaps.Get(p.flipped).IsEmpty()
}

func (p *Position[S]) flip(sequenceCount uint32, s S) {
	bitmap := p.bitmaps.Get(s)
	bitmap.Flip(0, uint64(sequenceCount))
	bitmap.RunOptimize()
	p.flipped = s
	p.hasFlipped = true
}

func (p *Position[S]) unflip(sequenceCount uint32, s S) {
	bitmap := p.bitmaps.Get(s)
	bitmap.Flip(0, uint64(sequenceCount))
	bitmap.RunOptimize()
}
