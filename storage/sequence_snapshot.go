package storage

import (
	"bytes"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// PositionSnapshot is the serialized form of one position index.
type PositionSnapshot struct {
	Bitmaps    [][]byte
	Flipped    uint8
	HasFlipped bool
	Deleted    bool
}

// SequenceSnapshot is the serialized form of one sequence store partition.
// Bitmaps are stored in the Roaring wire format.
type SequenceSnapshot struct {
	Positions      []PositionSnapshot
	MissingBitmaps [][]byte
	SequenceCount  uint32
}

// Snapshot serializes the partition's bitmaps for persistence.
func (p *SequenceStorePartition[S]) Snapshot() (*SequenceSnapshot, error) {
	snap := &SequenceSnapshot{
		Positions:      make([]PositionSnapshot, len(p.positions)),
		MissingBitmaps: make([][]byte, len(p.missingBitmaps)),
		SequenceCount:  p.sequenceCount,
	}
	for i := range p.positions {
		pos := &p.positions[i]
		ps := PositionSnapshot{
			Bitmaps:    make([][]byte, p.alphabet.Count()),
			Flipped:    uint8(pos.flipped),
			HasFlipped: pos.hasFlipped,
			Deleted:    pos.deleted,
		}
		for _, s := range p.alphabet.Symbols() {
			data, err := pos.bitmaps.Get(s).ToBytes()
			if err != nil {
				return nil, fmt.Errorf("serializing position %d symbol %d: %w", i, s, err)
			}
			ps.Bitmaps[s] = data
		}
		snap.Positions[i] = ps
	}
	for i, bitmap := range p.missingBitmaps {
		data, err := bitmap.ToBytes()
		if err != nil {
			return nil, fmt.Errorf("serializing missing bitmap %d: %w", i, err)
		}
		snap.MissingBitmaps[i] = data
	}
	return snap, nil
}

// Restore loads a snapshot into an empty partition. The partition must have
// been created for the same reference sequence.
func (p *SequenceStorePartition[S]) Restore(snap *SequenceSnapshot) error {
	if len(snap.Positions) != len(p.positions) {
		return fmt.Errorf(
			"snapshot has %d positions, segment reference has %d", len(snap.Positions), len(p.positions),
		)
	}
	for i := range snap.Positions {
		ps := &snap.Positions[i]
		pos := &p.positions[i]
		if len(ps.Bitmaps) != p.alphabet.Count() {
			return fmt.Errorf("snapshot position %d has %d bitmaps, alphabet has %d symbols",
				i, len(ps.Bitmaps), p.alphabet.Count())
		}
		for _, s := range p.alphabet.Symbols() {
			bitmap := roaring.New()
			if _, err := bitmap.ReadFrom(bytes.NewReader(ps.Bitmaps[s])); err != nil {
				return fmt.Errorf("reading position %d symbol %d bitmap: %w", i, s, err)
			}
			pos.bitmaps.Set(s, bitmap)
		}
		pos.flipped = S(ps.Flipped)
		pos.hasFlipped = ps.HasFlipped
		pos.deleted = ps.Deleted
	}

	p.missingBitmaps = make([]*roaring.Bitmap, len(snap.MissingBitmaps))
	for i, data := range snap.MissingBitmaps {
		bitmap := roaring.New()
		if _, err := bitmap.ReadFrom(bytes.NewReader(data)); err != nil {
			return fmt.Errorf("reading missing bitmap %d: %w", i, err)
		}
		p.missingBitmaps[i] = bitmap
	}
	p.sequenceCount = snap.SequenceCount
	return nil
}
