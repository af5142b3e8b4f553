package operators

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// SelectionMode controls whether BitmapSelection includes ids whose bitmap
// contains or does not contain the probed position.
type SelectionMode uint8

const (
	// ModeContains selects ids whose bitmap contains the position.
	ModeContains SelectionMode = iota
	// ModeNotContains selects ids whose bitmap does not contain it.
	ModeNotContains
)

// BitmapSelection scans a per-sequence bitmap vector and selects the ids
// whose bitmap holds (or misses) one position. Used to answer missing-symbol
// queries from the per-sequence missing bitmaps.
type BitmapSelection struct {
	bitmaps  []*roaring.Bitmap
	mode     SelectionMode
	position uint32
}

// NewBitmapSelection creates a selection over a per-sequence bitmap vector.
func NewBitmapSelection(bitmaps []*roaring.Bitmap, mode SelectionMode, position uint32) *BitmapSelection {
	return &BitmapSelection{bitmaps: bitmaps, mode: mode, position: position}
}

func (o *BitmapSelection) Evaluate() Result {
	result := roaring.New()
	for id, bitmap := range o.bitmaps {
		if bitmap.Contains(o.position) == (o.mode == ModeContains) {
			result.Add(uint32(id))
		}
	}
	return Owned(result)
}

func (o *BitmapSelection) String() string {
	if o.mode == ModeContains {
		return fmt.Sprintf("BitmapSelection(∋%d)", o.position)
	}
	return fmt.Sprintf("BitmapSelection(∌%d)", o.position)
}
