package column

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/genspectrum/silo/common"
)

// emptyBitmap is the shared result for lookups of unknown values. Callers
// receive it read-only and must not mutate it.
var emptyBitmap = roaring.New()

// IndexedStringColumn is an equality-indexed string column. The dictionary
// is shared across partitions so that value ids agree database-wide.
type IndexedStringColumn struct {
	lookup     *common.Dictionary
	partitions []*IndexedStringColumnPartition
}

// NewIndexedStringColumn creates an empty indexed string column.
func NewIndexedStringColumn() *IndexedStringColumn {
	return &IndexedStringColumn{lookup: common.NewDictionary()}
}

// CreatePartition appends a partition sharing this column's dictionary.
func (c *IndexedStringColumn) CreatePartition() *IndexedStringColumnPartition {
	p := &IndexedStringColumnPartition{
		lookup:        c.lookup,
		indexedValues: make(map[common.Idx]*roaring.Bitmap),
	}
	c.partitions = append(c.partitions, p)
	return p
}

// IndexedStringColumnPartition stores one partition's values as dictionary
// ids plus one bitmap per distinct value.
type IndexedStringColumnPartition struct {
	lookup        *common.Dictionary
	values        []common.Idx
	indexedValues map[common.Idx]*roaring.Bitmap
}

// Insert appends a value for the next local id.
func (p *IndexedStringColumnPartition) Insert(value string) {
	id := p.lookup.GetOrCreateID(value)
	localID := uint32(len(p.values))
	p.values = append(p.values, id)

	bitmap, ok := p.indexedValues[id]
	if !ok {
		bitmap = roaring.New()
		p.indexedValues[id] = bitmap
	}
	bitmap.Add(localID)
}

// Value returns the string at a local id.
func (p *IndexedStringColumnPartition) Value(localID common.LocalID) string {
	return p.lookup.Value(p.values[localID])
}

// ValueID returns the dictionary id at a local id.
func (p *IndexedStringColumnPartition) ValueID(localID common.LocalID) common.Idx {
	return p.values[localID]
}

// Len returns the number of rows in the partition.
func (p *IndexedStringColumnPartition) Len() int { return len(p.values) }

// BitmapForValue returns the bitmap of local ids holding value, or a shared
// empty bitmap when the value is unknown. The result is read-only.
func (p *IndexedStringColumnPartition) BitmapForValue(value string) *roaring.Bitmap {
	id, ok := p.lookup.ID(value)
	if !ok {
		return emptyBitmap
	}
	bitmap, ok := p.indexedValues[id]
	if !ok {
		return emptyBitmap
	}
	return bitmap
}

// Optimize run-compresses all value bitmaps. Called once after build.
func (p *IndexedStringColumnPartition) Optimize() {
	for _, bitmap := range p.indexedValues {
		bitmap.RunOptimize()
	}
}
