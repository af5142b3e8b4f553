package column

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/genspectrum/silo/common"
	"github.com/genspectrum/silo/lineage"
)

// PangoLineageColumn is an indexed-string column over canonical (un-aliased)
// lineage labels with a precomputed sub-lineage bitmap per distinct value.
type PangoLineageColumn struct {
	lookup     *common.Dictionary
	partitions []*PangoLineageColumnPartition
}

// NewPangoLineageColumn creates an empty pango-lineage column.
func NewPangoLineageColumn() *PangoLineageColumn {
	return &PangoLineageColumn{lookup: common.NewDictionary()}
}

// CreatePartition appends a partition sharing this column's dictionary.
func (c *PangoLineageColumn) CreatePartition() *PangoLineageColumnPartition {
	p := &PangoLineageColumnPartition{
		lookup:            c.lookup,
		indexedValues:     make(map[common.Idx]*roaring.Bitmap),
		sublineageBitmaps: make(map[common.Idx]*roaring.Bitmap),
	}
	c.partitions = append(c.partitions, p)
	return p
}

// PangoLineageColumnPartition stores canonical lineage ids plus equality and
// sub-lineage bitmaps.
type PangoLineageColumnPartition struct {
	lookup            *common.Dictionary
	values            []common.Idx
	indexedValues     map[common.Idx]*roaring.Bitmap
	sublineageBitmaps map[common.Idx]*roaring.Bitmap
}

// Insert appends a canonical lineage label for the next local id. Callers
// resolve aliases before inserting.
func (p *PangoLineageColumnPartition) Insert(canonical string) {
	id := p.lookup.GetOrCreateID(canonical)
	localID := uint32(len(p.values))
	p.values = append(p.values, id)

	bitmap, ok := p.indexedValues[id]
	if !ok {
		bitmap = roaring.New()
		p.indexedValues[id] = bitmap
	}
	bitmap.Add(localID)
}

// Value returns the canonical lineage at a local id.
func (p *PangoLineageColumnPartition) Value(localID common.LocalID) string {
	return p.lookup.Value(p.values[localID])
}

// Len returns the number of rows in the partition.
func (p *PangoLineageColumnPartition) Len() int { return len(p.values) }

// BitmapForValue returns the equality bitmap for a canonical lineage, or a
// shared empty bitmap. The result is read-only.
func (p *PangoLineageColumnPartition) BitmapForValue(canonical string) *roaring.Bitmap {
	id, ok := p.lookup.ID(canonical)
	if !ok {
		return emptyBitmap
	}
	bitmap, ok := p.indexedValues[id]
	if !ok {
		return emptyBitmap
	}
	return bitmap
}

// SublineageBitmap returns the union bitmap of the lineage and all of its
// sub-lineages present in the partition, or a shared empty bitmap. The
// result is read-only.
func (p *PangoLineageColumnPartition) SublineageBitmap(canonical string) *roaring.Bitmap {
	id, ok := p.lookup.ID(canonical)
	if !ok {
		return emptyBitmap
	}
	bitmap, ok := p.sublineageBitmaps[id]
	if !ok {
		return emptyBitmap
	}
	return bitmap
}

// BuildSublineageIndex precomputes, for every distinct lineage in the
// partition, the union of equality bitmaps over all lineages extending it
// on a dot boundary. Called once after fill.
func (p *PangoLineageColumnPartition) BuildSublineageIndex() {
	for ancestorID := range p.indexedValues {
		ancestor := p.lookup.Value(ancestorID)
		union := roaring.New()
		for childID, bitmap := range p.indexedValues {
			if lineage.IsSublineageOf(ancestor, p.lookup.Value(childID)) {
				union.Or(bitmap)
			}
		}
		union.RunOptimize()
		p.sublineageBitmaps[ancestorID] = union
	}
}

// Optimize run-compresses all equality bitmaps. Called once after build.
func (p *PangoLineageColumnPartition) Optimize() {
	for _, bitmap := range p.indexedValues {
		bitmap.RunOptimize()
	}
}
