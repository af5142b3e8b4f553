package column

import (
	"fmt"
	"regexp"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/genspectrum/silo/common"
)

// Insertion is one inserted string relative to the reference, at a 1-based
// position in the reference segment's coordinate space.
type Insertion struct {
	Position uint32
	Value    string
}

// InsertionColumn stores per-sequence insertion lists for one segment.
type InsertionColumn struct {
	lookup     *common.Dictionary
	partitions []*InsertionColumnPartition
}

// NewInsertionColumn creates an empty insertion column.
func NewInsertionColumn() *InsertionColumn {
	return &InsertionColumn{lookup: common.NewDictionary()}
}

// CreatePartition appends a partition sharing this column's dictionary.
func (c *InsertionColumn) CreatePartition() *InsertionColumnPartition {
	p := &InsertionColumnPartition{
		lookup: c.lookup,
		index:  make(map[uint32]map[common.Idx]*roaring.Bitmap),
	}
	c.partitions = append(c.partitions, p)
	return p
}

// InsertionColumnPartition stores one partition's insertion lists plus an
// inverted index position -> inserted text -> ids.
type InsertionColumnPartition struct {
	lookup     *common.Dictionary
	insertions [][]Insertion
	index      map[uint32]map[common.Idx]*roaring.Bitmap
}

// Insert appends the insertion list of the next local id. The list must be
// ordered by position.
func (p *InsertionColumnPartition) Insert(list []Insertion) {
	localID := uint32(len(p.insertions))
	p.insertions = append(p.insertions, list)

	for _, ins := range list {
		byValue, ok := p.index[ins.Position]
		if !ok {
			byValue = make(map[common.Idx]*roaring.Bitmap)
			p.index[ins.Position] = byValue
		}
		id := p.lookup.GetOrCreateID(ins.Value)
		bitmap, ok := byValue[id]
		if !ok {
			bitmap = roaring.New()
			byValue[id] = bitmap
		}
		bitmap.Add(localID)
	}
}

// Values returns the insertion list at a local id.
func (p *InsertionColumnPartition) Values(localID common.LocalID) []Insertion {
	return p.insertions[localID]
}

// Len returns the number of rows in the partition.
func (p *InsertionColumnPartition) Len() int { return len(p.insertions) }

// CompilePattern turns a user-supplied insertion search pattern into a
// regexp with substring semantics.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid insertion search pattern %q: %w", pattern, err)
	}
	return re, nil
}

// Search returns the ids of sequences carrying an insertion at position
// whose text matches the pattern. The result is owned by the caller.
func (p *InsertionColumnPartition) Search(position uint32, re *regexp.Regexp) *roaring.Bitmap {
	result := roaring.New()
	byValue, ok := p.index[position]
	if !ok {
		return result
	}
	for id, bitmap := range byValue {
		if re.MatchString(p.lookup.Value(id)) {
			result.Or(bitmap)
		}
	}
	return result
}

// Enumerate calls fn for every distinct (position, text) entry with its id
// bitmap. Used by the insertions action to produce grouped counts.
func (p *InsertionColumnPartition) Enumerate(fn func(position uint32, value string, ids *roaring.Bitmap)) {
	for position, byValue := range p.index {
		for id, bitmap := range byValue {
			fn(position, p.lookup.Value(id), bitmap)
		}
	}
}

// Optimize run-compresses all index bitmaps. Called once after build.
func (p *InsertionColumnPartition) Optimize() {
	for _, byValue := range p.index {
		for _, bitmap := range byValue {
			bitmap.RunOptimize()
		}
	}
}
