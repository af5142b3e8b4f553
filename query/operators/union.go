package operators

import (
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// Union evaluates to the multi-way OR of its children.
type Union struct {
	children []Operator
}

// NewUnion creates a Union over child operators.
func NewUnion(children []Operator) *Union { return &Union{children: children} }

func (o *Union) Evaluate() Result {
	bitmaps := make([]*roaring.Bitmap, len(o.children))
	results := make([]Result, len(o.children))
	for i, child := range o.children {
		results[i] = child.Evaluate()
		bitmaps[i] = results[i].Bitmap()
	}
	return Owned(roaring.FastOr(bitmaps...))
}

func (o *Union) String() string {
	parts := make([]string, len(o.children))
	for i, child := range o.children {
		parts[i] = child.String()
	}
	return "(" + strings.Join(parts, " | ") + ")"
}
