package operators

import (
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// Threshold implements the N-of node: an id is selected when the number of
// children containing it reaches n (at-least) or equals n exactly.
type Threshold struct {
	children      []Operator
	n             uint32
	exactly       bool
	sequenceCount uint32
}

// NewThreshold creates a counting operator over child operators.
func NewThreshold(children []Operator, n uint32, exactly bool, sequenceCount uint32) *Threshold {
	return &Threshold{children: children, n: n, exactly: exactly, sequenceCount: sequenceCount}
}

func (o *Threshold) Evaluate() Result {
	counts := make([]uint32, o.sequenceCount)
	for _, child := range o.children {
		result := child.Evaluate()
		it := result.Bitmap().Iterator()
		for it.HasNext() {
			counts[it.Next()]++
		}
	}

	selected := roaring.New()
	for id, count := range counts {
		if (o.exactly && count == o.n) || (!o.exactly && count >= o.n) {
			selected.Add(uint32(id))
		}
	}
	return Owned(selected)
}

func (o *Threshold) String() string {
	parts := make([]string, len(o.children))
	for i, child := range o.children {
		parts[i] = child.String()
	}
	op := ">="
	if o.exactly {
		op = "=="
	}
	return fmt.Sprintf("[%s%d of %s]", op, o.n, strings.Join(parts, ", "))
}
