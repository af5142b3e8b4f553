package operators

import (
	"sort"
	"strings"
)

// Intersection evaluates to the AND of its children minus the union of its
// negated children. The compiler guarantees at least one positive child and
// at least two children overall.
//
// Children are sorted ascending by cardinality before folding and negated
// children descending; this bounds intermediate results and makes the
// evaluation deterministic.
type Intersection struct {
	children []Operator
	negated  []Operator
}

// NewIntersection creates an Intersection with positive and negated
// children.
func NewIntersection(children, negated []Operator) *Intersection {
	return &Intersection{children: children, negated: negated}
}

func intersectTwo(first, second Result) Result {
	switch {
	case first.IsMutable():
		first.Bitmap().And(second.Bitmap())
		return first
	case second.IsMutable():
		second.Bitmap().And(first.Bitmap())
		return second
	default:
		result := first.Bitmap().Clone()
		result.And(second.Bitmap())
		return Owned(result)
	}
}

func (o *Intersection) Evaluate() Result {
	results := make([]Result, len(o.children))
	for i, child := range o.children {
		results[i] = child.Evaluate()
	}
	negatedResults := make([]Result, len(o.negated))
	for i, child := range o.negated {
		negatedResults[i] = child.Evaluate()
	}

	// Smallest positive children first to keep intermediates small.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Cardinality() < results[j].Cardinality()
	})
	// Largest negated children first so they strip the most ids early.
	sort.SliceStable(negatedResults, func(i, j int) bool {
		return negatedResults[i].Cardinality() > negatedResults[j].Cardinality()
	})

	if len(results) == 1 {
		result := results[0].ToOwned()
		for _, neg := range negatedResults {
			result.AndNot(neg.Bitmap())
		}
		return Owned(result)
	}

	folded := intersectTwo(results[0], results[1])
	for i := 2; i < len(results); i++ {
		folded.Bitmap().And(results[i].Bitmap())
	}
	for _, neg := range negatedResults {
		folded.Bitmap().AndNot(neg.Bitmap())
	}
	return Owned(folded.Bitmap())
}

func (o *Intersection) String() string {
	parts := make([]string, 0, len(o.children)+len(o.negated))
	for _, child := range o.children {
		parts = append(parts, child.String())
	}
	var sb strings.Builder
	sb.WriteString("(" + strings.Join(parts, " & "))
	for _, child := range o.negated {
		sb.WriteString(" &! " + child.String())
	}
	sb.WriteString(")")
	return sb.String()
}
