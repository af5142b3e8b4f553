package operators

import (
	"fmt"
)

// Complement inverts its child's result relative to [0, SequenceCount).
type Complement struct {
	child         Operator
	sequenceCount uint32
}

// NewComplement creates a Complement over a child operator.
func NewComplement(child Operator, sequenceCount uint32) *Complement {
	return &Complement{child: child, sequenceCount: sequenceCount}
}

func (o *Complement) Evaluate() Result {
	result := o.child.Evaluate().ToOwned()
	result.Flip(0, uint64(o.sequenceCount))
	return Owned(result)
}

func (o *Complement) String() string {
	return fmt.Sprintf("!%s", o.child)
}
