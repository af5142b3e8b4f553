package filter

import (
	"fmt"
	"strings"

	silo "github.com/genspectrum/silo"
	"github.com/genspectrum/silo/query/operators"
	"github.com/genspectrum/silo/storage"
)

// And matches sequences satisfying every child. Negated children are
// stripped at compile time and handed to the intersection's ANDNOT path.
type And struct {
	Children []Expression
}

func (f *And) Compile(db *silo.Database, part *storage.DatabasePartition, mode AmbiguityMode) (operators.Operator, error) {
	var positive, negated []operators.Operator

	for _, child := range f.Children {
		if neg, ok := child.(*Negation); ok {
			op, err := neg.Child.Compile(db, part, mode.Invert())
			if err != nil {
				return nil, err
			}
			switch op.(type) {
			case *operators.Empty:
				// NOT Empty constrains nothing.
			case *operators.Full:
				return operators.NewEmpty(), nil
			default:
				negated = append(negated, op)
			}
			continue
		}

		op, err := child.Compile(db, part, mode)
		if err != nil {
			return nil, err
		}
		switch op.(type) {
		case *operators.Empty:
			return operators.NewEmpty(), nil
		case *operators.Full:
			// Full constrains nothing.
		default:
			positive = append(positive, op)
		}
	}

	switch {
	case len(positive) == 0 && len(negated) == 0:
		return operators.NewFull(part.SequenceCount), nil
	case len(positive) == 0:
		if len(negated) == 1 {
			return operators.NewComplement(negated[0], part.SequenceCount), nil
		}
		return operators.NewComplement(operators.NewUnion(negated), part.SequenceCount), nil
	case len(positive) == 1 && len(negated) == 0:
		return positive[0], nil
	default:
		return operators.NewIntersection(positive, negated), nil
	}
}

func (f *And) String() string {
	parts := make([]string, len(f.Children))
	for i, child := range f.Children {
		parts[i] = child.String()
	}
	return "And(" + strings.Join(parts, ", ") + ")"
}

// Or matches sequences satisfying any child.
type Or struct {
	Children []Expression
}

func (f *Or) Compile(db *silo.Database, part *storage.DatabasePartition, mode AmbiguityMode) (operators.Operator, error) {
	var children []operators.Operator
	for _, child := range f.Children {
		op, err := child.Compile(db, part, mode)
		if err != nil {
			return nil, err
		}
		switch op.(type) {
		case *operators.Full:
			return operators.NewFull(part.SequenceCount), nil
		case *operators.Empty:
			// Empty contributes nothing.
		default:
			children = append(children, op)
		}
	}

	switch len(children) {
	case 0:
		return operators.NewEmpty(), nil
	case 1:
		return children[0], nil
	default:
		return operators.NewUnion(children), nil
	}
}

func (f *Or) String() string {
	parts := make([]string, len(f.Children))
	for i, child := range f.Children {
		parts[i] = child.String()
	}
	return "Or(" + strings.Join(parts, ", ") + ")"
}

// Negation matches the complement of its child over [0, sequenceCount).
type Negation struct {
	Child Expression
}

func (f *Negation) Compile(db *silo.Database, part *storage.DatabasePartition, mode AmbiguityMode) (operators.Operator, error) {
	op, err := f.Child.Compile(db, part, mode.Invert())
	if err != nil {
		return nil, err
	}
	switch op.(type) {
	case *operators.Empty:
		return operators.NewFull(part.SequenceCount), nil
	case *operators.Full:
		return operators.NewEmpty(), nil
	default:
		return operators.NewComplement(op, part.SequenceCount), nil
	}
}

func (f *Negation) String() string {
	return fmt.Sprintf("Not(%s)", f.Child)
}

// NOf matches sequences contained in at least (or exactly) N children.
type NOf struct {
	N        uint32
	Exactly  bool
	Children []Expression
}

func (f *NOf) Compile(db *silo.Database, part *storage.DatabasePartition, mode AmbiguityMode) (operators.Operator, error) {
	if f.N == 0 && !f.Exactly {
		return operators.NewFull(part.SequenceCount), nil
	}
	if f.N > uint32(len(f.Children)) {
		return operators.NewEmpty(), nil
	}

	children := make([]operators.Operator, 0, len(f.Children))
	for _, child := range f.Children {
		op, err := child.Compile(db, part, mode)
		if err != nil {
			return nil, err
		}
		children = append(children, op)
	}
	return operators.NewThreshold(children, f.N, f.Exactly, part.SequenceCount), nil
}

func (f *NOf) String() string {
	parts := make([]string, len(f.Children))
	for i, child := range f.Children {
		parts[i] = child.String()
	}
	op := "at-least"
	if f.Exactly {
		op = "exactly"
	}
	return fmt.Sprintf("NOf(%s %d: %s)", op, f.N, strings.Join(parts, ", "))
}
