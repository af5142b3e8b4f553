package filter

import (
	silo "github.com/genspectrum/silo"
	"github.com/genspectrum/silo/query/operators"
	"github.com/genspectrum/silo/storage"
)

// True matches every sequence of the partition.
type True struct{}

func (f *True) Compile(_ *silo.Database, part *storage.DatabasePartition, _ AmbiguityMode) (operators.Operator, error) {
	return operators.NewFull(part.SequenceCount), nil
}

func (f *True) String() string { return "True" }

// False matches no sequence.
type False struct{}

func (f *False) Compile(*silo.Database, *storage.DatabasePartition, AmbiguityMode) (operators.Operator, error) {
	return operators.NewEmpty(), nil
}

func (f *False) String() string { return "False" }

// Empty is the constant empty result.
type Empty struct{}

func (f *Empty) Compile(*silo.Database, *storage.DatabasePartition, AmbiguityMode) (operators.Operator, error) {
	return operators.NewEmpty(), nil
}

func (f *Empty) String() string { return "Empty" }
