package storage

import (
	"github.com/genspectrum/silo/symbols"
)

// SequenceStore groups the per-partition sequence indexes of one segment.
type SequenceStore[S ~uint8] struct {
	alphabet   *symbols.Alphabet[S]
	reference  []S
	partitions []*SequenceStorePartition[S]
}

// NewSequenceStore creates a store for a segment with the given reference.
func NewSequenceStore[S ~uint8](alphabet *symbols.Alphabet[S], reference []S) *SequenceStore[S] {
	return &SequenceStore[S]{alphabet: alphabet, reference: reference}
}

// Alphabet returns the segment's alphabet.
func (s *SequenceStore[S]) Alphabet() *symbols.Alphabet[S] { return s.alphabet }

// Reference returns the reference sequence as symbols, read-only.
func (s *SequenceStore[S]) Reference() []S { return s.reference }

// Length returns the segment length.
func (s *SequenceStore[S]) Length() int { return len(s.reference) }

// CreatePartition appends an empty partition.
func (s *SequenceStore[S]) CreatePartition() *SequenceStorePartition[S] {
	p := NewSequenceStorePartition(s.alphabet, s.reference)
	s.partitions = append(s.partitions, p)
	return p
}

// Partitions returns the partitions in partition-id order.
func (s *SequenceStore[S]) Partitions() []*SequenceStorePartition[S] { return s.partitions }
