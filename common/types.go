// Package common holds small shared types used by the column stores and the
// query engine: the dense dictionary index, the local sequence id, epoch-day
// dates and the dictionary itself.
package common

// LocalID is the dense identifier of a sequence within a single partition.
// It is strictly 32-bit; all bitmap machinery operates on LocalIDs.
type LocalID uint32

// Idx is the index of a value in a per-column dictionary.
type Idx uint32
