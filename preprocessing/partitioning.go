// Package preprocessing builds database snapshots from raw input: it
// validates metadata against the schema, groups rows into partitions by the
// configured partition-by column, fills the column and sequence stores and
// finalizes the bitmap indexes.
package preprocessing

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/genspectrum/silo/storage"
)

// targetDivisor fixes the partition size target at total/32.
const targetDivisor = 32

// ValueCount is one histogram bucket of the partition-by column.
type ValueCount struct {
	Value string
	Count uint32
}

// PartitionChunks lists the chunks of one partition, in key order.
type PartitionChunks struct {
	Chunks []storage.Chunk `json:"chunks"`
}

// Count sums the chunk counts.
func (p PartitionChunks) Count() uint32 {
	var total uint32
	for _, c := range p.Chunks {
		total += c.Count
	}
	return total
}

// Descriptor fixes the partition layout of a snapshot. Building twice on
// the same input yields an identical descriptor.
type Descriptor struct {
	Partitions []PartitionChunks `json:"partitions"`
}

// BuildDescriptor groups a partition-by histogram into partitions: walk the
// buckets sorted by value, merging adjacent buckets until the accumulated
// count would exceed total/targetDivisor. The null value forms its own
// partition. With an empty histogram (no partition-by column) there is
// exactly one partition covering everything.
func BuildDescriptor(histogram []ValueCount, totalWithoutPartitionBy uint32) *Descriptor {
	if len(histogram) == 0 {
		return &Descriptor{Partitions: []PartitionChunks{
			{Chunks: []storage.Chunk{{Count: totalWithoutPartitionBy}}},
		}}
	}

	sorted := make([]ValueCount, len(histogram))
	copy(sorted, histogram)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Value < sorted[j].Value })

	var total uint32
	for _, vc := range sorted {
		total += vc.Count
	}
	target := total / targetDivisor

	descriptor := &Descriptor{}
	var current PartitionChunks
	var accumulated uint32

	flush := func() {
		if len(current.Chunks) > 0 {
			descriptor.Partitions = append(descriptor.Partitions, current)
			current = PartitionChunks{}
			accumulated = 0
		}
	}

	for _, vc := range sorted {
		// The null value stays alone in its own partition.
		if vc.Value == "" {
			flush()
			descriptor.Partitions = append(descriptor.Partitions, PartitionChunks{
				Chunks: []storage.Chunk{{KeyLow: "", KeyHigh: "", Count: vc.Count}},
			})
			continue
		}
		if accumulated > 0 && accumulated+vc.Count > target {
			flush()
		}
		current.Chunks = append(current.Chunks, storage.Chunk{
			KeyLow:  vc.Value,
			KeyHigh: vc.Value,
			Count:   vc.Count,
		})
		accumulated += vc.Count
	}
	flush()

	return descriptor
}

// Save writes the descriptor to a file as JSON.
func (d *Descriptor) Save(path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding partition descriptor: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadDescriptor reads a descriptor written by Save.
func LoadDescriptor(path string) (*Descriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading partition descriptor: %w", err)
	}
	var d Descriptor
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parsing partition descriptor %s: %w", path, err)
	}
	return &d, nil
}
