package preprocessing

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDescriptorNoPartitionBy(t *testing.T) {
	d := BuildDescriptor(nil, 100)
	require.Len(t, d.Partitions, 1)
	assert.Equal(t, uint32(100), d.Partitions[0].Count())
}

func TestBuildDescriptorMergesSmallGroups(t *testing.T) {
	// 64 values of count 1: target = 64/32 = 2, so two values per
	// partition.
	var histogram []ValueCount
	for i := 0; i < 64; i++ {
		histogram = append(histogram, ValueCount{Value: string(rune('A'+i/26)) + string(rune('a'+i%26)), Count: 1})
	}
	d := BuildDescriptor(histogram, 0)
	assert.Len(t, d.Partitions, 32)
	for _, p := range d.Partitions {
		assert.Equal(t, uint32(2), p.Count())
	}
}

func TestBuildDescriptorLargeGroupAlone(t *testing.T) {
	histogram := []ValueCount{
		{Value: "A", Count: 100},
		{Value: "B", Count: 1},
		{Value: "C", Count: 1},
	}
	// target = 102/32 = 3: A exceeds it but still lands in one partition.
	d := BuildDescriptor(histogram, 0)
	require.NotEmpty(t, d.Partitions)
	assert.Equal(t, "A", d.Partitions[0].Chunks[0].KeyLow)
	assert.Equal(t, uint32(100), d.Partitions[0].Count())
}

func TestBuildDescriptorNullOwnPartition(t *testing.T) {
	histogram := []ValueCount{
		{Value: "", Count: 5},
		{Value: "A", Count: 5},
		{Value: "B", Count: 5},
	}
	d := BuildDescriptor(histogram, 0)
	// The null group stays alone regardless of the target.
	var nullPartitions int
	for _, p := range d.Partitions {
		for _, c := range p.Chunks {
			if c.KeyLow == "" {
				nullPartitions++
				assert.Len(t, p.Chunks, 1)
			}
		}
	}
	assert.Equal(t, 1, nullPartitions)
}

func TestBuildDescriptorStable(t *testing.T) {
	histogram := []ValueCount{
		{Value: "B.1", Count: 40},
		{Value: "A.2", Count: 3},
		{Value: "B.1.617", Count: 17},
		{Value: "C.37", Count: 9},
	}
	first := BuildDescriptor(histogram, 0)

	// Same buckets in a different input order must yield the same layout.
	shuffled := []ValueCount{histogram[2], histogram[0], histogram[3], histogram[1]}
	second := BuildDescriptor(shuffled, 0)
	assert.Equal(t, first, second)
}

func TestDescriptorSaveLoad(t *testing.T) {
	d := BuildDescriptor([]ValueCount{{Value: "A", Count: 3}, {Value: "B", Count: 4}}, 0)
	path := filepath.Join(t.TempDir(), "partition_descriptor.json")
	require.NoError(t, d.Save(path))

	loaded, err := LoadDescriptor(path)
	require.NoError(t, err)
	assert.Equal(t, d, loaded)
}

func TestLoadDescriptorMissing(t *testing.T) {
	_, err := LoadDescriptor(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
