package storage

import (
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/genspectrum/silo/common"
	"github.com/genspectrum/silo/symbols"
)

func genGenomes(length int) gopter.Gen {
	genome := gen.SliceOfN(length, gen.OneConstOf(
		byte('A'), byte('C'), byte('G'), byte('T'),
		byte('N'), byte('-'), byte('R'),
	)).Map(func(bs []byte) string { return string(bs) })
	return gen.SliceOf(genome).SuchThat(func(gs []string) bool {
		return len(gs) > 0 && len(gs) <= 64
	})
}

func buildPartition(t *testing.T, genomes []string) *SequenceStorePartition[symbols.Nucleotide] {
	t.Helper()
	ref, err := symbols.Nucleotides.ParseSequence("ACGTACGT")
	if err != nil {
		t.Fatal(err)
	}
	p := NewSequenceStorePartition(symbols.Nucleotides, ref)
	if err := p.AppendSequences(genomes); err != nil {
		t.Fatal(err)
	}
	p.Finalize()
	return p
}

// Every local id holds exactly one symbol at every position, counting
// missing data through the per-sequence missing bitmaps.
func TestProperty_ExhaustivePartition(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("each id holds exactly one symbol per position", prop.ForAll(
		func(genomes []string) bool {
			p := buildPartition(t, genomes)
			for pos := 0; pos < p.Length(); pos++ {
				position := p.PositionAt(pos)
				for id := uint32(0); id < p.SequenceCount(); id++ {
					holders := 0
					if p.MissingBitmaps()[id].Contains(uint32(pos)) {
						holders++
					}
					for _, s := range symbols.Nucleotides.Symbols() {
						if s == symbols.Nucleotides.Missing() {
							continue
						}
						if position.Bitmap(s).Contains(id) != position.IsFlipped(s) {
							holders++
						}
					}
					if holders != 1 {
						return false
					}
				}
			}
			return true
		},
		genGenomes(8),
	))

	properties.TestingRun(t)
}

// Reconstruction returns exactly the input characters.
func TestProperty_ReconstructionRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("SymbolAt reconstructs the input", prop.ForAll(
		func(genomes []string) bool {
			p := buildPartition(t, genomes)
			for id, genome := range genomes {
				if p.ReconstructSequence(common.LocalID(id)) != genome {
					return false
				}
			}
			return true
		},
		genGenomes(8),
	))

	properties.TestingRun(t)
}

// For any filter, the per-position sum over mutation-symbol counts equals
// the number of filtered ids holding a concrete mutation symbol there.
func TestProperty_MutationCountSum(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("counts sum to filtered valid ids", prop.ForAll(
		func(genomes []string, filterBits []bool) bool {
			p := buildPartition(t, genomes)

			filter := roaring.New()
			for id := range genomes {
				if id < len(filterBits) && filterBits[id] {
					filter.Add(uint32(id))
				}
			}
			full := filter.GetCardinality() == uint64(len(genomes))

			counts := make([][]uint32, symbols.Nucleotides.Count())
			for _, s := range symbols.Nucleotides.MutationSymbols() {
				counts[s] = make([]uint32, p.Length())
			}
			p.AddMutationCounts(filter, full, counts, 0, p.Length())

			isMutationSymbol := make(map[byte]bool)
			for _, s := range symbols.Nucleotides.MutationSymbols() {
				isMutationSymbol[symbols.Nucleotides.SymbolToChar(s)] = true
			}

			for pos := 0; pos < p.Length(); pos++ {
				var sum uint32
				for _, s := range symbols.Nucleotides.MutationSymbols() {
					sum += counts[s][pos]
				}
				var expected uint32
				it := filter.Iterator()
				for it.HasNext() {
					if isMutationSymbol[genomes[it.Next()][pos]] {
						expected++
					}
				}
				if sum != expected {
					return false
				}
			}
			return true
		},
		genGenomes(8),
		gen.SliceOfN(64, gen.Bool()),
	))

	properties.TestingRun(t)
}

// Snapshot and restore preserve every reconstructed symbol.
func TestProperty_SnapshotRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("snapshot/restore preserves the index", prop.ForAll(
		func(genomes []string) bool {
			p := buildPartition(t, genomes)
			snap, err := p.Snapshot()
			if err != nil {
				return false
			}

			ref, _ := symbols.Nucleotides.ParseSequence("ACGTACGT")
			restored := NewSequenceStorePartition(symbols.Nucleotides, ref)
			if err := restored.Restore(snap); err != nil {
				return false
			}

			for id, genome := range genomes {
				if restored.ReconstructSequence(common.LocalID(id)) != genome {
					return false
				}
			}
			return true
		},
		genGenomes(8),
	))

	properties.TestingRun(t)
}
