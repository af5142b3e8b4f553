package actions

import (
	"fmt"
	"math"

	silo "github.com/genspectrum/silo"
	"github.com/genspectrum/silo/internal/parallel"
	"github.com/genspectrum/silo/query/operators"
	"github.com/genspectrum/silo/storage"
)

// DefaultMinProportion is the mutation-frequency cutoff applied when the
// query does not set one.
const DefaultMinProportion = 0.05

// mutationEntries counts, for every position and mutation symbol, the
// filtered sequences holding that symbol, and emits one entry per
// non-reference symbol whose proportion passes the cutoff.
//
// The proportion denominator at a position is the count over concrete
// mutation symbols only; ambiguity codes and missing data are excluded.
// Positions with an empty denominator are skipped.
func mutationEntries[S ~uint8](
	partitions []*storage.SequenceStorePartition[S],
	filters []operators.Result,
	minProportion float64,
) []Entry {
	if len(partitions) == 0 {
		return nil
	}
	alphabet := partitions[0].Alphabet()
	reference := partitions[0].Reference()
	length := len(reference)

	var partial, full []int
	for i, p := range partitions {
		cardinality := filters[i].Cardinality()
		if cardinality == 0 {
			continue
		}
		if cardinality == uint64(p.SequenceCount()) {
			full = append(full, i)
		} else {
			if filters[i].IsMutable() {
				filters[i].Bitmap().RunOptimize()
			}
			partial = append(partial, i)
		}
	}

	counts := make([][]uint32, alphabet.Count())
	for _, s := range alphabet.MutationSymbols() {
		counts[s] = make([]uint32, length)
	}

	parallel.For(length, 300, func(lo, hi int) {
		for _, i := range partial {
			partitions[i].AddMutationCounts(filters[i].Bitmap(), false, counts, lo, hi)
		}
		for _, i := range full {
			partitions[i].AddMutationCounts(filters[i].Bitmap(), true, counts, lo, hi)
		}
	})

	var entries []Entry
	for pos := 0; pos < length; pos++ {
		var total uint32
		for _, s := range alphabet.MutationSymbols() {
			total += counts[s][pos]
		}
		if total == 0 {
			continue
		}
		threshold := uint32(math.Ceil(float64(total)*minProportion)) - 1

		referenceSymbol := reference[pos]
		for _, s := range alphabet.MutationSymbols() {
			if s == referenceSymbol {
				continue
			}
			count := counts[s][pos]
			if count > threshold {
				entries = append(entries, Entry{
					"mutation": fmt.Sprintf("%c%d%c",
						alphabet.SymbolToChar(referenceSymbol), pos+1, alphabet.SymbolToChar(s)),
					"count":      count,
					"proportion": float64(count) / float64(total),
				})
			}
		}
	}
	return entries
}

func parseMinProportion(raw *float64) (float64, error) {
	if raw == nil {
		return DefaultMinProportion, nil
	}
	if *raw <= 0 || *raw > 1 {
		return 0, silo.NewQueryParseError("invalid proportion: minProportion must be in interval (0.0, 1.0]")
	}
	return *raw, nil
}

// NucleotideMutations emits the mutation-frequency table of one nucleotide
// segment over the filtered sequences.
type NucleotideMutations struct {
	ordering
	SequenceName  string
	MinProportion float64
}

func parseNucleotideMutations(data []byte) (Action, error) {
	var node struct {
		Type          string         `json:"type"`
		SequenceName  string         `json:"sequenceName"`
		MinProportion *float64       `json:"minProportion"`
		OrderByFields []OrderByField `json:"orderByFields"`
		Limit         *uint32        `json:"limit"`
		Offset        *uint32        `json:"offset"`
	}
	if err := decodeStrict(data, &node); err != nil {
		return nil, &silo.QueryParseError{Msg: "invalid Mutations action", Cause: err}
	}
	minProportion, err := parseMinProportion(node.MinProportion)
	if err != nil {
		return nil, err
	}
	return &NucleotideMutations{
		ordering:      ordering{OrderBy: node.OrderByFields, Limit: node.Limit, Offset: node.Offset},
		SequenceName:  node.SequenceName,
		MinProportion: minProportion,
	}, nil
}

func (a *NucleotideMutations) Execute(db *silo.Database, filters []operators.Result) (*Result, error) {
	name := a.SequenceName
	if name == "" {
		name = db.DefaultNucleotideSequence()
	}
	store, ok := db.NucSequences[name]
	if !ok {
		return nil, silo.NewQueryParseError("the database does not contain the nucleotide sequence %q", name)
	}

	entries := mutationEntries(store.Partitions(), filters, a.MinProportion)
	return &Result{Entries: a.applyOrderByAndLimit(entries)}, nil
}

// AminoAcidMutations emits the mutation-frequency table of one gene segment
// over the filtered sequences.
type AminoAcidMutations struct {
	ordering
	SequenceName  string
	MinProportion float64
}

func parseAminoAcidMutations(data []byte) (Action, error) {
	var node struct {
		Type          string         `json:"type"`
		SequenceName  *string        `json:"sequenceName"`
		MinProportion *float64       `json:"minProportion"`
		OrderByFields []OrderByField `json:"orderByFields"`
		Limit         *uint32        `json:"limit"`
		Offset        *uint32        `json:"offset"`
	}
	if err := decodeStrict(data, &node); err != nil {
		return nil, &silo.QueryParseError{Msg: "invalid AminoAcidMutations action", Cause: err}
	}
	if node.SequenceName == nil {
		return nil, silo.NewQueryParseError("the field 'sequenceName' is required in an AminoAcidMutations action")
	}
	minProportion, err := parseMinProportion(node.MinProportion)
	if err != nil {
		return nil, err
	}
	return &AminoAcidMutations{
		ordering:      ordering{OrderBy: node.OrderByFields, Limit: node.Limit, Offset: node.Offset},
		SequenceName:  *node.SequenceName,
		MinProportion: minProportion,
	}, nil
}

func (a *AminoAcidMutations) Execute(db *silo.Database, filters []operators.Result) (*Result, error) {
	store, ok := db.AASequences[a.SequenceName]
	if !ok {
		return nil, silo.NewQueryParseError("the database does not contain the amino-acid sequence %q", a.SequenceName)
	}

	entries := mutationEntries(store.Partitions(), filters, a.MinProportion)
	return &Result{Entries: a.applyOrderByAndLimit(entries)}, nil
}
