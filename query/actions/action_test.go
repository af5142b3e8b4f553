package actions

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	silo "github.com/genspectrum/silo"
)

func TestOrderByFieldUnmarshal(t *testing.T) {
	var field OrderByField
	require.NoError(t, json.Unmarshal([]byte(`"country"`), &field))
	assert.Equal(t, OrderByField{Field: "country", Ascending: true}, field)

	require.NoError(t, json.Unmarshal([]byte(`{"field": "date", "ascending": false}`), &field))
	assert.Equal(t, OrderByField{Field: "date", Ascending: false}, field)

	assert.Error(t, json.Unmarshal([]byte(`{"field": "date"}`), &field))
	assert.Error(t, json.Unmarshal([]byte(`42`), &field))
}

func TestCompareValuesNullsLast(t *testing.T) {
	assert.Equal(t, 1, compareValues(nil, "a"))
	assert.Equal(t, -1, compareValues("a", nil))
	assert.Equal(t, 0, compareValues(nil, nil))
}

func TestCompareValuesNumeric(t *testing.T) {
	assert.Equal(t, -1, compareValues(int32(2), int32(10)))
	assert.Equal(t, 1, compareValues(float64(10.5), int32(10)))
	assert.Equal(t, 0, compareValues(uint64(3), int32(3)))
}

func TestCompareValuesStrings(t *testing.T) {
	assert.Equal(t, -1, compareValues("2021-01-01", "2021-02-01"))
	assert.Equal(t, 1, compareValues("b", "a"))
}

func TestApplyOrderByAndLimit(t *testing.T) {
	entries := []Entry{
		{"k": "c"}, {"k": "a"}, {"k": nil}, {"k": "b"},
	}
	limit := uint32(2)
	offset := uint32(1)
	ord := ordering{
		OrderBy: []OrderByField{{Field: "k", Ascending: true}},
		Limit:   &limit,
		Offset:  &offset,
	}
	out := ord.applyOrderByAndLimit(entries)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0]["k"])
	assert.Equal(t, "c", out[1]["k"])
}

func TestApplyOffsetBeyondEnd(t *testing.T) {
	offset := uint32(10)
	ord := ordering{Offset: &offset}
	assert.Empty(t, ord.applyOrderByAndLimit([]Entry{{"k": 1}}))
}

func TestParseRejectsUnknownAction(t *testing.T) {
	_, err := Parse([]byte(`{"type": "Nope"}`))
	var parseErr *silo.QueryParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte(`{"type": "Aggregated", "bogus": 1}`))
	assert.Error(t, err)
}

func TestParseMinProportionBounds(t *testing.T) {
	_, err := Parse([]byte(`{"type": "Mutations", "minProportion": 0}`))
	assert.Error(t, err)
	_, err = Parse([]byte(`{"type": "Mutations", "minProportion": 1.01}`))
	assert.Error(t, err)

	action, err := Parse([]byte(`{"type": "Mutations"}`))
	require.NoError(t, err)
	assert.Equal(t, DefaultMinProportion, action.(*NucleotideMutations).MinProportion)
}

func TestParseAminoAcidMutationsRequiresSequence(t *testing.T) {
	_, err := Parse([]byte(`{"type": "AminoAcidMutations"}`))
	assert.Error(t, err)
}

func TestBoundedTupleHeap(t *testing.T) {
	cmp := newTupleComparator([]string{"v"}, []OrderByField{{Field: "v", Ascending: true}})
	h := newBoundedTupleHeap(3, cmp)
	for _, v := range []int32{5, 1, 4, 2, 3} {
		h.Offer(tuple{values: []any{v}})
	}
	sorted := h.Sorted()
	require.Len(t, sorted, 3)
	assert.Equal(t, int32(1), sorted[0].values[0])
	assert.Equal(t, int32(2), sorted[1].values[0])
	assert.Equal(t, int32(3), sorted[2].values[0])
}

func TestMergeSortedTuples(t *testing.T) {
	cmp := newTupleComparator([]string{"v"}, []OrderByField{{Field: "v", Ascending: true}})
	runs := [][]tuple{
		{{values: []any{int32(1)}}, {values: []any{int32(4)}}},
		{{values: []any{int32(2)}}, {values: []any{int32(3)}}},
		{},
	}
	merged := mergeSortedTuples(cmp, runs, 3)
	require.Len(t, merged, 3)
	assert.Equal(t, int32(1), merged[0].values[0])
	assert.Equal(t, int32(2), merged[1].values[0])
	assert.Equal(t, int32(3), merged[2].values[0])
}
