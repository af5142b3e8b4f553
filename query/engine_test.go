package query_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	silo "github.com/genspectrum/silo"
	"github.com/genspectrum/silo/common"
	"github.com/genspectrum/silo/config"
	"github.com/genspectrum/silo/lineage"
	"github.com/genspectrum/silo/query"
	"github.com/genspectrum/silo/storage/column"
)

// testDatabase builds the reference scenario: one partition, reference
// ACGT, four sequences.
//
//	S1 ACGT   S2 ACGA   S3 AAGT   S4 NCGT
func testDatabase(t *testing.T) *silo.Database {
	t.Helper()

	cfg := &config.DatabaseConfig{Schema: config.Schema{
		InstanceName:      "test",
		PrimaryKey:        "key",
		DateToSortBy:      "date",
		DefaultNucleotide: "main",
		Metadata: []config.ColumnConfig{
			{Name: "key", Type: "string"},
			{Name: "country", Type: "indexed_string"},
			{Name: "date", Type: "date"},
			{Name: "lineage", Type: "pango_lineage"},
			{Name: "age", Type: "int"},
			{Name: "qc_value", Type: "float"},
			{Name: "insertions", Type: "insertion"},
		},
	}}
	require.NoError(t, cfg.Validate())

	genomes := &config.ReferenceGenomes{
		NucleotideSequences: map[string]string{"main": "ACGT"},
		AminoAcidSequences:  map[string]string{"S": "MF"},
	}
	aliases := lineage.NewAliasLookup(map[string]string{"AY": "B.1.617.2"})

	db, err := silo.NewDatabase(cfg, genomes, aliases)
	require.NoError(t, err)

	part := db.AddPartition()

	keys := []string{"S1", "S2", "S3", "S4"}
	countries := []string{"Germany", "Germany", "Switzerland", "Germany"}
	dates := []string{"2021-03-18", "2021-03-19", "2021-03-20", "2021-03-21"}
	lineages := []string{"B.1", "AY.1", "B.1", "A.2"}
	ages := []int32{30, 40, column.IntNull, 50}
	qc := []float64{0.9, nan(), 0.8, 0.7}
	insertions := [][]column.Insertion{
		nil,
		{{Position: 100, Value: "AAG"}},
		nil,
		nil,
	}
	nucSequences := []string{"ACGT", "ACGA", "AAGT", "NCGT"}
	aaSequences := []string{"MF", "ML", "XF", "MF"}

	for i := range keys {
		part.Columns.Strings["key"].Insert(keys[i])
		part.Columns.IndexedStrings["country"].Insert(countries[i])
		d, err := common.ParseDate(dates[i])
		require.NoError(t, err)
		part.Columns.Dates["date"].Insert(d)
		part.Columns.PangoLineages["lineage"].Insert(db.Aliases.Resolve(lineages[i]))
		part.Columns.Ints["age"].Insert(ages[i])
		part.Columns.Floats["qc_value"].Insert(qc[i])
		part.Columns.Insertions["insertions"].Insert(insertions[i])
	}
	part.Columns.IndexedStrings["country"].Optimize()
	part.Columns.PangoLineages["lineage"].Optimize()
	part.Columns.PangoLineages["lineage"].BuildSublineageIndex()
	part.Columns.Insertions["insertions"].Optimize()

	require.NoError(t, part.NucSequences["main"].AppendSequences(nucSequences))
	part.NucSequences["main"].Finalize()
	require.NoError(t, part.AASequences["S"].AppendSequences(aaSequences))
	part.AASequences["S"].Finalize()

	compressed := make([][]byte, len(nucSequences))
	for i, sequence := range nucSequences {
		compressed[i] = db.Compressors["main"].Compress(sequence)
	}
	part.RawSequences["main"] = compressed

	part.SequenceCount = 4
	require.NoError(t, part.Validate())
	db.DataVersion = "20210321000000"
	return db
}

func nan() float64 {
	var f float64
	return f / f
}

func execute(t *testing.T, db *silo.Database, queryJSON string) *query.Response {
	t.Helper()
	engine := query.NewEngine(db, nil)
	response, err := engine.ExecuteQuery([]byte(queryJSON))
	require.NoError(t, err)
	return response
}

func count(t *testing.T, db *silo.Database, filterJSON string) uint64 {
	t.Helper()
	response := execute(t, db, fmt.Sprintf(
		`{"filter": %s, "action": {"type": "Aggregated"}}`, filterJSON,
	))
	require.Len(t, response.QueryResult, 1)
	return response.QueryResult[0]["count"].(uint64)
}

func TestCountAll(t *testing.T) {
	db := testDatabase(t)
	assert.Equal(t, uint64(4), count(t, db, `{"type": "True"}`))
}

func TestCountNone(t *testing.T) {
	db := testDatabase(t)
	assert.Equal(t, uint64(0), count(t, db, `{"type": "False"}`))
	assert.Equal(t, uint64(0), count(t, db, `{"type": "Empty"}`))
}

func TestHasMutationAtPosition2(t *testing.T) {
	db := testDatabase(t)
	// Only S3 differs from the reference C at position 2.
	assert.Equal(t, uint64(1), count(t, db, `{"type": "HasMutation", "position": 2}`))
}

func TestReferenceSymbolDotExpansion(t *testing.T) {
	db := testDatabase(t)
	// '.' at position 1 expands to the reference symbol A: S1, S2, S3
	// match; S4's missing N does not.
	assert.Equal(t, uint64(3), count(t, db,
		`{"type": "NucleotideSymbolEquals", "position": 1, "symbol": "."}`))
}

func TestMissingSymbolFromMissingBitmap(t *testing.T) {
	db := testDatabase(t)
	assert.Equal(t, uint64(1), count(t, db,
		`{"type": "NucleotideSymbolEquals", "position": 1, "symbol": "N"}`))
}

func TestSymbolEqualsFlippedPath(t *testing.T) {
	db := testDatabase(t)
	// G at position 3 covers all sequences (elided bitmap path).
	assert.Equal(t, uint64(4), count(t, db,
		`{"type": "NucleotideSymbolEquals", "position": 3, "symbol": "G"}`))
	// T at position 4 is flipped (3 of 4).
	assert.Equal(t, uint64(3), count(t, db,
		`{"type": "NucleotideSymbolEquals", "position": 4, "symbol": "T"}`))
	// A at position 4 is a stored minority symbol.
	assert.Equal(t, uint64(1), count(t, db,
		`{"type": "NucleotideSymbolEquals", "position": 4, "symbol": "A"}`))
}

func TestAndWithNegatedChild(t *testing.T) {
	db := testDatabase(t)
	assert.Equal(t, uint64(1), count(t, db, `{
		"type": "And",
		"children": [
			{"type": "HasMutation", "position": 2},
			{"type": "Negation", "child": {"type": "NucleotideSymbolEquals", "position": 1, "symbol": "N"}}
		]
	}`))
}

func TestDeMorgan(t *testing.T) {
	db := testDatabase(t)
	f := `{"type": "NucleotideSymbolEquals", "position": 4, "symbol": "T"}`
	g := `{"type": "NucleotideSymbolEquals", "position": 2, "symbol": "C"}`

	andCount := count(t, db, fmt.Sprintf(`{"type": "And", "children": [%s, %s]}`, f, g))
	deMorgan := count(t, db, fmt.Sprintf(`{
		"type": "Negation",
		"child": {"type": "Or", "children": [
			{"type": "Negation", "child": %s},
			{"type": "Negation", "child": %s}
		]}
	}`, f, g))
	assert.Equal(t, andCount, deMorgan)
}

func TestDoubleNegation(t *testing.T) {
	db := testDatabase(t)
	f := `{"type": "NucleotideSymbolEquals", "position": 2, "symbol": "C"}`
	direct := count(t, db, f)
	doubled := count(t, db, fmt.Sprintf(
		`{"type": "Negation", "child": {"type": "Negation", "child": %s}}`, f))
	assert.Equal(t, direct, doubled)
}

func TestNOf(t *testing.T) {
	db := testDatabase(t)
	// S1 matches both children, S2 and S3 match exactly one each.
	children := `[
		{"type": "NucleotideSymbolEquals", "position": 2, "symbol": "C"},
		{"type": "NucleotideSymbolEquals", "position": 4, "symbol": "T"}
	]`
	// C@2 holds for S1, S2, S4; T@4 holds for S1, S3, S4.
	assert.Equal(t, uint64(4), count(t, db,
		fmt.Sprintf(`{"type": "NOf", "n": 1, "children": %s}`, children)))
	assert.Equal(t, uint64(2), count(t, db,
		fmt.Sprintf(`{"type": "NOf", "n": 2, "children": %s}`, children)))
	assert.Equal(t, uint64(2), count(t, db,
		fmt.Sprintf(`{"type": "NOf", "n": 1, "exactly": true, "children": %s}`, children)))
}

func TestStringEquals(t *testing.T) {
	db := testDatabase(t)
	assert.Equal(t, uint64(3), count(t, db,
		`{"type": "StringEquals", "column": "country", "value": "Germany"}`))
	assert.Equal(t, uint64(1), count(t, db,
		`{"type": "StringEquals", "column": "key", "value": "S2"}`))
	assert.Equal(t, uint64(0), count(t, db,
		`{"type": "StringEquals", "column": "country", "value": "France"}`))
}

func TestPangoLineageEquals(t *testing.T) {
	db := testDatabase(t)
	assert.Equal(t, uint64(2), count(t, db,
		`{"type": "PangoLineageEquals", "column": "lineage", "value": "B.1"}`))
	// Sub-lineages pull in S2 (AY.1 = B.1.617.2.1).
	assert.Equal(t, uint64(3), count(t, db,
		`{"type": "PangoLineageEquals", "column": "lineage", "value": "B.1", "includeSubLineages": true}`))
	// Aliased query value resolves before lookup.
	assert.Equal(t, uint64(1), count(t, db,
		`{"type": "PangoLineageEquals", "column": "lineage", "value": "AY.1"}`))
}

func TestDateBetweenInclusive(t *testing.T) {
	db := testDatabase(t)
	assert.Equal(t, uint64(2), count(t, db,
		`{"type": "DateBetween", "column": "date", "from": "2021-03-19", "to": "2021-03-20"}`))
	// Both endpoints inclusive.
	assert.Equal(t, uint64(4), count(t, db,
		`{"type": "DateBetween", "column": "date", "from": "2021-03-18", "to": "2021-03-21"}`))
	// Open endpoints.
	assert.Equal(t, uint64(2), count(t, db,
		`{"type": "DateBetween", "column": "date", "from": "2021-03-20"}`))
	assert.Equal(t, uint64(1), count(t, db,
		`{"type": "DateBetween", "column": "date", "to": "2021-03-18"}`))
}

func TestIntBetweenExcludesNull(t *testing.T) {
	db := testDatabase(t)
	// S3's age is absent and never matches.
	assert.Equal(t, uint64(3), count(t, db,
		`{"type": "IntBetween", "column": "age", "from": 0, "to": 100}`))
	assert.Equal(t, uint64(1), count(t, db,
		`{"type": "IntBetween", "column": "age", "from": 35, "to": 45}`))
}

func TestFloatBetweenExcludesNaN(t *testing.T) {
	db := testDatabase(t)
	assert.Equal(t, uint64(3), count(t, db,
		`{"type": "FloatBetween", "column": "qc_value", "from": 0, "to": 1}`))
	assert.Equal(t, uint64(2), count(t, db,
		`{"type": "FloatBetween", "column": "qc_value", "from": 0.75}`))
}

func TestInsertionContains(t *testing.T) {
	db := testDatabase(t)
	assert.Equal(t, uint64(1), count(t, db,
		`{"type": "InsertionContains", "position": 100, "pattern": "AAG"}`))
	assert.Equal(t, uint64(0), count(t, db,
		`{"type": "InsertionContains", "position": 100, "pattern": "TTT"}`))
}

func TestPatternSearch(t *testing.T) {
	db := testDatabase(t)
	// ACG starting at position 1: S1 and S2.
	assert.Equal(t, uint64(2), count(t, db,
		`{"type": "PatternSearch", "position": 1, "pattern": "ACG"}`))
	// GT at position 3: S1, S3, S4.
	assert.Equal(t, uint64(3), count(t, db,
		`{"type": "PatternSearch", "position": 3, "pattern": "GT"}`))
}

func TestAminoAcidSymbolEquals(t *testing.T) {
	db := testDatabase(t)
	assert.Equal(t, uint64(1), count(t, db,
		`{"type": "AminoAcidSymbolEquals", "sequenceName": "S", "position": 2, "symbol": "L"}`))
	assert.Equal(t, uint64(1), count(t, db,
		`{"type": "AminoAcidSymbolEquals", "sequenceName": "S", "position": 1, "symbol": "X"}`))
}

func TestNucleotideMutationsAction(t *testing.T) {
	db := testDatabase(t)
	response := execute(t, db, `{
		"filter": {"type": "True"},
		"action": {"type": "Mutations", "minProportion": 0.25}
	}`)

	// Position 4 holds T for S1, S3, S4 and A for S2: alt A passes the
	// threshold ceil(4*0.25)-1 = 0 with proportion 1/4.
	var found bool
	for _, entry := range response.QueryResult {
		if entry["mutation"] == "T4A" {
			found = true
			assert.Equal(t, uint32(1), entry["count"])
			assert.InDelta(t, 0.25, entry["proportion"].(float64), 1e-9)
		}
	}
	assert.True(t, found, "expected mutation T4A in %v", response.QueryResult)
}

func TestNucleotideMutationsExcludesMissingFromDenominator(t *testing.T) {
	db := testDatabase(t)
	response := execute(t, db, `{
		"filter": {"type": "True"},
		"action": {"type": "NucleotideMutations", "minProportion": 0.25}
	}`)

	// Position 1: S4 is missing; only three valid symbols remain, all
	// reference A, so no mutation at position 1 is reported.
	for _, entry := range response.QueryResult {
		mutation := entry["mutation"].(string)
		assert.NotEqual(t, byte('1'), mutation[len(mutation)-2],
			"unexpected mutation at position 1: %s", mutation)
	}
}

func TestAminoAcidMutationsAction(t *testing.T) {
	db := testDatabase(t)
	response := execute(t, db, `{
		"filter": {"type": "True"},
		"action": {"type": "AminoAcidMutations", "sequenceName": "S", "minProportion": 0.25}
	}`)

	var found bool
	for _, entry := range response.QueryResult {
		if entry["mutation"] == "F2L" {
			found = true
			assert.Equal(t, uint32(1), entry["count"])
			// Denominator excludes nothing at position 2: F, L, F, F.
			assert.InDelta(t, 0.25, entry["proportion"].(float64), 1e-9)
		}
	}
	assert.True(t, found, "expected mutation F2L in %v", response.QueryResult)
}

func TestDetailsLimitOrderByDescending(t *testing.T) {
	db := testDatabase(t)
	response := execute(t, db, `{
		"filter": {"type": "True"},
		"action": {
			"type": "Details",
			"fields": ["key"],
			"orderByFields": [{"field": "key", "ascending": false}],
			"limit": 2
		}
	}`)

	require.Len(t, response.QueryResult, 2)
	assert.Equal(t, "S4", response.QueryResult[0]["key"])
	assert.Equal(t, "S3", response.QueryResult[1]["key"])
}

func TestDetailsLimitEqualsSortedPrefix(t *testing.T) {
	db := testDatabase(t)
	full := execute(t, db, `{
		"filter": {"type": "True"},
		"action": {"type": "Details", "fields": ["key"], "orderByFields": ["key"]}
	}`)
	limited := execute(t, db, `{
		"filter": {"type": "True"},
		"action": {"type": "Details", "fields": ["key"], "orderByFields": ["key"], "limit": 3}
	}`)
	require.Len(t, limited.QueryResult, 3)
	assert.Equal(t, full.QueryResult[:3], limited.QueryResult)
}

func TestDetailsAllFieldsNullHandling(t *testing.T) {
	db := testDatabase(t)
	response := execute(t, db, `{
		"filter": {"type": "StringEquals", "column": "key", "value": "S3"},
		"action": {"type": "Details"}
	}`)
	require.Len(t, response.QueryResult, 1)
	entry := response.QueryResult[0]
	assert.Equal(t, "S3", entry["key"])
	assert.Equal(t, "Switzerland", entry["country"])
	assert.Nil(t, entry["age"])
}

func TestDetailsOffset(t *testing.T) {
	db := testDatabase(t)
	response := execute(t, db, `{
		"filter": {"type": "True"},
		"action": {"type": "Details", "fields": ["key"], "orderByFields": ["key"], "limit": 2, "offset": 1}
	}`)
	require.Len(t, response.QueryResult, 2)
	assert.Equal(t, "S2", response.QueryResult[0]["key"])
	assert.Equal(t, "S3", response.QueryResult[1]["key"])
}

func TestAggregatedGroupBy(t *testing.T) {
	db := testDatabase(t)
	response := execute(t, db, `{
		"filter": {"type": "True"},
		"action": {"type": "Aggregated", "groupByFields": ["country"]}
	}`)

	require.Len(t, response.QueryResult, 2)
	assert.Equal(t, "Germany", response.QueryResult[0]["country"])
	assert.Equal(t, uint64(3), response.QueryResult[0]["count"])
	assert.Equal(t, "Switzerland", response.QueryResult[1]["country"])
	assert.Equal(t, uint64(1), response.QueryResult[1]["count"])
}

func TestInsertionsAction(t *testing.T) {
	db := testDatabase(t)
	response := execute(t, db, `{
		"filter": {"type": "True"},
		"action": {"type": "Insertions"}
	}`)
	require.Len(t, response.QueryResult, 1)
	assert.Equal(t, "ins_100:AAG", response.QueryResult[0]["insertion"])
	assert.Equal(t, uint64(1), response.QueryResult[0]["count"])
}

func TestFastaAligned(t *testing.T) {
	db := testDatabase(t)
	response := execute(t, db, `{
		"filter": {"type": "StringEquals", "column": "key", "value": "S4"},
		"action": {"type": "FastaAligned"}
	}`)
	require.Len(t, response.QueryResult, 1)
	assert.Equal(t, "S4", response.QueryResult[0]["key"])
	assert.Equal(t, "NCGT", response.QueryResult[0]["main"])
}

func TestFastaFromStoredSequences(t *testing.T) {
	db := testDatabase(t)
	response := execute(t, db, `{
		"filter": {"type": "StringEquals", "column": "key", "value": "S2"},
		"action": {"type": "Fasta"}
	}`)
	require.Len(t, response.QueryResult, 1)
	assert.Equal(t, "ACGA", response.QueryResult[0]["main"])
}

func TestQueryParseErrors(t *testing.T) {
	db := testDatabase(t)
	engine := query.NewEngine(db, nil)

	tests := []struct {
		name  string
		query string
	}{
		{"malformed_json", `{"filter": `},
		{"missing_filter", `{"action": {"type": "Aggregated"}}`},
		{"missing_action", `{"filter": {"type": "True"}}`},
		{"unknown_filter_type", `{"filter": {"type": "Bogus"}, "action": {"type": "Aggregated"}}`},
		{"unknown_action_type", `{"filter": {"type": "True"}, "action": {"type": "Bogus"}}`},
		{"unknown_field_in_filter", `{"filter": {"type": "True", "extra": 1}, "action": {"type": "Aggregated"}}`},
		{"unknown_top_level_field", `{"filter": {"type": "True"}, "action": {"type": "Aggregated"}, "x": 1}`},
		{"position_out_of_range", `{"filter": {"type": "HasMutation", "position": 99}, "action": {"type": "Aggregated"}}`},
		{"position_zero", `{"filter": {"type": "NucleotideSymbolEquals", "position": 0, "symbol": "A"}, "action": {"type": "Aggregated"}}`},
		{"unknown_column", `{"filter": {"type": "StringEquals", "column": "nope", "value": "x"}, "action": {"type": "Aggregated"}}`},
		{"unknown_segment", `{"filter": {"type": "NucleotideSymbolEquals", "sequenceName": "nope", "position": 1, "symbol": "A"}, "action": {"type": "Aggregated"}}`},
		{"bad_symbol", `{"filter": {"type": "NucleotideSymbolEquals", "position": 1, "symbol": "Q"}, "action": {"type": "Aggregated"}}`},
		{"bad_min_proportion", `{"filter": {"type": "True"}, "action": {"type": "Mutations", "minProportion": 1.5}}`},
		{"order_by_not_selected", `{"filter": {"type": "True"}, "action": {"type": "Details", "fields": ["key"], "orderByFields": ["country"]}}`},
		{"bad_insertion_pattern", `{"filter": {"type": "InsertionContains", "position": 1, "pattern": "(["}, "action": {"type": "Aggregated"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.ExecuteQuery([]byte(tt.query))
			require.Error(t, err)
			var parseErr *silo.QueryParseError
			assert.ErrorAs(t, err, &parseErr)
		})
	}
}

func TestResponseSerialization(t *testing.T) {
	db := testDatabase(t)
	response := execute(t, db, `{"filter": {"type": "True"}, "action": {"type": "Aggregated"}}`)

	data, err := json.Marshal(response)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"queryResult"`)
	assert.Contains(t, string(data), `"actionTime"`)
	assert.Contains(t, string(data), `"filterTime"`)
}

func TestUpperBoundNotUsedByDefault(t *testing.T) {
	db := testDatabase(t)
	// R at position 1 matches nothing stored; exact mode does not expand.
	assert.Equal(t, uint64(0), count(t, db,
		`{"type": "NucleotideSymbolEquals", "position": 1, "symbol": "R"}`))
}

func TestMaybeExpandsAmbiguity(t *testing.T) {
	db := testDatabase(t)
	// In upper-bound mode, A at position 1 also matches codes that could
	// be an A: S4's missing N qualifies.
	assert.Equal(t, uint64(4), count(t, db, `{
		"type": "Maybe",
		"child": {"type": "NucleotideSymbolEquals", "position": 1, "symbol": "A"}
	}`))

	// Negation flips the bound back: exactly the certain non-A sequences.
	assert.Equal(t, uint64(0), count(t, db, `{
		"type": "Negation",
		"child": {"type": "Maybe", "child": {"type": "NucleotideSymbolEquals", "position": 1, "symbol": "A"}}
	}`))
}
