// Package actions implements the typed actions that consume per-partition
// filter bitmaps and produce result tables: aggregation, detail listings,
// mutation-frequency tables, insertion counts and FASTA output.
package actions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	silo "github.com/genspectrum/silo"
	"github.com/genspectrum/silo/query/operators"
)

// Entry is one row of a query result: field name to value. Absent values
// are nil and serialize as JSON null.
type Entry map[string]any

// Result is the table an action produces.
type Result struct {
	Entries []Entry
}

// Action consumes the per-partition filter bitmaps plus the database and
// produces a result table.
type Action interface {
	Execute(db *silo.Database, filters []operators.Result) (*Result, error)
}

// OrderByField names one sort field of an action's output.
type OrderByField struct {
	Field     string
	Ascending bool
}

// UnmarshalJSON accepts either a bare field name or an object with "field"
// and "ascending".
func (f *OrderByField) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*f = OrderByField{Field: name, Ascending: true}
		return nil
	}
	var obj struct {
		Field     *string `json:"field"`
		Ascending *bool   `json:"ascending"`
	}
	if err := json.Unmarshal(data, &obj); err != nil || obj.Field == nil || obj.Ascending == nil {
		return silo.NewQueryParseError(
			"an orderByField must be a string or an object with the fields 'field' and 'ascending'",
		)
	}
	*f = OrderByField{Field: *obj.Field, Ascending: *obj.Ascending}
	return nil
}

// ordering carries the orderByFields/limit/offset every action accepts.
type ordering struct {
	OrderBy []OrderByField
	Limit   *uint32
	Offset  *uint32
}

// compareValues orders result values: nil (NULL) sorts after every real
// value; numbers order numerically, strings lexicographically.
func compareValues(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return 1
	}
	if b == nil {
		return -1
	}
	af, aNum := asFloat(a)
	bf, bNum := asFloat(b)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as := fmt.Sprintf("%v", a)
	bs := fmt.Sprintf("%v", b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func formatValue(v any) string { return fmt.Sprintf("%v", v) }

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func (o *ordering) compareEntries(a, b Entry) int {
	for _, field := range o.OrderBy {
		c := compareValues(a[field.Field], b[field.Field])
		if c == 0 {
			continue
		}
		if !field.Ascending {
			c = -c
		}
		return c
	}
	return 0
}

// applyOrderByAndLimit sorts entries by the order-by fields and applies
// offset and limit.
func (o *ordering) applyOrderByAndLimit(entries []Entry) []Entry {
	if len(o.OrderBy) > 0 {
		sort.SliceStable(entries, func(i, j int) bool {
			return o.compareEntries(entries[i], entries[j]) < 0
		})
	}
	if o.Offset != nil {
		if int(*o.Offset) >= len(entries) {
			return nil
		}
		entries = entries[*o.Offset:]
	}
	if o.Limit != nil && int(*o.Limit) < len(entries) {
		entries = entries[:*o.Limit]
	}
	return entries
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// Parse decodes an action from JSON. Every action carries a "type" tag plus
// optional orderByFields, limit and offset.
func Parse(data []byte) (Action, error) {
	var head struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, &silo.QueryParseError{Msg: "malformed action", Cause: err}
	}
	if head.Type == nil {
		return nil, silo.NewQueryParseError("the field 'type' is required in any action")
	}

	switch *head.Type {
	case "Aggregated":
		return parseAggregated(data)
	case "Details":
		return parseDetails(data)
	case "Mutations", "NucleotideMutations":
		return parseNucleotideMutations(data)
	case "AminoAcidMutations":
		return parseAminoAcidMutations(data)
	case "Insertions":
		return parseInsertions(data)
	case "Fasta":
		return parseFasta(data)
	case "FastaAligned":
		return parseFastaAligned(data)
	default:
		return nil, silo.NewQueryParseError("%q is not a valid action", *head.Type)
	}
}
