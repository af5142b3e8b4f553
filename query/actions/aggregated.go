package actions

import (
	"strings"
	"sync"

	silo "github.com/genspectrum/silo"
	"github.com/genspectrum/silo/common"
	"github.com/genspectrum/silo/internal/parallel"
	"github.com/genspectrum/silo/query/operators"
)

// Aggregated counts matching sequences, optionally grouped by metadata
// columns.
type Aggregated struct {
	ordering
	GroupByFields []string
}

func parseAggregated(data []byte) (Action, error) {
	var node struct {
		Type          string         `json:"type"`
		GroupByFields []string       `json:"groupByFields"`
		OrderByFields []OrderByField `json:"orderByFields"`
		Limit         *uint32        `json:"limit"`
		Offset        *uint32        `json:"offset"`
	}
	if err := decodeStrict(data, &node); err != nil {
		return nil, &silo.QueryParseError{Msg: "invalid Aggregated action", Cause: err}
	}
	return &Aggregated{
		ordering:      ordering{OrderBy: node.OrderByFields, Limit: node.Limit, Offset: node.Offset},
		GroupByFields: node.GroupByFields,
	}, nil
}

func (a *Aggregated) Execute(db *silo.Database, filters []operators.Result) (*Result, error) {
	if len(a.GroupByFields) == 0 {
		var count uint64
		for _, filter := range filters {
			count += filter.Cardinality()
		}
		return &Result{Entries: []Entry{{"count": count}}}, nil
	}

	for _, field := range a.GroupByFields {
		if _, ok := db.Config.ColumnConfigFor(field); !ok {
			return nil, silo.NewQueryParseError("metadata field %q not found", field)
		}
	}

	type group struct {
		values Entry
		count  uint64
	}

	var mu sync.Mutex
	groups := make(map[string]*group)

	parallel.Each(len(db.Partitions), func(i int) {
		part := db.Partitions[i]
		local := make(map[string]*group)

		it := filters[i].Bitmap().Iterator()
		var keyBuilder strings.Builder
		for it.HasNext() {
			id := common.LocalID(it.Next())

			keyBuilder.Reset()
			values := make(Entry, len(a.GroupByFields))
			for _, field := range a.GroupByFields {
				value, present := part.Columns.Value(field, id)
				if !present {
					value = nil
				}
				values[field] = value
				keyBuilder.WriteString(formatKey(value))
				keyBuilder.WriteByte(0x1f)
			}

			key := keyBuilder.String()
			if g, ok := local[key]; ok {
				g.count++
			} else {
				local[key] = &group{values: values, count: 1}
			}
		}

		mu.Lock()
		for key, g := range local {
			if existing, ok := groups[key]; ok {
				existing.count += g.count
			} else {
				groups[key] = g
			}
		}
		mu.Unlock()
	})

	entries := make([]Entry, 0, len(groups))
	for _, g := range groups {
		entry := g.values
		entry["count"] = g.count
		entries = append(entries, entry)
	}

	// Deterministic output order even without an explicit orderBy.
	ord := a.ordering
	if len(ord.OrderBy) == 0 {
		ord.OrderBy = orderByAll(a.GroupByFields)
	}
	return &Result{Entries: ord.applyOrderByAndLimit(entries)}, nil
}

func orderByAll(fields []string) []OrderByField {
	out := make([]OrderByField, len(fields))
	for i, f := range fields {
		out[i] = OrderByField{Field: f, Ascending: true}
	}
	return out
}

func formatKey(v any) string {
	if v == nil {
		return "\x00"
	}
	switch s := v.(type) {
	case string:
		return s
	default:
		return formatValue(v)
	}
}
