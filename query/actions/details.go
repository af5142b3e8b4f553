package actions

import (
	"sort"

	silo "github.com/genspectrum/silo"
	"github.com/genspectrum/silo/common"
	"github.com/genspectrum/silo/internal/parallel"
	"github.com/genspectrum/silo/query/operators"
	"github.com/genspectrum/silo/storage"
	"github.com/genspectrum/silo/storage/column"
)

// Details materializes the selected metadata columns of every matching
// sequence. With a limit, each partition produces its top-k through a
// bounded heap and partition outputs are k-way merged.
type Details struct {
	ordering
	Fields []string
}

func parseDetails(data []byte) (Action, error) {
	var node struct {
		Type          string         `json:"type"`
		Fields        []string       `json:"fields"`
		OrderByFields []OrderByField `json:"orderByFields"`
		Limit         *uint32        `json:"limit"`
		Offset        *uint32        `json:"offset"`
	}
	if err := decodeStrict(data, &node); err != nil {
		return nil, &silo.QueryParseError{Msg: "invalid Details action", Cause: err}
	}
	return &Details{
		ordering: ordering{OrderBy: node.OrderByFields, Limit: node.Limit, Offset: node.Offset},
		Fields:   node.Fields,
	}, nil
}

// resolveFields expands an empty field list to every selectable schema
// column and validates explicit ones.
func (a *Details) resolveFields(db *silo.Database) ([]string, error) {
	if len(a.Fields) == 0 {
		var fields []string
		for _, item := range db.Config.Schema.Metadata {
			kind, _ := item.Kind()
			if kind != column.KindInsertion {
				fields = append(fields, item.Name)
			}
		}
		return fields, nil
	}

	for _, field := range a.Fields {
		entry, ok := db.Config.ColumnConfigFor(field)
		if !ok {
			return nil, silo.NewQueryParseError("metadata field %q not found", field)
		}
		if kind, _ := entry.Kind(); kind == column.KindInsertion {
			return nil, silo.NewQueryParseError("insertion column %q cannot be selected in a Details action", field)
		}
	}
	return a.Fields, nil
}

func (a *Details) validateOrderBy(fields []string) error {
	for _, ob := range a.OrderBy {
		found := false
		for _, field := range fields {
			if field == ob.Field {
				found = true
				break
			}
		}
		if !found {
			return silo.NewQueryParseError("orderByField %q is not contained in the result of this operation", ob.Field)
		}
	}
	return nil
}

func makeTuple(part *storage.DatabasePartition, fields []string, id common.LocalID) tuple {
	values := make([]any, len(fields))
	for i, field := range fields {
		if value, present := part.Columns.Value(field, id); present {
			values[i] = value
		}
	}
	return tuple{values: values}
}

func (a *Details) Execute(db *silo.Database, filters []operators.Result) (*Result, error) {
	fields, err := a.resolveFields(db)
	if err != nil {
		return nil, err
	}
	if err := a.validateOrderBy(fields); err != nil {
		return nil, err
	}

	cmp := newTupleComparator(fields, a.OrderBy)

	var tuples []tuple
	if a.Limit != nil {
		toProduce := int(*a.Limit)
		if a.Offset != nil {
			toProduce += int(*a.Offset)
		}
		runs := make([][]tuple, len(db.Partitions))
		parallel.Each(len(db.Partitions), func(i int) {
			h := newBoundedTupleHeap(toProduce, cmp)
			it := filters[i].Bitmap().Iterator()
			for it.HasNext() {
				h.Offer(makeTuple(db.Partitions[i], fields, common.LocalID(it.Next())))
			}
			runs[i] = h.Sorted()
		})
		tuples = mergeSortedTuples(cmp, runs, toProduce)
	} else {
		offsets := make([]uint64, len(db.Partitions)+1)
		for i, filter := range filters {
			offsets[i+1] = offsets[i] + filter.Cardinality()
		}
		tuples = make([]tuple, offsets[len(db.Partitions)])
		parallel.Each(len(db.Partitions), func(i int) {
			cursor := offsets[i]
			it := filters[i].Bitmap().Iterator()
			for it.HasNext() {
				tuples[cursor] = makeTuple(db.Partitions[i], fields, common.LocalID(it.Next()))
				cursor++
			}
		})
		if len(a.OrderBy) > 0 {
			sort.SliceStable(tuples, func(i, j int) bool { return cmp.less(tuples[i], tuples[j]) })
		}
	}

	entries := make([]Entry, len(tuples))
	for i, t := range tuples {
		entry := make(Entry, len(fields))
		for j, field := range fields {
			entry[field] = t.values[j]
		}
		entries[i] = entry
	}

	// Sorting already happened on tuples; only offset and limit remain.
	remaining := ordering{Limit: a.Limit, Offset: a.Offset}
	return &Result{Entries: remaining.applyOrderByAndLimit(entries)}, nil
}
