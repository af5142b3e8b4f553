package actions

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	silo "github.com/genspectrum/silo"
	"github.com/genspectrum/silo/query/operators"
	"github.com/genspectrum/silo/storage/column"
)

// Insertions emits grouped counts of insertion entries carried by the
// filtered sequences.
type Insertions struct {
	ordering
	Column string
}

func parseInsertions(data []byte) (Action, error) {
	var node struct {
		Type          string         `json:"type"`
		Column        string         `json:"column"`
		OrderByFields []OrderByField `json:"orderByFields"`
		Limit         *uint32        `json:"limit"`
		Offset        *uint32        `json:"offset"`
	}
	if err := decodeStrict(data, &node); err != nil {
		return nil, &silo.QueryParseError{Msg: "invalid Insertions action", Cause: err}
	}
	return &Insertions{
		ordering: ordering{OrderBy: node.OrderByFields, Limit: node.Limit, Offset: node.Offset},
		Column:   node.Column,
	}, nil
}

func (a *Insertions) resolveColumn(db *silo.Database, partitionIndex int) (*column.InsertionColumnPartition, error) {
	insertions := db.Partitions[partitionIndex].Columns.Insertions
	if a.Column != "" {
		col, ok := insertions[a.Column]
		if !ok {
			return nil, silo.NewQueryParseError("the database does not contain the insertion column %q", a.Column)
		}
		return col, nil
	}
	if len(insertions) == 1 {
		for _, col := range insertions {
			return col, nil
		}
	}
	return nil, silo.NewQueryParseError(
		"the database has %d insertion columns; the action must name one", len(insertions),
	)
}

func (a *Insertions) Execute(db *silo.Database, filters []operators.Result) (*Result, error) {
	type key struct {
		position uint32
		value    string
	}
	totals := make(map[key]uint64)

	for i := range db.Partitions {
		col, err := a.resolveColumn(db, i)
		if err != nil {
			return nil, err
		}
		filter := filters[i].Bitmap()
		col.Enumerate(func(position uint32, value string, ids *roaring.Bitmap) {
			if count := filter.AndCardinality(ids); count > 0 {
				totals[key{position, value}] += count
			}
		})
	}

	entries := make([]Entry, 0, len(totals))
	for k, count := range totals {
		entries = append(entries, Entry{
			"insertion": fmt.Sprintf("ins_%d:%s", k.position, k.value),
			"count":     count,
		})
	}

	ord := a.ordering
	if len(ord.OrderBy) == 0 {
		ord.OrderBy = []OrderByField{{Field: "insertion", Ascending: true}}
	}
	return &Result{Entries: ord.applyOrderByAndLimit(entries)}, nil
}
