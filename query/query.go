// Package query implements the query engine: parse a JSON query into a
// filter AST and a typed action, compile the filter once per partition into
// an operator tree, evaluate the partitions in parallel and run the action
// over the per-partition bitmaps.
package query

import (
	"bytes"
	"encoding/json"

	silo "github.com/genspectrum/silo"
	"github.com/genspectrum/silo/query/actions"
	"github.com/genspectrum/silo/query/filter"
)

// Query is one parsed request: a filter plus an action.
type Query struct {
	Filter filter.Expression
	Action actions.Action
}

// ParseQuery decodes a query request body. Both fields are required;
// unknown top-level fields are rejected.
func ParseQuery(data []byte) (*Query, error) {
	var request struct {
		Filter json.RawMessage `json:"filter"`
		Action json.RawMessage `json:"action"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&request); err != nil {
		return nil, &silo.QueryParseError{Msg: "malformed query", Cause: err}
	}
	if request.Filter == nil {
		return nil, silo.NewQueryParseError("the field 'filter' is required in a query")
	}
	if request.Action == nil {
		return nil, silo.NewQueryParseError("the field 'action' is required in a query")
	}

	parsedFilter, err := filter.Parse(request.Filter)
	if err != nil {
		return nil, err
	}
	parsedAction, err := actions.Parse(request.Action)
	if err != nil {
		return nil, err
	}
	return &Query{Filter: parsedFilter, Action: parsedAction}, nil
}
