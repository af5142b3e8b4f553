package query

import (
	"time"

	silo "github.com/genspectrum/silo"
	"github.com/genspectrum/silo/internal/parallel"
	"github.com/genspectrum/silo/query/actions"
	"github.com/genspectrum/silo/query/filter"
	"github.com/genspectrum/silo/query/operators"
)

// Engine executes queries against one immutable database snapshot.
type Engine struct {
	db     *silo.Database
	logger *silo.Logger
}

// NewEngine creates an engine over a snapshot. A nil logger disables
// logging.
func NewEngine(db *silo.Database, logger *silo.Logger) *Engine {
	if logger == nil {
		logger = silo.NoopLogger()
	}
	return &Engine{db: db, logger: logger}
}

// Database returns the snapshot the engine reads from.
func (e *Engine) Database() *silo.Database { return e.db }

// Response is the wire-level query result. Times are microseconds.
type Response struct {
	QueryResult []actions.Entry `json:"queryResult"`
	ActionTime  int64           `json:"actionTime"`
	FilterTime  int64           `json:"filterTime"`
}

// ExecuteQuery parses and runs one query. Compilation is sequential per
// partition; filter evaluation runs across partitions in parallel; the
// action merges per-partition results in partition-id order unless it
// defines a global sort.
func (e *Engine) ExecuteQuery(queryJSON []byte) (*Response, error) {
	parsed, err := ParseQuery(queryJSON)
	if err != nil {
		return nil, err
	}
	return e.Execute(parsed, string(queryJSON))
}

// Execute runs an already-parsed query.
func (e *Engine) Execute(parsed *Query, queryText string) (*Response, error) {
	filterStart := time.Now()

	compiled := make([]operators.Operator, len(e.db.Partitions))
	for i, part := range e.db.Partitions {
		op, err := parsed.Filter.Compile(e.db, part, filter.ModeExact)
		if err != nil {
			e.logger.LogQuery(queryText, 0, 0, err)
			return nil, err
		}
		compiled[i] = op
		e.logger.Debug("compiled partition filter", "partition", i, "operator", op.String())
	}

	results := make([]operators.Result, len(compiled))
	parallel.Each(len(compiled), func(i int) {
		results[i] = compiled[i].Evaluate()
	})

	for i, result := range results {
		sequenceCount := e.db.Partitions[i].SequenceCount
		if !result.Bitmap().IsEmpty() && result.Bitmap().Maximum() >= sequenceCount {
			err := silo.NewInternalError(
				"filter result for partition %d contains id %d beyond partition size %d",
				i, result.Bitmap().Maximum(), sequenceCount,
			)
			e.logger.LogQuery(queryText, 0, 0, err)
			return nil, err
		}
	}
	filterTime := time.Since(filterStart)

	actionStart := time.Now()
	result, err := parsed.Action.Execute(e.db, results)
	actionTime := time.Since(actionStart)
	if err != nil {
		e.logger.LogQuery(queryText, filterTime, actionTime, err)
		return nil, err
	}

	e.logger.LogQuery(queryText, filterTime, actionTime, nil)
	entries := result.Entries
	if entries == nil {
		entries = []actions.Entry{}
	}
	return &Response{
		QueryResult: entries,
		ActionTime:  actionTime.Microseconds(),
		FilterTime:  filterTime.Microseconds(),
	}, nil
}
