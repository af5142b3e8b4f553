package actions

import (
	"container/heap"
)

// tuple is one materialized result row: values aligned with the action's
// selected field metadata.
type tuple struct {
	values []any
}

// tupleComparator orders tuples by successive order-by fields. fieldIndexes
// maps each order-by field to its slot in the tuple.
type tupleComparator struct {
	fieldIndexes []int
	ascending    []bool
}

func newTupleComparator(fields []string, orderBy []OrderByField) tupleComparator {
	cmp := tupleComparator{}
	for _, ob := range orderBy {
		for i, field := range fields {
			if field == ob.Field {
				cmp.fieldIndexes = append(cmp.fieldIndexes, i)
				cmp.ascending = append(cmp.ascending, ob.Ascending)
				break
			}
		}
	}
	return cmp
}

// less reports whether a sorts before b.
func (c tupleComparator) less(a, b tuple) bool {
	for i, idx := range c.fieldIndexes {
		cmpResult := compareValues(a.values[idx], b.values[idx])
		if cmpResult == 0 {
			continue
		}
		if !c.ascending[i] {
			cmpResult = -cmpResult
		}
		return cmpResult < 0
	}
	return false
}

// boundedTupleHeap keeps the k smallest tuples under a comparator. The heap
// root is the worst kept tuple, so a candidate replaces it when smaller.
type boundedTupleHeap struct {
	tuples []tuple
	cmp    tupleComparator
	limit  int
}

func newBoundedTupleHeap(limit int, cmp tupleComparator) *boundedTupleHeap {
	return &boundedTupleHeap{cmp: cmp, limit: limit}
}

func (h *boundedTupleHeap) Len() int { return len(h.tuples) }

func (h *boundedTupleHeap) Less(i, j int) bool {
	// Inverted: the worst tuple surfaces at the root.
	return h.cmp.less(h.tuples[j], h.tuples[i])
}

func (h *boundedTupleHeap) Swap(i, j int) { h.tuples[i], h.tuples[j] = h.tuples[j], h.tuples[i] }

func (h *boundedTupleHeap) Push(x any) { h.tuples = append(h.tuples, x.(tuple)) }

func (h *boundedTupleHeap) Pop() any {
	last := h.tuples[len(h.tuples)-1]
	h.tuples = h.tuples[:len(h.tuples)-1]
	return last
}

// Offer inserts a candidate, evicting the worst kept tuple once full.
func (h *boundedTupleHeap) Offer(t tuple) {
	if h.limit <= 0 {
		return
	}
	if len(h.tuples) < h.limit {
		heap.Push(h, t)
		return
	}
	if h.cmp.less(t, h.tuples[0]) {
		h.tuples[0] = t
		heap.Fix(h, 0)
	}
}

// Sorted drains the heap into ascending order.
func (h *boundedTupleHeap) Sorted() []tuple {
	out := make([]tuple, len(h.tuples))
	for i := len(h.tuples) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(tuple)
	}
	return out
}

// mergeSortedTuples k-way merges per-partition sorted runs, producing at
// most toProduce tuples.
func mergeSortedTuples(cmp tupleComparator, runs [][]tuple, toProduce int) []tuple {
	m := &runMergeHeap{cmp: cmp}
	for _, run := range runs {
		if len(run) > 0 {
			m.runs = append(m.runs, run)
		}
	}
	heap.Init(m)

	var result []tuple
	for len(result) < toProduce && m.Len() > 0 {
		run := m.runs[0]
		result = append(result, run[0])
		if len(run) > 1 {
			m.runs[0] = run[1:]
			heap.Fix(m, 0)
		} else {
			heap.Pop(m)
		}
	}
	return result
}

type runMergeHeap struct {
	runs [][]tuple
	cmp  tupleComparator
}

func (m *runMergeHeap) Len() int { return len(m.runs) }

func (m *runMergeHeap) Less(i, j int) bool { return m.cmp.less(m.runs[i][0], m.runs[j][0]) }

func (m *runMergeHeap) Swap(i, j int) { m.runs[i], m.runs[j] = m.runs[j], m.runs[i] }

func (m *runMergeHeap) Push(x any) { m.runs = append(m.runs, x.([]tuple)) }

func (m *runMergeHeap) Pop() any {
	last := m.runs[len(m.runs)-1]
	m.runs = m.runs[:len(m.runs)-1]
	return last
}
