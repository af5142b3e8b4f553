// Package parallel provides the data-parallel primitives the query engine
// and the builder are written against: a blocked parallel-for over an index
// range and a parallel for-each over a collection.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// For splits [0, n) into blocks of at most grain indexes and runs fn on the
// blocks concurrently. fn receives a half-open range [lo, hi). It blocks
// until all blocks finish.
func For(n, grain int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if grain <= 0 {
		grain = 1
	}
	if n <= grain {
		fn(0, n)
		return
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for lo := 0; lo < n; lo += grain {
		hi := min(lo+grain, n)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors
}

// ForErr is For with error propagation: the first error cancels nothing
// (blocks are independent) but is returned after all blocks finish.
func ForErr(n, grain int, fn func(lo, hi int) error) error {
	if n <= 0 {
		return nil
	}
	if grain <= 0 {
		grain = 1
	}
	if n <= grain {
		return fn(0, n)
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for lo := 0; lo < n; lo += grain {
		hi := min(lo+grain, n)
		g.Go(func() error {
			return fn(lo, hi)
		})
	}
	return g.Wait()
}

// Each runs fn once per index in [0, n), one goroutine per index up to
// GOMAXPROCS at a time. Used for per-partition fan-out where n is small.
func Each(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}

// EachErr is Each with error propagation.
func EachErr(n int, fn func(i int) error) error {
	if n <= 0 {
		return nil
	}
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		g.Go(func() error {
			return fn(i)
		})
	}
	return g.Wait()
}
