// Package workutil provides the data-parallel fan-out the scheduler's
// loader needs to build a batch of Persons without paying the full
// construction cost serially. The teacher's per-entity managers lean on
// git.fiblab.net/general/common/v2/parallel's GoFor/GoMap for this, but
// that module is private and unreachable outside the teacher's own
// cluster, so this package inlines the same shape on plain goroutines
// and a sync.WaitGroup, the way the teacher's own task/simulet.go falls
// back to raw goroutines in its driver loop.
package workutil

import "sync"

// ForEach runs fn(i) for every i in [0, n), waiting for all of them to
// finish before returning.
func ForEach(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			fn(i)
		}()
	}
	wg.Wait()
}

// Map runs fn(i) for every i in [0, n) across at most poolSize
// concurrent goroutines and returns the results in input order. A
// poolSize <= 0 runs every call concurrently with no cap, matching
// ForEach's behavior.
func Map[T any](n, poolSize int, fn func(i int) T) []T {
	out := make([]T, n)
	if n <= 0 {
		return out
	}
	if poolSize <= 0 {
		ForEach(n, func(i int) { out[i] = fn(i) })
		return out
	}

	sem := make(chan struct{}, poolSize)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			out[i] = fn(i)
		}()
	}
	wg.Wait()
	return out
}
