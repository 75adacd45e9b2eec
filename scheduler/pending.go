// Package scheduler holds Persons that aren't active yet: the
// PendingQueue orders them by start time, and the Loader periodically
// refills it from the persistent store. See spec.md §4.6.
package scheduler

import (
	"github.com/smart-fm/simkernel/person"
	"github.com/smart-fm/simkernel/utils/container"
)

// PendingQueue is a min-heap of Persons keyed by StartTimeMs. Persons
// with StartTimeMs == 0 never pass through it; the Loader pushes them
// straight into the active set instead.
type PendingQueue struct {
	heap *container.PriorityQueue[*person.Person]
}

// NewPendingQueue creates an empty PendingQueue.
func NewPendingQueue() *PendingQueue {
	return &PendingQueue{heap: container.NewPriorityQueue[*person.Person]()}
}

// Len returns the number of Persons still waiting for their start
// time.
func (q *PendingQueue) Len() int { return q.heap.Len() }

// Push adds p to the queue, ordered by its StartTimeMs.
func (q *PendingQueue) Push(p *person.Person) {
	q.heap.HeapPush(p, float64(p.StartTimeMs()))
}

// PopReady removes and returns, in ascending start-time order, every
// Person whose StartTimeMs is at most currentTimeMs. Per spec.md §4.6
// this is called at the top of every base tick.
func (q *PendingQueue) PopReady(currentTimeMs int64) []*person.Person {
	var ready []*person.Person
	for q.heap.Len() > 0 && q.heap.First().StartTimeMs() <= currentTimeMs {
		p, _ := q.heap.HeapPop()
		ready = append(ready, p)
	}
	return ready
}
