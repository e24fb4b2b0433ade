// Package queue defines FIFO ring queue used as work-list by automaton builder and parser.
package queue

const minSize = 7

// Queue is a FIFO queue of T, zero value is not usable, use New.
type Queue[T any] struct {
	items      []T
	size       int
	head, tail int
	zero       T
}

func New[T any](items ...T) *Queue[T] {
	l := len(items)
	result := &Queue[T]{tail: l, size: computeSize(l)}
	result.items = make([]T, result.size+1)
	copy(result.items, items)
	return result
}

func (q *Queue[T]) IsEmpty() bool {
	return q.head == q.tail
}

func (q *Queue[T]) Len() int {
	return (q.tail + q.size + 1 - q.head) & q.size
}

// Append adds item to the tail of queue.
func (q *Queue[T]) Append(items ...T) *Queue[T] {
	for _, item := range items {
		q.items[q.tail] = item
		q.tail = (q.tail + 1) & q.size
		if q.tail == q.head {
			q.grow()
		}
	}
	return q
}

// First removes and returns the head item, false if queue is empty.
func (q *Queue[T]) First() (T, bool) {
	if q.head == q.tail {
		return q.zero, false
	}

	result := q.items[q.head]
	q.items[q.head] = q.zero
	q.head = (q.head + 1) & q.size
	if q.head == q.tail {
		q.head, q.tail = 0, 0
	}
	return result, true
}

func computeSize(length int) int {
	if length <= minSize {
		return minSize
	}

	length |= length >> 1
	length |= length >> 2
	length |= length >> 4
	length |= length >> 8
	length |= length >> 16
	return length | length>>32
}

func (q *Queue[T]) grow() {
	items := make([]T, (q.size+1)<<1)
	copy(items, q.items[q.head:])
	if q.head > 0 {
		copy(items[q.size+1-q.head:], q.items[:q.head])
	}
	q.head = 0
	q.tail = q.size + 1
	q.size = q.size + q.tail
	q.items = items
}
