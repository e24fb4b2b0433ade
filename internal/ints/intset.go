// Package ints defines a set of small non-negative integers (rule numbers) stored as a bit set.
package ints

import (
	"math/bits"
	"strconv"
	"strings"
)

const IntSizeShift = 6
const IntSize = 1 << IntSizeShift

type Set struct {
	chunks []uint64
}

func NewSet(items ...int) *Set {
	result := &Set{}
	return result.Add(items...)
}

func (s *Set) allocate(item int) {
	index := item >> IntSizeShift
	if index < len(s.chunks) {
		return
	}

	chunks := make([]uint64, index+1)
	copy(chunks, s.chunks)
	s.chunks = chunks
}

// Add adds items to the set, negative items are ignored.
func (s *Set) Add(items ...int) *Set {
	for _, item := range items {
		if item < 0 {
			continue
		}

		s.allocate(item)
		s.chunks[item>>IntSizeShift] |= 1 << (uint(item) & (IntSize - 1))
	}
	return s
}

func (s *Set) Remove(items ...int) *Set {
	for _, item := range items {
		if item >= 0 && item>>IntSizeShift < len(s.chunks) {
			s.chunks[item>>IntSizeShift] &^= 1 << (uint(item) & (IntSize - 1))
		}
	}
	return s
}

func (s *Set) Contains(item int) bool {
	if item < 0 || item>>IntSizeShift >= len(s.chunks) {
		return false
	}

	return s.chunks[item>>IntSizeShift]&(1<<(uint(item)&(IntSize-1))) != 0
}

func (s *Set) Len() int {
	result := 0
	for _, chunk := range s.chunks {
		result += bits.OnesCount64(chunk)
	}
	return result
}

func (s *Set) IsEmpty() bool {
	for _, chunk := range s.chunks {
		if chunk != 0 {
			return false
		}
	}
	return true
}

// ToSlice returns set items in ascending order.
func (s *Set) ToSlice() []int {
	result := make([]int, 0, s.Len())
	for i, chunk := range s.chunks {
		for chunk != 0 {
			bit := bits.TrailingZeros64(chunk)
			result = append(result, i<<IntSizeShift+bit)
			chunk &= chunk - 1
		}
	}
	return result
}

func (s *Set) Copy() *Set {
	chunks := make([]uint64, len(s.chunks))
	copy(chunks, s.chunks)
	return &Set{chunks}
}

// Union adds all items of t to s, returns true if s has changed.
func (s *Set) Union(t *Set) bool {
	if t == nil {
		return false
	}

	if len(t.chunks) > len(s.chunks) {
		chunks := make([]uint64, len(t.chunks))
		copy(chunks, s.chunks)
		s.chunks = chunks
	}
	changed := false
	for i, chunk := range t.chunks {
		merged := s.chunks[i] | chunk
		if merged != s.chunks[i] {
			changed = true
			s.chunks[i] = merged
		}
	}
	return changed
}

func (s *Set) IsEqual(t *Set) bool {
	short, long := s.chunks, t.chunks
	if len(short) > len(long) {
		short, long = long, short
	}
	for i, chunk := range short {
		if chunk != long[i] {
			return false
		}
	}
	for _, chunk := range long[len(short):] {
		if chunk != 0 {
			return false
		}
	}
	return true
}

// Key returns canonical string representation usable as a map key.
func (s *Set) Key() string {
	items := s.ToSlice()
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = strconv.Itoa(item)
	}
	return strings.Join(parts, ",")
}
