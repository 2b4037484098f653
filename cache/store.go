package cache

import "github.com/IvanBrykalov/prefetchcache/policy"

// entry is an intrusive doubly linked list element owned by the store.
// The list is kept in insertion order: head is the oldest entry, tail the
// newest. seq is assigned when the value becomes resident and is strictly
// increasing.
type entry[K Key, V any] struct {
	key  K
	val  V
	seq  uint64
	cost int64

	prev *entry[K, V]
	next *entry[K, V]
}

// store holds the resident entries. All methods are called with the
// cache-wide mutex held; individual operations are O(1) expected.
type store[K Key, V any] struct {
	m    map[K]*entry[K, V]
	head *entry[K, V] // oldest
	tail *entry[K, V] // newest
	seq  uint64
}

func newStore[K Key, V any](capacity int) *store[K, V] {
	return &store[K, V]{m: make(map[K]*entry[K, V], capacity)}
}

// lookup returns the entry for k, if resident.
func (s *store[K, V]) lookup(k K) (*entry[K, V], bool) {
	e, ok := s.m[k]
	return e, ok
}

func (s *store[K, V]) contains(k K) bool {
	_, ok := s.m[k]
	return ok
}

// insert records a fresh entry at the newest end with the next sequence
// number. The caller guarantees k is not already resident.
func (s *store[K, V]) insert(k K, v V, cost int64) *entry[K, V] {
	s.seq++
	e := &entry[K, V]{key: k, val: v, seq: s.seq, cost: cost}
	s.m[k] = e

	e.prev = s.tail
	if s.tail != nil {
		s.tail.next = e
	}
	s.tail = e
	if s.head == nil {
		s.head = e
	}
	return e
}

// remove deletes k if present and returns true on success.
func (s *store[K, V]) remove(k K) (*entry[K, V], bool) {
	e, ok := s.m[k]
	if !ok {
		return nil, false
	}
	if e.prev != nil {
		e.prev.next = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	}
	if s.head == e {
		s.head = e.next
	}
	if s.tail == e {
		s.tail = e.prev
	}
	e.prev, e.next = nil, nil
	delete(s.m, k)
	return e, true
}

func (s *store[K, V]) size() int { return len(s.m) }

// oldest returns the entry with the smallest sequence number, or nil.
func (s *store[K, V]) oldest() *entry[K, V] { return s.head }

// policyView snapshots the resident entries oldest-first for an eviction
// policy. The slice is freshly allocated; policies may reorder it.
func (s *store[K, V]) policyView() []policy.Entry[K] {
	view := make([]policy.Entry[K], 0, len(s.m))
	for e := s.head; e != nil; e = e.next {
		view = append(view, policy.Entry[K]{Key: e.key, Seq: e.seq, Cost: e.cost})
	}
	return view
}

// clear drops every resident entry.
func (s *store[K, V]) clear() {
	s.m = make(map[K]*entry[K, V])
	s.head, s.tail = nil, nil
}
