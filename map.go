// Copyright 2025 The chash Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package chash implements a hash table with separate chaining and a
// fixed bucket count.
//
// # Design
//
// Unlike Go's builtin map, which requires comparable keys and hides its
// hash function, a chash.Map is parameterized by a caller-supplied
// equality predicate and hash function. Keys may therefore be of any
// type, and logically-equal keys (case-insensitive strings, interned
// values, canonicalized structs) can be made to collapse into a single
// entry. The two hooks must be consistent: cmp(a, b) == true must imply
// hash(a) == hash(b).
//
// Collisions are resolved by chaining: each bucket holds a singly
// linked list of entries, scanned linearly with the equality predicate.
// The bucket count is fixed at initialization (101 by default, any
// prime works) and the table never rehashes. Chains grow without bound,
// so lookups degrade to O(chain length) once the number of entries
// greatly exceeds the bucket count. This is a deliberate constraint:
// the table targets workloads with a known bound on cardinality, and
// callers expecting more entries should size the table up front with
// WithBuckets.
//
// The primary access operation is At, which is find-or-insert: it
// returns a pointer to the value slot for a key, creating the entry on
// first use. The caller installs or updates the value by writing
// through the pointer:
//
//	m := chash.New[int, string](
//		func(a, b int) bool { return a == b },
//		func(k int) uint { return uint(k) },
//	)
//	*m.At(5) = "apple"
//	if v := m.Has(5); v != nil {
//		fmt.Println(*v) // apple
//	}
//	m.Close()
//
// Has is the non-allocating counterpart: it returns nil when the key is
// absent. Individual entries cannot be removed; the only shrink path is
// Close, which tears down the whole table and hands every entry to the
// optional WithOnRemove hook before releasing it. Keys and values are
// never copied or freed by the table itself; they remain caller-owned,
// and the table stores only the references given to it.
//
// A Map is NOT goroutine-safe. All operations run to completion on the
// calling goroutine; callers requiring concurrent access must serialize
// it externally.
package chash

// numBuckets is the default bucket count. A prime, so that hash
// functions with structured low bits still spread across buckets.
const numBuckets = 101

// Entry is a key/value pair owned by a Map. Entries are created by At
// on first lookup of a key and exist until the Map is closed, at which
// point each entry is passed to the WithOnRemove hook (if any) before
// being released.
//
// Key must not be mutated (in any way visible to the cmp and hash
// hooks) while the entry is in a table; doing so strands the entry in a
// bucket its hash no longer selects.
type Entry[K any, V any] struct {
	Key   K
	Value V
	// next links entries within a bucket's chain.
	next *Entry[K, V]
}

// Map is an unordered associative container mapping keys to values with
// At, Has, Put, Get, and All operations. It resolves hash collisions by
// chaining and is parameterized by caller-supplied equality and hash
// hooks rather than requiring comparable keys.
//
// The zero value is not ready for use; construct a Map with New or
// initialize one in place with Init. A Map is NOT goroutine-safe.
type Map[K any, V any] struct {
	// cmp reports whether two keys are the same logical key. It is an
	// identity test only; chain scans stop at the first key for which
	// cmp returns true.
	cmp func(a, b K) bool
	// hash selects a bucket via hash(key) % len(buckets). Doubles as
	// the liveness flag: Close sets it to nil.
	hash func(key K) uint
	// onRemove, if non-nil, is invoked once per entry during Close.
	onRemove func(e *Entry[K, V])
	// The allocator to use for the bucket slice and entries.
	allocator Allocator[K, V]
	// buckets[i] heads the chain of entries whose hash selects i.
	buckets []*Entry[K, V]
	// The bucket count requested via WithBuckets. Only consulted by
	// Init; len(buckets) is authoritative afterwards.
	nbuckets int
	// The number of entries in the map.
	used int
}

// New constructs a ready Map from an equality predicate and a hash
// function. Both are mandatory and must agree: cmp(a, b) == true must
// imply hash(a) == hash(b). The bucket count is fixed for the life of
// the table (101 unless overridden with WithBuckets).
func New[K any, V any](cmp func(a, b K) bool, hash func(key K) uint, options ...Option[K, V]) *Map[K, V] {
	m := &Map[K, V]{}
	m.Init(cmp, hash, options...)
	return m
}

// Init initializes m in place, allocating its bucket slice and marking
// it ready. It is the in-place form of New, usable on a zero Map value
// and on a Map that has been closed. Initializing a Map that is still
// ready leaks its entries; close it first.
func (m *Map[K, V]) Init(cmp func(a, b K) bool, hash func(key K) uint, options ...Option[K, V]) {
	if cmp == nil {
		panic("chash: nil cmp")
	}
	if hash == nil {
		panic("chash: nil hash")
	}

	*m = Map[K, V]{
		cmp:       cmp,
		hash:      hash,
		allocator: defaultAllocator[K, V]{},
		nbuckets:  numBuckets,
	}
	for _, op := range options {
		op.apply(m)
	}
	m.buckets = m.allocator.AllocBuckets(m.nbuckets)
}

// Ready reports whether m has been initialized and not yet closed.
// Calling At, Has, Put, or Get on a Map that is not ready panics.
func (m *Map[K, V]) Ready() bool {
	return m.buckets != nil && m.hash != nil
}

// Has returns a pointer to the value slot for key, or nil if key is not
// present. The pointer remains valid, and may be used to read or
// overwrite the value, until the Map is closed. Has never allocates and
// never mutates the table.
func (m *Map[K, V]) Has(key K) *V {
	if !m.Ready() {
		panic("chash: Has on uninitialized or closed Map")
	}
	for e := m.buckets[m.hash(key)%uint(len(m.buckets))]; e != nil; e = e.next {
		if m.cmp(key, e.Key) {
			return &e.Value
		}
	}
	return nil
}

// At returns a pointer to the value slot for key, inserting a new entry
// if key is not present. At is find-or-insert: if the bucket's chain
// contains a key for which cmp returns true, the existing slot is
// returned; otherwise a fresh entry holding key and the zero value is
// linked at the tail of the chain and its slot is returned. At never
// returns nil; the caller installs the value by writing through the
// returned pointer.
func (m *Map[K, V]) At(key K) *V {
	if !m.Ready() {
		panic("chash: At on uninitialized or closed Map")
	}
	p := &m.buckets[m.hash(key)%uint(len(m.buckets))]
	for ; *p != nil; p = &(*p).next {
		if m.cmp(key, (*p).Key) {
			return &(*p).Value
		}
	}
	e := m.allocator.AllocEntry()
	*e = Entry[K, V]{Key: key}
	*p = e
	m.used++
	return &e.Value
}

// Put sets the value for key, inserting an entry if needed.
func (m *Map[K, V]) Put(key K, value V) {
	*m.At(key) = value
}

// Get retrieves a copy of the value for key, returning ok=false if key
// is not present.
func (m *Map[K, V]) Get(key K) (value V, ok bool) {
	if v := m.Has(key); v != nil {
		return *v, true
	}
	return value, false
}

// Len returns the number of entries in the map. Len is safe to call on
// a Map in any state; a Map that is not ready has length 0.
func (m *Map[K, V]) Len() int {
	return m.used
}

// All calls yield sequentially for each key and value present in the
// map. If yield returns false, iteration stops. The iteration order is
// unspecified and may differ between tables holding the same entries.
// The map must not be mutated during iteration.
func (m *Map[K, V]) All(yield func(key K, value V) bool) {
	for _, e := range m.buckets {
		for ; e != nil; e = e.next {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

// Close tears down the map: every entry is passed to the WithOnRemove
// hook (if one was configured), giving the caller a last chance to
// release resources reachable from the key or value, and then returned
// to the allocator along with the bucket slice. After Close the map is
// not ready and Ready reports false.
//
// Close on a Map that is not ready, including a second Close, is a
// no-op. It is unnecessary to close a map using the default allocator
// unless an onRemove hook must run.
func (m *Map[K, V]) Close() {
	if !m.Ready() {
		return
	}
	for i, e := range m.buckets {
		for e != nil {
			next := e.next
			if m.onRemove != nil {
				m.onRemove(e)
			}
			m.allocator.FreeEntry(e)
			e = next
		}
		m.buckets[i] = nil
	}
	m.allocator.FreeBuckets(m.buckets)
	m.buckets = nil
	m.hash = nil
	m.used = 0
}
