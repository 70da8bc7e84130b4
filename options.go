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

package chash

// Option provides an interface to do work on a Map while it is being
// initialized.
type Option[K any, V any] interface {
	apply(m *Map[K, V])
}

type onRemoveOption[K any, V any] struct {
	onRemove func(e *Entry[K, V])
}

func (op onRemoveOption[K, V]) apply(m *Map[K, V]) {
	m.onRemove = op.onRemove
}

// WithOnRemove is an option to install a teardown hook on a Map[K,V].
// During Close the hook is invoked exactly once per entry, before the
// entry is released, letting the caller free resources reachable from
// the key or value without the table knowing their types. A Map without
// this option releases its entries silently.
func WithOnRemove[K any, V any](onRemove func(e *Entry[K, V])) Option[K, V] {
	return onRemoveOption[K, V]{onRemove}
}

type bucketsOption[K any, V any] struct {
	n int
}

func (op bucketsOption[K, V]) apply(m *Map[K, V]) {
	if op.n > 0 {
		m.nbuckets = op.n
	}
}

// WithBuckets is an option to specify the bucket count for a Map[K,V],
// overriding the default of 101. The count is fixed for the life of the
// table; the table never rehashes, so choose a count on the order of
// the expected number of entries. Primes distribute structured hash
// values best. A count <= 0 leaves the default in place.
func WithBuckets[K any, V any](n int) Option[K, V] {
	return bucketsOption[K, V]{n}
}

// Allocator specifies an interface for allocating and releasing memory
// used by a Map. The default allocator utilizes Go's builtin make() and
// new() and allows the GC to reclaim memory.
//
// If the allocator is manually managing memory and requires that
// entries and the bucket slice be freed then Map.Close must be called
// in order to ensure FreeEntry and FreeBuckets are called.
type Allocator[K any, V any] interface {
	// AllocBuckets should return a slice equivalent to
	// make([]*Entry[K,V], n).
	AllocBuckets(n int) []*Entry[K, V]

	// AllocEntry should return an entry equivalent to new(Entry[K,V]).
	// The Map overwrites every field of the returned entry, so a
	// recycled entry need not be zeroed.
	AllocEntry() *Entry[K, V]

	// FreeBuckets can optionally release the memory associated with
	// the supplied slice that is guaranteed to have been allocated by
	// AllocBuckets.
	FreeBuckets(v []*Entry[K, V])

	// FreeEntry can optionally release the memory associated with the
	// supplied entry that is guaranteed to have been allocated by
	// AllocEntry.
	FreeEntry(e *Entry[K, V])
}

type defaultAllocator[K any, V any] struct{}

func (defaultAllocator[K, V]) AllocBuckets(n int) []*Entry[K, V] {
	return make([]*Entry[K, V], n)
}

func (defaultAllocator[K, V]) AllocEntry() *Entry[K, V] {
	return new(Entry[K, V])
}

func (defaultAllocator[K, V]) FreeBuckets(v []*Entry[K, V]) {
}

func (defaultAllocator[K, V]) FreeEntry(e *Entry[K, V]) {
}

type allocatorOption[K any, V any] struct {
	allocator Allocator[K, V]
}

func (op allocatorOption[K, V]) apply(m *Map[K, V]) {
	m.allocator = op.allocator
}

// WithAllocator is an option for specifying the Allocator to use for a
// Map[K,V].
func WithAllocator[K any, V any](allocator Allocator[K, V]) Option[K, V] {
	return allocatorOption[K, V]{allocator}
}
