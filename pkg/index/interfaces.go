/*
Copyright 2026 The TRB Index Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package index

// The table engine this index plugs into sees it polymorphically, as
// one of six narrower capabilities rather than the full *Index. Each
// is satisfied by *Index; callers depend on whichever aspect they
// actually need.

// ReadableIndex exposes ordered, tree-order access to an index: the
// two index iterator factories, equal-range search, and sizing.
type ReadableIndex interface {
	NewForwardIterator() *ForwardIndexIterator
	NewBackwardIterator() *BackwardIndexIterator
	SearchExactAppend(key []byte, out []uint32) []uint32
	NumDataRows() uint32
	DataInflateSize() uint64
	IndexStorageSize() uint64
}

// WritableIndex exposes the mutating tree operations.
type WritableIndex interface {
	Insert(key []byte, id uint32) (bool, error)
	Remove(key []byte, id uint32) error
	Replace(key []byte, oldID, newID uint32) error
}

// ReadableStore exposes physical-slot access, independent of tree
// order.
type ReadableStore interface {
	NewStoreIterator() *StoreIterator
	NewBackwardStoreIterator() *BackwardStoreIterator
	GetValueAppend(id uint32, out []byte) ([]byte, error)
	DataStorageSize() uint64
}

// AppendableStore exposes id-allocating insertion.
type AppendableStore interface {
	Append(key []byte) (uint32, error)
}

// UpdatableStore exposes in-place (by-id) rewrite.
type UpdatableStore interface {
	Update(id uint32, key []byte) error
}

// WritableStore exposes bulk/maintenance operations over the whole
// store.
type WritableStore interface {
	ShrinkToFit()
	Clear()
}

var (
	_ ReadableIndex   = (*Index)(nil)
	_ WritableIndex   = (*Index)(nil)
	_ ReadableStore   = (*Index)(nil)
	_ AppendableStore = (*Index)(nil)
	_ UpdatableStore  = (*Index)(nil)
	_ WritableStore   = (*Index)(nil)
)
