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

import "github.com/trbdb/colindex/pkg/rbtree"

// Storage is the interface the three concrete key-storage backends
// (VarLen, FixedBlob, FixedAligned) present to the index façade. It
// owns both the key bytes and the threaded-tree node slots; the tree
// algorithms in pkg/rbtree operate directly against it via the
// embedded rbtree.Nodes methods.
type Storage interface {
	rbtree.Nodes

	// Root returns the current tree summary.
	Root() rbtree.Root
	// Comparator returns the comparator this storage was built with.
	Comparator() rbtree.Comparator

	// Key returns the raw key bytes stored at id. The slice is only
	// valid until the next mutation.
	Key(id uint32) []byte

	// StoreCheck implements the unique-index insert path: it rejects
	// the write (returning ok=false) if an equal key already lives at
	// a different id.
	StoreCheck(id uint32, key []byte) (ok bool, err error)
	// StoreCover implements the multi-valued insert path, applying
	// the VarLen aliasing optimisation where applicable.
	StoreCover(id uint32, key []byte) error
	// Remove unlinks id from the tree and reclaims its key storage.
	Remove(id uint32) error

	// Clear resets the backend to empty.
	Clear()
	// Shrink releases slack capacity in the underlying arrays.
	Shrink()

	// MaxIndex is the storage's current slot capacity (including
	// tombstoned slots), i.e. one past the highest id ever used.
	MaxIndex() uint32
	// DataInflateSize is the logical byte count of all live keys,
	// ignoring alias deduplication.
	DataInflateSize() uint64
	// DataStorageSize is the physical byte count of key storage.
	DataStorageSize() uint64
	// IndexStorageSize is the physical byte count of tree node
	// storage.
	IndexStorageSize() uint64
}
