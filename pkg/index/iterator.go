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

// ForwardIndexIterator walks live keys in ascending tree order.
type ForwardIndexIterator struct {
	idx *Index
	cur uint32
}

// NewForwardIterator returns a forward index iterator already
// positioned at the tree minimum, so the first Increment yields the
// smallest key.
func (idx *Index) NewForwardIterator() *ForwardIndexIterator {
	it := &ForwardIndexIterator{idx: idx}
	it.Reset()
	return it
}

// Reset repositions the iterator at the tree minimum.
func (it *ForwardIndexIterator) Reset() { it.cur = it.idx.storage.Root().MostLeft }

// Increment reads the id and key at the current position, advances to
// the next, and returns ok=false once positioned past the maximum.
func (it *ForwardIndexIterator) Increment() (id uint32, key []byte, ok bool) {
	if it.cur == rbtree.NilID {
		return 0, nil, false
	}
	id = it.cur
	key = it.idx.storage.Key(id)
	it.cur = rbtree.MoveNext(it.idx.storage, id)
	return id, key, true
}

// SeekLowerBound positions the iterator at the first id whose key is
// >= key, returning 0 on an exact match, 1 if the match is strictly
// greater, or -1 if no such id exists.
func (it *ForwardIndexIterator) SeekLowerBound(key []byte) int {
	root := it.idx.storage.Root()
	cmp := it.idx.storage.Comparator()
	id := rbtree.LowerBound(root, it.idx.storage, key, cmp)
	it.cur = id
	if id == rbtree.NilID {
		return -1
	}
	if cmp.CompareKey(key, id) == 0 {
		return 0
	}
	return 1
}

// SeekUpperBound positions the iterator at the first id whose key is
// strictly greater than key.
func (it *ForwardIndexIterator) SeekUpperBound(key []byte) {
	root := it.idx.storage.Root()
	cmp := it.idx.storage.Comparator()
	it.cur = rbtree.UpperBound(root, it.idx.storage, key, cmp)
}

// BackwardIndexIterator walks live keys in descending tree order.
type BackwardIndexIterator struct {
	idx *Index
	cur uint32
}

// NewBackwardIterator returns a backward index iterator positioned at
// the tree maximum. This corrects the known quirk of the source,
// whose equivalent Reset() mistakenly used the leftmost node.
func (idx *Index) NewBackwardIterator() *BackwardIndexIterator {
	it := &BackwardIndexIterator{idx: idx}
	it.Reset()
	return it
}

// Reset repositions the iterator at the tree maximum.
func (it *BackwardIndexIterator) Reset() { it.cur = it.idx.storage.Root().MostRight }

// Increment reads the id and key at the current position, steps to
// the previous, and returns ok=false once positioned before the
// minimum.
func (it *BackwardIndexIterator) Increment() (id uint32, key []byte, ok bool) {
	if it.cur == rbtree.NilID {
		return 0, nil, false
	}
	id = it.cur
	key = it.idx.storage.Key(id)
	it.cur = rbtree.MovePrev(it.idx.storage, id)
	return id, key, true
}

// SeekLowerBound positions the iterator at the last id whose key is
// <= key.
func (it *BackwardIndexIterator) SeekLowerBound(key []byte) int {
	root := it.idx.storage.Root()
	cmp := it.idx.storage.Comparator()
	id := rbtree.ReverseLowerBound(root, it.idx.storage, key, cmp)
	it.cur = id
	if id == rbtree.NilID {
		return -1
	}
	if cmp.CompareKey(key, id) == 0 {
		return 0
	}
	return 1
}

// SeekUpperBound positions the iterator at the last id whose key is
// strictly less than key.
func (it *BackwardIndexIterator) SeekUpperBound(key []byte) {
	root := it.idx.storage.Root()
	cmp := it.idx.storage.Comparator()
	it.cur = rbtree.ReverseUpperBound(root, it.idx.storage, key, cmp)
}

// StoreIterator walks physical slots [0, maxIndex) in ascending id
// order, skipping tombstoned ones.
type StoreIterator struct {
	idx *Index
	cur uint32
}

// NewStoreIterator returns a forward store iterator positioned before
// slot 0.
func (idx *Index) NewStoreIterator() *StoreIterator {
	return &StoreIterator{idx: idx, cur: 0}
}

// Next returns the next live slot, or ok=false once exhausted.
func (it *StoreIterator) Next() (id uint32, key []byte, ok bool) {
	max := it.idx.storage.MaxIndex()
	for it.cur < max {
		candidate := it.cur
		it.cur++
		if it.idx.storage.Node(candidate).Used {
			return candidate, it.idx.storage.Key(candidate), true
		}
	}
	return 0, nil, false
}

// SeekExact returns the key at id if the slot is live, else an
// *OutOfRangeError.
func (it *StoreIterator) SeekExact(id uint32) ([]byte, error) {
	return seekExact(it.idx, id)
}

// BackwardStoreIterator walks physical slots in descending id order,
// skipping tombstoned ones.
type BackwardStoreIterator struct {
	idx *Index
	cur int64
}

// NewBackwardStoreIterator returns a backward store iterator
// positioned after the highest allocated slot.
func (idx *Index) NewBackwardStoreIterator() *BackwardStoreIterator {
	return &BackwardStoreIterator{idx: idx, cur: int64(idx.storage.MaxIndex()) - 1}
}

// Next returns the next live slot in descending id order, or
// ok=false once exhausted.
func (it *BackwardStoreIterator) Next() (id uint32, key []byte, ok bool) {
	for it.cur >= 0 {
		candidate := uint32(it.cur)
		it.cur--
		if it.idx.storage.Node(candidate).Used {
			return candidate, it.idx.storage.Key(candidate), true
		}
	}
	return 0, nil, false
}

// SeekExact returns the key at id if the slot is live, else an
// *OutOfRangeError.
func (it *BackwardStoreIterator) SeekExact(id uint32) ([]byte, error) {
	return seekExact(it.idx, id)
}

func seekExact(idx *Index, id uint32) ([]byte, error) {
	if id >= idx.storage.MaxIndex() || !idx.storage.Node(id).Used {
		return nil, &OutOfRangeError{ID: id, MaxIndex: idx.storage.MaxIndex()}
	}
	return idx.storage.Key(id), nil
}
