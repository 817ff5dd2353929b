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

// FixedBlobStorage stores one fixed-width key per id in a contiguous
// byte array (id*keyLen), with tree nodes kept in a parallel slice.
// Used for multi-column but fixed-total-row-length schemas.
type FixedBlobStorage struct {
	nodes  []rbtree.Node
	bytes  []byte
	keyLen int
	root   rbtree.Root
	cmp    rbtree.Comparator
	total  uint64
}

// NewFixedBlobStorage constructs an empty fixed-width byte-string
// backend compared lexicographically.
func NewFixedBlobStorage(keyLen int) *FixedBlobStorage {
	if keyLen <= 0 {
		panic("index: FixedBlobStorage requires a positive key length")
	}
	s := &FixedBlobStorage{keyLen: keyLen, root: rbtree.EmptyRoot()}
	s.cmp = newLexComparator(s)
	return s
}

// newFixedBlobNumericStorage constructs a FixedBlobStorage compared
// numerically rather than lexicographically: the fallback for a
// single-column arithmetic schema whose width isn't a multiple of 4
// (Int8/Uint8/Int16/Uint16) and so can't satisfy FixedAlignedStorage's
// interleaved-node alignment invariant.
func newFixedBlobNumericStorage(kind NumericKind) *FixedBlobStorage {
	s := &FixedBlobStorage{keyLen: kind.Size(), root: rbtree.EmptyRoot()}
	s.cmp = newNumComparator(s, kind)
	return s
}

func (s *FixedBlobStorage) Node(id uint32) rbtree.Node       { return s.nodes[id] }
func (s *FixedBlobStorage) SetNode(id uint32, n rbtree.Node) { s.nodes[id] = n }
func (s *FixedBlobStorage) Root() rbtree.Root                { return s.root }
func (s *FixedBlobStorage) Comparator() rbtree.Comparator    { return s.cmp }
func (s *FixedBlobStorage) MaxIndex() uint32                 { return uint32(len(s.nodes)) }
func (s *FixedBlobStorage) DataInflateSize() uint64          { return s.total }
func (s *FixedBlobStorage) DataStorageSize() uint64          { return uint64(len(s.bytes)) }
func (s *FixedBlobStorage) IndexStorageSize() uint64 {
	return uint64(len(s.nodes)) * 8
}

func (s *FixedBlobStorage) Key(id uint32) []byte {
	off := int(id) * s.keyLen
	return s.bytes[off : off+s.keyLen]
}

func (s *FixedBlobStorage) grow(n uint32) {
	for uint32(len(s.nodes)) < n {
		s.nodes = append(s.nodes, rbtree.EmptyNode())
		s.bytes = append(s.bytes, make([]byte, s.keyLen)...)
	}
}

func (s *FixedBlobStorage) checkLen(key []byte) {
	if len(key) != s.keyLen {
		panic("index: key length mismatch for FixedBlob storage")
	}
}

func (s *FixedBlobStorage) StoreCheck(id uint32, key []byte) (bool, error) {
	s.checkLen(key)
	st, exists, matchID := rbtree.FindPathForUnique(s.root, s, key, s.cmp)
	if exists && matchID != id {
		return false, nil
	}
	s.grow(id + 1)
	if s.nodes[id].Used {
		if err := s.Remove(id); err != nil {
			return false, err
		}
		st, _, _ = rbtree.FindPathForUnique(s.root, s, key, s.cmp)
	}
	copy(s.Key(id), key)
	rbtree.Insert(&s.root, s, st, id)
	s.total += uint64(len(key))
	return true, nil
}

func (s *FixedBlobStorage) StoreCover(id uint32, key []byte) error {
	s.checkLen(key)
	s.grow(id + 1)
	if s.nodes[id].Used {
		if err := s.Remove(id); err != nil {
			return err
		}
	}
	copy(s.Key(id), key)
	st := rbtree.FindPathForMulti(s.root, s, id, s.cmp)
	rbtree.Insert(&s.root, s, st, id)
	s.total += uint64(len(key))
	return nil
}

func (s *FixedBlobStorage) Remove(id uint32) error {
	if id >= uint32(len(s.nodes)) || !s.nodes[id].Used {
		return &OutOfRangeError{ID: id, MaxIndex: s.MaxIndex()}
	}
	st, exists := rbtree.FindPathForRemove(s.root, s, id, s.cmp)
	if !exists {
		panic("index: remove target not linked in tree")
	}
	rbtree.Remove(&s.root, s, st)
	s.total -= uint64(s.keyLen)
	return nil
}

func (s *FixedBlobStorage) Clear() {
	s.nodes = nil
	s.bytes = nil
	s.root = rbtree.EmptyRoot()
	s.total = 0
}

func (s *FixedBlobStorage) Shrink() {
	trimmedNodes := make([]rbtree.Node, len(s.nodes))
	copy(trimmedNodes, s.nodes)
	s.nodes = trimmedNodes
	trimmedBytes := make([]byte, len(s.bytes))
	copy(trimmedBytes, s.bytes)
	s.bytes = trimmedBytes
}
