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

import (
	"bytes"
	"encoding/binary"

	"github.com/trbdb/colindex/pkg/rbtree"
)

func align4(n int) int { return (n + 3) &^ 3 }

// mempool is a simple bump allocator with a size-bucketed free list,
// used by VarLen to hold length-prefixed key blobs. liveBytes tracks
// the physical footprint of currently-allocated chunks, which is what
// DataStorageSize reports (not the monotonically-growing arena).
type mempool struct {
	arena     []byte
	free      map[int][]uint32
	liveBytes uint64
}

func (m *mempool) alloc(n int) uint32 {
	if list := m.free[n]; len(list) > 0 {
		off := list[len(list)-1]
		m.free[n] = list[:len(list)-1]
		m.liveBytes += uint64(n)
		return off
	}
	off := uint32(len(m.arena))
	m.arena = append(m.arena, make([]byte, n)...)
	m.liveBytes += uint64(n)
	return off
}

func (m *mempool) freeChunk(off uint32, n int) {
	if m.free == nil {
		m.free = make(map[int][]uint32)
	}
	m.free[n] = append(m.free[n], off)
	m.liveBytes -= uint64(n)
}

// encodeBlob returns a varint-length-prefixed, 4-byte-aligned copy of
// key, suitable for writing straight into the mempool arena.
func encodeBlob(key []byte) []byte {
	buf := make([]byte, binary.MaxVarintLen64+len(key))
	n := binary.PutUvarint(buf, uint64(len(key)))
	total := n + len(key)
	copy(buf[n:total], key)
	full := align4(total)
	return buf[:full]
}

func blobChunkSize(key []byte) int {
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(key)))
	return align4(n + len(key))
}

// varlenElem is one index-array slot: a tree node plus the offset of
// this id's key blob within the mempool arena.
type varlenElem struct {
	node   rbtree.Node
	offset uint32
}

// VarLenStorage is the variable-length key storage backend: key bytes
// live in a shared mempool, each id's index-array element holds only
// an offset, and identical keys among live duplicates may alias the
// same blob.
type VarLenStorage struct {
	elems []varlenElem
	pool  mempool
	root  rbtree.Root
	cmp   rbtree.Comparator
	total uint64
}

// NewVarLenStorage constructs an empty VarLen backend compared
// lexicographically.
func NewVarLenStorage() *VarLenStorage {
	s := &VarLenStorage{root: rbtree.EmptyRoot()}
	s.cmp = newLexComparator(s)
	return s
}

func (s *VarLenStorage) Node(id uint32) rbtree.Node   { return s.elems[id].node }
func (s *VarLenStorage) SetNode(id uint32, n rbtree.Node) { s.elems[id].node = n }
func (s *VarLenStorage) Root() rbtree.Root              { return s.root }
func (s *VarLenStorage) Comparator() rbtree.Comparator  { return s.cmp }
func (s *VarLenStorage) MaxIndex() uint32               { return uint32(len(s.elems)) }
func (s *VarLenStorage) DataInflateSize() uint64        { return s.total }
func (s *VarLenStorage) DataStorageSize() uint64        { return s.pool.liveBytes }
func (s *VarLenStorage) IndexStorageSize() uint64 {
	return uint64(len(s.elems)) * uint64(8+4) // node fields + offset
}

func (s *VarLenStorage) Key(id uint32) []byte {
	off := s.elems[id].offset
	l, n := binary.Uvarint(s.pool.arena[off:])
	return s.pool.arena[uint32(n)+off : uint32(n)+off+uint32(l)]
}

func (s *VarLenStorage) grow(n uint32) {
	for uint32(len(s.elems)) < n {
		s.elems = append(s.elems, varlenElem{node: rbtree.EmptyNode(), offset: rbtree.NilID})
	}
}

func (s *VarLenStorage) allocBlob(key []byte) uint32 {
	blob := encodeBlob(key)
	off := s.pool.alloc(len(blob))
	copy(s.pool.arena[off:], blob)
	return off
}

func (s *VarLenStorage) freeBlobAt(offset uint32) {
	l, n := binary.Uvarint(s.pool.arena[offset:])
	s.pool.freeChunk(offset, align4(n+int(l)))
}

func (s *VarLenStorage) StoreCheck(id uint32, key []byte) (bool, error) {
	st, exists, matchID := rbtree.FindPathForUnique(s.root, s, key, s.cmp)
	if exists && matchID != id {
		return false, nil
	}
	s.grow(id + 1)
	if s.elems[id].node.Used {
		if err := s.Remove(id); err != nil {
			return false, err
		}
		st, _, _ = rbtree.FindPathForUnique(s.root, s, key, s.cmp)
	}
	s.elems[id].offset = s.allocBlob(key)
	rbtree.Insert(&s.root, s, st, id)
	s.total += uint64(len(key))
	return true, nil
}

func (s *VarLenStorage) StoreCover(id uint32, key []byte) error {
	s.grow(id + 1)
	if s.elems[id].node.Used {
		if err := s.Remove(id); err != nil {
			return err
		}
	}
	s.elems[id].offset = s.allocBlob(key)
	st := rbtree.FindPathForMulti(s.root, s, id, s.cmp)
	rbtree.Insert(&s.root, s, st, id)
	s.total += uint64(len(key))

	if pred := rbtree.MovePrev(s, id); pred != rbtree.NilID && bytes.Equal(s.Key(pred), s.Key(id)) {
		s.aliasTo(id, pred)
	} else if succ := rbtree.MoveNext(s, id); succ != rbtree.NilID && bytes.Equal(s.Key(succ), s.Key(id)) {
		s.aliasTo(id, succ)
	}
	return nil
}

func (s *VarLenStorage) aliasTo(id, neighbor uint32) {
	s.freeBlobAt(s.elems[id].offset)
	s.elems[id].offset = s.elems[neighbor].offset
}

func (s *VarLenStorage) Remove(id uint32) error {
	if id >= uint32(len(s.elems)) || !s.elems[id].node.Used {
		return &OutOfRangeError{ID: id, MaxIndex: s.MaxIndex()}
	}
	key := s.Key(id)
	keyLen := len(key)
	pred := rbtree.MovePrev(s, id)
	succ := rbtree.MoveNext(s, id)
	predEqual := pred != rbtree.NilID && bytes.Equal(s.Key(pred), key)
	succEqual := succ != rbtree.NilID && bytes.Equal(s.Key(succ), key)
	if !predEqual && !succEqual {
		s.freeBlobAt(s.elems[id].offset)
	}
	st, exists := rbtree.FindPathForRemove(s.root, s, id, s.cmp)
	if !exists {
		panic("index: remove target not linked in tree")
	}
	rbtree.Remove(&s.root, s, st)
	s.elems[id].offset = rbtree.NilID
	s.total -= uint64(keyLen)
	return nil
}

func (s *VarLenStorage) Clear() {
	s.elems = nil
	s.pool = mempool{}
	s.root = rbtree.EmptyRoot()
	s.total = 0
}

func (s *VarLenStorage) Shrink() {
	trimmed := make([]varlenElem, len(s.elems))
	copy(trimmed, s.elems)
	s.elems = trimmed
	trimmedArena := make([]byte, len(s.pool.arena))
	copy(trimmedArena, s.pool.arena)
	s.pool.arena = trimmedArena
}
