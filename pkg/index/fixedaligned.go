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

// nodeEncodedSize is the fixed on-array footprint of one rbtree.Node:
// two uint32 child links plus a one-byte flag word.
const nodeEncodedSize = 9

const (
	flagLeftThread  = 1 << 0
	flagRightThread = 1 << 1
	flagRed         = 1 << 2
	flagUsed        = 1 << 3
)

func encodeNode(n rbtree.Node, dst []byte) {
	putLE32(dst[0:4], n.Left)
	putLE32(dst[4:8], n.Right)
	var f byte
	if n.LeftThread {
		f |= flagLeftThread
	}
	if n.RightThread {
		f |= flagRightThread
	}
	if n.Red {
		f |= flagRed
	}
	if n.Used {
		f |= flagUsed
	}
	dst[8] = f
}

func decodeNode(src []byte) rbtree.Node {
	f := src[8]
	return rbtree.Node{
		Left:        getLE32(src[0:4]),
		Right:       getLE32(src[4:8]),
		LeftThread:  f&flagLeftThread != 0,
		RightThread: f&flagRightThread != 0,
		Red:         f&flagRed != 0,
		Used:        f&flagUsed != 0,
	}
}

func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func getLE32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// FixedAlignedStorage stores a node and its fixed-width numeric key
// inline, interleaved in one byte array with stride
// nodeEncodedSize+keyLen. Used for single-column arithmetic schemas,
// compared numerically.
type FixedAlignedStorage struct {
	data   []byte
	keyLen int
	stride int
	root   rbtree.Root
	cmp    rbtree.Comparator
	total  uint64
}

// NewFixedAlignedStorage constructs an empty inline numeric backend.
// keyLen must be a multiple of 4, which holds for Int32, Uint32,
// Int64, Uint64, Float32 and Float64; newStorage routes the narrower
// kinds to FixedBlobStorage instead.
func NewFixedAlignedStorage(kind NumericKind) *FixedAlignedStorage {
	keyLen := kind.Size()
	s := &FixedAlignedStorage{keyLen: keyLen, stride: nodeEncodedSize + keyLen, root: rbtree.EmptyRoot()}
	s.cmp = newNumComparator(s, kind)
	return s
}

func (s *FixedAlignedStorage) slot(id uint32) []byte {
	off := int(id) * s.stride
	return s.data[off : off+s.stride]
}

func (s *FixedAlignedStorage) Node(id uint32) rbtree.Node {
	return decodeNode(s.slot(id))
}

func (s *FixedAlignedStorage) SetNode(id uint32, n rbtree.Node) {
	encodeNode(n, s.slot(id))
}

func (s *FixedAlignedStorage) Root() rbtree.Root             { return s.root }
func (s *FixedAlignedStorage) Comparator() rbtree.Comparator { return s.cmp }
func (s *FixedAlignedStorage) MaxIndex() uint32              { return uint32(len(s.data) / s.stride) }
func (s *FixedAlignedStorage) DataInflateSize() uint64       { return s.total }
func (s *FixedAlignedStorage) DataStorageSize() uint64       { return uint64(len(s.data)) }
func (s *FixedAlignedStorage) IndexStorageSize() uint64      { return uint64(len(s.data)) }

func (s *FixedAlignedStorage) Key(id uint32) []byte {
	slot := s.slot(id)
	return slot[nodeEncodedSize : nodeEncodedSize+s.keyLen]
}

func (s *FixedAlignedStorage) grow(n uint32) {
	cur := uint32(len(s.data) / s.stride)
	for cur < n {
		empty := make([]byte, s.stride)
		encodeNode(rbtree.EmptyNode(), empty)
		s.data = append(s.data, empty...)
		cur++
	}
}

func (s *FixedAlignedStorage) checkLen(key []byte) {
	if len(key) != s.keyLen {
		panic("index: key length mismatch for FixedAligned storage")
	}
}

func (s *FixedAlignedStorage) StoreCheck(id uint32, key []byte) (bool, error) {
	s.checkLen(key)
	st, exists, matchID := rbtree.FindPathForUnique(s.root, s, key, s.cmp)
	if exists && matchID != id {
		return false, nil
	}
	s.grow(id + 1)
	if s.Node(id).Used {
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

func (s *FixedAlignedStorage) StoreCover(id uint32, key []byte) error {
	s.checkLen(key)
	s.grow(id + 1)
	if s.Node(id).Used {
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

func (s *FixedAlignedStorage) Remove(id uint32) error {
	if id >= s.MaxIndex() || !s.Node(id).Used {
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

func (s *FixedAlignedStorage) Clear() {
	s.data = nil
	s.root = rbtree.EmptyRoot()
	s.total = 0
}

func (s *FixedAlignedStorage) Shrink() {
	trimmed := make([]byte, len(s.data))
	copy(trimmed, s.data)
	s.data = trimmed
}
