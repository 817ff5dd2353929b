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

// Package index implements a writable, ordered secondary index: a
// threaded red-black tree over one of three key-storage backends,
// made crash-recoverable by a sequential redo log. See pkg/rbtree for
// the tree algorithm and this package's storage.go/varlen.go/
// fixedblob.go/fixedaligned.go for the backend specializations.
package index

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/trbdb/colindex/pkg/rbtree"
)

// Index is one column's ordered secondary index: in-memory storage
// plus the redo log that makes it durable across restarts.
//
// Index is not safe for concurrent use by multiple goroutines without
// external synchronization; mu is provided for callers to hold but is
// not taken internally by any mutating method here, mirroring the
// single-writer contract described at the package's design level.
type Index struct {
	mu sync.RWMutex

	storage Storage
	unique  bool
	log     *logWriter
	path    string
}

// Open constructs an index over schema backed by the log file at
// path (path is suffixed with ".trb" if it doesn't already end in
// that). If the file exists, its contents are replayed to rebuild
// in-memory state before the index is returned ready for writes.
func Open(path string, schema Schema) (*Index, error) {
	storage, err := newStorage(schema)
	if err != nil {
		return nil, err
	}
	p := logPath(path)
	idx := &Index{storage: storage, unique: schema.Unique, path: p}

	if err := replayLog(p, idx.applyReplayRecord); err != nil {
		return nil, fmt.Errorf("index: replaying %s: %w", p, err)
	}

	lw, err := openLogForAppend(p)
	if err != nil {
		return nil, fmt.Errorf("index: opening %s: %w", p, err)
	}
	idx.log = lw
	return idx, nil
}

func (idx *Index) applyReplayRecord(rec logRecord) error {
	switch rec.kind {
	case recInsert:
		return idx.storage.StoreCover(rec.id, rec.key)
	case recRemove:
		return idx.storage.Remove(rec.id)
	case recReplace:
		if rec.oldID >= idx.storage.MaxIndex() || !idx.storage.Node(rec.oldID).Used {
			return &CorruptLogError{Reason: fmt.Sprintf("replace record names missing old id %d", rec.oldID)}
		}
		key := append([]byte(nil), idx.storage.Key(rec.oldID)...)
		if err := idx.storage.StoreCover(rec.id, key); err != nil {
			return err
		}
		return idx.storage.Remove(rec.oldID)
	}
	return nil
}

// Close flushes and closes the underlying log file. The in-memory
// state is discarded; the log on disk remains for a future Open.
func (idx *Index) Close() error {
	if idx.log == nil {
		return nil
	}
	return idx.log.Close()
}

// Insert adds (key, id) to the index. On a unique index it rejects
// the write and returns false if an equal key already lives at a
// different id. It appends one log record on success.
func (idx *Index) Insert(key []byte, id uint32) (bool, error) {
	if idx.unique {
		ok, err := idx.storage.StoreCheck(id, key)
		if err != nil || !ok {
			return ok, err
		}
	} else {
		if err := idx.storage.StoreCover(id, key); err != nil {
			return false, err
		}
	}
	if err := idx.log.writeInsert(id, key); err != nil {
		return true, err
	}
	return true, nil
}

// Remove deletes id from the index. It panics if the stored key at id
// does not equal key, matching the façade's documented precondition.
func (idx *Index) Remove(key []byte, id uint32) error {
	if !bytes.Equal(idx.storage.Key(id), key) {
		panic("index: Remove key does not match stored key")
	}
	if err := idx.storage.Remove(id); err != nil {
		return err
	}
	return idx.log.writeRemove(id)
}

// Replace moves key from oldID to newID: it links newID with key,
// unlinks oldID, and logs a replace record. It panics if the stored
// key at oldID does not equal key.
func (idx *Index) Replace(key []byte, oldID, newID uint32) error {
	if !bytes.Equal(idx.storage.Key(oldID), key) {
		panic("index: Replace key does not match stored key")
	}
	if err := idx.storage.StoreCover(newID, key); err != nil {
		return err
	}
	if err := idx.storage.Remove(oldID); err != nil {
		return err
	}
	return idx.log.writeReplace(newID, oldID)
}

// Append allocates a fresh id at the current capacity and inserts
// key there, returning the new id.
func (idx *Index) Append(key []byte) (uint32, error) {
	id := idx.storage.MaxIndex()
	if _, err := idx.Insert(key, id); err != nil {
		return 0, err
	}
	return id, nil
}

// Update (re)inserts key at id, replacing id's own prior occupancy
// first. Unlike Insert it never reports a rejected duplicate: on a
// unique index it asserts that the write succeeds and panics if key
// already lives at a different id.
func (idx *Index) Update(id uint32, key []byte) error {
	if idx.unique {
		ok, err := idx.storage.StoreCheck(id, key)
		if err != nil {
			return err
		}
		if !ok {
			panic("index: Update would duplicate a key on a unique index")
		}
	} else if err := idx.storage.StoreCover(id, key); err != nil {
		return err
	}
	return idx.log.writeInsert(id, key)
}

// SearchExactAppend appends every live id whose key equals key, in
// ascending tree order (descending id within the duplicate run), to
// out, returning the extended slice.
func (idx *Index) SearchExactAppend(key []byte, out []uint32) []uint32 {
	root := idx.storage.Root()
	cmp := idx.storage.Comparator()
	lower, upper := rbtree.EqualRange(root, idx.storage, key, cmp)
	for id := lower; id != upper; id = rbtree.MoveNext(idx.storage, id) {
		out = append(out, id)
	}
	return out
}

// GetValueAppend appends the raw key bytes stored at id to out. It
// returns an *OutOfRangeError both when id was never allocated and
// when it was allocated but has since been removed.
func (idx *Index) GetValueAppend(id uint32, out []byte) ([]byte, error) {
	if id >= idx.storage.MaxIndex() || !idx.storage.Node(id).Used {
		return out, &OutOfRangeError{ID: id, MaxIndex: idx.storage.MaxIndex()}
	}
	return append(out, idx.storage.Key(id)...), nil
}

// NumDataRows returns the storage capacity including tombstoned
// slots, i.e. one past the highest id ever used.
func (idx *Index) NumDataRows() uint32 { return idx.storage.MaxIndex() }

// DataInflateSize returns the logical byte count of all live keys.
func (idx *Index) DataInflateSize() uint64 { return idx.storage.DataInflateSize() }

// DataStorageSize returns the physical byte count of key storage.
func (idx *Index) DataStorageSize() uint64 { return idx.storage.DataStorageSize() }

// IndexStorageSize returns the physical byte count of tree node
// storage.
func (idx *Index) IndexStorageSize() uint64 { return idx.storage.IndexStorageSize() }

// ShrinkToFit releases slack capacity in the underlying arrays.
func (idx *Index) ShrinkToFit() { idx.storage.Shrink() }

// Clear resets the tree and storage to empty. It does not truncate
// the log file; callers that want a fully empty log should
// os.Truncate the path themselves.
func (idx *Index) Clear() { idx.storage.Clear() }

// Path returns the log file path this index was opened against.
func (idx *Index) Path() string { return idx.path }
