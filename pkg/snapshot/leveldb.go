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

package snapshot

import (
	"encoding/binary"
	"sort"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// leveldbSink is a Sink over a single mutable leveldb database file,
// grounded on the teacher's pkg/sorted/leveldb store but against the
// public github.com/syndtr/goleveldb module directly rather than the
// teacher's vendored third_party copy.
type leveldbSink struct {
	db        *leveldb.DB
	writeOpts *opt.WriteOptions
}

// NewLevelDBSink opens (creating if necessary) a leveldb database at
// file and returns a Sink writing row-IDs into it.
func NewLevelDBSink(file string) (Sink, error) {
	opts := &opt.Options{Filter: filter.NewBloomFilter(10)}
	db, err := leveldb.OpenFile(file, opts)
	if err != nil {
		return nil, err
	}
	return &leveldbSink{db: db, writeOpts: &opt.WriteOptions{Sync: false}}, nil
}

// newMemoryLevelDBSink returns a leveldbSink over an ephemeral
// in-memory storage engine, used by tests that want to exercise the
// real leveldb encode/iterate path without touching disk.
func newMemoryLevelDBSink() (*leveldbSink, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &leveldbSink{db: db, writeOpts: &opt.WriteOptions{Sync: false}}, nil
}

func (s *leveldbSink) Put(key []byte, id uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], id)
	return s.db.Put(key, buf[:], s.writeOpts)
}

func (s *leveldbSink) Close() error { return s.db.Close() }

// Entries returns every (key, id) pair currently stored, in leveldb's
// own (lexicographic) key order.
func (s *leveldbSink) Entries() []Entry {
	it := s.db.NewIterator(nil, nil)
	defer it.Release()
	var out []Entry
	for it.Next() {
		k := append([]byte(nil), it.Key()...)
		v := it.Value()
		out = append(out, Entry{Key: k, ID: binary.LittleEndian.Uint32(v)})
	}
	sort.Slice(out, func(i, j int) bool { return string(out[i].Key) < string(out[j].Key) })
	return out
}
