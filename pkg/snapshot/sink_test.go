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
	"path/filepath"
	"testing"

	"github.com/trbdb/colindex/pkg/index"
)

func buildMultiIndex(t *testing.T) *index.Index {
	t.Helper()
	path := filepath.Join(t.TempDir(), "idx")
	schema := index.Schema{Columns: []index.ColumnMeta{{Name: "k", Type: index.ColBytes}}}
	idx, err := index.Open(path, schema)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []uint32{0, 1, 2} {
		if ok, err := idx.Insert([]byte("dup"), id); err != nil || !ok {
			t.Fatalf("insert id %d: ok=%v err=%v", id, ok, err)
		}
	}
	if ok, err := idx.Insert([]byte("solo"), 3); err != nil || !ok {
		t.Fatalf("insert solo: ok=%v err=%v", ok, err)
	}
	return idx
}

func entriesEqual(t *testing.T, name string, got []Entry, want map[string]uint32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: got %d entries, want %d (%v)", name, len(got), len(want), got)
	}
	for _, e := range got {
		w, ok := want[string(e.Key)]
		if !ok {
			t.Fatalf("%s: unexpected key %q in %v", name, e.Key, got)
		}
		if w != e.ID {
			t.Fatalf("%s: key %q => id %d, want %d", name, e.Key, e.ID, w)
		}
	}
}

// Scenario 7: dumping a multi-valued index into a memSink and a
// leveldbSink must report the same key -> lowest-live-id mapping.
func TestDumpMemAndLevelDBAgree(t *testing.T) {
	idx := buildMultiIndex(t)
	want := map[string]uint32{"dup": 0, "solo": 3}

	mem := newMemSink()
	if err := Dump(idx, mem); err != nil {
		t.Fatalf("dump to mem: %v", err)
	}
	entriesEqual(t, "mem", mem.Entries(), want)

	ldb, err := newMemoryLevelDBSink()
	if err != nil {
		t.Fatalf("open in-memory leveldb sink: %v", err)
	}
	defer ldb.Close()
	if err := Dump(idx, ldb); err != nil {
		t.Fatalf("dump to leveldb: %v", err)
	}
	entriesEqual(t, "leveldb", ldb.Entries(), want)

	// The generic Entries helper dispatches to whichever concrete sink
	// it's handed.
	entriesEqual(t, "Entries(mem)", Entries(mem), want)
	entriesEqual(t, "Entries(leveldb)", Entries(ldb), want)
	if got := Entries(NewBufferedSink(mem, 0)); got != nil {
		t.Fatalf("Entries on an unsupported sink type should be nil, got %v", got)
	}
}

func TestBufferedSinkFlushesOnThreshold(t *testing.T) {
	back := newMemSink()
	buf := NewBufferedSink(back, 8) // small threshold to force a mid-run flush

	if err := buf.Put([]byte("aaaa"), 1); err != nil {
		t.Fatal(err)
	}
	if len(back.Entries()) != 0 {
		t.Fatalf("back sink should not see data before the threshold is crossed")
	}
	if err := buf.Put([]byte("bbbbb"), 2); err != nil {
		t.Fatal(err)
	}
	if len(back.Entries()) != 2 {
		t.Fatalf("expected a flush once buffered bytes exceeded the threshold, got %v", back.Entries())
	}

	if err := buf.Put([]byte("c"), 3); err != nil {
		t.Fatal(err)
	}
	if err := buf.Close(); err != nil {
		t.Fatal(err)
	}
	entriesEqual(t, "after close", back.Entries(), map[string]uint32{"aaaa": 1, "bbbbb": 2, "c": 3})
}

func TestBufferedSinkOverwriteBeforeFlush(t *testing.T) {
	back := newMemSink()
	buf := NewBufferedSink(back, 0) // no automatic flush

	if err := buf.Put([]byte("k"), 1); err != nil {
		t.Fatal(err)
	}
	if err := buf.Put([]byte("k"), 2); err != nil {
		t.Fatal(err)
	}
	if err := buf.Flush(); err != nil {
		t.Fatal(err)
	}
	entriesEqual(t, "overwrite", back.Entries(), map[string]uint32{"k": 2})
}

func TestSinkFromJSONConfigMemory(t *testing.T) {
	sink, err := NewSinkFromJSONConfig(map[string]interface{}{"type": "memory"})
	if err != nil {
		t.Fatal(err)
	}
	defer sink.Close()
	if err := sink.Put([]byte("a"), 1); err != nil {
		t.Fatal(err)
	}
	if _, ok := sink.(*memSink); !ok {
		t.Fatalf("got %T, want *memSink", sink)
	}
}

func TestSinkFromJSONConfigUnknownType(t *testing.T) {
	_, err := NewSinkFromJSONConfig(map[string]interface{}{"type": "bogus"})
	if err == nil {
		t.Fatalf("expected an error for an unknown sink type")
	}
	if _, ok := err.(*ErrUnknownSinkType); !ok {
		t.Fatalf("got %T, want *ErrUnknownSinkType", err)
	}
}

func TestSinkFromJSONConfigBuffered(t *testing.T) {
	sink, err := NewSinkFromJSONConfig(map[string]interface{}{
		"type":        "memory",
		"bufferBytes": float64(1024),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := sink.(*bufferedSink); !ok {
		t.Fatalf("got %T, want *bufferedSink", sink)
	}
	sink.Close()
}
