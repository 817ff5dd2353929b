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
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func tempIndexPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "idx")
}

func uniqueBytesSchema() Schema {
	return Schema{Columns: []ColumnMeta{{Name: "k", Type: ColBytes}}, Unique: true}
}

func multiBytesSchema() Schema {
	return Schema{Columns: []ColumnMeta{{Name: "k", Type: ColBytes}}, Unique: false}
}

func float64Schema() Schema {
	return Schema{Columns: []ColumnMeta{{Name: "k", Type: ColFloat64}}, Unique: false}
}

func le64(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

func f64key(f float64) []byte { return le64(math.Float64bits(f)) }

// Scenario 1: unique VarLen index over three keys, forward iteration
// yields them in ascending order.
func TestScenarioUniqueThreeKeys(t *testing.T) {
	idx, err := Open(tempIndexPath(t), uniqueBytesSchema())
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	for i, k := range []string{"banana", "apple", "cherry"} {
		ok, err := idx.Insert([]byte(k), uint32(i))
		if err != nil || !ok {
			t.Fatalf("insert %q: ok=%v err=%v", k, ok, err)
		}
	}
	it := idx.NewForwardIterator()
	var got []string
	for {
		_, key, ok := it.Increment()
		if !ok {
			break
		}
		got = append(got, string(key))
	}
	want := []string{"apple", "banana", "cherry"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

// Scenario 2: a unique index rejects a duplicate key at a different
// id.
func TestScenarioUniqueRejectsDuplicate(t *testing.T) {
	idx, err := Open(tempIndexPath(t), uniqueBytesSchema())
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	ok, err := idx.Insert([]byte("x"), 0)
	if err != nil || !ok {
		t.Fatalf("first insert: ok=%v err=%v", ok, err)
	}
	ok, err = idx.Insert([]byte("x"), 1)
	if err != nil {
		t.Fatalf("second insert errored: %v", err)
	}
	if ok {
		t.Fatalf("second insert of duplicate key should have been rejected")
	}
	if n := idx.SearchExactAppend([]byte("x"), nil); len(n) != 1 || n[0] != 0 {
		t.Fatalf("SearchExactAppend(x) = %v, want [0]", n)
	}
}

// Scenario 3: a multi-valued index with equal-keyed duplicates, the
// VarLen aliasing optimisation, and a remove-middle-then-remove-ends
// sequence that must not double-free or corrupt the shared blob.
func TestScenarioMultiAliasingRemoveSequence(t *testing.T) {
	idx, err := Open(tempIndexPath(t), multiBytesSchema())
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	for _, id := range []uint32{0, 1, 2} {
		ok, err := idx.Insert([]byte("dup"), id)
		if err != nil || !ok {
			t.Fatalf("insert id %d: ok=%v err=%v", id, ok, err)
		}
	}
	if n := idx.SearchExactAppend([]byte("dup"), nil); len(n) != 3 {
		t.Fatalf("expected 3 matches, got %v", n)
	}
	// Descending-id tie-break within the duplicate run.
	got := idx.SearchExactAppend([]byte("dup"), nil)
	if got[0] != 2 || got[1] != 1 || got[2] != 0 {
		t.Fatalf("duplicate run order = %v, want [2 1 0]", got)
	}

	if err := idx.Remove([]byte("dup"), 1); err != nil {
		t.Fatalf("remove middle: %v", err)
	}
	got = idx.SearchExactAppend([]byte("dup"), nil)
	if len(got) != 2 || got[0] != 2 || got[1] != 0 {
		t.Fatalf("after removing middle: %v, want [2 0]", got)
	}

	if err := idx.Remove([]byte("dup"), 0); err != nil {
		t.Fatalf("remove first end: %v", err)
	}
	if err := idx.Remove([]byte("dup"), 2); err != nil {
		t.Fatalf("remove second end: %v", err)
	}
	if got := idx.SearchExactAppend([]byte("dup"), nil); len(got) != 0 {
		t.Fatalf("expected no matches left, got %v", got)
	}
	if idx.DataInflateSize() != 0 {
		t.Fatalf("DataInflateSize = %d, want 0", idx.DataInflateSize())
	}
}

// Scenario 4: Replace moves a key from an old id to a new one and the
// old id is no longer reachable.
func TestScenarioReplace(t *testing.T) {
	idx, err := Open(tempIndexPath(t), uniqueBytesSchema())
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	if ok, err := idx.Insert([]byte("hello"), 0); err != nil || !ok {
		t.Fatalf("insert: ok=%v err=%v", ok, err)
	}
	if err := idx.Replace([]byte("hello"), 0, 5); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if got := idx.SearchExactAppend([]byte("hello"), nil); len(got) != 1 || got[0] != 5 {
		t.Fatalf("after replace: %v, want [5]", got)
	}
	if _, err := idx.GetValueAppend(0, nil); err == nil {
		t.Fatalf("expected old id 0 to be gone after replace")
	}
}

// Scenario 5: a single float64 column is ordered numerically, not
// lexicographically (the byte encoding of 100.0 sorts before -1.25).
func TestScenarioNumericFloat64(t *testing.T) {
	idx, err := Open(tempIndexPath(t), float64Schema())
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	values := []float64{3.5, -1.25, 100.0, 0.0, 2.0}
	for i, v := range values {
		if _, err := idx.Insert(f64key(v), uint32(i)); err != nil {
			t.Fatalf("insert %v: %v", v, err)
		}
	}
	it := idx.NewForwardIterator()
	var got []float64
	for {
		_, key, ok := it.Increment()
		if !ok {
			break
		}
		got = append(got, math.Float64frombits(func() uint64 {
			var v uint64
			for i := 7; i >= 0; i-- {
				v = v<<8 | uint64(key[i])
			}
			return v
		}()))
	}
	want := []float64{-1.25, 0.0, 2.0, 3.5, 100.0}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

// Scenario 6: log replay after a fresh Open reproduces identical
// index content.
func TestScenarioLogReplayRoundTrip(t *testing.T) {
	path := tempIndexPath(t)
	idx, err := Open(path, multiBytesSchema())
	if err != nil {
		t.Fatal(err)
	}
	for i, k := range []string{"one", "two", "three", "two"} {
		if _, err := idx.Insert([]byte(k), uint32(i)); err != nil {
			t.Fatalf("insert %q: %v", k, err)
		}
	}
	if err := idx.Remove([]byte("two"), 1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path, multiBytesSchema())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	want := map[uint32]string{0: "one", 2: "three", 3: "two"}
	for id, key := range want {
		got, err := reopened.GetValueAppend(id, nil)
		if err != nil {
			t.Fatalf("GetValueAppend(%d): %v", id, err)
		}
		if string(got) != key {
			t.Fatalf("id %d: got %q, want %q", id, got, key)
		}
	}
	if _, err := reopened.GetValueAppend(1, nil); err == nil {
		t.Fatalf("expected id 1 to remain removed after replay")
	}
}

func TestReplayMissingFileIsEmpty(t *testing.T) {
	idx, err := Open(tempIndexPath(t), uniqueBytesSchema())
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	if idx.NumDataRows() != 0 {
		t.Fatalf("fresh index should have zero capacity, got %d", idx.NumDataRows())
	}
}

func TestReplayCorruptLogFails(t *testing.T) {
	path := tempIndexPath(t)
	full := logPath(path)
	if err := os.WriteFile(full, []byte{0x01, 0x00, 0x00}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path, uniqueBytesSchema()); err == nil {
		t.Fatalf("expected corrupt log to fail Open")
	}
}

// A replace record naming an old id that was never inserted (or was
// already removed) must fail replay with a *CorruptLogError rather
// than let applyReplayRecord read past the storage backend's bounds.
func TestReplayReplaceMissingOldIDIsCorrupt(t *testing.T) {
	path := tempIndexPath(t)
	idx, err := Open(path, uniqueBytesSchema())
	if err != nil {
		t.Fatal(err)
	}
	if ok, err := idx.Insert([]byte("a"), 0); err != nil || !ok {
		t.Fatalf("insert: ok=%v err=%v", ok, err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Hand-append a replace record whose old id (7) was never written,
	// simulating a corrupted or truncated log tail.
	full := logPath(path)
	f, err := os.OpenFile(full, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	var buf [8]byte
	// opReplace (0x40000000) | newID=1, oldID=7.
	buf[0], buf[1], buf[2], buf[3] = 1, 0, 0, 0x40
	buf[4], buf[5], buf[6], buf[7] = 7, 0, 0, 0
	if _, err := f.Write(buf[:]); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	_, err = Open(path, uniqueBytesSchema())
	if err == nil {
		t.Fatalf("expected replay of a dangling replace target to fail")
	}
	var cle *CorruptLogError
	if !errors.As(err, &cle) {
		t.Fatalf("got %T (%v), want a wrapped *CorruptLogError", err, err)
	}
}
