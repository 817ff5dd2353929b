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
	"os"
	"path/filepath"
	"testing"
)

func TestLogWriteAndReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.trb")
	lw, err := openLogForAppend(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := lw.writeInsert(0, []byte("alpha")); err != nil {
		t.Fatal(err)
	}
	if err := lw.writeInsert(1, []byte("beta")); err != nil {
		t.Fatal(err)
	}
	if err := lw.writeReplace(2, 0); err != nil {
		t.Fatal(err)
	}
	if err := lw.writeRemove(1); err != nil {
		t.Fatal(err)
	}
	if err := lw.Close(); err != nil {
		t.Fatal(err)
	}

	var seen []logRecord
	err = replayLog(path, func(r logRecord) error {
		seen = append(seen, r)
		return nil
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(seen) != 4 {
		t.Fatalf("replayed %d records, want 4", len(seen))
	}
	if seen[0].kind != recInsert || seen[0].id != 0 || string(seen[0].key) != "alpha" {
		t.Fatalf("record 0 = %+v", seen[0])
	}
	if seen[2].kind != recReplace || seen[2].id != 2 || seen[2].oldID != 0 {
		t.Fatalf("record 2 = %+v", seen[2])
	}
	if seen[3].kind != recRemove || seen[3].id != 1 {
		t.Fatalf("record 3 = %+v", seen[3])
	}
}

func TestReplayEmptyKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.trb")
	lw, err := openLogForAppend(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := lw.writeInsert(0, nil); err != nil {
		t.Fatal(err)
	}
	lw.Close()

	var seen []logRecord
	if err := replayLog(path, func(r logRecord) error { seen = append(seen, r); return nil }); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 1 || len(seen[0].key) != 0 {
		t.Fatalf("seen = %+v", seen)
	}
}

func TestReplayTruncatedRecordIsCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.trb")
	lw, err := openLogForAppend(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := lw.writeInsert(0, []byte("full-record")); err != nil {
		t.Fatal(err)
	}
	lw.Close()

	// Truncate mid key-bytes: the header and length survive but the
	// payload doesn't.
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Truncate(path, info.Size()-3); err != nil {
		t.Fatal(err)
	}

	err = replayLog(path, func(logRecord) error { return nil })
	if err == nil {
		t.Fatalf("expected truncated record to be reported corrupt")
	}
	if _, ok := err.(*CorruptLogError); !ok {
		t.Fatalf("got %T, want *CorruptLogError", err)
	}
}

func TestReplayMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.trb")
	called := false
	if err := replayLog(path, func(logRecord) error { called = true; return nil }); err != nil {
		t.Fatalf("missing log file should replay as empty: %v", err)
	}
	if called {
		t.Fatalf("apply should never be called for a missing file")
	}
}

func TestLogIDOverMaximumRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.trb")
	lw, err := openLogForAppend(path)
	if err != nil {
		t.Fatal(err)
	}
	defer lw.Close()
	if err := lw.writeInsert(MaxLogID+1, []byte("x")); err == nil {
		t.Fatalf("expected an id beyond MaxLogID to be rejected")
	}
}

func TestLogPathSuffixing(t *testing.T) {
	if got := logPath("/tmp/foo"); got != "/tmp/foo.trb" {
		t.Fatalf("logPath(/tmp/foo) = %q", got)
	}
	if got := logPath("/tmp/foo.trb"); got != "/tmp/foo.trb" {
		t.Fatalf("logPath(/tmp/foo.trb) = %q", got)
	}
}
