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
	"sort"
	"sync"
)

// Entry is one exported key/row-ID pair.
type Entry struct {
	Key []byte
	ID  uint32
}

// memSink is a naive in-memory Sink for tests, small dumps, and as
// the staging buffer behind bufferedSink.
type memSink struct {
	mu sync.Mutex
	m  map[string]uint32
}

// NewMemorySink returns a Sink backed only by memory.
func NewMemorySink() Sink { return newMemSink() }

func newMemSink() *memSink { return &memSink{m: make(map[string]uint32)} }

func (s *memSink) Put(key []byte, id uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[string(key)] = id
	return nil
}

func (s *memSink) Close() error { return nil }

// Entries returns every (key, id) pair currently held, sorted by key.
func (s *memSink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.m))
	for k, id := range s.m {
		out = append(out, Entry{Key: []byte(k), ID: id})
	}
	sort.Slice(out, func(i, j int) bool {
		return string(out[i].Key) < string(out[j].Key)
	})
	return out
}

func (s *memSink) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = make(map[string]uint32)
}

// Entries returns every (key, id) pair held by sink, sorted by key,
// if sink exposes them; it returns nil for sinks that don't (i.e.
// anything but a *memSink or *leveldbSink).
func Entries(sink Sink) []Entry {
	switch s := sink.(type) {
	case *memSink:
		return s.Entries()
	case *leveldbSink:
		return s.Entries()
	default:
		return nil
	}
}
