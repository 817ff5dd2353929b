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

import "sync"

// bufferedSink batches Puts into an in-memory staging sink and
// flushes them to a backing sink once more than maxBufferBytes of key
// data has accumulated, or on an explicit Flush/Close. It exists so a slow
// backing sink (a leveldb file, say) doesn't pay a write for every
// single exported row when the caller can tolerate batching.
type bufferedSink struct {
	buf  *memSink
	back Sink

	maxBuffer int64

	mu       sync.Mutex
	buffered int64
}

// NewBufferedSink wraps back so that writes accumulate in memory and
// are flushed to back once buffered key bytes exceed maxBufferBytes.
// If maxBufferBytes <= 0, no automatic flushing occurs and the caller
// must call Flush (or Close) to push buffered writes through.
func NewBufferedSink(back Sink, maxBufferBytes int64) *bufferedSink {
	return &bufferedSink{buf: newMemSink(), back: back, maxBuffer: maxBufferBytes}
}

func (b *bufferedSink) Put(key []byte, id uint32) error {
	if err := b.buf.Put(key, id); err != nil {
		return err
	}
	b.mu.Lock()
	b.buffered += int64(len(key))
	doFlush := b.maxBuffer > 0 && b.buffered > b.maxBuffer
	b.mu.Unlock()
	if doFlush {
		return b.Flush()
	}
	return nil
}

// Flush pushes every currently-buffered entry to the backing sink and
// clears the buffer.
func (b *bufferedSink) Flush() error {
	entries := b.buf.Entries()
	for _, e := range entries {
		if err := b.back.Put(e.Key, e.ID); err != nil {
			return err
		}
	}
	b.buf.reset()
	b.mu.Lock()
	b.buffered = 0
	b.mu.Unlock()
	return nil
}

func (b *bufferedSink) Close() error {
	if err := b.Flush(); err != nil {
		return err
	}
	return b.back.Close()
}
