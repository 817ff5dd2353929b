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

import "go4.org/jsonconfig"

// NewSinkFromJSONConfig builds a Sink from a small JSON config blob,
// mirroring the teacher's sorted.NewKeyValue/RegisterKeyValue
// pattern: a "type" field picks the concrete backend, and the
// remaining fields configure it.
//
//	{"type": "memory"}
//	{"type": "leveldb", "file": "/var/lib/trb/export.ldb"}
//	{"type": "leveldb", "file": "...", "bufferBytes": 1048576}
func NewSinkFromJSONConfig(cfg jsonconfig.Obj) (Sink, error) {
	typ := cfg.RequiredString("type")
	bufferBytes := cfg.OptionalInt64("bufferBytes", 0)

	var (
		sink Sink
		err  error
	)
	switch typ {
	case "memory":
		sink = NewMemorySink()
	case "leveldb":
		file := cfg.RequiredString("file")
		sink, err = NewLevelDBSink(file)
	default:
		return nil, &ErrUnknownSinkType{Type: typ}
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if bufferBytes > 0 {
		sink = NewBufferedSink(sink, bufferBytes)
	}
	return sink, nil
}
