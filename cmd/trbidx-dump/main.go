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

// Command trbidx-dump opens an on-disk column index (replaying its
// redo log) and exports its live rows, in key order, to a pluggable
// sink described by a small JSON config.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"go4.org/jsonconfig"

	"github.com/trbdb/colindex/pkg/index"
	"github.com/trbdb/colindex/pkg/snapshot"
)

var (
	flagIndex  = flag.String("index", "", "path to the index's .trb log file (required)")
	flagColumn = flag.String("column", "bytes", "key column type: int8, uint8, int16, uint16, int32, uint32, int64, uint64, float32, float64, bytes")
	flagUnique = flag.Bool("unique", false, "treat the index as unique")
	flagConfig = flag.String("config", "", `sink config, e.g. {"type":"leveldb","file":"/tmp/out.ldb"}; defaults to an in-memory sink printed to stdout`)
)

var columnTypes = map[string]index.ColumnType{
	"int8":    index.ColInt8,
	"uint8":   index.ColUint8,
	"int16":   index.ColInt16,
	"uint16":  index.ColUint16,
	"int32":   index.ColInt32,
	"uint32":  index.ColUint32,
	"int64":   index.ColInt64,
	"uint64":  index.ColUint64,
	"float32": index.ColFloat32,
	"float64": index.ColFloat64,
	"bytes":   index.ColBytes,
}

func main() {
	flag.Parse()
	if *flagIndex == "" {
		exitf("-index flag required")
	}
	colType, ok := columnTypes[strings.ToLower(*flagColumn)]
	if !ok {
		exitf("unknown -column type %q", *flagColumn)
	}

	schema := index.Schema{
		Columns: []index.ColumnMeta{{Name: "k", Type: colType}},
		Unique:  *flagUnique,
	}
	idx, err := index.Open(*flagIndex, schema)
	if err != nil {
		log.Fatalf("opening index: %v", err)
	}
	defer idx.Close()

	sink, printStdout, err := buildSink(*flagConfig)
	if err != nil {
		log.Fatalf("building sink: %v", err)
	}

	if printStdout {
		if err := snapshot.Dump(idx, sink); err != nil {
			log.Fatalf("dumping index: %v", err)
		}
		for _, e := range snapshot.Entries(sink) {
			fmt.Printf("%q\t%d\n", e.Key, e.ID)
		}
		return
	}

	if err := snapshot.Dump(idx, sink); err != nil {
		log.Fatalf("dumping index: %v", err)
	}
	if err := sink.Close(); err != nil {
		log.Fatalf("closing sink: %v", err)
	}
}

// buildSink constructs the configured sink, or an in-memory one
// printed to stdout at the end when cfgJSON is empty.
func buildSink(cfgJSON string) (sink snapshot.Sink, printStdout bool, err error) {
	if cfgJSON == "" {
		return snapshot.NewMemorySink(), true, nil
	}
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(cfgJSON), &raw); err != nil {
		return nil, false, fmt.Errorf("parsing -config: %w", err)
	}
	sink, err = snapshot.NewSinkFromJSONConfig(jsonconfig.Obj(raw))
	return sink, false, err
}

func exitf(format string, args ...interface{}) {
	if !strings.HasSuffix(format, "\n") {
		format += "\n"
	}
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
