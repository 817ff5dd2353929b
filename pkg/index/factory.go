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

import "fmt"

// newStorage picks a concrete backend for schema per the factory
// rule: a single arithmetic column whose width is a multiple of 4
// gets FixedAligned with a numeric comparator; a single arithmetic
// column that isn't (Int8/Uint8/Int16/Uint16) falls back to FixedBlob
// with that same numeric comparator, since it can't satisfy
// FixedAligned's interleaved-node alignment invariant; any other
// fixed-total-width schema gets FixedBlob with a lexicographic
// comparator; everything else gets VarLen.
func newStorage(schema Schema) (Storage, error) {
	if len(schema.Columns) == 0 {
		return nil, fmt.Errorf("index: schema has no columns")
	}
	if len(schema.Columns) == 1 && schema.Columns[0].Type.Arithmetic() {
		kind := schema.Columns[0].Type.numericKind()
		if kind.Size()%4 == 0 {
			return NewFixedAlignedStorage(kind), nil
		}
		return newFixedBlobNumericStorage(kind), nil
	}
	if width, ok := schema.fixedWidth(); ok {
		return NewFixedBlobStorage(width), nil
	}
	return NewVarLenStorage(), nil
}
