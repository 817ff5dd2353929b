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

// OutOfRangeError reports a row-ID outside the index's current
// capacity.
type OutOfRangeError struct {
	ID       uint32
	MaxIndex uint32
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("index: id %d out of range (max %d)", e.ID, e.MaxIndex)
}

// CorruptLogError reports a malformed redo log record encountered
// during replay. Replay aborts on the first one rather than skipping
// it.
type CorruptLogError struct {
	Offset int64
	Reason string
}

func (e *CorruptLogError) Error() string {
	return fmt.Sprintf("index: corrupt log record at offset %d: %s", e.Offset, e.Reason)
}
