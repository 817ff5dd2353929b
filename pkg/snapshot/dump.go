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

import "github.com/trbdb/colindex/pkg/index"

// Dump walks idx in ascending key order and Puts every live row into
// sink. Within a run of equal keys the index's own tie-break visits
// ids in descending order, so the last Put for a given key — and
// therefore the id a Sink that overwrites on Put ends up storing — is
// always the smallest live id in that run.
func Dump(idx *index.Index, sink Sink) error {
	it := idx.NewForwardIterator()
	for {
		id, key, ok := it.Increment()
		if !ok {
			return nil
		}
		if err := sink.Put(key, id); err != nil {
			return err
		}
	}
}
