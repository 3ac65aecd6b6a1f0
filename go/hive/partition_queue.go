/*
Copyright 2026 The Waggle Authors.

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

package hive

import (
	"context"
	"sync"
)

// partitionQueue serializes concurrent worker access to the lazy partition
// sequence coming out of the batcher. Polling may fetch and validate a
// fresh metastore batch, so both methods can block and can fail.
type partitionQueue struct {
	mu       sync.Mutex
	source   *partitionBatcher
	buffered *partitionInfo
	done     bool
}

func newPartitionQueue(source *partitionBatcher) *partitionQueue {
	return &partitionQueue{source: source}
}

// poll returns the next partition, or nil once the sequence is exhausted.
func (q *partitionQueue) poll(ctx context.Context) (*partitionInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.buffered != nil {
		p := q.buffered
		q.buffered = nil
		return p, nil
	}
	if q.done {
		return nil, nil
	}
	p, ok, err := q.source.next(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		q.done = true
		return nil, nil
	}
	return p, nil
}

// empty reports whether the sequence is exhausted, buffering one lookahead
// partition if it has to fetch to find out.
func (q *partitionQueue) empty(ctx context.Context) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.buffered != nil {
		return false, nil
	}
	if q.done {
		return true, nil
	}
	p, ok, err := q.source.next(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		q.done = true
		return true, nil
	}
	q.buffered = p
	return false, nil
}
