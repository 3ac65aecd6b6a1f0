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
	"time"

	"golang.org/x/time/rate"

	"waggle.dev/waggle/go/hive/hiveerror"
	"waggle.dev/waggle/go/stats"
)

var (
	splitsDiscovered = stats.NewCounter("SplitsDiscovered", "Splits admitted to split queues")
	splitsDelivered  = stats.NewCounter("SplitsDelivered", "Splits handed to the scheduler")
	splitsQueued     = stats.NewGauge("QueuedSplits", "Splits buffered in split queues awaiting the scheduler")
	splitsOversized  = stats.NewCounter("OversizedSplits", "Splits whose estimated size alone exceeds the queue byte budget")
)

// AllBuckets is the bucket argument for queues that deliver splits first
// come first served instead of grouped by bucket.
const AllBuckets = -1

// SplitSource is the consumer side of split discovery. The scheduler pulls
// batches until an empty batch says the source is exhausted.
type SplitSource interface {
	// NextBatch returns up to max splits. bucket selects a read bucket on a
	// grouped source and must be AllBuckets otherwise. It blocks while the
	// source is alive but empty. An empty batch with a nil error means this
	// bucket is done.
	NextBatch(ctx context.Context, bucket, max int) ([]*InternalSplit, error)

	// IsFinished reports whether the source will never yield another split.
	IsFinished() bool

	// Close releases the source and stops any loading still running behind
	// it. Splits not yet consumed are dropped.
	Close()
}

// pendingAdd is one producer waiting for admission.
type pendingAdd struct {
	split *InternalSplit
	done  chan struct{}
}

// token states of the head pending split. A reservation is only taken once
// there is room, so a full queue does not burn rate budget.
const (
	tokenNone = iota
	tokenWaiting
	tokenReady
)

// closedChan is a completion that is already satisfied. Add hands it out
// when a split goes straight in, and the loader uses it for work that
// finished synchronously.
var closedChan = func() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// SplitQueue buffers splits between loader workers and the scheduler. It is
// bounded by resident split count and by estimated bytes; producers past
// the bound get a completion channel that closes once their split is in.
// Admission stays FIFO per queue, so one worker's splits are delivered in
// the order it offered them.
type SplitQueue struct {
	maxOutstanding int
	maxBytes       int64
	grouped        bool
	limiter        *rate.Limiter

	mu               sync.Mutex
	buffers          map[int][]*InternalSplit
	count            int
	bytes            int64
	initialAllowance int
	pending          []pendingAdd
	tokenState       int
	tokenTimer       *time.Timer
	wake             chan struct{}
	noMore           bool
	failed           error
	closed           bool

	// stopLoader is bound after construction; it must be callable more than
	// once and is invoked outside mu.
	stopLoader func()
}

// NewSplitQueue builds a queue. groupedBuckets is the read bucket count for
// bucket grouped delivery, or zero for a single first come first served
// buffer. splitsPerSecond of zero means unthrottled.
func NewSplitQueue(maxOutstandingSplits int, maxOutstandingBytes int64, maxInitialSplits, splitsPerSecond, groupedBuckets int) *SplitQueue {
	q := &SplitQueue{
		maxOutstanding:   maxOutstandingSplits,
		maxBytes:         maxOutstandingBytes,
		grouped:          groupedBuckets > 0,
		buffers:          make(map[int][]*InternalSplit, groupedBuckets+1),
		initialAllowance: maxInitialSplits,
		wake:             make(chan struct{}),
		stopLoader:       func() {},
	}
	if splitsPerSecond > 0 {
		q.limiter = rate.NewLimiter(rate.Limit(splitsPerSecond), splitsPerSecond)
	}
	return q
}

// bindLoader points the queue at the loader feeding it so terminal states
// can stop loading.
func (q *SplitQueue) bindLoader(stop func()) {
	q.stopLoader = stop
}

// Add offers a split. The returned channel is closed once the split has
// been admitted; producers must not offer their next split before then.
// The first maxInitialSplits splits of a scan are admitted immediately,
// bounds and rate limiter notwithstanding, so short scans are never held
// behind a cold limiter. After the queue goes terminal the split is
// discarded and the channel comes back already closed.
func (q *SplitQueue) Add(split *InternalSplit) <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.terminalLocked() {
		return closedChan
	}
	if q.initialAllowance > 0 {
		q.initialAllowance--
		q.insertLocked(split)
		return closedChan
	}
	done := make(chan struct{})
	q.pending = append(q.pending, pendingAdd{split: split, done: done})
	q.grantLocked()
	return done
}

func (q *SplitQueue) terminalLocked() bool {
	return q.noMore || q.failed != nil || q.closed
}

// roomForLocked is the admission predicate. An empty queue always admits,
// otherwise a split larger than the whole byte budget could never enter.
func (q *SplitQueue) roomForLocked(split *InternalSplit) bool {
	if q.count == 0 {
		return true
	}
	return q.count < q.maxOutstanding && q.bytes+split.EstimatedSizeInBytes() <= q.maxBytes
}

// grantLocked admits pending splits in FIFO order while the bounds and the
// rate limiter allow.
func (q *SplitQueue) grantLocked() {
	for len(q.pending) > 0 {
		head := q.pending[0]
		if !q.roomForLocked(head.split) {
			// Retried when the consumer takes splits out. A reservation
			// already held stays valid for the head.
			return
		}
		if q.limiter != nil {
			switch q.tokenState {
			case tokenNone:
				delay := q.limiter.ReserveN(time.Now(), 1).Delay()
				if delay > 0 {
					q.tokenState = tokenWaiting
					q.tokenTimer = time.AfterFunc(delay, q.tokenElapsed)
					return
				}
			case tokenWaiting:
				return
			case tokenReady:
				q.tokenState = tokenNone
			}
		}
		q.pending = q.pending[1:]
		q.insertLocked(head.split)
		close(head.done)
	}
}

func (q *SplitQueue) tokenElapsed() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.tokenState != tokenWaiting {
		return
	}
	q.tokenState = tokenReady
	q.tokenTimer = nil
	q.grantLocked()
}

func (q *SplitQueue) insertLocked(split *InternalSplit) {
	key := AllBuckets
	if q.grouped {
		key = split.ReadBucket
	}
	q.buffers[key] = append(q.buffers[key], split)
	q.count++
	q.bytes += split.EstimatedSizeInBytes()
	splitsDiscovered.Add(1)
	splitsQueued.Add(1)
	if split.EstimatedSizeInBytes() > q.maxBytes {
		splitsOversized.Add(1)
	}
	q.wakeLocked()
}

// wakeLocked broadcasts a state change to every blocked consumer.
func (q *SplitQueue) wakeLocked() {
	close(q.wake)
	q.wake = make(chan struct{})
}

// NextBatch implements SplitSource.
func (q *SplitQueue) NextBatch(ctx context.Context, bucket, max int) ([]*InternalSplit, error) {
	if max < 1 {
		max = 1
	}
	for {
		q.mu.Lock()
		if q.failed != nil {
			err := q.failed
			q.mu.Unlock()
			return nil, err
		}
		if q.closed {
			q.mu.Unlock()
			return nil, hiveerror.New(hiveerror.CodeUnknown, "split source is closed")
		}
		if buffer := q.buffers[bucket]; len(buffer) > 0 {
			n := max
			if n > len(buffer) {
				n = len(buffer)
			}
			batch := make([]*InternalSplit, n)
			copy(batch, buffer)
			q.buffers[bucket] = buffer[n:]
			q.count -= n
			splitsQueued.Add(int64(-n))
			for _, s := range batch {
				q.bytes -= s.EstimatedSizeInBytes()
			}
			q.grantLocked()
			q.mu.Unlock()
			splitsDelivered.Add(int64(n))
			return batch, nil
		}
		if q.noMore {
			q.mu.Unlock()
			return nil, nil
		}
		wake := q.wake
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wake:
		}
	}
}

// IsFinished implements SplitSource.
func (q *SplitQueue) IsFinished() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.failed != nil || q.closed || (q.noMore && q.count == 0)
}

// NoMoreSplits marks the queue terminal after the buffered splits drain.
// Idempotent, and a no-op after a failure.
func (q *SplitQueue) NoMoreSplits() {
	q.mu.Lock()
	if q.noMore || q.failed != nil || q.closed {
		q.mu.Unlock()
		return
	}
	q.noMore = true
	q.resolvePendingLocked()
	q.wakeLocked()
	q.mu.Unlock()
	q.stopLoader()
}

// Fail marks the queue terminal with err. The first failure wins; failures
// after NoMoreSplits are ignored, the scan already succeeded.
func (q *SplitQueue) Fail(err error) {
	q.mu.Lock()
	if q.terminalLocked() {
		q.mu.Unlock()
		return
	}
	q.failed = err
	q.resolvePendingLocked()
	q.wakeLocked()
	q.mu.Unlock()
	q.stopLoader()
}

// Close implements SplitSource. Buffered splits are dropped.
func (q *SplitQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.buffers = make(map[int][]*InternalSplit)
	splitsQueued.Add(int64(-q.count))
	q.count = 0
	q.bytes = 0
	q.resolvePendingLocked()
	q.wakeLocked()
	q.mu.Unlock()
	q.stopLoader()
}

// resolvePendingLocked releases every waiting producer, dropping their
// splits, and cancels a ticking rate timer.
func (q *SplitQueue) resolvePendingLocked() {
	for _, p := range q.pending {
		close(p.done)
	}
	q.pending = nil
	if q.tokenTimer != nil {
		q.tokenTimer.Stop()
		q.tokenTimer = nil
	}
	q.tokenState = tokenNone
}

// FixedSplitSource serves a fixed list of splits, the degenerate source for
// scans known upfront to have nothing to discover.
type FixedSplitSource struct {
	mu     sync.Mutex
	splits []*InternalSplit
}

// NewFixedSplitSource returns a source over the given splits.
func NewFixedSplitSource(splits []*InternalSplit) *FixedSplitSource {
	return &FixedSplitSource{splits: splits}
}

// NextBatch implements SplitSource. The bucket argument is ignored.
func (f *FixedSplitSource) NextBatch(ctx context.Context, bucket, max int) ([]*InternalSplit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if max < 1 {
		max = 1
	}
	if max > len(f.splits) {
		max = len(f.splits)
	}
	batch := f.splits[:max]
	f.splits = f.splits[max:]
	return batch, nil
}

// IsFinished implements SplitSource.
func (f *FixedSplitSource) IsFinished() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.splits) == 0
}

// Close implements SplitSource.
func (f *FixedSplitSource) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.splits = nil
}
