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
	"bufio"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gammazero/deque"

	"waggle.dev/waggle/go/hive/dfs"
	"waggle.dev/waggle/go/hive/hiveerror"
	"waggle.dev/waggle/go/hive/log"
	"waggle.dev/waggle/go/hive/metastore"
	"waggle.dev/waggle/go/stats"
	"waggle.dev/waggle/go/trace"
)

var partitionsLoaded = stats.NewCounter("PartitionsLoaded", "Partitions expanded into splits")

// SymlinkInputFormat is the input format whose partitions hold manifests of
// target paths instead of data files.
const SymlinkInputFormat = "org.apache.hadoop.hive.ql.io.SymlinkTextInputFormat"

// ComputedSplit is one scan range an input format computed for itself.
type ComputedSplit struct {
	Path        string
	Start       int64
	Length      int64
	FileSize    int64
	FileModTime time.Time
}

// SplitComputer produces scan ranges for input formats that know their own
// layout instead of having files enumerated for them.
type SplitComputer interface {
	ComputeSplits(ctx context.Context, fs dfs.FileSystem, schema metastore.Properties, location string) ([]ComputedSplit, error)
}

// splitComputers is keyed by input format name. Registration happens in
// init functions, before any scan runs, so reads are unsynchronized.
var splitComputers = make(map[string]SplitComputer)

// RegisterSplitComputer routes partitions whose storage descriptor names
// inputFormat through computer instead of through the directory walk.
func RegisterSplitComputer(inputFormat string, computer SplitComputer) {
	splitComputers[inputFormat] = computer
}

// splitIterator pairs a parked file walk with the factory that turns its
// files into splits.
type splitIterator struct {
	files   *fileIterator
	factory *splitFactory
}

func (si *splitIterator) next(ctx context.Context) (*InternalSplit, bool, error) {
	for {
		status, done, err := si.files.next(ctx)
		if err != nil || done {
			return nil, done, err
		}
		if split := si.factory.split(status); split != nil {
			return split, false, nil
		}
	}
}

// backgroundSplitLoader runs the workers that expand partitions into splits
// and feed them to the queue.
type backgroundSplitLoader struct {
	session       *Session
	table         *metastore.Table
	partitions    *partitionQueue
	env           dfs.Environment
	fsctx         dfs.Context
	lister        dfs.DirectoryLister
	bucketInfo    *BucketSplitInfo
	pathPredicate PathPredicate
	concurrency   int
	recursive     bool

	queue *SplitQueue

	// taskLock covers the three resources every drain decision reads as one
	// unit: the partition queue, the iterator deque, and the split queue.
	// Workers hold the read lock while producing, so production stays
	// concurrent, but anyone holding the write lock is guaranteed not to
	// see a produce sequence half done. The drain check takes the write
	// lock and rechecks emptiness under it; a read lock holder may observe
	// another worker mid sequence and must not conclude anything from
	// combined emptiness.
	taskLock sync.RWMutex

	// itMu makes individual deque operations safe between concurrent read
	// lock holders.
	itMu      sync.Mutex
	iterators deque.Deque[*splitIterator]

	stopped atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

func newBackgroundSplitLoader(
	ctx context.Context,
	session *Session,
	table *metastore.Table,
	partitions *partitionQueue,
	env dfs.Environment,
	lister dfs.DirectoryLister,
	bucketInfo *BucketSplitInfo,
	pathPredicate PathPredicate,
	concurrency int,
	recursive bool,
) *backgroundSplitLoader {
	ctx, cancel := context.WithCancel(ctx)
	return &backgroundSplitLoader{
		session:       session,
		table:         table,
		partitions:    partitions,
		env:           env,
		fsctx:         session.fsContext(table.Database, table.Name),
		lister:        lister,
		bucketInfo:    bucketInfo,
		pathPredicate: pathPredicate,
		concurrency:   concurrency,
		recursive:     recursive,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// start launches the workers. The queue must already be bound to this
// loader's stop.
func (l *backgroundSplitLoader) start(queue *SplitQueue) {
	l.queue = queue
	for i := 0; i < l.concurrency; i++ {
		go l.runWorker()
	}
}

// stop is idempotent and safe to call concurrently with in-flight work.
// Workers notice it at the top of their loop and at every blocking wait.
func (l *backgroundSplitLoader) stop() {
	if l.stopped.CompareAndSwap(false, true) {
		l.cancel()
	}
}

// failScan fails the queue with err. Errors that carry no code are wrapped
// first so every scan failure a consumer sees is coded; context errors pass
// through untouched, a canceled scan is not a broken one.
func (l *backgroundSplitLoader) failScan(err error) {
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) &&
		hiveerror.Code(err) == hiveerror.CodeUnknown {
		err = hiveerror.Wrap(err, "unexpected error while loading splits")
	}
	l.queue.Fail(err)
}

func (l *backgroundSplitLoader) runWorker() {
	for !l.stopped.Load() {
		l.taskLock.RLock()
		completion, err := l.loadOnce(l.ctx)
		if err != nil {
			// Fail the queue before releasing the lock. Otherwise a worker
			// that finds everything drained could complete the queue before
			// the failure lands.
			l.failScan(err)
			l.taskLock.RUnlock()
			log.Errorf("split loading failed for %s: %v", l.table.SchemaTableName(), err)
			return
		}
		l.taskLock.RUnlock()
		l.invokeNoMoreSplitsIfNecessary(l.ctx)
		select {
		case <-completion:
		case <-l.ctx.Done():
			return
		}
	}
}

// invokeNoMoreSplitsIfNecessary completes the queue once the partition
// queue and the iterator deque are both drained.
func (l *backgroundSplitLoader) invokeNoMoreSplitsIfNecessary(ctx context.Context) {
	// Opportunistic check under the read lock, purely to avoid taking the
	// write lock on every worker iteration.
	l.taskLock.RLock()
	drained, err := l.drained(ctx)
	if err != nil {
		l.failScan(err)
		l.taskLock.RUnlock()
		return
	}
	l.taskLock.RUnlock()
	if !drained {
		return
	}

	l.taskLock.Lock()
	defer l.taskLock.Unlock()
	// The write lock guarantees no worker is midway through pulling a
	// partition or pushing an iterator, so this recheck is authoritative.
	drained, err = l.drained(ctx)
	if err != nil {
		l.failScan(err)
		return
	}
	if drained {
		// NoMoreSplits is idempotent, racing workers may both get here.
		l.queue.NoMoreSplits()
	}
}

// drained reports whether both split sources are empty. Checking the
// partition queue can fetch a metastore batch, so it can fail.
func (l *backgroundSplitLoader) drained(ctx context.Context) (bool, error) {
	empty, err := l.partitions.empty(ctx)
	if err != nil || !empty {
		return false, err
	}
	return l.iteratorsEmpty(), nil
}

// loadOnce makes one unit of progress: it drains a parked iterator if one
// exists, otherwise it expands the next partition. The returned channel is
// what the worker waits on before its next round; closedChan means the
// round finished synchronously.
func (l *backgroundSplitLoader) loadOnce(ctx context.Context) (<-chan struct{}, error) {
	it := l.popIterator()
	if it == nil {
		partition, err := l.partitions.poll(ctx)
		if err != nil {
			return nil, err
		}
		if partition == nil {
			return closedChan, nil
		}
		return l.loadPartition(ctx, partition)
	}

	for !l.stopped.Load() {
		split, done, err := it.next(ctx)
		if err != nil {
			return nil, err
		}
		if done {
			return closedChan, nil
		}
		completion := l.queue.Add(split)
		select {
		case <-completion:
		default:
			// Queue is over a bound. Park the iterator at the front so its
			// remaining files are picked up before new partitions, and wait
			// for the offered split to be admitted.
			l.parkIteratorFront(it)
			return completion, nil
		}
	}
	// No need to put the iterator back, it is either empty or we stopped.
	return closedChan, nil
}

func (l *backgroundSplitLoader) loadPartition(ctx context.Context, partition *partitionInfo) (<-chan struct{}, error) {
	span, ctx := trace.NewSpan(ctx, "BackgroundSplitLoader.LoadPartition")
	defer span.Finish()
	span.Annotate("partition", partition.name)

	partitionName := partition.name
	schema := metastore.HiveSchema(l.table, partition.partition)
	partitionKeys, err := partitionKeysFor(l.table, partition.partition)
	if err != nil {
		return nil, err
	}
	location := metastore.PartitionLocation(l.table, partition.partition)
	inputFormat := schema[metastore.FileInputFormat]
	fs, err := l.env.FileSystem(l.fsctx, location)
	if err != nil {
		return nil, fsError(err, "Failed to get filesystem for %s", location)
	}
	partitionsLoaded.Add(1)
	log.V(2).Infof("expanding partition %s of %s at %s", partitionName, l.table.SchemaTableName(), location)

	var conversion *BucketConversion
	workerParticipation := false
	if partition.partition != nil && l.bucketInfo != nil {
		if prop := partition.partition.Storage.BucketProperty; prop != nil {
			// Count compatibility was validated when the partition was
			// fetched. This only decides whether the reader has to convert.
			readBucketCount := l.bucketInfo.ReadBucketCount
			if readBucketCount != prop.BucketCount {
				conversion = &BucketConversion{
					BucketingVersion:     prop.Version,
					ReadBucketCount:      readBucketCount,
					PartitionBucketCount: prop.BucketCount,
					BucketColumns:        l.bucketInfo.Columns,
				}
				if readBucketCount > prop.BucketCount {
					// Each partition bucket file then holds rows of several
					// read buckets, and the reader must filter them.
					workerParticipation = true
				}
			}
		}
	}

	newFactory := func(splittable bool) *splitFactory {
		f := &splitFactory{
			database:      l.table.Database,
			table:         l.table.Name,
			partitionName: partitionName,
			schema:        schema,
			partitionKeys: partitionKeys,
			splittable:    splittable,
			pathPredicate: l.pathPredicate,
			coercions:     partition.coercions,
		}
		if workerParticipation {
			f.conversion = conversion
		}
		return f
	}

	if inputFormat == SymlinkInputFormat {
		if l.bucketInfo != nil {
			return nil, hiveerror.New(hiveerror.CodeNotSupported, "Bucketed table in SymlinkTextInputFormat is not yet supported")
		}
		targets, err := l.symlinkTargets(ctx, fs, location)
		if err != nil {
			return nil, err
		}
		factory := newFactory(false)
		last := closedChan
		for _, target := range targets {
			// Splits come from the target's own filesystem, which can be a
			// different store than the manifest's.
			targetFS, err := l.env.FileSystem(l.fsctx, target)
			if err != nil {
				return nil, fsError(err, "Failed to get filesystem for %s", target)
			}
			last, err = l.addSymlinkTarget(ctx, targetFS, target, factory)
			if err != nil {
				return nil, err
			}
			if l.stopped.Load() {
				return closedChan, nil
			}
		}
		return last, nil
	}

	if computer, ok := splitComputers[inputFormat]; ok {
		if l.bucketInfo != nil {
			return nil, hiveerror.Errorf(hiveerror.CodeNotSupported, "Cannot read bucketed partition in an input format that computes its own splits: %s", inputFormat)
		}
		computed, err := computer.ComputeSplits(ctx, fs, schema, location)
		if err != nil {
			return nil, fsError(err, "Failed to compute splits for %s", location)
		}
		factory := newFactory(false)
		last := closedChan
		for _, cs := range computed {
			if split := factory.splitForComputed(cs); split != nil {
				last = l.queue.Add(split)
			}
			if l.stopped.Load() {
				return closedChan, nil
			}
		}
		return last, nil
	}

	if l.bucketInfo != nil {
		partitionBucketCount := l.bucketInfo.TableBucketCount
		if conversion != nil {
			partitionBucketCount = conversion.PartitionBucketCount
		}
		// Bucketed partitions are loaded in full up front: bucket assignment
		// can depend on position in the complete sorted listing.
		files, err := l.listBucketFiles(ctx, fs, location, partitionName)
		if err != nil {
			return nil, err
		}
		splits, err := l.bucketedSplits(files, newFactory(false), partitionBucketCount, partitionName)
		if err != nil {
			return nil, err
		}
		last := closedChan
		for _, split := range splits {
			last = l.queue.Add(split)
		}
		return last, nil
	}

	headerCount, err := metastore.HeaderCount(schema)
	if err != nil {
		return nil, err
	}
	footerCount, err := metastore.FooterCount(schema)
	if err != nil {
		return nil, err
	}
	// Pushdown operates on whole objects, so files must stay undivided
	// while it is active.
	splittable := headerCount == 0 && footerCount == 0 && !l.session.S3SelectPushdownEnabled
	policy := NestedIgnore
	if l.recursive {
		policy = NestedRecurse
	}
	l.parkIteratorBack(&splitIterator{
		files:   newFileIterator(fs, l.lister, l.table, location, policy),
		factory: newFactory(splittable),
	})
	return closedChan, nil
}

// addSymlinkTarget enqueues the splits of one manifest target. Targets may
// name a single file or a flat directory.
func (l *backgroundSplitLoader) addSymlinkTarget(ctx context.Context, fs dfs.FileSystem, target string, factory *splitFactory) (<-chan struct{}, error) {
	status, err := fs.Status(ctx, target)
	if err != nil {
		return nil, fsError(err, "Failed to get status of symlink target %s", target)
	}
	last := closedChan
	if !status.Dir {
		if dfs.HiddenName(dfs.BaseName(target)) {
			return closedChan, nil
		}
		if split := factory.split(status); split != nil {
			last = l.queue.Add(split)
		}
		return last, nil
	}
	it := newFileIterator(fs, l.lister, l.table, target, NestedFail)
	for !l.stopped.Load() {
		file, done, err := it.next(ctx)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
		if split := factory.split(file); split != nil {
			last = l.queue.Add(split)
		}
	}
	return last, nil
}

// symlinkTargets reads every manifest under location and returns the target
// paths they name, one per line.
func (l *backgroundSplitLoader) symlinkTargets(ctx context.Context, fs dfs.FileSystem, location string) ([]string, error) {
	manifests, err := fs.ListStatus(ctx, location)
	if err != nil {
		return nil, hiveerror.Errorf(hiveerror.CodeInvalidMetadata, "Error parsing symlinks from: %s: %v", location, err)
	}
	var targets []string
	for _, manifest := range manifests {
		if manifest.Dir || dfs.HiddenName(dfs.BaseName(manifest.Path)) {
			continue
		}
		lines, err := readLines(ctx, fs, manifest.Path)
		if err != nil {
			return nil, hiveerror.Errorf(hiveerror.CodeInvalidMetadata, "Error parsing symlinks from: %s: %v", location, err)
		}
		targets = append(targets, lines...)
	}
	return targets, nil
}

func readLines(ctx context.Context, fs dfs.FileSystem, path string) ([]string, error) {
	r, err := fs.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

// listBucketFiles lists a bucketed partition in full. The directory must be
// flat; Hive considers nested directories under a bucketed partition a sign
// of corruption, and so do we.
func (l *backgroundSplitLoader) listBucketFiles(ctx context.Context, fs dfs.FileSystem, location, partitionName string) ([]dfs.FileStatus, error) {
	it := newFileIterator(fs, l.lister, l.table, location, NestedFail)
	var files []dfs.FileStatus
	for {
		status, done, err := it.next(ctx)
		if err != nil {
			var nested *nestedDirectoryError
			if errors.As(err, &nested) {
				return nil, hiveerror.Errorf(hiveerror.CodeInvalidBucketFiles,
					"Hive table '%s' is corrupt. Found sub-directory in bucket directory for partition: %s",
					l.table.SchemaTableName(), partitionName)
			}
			return nil, err
		}
		if done {
			return files, nil
		}
		files = append(files, status)
	}
}

// bucketedSplits maps a partition's files to bucket slots and builds the
// splits of every slot the bucket filter keeps.
func (l *backgroundSplitLoader) bucketedSplits(files []dfs.FileStatus, factory *splitFactory, partitionBucketCount int, partitionName string) ([]*InternalSplit, error) {
	readBucketCount := l.bucketInfo.ReadBucketCount
	tableBucketCount := l.bucketInfo.TableBucketCount
	bucketCount := readBucketCount
	if partitionBucketCount > bucketCount {
		bucketCount = partitionBucketCount
	}

	// Build the file to bucket mapping from file names.
	bucketFiles := make(map[int][]dfs.FileStatus)
	for _, file := range files {
		name := dfs.BaseName(file.Path)
		if bucket, ok := bucketNumberFromFileName(name); ok {
			bucketFiles[bucket] = append(bucketFiles[bucket], file)
			continue
		}

		// The legacy layout requires exactly one file per bucket.
		if len(files) != partitionBucketCount {
			return nil, hiveerror.Errorf(hiveerror.CodeInvalidBucketFiles,
				"Hive table '%s' is corrupt. File '%s' does not match the standard naming pattern, and the number of files in the directory (%d) does not match the declared bucket count (%d) for partition: %s",
				l.table.SchemaTableName(), name, len(files), partitionBucketCount, partitionName)
		}

		// Position in the path-sorted listing is the bucket number, the
		// order Hive enumerates bucket paths in. The comparator is a
		// compatibility contract, not a free choice.
		sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
		bucketFiles = make(map[int][]dfs.FileStatus, len(files))
		for i, f := range files {
			bucketFiles[i] = []dfs.FileStatus{f}
		}
		break
	}

	var splits []*InternalSplit
	for bucketNumber := 0; bucketNumber < bucketCount; bucketNumber++ {
		// Physical bucket number. It selects the files and fixes the order
		// of the splits in the result.
		partitionBucketNumber := bucketNumber % partitionBucketCount
		// Logical bucket number, the bucket the engine schedules against.
		readBucketNumber := bucketNumber % readBucketCount

		eligible, ineligible := false, false
		for tableBucketNumber := bucketNumber % tableBucketCount; tableBucketNumber < tableBucketCount; tableBucketNumber += bucketCount {
			// The table bucket number is what "$bucket" filters see.
			if l.bucketInfo.IsTableBucketEnabled(tableBucketNumber) {
				eligible = true
			} else {
				ineligible = true
			}
		}
		if eligible && ineligible {
			return nil, hiveerror.Errorf(hiveerror.CodeNotSupported,
				"The bucket filter cannot be satisfied. There are restrictions on the bucket filter when all the following is true: "+
					"1. a table has a different buckets count as at least one of its partitions that is read in this query; "+
					"2. the table has a different but compatible bucket number with another table in the query; "+
					"3. some buckets of the table is filtered out from the query, most likely using a filter on \"$bucket\". "+
					"(table name: %s, table bucket count: %d, partition bucket count: %d, effective reading bucket count: %d)",
				l.table.Name, tableBucketCount, partitionBucketCount, readBucketCount)
		}
		if !eligible {
			continue
		}
		for _, file := range bucketFiles[partitionBucketNumber] {
			if split := factory.splitForBucket(file, readBucketNumber, bucketNumber%tableBucketCount); split != nil {
				splits = append(splits, split)
			}
		}
	}
	return splits, nil
}

// partitionKeysFor pairs the table's partition columns with this
// partition's values. Unpartitioned tables have no keys.
func partitionKeysFor(table *metastore.Table, partition *metastore.Partition) ([]PartitionKey, error) {
	if partition == nil {
		return nil, nil
	}
	keys := table.PartitionColumns
	values := partition.Values
	if len(keys) != len(values) {
		return nil, hiveerror.Errorf(hiveerror.CodeInvalidMetadata, "Expected %d partition key values, but got %d", len(keys), len(values))
	}
	out := make([]PartitionKey, len(keys))
	for i, col := range keys {
		if !col.Type.Supported() {
			return nil, hiveerror.Errorf(hiveerror.CodeNotSupported, "Unsupported Hive type %s found in partition keys of table %s", col.Type, table.SchemaTableName())
		}
		out[i] = PartitionKey{Name: col.Name, Value: values[i]}
	}
	return out, nil
}

func (l *backgroundSplitLoader) popIterator() *splitIterator {
	l.itMu.Lock()
	defer l.itMu.Unlock()
	if l.iterators.Len() == 0 {
		return nil
	}
	return l.iterators.PopFront()
}

func (l *backgroundSplitLoader) parkIteratorFront(it *splitIterator) {
	l.itMu.Lock()
	defer l.itMu.Unlock()
	l.iterators.PushFront(it)
}

func (l *backgroundSplitLoader) parkIteratorBack(it *splitIterator) {
	l.itMu.Lock()
	defer l.itMu.Unlock()
	l.iterators.PushBack(it)
}

func (l *backgroundSplitLoader) iteratorsEmpty() bool {
	l.itMu.Lock()
	defer l.itMu.Unlock()
	return l.iterators.Len() == 0
}
