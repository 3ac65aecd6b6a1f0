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
	"slices"
	"sort"
	"sync/atomic"

	"waggle.dev/waggle/go/hive/dfs"
	"waggle.dev/waggle/go/hive/hiveerror"
	"waggle.dev/waggle/go/hive/metastore"
	"waggle.dev/waggle/go/stats"
	"waggle.dev/waggle/go/trace"
)

var scanSourcesOpened = stats.NewCounter("ScanSourcesOpened", "Split sources opened for table scans")

// UnpartitionedID is the descriptor id of the single pseudo partition an
// unpartitioned table is scanned as.
const UnpartitionedID = "<UNPARTITIONED>"

// SchedulingPolicy selects how the queue hands splits to the consumer.
type SchedulingPolicy int

const (
	// UngroupedScheduling delivers splits first come first served.
	UngroupedScheduling SchedulingPolicy = iota
	// GroupedScheduling delivers splits grouped by read bucket so the
	// engine can co-schedule bucket aligned work. Requires a bucketed
	// table.
	GroupedScheduling
)

// TableHandle names the table of a scan plus what the planner decided
// about it.
type TableHandle struct {
	Database string
	Table    string

	// BucketHandle is nil for unbucketed scans.
	BucketHandle *BucketHandle

	// BucketFilter keeps a subset of table buckets, typically from a
	// "$bucket" predicate. Only valid with a BucketHandle.
	BucketFilter *BucketFilter

	// PathPredicate prunes files by full path before any split is built.
	PathPredicate PathPredicate
}

// partitionInfo is a fetched, validated partition ready for expansion.
type partitionInfo struct {
	name string

	// partition is nil for the pseudo partition of an unpartitioned table.
	partition *metastore.Partition

	coercions map[int]metastore.TypeName
}

// SplitManager turns table scans into background loaded split sources. One
// manager serves many concurrent scans; each GetSplits call gets its own
// queue and workers.
type SplitManager struct {
	config Config
	store  metastore.Metastore
	env    dfs.Environment
	lister dfs.DirectoryLister
	policy CoercionPolicy
	closed atomic.Bool
}

// NewSplitManager builds a manager. Directory listings are cached per
// config when any cache tables are configured.
func NewSplitManager(config Config, store metastore.Metastore, env dfs.Environment, policy CoercionPolicy) *SplitManager {
	lister := dfs.NewDirectLister()
	if len(config.FileStatusCacheTables) > 0 {
		lister = dfs.NewCachingLister(lister, config.FileStatusCacheTTL, config.FileStatusCacheSize, config.FileStatusCacheTables)
	}
	return &SplitManager{
		config: config,
		store:  store,
		env:    env,
		lister: lister,
		policy: policy,
	}
}

// Close marks the manager as shutting down. Scans already running keep
// their workers; new GetSplits calls are refused.
func (m *SplitManager) Close() {
	m.closed.Store(true)
}

// GetSplits starts background split discovery over the given partitions
// and returns the source the consumer drains. partitionIDs are partition
// names, or the single UnpartitionedID for an unpartitioned table. The
// scan is tied to ctx: canceling it stops the loader.
func (m *SplitManager) GetSplits(ctx context.Context, session *Session, handle *TableHandle, partitionIDs []string, scheduling SchedulingPolicy) (SplitSource, error) {
	span, ctx := trace.NewSpan(ctx, "SplitManager.GetSplits")
	defer span.Finish()
	span.Annotate("table", handle.Database+"."+handle.Table)
	span.Annotate("partitions", len(partitionIDs))

	if m.closed.Load() {
		return nil, hiveerror.New(hiveerror.CodeServerShuttingDown, "Server is shutting down")
	}

	table, err := m.store.GetTable(ctx, handle.Database, handle.Table)
	if err != nil {
		return nil, err
	}
	tableName := table.SchemaTableName()
	if err := metastore.VerifyOnline(tableName, "", metastore.ProtectModeFromParameters(table.Parameters), table.Parameters); err != nil {
		return nil, err
	}
	if err := metastore.VerifyReadable(tableName, "", table.Parameters); err != nil {
		return nil, err
	}

	if len(partitionIDs) == 0 {
		scanSourcesOpened.Add(1)
		return NewFixedSplitSource(nil), nil
	}

	if scheduling == GroupedScheduling && handle.BucketHandle == nil {
		return nil, hiveerror.New(hiveerror.CodeUnknown, "scheduling is grouped, but the table has no bucket handle")
	}
	bucketInfo, err := CreateBucketSplitInfo(handle.BucketHandle, handle.BucketFilter)
	if err != nil {
		return nil, err
	}

	// Newest partitions sort last lexically in the common date layouts, so
	// descending order starts the scan on the most recently added data.
	ids := make([]string, len(partitionIDs))
	copy(ids, partitionIDs)
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))

	batcher := newPartitionBatcher(m.store, table, handle.BucketHandle, m.policy, ids, m.config.MinPartitionBatchSize, m.config.MaxPartitionBatchSize)

	groupedBuckets := 0
	if scheduling == GroupedScheduling {
		groupedBuckets = bucketInfo.ReadBucketCount
	}
	queue := NewSplitQueue(
		m.config.MaxOutstandingSplits,
		m.config.MaxOutstandingSplitsSize,
		m.config.MaxInitialSplits,
		m.config.MaxSplitsPerSecond,
		groupedBuckets,
	)
	loader := newBackgroundSplitLoader(
		ctx,
		session,
		table,
		newPartitionQueue(batcher),
		m.env,
		m.lister,
		bucketInfo,
		handle.PathPredicate,
		m.config.SplitLoaderConcurrency,
		m.config.RecursiveDirectoryWalk,
	)
	queue.bindLoader(loader.stop)
	loader.start(queue)
	scanSourcesOpened.Add(1)
	return queue, nil
}

// partitionBatcher resolves partition ids into validated partitions,
// fetching metadata in exponentially growing batches so short scans start
// fast and long scans amortize the metastore round trips.
type partitionBatcher struct {
	store  metastore.Metastore
	table  *metastore.Table
	bucket *BucketHandle
	policy CoercionPolicy

	pending   []string
	batch     []*partitionInfo
	batchSize int
	maxBatch  int
}

func newPartitionBatcher(store metastore.Metastore, table *metastore.Table, bucket *BucketHandle, policy CoercionPolicy, ids []string, minBatchSize, maxBatchSize int) *partitionBatcher {
	b := &partitionBatcher{
		store:     store,
		table:     table,
		bucket:    bucket,
		policy:    policy,
		batchSize: minBatchSize,
		maxBatch:  maxBatchSize,
	}
	if len(ids) == 1 && ids[0] == UnpartitionedID {
		// The whole table is one pseudo partition; nothing to fetch.
		b.batch = []*partitionInfo{{name: UnpartitionedID}}
	} else {
		b.pending = ids
	}
	return b
}

func (b *partitionBatcher) next(ctx context.Context) (*partitionInfo, bool, error) {
	if len(b.batch) == 0 {
		if len(b.pending) == 0 {
			return nil, false, nil
		}
		n := min(b.batchSize, len(b.pending))
		names := b.pending[:n]
		b.pending = b.pending[n:]
		infos, err := b.fetch(ctx, names)
		if err != nil {
			return nil, false, err
		}
		b.batch = infos
		b.batchSize = min(b.batchSize*2, b.maxBatch)
	}
	p := b.batch[0]
	b.batch = b.batch[1:]
	return p, true, nil
}

func (b *partitionBatcher) fetch(ctx context.Context, names []string) ([]*partitionInfo, error) {
	span, ctx := trace.NewSpan(ctx, "SplitManager.FetchPartitions")
	defer span.Finish()
	span.Annotate("batch", len(names))

	byName, err := b.store.GetPartitionsByNames(ctx, b.table.Database, b.table.Name, names)
	if err != nil {
		return nil, err
	}
	infos := make([]*partitionInfo, 0, len(names))
	for _, name := range names {
		partition := byName[name]
		if partition == nil {
			return nil, hiveerror.Errorf(hiveerror.CodePartitionDropped, "Partition no longer exists: %s", name)
		}
		info, err := b.validate(partition)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// validate checks one partition against the table and computes its
// coercion map. Any violation fails the whole scan; the catalog state it
// reflects would not improve on retry.
func (b *partitionBatcher) validate(partition *metastore.Partition) (*partitionInfo, error) {
	table := b.table
	tableName := table.SchemaTableName()
	partName, err := partition.Name(table)
	if err != nil {
		return nil, err
	}

	if err := metastore.VerifyOnline(tableName, partName, metastore.ProtectModeFromParameters(partition.Parameters), partition.Parameters); err != nil {
		return nil, err
	}
	if err := metastore.VerifyReadable(tableName, partName, partition.Parameters); err != nil {
		return nil, err
	}

	// Adding or dropping columns at the end of the table without touching
	// existing partitions is legal schema evolution, so only the columns
	// present on both sides are compared.
	tableColumns := table.DataColumns
	partitionColumns := partition.Columns
	var coercions map[int]metastore.TypeName
	for i := 0; i < min(len(tableColumns), len(partitionColumns)); i++ {
		tableType := tableColumns[i].Type
		partitionType := partitionColumns[i].Type
		if tableType == partitionType {
			continue
		}
		if !b.policy.CanCoerce(partitionType, tableType) {
			return nil, hiveerror.Errorf(hiveerror.CodePartitionSchemaMismatch,
				"There is a mismatch between the table and partition schemas. "+
					"The types are incompatible and cannot be coerced. "+
					"The column '%s' in table '%s' is declared as type '%s', "+
					"but partition '%s' declared column '%s' as type '%s'.",
				tableColumns[i].Name, tableName, tableType, partName, partitionColumns[i].Name, partitionType)
		}
		if coercions == nil {
			coercions = make(map[int]metastore.TypeName)
		}
		coercions[i] = partitionType
	}

	if b.bucket != nil {
		prop := partition.Storage.BucketProperty
		if prop == nil {
			return nil, hiveerror.Errorf(hiveerror.CodePartitionSchemaMismatch,
				"Hive table (%s) is bucketed but partition (%s) is not bucketed", tableName, partName)
		}
		tableBucketColumns := columnNames(b.bucket.Columns)
		if !slices.Equal(tableBucketColumns, prop.BucketedBy) || !IsBucketCountCompatible(b.bucket.TableBucketCount, prop.BucketCount) {
			return nil, hiveerror.Errorf(hiveerror.CodePartitionSchemaMismatch,
				"Hive table (%s) bucketing (columns=%v, buckets=%d) is not compatible with partition (%s) bucketing (columns=%v, buckets=%d)",
				tableName, tableBucketColumns, b.bucket.TableBucketCount, partName, prop.BucketedBy, prop.BucketCount)
		}
	}

	return &partitionInfo{name: partName, partition: partition, coercions: coercions}, nil
}

func columnNames(columns []metastore.Column) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}
