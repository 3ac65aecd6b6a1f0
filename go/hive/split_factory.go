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
	"waggle.dev/waggle/go/hive/dfs"
	"waggle.dev/waggle/go/hive/metastore"
)

// PathPredicate prunes files by full path before a split is built. A nil
// predicate accepts everything.
type PathPredicate func(path string) bool

// splitFactory stamps out the InternalSplits of one partition. Everything
// partition wide, schema, keys, coercions, splittability, is computed once
// and shared by every split.
type splitFactory struct {
	database      string
	table         string
	partitionName string
	schema        metastore.Properties
	partitionKeys []PartitionKey
	splittable    bool
	pathPredicate PathPredicate
	coercions     map[int]metastore.TypeName
	conversion    *BucketConversion
}

// split builds an unbucketed split for a file, or nil when the path
// predicate prunes it. Empty files still become zero length splits, the
// reader decides what an empty file of its format means.
func (f *splitFactory) split(status dfs.FileStatus) *InternalSplit {
	return f.splitForBucket(status, NoBucket, NoBucket)
}

// splitForComputed builds a split from a range an input format computed
// for itself. The range is taken verbatim, so the split is never further
// subdivided.
func (f *splitFactory) splitForComputed(cs ComputedSplit) *InternalSplit {
	if f.pathPredicate != nil && !f.pathPredicate(cs.Path) {
		return nil
	}
	return &InternalSplit{
		Path:             cs.Path,
		Start:            cs.Start,
		Length:           cs.Length,
		FileSize:         cs.FileSize,
		FileModTime:      cs.FileModTime,
		Database:         f.database,
		Table:            f.table,
		PartitionName:    f.partitionName,
		Schema:           f.schema,
		PartitionKeys:    f.partitionKeys,
		ReadBucket:       NoBucket,
		TableBucket:      NoBucket,
		Splittable:       false,
		BucketConversion: f.conversion,
		ColumnCoercions:  f.coercions,
	}
}

// splitForBucket builds a split tagged with bucket numbers, or nil when the
// path predicate prunes the file.
func (f *splitFactory) splitForBucket(status dfs.FileStatus, readBucket, tableBucket int) *InternalSplit {
	if f.pathPredicate != nil && !f.pathPredicate(status.Path) {
		return nil
	}
	return &InternalSplit{
		Path:             status.Path,
		Start:            0,
		Length:           status.Size,
		FileSize:         status.Size,
		FileModTime:      status.ModTime,
		Database:         f.database,
		Table:            f.table,
		PartitionName:    f.partitionName,
		Schema:           f.schema,
		PartitionKeys:    f.partitionKeys,
		ReadBucket:       readBucket,
		TableBucket:      tableBucket,
		Splittable:       f.splittable,
		BucketConversion: f.conversion,
		ColumnCoercions:  f.coercions,
	}
}
