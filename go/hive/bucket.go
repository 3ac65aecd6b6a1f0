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
	"math/bits"
	"regexp"
	"strconv"

	"waggle.dev/waggle/go/hive/hiveerror"
	"waggle.dev/waggle/go/hive/metastore"
)

// BucketHandle is the planner's view of a bucketed table. ReadBucketCount
// is the count the engine actually schedules against, which differs from
// TableBucketCount mid resize.
type BucketHandle struct {
	Columns          []metastore.Column
	BucketingVersion int
	TableBucketCount int
	ReadBucketCount  int
}

// BucketFilter keeps only the named table buckets, typically from a
// "$bucket" predicate.
type BucketFilter struct {
	BucketsToKeep []int
}

// BucketSplitInfo is the resolved read-time bucketing plan for a scan.
type BucketSplitInfo struct {
	Columns          []metastore.Column
	BucketingVersion int
	TableBucketCount int
	ReadBucketCount  int

	// bucketsToKeep is nil when every bucket is read.
	bucketsToKeep map[int]bool
}

// CreateBucketSplitInfo resolves the table's bucketing declaration and an
// optional bucket filter into a plan. Both nil yields nil, an unbucketed
// scan.
func CreateBucketSplitInfo(handle *BucketHandle, filter *BucketFilter) (*BucketSplitInfo, error) {
	if handle == nil {
		if filter != nil {
			return nil, hiveerror.New(hiveerror.CodeNotSupported, "Bucket filter requires a bucketed table")
		}
		return nil, nil
	}
	if handle.TableBucketCount != handle.ReadBucketCount && filter != nil {
		return nil, hiveerror.New(hiveerror.CodeNotSupported, "Filter on \"$bucket\" is not supported when the table has partitions with different bucket counts")
	}
	info := &BucketSplitInfo{
		Columns:          handle.Columns,
		BucketingVersion: handle.BucketingVersion,
		TableBucketCount: handle.TableBucketCount,
		ReadBucketCount:  handle.ReadBucketCount,
	}
	if filter != nil {
		info.bucketsToKeep = make(map[int]bool, len(filter.BucketsToKeep))
		for _, b := range filter.BucketsToKeep {
			info.bucketsToKeep[b] = true
		}
	}
	return info, nil
}

// IsTableBucketEnabled reports whether the filter keeps a table bucket.
func (b *BucketSplitInfo) IsTableBucketEnabled(tableBucket int) bool {
	return b.bucketsToKeep == nil || b.bucketsToKeep[tableBucket]
}

// IsBucketCountCompatible reports whether two bucket counts can be folded
// onto each other: the larger must be an exact power-of-two multiple of the
// smaller. The relation is symmetric.
func IsBucketCountCompatible(tableBucketCount, partitionBucketCount int) bool {
	if tableBucketCount < 1 || partitionBucketCount < 1 {
		return false
	}
	larger, smaller := tableBucketCount, partitionBucketCount
	if smaller > larger {
		larger, smaller = smaller, larger
	}
	if larger%smaller != 0 {
		return false
	}
	return bits.OnesCount(uint(larger/smaller)) == 1
}

var bucketFilePatterns = []*regexp.Regexp{
	// Files written by Hive: 000003_0, 000003_0_copy_1.
	regexp.MustCompile(`^(0\d+)_\d+.*$`),
	// Files written by this engine, named after the query that wrote them:
	// 20260823_141521_00007_9f3ab_bucket-00003 plus an optional suffix.
	regexp.MustCompile(`^\d{8}_\d{6}_\d{5}_[a-z0-9]{5}_bucket-(\d+)(?:[-_.].*)?$`),
}

// bucketNumberFromFileName extracts the bucket number encoded in a data
// file name, when the name follows a recognized pattern.
func bucketNumberFromFileName(name string) (int, bool) {
	for _, pattern := range bucketFilePatterns {
		m := pattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return n, true
	}
	return 0, false
}
