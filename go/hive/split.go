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
	"time"

	"waggle.dev/waggle/go/hive/metastore"
)

// NoBucket marks a split that has no bucket number.
const NoBucket = -1

// PartitionKey is one partition column value a reader synthesizes into
// every row of the split.
type PartitionKey struct {
	Name  string
	Value string
}

// BucketConversion tells the reader to filter rows down to the read bucket
// when the partition was written with a different bucket count than the
// read exposes. Present only when the two counts differ; readers must act
// on it only when ReadBucketCount is the larger.
type BucketConversion struct {
	BucketingVersion     int
	ReadBucketCount      int
	PartitionBucketCount int
	BucketColumns        []metastore.Column
}

// InternalSplit is one unit of scan work. Splits always cover whole files;
// Start and Length exist so readers can subdivide splittable formats later
// without a schema change here.
type InternalSplit struct {
	Path        string
	Start       int64
	Length      int64
	FileSize    int64
	FileModTime time.Time

	Database      string
	Table         string
	PartitionName string

	// Schema is shared by every split of the same partition. Treat it as
	// read-only.
	Schema metastore.Properties

	PartitionKeys []PartitionKey

	// ReadBucket and TableBucket are NoBucket for unbucketed reads. They
	// differ only when the partition was written with a different bucket
	// count than the table declares.
	ReadBucket  int
	TableBucket int

	Splittable       bool
	BucketConversion *BucketConversion

	// ColumnCoercions maps table column ordinals to the physical type the
	// partition actually stores, where the two differ but can be coerced.
	ColumnCoercions map[int]metastore.TypeName
}

// splitOverhead approximates the fixed cost of an InternalSplit in the
// queue's memory accounting.
const splitOverhead = 256

// EstimatedSizeInBytes is the split's contribution to the queue's memory
// bound. The shared Schema map is not counted.
func (s *InternalSplit) EstimatedSizeInBytes() int64 {
	size := int64(splitOverhead)
	size += int64(len(s.Path) + len(s.Database) + len(s.Table) + len(s.PartitionName))
	for _, k := range s.PartitionKeys {
		size += int64(len(k.Name) + len(k.Value))
	}
	for _, t := range s.ColumnCoercions {
		size += int64(8 + len(t))
	}
	return size
}
