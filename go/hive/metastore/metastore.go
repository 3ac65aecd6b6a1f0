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

// Package metastore defines the Hive catalog model used during split
// discovery, and the interface a catalog implementation must provide.
//
// Implementations live in subpackages: memstore keeps everything in memory
// and is used by tests, sqlstore persists the catalog in an embedded sqlite
// database.
package metastore

import (
	"context"
)

// Properties is the flattened schema of a table or partition, keyed by the
// classic Hive serde property names.
type Properties map[string]string

// Schema property keys. These are the names Hive serdes have used since
// forever; readers downstream depend on them verbatim.
const (
	FileInputFormat          = "file.inputformat"
	FileOutputFormat         = "file.outputformat"
	MetaTableName            = "name"
	MetaTableLocation        = "location"
	MetaTableColumns         = "columns"
	MetaTableColumnTypes     = "columns.types"
	MetaTableColumnComments  = "columns.comments"
	BucketFieldName          = "bucket_field_name"
	BucketCount              = "bucket_count"
	SerializationLib         = "serialization.lib"
	SerializationDDL         = "serialization.ddl"
	MetaPartitionColumns     = "partition_columns"
	MetaPartitionColumnTypes = "partition_columns.types"
)

// Table parameter keys consulted during split discovery.
const (
	// SkipHeaderCountKey holds the number of header lines to skip when
	// reading a file of this schema.
	SkipHeaderCountKey = "skip.header.line.count"

	// SkipFooterCountKey holds the number of footer lines to skip when
	// reading a file of this schema.
	SkipFooterCountKey = "skip.footer.line.count"

	// ProtectModeKey holds Hive protect mode flags such as OFFLINE and
	// NO_DROP, comma separated.
	ProtectModeKey = "PROTECT_MODE"

	// OfflineKey marks a table or partition offline for this engine only,
	// with the value used as the reason.
	OfflineKey = "waggle_offline"

	// NotReadableKey marks a table or partition as temporarily not readable,
	// with the value used as the reason. Unlike OfflineKey this is meant for
	// objects that are mid-load.
	NotReadableKey = "object_not_readable"
)

// Metastore is the subset of a Hive catalog needed to discover splits.
// Implementations must be safe for concurrent use.
type Metastore interface {
	// GetTable returns the named table, or an error carrying
	// CodeTableNotFound if it does not exist.
	GetTable(ctx context.Context, database, table string) (*Table, error)

	// GetPartitionNames lists the partition names of the table, sorted
	// lexically. An unpartitioned table yields an empty list.
	GetPartitionNames(ctx context.Context, database, table string) ([]string, error)

	// GetPartitionsByNames resolves partition names to partitions. Every
	// requested name has an entry in the result; names that no longer exist
	// map to nil.
	GetPartitionsByNames(ctx context.Context, database, table string, names []string) (map[string]*Partition, error)
}
