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

package metastore

import (
	"strings"
)

// Column is a named, typed column of a table or partition.
type Column struct {
	Name    string
	Type    TypeName
	Comment string
}

// BucketProperty describes how the rows of a table or partition are hashed
// into bucket files. Version selects the Hive hashing function generation;
// 0 is treated as 1.
type BucketProperty struct {
	Version     int
	BucketedBy  []string
	BucketCount int
	SortedBy    []string
}

// Storage is the storage descriptor of a table or partition.
type Storage struct {
	Location        string
	InputFormat     string
	OutputFormat    string
	SerdeLib        string
	SerdeParameters map[string]string
	BucketProperty  *BucketProperty
}

// Table is a Hive table as the catalog describes it.
type Table struct {
	Database         string
	Name             string
	Owner            string
	TableType        string
	DataColumns      []Column
	PartitionColumns []Column
	Storage          Storage
	Parameters       map[string]string
}

// SchemaTableName returns the "database.table" form used in messages.
func (t *Table) SchemaTableName() string {
	return t.Database + "." + t.Name
}

// IsPartitioned reports whether the table declares partition columns.
func (t *Table) IsPartitioned() bool {
	return len(t.PartitionColumns) > 0
}

// Partition is a single partition of a table.
type Partition struct {
	Database   string
	Table      string
	Values     []string
	Columns    []Column
	Storage    Storage
	Parameters map[string]string
}

// Name derives the canonical partition name from the table's partition
// columns and this partition's values.
func (p *Partition) Name(table *Table) (string, error) {
	cols := make([]string, len(table.PartitionColumns))
	for i, c := range table.PartitionColumns {
		cols[i] = c.Name
	}
	return MakePartName(cols, p.Values)
}

// PartitionLocation returns the storage location to enumerate for the given
// partition, falling back to the table location for unpartitioned tables.
func PartitionLocation(table *Table, partition *Partition) string {
	if partition == nil {
		return table.Storage.Location
	}
	return partition.Storage.Location
}

// ProtectMode is the parsed form of the PROTECT_MODE table parameter.
type ProtectMode struct {
	Offline  bool
	NoDrop   bool
	ReadOnly bool
}

// ProtectModeFromParameters parses the PROTECT_MODE parameter. Absent or
// empty means no protection.
func ProtectModeFromParameters(parameters map[string]string) ProtectMode {
	var mode ProtectMode
	value, ok := parameters[ProtectModeKey]
	if !ok {
		return mode
	}
	for _, flag := range strings.Split(value, ",") {
		switch strings.TrimSpace(flag) {
		case "OFFLINE":
			mode.Offline = true
		case "NO_DROP":
			mode.NoDrop = true
		case "READ_ONLY":
			mode.ReadOnly = true
		}
	}
	return mode
}
