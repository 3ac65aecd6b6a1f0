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
	"fmt"
	"strconv"
	"strings"

	"waggle.dev/waggle/go/hive/hiveerror"
)

// DefaultPartitionValue is the value Hive substitutes for a null or empty
// partition value.
const DefaultPartitionValue = "__HIVE_DEFAULT_PARTITION__"

// HiveSchema flattens the storage descriptor, columns, and partition keys of
// a table, or one of its partitions, into classic serde properties. For a
// partition, its storage descriptor wins while the column lists stay the
// table's, mirroring what Hive's own getSchema has always done.
func HiveSchema(table *Table, partition *Partition) Properties {
	sd := &table.Storage
	if partition != nil {
		sd = &partition.Storage
	}

	schema := make(Properties)
	schema[FileInputFormat] = sd.InputFormat
	schema[FileOutputFormat] = sd.OutputFormat
	schema[MetaTableName] = table.Database + "." + table.Name
	schema[MetaTableLocation] = sd.Location

	if bp := sd.BucketProperty; bp != nil {
		schema[BucketFieldName] = strings.Join(bp.BucketedBy, ",")
		schema[BucketCount] = strconv.Itoa(bp.BucketCount)
	} else {
		schema[BucketCount] = "0"
	}

	for k, v := range sd.SerdeParameters {
		schema[k] = v
	}
	schema[SerializationLib] = sd.SerdeLib

	var names, types, comments strings.Builder
	for i, c := range table.DataColumns {
		if i > 0 {
			names.WriteByte(',')
			types.WriteByte(':')
			comments.WriteByte(0)
		}
		names.WriteString(c.Name)
		types.WriteString(string(c.Type))
		comments.WriteString(c.Comment)
	}
	schema[MetaTableColumns] = names.String()
	schema[MetaTableColumnTypes] = types.String()
	schema[MetaTableColumnComments] = comments.String()
	schema[SerializationDDL] = thriftDDL(table.Name, table.DataColumns)

	if len(table.PartitionColumns) > 0 {
		partNames := make([]string, len(table.PartitionColumns))
		partTypes := make([]string, len(table.PartitionColumns))
		for i, c := range table.PartitionColumns {
			partNames[i] = c.Name
			partTypes[i] = string(c.Type)
		}
		schema[MetaPartitionColumns] = strings.Join(partNames, "/")
		schema[MetaPartitionColumnTypes] = strings.Join(partTypes, ":")
	}

	// Table parameters go in last so settings like skip.header.line.count
	// are visible to readers of the schema.
	for k, v := range table.Parameters {
		schema[k] = v
	}
	return schema
}

func thriftDDL(tableName string, columns []Column) string {
	var ddl strings.Builder
	ddl.WriteString("struct ")
	ddl.WriteString(tableName)
	ddl.WriteString(" { ")
	for i, c := range columns {
		if i > 0 {
			ddl.WriteString(", ")
		}
		ddl.WriteString(string(c.Type))
		ddl.WriteByte(' ')
		ddl.WriteString(c.Name)
	}
	ddl.WriteString("}")
	return ddl.String()
}

// HeaderCount returns the number of header lines to skip, per the schema.
func HeaderCount(schema Properties) (int, error) {
	return positiveIntProperty(schema, SkipHeaderCountKey)
}

// FooterCount returns the number of footer lines to skip, per the schema.
func FooterCount(schema Properties) (int, error) {
	return positiveIntProperty(schema, SkipFooterCountKey)
}

func positiveIntProperty(schema Properties, key string) (int, error) {
	value, ok := schema[key]
	if !ok || value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, hiveerror.Errorf(hiveerror.CodeInvalidMetadata, "Invalid value for %s property: %s", key, value)
	}
	return n, nil
}

// VerifyOnline returns an error when the table, or the named partition of
// it, is marked offline, either through Hive protect mode or through the
// engine specific override parameter.
func VerifyOnline(schemaTable, partitionName string, mode ProtectMode, parameters map[string]string) error {
	if mode.Offline {
		if partitionName != "" {
			return hiveerror.Errorf(hiveerror.CodePartitionOffline, "Table '%s' partition '%s' is offline", schemaTable, partitionName)
		}
		return hiveerror.Errorf(hiveerror.CodePartitionOffline, "Table '%s' is offline", schemaTable)
	}
	if reason := parameters[OfflineKey]; reason != "" {
		if partitionName != "" {
			return hiveerror.Errorf(hiveerror.CodePartitionOffline, "Table '%s' partition '%s' is offline for Waggle: %s", schemaTable, partitionName, reason)
		}
		return hiveerror.Errorf(hiveerror.CodePartitionOffline, "Table '%s' is offline for Waggle: %s", schemaTable, reason)
	}
	return nil
}

// VerifyReadable returns an error when the table, or the named partition of
// it, carries the not-readable marker.
func VerifyReadable(schemaTable, partitionName string, parameters map[string]string) error {
	reason := parameters[NotReadableKey]
	if reason == "" {
		return nil
	}
	if partitionName != "" {
		return hiveerror.Errorf(hiveerror.CodeNotReadable, "Table '%s' partition '%s' is not readable: %s", schemaTable, partitionName, reason)
	}
	return hiveerror.Errorf(hiveerror.CodeNotReadable, "Table '%s' is not readable: %s", schemaTable, reason)
}

// MakePartName builds the canonical partition name, for example
// "ds=2026-08-01/hr=11". Column names are lowercased and both sides are
// path-escaped the way Hive does it. A value count that does not match the
// column count is corrupt catalog metadata, not a programming error, and
// comes back as CodeInvalidMetadata.
func MakePartName(columns, values []string) (string, error) {
	if len(columns) != len(values) {
		return "", hiveerror.Errorf(hiveerror.CodeInvalidMetadata, "Expected %d partition key values, but got %d", len(columns), len(values))
	}
	var name strings.Builder
	for i := range columns {
		if i > 0 {
			name.WriteByte('/')
		}
		name.WriteString(EscapePathName(strings.ToLower(columns[i])))
		name.WriteByte('=')
		name.WriteString(EscapePathName(values[i]))
	}
	return name.String(), nil
}

// pathEscapeSet holds the characters Hive percent-escapes in partition path
// components, beyond the ASCII control range.
var pathEscapeSet = map[rune]bool{
	'"': true, '#': true, '%': true, '\'': true, '*': true, '/': true,
	':': true, '=': true, '?': true, '\\': true, 0x7F: true, '{': true,
	'[': true, ']': true, '^': true,
}

// EscapePathName escapes a single partition path component. Empty values
// become the Hive default partition marker.
func EscapePathName(path string) string {
	if path == "" {
		return DefaultPartitionValue
	}
	var escaped strings.Builder
	for _, r := range path {
		if r < ' ' || pathEscapeSet[r] {
			fmt.Fprintf(&escaped, "%%%02X", r)
			continue
		}
		escaped.WriteRune(r)
	}
	return escaped.String()
}
