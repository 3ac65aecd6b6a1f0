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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waggle.dev/waggle/go/hive/hiveerror"
)

func testTable() *Table {
	return &Table{
		Database: "web",
		Name:     "clicks",
		Owner:    "etl",
		DataColumns: []Column{
			{Name: "url", Type: "string", Comment: "landing page"},
			{Name: "latency_ms", Type: "bigint"},
		},
		PartitionColumns: []Column{
			{Name: "ds", Type: "string"},
			{Name: "hr", Type: "int"},
		},
		Storage: Storage{
			Location:     "file:///warehouse/web/clicks",
			InputFormat:  "org.apache.hadoop.mapred.TextInputFormat",
			OutputFormat: "org.apache.hadoop.hive.ql.io.HiveIgnoreKeyTextOutputFormat",
			SerdeLib:     "org.apache.hadoop.hive.serde2.lazy.LazySimpleSerDe",
			SerdeParameters: map[string]string{
				"serialization.format": "1",
			},
		},
		Parameters: map[string]string{},
	}
}

func TestHiveSchema(t *testing.T) {
	table := testTable()
	table.Parameters[SkipHeaderCountKey] = "1"

	schema := HiveSchema(table, nil)
	assert.Equal(t, "org.apache.hadoop.mapred.TextInputFormat", schema[FileInputFormat])
	assert.Equal(t, "web.clicks", schema[MetaTableName])
	assert.Equal(t, "file:///warehouse/web/clicks", schema[MetaTableLocation])
	assert.Equal(t, "url,latency_ms", schema[MetaTableColumns])
	assert.Equal(t, "string:bigint", schema[MetaTableColumnTypes])
	assert.Equal(t, "landing page\x00", schema[MetaTableColumnComments])
	assert.Equal(t, "0", schema[BucketCount])
	assert.Equal(t, "org.apache.hadoop.hive.serde2.lazy.LazySimpleSerDe", schema[SerializationLib])
	assert.Equal(t, "struct clicks { string url, bigint latency_ms}", schema[SerializationDDL])
	assert.Equal(t, "ds/hr", schema[MetaPartitionColumns])
	assert.Equal(t, "string:int", schema[MetaPartitionColumnTypes])
	assert.Equal(t, "1", schema["serialization.format"])
	assert.Equal(t, "1", schema[SkipHeaderCountKey])
}

func TestHiveSchemaBucketed(t *testing.T) {
	table := testTable()
	table.Storage.BucketProperty = &BucketProperty{
		BucketedBy:  []string{"url"},
		BucketCount: 16,
	}

	schema := HiveSchema(table, nil)
	assert.Equal(t, "url", schema[BucketFieldName])
	assert.Equal(t, "16", schema[BucketCount])
}

func TestHiveSchemaPartitionOverride(t *testing.T) {
	table := testTable()
	partition := &Partition{
		Database: "web",
		Table:    "clicks",
		Values:   []string{"2026-08-01", "11"},
		Storage: Storage{
			Location:     "file:///warehouse/web/clicks/ds=2026-08-01/hr=11",
			InputFormat:  "org.apache.hadoop.hive.ql.io.orc.OrcInputFormat",
			OutputFormat: "org.apache.hadoop.hive.ql.io.orc.OrcOutputFormat",
			SerdeLib:     "org.apache.hadoop.hive.ql.io.orc.OrcSerde",
		},
	}

	schema := HiveSchema(table, partition)
	// Partition storage wins, table columns stay.
	assert.Equal(t, "org.apache.hadoop.hive.ql.io.orc.OrcInputFormat", schema[FileInputFormat])
	assert.Equal(t, "file:///warehouse/web/clicks/ds=2026-08-01/hr=11", schema[MetaTableLocation])
	assert.Equal(t, "org.apache.hadoop.hive.ql.io.orc.OrcSerde", schema[SerializationLib])
	assert.Equal(t, "url,latency_ms", schema[MetaTableColumns])
}

func TestHeaderFooterCount(t *testing.T) {
	schema := Properties{}
	n, err := HeaderCount(schema)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	schema[SkipHeaderCountKey] = "2"
	schema[SkipFooterCountKey] = "1"
	n, err = HeaderCount(schema)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = FooterCount(schema)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	schema[SkipHeaderCountKey] = "-1"
	_, err = HeaderCount(schema)
	require.EqualError(t, err, "Invalid value for skip.header.line.count property: -1")
	assert.Equal(t, hiveerror.CodeInvalidMetadata, hiveerror.Code(err))

	schema[SkipFooterCountKey] = "three"
	_, err = FooterCount(schema)
	require.EqualError(t, err, "Invalid value for skip.footer.line.count property: three")
}

func TestVerifyOnline(t *testing.T) {
	err := VerifyOnline("web.clicks", "", ProtectMode{}, nil)
	require.NoError(t, err)

	err = VerifyOnline("web.clicks", "", ProtectMode{Offline: true}, nil)
	require.EqualError(t, err, "Table 'web.clicks' is offline")
	assert.Equal(t, hiveerror.CodePartitionOffline, hiveerror.Code(err))

	err = VerifyOnline("web.clicks", "ds=2026-08-01/hr=11", ProtectMode{Offline: true}, nil)
	require.EqualError(t, err, "Table 'web.clicks' partition 'ds=2026-08-01/hr=11' is offline")

	params := map[string]string{OfflineKey: "backfill in progress"}
	err = VerifyOnline("web.clicks", "", ProtectMode{}, params)
	require.EqualError(t, err, "Table 'web.clicks' is offline for Waggle: backfill in progress")

	err = VerifyOnline("web.clicks", "ds=2026-08-01/hr=11", ProtectMode{}, params)
	require.EqualError(t, err, "Table 'web.clicks' partition 'ds=2026-08-01/hr=11' is offline for Waggle: backfill in progress")
}

func TestVerifyReadable(t *testing.T) {
	require.NoError(t, VerifyReadable("web.clicks", "", nil))

	params := map[string]string{NotReadableKey: "under compaction"}
	err := VerifyReadable("web.clicks", "", params)
	require.EqualError(t, err, "Table 'web.clicks' is not readable: under compaction")
	assert.Equal(t, hiveerror.CodeNotReadable, hiveerror.Code(err))

	err = VerifyReadable("web.clicks", "ds=2026-08-01/hr=11", params)
	require.EqualError(t, err, "Table 'web.clicks' partition 'ds=2026-08-01/hr=11' is not readable: under compaction")
}

func TestProtectModeFromParameters(t *testing.T) {
	assert.Equal(t, ProtectMode{}, ProtectModeFromParameters(nil))
	assert.Equal(t, ProtectMode{}, ProtectModeFromParameters(map[string]string{ProtectModeKey: ""}))
	assert.Equal(t, ProtectMode{Offline: true}, ProtectModeFromParameters(map[string]string{ProtectModeKey: "OFFLINE"}))
	assert.Equal(t,
		ProtectMode{Offline: true, NoDrop: true, ReadOnly: true},
		ProtectModeFromParameters(map[string]string{ProtectModeKey: "OFFLINE,NO_DROP,READ_ONLY"}))
}

func TestMakePartName(t *testing.T) {
	testcases := []struct {
		columns []string
		values  []string
		want    string
	}{{
		columns: []string{"ds"},
		values:  []string{"2026-08-01"},
		want:    "ds=2026-08-01",
	}, {
		columns: []string{"ds", "hr"},
		values:  []string{"2026-08-01", "11"},
		want:    "ds=2026-08-01/hr=11",
	}, {
		columns: []string{"DS"},
		values:  []string{"2026-08-01"},
		want:    "ds=2026-08-01",
	}, {
		columns: []string{"path"},
		values:  []string{"a/b:c"},
		want:    "path=a%2Fb%3Ac",
	}, {
		columns: []string{"note"},
		values:  []string{"100%"},
		want:    "note=100%25",
	}, {
		columns: []string{"ds"},
		values:  []string{""},
		want:    "ds=__HIVE_DEFAULT_PARTITION__",
	}, {
		columns: []string{"ctl"},
		values:  []string{"a\tb"},
		want:    "ctl=a%09b",
	}}
	for _, tc := range testcases {
		name, err := MakePartName(tc.columns, tc.values)
		require.NoError(t, err)
		assert.Equal(t, tc.want, name)
	}
}

func TestMakePartNameValueCountMismatch(t *testing.T) {
	tests := []struct {
		columns []string
		values  []string
		wantErr string
	}{{
		columns: []string{"ds", "hr"},
		values:  []string{"2026-08-01"},
		wantErr: "Expected 2 partition key values, but got 1",
	}, {
		columns: []string{"ds"},
		values:  []string{"2026-08-01", "11"},
		wantErr: "Expected 1 partition key values, but got 2",
	}, {
		columns: []string{"ds"},
		values:  nil,
		wantErr: "Expected 1 partition key values, but got 0",
	}}
	for _, tc := range tests {
		_, err := MakePartName(tc.columns, tc.values)
		require.EqualError(t, err, tc.wantErr)
		assert.Equal(t, hiveerror.CodeInvalidMetadata, hiveerror.Code(err))
	}
}

func TestPartitionName(t *testing.T) {
	table := testTable()
	partition := &Partition{
		Database: "web",
		Table:    "clicks",
		Values:   []string{"2026-08-01", "11"},
	}
	name, err := partition.Name(table)
	require.NoError(t, err)
	assert.Equal(t, "ds=2026-08-01/hr=11", name)

	// A partition with fewer values than the table has partition columns is
	// corrupt metadata and must come back as an error, not a panic.
	partition.Values = []string{"2026-08-01"}
	_, err = partition.Name(table)
	require.EqualError(t, err, "Expected 2 partition key values, but got 1")
	assert.Equal(t, hiveerror.CodeInvalidMetadata, hiveerror.Code(err))
}
