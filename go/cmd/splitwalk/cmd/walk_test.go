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

package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waggle.dev/waggle/go/hive"
	"waggle.dev/waggle/go/hive/dfs"
	"waggle.dev/waggle/go/hive/metastore"
)

func TestParseTableName(t *testing.T) {
	database, table, err := parseTableName("web.clicks")
	require.NoError(t, err)
	assert.Equal(t, "web", database)
	assert.Equal(t, "clicks", table)

	for _, bad := range []string{"clicks", "web.", ".clicks", ""} {
		_, _, err := parseTableName(bad)
		assert.Error(t, err, "name %q", bad)
	}
}

func TestBucketHandleFor(t *testing.T) {
	table := &metastore.Table{
		Database: "web",
		Name:     "clicks",
		DataColumns: []metastore.Column{
			{Name: "url", Type: "string"},
			{Name: "user_id", Type: "bigint"},
		},
	}
	prop := &metastore.BucketProperty{
		Version:     1,
		BucketedBy:  []string{"user_id"},
		BucketCount: 8,
	}

	handle := bucketHandleFor(table, prop)
	require.Len(t, handle.Columns, 1)
	assert.Equal(t, "user_id", handle.Columns[0].Name)
	assert.Equal(t, 1, handle.BucketingVersion)
	assert.Equal(t, 8, handle.TableBucketCount)
	assert.Equal(t, 8, handle.ReadBucketCount)
}

func TestReportJSON(t *testing.T) {
	modTime := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	splits := []*hive.InternalSplit{
		{Path: "mem://w/clicks/f0", Length: 100, FileModTime: modTime, PartitionName: "ds=2026-08-01", ReadBucket: hive.NoBucket, TableBucket: hive.NoBucket},
		{Path: "mem://w/clicks/f1", Length: 200, FileModTime: modTime, PartitionName: "ds=2026-08-02", ReadBucket: 3, TableBucket: 3},
	}

	var buf bytes.Buffer
	require.NoError(t, report(&buf, "json", splits, time.Second))

	var paths []string
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var s hive.InternalSplit
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &s))
		paths = append(paths, s.Path)
	}
	assert.Equal(t, []string{"mem://w/clicks/f0", "mem://w/clicks/f1"}, paths)
}

func TestReportSummaryLine(t *testing.T) {
	splits := []*hive.InternalSplit{
		{Path: "a", Length: 1024, PartitionName: "ds=2026-08-01", ReadBucket: hive.NoBucket},
		{Path: "b", Length: 1024, PartitionName: "ds=2026-08-01", ReadBucket: hive.NoBucket},
	}

	var buf bytes.Buffer
	require.NoError(t, report(&buf, "none", splits, 2*time.Second))
	assert.Equal(t, "2 splits, 2.0 KiB in 1 partitions, 2.0s (1 splits/s)\n", buf.String())
}

func TestEnvironmentRoutesLocalPaths(t *testing.T) {
	env := newEnvironment()
	defer env.Close()

	for _, location := range []string{"/data/warehouse/clicks", "file:///data/warehouse/clicks"} {
		fs, err := env.FileSystem(dfs.Context{}, location)
		require.NoError(t, err)
		assert.Same(t, env.local, fs, "location %q", location)
	}
}
