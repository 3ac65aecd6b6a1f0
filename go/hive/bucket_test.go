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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waggle.dev/waggle/go/hive/hiveerror"
	"waggle.dev/waggle/go/hive/metastore"
)

func TestBucketNumberFromFileName(t *testing.T) {
	tests := []struct {
		name   string
		bucket int
		ok     bool
	}{
		{"000003_0", 3, true},
		{"000000_0", 0, true},
		{"000017_2", 17, true},
		{"000003_0_copy_1", 3, true},
		{"20260823_141521_00007_9f3ab_bucket-00003", 3, true},
		{"20260823_141521_00007_9f3ab_bucket-00012.gz", 12, true},
		{"20260823_141521_00007_9f3ab_bucket-00002_extra", 2, true},
		{"data.orc", 0, false},
		{"part-00001", 0, false},
		{"3_0", 0, false},
		{"20260823_1415_00007_9f3ab_bucket-00003", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bucket, ok := bucketNumberFromFileName(tc.name)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.bucket, bucket)
			}
		})
	}
}

func TestIsBucketCountCompatible(t *testing.T) {
	tests := []struct {
		table, partition int
		want             bool
	}{
		{8, 8, true},
		{8, 4, true},
		{4, 8, true},
		{16, 1, true},
		{1, 16, true},
		{12, 3, true},
		{8, 3, false},
		{8, 6, false},
		{6, 8, false},
		{0, 4, false},
		{4, 0, false},
		{-2, 4, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, IsBucketCountCompatible(tc.table, tc.partition),
			"IsBucketCountCompatible(%d, %d)", tc.table, tc.partition)
	}
}

func TestCreateBucketSplitInfo(t *testing.T) {
	info, err := CreateBucketSplitInfo(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, info, "no handle means an unbucketed scan")

	_, err = CreateBucketSplitInfo(nil, &BucketFilter{BucketsToKeep: []int{1}})
	require.Error(t, err)
	assert.Equal(t, hiveerror.CodeNotSupported, hiveerror.Code(err))

	handle := &BucketHandle{
		Columns:          []metastore.Column{{Name: "user_id", Type: "bigint"}},
		BucketingVersion: 1,
		TableBucketCount: 8,
		ReadBucketCount:  8,
	}
	info, err = CreateBucketSplitInfo(handle, nil)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, 8, info.TableBucketCount)
	assert.True(t, info.IsTableBucketEnabled(0), "no filter keeps every bucket")
	assert.True(t, info.IsTableBucketEnabled(7))

	info, err = CreateBucketSplitInfo(handle, &BucketFilter{BucketsToKeep: []int{1, 5}})
	require.NoError(t, err)
	assert.True(t, info.IsTableBucketEnabled(1))
	assert.True(t, info.IsTableBucketEnabled(5))
	assert.False(t, info.IsTableBucketEnabled(0))
	assert.False(t, info.IsTableBucketEnabled(7))
}

func TestCreateBucketSplitInfoFilterWithMismatchedCounts(t *testing.T) {
	handle := &BucketHandle{
		Columns:          []metastore.Column{{Name: "user_id", Type: "bigint"}},
		TableBucketCount: 8,
		ReadBucketCount:  4,
	}
	_, err := CreateBucketSplitInfo(handle, &BucketFilter{BucketsToKeep: []int{1}})
	require.Error(t, err)
	assert.Equal(t, hiveerror.CodeNotSupported, hiveerror.Code(err))
	assert.Equal(t, `Filter on "$bucket" is not supported when the table has partitions with different bucket counts`,
		err.Error())
}
