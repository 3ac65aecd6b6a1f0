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
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waggle.dev/waggle/go/hive/dfs"
	"waggle.dev/waggle/go/hive/dfs/memfs"
	"waggle.dev/waggle/go/hive/hiveerror"
	"waggle.dev/waggle/go/hive/metastore"
)

func walkAll(t *testing.T, it *fileIterator) []string {
	t.Helper()
	ctx := context.Background()
	var out []string
	for {
		status, done, err := it.next(ctx)
		require.NoError(t, err)
		if done {
			return out
		}
		out = append(out, status.Path)
	}
}

func TestFileIteratorFlat(t *testing.T) {
	fs := memfs.New()
	fs.Touch("mem://w/clicks/f1", 10)
	fs.Touch("mem://w/clicks/f2", 20)
	fs.Touch("mem://w/clicks/.hidden", 5)
	fs.Touch("mem://w/clicks/_SUCCESS", 0)

	it := newFileIterator(fs, dfs.NewDirectLister(), &metastore.Table{Database: "web", Name: "clicks"}, "mem://w/clicks", NestedIgnore)
	assert.Equal(t, []string{"mem://w/clicks/f1", "mem://w/clicks/f2"}, walkAll(t, it))
}

func TestFileIteratorNestedPolicies(t *testing.T) {
	newFS := func() *memfs.FS {
		fs := memfs.New()
		fs.Touch("mem://w/clicks/a", 1)
		fs.Touch("mem://w/clicks/sub/b", 2)
		fs.Touch("mem://w/clicks/sub/deeper/c", 3)
		fs.Touch("mem://w/clicks/_tmp/scratch", 4)
		return fs
	}
	table := &metastore.Table{Database: "web", Name: "clicks"}

	it := newFileIterator(newFS(), dfs.NewDirectLister(), table, "mem://w/clicks", NestedIgnore)
	assert.Equal(t, []string{"mem://w/clicks/a"}, walkAll(t, it))

	// Recursion descends breadth first and still skips hidden directories.
	it = newFileIterator(newFS(), dfs.NewDirectLister(), table, "mem://w/clicks", NestedRecurse)
	assert.Equal(t, []string{
		"mem://w/clicks/a",
		"mem://w/clicks/sub/b",
		"mem://w/clicks/sub/deeper/c",
	}, walkAll(t, it))

	it = newFileIterator(newFS(), dfs.NewDirectLister(), table, "mem://w/clicks", NestedFail)
	_, _, err := it.next(context.Background())
	require.NoError(t, err)
	_, _, err = it.next(context.Background())
	require.Error(t, err)
	var nested *nestedDirectoryError
	require.ErrorAs(t, err, &nested)
	assert.Equal(t, hiveerror.CodeInvalidMetadata, hiveerror.Code(err))
	assert.Contains(t, err.Error(), "Unexpected sub-directory mem://w/clicks/sub")
}

func TestFileIteratorHiddenRoot(t *testing.T) {
	// A hidden table location itself is fine, only components below it count.
	fs := memfs.New()
	fs.Touch("mem://w/.staging/f1", 10)
	it := newFileIterator(fs, dfs.NewDirectLister(), &metastore.Table{Database: "web", Name: "clicks"}, "mem://w/.staging", NestedIgnore)
	assert.Equal(t, []string{"mem://w/.staging/f1"}, walkAll(t, it))
}

func TestFileIteratorListError(t *testing.T) {
	fs := memfs.New()
	fs.Touch("mem://w/clicks/f1", 10)
	fs.FailList("mem://w/clicks", errors.New("storage acting up"))

	it := newFileIterator(fs, dfs.NewDirectLister(), &metastore.Table{Database: "web", Name: "clicks"}, "mem://w/clicks", NestedIgnore)
	_, _, err := it.next(context.Background())
	require.Error(t, err)
	assert.Equal(t, hiveerror.CodeFilesystemError, hiveerror.Code(err))
	assert.Equal(t, "Failed to list directory mem://w/clicks: storage acting up", err.Error())
}

func TestFsErrorKeepsCodes(t *testing.T) {
	coded := hiveerror.New(hiveerror.CodePartitionOffline, "already classified")
	assert.Same(t, coded, fsError(coded, "context %s", "ignored"), "coded errors pass through untouched")

	plain := fmt.Errorf("plain failure")
	wrapped := fsError(plain, "listing %s", "mem://w/x")
	assert.Equal(t, hiveerror.CodeFilesystemError, hiveerror.Code(wrapped))
	assert.Equal(t, "listing mem://w/x: plain failure", wrapped.Error())
}
