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

package dfs

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waggle.dev/waggle/go/hive/metastore"
)

// countingFS serves a fixed listing and counts how often it is asked.
type countingFS struct {
	files []FileStatus
	calls int
}

func (c *countingFS) ListStatus(ctx context.Context, path string) ([]FileStatus, error) {
	c.calls++
	return append([]FileStatus(nil), c.files...), nil
}

func (c *countingFS) Status(ctx context.Context, path string) (FileStatus, error) {
	return FileStatus{Path: path, Dir: true}, nil
}

func (c *countingFS) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return nil, io.ErrUnexpectedEOF
}

func listerTable(database, name string) *metastore.Table {
	return &metastore.Table{Database: database, Name: name}
}

func TestCachingLister(t *testing.T) {
	ctx := context.Background()
	fs := &countingFS{files: []FileStatus{
		{Path: "mem://w/clicks/f1", Size: 10},
		{Path: "mem://w/clicks/f2", Size: 20},
	}}
	lister := NewCachingLister(NewDirectLister(), time.Minute, 100, []string{"web.clicks"})
	table := listerTable("web", "clicks")

	files, err := lister.ListStatus(ctx, fs, table, "mem://w/clicks")
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.Equal(t, 1, fs.calls)
	assert.EqualValues(t, 1, lister.RequestCount())
	assert.EqualValues(t, 0, lister.HitCount())
	assert.EqualValues(t, 1, lister.MissCount())

	// Second listing is served from cache.
	again, err := lister.ListStatus(ctx, fs, table, "mem://w/clicks")
	require.NoError(t, err)
	assert.Equal(t, files, again)
	assert.Equal(t, 1, fs.calls)
	assert.EqualValues(t, 1, lister.HitCount())

	// Callers get a copy; mutating it must not poison the cache.
	again[0].Size = 999
	fresh, err := lister.ListStatus(ctx, fs, table, "mem://w/clicks")
	require.NoError(t, err)
	assert.EqualValues(t, 10, fresh[0].Size)

	lister.Invalidate("mem://w/clicks")
	_, err = lister.ListStatus(ctx, fs, table, "mem://w/clicks")
	require.NoError(t, err)
	assert.Equal(t, 2, fs.calls)
}

func TestCachingListerFilter(t *testing.T) {
	ctx := context.Background()
	fs := &countingFS{files: []FileStatus{{Path: "mem://w/other/f1"}}}
	lister := NewCachingLister(NewDirectLister(), time.Minute, 100, []string{"web.clicks"})

	// Tables outside the filter bypass the cache entirely.
	other := listerTable("web", "other")
	for i := 0; i < 2; i++ {
		_, err := lister.ListStatus(ctx, fs, other, "mem://w/other")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, fs.calls)
	assert.EqualValues(t, 0, lister.RequestCount())
}

func TestCachingListerWildcard(t *testing.T) {
	ctx := context.Background()
	fs := &countingFS{files: []FileStatus{{Path: "mem://w/any/f1"}}}
	lister := NewCachingLister(NewDirectLister(), time.Minute, 100, []string{"*"})

	for i := 0; i < 3; i++ {
		_, err := lister.ListStatus(ctx, fs, listerTable("web", "any"), "mem://w/any")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, fs.calls)
	assert.EqualValues(t, 3, lister.RequestCount())
	assert.EqualValues(t, 2, lister.HitCount())
}

func TestCachingListerSizeCap(t *testing.T) {
	ctx := context.Background()
	fs := &countingFS{files: []FileStatus{{Path: "mem://w/clicks/f1"}}}
	lister := NewCachingLister(NewDirectLister(), time.Minute, 1, []string{"*"})
	table := listerTable("web", "clicks")

	_, err := lister.ListStatus(ctx, fs, table, "mem://w/clicks/p1")
	require.NoError(t, err)
	_, err = lister.ListStatus(ctx, fs, table, "mem://w/clicks/p2")
	require.NoError(t, err)
	// p2 was over the cap and never cached.
	_, err = lister.ListStatus(ctx, fs, table, "mem://w/clicks/p2")
	require.NoError(t, err)
	assert.Equal(t, 3, fs.calls)
}
