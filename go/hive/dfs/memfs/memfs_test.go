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

package memfs

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListStatus(t *testing.T) {
	ctx := context.Background()
	fs := New()
	fs.WriteFile("mem://w/t/f1", []byte("abc"))
	fs.Touch("mem://w/t/f2", 100)
	fs.WriteFile("mem://w/t/sub/f3", nil)

	files, err := fs.ListStatus(ctx, "mem://w/t")
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "mem://w/t/f1", files[0].Path)
	assert.EqualValues(t, 3, files[0].Size)
	assert.False(t, files[0].Dir)
	assert.Equal(t, "mem://w/t/f2", files[1].Path)
	assert.EqualValues(t, 100, files[1].Size)
	assert.Equal(t, "mem://w/t/sub", files[2].Path)
	assert.True(t, files[2].Dir)

	// Mod times are distinct and increasing per write.
	assert.True(t, files[0].ModTime.Before(files[1].ModTime))

	_, err = fs.ListStatus(ctx, "mem://w/missing")
	require.Error(t, err)

	_, err = fs.ListStatus(ctx, "mem://w/t/f1")
	require.EqualError(t, err, "mem://w/t/f1 is not a directory")
}

func TestEmptyDir(t *testing.T) {
	ctx := context.Background()
	fs := New()
	fs.Mkdir("mem://w/t/empty")

	files, err := fs.ListStatus(ctx, "mem://w/t/empty")
	require.NoError(t, err)
	assert.Empty(t, files)

	status, err := fs.Status(ctx, "mem://w/t/empty")
	require.NoError(t, err)
	assert.True(t, status.Dir)
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	fs := New()
	fs.WriteFile("mem://w/t/f1", []byte("abc"))

	status, err := fs.Status(ctx, "mem://w/t/f1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, status.Size)
	assert.False(t, status.Dir)

	status, err = fs.Status(ctx, "mem://w/t")
	require.NoError(t, err)
	assert.True(t, status.Dir)

	_, err = fs.Status(ctx, "mem://w/t/f9")
	require.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	fs := New()
	fs.WriteFile("mem://w/t/manifest", []byte("line1\nline2\n"))

	r, err := fs.Open(ctx, "mem://w/t/manifest")
	require.NoError(t, err)
	defer r.Close()
	content, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "line1\nline2\n", string(content))
}

func TestInjectedErrors(t *testing.T) {
	ctx := context.Background()
	fs := New()
	fs.WriteFile("mem://w/t/f1", nil)
	boom := errors.New("connection reset")
	fs.FailList("mem://w/t", boom)
	fs.FailOpen("mem://w/t/f1", boom)

	_, err := fs.ListStatus(ctx, "mem://w/t")
	assert.ErrorIs(t, err, boom)
	_, err = fs.Open(ctx, "mem://w/t/f1")
	assert.ErrorIs(t, err, boom)
}
