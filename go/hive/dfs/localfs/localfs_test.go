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

package localfs

import (
	"context"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS(t *testing.T) *FS {
	t.Helper()
	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll("/warehouse/web/clicks/sub", 0o755))
	require.NoError(t, afero.WriteFile(mem, "/warehouse/web/clicks/f1", []byte("abc"), 0o644))
	require.NoError(t, afero.WriteFile(mem, "/warehouse/web/clicks/f2", []byte("defgh"), 0o644))
	return NewFromAfero(mem)
}

func TestListStatus(t *testing.T) {
	ctx := context.Background()
	fs := testFS(t)

	files, err := fs.ListStatus(ctx, "file:///warehouse/web/clicks")
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "file:///warehouse/web/clicks/f1", files[0].Path)
	assert.EqualValues(t, 3, files[0].Size)
	assert.Equal(t, "file:///warehouse/web/clicks/f2", files[1].Path)
	assert.Equal(t, "file:///warehouse/web/clicks/sub", files[2].Path)
	assert.True(t, files[2].Dir)

	_, err = fs.ListStatus(ctx, "file:///warehouse/web/missing")
	require.Error(t, err)
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	fs := testFS(t)

	status, err := fs.Status(ctx, "file:///warehouse/web/clicks/f1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, status.Size)
	assert.False(t, status.Dir)

	status, err = fs.Status(ctx, "file:///warehouse/web/clicks")
	require.NoError(t, err)
	assert.True(t, status.Dir)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	fs := testFS(t)

	r, err := fs.Open(ctx, "file:///warehouse/web/clicks/f1")
	require.NoError(t, err)
	defer r.Close()
	content, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(content))
}
