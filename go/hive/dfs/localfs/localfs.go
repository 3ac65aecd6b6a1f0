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

// Package localfs serves file:// locations from the local filesystem, or
// from any afero filesystem handed in by tests.
package localfs

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/afero"

	"waggle.dev/waggle/go/hive/dfs"
)

// FS implements dfs.FileSystem over afero.
type FS struct {
	fs afero.Fs
}

// New returns an FS over the OS filesystem.
func New() *FS {
	return &FS{fs: afero.NewOsFs()}
}

// NewFromAfero returns an FS over the given afero filesystem.
func NewFromAfero(fs afero.Fs) *FS {
	return &FS{fs: fs}
}

// localPath strips the file:// scheme; everything after it is an absolute
// local path.
func localPath(path string) string {
	return strings.TrimPrefix(path, "file://")
}

func (f *FS) ListStatus(ctx context.Context, path string) ([]dfs.FileStatus, error) {
	infos, err := afero.ReadDir(f.fs, localPath(path))
	if err != nil {
		return nil, err
	}
	path = strings.TrimSuffix(path, "/")
	statuses := make([]dfs.FileStatus, 0, len(infos))
	for _, info := range infos {
		statuses = append(statuses, dfs.FileStatus{
			Path:    path + "/" + info.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Dir:     info.IsDir(),
		})
	}
	return statuses, nil
}

func (f *FS) Status(ctx context.Context, path string) (dfs.FileStatus, error) {
	info, err := f.fs.Stat(localPath(path))
	if err != nil {
		return dfs.FileStatus{}, err
	}
	return dfs.FileStatus{
		Path:    strings.TrimSuffix(path, "/"),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Dir:     info.IsDir(),
	}, nil
}

func (f *FS) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return f.fs.Open(localPath(path))
}
