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

	"waggle.dev/waggle/go/hive/dfs"
	"waggle.dev/waggle/go/hive/hiveerror"
	"waggle.dev/waggle/go/hive/metastore"
)

// fsError wraps an error crossing the filesystem boundary as a filesystem
// error. Errors that already carry a code pass through untouched.
func fsError(err error, format string, args ...any) error {
	if hiveerror.Code(err) != hiveerror.CodeUnknown {
		return err
	}
	return hiveerror.Errorf(hiveerror.CodeFilesystemError, format+": %v", append(args, err)...)
}

// nestedDirectoryError reports a directory found where the layout requires
// flat files. Callers that need a more specific error class catch it with
// errors.As.
type nestedDirectoryError struct{ path string }

func (e *nestedDirectoryError) Error() string {
	return "Unexpected sub-directory " + e.path
}

func (e *nestedDirectoryError) ErrorCode() hiveerror.ErrorCode {
	return hiveerror.CodeInvalidMetadata
}

// NestedDirectoryPolicy says what a directory walk does with directories
// nested under a partition location.
type NestedDirectoryPolicy int

const (
	// NestedRecurse descends into nested directories.
	NestedRecurse NestedDirectoryPolicy = iota
	// NestedIgnore skips nested directories.
	NestedIgnore
	// NestedFail treats a nested directory as an error.
	NestedFail
)

// fileIterator walks a location lazily, one directory listing at a time.
// It is a plain cursor: a worker can park it mid walk on backpressure and
// any worker can resume it later without relisting anything. Hidden files
// and files under hidden directories are never returned.
type fileIterator struct {
	fs     dfs.FileSystem
	lister dfs.DirectoryLister
	table  *metastore.Table
	root   string
	policy NestedDirectoryPolicy

	dirs  []string
	files []dfs.FileStatus
}

func newFileIterator(fs dfs.FileSystem, lister dfs.DirectoryLister, table *metastore.Table, root string, policy NestedDirectoryPolicy) *fileIterator {
	return &fileIterator{
		fs:     fs,
		lister: lister,
		table:  table,
		root:   root,
		policy: policy,
		dirs:   []string{root},
	}
}

// next returns the next data file. done is true once the walk is over.
func (it *fileIterator) next(ctx context.Context) (status dfs.FileStatus, done bool, err error) {
	for {
		for len(it.files) > 0 {
			status := it.files[0]
			it.files = it.files[1:]
			if dfs.HiddenUnder(it.root, status.Path) {
				continue
			}
			if status.Dir {
				switch it.policy {
				case NestedRecurse:
					it.dirs = append(it.dirs, status.Path)
				case NestedIgnore:
				case NestedFail:
					return dfs.FileStatus{}, false, &nestedDirectoryError{path: status.Path}
				}
				continue
			}
			return status, false, nil
		}
		if len(it.dirs) == 0 {
			return dfs.FileStatus{}, true, nil
		}
		dir := it.dirs[0]
		it.dirs = it.dirs[1:]
		listing, err := it.lister.ListStatus(ctx, it.fs, it.table, dir)
		if err != nil {
			return dfs.FileStatus{}, false, fsError(err, "Failed to list directory %s", dir)
		}
		it.files = listing
	}
}
