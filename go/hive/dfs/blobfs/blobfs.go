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

// Package blobfs serves object store locations through gocloud.dev bucket
// drivers. The binary decides which schemes exist by blank importing the
// drivers it wants; this package only speaks the portable bucket API.
package blobfs

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"waggle.dev/waggle/go/hive/dfs"
)

// FS implements dfs.FileSystem over one open bucket.
type FS struct {
	bucket *blob.Bucket
	prefix string
}

// New wraps an open bucket. prefix is the location prefix that maps to the
// bucket root, for example "s3://logs".
func New(bucket *blob.Bucket, prefix string) *FS {
	return &FS{bucket: bucket, prefix: strings.TrimSuffix(prefix, "/")}
}

// OpenLocation opens the bucket a location lives in, using whatever gocloud
// drivers the binary registered, and returns an FS rooted at it. The caller
// owns Close.
func OpenLocation(ctx context.Context, location string) (*FS, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("bad location %s: %v", location, err)
	}
	bucketURL := u.Scheme + "://" + u.Host
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, err
	}
	return New(bucket, bucketURL), nil
}

// Close releases the underlying bucket.
func (f *FS) Close() error {
	return f.bucket.Close()
}

func (f *FS) key(path string) string {
	return strings.Trim(strings.TrimPrefix(path, f.prefix), "/")
}

func (f *FS) ListStatus(ctx context.Context, path string) ([]dfs.FileStatus, error) {
	prefix := f.key(path)
	if prefix != "" {
		prefix += "/"
	}
	iter := f.bucket.List(&blob.ListOptions{Prefix: prefix, Delimiter: "/"})
	var statuses []dfs.FileStatus
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		key := strings.TrimSuffix(obj.Key, "/")
		statuses = append(statuses, dfs.FileStatus{
			Path:    f.prefix + "/" + key,
			Size:    obj.Size,
			ModTime: obj.ModTime,
			Dir:     obj.IsDir,
		})
	}
	// Object stores have no empty directories, so an empty listing and a
	// missing path look the same. Treat both as an empty directory.
	return statuses, nil
}

func (f *FS) Status(ctx context.Context, path string) (dfs.FileStatus, error) {
	key := f.key(path)
	attrs, err := f.bucket.Attributes(ctx, key)
	if err == nil {
		return dfs.FileStatus{
			Path:    f.prefix + "/" + key,
			Size:    attrs.Size,
			ModTime: attrs.ModTime,
		}, nil
	}
	if gcerrors.Code(err) != gcerrors.NotFound {
		return dfs.FileStatus{}, err
	}
	iter := f.bucket.List(&blob.ListOptions{Prefix: key + "/", Delimiter: "/"})
	if _, lerr := iter.Next(ctx); lerr == nil {
		return dfs.FileStatus{Path: f.prefix + "/" + key, Dir: true}, nil
	}
	return dfs.FileStatus{}, err
}

func (f *FS) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return f.bucket.NewReader(ctx, f.key(path), nil)
}
