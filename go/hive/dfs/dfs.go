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

// Package dfs abstracts the distributed filesystems Hive table data lives
// on. It exposes only the small slice of a Hadoop-style filesystem that
// split discovery needs: listing, stat, and read.
package dfs

import (
	"context"
	"io"
	"strings"
	"time"
)

// FileStatus describes one directory entry. Path is always the full
// location, scheme included, so it can be handed straight to a split.
type FileStatus struct {
	Path    string
	Size    int64
	ModTime time.Time
	Dir     bool
}

// FileSystem is a read-only view of one storage system.
type FileSystem interface {
	// ListStatus returns the direct children of path, in no particular
	// order. Listing a path that does not exist is an error.
	ListStatus(ctx context.Context, path string) ([]FileStatus, error)

	// Status returns the status of a single path.
	Status(ctx context.Context, path string) (FileStatus, error)

	// Open opens the file at path for reading.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// Context identifies the query a filesystem is opened for. Implementations
// may use it for per-user credentials or just for logging.
type Context struct {
	QueryID  string
	User     string
	Database string
	Table    string
}

// Environment hands out a FileSystem for a location. Split discovery asks
// again for every new location it meets, symlink targets included, so an
// Environment can route different schemes to different stores.
type Environment interface {
	FileSystem(fsctx Context, location string) (FileSystem, error)
}

// EnvironmentFunc adapts a function to an Environment.
type EnvironmentFunc func(fsctx Context, location string) (FileSystem, error)

func (f EnvironmentFunc) FileSystem(fsctx Context, location string) (FileSystem, error) {
	return f(fsctx, location)
}

// Fixed returns an Environment that hands every location to fs.
func Fixed(fs FileSystem) Environment {
	return EnvironmentFunc(func(Context, string) (FileSystem, error) {
		return fs, nil
	})
}

// HiddenName reports whether a single path component is hidden by Hadoop
// convention. Underscore prefixed entries cover scratch dirs and markers
// like _SUCCESS.
func HiddenName(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

// HiddenUnder reports whether any path component of path below root is
// hidden. The root itself may be hidden, table locations sometimes are, so
// its own components don't count.
func HiddenUnder(root, path string) bool {
	rest := strings.TrimPrefix(path, strings.TrimSuffix(root, "/"))
	for _, part := range strings.Split(rest, "/") {
		if part != "" && HiddenName(part) {
			return true
		}
	}
	return false
}

// BaseName returns the last path component of a location.
func BaseName(path string) string {
	if i := strings.LastIndexByte(strings.TrimSuffix(path, "/"), '/'); i >= 0 {
		return strings.TrimSuffix(path, "/")[i+1:]
	}
	return path
}
