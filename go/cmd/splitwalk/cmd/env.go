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
	"context"
	"fmt"
	"net/url"
	"sync"

	// Blob drivers for the schemes walks can reach.
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"waggle.dev/waggle/go/hive/dfs"
	"waggle.dev/waggle/go/hive/dfs/blobfs"
	"waggle.dev/waggle/go/hive/dfs/localfs"
	"waggle.dev/waggle/go/hive/log"
)

// environment routes locations to filesystems. Bare paths and file://
// locations go to the local filesystem, every other scheme is opened as
// a blob bucket URL. Buckets are opened once and shared across
// partitions.
type environment struct {
	mu      sync.Mutex
	local   *localfs.FS
	buckets map[string]*blobfs.FS
}

func newEnvironment() *environment {
	return &environment{
		local:   localfs.New(),
		buckets: make(map[string]*blobfs.FS),
	}
}

// FileSystem implements dfs.Environment.
func (e *environment) FileSystem(fsctx dfs.Context, location string) (dfs.FileSystem, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("bad location %s: %v", location, err)
	}
	if u.Scheme == "" || u.Scheme == "file" {
		return e.local, nil
	}

	key := u.Scheme + "://" + u.Host
	e.mu.Lock()
	defer e.mu.Unlock()
	if fs, ok := e.buckets[key]; ok {
		return fs, nil
	}
	fs, err := blobfs.OpenLocation(context.Background(), location)
	if err != nil {
		return nil, err
	}
	e.buckets[key] = fs
	return fs, nil
}

// Close releases every bucket the walk opened.
func (e *environment) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for key, fs := range e.buckets {
		if err := fs.Close(); err != nil {
			log.Errorf("closing bucket %s: %v", key, err)
		}
	}
	e.buckets = make(map[string]*blobfs.FS)
}
