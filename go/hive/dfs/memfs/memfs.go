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

// Package memfs is a map backed dfs.FileSystem for tests. Directories are
// implicit; injected errors let callers exercise failure paths without a
// real storage system misbehaving on cue.
package memfs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"waggle.dev/waggle/go/hive/dfs"
)

type entry struct {
	data    []byte
	size    int64
	modTime time.Time
}

// FS implements dfs.FileSystem in memory.
type FS struct {
	mu       sync.RWMutex
	files    map[string]entry
	dirs     map[string]bool
	listErrs map[string]error
	openErrs map[string]error
	clock    time.Time
}

// New returns an empty filesystem.
func New() *FS {
	return &FS{
		files:    make(map[string]entry),
		dirs:     make(map[string]bool),
		listErrs: make(map[string]error),
		openErrs: make(map[string]error),
		clock:    time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

func clean(path string) string {
	return strings.TrimSuffix(path, "/")
}

// WriteFile stores content at path, creating parents implicitly. Each write
// gets a distinct, increasing mod time.
func (f *FS) WriteFile(path string, content []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(time.Second)
	f.files[clean(path)] = entry{data: content, size: int64(len(content)), modTime: f.clock}
}

// Touch stores a file of the given size without content. Reads of it yield
// no bytes; only its status matters to split discovery.
func (f *FS) Touch(path string, size int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(time.Second)
	f.files[clean(path)] = entry{size: size, modTime: f.clock}
}

// Mkdir records an explicitly empty directory.
func (f *FS) Mkdir(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dirs[clean(path)] = true
}

// Remove deletes a file if present.
func (f *FS) Remove(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, clean(path))
}

// FailList makes every listing of path return err.
func (f *FS) FailList(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErrs[clean(path)] = err
}

// FailOpen makes every open of path return err.
func (f *FS) FailOpen(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openErrs[clean(path)] = err
}

func (f *FS) ListStatus(ctx context.Context, path string) ([]dfs.FileStatus, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	path = clean(path)
	if err := f.listErrs[path]; err != nil {
		return nil, err
	}
	if _, ok := f.files[path]; ok {
		return nil, fmt.Errorf("%s is not a directory", path)
	}

	children := make(map[string]dfs.FileStatus)
	for p, e := range f.files {
		rest, ok := strings.CutPrefix(p, path+"/")
		if !ok {
			continue
		}
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			name := rest[:i]
			children[name] = dfs.FileStatus{Path: path + "/" + name, Dir: true, ModTime: e.modTime}
			continue
		}
		children[rest] = dfs.FileStatus{Path: p, Size: e.size, ModTime: e.modTime}
	}
	for d := range f.dirs {
		rest, ok := strings.CutPrefix(d, path+"/")
		if !ok {
			continue
		}
		name := rest
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			name = rest[:i]
		}
		if _, ok := children[name]; !ok {
			children[name] = dfs.FileStatus{Path: path + "/" + name, Dir: true}
		}
	}
	if len(children) == 0 && !f.dirs[path] && !f.isImplicitDir(path) {
		return nil, fmt.Errorf("%s: no such file or directory", path)
	}

	names := make([]string, 0, len(children))
	for name := range children {
		names = append(names, name)
	}
	sort.Strings(names)
	statuses := make([]dfs.FileStatus, 0, len(names))
	for _, name := range names {
		statuses = append(statuses, children[name])
	}
	return statuses, nil
}

// isImplicitDir reports whether path is an ancestor of any entry. Callers
// hold the lock.
func (f *FS) isImplicitDir(path string) bool {
	for p := range f.files {
		if strings.HasPrefix(p, path+"/") {
			return true
		}
	}
	for d := range f.dirs {
		if strings.HasPrefix(d, path+"/") {
			return true
		}
	}
	return false
}

func (f *FS) Status(ctx context.Context, path string) (dfs.FileStatus, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	path = clean(path)
	if e, ok := f.files[path]; ok {
		return dfs.FileStatus{Path: path, Size: e.size, ModTime: e.modTime}, nil
	}
	if f.dirs[path] || f.isImplicitDir(path) {
		return dfs.FileStatus{Path: path, Dir: true}, nil
	}
	return dfs.FileStatus{}, fmt.Errorf("%s: no such file or directory", path)
}

func (f *FS) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	path = clean(path)
	if err := f.openErrs[path]; err != nil {
		return nil, err
	}
	e, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("%s: no such file or directory", path)
	}
	return io.NopCloser(bytes.NewReader(e.data)), nil
}
