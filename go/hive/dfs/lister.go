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
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"waggle.dev/waggle/go/hive/metastore"
	"waggle.dev/waggle/go/stats"
)

var (
	listTimings = stats.NewTimings("DirectoryListings", "Directory listing latency", "Lister")
	cacheCounts = stats.NewCountersWithLabels("DirectoryListingCache", "Directory listing cache outcomes", "Outcome", "Hit", "Miss")
)

// DirectoryLister lists directories on behalf of a table scan.
type DirectoryLister interface {
	ListStatus(ctx context.Context, fs FileSystem, table *metastore.Table, path string) ([]FileStatus, error)
}

type directLister struct{}

// NewDirectLister returns a DirectoryLister that always goes to the
// filesystem.
func NewDirectLister() DirectoryLister { return directLister{} }

func (directLister) ListStatus(ctx context.Context, fs FileSystem, table *metastore.Table, path string) ([]FileStatus, error) {
	defer listTimings.Record("direct", time.Now())
	return fs.ListStatus(ctx, path)
}

// CachingDirectoryLister memoizes listings for the configured tables.
// Entries expire after the TTL, and a best effort entry cap keeps a huge
// scan from pinning the heap. Listings of tables outside the filter pass
// straight through and are not counted.
type CachingDirectoryLister struct {
	delegate DirectoryLister
	cache    *gocache.Cache
	maxSize  int
	all      bool
	tables   map[string]bool

	requests atomic.Int64
	hits     atomic.Int64
	misses   atomic.Int64
}

// NewCachingLister wraps delegate with a listing cache. The tables filter
// takes qualified names; "*" caches everything.
func NewCachingLister(delegate DirectoryLister, ttl time.Duration, maxSize int, tables []string) *CachingDirectoryLister {
	l := &CachingDirectoryLister{
		delegate: delegate,
		cache:    gocache.New(ttl, ttl),
		maxSize:  maxSize,
		tables:   make(map[string]bool),
	}
	for _, t := range tables {
		if t == "*" {
			l.all = true
			continue
		}
		l.tables[t] = true
	}
	return l
}

func (l *CachingDirectoryLister) cacheable(table *metastore.Table) bool {
	return l.all || l.tables[table.SchemaTableName()]
}

func (l *CachingDirectoryLister) ListStatus(ctx context.Context, fs FileSystem, table *metastore.Table, path string) ([]FileStatus, error) {
	if !l.cacheable(table) {
		return l.delegate.ListStatus(ctx, fs, table, path)
	}
	l.requests.Add(1)
	if cached, ok := l.cache.Get(path); ok {
		l.hits.Add(1)
		cacheCounts.Add("Hit", 1)
		// Copy so callers can sort without poisoning the cache.
		return append([]FileStatus(nil), cached.([]FileStatus)...), nil
	}
	l.misses.Add(1)
	cacheCounts.Add("Miss", 1)
	files, err := l.delegate.ListStatus(ctx, fs, table, path)
	if err != nil {
		return nil, err
	}
	if l.cache.ItemCount() < l.maxSize {
		l.cache.SetDefault(path, append([]FileStatus(nil), files...))
	}
	return files, nil
}

// Invalidate drops the cached listing of one path.
func (l *CachingDirectoryLister) Invalidate(path string) {
	l.cache.Delete(path)
}

// Flush drops every cached listing.
func (l *CachingDirectoryLister) Flush() {
	l.cache.Flush()
}

// RequestCount returns how many listings hit the cacheable path.
func (l *CachingDirectoryLister) RequestCount() int64 { return l.requests.Load() }

// HitCount returns how many listings were served from cache.
func (l *CachingDirectoryLister) HitCount() int64 { return l.hits.Load() }

// MissCount returns how many listings went to the filesystem.
func (l *CachingDirectoryLister) MissCount() int64 { return l.misses.Load() }
