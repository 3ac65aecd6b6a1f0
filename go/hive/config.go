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
	"time"

	"github.com/spf13/pflag"

	"waggle.dev/waggle/go/flagutil"
	"waggle.dev/waggle/go/hive/hiveerror"
)

// Config tunes split discovery. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	// MinPartitionBatchSize and MaxPartitionBatchSize bound the exponential
	// ramp of how many partitions are fetched from the metastore at once.
	MinPartitionBatchSize int
	MaxPartitionBatchSize int

	// MaxOutstandingSplits and MaxOutstandingSplitsSize bound the split
	// queue by count and by estimated memory.
	MaxOutstandingSplits     int
	MaxOutstandingSplitsSize int64

	// MaxInitialSplits is how many leading splits bypass queue bounds and
	// rate limiting so short queries start instantly.
	MaxInitialSplits int

	// SplitLoaderConcurrency is the number of loader workers per table scan.
	SplitLoaderConcurrency int

	// MaxSplitsPerSecond rate limits split production. Zero means no limit.
	MaxSplitsPerSecond int

	// RecursiveDirectoryWalk descends into nested directories under
	// partition locations instead of skipping them.
	RecursiveDirectoryWalk bool

	// S3SelectPushdownEnabled is the default for sessions that don't choose.
	S3SelectPushdownEnabled bool

	// FileStatusCacheTTL, FileStatusCacheSize, and FileStatusCacheTables
	// configure the directory listing cache. An empty table list disables
	// caching; "*" caches every table.
	FileStatusCacheTTL    time.Duration
	FileStatusCacheSize   int
	FileStatusCacheTables []string
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() *Config {
	return &Config{
		MinPartitionBatchSize:    10,
		MaxPartitionBatchSize:    100,
		MaxOutstandingSplits:     1000,
		MaxOutstandingSplitsSize: 256 * 1024 * 1024,
		MaxInitialSplits:         200,
		SplitLoaderConcurrency:   4,
		MaxSplitsPerSecond:       0,
		FileStatusCacheTTL:       time.Minute,
		FileStatusCacheSize:      10000,
	}
}

// RegisterFlags installs the config flags on fs, mutating c when parsed.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.IntVar(&c.MinPartitionBatchSize, "min-partition-batch-size", c.MinPartitionBatchSize, "Smallest number of partitions fetched from the metastore per batch.")
	fs.IntVar(&c.MaxPartitionBatchSize, "max-partition-batch-size", c.MaxPartitionBatchSize, "Largest number of partitions fetched from the metastore per batch.")
	fs.IntVar(&c.MaxOutstandingSplits, "max-outstanding-splits", c.MaxOutstandingSplits, "Number of buffered splits per table scan before loading pauses.")
	flagutil.ByteSizeVar(fs, &c.MaxOutstandingSplitsSize, "max-outstanding-splits-size", c.MaxOutstandingSplitsSize, "Estimated memory of buffered splits per table scan before loading pauses.")
	fs.IntVar(&c.MaxInitialSplits, "max-initial-splits", c.MaxInitialSplits, "Number of leading splits exempt from queue bounds and rate limiting.")
	fs.IntVar(&c.SplitLoaderConcurrency, "split-loader-concurrency", c.SplitLoaderConcurrency, "Number of split loader workers per table scan.")
	fs.IntVar(&c.MaxSplitsPerSecond, "max-splits-per-second", c.MaxSplitsPerSecond, "Rate limit on split production, 0 for unlimited.")
	fs.BoolVar(&c.RecursiveDirectoryWalk, "recursive-directory-walk", c.RecursiveDirectoryWalk, "Descend into nested directories under partition locations.")
	fs.BoolVar(&c.S3SelectPushdownEnabled, "s3-select-pushdown", c.S3SelectPushdownEnabled, "Default S3 Select pushdown setting for new sessions.")
	fs.DurationVar(&c.FileStatusCacheTTL, "file-status-cache-ttl", c.FileStatusCacheTTL, "How long directory listings stay cached.")
	fs.IntVar(&c.FileStatusCacheSize, "file-status-cache-size", c.FileStatusCacheSize, "Most directory listings kept cached.")
	flagutil.StringListVar(fs, &c.FileStatusCacheTables, "file-status-cache-tables", c.FileStatusCacheTables, "Qualified tables whose listings are cached, or * for all.")
}

// Validate reports the first nonsensical setting.
func (c *Config) Validate() error {
	if c.MinPartitionBatchSize < 1 {
		return hiveerror.Errorf(hiveerror.CodeInvalidMetadata, "min-partition-batch-size must be at least 1, got %d", c.MinPartitionBatchSize)
	}
	if c.MaxPartitionBatchSize < c.MinPartitionBatchSize {
		return hiveerror.Errorf(hiveerror.CodeInvalidMetadata, "max-partition-batch-size must be at least min-partition-batch-size, got %d < %d", c.MaxPartitionBatchSize, c.MinPartitionBatchSize)
	}
	if c.MaxOutstandingSplits < 1 {
		return hiveerror.Errorf(hiveerror.CodeInvalidMetadata, "max-outstanding-splits must be at least 1, got %d", c.MaxOutstandingSplits)
	}
	if c.MaxOutstandingSplitsSize < 1 {
		return hiveerror.Errorf(hiveerror.CodeInvalidMetadata, "max-outstanding-splits-size must be positive, got %d", c.MaxOutstandingSplitsSize)
	}
	if c.SplitLoaderConcurrency < 1 {
		return hiveerror.Errorf(hiveerror.CodeInvalidMetadata, "split-loader-concurrency must be at least 1, got %d", c.SplitLoaderConcurrency)
	}
	if c.MaxSplitsPerSecond < 0 {
		return hiveerror.Errorf(hiveerror.CodeInvalidMetadata, "max-splits-per-second must not be negative, got %d", c.MaxSplitsPerSecond)
	}
	return nil
}
