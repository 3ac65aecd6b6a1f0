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
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{{
		name:    "zero min batch",
		mutate:  func(c *Config) { c.MinPartitionBatchSize = 0 },
		wantErr: "min-partition-batch-size must be at least 1, got 0",
	}, {
		name:    "max batch below min",
		mutate:  func(c *Config) { c.MinPartitionBatchSize = 50; c.MaxPartitionBatchSize = 10 },
		wantErr: "max-partition-batch-size must be at least min-partition-batch-size, got 10 < 50",
	}, {
		name:    "zero outstanding splits",
		mutate:  func(c *Config) { c.MaxOutstandingSplits = 0 },
		wantErr: "max-outstanding-splits must be at least 1, got 0",
	}, {
		name:    "zero outstanding bytes",
		mutate:  func(c *Config) { c.MaxOutstandingSplitsSize = 0 },
		wantErr: "max-outstanding-splits-size must be positive, got 0",
	}, {
		name:    "zero loader concurrency",
		mutate:  func(c *Config) { c.SplitLoaderConcurrency = 0 },
		wantErr: "split-loader-concurrency must be at least 1, got 0",
	}, {
		name:    "negative rate limit",
		mutate:  func(c *Config) { c.MaxSplitsPerSecond = -1 },
		wantErr: "max-splits-per-second must not be negative, got -1",
	}}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := DefaultConfig()
			tc.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Equal(t, tc.wantErr, err.Error())
		})
	}
}

func TestConfigRegisterFlags(t *testing.T) {
	c := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c.RegisterFlags(fs)

	require.NoError(t, fs.Parse([]string{
		"--max-outstanding-splits=5",
		"--max-outstanding-splits-size=64MiB",
		"--split-loader-concurrency=2",
		"--file-status-cache-ttl=30s",
		"--file-status-cache-tables=web.clicks,web.views",
		"--recursive-directory-walk",
	}))

	assert.Equal(t, 5, c.MaxOutstandingSplits)
	assert.Equal(t, int64(64*1024*1024), c.MaxOutstandingSplitsSize)
	assert.Equal(t, 2, c.SplitLoaderConcurrency)
	assert.Equal(t, 30*time.Second, c.FileStatusCacheTTL)
	assert.Equal(t, []string{"web.clicks", "web.views"}, c.FileStatusCacheTables)
	assert.True(t, c.RecursiveDirectoryWalk)

	// Untouched flags keep their defaults.
	assert.Equal(t, 10, c.MinPartitionBatchSize)
	assert.Equal(t, 200, c.MaxInitialSplits)
	require.NoError(t, c.Validate())
}
