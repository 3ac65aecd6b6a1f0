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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"waggle.dev/waggle/go/flagutil"
	"waggle.dev/waggle/go/hive"
	"waggle.dev/waggle/go/hive/log"
	"waggle.dev/waggle/go/hive/metastore"
	"waggle.dev/waggle/go/stats"
	"waggle.dev/waggle/go/stats/prometheusbackend"
	"waggle.dev/waggle/go/trace"
)

var (
	walkConfig  = hive.DefaultConfig()
	walkUser    string
	walkParts   []string
	walkGrouped bool
	walkFormat  string
	httpAddr    string
)

// Walk returns the command that runs split discovery over one table.
func Walk() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "walk <database.table>",
		Short: "Stream the splits of one table scan.",
		Long: "walk runs background split discovery over a table, the same machinery a\n" +
			"query engine uses, and prints every split as it is delivered.",
		Args: cobra.ExactArgs(1),
		RunE: runWalk,
	}
	fs := cmd.Flags()
	fs.StringVar(&walkUser, "user", "splitwalk", "user the scan session runs as")
	flagutil.StringListVar(fs, &walkParts, "partitions", nil, "partition names to scan instead of all of them")
	fs.BoolVar(&walkGrouped, "grouped", false, "drain splits bucket by bucket, requires a bucketed table")
	fs.StringVar(&walkFormat, "format", "table", "output format: table, json or none")
	fs.StringVar(&httpAddr, "http-addr", "", "serve /metrics and /debug/vars on this address while walking")
	walkConfig.RegisterFlags(fs)
	return cmd
}

func runWalk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	database, tableName, err := parseTableName(args[0])
	if err != nil {
		return err
	}
	switch walkFormat {
	case "table", "json", "none":
	default:
		return fmt.Errorf("unknown format %q, want table, json or none", walkFormat)
	}
	if err := walkConfig.Validate(); err != nil {
		return err
	}

	closer := trace.StartTracing("splitwalk")
	defer closer.Close()
	if stats.StatsBackend == "prometheus" {
		prometheusbackend.Init("splitwalk")
	}
	if httpAddr != "" {
		go func() {
			if err := http.ListenAndServe(httpAddr, nil); err != nil {
				log.Errorf("debug server on %s: %v", httpAddr, err)
			}
		}()
	}

	store, err := openCatalog(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	table, err := store.GetTable(ctx, database, tableName)
	if err != nil {
		return err
	}
	handle := &hive.TableHandle{Database: database, Table: tableName}
	if prop := table.Storage.BucketProperty; prop != nil {
		handle.BucketHandle = bucketHandleFor(table, prop)
	}
	scheduling := hive.UngroupedScheduling
	if walkGrouped {
		scheduling = hive.GroupedScheduling
	}

	ids := walkParts
	if len(ids) == 0 {
		if len(table.PartitionColumns) == 0 {
			ids = []string{hive.UnpartitionedID}
		} else if ids, err = store.GetPartitionNames(ctx, database, tableName); err != nil {
			return err
		}
	}
	if len(ids) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s.%s has no partitions, nothing to scan\n", database, tableName)
		return nil
	}

	env := newEnvironment()
	defer env.Close()
	manager := hive.NewSplitManager(*walkConfig, store, env, hive.DefaultCoercionPolicy{})
	defer manager.Close()

	start := time.Now()
	source, err := manager.GetSplits(ctx, hive.NewSession(walkUser), handle, ids, scheduling)
	if err != nil {
		return err
	}
	defer source.Close()

	var splits []*hive.InternalSplit
	if walkGrouped {
		splits, err = drainGrouped(ctx, source, handle.BucketHandle.ReadBucketCount)
	} else {
		splits, err = drainAll(ctx, source)
	}
	if err != nil {
		return err
	}
	return report(cmd.OutOrStdout(), walkFormat, splits, time.Since(start))
}

// bucketHandleFor resolves the bucket columns the table declares against
// its data columns. Reading uses the declared count; there is no planner
// here to pick a smaller one.
func bucketHandleFor(table *metastore.Table, prop *metastore.BucketProperty) *hive.BucketHandle {
	byName := make(map[string]metastore.Column, len(table.DataColumns))
	for _, c := range table.DataColumns {
		byName[c.Name] = c
	}
	columns := make([]metastore.Column, 0, len(prop.BucketedBy))
	for _, name := range prop.BucketedBy {
		if c, ok := byName[name]; ok {
			columns = append(columns, c)
		}
	}
	return &hive.BucketHandle{
		Columns:          columns,
		BucketingVersion: prop.Version,
		TableBucketCount: prop.BucketCount,
		ReadBucketCount:  prop.BucketCount,
	}
}

func drainAll(ctx context.Context, source hive.SplitSource) ([]*hive.InternalSplit, error) {
	var splits []*hive.InternalSplit
	for {
		batch, err := source.NextBatch(ctx, hive.AllBuckets, 100)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			return splits, nil
		}
		splits = append(splits, batch...)
	}
}

// drainGrouped drains every read bucket concurrently, the consumption
// pattern grouped scheduling exists for, and returns the splits ordered
// by bucket.
func drainGrouped(ctx context.Context, source hive.SplitSource, buckets int) ([]*hive.InternalSplit, error) {
	perBucket := make([][]*hive.InternalSplit, buckets)
	g, gctx := errgroup.WithContext(ctx)
	for bucket := 0; bucket < buckets; bucket++ {
		g.Go(func() error {
			for {
				batch, err := source.NextBatch(gctx, bucket, 100)
				if err != nil {
					return err
				}
				if len(batch) == 0 {
					return nil
				}
				perBucket[bucket] = append(perBucket[bucket], batch...)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var splits []*hive.InternalSplit
	for _, b := range perBucket {
		splits = append(splits, b...)
	}
	return splits, nil
}

// report prints the splits in the requested format. JSON output carries
// no summary line so it can be piped as is.
func report(out io.Writer, format string, splits []*hive.InternalSplit, elapsed time.Duration) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		for _, s := range splits {
			if err := enc.Encode(s); err != nil {
				return err
			}
		}
		return nil
	case "table":
		table := tablewriter.NewWriter(out)
		table.Header([]string{"PATH", "PARTITION", "BUCKET", "LENGTH", "MODIFIED"})
		for _, s := range splits {
			bucket := "-"
			if s.ReadBucket != hive.NoBucket {
				bucket = strconv.Itoa(s.ReadBucket)
			}
			table.Append([]string{
				s.Path,
				s.PartitionName,
				bucket,
				humanize.IBytes(uint64(s.Length)),
				s.FileModTime.Format(time.RFC3339),
			})
		}
		table.Render()
	}

	var bytes int64
	partitions := make(map[string]bool)
	for _, s := range splits {
		bytes += s.Length
		partitions[s.PartitionName] = true
	}
	if elapsed <= 0 {
		elapsed = time.Nanosecond
	}
	fmt.Fprintf(out, "%d splits, %s in %d partitions, %.1fs (%.0f splits/s)\n",
		len(splits), humanize.IBytes(uint64(bytes)), len(partitions),
		elapsed.Seconds(), float64(len(splits))/elapsed.Seconds())
	return nil
}
