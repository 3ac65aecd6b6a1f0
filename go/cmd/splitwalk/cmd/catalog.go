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
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"waggle.dev/waggle/go/hive/metastore"
)

// Catalog returns the command group for inspecting and filling the
// sqlite catalog walks resolve tables against.
func Catalog() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and fill the sqlite catalog.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Help()
		},
	}
	cmd.AddCommand(catalogImport())
	cmd.AddCommand(catalogPartitions())
	return cmd
}

// catalogFile is the JSON shape catalog import reads: table definitions
// first, then partitions referencing them.
type catalogFile struct {
	Tables     []*metastore.Table     `json:"tables"`
	Partitions []*metastore.Partition `json:"partitions"`
}

func catalogImport() *cobra.Command {
	return &cobra.Command{
		Use:   "import <definitions.json>",
		Short: "Load table and partition definitions from a JSON file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var defs catalogFile
			if err := json.Unmarshal(data, &defs); err != nil {
				return fmt.Errorf("bad definitions file %s: %v", args[0], err)
			}

			store, err := openCatalog(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			for _, table := range defs.Tables {
				if err := store.CreateTable(ctx, table); err != nil {
					return err
				}
			}
			for _, partition := range defs.Partitions {
				if err := store.AddPartition(ctx, partition); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d tables and %d partitions\n",
				len(defs.Tables), len(defs.Partitions))
			return nil
		},
	}
}

func catalogPartitions() *cobra.Command {
	return &cobra.Command{
		Use:   "partitions <database.table>",
		Short: "List the partition names of a table.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			database, table, err := parseTableName(args[0])
			if err != nil {
				return err
			}

			store, err := openCatalog(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			names, err := store.GetPartitionNames(ctx, database, table)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
