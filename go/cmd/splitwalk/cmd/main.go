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
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"waggle.dev/waggle/go/hive/hiveerror"
	"waggle.dev/waggle/go/hive/log"
	"waggle.dev/waggle/go/hive/metastore/sqlstore"
	"waggle.dev/waggle/go/stats"
	"waggle.dev/waggle/go/trace"
)

var (
	catalogPath string
	configFile  string
)

// Main returns the root command of splitwalk with every subcommand
// attached. The caller owns execution.
func Main() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "splitwalk",
		Short: "splitwalk walks Hive tables the way a query engine would, streaming out their splits.",
		Long: "splitwalk drives split discovery over tables registered in a sqlite catalog.\n" +
			"It batches partitions, plans bucketed reads and streams every split a scan\n" +
			"would receive, which makes it useful for checking table layouts and for\n" +
			"measuring how fast a given filesystem can be enumerated.",
		Args: cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := applyConfigFile(cmd); err != nil {
				return err
			}
			return log.Init(cmd.Flags())
		},
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Help()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&catalogPath, "catalog", "catalog.db", "path of the sqlite catalog to resolve tables against")
	pf.StringVarP(&configFile, "config-file", "f", "", "YAML or JSON file supplying values for any flag not set on the command line")
	log.RegisterFlags(pf)
	hiveerror.RegisterFlags(pf)
	stats.RegisterFlags(pf)
	trace.RegisterFlags(pf)

	rootCmd.AddCommand(Walk())
	rootCmd.AddCommand(Catalog())
	return rootCmd
}

// applyConfigFile fills in flags the command line left untouched, so
// explicit flags always win over the file.
func applyConfigFile(cmd *cobra.Command) error {
	if configFile == "" {
		return nil
	}
	v := viper.New()
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		return err
	}
	var applyErr error
	fs := cmd.Flags()
	fs.VisitAll(func(f *pflag.Flag) {
		if applyErr != nil || f.Changed || !v.IsSet(f.Name) {
			return
		}
		if err := fs.Set(f.Name, v.GetString(f.Name)); err != nil {
			applyErr = fmt.Errorf("bad value for %s in %s: %v", f.Name, configFile, err)
		}
	})
	return applyErr
}

func openCatalog(ctx context.Context) (*sqlstore.Store, error) {
	return sqlstore.Open(ctx, catalogPath)
}

func parseTableName(name string) (database, table string, err error) {
	database, table, ok := strings.Cut(name, ".")
	if !ok || database == "" || table == "" {
		return "", "", fmt.Errorf("table must be named as database.table, got %q", name)
	}
	return database, table, nil
}
