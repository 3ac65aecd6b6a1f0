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

// Package sqlstore is a metastore.Metastore backed by a local SQLite file.
// Table and partition definitions are stored as JSON rows, which is plenty
// for a single-process catalog and keeps the file inspectable with the
// sqlite3 shell.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	// SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"

	"waggle.dev/waggle/go/hive/hiveerror"
	"waggle.dev/waggle/go/hive/metastore"
)

const ddl = `
CREATE TABLE IF NOT EXISTS catalog_tables (
	db_name TEXT NOT NULL,
	table_name TEXT NOT NULL,
	definition TEXT NOT NULL,
	PRIMARY KEY (db_name, table_name)
);
CREATE TABLE IF NOT EXISTS catalog_partitions (
	db_name TEXT NOT NULL,
	table_name TEXT NOT NULL,
	part_name TEXT NOT NULL,
	definition TEXT NOT NULL,
	PRIMARY KEY (db_name, table_name, part_name)
);`

// Store is a SQLite-backed catalog. Safe for concurrent use; SQLite
// serializes writers internally.
type Store struct {
	db *sql.DB
}

// Open opens or creates the catalog file at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, hiveerror.Wrapf(err, "failed to open catalog %s", path)
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, hiveerror.Wrapf(err, "failed to initialize catalog %s", path)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateTable inserts or replaces a table definition.
func (s *Store) CreateTable(ctx context.Context, table *metastore.Table) error {
	definition, err := json.Marshal(table)
	if err != nil {
		return hiveerror.Wrap(err, "failed to encode table")
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO catalog_tables (db_name, table_name, definition) VALUES (?, ?, ?)",
		table.Database, table.Name, string(definition))
	if err != nil {
		return hiveerror.Wrapf(err, "failed to store table %s.%s", table.Database, table.Name)
	}
	return nil
}

// AddPartition inserts or replaces a partition under its canonical name.
func (s *Store) AddPartition(ctx context.Context, partition *metastore.Partition) error {
	table, err := s.GetTable(ctx, partition.Database, partition.Table)
	if err != nil {
		return err
	}
	name, err := partition.Name(table)
	if err != nil {
		return err
	}
	definition, err := json.Marshal(partition)
	if err != nil {
		return hiveerror.Wrap(err, "failed to encode partition")
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO catalog_partitions (db_name, table_name, part_name, definition) VALUES (?, ?, ?, ?)",
		partition.Database, partition.Table, name, string(definition))
	if err != nil {
		return hiveerror.Wrapf(err, "failed to store partition of %s.%s", partition.Database, partition.Table)
	}
	return nil
}

// DropPartition removes a partition by name.
func (s *Store) DropPartition(ctx context.Context, database, table, name string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM catalog_partitions WHERE db_name = ? AND table_name = ? AND part_name = ?",
		database, table, name)
	if err != nil {
		return hiveerror.Wrapf(err, "failed to drop partition %s", name)
	}
	return nil
}

func (s *Store) GetTable(ctx context.Context, database, table string) (*metastore.Table, error) {
	var definition string
	err := s.db.QueryRowContext(ctx,
		"SELECT definition FROM catalog_tables WHERE db_name = ? AND table_name = ?",
		database, table).Scan(&definition)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, hiveerror.Errorf(hiveerror.CodeTableNotFound, "Table '%s.%s' not found", database, table)
	}
	if err != nil {
		return nil, hiveerror.Wrapf(err, "failed to read table %s.%s", database, table)
	}
	t := &metastore.Table{}
	if err := json.Unmarshal([]byte(definition), t); err != nil {
		return nil, hiveerror.Wrapf(err, "failed to decode table %s.%s", database, table)
	}
	return t, nil
}

func (s *Store) GetPartitionNames(ctx context.Context, database, table string) ([]string, error) {
	if _, err := s.GetTable(ctx, database, table); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT part_name FROM catalog_partitions WHERE db_name = ? AND table_name = ? ORDER BY part_name",
		database, table)
	if err != nil {
		return nil, hiveerror.Wrapf(err, "failed to list partitions of %s.%s", database, table)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, hiveerror.Wrapf(err, "failed to list partitions of %s.%s", database, table)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, hiveerror.Wrapf(err, "failed to list partitions of %s.%s", database, table)
	}
	return names, nil
}

func (s *Store) GetPartitionsByNames(ctx context.Context, database, table string, names []string) (map[string]*metastore.Partition, error) {
	if _, err := s.GetTable(ctx, database, table); err != nil {
		return nil, err
	}
	stmt, err := s.db.PrepareContext(ctx,
		"SELECT definition FROM catalog_partitions WHERE db_name = ? AND table_name = ? AND part_name = ?")
	if err != nil {
		return nil, hiveerror.Wrapf(err, "failed to read partitions of %s.%s", database, table)
	}
	defer stmt.Close()

	result := make(map[string]*metastore.Partition, len(names))
	for _, name := range names {
		var definition string
		err := stmt.QueryRowContext(ctx, database, table, name).Scan(&definition)
		if errors.Is(err, sql.ErrNoRows) {
			result[name] = nil
			continue
		}
		if err != nil {
			return nil, hiveerror.Wrapf(err, "failed to read partition %s", name)
		}
		p := &metastore.Partition{}
		if err := json.Unmarshal([]byte(definition), p); err != nil {
			return nil, hiveerror.Wrapf(err, "failed to decode partition %s", name)
		}
		result[name] = p
	}
	return result, nil
}
