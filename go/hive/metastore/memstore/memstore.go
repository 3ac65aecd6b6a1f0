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

// Package memstore is an in-memory metastore.Metastore. It backs tests and
// lets splitwalk run against a synthetic catalog without a real Hive
// metastore around.
package memstore

import (
	"context"
	"sort"
	"sync"

	"waggle.dev/waggle/go/hive/hiveerror"
	"waggle.dev/waggle/go/hive/metastore"
)

// Store holds tables and partitions keyed by qualified table name.
type Store struct {
	mu         sync.RWMutex
	tables     map[string]*metastore.Table
	partitions map[string]map[string]*metastore.Partition
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		tables:     make(map[string]*metastore.Table),
		partitions: make(map[string]map[string]*metastore.Partition),
	}
}

func qualified(database, table string) string {
	return database + "." + table
}

// CreateTable registers a table, replacing any previous definition and
// dropping its partitions.
func (s *Store) CreateTable(table *metastore.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := qualified(table.Database, table.Name)
	s.tables[key] = table
	s.partitions[key] = make(map[string]*metastore.Partition)
}

// AddPartition registers a partition under its canonical name. The table
// must exist.
func (s *Store) AddPartition(partition *metastore.Partition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := qualified(partition.Database, partition.Table)
	table, ok := s.tables[key]
	if !ok {
		return hiveerror.Errorf(hiveerror.CodeTableNotFound, "Table '%s' not found", key)
	}
	name, err := partition.Name(table)
	if err != nil {
		return err
	}
	s.partitions[key][name] = partition
	return nil
}

// DropPartition removes a partition by name. Dropping an unknown name is a
// no-op, which lets tests race drops against running loads.
func (s *Store) DropPartition(database, table, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.partitions[qualified(database, table)], name)
}

func (s *Store) GetTable(ctx context.Context, database, table string) (*metastore.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[qualified(database, table)]
	if !ok {
		return nil, hiveerror.Errorf(hiveerror.CodeTableNotFound, "Table '%s.%s' not found", database, table)
	}
	return t, nil
}

func (s *Store) GetPartitionNames(ctx context.Context, database, table string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := qualified(database, table)
	if _, ok := s.tables[key]; !ok {
		return nil, hiveerror.Errorf(hiveerror.CodeTableNotFound, "Table '%s.%s' not found", database, table)
	}
	names := make([]string, 0, len(s.partitions[key]))
	for name := range s.partitions[key] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) GetPartitionsByNames(ctx context.Context, database, table string, names []string) (map[string]*metastore.Partition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := qualified(database, table)
	if _, ok := s.tables[key]; !ok {
		return nil, hiveerror.Errorf(hiveerror.CodeTableNotFound, "Table '%s.%s' not found", database, table)
	}
	result := make(map[string]*metastore.Partition, len(names))
	for _, name := range names {
		result[name] = s.partitions[key][name]
	}
	return result, nil
}
