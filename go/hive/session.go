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
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"waggle.dev/waggle/go/hive/dfs"
)

var querySequence atomic.Int64

// Session identifies one query and carries its per-query knobs.
type Session struct {
	QueryID string
	User    string

	// S3SelectPushdownEnabled makes otherwise splittable text files
	// unsplittable, the pushed down filter has to see whole files.
	S3SelectPushdownEnabled bool
}

// NewSession returns a Session with a fresh query id of the usual
// timestamp_sequence_tag shape, such as 20260823_141521_00007_9f3ab.
func NewSession(user string) *Session {
	return &Session{
		QueryID: fmt.Sprintf("%s_%05d_%s",
			time.Now().UTC().Format("20060102_150405"),
			querySequence.Add(1)%100000,
			uuid.NewString()[:5]),
		User: user,
	}
}

// fsContext builds the filesystem context for accessing one table on behalf
// of this session.
func (s *Session) fsContext(database, table string) dfs.Context {
	return dfs.Context{
		QueryID:  s.QueryID,
		User:     s.User,
		Database: database,
		Table:    table,
	}
}
