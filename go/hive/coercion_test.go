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

	"github.com/stretchr/testify/assert"

	"waggle.dev/waggle/go/hive/metastore"
)

func TestDefaultCoercionPolicy(t *testing.T) {
	tests := []struct {
		from, to metastore.TypeName
		want     bool
	}{
		{"int", "int", true},
		{"tinyint", "smallint", true},
		{"tinyint", "int", true},
		{"tinyint", "bigint", true},
		{"smallint", "int", true},
		{"smallint", "bigint", true},
		{"int", "bigint", true},
		{"float", "double", true},
		{"varchar(10)", "varchar(20)", true},
		{"varchar(20)", "varchar(10)", true},
		{"varchar(10)", "string", true},
		{"string", "varchar(10)", true},

		// Narrowing and cross-family coercions are refused.
		{"bigint", "int", false},
		{"int", "smallint", false},
		{"double", "float", false},
		{"int", "string", false},
		{"string", "int", false},
		{"boolean", "int", false},
		{"timestamp", "date", false},
		{"array<int>", "array<bigint>", false},
	}
	policy := DefaultCoercionPolicy{}
	for _, tc := range tests {
		assert.Equal(t, tc.want, policy.CanCoerce(tc.from, tc.to),
			"CanCoerce(%s, %s)", tc.from, tc.to)
	}
}
