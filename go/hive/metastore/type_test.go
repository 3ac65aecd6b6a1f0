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

package metastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeSupported(t *testing.T) {
	testcases := []struct {
		in   TypeName
		want bool
	}{
		{"boolean", true},
		{"tinyint", true},
		{"smallint", true},
		{"int", true},
		{"bigint", true},
		{"float", true},
		{"double", true},
		{"string", true},
		{"binary", true},
		{"timestamp", true},
		{"date", true},
		{"varchar(255)", true},
		{"char(10)", true},
		{"decimal(10,2)", true},
		{"decimal(38)", true},
		{"array<int>", true},
		{"array<decimal(10,2)>", true},
		{"map<string,bigint>", true},
		{"map<string,array<int>>", true},
		{"struct<a:int,b:string>", true},
		{"struct<a:int,b:struct<c:double>>", true},
		{"", false},
		{"interval_day_time", false},
		{"uniontype<int,string>", false},
		{"varchar", false},
		{"varchar(a)", false},
		{"decimal(10,2,3)", false},
		{"array<>", false},
		{"array<uniontype<int,string>>", false},
		{"map<string>", false},
		{"struct<a:int", false},
	}
	for _, tc := range testcases {
		t.Run(string(tc.in), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.in.Supported())
		})
	}
}

func TestTypeBase(t *testing.T) {
	testcases := []struct {
		in   TypeName
		want string
	}{
		{"int", "int"},
		{"varchar(255)", "varchar"},
		{"decimal(10,2)", "decimal"},
		{"array<int>", "array"},
		{"map<string,int>", "map"},
	}
	for _, tc := range testcases {
		assert.Equal(t, tc.want, tc.in.Base())
	}
}

func TestVarcharLength(t *testing.T) {
	testcases := []struct {
		in     TypeName
		length int
		ok     bool
	}{
		{"varchar(255)", 255, true},
		{"char(10)", 10, true},
		{"varchar(0)", 0, false},
		{"varchar(x)", 0, false},
		{"string", 0, false},
		{"int", 0, false},
	}
	for _, tc := range testcases {
		length, ok := tc.in.VarcharLength()
		assert.Equal(t, tc.ok, ok, "VarcharLength(%q)", tc.in)
		if tc.ok {
			assert.Equal(t, tc.length, length, "VarcharLength(%q)", tc.in)
		}
	}
}
