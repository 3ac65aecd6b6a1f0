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
	"waggle.dev/waggle/go/hive/metastore"
)

// CoercionPolicy decides whether a partition's physical column type can be
// read as the table's declared type.
type CoercionPolicy interface {
	CanCoerce(from, to metastore.TypeName) bool
}

// DefaultCoercionPolicy allows exactly the widenings the file readers
// handle: integer widening, float to double, and varchar length or string
// changes.
type DefaultCoercionPolicy struct{}

func (DefaultCoercionPolicy) CanCoerce(from, to metastore.TypeName) bool {
	if from == to {
		return true
	}
	switch from.Base() {
	case "varchar":
		return to.Base() == "varchar" || to == "string"
	case "string":
		return to.Base() == "varchar"
	case "tinyint":
		return to == "smallint" || to == "int" || to == "bigint"
	case "smallint":
		return to == "int" || to == "bigint"
	case "int":
		return to == "bigint"
	case "float":
		return to == "double"
	}
	return false
}
