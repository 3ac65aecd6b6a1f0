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
	"strconv"
	"strings"
)

// TypeName is a Hive type string, such as "int", "varchar(50)", or
// "array<struct<a:int,b:string>>". Comparison is plain string equality; the
// catalog is expected to store types in canonical lowercase form.
type TypeName string

var primitiveTypes = map[string]bool{
	"boolean":   true,
	"tinyint":   true,
	"smallint":  true,
	"int":       true,
	"bigint":    true,
	"float":     true,
	"double":    true,
	"string":    true,
	"binary":    true,
	"timestamp": true,
	"date":      true,
}

// Base returns the type name without parameters, for example "varchar" for
// "varchar(50)" and "map" for "map<int,string>".
func (t TypeName) Base() string {
	s := t.normalized()
	if i := strings.IndexAny(s, "(<"); i >= 0 {
		return s[:i]
	}
	return s
}

// Supported reports whether the type can be mapped to an engine type. All
// primitives and arbitrarily nested array, map, and struct types are
// supported; uniontype is not.
func (t TypeName) Supported() bool {
	ok, rest := parseSupported(t.normalized())
	return ok && rest == ""
}

// VarcharLength returns the declared length of a varchar or char type.
func (t TypeName) VarcharLength() (int, bool) {
	s := t.normalized()
	base, arg, found := strings.Cut(s, "(")
	if !found || (base != "varchar" && base != "char") || !strings.HasSuffix(arg, ")") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(arg, ")"))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func (t TypeName) normalized() string {
	return strings.ToLower(strings.TrimSpace(string(t)))
}

// parseSupported consumes one complete type from the front of s and reports
// whether it is supported, returning whatever follows it.
func parseSupported(s string) (bool, string) {
	switch {
	case strings.HasPrefix(s, "array<"):
		ok, rest := parseSupported(s[len("array<"):])
		if !ok || !strings.HasPrefix(rest, ">") {
			return false, ""
		}
		return true, rest[1:]
	case strings.HasPrefix(s, "map<"):
		ok, rest := parseSupported(s[len("map<"):])
		if !ok || !strings.HasPrefix(rest, ",") {
			return false, ""
		}
		ok, rest = parseSupported(rest[1:])
		if !ok || !strings.HasPrefix(rest, ">") {
			return false, ""
		}
		return true, rest[1:]
	case strings.HasPrefix(s, "struct<"):
		rest := s[len("struct<"):]
		for {
			colon := strings.Index(rest, ":")
			if colon < 0 {
				return false, ""
			}
			var ok bool
			ok, rest = parseSupported(rest[colon+1:])
			if !ok {
				return false, ""
			}
			if strings.HasPrefix(rest, ",") {
				rest = rest[1:]
				continue
			}
			if strings.HasPrefix(rest, ">") {
				return true, rest[1:]
			}
			return false, ""
		}
	case strings.HasPrefix(s, "uniontype<"):
		return false, ""
	default:
		// A primitive, possibly parameterized. It extends to the next
		// separator owned by an enclosing complex type; separators inside
		// parameter parens, as in decimal(10,2), don't count.
		depth := 0
		end := len(s)
	scan:
		for i, r := range s {
			switch r {
			case '(':
				depth++
			case ')':
				depth--
			case ',', '>':
				if depth == 0 {
					end = i
					break scan
				}
			}
		}
		return primitiveSupported(s[:end]), s[end:]
	}
}

func primitiveSupported(s string) bool {
	if primitiveTypes[s] {
		return true
	}
	base, arg, found := strings.Cut(s, "(")
	if !found || !strings.HasSuffix(arg, ")") {
		return false
	}
	args := strings.Split(strings.TrimSuffix(arg, ")"), ",")
	for _, a := range args {
		if _, err := strconv.Atoi(strings.TrimSpace(a)); err != nil {
			return false
		}
	}
	switch base {
	case "varchar", "char":
		return len(args) == 1
	case "decimal":
		return len(args) == 1 || len(args) == 2
	}
	return false
}
