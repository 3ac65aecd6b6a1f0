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

package stats

import (
	"regexp"
	"strings"
	"sync"
)

// GetSnakeName produces a monitoring compliant name from the original.
func GetSnakeName(name string) string {
	return toSnakeCase(name)
}

// toSnakeCase converts CamelCase to camel_case, and CAMEL_CASE to
// camel_case. For numbers, it converts 0.5 to 0_5.
func toSnakeCase(name string) (lowered string) {
	snakeMemoizer.Lock()
	defer snakeMemoizer.Unlock()
	if lowered = snakeMemoizer.memo[name]; lowered != "" {
		return lowered
	}
	lowered = name
	for _, converter := range snakeConverters {
		lowered = converter.re.ReplaceAllString(lowered, converter.repl)
	}
	lowered = strings.ToLower(lowered)
	snakeMemoizer.memo[name] = lowered
	return
}

var snakeConverters = []struct {
	re   *regexp.Regexp
	repl string
}{
	// example: LC -> L_C (e.g. CamelCase -> Camel_Case).
	{regexp.MustCompile("([a-z])([A-Z])"), "${1}_${2}"},
	// example: CCa -> C_Ca (e.g. CCamel -> C_Camel).
	{regexp.MustCompile("([A-Z])([A-Z][a-z])"), "${1}_${2}"},
	{regexp.MustCompile("-"), "_"},
	{regexp.MustCompile(`\.`), "_"},
}

var snakeMemoizer = memoizerType{
	memo: make(map[string]string),
}

type memoizerType struct {
	sync.Mutex
	memo map[string]string
}
