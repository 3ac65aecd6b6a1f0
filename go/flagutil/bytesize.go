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

package flagutil

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
)

// ByteSize is an int64 flag that accepts human readable byte amounts such
// as "64MiB", "32MB", or "1024".
type ByteSize int64

// Set sets the value of this flag from parsing the given string.
func (bs *ByteSize) Set(s string) error {
	v, err := humanize.ParseBytes(s)
	if err != nil {
		return err
	}
	if v > math.MaxInt64 {
		return fmt.Errorf("byte size %q overflows int64", s)
	}
	*bs = ByteSize(v)
	return nil
}

// String returns the human readable representation of this flag.
func (bs ByteSize) String() string {
	return humanize.IBytes(uint64(bs))
}

// Type is part of the pflag.Value interface.
func (bs ByteSize) Type() string { return "bytes" }

// Bytes returns the value as a plain int64.
func (bs ByteSize) Bytes() int64 { return int64(bs) }

// ByteSizeVar defines a ByteSize flag with the specified name, default
// value, and usage string. The argument 'p' points to an int64 in which to
// store the value of the flag.
func ByteSizeVar(fs *pflag.FlagSet, p *int64, name string, defaultValue int64, usage string) {
	*p = defaultValue
	fs.Var((*ByteSize)(p), name, usage)
}
