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

package hiveerror

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapping(t *testing.T) {
	err1 := Errorf(CodeFilesystemError, "bad storage (%v)", "rusty")
	err2 := Wrapf(err1, "failed to list directory")

	require.Equal(t, "failed to list directory: bad storage (rusty)", err2.Error())
	require.Equal(t, CodeFilesystemError, Code(err2))
}

func TestCode(t *testing.T) {
	tcases := []struct {
		in   error
		want ErrorCode
	}{
		{nil, CodeOK},
		{New(CodeInvalidBucketFiles, "bad buckets"), CodeInvalidBucketFiles},
		{Wrap(New(CodePartitionOffline, "offline"), "loading partition"), CodePartitionOffline},
		{Wrapf(Wrap(New(CodeNotSupported, "no"), "inner"), "outer %d", 1), CodeNotSupported},
		{errors.New("plain"), CodeUnknown},
		{fmt.Errorf("wrapped plain: %w", io.EOF), CodeUnknown},
	}
	for _, tcase := range tcases {
		require.Equal(t, tcase.want, Code(tcase.in), "Code(%v)", tcase.in)
	}
}

func TestUnwrap(t *testing.T) {
	base := errors.New("base")
	wrapped := Wrap(base, "context")

	require.True(t, errors.Is(wrapped, base))
	require.Equal(t, base, errors.Unwrap(wrapped))
	require.Nil(t, Wrap(nil, "no error"))
	require.Nil(t, Wrapf(nil, "no error %d", 1))
}

func TestStackFormat(t *testing.T) {
	err := outer()
	require.NotContains(t, fmt.Sprintf("%v", err), "middle")

	got := fmt.Sprintf("%+v", err)
	require.Contains(t, got, "middle")
	require.Contains(t, got, "errors_test.go")
}

// Use a well-defined call chain so the stack assertions have something to
// find.
func middle() error {
	return New(CodeUnknown, "sink it")
}

func outer() error {
	return middle()
}

func TestCodeString(t *testing.T) {
	require.Equal(t, "FILESYSTEM_ERROR", CodeFilesystemError.String())
	require.Equal(t, "UNKNOWN", ErrorCode(12345).String())
	require.True(t, strings.HasPrefix(fmt.Sprintf("%v", New(CodeNotSupported, "x")), "Code: NOT_SUPPORTED"))
}
