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

// Package hiveerror provides coded errors for the hive packages.
//
// Errors created here carry a Code and a call stack. Code(err) recovers the
// code of an error through any number of Wrap layers, so a failure raised
// deep in the loader keeps its class all the way to the query engine.
package hiveerror

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"
)

// logErrStacks controls whether %v prints the call stack. %+v always does.
var logErrStacks bool

// RegisterFlags installs the error formatting flags on the given FlagSet.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&logErrStacks, "log-err-stacks", false, "log stack traces for errors")
}

// New returns an error with the supplied message and code, annotated with the
// call stack at the point New was called.
func New(code ErrorCode, message string) error {
	return &fundamental{
		msg:   message,
		code:  code,
		stack: callers(),
	}
}

// Errorf formats according to a format specifier and returns the string as an
// error value with the given code.
func Errorf(code ErrorCode, format string, args ...any) error {
	return &fundamental{
		msg:   fmt.Sprintf(format, args...),
		code:  code,
		stack: callers(),
	}
}

// fundamental is an error with a code, a message, and a stack, but no cause.
type fundamental struct {
	msg  string
	code ErrorCode
	*stack
}

func (f *fundamental) Error() string { return f.msg }

func (f *fundamental) ErrorCode() ErrorCode { return f.code }

func (f *fundamental) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		panicIfError(io.WriteString(s, "Code: "+f.code.String()+"\n"))
		panicIfError(io.WriteString(s, f.msg+"\n"))
		if logErrStacks || s.Flag('+') {
			f.stack.Format(s, verb)
		}
	case 's':
		panicIfError(io.WriteString(s, f.msg))
	case 'q':
		fmt.Fprintf(s, "%q", f.msg)
	}
}

// Wrap returns an error annotating err with a stack trace at the point Wrap
// is called, and the supplied message. If err is nil, Wrap returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrapping{
		cause: err,
		msg:   message,
		stack: callers(),
	}
}

// Wrapf returns an error annotating err with a stack trace at the point
// Wrapf is called, and the format specifier. If err is nil, Wrapf returns
// nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &wrapping{
		cause: err,
		msg:   fmt.Sprintf(format, args...),
		stack: callers(),
	}
}

type wrapping struct {
	cause error
	msg   string
	*stack
}

func (w *wrapping) Error() string { return w.msg + ": " + w.cause.Error() }

func (w *wrapping) Unwrap() error { return w.cause }

func (w *wrapping) Format(s fmt.State, verb rune) {
	if rune('v') == verb {
		panicIfError(fmt.Fprintf(s, "%v\n", w.Unwrap()))
		panicIfError(io.WriteString(s, w.msg))
		if logErrStacks || s.Flag('+') {
			w.stack.Format(s, verb)
		}
		return
	}
	panicIfError(io.WriteString(s, w.Error()))
}

// errorWithCode is implemented by errors that carry a code directly.
type errorWithCode interface {
	ErrorCode() ErrorCode
}

// Code returns the error code if it's a coded error. If the error is nil it
// returns CodeOK, and if the chain carries no code it returns CodeUnknown.
func Code(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var coded errorWithCode
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}
	return CodeUnknown
}

// panicIfError is a helper for Format implementations, whose io errors have
// nowhere to go.
func panicIfError(_ int, err error) {
	if err != nil {
		panic(err)
	}
}
