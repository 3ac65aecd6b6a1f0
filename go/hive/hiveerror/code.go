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

// ErrorCode classifies an error so that callers can react to the failure
// class without parsing messages. Every error produced by this module
// carries exactly one code; wrapping preserves the innermost code.
type ErrorCode int32

const (
	// CodeOK is the code of a nil error.
	CodeOK ErrorCode = iota

	// CodeTableNotFound means the requested table does not exist in the
	// catalog.
	CodeTableNotFound

	// CodeInvalidMetadata means the catalog returned data that violates the
	// Hive model, for example a partition with the wrong number of values.
	CodeInvalidMetadata

	// CodeInvalidPartitionValue means a partition carries a value that cannot
	// be used as a partition key.
	CodeInvalidPartitionValue

	// CodePartitionDropped means a candidate partition disappeared from the
	// catalog between planning and loading.
	CodePartitionDropped

	// CodePartitionSchemaMismatch means a partition declares a column type
	// that cannot be coerced to the table's declared type.
	CodePartitionSchemaMismatch

	// CodePartitionOffline means the table or partition is marked offline in
	// the catalog and must not be read.
	CodePartitionOffline

	// CodeNotReadable means the table or partition is explicitly marked not
	// readable in the catalog.
	CodeNotReadable

	// CodeFilesystemError means a storage operation (listing, stat, open)
	// failed.
	CodeFilesystemError

	// CodeInvalidBucketFiles means the files under a bucketed partition do
	// not line up with the declared bucket count or naming scheme.
	CodeInvalidBucketFiles

	// CodeUnsupportedFormat means the storage descriptor is missing or names
	// an input format this module cannot handle.
	CodeUnsupportedFormat

	// CodeNotSupported means the request combines features that are
	// individually valid but cannot be used together.
	CodeNotSupported

	// CodeServerShuttingDown means the split manager was asked for work after
	// it was closed.
	CodeServerShuttingDown

	// CodeUnknown is the code of errors that did not originate here and were
	// not wrapped with a more specific code.
	CodeUnknown
)

var codeNames = map[ErrorCode]string{
	CodeOK:                      "OK",
	CodeTableNotFound:           "TABLE_NOT_FOUND",
	CodeInvalidMetadata:         "INVALID_METADATA",
	CodeInvalidPartitionValue:   "INVALID_PARTITION_VALUE",
	CodePartitionDropped:        "PARTITION_DROPPED",
	CodePartitionSchemaMismatch: "PARTITION_SCHEMA_MISMATCH",
	CodePartitionOffline:        "PARTITION_OFFLINE",
	CodeNotReadable:             "NOT_READABLE",
	CodeFilesystemError:         "FILESYSTEM_ERROR",
	CodeInvalidBucketFiles:      "INVALID_BUCKET_FILES",
	CodeUnsupportedFormat:       "UNSUPPORTED_FORMAT",
	CodeNotSupported:            "NOT_SUPPORTED",
	CodeServerShuttingDown:      "SERVER_SHUTTING_DOWN",
	CodeUnknown:                 "UNKNOWN",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
