// Package errors defines error types for the concept finder SDK.
//
// This package provides structured error types for the failure scenarios of
// a session with the concept finder engine: the engine could not be launched,
// the engine went away, the engine sent something that does not fit the
// wire protocol, the caller supplied input that cannot be framed, or a
// response did not arrive in time. All error types support error unwrapping
// and can be checked using errors.Is, errors.As, and errors.AsType.
package errors
