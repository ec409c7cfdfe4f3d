package contenttype

import (
	"fmt"
	"strconv"
)

// InvalidError means the identifier is not of the form "app_label.model".
type InvalidError struct {
	Value string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid content_type value: %q", e.Value)
}

// UnknownTypeError means no type is registered under the identifier.
type UnknownTypeError struct {
	Value string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("content-type %q does not resolve to a valid model", e.Value)
}

// NotFoundError means the type exists but no object has the given key.
type NotFoundError struct {
	Value string
	PK    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no object matching content-type %q and object PK %q exists", e.Value, e.PK)
}

// InvalidKeyError means the key could not be interpreted for the type.
type InvalidKeyError struct {
	Value string
	PK    string
	Err   error
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("content-type %q and object PK %q: %v", e.Value, e.PK, e.Err)
}

func (e *InvalidKeyError) Unwrap() error { return e.Err }

// Kind returns the Go type name of the underlying parse error.
func (e *InvalidKeyError) Kind() string {
	return fmt.Sprintf("%T", e.Err)
}

// KeyFormatError is returned by a LookupFunc when pk has the wrong format.
type KeyFormatError struct {
	Err error
}

func (e *KeyFormatError) Error() string { return "malformed primary key: " + e.Err.Error() }

func (e *KeyFormatError) Unwrap() error { return e.Err }

// IntKey parses an integer primary key, reporting failures as *KeyFormatError.
func IntKey(pk string) (int64, error) {
	id, err := strconv.ParseInt(pk, 10, 64)
	if err != nil {
		return 0, &KeyFormatError{Err: err}
	}
	return id, nil
}
