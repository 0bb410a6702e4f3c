package db

import (
	"errors"
	"fmt"
)

// ErrKeyNotFound signals a missing key in the key-value store.
var ErrKeyNotFound = errors.New("key not found")

// Op identifies the failed store operation.
type Op string

// Store operations.
const (
	OpGet Op = "get"
	OpSet Op = "set"
)

// Error wraps a backend error with the operation that produced it.
type Error struct {
	Op  Op
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("db %s: %v", e.Op, e.Err) }

func (e *Error) Unwrap() error { return e.Err }
