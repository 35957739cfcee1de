package models

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is the kind of every invalid-parameter error
	ErrConfiguration = errors.New("configuration error")

	// ErrData is the kind of every unusable-input error
	ErrData = errors.New("data error")
)

// ConfigError reports a parameter outside its valid range.
//
// errors.Is(err, ErrConfiguration) holds for every ConfigError.
type ConfigError struct {
	Param  string
	Value  interface{}
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s=%v %s", e.Param, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// DataError reports input data the pipeline cannot process.
//
// errors.Is(err, ErrData) holds for every DataError.
type DataError struct {
	Reason string
}

// NewDataError formats a DataError
func NewDataError(format string, args ...interface{}) *DataError {
	return &DataError{Reason: fmt.Sprintf(format, args...)}
}

func (e *DataError) Error() string {
	return "data error: " + e.Reason
}

func (e *DataError) Unwrap() error { return ErrData }

// ErrIO is the kind of every file open, read or write failure
var ErrIO = errors.New("io error")

// IOError reports a failed file operation.
//
// errors.Is(err, ErrIO) holds for every IOError; Unwrap returns the cause.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }
