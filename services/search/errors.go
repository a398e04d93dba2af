package search

import (
	"errors"
	"fmt"
)

var (
	ErrConnection = errors.New("index connection unavailable")
	ErrQueryBuild = errors.New("could not build query")
	ErrExec       = errors.New("could not execute query")
	ErrFetch      = errors.New("could not fetch rows")
	ErrNoCursor   = errors.New("command returned no cursor")
)

// ConnectionError means the data source could not be opened or initialized.
// Nothing is cached, so the next call retries.
type ConnectionError struct {
	Op  string
	Err error
}

type QueryBuildError struct {
	Op  string
	Err error
}

type ExecError struct {
	Op  string
	Err error
}

type FetchError struct {
	Offset int64
	Limit  int64
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("index connection failed to %s: %s", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

func (e *QueryBuildError) Error() string {
	return fmt.Sprintf("could not build query, failed to %s: %s", e.Op, e.Err)
}

func (e *QueryBuildError) Unwrap() error {
	return e.Err
}

func (e *QueryBuildError) Is(target error) bool {
	return target == ErrQueryBuild
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("could not execute query, failed to %s: %s", e.Op, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

func (e *ExecError) Is(target error) bool {
	return target == ErrExec
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("could not fetch rows at offset %d limit %d: %s", e.Offset, e.Limit, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}
