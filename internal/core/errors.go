package core

import (
	"errors"
	"fmt"
)

var ErrUnmappedOperation = errors.New("no permission mapped to operation")

// OperationError reports a gated operation that has no permission name
type OperationError struct {
	Op  Operation
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
