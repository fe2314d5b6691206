package inference

import (
	"errors"
	"fmt"
)

type State string

const (
	StateExecuting State = "executing"
	StateDone      State = "done"
	StateError     State = "error"
)

// ErrReceiptNotFound is returned for receipts that were never issued or have
// already been evicted from the cache.
var ErrReceiptNotFound = errors.New("not found")

// Result is the cached outcome of one submission. Result is set only when
// State is done, Error only when State is error.
type Result struct {
	ID     string `json:"id"`
	State  State  `json:"state"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (r Result) Terminal() bool {
	return r.State == StateDone || r.State == StateError
}

func receiptNotFound(id string) error {
	return fmt.Errorf("receipt %s %w", id, ErrReceiptNotFound)
}
