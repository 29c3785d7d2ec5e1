package service

import (
	"errors"
	"fmt"
)

var (
	ErrBankNotFound        = errors.New("bank not found")
	ErrBankNotCustom       = errors.New("bank is not a custom bank")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionNotCompleted = errors.New("session not completed")
	ErrStaleTranslation    = errors.New("translation no longer matches the current question")
	ErrUnsupportedBankFile = errors.New("bank file must have a .jsonl extension")
	ErrBankFileTooLarge    = errors.New("bank file exceeds the upload limit")
)

// PersistenceError reports a failed write to the key-value store. The
// in-memory state the write was meant to persist has already been updated.
type PersistenceError struct {
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// AsPersistenceError reports whether err carries a *PersistenceError.
func AsPersistenceError(err error) (*PersistenceError, bool) {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
