package quiz

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyBank          = errors.New("bank has no questions")
	ErrEmptyWrongSet      = errors.New("no currently wrong questions to practice")
	ErrEmptySelection     = errors.New("no option selected")
	ErrUnknownOption      = errors.New("option letter not in current question")
	ErrAlreadySubmitted   = errors.New("current question already submitted")
	ErrNotSubmitted       = errors.New("current question not submitted")
	ErrNoPreviousQuestion = errors.New("already at first question")
	ErrSessionCompleted   = errors.New("session completed")
)

// LoadError reports a bank source that could not be turned into a usable
// bank. It is never fatal to the caller: the bank is simply unavailable.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load bank %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ValidationError describes a record dropped during normalization.
// Line is 1-based for JSONL input and the record position otherwise.
type ValidationError struct {
	Line   int
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("record %d: %s", e.Line, e.Reason)
}
