package quiz

import (
	"context"
	"slices"

	"github.com/stemsi/exstem-drill/internal/model"
)

// State is the position of the session's current question.
type State int

const (
	StateInProgress State = iota
	StateSubmitted
	StateCompleted
)

func (s State) String() string {
	return string(s.toModel())
}

func (s State) toModel() model.SessionState {
	switch s {
	case StateSubmitted:
		return model.SessionStateSubmitted
	case StateCompleted:
		return model.SessionStateCompleted
	default:
		return model.SessionStateInProgress
	}
}

// Recorder receives the outcome of every graded submission of a question
// that carries an id.
type Recorder interface {
	Record(ctx context.Context, bank string, questionID int, correct bool, answer []string) error
}

// SubmitOutcome describes a graded submission. RecordErr holds a ledger
// failure; the submission itself still took effect.
type SubmitOutcome struct {
	Index       int
	Correct     bool
	Selection   []string
	Answer      []string
	Explanation string
	RecordErr   error
}

// Ticket tags an asynchronous lookup with the question index it was
// issued for.
type Ticket struct {
	Index int
}

// Session is one quiz run over a fixed list of questions. A Session is
// not safe for concurrent use.
type Session struct {
	bank      string
	mode      Mode
	questions []model.Question
	answers   map[int][]string
	index     int
	state     State
	rec       Recorder
}

// NewSession starts a session at the first question. rec may be nil.
func NewSession(bank string, mode Mode, questions []model.Question, rec Recorder) (*Session, error) {
	if len(questions) == 0 {
		return nil, ErrEmptyBank
	}
	return &Session{
		bank:      bank,
		mode:      mode,
		questions: questions,
		answers:   make(map[int][]string),
		rec:       rec,
	}, nil
}

func (s *Session) Bank() string { return s.bank }
func (s *Session) Mode() Mode { return s.mode }
func (s *Session) Len() int { return len(s.questions) }
func (s *Session) Index() int { return s.index }
func (s *Session) State() State { return s.state }
func (s *Session) IsLast() bool { return s.index == len(s.questions)-1 }
func (s *Session) Ticket() Ticket { return Ticket{Index: s.index} }

// WrongOnly reports whether the session retries previously wrong questions.
func (s *Session) WrongOnly() bool { return s.mode == ModeWrong }

// Current returns the question at the current index.
func (s *Session) Current() model.Question {
	return s.questions[s.index]
}

// Questions returns copies of the session's questions.
func (s *Session) Questions() []model.Question {
	out := make([]model.Question, len(s.questions))
	for i, q := range s.questions {
		out[i] = q.Clone()
	}
	return out
}

// Selection returns the letters chosen for question i, in selection order.
func (s *Session) Selection(i int) []string {
	return slices.Clone(s.answers[i])
}

// Graded reports whether the current question should display its grading:
// it is submitted and has a selection to grade.
func (s *Session) Graded() bool {
	return s.state == StateSubmitted && len(s.answers[s.index]) > 0
}

// Accepts reports whether a lookup issued with t still matches the
// displayed question.
func (s *Session) Accepts(t Ticket) bool {
	return s.state != StateCompleted && s.index == t.Index
}

// Select chooses letter for the current question. Single-answer questions
// replace the selection; multi-answer questions toggle the letter. Once the
// question is submitted its options are locked and Select does nothing.
func (s *Session) Select(letter string) error {
	switch s.state {
	case StateCompleted:
		return ErrSessionCompleted
	case StateSubmitted:
		return nil
	}

	q := s.questions[s.index]
	if !q.Options.Has(letter) {
		return ErrUnknownOption
	}

	if !q.IsMulti() {
		s.answers[s.index] = []string{letter}
		return nil
	}

	cur := slices.Clone(s.answers[s.index])
	if i := slices.Index(cur, letter); i >= 0 {
		s.answers[s.index] = slices.Delete(cur, i, i+1)
	} else {
		s.answers[s.index] = append(cur, letter)
	}
	return nil
}

// Submit grades the current selection and records it with the Recorder
// when the question has an id. It does not advance the index.
func (s *Session) Submit(ctx context.Context) (SubmitOutcome, error) {
	switch s.state {
	case StateCompleted:
		return SubmitOutcome{}, ErrSessionCompleted
	case StateSubmitted:
		return SubmitOutcome{}, ErrAlreadySubmitted
	}

	sel := s.answers[s.index]
	if len(sel) == 0 {
		return SubmitOutcome{}, ErrEmptySelection
	}

	q := s.questions[s.index]
	correct := IsCorrect(q.Answer, sel)
	s.state = StateSubmitted

	out := SubmitOutcome{
		Index:       s.index,
		Correct:     correct,
		Selection:   slices.Clone(sel),
		Answer:      slices.Clone(q.Answer),
		Explanation: q.Explanation,
	}
	if q.ID != nil && s.bank != "" && s.rec != nil {
		out.RecordErr = s.rec.Record(ctx, s.bank, *q.ID, correct, slices.Clone(sel))
	}
	return out, nil
}

// Previous moves back one question. The revisited question is always
// treated as submitted.
func (s *Session) Previous() error {
	if s.state == StateCompleted {
		return ErrSessionCompleted
	}
	if s.index == 0 {
		return ErrNoPreviousQuestion
	}
	s.index--
	s.state = StateSubmitted
	return nil
}

// Next advances to the following question, or completes the session when
// the current question is the last one.
func (s *Session) Next() error {
	switch s.state {
	case StateCompleted:
		return ErrSessionCompleted
	case StateInProgress:
		return ErrNotSubmitted
	}

	if s.IsLast() {
		s.state = StateCompleted
		return nil
	}
	s.index++
	s.state = StateInProgress
	return nil
}

// EndEarly completes the session from any question.
func (s *Session) EndEarly() {
	s.state = StateCompleted
}

// Result scores the session.
func (s *Session) Result() model.QuizResult {
	return Score(s.questions, s.answers)
}

// Review lists the incorrectly answered questions.
func (s *Session) Review() []model.ReviewItem {
	return Review(s.questions, s.answers)
}

// Snapshot returns the view-layer state of the session.
func (s *Session) Snapshot() model.SessionSnapshot {
	snap := model.SessionSnapshot{
		Bank:      s.bank,
		Mode:      string(s.mode),
		State:     s.state.toModel(),
		Index:     s.index,
		Total:     len(s.questions),
		IsLast:    s.IsLast(),
		Selection: []string{},
	}
	if s.state == StateCompleted {
		return snap
	}

	q := s.questions[s.index]
	view := q.View()
	snap.Question = &view
	if sel := s.answers[s.index]; len(sel) > 0 {
		snap.Selection = slices.Clone(sel)
	}
	if s.Graded() {
		snap.Grading = &model.Grading{
			Correct:     IsCorrect(q.Answer, s.answers[s.index]),
			Answer:      slices.Clone(q.Answer),
			Explanation: q.Explanation,
		}
	}
	return snap
}
