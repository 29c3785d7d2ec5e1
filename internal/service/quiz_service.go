package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-drill/internal/model"
	"github.com/stemsi/exstem-drill/internal/quiz"
)

// PersistenceNotice is shown to the user when a practice write failed.
const PersistenceNotice = "Practice history could not be saved; progress is kept for this session only."

// Prefetcher warms the translation cache in the background.
type Prefetcher interface {
	Enqueue(texts ...string)
}

// QuizService owns the single active quiz session of the profile.
type QuizService struct {
	banks      *BankService
	practice   *PracticeService
	prefs      *PreferenceService
	translator *TranslationService
	builder    *quiz.Builder
	prefetch   Prefetcher
	log        zerolog.Logger
	now        func() time.Time

	mu     sync.Mutex
	active *activeSession
}

type activeSession struct {
	id      string
	request model.StartSessionRequest
	session *quiz.Session
}

// NewQuizService wires the quiz engine to the bank, ledger and translation
// services. builder may be nil for a randomly seeded one; prefetch may be
// nil to disable cache warming.
func NewQuizService(
	banks *BankService,
	practice *PracticeService,
	prefs *PreferenceService,
	translator *TranslationService,
	builder *quiz.Builder,
	prefetch Prefetcher,
	log zerolog.Logger,
) *QuizService {
	if builder == nil {
		builder = quiz.NewBuilder(nil)
	}
	return &QuizService{
		banks:      banks,
		practice:   practice,
		prefs:      prefs,
		translator: translator,
		builder:    builder,
		prefetch:   prefetch,
		log:        log.With().Str("component", "quiz_service").Logger(),
		now:        time.Now,
	}
}

// Start builds a session from a bank and makes it the active one,
// replacing any session already running.
func (s *QuizService) Start(ctx context.Context, req model.StartSessionRequest) (model.SessionSnapshot, error) {
	sess, err := s.build(req)
	if err != nil {
		return model.SessionSnapshot{}, err
	}

	a := &activeSession{id: uuid.NewString(), request: req, session: sess}

	s.mu.Lock()
	s.active = a
	snap := s.snapshotLocked(a)
	s.mu.Unlock()

	s.log.Info().
		Str("session_id", a.id).
		Str("bank", sess.Bank()).
		Str("mode", string(sess.Mode())).
		Int("questions", sess.Len()).
		Msg("session started")

	s.warmTranslations(sess)
	return snap, nil
}

func (s *QuizService) build(req model.StartSessionRequest) (*quiz.Session, error) {
	bank, err := s.banks.Get(req.Bank)
	if err != nil {
		return nil, err
	}

	mode := quiz.ParseMode(req.Mode)
	opts := quiz.BuildOptions{
		Mode:             mode,
		Count:            quiz.ParseCount(req.Count),
		ShuffleQuestions: boolOr(req.ShuffleQuestions, true),
		ShuffleOptions:   boolOr(req.ShuffleOptions, true),
	}
	if mode == quiz.ModeWrong {
		opts.WrongIDs = s.practice.Stats(bank.Name).WrongQuestionIDs
	}

	questions, err := s.builder.Build(bank, opts)
	if err != nil {
		return nil, err
	}
	return quiz.NewSession(bank.Name, mode, questions, s.practice)
}

func (s *QuizService) warmTranslations(sess *quiz.Session) {
	if s.prefetch == nil || s.prefs == nil || !s.prefs.TranslateEnabled() {
		return
	}
	var texts []string
	for _, q := range sess.Questions() {
		texts = append(texts, q.Question)
		for _, o := range q.Options {
			texts = append(texts, o.Text)
		}
	}
	s.prefetch.Enqueue(texts...)
}

func boolOr(p *bool, fallback bool) bool {
	if p == nil {
		return fallback
	}
	return *p
}

// lookupLocked returns the active session if its id matches.
func (s *QuizService) lookupLocked(id string) (*activeSession, error) {
	if s.active == nil || s.active.id != id {
		return nil, ErrSessionNotFound
	}
	return s.active, nil
}

func (s *QuizService) snapshotLocked(a *activeSession) model.SessionSnapshot {
	snap := a.session.Snapshot()
	snap.SessionID = a.id
	return snap
}

// apply runs fn against the active session and returns the resulting
// snapshot.
func (s *QuizService) apply(id string, fn func(*quiz.Session) error) (model.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.lookupLocked(id)
	if err != nil {
		return model.SessionSnapshot{}, err
	}
	if err := fn(a.session); err != nil {
		return model.SessionSnapshot{}, err
	}
	return s.snapshotLocked(a), nil
}

// Snapshot returns the current view of the session.
func (s *QuizService) Snapshot(id string) (model.SessionSnapshot, error) {
	return s.apply(id, func(*quiz.Session) error { return nil })
}

func (s *QuizService) Select(id, letter string) (model.SessionSnapshot, error) {
	return s.apply(id, func(sess *quiz.Session) error { return sess.Select(letter) })
}

// Submit grades the current question. If the ledger could not be saved
// the snapshot is still returned, with a notice, alongside the
// *PersistenceError.
func (s *QuizService) Submit(ctx context.Context, id string) (model.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.lookupLocked(id)
	if err != nil {
		return model.SessionSnapshot{}, err
	}
	out, err := a.session.Submit(ctx)
	if err != nil {
		return model.SessionSnapshot{}, err
	}

	snap := s.snapshotLocked(a)
	if out.RecordErr != nil {
		snap.Notice = PersistenceNotice
		return snap, out.RecordErr
	}
	return snap, nil
}

func (s *QuizService) Previous(id string) (model.SessionSnapshot, error) {
	return s.apply(id, func(sess *quiz.Session) error { return sess.Previous() })
}

func (s *QuizService) Next(id string) (model.SessionSnapshot, error) {
	return s.apply(id, func(sess *quiz.Session) error { return sess.Next() })
}

func (s *QuizService) End(id string) (model.SessionSnapshot, error) {
	return s.apply(id, func(sess *quiz.Session) error {
		sess.EndEarly()
		return nil
	})
}

// Result scores a completed session.
func (s *QuizService) Result(id string) (model.QuizResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.lookupLocked(id)
	if err != nil {
		return model.QuizResult{}, err
	}
	if a.session.State() != quiz.StateCompleted {
		return model.QuizResult{}, ErrSessionNotCompleted
	}
	return a.session.Result(), nil
}

// Review lists the wrongly answered questions of a completed session.
func (s *QuizService) Review(id string) ([]model.ReviewItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.lookupLocked(id)
	if err != nil {
		return nil, err
	}
	if a.session.State() != quiz.StateCompleted {
		return nil, ErrSessionNotCompleted
	}
	return a.session.Review(), nil
}

// Restart rebuilds the session from the same bank and settings with a
// fresh shuffle. The new session gets a new id.
func (s *QuizService) Restart(ctx context.Context, id string) (model.SessionSnapshot, error) {
	s.mu.Lock()
	a, err := s.lookupLocked(id)
	s.mu.Unlock()
	if err != nil {
		return model.SessionSnapshot{}, err
	}
	return s.Start(ctx, a.request)
}

// Discard drops the active session.
func (s *QuizService) Discard(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookupLocked(id); err != nil {
		return err
	}
	s.active = nil
	s.log.Info().Str("session_id", id).Msg("session discarded")
	return nil
}

// Translate translates the question currently shown. The lookup runs
// without holding the session; if the user moved on meanwhile the result
// is discarded with ErrStaleTranslation.
func (s *QuizService) Translate(ctx context.Context, id string) (model.QuestionTranslation, error) {
	s.mu.Lock()
	a, err := s.lookupLocked(id)
	if err != nil {
		s.mu.Unlock()
		return model.QuestionTranslation{}, err
	}
	if a.session.State() == quiz.StateCompleted {
		s.mu.Unlock()
		return model.QuestionTranslation{}, quiz.ErrSessionCompleted
	}
	ticket := a.session.Ticket()
	q := a.session.Current().Clone()
	s.mu.Unlock()

	tr := s.translator.TranslateQuestion(ctx, ticket.Index, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != a || !a.session.Accepts(ticket) {
		s.log.Debug().Str("session_id", id).Int("index", ticket.Index).Msg("dropping stale translation")
		return model.QuestionTranslation{}, ErrStaleTranslation
	}
	return tr, nil
}

// LookupQuestion finds a stored question by id together with its
// practice record, if it has been practiced.
func (s *QuizService) LookupQuestion(bank string, id int) (model.QuestionLookup, error) {
	q, err := s.banks.Question(bank, id)
	if err != nil {
		return model.QuestionLookup{}, err
	}

	out := model.QuestionLookup{Bank: bank, Question: q}
	if rec, ok := s.practice.Get(bank, id); ok && rec.PracticeCount > 0 {
		out.Practice = &rec
		if rec.LastPracticed != nil {
			out.LastPracticedHuman = relativeTime(*rec.LastPracticed, s.now())
		}
	}
	return out, nil
}

// IsStale reports whether err means a translation arrived too late.
func IsStale(err error) bool {
	return errors.Is(err, ErrStaleTranslation)
}
