package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-drill/internal/config"
	"github.com/stemsi/exstem-drill/internal/model"
	"github.com/stemsi/exstem-drill/internal/repository"
)

// PracticeService is the practice ledger: per bank, per question id
// attempt records. The whole ledger is persisted after every write.
type PracticeService struct {
	store repository.KVStore
	log   zerolog.Logger
	now   func() time.Time

	mu      sync.Mutex
	history model.PracticeHistory
	// failing is set while persist keeps failing, so only the first
	// failure of a streak reaches the caller.
	failing bool
}

func NewPracticeService(store repository.KVStore, log zerolog.Logger) *PracticeService {
	return &PracticeService{
		store:   store,
		log:     log.With().Str("component", "practice_service").Logger(),
		now:     time.Now,
		history: make(model.PracticeHistory),
	}
}

// Load replaces the in-memory ledger with the stored one. A missing key
// yields an empty ledger; so does a corrupt blob, with a warning.
func (s *PracticeService) Load(ctx context.Context) error {
	raw, err := s.store.Get(ctx, config.StorageKey.PracticeHistory)
	if errors.Is(err, repository.ErrKeyNotFound) {
		s.replace(make(model.PracticeHistory))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load practice history: %w", err)
	}

	history := make(model.PracticeHistory)
	if err := json.Unmarshal(raw, &history); err != nil {
		s.log.Warn().Err(err).Str("key", config.StorageKey.PracticeHistory).Msg("corrupt practice history, starting empty")
		history = make(model.PracticeHistory)
	}
	s.replace(history)
	return nil
}

func (s *PracticeService) replace(h model.PracticeHistory) {
	s.mu.Lock()
	s.history = h
	s.mu.Unlock()
}

// Record applies one graded attempt. It implements quiz.Recorder.
func (s *PracticeService) Record(ctx context.Context, bank string, questionID int, correct bool, answer []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, ok := s.history[bank]
	if !ok {
		records = make(map[int]*model.PracticeRecord)
		s.history[bank] = records
	}
	rec, ok := records[questionID]
	if !ok || rec == nil {
		rec = &model.PracticeRecord{History: []model.HistoryEntry{}}
		records[questionID] = rec
	}

	now := s.now().UTC()
	rec.PracticeCount++
	if correct {
		rec.CorrectCount++
	} else {
		rec.WrongCount++
	}
	rec.LastPracticed = &now

	entry := model.HistoryEntry{
		Timestamp:  now,
		IsCorrect:  correct,
		UserAnswer: strings.Join(answer, ","),
	}
	rec.History = append([]model.HistoryEntry{entry}, rec.History...)
	if len(rec.History) > model.HistoryLimit {
		rec.History = rec.History[:model.HistoryLimit]
	}

	return s.persistLocked(ctx)
}

// Stats counts practiced questions of bank and lists, ascending, the ids
// whose most recent attempt was wrong.
func (s *PracticeService) Stats(bank string) model.PracticeStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := model.PracticeStats{Bank: bank, WrongQuestionIDs: []int{}}
	for id, rec := range s.history[bank] {
		if rec == nil || rec.PracticeCount == 0 {
			continue
		}
		stats.PracticedCount++
		if rec.CurrentlyWrong() {
			stats.WrongQuestionIDs = append(stats.WrongQuestionIDs, id)
		}
	}
	slices.Sort(stats.WrongQuestionIDs)
	return stats
}

// Get returns a copy of the record for one question.
func (s *PracticeService) Get(bank string, questionID int) (model.PracticeRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.history[bank][questionID]
	if !ok || rec == nil {
		return model.PracticeRecord{}, false
	}
	out := *rec
	out.History = slices.Clone(rec.History)
	if rec.LastPracticed != nil {
		t := *rec.LastPracticed
		out.LastPracticed = &t
	}
	return out, true
}

// Clear drops every record of bank.
func (s *PracticeService) Clear(ctx context.Context, bank string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.history, bank)
	return s.persistLocked(ctx)
}

func (s *PracticeService) persistLocked(ctx context.Context) error {
	key := config.StorageKey.PracticeHistory

	data, err := json.Marshal(s.history)
	if err == nil {
		err = s.store.Set(ctx, key, data)
	}
	if err == nil {
		if s.failing {
			s.log.Info().Str("key", key).Msg("practice history persisted again")
		}
		s.failing = false
		return nil
	}

	s.log.Warn().Err(err).Str("key", key).Msg("failed to persist practice history")
	if s.failing {
		return nil
	}
	s.failing = true
	return &PersistenceError{Key: key, Err: err}
}
