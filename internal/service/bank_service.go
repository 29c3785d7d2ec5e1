package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-drill/internal/config"
	"github.com/stemsi/exstem-drill/internal/model"
	"github.com/stemsi/exstem-drill/internal/quiz"
	"github.com/stemsi/exstem-drill/internal/repository"
)

// BankService holds bundled and custom banks and their merged view.
type BankService struct {
	catalog        *repository.BankCatalogRepository
	store          repository.KVStore
	maxUploadBytes int64
	log            zerolog.Logger

	mu      sync.RWMutex
	builtin []model.Bank
	custom  []model.Bank
	merged  []model.Bank
}

func NewBankService(catalog *repository.BankCatalogRepository, store repository.KVStore, maxUploadBytes int64, log zerolog.Logger) *BankService {
	return &BankService{
		catalog:        catalog,
		store:          store,
		maxUploadBytes: maxUploadBytes,
		log:            log.With().Str("component", "bank_service").Logger(),
	}
}

// storedBank is the persisted shape of a custom bank. Questions are kept
// raw so they go through normalization again on load.
type storedBank struct {
	Name      string            `json:"name"`
	Questions []json.RawMessage `json:"questions"`
	Count     int               `json:"count"`
}

// Load reads the bundled catalog and the stored custom banks and rebuilds
// the merged list. Every bank that could not be loaded is returned as a
// *quiz.LoadError; none of them stop the others from loading.
func (s *BankService) Load(ctx context.Context) []error {
	var problems []error

	builtin, errs := s.loadBuiltin()
	problems = append(problems, errs...)

	custom, err := s.loadCustom(ctx)
	if err != nil {
		problems = append(problems, err)
	}

	s.mu.Lock()
	s.builtin = builtin
	s.custom = custom
	s.remergeLocked()
	s.mu.Unlock()

	for _, p := range problems {
		s.log.Warn().Err(p).Msg("bank unavailable")
	}
	s.log.Info().Int("builtin", len(builtin)).Int("custom", len(custom)).Msg("banks loaded")
	return problems
}

func (s *BankService) loadBuiltin() ([]model.Bank, []error) {
	files, err := s.catalog.ReadCatalog()
	if err != nil {
		return nil, []error{&quiz.LoadError{Source: repository.CatalogFile, Err: err}}
	}

	var (
		banks    []model.Bank
		problems []error
	)
	for _, f := range files {
		bank, err := s.loadBuiltinFile(f)
		if err != nil {
			problems = append(problems, err)
			continue
		}
		banks = append(banks, bank)
	}
	return banks, problems
}

func (s *BankService) loadBuiltinFile(filename string) (model.Bank, error) {
	rc, err := s.catalog.OpenBank(filename)
	if err != nil {
		return model.Bank{}, &quiz.LoadError{Source: filename, Err: err}
	}
	defer rc.Close()

	questions, dropped, err := quiz.ParseJSONL(rc)
	if err != nil {
		return model.Bank{}, &quiz.LoadError{Source: filename, Err: err}
	}
	if len(questions) == 0 {
		return model.Bank{}, &quiz.LoadError{Source: filename, Err: quiz.ErrEmptyBank}
	}
	if len(dropped) > 0 {
		s.log.Debug().Str("file", filename).Int("dropped", len(dropped)).Msg("dropped invalid records")
	}
	return model.NewBank(repository.BankName(filename), questions, false), nil
}

func (s *BankService) loadCustom(ctx context.Context) ([]model.Bank, error) {
	key := config.StorageKey.CustomBanks

	raw, err := s.store.Get(ctx, key)
	if errors.Is(err, repository.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &quiz.LoadError{Source: key, Err: err}
	}

	var stored []storedBank
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, &quiz.LoadError{Source: key, Err: err}
	}

	banks := make([]model.Bank, 0, len(stored))
	for _, sb := range stored {
		questions, _ := quiz.Normalize(sb.Questions)
		if sb.Name == "" || len(questions) == 0 {
			s.log.Warn().Str("bank", sb.Name).Msg("skipping empty stored custom bank")
			continue
		}
		banks = append(banks, model.NewBank(sb.Name, questions, true))
	}
	return banks, nil
}

func (s *BankService) remergeLocked() {
	s.merged = quiz.MergeBanks(s.builtin, s.custom)
}

// List returns the merged bank summaries in display order.
func (s *BankService) List() []model.BankSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.BankSummary, len(s.merged))
	for i, b := range s.merged {
		out[i] = b.Summary()
	}
	return out
}

// Get returns the merged bank called name. The returned questions must be
// treated as read-only.
func (s *BankService) Get(name string) (model.Bank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := quiz.FindBank(s.merged, name)
	if !ok {
		return model.Bank{}, ErrBankNotFound
	}
	b.Questions = slices.Clone(b.Questions)
	return b, nil
}

// Question finds a question of bank by id, in stored (unshuffled) form.
func (s *BankService) Question(name string, id int) (model.Question, error) {
	b, err := s.Get(name)
	if err != nil {
		return model.Question{}, err
	}
	for _, q := range b.Questions {
		if q.ID != nil && *q.ID == id {
			return q.Clone(), nil
		}
	}
	return model.Question{}, ErrQuestionNotFound
}

// Upload parses a JSONL file into a custom bank named after the file. A
// custom bank with the same name is replaced; a bundled one is shadowed.
// On a *PersistenceError the bank is still available in memory.
func (s *BankService) Upload(ctx context.Context, filename string, r io.Reader, size int64) (model.UploadResult, error) {
	if !strings.EqualFold(filepath.Ext(filename), repository.BankExt) {
		return model.UploadResult{}, ErrUnsupportedBankFile
	}
	if s.maxUploadBytes > 0 && size > s.maxUploadBytes {
		return model.UploadResult{}, ErrBankFileTooLarge
	}

	limited := r
	if s.maxUploadBytes > 0 {
		limited = io.LimitReader(r, s.maxUploadBytes+1)
	}
	data, err := io.ReadAll(limited)
	if err != nil {
		return model.UploadResult{}, fmt.Errorf("read upload: %w", err)
	}
	if s.maxUploadBytes > 0 && int64(len(data)) > s.maxUploadBytes {
		return model.UploadResult{}, ErrBankFileTooLarge
	}

	questions, dropped, err := quiz.ParseJSONL(bytes.NewReader(data))
	if err != nil {
		return model.UploadResult{}, &quiz.LoadError{Source: filename, Err: err}
	}
	if len(questions) == 0 {
		return model.UploadResult{}, &quiz.LoadError{Source: filename, Err: quiz.ErrEmptyBank}
	}

	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	bank := model.NewBank(name, questions, true)

	s.mu.Lock()
	if i := s.customIndexLocked(name); i >= 0 {
		s.custom[i] = bank
	} else {
		s.custom = append(s.custom, bank)
	}
	s.remergeLocked()
	perr := s.persistCustomLocked(ctx)
	s.mu.Unlock()

	s.log.Info().Str("bank", name).Int("count", bank.Count).Int("dropped", len(dropped)).Msg("custom bank uploaded")

	return model.UploadResult{Bank: bank.Summary(), Dropped: len(dropped)}, perr
}

// Delete removes a custom bank. A bundled bank it shadowed becomes
// visible again.
func (s *BankService) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.customIndexLocked(name)
	if i < 0 {
		if _, ok := quiz.FindBank(s.merged, name); ok {
			return ErrBankNotCustom
		}
		return ErrBankNotFound
	}

	s.custom = slices.Delete(s.custom, i, i+1)
	s.remergeLocked()
	s.log.Info().Str("bank", name).Msg("custom bank deleted")
	return s.persistCustomLocked(ctx)
}

func (s *BankService) customIndexLocked(name string) int {
	return slices.IndexFunc(s.custom, func(b model.Bank) bool { return b.Name == name })
}

func (s *BankService) persistCustomLocked(ctx context.Context) error {
	key := config.StorageKey.CustomBanks

	out := make([]model.Bank, len(s.custom))
	for i, b := range s.custom {
		out[i] = model.NewBank(b.Name, b.Questions, true)
	}
	data, err := json.Marshal(out)
	if err == nil {
		err = s.store.Set(ctx, key, data)
	}
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to persist custom banks")
		return &PersistenceError{Key: key, Err: err}
	}
	return nil
}
