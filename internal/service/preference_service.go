package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-drill/internal/config"
	"github.com/stemsi/exstem-drill/internal/model"
	"github.com/stemsi/exstem-drill/internal/repository"
)

// PreferenceService holds the user's preferences and persists every change.
type PreferenceService struct {
	store repository.KVStore
	log   zerolog.Logger

	mu    sync.RWMutex
	prefs model.Preferences
}

func NewPreferenceService(store repository.KVStore, log zerolog.Logger) *PreferenceService {
	return &PreferenceService{
		store: store,
		log:   log.With().Str("component", "preference_service").Logger(),
	}
}

// Load reads the stored preference. A missing or malformed value leaves
// translation disabled; only store failures are returned.
func (s *PreferenceService) Load(ctx context.Context) error {
	key := config.StorageKey.TranslatePreference

	raw, err := s.store.Get(ctx, key)
	if errors.Is(err, repository.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load translate preference: %w", err)
	}

	enabled, err := strconv.ParseBool(string(raw))
	if err != nil {
		s.log.Warn().Str("key", key).Str("value", string(raw)).Msg("ignoring malformed translate preference")
		return nil
	}

	s.mu.Lock()
	s.prefs.TranslateEnabled = enabled
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the current preferences.
func (s *PreferenceService) Get() model.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// TranslateEnabled reports whether translations are prefetched.
func (s *PreferenceService) TranslateEnabled() bool {
	return s.Get().TranslateEnabled
}

// SetTranslateEnabled updates the preference in memory and persists it as
// "true" or "false". A *PersistenceError leaves the new value in effect.
func (s *PreferenceService) SetTranslateEnabled(ctx context.Context, enabled bool) (model.Preferences, error) {
	s.mu.Lock()
	s.prefs.TranslateEnabled = enabled
	prefs := s.prefs
	s.mu.Unlock()

	key := config.StorageKey.TranslatePreference
	if err := s.store.Set(ctx, key, []byte(strconv.FormatBool(enabled))); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to persist translate preference")
		return prefs, &PersistenceError{Key: key, Err: err}
	}
	return prefs, nil
}
