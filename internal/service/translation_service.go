package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-drill/internal/config"
	"github.com/stemsi/exstem-drill/internal/model"
	"golang.org/x/sync/errgroup"
)

// batchConcurrency bounds outbound requests made by TranslateBatch.
const batchConcurrency = 4

// TranslationService translates question text through the gtx endpoint.
// Results are cached in memory and, when Redis is configured, in Redis.
// Failures fall back to the original text and are not cached.
type TranslationService struct {
	client   *http.Client
	endpoint string
	lang     string
	rdb      *redis.Client
	ttl      time.Duration
	log      zerolog.Logger

	mu    sync.RWMutex
	cache map[string]string
}

// NewTranslationService builds the client. rdb may be nil.
func NewTranslationService(cfg *config.Config, rdb *redis.Client, log zerolog.Logger) *TranslationService {
	return &TranslationService{
		client:   &http.Client{Timeout: cfg.TranslateTimeout},
		endpoint: cfg.TranslateEndpoint,
		lang:     cfg.TranslateTargetLang,
		rdb:      rdb,
		ttl:      cfg.TranslateCacheTTL,
		log:      log.With().Str("component", "translation_service").Logger(),
		cache:    make(map[string]string),
	}
}

func (s *TranslationService) Language() string { return s.lang }

// Translate returns text in the target language, or text itself when the
// lookup fails. Blank text translates to "".
func (s *TranslationService) Translate(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	memKey := text + "_" + s.lang
	s.mu.RLock()
	cached, ok := s.cache[memKey]
	s.mu.RUnlock()
	if ok {
		return cached
	}

	redisKey := config.StorageKey.Translation(s.lang, text)
	if s.rdb != nil {
		v, err := s.rdb.Get(ctx, redisKey).Result()
		if err == nil && v != "" {
			s.remember(memKey, v)
			return v
		}
		if err != nil && !errors.Is(err, redis.Nil) {
			s.log.Debug().Err(err).Msg("redis translation cache unavailable")
		}
	}

	translated, err := s.fetch(ctx, text)
	if err != nil || translated == "" {
		s.log.Warn().Err(err).Int("chars", len(text)).Msg("translation failed, using original text")
		return text
	}

	s.remember(memKey, translated)
	if s.rdb != nil {
		if err := s.rdb.Set(ctx, redisKey, translated, s.ttl).Err(); err != nil {
			s.log.Debug().Err(err).Msg("failed to cache translation in redis")
		}
	}
	return translated
}

func (s *TranslationService) remember(key, value string) {
	s.mu.Lock()
	s.cache[key] = value
	s.mu.Unlock()
}

// TranslateBatch translates texts concurrently and keeps their order.
func (s *TranslationService) TranslateBatch(ctx context.Context, texts []string) []string {
	out := make([]string, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, text := range texts {
		g.Go(func() error {
			out[i] = s.Translate(gctx, text)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// TranslateQuestion translates a question's stem and options. index tags
// the result with the question position it was requested for.
func (s *TranslationService) TranslateQuestion(ctx context.Context, index int, q model.Question) model.QuestionTranslation {
	texts := make([]string, 0, len(q.Options)+1)
	texts = append(texts, q.Question)
	for _, o := range q.Options {
		texts = append(texts, o.Text)
	}
	translated := s.TranslateBatch(ctx, texts)

	tr := model.QuestionTranslation{
		Index:    index,
		Language: s.lang,
		Question: translated[0],
		Options:  make([]model.Option, len(q.Options)),
	}
	for i, o := range q.Options {
		tr.Options[i] = model.Option{Key: o.Key, Text: translated[i+1]}
	}
	return tr
}

// fetch calls the gtx endpoint and concatenates the translated segments
// found at data[0][*][0].
func (s *TranslationService) fetch(ctx context.Context, text string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", "auto")
	q.Set("tl", s.lang)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("translate endpoint returned %d", resp.StatusCode)
	}

	var data []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("decode translation: %w", err)
	}
	if len(data) == 0 {
		return "", nil
	}

	var segments []json.RawMessage
	if err := json.Unmarshal(data[0], &segments); err != nil {
		return "", nil
	}

	var b strings.Builder
	for _, seg := range segments {
		var parts []json.RawMessage
		if err := json.Unmarshal(seg, &parts); err != nil || len(parts) == 0 {
			continue
		}
		var piece string
		if err := json.Unmarshal(parts[0], &piece); err == nil {
			b.WriteString(piece)
		}
	}
	return b.String(), nil
}
