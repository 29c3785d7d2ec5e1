package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-drill/internal/config"
	"github.com/stemsi/exstem-drill/internal/model"
	"github.com/stemsi/exstem-drill/internal/quiz"
	"github.com/stemsi/exstem-drill/internal/repository"
)

const scenarioJSONL = `{"id":1,"question":"Q1","options":{"A":"a1","B":"b1"},"answer":["A"]}
{"id":2,"question":"Q2","options":{"A":"a2","B":"b2"},"answer":["A"]}
{"id":3,"question":"Q3","options":{"A":"a3","B":"b3","C":"c3"},"answer":["A","C"],"explanation":"both"}
`

// failingStore wraps a KVStore and fails Set while fail is true.
type failingStore struct {
	repository.KVStore
	fail atomic.Bool
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if f.fail.Load() {
		return errors.New("quota exceeded")
	}
	return f.KVStore.Set(ctx, key, value)
}

func writeBankDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	var names []string
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		names = append(names, name)
	}
	if err := repository.NewBankCatalogRepository(dir).WriteCatalog(names); err != nil {
		t.Fatal(err)
	}
	return dir
}

func ptr[T any](v T) *T { return &v }

// ─── Practice ledger ──────────────────────────────────────────────────

func TestPracticeHistoryCappedMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	svc := NewPracticeService(repository.NewMemoryKVStore(), zerolog.Nop())

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 15; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		svc.now = func() time.Time { return at }
		if err := svc.Record(ctx, "net", 7, i%2 == 0, []string{fmt.Sprint(i)}); err != nil {
			t.Fatal(err)
		}
	}

	rec, ok := svc.Get("net", 7)
	if !ok {
		t.Fatal("record missing")
	}
	if rec.PracticeCount != 15 || rec.CorrectCount != 7 || rec.WrongCount != 8 {
		t.Errorf("counts = %d/%d/%d", rec.PracticeCount, rec.CorrectCount, rec.WrongCount)
	}
	if len(rec.History) != model.HistoryLimit {
		t.Fatalf("history length = %d, want %d", len(rec.History), model.HistoryLimit)
	}
	if rec.History[0].UserAnswer != "15" || rec.History[9].UserAnswer != "6" {
		t.Errorf("history order = %q .. %q", rec.History[0].UserAnswer, rec.History[9].UserAnswer)
	}
	if !rec.LastPracticed.Equal(base.Add(15 * time.Minute)) {
		t.Errorf("last practiced = %v", rec.LastPracticed)
	}
}

func TestPracticeWrongSetFollowsMostRecentAttempt(t *testing.T) {
	ctx := context.Background()
	svc := NewPracticeService(repository.NewMemoryKVStore(), zerolog.Nop())

	svc.Record(ctx, "net", 1, false, []string{"B"})
	svc.Record(ctx, "net", 1, true, []string{"A"})
	svc.Record(ctx, "net", 4, false, []string{"C"})
	svc.Record(ctx, "net", 2, false, []string{"A", "C"})
	svc.Record(ctx, "other", 9, false, []string{"A"})

	stats := svc.Stats("net")
	if stats.PracticedCount != 3 {
		t.Errorf("practiced = %d, want 3", stats.PracticedCount)
	}
	if want := []int{2, 4}; !reflect.DeepEqual(stats.WrongQuestionIDs, want) {
		t.Errorf("wrong ids = %v, want %v", stats.WrongQuestionIDs, want)
	}

	rec, _ := svc.Get("net", 2)
	if rec.History[0].UserAnswer != "A,C" {
		t.Errorf("user answer = %q, want A,C", rec.History[0].UserAnswer)
	}
}

func TestPracticePersistAndReload(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryKVStore()

	first := NewPracticeService(store, zerolog.Nop())
	first.Record(ctx, "net", 3, false, []string{"B"})

	second := NewPracticeService(store, zerolog.Nop())
	if err := second.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if got := second.Stats("net").WrongQuestionIDs; !reflect.DeepEqual(got, []int{3}) {
		t.Errorf("reloaded wrong ids = %v", got)
	}

	if err := second.Clear(ctx, "net"); err != nil {
		t.Fatal(err)
	}
	third := NewPracticeService(store, zerolog.Nop())
	third.Load(ctx)
	if stats := third.Stats("net"); stats.PracticedCount != 0 {
		t.Errorf("cleared bank still has %d records", stats.PracticedCount)
	}
}

func TestPracticeLoadCorruptBlob(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryKVStore()
	store.Set(ctx, config.StorageKey.PracticeHistory, []byte("{not json"))

	svc := NewPracticeService(store, zerolog.Nop())
	if err := svc.Load(ctx); err != nil {
		t.Fatalf("corrupt blob must not fail Load: %v", err)
	}
	if stats := svc.Stats("net"); stats.PracticedCount != 0 {
		t.Errorf("expected empty ledger, got %+v", stats)
	}
}

func TestPracticePersistenceErrorSurfacedOncePerStreak(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{KVStore: repository.NewMemoryKVStore()}
	svc := NewPracticeService(store, zerolog.Nop())

	store.fail.Store(true)

	err := svc.Record(ctx, "net", 1, false, []string{"B"})
	pe, ok := AsPersistenceError(err)
	if !ok || pe.Key != config.StorageKey.PracticeHistory {
		t.Fatalf("first failure = %v, want *PersistenceError", err)
	}
	if err := svc.Record(ctx, "net", 2, false, []string{"B"}); err != nil {
		t.Errorf("second failure of the streak should be quiet, got %v", err)
	}
	if got := svc.Stats("net").WrongQuestionIDs; !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("in-memory ledger lost updates: %v", got)
	}

	store.fail.Store(false)
	if err := svc.Record(ctx, "net", 3, true, []string{"A"}); err != nil {
		t.Fatal(err)
	}
	store.fail.Store(true)
	if _, ok := AsPersistenceError(svc.Record(ctx, "net", 3, true, []string{"A"})); !ok {
		t.Error("a new streak must surface its first failure again")
	}
}

// ─── Banks ────────────────────────────────────────────────────────────

func newBankService(t *testing.T, files map[string]string, store repository.KVStore) *BankService {
	t.Helper()
	dir := writeBankDir(t, files)
	svc := NewBankService(repository.NewBankCatalogRepository(dir), store, 1024, zerolog.Nop())
	svc.Load(context.Background())
	return svc
}

func TestBankLoadSkipsUnusableFiles(t *testing.T) {
	dir := writeBankDir(t, map[string]string{
		"net.jsonl":   scenarioJSONL,
		"empty.jsonl": "not json\n{\"question\":\"x\"}\n",
	})
	svc := NewBankService(repository.NewBankCatalogRepository(dir), repository.NewMemoryKVStore(), 0, zerolog.Nop())

	problems := svc.Load(context.Background())
	if len(problems) != 1 {
		t.Fatalf("problems = %v, want one", problems)
	}
	var le *quiz.LoadError
	if !errors.As(problems[0], &le) || !errors.Is(le, quiz.ErrEmptyBank) {
		t.Errorf("problem = %v, want LoadError wrapping ErrEmptyBank", problems[0])
	}

	list := svc.List()
	if len(list) != 1 || list[0].Name != "net" || list[0].Count != 3 || list[0].IsCustom {
		t.Errorf("list = %+v", list)
	}
}

func TestBankLoadWithoutCatalog(t *testing.T) {
	svc := NewBankService(repository.NewBankCatalogRepository(t.TempDir()), repository.NewMemoryKVStore(), 0, zerolog.Nop())
	if problems := svc.Load(context.Background()); len(problems) != 1 {
		t.Errorf("problems = %v", problems)
	}
	if len(svc.List()) != 0 {
		t.Error("expected no banks")
	}
}

func TestUploadShadowsBuiltinAndDeleteRestoresIt(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryKVStore()
	svc := newBankService(t, map[string]string{"net.jsonl": scenarioJSONL}, store)

	upload := `{"id":10,"question":"custom","options":{"A":"x","B":"y"},"answer":["B"]}
garbage
`
	res, err := svc.Upload(ctx, "net.jsonl", strings.NewReader(upload), int64(len(upload)))
	if err != nil {
		t.Fatal(err)
	}
	if res.Dropped != 1 || res.Bank.Count != 1 || !res.Bank.IsCustom {
		t.Errorf("upload result = %+v", res)
	}

	list := svc.List()
	if len(list) != 1 || !list[0].IsCustom || list[0].Count != 1 {
		t.Fatalf("merged list = %+v, want one custom entry", list)
	}

	// A second service sees the custom bank through the store.
	reloaded := newBankService(t, map[string]string{"net.jsonl": scenarioJSONL}, store)
	if got := reloaded.List(); len(got) != 1 || !got[0].IsCustom {
		t.Errorf("reloaded list = %+v", got)
	}

	if err := svc.Delete(ctx, "net"); err != nil {
		t.Fatal(err)
	}
	list = svc.List()
	if len(list) != 1 || list[0].IsCustom || list[0].Count != 3 {
		t.Errorf("after delete = %+v, want built-in net back", list)
	}

	if err := svc.Delete(ctx, "net"); !errors.Is(err, ErrBankNotCustom) {
		t.Errorf("deleting built-in = %v, want ErrBankNotCustom", err)
	}
	if err := svc.Delete(ctx, "nope"); !errors.Is(err, ErrBankNotFound) {
		t.Errorf("deleting unknown = %v, want ErrBankNotFound", err)
	}
}

func TestUploadRejections(t *testing.T) {
	ctx := context.Background()
	svc := newBankService(t, map[string]string{"net.jsonl": scenarioJSONL}, repository.NewMemoryKVStore())

	if _, err := svc.Upload(ctx, "bank.json", strings.NewReader(scenarioJSONL), 10); !errors.Is(err, ErrUnsupportedBankFile) {
		t.Errorf("extension: %v", err)
	}
	big := strings.Repeat("x", 2048)
	if _, err := svc.Upload(ctx, "big.jsonl", strings.NewReader(big), -1); !errors.Is(err, ErrBankFileTooLarge) {
		t.Errorf("size: %v", err)
	}
	_, err := svc.Upload(ctx, "empty.jsonl", strings.NewReader("\n\n"), 2)
	var le *quiz.LoadError
	if !errors.As(err, &le) || !errors.Is(err, quiz.ErrEmptyBank) {
		t.Errorf("empty: %v", err)
	}
}

func TestUploadPersistenceFailureKeepsBank(t *testing.T) {
	store := &failingStore{KVStore: repository.NewMemoryKVStore()}
	svc := newBankService(t, map[string]string{"net.jsonl": scenarioJSONL}, store)
	store.fail.Store(true)

	_, err := svc.Upload(context.Background(), "extra.jsonl", strings.NewReader(scenarioJSONL), 0)
	if _, ok := AsPersistenceError(err); !ok {
		t.Fatalf("err = %v, want *PersistenceError", err)
	}
	if _, err := svc.Get("extra"); err != nil {
		t.Errorf("bank should stay available in memory: %v", err)
	}
}

// ─── Preferences ──────────────────────────────────────────────────────

func TestPreferences(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryKVStore()
	svc := NewPreferenceService(store, zerolog.Nop())
	if err := svc.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if svc.TranslateEnabled() {
		t.Fatal("translation must default to disabled")
	}

	if _, err := svc.SetTranslateEnabled(ctx, true); err != nil {
		t.Fatal(err)
	}
	raw, _ := store.Get(ctx, config.StorageKey.TranslatePreference)
	if string(raw) != "true" {
		t.Errorf("stored value = %q", raw)
	}

	other := NewPreferenceService(store, zerolog.Nop())
	if err := other.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if !other.TranslateEnabled() {
		t.Error("preference not reloaded")
	}
}

// getFailingStore fails every Get.
type getFailingStore struct {
	repository.KVStore
}

func (getFailingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk unreadable")
}

func TestPreferencesLoadFailures(t *testing.T) {
	ctx := context.Background()

	store := repository.NewMemoryKVStore()
	if err := store.Set(ctx, config.StorageKey.TranslatePreference, []byte("maybe")); err != nil {
		t.Fatal(err)
	}
	svc := NewPreferenceService(store, zerolog.Nop())
	if err := svc.Load(ctx); err != nil {
		t.Fatalf("malformed value should not fail load: %v", err)
	}
	if svc.TranslateEnabled() {
		t.Error("malformed value must leave translation disabled")
	}

	broken := NewPreferenceService(getFailingStore{repository.NewMemoryKVStore()}, zerolog.Nop())
	err := broken.Load(ctx)
	if err == nil || !strings.Contains(err.Error(), "disk unreadable") {
		t.Fatalf("err = %v, want wrapped store error", err)
	}
	if broken.TranslateEnabled() {
		t.Error("failed load must leave translation disabled")
	}
}

// ─── Translation ──────────────────────────────────────────────────────

type gtxServer struct {
	*httptest.Server
	calls atomic.Int32
	fail  atomic.Bool
	hook  func(text string)
}

func newGTXServer(t *testing.T) *gtxServer {
	t.Helper()
	g := &gtxServer{}
	g.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.calls.Add(1)
		q := r.URL.Query()
		if q.Get("client") != "gtx" || q.Get("dt") != "t" || q.Get("sl") != "auto" {
			http.Error(w, "bad params", http.StatusBadRequest)
			return
		}
		if g.fail.Load() {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		text := q.Get("q")
		if g.hook != nil {
			g.hook(text)
		}
		// Two segments so concatenation is exercised.
		body := []any{
			[]any{
				[]any{"[" + q.Get("tl") + "]", text, nil},
				[]any{text, text, nil},
			},
			nil,
			"en",
		}
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(g.Close)
	return g
}

func newTranslator(url string) *TranslationService {
	cfg := &config.Config{
		TranslateEndpoint:   url,
		TranslateTargetLang: "zh-TW",
		TranslateTimeout:    2 * time.Second,
		TranslateCacheTTL:   time.Hour,
	}
	return NewTranslationService(cfg, nil, zerolog.Nop())
}

func TestTranslateCachesAndFallsBack(t *testing.T) {
	ctx := context.Background()
	srv := newGTXServer(t)
	tr := newTranslator(srv.URL)

	if got := tr.Translate(ctx, "hello"); got != "[zh-TW]hello" {
		t.Errorf("Translate = %q", got)
	}
	tr.Translate(ctx, "hello")
	if n := srv.calls.Load(); n != 1 {
		t.Errorf("calls = %d, second lookup should hit the cache", n)
	}

	if got := tr.Translate(ctx, "   "); got != "" {
		t.Errorf("blank text = %q", got)
	}

	srv.fail.Store(true)
	if got := tr.Translate(ctx, "bye"); got != "bye" {
		t.Errorf("fallback = %q, want original text", got)
	}
	srv.fail.Store(false)
	if got := tr.Translate(ctx, "bye"); got != "[zh-TW]bye" {
		t.Errorf("failure must not be cached, got %q", got)
	}
}

func TestTranslateBatchKeepsOrder(t *testing.T) {
	tr := newTranslator(newGTXServer(t).URL)
	in := []string{"one", "two", "three", "four", "five", "six"}
	out := tr.TranslateBatch(context.Background(), in)
	for i, text := range in {
		if out[i] != "[zh-TW]"+text {
			t.Errorf("out[%d] = %q", i, out[i])
		}
	}
}

// ─── Quiz service ─────────────────────────────────────────────────────

type quizFixture struct {
	quiz     *QuizService
	banks    *BankService
	practice *PracticeService
	prefs    *PreferenceService
	gtx      *gtxServer
}

type recordingPrefetcher struct {
	mu    sync.Mutex
	texts []string
}

func (p *recordingPrefetcher) Enqueue(texts ...string) {
	p.mu.Lock()
	p.texts = append(p.texts, texts...)
	p.mu.Unlock()
}

func newQuizFixture(t *testing.T, prefetch Prefetcher) *quizFixture {
	t.Helper()
	store := repository.NewMemoryKVStore()
	f := &quizFixture{
		banks:    newBankService(t, map[string]string{"net.jsonl": scenarioJSONL}, store),
		practice: NewPracticeService(store, zerolog.Nop()),
		prefs:    NewPreferenceService(store, zerolog.Nop()),
		gtx:      newGTXServer(t),
	}
	f.quiz = NewQuizService(f.banks, f.practice, f.prefs, newTranslator(f.gtx.URL), quiz.NewBuilder(quiz.NewSeededSource(1)), prefetch, zerolog.Nop())
	return f
}

func ordered(bank, mode string) model.StartSessionRequest {
	return model.StartSessionRequest{
		Bank:             bank,
		Mode:             mode,
		ShuffleQuestions: ptr(false),
		ShuffleOptions:   ptr(false),
	}
}

func TestQuizServiceScenario(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(t, nil)

	snap, err := f.quiz.Start(ctx, ordered("net", "all"))
	if err != nil {
		t.Fatal(err)
	}
	id := snap.SessionID
	if id == "" || snap.Total != 3 || snap.Question.Text != "Q1" {
		t.Fatalf("start snapshot = %+v", snap)
	}

	steps := [][]string{{"A"}, {"B"}, {"A", "C"}}
	for i, letters := range steps {
		for _, l := range letters {
			if _, err := f.quiz.Select(id, l); err != nil {
				t.Fatalf("q%d select %s: %v", i+1, l, err)
			}
		}
		snap, err := f.quiz.Submit(ctx, id)
		if err != nil {
			t.Fatalf("q%d submit: %v", i+1, err)
		}
		if snap.Grading == nil {
			t.Fatalf("q%d: no grading in snapshot", i+1)
		}
		if i < len(steps)-1 {
			if _, err := f.quiz.Next(id); err != nil {
				t.Fatal(err)
			}
		}
	}

	if _, err := f.quiz.Result(id); !errors.Is(err, ErrSessionNotCompleted) {
		t.Errorf("result before completion = %v", err)
	}
	if snap, _ := f.quiz.End(id); snap.State != model.SessionStateCompleted || snap.Question != nil {
		t.Errorf("end snapshot = %+v", snap)
	}

	res, err := f.quiz.Result(id)
	if err != nil {
		t.Fatal(err)
	}
	if res.Correct != 2 || res.Incorrect != 1 || res.Total != 3 || res.Percent != 67 {
		t.Errorf("result = %+v", res)
	}
	review, _ := f.quiz.Review(id)
	if len(review) != 1 || *review[0].Question.ID != 2 {
		t.Errorf("review = %+v", review)
	}

	if got := f.practice.Stats("net").WrongQuestionIDs; !reflect.DeepEqual(got, []int{2}) {
		t.Fatalf("wrong ids = %v", got)
	}

	wrong, err := f.quiz.Start(ctx, ordered("net", "wrong"))
	if err != nil {
		t.Fatal(err)
	}
	if wrong.Total != 1 || *wrong.Question.ID != 2 {
		t.Errorf("wrong session = %+v", wrong)
	}
	if _, err := f.quiz.Snapshot(id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("old session should be replaced, got %v", err)
	}
}

func TestQuizServiceEmptyWrongSet(t *testing.T) {
	f := newQuizFixture(t, nil)
	if _, err := f.quiz.Start(context.Background(), ordered("net", "wrong")); !errors.Is(err, quiz.ErrEmptyWrongSet) {
		t.Errorf("err = %v, want ErrEmptyWrongSet", err)
	}
	if _, err := f.quiz.Start(context.Background(), ordered("missing", "all")); !errors.Is(err, ErrBankNotFound) {
		t.Errorf("err = %v, want ErrBankNotFound", err)
	}
}

func TestQuizServiceRestartAndDiscard(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(t, nil)

	snap, _ := f.quiz.Start(ctx, ordered("net", "custom"))
	restarted, err := f.quiz.Restart(ctx, snap.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if restarted.SessionID == snap.SessionID || restarted.Total != 3 || restarted.Index != 0 {
		t.Errorf("restart snapshot = %+v", restarted)
	}

	if err := f.quiz.Discard(restarted.SessionID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.quiz.Snapshot(restarted.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("after discard = %v", err)
	}
}

func TestQuizServiceSubmitPersistenceWarning(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{KVStore: repository.NewMemoryKVStore()}
	banks := newBankService(t, map[string]string{"net.jsonl": scenarioJSONL}, store)
	practice := NewPracticeService(store, zerolog.Nop())
	svc := NewQuizService(banks, practice, nil, nil, nil, nil, zerolog.Nop())

	snap, _ := svc.Start(ctx, ordered("net", "all"))
	svc.Select(snap.SessionID, "B")
	store.fail.Store(true)

	got, err := svc.Submit(ctx, snap.SessionID)
	if _, ok := AsPersistenceError(err); !ok {
		t.Fatalf("err = %v, want *PersistenceError", err)
	}
	if got.State != model.SessionStateSubmitted || got.Notice != PersistenceNotice {
		t.Errorf("snapshot = %+v", got)
	}
	if stats := practice.Stats("net"); stats.PracticedCount != 1 {
		t.Errorf("in-memory ledger should keep the attempt: %+v", stats)
	}
}

func TestQuizServicePrefetchesWhenEnabled(t *testing.T) {
	ctx := context.Background()
	pf := &recordingPrefetcher{}
	f := newQuizFixture(t, pf)

	f.quiz.Start(ctx, ordered("net", "all"))
	if len(pf.texts) != 0 {
		t.Fatalf("prefetched %d texts while disabled", len(pf.texts))
	}

	f.prefs.SetTranslateEnabled(ctx, true)
	f.quiz.Start(ctx, ordered("net", "all"))
	// 3 stems + 2 + 2 + 3 options
	if len(pf.texts) != 10 {
		t.Errorf("prefetched %d texts, want 10", len(pf.texts))
	}
}

func TestQuizServiceTranslate(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(t, nil)
	snap, _ := f.quiz.Start(ctx, ordered("net", "all"))

	tr, err := f.quiz.Translate(ctx, snap.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Index != 0 || tr.Question != "[zh-TW]Q1" || len(tr.Options) != 2 || tr.Options[1].Text != "[zh-TW]b1" {
		t.Errorf("translation = %+v", tr)
	}
}

func TestQuizServiceTranslateDiscardsStaleResult(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(t, nil)
	snap, _ := f.quiz.Start(ctx, ordered("net", "all"))
	id := snap.SessionID

	var once sync.Once
	f.gtx.hook = func(string) {
		once.Do(func() {
			// The user answers and moves on while the lookup is in flight.
			f.quiz.Select(id, "A")
			f.quiz.Submit(ctx, id)
			f.quiz.Next(id)
		})
	}

	if _, err := f.quiz.Translate(ctx, id); !errors.Is(err, ErrStaleTranslation) {
		t.Fatalf("err = %v, want ErrStaleTranslation", err)
	}
	if snap, _ := f.quiz.Snapshot(id); snap.Index != 1 {
		t.Errorf("index = %d, want 1", snap.Index)
	}
}

func TestLookupQuestion(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(t, nil)

	got, err := f.quiz.LookupQuestion("net", 2)
	if err != nil {
		t.Fatal(err)
	}
	if got.Question.Question != "Q2" || got.Practice != nil {
		t.Errorf("unpracticed lookup = %+v", got)
	}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.practice.now = func() time.Time { return at }
	f.practice.Record(ctx, "net", 2, false, []string{"B"})
	f.quiz.now = func() time.Time { return at.Add(3 * time.Hour) }

	got, _ = f.quiz.LookupQuestion("net", 2)
	if got.Practice == nil || got.Practice.WrongCount != 1 || got.LastPracticedHuman != "3 hours ago" {
		t.Errorf("practiced lookup = %+v", got)
	}

	if _, err := f.quiz.LookupQuestion("net", 99); !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("missing id = %v", err)
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.Local)
	cases := []struct {
		ago  time.Duration
		want string
	}{
		{30 * time.Second, "just now"},
		{5 * time.Minute, "5 minutes ago"},
		{2 * time.Hour, "2 hours ago"},
		{3 * 24 * time.Hour, "3 days ago"},
		{10 * 24 * time.Hour, "2026-05-10"},
	}
	for _, c := range cases {
		if got := relativeTime(now.Add(-c.ago), now); got != c.want {
			t.Errorf("relativeTime(-%v) = %q, want %q", c.ago, got, c.want)
		}
	}
}
