package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-drill/internal/config"
	"github.com/stemsi/exstem-drill/internal/handler"
	"github.com/stemsi/exstem-drill/internal/model"
	"github.com/stemsi/exstem-drill/internal/quiz"
	"github.com/stemsi/exstem-drill/internal/repository"
	"github.com/stemsi/exstem-drill/internal/service"
	"github.com/stemsi/exstem-drill/internal/validator"
)

const scenarioJSONL = `{"id":1,"question":"Q1","options":{"A":"a1","B":"b1"},"answer":["A"]}
{"id":2,"question":"Q2","options":{"A":"a2","B":"b2"},"answer":["A"]}
{"id":3,"question":"Q3","options":{"A":"a3","B":"b3","C":"c3"},"answer":["A","C"]}
`

type failingStore struct {
	repository.KVStore
	fail atomic.Bool
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if f.fail.Load() {
		return errors.New("disk full")
	}
	return f.KVStore.Set(ctx, key, value)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
	Pagination *struct {
		TotalItems int `json:"total_items"`
		TotalPages int `json:"total_pages"`
	} `json:"pagination"`
	Metadata struct {
		RequestID string `json:"request_id"`
		Warning   string `json:"warning"`
	} `json:"metadata"`
}

type testApp struct {
	t      *testing.T
	engine *gin.Engine
	store  *failingStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.Setup()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "net.jsonl"), []byte(scenarioJSONL), 0o644); err != nil {
		t.Fatal(err)
	}
	catalog := repository.NewBankCatalogRepository(dir)
	if err := catalog.WriteCatalog([]string{"net.jsonl"}); err != nil {
		t.Fatal(err)
	}

	gtx := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		json.NewEncoder(w).Encode([]any{[]any{[]any{"tr:" + q, q}}})
	}))
	t.Cleanup(gtx.Close)

	cfg := &config.Config{
		GinMode:                gin.TestMode,
		MaxUploadBytes:         1 << 20,
		TranslateEndpoint:      gtx.URL,
		TranslateTargetLang:    "zh-TW",
		TranslateTimeout:       2 * time.Second,
		TranslateRatePerMinute: 100,
	}
	log := zerolog.Nop()
	store := &failingStore{KVStore: repository.NewMemoryKVStore()}

	banks := service.NewBankService(catalog, store, cfg.MaxUploadBytes, log)
	banks.Load(context.Background())
	practice := service.NewPracticeService(store, log)
	prefs := service.NewPreferenceService(store, log)
	translator := service.NewTranslationService(cfg, nil, log)
	quizSvc := service.NewQuizService(banks, practice, prefs, translator, quiz.NewBuilder(quiz.NewSeededSource(7)), nil, log)

	engine := SetupRouter(&Handlers{
		Bank:       handler.NewBankHandler(banks, quizSvc),
		Practice:   handler.NewPracticeHandler(banks, practice),
		Session:    handler.NewSessionHandler(quizSvc),
		Preference: handler.NewPreferenceHandler(prefs),
		WS:         handler.NewWSHandler(quizSvc, log, nil),
	}, cfg)

	return &testApp{t: t, engine: engine, store: store}
}

func (a *testApp) do(method, path string, body any) (int, envelope) {
	a.t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		rdr = bytes.NewReader(raw)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	return a.serve(req)
}

func (a *testApp) serve(req *http.Request) (int, envelope) {
	a.t.Helper()
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		a.t.Fatalf("%s %s: bad envelope %q: %v", req.Method, req.URL, w.Body.String(), err)
	}
	return w.Code, env
}

func (a *testApp) upload(filename, content string) (int, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", filename)
	fw.Write([]byte(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/banks/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.serve(req)
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

func errCode(env envelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

var orderedAll = map[string]any{
	"bank":              "net",
	"mode":              "all",
	"shuffle_questions": false,
	"shuffle_options":   false,
}

func (a *testApp) start(body map[string]any) model.SessionSnapshot {
	a.t.Helper()
	code, env := a.do(http.MethodPost, "/api/v1/sessions", body)
	if code != http.StatusCreated {
		a.t.Fatalf("start = %d %s", code, errCode(env))
	}
	return decode[model.SessionSnapshot](a.t, env.Data)
}

func TestHealth(t *testing.T) {
	a := newTestApp(t)
	code, env := a.do(http.MethodGet, "/health", nil)
	if code != http.StatusOK || env.Metadata.RequestID == "" {
		t.Errorf("health = %d %+v", code, env.Metadata)
	}
}

func TestHTTPScenario(t *testing.T) {
	a := newTestApp(t)
	snap := a.start(orderedAll)
	base := "/api/v1/sessions/" + snap.SessionID

	answers := [][]string{{"A"}, {"B"}, {"A", "C"}}
	for i, letters := range answers {
		for _, l := range letters {
			if code, env := a.do(http.MethodPost, base+"/select", map[string]string{"letter": l}); code != http.StatusOK {
				t.Fatalf("q%d select %s = %d %s", i+1, l, code, errCode(env))
			}
		}
		code, env := a.do(http.MethodPost, base+"/submit", nil)
		if code != http.StatusOK {
			t.Fatalf("q%d submit = %d %s", i+1, code, errCode(env))
		}
		graded := decode[model.SessionSnapshot](t, env.Data)
		if graded.Grading == nil || graded.Grading.Correct != (i != 1) {
			t.Errorf("q%d grading = %+v", i+1, graded.Grading)
		}
		if i < 2 {
			a.do(http.MethodPost, base+"/next", nil)
		}
	}

	code, env := a.do(http.MethodPost, base+"/next", nil)
	if done := decode[model.SessionSnapshot](t, env.Data); code != http.StatusOK || done.State != model.SessionStateCompleted {
		t.Fatalf("final next = %d %+v", code, done)
	}

	_, env = a.do(http.MethodGet, base+"/result", nil)
	res := decode[model.QuizResult](t, env.Data)
	if res.Correct != 2 || res.Incorrect != 1 || res.Total != 3 || res.Percent != 67 {
		t.Errorf("result = %+v", res)
	}

	_, env = a.do(http.MethodGet, base+"/review", nil)
	review := decode[struct {
		Items []model.ReviewItem `json:"items"`
	}](t, env.Data)
	if len(review.Items) != 1 || !reflect.DeepEqual(review.Items[0].Selection, []string{"B"}) {
		t.Errorf("review = %+v", review.Items)
	}

	_, env = a.do(http.MethodGet, "/api/v1/banks/net/practice", nil)
	stats := decode[model.PracticeStats](t, env.Data)
	if stats.PracticedCount != 3 || !reflect.DeepEqual(stats.WrongQuestionIDs, []int{2}) {
		t.Errorf("stats = %+v", stats)
	}

	wrong := a.start(map[string]any{"bank": "net", "mode": "wrong"})
	if wrong.Total != 1 || *wrong.Question.ID != 2 {
		t.Errorf("wrong session = %+v", wrong)
	}

	if code, _ := a.do(http.MethodDelete, "/api/v1/banks/net/practice", nil); code != http.StatusOK {
		t.Errorf("clear = %d", code)
	}
	if code, env := a.do(http.MethodPost, "/api/v1/sessions", map[string]any{"bank": "net", "mode": "wrong"}); code != http.StatusUnprocessableEntity || errCode(env) != "EMPTY_WRONG_SET" {
		t.Errorf("wrong after clear = %d %s", code, errCode(env))
	}
}

func TestHTTPSessionErrors(t *testing.T) {
	a := newTestApp(t)
	snap := a.start(orderedAll)
	base := "/api/v1/sessions/" + snap.SessionID

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"submit without selection", http.MethodPost, base + "/submit", nil, 422, "EMPTY_SELECTION"},
		{"next before submit", http.MethodPost, base + "/next", nil, 409, "NOT_SUBMITTED"},
		{"previous at start", http.MethodPost, base + "/previous", nil, 409, "NO_PREVIOUS_QUESTION"},
		{"result too early", http.MethodGet, base + "/result", nil, 409, "SESSION_NOT_COMPLETED"},
		{"letter out of range", http.MethodPost, base + "/select", map[string]string{"letter": "H"}, 400, "VALIDATION_ERROR"},
		{"letter not in question", http.MethodPost, base + "/select", map[string]string{"letter": "D"}, 422, "UNKNOWN_OPTION"},
		{"malformed id", http.MethodGet, "/api/v1/sessions/not-a-uuid", nil, 400, "INVALID_ID"},
		{"unknown session", http.MethodGet, "/api/v1/sessions/00000000-0000-0000-0000-000000000000", nil, 404, "SESSION_NOT_FOUND"},
		{"unknown bank", http.MethodPost, "/api/v1/sessions", map[string]any{"bank": "nope", "mode": "all"}, 404, "BANK_NOT_FOUND"},
		{"bad mode", http.MethodPost, "/api/v1/sessions", map[string]any{"bank": "net", "mode": "random"}, 400, "VALIDATION_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, env := a.do(tc.method, tc.path, tc.body)
			if code != tc.status || errCode(env) != tc.code {
				t.Errorf("got %d %s, want %d %s", code, errCode(env), tc.status, tc.code)
			}
		})
	}

	a.do(http.MethodPost, base+"/end", nil)
	if code, env := a.do(http.MethodPost, base+"/select", map[string]string{"letter": "A"}); code != 409 || errCode(env) != "SESSION_COMPLETED" {
		t.Errorf("select after end = %d %s", code, errCode(env))
	}
	if code, _ := a.do(http.MethodDelete, base, nil); code != http.StatusOK {
		t.Errorf("discard = %d", code)
	}
	if code, _ := a.do(http.MethodGet, base, nil); code != http.StatusNotFound {
		t.Errorf("get after discard = %d", code)
	}
}

func TestHTTPUploadAndDelete(t *testing.T) {
	a := newTestApp(t)

	code, env := a.upload("net.jsonl", `{"id":1,"question":"custom","options":{"A":"x","B":"y"},"answer":["A"]}`+"\nbroken\n")
	if code != http.StatusCreated {
		t.Fatalf("upload = %d %s", code, errCode(env))
	}
	res := decode[model.UploadResult](t, env.Data)
	if res.Dropped != 1 || res.Bank.Name != "net" || !res.Bank.IsCustom {
		t.Errorf("upload result = %+v", res)
	}

	_, env = a.do(http.MethodGet, "/api/v1/banks", nil)
	list := decode[struct {
		Banks []model.BankSummary `json:"banks"`
	}](t, env.Data)
	if len(list.Banks) != 1 || !list.Banks[0].IsCustom || list.Banks[0].Count != 1 {
		t.Fatalf("banks = %+v", list.Banks)
	}

	if code, _ := a.do(http.MethodDelete, "/api/v1/banks/net", nil); code != http.StatusOK {
		t.Fatalf("delete = %d", code)
	}
	_, env = a.do(http.MethodGet, "/api/v1/banks", nil)
	list = decode[struct {
		Banks []model.BankSummary `json:"banks"`
	}](t, env.Data)
	if len(list.Banks) != 1 || list.Banks[0].IsCustom || list.Banks[0].Count != 3 {
		t.Errorf("banks after delete = %+v", list.Banks)
	}

	type check struct {
		name   string
		status int
		want   string
	}
	run := func(c check, code int, env envelope) {
		t.Helper()
		if code != c.status || errCode(env) != c.want {
			t.Errorf("%s: got %d %s, want %d %s", c.name, code, errCode(env), c.status, c.want)
		}
	}

	code, env = a.do(http.MethodDelete, "/api/v1/banks/net", nil)
	run(check{"delete built-in", 409, "BANK_NOT_CUSTOM"}, code, env)
	code, env = a.upload("notes.txt", scenarioJSONL)
	run(check{"wrong extension", 400, "UNSUPPORTED_FILE_TYPE"}, code, env)
	code, env = a.upload("empty.jsonl", "\n")
	run(check{"no valid questions", 422, "BANK_EMPTY"}, code, env)
	code, env = a.do(http.MethodPost, "/api/v1/banks/upload", nil)
	run(check{"missing file", 400, "FILE_REQUIRED"}, code, env)
	code, env = a.do(http.MethodDelete, "/api/v1/banks/ghost", nil)
	run(check{"delete unknown", 404, "BANK_NOT_FOUND"}, code, env)
}

func TestHTTPBankReadAndLookup(t *testing.T) {
	a := newTestApp(t)

	code, env := a.do(http.MethodGet, "/api/v1/banks/net?page=2&per_page=2", nil)
	if code != http.StatusOK || env.Pagination == nil || env.Pagination.TotalItems != 3 || env.Pagination.TotalPages != 2 {
		t.Fatalf("paged bank = %d %+v", code, env.Pagination)
	}
	page := decode[struct {
		Bank model.Bank `json:"bank"`
	}](t, env.Data)
	if len(page.Bank.Questions) != 1 || page.Bank.Questions[0].Question != "Q3" {
		t.Errorf("page 2 = %+v", page.Bank.Questions)
	}

	code, env = a.do(http.MethodGet, "/api/v1/banks/net/questions/2", nil)
	lookup := decode[model.QuestionLookup](t, env.Data)
	if code != http.StatusOK || lookup.Question.Question != "Q2" || lookup.Practice != nil {
		t.Errorf("lookup = %d %+v", code, lookup)
	}

	if code, env := a.do(http.MethodGet, "/api/v1/banks/net/questions/x", nil); code != 400 || errCode(env) != "INVALID_ID" {
		t.Errorf("bad id = %d %s", code, errCode(env))
	}
	if code, env := a.do(http.MethodGet, "/api/v1/banks/net/questions/99", nil); code != 404 || errCode(env) != "QUESTION_NOT_FOUND" {
		t.Errorf("missing question = %d %s", code, errCode(env))
	}
	if code, env := a.do(http.MethodGet, "/api/v1/banks/zzz/practice", nil); code != 404 || errCode(env) != "BANK_NOT_FOUND" {
		t.Errorf("unknown bank practice = %d %s", code, errCode(env))
	}
}

func TestHTTPPreferences(t *testing.T) {
	a := newTestApp(t)

	code, env := a.do(http.MethodPut, "/api/v1/preferences", map[string]bool{"translate_enabled": true})
	if code != http.StatusOK {
		t.Fatalf("put = %d %s", code, errCode(env))
	}
	_, env = a.do(http.MethodGet, "/api/v1/preferences", nil)
	if prefs := decode[model.Preferences](t, env.Data); !prefs.TranslateEnabled {
		t.Error("preference not applied")
	}

	code, env = a.do(http.MethodPut, "/api/v1/preferences", map[string]any{})
	if code != http.StatusBadRequest || env.Error.Fields["translate_enabled"] == "" {
		t.Errorf("empty put = %d %+v", code, env.Error)
	}
}

func TestHTTPPersistenceWarning(t *testing.T) {
	a := newTestApp(t)
	snap := a.start(orderedAll)
	base := "/api/v1/sessions/" + snap.SessionID

	a.do(http.MethodPost, base+"/select", map[string]string{"letter": "A"})
	a.store.fail.Store(true)

	code, env := a.do(http.MethodPost, base+"/submit", nil)
	if code != http.StatusOK || !strings.HasPrefix(env.Metadata.Warning, "PERSISTENCE_WARNING") {
		t.Fatalf("submit = %d warning %q", code, env.Metadata.Warning)
	}
	if got := decode[model.SessionSnapshot](t, env.Data); got.State != model.SessionStateSubmitted {
		t.Errorf("state = %s", got.State)
	}
}

func TestHTTPTranslation(t *testing.T) {
	a := newTestApp(t)
	snap := a.start(orderedAll)

	code, env := a.do(http.MethodGet, "/api/v1/sessions/"+snap.SessionID+"/translation", nil)
	if code != http.StatusOK {
		t.Fatalf("translation = %d %s", code, errCode(env))
	}
	tr := decode[model.QuestionTranslation](t, env.Data)
	if tr.Index != 0 || tr.Question != "tr:Q1" || tr.Options[0].Text != "tr:a1" {
		t.Errorf("translation = %+v", tr)
	}
}

func TestWebSocketStream(t *testing.T) {
	a := newTestApp(t)
	snap := a.start(orderedAll)

	srv := httptest.NewServer(a.engine)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/v1/sessions/" + snap.SessionID + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	type event struct {
		Event       string                    `json:"event"`
		Code        string                    `json:"code"`
		Snapshot    model.SessionSnapshot     `json:"snapshot"`
		Translation model.QuestionTranslation `json:"translation"`
	}
	read := func() event {
		t.Helper()
		var ev event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("read: %v", err)
		}
		return ev
	}
	send := func(v any) {
		t.Helper()
		if err := conn.WriteJSON(v); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	if ev := read(); ev.Event != "snapshot" || ev.Snapshot.Index != 0 {
		t.Fatalf("initial = %+v", ev)
	}

	send(map[string]string{"action": "submit"})
	if ev := read(); ev.Event != "error" || ev.Code != "EMPTY_SELECTION" {
		t.Errorf("empty submit = %+v", ev)
	}

	send(map[string]string{"action": "select", "letter": "A"})
	if ev := read(); !reflect.DeepEqual(ev.Snapshot.Selection, []string{"A"}) {
		t.Errorf("select = %+v", ev)
	}

	send(map[string]string{"action": "submit"})
	if ev := read(); ev.Snapshot.Grading == nil || !ev.Snapshot.Grading.Correct {
		t.Errorf("submit = %+v", ev)
	}

	send(map[string]string{"action": "ping"})
	if ev := read(); ev.Event != "pong" {
		t.Errorf("ping = %+v", ev)
	}

	send(map[string]string{"action": "translate"})
	if ev := read(); ev.Event != "translation" || ev.Translation.Question != "tr:Q1" {
		t.Errorf("translate = %+v", ev)
	}

	send(map[string]string{"action": "dance"})
	if ev := read(); ev.Event != "error" {
		t.Errorf("unknown action = %+v", ev)
	}
}
