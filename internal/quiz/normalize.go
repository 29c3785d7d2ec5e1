package quiz

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/stemsi/exstem-drill/internal/model"
)

const (
	minOptions = 2
	maxLineLen = 4 * 1024 * 1024
)

var validLetters = func() map[string]struct{} {
	m := make(map[string]struct{}, len(model.OptionLetters))
	for _, l := range model.OptionLetters {
		m[l] = struct{}{}
	}
	return m
}()

type rawRecord struct {
	ID          json.RawMessage `json:"id"`
	Topic       json.RawMessage `json:"topic"`
	Question    json.RawMessage `json:"question"`
	Options     json.RawMessage `json:"options"`
	Answer      json.RawMessage `json:"answer"`
	Explanation json.RawMessage `json:"explanation"`
}

// ParseJSONL reads newline-delimited question records. Blank lines are
// skipped; lines that are not JSON, fail validation or exceed maxLineLen
// are reported and dropped. The returned error is only for failures
// reading r.
func ParseJSONL(r io.Reader) ([]model.Question, []ValidationError, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	var (
		questions []model.Question
		dropped   []ValidationError
		line      int
	)
	for {
		raw, tooLong, err := readLine(br)
		if err != nil && err != io.EOF {
			return nil, nil, fmt.Errorf("read jsonl: %w", err)
		}
		if err == io.EOF && len(raw) == 0 && !tooLong {
			break
		}
		line++

		text := bytes.TrimSpace(raw)
		if line == 1 {
			text = bytes.TrimPrefix(text, []byte("\xef\xbb\xbf"))
		}
		switch {
		case tooLong:
			dropped = append(dropped, ValidationError{Line: line, Reason: "line too long"})
		case len(text) == 0:
		case !json.Valid(text):
			dropped = append(dropped, ValidationError{Line: line, Reason: "invalid JSON"})
		default:
			q, verr := normalizeRecord(line, text)
			if verr != nil {
				dropped = append(dropped, *verr)
			} else {
				questions = append(questions, q)
			}
		}

		if err == io.EOF {
			break
		}
	}
	return questions, dropped, nil
}

// readLine returns the next line without its terminator. A line longer than
// maxLineLen is consumed up to its newline and reported as tooLong with no
// content. err is io.EOF when the input ended with this line.
func readLine(br *bufio.Reader) ([]byte, bool, error) {
	var (
		buf     []byte
		tooLong bool
	)
	for {
		chunk, err := br.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(chunk) > maxLineLen+1 {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		switch err {
		case bufio.ErrBufferFull:
			continue
		case nil:
			return bytes.TrimSuffix(buf, []byte("\n")), tooLong, nil
		default:
			return buf, tooLong, err
		}
	}
}

// Normalize validates raw question records in order. Invalid records are
// dropped and reported with their 1-based position.
func Normalize(records []json.RawMessage) ([]model.Question, []ValidationError) {
	var (
		questions []model.Question
		dropped   []ValidationError
	)
	for i, raw := range records {
		q, verr := normalizeRecord(i+1, raw)
		if verr != nil {
			dropped = append(dropped, *verr)
			continue
		}
		questions = append(questions, q)
	}
	return questions, dropped
}

func normalizeRecord(line int, raw []byte) (model.Question, *ValidationError) {
	invalid := func(format string, args ...any) (model.Question, *ValidationError) {
		return model.Question{}, &ValidationError{Line: line, Reason: fmt.Sprintf(format, args...)}
	}

	var rec rawRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return invalid("not a JSON object")
	}

	var text string
	if isNull(rec.Question) || json.Unmarshal(rec.Question, &text) != nil || strings.TrimSpace(text) == "" {
		return invalid("question must be a non-empty string")
	}

	if isNull(rec.Options) {
		return invalid("options missing")
	}
	var opts model.Options
	if err := json.Unmarshal(rec.Options, &opts); err != nil {
		return invalid("options: %v", err)
	}
	if len(opts) < minOptions {
		return invalid("options: need at least %d entries", minOptions)
	}
	if len(opts) > len(model.OptionLetters) {
		return invalid("options: at most %d entries", len(model.OptionLetters))
	}
	for _, o := range opts {
		if _, ok := validLetters[o.Key]; !ok {
			return invalid("options: key %q outside A-G", o.Key)
		}
	}

	var letters []string
	if isNull(rec.Answer) || json.Unmarshal(rec.Answer, &letters) != nil {
		return invalid("answer must be an array of letters")
	}
	answer := make([]string, 0, len(letters))
	seen := make(map[string]struct{}, len(letters))
	for _, l := range letters {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		if !opts.Has(l) {
			return invalid("answer %q not among options", l)
		}
		seen[l] = struct{}{}
		answer = append(answer, l)
	}
	if len(answer) == 0 {
		return invalid("answer must not be empty")
	}

	q := model.Question{
		ID:       parseID(rec.ID),
		Topic:    parseTopic(rec.Topic),
		Question: strings.TrimSpace(text),
		Options:  opts,
		Answer:   answer,
	}
	if !isNull(rec.Explanation) {
		var expl string
		if json.Unmarshal(rec.Explanation, &expl) == nil {
			q.Explanation = strings.TrimSpace(expl)
		}
	}
	return q, nil
}

// parseID keeps integral numeric ids and drops anything else.
func parseID(raw json.RawMessage) *int {
	if isNull(raw) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return nil
	}
	id := int(f)
	return &id
}

func parseTopic(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
