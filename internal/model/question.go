package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// OptionLetters is the fixed alphabet option keys are drawn from.
var OptionLetters = []string{"A", "B", "C", "D", "E", "F", "G"}

// Option is a single lettered answer choice.
type Option struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Options is an insertion-ordered mapping from option letter to text.
// It encodes as a JSON object whose key order matches the slice order.
type Options []Option

// Text returns the option text stored under key.
func (o Options) Text(key string) (string, bool) {
	for _, opt := range o {
		if opt.Key == key {
			return opt.Text, true
		}
	}
	return "", false
}

// Has reports whether key is one of the option letters.
func (o Options) Has(key string) bool {
	_, ok := o.Text(key)
	return ok
}

// Keys returns the option letters in stored order.
func (o Options) Keys() []string {
	keys := make([]string, len(o))
	for i, opt := range o {
		keys[i] = opt.Key
	}
	return keys
}

// MarshalJSON writes the options as an ordered JSON object.
func (o Options) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, opt := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(opt.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(opt.Text)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object of string values, keeping key order.
// Duplicate keys are rejected.
func (o *Options) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("options must be a JSON object")
	}

	out := Options{}
	seen := make(map[string]struct{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)

		var text string
		if err := dec.Decode(&text); err != nil {
			return fmt.Errorf("option %q: value must be a string", key)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("option %q: duplicate key", key)
		}
		seen[key] = struct{}{}
		out = append(out, Option{Key: key, Text: text})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*o = out
	return nil
}

// Question is a validated multiple-choice or multi-select question.
type Question struct {
	ID          *int     `json:"id,omitempty"`
	Topic       string   `json:"topic,omitempty"`
	Question    string   `json:"question"`
	Options     Options  `json:"options"`
	Answer      []string `json:"answer"`
	Explanation string   `json:"explanation,omitempty"`
}

// IsMulti reports whether the question expects more than one letter.
func (q Question) IsMulti() bool {
	return len(q.Answer) > 1
}

// Clone returns a deep copy so sessions never share slices with a bank.
func (q Question) Clone() Question {
	c := q
	if q.ID != nil {
		id := *q.ID
		c.ID = &id
	}
	c.Options = append(Options(nil), q.Options...)
	c.Answer = append([]string(nil), q.Answer...)
	return c
}

// QuestionView is the read-only projection of a question sent to clients.
// The answer key is deliberately not part of it.
type QuestionView struct {
	ID       *int     `json:"id,omitempty"`
	Topic    string   `json:"topic,omitempty"`
	Text     string   `json:"text"`
	Options  []Option `json:"options"`
	Multiple bool     `json:"multiple"`
}

// View builds the client projection of q.
func (q Question) View() QuestionView {
	return QuestionView{
		ID:       q.ID,
		Topic:    q.Topic,
		Text:     q.Question,
		Options:  append([]Option(nil), q.Options...),
		Multiple: q.IsMulti(),
	}
}

// QuestionTranslation carries translated question and option texts for the
// question shown at Index when the lookup was issued.
type QuestionTranslation struct {
	Index    int      `json:"index"`
	Language string   `json:"language"`
	Question string   `json:"question"`
	Options  []Option `json:"options"`
}
