// Package importer turns extracted exam text into question records.
package importer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/stemsi/exstem-drill/internal/model"
)

var (
	questionHeader   = regexp.MustCompile(`Question #:(\d+)\s*-\s*\(Exam Topic (\d+)\)`)
	answerLine       = regexp.MustCompile(`(?i)Answer:[ \t]*([A-G](?:[ \t]*,?[ \t]*[A-G])*)\b`)
	optionPrefix     = regexp.MustCompile(`^[A-G][.)]\s*`)
	explanationLabel = regexp.MustCompile(`(?i)^explanation\s*:?\s*`)
	pageMarker       = regexp.MustCompile(`^\d+\s+of\s+\d+$`)
	whitespace       = regexp.MustCompile(`\s+`)
)

// Result is the outcome of ParseExamText. Skipped lists the question
// numbers whose blocks could not be turned into a valid question.
type Result struct {
	Questions []model.Question
	Skipped   []int
}

// ParseExamText splits a text dump on "Question #:N - (Exam Topic T)"
// headers and parses each block.
func ParseExamText(text string) Result {
	var res Result

	headers := questionHeader.FindAllStringSubmatchIndex(text, -1)
	for i, h := range headers {
		num, _ := strconv.Atoi(text[h[2]:h[3]])
		topic := text[h[4]:h[5]]

		end := len(text)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}

		q, ok := parseBlock(num, topic, text[h[1]:end])
		if !ok {
			res.Skipped = append(res.Skipped, num)
			continue
		}
		res.Questions = append(res.Questions, q)
	}
	return res
}

func parseBlock(num int, topic, content string) (model.Question, bool) {
	m := answerLine.FindStringSubmatchIndex(content)
	if m == nil {
		return model.Question{}, false
	}

	letters := strings.NewReplacer(" ", "", ",", "", "\t", "").Replace(strings.ToUpper(content[m[2]:m[3]]))
	before := content[:m[0]]
	after := content[m[1]:]

	lines := cleanLines(before)
	if len(lines) == 0 {
		return model.Question{}, false
	}

	qEnd := questionEnd(lines)
	stem := collapse(strings.Join(lines[:qEnd], " "))
	opts := buildOptions(lines[qEnd:])
	if stem == "" || len(opts) < 2 {
		return model.Question{}, false
	}

	var answer []string
	seen := make(map[string]struct{})
	for _, r := range letters {
		l := string(r)
		if _, dup := seen[l]; dup || !opts.Has(l) {
			continue
		}
		seen[l] = struct{}{}
		answer = append(answer, l)
	}
	if len(answer) == 0 {
		return model.Question{}, false
	}

	id := num
	return model.Question{
		ID:          &id,
		Topic:       topic,
		Question:    stem,
		Options:     opts,
		Answer:      answer,
		Explanation: explanation(after),
	}, true
}

func cleanLines(block string) []string {
	var out []string
	for _, l := range strings.Split(block, "\n") {
		l = strings.TrimSpace(l)
		if l == "" || pageMarker.MatchString(l) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// questionEnd finds where the stem stops: after the last line ending in
// "?" or ":", otherwise leaving up to seven trailing lines as options.
func questionEnd(lines []string) int {
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.HasSuffix(lines[i], "?") || strings.HasSuffix(lines[i], ":") {
			return i + 1
		}
	}
	n := min(len(model.OptionLetters), len(lines)-1)
	return max(1, len(lines)-n)
}

func buildOptions(lines []string) model.Options {
	opts := model.Options{}
	for _, l := range lines {
		if len(opts) == len(model.OptionLetters) {
			break
		}
		text := strings.TrimSpace(optionPrefix.ReplaceAllString(l, ""))
		if text == "" {
			continue
		}
		opts = append(opts, model.Option{Key: model.OptionLetters[len(opts)], Text: text})
	}
	return opts
}

func explanation(after string) string {
	text := strings.Join(cleanLines(after), " ")
	return collapse(explanationLabel.ReplaceAllString(text, ""))
}

func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
