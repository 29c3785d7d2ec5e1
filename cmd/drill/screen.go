package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/stemsi/exstem-drill/internal/model"
	"github.com/stemsi/exstem-drill/internal/quiz"
	"github.com/stemsi/exstem-drill/internal/service"
)

type screen struct {
	out   io.Writer
	width int
}

func newScreen(out io.Writer, width int) *screen {
	return &screen{out: out, width: width}
}

func (s *screen) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *screen) wrapped(indent, text string) {
	for _, line := range wrap(text, s.width-len(indent)) {
		s.printf("%s%s\n", indent, line)
	}
}

func (s *screen) banks(banks []model.BankSummary, practice *service.PracticeService) {
	s.printf("\n")
	for i, b := range banks {
		tag := ""
		if b.IsCustom {
			tag = " (uploaded)"
		}
		stats := practice.Stats(b.Name)
		s.printf("%2d. %s%s  %d questions, %d practiced, %d wrong\n",
			i+1, b.Name, tag, b.Count, stats.PracticedCount, len(stats.WrongQuestionIDs))
	}
}

func (s *screen) question(snap model.SessionSnapshot) {
	q := snap.Question
	s.printf("\n%s\n", strings.Repeat("─", min(s.width, 60)))

	label := fmt.Sprintf("Question %d/%d", snap.Index+1, snap.Total)
	if q.ID != nil {
		label += fmt.Sprintf("  #%d", *q.ID)
	}
	if q.Topic != "" {
		label += "  topic " + q.Topic
	}
	if q.Multiple {
		label += "  (select all that apply)"
	}
	s.printf("%s\n\n", label)
	s.wrapped("", q.Text)
	s.printf("\n")

	selected := make(map[string]bool, len(snap.Selection))
	for _, l := range snap.Selection {
		selected[l] = true
	}
	var correct map[string]bool
	if snap.Grading != nil {
		correct = make(map[string]bool, len(snap.Grading.Answer))
		for _, l := range snap.Grading.Answer {
			correct[l] = true
		}
	}

	for _, o := range q.Options {
		s.printf("%s %s. ", optionMark(selected[o.Key], correct, o.Key), o.Key)
		lines := wrap(o.Text, s.width-6)
		for i, line := range lines {
			if i > 0 {
				s.printf("      ")
			}
			s.printf("%s\n", line)
		}
	}

	if g := snap.Grading; g != nil {
		if g.Correct {
			s.printf("\nCorrect.\n")
		} else {
			s.printf("\nIncorrect. Answer: %s\n", strings.Join(g.Answer, ", "))
		}
		if g.Explanation != "" {
			s.printf("\n")
			s.wrapped("  ", g.Explanation)
		}
	}
}

// optionMark is the marker column: selection before grading, verdict after.
func optionMark(selected bool, correct map[string]bool, key string) string {
	switch {
	case correct == nil && selected:
		return "[x]"
	case correct == nil:
		return "[ ]"
	case correct[key]:
		return " ✓ "
	case selected:
		return " ✗ "
	default:
		return "   "
	}
}

func (s *screen) translation(tr model.QuestionTranslation) {
	s.printf("\n[%s]\n", tr.Language)
	s.wrapped("  ", tr.Question)
	for _, o := range tr.Options {
		s.wrapped("  ", o.Key+". "+o.Text)
	}
}

func (s *screen) commands(snap model.SessionSnapshot) string {
	if snap.State == model.SessionStateSubmitted {
		next := "[n]ext"
		if snap.IsLast {
			next = "[n] finish"
		}
		return fmt.Sprintf("\n%s, [p]revious, e[x]it early, [t]ranslate, [h]ome, [q]uit: ", next)
	}
	return "\nletters to select, [s]ubmit, [p]revious, e[x]it early, [t]ranslate, [h]ome, [q]uit: "
}

func (s *screen) result(res model.QuizResult, review []model.ReviewItem) {
	s.printf("\n=== Result ===\n")
	s.printf("Correct %d  Incorrect %d  Score %d%%\n", res.Correct, res.Incorrect, res.Percent)
	if res.Unanswered > 0 {
		s.printf("Unanswered %d of %d\n", res.Unanswered, res.Questions)
	}
	if len(review) == 0 {
		return
	}
	s.printf("\nReview:\n")
	for _, item := range review {
		s.printf("\n%d. ", item.Index+1)
		s.wrapped("", item.Question.Question)
		s.printf("   yours %s, answer %s\n", strings.Join(item.Selection, ","), strings.Join(item.Answer, ","))
		if item.Explanation != "" {
			s.wrapped("   ", item.Explanation)
		}
	}
}

func (s *screen) problem(err error) {
	s.printf("! %s\n", problemText(err))
}

func problemText(err error) string {
	switch {
	case errors.Is(err, quiz.ErrEmptySelection):
		return "Select at least one option first."
	case errors.Is(err, quiz.ErrUnknownOption):
		return "That letter is not one of the options."
	case errors.Is(err, quiz.ErrNotSubmitted):
		return "Submit this question before moving on."
	case errors.Is(err, quiz.ErrNoPreviousQuestion):
		return "Already at the first question."
	case errors.Is(err, quiz.ErrAlreadySubmitted):
		return "Already submitted."
	case errors.Is(err, quiz.ErrEmptyWrongSet):
		return "No wrong answers recorded for this bank yet."
	case errors.Is(err, quiz.ErrEmptyBank):
		return "This bank has no questions."
	default:
		return err.Error()
	}
}

// wrap breaks text into lines of at most width runes on word boundaries.
// Words longer than width get a line of their own.
func wrap(text string, width int) []string {
	width = max(width, 10)
	var (
		lines []string
		cur   strings.Builder
		n     int
	)
	for _, word := range strings.Fields(text) {
		wl := len([]rune(word))
		if n > 0 && n+1+wl > width {
			lines = append(lines, cur.String())
			cur.Reset()
			n = 0
		}
		if n > 0 {
			cur.WriteByte(' ')
			n++
		}
		cur.WriteString(word)
		n += wl
	}
	if n > 0 || len(lines) == 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
