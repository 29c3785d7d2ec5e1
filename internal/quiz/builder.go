package quiz

import (
	"strconv"
	"strings"
	"sync"

	"github.com/stemsi/exstem-drill/internal/model"
)

// Mode selects how a session's questions are chosen.
type Mode string

const (
	ModeAll    Mode = "all"
	ModeFixed  Mode = "fixed"
	ModeCustom Mode = "custom"
	ModeWrong  Mode = "wrong"
)

const (
	// FixedSessionSize is the question count of ModeFixed.
	FixedSessionSize = 50
	// DefaultCustomCount applies when a custom count is missing or unparsable.
	DefaultCustomCount = 30
)

// ParseMode maps a mode name to a Mode, defaulting to ModeAll.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeFixed:
		return ModeFixed
	case ModeCustom:
		return ModeCustom
	case ModeWrong:
		return ModeWrong
	default:
		return ModeAll
	}
}

// ParseCount parses a requested custom count. Empty, unparsable and
// non-positive values yield DefaultCustomCount.
func ParseCount(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return DefaultCustomCount
	}
	return n
}

// BuildOptions configures Build.
type BuildOptions struct {
	Mode             Mode
	Count            int
	ShuffleQuestions bool
	ShuffleOptions   bool
	WrongIDs         []int
}

// Builder derives session question lists from banks.
type Builder struct {
	mu  sync.Mutex
	src Source
}

// NewBuilder returns a Builder drawing randomness from src.
// A nil src uses a randomly seeded source.
func NewBuilder(src Source) *Builder {
	if src == nil {
		src = NewRandomSource()
	}
	return &Builder{src: src}
}

// Build selects, orders and truncates questions from bank and optionally
// permutes each question's options. The bank itself is never modified.
func (b *Builder) Build(bank model.Bank, opts BuildOptions) ([]model.Question, error) {
	if len(bank.Questions) == 0 {
		return nil, ErrEmptyBank
	}

	var source []model.Question
	if opts.Mode == ModeWrong {
		if len(opts.WrongIDs) == 0 {
			return nil, ErrEmptyWrongSet
		}
		wrong := make(map[int]struct{}, len(opts.WrongIDs))
		for _, id := range opts.WrongIDs {
			wrong[id] = struct{}{}
		}
		for _, q := range bank.Questions {
			if q.ID == nil {
				continue
			}
			if _, ok := wrong[*q.ID]; ok {
				source = append(source, q.Clone())
			}
		}
		if len(source) == 0 {
			return nil, ErrEmptyWrongSet
		}
	} else {
		source = make([]model.Question, len(bank.Questions))
		for i, q := range bank.Questions {
			source[i] = q.Clone()
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if opts.ShuffleQuestions {
		shuffle(source, b.src)
	}

	if limit := sessionLimit(opts, len(source)); limit < len(source) {
		source = source[:limit]
	}

	if opts.ShuffleOptions {
		for i, q := range source {
			source[i] = shuffleOptions(q, b.src)
		}
	}
	return source, nil
}

func sessionLimit(opts BuildOptions, available int) int {
	switch opts.Mode {
	case ModeFixed:
		return min(FixedSessionSize, available)
	case ModeCustom:
		count := opts.Count
		if count <= 0 {
			count = DefaultCustomCount
		}
		return min(count, available)
	default:
		return available
	}
}
