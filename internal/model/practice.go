package model

import "time"

// HistoryLimit is how many attempts a PracticeRecord keeps.
const HistoryLimit = 10

// HistoryEntry is one graded attempt.
type HistoryEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	IsCorrect  bool      `json:"is_correct"`
	UserAnswer string    `json:"user_answer"`
}

// PracticeRecord tracks attempts for one question of one bank.
// History is most-recent-first and capped at HistoryLimit.
type PracticeRecord struct {
	PracticeCount int            `json:"practice_count"`
	CorrectCount  int            `json:"correct_count"`
	WrongCount    int            `json:"wrong_count"`
	LastPracticed *time.Time     `json:"last_practiced"`
	History       []HistoryEntry `json:"history"`
}

// CurrentlyWrong reports whether the most recent attempt was incorrect.
func (r PracticeRecord) CurrentlyWrong() bool {
	return len(r.History) > 0 && !r.History[0].IsCorrect
}

// PracticeHistory maps bank name to question id to record.
type PracticeHistory map[string]map[int]*PracticeRecord

// PracticeStats summarises a bank's ledger.
type PracticeStats struct {
	Bank             string `json:"bank"`
	PracticedCount   int    `json:"practiced_count"`
	WrongQuestionIDs []int  `json:"wrong_question_ids"`
}
