package model

// Bank is a named collection of questions, bundled or user supplied.
type Bank struct {
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
	Count     int        `json:"count"`
	IsCustom  bool       `json:"is_custom"`
}

// NewBank builds a bank and keeps Count in step with Questions.
func NewBank(name string, questions []Question, custom bool) Bank {
	return Bank{
		Name:      name,
		Questions: questions,
		Count:     len(questions),
		IsCustom:  custom,
	}
}

// Summary returns the list-view projection of the bank.
func (b Bank) Summary() BankSummary {
	return BankSummary{Name: b.Name, Count: b.Count, IsCustom: b.IsCustom}
}

// BankSummary is a bank without its questions.
type BankSummary struct {
	Name     string `json:"name"`
	Count    int    `json:"count"`
	IsCustom bool   `json:"is_custom"`
}

// UploadResult is returned after a custom bank upload.
type UploadResult struct {
	Bank    BankSummary `json:"bank"`
	Dropped int         `json:"dropped"`
}

// QuestionLookup is the single-question view with its practice record.
type QuestionLookup struct {
	Bank               string          `json:"bank"`
	Question           Question        `json:"question"`
	Practice           *PracticeRecord `json:"practice,omitempty"`
	LastPracticedHuman string          `json:"last_practiced_human,omitempty"`
}
