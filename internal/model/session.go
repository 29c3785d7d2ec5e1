package model

// SessionState enumerates quiz session states.
type SessionState string

const (
	SessionStateInProgress SessionState = "IN_PROGRESS"
	SessionStateSubmitted  SessionState = "SUBMITTED"
	SessionStateCompleted  SessionState = "COMPLETED"
)

// Grading is shown once the current question has been submitted.
type Grading struct {
	Correct     bool     `json:"correct"`
	Answer      []string `json:"answer"`
	Explanation string   `json:"explanation,omitempty"`
}

// SessionSnapshot is the view-layer state of a quiz session.
type SessionSnapshot struct {
	SessionID string        `json:"session_id"`
	Bank      string        `json:"bank"`
	Mode      string        `json:"mode"`
	State     SessionState  `json:"state"`
	Index     int           `json:"index"`
	Total     int           `json:"total"`
	IsLast    bool          `json:"is_last"`
	Question  *QuestionView `json:"question,omitempty"`
	Selection []string      `json:"selection"`
	Grading   *Grading      `json:"grading,omitempty"`
	Notice    string        `json:"notice,omitempty"`
}

// QuizResult is the aggregate score of a completed session.
// Unanswered questions are excluded from Correct, Incorrect and Total.
type QuizResult struct {
	Correct    int `json:"correct"`
	Incorrect  int `json:"incorrect"`
	Total      int `json:"total"`
	Percent    int `json:"percent"`
	Unanswered int `json:"unanswered"`
	Questions  int `json:"questions"`
}

// ReviewItem pairs an incorrectly answered question with the selection.
type ReviewItem struct {
	Index       int      `json:"index"`
	Question    Question `json:"question"`
	Selection   []string `json:"selection"`
	Answer      []string `json:"answer"`
	Explanation string   `json:"explanation,omitempty"`
}

// StartSessionRequest is the payload for starting a quiz.
// Count is kept as a string: unparsable values fall back to the default.
type StartSessionRequest struct {
	Bank             string `json:"bank" binding:"required,max=255"`
	Mode             string `json:"mode" binding:"required,oneof=all fixed custom wrong"`
	Count            string `json:"count" binding:"omitempty,max=10"`
	ShuffleQuestions *bool  `json:"shuffle_questions"`
	ShuffleOptions   *bool  `json:"shuffle_options"`
}

// SelectOptionRequest is the payload for selecting an option letter.
type SelectOptionRequest struct {
	Letter string `json:"letter" binding:"required,option_letter"`
}
