package websocket

import "github.com/stemsi/exstem-drill/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSelect    Action = "select"
	ActionSubmit    Action = "submit"
	ActionPrevious  Action = "previous"
	ActionNext      Action = "next"
	ActionEnd       Action = "end"
	ActionTranslate Action = "translate"
	ActionPing      Action = "ping"
)

// RequestPayload is the single client message shape. Letter is only read
// by the select action.
type RequestPayload struct {
	Action Action `json:"action"`
	Letter string `json:"letter,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSnapshot    Event = "snapshot"
	EventTranslation Event = "translation"
	EventNotice      Event = "notice"
	EventError       Event = "error"
	EventPong        Event = "pong"
)

type SnapshotResponse struct {
	Event    Event                 `json:"event"`
	Snapshot model.SessionSnapshot `json:"snapshot"`
	// Result is set once the session is completed.
	Result *model.QuizResult `json:"result,omitempty"`
}

type TranslationResponse struct {
	Event       Event                     `json:"event"`
	Translation model.QuestionTranslation `json:"translation"`
}

type NoticeResponse struct {
	Event   Event  `json:"event"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
