package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/exstem-drill/internal/model"
	"github.com/stemsi/exstem-drill/internal/response"
	"github.com/stemsi/exstem-drill/internal/service"
	"github.com/stemsi/exstem-drill/internal/validator"
)

// SessionHandler drives the active quiz session over HTTP.
type SessionHandler struct {
	quizService *service.QuizService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(quizService *service.QuizService) *SessionHandler {
	return &SessionHandler{quizService: quizService}
}

// sessionID validates the :id path parameter.
func sessionID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return "", false
	}
	return id, true
}

// StartSession godoc
// POST /api/v1/sessions
// Builds a session from a bank and replaces the active one.
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	snap, err := h.quizService.Start(c.Request.Context(), req)
	respond(c, http.StatusCreated, snap, err)
}

// GetSession godoc
// GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	snap, err := h.quizService.Snapshot(id)
	respond(c, http.StatusOK, snap, err)
}

// SelectOption godoc
// POST /api/v1/sessions/:id/select
func (h *SessionHandler) SelectOption(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req model.SelectOptionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	snap, err := h.quizService.Select(id, req.Letter)
	respond(c, http.StatusOK, snap, err)
}

// Submit godoc
// POST /api/v1/sessions/:id/submit
// Grades the current question and records it in the practice ledger.
func (h *SessionHandler) Submit(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	snap, err := h.quizService.Submit(c.Request.Context(), id)
	respond(c, http.StatusOK, snap, err)
}

// Previous godoc
// POST /api/v1/sessions/:id/previous
func (h *SessionHandler) Previous(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	snap, err := h.quizService.Previous(id)
	respond(c, http.StatusOK, snap, err)
}

// Next godoc
// POST /api/v1/sessions/:id/next
func (h *SessionHandler) Next(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	snap, err := h.quizService.Next(id)
	respond(c, http.StatusOK, snap, err)
}

// End godoc
// POST /api/v1/sessions/:id/end
func (h *SessionHandler) End(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	snap, err := h.quizService.End(id)
	respond(c, http.StatusOK, snap, err)
}

// GetResult godoc
// GET /api/v1/sessions/:id/result
func (h *SessionHandler) GetResult(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	res, err := h.quizService.Result(id)
	respond(c, http.StatusOK, res, err)
}

// GetReview godoc
// GET /api/v1/sessions/:id/review
func (h *SessionHandler) GetReview(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	items, err := h.quizService.Review(id)
	respond(c, http.StatusOK, gin.H{"items": items}, err)
}

// Restart godoc
// POST /api/v1/sessions/:id/restart
// Starts a fresh session with the same bank and settings.
func (h *SessionHandler) Restart(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	snap, err := h.quizService.Restart(c.Request.Context(), id)
	respond(c, http.StatusCreated, snap, err)
}

// Discard godoc
// DELETE /api/v1/sessions/:id
func (h *SessionHandler) Discard(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	err := h.quizService.Discard(id)
	respond(c, http.StatusOK, gin.H{"message": "session discarded"}, err)
}

// Translate godoc
// GET /api/v1/sessions/:id/translation
// Translates the current question. Answers 409 if the question changed
// while the lookup was running.
func (h *SessionHandler) Translate(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	tr, err := h.quizService.Translate(c.Request.Context(), id)
	respond(c, http.StatusOK, tr, err)
}
