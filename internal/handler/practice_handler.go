package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-drill/internal/response"
	"github.com/stemsi/exstem-drill/internal/service"
)

type PracticeHandler struct {
	bankService     *service.BankService
	practiceService *service.PracticeService
}

func NewPracticeHandler(bankService *service.BankService, practiceService *service.PracticeService) *PracticeHandler {
	return &PracticeHandler{bankService: bankService, practiceService: practiceService}
}

// GetStats godoc
// GET /api/v1/banks/:name/practice
func (h *PracticeHandler) GetStats(c *gin.Context) {
	name := c.Param("name")
	if _, err := h.bankService.Get(name); err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, h.practiceService.Stats(name))
}

// ClearHistory godoc
// DELETE /api/v1/banks/:name/practice
// Irreversibly removes every practice record of the bank.
func (h *PracticeHandler) ClearHistory(c *gin.Context) {
	name := c.Param("name")
	err := h.practiceService.Clear(c.Request.Context(), name)
	respond(c, http.StatusOK, h.practiceService.Stats(name), err)
}
