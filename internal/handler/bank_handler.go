package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-drill/internal/model"
	"github.com/stemsi/exstem-drill/internal/response"
	"github.com/stemsi/exstem-drill/internal/service"
)

const maxPerPage = 200

// BankHandler handles question bank endpoints.
type BankHandler struct {
	bankService *service.BankService
	quizService *service.QuizService
}

// NewBankHandler creates a new BankHandler.
func NewBankHandler(bankService *service.BankService, quizService *service.QuizService) *BankHandler {
	return &BankHandler{bankService: bankService, quizService: quizService}
}

// ListBanks godoc
// GET /api/v1/banks
// Lists bundled and uploaded banks in display order.
func (h *BankHandler) ListBanks(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"banks": h.bankService.List()})
}

// GetBank godoc
// GET /api/v1/banks/:name?page=&per_page=
// Returns a bank with its questions. Questions are paginated when page is given.
func (h *BankHandler) GetBank(c *gin.Context) {
	bank, err := h.bankService.Get(c.Param("name"))
	if err != nil {
		failWith(c, err)
		return
	}
	if bank.Questions == nil {
		bank.Questions = []model.Question{}
	}

	if c.Query("page") == "" {
		response.Success(c, http.StatusOK, gin.H{"bank": bank})
		return
	}

	page, _ := strconv.Atoi(c.Query("page"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "50"))
	page = max(page, 1)
	perPage = min(max(perPage, 1), maxPerPage)

	total := len(bank.Questions)
	from := min((page-1)*perPage, total)
	to := min(from+perPage, total)
	bank.Questions = bank.Questions[from:to]

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"bank": bank}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	})
}

// UploadBank godoc
// POST /api/v1/banks/upload
// Uploads a .jsonl file as a custom bank named after the file.
func (h *BankHandler) UploadBank(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	res, err := h.bankService.Upload(c.Request.Context(), header.Filename, file, header.Size)
	respond(c, http.StatusCreated, res, err)
}

// DeleteBank godoc
// DELETE /api/v1/banks/:name
// Deletes an uploaded bank. A bundled bank it shadowed becomes visible again.
func (h *BankHandler) DeleteBank(c *gin.Context) {
	err := h.bankService.Delete(c.Request.Context(), c.Param("name"))
	respond(c, http.StatusOK, gin.H{"banks": h.bankService.List()}, err)
}

// GetQuestion godoc
// GET /api/v1/banks/:name/questions/:id
// Finds a question by id with its practice record.
func (h *BankHandler) GetQuestion(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	lookup, err := h.quizService.LookupQuestion(c.Param("name"), id)
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, lookup)
}
