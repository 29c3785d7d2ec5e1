package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-drill/internal/quiz"
	"github.com/stemsi/exstem-drill/internal/response"
	"github.com/stemsi/exstem-drill/internal/service"
)

// errorStatus maps a domain error to its HTTP status and error code.
func errorStatus(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, service.ErrBankNotFound):
		return http.StatusNotFound, response.ErrBankNotFound
	case errors.Is(err, service.ErrBankNotCustom):
		return http.StatusConflict, response.ErrBankNotCustom
	case errors.Is(err, service.ErrQuestionNotFound):
		return http.StatusNotFound, response.ErrQuestionNotFound
	case errors.Is(err, service.ErrUnsupportedBankFile):
		return http.StatusBadRequest, response.ErrUnsupportedFile
	case errors.Is(err, service.ErrBankFileTooLarge):
		return http.StatusRequestEntityTooLarge, response.ErrFileTooLarge
	case errors.Is(err, quiz.ErrEmptyBank):
		return http.StatusUnprocessableEntity, response.ErrBankEmpty

	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, response.ErrSessionNotFound
	case errors.Is(err, service.ErrSessionNotCompleted):
		return http.StatusConflict, response.ErrSessionNotCompleted
	case errors.Is(err, service.ErrStaleTranslation):
		return http.StatusConflict, response.ErrTranslationStale
	case errors.Is(err, quiz.ErrEmptySelection):
		return http.StatusUnprocessableEntity, response.ErrEmptySelection
	case errors.Is(err, quiz.ErrEmptyWrongSet):
		return http.StatusUnprocessableEntity, response.ErrEmptyWrongSet
	case errors.Is(err, quiz.ErrUnknownOption):
		return http.StatusUnprocessableEntity, response.ErrUnknownOption
	case errors.Is(err, quiz.ErrAlreadySubmitted):
		return http.StatusConflict, response.ErrAlreadySubmitted
	case errors.Is(err, quiz.ErrNotSubmitted):
		return http.StatusConflict, response.ErrNotSubmitted
	case errors.Is(err, quiz.ErrNoPreviousQuestion):
		return http.StatusConflict, response.ErrNoPreviousQuestion
	case errors.Is(err, quiz.ErrSessionCompleted):
		return http.StatusConflict, response.ErrSessionCompleted
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

// failWith sends the error response for err.
func failWith(c *gin.Context, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	response.Fail(c, status, code)
}

// respond sends data, or the mapped error. A *service.PersistenceError is
// not a failure: the data goes out with a warning.
func respond(c *gin.Context, status int, data interface{}, err error) {
	if err == nil {
		response.Success(c, status, data)
		return
	}
	if _, ok := service.AsPersistenceError(err); ok {
		response.SuccessWithWarning(c, status, data, response.WarnPersistence)
		return
	}
	failWith(c, err)
}
