package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-drill/internal/model"
	"github.com/stemsi/exstem-drill/internal/response"
	"github.com/stemsi/exstem-drill/internal/service"
	"github.com/stemsi/exstem-drill/internal/validator"
)

type PreferenceHandler struct {
	preferenceService *service.PreferenceService
}

func NewPreferenceHandler(preferenceService *service.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{preferenceService: preferenceService}
}

// GetPreferences godoc
// GET /api/v1/preferences
func (h *PreferenceHandler) GetPreferences(c *gin.Context) {
	response.Success(c, http.StatusOK, h.preferenceService.Get())
}

// UpdatePreferences godoc
// PUT /api/v1/preferences
func (h *PreferenceHandler) UpdatePreferences(c *gin.Context) {
	var req model.UpdatePreferencesRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	prefs, err := h.preferenceService.SetTranslateEnabled(c.Request.Context(), *req.TranslateEnabled)
	respond(c, http.StatusOK, prefs, err)
}
