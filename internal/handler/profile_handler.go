package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gstfiling/internal/domain"
	"gstfiling/internal/service"
)

// ProfileHandler handles filer profile endpoints.
type ProfileHandler struct {
	filingService service.FilingService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(filingService service.FilingService) *ProfileHandler {
	return &ProfileHandler{filingService: filingService}
}

// ProfileRequest is the body of PUT /profiles/:gstin.
type ProfileRequest struct {
	LegalName            string `json:"legal_name"`
	TradeName            string `json:"trade_name"`
	RegistrationCategory string `json:"registration_category"`
	FilingFrequency      string `json:"filing_frequency"`
}

// ProfileResponse carries the saved profile and any non-blocking findings.
type ProfileResponse struct {
	Profile *domain.Profile         `json:"profile,omitempty"`
	Errors  domain.ValidationErrors `json:"errors"`
}

// Save handles PUT /api/v1/profiles/:gstin
// @Summary      Save a filer profile
// @Description  Validates and stores the filer profile for a GSTIN
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Param        gstin path string true "Filer GSTIN"
// @Param        body body ProfileRequest true "Profile"
// @Success      200 {object} APIResponse{data=ProfileResponse}
// @Failure      400 {object} APIResponse "Malformed request"
// @Failure      422 {object} APIResponse "Rejected with blocking findings"
// @Failure      500 {object} APIResponse "Internal error"
// @Router       /profiles/{gstin} [put]
func (h *ProfileHandler) Save(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	profile := domain.Profile{
		GSTIN:                c.Param("gstin"),
		LegalName:            req.LegalName,
		TradeName:            req.TradeName,
		RegistrationCategory: domain.RegistrationCategory(req.RegistrationCategory),
		FilingFrequency:      domain.FilingFrequency(req.FilingFrequency),
	}

	saved, errs, err := h.filingService.SaveProfile(c.Request.Context(), profile)
	switch {
	case errors.Is(err, domain.ErrValidationFailed):
		RespondRejected(c, ProfileResponse{Errors: errs})
	case err != nil:
		HandleError(c, err)
	default:
		RespondOK(c, ProfileResponse{Profile: saved, Errors: errs})
	}
}
