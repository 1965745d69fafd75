package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"gstfiling/internal/domain"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// RespondRejected sends a 422 carrying the rejected outcome and its findings.
func RespondRejected(c *gin.Context, data interface{}) {
	c.JSON(http.StatusUnprocessableEntity, APIResponse{
		Success: false,
		Data:    data,
		Error:   &APIError{Code: "VALIDATION_FAILED", Message: domain.ErrValidationFailed.Error()},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		return http.StatusNotFound, "PROFILE_NOT_FOUND", "filer profile not found"
	case errors.Is(err, domain.ErrFilingNotFound):
		return http.StatusNotFound, "FILING_NOT_FOUND", "no filing exists for this GSTIN and period"
	case errors.Is(err, domain.ErrFilingExists):
		return http.StatusConflict, "FILING_EXISTS", "a filing already exists for this period"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "CONCURRENT_MODIFICATION", "the filing changed concurrently; retry"
	case errors.Is(err, domain.ErrInvalidPeriod):
		return http.StatusBadRequest, "INVALID_PERIOD", "period must be MM-YYYY"
	case errors.Is(err, domain.ErrInvalidSpreadsheet):
		return http.StatusBadRequest, "INVALID_SPREADSHEET", err.Error()
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT", err.Error()
	case errors.Is(err, domain.ErrValidationFailed):
		return http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed with blocking errors"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log.Error().Err(err).Interface("request_id", requestID).Str("path", c.Request.URL.Path).
			Msg("internal error")
	}
	RespondError(c, status, code, msg)
}
