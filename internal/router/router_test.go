package router_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gstfiling/internal/domain"
	"gstfiling/internal/handler"
	"gstfiling/internal/router"
	"gstfiling/mocks"
)

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

func setup() (*gin.Engine, *mocks.MockFilingService) {
	gin.SetMode(gin.TestMode)
	svc := new(mocks.MockFilingService)
	r := router.Setup(
		zerolog.New(io.Discard),
		[]string{"http://localhost:3000"},
		handler.NewHealthHandler(okPinger{}),
		handler.NewProfileHandler(svc),
		handler.NewFilingHandler(svc),
	)
	return r, svc
}

func TestSetup_Health(t *testing.T) {
	r, _ := setup()

	for _, path := range []string{"/healthz", "/readyz"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, http.NoBody)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	}
}

func TestSetup_FilingRoutesBindParams(t *testing.T) {
	r, svc := setup()
	svc.On("GetFiling", mock.Anything, "29ABCDE1234F1Z5", "06-2025").Return(nil, domain.ErrFilingNotFound)
	svc.On("DeleteInvoice", mock.Anything, "29ABCDE1234F1Z5", "06-2025", "INV-9").
		Return(nil, domain.ErrFilingNotFound)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/filings/29ABCDE1234F1Z5/06-2025", http.NoBody)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodDelete, "/api/v1/filings/29ABCDE1234F1Z5/06-2025/invoices/INV-9", http.NoBody)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	svc.AssertExpectations(t)
}

func TestSetup_ExportDownloadsRouted(t *testing.T) {
	r, svc := setup()
	svc.On("GetFiling", mock.Anything, "29ABCDE1234F1Z5", "06-2025").Return(nil, domain.ErrFilingNotFound)

	for _, path := range []string{"export.csv", "export.xlsx"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/filings/29ABCDE1234F1Z5/06-2025/"+path, http.NoBody)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Contains(t, w.Body.String(), "FILING_NOT_FOUND", path)
	}
}

func TestSetup_UnknownRoute(t *testing.T) {
	r, _ := setup()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/nope", http.NoBody)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
