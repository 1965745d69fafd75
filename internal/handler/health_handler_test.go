package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"gstfiling/internal/handler"
)

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func TestHealthHandler_Readiness(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"reachable", nil, http.StatusOK},
		{"unreachable", errors.New("dial tcp: refused"), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := handler.NewHealthHandler(pinger{err: tc.err})
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest(http.MethodGet, "/readyz", http.NoBody)

			h.Readiness(c)

			assert.Equal(t, tc.want, w.Code)
		})
	}
}
