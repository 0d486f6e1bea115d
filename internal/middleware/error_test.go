package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "erario/internal/errors"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		handler    gin.HandlerFunc
		wantStatus int
		wantCode   string
	}{
		{
			name: "app_error",
			handler: func(c *gin.Context) {
				_ = c.Error(apperrors.ErrIllegalTransition)
			},
			wantStatus: http.StatusConflict,
			wantCode:   "ILLEGAL_TRANSITION",
		},
		{
			name: "wrapped_app_error",
			handler: func(c *gin.Context) {
				_ = c.Error(apperrors.Wrap(apperrors.ErrConcurrencyConflict, errors.New("serialization failure")))
			},
			wantStatus: http.StatusConflict,
			wantCode:   "CONCURRENCY_CONFLICT",
		},
		{
			name: "bind_error",
			handler: func(c *gin.Context) {
				_ = c.Error(errors.New("amount is required")).SetType(gin.ErrorTypeBind)
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name: "unexpected_error",
			handler: func(c *gin.Context) {
				_ = c.Error(errors.New("connection reset"))
			},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(RequestLogging(), ErrorHandler())
			r.GET("/fail", tt.handler)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", http.NoBody))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			errObj, ok := parseBody(t, rec)["error"].(map[string]interface{})
			if !ok {
				t.Fatal("expected error object in response")
			}
			if code, _ := errObj["code"].(string); code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
		})
	}

	t.Run("written_response_is_kept", func(t *testing.T) {
		r := gin.New()
		r.Use(ErrorHandler())
		r.GET("/partial", func(c *gin.Context) {
			c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
			_ = c.Error(errors.New("late failure"))
		})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/partial", http.NoBody))

		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusAccepted)
		}
	})
}
