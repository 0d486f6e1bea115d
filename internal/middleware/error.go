package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "erario/internal/errors"
	"erario/internal/logger"
)

// ErrorHandler turns the last error attached with c.Error into the JSON
// error body used across the API. Binding errors become INVALID_INPUT,
// AppErrors keep their code and status, and anything else is logged and
// reported as INTERNAL_ERROR. Responses already written are left alone.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		appErr := toAppError(last)
		if appErr.Internal != nil || appErr.Code == apperrors.ErrInternalServer.Code {
			internal := last.Err
			if appErr.Internal != nil {
				internal = appErr.Internal
			}
			logger.Named("http").Errorw("request failed",
				"request_id", c.GetString(requestIDKey),
				"code", appErr.Code,
				"error", internal.Error(),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)
		}

		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{"code": appErr.Code, "message": appErr.Message},
		})
	}
}

func toAppError(ginErr *gin.Error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(ginErr.Err, &appErr) {
		return appErr
	}
	if ginErr.IsType(gin.ErrorTypeBind) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, ginErr.Err.Error())
	}
	return apperrors.ErrInternalServer
}
