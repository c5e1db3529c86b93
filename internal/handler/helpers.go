package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/legalqa/internal/middleware"
	appErr "github.com/xxxsen/legalqa/internal/pkg/errors"
	"github.com/xxxsen/legalqa/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	status, fallback := statusOf(err)
	logger := logutil.GetLogger(c.Request.Context()).With(
		zap.String("request_id", c.GetString(middleware.ContextRequestIDKey)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed")
	} else {
		logger.Warn("request rejected")
	}
	detail, ok := appErr.DetailOf(err)
	if !ok {
		detail = fallback
	}
	response.Error(c, status, detail)
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, appErr.ErrInvalidSession):
		return http.StatusBadRequest, "Session expired or invalid."
	case errors.Is(err, appErr.ErrInvalid):
		return http.StatusBadRequest, "Invalid request."
	case errors.Is(err, appErr.ErrNotFound):
		return http.StatusNotFound, "Not found."
	case errors.Is(err, appErr.ErrUpstream):
		return http.StatusInternalServerError, "Upstream service failed."
	default:
		return http.StatusInternalServerError, "Internal server error."
	}
}

// formatUploadLimit renders a byte limit in whole megabytes for user-facing
// messages, rounding anything below one megabyte up to 1MB.
func formatUploadLimit(limit int64) string {
	const mb = 1 << 20
	switch {
	case limit <= 0:
		return "0MB"
	case limit < mb:
		return "1MB"
	default:
		return fmt.Sprintf("%dMB", limit/mb)
	}
}
