package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	domerrors "github.com/garyellow/uonline/internal/errors"
	"github.com/garyellow/uonline/internal/i18n"
	"github.com/garyellow/uonline/internal/sentry"
)

// statusClientClosedRequest is reported when the caller went away before
// the response was ready.
const statusClientClosedRequest = 499

// classify maps a service error to an HTTP status and a metric label.
func classify(err error) (int, string) {
	var cfgErr *domerrors.ConfigError
	switch {
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, "canceled"
	case errors.Is(err, domerrors.ErrInvalidInput):
		return http.StatusBadRequest, "validation"
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError, "config"
	case errors.Is(err, domerrors.ErrNoResults):
		return http.StatusTooManyRequests, "no_results"
	case errors.Is(err, domerrors.ErrNoCourses):
		return http.StatusNotFound, "no_courses"
	case errors.Is(err, domerrors.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domerrors.ErrTimeout):
		return http.StatusRequestTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// fail writes err as a JSON error body. Record and cache routes wrap the
// message in a {"success": false} envelope.
func (h *Handler) fail(c *gin.Context, err error, lang i18n.Language, fallback i18n.Key, envelope bool) {
	status, errType := classify(err)
	msg := domerrors.GetUserMessage(err, i18n.T(lang, fallback))
	route := c.FullPath()
	ctx := c.Request.Context()

	h.metrics.RecordHTTPError(errType, route)

	attrs := []any{"route", route, "error_type", errType, "error", err}
	if module, op, ok := domerrors.Origin(err); ok {
		attrs = append(attrs, "module", module, "operation", op)
	}

	switch {
	case status == statusClientClosedRequest:
		slog.DebugContext(ctx, "Request canceled by client", "route", route)
	case status >= http.StatusInternalServerError:
		slog.ErrorContext(ctx, "Request failed", attrs...)
		if errType != "config" {
			sentry.CaptureRequestError(c, err)
		}
	default:
		slog.InfoContext(ctx, "Request rejected", append(attrs, "status", status)...)
	}

	if envelope {
		c.JSON(status, gin.H{"success": false, "error": msg})
		return
	}
	c.JSON(status, gin.H{"error": msg})
}

// badRequest answers a request whose body could not be decoded.
func (h *Handler) badRequest(c *gin.Context, lang i18n.Language, key i18n.Key, envelope bool) {
	h.metrics.RecordHTTPError("validation", c.FullPath())
	msg := i18n.T(lang, key)
	if envelope {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
