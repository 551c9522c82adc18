package apperrors

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Responder is the single place handler failures become HTTP responses.
// Every error, wherever it came from, leaves the process as the uniform
// {"success":false,"message":...} envelope.
type Responder struct {
	// Debug adds the error code and the raw cause to the envelope.
	// Never set in production.
	Debug bool
}

func (r Responder) Respond(ctx *gin.Context, err error) {
	appErr, ok := As(err)

	if !ok {
		appErr = Internal(err)
	}

	if appErr.HTTPStatus >= http.StatusInternalServerError {
		slog.Default().ErrorContext(ctx.Request.Context(), "request failed",
			"code", string(appErr.Code),
			"err", err,
		)
	}

	body := gin.H{
		"success": false,
		"message": appErr.Message,
	}

	if r.Debug {
		body["code"] = appErr.Code

		if appErr.Err != nil {
			body["error"] = appErr.Err.Error()
		}

		if appErr.Details != nil {
			body["details"] = appErr.Details
		}
	}

	ctx.AbortWithStatusJSON(appErr.HTTPStatus, body)
}

// NoRoute handles unmatched paths with the same envelope.
func (r Responder) NoRoute(ctx *gin.Context) {
	r.Respond(ctx, NotFound(ctx.Request.URL.Path+" route not found."))
}
