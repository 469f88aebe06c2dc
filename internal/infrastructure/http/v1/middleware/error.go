package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invoicepro/internal/core/apperror"
	appctx "invoicepro/internal/core/context"
	"invoicepro/pkg/logger"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		WriteError(c)
	}
}

// WriteError renders the last error attached to c unless a response was
// already written. Middleware that needs the final body before ErrorHandler
// runs calls it directly.
func WriteError(c *gin.Context) {
	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}
	status, body := Render(c, c.Errors.Last().Err)
	c.JSON(status, body)
}

// Render maps err to a status and body, logging anything the client will
// not see.
func Render(c *gin.Context, err error) (int, ErrorBody) {
	ctx := c.Request.Context()

	if appErr, ok := apperror.AsAppError(err); ok {
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			logger.Error(ctx, "request failed", "code", appErr.Code, "cause", appErr.Err)
			return appErr.HTTPStatus, internalBody(c)
		}
		if appErr.Err != nil {
			logger.Warn(ctx, "request error", "code", appErr.Code, "cause", appErr.Err)
		}
		return appErr.HTTPStatus, ErrorBody{Error: ErrorDetail{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		}}
	}

	logger.Error(ctx, "unhandled error", "error", err)
	return http.StatusInternalServerError, internalBody(c)
}

func internalBody(c *gin.Context) ErrorBody {
	return ErrorBody{Error: ErrorDetail{
		Code:    apperror.CodeInternal,
		Message: "Internal server error",
		Details: map[string]any{"request_id": appctx.GetRequestID(c.Request.Context())},
	}}
}
