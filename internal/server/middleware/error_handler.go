package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mp3player/internal/server/apierrors"
)

// Recovery turns panics into JSON internal errors instead of gin's
// default plain-text response.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		requestID := c.GetString("request_id")

		var apiErr *apierrors.APIError
		switch v := recovered.(type) {
		case *apierrors.APIError:
			apiErr = v
		case error:
			log.Error("handler panicked",
				zap.String("request_id", requestID),
				zap.String("path", c.Request.URL.Path),
				zap.Error(v))
			apiErr = apierrors.NewInternal("internal server error")
		default:
			log.Error("handler panicked",
				zap.String("request_id", requestID),
				zap.Any("recovered", recovered))
			apiErr = apierrors.NewInternal("internal server error")
		}

		apiErr.RequestID = requestID
		c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
	})
}

// Fail writes err as a JSON error response and aborts the request.
func Fail(c *gin.Context, err error) {
	if err == nil {
		return
	}
	apiErr := apierrors.FromDomain(err)
	apiErr.RequestID = c.GetString("request_id")
	c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
}
