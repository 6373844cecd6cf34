package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logging logs one structured line per request. Health probes are
// skipped to keep the log readable.
func Logging(log *zap.Logger) gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		if param.Path == "/health" || param.Path == "/metrics" {
			return ""
		}

		requestID := ""
		if param.Keys != nil {
			if id, ok := param.Keys["request_id"].(string); ok {
				requestID = id
			}
		}

		log.Info("http request",
			zap.String("request_id", requestID),
			zap.String("method", param.Method),
			zap.String("path", param.Path),
			zap.Int("status", param.StatusCode),
			zap.Int64("latency_ms", param.Latency.Milliseconds()),
			zap.String("client_ip", param.ClientIP),
			zap.String("error", param.ErrorMessage),
		)
		return ""
	})
}
