package middleware

import (
	"intelliquery/pkg"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const RequestIDHeader = "X-Request-ID"

// RequestContext tags every request with an id and attaches a logger carrying it to the
// request context, so services log with the same id.
func RequestContext(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}

		reqLogger := logger.With().Str("request_id", requestID).Logger()
		ctx := pkg.WithRequestID(c.Request.Context(), requestID)
		ctx = reqLogger.WithContext(ctx)
		c.Request = c.Request.WithContext(ctx)

		c.Set("requestID", requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}
