// Package middleware provides HTTP middleware functions.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tiaocarreiro/top5/pkg/ctxutil"
)

const (
	headerRequestID = "X-Request-ID"
	headerClientID  = "X-Client-ID"
)

// RequestID sets a unique request ID in the context for each request.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		// RequestID: always set (generate if not provided)
		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		// ClientID: optional header, fallback to UUID for traceability
		clientID := c.GetHeader(headerClientID)
		if clientID == "" {
			clientID = uuid.New().String()
		}
		ctx := ctxutil.WithRequestID(c.Request.Context(), requestID)
		ctx = ctxutil.WithClientID(ctx, clientID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(headerRequestID, requestID)
		c.Header(headerClientID, clientID)
		c.Next()
	}
}
