package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tiaocarreiro/top5/pkg"
)

const bearerPrefix = "Bearer "

// AdminAuth guards the admin route group with a configured bearer token.
// This is the seam where a JWT service would plug in; token issuance and
// user management live outside this API.
func AdminAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, pkg.Fail("admin access is not configured"))
			return
		}
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, pkg.Fail("missing bearer token"))
			return
		}
		presented := strings.TrimPrefix(header, bearerPrefix)
		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, pkg.Fail("invalid bearer token"))
			return
		}
		c.Next()
	}
}
