package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// BodyLimit caps request bodies at maxBytes, or at uploadBytes for
// multipart/form-data uploads. A declared length over the cap is refused up
// front; chunked bodies fail when the handler reads past it.
func BodyLimit(maxBytes, uploadBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}
		limit := maxBytes
		if uploadBytes > 0 && strings.HasPrefix(c.ContentType(), "multipart/form-data") {
			limit = uploadBytes
		}
		if c.Request.ContentLength > limit {
			abortWithError(c, http.StatusRequestEntityTooLarge, "ERR_PAYLOAD_TOO_LARGE",
				"Request body exceeds maximum allowed size")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
