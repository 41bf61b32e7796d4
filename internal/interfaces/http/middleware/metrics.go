package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestObserver receives one observation per served request
type RequestObserver interface {
	RequestStarted()
	RequestFinished()
	ObserveRequest(method, route, status string, elapsed time.Duration)
}

// unmatchedRoute labels requests that hit no route so 404 scans cannot
// explode label cardinality.
const unmatchedRoute = "unmatched"

// Metrics records request count, latency and in-flight requests.
func Metrics(obs RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		obs.RequestStarted()
		defer obs.RequestFinished()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		obs.ObserveRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
