package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing starts a server span per request. Span names follow the route
// template ("GET /api/v1/products/:id").
func Tracing(serviceName string, enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return otelgin.Middleware(serviceName)
}

// TraceAttributes enriches the current span with the request, organization
// and user identifiers. It must run after Tenant so the organization is known.
func TraceAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		attrs := []attribute.KeyValue{attribute.String("request_id", GetRequestID(c))}
		if orgID, ok := GetOrganizationID(c); ok {
			attrs = append(attrs, attribute.String("organization_id", orgID.String()))
		}
		if userID := GetUserID(c); userID != nil {
			attrs = append(attrs, attribute.String("user_id", userID.String()))
		}
		span.SetAttributes(attrs...)

		c.Next()

		if len(c.Errors) > 0 {
			span.RecordError(c.Errors.Last())
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(c.Writer.Status()))
		}
	}
}
