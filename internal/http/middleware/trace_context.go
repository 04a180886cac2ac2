package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/dxplatform-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"
)

// AttachTraceContext stores correlation ids on the request context and echoes them back.
// An inbound X-Trace-Id wins, then the active span's trace id, then a fresh uuid.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span := trace.SpanFromContext(ctx)

		td := &ctxutil.TraceData{
			RequestID: headerOr(c, headerRequestID, uuid.NewString),
			TraceID: headerOr(c, headerTraceID, func() string {
				if sc := span.SpanContext(); sc.HasTraceID() {
					return sc.TraceID().String()
				}
				return uuid.NewString()
			}),
		}
		if span.IsRecording() {
			span.SetAttributes(attribute.String("http.request_id", td.RequestID))
		}

		c.Request = c.Request.WithContext(ctxutil.WithTraceData(ctx, td))
		c.Writer.Header().Set(headerTraceID, td.TraceID)
		c.Writer.Header().Set(headerRequestID, td.RequestID)
		c.Next()
	}
}

func headerOr(c *gin.Context, name string, fallback func() string) string {
	if v := strings.TrimSpace(c.GetHeader(name)); v != "" {
		return v
	}
	return fallback()
}
