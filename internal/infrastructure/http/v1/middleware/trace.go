package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	appctx "invoicepro/internal/core/context"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

// Trace middleware adds request tracing context. The trace id comes from the
// active server span, then a W3C traceparent header, and is generated
// otherwise.
func Trace() gin.HandlerFunc {
	propagator := propagation.TraceContext{}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if !trace.SpanContextFromContext(ctx).IsValid() {
			ctx = propagator.Extract(ctx, propagation.HeaderCarrier(c.Request.Header))
		}

		tc := appctx.NewTraceContext(c.GetHeader(HeaderRequestID))
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			tc.TraceID = sc.TraceID().String()
		}

		ctx = appctx.WithTrace(ctx, tc)
		c.Request = c.Request.WithContext(ctx)

		c.Set("trace_id", tc.TraceID)
		c.Set("request_id", tc.RequestID)

		c.Header(HeaderRequestID, tc.RequestID)
		c.Header(HeaderTraceID, tc.TraceID)

		c.Next()
	}
}
