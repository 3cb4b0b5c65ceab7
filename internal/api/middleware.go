package api

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Recovery returns a middleware that recovers from panics, logs the stack
// trace, and returns a 500 to the client so the server continues serving.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				logger.Error("panic recovered",
					"panic", r,
					"stack", string(stack),
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"status": "error",
					"error":  "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// Tracing returns a middleware that injects OTEL trace context into each
// request using otelgin. The serviceName is attached to each span.
func Tracing(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// RequestLogger returns a middleware that emits a structured slog line for
// every request with method, path, status, and latency.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}

// responseCache is the subset of *cache.Cache used by QueryCache.
// Declaring it as an interface allows test doubles to be injected.
type responseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, payload []byte)
}

// QueryCache returns a middleware that serves aggregate GET responses from
// Redis, keyed by the full request URI. Only 200 responses are stored. A
// nil cache passes every request straight through.
func QueryCache(c responseCache) gin.HandlerFunc {
	return func(gc *gin.Context) {
		if c == nil || gc.Request.Method != http.MethodGet {
			gc.Next()
			return
		}

		key := gc.Request.URL.RequestURI()
		if payload, ok := c.Get(gc.Request.Context(), key); ok {
			gc.Header("X-Cache", "hit")
			gc.Data(http.StatusOK, "application/json; charset=utf-8", payload)
			gc.Abort()
			return
		}

		rec := &bodyRecorder{ResponseWriter: gc.Writer}
		gc.Writer = rec
		gc.Next()

		if rec.Status() == http.StatusOK {
			c.Set(gc.Request.Context(), key, rec.body.Bytes())
		}
	}
}

// bodyRecorder tees the response body so QueryCache can store it after the
// handler runs.
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *bodyRecorder) WriteString(s string) (int, error) {
	r.body.WriteString(s)
	return r.ResponseWriter.WriteString(s)
}
