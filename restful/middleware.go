package restful

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"logur.dev/logur"

	"gitlab.com/silenteer-oss/fetch"
	"gitlab.com/silenteer-oss/fetch/log"
	"gitlab.com/silenteer-oss/fetch/tracing"
)

const XRequestId = "X-Request-Id"

type contextKey string

const (
	loggerKey    contextKey = "X-LOGGER-ID"
	requestIdKey contextKey = XRequestId
)

// LoggerFromContext returns the request scoped logger, or the package
// default outside of a request.
func LoggerFromContext(ctx context.Context) logur.Logger {
	logger, ok := ctx.Value(loggerKey).(logur.Logger)
	if !ok {
		logger = fetch.GetLogger()
	}
	return logger
}

func RequestId(ctx context.Context) string {
	id, _ := ctx.Value(requestIdKey).(string)
	return id
}

func NewMiddleware(name string, logger logur.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			t := time.Now()
			if r.Header == nil {
				r.Header = http.Header{}
			}
			requestID := r.Header.Get(XRequestId)
			if requestID == "" {
				requestID = uuid.New().String()
				r.Header.Set(XRequestId, requestID)
			}
			w.Header().Set(XRequestId, requestID)

			logWithId := log.WithFields(logger, map[string]interface{}{
				"id":     requestID,
				"method": r.Method,
				"url":    r.URL.Path,
			})
			logWithId.Debug(name + " server received request")

			span := tracing.SpanFromHeaders(r.Header, r.Method+" "+r.URL.Path)
			defer span.Finish()

			ctx := opentracing.ContextWithSpan(r.Context(), span)
			ctx = context.WithValue(ctx, loggerKey, logWithId)
			ctx = context.WithValue(ctx, requestIdKey, requestID)

			rp := NewCustomResponseWriter(w)

			defer func() {
				span.SetTag("http.status_code", rp.StatusCode)
				logWithId.Debug(name+" server request complete", map[string]interface{}{
					"status":     rp.StatusCode,
					"elapsed_ms": float64(time.Since(t).Nanoseconds()) / 1000000.0},
				)
			}()

			next.ServeHTTP(rp, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}

// CustomResponseWriter records the status code written by the handler.
type CustomResponseWriter struct {
	w          http.ResponseWriter
	StatusCode int
}

func NewCustomResponseWriter(w http.ResponseWriter) *CustomResponseWriter {
	return &CustomResponseWriter{w: w, StatusCode: http.StatusOK}
}

func (c *CustomResponseWriter) Header() http.Header {
	return c.w.Header()
}

func (c *CustomResponseWriter) Write(b []byte) (int, error) {
	return c.w.Write(b)
}

func (c *CustomResponseWriter) WriteHeader(statusCode int) {
	c.w.WriteHeader(statusCode)
	c.StatusCode = statusCode
}
