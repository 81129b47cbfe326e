package tracing

import (
	"io"
	"log"
	"net/http"
	"os"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/uber/jaeger-lib/metrics"

	jaegercfg "github.com/uber/jaeger-client-go/config"
)

const (
	XRequestId          = "X-Request-Id"
	UberTraceID         = "Uber-Trace-Id"
	JAEGER_SERVICE_NAME = "JAEGER_SERVICE_NAME"
)

type jaegerLogger struct {
	loggerOut *log.Logger
}

func (t *jaegerLogger) Error(msg string) {
	t.loggerOut.Println("Err: ", msg)
}

func (t *jaegerLogger) Infof(msg string, args ...interface{}) {
}

// InitTracing installs a jaeger tracer, configured from the JAEGER_* env
// variables, as the global tracer. The returned closer flushes pending
// spans. Without a usable configuration the noop tracer stays in place.
func InitTracing(serviceName string) (io.Closer, error) {
	if os.Getenv(JAEGER_SERVICE_NAME) == "" {
		os.Setenv(JAEGER_SERVICE_NAME, serviceName)
	}

	cfg, err := jaegercfg.FromEnv()
	if err != nil {
		return nil, err
	}

	tracer, closer, err := cfg.NewTracer(
		jaegercfg.Logger(&jaegerLogger{loggerOut: log.New(os.Stdout, "", log.LstdFlags)}),
		jaegercfg.Metrics(metrics.NullFactory),
	)
	if err != nil {
		return nil, err
	}

	opentracing.SetGlobalTracer(tracer)
	return closer, nil
}

// SpanFromHeaders starts a server span continuing the trace carried in
// header, or a new root span when there is none. The span context is
// injected back into header.
func SpanFromHeaders(header http.Header, operation string) opentracing.Span {
	tracer := opentracing.GlobalTracer()

	spanCtx, err := tracer.Extract(opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(header))
	var span opentracing.Span
	if err == nil {
		span = tracer.StartSpan(operation, ext.RPCServerOption(spanCtx))
	} else {
		span = tracer.StartSpan(operation, ext.SpanKindRPCServer)
	}

	if id := header.Get(XRequestId); id != "" {
		span.SetTag(XRequestId, id)
	}
	_ = tracer.Inject(span.Context(), opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(header))
	return span
}
