package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
	"github.com/samber/lo"
	"github.com/workpulse/workpulse/internal/pkg/config"
	"github.com/workpulse/workpulse/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	maxLoggedBody = 8 * 1024
	maskedValue   = "***"
)

// masker holds lower-cased field and header names whose values never reach the logs.
type masker map[string]struct{}

func newMasker(cfg config.Config) masker {
	if cfg == nil {
		return masker{}
	}

	return lo.SliceToMap(cfg.GetArray("instrument.log_mask_fields"), func(field string) (string, struct{}) {
		return strings.ToLower(field), struct{}{}
	})
}

func (m masker) hides(key string) bool {
	_, ok := m[strings.ToLower(key)]
	return ok
}

func (m masker) headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if m.hides(k) {
			out[k] = maskedValue
			continue
		}
		out[k] = strings.Join(v, ", ")
	}
	return out
}

// body decodes raw as JSON and masks it; anything else is logged as text.
func (m masker) body(raw []byte, truncated bool) any {
	if len(raw) == 0 {
		return nil
	}

	var v any
	if !truncated && json.Unmarshal(raw, &v) == nil {
		return maskData(v, m)
	}
	if !utf8.Valid(raw) {
		return "<binary body omitted>"
	}
	if truncated {
		return string(raw) + "...(truncated)"
	}
	return string(raw)
}

func maskData(v any, keys masker) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			if keys.hides(k) {
				out[k] = maskedValue
				continue
			}
			out[k] = maskData(child, keys)
		}
		return out
	case []any:
		return lo.Map(val, func(child any, _ int) any { return maskData(child, keys) })
	default:
		return v
	}
}

// responseRecorder captures the status, size and the head of the body written by the handler.
type responseRecorder struct {
	http.ResponseWriter
	status    int
	size      int
	body      bytes.Buffer
	truncated bool
	err       error
}

func (w *responseRecorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	if room := maxLoggedBody - w.body.Len(); room > 0 {
		w.body.Write(p[:min(len(p), room)])
		w.truncated = w.truncated || len(p) > room
	} else if len(p) > 0 {
		w.truncated = true
	}

	n, err := w.ResponseWriter.Write(p)
	w.size += n
	return n, err
}

// SetError is called by the router with the error a handler returned.
func (w *responseRecorder) SetError(err error) {
	w.err = err
}

func (w *responseRecorder) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func matchedRoutePath(r *http.Request) string {
	if pattern := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}

// peekBody returns up to maxLoggedBody bytes of the request body and leaves
// r.Body readable from the start.
func peekBody(r *http.Request) ([]byte, bool) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, false
	}

	//nolint:errcheck // logging only, the handler sees the read error
	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody+1))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}

	if len(head) > maxLoggedBody {
		return head[:maxLoggedBody], true
	}
	return head, false
}

type httpObserver struct {
	tracer   trace.Tracer
	requests metric.Int64Counter
	latency  metric.Float64Histogram
	mask     masker
}

func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	o := &httpObserver{
		tracer: ins.Tracer("http.server"),
		mask:   newMasker(cfg),
	}

	meter := ins.Meter("http.server")
	var err error
	if o.requests, err = meter.Int64Counter("http.server.requests", metric.WithDescription("Number of HTTP requests received")); err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}
	if o.latency, err = meter.Float64Histogram("http.server.duration", metric.WithDescription("HTTP request duration in milliseconds"), metric.WithUnit("ms")); err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}

	return o.wrap
}

func (o *httpObserver) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		route := matchedRoutePath(r)

		ctx, span := o.tracer.Start(r.Context(), r.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				attribute.String("correlation_id", instrument.GetCorrelationID(r.Context())),
			),
		)
		defer span.End()

		reqBody, reqTruncated := peekBody(r)
		rec := &responseRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(ctx))

		elapsed := time.Since(start)
		status := rec.statusCode()
		attrs := metric.WithAttributes(
			semconv.HTTPRequestMethodKey.String(r.Method),
			semconv.HTTPRouteKey.String(route),
			semconv.HTTPResponseStatusCodeKey.Int(status),
		)
		if o.requests != nil {
			o.requests.Add(ctx, 1, attrs)
		}
		if o.latency != nil {
			o.latency.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
		}

		span.SetAttributes(
			semconv.HTTPResponseStatusCodeKey.Int(status),
			semconv.UserAgentOriginalKey.String(r.UserAgent()),
			attribute.Int("http.response_content_length", rec.size),
		)
		if rec.err != nil {
			span.RecordError(rec.err)
		}
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, lo.CoalesceOrEmpty(errorText(rec.err), http.StatusText(status)))
		}

		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		slog.Log(ctx, level, "http request",
			"method", r.Method,
			"route", route,
			"uri", r.RequestURI,
			"remote_ip", r.RemoteAddr,
			"status", status,
			"bytes", rec.size,
			"latency_ms", elapsed.Milliseconds(),
			"request_headers", o.mask.headers(r.Header),
			"request_body", o.mask.body(reqBody, reqTruncated),
			"response_body", o.mask.body(rec.body.Bytes(), rec.truncated),
		)
	})
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
