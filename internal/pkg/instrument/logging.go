package instrument

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const redacted = "***"

func initLogging(serviceName, level string, lp *sdklog.LoggerProvider, maskFields []string) {
	slog.SetDefault(slog.New(newHandler(os.Stdout, serviceName, level, lp, maskFields)))
}

func parseLevel(level string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// newHandler writes JSON lines to w and, when lp is set, mirrors every
// record to the OTLP log pipeline. Values of maskFields are redacted
// before they reach either sink.
func newHandler(w io.Writer, serviceName, level string, lp *sdklog.LoggerProvider, maskFields []string) slog.Handler {
	var sink slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       parseLevel(level),
		AddSource:   true,
		ReplaceAttr: renameAttr,
	})
	if lp != nil {
		sink = fanout{sink, otelslog.NewHandler(serviceName, otelslog.WithLoggerProvider(lp))}
	}

	r := newRedactor(maskFields)
	if len(r) > 0 {
		sink = &redactHandler{next: sink, redact: r}
	}

	return &contextHandler{Handler: sink, service: serviceName}
}

func renameAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		_, rel, found := strings.Cut(src.File, "/internal/")
		if !found {
			return slog.Attr{}
		}
		return slog.String("file", "internal/"+rel+":"+strconv.Itoa(src.Line))
	}
	return a
}

// contextHandler stamps the correlation id and the service name on every record.
type contextHandler struct {
	slog.Handler
	service string
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if cID := GetCorrelationID(ctx); cID != "" {
		r.AddAttrs(slog.String("_cID", cID))
	}
	r.AddAttrs(slog.String("service", h.service))
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs), service: h.service}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name), service: h.service}
}

type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	return lo.SomeBy(f, func(h slog.Handler) bool { return h.Enabled(ctx, level) })
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return fanout(lo.Map(f, func(h slog.Handler, _ int) slog.Handler { return h.WithAttrs(attrs) }))
}

func (f fanout) WithGroup(name string) slog.Handler {
	return fanout(lo.Map(f, func(h slog.Handler, _ int) slog.Handler { return h.WithGroup(name) }))
}

// redactor is the set of lower-cased attribute and JSON keys whose values are hidden.
type redactor map[string]struct{}

func newRedactor(fields []string) redactor {
	keys := lo.Compact(lo.Map(fields, func(f string, _ int) string {
		return strings.ToLower(strings.TrimSpace(f))
	}))
	return lo.Keyify(keys)
}

func (r redactor) hides(key string) bool {
	_, ok := r[strings.ToLower(key)]
	return ok
}

func (r redactor) attr(a slog.Attr) slog.Attr {
	if r.hides(a.Key) {
		return slog.String(a.Key, redacted)
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		a.Value = slog.GroupValue(lo.Map(v.Group(), func(ga slog.Attr, _ int) slog.Attr { return r.attr(ga) })...)
	case slog.KindString:
		if out, ok := r.json([]byte(v.String())); ok {
			a.Value = slog.StringValue(out)
		}
	case slog.KindAny:
		switch val := v.Any().(type) {
		case map[string]any, []any:
			a.Value = slog.AnyValue(r.value(val))
		case map[string]string:
			a.Value = slog.AnyValue(r.value(lo.MapValues(val, func(s string, _ string) any { return s })))
		case []byte:
			if out, ok := r.json(val); ok {
				a.Value = slog.StringValue(out)
			}
		}
	}
	return a
}

// json redacts payload when it holds a JSON object or array.
func (r redactor) json(payload []byte) (string, bool) {
	trimmed := strings.TrimSpace(string(payload))
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return "", false
	}

	var doc any
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return "", false
	}
	out, err := json.Marshal(r.value(doc))
	if err != nil {
		return "", false
	}
	return string(out), true
}

func (r redactor) value(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			if r.hides(k) {
				out[k] = redacted
				continue
			}
			out[k] = r.value(child)
		}
		return out
	case []any:
		return lo.Map(val, func(child any, _ int) any { return r.value(child) })
	default:
		return v
	}
}

type redactHandler struct {
	next   slog.Handler
	redact redactor
}

func (h *redactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *redactHandler) Handle(ctx context.Context, rec slog.Record) error {
	out := slog.NewRecord(rec.Time, rec.Level, rec.Message, rec.PC)
	rec.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redact.attr(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *redactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &redactHandler{
		next:   h.next.WithAttrs(lo.Map(attrs, func(a slog.Attr, _ int) slog.Attr { return h.redact.attr(a) })),
		redact: h.redact,
	}
}

func (h *redactHandler) WithGroup(name string) slog.Handler {
	return &redactHandler{next: h.next.WithGroup(name), redact: h.redact}
}
