package observability

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/trace"
)

// Audit emits one structured line per security-relevant auth event so the
// trail can be reconstructed without replaying application logs. Trace ids
// ride along as attributes when a span is recording.
func Audit(r *http.Request, event string, attrs ...any) {
	fields := make([]any, 0, len(attrs)+12)
	fields = append(fields,
		"event", event,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", r.Header.Get("X-Request-Id"),
	)
	if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
		fields = append(fields,
			"trace_id", sc.TraceID().String(),
			"span_id", sc.SpanID().String(),
		)
	}
	fields = append(fields, attrs...)
	slog.InfoContext(r.Context(), "audit", fields...)
}
