package api

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	graphqlRoute       = "/graphql"
	graphqlSpanName    = "graphql.request"
	graphqlEventName   = "graphql.request.completed"
	graphqlEventDomain = "uptask.api"
	observabilityEvent = "observability.event"
	tracerName         = "uptask-api/api"
)

type graphqlRequestMetrics struct {
	logger         *log.Logger
	span           trace.Span
	start          time.Time
	operation      string
	decodeDuration time.Duration
	execDuration   time.Duration
	errorCount     int
	errorStage     string
}

func newGraphQLRequestMetrics(ctx context.Context, logger *log.Logger) (*graphqlRequestMetrics, context.Context) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, graphqlSpanName,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("http.route", graphqlRoute)),
	)
	return &graphqlRequestMetrics{
		logger: logger,
		span:   span,
		start:  time.Now(),
	}, ctx
}

func (m *graphqlRequestMetrics) ObserveDecode(d time.Duration) {
	if d > 0 {
		m.decodeDuration = d
	}
}

func (m *graphqlRequestMetrics) ObserveExec(d time.Duration) {
	if d > 0 {
		m.execDuration = d
	}
}

func (m *graphqlRequestMetrics) SetOperation(name string) {
	m.operation = name
}

func (m *graphqlRequestMetrics) SetErrorCount(n int) {
	if n < 0 {
		n = 0
	}
	m.errorCount = n
}

func (m *graphqlRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

// Log ends the request span and emits a single observability event.
func (m *graphqlRequestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("http.route", graphqlRoute),
		attribute.Int("http.status_code", status),
		attribute.Float64("uptask.graphql.total_ms", durationToMillis(time.Since(m.start))),
		attribute.Int("uptask.graphql.error_count", m.errorCount),
	}
	if m.operation != "" {
		attrs = append(attrs, attribute.String("graphql.operation.name", m.operation))
	}
	if m.decodeDuration > 0 {
		attrs = append(attrs, attribute.Float64("uptask.graphql.decode_ms", durationToMillis(m.decodeDuration)))
	}
	if m.execDuration > 0 {
		attrs = append(attrs, attribute.Float64("uptask.graphql.exec_ms", durationToMillis(m.execDuration)))
	}
	if m.errorStage != "" {
		attrs = append(attrs, attribute.String("uptask.graphql.error_stage", m.errorStage))
	}
	if err != nil {
		attrs = append(attrs, attribute.String("error.message", err.Error()))
	}

	severityText, severityNumber := severityForStatus(status, err)
	if severityNumber == severityInfo && m.errorCount > 0 {
		severityText, severityNumber = "WARN", severityWarn
	}

	if m.span != nil {
		m.span.SetAttributes(attrs...)
		m.span.AddEvent(observabilityEvent, trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("event.name", graphqlEventName),
			attribute.String("event.domain", graphqlEventDomain),
			attribute.String("severity_text", severityText),
			attribute.Int("severity_number", severityNumber),
		}, attrs...)...))
		switch {
		case err != nil:
			m.span.RecordError(err)
			m.span.SetStatus(codes.Error, err.Error())
		case status >= http.StatusInternalServerError:
			m.span.SetStatus(codes.Error, http.StatusText(status))
		default:
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}
	attrMap := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		attrMap[string(kv.Key)] = kv.Value.AsInterface()
	}
	fields := log.Fields{
		"event.name":      graphqlEventName,
		"event.domain":    graphqlEventDomain,
		"attributes":      attrMap,
		"severity_text":   severityText,
		"severity_number": severityNumber,
	}
	if m.span != nil {
		if sc := m.span.SpanContext(); sc.HasTraceID() {
			fields["trace_id"] = sc.TraceID().String()
			fields["span_id"] = sc.SpanID().String()
		}
	}
	m.logger.WithFields(fields).Log(levelForSeverity(severityNumber), observabilityEvent)
}

const (
	severityInfo  = 9
	severityWarn  = 13
	severityError = 17
)

func severityForStatus(status int, err error) (string, int) {
	switch {
	case err != nil || status >= http.StatusInternalServerError:
		return "ERROR", severityError
	case status >= http.StatusBadRequest:
		return "WARN", severityWarn
	default:
		return "INFO", severityInfo
	}
}

func levelForSeverity(n int) log.Level {
	switch n {
	case severityError:
		return log.ErrorLevel
	case severityWarn:
		return log.WarnLevel
	default:
		return log.InfoLevel
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
