package core

import (
	"context"
	"sync"
	"testing"
)

type capturedCounter struct {
	name  string
	value int64
	tags  map[string]string
}

type capturedHistogram struct {
	name  string
	value float64
	tags  map[string]string
}

type captureMetricsRecorder struct {
	mu         sync.Mutex
	counters   []capturedCounter
	histograms []capturedHistogram
}

func (m *captureMetricsRecorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = append(m.counters, capturedCounter{name: name, value: value, tags: cloneTags(tags)})
}

func (m *captureMetricsRecorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histograms = append(m.histograms, capturedHistogram{name: name, value: value, tags: cloneTags(tags)})
}

type capturedLog struct {
	level  string
	msg    string
	fields map[string]any
}

type captureLogger struct {
	mu       *sync.Mutex
	records  *[]capturedLog
	defaults map[string]any
}

func newCaptureLogger() *captureLogger {
	records := []capturedLog{}
	return &captureLogger{mu: &sync.Mutex{}, records: &records, defaults: map[string]any{}}
}

func (l *captureLogger) WithFields(fields map[string]any) Logger {
	merged := cloneFieldMap(l.defaults)
	for key, value := range fields {
		merged[key] = value
	}
	return &captureLogger{mu: l.mu, records: l.records, defaults: merged}
}

func (l *captureLogger) Trace(msg string, args ...any) { l.record("trace", msg, args...) }
func (l *captureLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("info", msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args...) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }
func (l *captureLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args...) }

func (l *captureLogger) WithContext(context.Context) Logger {
	return &captureLogger{mu: l.mu, records: l.records, defaults: cloneFieldMap(l.defaults)}
}

func (l *captureLogger) record(level string, msg string, args ...any) {
	fields := cloneFieldMap(l.defaults)
	for index := 0; index+1 < len(args); index += 2 {
		key, ok := args[index].(string)
		if !ok {
			continue
		}
		fields[key] = args[index+1]
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = append(*l.records, capturedLog{level: level, msg: msg, fields: fields})
}

func (l *captureLogger) snapshot() []capturedLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := *l.records
	out := make([]capturedLog, len(items))
	copy(out, items)
	return out
}

func cloneFieldMap(input map[string]any) map[string]any {
	if len(input) == 0 {
		return map[string]any{}
	}
	output := make(map[string]any, len(input))
	for key, value := range input {
		output[key] = value
	}
	return output
}

func TestClientObservability_Success(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	logger := newCaptureLogger()
	transport := &stubTransport{responses: []TransportResponse{jsonResponse(200, `{"data":{"user_id":1}}`)}}
	client := newTestClient(newApplicationCredential(&stubRefresher{}), transport,
		WithMetricsRecorder(metrics),
		WithLoggerProvider(stubLoggerProvider{logger: logger}),
		WithLogger(logger),
	)

	err := client.Execute(context.Background(), Request{Operation: "users.get", Path: "/users"}, &pipelineUser{})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if !hasCounter(metrics.counters, "kick.users.get.total", "success") {
		t.Fatalf("expected kick.users.get.total success counter")
	}
	if !hasHistogram(metrics.histograms, "kick.users.get.duration_ms", "success") {
		t.Fatalf("expected kick.users.get.duration_ms histogram")
	}
	if !hasLog(logger.snapshot(), "info", "users.get succeeded", "users.get") {
		t.Fatalf("expected users.get succeeded structured log")
	}
}

func TestClientObservability_FailureCarriesErrorFields(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	logger := newCaptureLogger()
	transport := &stubTransport{responses: []TransportResponse{jsonResponse(404, `{"message":"missing"}`)}}
	client := newTestClient(newApplicationCredential(&stubRefresher{}), transport,
		WithMetricsRecorder(metrics),
		WithLogger(logger),
		WithLoggerProvider(stubLoggerProvider{logger: logger}),
	)

	err := client.Execute(context.Background(), Request{Operation: "categories.get", Path: "/categories/9"}, &pipelineUser{})
	if err == nil {
		t.Fatalf("expected not found error")
	}
	if !hasCounter(metrics.counters, "kick.categories.get.total", "failure") {
		t.Fatalf("expected failure counter")
	}
	records := logger.snapshot()
	if len(records) == 0 {
		t.Fatalf("expected logs to be emitted")
	}
	last := records[len(records)-1]
	if last.level != "error" || last.msg != "categories.get failed" {
		t.Fatalf("unexpected log %#v", last)
	}
	if last.fields["error_text_code"] != ErrorNotFound {
		t.Fatalf("expected error_text_code %q, got %#v", ErrorNotFound, last.fields["error_text_code"])
	}
	if last.fields["status_code"] != 404 || last.fields["attempts"] != 1 {
		t.Fatalf("expected status and attempts fields, got %#v", last.fields)
	}
}

func TestClientObservability_DefaultOperationName(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	transport := &stubTransport{responses: []TransportResponse{{StatusCode: 204}}}
	client := newTestClient(newApplicationCredential(&stubRefresher{}), transport, WithMetricsRecorder(metrics))

	if err := client.Execute(context.Background(), Request{Method: "delete", Path: "/chat/abc"}, nil); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !hasCounter(metrics.counters, "kick.delete_chat_abc.total", "success") {
		t.Fatalf("expected derived operation name, got %#v", metrics.counters)
	}
}

func TestLogWithLevel_FlattensSortedFields(t *testing.T) {
	logger := newCaptureLogger()
	LogWithLevel(context.Background(), logger, "warn", "rejected", map[string]any{"b": 2, "a": 1})

	records := logger.snapshot()
	if len(records) != 1 || records[0].level != "warn" {
		t.Fatalf("expected one warn record, got %#v", records)
	}
	if records[0].fields["a"] != 1 || records[0].fields["b"] != 2 {
		t.Fatalf("expected fields to be attached, got %#v", records[0].fields)
	}
	if got := flattenFields(map[string]any{"b": 2, "a": 1}); got[0] != "a" || got[2] != "b" {
		t.Fatalf("expected sorted flattened fields, got %#v", got)
	}
}

func hasCounter(items []capturedCounter, name string, status string) bool {
	for _, item := range items {
		if item.name == name && item.tags["status"] == status {
			return true
		}
	}
	return false
}

func hasHistogram(items []capturedHistogram, name string, status string) bool {
	for _, item := range items {
		if item.name == name && item.tags["status"] == status {
			return true
		}
	}
	return false
}

func hasLog(items []capturedLog, level string, message string, operation string) bool {
	for _, item := range items {
		if item.level != level {
			continue
		}
		if item.msg != message {
			continue
		}
		if item.fields["operation"] == operation {
			return true
		}
	}
	return false
}
