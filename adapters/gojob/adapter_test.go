package gojob

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
	"github.com/goliatone/go-kick/api"
	kickcommand "github.com/goliatone/go-kick/command"
	"github.com/goliatone/go-kick/core"
	glog "github.com/goliatone/go-logger/glog"
)

type recordingExecutor struct {
	requests []core.Request
	err      error
}

func (e *recordingExecutor) Execute(_ context.Context, req core.Request, out any) error {
	e.requests = append(e.requests, req)
	if e.err != nil {
		return e.err
	}
	if out != nil {
		return json.Unmarshal([]byte(`{"isSent":true,"messageId":"m1"}`), out)
	}
	return nil
}

func TestCommandMessageRoundTrip(t *testing.T) {
	original := kickcommand.TimeoutMessage{Request: api.TimeoutRequest{
		BroadcasterUserID: 42,
		UserID:            7,
		Duration:          10,
		Reason:            "spam",
	}}
	execution, err := ToExecutionMessage(original, "timeout-7")
	if err != nil {
		t.Fatalf("to execution message: %v", err)
	}
	if execution.JobID != kickcommand.TypeTimeout || execution.IdempotencyKey != "timeout-7" {
		t.Fatalf("unexpected execution message %#v", execution)
	}
	if execution.DedupPolicy != job.DedupPolicyDrop {
		t.Fatalf("expected dedup policy with an idempotency key")
	}

	decoded, err := DecodeCommand[kickcommand.TimeoutMessage](execution)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Request != original.Request {
		t.Fatalf("expected %#v, got %#v", original.Request, decoded.Request)
	}
	if _, err := DecodeCommand[kickcommand.BanMessage](execution); err == nil {
		t.Fatalf("expected job type mismatch to fail")
	}
}

func TestToExecutionMessageRejectsInvalidCommand(t *testing.T) {
	if _, err := ToExecutionMessage(kickcommand.DeleteChatMessage{}, ""); err == nil {
		t.Fatalf("expected validation error")
	}
	enqueuer := &stubQueueEnqueuer{}
	if err := NewEnqueuer(enqueuer).EnqueueCommand(context.Background(), kickcommand.DeleteRewardMessage{}, ""); err == nil {
		t.Fatalf("expected validation error")
	}
	if enqueuer.last != nil {
		t.Fatalf("expected nothing to be enqueued")
	}
}

func TestEnqueueAndProcessCommand(t *testing.T) {
	ctx := context.Background()
	enqueuer := &stubQueueEnqueuer{}
	err := NewEnqueuer(enqueuer).EnqueueCommand(ctx, kickcommand.SendChatMessage{Request: api.SendMessageRequest{
		Type:    api.ChatMessageBot,
		Content: "stream starting",
	}}, "")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if enqueuer.last == nil || enqueuer.last.JobID != kickcommand.TypeSendChatMessage {
		t.Fatalf("expected queued chat command")
	}

	exec := &recordingExecutor{}
	delivery := &stubQueueDelivery{msg: enqueuer.last}
	if err := Process(ctx, delivery, CommandExecutor(kickcommand.NewCommands(api.New(exec))), RetryPolicy{}, 1); err != nil {
		t.Fatalf("process: %v", err)
	}
	if !delivery.acked {
		t.Fatalf("expected delivery to be acked")
	}
	if len(exec.requests) != 1 || exec.requests[0].Path != "/chat" || exec.requests[0].Method != http.MethodPost {
		t.Fatalf("unexpected requests %#v", exec.requests)
	}
}

func TestProcessNacksByFailureKind(t *testing.T) {
	ctx := context.Background()
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 10 * time.Second, DeadLetterOnMax: true}
	message, err := ToExecutionMessage(kickcommand.DeleteChatMessage{MessageID: "m1"}, "")
	if err != nil {
		t.Fatalf("to execution message: %v", err)
	}

	throttled := &recordingExecutor{err: core.NewAPIError(http.StatusTooManyRequests, core.RequestDetail{Endpoint: "/chat/m1", Method: http.MethodDelete})}
	delivery := &stubQueueDelivery{msg: message}
	if err := Process(ctx, delivery, CommandExecutor(kickcommand.NewCommands(api.New(throttled))), policy, 2); err == nil {
		t.Fatalf("expected execution error")
	}
	if delivery.nackOpts.Disposition != queue.NackDispositionRetry || delivery.nackOpts.Delay != 2*time.Second {
		t.Fatalf("expected retry with backoff, got %#v", delivery.nackOpts)
	}

	forbidden := &recordingExecutor{err: core.NewAPIError(http.StatusForbidden, core.RequestDetail{Endpoint: "/chat/m1", Method: http.MethodDelete})}
	delivery = &stubQueueDelivery{msg: message}
	_ = Process(ctx, delivery, CommandExecutor(kickcommand.NewCommands(api.New(forbidden))), policy, 1)
	if delivery.nackOpts.Disposition != queue.NackDispositionDeadLetter || delivery.nackOpts.Delay != 0 {
		t.Fatalf("expected dead letter for forbidden command, got %#v", delivery.nackOpts)
	}

	delivery = &stubQueueDelivery{msg: &job.ExecutionMessage{JobID: "kick.command.unknown"}}
	_ = Process(ctx, delivery, CommandExecutor(kickcommand.Commands{}), policy, 1)
	if delivery.nackOpts.Disposition != queue.NackDispositionDeadLetter {
		t.Fatalf("expected unknown command to be dead lettered")
	}
	if err := queue.ValidateNackOptions(delivery.nackOpts); err != nil {
		t.Fatalf("expected a valid nack, got %v", err)
	}
}

func TestNackRetryPolicyBoundaries(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, MaxDelay: 10 * time.Second, DeadLetterOnMax: true}

	opts := policy.NormalizeAttempt(queue.NackOptions{Delay: 30 * time.Second, Disposition: queue.NackDispositionRetry, Reason: " transient "}, 1)
	if opts.Disposition != queue.NackDispositionRetry || opts.Delay != 10*time.Second {
		t.Fatalf("expected bounded retry before max attempts, got %#v", opts)
	}
	if opts.Reason != "transient" {
		t.Fatalf("expected trimmed reason, got %q", opts.Reason)
	}

	opts = policy.NormalizeAttempt(queue.NackOptions{Delay: time.Second}, 3)
	if opts.Disposition != queue.NackDispositionDeadLetter || opts.Delay != 0 {
		t.Fatalf("expected dead letter on max attempts, got %#v", opts)
	}

	withoutDLQ := RetryPolicy{MaxAttempts: 2}
	if got := withoutDLQ.NormalizeAttempt(queue.NackOptions{Disposition: queue.NackDispositionRetry}, 2); got.Disposition != queue.NackDispositionFailed {
		t.Fatalf("expected failed disposition without dead lettering, got %#v", got)
	}

	throttled := core.NewAPIError(http.StatusTooManyRequests, core.RequestDetail{})
	if got := policy.NackFor(throttled, 5); got.Disposition == queue.NackDispositionRetry {
		t.Fatalf("expected attempts beyond the maximum to stop retrying")
	}
	if got := (RetryPolicy{BaseDelay: time.Second, MaxDelay: 3 * time.Second}).NackFor(throttled, 4); got.Delay != 3*time.Second {
		t.Fatalf("expected backoff to cap at max delay, got %s", got.Delay)
	}
	for _, attempt := range []int{1, 3, 5} {
		if err := queue.ValidateNackOptions(policy.NackFor(throttled, attempt)); err != nil {
			t.Fatalf("attempt %d: invalid nack: %v", attempt, err)
		}
	}
}

func TestRetryableKinds(t *testing.T) {
	if !Retryable(core.NewAPIError(http.StatusBadGateway, core.RequestDetail{})) {
		t.Fatalf("expected server errors to be retryable")
	}
	if Retryable(core.NewDelegationRequiredError("chat.send")) {
		t.Fatalf("expected delegation failures to be final")
	}
	if Retryable(errors.New("plain")) {
		t.Fatalf("expected plain errors to be final")
	}
}

func TestWorkerHookLogsEvents(t *testing.T) {
	logger := &capturingLogger{}
	hook := NewWorkerHook(nil, logger)
	hook.OnRetry(context.Background(), worker.Event{
		Message: &job.ExecutionMessage{JobID: kickcommand.TypeBan, IdempotencyKey: "ban-7"},
		Attempt: 2,
		Delay:   5 * time.Second,
		Err:     errors.New("throttled"),
	})
	if hook.JobLoggerProvider() == nil {
		t.Fatalf("expected go-job logger provider")
	}
	if logger.warn.msg != "kick job retrying" {
		t.Fatalf("expected retry log line, got %q", logger.warn.msg)
	}
	fields := map[any]any{}
	for i := 0; i+1 < len(logger.warn.args); i += 2 {
		fields[logger.warn.args[i]] = logger.warn.args[i+1]
	}
	if fields["job_id"] != kickcommand.TypeBan || fields["attempt"] != 2 || fields["error"] != "throttled" {
		t.Fatalf("unexpected fields %#v", fields)
	}
}

type stubQueueEnqueuer struct {
	last *job.ExecutionMessage
}

func (s *stubQueueEnqueuer) Enqueue(_ context.Context, msg *job.ExecutionMessage) (queue.EnqueueReceipt, error) {
	s.last = msg
	return queue.EnqueueReceipt{DispatchID: "dispatch-1", EnqueuedAt: time.Now()}, nil
}

type stubQueueDelivery struct {
	msg      *job.ExecutionMessage
	acked    bool
	nackOpts queue.NackOptions
}

func (s *stubQueueDelivery) Message() *job.ExecutionMessage {
	return s.msg
}

func (s *stubQueueDelivery) Ack(context.Context) error {
	s.acked = true
	return nil
}

func (s *stubQueueDelivery) Nack(_ context.Context, opts queue.NackOptions) error {
	s.nackOpts = opts
	return nil
}

type logCall struct {
	msg  string
	args []any
}

type capturingLogger struct {
	warn logCall
}

func (l *capturingLogger) Trace(string, ...any) {}
func (l *capturingLogger) Debug(string, ...any) {}
func (l *capturingLogger) Info(string, ...any)  {}
func (l *capturingLogger) Error(string, ...any) {}
func (l *capturingLogger) Fatal(string, ...any) {}

func (l *capturingLogger) Warn(msg string, args ...any) {
	l.warn = logCall{msg: msg, args: append([]any(nil), args...)}
}

func (l *capturingLogger) WithContext(context.Context) glog.Logger {
	return l
}

var (
	_ queue.Delivery = (*stubQueueDelivery)(nil)
	_ queue.Enqueuer = (*stubQueueEnqueuer)(nil)
)
