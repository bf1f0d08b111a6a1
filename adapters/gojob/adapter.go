package gojob

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	gocmd "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
	"github.com/goliatone/go-kick/adapters/gocommand"
	"github.com/goliatone/go-kick/adapters/gologger"
	kickcommand "github.com/goliatone/go-kick/command"
	"github.com/goliatone/go-kick/core"
	glog "github.com/goliatone/go-logger/glog"
)

const defaultRetryDelay = 5 * time.Second

// RetryPolicy bounds how often a queued Kick command is redelivered.
type RetryPolicy struct {
	MaxAttempts     int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

// NormalizeAttempt bounds a nack decision. Retries past MaxAttempts stop:
// they are dead lettered when DeadLetterOnMax is set and marked failed
// otherwise. An empty disposition is treated as a retry.
func (p RetryPolicy) NormalizeAttempt(opts queue.NackOptions, attempt int) queue.NackOptions {
	out := opts
	out.Reason = strings.TrimSpace(out.Reason)
	if out.Disposition == "" {
		out.Disposition = queue.NackDispositionRetry
	}
	if out.Disposition != queue.NackDispositionRetry {
		out.Delay = 0
		return out
	}
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		out.Delay = 0
		out.Disposition = queue.NackDispositionFailed
		if p.DeadLetterOnMax {
			out.Disposition = queue.NackDispositionDeadLetter
		}
		return out
	}
	if out.Delay < 0 {
		out.Delay = 0
	}
	if p.MaxDelay > 0 && out.Delay > p.MaxDelay {
		out.Delay = p.MaxDelay
	}
	return out
}

// NackFor classifies a command failure. Throttling, server and transport
// failures are retried with a doubling delay; everything else, including
// validation and permission failures, goes to the dead letter queue.
func (p RetryPolicy) NackFor(err error, attempt int) queue.NackOptions {
	opts := queue.NackOptions{Disposition: queue.NackDispositionDeadLetter}
	if err != nil {
		opts.Reason = err.Error()
	}
	if Retryable(err) {
		opts.Disposition = queue.NackDispositionRetry
		opts.Delay = p.backoff(attempt)
	}
	return p.NormalizeAttempt(opts, attempt)
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	delay := p.BaseDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return delay
}

// Retryable reports whether a redelivery could succeed without changes.
func Retryable(err error) bool {
	for _, code := range []string{
		core.ErrorTooManyRequests,
		core.ErrorServerError,
		core.ErrorTransport,
		core.ErrorCredentialRefreshFailed,
	} {
		if core.IsKind(err, code) {
			return true
		}
	}
	var rich *goerrors.Error
	return goerrors.As(err, &rich) && rich.Code >= http.StatusInternalServerError
}

// ToExecutionMessage packs a validated Kick command into a go-job message
// keyed by the command type.
func ToExecutionMessage(msg gocmd.Message, idempotencyKey string) (*job.ExecutionMessage, error) {
	if msg == nil {
		return nil, fmt.Errorf("gojob: command message is required")
	}
	if err := gocommand.ValidateMessageContract(msg); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("gojob: encode %s: %w", msg.Type(), err)
	}
	params := map[string]any{}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("gojob: encode %s: %w", msg.Type(), err)
	}
	out := &job.ExecutionMessage{
		JobID:      msg.Type(),
		ScriptPath: msg.Type(),
		Parameters: params,
	}
	if key := strings.TrimSpace(idempotencyKey); key != "" {
		out.IdempotencyKey = key
		out.DedupPolicy = job.DedupPolicyDrop
	}
	return out, nil
}

// DecodeCommand rebuilds the command carried by msg and validates it.
func DecodeCommand[T gocmd.Message](msg *job.ExecutionMessage) (T, error) {
	var out T
	if msg == nil {
		return out, fmt.Errorf("gojob: execution message is required")
	}
	if msg.JobID != out.Type() {
		return out, fmt.Errorf("gojob: job %q does not carry %s", msg.JobID, out.Type())
	}
	raw, err := json.Marshal(msg.Parameters)
	if err != nil {
		return out, fmt.Errorf("gojob: decode %s: %w", msg.JobID, err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("gojob: decode %s: %w", msg.JobID, err)
	}
	if err := gocommand.ValidateMessageContract(out); err != nil {
		return out, err
	}
	return out, nil
}

type Enqueuer struct {
	enqueuer queue.Enqueuer
}

func NewEnqueuer(enqueuer queue.Enqueuer) *Enqueuer {
	return &Enqueuer{enqueuer: enqueuer}
}

// EnqueueCommand queues msg for a worker. A non-empty idempotencyKey drops
// duplicates of the same command.
func (a *Enqueuer) EnqueueCommand(ctx context.Context, msg gocmd.Message, idempotencyKey string) error {
	if a == nil || a.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	execution, err := ToExecutionMessage(msg, idempotencyKey)
	if err != nil {
		return err
	}
	_, err = a.enqueuer.Enqueue(ctx, execution)
	return err
}

// Executor runs one dequeued Kick command.
type Executor func(ctx context.Context, msg *job.ExecutionMessage) error

// CommandExecutor routes queued messages to the matching commander.
func CommandExecutor(commands kickcommand.Commands) Executor {
	return func(ctx context.Context, msg *job.ExecutionMessage) error {
		if msg == nil {
			return fmt.Errorf("gojob: execution message is required")
		}
		switch msg.JobID {
		case kickcommand.TypeSendChatMessage:
			return run[kickcommand.SendChatMessage](ctx, msg, commands.SendChat)
		case kickcommand.TypeDeleteChatMessage:
			return run[kickcommand.DeleteChatMessage](ctx, msg, commands.DeleteChat)
		case kickcommand.TypeBan:
			return run[kickcommand.BanMessage](ctx, msg, commands.Ban)
		case kickcommand.TypeTimeout:
			return run[kickcommand.TimeoutMessage](ctx, msg, commands.Timeout)
		case kickcommand.TypeRemoveBan:
			return run[kickcommand.RemoveBanMessage](ctx, msg, commands.RemoveBan)
		case kickcommand.TypeUpdateChannel:
			return run[kickcommand.UpdateChannelMessage](ctx, msg, commands.UpdateChannel)
		case kickcommand.TypeCreateReward:
			return run[kickcommand.CreateRewardMessage](ctx, msg, commands.CreateReward)
		case kickcommand.TypeUpdateReward:
			return run[kickcommand.UpdateRewardMessage](ctx, msg, commands.UpdateReward)
		case kickcommand.TypeDeleteReward:
			return run[kickcommand.DeleteRewardMessage](ctx, msg, commands.DeleteReward)
		case kickcommand.TypeSubscribeEvents:
			return run[kickcommand.SubscribeEventsMessage](ctx, msg, commands.SubscribeEvents)
		default:
			return fmt.Errorf("gojob: no command registered for %q", msg.JobID)
		}
	}
}

func run[T gocmd.Message](ctx context.Context, msg *job.ExecutionMessage, cmd gocmd.Commander[T]) error {
	decoded, err := DecodeCommand[T](msg)
	if err != nil {
		return err
	}
	return cmd.Execute(ctx, decoded)
}

// Process executes one delivery and settles it: ack on success, nack per
// policy otherwise. attempt counts deliveries of this message, starting at 1.
func Process(ctx context.Context, delivery queue.Delivery, execute Executor, policy RetryPolicy, attempt int) error {
	if delivery == nil {
		return fmt.Errorf("gojob: delivery is required")
	}
	if execute == nil {
		return fmt.Errorf("gojob: executor is required")
	}
	runErr := execute(ctx, delivery.Message())
	if runErr == nil {
		return delivery.Ack(ctx)
	}
	if err := delivery.Nack(ctx, policy.NackFor(runErr, attempt)); err != nil {
		return err
	}
	return runErr
}

// WorkerHook logs worker lifecycle events for queued Kick commands.
type WorkerHook struct {
	logger      glog.Logger
	jobProvider job.LoggerProvider
}

func NewWorkerHook(provider glog.LoggerProvider, logger glog.Logger) *WorkerHook {
	bridge := gologger.BridgeJobs(provider, logger)
	return &WorkerHook{logger: bridge.Logger, jobProvider: bridge.JobProvider}
}

// JobLoggerProvider returns the hook's sink in go-job form, for configuring
// the worker that runs alongside the hook.
func (h *WorkerHook) JobLoggerProvider() job.LoggerProvider {
	return h.jobProvider
}

func (h *WorkerHook) OnStart(_ context.Context, event worker.Event) {
	h.logger.Debug("kick job started", eventFields(event)...)
}

func (h *WorkerHook) OnSuccess(_ context.Context, event worker.Event) {
	h.logger.Info("kick job completed", append(eventFields(event), "duration", event.Duration.String())...)
}

func (h *WorkerHook) OnFailure(_ context.Context, event worker.Event) {
	h.logger.Error("kick job failed", append(eventFields(event), "error", errorText(event.Err))...)
}

func (h *WorkerHook) OnRetry(_ context.Context, event worker.Event) {
	h.logger.Warn("kick job retrying", append(eventFields(event),
		"delay", event.Delay.String(),
		"error", errorText(event.Err),
	)...)
}

func eventFields(event worker.Event) []any {
	message := event.Message
	if message == nil && event.Delivery != nil {
		message = event.Delivery.Message()
	}
	fields := []any{"attempt", event.Attempt}
	if message != nil {
		fields = append(fields, "job_id", message.JobID)
		if message.IdempotencyKey != "" {
			fields = append(fields, "idempotency_key", message.IdempotencyKey)
		}
	}
	return fields
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

var _ worker.Hook = (*WorkerHook)(nil)
