// Package dispatcher implements the token-rotating request dispatch policy:
// one logical generation request becomes sequential downstream attempts, one
// per credential in list order, under a single wall-clock budget.
package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Egham-7/oracle-proxy/internal/models"
	"github.com/Egham-7/oracle-proxy/internal/services/attemptlog"
	"github.com/Egham-7/oracle-proxy/internal/services/credentials"
	"github.com/Egham-7/oracle-proxy/internal/services/downstream"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// User-visible failure messages.
const (
	MsgNoCredentials = "No API tokens configured on server."
	MsgMissingPrompt = "Missing 'inputs' field."
	MsgExhausted     = "All tokens exhausted or busy."
	MsgTimeout       = "Generation timed out."
)

// Generator performs one downstream call. *downstream.Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, token string, req models.GenerationRequest) (*downstream.Response, error)
}

// Config holds the fixed per-process dispatch settings.
type Config struct {
	Timeout    time.Duration
	Parameters models.GenerationParameters
}

// Result is a successful dispatch.
type Result struct {
	// Payload is the downstream JSON body, verbatim.
	Payload json.RawMessage
	// CredentialIndex is the position of the token that succeeded.
	CredentialIndex int
	// Attempts lists every call made, in order; the last one is the success.
	Attempts []models.AttemptEvent
}

// Dispatcher is safe for concurrent use. It holds no state besides the
// read-only credential list, so every Dispatch starts again at index 0.
type Dispatcher struct {
	creds     credentials.List
	generator Generator
	cfg       Config
	observer  attemptlog.Observer
}

// New creates a dispatcher. A nil observer discards attempt events.
func New(creds credentials.List, generator Generator, cfg Config, observer attemptlog.Observer) *Dispatcher {
	if observer == nil {
		observer = attemptlog.Discard
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Duration(models.DefaultDispatchTimeoutMs) * time.Millisecond
	}
	if cfg.Parameters.MaxNewTokens <= 0 {
		cfg.Parameters.MaxNewTokens = models.DefaultMaxNewTokens
	}
	return &Dispatcher{
		creds:     creds,
		generator: generator,
		cfg:       cfg,
		observer:  observer,
	}
}

// Credentials returns the configured credential list.
func (d *Dispatcher) Credentials() credentials.List {
	return d.creds
}

// Timeout returns the global budget applied to each dispatch.
func (d *Dispatcher) Timeout() time.Duration {
	return d.cfg.Timeout
}

// Dispatch tries each credential in order until one succeeds, all fail, or
// the dispatch deadline passes. Cancellation of ctx is ignored; only the
// deadline aborts a dispatch. Errors are always *models.AppError.
func (d *Dispatcher) Dispatch(ctx context.Context, prompt string) (res *Result, err error) {
	reqID := RequestIDFromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			fiberlog.Errorf("[%s] dispatch panicked: %v", reqID, r)
			res, err = nil, models.NewInternalError("Internal Server Error", fmt.Errorf("panic: %v", r))
		}
	}()

	if d.creds.IsEmpty() {
		return nil, models.NewConfigurationError(MsgNoCredentials)
	}
	if prompt == "" {
		return nil, models.NewValidationError(MsgMissingPrompt, nil)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.Timeout)
	defer cancel()

	req := models.GenerationRequest{Inputs: prompt, Parameters: d.cfg.Parameters}
	total := d.creds.Len()
	attempts := make([]models.AttemptEvent, 0, total)

	fiberlog.Debugf("[%s] dispatching across %d tokens (budget %v)", reqID, total, d.cfg.Timeout)

	for i := range total {
		if err := ctx.Err(); err != nil {
			return nil, d.timeout(reqID, attempts, err)
		}

		event, payload := d.attempt(ctx, req, i, total)
		event.RequestID = reqID
		attempts = append(attempts, event)
		d.observer.Observe(event)

		if event.Outcome == models.AttemptSuccess {
			return &Result{Payload: payload, CredentialIndex: i, Attempts: attempts}, nil
		}
		if !event.Outcome.Retryable() {
			return nil, d.timeout(reqID, attempts, ctx.Err())
		}
	}

	last := attempts[len(attempts)-1]
	fiberlog.Errorf("[%s] all %d tokens failed, last: %s", reqID, total, describe(last))
	return nil, models.NewExhaustedError(MsgExhausted, describe(last))
}

// attempt performs one call and classifies it. payload is set only on success.
func (d *Dispatcher) attempt(ctx context.Context, req models.GenerationRequest, i, total int) (models.AttemptEvent, json.RawMessage) {
	start := time.Now()
	resp, err := d.generator.Generate(ctx, d.creds.At(i), req)
	event := models.AttemptEvent{Index: i, Total: total, Latency: time.Since(start)}

	if err != nil {
		event.Reason = err.Error()
		switch {
		case ctx.Err() != nil:
			event.Outcome = models.AttemptTimeout
		case errors.Is(err, downstream.ErrResponseTooLarge):
			event.Outcome = models.AttemptOversized
		default:
			event.Outcome = models.AttemptTransport
		}
		return event, nil
	}

	event.StatusCode = resp.StatusCode
	event.Outcome = Classify(resp)
	switch event.Outcome {
	case models.AttemptSuccess:
		return event, json.RawMessage(resp.Body)
	case models.AttemptMalformed:
		event.Reason = "response body is not valid JSON"
	default:
		event.Reason = truncate(string(resp.Body), maxReasonLen)
	}
	return event, nil
}

func (d *Dispatcher) timeout(reqID string, attempts []models.AttemptEvent, cause error) *models.AppError {
	if cause == nil {
		cause = context.DeadlineExceeded
	}
	fiberlog.Errorf("[%s] dispatch deadline of %v exceeded after %d attempts", reqID, d.cfg.Timeout, len(attempts))
	appErr := models.NewTimeoutError("generate", cause)
	appErr.Message = MsgTimeout
	if len(attempts) > 0 {
		appErr.Details = fmt.Sprintf("deadline of %v exceeded after %d attempts", d.cfg.Timeout, len(attempts))
	}
	return appErr
}
