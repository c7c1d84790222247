package models

import "time"

// GenerateRequest is the inbound body accepted by the generate endpoint.
type GenerateRequest struct {
	Inputs string `json:"inputs"`
}

// GenerationParameters are the fixed knobs sent downstream with every prompt.
type GenerationParameters struct {
	MaxNewTokens   int  `json:"max_new_tokens"`
	ReturnFullText bool `json:"return_full_text"`
}

// GenerationRequest is the body posted to the text-generation endpoint.
type GenerationRequest struct {
	Inputs     string               `json:"inputs"`
	Parameters GenerationParameters `json:"parameters"`
}

// AttemptOutcome classifies a single downstream attempt.
type AttemptOutcome string

const (
	AttemptSuccess     AttemptOutcome = "success"
	AttemptRateLimited AttemptOutcome = "rate_limited" // 429
	AttemptUnavailable AttemptOutcome = "unavailable"  // 503, model loading or overloaded
	AttemptRejected    AttemptOutcome = "rejected"     // any other non-2xx
	AttemptTransport   AttemptOutcome = "transport"    // connection or read failure
	AttemptMalformed   AttemptOutcome = "malformed"    // 2xx with a body that is not JSON
	AttemptOversized   AttemptOutcome = "oversized"    // body larger than the read cap
	AttemptTimeout     AttemptOutcome = "timeout"      // global deadline hit mid-attempt
)

// Retryable reports whether the dispatcher moves on to the next credential.
func (o AttemptOutcome) Retryable() bool {
	switch o {
	case AttemptRateLimited, AttemptUnavailable, AttemptRejected, AttemptTransport, AttemptMalformed, AttemptOversized:
		return true
	default:
		return false
	}
}

// AttemptEvent describes one downstream call. It never carries the credential itself.
type AttemptEvent struct {
	RequestID  string         `json:"request_id,omitzero"`
	Index      int            `json:"index"`
	Total      int            `json:"total"`
	Outcome    AttemptOutcome `json:"outcome"`
	StatusCode int            `json:"status_code,omitzero"`
	Latency    time.Duration  `json:"latency"`
	Reason     string         `json:"reason,omitzero"`
}
