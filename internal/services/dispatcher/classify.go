package dispatcher

import (
	"encoding/json"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/Egham-7/oracle-proxy/internal/models"
	"github.com/Egham-7/oracle-proxy/internal/services/downstream"
)

const maxReasonLen = 200

// Classify maps a downstream response to an attempt outcome.
//
// Every non-2xx status is retryable, including 401/403 for a revoked token:
// a bad token is skipped rather than failing the whole request.
func Classify(resp *downstream.Response) models.AttemptOutcome {
	switch {
	case resp.OK():
		if !json.Valid(resp.Body) {
			return models.AttemptMalformed
		}
		return models.AttemptSuccess
	case resp.StatusCode == http.StatusTooManyRequests:
		return models.AttemptRateLimited
	case resp.StatusCode == http.StatusServiceUnavailable:
		return models.AttemptUnavailable
	default:
		return models.AttemptRejected
	}
}

// describe renders an attempt for the details of a terminal error.
func describe(e models.AttemptEvent) string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("token #%d: %s: %s", e.Index+1, e.Outcome, e.Reason)
	}
	if e.Reason == "" {
		return fmt.Sprintf("token #%d: %s (status %d)", e.Index+1, e.Outcome, e.StatusCode)
	}
	return fmt.Sprintf("token #%d: %s (status %d): %s", e.Index+1, e.Outcome, e.StatusCode, e.Reason)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
