package builder

import (
	"strings"
	"time"

	"github.com/Egham-7/oracle-proxy/internal/services/attemptlog"
	"github.com/Egham-7/oracle-proxy/internal/services/credentials"
)

// Credentials sets the tokens tried in order for every request.
func (b *Builder) Credentials(tokens ...string) *Builder {
	b.cfg.Dispatch.Tokens = strings.Join(tokens, credentials.Delimiter)
	return b
}

// CredentialsFromString sets the tokens from a comma-delimited value, as in HF_TOKENS.
func (b *Builder) CredentialsFromString(raw string) *Builder {
	b.cfg.Dispatch.Tokens = raw
	return b
}

func (b *Builder) Endpoint(url string) *Builder {
	b.cfg.Dispatch.Endpoint = url
	return b
}

// DispatchTimeout sets the wall-clock budget shared by all attempts of one
// request, rounded up to whole milliseconds. A non-positive budget is kept
// negative so that Validate rejects it instead of falling back to the default.
func (b *Builder) DispatchTimeout(timeout time.Duration) *Builder {
	if timeout <= 0 {
		b.cfg.Dispatch.TimeoutMs = -1
		return b
	}
	b.cfg.Dispatch.TimeoutMs = int((timeout + time.Millisecond - 1) / time.Millisecond)
	return b
}

func (b *Builder) MaxNewTokens(n int) *Builder {
	b.cfg.Dispatch.MaxNewTokens = n
	return b
}

func (b *Builder) ReturnFullText(enabled bool) *Builder {
	b.cfg.Dispatch.ReturnFullText = enabled
	return b
}

// WithAttemptObserver replaces the default asynchronous attempt logger.
func (b *Builder) WithAttemptObserver(observer attemptlog.Observer) *Builder {
	b.observer = observer
	return b
}
