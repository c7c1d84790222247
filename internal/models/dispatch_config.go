package models

const (
	// DefaultGenerationEndpoint is the hosted inference endpoint the proxy calls.
	DefaultGenerationEndpoint = "https://api-inference.huggingface.co/models/gpt2"
	// DefaultDispatchTimeoutMs stays below the 10s request ceiling of serverless hosts.
	DefaultDispatchTimeoutMs = 8000
	// DefaultMaxNewTokens caps the generated completion length.
	DefaultMaxNewTokens = 60
)

// DispatchConfig holds configuration for the token-rotating dispatcher
type DispatchConfig struct {
	Endpoint       string `json:"endpoint,omitzero" yaml:"endpoint" env:"HF_API_URL"`
	Tokens         string `json:"-" yaml:"tokens" env:"HF_TOKENS"`                              // Comma-delimited credential list
	TimeoutMs      int    `json:"timeout_ms,omitzero" yaml:"timeout_ms" env:"DISPATCH_TIMEOUT_MS"` // Global budget for one dispatch
	MaxNewTokens   int    `json:"max_new_tokens,omitzero" yaml:"max_new_tokens" env:"MAX_NEW_TOKENS"`
	ReturnFullText bool   `json:"return_full_text" yaml:"return_full_text"`
}

// Parameters returns the fixed generation parameters sent with every attempt.
func (d DispatchConfig) Parameters() GenerationParameters {
	maxNew := d.MaxNewTokens
	if maxNew <= 0 {
		maxNew = DefaultMaxNewTokens
	}
	return GenerationParameters{
		MaxNewTokens:   maxNew,
		ReturnFullText: d.ReturnFullText,
	}
}
