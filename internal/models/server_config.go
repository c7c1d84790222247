package models

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port           string `json:"port,omitzero" yaml:"port" env:"PORT"`
	AllowedOrigins string `json:"allowed_origins,omitzero" yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`
	Environment    string `json:"environment,omitzero" yaml:"environment" env:"ENVIRONMENT"`
	LogLevel       string `json:"log_level,omitzero" yaml:"log_level" env:"LOG_LEVEL"`
}
