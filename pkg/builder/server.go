package builder

import "strings"

func (b *Builder) Port(port string) *Builder {
	b.cfg.Server.Port = port
	return b
}

// AllowedOrigins sets the CORS origin list, comma-separated. "*" allows any origin.
func (b *Builder) AllowedOrigins(origins ...string) *Builder {
	b.cfg.Server.AllowedOrigins = strings.Join(origins, ",")
	return b
}

func (b *Builder) Environment(env string) *Builder {
	b.cfg.Server.Environment = env
	return b
}

// Production is shorthand for Environment("production").
func (b *Builder) Production() *Builder {
	return b.Environment("production")
}

func (b *Builder) LogLevel(level string) *Builder {
	b.cfg.Server.LogLevel = strings.ToLower(level)
	return b
}
