package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 8000,
			Bind: "loopback",
			Auth: ServerAuth{
				Mode: "token",
			},
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			TimeoutSecs: 30,
		},
		Database: DatabaseConfig{
			Path: "supportdesk.db",
		},
		Session: SessionConfig{
			Store:      "sqlite",
			TTLSeconds: 3600,
		},
		Supervisor: SupervisorConfig{
			MaxIterations: 3,
		},
		Retrieval: RetrievalConfig{
			TopK: 3,
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}
