package config

// Config is the root configuration for supportdesk.
type Config struct {
	Server     ServerConfig     `yaml:"server,omitempty"`
	LLM        LLMConfig        `yaml:"llm,omitempty"`
	Database   DatabaseConfig   `yaml:"database,omitempty"`
	Session    SessionConfig    `yaml:"session,omitempty"`
	Supervisor SupervisorConfig `yaml:"supervisor,omitempty"`
	Retrieval  RetrievalConfig  `yaml:"retrieval,omitempty"`
	Logging    LoggingConfig    `yaml:"logging,omitempty"`
}

// ServerConfig controls the HTTP/WebSocket API server.
type ServerConfig struct {
	Port int        `yaml:"port,omitempty"`
	Bind string     `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	Host string     `yaml:"host,omitempty"` // used when bind is "custom"
	Auth ServerAuth `yaml:"auth,omitempty"`
}

// ServerAuth configures API authentication.
type ServerAuth struct {
	Mode  string `yaml:"mode,omitempty"` // "token" | "none"
	Token string `yaml:"token,omitempty"`
}

// LLMConfig selects and configures the model provider.
type LLMConfig struct {
	Provider    string   `yaml:"provider,omitempty"` // "openai" | "mock"
	BaseURL     string   `yaml:"baseUrl,omitempty"`
	APIKey      string   `yaml:"apiKey,omitempty"`
	Model       string   `yaml:"model,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
	MaxTokens   int      `yaml:"maxTokens,omitempty"`
	TimeoutSecs int      `yaml:"timeoutSeconds,omitempty"` // per model call
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path string `yaml:"path,omitempty"`
}

// SessionConfig defines session behavior.
type SessionConfig struct {
	Store      string `yaml:"store,omitempty"` // "sqlite" | "memory"
	TTLSeconds int    `yaml:"ttlSeconds,omitempty"`
}

// SupervisorConfig bounds the routing loop.
type SupervisorConfig struct {
	MaxIterations int `yaml:"maxIterations,omitempty"`
}

// RetrievalConfig controls FAQ search.
type RetrievalConfig struct {
	TopK int `yaml:"topK,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File         string `yaml:"file,omitempty"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}
