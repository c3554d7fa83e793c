package llm

import "fmt"

// ProviderError is a failure reported by a model provider.
type ProviderError struct {
	Provider string
	Message  string
	Code     int // HTTP status code when applicable
}

func (e *ProviderError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Provider, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}
