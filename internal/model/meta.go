package model

import "fmt"

// Provider identifies which agent backend produced a log line.
type Provider string

const (
	// ProviderUnknown means no line carried a recognizable envelope.
	ProviderUnknown Provider = ""
	// ProviderCodex is the structured item stream (item.started / item.completed).
	ProviderCodex Provider = "codex"
	// ProviderClaude is the message stream (assistant / user content blocks).
	ProviderClaude Provider = "claude"
)

// ParseProvider validates a provider name given on the command line or in
// configuration. The empty string is accepted and means "any".
func ParseProvider(value string) (Provider, error) {
	switch Provider(value) {
	case ProviderUnknown, ProviderCodex, ProviderClaude:
		return Provider(value), nil
	default:
		return "", fmt.Errorf("unknown provider: %s", value)
	}
}

// RunMeta holds run-level information found on lines that never become
// timeline items (thread/session start, turn completion, final result).
type RunMeta struct {
	Provider     Provider `json:"provider,omitempty"`
	SessionID    string   `json:"sessionId,omitempty"`
	Model        string   `json:"model,omitempty"`
	CWD          string   `json:"cwd,omitempty"`
	InputTokens  int      `json:"inputTokens,omitempty"`
	OutputTokens int      `json:"outputTokens,omitempty"`
	Failed       bool     `json:"failed,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// SetProvider records the provider the first time one is seen.
func (m *RunMeta) SetProvider(p Provider) {
	if m.Provider == ProviderUnknown {
		m.Provider = p
	}
}
