// Package llm is the validator agents' only way to talk to a model: one
// RunAgent entry point over two backends (a hand-rolled direct HTTP
// client and the official SDK's read-only tool loop), with a shared
// retry wrapper and cross-provider usage normalization.
package llm

import "time"

// Tier is a model-size enum keyed to concrete model IDs read from
// environment at startup, so validators ask for "small" or "large"
// rather than naming a specific snapshot.
type Tier string

const (
	TierSmall Tier = "small"
	TierLarge Tier = "large"
)

// Mode selects the backend: a single-shot HTTP call, or a bounded
// multi-turn tool-using loop.
type Mode string

const (
	ModeDirect Mode = "direct"
	ModeSDK    Mode = "sdk"
)

// Tool is an extra tool a Config opts an sdk-mode run into, beyond the
// always-available read-only trio (Read, Glob, Grep).
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
	Handler     func(input map[string]interface{}) (string, error)
}

// Config fixes everything about one validator's call to the runner,
// except the per-call prompt/context.
type Config struct {
	Name         string
	Tier         Tier
	Mode         Mode
	SystemPrompt string
	MaxTokens    int
	MaxTurns     int // only meaningful in sdk mode; 0 defaults to 6
	ExtraTools   []Tool
	WorkDir      string
}

// Input is the per-call payload: the instruction, and optional extra
// context appended after it (transcript excerpts, tool input, etc).
type Input struct {
	Prompt  string
	Context string
}

// Usage is prompt/completion/cached/reasoning token counts, normalized
// across provider naming conventions.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	CachedTokens     int
	ReasoningTokens  int
	TotalTokens      int
}

// Result is what RunAgent returns: success or a formatted error string
// in Text. A model-side or transport failure (including retry
// exhaustion) is never a Go error — it comes back with Success false
// and a DirectErrorPrefix/SDKErrorPrefix-tagged Text.
type Result struct {
	Text         string
	Latency      time.Duration
	Tier         Tier
	Model        string
	Success      bool
	ErrorCount   int
	Usage        *Usage
	Cost         *float64
	GenerationID string // multiple IDs joined with commas across multi-turn sdk calls
}

// DirectErrorPrefix/SDKErrorPrefix tag a failed Result's Text so the
// pipeline can default-deny predictably instead of panicking on a
// malformed model response.
const (
	DirectErrorPrefix = "[DIRECT ERROR] "
	SDKErrorPrefix    = "[SDK ERROR] "
)
