package llm

// normalizeUsage converts a raw usage block, expressed in either the
// Anthropic (input_tokens/output_tokens/cache_read_input_tokens) or
// OpenAI/OpenRouter (prompt_tokens/completion_tokens with a nested
// prompt_tokens_details object) convention, into the shared Usage shape.
func normalizeUsage(raw map[string]interface{}) *Usage {
	if raw == nil {
		return nil
	}

	u := &Usage{}

	if v, ok := intField(raw, "input_tokens"); ok {
		u.PromptTokens = v
	} else if v, ok := intField(raw, "prompt_tokens"); ok {
		u.PromptTokens = v
	}

	if v, ok := intField(raw, "output_tokens"); ok {
		u.CompletionTokens = v
	} else if v, ok := intField(raw, "completion_tokens"); ok {
		u.CompletionTokens = v
	}

	if v, ok := intField(raw, "cache_read_input_tokens"); ok {
		u.CachedTokens = v
	} else if details, ok := raw["prompt_tokens_details"].(map[string]interface{}); ok {
		if v, ok := intField(details, "cached_tokens"); ok {
			u.CachedTokens = v
		}
	}

	if details, ok := raw["completion_tokens_details"].(map[string]interface{}); ok {
		if v, ok := intField(details, "reasoning_tokens"); ok {
			u.ReasoningTokens = v
		}
	}

	if v, ok := intField(raw, "total_tokens"); ok {
		u.TotalTokens = v
	} else {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}

	return u
}

func intField(m map[string]interface{}, key string) (int, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

// mergeUsage accumulates usage across the multiple model calls an
// sdk-mode multi-turn run makes.
func mergeUsage(into *Usage, add *Usage) *Usage {
	if add == nil {
		return into
	}
	if into == nil {
		into = &Usage{}
	}
	into.PromptTokens += add.PromptTokens
	into.CompletionTokens += add.CompletionTokens
	into.CachedTokens += add.CachedTokens
	into.ReasoningTokens += add.ReasoningTokens
	into.TotalTokens += add.TotalTokens
	return into
}
