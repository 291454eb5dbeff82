package transcript

import (
	"regexp"
	"strings"
)

// errorSignalPatterns match a tool_result line worth escalating to an LLM
// check, cheaply, before spending a model call on it.
var errorSignalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`error TS\d+`),
	regexp.MustCompile(`Error:`),
	regexp.MustCompile(`(?i)\bfailed\b`),
	regexp.MustCompile(`(?i)\bdenied\b`),
	regexp.MustCompile(`make: \*\*\*`),
}

// frustrationMarkerPatterns match user speech indicating the assistant
// ignored corrective feedback. These only run against USER-prefixed lines.
var frustrationMarkerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bignore\b`),
	regexp.MustCompile(`[A-Z]{5,}`),
	regexp.MustCompile(`(?i)\bstop (doing|trying|that)\b`),
	regexp.MustCompile(`(?i)\bI (said|told|asked)\b`),
	regexp.MustCompile(`(?i)wrong.*you`),
}

// ErrorScanResult is the cheap regex pre-filter's verdict on a formatted
// transcript excerpt: whether it's worth spending an LLM call on, and
// which markers tripped.
type ErrorScanResult struct {
	NeedsLLMCheck bool
	Matched       []string
}

// DetectErrorPattern regex-scans formatted transcript text for signals
// that a tool result carries an unacknowledged error, or that the user
// restated feedback the assistant already ignored once. It is a fast-path
// filter: a miss here skips the LLM validator entirely; a hit doesn't
// guarantee the LLM will deny, only that it's worth asking.
func DetectErrorPattern(formatted string) ErrorScanResult {
	var result ErrorScanResult

	for _, line := range strings.Split(formatted, "\n") {
		isUserLine := strings.HasPrefix(line, rolePrefix("user")+": ")
		isToolLine := strings.HasPrefix(line, rolePrefix("toolResult")+": ")

		if isToolLine {
			for _, p := range errorSignalPatterns {
				if p.MatchString(line) {
					result.NeedsLLMCheck = true
					result.Matched = append(result.Matched, p.String())
				}
			}
		}
		if isUserLine {
			for _, p := range frustrationMarkerPatterns {
				if p.MatchString(line) {
					result.NeedsLLMCheck = true
					result.Matched = append(result.Matched, p.String())
				}
			}
		}
	}

	return result
}
