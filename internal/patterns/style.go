package patterns

import (
	"regexp"
	"strings"
	"unicode"
)

// StyleFindingType names the kind of style change detected between an
// edit's old and new fragments.
type StyleFindingType string

const (
	StyleFindingQuote         StyleFindingType = "quote"
	StyleFindingSemicolon     StyleFindingType = "semicolon"
	StyleFindingTrailingComma StyleFindingType = "trailing_comma"
)

// StyleFinding is one detected stylistic change, judged against the
// project's configured preference.
type StyleFinding struct {
	Type      StyleFindingType
	Detail    string // e.g. `' → "` for a quote finding
	Violating bool   // true if the change moves away from preference
}

// StylePreference is the project's configured style, e.g. "double" quotes.
type StylePreference struct {
	QuoteStyle string // "double" or "single"
}

// StyleDetector compares an edit's old and new text fragments and reports
// quote-direction, semicolon, and trailing-comma changes.
type StyleDetector struct {
	Preference StylePreference
}

func NewStyleDetector(pref StylePreference) *StyleDetector {
	return &StyleDetector{Preference: pref}
}

var singleQuoteCount = regexp.MustCompile(`'`)
var doubleQuoteCount = regexp.MustCompile(`"`)
var semicolonAtLineEnd = regexp.MustCompile(`;\s*$`)
var trailingComma = regexp.MustCompile(`,\s*[\]}]`)

// Compare reports every style change between oldText and newText.
func (d *StyleDetector) Compare(oldText, newText string) []StyleFinding {
	var findings []StyleFinding

	oldSingle := len(singleQuoteCount.FindAllString(oldText, -1))
	oldDouble := len(doubleQuoteCount.FindAllString(oldText, -1))
	newSingle := len(singleQuoteCount.FindAllString(newText, -1))
	newDouble := len(doubleQuoteCount.FindAllString(newText, -1))

	if oldSingle > oldDouble && newDouble > newSingle {
		findings = append(findings, StyleFinding{
			Type:      StyleFindingQuote,
			Detail:    "' → \"",
			Violating: d.Preference.QuoteStyle == "single",
		})
	} else if oldDouble > oldSingle && newSingle > newDouble {
		findings = append(findings, StyleFinding{
			Type:      StyleFindingQuote,
			Detail:    "\" → '",
			Violating: d.Preference.QuoteStyle == "double",
		})
	}

	oldSemi := countLinesMatching(oldText, semicolonAtLineEnd)
	newSemi := countLinesMatching(newText, semicolonAtLineEnd)
	if oldSemi == 0 && newSemi > 0 {
		findings = append(findings, StyleFinding{Type: StyleFindingSemicolon, Detail: "added", Violating: true})
	} else if oldSemi > 0 && newSemi == 0 {
		findings = append(findings, StyleFinding{Type: StyleFindingSemicolon, Detail: "removed", Violating: false})
	}

	oldComma := countLinesMatching(oldText, trailingComma)
	newComma := countLinesMatching(newText, trailingComma)
	if oldComma == 0 && newComma > 0 {
		findings = append(findings, StyleFinding{Type: StyleFindingTrailingComma, Detail: "added", Violating: true})
	} else if oldComma > 0 && newComma == 0 {
		findings = append(findings, StyleFinding{Type: StyleFindingTrailingComma, Detail: "removed", Violating: false})
	}

	return findings
}

func countLinesMatching(text string, pattern *regexp.Regexp) int {
	count := 0
	for _, line := range strings.Split(text, "\n") {
		if pattern.MatchString(line) {
			count++
		}
	}
	return count
}

// DetectAddedEmoji reports whether newText contains an emoji codepoint
// not present in oldText.
func DetectAddedEmoji(oldText, newText string) bool {
	oldEmoji := emojiSet(oldText)
	for _, r := range newText {
		if isEmoji(r) {
			if _, present := oldEmoji[r]; !present {
				return true
			}
		}
	}
	return false
}

func emojiSet(text string) map[rune]struct{} {
	set := map[rune]struct{}{}
	for _, r := range text {
		if isEmoji(r) {
			set[r] = struct{}{}
		}
	}
	return set
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1FAFF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	case r >= 0x1F1E6 && r <= 0x1F1FF:
		return true
	case unicode.Is(unicode.So, r) && r > 0x2000:
		return true
	}
	return false
}

// userDirectedQuestionPatterns recognize a question phrased toward the
// user, as opposed to a rhetorical or self-directed one.
var userDirectedQuestionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bshould I\b`),
	regexp.MustCompile(`(?i)\bwould you like\b`),
	regexp.MustCompile(`(?i)\bwhich\b.*\bdo you prefer\b`),
	regexp.MustCompile(`(?i)\bdo you want\b`),
	regexp.MustCompile(`(?i)\bcan you (confirm|clarify)\b`),
}

// IsUserDirectedQuestion reports whether text reads as addressed to the
// user, rather than a rhetorical or self-directed question the assistant
// asks itself mid-reasoning.
func IsUserDirectedQuestion(text string) bool {
	for _, p := range userDirectedQuestionPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
