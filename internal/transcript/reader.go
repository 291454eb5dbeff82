package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// rawBlock is one element of a content array, covering the shapes the
// reader needs to understand: plain text, a tool_use invocation, or a
// tool_result (whose own content is either a string or more blocks).
type rawBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
}

type rawMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// rawEntry mirrors one JSONL line. Only the fields the reader acts on are
// declared; everything else is ignored by encoding/json.
type rawEntry struct {
	Message     rawMessage `json:"message"`
	IsSidechain bool       `json:"isSidechain"`
	AgentID     string     `json:"agentId"`
}

// decodeContentString returns a content field's text when it is a bare
// JSON string; decodeContentBlocks below handles the block-array form.
func decodeContentString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return "", false
}

func decodeContentBlocks(raw json.RawMessage) ([]rawBlock, bool) {
	var blocks []rawBlock
	if err := json.Unmarshal(raw, &blocks); err == nil {
		return blocks, true
	}
	return nil, false
}

func blockText(content json.RawMessage) string {
	if content == nil {
		return ""
	}
	if s, ok := decodeContentString(content); ok {
		return s
	}
	if blocks, ok := decodeContentBlocks(content); ok {
		var sb strings.Builder
		for _, b := range blocks {
			if b.Type == "text" || b.Type == "" {
				sb.WriteString(b.Text)
			}
		}
		return sb.String()
	}
	return ""
}

var agentTranscriptName = regexp.MustCompile(`^agent-.*\.jsonl$`)

// IsSubagentTranscript reports whether the transcript at path belongs to a
// subagent rather than the main conversation, so a validator can choose a
// different quota/filter profile for it.
func IsSubagentTranscript(path string) bool {
	if agentTranscriptName.MatchString(filepath.Base(path)) {
		return true
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	if !scanner.Scan() {
		return false
	}
	var entry rawEntry
	if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
		return false
	}
	return entry.IsSidechain && entry.AgentID != ""
}

// Read loads the JSONL transcript at path and collects a role-bounded view
// per spec. The file is read twice: once forward to resolve tool_use_id to
// tool name and find the freshest slash-command metadata, once backward to
// fill the three role quotas newest-first with a staleness bound measured
// in raw entries from the tail.
func Read(path string, spec Spec) (CollectedView, error) {
	lines, err := readLines(path)
	if err != nil {
		return CollectedView{}, fmt.Errorf("transcript: %w", err)
	}

	toolNameByUseID := map[string]string{}
	var slashCmd *SlashCommandContext

	entries := make([]*rawEntry, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var entry rawEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		entries[i] = &entry

		switch entry.Message.Role {
		case "assistant":
			if blocks, ok := decodeContentBlocks(entry.Message.Content); ok {
				for _, b := range blocks {
					if b.Type == "tool_use" && b.ID != "" {
						toolNameByUseID[b.ID] = b.Name
					}
				}
			}
		case "user":
			if spec.DetectSlashCommand {
				if text, ok := decodeContentString(entry.Message.Content); ok {
					if ctx := extractSlashCommandContext(text); ctx != nil {
						slashCmd = ctx
					}
				}
			}
		}
	}

	var view CollectedView
	view.SlashCommand = slashCmd

	userQuota, assistantQuota, toolQuota := spec.User.Count, spec.Assistant.Count, spec.ToolResult.Count
	sawPlanApproval := false

	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		if entry == nil {
			continue
		}
		scanDistance := len(entries) - 1 - i

		done := (userQuota <= 0 || len(view.User) >= userQuota) &&
			(assistantQuota <= 0 || len(view.Assistant) >= assistantQuota) &&
			(toolQuota <= 0 || len(view.ToolResult) >= toolQuota)
		if done {
			break
		}

		switch entry.Message.Role {
		case "assistant":
			if assistantQuota <= 0 || len(view.Assistant) >= assistantQuota {
				continue
			}
			if spec.Assistant.MaxStale > 0 && scanDistance > spec.Assistant.MaxStale {
				continue
			}
			text := blockText(entry.Message.Content)
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			view.Assistant = append(view.Assistant, Message{Role: "assistant", Content: text, Index: i})

		case "user":
			appendUser := func(text string) {
				if userQuota <= 0 || len(view.User) >= userQuota {
					return
				}
				if spec.User.MaxStale > 0 && scanDistance > spec.User.MaxStale {
					return
				}
				if spec.DropSystemReminders && isSystemReminder(text) {
					return
				}
				if spec.DropSlashCommandPrompts && isSlashCommandPrompt(text) {
					return
				}
				view.User = append(view.User, Message{Role: "user", Content: text, Index: i})
			}
			appendToolResult := func(toolUseID, text string) {
				if toolQuota <= 0 || len(view.ToolResult) >= toolQuota {
					return
				}
				if spec.ToolResult.MaxStale > 0 && scanDistance > spec.ToolResult.MaxStale {
					return
				}
				if spec.DropHostInterruptions && isHostInterruption(text) {
					return
				}
				if name, ok := toolNameByUseID[toolUseID]; ok {
					for _, excluded := range spec.ExcludeToolNames {
						if strings.EqualFold(name, excluded) {
							return
						}
					}
				}
				if spec.DetectPlanApproval && !sawPlanApproval {
					if name := toolNameByUseID[toolUseID]; strings.EqualFold(name, "ExitPlanMode") && mentionsPlanApproval(text) {
						sawPlanApproval = true
					}
				}
				if spec.TrimToolOutput {
					text = trimToolOutput(text, spec.MaxToolOutputLines)
				}
				view.ToolResult = append(view.ToolResult, Message{Role: "toolResult", Content: text, Index: i})
			}

			if text, ok := decodeContentString(entry.Message.Content); ok {
				appendUser(strings.TrimSpace(text))
				continue
			}
			blocks, ok := decodeContentBlocks(entry.Message.Content)
			if !ok {
				continue
			}
			for _, b := range blocks {
				switch b.Type {
				case "tool_result":
					appendToolResult(b.ToolUseID, strings.TrimSpace(blockText(b.Content)))
				case "text":
					appendUser(strings.TrimSpace(b.Text))
				}
			}
		}
	}

	if spec.IncludeFirstUserMessage {
		earliest := len(entries)
		for _, m := range view.User {
			if m.Index < earliest {
				earliest = m.Index
			}
		}
		if first := firstSurvivingUserMessage(entries, earliest, spec); first != nil {
			view.User = append([]Message{*first}, view.User...)
		}
	}

	if spec.DetectPlanApproval && sawPlanApproval {
		view.User = append(view.User, Message{
			Role:    "user",
			Content: PlanApprovalSyntheticMessage,
			Index:   lastIndex,
		})
	}

	return view, nil
}

// firstSurvivingUserMessage forward-scans entries[0:beforeIndex) for the
// first user message that the same content filters would keep.
func firstSurvivingUserMessage(entries []*rawEntry, beforeIndex int, spec Spec) *Message {
	for i := 0; i < beforeIndex && i < len(entries); i++ {
		entry := entries[i]
		if entry == nil || entry.Message.Role != "user" {
			continue
		}
		text, ok := decodeContentString(entry.Message.Content)
		if !ok {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if spec.DropSystemReminders && isSystemReminder(text) {
			continue
		}
		if spec.DropSlashCommandPrompts && isSlashCommandPrompt(text) {
			continue
		}
		return &Message{Role: "user", Content: text, Index: i}
	}
	return nil
}

// readLines returns the empty list, not an error, when path can't even
// be opened — a missing or unreadable transcript resolves to an empty
// view rather than failing the hook.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
