package pretool

import (
	"encoding/json"
	"os"
	"os/exec"
	"syscall"

	"github.com/nextlevelbuilder/hookgate/internal/cache"
)

// BackgroundValidationRequest is what the detached subprocess needs to
// re-run error-acknowledge, response-align, and style-drift against the
// same tool call the lazy path already allowed, and to know which
// session's pending-validation cache to write its verdict into.
type BackgroundValidationRequest struct {
	SessionID      string                 `json:"sessionId"`
	ToolName       string                 `json:"toolName"`
	ToolInput      map[string]interface{} `json:"toolInput"`
	TranscriptPath string                 `json:"transcriptPath"`
	Cwd            string                 `json:"cwd"`
}

// SpawnBackgroundValidator starts the current binary in its
// "async-validate" mode as a detached child (its own session, so it
// outlives this process once the lazy-path foreground hook exits) and
// feeds it req as JSON on stdin. Unlike a bounded-timeout foreground
// exec call, this one never waits: the whole point of the lazy path is
// that the hook returns allow immediately while the real check happens
// after.
// If the subprocess can't even be started, the caller must write a
// failed pending-validation record itself so the next hook denies
// rather than trusting a check that never ran.
func SpawnBackgroundValidator(req BackgroundValidationRequest, pending *cache.PendingValidationCache) error {
	payload, err := json.Marshal(req)
	if err != nil {
		_ = pending.MarkFailedToSpawn(req.ToolName)
		return err
	}

	self, err := os.Executable()
	if err != nil {
		_ = pending.MarkFailedToSpawn(req.ToolName)
		return err
	}

	cmd := exec.Command(self, "async-validate")
	cmd.Stdin = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		_ = pending.MarkFailedToSpawn(req.ToolName)
		return err
	}

	if err := cmd.Start(); err != nil {
		_ = pending.MarkFailedToSpawn(req.ToolName)
		return err
	}

	if _, err := stdin.Write(payload); err != nil {
		_ = pending.MarkFailedToSpawn(req.ToolName)
		stdin.Close()
		return err
	}
	stdin.Close()

	// Detached: release our handle so the child isn't reaped as our
	// subprocess once this process exits.
	return cmd.Process.Release()
}
