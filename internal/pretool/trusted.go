package pretool

import (
	"path/filepath"
	"strings"
)

// sensitivePathMarkers names the substrings that pull a file path out
// of the trusted-file lazy path regardless of where it lives, since a
// credential or key file deserves the synchronous pipeline even inside
// the project root.
var sensitivePathMarkers = []string{
	".env", "credentials", ".ssh", ".aws", "secrets", ".key", ".pem", "password",
}

// isSensitivePath reports whether any component of path looks like it
// holds a secret.
func isSensitivePath(path string) bool {
	lower := strings.ToLower(path)
	for _, marker := range sensitivePathMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// TrustedFileCheck is what the lazy path gate needs to decide whether a
// FILE_TOOLS call on path qualifies: inside the project or the
// assistant's own config directory, not a sensitive path, and not the
// plan file or the project rules file (those always get their own
// synchronous path-based validator).
type TrustedFileCheck struct {
	ProjectRoot   string
	ConfigDir     string
	PlansDir      string
	RulesFileName string
}

// IsTrusted reports whether path qualifies for the lazy fast path.
func (c TrustedFileCheck) IsTrusted(path string) bool {
	if isSensitivePath(path) {
		return false
	}
	if c.isPlanFile(path) || c.isRulesFile(path) {
		return false
	}
	return c.isUnderProjectOrConfig(path)
}

func (c TrustedFileCheck) isUnderProjectOrConfig(path string) bool {
	abs := absOrSelf(path)
	for _, root := range []string{c.ProjectRoot, c.ConfigDir} {
		if root == "" {
			continue
		}
		rootAbs := absOrSelf(root)
		if abs == rootAbs || strings.HasPrefix(abs, rootAbs+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (c TrustedFileCheck) isPlanFile(path string) bool {
	if c.PlansDir == "" {
		return false
	}
	plansAbs := absOrSelf(c.PlansDir)
	abs := absOrSelf(path)
	return abs == plansAbs || strings.HasPrefix(abs, plansAbs+string(filepath.Separator))
}

func (c TrustedFileCheck) isRulesFile(path string) bool {
	if c.RulesFileName == "" {
		return false
	}
	return filepath.Base(path) == c.RulesFileName
}

func absOrSelf(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
