package llm

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
)

// builtinReadOnlyTools returns the Read/Glob/Grep trio every sdk-mode
// validator gets for free, each confined to workDir by resolveInWorkDir.
// The confinement logic (symlink canonicalization, escape rejection,
// mutable-symlink-parent and hardlink checks) is adapted from the
// teacher's workspace-restricted file tool — trimmed here to what a
// read-only validator needs: no sandbox/virtual-FS routing, no writes.
func builtinReadOnlyTools(workDir string) []Tool {
	return []Tool{
		{
			Name:        "Read",
			Description: "Read the contents of a file within the working directory.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{"path": map[string]interface{}{"type": "string"}},
				"required":   []string{"path"},
			},
			Handler: func(input map[string]interface{}) (string, error) {
				path, _ := input["path"].(string)
				resolved, err := resolveInWorkDir(path, workDir)
				if err != nil {
					return "", err
				}
				data, err := os.ReadFile(resolved)
				if err != nil {
					return "", fmt.Errorf("read %s: %w", path, err)
				}
				return string(data), nil
			},
		},
		{
			Name:        "Glob",
			Description: "List files within the working directory matching a glob pattern.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{"pattern": map[string]interface{}{"type": "string"}},
				"required":   []string{"pattern"},
			},
			Handler: func(input map[string]interface{}) (string, error) {
				pattern, _ := input["pattern"].(string)
				resolved, err := resolveInWorkDir(pattern, workDir)
				if err != nil {
					return "", err
				}
				matches, err := filepath.Glob(resolved)
				if err != nil {
					return "", fmt.Errorf("glob %s: %w", pattern, err)
				}
				sort.Strings(matches)
				return strings.Join(matches, "\n"), nil
			},
		},
		{
			Name:        "Grep",
			Description: "Search for a literal substring across files under the working directory.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"pattern": map[string]interface{}{"type": "string"},
					"glob":    map[string]interface{}{"type": "string"},
				},
				"required": []string{"pattern"},
			},
			Handler: func(input map[string]interface{}) (string, error) {
				pattern, _ := input["pattern"].(string)
				globPattern, _ := input["glob"].(string)
				if globPattern == "" {
					globPattern = "*"
				}
				return grepWorkDir(workDir, pattern, globPattern)
			},
		},
	}
}

func grepWorkDir(workDir, pattern, globPattern string) (string, error) {
	var hits []string
	err := filepath.Walk(workDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(workDir, path)
		if relErr != nil {
			return nil
		}
		if matched, _ := filepath.Match(globPattern, rel); !matched {
			if matched, _ := filepath.Match(globPattern, filepath.Base(path)); !matched {
				return nil
			}
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		if strings.Contains(string(data), pattern) {
			hits = append(hits, rel)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("grep: %w", err)
	}
	return strings.Join(hits, "\n"), nil
}

// resolveInWorkDir resolves path relative to workDir, follows symlinks
// to their canonical form, and rejects anything that escapes workDir,
// has a mutable symlink component, or is a hardlinked regular file.
func resolveInWorkDir(path, workDir string) (string, error) {
	var resolved string
	if filepath.IsAbs(path) {
		resolved = filepath.Clean(path)
	} else {
		resolved = filepath.Clean(filepath.Join(workDir, path))
	}

	absWorkDir, _ := filepath.Abs(workDir)
	wsReal, err := filepath.EvalSymlinks(absWorkDir)
	if err != nil {
		wsReal = absWorkDir
	}

	absResolved, _ := filepath.Abs(resolved)
	real, err := filepath.EvalSymlinks(absResolved)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("access denied: cannot resolve path")
		}
		parentReal, parentErr := filepath.EvalSymlinks(filepath.Dir(absResolved))
		if parentErr != nil {
			return "", fmt.Errorf("access denied: cannot resolve path")
		}
		real = filepath.Join(parentReal, filepath.Base(absResolved))
	}

	if !isPathInside(real, wsReal) {
		return "", fmt.Errorf("access denied: path outside working directory")
	}
	if hasMutableSymlinkParent(real) {
		return "", fmt.Errorf("access denied: path contains mutable symlink component")
	}
	if err := checkHardlink(real); err != nil {
		return "", err
	}

	return real, nil
}

func isPathInside(child, parent string) bool {
	if child == parent {
		return true
	}
	return strings.HasPrefix(child, parent+string(filepath.Separator))
}

func hasMutableSymlinkParent(path string) bool {
	clean := filepath.Clean(path)
	components := strings.Split(clean, string(filepath.Separator))
	current := string(filepath.Separator)
	for _, comp := range components {
		if comp == "" {
			continue
		}
		current = filepath.Join(current, comp)
		info, err := os.Lstat(current)
		if err != nil {
			break
		}
		if info.Mode()&os.ModeSymlink != 0 {
			parentDir := filepath.Dir(current)
			if syscall.Access(parentDir, 0x2) == nil {
				return true
			}
		}
	}
	return false
}

func checkHardlink(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return nil
	}
	if info.IsDir() {
		return nil
	}
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		if stat.Nlink > 1 {
			return fmt.Errorf("access denied: hardlinked file not allowed")
		}
	}
	return nil
}
