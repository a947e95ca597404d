package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
)

// Discover returns executor commands by capability name. Each sub directory
// D of dir is a capability named D, run with D/<NormalizeName(D)>, or with the
// ".exe" variant of that if it exists.
func Discover(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read executor directory: %w", err)
	}

	found := map[string]string{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		base := filepath.Join(dir, name, NormalizeName(name))

		cmd := ""
		for _, candidate := range []string{base + ".exe", base} {
			if isExecutable(candidate) {
				cmd = candidate
				break
			}
		}
		if cmd == "" {
			zap.L().Warn("executor directory has no executable", zap.String("dir", filepath.Join(dir, name)))
			continue
		}

		abs, err := filepath.Abs(cmd)
		if err == nil {
			cmd = abs
		}
		found[name] = cmd
	}
	return found, nil
}

// Capabilities returns the sorted names of discovered executors
func Capabilities(executors map[string]string) []string {
	caps := []string{}
	for name := range executors {
		caps = append(caps, name)
	}
	sort.Strings(caps)
	return caps
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return filepath.Ext(path) == ".exe" || info.Mode()&0111 != 0
}
