package enumerate

import (
	"os"
	"path/filepath"
	"strings"
)

const pathSeparators = ";,"

// SplitPath splits a root list on ';' and ','. It is a best-effort resolver:
// a fragment that does not exist on disk is greedily re-joined with the
// following fragments (restoring the original separators) until the joined
// text names an existing file or directory. Fragments that never resolve are
// returned trimmed.
func SplitPath(path string) []string {
	if strings.TrimSpace(path) == "" {
		return nil
	}

	fragments, separators := splitKeepingSeparators(path, pathSeparators)

	var result []string
	for i := 0; i < len(fragments); i++ {
		if pathExists(fragments[i]) {
			result = append(result, fragments[i])
			continue
		}

		joined, end := resolveJoined(fragments, separators, i)
		if end > i {
			result = append(result, joined)
			i = end
			continue
		}

		if trimmed := strings.TrimSpace(fragments[i]); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// resolveJoined scans forward from fragments[start] and returns the first
// concatenation that exists along with the index of its last fragment, or
// start when none exists.
func resolveJoined(fragments []string, separators []byte, start int) (string, int) {
	var joined strings.Builder
	joined.WriteString(fragments[start])

	for j := start + 1; j < len(fragments); j++ {
		joined.WriteByte(separators[j-1])
		joined.WriteString(fragments[j])
		if pathExists(joined.String()) {
			return joined.String(), j
		}
	}

	return "", start
}

// splitKeepingSeparators splits s on any byte in seps and records which
// separator followed each fragment.
func splitKeepingSeparators(s string, seps string) ([]string, []byte) {
	var fragments []string
	var separators []byte

	start := 0
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(seps, s[i]) >= 0 {
			fragments = append(fragments, s[start:i])
			separators = append(separators, s[i])
			start = i + 1
		}
	}

	return append(fragments, s[start:]), separators
}

func pathExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// IsPathValid reports whether every non-blank entry of a root list exists.
func IsPathValid(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}

	for _, subPath := range SplitPath(path) {
		if strings.TrimSpace(subPath) != "" && !pathExists(subPath) {
			return false
		}
	}

	return true
}

// CleanPath trims the entries of a root list and drops those that do not
// exist, joining the rest with ';'.
func CleanPath(path string) string {
	if strings.TrimSpace(path) == "" {
		return path
	}

	var items []string
	for _, subPath := range SplitPath(path) {
		if p := strings.TrimSpace(subPath); p != "" && pathExists(p) {
			items = append(items, p)
		}
	}

	return strings.Join(items, ";")
}

// BaseFolder returns the directory of the first entry in a root list: the
// entry itself when it is a directory, its parent when it is a file, or ""
// when it does not exist.
func BaseFolder(path string) string {
	paths := SplitPath(path)
	if len(paths) == 0 || strings.TrimSpace(paths[0]) == "" {
		return ""
	}

	info, err := os.Stat(paths[0])
	if err != nil {
		return ""
	}
	if info.IsDir() {
		return paths[0]
	}

	return filepath.Dir(paths[0])
}
