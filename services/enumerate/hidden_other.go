//go:build !windows

package enumerate

import (
	"path/filepath"
	"strings"
)

func isHidden(path string) bool {
	name := filepath.Base(path)
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
