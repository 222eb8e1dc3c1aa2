package enumerate

import (
	"path/filepath"
	"slices"
	"strings"
)

// DefaultArchiveExtensions is used when no archive extensions are configured.
var DefaultArchiveExtensions = []string{
	"zip", "7z", "jar", "war", "ear", "rar", "tar", "gz", "tgz", "bz2", "tbz2", "xz", "txz", "cab", "iso", "lzh",
}

// ArchiveRegistry is the read-only set of extensions treated as archives.
type ArchiveRegistry struct {
	extensions map[string]struct{}
}

// NewArchiveRegistry builds a registry from extensions given with or without
// a leading '.' or a trailing '$'. A nil slice selects
// DefaultArchiveExtensions.
func NewArchiveRegistry(extensions []string) *ArchiveRegistry {
	if extensions == nil {
		extensions = DefaultArchiveExtensions
	}

	registry := &ArchiveRegistry{extensions: make(map[string]struct{}, len(extensions))}
	for _, ext := range extensions {
		if ext = normalizeExtension(ext); ext != "" {
			registry.extensions[ext] = struct{}{}
		}
	}

	return registry
}

func normalizeExtension(ext string) string {
	ext = strings.TrimSpace(ext)
	ext = strings.TrimLeft(ext, ".")
	ext = strings.TrimRight(ext, "$")
	return strings.ToLower(ext)
}

// IsArchiveExtension reports whether ext is a registered archive extension.
func (r *ArchiveRegistry) IsArchiveExtension(ext string) bool {
	if r == nil {
		return false
	}
	ext = normalizeExtension(ext)
	if ext == "" {
		return false
	}
	_, ok := r.extensions[ext]
	return ok
}

// IsArchive reports whether the extension of path is a registered archive
// extension.
func (r *ArchiveRegistry) IsArchive(path string) bool {
	return r.IsArchiveExtension(filepath.Ext(path))
}

// Extensions returns the registered extensions, sorted.
func (r *ArchiveRegistry) Extensions() []string {
	if r == nil {
		return nil
	}
	extensions := make([]string, 0, len(r.extensions))
	for ext := range r.extensions {
		extensions = append(extensions, ext)
	}
	slices.Sort(extensions)
	return extensions
}
