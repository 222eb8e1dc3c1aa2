package enumerate

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/meghashyamc/findlines/logger"
)

// Enumerator produces candidate files for a FileFilter. It holds only
// read-only configuration, so one Enumerator may serve concurrent walks.
type Enumerator struct {
	logger   logger.Logger
	archives *ArchiveRegistry
}

func New(logger logger.Logger, archives *ArchiveRegistry) *Enumerator {
	return &Enumerator{logger: logger, archives: archives}
}

// Archives returns the archive registry the Enumerator was built with.
func (e *Enumerator) Archives() *ArchiveRegistry {
	return e.archives
}

// Enumerate returns a lazy sequence of absolute paths of the files matching
// filter. Every call starts a fresh walk; a path is never yielded twice by
// the same walk. The walk stops when the consumer stops or ctx is done.
// Missing roots are skipped, and files or directories that cannot be read
// are logged and left out.
func (e *Enumerator) Enumerate(ctx context.Context, filter FileFilter) iter.Seq[string] {
	return func(yield func(string) bool) {
		if strings.TrimSpace(filter.Path) == "" || strings.TrimSpace(filter.NamePatternToInclude) == "" {
			return
		}

		compiled, err := compile(filter)
		if err != nil {
			e.logger.Warn("invalid file filter, nothing to enumerate", "err", err.Error())
			return
		}

		w := &walker{
			ctx:      ctx,
			logger:   e.logger,
			archives: e.archives,
			filter:   filter,
			compiled: compiled,
			seen:     make(map[string]struct{}),
			yield:    yield,
		}

		for _, root := range SplitPath(filter.Path) {
			if !w.walkRoot(root) {
				return
			}
		}
	}
}

// List collects up to limit paths from Enumerate; limit <= 0 means no limit.
func (e *Enumerator) List(ctx context.Context, filter FileFilter, limit int) []string {
	var paths []string
	for path := range e.Enumerate(ctx, filter) {
		paths = append(paths, path)
		if limit > 0 && len(paths) >= limit {
			break
		}
	}
	return paths
}

type walker struct {
	ctx      context.Context
	logger   logger.Logger
	archives *ArchiveRegistry
	filter   FileFilter
	compiled *compiledFilter
	seen     map[string]struct{}
	yield    func(string) bool
}

// walkRoot returns false once the walk must stop.
func (w *walker) walkRoot(root string) bool {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		w.logger.Warn("could not resolve root path", "path", root, "err", err.Error())
		return true
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return true
	}

	if !info.IsDir() {
		return w.emit(absRoot)
	}

	return w.walkDir(absRoot, absRoot)
}

func (w *walker) walkDir(root string, dir string) bool {
	if w.ctx.Err() != nil {
		return false
	}

	// a hidden directory keeps its children but not its own files; the
	// search root is never treated as hidden
	skipFiles := false
	if dir != root {
		if w.isExcludedDir(root, dir) {
			return true
		}
		skipFiles = !w.filter.IncludeHidden && isHidden(dir)
	}

	if !hasListPermission(dir) {
		w.logger.Debug("no permission to list directory, skipping", "path", dir)
		return true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		w.logger.Warn("could not list directory, skipping", "path", dir, "err", err.Error())
		return true
	}

	var subDirs []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		info, err := os.Stat(path)
		if err != nil {
			w.logger.Warn("could not stat file, skipping", "path", path, "err", err.Error())
			continue
		}

		if info.IsDir() {
			// symlinked directories are not followed
			if entry.Type()&fs.ModeSymlink == 0 {
				subDirs = append(subDirs, path)
			}
			continue
		}

		if skipFiles || !info.Mode().IsRegular() {
			continue
		}

		ok, err := w.accept(path, info)
		if err != nil {
			w.logger.Warn("could not evaluate file, skipping", "path", path, "err", err.Error())
			continue
		}
		if ok && !w.emit(path) {
			return false
		}
	}

	if !w.filter.IncludeSubfolders {
		return true
	}

	for _, subDir := range subDirs {
		if !w.walkDir(root, subDir) {
			return false
		}
	}

	return true
}

// accept applies the file rules in order, stopping at the first that fails.
func (w *walker) accept(path string, info fs.FileInfo) (bool, error) {
	filter := w.filter

	if !filter.IncludeHidden && isHidden(path) {
		return false, nil
	}

	isArchive := w.archives.IsArchive(path)
	if !filter.IncludeArchive && isArchive {
		return false, nil
	}

	if !isArchive && !filter.IncludeBinary {
		isBinary, err := isBinaryFile(path)
		if err != nil {
			return false, err
		}
		if isBinary {
			return false, nil
		}
	}

	if filter.SizeFrom > 0 || filter.SizeTo > 0 {
		sizeKB := info.Size() / 1000
		if filter.SizeFrom > 0 && sizeKB < int64(filter.SizeFrom) {
			return false, nil
		}
		if filter.SizeTo > 0 && sizeKB > int64(filter.SizeTo) {
			return false, nil
		}
	}

	if filter.DateFilter != DateFilterNone {
		fileDate := info.ModTime()
		if filter.DateFilter == DateFilterCreated {
			fileDate = creationTime(path, info)
		}
		if filter.StartTime != nil && fileDate.Before(*filter.StartTime) {
			return false, nil
		}
		if filter.EndTime != nil && !fileDate.Before(*filter.EndTime) {
			return false, nil
		}
	}

	sniffer := &shebangSniffer{path: path}

	included := filter.IncludeArchive && isArchive
	if !included {
		matched, err := matchesAny(w.compiled.include, path, sniffer)
		if err != nil {
			return false, err
		}
		included = matched
	}
	if !included {
		return false, nil
	}

	excluded, err := matchesAny(w.compiled.exclude, path, sniffer)
	if err != nil {
		return false, err
	}

	return !excluded, nil
}

func (w *walker) isExcludedDir(root string, dir string) bool {
	if len(w.compiled.excludeDirs) == 0 {
		return false
	}

	relPath, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	relPath = filepath.ToSlash(relPath)
	name := filepath.Base(dir)

	for _, glob := range w.compiled.excludeDirs {
		if matched, _ := doublestar.Match(glob, relPath); matched {
			return true
		}
		if matched, _ := doublestar.Match(glob, name); matched {
			return true
		}
	}

	return false
}

func (w *walker) emit(path string) bool {
	if _, ok := w.seen[path]; ok {
		return true
	}
	w.seen[path] = struct{}{}

	if w.ctx.Err() != nil {
		return false
	}

	return w.yield(path)
}

// shebangSniffer reads the first line of a file at most once.
type shebangSniffer struct {
	path        string
	read        bool
	interpreter string
}

func (s *shebangSniffer) get() (string, error) {
	if s.read {
		return s.interpreter, nil
	}

	interpreter, err := shebangInterpreter(s.path)
	if err != nil {
		return "", err
	}
	s.read = true
	s.interpreter = interpreter

	return interpreter, nil
}

func matchesAny(patterns []namePattern, path string, sniffer *shebangSniffer) (bool, error) {
	for _, pattern := range patterns {
		if pattern.name.MatchString(path) {
			return true, nil
		}

		if pattern.shebang == nil {
			continue
		}
		interpreter, err := sniffer.get()
		if err != nil {
			return false, err
		}
		if interpreter != "" && pattern.shebang.MatchString(interpreter) {
			return true, nil
		}
	}

	return false, nil
}

// hasListPermission probes a directory by reading a single entry.
func hasListPermission(dir string) bool {
	f, err := os.Open(dir)
	if err != nil {
		return false
	}
	defer f.Close()

	if _, err := f.ReadDir(1); err != nil && !errors.Is(err, io.EOF) {
		return false
	}

	return true
}
