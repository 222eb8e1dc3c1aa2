package fileops

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/meghashyamc/findlines/logger"
	"github.com/meghashyamc/findlines/services/search"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

const ownerWrite fs.FileMode = 0200

var (
	ErrDestinationExists = errors.New("destination file exists")
	ErrCopyIntoSource    = errors.New("destination would overwrite a source file")
)

// Service copies and deletes the files of search results.
type Service struct {
	logger logger.Logger
	fs     afs.Service
}

func New(logger logger.Logger) *Service {
	return &Service{logger: logger, fs: afs.New()}
}

// Paths returns the distinct file paths of results, in result order.
func Paths(results []search.FileResult) []string {
	seen := make(map[string]struct{}, len(results))
	paths := make([]string, 0, len(results))
	for _, result := range results {
		if _, ok := seen[result.Path]; ok {
			continue
		}
		seen[result.Path] = struct{}{}
		paths = append(paths, result.Path)
	}
	return paths
}

// destinationFor maps a source file below one of roots to the same relative
// path under dstDir. Without roots only the file name is kept. A file outside
// every root has no destination.
func destinationFor(path string, roots []string, dstDir string) (string, bool) {
	path = filepath.Clean(path)
	if len(roots) == 0 {
		return filepath.Join(dstDir, filepath.Base(path)), true
	}

	for _, root := range roots {
		rel, err := filepath.Rel(filepath.Clean(root), path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if rel == "." {
			// the root is the file itself
			rel = filepath.Base(path)
		}
		return filepath.Join(dstDir, rel), true
	}
	return "", false
}

// CanCopy reports whether copying results into dstDir leaves every source
// file untouched.
func CanCopy(results []search.FileResult, roots []string, dstDir string) bool {
	if strings.TrimSpace(dstDir) == "" || len(results) == 0 {
		return false
	}

	for _, path := range Paths(results) {
		destination, ok := destinationFor(path, roots, dstDir)
		if ok && destination == filepath.Clean(path) {
			return false
		}
	}
	return true
}

// Copy copies the files of results into dstDir, keeping their path relative
// to the root they were found under. Files outside roots, and files whose
// destination is the file itself, are skipped. An existing destination is
// only replaced when overwrite is set. It returns the written destinations;
// errors of individual files are joined.
func (s *Service) Copy(ctx context.Context, results []search.FileResult, roots []string, dstDir string, overwrite bool) ([]string, error) {
	var copied []string
	var errs []error

	for _, path := range Paths(results) {
		if err := ctx.Err(); err != nil {
			return copied, err
		}

		destination, ok := destinationFor(path, roots, dstDir)
		if !ok {
			s.logger.Warn("file is outside the source folders, skipping", "path", path)
			continue
		}
		if destination == filepath.Clean(path) {
			continue
		}

		if err := s.copyFile(ctx, path, destination, overwrite); err != nil {
			s.logger.Warn("could not copy file", "path", path, "destination", destination, "err", err.Error())
			errs = append(errs, err)
			continue
		}
		copied = append(copied, destination)
	}

	s.logger.Info("copied files", "destination", dstDir, "count", len(copied))
	return copied, errors.Join(errs...)
}

func (s *Service) copyFile(ctx context.Context, source string, destination string, overwrite bool) error {
	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("could not read source file: %w", err)
	}

	exists, err := s.fs.Exists(ctx, destination)
	if err != nil {
		return fmt.Errorf("could not check destination %s: %w", destination, err)
	}
	if exists {
		if !overwrite {
			return fmt.Errorf("%w: %s", ErrDestinationExists, destination)
		}
		if err := makeWritable(destination); err != nil {
			return err
		}
	}

	parent := filepath.Dir(destination)
	if ok, _ := s.fs.Exists(ctx, parent); !ok {
		if err := s.fs.Create(ctx, parent, file.DefaultDirOsMode, true); err != nil {
			return fmt.Errorf("could not create folder %s: %w", parent, err)
		}
	}

	data, err := s.fs.DownloadWithURL(ctx, source)
	if err != nil {
		return fmt.Errorf("could not read source file: %w", err)
	}
	if err := s.fs.Upload(ctx, destination, info.Mode().Perm(), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("could not write %s: %w", destination, err)
	}

	// an overwritten file keeps its own mode unless set again
	return os.Chmod(destination, info.Mode().Perm())
}

// Delete deletes the files of results, read-only ones included. It returns
// the deleted paths; errors of individual files are joined.
func (s *Service) Delete(ctx context.Context, results []search.FileResult) ([]string, error) {
	var deleted []string
	var errs []error

	for _, path := range Paths(results) {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		if err := s.DeleteFile(ctx, path); err != nil {
			s.logger.Warn("could not delete file", "path", path, "err", err.Error())
			errs = append(errs, err)
			continue
		}
		deleted = append(deleted, path)
	}

	s.logger.Info("deleted files", "count", len(deleted))
	return deleted, errors.Join(errs...)
}

// DeleteFile deletes path even if it is read-only. A missing file is not an
// error.
func (s *Service) DeleteFile(ctx context.Context, path string) error {
	exists, err := s.fs.Exists(ctx, path)
	if err != nil {
		return fmt.Errorf("could not check %s: %w", path, err)
	}
	if !exists {
		return nil
	}

	if err := makeWritable(path); err != nil {
		return err
	}
	if err := s.fs.Delete(ctx, path); err != nil {
		return fmt.Errorf("could not delete %s: %w", path, err)
	}
	return nil
}

// ReadOnly returns the distinct paths of results that are read-only.
func ReadOnly(results []search.FileResult) []string {
	readOnly := []string{}
	for _, path := range Paths(results) {
		if IsReadOnly(path) {
			readOnly = append(readOnly, path)
		}
	}
	return readOnly
}

// IsReadOnly reports whether the owner cannot write path. A file that cannot
// be stat'ed is not read-only.
func IsReadOnly(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().Perm()&ownerWrite == 0
}

func makeWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("could not read %s: %w", path, err)
	}
	if info.Mode().Perm()&ownerWrite != 0 {
		return nil
	}
	if err := os.Chmod(path, info.Mode().Perm()|ownerWrite); err != nil {
		return fmt.Errorf("could not make %s writable: %w", path, err)
	}
	return nil
}
