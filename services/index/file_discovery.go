package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/meghashyamc/findlines/db/kvdb"
	"github.com/meghashyamc/findlines/services/enumerate"
)

type FileInfo struct {
	Path      string
	Name      string
	Size      int64
	ModTime   time.Time
	IsArchive bool
}

// discoverModifiedFiles returns the candidates of filter that were never
// indexed or changed since they were last indexed.
func (s *Service) discoverModifiedFiles(ctx context.Context, filter enumerate.FileFilter) ([]FileInfo, error) {
	var modifiedFiles []FileInfo

	for path := range s.enumerator.Enumerate(ctx, filter) {
		info, err := os.Stat(path)
		if err != nil {
			s.logger.Warn("could not stat candidate file, skipping", "path", path, "err", err.Error())
			continue
		}

		fileModTime := info.ModTime()
		if !s.shouldFileBeIndexed(path, fileModTime) {
			continue
		}

		modifiedFiles = append(modifiedFiles, FileInfo{
			Path:      path,
			Name:      filepath.Base(path),
			Size:      info.Size(),
			ModTime:   fileModTime,
			IsArchive: s.enumerator.Archives().IsArchive(path),
		})
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return modifiedFiles, nil
}

func (s *Service) shouldFileBeIndexed(path string, fileModTime time.Time) bool {

	// Check if this file was indexed before
	metadata, err := s.getFileMetadata(path)
	if err != nil {
		var notFoundErr *kvdb.NotFoundError
		var invalidKeyErr *kvdb.InvalidKeyError

		switch {
		// File not found in database, should be indexed
		case errors.As(err, &notFoundErr):
			return true
		case errors.As(err, &invalidKeyErr):
			s.logger.Error("invalid key for file path", "key", path, "err", err.Error())
			return true
		default:
			s.logger.Error("failed to get metadata", "path", path, "err", err.Error())
			return true
		}
	}

	// File was indexed before, check if it was modified since
	return fileModTime.After(metadata.LastIndexed)
}
