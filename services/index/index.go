package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/meghashyamc/findlines/db/kvdb"
	"github.com/meghashyamc/findlines/db/searchdb"
	"github.com/meghashyamc/findlines/logger"
	"github.com/meghashyamc/findlines/services/enumerate"
)

// Indexer represents the search database operations needed for index creation
type Indexer interface {
	BuildIndex(documents []searchdb.Document) error
	DeleteDocuments(documentIDs []string) error
}

const (
	ProgressStatusStep1    = 10
	ProgressStatusStep2    = 20
	ProgressStatusComplete = 100
	ProgressStatusFailed   = -1

	indexingBatchSize              = 100
	maxGoRoutinesForFileProcessing = 50
	maxIndexBuildingTime           = 2 * time.Hour
)

var ErrIndexingInProgress = errors.New("indexing already in progress")

type Service struct {
	logger        logger.Logger
	indexer       Indexer
	metadataStore MetadataStore
	enumerator    *enumerate.Enumerator
	maxFileSize   int64
	building      atomic.Bool
	buildIndexC   chan indexRequest
	done          chan struct{}
}

type indexRequest struct {
	filter    enumerate.FileFilter
	requestID string
}

// New starts the index worker, which runs until ctx is done.
func New(ctx context.Context, logger logger.Logger, indexer Indexer, metadataStore MetadataStore, enumerator *enumerate.Enumerator, maxFileSize int64) *Service {
	indexService := &Service{
		logger:        logger,
		indexer:       indexer,
		metadataStore: metadataStore,
		enumerator:    enumerator,
		maxFileSize:   maxFileSize,
		buildIndexC:   make(chan indexRequest, 1),
		done:          make(chan struct{}),
	}

	go indexService.build(ctx)
	return indexService
}

// Build indexes the candidates of filter, or incrementally updates the index
// if it already exists. Only one build runs at a time.
func (s *Service) Build(filter enumerate.FileFilter, requestID string) error {
	if !s.building.CompareAndSwap(false, true) {
		s.logger.Warn("request to index while indexing is already in progress", "request_id", requestID)
		return ErrIndexingInProgress
	}

	s.setRequestStatus(requestID, 0)
	s.buildIndexC <- indexRequest{filter: filter, requestID: requestID}

	return nil
}

// GetStatus retrieves the progress status for index creation
func (s *Service) GetStatus(requestID string) (int, error) {
	value, err := s.metadataStore.Get(kvdb.RequestsBucket, requestID)
	if err != nil {
		return 0, fmt.Errorf("request not found: %w", err)
	}

	status, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid status value: %w", err)
	}

	return status, nil
}

// Done is closed once the index worker has stopped.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

func (s *Service) build(ctx context.Context) {
	defer close(s.done)

	for {
		select {
		case req := <-s.buildIndexC:
			indexTimeoutCtx, cancel := context.WithTimeout(ctx, maxIndexBuildingTime)
			status := s.buildIndex(indexTimeoutCtx, req.filter, req.requestID)
			cancel()
			// a client seeing the final status may start the next build
			s.building.Store(false)
			s.setRequestStatus(req.requestID, status)
		case <-ctx.Done():
			s.logger.Info("index service stopped", "reason", ctx.Err())
			return
		}
	}
}

// buildIndex returns the final status of the request.
func (s *Service) buildIndex(ctx context.Context, filter enumerate.FileFilter, requestID string) int {
	files, err := s.getFilesToIndex(ctx, filter)
	if err != nil {
		s.logger.Error("failed to create index", "request_id", requestID, "err", err.Error())
		return ProgressStatusFailed
	}

	s.setRequestStatus(requestID, ProgressStatusStep1)

	// Identify and remove deleted files before indexing new/modified files
	deletedFiles, err := s.getDeletedFiles()
	if err != nil {
		s.logger.Error("failed to create index", "request_id", requestID, "err", err.Error())
		return ProgressStatusFailed
	}

	if err := s.removeDeletedFiles(deletedFiles); err != nil {
		s.logger.Error("failed to create index", "request_id", requestID, "err", err.Error())
		return ProgressStatusFailed
	}

	s.setRequestStatus(requestID, ProgressStatusStep2)

	return s.doBuildIndex(ctx, files, requestID)
}

func (s *Service) removeDeletedFiles(deletedFiles []string) error {
	if len(deletedFiles) == 0 {
		return nil
	}
	s.logger.Info("removing deleted files from index", "deleted_files", len(deletedFiles))
	if err := s.indexer.DeleteDocuments(deletedFiles); err != nil {
		s.logger.Error("failed to delete documents from search index", "err", err.Error())
		return fmt.Errorf("failed to delete documents from search index: %w", err)
	}

	// Remove metadata for deleted files
	for _, filePath := range deletedFiles {
		if err := s.metadataStore.Delete(kvdb.FilesBucket, filePath); err != nil {
			s.logger.Error("failed to delete file metadata", "path", filePath, "err", err.Error())
		}
	}
	return nil
}

func (s *Service) doBuildIndex(ctx context.Context, files []FileInfo, requestID string) int {
	s.logger.Info("building index of files...")
	indexTime := time.Now().UTC()

	if len(files) == 0 {
		s.logger.Info("no files to index")
		return ProgressStatusComplete
	}

	numGoroutines := min(maxGoRoutinesForFileProcessing, len(files))
	filesPerGoroutine := len(files) / numGoroutines

	// Channel to collect processed files for metadata updates
	processedFilesChan := make(chan []FileInfo, numGoroutines)
	var indexWG sync.WaitGroup

	s.logger.Info("starting parallel indexing", "goroutines", numGoroutines, "files_per_goroutine", filesPerGoroutine)

	for i := range numGoroutines {
		start := i * filesPerGoroutine
		end := start + filesPerGoroutine

		// The last goroutine takes the remaining files
		if i == numGoroutines-1 {
			end = len(files)
		}

		indexWG.Add(1)
		go s.doBuildIndexForFilesPortion(ctx, files[start:end], i, processedFilesChan, &indexWG)
	}

	go func() {
		indexWG.Wait()
		close(processedFilesChan)
	}()

	// Recording metadata keeps later requests from reindexing unchanged files.
	s.updateMetadata(indexTime, requestID, len(files), processedFilesChan)

	if ctx.Err() != nil {
		s.logger.Error("indexing cancelled", "request_id", requestID, "err", ctx.Err())
		return ProgressStatusFailed
	}

	return ProgressStatusComplete
}

func (s *Service) updateMetadata(indexTime time.Time, requestID string, totalFilesCount int, processedFilesChan chan []FileInfo) {
	s.logger.Info("updating file metadata...")
	updatedCount := 0
	lastReported := 0

	for processedFiles := range processedFilesChan {
		for _, file := range processedFiles {
			metadata := kvdb.FileMetadata{
				LastIndexed: indexTime,
			}
			if err := s.setFileMetadata(file.Path, metadata); err == nil {
				updatedCount++
			}
		}

		if updatedCount-lastReported >= 1000 {
			lastReported = updatedCount
			s.logger.Info("updated metadata for files", "count", fmt.Sprintf("%d/%d", updatedCount, totalFilesCount))
			// stays below complete until every batch is in
			status := min(getProgressPercentage(updatedCount, totalFilesCount, ProgressStatusStep2, ProgressStatusComplete), ProgressStatusComplete-1)
			s.setRequestStatus(requestID, status)
		}
	}

	s.logger.Info("finished updating metadata", "count", fmt.Sprintf("%d/%d", updatedCount, totalFilesCount))
}

func (s *Service) getFilesToIndex(ctx context.Context, filter enumerate.FileFilter) ([]FileInfo, error) {

	s.logger.Info("performing incremental indexing")
	files, err := s.discoverModifiedFiles(ctx, filter)
	if err != nil {
		return nil, err
	}
	s.logger.Info("discovered modified files", slog.Int("num_of_files", len(files)))

	return files, nil
}

func (s *Service) setFileMetadata(filepath string, metadata kvdb.FileMetadata) error {
	if filepath == "" {
		s.logger.Error("filepath cannot be empty", "filepath", filepath)
		return fmt.Errorf("filepath cannot be empty")
	}

	data, err := json.Marshal(metadata)
	if err != nil {
		s.logger.Error("failed to marshal metadata", "filepath", filepath, "err", err.Error())
		return fmt.Errorf("failed to marshal metadata for %s: %w", filepath, err)
	}

	if err := s.metadataStore.Set(kvdb.FilesBucket, filepath, string(data)); err != nil {
		s.logger.Error("failed to set file metadata", "filepath", filepath, "err", err.Error())
		return err
	}

	return nil
}

func (s *Service) getFileMetadata(filepath string) (*kvdb.FileMetadata, error) {

	value, err := s.metadataStore.Get(kvdb.FilesBucket, filepath)
	if err != nil {
		return nil, err
	}

	var metadata kvdb.FileMetadata
	if err := json.Unmarshal([]byte(value), &metadata); err != nil {
		s.logger.Error("failed to unmarshal metadata", "filepath", filepath, "err", err.Error())
		return nil, fmt.Errorf("failed to unmarshal metadata for %s: %w", filepath, err)
	}

	return &metadata, nil
}

func (s *Service) getDeletedFiles() ([]string, error) {
	allKeys, err := s.metadataStore.GetAllKeys(kvdb.FilesBucket)
	if err != nil {
		s.logger.Error("failed to get all keys from database", "err", err.Error())
		return nil, fmt.Errorf("failed to get all keys from database: %w", err)
	}

	var deletedFiles []string
	for _, key := range allKeys {
		if _, err := os.Stat(key); os.IsNotExist(err) {
			deletedFiles = append(deletedFiles, key)
		}
	}

	return deletedFiles, nil
}

func (s *Service) setRequestStatus(requestID string, status int) {
	if err := s.metadataStore.Set(kvdb.RequestsBucket, requestID, strconv.Itoa(status)); err != nil {
		s.logger.Error("failed to update request status", "request_id", requestID, "progress", status, "err", err.Error())
	}
}

func (s *Service) doBuildIndexForFilesPortion(ctx context.Context, filesPortion []FileInfo, goroutineID int, processedFilesChan chan []FileInfo, wg *sync.WaitGroup) {
	defer wg.Done()
	numOfFiles := len(filesPortion)
	totalProcessedFilesCount := 0

	for i := 0; i < numOfFiles; i += indexingBatchSize {
		select {
		case <-ctx.Done():
			s.logger.Info("goroutine cancelled", "goroutine_id", goroutineID, "reason", ctx.Err())
			return
		default:
		}

		processedFiles := s.doBuildIndexForSingleBatchOfFiles(filesPortion[i:min(i+indexingBatchSize, numOfFiles)], goroutineID)
		totalProcessedFilesCount += len(processedFiles)
		processedFilesChan <- processedFiles

		s.logger.Debug(fmt.Sprintf("goroutine %d processed %d/%d files", goroutineID, totalProcessedFilesCount, numOfFiles))
	}
	s.logger.Debug("completed indexing for goroutine", "goroutine_id", goroutineID, "num_of_files_received", numOfFiles)
}

func (s *Service) doBuildIndexForSingleBatchOfFiles(filesInBatch []FileInfo, goroutineID int) []FileInfo {

	var documents []searchdb.Document
	var processedFiles []FileInfo

	for _, file := range filesInBatch {
		doc, err := extractContent(file, s.maxFileSize)
		if err != nil {
			s.logger.Error("error processing file", "path", file.Path, "err", err.Error(), "go_routine_id", goroutineID)
			continue
		}
		documents = append(documents, doc)
		processedFiles = append(processedFiles, file)
	}

	if err := s.indexer.BuildIndex(documents); err != nil {
		s.logger.Error("failed to build index for goroutine", "goroutine_id", goroutineID, "err", err.Error())
		return make([]FileInfo, 0)
	}

	return processedFiles
}

func getProgressPercentage(done int, total int, initial int, final int) int {
	if done == 0 || total == 0 {
		return initial
	}

	if done >= total {
		return final
	}

	// Calculate the percentage between initial and final
	progress := float64(done) / float64(total)
	result := float64(initial) + progress*float64(final-initial)

	return int(result)
}
