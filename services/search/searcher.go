package search

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"sync/atomic"

	"github.com/meghashyamc/findlines/logger"
	"github.com/meghashyamc/findlines/services/enumerate"
	"github.com/meghashyamc/findlines/services/lines"
	"github.com/meghashyamc/findlines/services/match"
	"golang.org/x/sync/errgroup"
)

// Searcher runs synchronous searches: enumerate, read, match, assemble and
// clean, over a bounded number of files at a time.
type Searcher struct {
	logger      logger.Logger
	enumerator  *enumerate.Enumerator
	locator     match.Locator
	maxWorkers  int
	maxFileSize int64
}

// NewSearcher returns a Searcher. locator backs index searches and may be nil.
func NewSearcher(logger logger.Logger, enumerator *enumerate.Enumerator, locator match.Locator, maxWorkers int, maxFileSize int64) *Searcher {
	return &Searcher{
		logger:      logger,
		enumerator:  enumerator,
		locator:     locator,
		maxWorkers:  max(1, maxWorkers),
		maxFileSize: maxFileSize,
	}
}

type fileTask struct {
	path   string
	result *FileResult
}

// Run returns the results of the files with at least one match, in
// enumeration order. Files that cannot be read or matched are logged and
// skipped.
func (s *Searcher) Run(ctx context.Context, request Request) ([]FileResult, error) {
	matcher, err := match.New(match.Options{
		SearchType:    request.SearchType,
		Pattern:       request.Pattern,
		CaseSensitive: request.CaseSensitive,
	}, s.locator)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxWorkers)

	var tasks []*fileTask
	var searched atomic.Int64
	for path := range s.enumerator.Enumerate(gctx, request.Filter) {
		task := &fileTask{path: path}
		tasks = append(tasks, task)

		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			task.result = s.searchFile(matcher, task.path, request.LinesBefore, request.LinesAfter)
			searched.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]FileResult, 0, len(tasks))
	for _, task := range tasks {
		if task.result != nil {
			results = append(results, *task.result)
		}
	}

	s.logger.Info("search finished", "searched_files", searched.Load(), "matched_files", len(results))
	return results, nil
}

func (s *Searcher) searchFile(matcher match.Matcher, path string, linesBefore int, linesAfter int) *FileResult {
	body, err := lines.ReadFile(path, s.maxFileSize)
	if err != nil {
		s.logger.Warn("could not read file, skipping", "path", path, "err", err.Error())
		return nil
	}

	matches, err := matcher.Find(path, body)
	if err != nil {
		s.logger.Warn("could not match file, skipping", "path", path, "err", err.Error())
		return nil
	}
	if len(matches) == 0 {
		return nil
	}

	records, err := lines.Assemble(bytes.NewReader(body), matches, linesBefore, linesAfter)
	if err != nil {
		s.logger.Warn("could not assemble lines, skipping", "path", path, "err", err.Error())
		return nil
	}

	records = lines.Clean(records)
	if lines.MatchCount(records) == 0 {
		return nil
	}

	return &FileResult{Path: path, Lines: records, Matches: len(matches)}
}

// WithContext re-reads the files of results and replaces their context lines
// with linesBefore/linesAfter lines around the stored matches. A file that no
// longer exists keeps its stored lines and is flagged as missing.
func (s *Searcher) WithContext(ctx context.Context, results []FileResult, linesBefore int, linesAfter int) ([]FileResult, error) {
	withContext := make([]FileResult, 0, len(results))
	for _, result := range results {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		withContext = append(withContext, s.fileWithContext(result, linesBefore, linesAfter))
	}
	return withContext, nil
}

func (s *Searcher) fileWithContext(result FileResult, linesBefore int, linesAfter int) FileResult {
	body, err := lines.ReadFile(result.Path, s.maxFileSize)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			result.FileMissing = true
		} else {
			s.logger.Warn("could not read file for context", "path", result.Path, "err", err.Error())
		}
		return result
	}

	genuine := make([]lines.LineRecord, 0, len(result.Lines))
	for _, record := range result.Lines {
		if !record.IsContext {
			genuine = append(genuine, record)
		}
	}

	contextLines, err := lines.ContextFor(body, genuine, linesBefore, linesAfter)
	if err != nil {
		s.logger.Warn("could not assemble context lines", "path", result.Path, "err", err.Error())
		return result
	}

	result.Lines = lines.Merge(genuine, contextLines)
	result.FileMissing = false
	return result
}

// Snippets returns the blocks of consecutive lines of one result, with
// linesBefore/linesAfter context lines.
func (s *Searcher) Snippets(ctx context.Context, result FileResult, linesBefore int, linesAfter int) ([]lines.Snippet, error) {
	withContext, err := s.WithContext(ctx, []FileResult{result}, linesBefore, linesAfter)
	if err != nil {
		return nil, err
	}
	return lines.Snippetize(withContext[0].Lines), nil
}
