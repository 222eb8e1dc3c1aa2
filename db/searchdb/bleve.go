package searchdb

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/meghashyamc/findlines/config"
	"github.com/meghashyamc/findlines/logger"
	"github.com/meghashyamc/findlines/services/lines"
)

const indexingBatchSize = 100

const (
	indexFieldContent = "content"
	indexFieldName    = "name"
	indexFieldPath    = "path"
	indexFieldSize    = "size"
	indexFieldModTime = "mod_time"
)

type BleveDB struct {
	indexPath string
	logger    logger.Logger
	index     bleve.Index
}

func New(logger logger.Logger, cfg *config.Config) (*BleveDB, error) {
	mapping := createIndexMapping()
	indexPath := filepath.Join(cfg.GetStoragePath(), cfg.GetIndexPath())
	index, err := bleve.New(indexPath, mapping)
	if err != nil {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Error("could not open index", "err", err.Error())
			return nil, err
		}
	}
	return &BleveDB{indexPath: indexPath, logger: logger, index: index}, nil
}

func (b *BleveDB) BuildIndex(documents []Document) error {

	batch := b.index.NewBatch()

	for i, doc := range documents {

		err := batch.Index(doc.ID, doc)
		if err != nil {
			b.logger.Error("could not index document", "err", err.Error())
			return err
		}

		// Execute batch when it reaches the batch size
		if (i+1)%indexingBatchSize == 0 {
			err = b.index.Batch(batch)
			if err != nil {
				return err
			}
			batch = b.index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := b.index.Batch(batch); err != nil {
			b.logger.Error("could not index document", "err", err.Error())
			return err
		}
	}

	return nil
}

func createIndexMapping() mapping.IndexMapping {

	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	// Path field - not analyzed (exact match)
	pathFieldMapping := bleve.NewTextFieldMapping()
	pathFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt(indexFieldPath, pathFieldMapping)

	// Name field - analyzed for partial matching
	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt(indexFieldName, nameFieldMapping)

	// Content field - analyzed for full-text search, term vectors give match locations
	contentFieldMapping := bleve.NewTextFieldMapping()
	contentFieldMapping.Analyzer = standard.Name
	contentFieldMapping.Store = false
	contentFieldMapping.Index = true
	contentFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(indexFieldContent, contentFieldMapping)

	sizeFieldMapping := bleve.NewNumericFieldMapping()
	docMapping.AddFieldMappingsAt(indexFieldSize, sizeFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}

func (b *BleveDB) Search(queryString string, limit int, offset int) (*Response, error) {
	start := time.Now()

	searchQuery := b.buildSearchQuery(queryString)

	searchRequest := bleve.NewSearchRequestOptions(searchQuery, limit, offset, false)

	searchRequest.Fields = []string{indexFieldPath, indexFieldName, indexFieldSize, indexFieldModTime}

	searchResult, err := b.index.Search(searchRequest)
	if err != nil {
		b.logger.Error("search failed", "err", err.Error())
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]Result, len(searchResult.Hits))
	for i, hit := range searchResult.Hits {
		result := Result{
			ID:    hit.ID,
			Score: hit.Score,
		}

		if path, ok := hit.Fields[indexFieldPath].(string); ok {
			result.Path = path
		}
		if name, ok := hit.Fields[indexFieldName].(string); ok {
			result.Name = name
		}
		if size, ok := hit.Fields[indexFieldSize].(float64); ok {
			result.Size = int64(size)
		}
		if modTime, ok := hit.Fields[indexFieldModTime].(string); ok {
			result.ModTime = modTime
		}

		results[i] = result
	}

	searchTime := time.Since(start)

	response := &Response{
		Results:    results,
		Total:      searchResult.Total,
		MaxScore:   searchResult.MaxScore,
		SearchTime: searchTime.String(),
	}

	return response, nil
}

func (b *BleveDB) buildSearchQuery(queryString string) query.Query {

	const (
		boostForContent      = 3.0
		boostForFileName     = 2.0
		boostForPath         = 1.0
		boostForPhraseMatch  = 5.0
		boostForPartialMatch = 1.5
	)

	queryString = strings.ToLower(strings.TrimSpace(queryString))

	if queryString == "" {
		return bleve.NewMatchAllQuery()
	}

	disjunctQuery := bleve.NewDisjunctionQuery()

	contentQuery := bleve.NewMatchQuery(queryString)
	contentQuery.SetField(indexFieldContent)
	contentQuery.SetBoost(boostForContent)
	disjunctQuery.AddQuery(contentQuery)

	nameQuery := bleve.NewMatchQuery(queryString)
	nameQuery.SetField(indexFieldName)
	nameQuery.SetBoost(boostForFileName)
	disjunctQuery.AddQuery(nameQuery)

	pathQuery := bleve.NewMatchQuery(queryString)
	pathQuery.SetField(indexFieldPath)
	pathQuery.SetBoost(boostForPath)
	disjunctQuery.AddQuery(pathQuery)

	phrases, _ := parseQuotedQuery(queryString)
	if len(phrases) == 0 {
		phrases = []string{queryString}
	}
	for _, phrase := range phrases {
		phraseQuery := bleve.NewMatchPhraseQuery(phrase)
		phraseQuery.SetField(indexFieldContent)
		phraseQuery.SetBoost(boostForPhraseMatch)
		disjunctQuery.AddQuery(phraseQuery)
	}

	if len(queryString) > 2 {
		prefixQuery := bleve.NewPrefixQuery(queryString)
		prefixQuery.SetField(indexFieldName)
		prefixQuery.SetBoost(boostForPartialMatch)
		disjunctQuery.AddQuery(prefixQuery)

		contentPrefixQuery := bleve.NewPrefixQuery(queryString)
		contentPrefixQuery.SetField(indexFieldContent)
		contentPrefixQuery.SetBoost(boostForPartialMatch)
		disjunctQuery.AddQuery(contentPrefixQuery)
	}

	return disjunctQuery
}

// Locate returns the locations of the terms of queryString inside the
// content of the document indexed for path, as ascending, non-overlapping
// byte ranges. A path that is not indexed, or whose content does not match,
// has no locations. A file changed since it was indexed yields
// ErrStaleDocument.
func (b *BleveDB) Locate(path string, queryString string) ([]lines.Match, error) {
	queryString = strings.ToLower(strings.TrimSpace(queryString))
	if strings.Trim(queryString, `" `) == "" {
		return nil, nil
	}

	locateQuery := bleve.NewConjunctionQuery(
		bleve.NewDocIDQuery([]string{path}),
		buildContentQuery(queryString),
	)

	searchRequest := bleve.NewSearchRequestOptions(locateQuery, 1, 0, false)
	searchRequest.IncludeLocations = true
	searchRequest.Fields = []string{indexFieldSize, indexFieldModTime}

	searchResult, err := b.index.Search(searchRequest)
	if err != nil {
		b.logger.Error("locate failed", "path", path, "err", err.Error())
		return nil, fmt.Errorf("locate failed: %w", err)
	}
	if len(searchResult.Hits) == 0 {
		return nil, nil
	}

	hit := searchResult.Hits[0]
	if isStale(path, hit.Fields) {
		b.logger.Warn("file changed since it was indexed", "path", path)
		return nil, fmt.Errorf("%w: %s", ErrStaleDocument, path)
	}

	return contentMatches(hit.Locations), nil
}

// isStale compares the size and modification time stored for a document with
// the file on disk. A file that cannot be stat'ed, or a document without the
// stored fields, is not considered stale.
func isStale(path string, fields map[string]interface{}) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	if size, ok := fields[indexFieldSize].(float64); ok && int64(size) != info.Size() {
		return true
	}

	storedModTime, ok := fields[indexFieldModTime].(string)
	if !ok {
		return false
	}
	indexedAt, err := time.Parse(time.RFC3339Nano, storedModTime)
	if err != nil {
		return false
	}

	// stored times may have lost sub-second precision
	return info.ModTime().Truncate(time.Second).After(indexedAt.Truncate(time.Second))
}

// buildContentQuery matches each quoted phrase as a phrase and the remaining
// terms individually, all against the content field.
func buildContentQuery(queryString string) query.Query {
	phrases, remaining := parseQuotedQuery(queryString)

	disjunctQuery := bleve.NewDisjunctionQuery()
	for _, phrase := range phrases {
		phraseQuery := bleve.NewMatchPhraseQuery(phrase)
		phraseQuery.SetField(indexFieldContent)
		disjunctQuery.AddQuery(phraseQuery)
	}
	if remaining != "" {
		termQuery := bleve.NewMatchQuery(remaining)
		termQuery.SetField(indexFieldContent)
		disjunctQuery.AddQuery(termQuery)
	}

	return disjunctQuery
}

// parseQuotedQuery splits out the double-quoted phrases of queryString and
// returns them along with the unquoted terms joined by single spaces.
func parseQuotedQuery(queryString string) ([]string, string) {
	var quoted []string
	var remaining []string

	for {
		open := strings.IndexByte(queryString, '"')
		if open < 0 {
			break
		}
		length := strings.IndexByte(queryString[open+1:], '"')
		if length < 0 {
			break
		}

		remaining = append(remaining, queryString[:open])
		if phrase := strings.Join(strings.Fields(queryString[open+1:open+1+length]), " "); phrase != "" {
			quoted = append(quoted, phrase)
		}
		queryString = queryString[open+length+2:]
	}
	remaining = append(remaining, strings.ReplaceAll(queryString, `"`, " "))

	return quoted, strings.Join(strings.Fields(strings.Join(remaining, " ")), " ")
}

func contentMatches(locations search.FieldTermLocationMap) []lines.Match {
	var matches []lines.Match
	for _, termLocations := range locations[indexFieldContent] {
		for _, location := range termLocations {
			if location == nil || location.End <= location.Start {
				continue
			}
			matches = append(matches, lines.Match{
				StartOffset: int(location.Start),
				Length:      int(location.End - location.Start),
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].StartOffset != matches[j].StartOffset {
			return matches[i].StartOffset < matches[j].StartOffset
		}
		return matches[i].Length > matches[j].Length
	})

	// drop locations overlapping an earlier one
	result := matches[:0]
	end := -1
	for _, m := range matches {
		if m.StartOffset < end {
			continue
		}
		result = append(result, m)
		end = m.StartOffset + m.Length
	}

	return result
}

func (b *BleveDB) DeleteDocuments(documentIDs []string) error {
	batch := b.index.NewBatch()

	for i, docID := range documentIDs {
		batch.Delete(docID)

		// Execute batch when it reaches the batch size
		if (i+1)%indexingBatchSize == 0 {
			err := b.index.Batch(batch)
			if err != nil {
				return err
			}
			batch = b.index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := b.index.Batch(batch); err != nil {
			b.logger.Error("could not delete documents", "err", err.Error())
			return err
		}
	}

	return nil
}

func (b *BleveDB) GetDocCount() (uint64, error) {
	return b.index.DocCount()
}

func (b *BleveDB) Close() error {

	if b.index != nil {
		if err := b.index.Close(); err != nil {
			b.logger.Error("could not close search index", "err", err.Error())
			return err
		}
	}
	return nil
}
