package index

import (
	"github.com/meghashyamc/findlines/db/searchdb"
	"github.com/meghashyamc/findlines/services/lines"
)

// extractContent builds the document for a file, keyed by its path. Archives
// are opaque, so only their name and path are indexed.
func extractContent(file FileInfo, maxFileSize int64) (searchdb.Document, error) {
	doc := searchdb.Document{
		ID:      file.Path,
		Path:    file.Path,
		Name:    file.Name,
		Size:    file.Size,
		ModTime: file.ModTime,
	}

	if file.IsArchive {
		return doc, nil
	}

	content, err := lines.ReadFile(file.Path, maxFileSize)
	if err != nil {
		return searchdb.Document{}, err
	}
	doc.Content = string(content)

	return doc, nil
}
