package searchdb

import (
	"errors"

	"github.com/meghashyamc/findlines/services/lines"
)

// ErrStaleDocument is returned by Locate when the file changed after it was
// indexed, so the stored locations no longer describe its content.
var ErrStaleDocument = errors.New("indexed document is stale")

type DB interface {
	BuildIndex(documents []Document) error
	DeleteDocuments(documentIDs []string) error
	Search(queryString string, limit int, offset int) (*Response, error)
	Locate(path string, queryString string) ([]lines.Match, error)
	GetDocCount() (uint64, error)
	Close() error
}
