package kvdb

const (
	// FilesBucket maps an indexed file path to its FileMetadata.
	FilesBucket = "files"
	// RequestsBucket maps a request id to its progress.
	RequestsBucket = "requests"
	// ResultsBucket maps a search request id to its JSON results.
	ResultsBucket = "results"
)

var buckets = []string{FilesBucket, RequestsBucket, ResultsBucket}

type DB interface {
	Set(bucket string, key string, value string) error
	Get(bucket string, key string) (string, error)
	Delete(bucket string, key string) error
	GetAllKeys(bucket string) ([]string, error)
	Close() error
}
