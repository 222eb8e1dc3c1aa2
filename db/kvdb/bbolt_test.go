package kvdb

import (
	"path/filepath"
	"testing"

	"github.com/meghashyamc/findlines/config"
	"github.com/meghashyamc/findlines/logger"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T, assert *require.Assertions) *BoltDB {
	t.Setenv("KVDB_PATH", filepath.Join(t.TempDir(), "nested", "test.db"))
	cfg, err := config.Load("test")
	assert.NoError(err)

	db, err := New(logger.New("debug"), cfg)
	assert.NoError(err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestSetGetDelete(t *testing.T) {
	assert := require.New(t)
	db := newTestDB(t, assert)

	assert.NoError(db.Set(RequestsBucket, "id-1", "10"))
	value, err := db.Get(RequestsBucket, "id-1")
	assert.NoError(err)
	assert.Equal("10", value)

	_, err = db.Get(ResultsBucket, "id-1")
	assert.ErrorIs(err, ErrNotFound, "buckets are independent")

	assert.NoError(db.Set(RequestsBucket, "id-1", "100"))
	value, err = db.Get(RequestsBucket, "id-1")
	assert.NoError(err)
	assert.Equal("100", value)

	assert.NoError(db.Delete(RequestsBucket, "id-1"))
	_, err = db.Get(RequestsBucket, "id-1")
	assert.ErrorIs(err, ErrNotFound)
}

func TestInvalidKeysAndBuckets(t *testing.T) {
	assert := require.New(t)
	db := newTestDB(t, assert)

	assert.ErrorIs(db.Set(FilesBucket, "", "x"), ErrInvalidKey)
	_, err := db.Get(FilesBucket, "")
	assert.ErrorIs(err, ErrInvalidKey)
	assert.ErrorIs(db.Delete(FilesBucket, ""), ErrInvalidKey)

	assert.ErrorIs(db.Set("missing", "key", "x"), errBucketNotFound)
	_, err = db.GetAllKeys("missing")
	assert.ErrorIs(err, errBucketNotFound)
}

func TestGetAllKeys(t *testing.T) {
	assert := require.New(t)
	db := newTestDB(t, assert)

	keys, err := db.GetAllKeys(FilesBucket)
	assert.NoError(err)
	assert.Empty(keys)

	for _, key := range []string{"/b", "/a", "/c"} {
		assert.NoError(db.Set(FilesBucket, key, "{}"))
	}
	assert.NoError(db.Set(RequestsBucket, "other", "0"))

	keys, err = db.GetAllKeys(FilesBucket)
	assert.NoError(err)
	assert.Equal([]string{"/a", "/b", "/c"}, keys)
}
