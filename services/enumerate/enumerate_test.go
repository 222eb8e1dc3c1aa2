package enumerate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/meghashyamc/findlines/logger"
	"github.com/stretchr/testify/require"
)

var testTree = map[string][]byte{
	"a.txt":                    []byte("hello from a\n"),
	"b.go":                     []byte("package b\n"),
	".hidden.txt":              []byte("hidden\n"),
	"bin.txt":                  {'b', 'i', 0, 0, 'n'},
	"big.txt":                  []byte(strings.Repeat("x", 3000)),
	"archive.zip":              {'P', 'K', 0, 0, 3, 4},
	"script":                   []byte("#!/usr/bin/python3\nprint('hi')\n"),
	"sub/c.txt":                []byte("hello from c\n"),
	".hiddendir/d.txt":         []byte("hello from d\n"),
	".hiddendir/visible/x.txt": []byte("hello from x\n"),
	"vendor/e.txt":             []byte("hello from e\n"),
	"vendor/deep/f.txt":        []byte("hello from f\n"),
}

func writeTestTree(t *testing.T, assert *require.Assertions) string {
	root := t.TempDir()
	for relPath, content := range testTree {
		fullPath := filepath.Join(root, relPath)
		assert.NoError(os.MkdirAll(filepath.Dir(fullPath), 0755), "could not create test sub-directory")
		assert.NoError(os.WriteFile(fullPath, content, 0644), "could not write test file")
	}
	return root
}

func newTestEnumerator() *Enumerator {
	return New(logger.New("debug"), NewArchiveRegistry([]string{"zip"}))
}

func collect(e *Enumerator, filter FileFilter) []string {
	var paths []string
	for path := range e.Enumerate(context.Background(), filter) {
		paths = append(paths, path)
	}
	return paths
}

func TestEnumerate(t *testing.T) {
	assert := require.New(t)
	root := writeTestTree(t, assert)
	past := time.Now().Add(-time.Hour)

	testCases := []struct {
		name     string
		filter   FileFilter
		expected []string
	}{
		{
			name:     "TextFilesRecursive",
			filter:   FileFilter{NamePatternToInclude: "*.txt", IncludeSubfolders: true},
			expected: []string{"a.txt", "big.txt", "sub/c.txt", "vendor/e.txt", "vendor/deep/f.txt", ".hiddendir/visible/x.txt"},
		},
		{
			name:     "TopLevelOnly",
			filter:   FileFilter{NamePatternToInclude: "*.txt"},
			expected: []string{"a.txt", "big.txt"},
		},
		{
			name:     "IncludeHidden",
			filter:   FileFilter{NamePatternToInclude: "*.txt", IncludeSubfolders: true, IncludeHidden: true},
			expected: []string{"a.txt", "big.txt", ".hidden.txt", ".hiddendir/d.txt", ".hiddendir/visible/x.txt", "sub/c.txt", "vendor/e.txt", "vendor/deep/f.txt"},
		},
		{
			name:     "IncludeBinary",
			filter:   FileFilter{NamePatternToInclude: "*.txt", IncludeBinary: true},
			expected: []string{"a.txt", "big.txt", "bin.txt"},
		},
		{
			name:     "ArchivesIncludedRegardlessOfName",
			filter:   FileFilter{NamePatternToInclude: "*.txt", IncludeArchive: true},
			expected: []string{"a.txt", "archive.zip", "big.txt"},
		},
		{
			name:     "ArchivesSkippedByDefault",
			filter:   FileFilter{NamePatternToInclude: "*.zip", IncludeBinary: true},
			expected: nil,
		},
		{
			name:     "ExcludePattern",
			filter:   FileFilter{NamePatternToInclude: "*.txt", NamePatternToExclude: "big*"},
			expected: []string{"a.txt"},
		},
		{
			name:     "MultipleIncludePatterns",
			filter:   FileFilter{NamePatternToInclude: "*.go; a.*"},
			expected: []string{"a.txt", "b.go"},
		},
		{
			name:     "RegexPatterns",
			filter:   FileFilter{NamePatternToInclude: `(a|c)\.txt$;\.GO$`, IsRegex: true, IncludeSubfolders: true},
			expected: []string{"a.txt", "b.go", "sub/c.txt"},
		},
		{
			name:     "SizeFrom",
			filter:   FileFilter{NamePatternToInclude: "*", SizeFrom: 2},
			expected: []string{"big.txt"},
		},
		{
			name:     "SizeTo",
			filter:   FileFilter{NamePatternToInclude: "*.txt", SizeTo: 2},
			expected: []string{"a.txt"},
		},
		{
			name:     "ShebangInclude",
			filter:   FileFilter{NamePatternToInclude: "#!*python*"},
			expected: []string{"script"},
		},
		{
			name:     "ShebangExclude",
			filter:   FileFilter{NamePatternToInclude: "*", NamePatternToExclude: "#!*python*;*.txt"},
			expected: []string{"b.go"},
		},
		{
			name:     "ExcludeDirs",
			filter:   FileFilter{NamePatternToInclude: "*.txt", IncludeSubfolders: true, ExcludeDirs: []string{"vendor"}},
			expected: []string{"a.txt", "big.txt", "sub/c.txt", ".hiddendir/visible/x.txt"},
		},
		{
			name:     "ExcludedHiddenDirPrunesChildren",
			filter:   FileFilter{NamePatternToInclude: "*.txt", IncludeSubfolders: true, ExcludeDirs: []string{".hiddendir"}},
			expected: []string{"a.txt", "big.txt", "sub/c.txt", "vendor/e.txt", "vendor/deep/f.txt"},
		},
		{
			name:     "ExcludeNestedDirs",
			filter:   FileFilter{NamePatternToInclude: "*.txt", IncludeSubfolders: true, ExcludeDirs: []string{"vendor/**/deep"}},
			expected: []string{"a.txt", "big.txt", "sub/c.txt", "vendor/e.txt", ".hiddendir/visible/x.txt"},
		},
		{
			name:     "ModifiedAfterStart",
			filter:   FileFilter{NamePatternToInclude: "*.go", DateFilter: DateFilterModified, StartTime: &past},
			expected: []string{"b.go"},
		},
		{
			name:     "ModifiedBeforeEnd",
			filter:   FileFilter{NamePatternToInclude: "*.go", DateFilter: DateFilterModified, EndTime: &past},
			expected: nil,
		},
		{
			name:     "CreatedBeforeEnd",
			filter:   FileFilter{NamePatternToInclude: "*.go", DateFilter: DateFilterCreated, EndTime: &past},
			expected: nil,
		},
		{
			name:     "EmptyIncludePattern",
			filter:   FileFilter{NamePatternToInclude: "  ", IncludeSubfolders: true},
			expected: nil,
		},
		{
			name:     "InvalidRegex",
			filter:   FileFilter{NamePatternToInclude: "(", IsRegex: true},
			expected: nil,
		},
	}

	e := newTestEnumerator()
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			filter := testCase.filter
			filter.Path = root

			var expected []string
			for _, relPath := range testCase.expected {
				expected = append(expected, filepath.Join(root, filepath.FromSlash(relPath)))
			}

			assert.ElementsMatch(expected, collect(e, filter))
		})
	}
}

func TestEnumerateRoots(t *testing.T) {
	assert := require.New(t)
	root := writeTestTree(t, assert)
	e := newTestEnumerator()

	filePath := filepath.Join(root, "b.go")
	paths := collect(e, FileFilter{Path: filePath + ";" + filePath, NamePatternToInclude: "*.txt"})
	assert.Equal([]string{filePath}, paths, "a file root is yielded once without filtering")

	paths = collect(e, FileFilter{Path: root + ";" + root + "," + filepath.Join(root, "a.txt"), NamePatternToInclude: "*.txt", IncludeSubfolders: true})
	seen := make(map[string]struct{})
	for _, path := range paths {
		_, ok := seen[path]
		assert.False(ok, "path %s yielded twice", path)
		seen[path] = struct{}{}
	}
	assert.Len(paths, 6)

	paths = collect(e, FileFilter{Path: filepath.Join(root, "missing") + ";" + filepath.Join(root, "sub"), NamePatternToInclude: "*"})
	assert.Equal([]string{filepath.Join(root, "sub", "c.txt")}, paths)

	hiddenRoot := filepath.Join(root, ".hiddendir")
	paths = collect(e, FileFilter{Path: hiddenRoot, NamePatternToInclude: "*.txt", IncludeSubfolders: true})
	assert.ElementsMatch([]string{filepath.Join(hiddenRoot, "d.txt"), filepath.Join(hiddenRoot, "visible", "x.txt")}, paths, "a hidden root is searched")
}

func TestEnumerateIsLazy(t *testing.T) {
	assert := require.New(t)
	root := writeTestTree(t, assert)
	e := newTestEnumerator()
	filter := FileFilter{Path: root, NamePatternToInclude: "*.txt", IncludeSubfolders: true}

	count := 0
	for range e.Enumerate(context.Background(), filter) {
		count++
		break
	}
	assert.Equal(1, count)

	assert.Len(e.List(context.Background(), filter, 2), 2)
	assert.Len(e.List(context.Background(), filter, 0), 6)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(e.List(ctx, filter, 0))
}

func TestEnumerateSkipsUnlistableDirectories(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	assert := require.New(t)
	root := writeTestTree(t, assert)
	locked := filepath.Join(root, "sub")
	assert.NoError(os.Chmod(locked, 0))
	defer os.Chmod(locked, 0755)

	paths := newTestEnumerator().List(context.Background(), FileFilter{Path: root, NamePatternToInclude: "*.txt", IncludeSubfolders: true}, 0)
	assert.NotContains(paths, filepath.Join(locked, "c.txt"))
	assert.Contains(paths, filepath.Join(root, "a.txt"))
}

func TestEnumerateFilterBounds(t *testing.T) {
	assert := require.New(t)
	root := t.TempDir()
	start := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	// sizes in KB truncate: 999 bytes is 0 KB, 1000 and 1999 bytes are 1 KB
	fixtures := []struct {
		name    string
		size    int
		modTime time.Time
	}{
		{name: "k0.txt", size: 999, modTime: start.Add(-time.Second)},
		{name: "k1low.txt", size: 1000, modTime: start},
		{name: "k1high.txt", size: 1999, modTime: end.Add(-time.Second)},
		{name: "k2.txt", size: 2000, modTime: end},
	}
	for _, fixture := range fixtures {
		path := filepath.Join(root, fixture.name)
		assert.NoError(os.WriteFile(path, []byte(strings.Repeat("x", fixture.size)), 0644))
		assert.NoError(os.Chtimes(path, fixture.modTime, fixture.modTime))
	}

	testCases := []struct {
		name     string
		filter   FileFilter
		expected []string
	}{
		{
			name:     "SizeFromOneKeepsThousandBytes",
			filter:   FileFilter{SizeFrom: 1},
			expected: []string{"k1low.txt", "k1high.txt", "k2.txt"},
		},
		{
			name:     "SizeFromTwoDropsTruncatedKB",
			filter:   FileFilter{SizeFrom: 2},
			expected: []string{"k2.txt"},
		},
		{
			name:     "SizeToOneKeepsTruncatedKB",
			filter:   FileFilter{SizeTo: 1},
			expected: []string{"k0.txt", "k1low.txt", "k1high.txt"},
		},
		{
			name:     "SizeRange",
			filter:   FileFilter{SizeFrom: 1, SizeTo: 1},
			expected: []string{"k1low.txt", "k1high.txt"},
		},
		{
			name:     "StartIsInclusive",
			filter:   FileFilter{DateFilter: DateFilterModified, StartTime: &start},
			expected: []string{"k1low.txt", "k1high.txt", "k2.txt"},
		},
		{
			name:     "EndIsExclusive",
			filter:   FileFilter{DateFilter: DateFilterModified, EndTime: &end},
			expected: []string{"k0.txt", "k1low.txt", "k1high.txt"},
		},
		{
			name:     "StartAndEnd",
			filter:   FileFilter{DateFilter: DateFilterModified, StartTime: &start, EndTime: &end},
			expected: []string{"k1low.txt", "k1high.txt"},
		},
		{
			name:     "DatesIgnoredWithoutDateFilter",
			filter:   FileFilter{StartTime: &end, EndTime: &start},
			expected: []string{"k0.txt", "k1low.txt", "k1high.txt", "k2.txt"},
		},
	}

	e := newTestEnumerator()
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			filter := testCase.filter
			filter.Path = root
			filter.NamePatternToInclude = "*.txt"

			var expected []string
			for _, name := range testCase.expected {
				expected = append(expected, filepath.Join(root, name))
			}

			assert.ElementsMatch(expected, collect(e, filter))
		})
	}
}
