package enumerate

import (
	"strings"
	"time"
)

// DateFilter selects which file timestamp the date bounds apply to.
type DateFilter int

const (
	DateFilterNone DateFilter = iota
	DateFilterCreated
	DateFilterModified
)

var dateFilterNames = map[DateFilter]string{
	DateFilterNone:     "none",
	DateFilterCreated:  "created",
	DateFilterModified: "modified",
}

func (d DateFilter) String() string {
	if name, ok := dateFilterNames[d]; ok {
		return name
	}
	return dateFilterNames[DateFilterNone]
}

// ParseDateFilter returns the DateFilter named by value (case-insensitive),
// or defaultValue when value names none of them.
func ParseDateFilter(value string, defaultValue DateFilter) DateFilter {
	value = strings.ToLower(strings.TrimSpace(value))
	for dateFilter, name := range dateFilterNames {
		if name == value {
			return dateFilter
		}
	}
	return defaultValue
}

// FileFilter describes which files a walk yields. It is not modified by the
// Enumerator.
type FileFilter struct {
	// Path holds one or more roots separated by ';' or ','.
	Path string
	// NamePatternToInclude and NamePatternToExclude are wildcard lists
	// separated by ';' or ',', or regex lists separated by ';' when IsRegex
	// is set. They are matched case-insensitively against the full path.
	NamePatternToInclude string
	NamePatternToExclude string
	IsRegex              bool

	IncludeSubfolders bool
	IncludeHidden     bool
	IncludeBinary     bool
	IncludeArchive    bool

	// Size bounds in KB, 0 means unbounded.
	SizeFrom int
	SizeTo   int

	DateFilter DateFilter
	StartTime  *time.Time // inclusive
	EndTime    *time.Time // exclusive

	// ExcludeDirs are doublestar globs matched against a directory's
	// slash-separated path relative to its root, and against its name.
	ExcludeDirs []string
}
