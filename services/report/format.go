package report

import "strings"

type Format int

const (
	FormatCSV Format = iota
	FormatText
	FormatReport
)

var formatNames = map[Format]string{
	FormatCSV:    "csv",
	FormatText:   "text",
	FormatReport: "report",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// ContentType is the media type of a rendered report.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

// ParseFormat returns the Format named by value, ignoring case and
// surrounding space, or def when value names none.
func ParseFormat(value string, def Format) Format {
	value = strings.ToLower(strings.TrimSpace(value))
	for format, name := range formatNames {
		if name == value {
			return format
		}
	}
	return def
}

// IsFormat reports whether value names a Format.
func IsFormat(value string) bool {
	return ParseFormat(value, -1) != -1
}
