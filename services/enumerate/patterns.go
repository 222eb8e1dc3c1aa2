package enumerate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	shebangMarker = "#!"
	// escaped with a backslash when converting a wildcard; '[' and ']' are
	// kept so character classes still work
	wildcardMetaCharacters = `+()^$.{}|\`
)

// WildcardToRegex converts a wildcard pattern to a lowercase regular
// expression anchored at the end: '*' becomes ".*" and '?' becomes ".".
func WildcardToRegex(wildcard string) string {
	if wildcard == "" {
		return ""
	}

	var sb strings.Builder
	for _, r := range wildcard {
		switch {
		case r == '*':
			sb.WriteString(".*")
		case r == '?':
			sb.WriteByte('.')
		case strings.ContainsRune(wildcardMetaCharacters, r):
			sb.WriteByte('\\')
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('$')

	return strings.ToLower(sb.String())
}

type namePattern struct {
	name *regexp.Regexp
	// matched against the interpreter of a "#!" first line, nil when the
	// pattern does not start with "#!"
	shebang *regexp.Regexp
}

type compiledFilter struct {
	include     []namePattern
	exclude     []namePattern
	excludeDirs []string
}

// Compile reports whether the name patterns and directory globs of a filter
// are well formed.
func Compile(filter FileFilter) error {
	_, err := compile(filter)
	return err
}

func compile(filter FileFilter) (*compiledFilter, error) {
	include, err := compilePatterns(filter.NamePatternToInclude, filter.IsRegex)
	if err != nil {
		return nil, fmt.Errorf("invalid include pattern: %w", err)
	}

	exclude, err := compilePatterns(filter.NamePatternToExclude, filter.IsRegex)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude pattern: %w", err)
	}

	for _, glob := range filter.ExcludeDirs {
		if !doublestar.ValidatePattern(glob) {
			return nil, fmt.Errorf("invalid directory exclusion %q", glob)
		}
	}

	return &compiledFilter{include: include, exclude: exclude, excludeDirs: filter.ExcludeDirs}, nil
}

func compilePatterns(patterns string, isRegex bool) ([]namePattern, error) {
	separators := pathSeparators
	if isRegex {
		separators = ";"
	}

	var compiled []namePattern
	for _, pattern := range splitPatterns(patterns, separators) {
		expression := pattern
		if !isRegex {
			expression = WildcardToRegex(pattern)
		}

		name, err := regexp.Compile("(?i)" + expression)
		if err != nil {
			return nil, err
		}

		compiledPattern := namePattern{name: name}
		if len(expression) > len(shebangMarker) && strings.HasPrefix(expression, shebangMarker) {
			compiledPattern.shebang, err = regexp.Compile("(?i)" + expression[len(shebangMarker):])
			if err != nil {
				return nil, err
			}
		}

		compiled = append(compiled, compiledPattern)
	}

	return compiled, nil
}

func splitPatterns(patterns string, separators string) []string {
	var result []string
	for _, pattern := range strings.FieldsFunc(patterns, func(r rune) bool { return strings.ContainsRune(separators, r) }) {
		if pattern = strings.TrimSpace(pattern); pattern != "" {
			result = append(result, pattern)
		}
	}
	return result
}
