package report

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/meghashyamc/findlines/services/enumerate"
	"github.com/meghashyamc/findlines/services/search"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	title            = "findlines Search Results"
	lineNumberWidth  = 6
	fileDivider      = "--------------------------------------------------------------------------------"
	fileNotFoundText = "[File not found: has it been deleted or moved?]"
)

// Render writes results to w in the given format. options is only used by
// FormatReport.
func Render(w io.Writer, format Format, results []search.FileResult, options string) error {
	switch format {
	case FormatCSV:
		return CSV(w, results)
	case FormatText:
		return Text(w, results)
	case FormatReport:
		return Report(w, results, options)
	default:
		return fmt.Errorf("unsupported report format %d", format)
	}
}

// CSV writes one row per genuine line. A file without lines is written as a
// row holding only its path.
func CSV(w io.Writer, results []search.FileResult) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"File Name", "Line Number", "String"}); err != nil {
		return err
	}

	for _, result := range results {
		if len(result.Lines) == 0 {
			if err := writer.Write([]string{result.Path}); err != nil {
				return err
			}
			continue
		}

		for _, line := range result.Lines {
			if line.IsContext {
				continue
			}
			if err := writer.Write([]string{result.Path, strconv.Itoa(line.LineNumber), line.Text}); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

// Text writes the text of every genuine line, one per line.
func Text(w io.Writer, results []search.FileResult) error {
	buffered := bufio.NewWriter(w)
	for _, result := range results {
		for _, line := range result.Lines {
			if !line.IsContext {
				buffered.WriteString(line.Text)
				buffered.WriteByte('\n')
			}
		}
	}
	return buffered.Flush()
}

// Report writes a human-readable report: a summary of the match counts,
// then every file with its lines, a blank line marking each gap in line
// numbers.
func Report(w io.Writer, results []search.FileResult, options string) error {
	printer := message.NewPrinter(language.English)
	buffered := bufio.NewWriter(w)

	matchCount, lineCount := 0, 0
	files := make(map[string]struct{}, len(results))
	for _, result := range results {
		matchCount += result.MatchCount()
		lineCount += result.MatchedLineCount()
		if strings.TrimSpace(result.Path) != "" {
			files[result.Path] = struct{}{}
		}
	}

	fmt.Fprintf(buffered, "%s\n\n", title)
	if options != "" {
		fmt.Fprintf(buffered, "%s\n", strings.TrimRight(options, "\n"))
	}
	printer.Fprintf(buffered, "Found %d matches on %d lines in %d files\n\n", matchCount, lineCount, len(files))

	for _, result := range results {
		writeFile(buffered, result)
	}

	return buffered.Flush()
}

func writeFile(w *bufio.Writer, result search.FileResult) {
	fmt.Fprintf(w, "%s\nhas %d matches on %d lines:\n", result.Path, result.MatchCount(), result.MatchedLineCount())

	if result.FileMissing || len(result.Lines) == 0 {
		fmt.Fprintf(w, "%s\n", fileNotFoundText)
	} else {
		previous := -1
		for _, line := range result.Lines {
			if line.LineNumber != previous+1 {
				w.WriteByte('\n')
			}
			fmt.Fprintf(w, "%*d:  %s\n", lineNumberWidth, line.LineNumber, line.Text)
			previous = line.LineNumber
		}
	}

	fmt.Fprintf(w, "%s\n\n", fileDivider)
}

// OptionsSummary describes the options of a search request for the report
// header.
func OptionsSummary(request search.Request) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Search for: %s\n", request.Pattern)
	fmt.Fprintf(&sb, "Search type: %s", request.SearchType)
	if request.CaseSensitive {
		sb.WriteString(", case sensitive")
	}
	sb.WriteByte('\n')

	filter := request.Filter
	fmt.Fprintf(&sb, "Search in: %s\n", filter.Path)
	fmt.Fprintf(&sb, "Paths that match: %s\n", filter.NamePatternToInclude)
	if filter.NamePatternToExclude != "" {
		fmt.Fprintf(&sb, "Paths to ignore: %s\n", filter.NamePatternToExclude)
	}
	if len(filter.ExcludeDirs) > 0 {
		fmt.Fprintf(&sb, "Directories to ignore: %s\n", strings.Join(filter.ExcludeDirs, ", "))
	}

	var flags []string
	if filter.IncludeSubfolders {
		flags = append(flags, "subfolders")
	}
	if filter.IncludeHidden {
		flags = append(flags, "hidden")
	}
	if filter.IncludeBinary {
		flags = append(flags, "binary")
	}
	if filter.IncludeArchive {
		flags = append(flags, "archives")
	}
	if len(flags) > 0 {
		fmt.Fprintf(&sb, "Include: %s\n", strings.Join(flags, ", "))
	}

	if filter.SizeFrom > 0 || filter.SizeTo > 0 {
		fmt.Fprintf(&sb, "Size (KB): %d to %d\n", filter.SizeFrom, filter.SizeTo)
	}
	if filter.DateFilter != enumerate.DateFilterNone {
		fmt.Fprintf(&sb, "Date filter: %s\n", filter.DateFilter)
	}
	if request.LinesBefore > 0 || request.LinesAfter > 0 {
		fmt.Fprintf(&sb, "Context lines: %d before, %d after\n", request.LinesBefore, request.LinesAfter)
	}

	return sb.String()
}
