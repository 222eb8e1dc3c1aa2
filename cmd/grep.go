package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/meghashyamc/findlines/config"
	"github.com/meghashyamc/findlines/db/searchdb"
	"github.com/meghashyamc/findlines/logger"
	"github.com/meghashyamc/findlines/services/enumerate"
	"github.com/meghashyamc/findlines/services/fileops"
	"github.com/meghashyamc/findlines/services/match"
	"github.com/meghashyamc/findlines/services/report"
	"github.com/meghashyamc/findlines/services/search"
	"github.com/urfave/cli/v2"
)

const dateLayout = "2006-01-02"

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "path",
			Aliases: []string{"p"},
			Usage:   "Folders or files to search, separated by ';' or ','",
			Value:   ".",
		},
		&cli.StringFlag{
			Name:    "include",
			Aliases: []string{"i"},
			Usage:   "File name patterns to include, separated by ';' or ','",
			Value:   "*",
		},
		&cli.StringFlag{
			Name:    "exclude",
			Aliases: []string{"x"},
			Usage:   "File name patterns to exclude",
		},
		&cli.BoolFlag{
			Name:  "regex-names",
			Usage: "Treat the include and exclude patterns as regular expressions separated by ';'",
		},
		&cli.StringSliceFlag{
			Name:  "exclude-dir",
			Usage: "Skip folders matching this glob, relative to the root (e.g. --exclude-dir 'vendor/**')",
		},
		&cli.BoolFlag{
			Name:    "subfolders",
			Aliases: []string{"r"},
			Usage:   "Search subfolders",
		},
		&cli.BoolFlag{
			Name:  "hidden",
			Usage: "Include hidden files and folders",
		},
		&cli.BoolFlag{
			Name:  "binary",
			Usage: "Include binary files",
		},
		&cli.BoolFlag{
			Name:  "archive",
			Usage: "Include archive files",
		},
		&cli.IntFlag{
			Name:  "size-from",
			Usage: "Minimum file size in KB",
		},
		&cli.IntFlag{
			Name:  "size-to",
			Usage: "Maximum file size in KB",
		},
		&cli.StringFlag{
			Name:  "date-filter",
			Usage: "Which file date --start and --end apply to: none, created or modified",
			Value: enumerate.DateFilterNone.String(),
		},
		&cli.TimestampFlag{
			Name:   "start",
			Usage:  "Only files dated on or after this day (" + dateLayout + ")",
			Layout: dateLayout,
		},
		&cli.TimestampFlag{
			Name:   "end",
			Usage:  "Only files dated before this day (" + dateLayout + ")",
			Layout: dateLayout,
		},
	}
}

func grepFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "type",
			Aliases: []string{"t"},
			Usage:   "Search type: plain, regex or index",
			Value:   match.SearchTypePlainText.String(),
		},
		&cli.BoolFlag{
			Name:    "case-sensitive",
			Aliases: []string{"s"},
			Usage:   "Match case",
		},
		&cli.IntFlag{
			Name:    "before",
			Aliases: []string{"B"},
			Usage:   "Lines of context before each match",
		},
		&cli.IntFlag{
			Name:    "after",
			Aliases: []string{"A"},
			Usage:   "Lines of context after each match",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: report, csv or text",
			Value:   report.FormatReport.String(),
		},
		&cli.StringFlag{
			Name:  "copy-to",
			Usage: "Copy the matching files into this folder, keeping their path below the searched folder",
		},
		&cli.StringFlag{
			Name:  "copy-root",
			Usage: "Folder the copied paths are made relative to, instead of the searched folders",
		},
		&cli.BoolFlag{
			Name:  "overwrite",
			Usage: "Replace files that already exist in the --copy-to folder",
		},
		&cli.BoolFlag{
			Name:  "delete",
			Usage: "Delete the matching files, read-only ones included, after any copy",
		},
	}
}

func fileFilter(c *cli.Context) (enumerate.FileFilter, error) {
	roots := enumerate.SplitPath(c.String("path"))
	if len(roots) == 0 {
		return enumerate.FileFilter{}, errors.New("no path to search")
	}
	for i, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return enumerate.FileFilter{}, fmt.Errorf("failed to resolve path %q: %w", root, err)
		}
		roots[i] = absRoot
	}

	dateFilter := enumerate.ParseDateFilter(c.String("date-filter"), -1)
	if dateFilter == -1 {
		return enumerate.FileFilter{}, fmt.Errorf("unknown date filter %q", c.String("date-filter"))
	}

	filter := enumerate.FileFilter{
		Path:                 strings.Join(roots, ";"),
		NamePatternToInclude: c.String("include"),
		NamePatternToExclude: c.String("exclude"),
		IsRegex:              c.Bool("regex-names"),
		ExcludeDirs:          c.StringSlice("exclude-dir"),
		IncludeSubfolders:    c.Bool("subfolders"),
		IncludeHidden:        c.Bool("hidden"),
		IncludeBinary:        c.Bool("binary"),
		IncludeArchive:       c.Bool("archive"),
		SizeFrom:             c.Int("size-from"),
		SizeTo:               c.Int("size-to"),
		DateFilter:           dateFilter,
		StartTime:            c.Timestamp("start"),
		EndTime:              c.Timestamp("end"),
	}

	return filter, enumerate.Compile(filter)
}

func newEnumerator(cfg *config.Config, log logger.Logger) *enumerate.Enumerator {
	return enumerate.New(log, enumerate.NewArchiveRegistry(cfg.GetArchiveExtensions()))
}

func grepCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: findlines grep [options] <pattern>")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := logger.New(cfg.GetLogLevel())

	filter, err := fileFilter(c)
	if err != nil {
		return err
	}

	if c.Int("before") < 0 || c.Int("after") < 0 {
		return errors.New("context line counts cannot be negative")
	}

	if !match.IsSearchType(c.String("type")) {
		return fmt.Errorf("unknown search type %q", c.String("type"))
	}
	if !report.IsFormat(c.String("format")) {
		return fmt.Errorf("unknown format %q", c.String("format"))
	}

	request := search.Request{
		Filter:        filter,
		SearchType:    match.ParseSearchType(c.String("type"), match.SearchTypePlainText),
		Pattern:       strings.Join(c.Args().Slice(), " "),
		CaseSensitive: c.Bool("case-sensitive"),
		LinesBefore:   c.Int("before"),
		LinesAfter:    c.Int("after"),
	}

	var locator match.Locator
	if request.SearchType == match.SearchTypeIndex {
		searchDB, err := searchdb.New(log, cfg)
		if err != nil {
			return fmt.Errorf("failed to open search index: %w", err)
		}
		defer searchDB.Close()
		locator = searchDB
	}

	searcher := search.NewSearcher(log, newEnumerator(cfg, log), locator, cfg.GetMaxSearchWorkers(), cfg.GetMaxFileSize())
	results, err := searcher.Run(c.Context, request)
	if err != nil {
		return err
	}

	format := report.ParseFormat(c.String("format"), report.FormatReport)
	if err := report.Render(os.Stdout, format, results, report.OptionsSummary(request)); err != nil {
		return err
	}

	return applyFileOperations(c, log, filter, results)
}

// applyFileOperations copies and then deletes the files of results as the
// --copy-to and --delete flags ask.
func applyFileOperations(c *cli.Context, log logger.Logger, filter enumerate.FileFilter, results []search.FileResult) error {
	if len(results) == 0 {
		return nil
	}
	service := fileops.New(log)

	if copyTo := c.String("copy-to"); copyTo != "" {
		destination, err := filepath.Abs(copyTo)
		if err != nil {
			return fmt.Errorf("failed to resolve path %q: %w", copyTo, err)
		}

		roots := enumerate.SplitPath(filter.Path)
		if copyRoot := c.String("copy-root"); copyRoot != "" {
			absRoot, err := filepath.Abs(copyRoot)
			if err != nil {
				return fmt.Errorf("failed to resolve path %q: %w", copyRoot, err)
			}
			roots = []string{absRoot}
		}

		if !fileops.CanCopy(results, roots, destination) {
			return fmt.Errorf("cannot copy to %s: %w", destination, fileops.ErrCopyIntoSource)
		}
		copied, err := service.Copy(c.Context, results, roots, destination, c.Bool("overwrite"))
		fmt.Fprintf(c.App.ErrWriter, "copied %d files to %s\n", len(copied), destination)
		if err != nil {
			return err
		}
	}

	if c.Bool("delete") {
		deleted, err := service.Delete(c.Context, results)
		fmt.Fprintf(c.App.ErrWriter, "deleted %d files\n", len(deleted))
		if err != nil {
			return err
		}
	}

	return nil
}

func filesCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := logger.New(cfg.GetLogLevel())

	filter, err := fileFilter(c)
	if err != nil {
		return err
	}

	out := bufio.NewWriter(os.Stdout)
	count := 0
	for path := range newEnumerator(cfg, log).Enumerate(c.Context, filter) {
		fmt.Fprintln(out, path)
		count++
		if limit := c.Int("limit"); limit > 0 && count >= limit {
			break
		}
	}

	return out.Flush()
}
