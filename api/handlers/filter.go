package handlers

import (
	"time"

	"github.com/meghashyamc/findlines/services/enumerate"
)

// FilterRequest is the file filter shared by the files, search and index
// requests. Path is a ';' or ',' separated list of roots. An empty Include
// matches every file.
type FilterRequest struct {
	Path              string     `json:"path" validate:"required,valid_path"`
	Include           string     `json:"include" validate:"max=4096"`
	Exclude           string     `json:"exclude" validate:"max=4096"`
	IsRegex           bool       `json:"is_regex"`
	ExcludeDirs       []string   `json:"exclude_dirs"`
	IncludeSubfolders bool       `json:"include_subfolders"`
	IncludeHidden     bool       `json:"include_hidden"`
	IncludeBinary     bool       `json:"include_binary"`
	IncludeArchive    bool       `json:"include_archive"`
	SizeFrom          int        `json:"size_from" validate:"min=0"`
	SizeTo            int        `json:"size_to" validate:"min=0"`
	DateFilter        string     `json:"date_filter" validate:"valid_date_filter"`
	StartTime         *time.Time `json:"start_time"`
	EndTime           *time.Time `json:"end_time"`
}

func (r FilterRequest) toFileFilter() enumerate.FileFilter {
	include := r.Include
	if include == "" {
		include = "*"
	}

	return enumerate.FileFilter{
		Path:                 r.Path,
		NamePatternToInclude: include,
		NamePatternToExclude: r.Exclude,
		IsRegex:              r.IsRegex,
		ExcludeDirs:          r.ExcludeDirs,
		IncludeSubfolders:    r.IncludeSubfolders,
		IncludeHidden:        r.IncludeHidden,
		IncludeBinary:        r.IncludeBinary,
		IncludeArchive:       r.IncludeArchive,
		SizeFrom:             r.SizeFrom,
		SizeTo:               r.SizeTo,
		DateFilter:           enumerate.ParseDateFilter(r.DateFilter, enumerate.DateFilterNone),
		StartTime:            r.StartTime,
		EndTime:              r.EndTime,
	}
}
