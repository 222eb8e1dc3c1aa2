package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/findlines/logger"
	"github.com/meghashyamc/findlines/services/lines"
	"github.com/meghashyamc/findlines/services/report"
	"github.com/meghashyamc/findlines/services/search"
	"github.com/meghashyamc/findlines/validation"
)

// ContextRequest overrides the context size of a completed search. Nil
// values keep the size the search ran with.
type ContextRequest struct {
	Before *int `form:"before" json:"before" validate:"omitempty,min=0,max=100"`
	After  *int `form:"after" json:"after" validate:"omitempty,min=0,max=100"`
}

func (r ContextRequest) sizes(request search.Request) (int, int, bool) {
	if r.Before == nil && r.After == nil {
		return request.LinesBefore, request.LinesAfter, false
	}

	before, after := request.LinesBefore, request.LinesAfter
	if r.Before != nil {
		before = *r.Before
	}
	if r.After != nil {
		after = *r.After
	}
	return before, after, true
}

type ReportRequest struct {
	ContextRequest
	Format string `form:"format" json:"format" validate:"valid_report_format"`
}

type SnippetsRequest struct {
	ContextRequest
	Path string `form:"path" json:"path" validate:"required"`
}

type SnippetsResponse struct {
	Path     string          `json:"path"`
	Snippets []lines.Snippet `json:"snippets"`
}

func handleGetReport(service *search.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.Param("id")

		request := ReportRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from report request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request query parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate report request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		outcome, ok := completedSearch(c, service, logger, requestID)
		if !ok {
			return
		}

		results := outcome.Results
		if before, after, changed := request.sizes(outcome.Request); changed {
			var err error
			results, err = service.Searcher().WithContext(c.Request.Context(), results, before, after)
			if err != nil {
				logger.Error("could not add context to results", "request_id", requestID, "err", err.Error())
				c.Abort()
				writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
				return
			}
		}

		format := report.ParseFormat(request.Format, report.FormatReport)
		var rendered bytes.Buffer
		if err := report.Render(&rendered, format, results, report.OptionsSummary(outcome.Request)); err != nil {
			logger.Error("could not render report", "request_id", requestID, "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
			return
		}

		c.Data(http.StatusOK, format.ContentType(), rendered.Bytes())
	}
}

func handleGetSnippets(service *search.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.Param("id")

		request := SnippetsRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from snippets request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request query parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate snippets request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		outcome, ok := completedSearch(c, service, logger, requestID)
		if !ok {
			return
		}

		result, found := outcome.Find(request.Path)
		if !found {
			c.Abort()
			writeResponse(c, nil, http.StatusNotFound, []string{"file is not part of the search results"})
			return
		}

		before, after, _ := request.sizes(outcome.Request)
		snippets, err := service.Searcher().Snippets(c.Request.Context(), result, before, after)
		if err != nil {
			logger.Error("could not build snippets", "request_id", requestID, "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
			return
		}

		writeResponse(c, SnippetsResponse{Path: result.Path, Snippets: snippets}, http.StatusOK, nil)
	}
}
