package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/findlines/db/kvdb"
	"github.com/meghashyamc/findlines/logger"
	"github.com/meghashyamc/findlines/services/enumerate"
	"github.com/meghashyamc/findlines/services/match"
	"github.com/meghashyamc/findlines/services/search"
	"github.com/meghashyamc/findlines/validation"
)

const defaultResultsPerPage = 20

type SearchRequest struct {
	FilterRequest
	Pattern       string `json:"pattern" validate:"required,valid_query,max=1000"`
	SearchType    string `json:"search_type" validate:"valid_search_type"`
	CaseSensitive bool   `json:"case_sensitive"`
	LinesBefore   int    `json:"lines_before" validate:"min=0,max=100"`
	LinesAfter    int    `json:"lines_after" validate:"min=0,max=100"`
}

func (r SearchRequest) toSearchRequest() search.Request {
	return search.Request{
		Filter:        r.toFileFilter(),
		SearchType:    match.ParseSearchType(r.SearchType, match.SearchTypePlainText),
		Pattern:       r.Pattern,
		CaseSensitive: r.CaseSensitive,
		LinesBefore:   r.LinesBefore,
		LinesAfter:    r.LinesAfter,
	}
}

type RequestAcceptedResponse struct {
	ID string `json:"id"`
}

type ResultsRequest struct {
	PerPage int `form:"per_page" validate:"min=0,max=100"`
	Page    int `form:"page" validate:"min=0"`
}

func (r *ResultsRequest) setDefaults() {
	if r.PerPage == 0 {
		r.PerPage = defaultResultsPerPage
	}

	if r.Page == 0 {
		r.Page = 1
	}
}

type SearchStatusResponse struct {
	ID          string              `json:"id"`
	Progress    int                 `json:"progress"`
	MatchCount  int                 `json:"match_count"`
	FileCount   int                 `json:"file_count"`
	Results     []search.FileResult `json:"results,omitempty"`
	PageDetails *Pagination         `json:"page_details,omitempty"`
}

func SetupSearch(router *gin.Engine, logger logger.Logger, service *search.Service, validator *validation.Validator) {
	router.POST("/search", handleSearch(service, logger, validator))
	router.GET("/search/:id", handleGetSearch(service, logger, validator))
	router.GET("/search/:id/report", handleGetReport(service, logger, validator))
	router.GET("/search/:id/snippets", handleGetSnippets(service, logger, validator))
}

func handleSearch(service *search.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := SearchRequest{}
		if err := c.ShouldBindJSON(&request); err != nil {
			logger.Warn("could not extract expected parameters from search request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request body parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate search request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		searchRequest := request.toSearchRequest()
		if err := enumerate.Compile(searchRequest.Filter); err != nil {
			logger.Warn("could not compile file filter", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}
		if _, err := match.New(match.Options{SearchType: searchRequest.SearchType, Pattern: searchRequest.Pattern}, nil); err != nil && !errors.Is(err, match.ErrUnsupportedSearchType) {
			logger.Warn("could not compile search pattern", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		requestID, err := service.Start(searchRequest)
		if err != nil {
			logger.Warn("could not start search", "err", err.Error())
			c.Abort()
			statusCode := http.StatusInternalServerError
			if errors.Is(err, search.ErrSearchQueueFull) {
				statusCode = http.StatusTooManyRequests
			}
			writeResponse(c, nil, statusCode, []string{err.Error()})
			return
		}

		writeResponse(c, RequestAcceptedResponse{ID: requestID}, http.StatusAccepted, nil)
	}
}

func handleGetSearch(service *search.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.Param("id")

		request := ResultsRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from search results request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request query parameters"})
			return
		}
		request.setDefaults()

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate search results request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		progress, ok := searchProgress(c, service, logger, requestID)
		if !ok {
			return
		}
		if progress != search.ProgressStatusComplete {
			writeResponse(c, SearchStatusResponse{ID: requestID, Progress: progress}, http.StatusAccepted, nil)
			return
		}

		outcome, ok := completedSearch(c, service, logger, requestID)
		if !ok {
			return
		}

		limit := request.PerPage
		offset := (request.Page - 1) * request.PerPage
		pageDetails := calculatePagination(len(outcome.Results), limit, offset)

		results := []search.FileResult{}
		if offset < len(outcome.Results) {
			results = outcome.Results[offset:min(offset+limit, len(outcome.Results))]
		}

		c.Header(HeaderPaginationTotalCount, strconv.Itoa(len(outcome.Results)))
		writeResponse(c, SearchStatusResponse{
			ID:          requestID,
			Progress:    progress,
			MatchCount:  outcome.MatchCount(),
			FileCount:   len(outcome.Results),
			Results:     results,
			PageDetails: &pageDetails,
		}, http.StatusOK, nil)
	}
}

// searchProgress writes the error response and returns false when the
// request is unknown or failed.
func searchProgress(c *gin.Context, service *search.Service, logger logger.Logger, requestID string) (int, bool) {
	progress, err := service.Status(requestID)
	if err != nil {
		if errors.Is(err, kvdb.ErrNotFound) || errors.Is(err, kvdb.ErrInvalidKey) {
			logger.Warn("search request not found", "request_id", requestID)
			c.Abort()
			writeResponse(c, nil, http.StatusNotFound, []string{"search request not found"})
			return 0, false
		}
		logger.Error("could not get search status", "request_id", requestID, "err", err.Error())
		c.Abort()
		writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
		return 0, false
	}

	if progress == search.ProgressStatusFailed {
		c.Abort()
		writeResponse(c, SearchStatusResponse{ID: requestID, Progress: progress}, http.StatusInternalServerError, []string{"search failed"})
		return 0, false
	}

	return progress, true
}

// completedSearch writes the error response and returns false unless the
// search has completed.
func completedSearch(c *gin.Context, service *search.Service, logger logger.Logger, requestID string) (*search.Outcome, bool) {
	progress, ok := searchProgress(c, service, logger, requestID)
	if !ok {
		return nil, false
	}
	if progress != search.ProgressStatusComplete {
		writeResponse(c, SearchStatusResponse{ID: requestID, Progress: progress}, http.StatusAccepted, nil)
		return nil, false
	}

	outcome, err := service.Results(requestID)
	if err != nil {
		logger.Error("could not get search results", "request_id", requestID, "err", err.Error())
		c.Abort()
		writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
		return nil, false
	}

	return outcome, true
}
