package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/findlines/db/searchdb"
	"github.com/meghashyamc/findlines/logger"
	"github.com/meghashyamc/findlines/validation"
)

// DocumentsRequest queries the full text index for matching files.
type DocumentsRequest struct {
	Query   string `form:"query" validate:"required,valid_query,max=1000"`
	PerPage int    `form:"per_page" validate:"min=0,max=100"`
	Page    int    `form:"page" validate:"min=0"`
}

type DocumentsResponse struct {
	Results     []searchdb.Result `json:"results"`
	Total       uint64            `json:"total"`
	SearchTime  string            `json:"search_time"`
	PageDetails Pagination        `json:"page_details"`
}

// DocumentSearcher is the part of the search database the documents
// endpoint needs.
type DocumentSearcher interface {
	Search(queryString string, limit int, offset int) (*searchdb.Response, error)
}

func SetupDocuments(router *gin.Engine, logger logger.Logger, searcher DocumentSearcher, validator *validation.Validator) {
	router.GET("/documents", handleDocuments(searcher, logger, validator))
}

func handleDocuments(searcher DocumentSearcher, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := DocumentsRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected query params from documents request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request query parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate documents request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		if request.PerPage == 0 {
			request.PerPage = defaultResultsPerPage
		}
		if request.Page == 0 {
			request.Page = 1
		}

		limit := request.PerPage
		offset := (request.Page - 1) * request.PerPage

		searchResponse, err := searcher.Search(request.Query, limit, offset)
		if err != nil {
			logger.Error("could not search documents", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
			return
		}

		results := searchResponse.Results
		if results == nil {
			results = []searchdb.Result{}
		}

		c.Header(HeaderPaginationTotalCount, strconv.FormatUint(searchResponse.Total, 10))
		writeResponse(c, DocumentsResponse{
			Results:     results,
			Total:       searchResponse.Total,
			SearchTime:  searchResponse.SearchTime,
			PageDetails: calculatePagination(int(searchResponse.Total), limit, offset),
		}, http.StatusOK, nil)
	}
}
