package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/findlines/logger"
	"github.com/meghashyamc/findlines/services/enumerate"
	"github.com/meghashyamc/findlines/services/fileops"
	"github.com/meghashyamc/findlines/services/search"
	"github.com/meghashyamc/findlines/validation"
)

// CopyRequest copies the files of a completed search. SourceRoot defaults to
// the folders the search ran on.
type CopyRequest struct {
	Destination string `json:"destination" validate:"required,max=4096"`
	SourceRoot  string `json:"source_root" validate:"max=4096"`
	Overwrite   bool   `json:"overwrite"`
}

type CopyResponse struct {
	Copied []string `json:"copied"`
}

type DeleteResponse struct {
	Deleted []string `json:"deleted"`
}

type ReadOnlyResponse struct {
	Paths []string `json:"paths"`
}

func SetupFileOperations(router *gin.Engine, logger logger.Logger, searchService *search.Service, service *fileops.Service, validator *validation.Validator) {
	router.POST("/search/:id/copy", handleCopyFiles(searchService, service, logger, validator))
	router.POST("/search/:id/delete", handleDeleteFiles(searchService, service, logger))
	router.GET("/search/:id/readonly", handleGetReadOnlyFiles(searchService, logger))
}

func handleCopyFiles(searchService *search.Service, service *fileops.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.Param("id")

		request := CopyRequest{}
		if err := c.ShouldBindJSON(&request); err != nil {
			logger.Warn("could not extract expected parameters from copy request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request body parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate copy request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		outcome, ok := completedSearch(c, searchService, logger, requestID)
		if !ok {
			return
		}

		sourceRoot := request.SourceRoot
		if sourceRoot == "" {
			sourceRoot = outcome.Request.Filter.Path
		}
		roots := enumerate.SplitPath(sourceRoot)

		if !fileops.CanCopy(outcome.Results, roots, request.Destination) {
			logger.Warn("copy would overwrite source files", "request_id", requestID, "destination", request.Destination)
			c.Abort()
			writeResponse(c, nil, http.StatusConflict, []string{fileops.ErrCopyIntoSource.Error()})
			return
		}

		copied, err := service.Copy(c.Request.Context(), outcome.Results, roots, request.Destination, request.Overwrite)
		if err != nil {
			c.Abort()
			statusCode := http.StatusInternalServerError
			if errors.Is(err, fileops.ErrDestinationExists) {
				statusCode = http.StatusConflict
			}
			writeResponse(c, CopyResponse{Copied: nonNil(copied)}, statusCode, []string{err.Error()})
			return
		}

		writeResponse(c, CopyResponse{Copied: nonNil(copied)}, http.StatusOK, nil)
	}
}

func handleDeleteFiles(searchService *search.Service, service *fileops.Service, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.Param("id")

		outcome, ok := completedSearch(c, searchService, logger, requestID)
		if !ok {
			return
		}

		deleted, err := service.Delete(c.Request.Context(), outcome.Results)
		if err != nil {
			c.Abort()
			writeResponse(c, DeleteResponse{Deleted: nonNil(deleted)}, http.StatusInternalServerError, []string{err.Error()})
			return
		}

		writeResponse(c, DeleteResponse{Deleted: nonNil(deleted)}, http.StatusOK, nil)
	}
}

func handleGetReadOnlyFiles(searchService *search.Service, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		outcome, ok := completedSearch(c, searchService, logger, c.Param("id"))
		if !ok {
			return
		}

		writeResponse(c, ReadOnlyResponse{Paths: fileops.ReadOnly(outcome.Results)}, http.StatusOK, nil)
	}
}

func nonNil(paths []string) []string {
	if paths == nil {
		return []string{}
	}
	return paths
}
