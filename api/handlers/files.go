package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/findlines/logger"
	"github.com/meghashyamc/findlines/services/enumerate"
	"github.com/meghashyamc/findlines/validation"
)

const defaultFilesLimit = 1000

type FilesRequest struct {
	FilterRequest
	Limit int `json:"limit" validate:"min=0,max=100000"`
}

type FilesResponse struct {
	Files []string `json:"files"`
	Count int      `json:"count"`
}

func SetupFiles(router *gin.Engine, logger logger.Logger, enumerator *enumerate.Enumerator, validator *validation.Validator) {
	router.POST("/files", handleFiles(enumerator, logger, validator))
}

func handleFiles(enumerator *enumerate.Enumerator, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := FilesRequest{}
		if err := c.ShouldBindJSON(&request); err != nil {
			logger.Warn("could not extract expected parameters from files request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request body parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate files request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		filter := request.toFileFilter()
		if err := enumerate.Compile(filter); err != nil {
			logger.Warn("could not compile file filter", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		limit := request.Limit
		if limit == 0 {
			limit = defaultFilesLimit
		}

		files := enumerator.List(c.Request.Context(), filter, limit)
		if files == nil {
			files = []string{}
		}

		writeResponse(c, FilesResponse{Files: files, Count: len(files)}, http.StatusOK, nil)
	}
}
