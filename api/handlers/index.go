package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/meghashyamc/findlines/db/kvdb"
	"github.com/meghashyamc/findlines/logger"
	"github.com/meghashyamc/findlines/services/enumerate"
	"github.com/meghashyamc/findlines/services/index"
	"github.com/meghashyamc/findlines/validation"
)

type IndexRequest struct {
	FilterRequest
}

type IndexStatusResponse struct {
	ID       string `json:"id"`
	Progress int    `json:"progress"`
}

func SetupIndex(router *gin.Engine, logger logger.Logger, service *index.Service, validator *validation.Validator) {
	router.POST("/index", handleIndex(service, logger, validator))
	router.GET("/index/:id", handleGetIndexStatus(service, logger))
}

func handleIndex(service *index.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := IndexRequest{}
		if err := c.ShouldBindJSON(&request); err != nil {
			logger.Warn("could not extract expected parameters from index request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request body parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate index request", "err", err.Error())
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

		requestID := uuid.New().String()
		if err := service.Build(filter, requestID); err != nil {
			logger.Warn("could not create index", "err", err.Error())
			c.Abort()
			statusCode := http.StatusInternalServerError
			if errors.Is(err, index.ErrIndexingInProgress) {
				statusCode = http.StatusConflict
			}
			writeResponse(c, nil, statusCode, []string{err.Error()})
			return
		}

		writeResponse(c, RequestAcceptedResponse{ID: requestID}, http.StatusAccepted, nil)
	}
}

func handleGetIndexStatus(service *index.Service, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.Param("id")

		progress, err := service.GetStatus(requestID)
		if err != nil {
			if errors.Is(err, kvdb.ErrNotFound) || errors.Is(err, kvdb.ErrInvalidKey) {
				logger.Warn("index request not found", "request_id", requestID)
				c.Abort()
				writeResponse(c, nil, http.StatusNotFound, []string{"index request not found"})
				return
			}
			logger.Error("could not get index status", "request_id", requestID, "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
			return
		}

		response := IndexStatusResponse{ID: requestID, Progress: progress}
		switch progress {
		case index.ProgressStatusComplete:
			writeResponse(c, response, http.StatusOK, nil)
		case index.ProgressStatusFailed:
			writeResponse(c, response, http.StatusInternalServerError, []string{"indexing failed"})
		default:
			writeResponse(c, response, http.StatusAccepted, nil)
		}
	}
}
