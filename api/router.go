package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/findlines/api/handlers"
)

func (s *server) setupRoutes(router *gin.Engine) {
	router.GET("/health", health())

	handlers.SetupFiles(router, s.logger, s.enumerator, s.validator)
	handlers.SetupIndex(router, s.logger, s.indexService, s.validator)
	handlers.SetupSearch(router, s.logger, s.searchService, s.validator)
	handlers.SetupFileOperations(router, s.logger, s.searchService, s.fileService, s.validator)
	handlers.SetupDocuments(router, s.logger, s.searchdb, s.validator)
}

func health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	}
}

func newRouter() *gin.Engine {
	router := gin.New()
	router.UseRawPath = true
	router.Use(_CORSMiddleware())
	router.Use(gin.Recovery())

	return router
}
