package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/incsearch/api/handlers"
	"github.com/meghashyamc/incsearch/db/localindex"
	"github.com/meghashyamc/incsearch/logger"
	"github.com/meghashyamc/incsearch/services/search"
	"github.com/meghashyamc/incsearch/validation"
)

func setupRoutes(router *gin.Engine, logger logger.Logger, index *localindex.Index, sessions *search.Sessions, validator *validation.Validator) {
	router.GET("/health", health())

	handlers.SetupIndex(router, logger, index, validator)
	handlers.SetupSessions(router, logger, sessions, validator)

}

func health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	}
}

func newRouter() *gin.Engine {
	router := gin.Default()
	router.UseRawPath = true
	router.Use(_CORSMiddleware())
	router.Use(gin.Recovery())

	return router
}
