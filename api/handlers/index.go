package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/incsearch/logger"
	"github.com/meghashyamc/incsearch/validation"
)

type IndexRequest struct {
	Path string `json:"path" validate:"required,valid_path"`
}

type IndexResponse struct {
	Added int `json:"added"`
}

// Seeder adds the files below a directory to the index.
type Seeder interface {
	Seed(ctx context.Context, rootPath string) (int, error)
}

func SetupIndex(router *gin.Engine, logger logger.Logger, seeder Seeder, validator *validation.Validator) {
	router.POST("/index", handleIndex(seeder, logger, validator))
}

func handleIndex(seeder Seeder, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := IndexRequest{}
		if !bindAndValidate(c, &request, logger, validator) {
			return
		}

		added, err := seeder.Seed(c.Request.Context(), request.Path)
		if err != nil {
			logger.Warn("could not index path", "path", request.Path, "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
			return
		}

		writeResponse(c, IndexResponse{Added: added}, http.StatusOK, nil)
	}
}
