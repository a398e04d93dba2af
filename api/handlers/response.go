package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/incsearch/logger"
	"github.com/meghashyamc/incsearch/validation"
)

type response struct {
	Data   any      `json:"data"`
	Errors []string `json:"errors"`
}

func writeResponse(c *gin.Context, data interface{}, statusCode int, errors []string) {

	if statusCode == http.StatusNoContent {
		c.Status(statusCode)
		return

	}

	response := response{
		Data:   data,
		Errors: errors,
	}

	c.JSON(statusCode, response)
}

// bindAndValidate writes the error response itself and reports whether the
// handler should go on.
func bindAndValidate(c *gin.Context, request any, logger logger.Logger, validator *validation.Validator) bool {
	if err := c.ShouldBindJSON(request); err != nil {
		logger.Warn("could not extract expected params from request body", "path", c.Request.URL.Path, "err", err.Error())
		c.Abort()
		writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request body parameters"})
		return false
	}

	if err := validator.Validate(request); err != nil {
		logger.Warn("could not validate request", "path", c.Request.URL.Path, "err", err.Error())
		c.Abort()
		writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
		return false
	}

	return true
}
