package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/incsearch/logger"
	"github.com/meghashyamc/incsearch/services/search"
	"github.com/meghashyamc/incsearch/validation"
)

type QueryRequest struct {
	Text     string `json:"text" validate:"valid_query,max=1000"`
	Cookie   uint32 `json:"cookie"`
	Debounce bool   `json:"debounce"`
}

type FetchRequest struct {
	Offset int64 `json:"offset" validate:"min=0"`
	Limit  int64 `json:"limit" validate:"required,min=1,max=500"`
}

type SessionResponse struct {
	ID string `json:"id"`
}

type FetchResponse struct {
	More bool `json:"more"`
}

type ResultsResponse struct {
	Text    string                `json:"text"`
	Cookie  uint32                `json:"cookie"`
	State   string                `json:"state"`
	Results []search.ResultRecord `json:"results"`
}

func SetupSessions(router *gin.Engine, logger logger.Logger, sessions *search.Sessions, validator *validation.Validator) {
	router.POST("/sessions", handleCreateSession(sessions, logger))

	group := router.Group("/sessions/:id")
	group.Use(sessionMiddleware(sessions, logger))
	group.POST("/query", handleQuery(logger, validator))
	group.GET("/wait", handleWait(logger))
	group.POST("/fetch", handleFetch(logger, validator))
	group.GET("/results", handleResults())
	group.POST("/cancel", handleCancel())
	group.DELETE("", handleDispose(sessions))
}

const sessionKey = "session"

func sessionMiddleware(sessions *search.Sessions, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := sessions.Get(c.Param("id"))
		if !ok {
			logger.Warn("unknown search session", "id", c.Param("id"))
			c.Abort()
			writeResponse(c, nil, http.StatusNotFound, []string{"search session not found"})
			return
		}
		c.Set(sessionKey, session)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *search.Session {
	return c.MustGet(sessionKey).(*search.Session)
}

func handleCreateSession(sessions *search.Sessions, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := sessions.Create()
		logger.Info("created search session", "id", id)
		writeResponse(c, SessionResponse{ID: id}, http.StatusCreated, nil)
	}
}

func handleQuery(logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := QueryRequest{}
		if !bindAndValidate(c, &request, logger, validator) {
			return
		}

		session := sessionFrom(c)
		if request.Debounce {
			session.Schedule(request.Text, request.Cookie)
		} else {
			session.Execute(request.Text, request.Cookie)
		}

		writeResponse(c, nil, http.StatusAccepted, nil)
	}
}

func handleWait(logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if raw := c.Query("timeout"); raw != "" {
			timeout, err := time.ParseDuration(raw)
			if err != nil || timeout <= 0 {
				logger.Warn("invalid wait timeout", "timeout", raw)
				c.Abort()
				writeResponse(c, nil, http.StatusNotAcceptable, []string{"invalid timeout"})
				return
			}
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		if err := sessionFrom(c).WaitForQueryCompleted(ctx); err != nil {
			logger.Warn("stopped waiting for query", "id", c.Param("id"), "err", err.Error())
			status := http.StatusServiceUnavailable
			if errors.Is(err, context.DeadlineExceeded) {
				status = http.StatusRequestTimeout
			}
			c.Abort()
			writeResponse(c, nil, status, []string{err.Error()})
			return
		}

		writeResponse(c, nil, http.StatusNoContent, nil)
	}
}

func handleFetch(logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := FetchRequest{}
		if !bindAndValidate(c, &request, logger, validator) {
			return
		}

		more := sessionFrom(c).Fetch(request.Offset, request.Limit)
		writeResponse(c, FetchResponse{More: more}, http.StatusOK, nil)
	}
}

func handleResults() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessionFrom(c)
		results := session.Results().Drain()
		if results == nil {
			results = []search.ResultRecord{}
		}

		writeResponse(c, ResultsResponse{
			Text:    session.SearchText(),
			Cookie:  session.Cookie(),
			State:   session.State().String(),
			Results: results,
		}, http.StatusOK, nil)
	}
}

func handleCancel() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionFrom(c).CancelOutstandingQueries()
		writeResponse(c, nil, http.StatusNoContent, nil)
	}
}

func handleDispose(sessions *search.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessions.Remove(c.Param("id"))
		writeResponse(c, nil, http.StatusNoContent, nil)
	}
}
