package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/incsearch/config"
	"github.com/meghashyamc/incsearch/db/kvdb"
	"github.com/meghashyamc/incsearch/db/localindex"
	"github.com/meghashyamc/incsearch/logger"
	"github.com/meghashyamc/incsearch/services/search"
	"github.com/meghashyamc/incsearch/validation"
)

type server struct {
	cfg        *config.Config
	router     *gin.Engine
	httpServer *http.Server
	kvdb       kvdb.DB
	index      *localindex.Index
	engine     *search.Engine
	sessions   *search.Sessions
	validator  *validation.Validator
	logger     logger.Logger
}

func Run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)

	defer cancel()

	s := &server{
		cfg:    cfg,
		logger: logger.New(),
	}
	if err := s.setupDependencies(ctx); err != nil {
		return err
	}
	s.setupRouter()
	s.setupHTTPServer()
	s.setupGracefulShutdown(ctx)

	return nil
}

func (s *server) setupDependencies(ctx context.Context) error {
	var err error
	s.kvdb, err = kvdb.New(s.logger, s.cfg)
	if err != nil {
		s.logger.Error("error creating kvDB", "err", err.Error())
		return err
	}
	s.index, err = localindex.New(s.logger, s.cfg, s.kvdb)
	if err != nil {
		s.logger.Error("error creating local index", "err", err.Error())
		return err
	}
	if seedPath := s.cfg.GetSeedPath(); seedPath != "" {
		if _, err := s.index.Seed(ctx, seedPath); err != nil {
			s.logger.Error("error seeding local index", "path", seedPath, "err", err.Error())
			return err
		}
	}

	s.engine = search.NewEngine(s.logger, s.index, search.OptionsFromConfig(s.cfg))
	s.sessions, err = search.NewSessions(s.engine, s.cfg.GetMaxSessions())
	if err != nil {
		s.logger.Error("error creating session registry", "err", err.Error())
		return err
	}
	s.validator, err = validation.New(s.logger)
	if err != nil {
		s.logger.Error("error creating validator", "err", err.Error())
		return err
	}

	return nil

}

func (s *server) setupRouter() {
	router := newRouter()

	router.Use(loggingMiddleware(s.logger))

	setupRoutes(router, s.logger, s.index, s.sessions, s.validator)

	s.router = router
}

func (s *server) setupHTTPServer() {

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", s.cfg.GetPort()),
		Handler: s.router.Handler(),
	}
	s.httpServer = httpServer
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()
}

func (s *server) setupGracefulShutdown(ctx context.Context) {

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		s.logger.Info("starting to shut down http server")
		shutdownCtx := context.Background()
		shutdownCtx, cancel := context.WithTimeout(shutdownCtx, 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error shutting down http server", "err", err)
		}
		s.sessions.Close()
		if err := s.engine.Close(); err != nil {
			s.logger.Error("error stopping query engine", "err", err)
		}
		s.index.Close()
		s.kvdb.Close()
		s.logger.Info("shut down http server successfully")
	}()

	wg.Wait()
}
