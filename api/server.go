package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/findlines/config"
	"github.com/meghashyamc/findlines/db/kvdb"
	"github.com/meghashyamc/findlines/db/searchdb"
	"github.com/meghashyamc/findlines/logger"
	"github.com/meghashyamc/findlines/services/enumerate"
	"github.com/meghashyamc/findlines/services/fileops"
	"github.com/meghashyamc/findlines/services/index"
	"github.com/meghashyamc/findlines/services/search"
	"github.com/meghashyamc/findlines/validation"
)

const shutdownTimeout = 10 * time.Second

type server struct {
	cfg           *config.Config
	router        *gin.Engine
	httpServer    *http.Server
	kvdb          *kvdb.BoltDB
	searchdb      *searchdb.BleveDB
	validator     *validation.Validator
	enumerator    *enumerate.Enumerator
	searchService *search.Service
	indexService  *index.Service
	fileService   *fileops.Service
	logger        logger.Logger
}

// Run serves the HTTP API until ctx is done or the process is interrupted.
func Run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s := &server{
		cfg:    cfg,
		logger: logger.New(cfg.GetLogLevel()),
	}
	if err := s.setupDependencies(ctx); err != nil {
		return err
	}
	s.setupRouter()

	serveErr := make(chan error, 1)
	s.setupHTTPServer(serveErr)

	return s.waitForShutdown(ctx, cancel, serveErr)
}

func (s *server) setupDependencies(ctx context.Context) error {
	var err error
	s.kvdb, err = kvdb.New(s.logger, s.cfg)
	if err != nil {
		s.logger.Error("error creating kvDB", "err", err.Error())
		return err
	}
	s.searchdb, err = searchdb.New(s.logger, s.cfg)
	if err != nil {
		s.logger.Error("error creating searchDB", "err", err.Error())
		s.kvdb.Close()
		return err
	}
	s.validator, err = validation.New(s.logger)
	if err != nil {
		s.logger.Error("error creating validator", "err", err.Error())
		s.kvdb.Close()
		s.searchdb.Close()
		return err
	}

	s.enumerator = enumerate.New(s.logger, enumerate.NewArchiveRegistry(s.cfg.GetArchiveExtensions()))
	searcher := search.NewSearcher(s.logger, s.enumerator, s.searchdb, s.cfg.GetMaxSearchWorkers(), s.cfg.GetMaxFileSize())
	s.searchService = search.NewService(ctx, s.logger, searcher, s.kvdb, s.cfg.GetSearchQueueSize())
	s.indexService = index.New(ctx, s.logger, s.searchdb, s.kvdb, s.enumerator, s.cfg.GetMaxFileSize())
	s.fileService = fileops.New(s.logger)

	return nil
}

func (s *server) setupRouter() {
	router := newRouter()

	router.Use(loggingMiddleware(s.logger))

	s.setupRoutes(router)

	s.router = router
}

func (s *server) setupHTTPServer(serveErr chan<- error) {
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%s", s.cfg.GetPort()),
		Handler: s.router.Handler(),
	}

	go func() {
		s.logger.Info("starting http server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
}

// waitForShutdown stops the http server and the background services once ctx
// is done or the server fails, then closes the databases.
func (s *server) waitForShutdown(ctx context.Context, cancel context.CancelFunc, serveErr <-chan error) error {
	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			s.logger.Error("http server failed", "err", err.Error())
			runErr = err
		}
	}

	s.logger.Info("starting to shut down http server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("error shutting down http server", "err", err.Error())
	}

	cancel()
	for _, done := range []<-chan struct{}{s.searchService.Done(), s.indexService.Done()} {
		select {
		case <-done:
		case <-shutdownCtx.Done():
			s.logger.Warn("background service did not stop in time")
		}
	}

	if err := s.kvdb.Close(); err != nil {
		s.logger.Error("error closing kvDB", "err", err.Error())
	}
	if err := s.searchdb.Close(); err != nil {
		s.logger.Error("error closing searchDB", "err", err.Error())
	}

	s.logger.Info("shut down http server successfully")
	return runErr
}
