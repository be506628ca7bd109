// Package app boots the service: configuration, database, ingest pipeline,
// and the HTTP server with graceful shutdown.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/notifyhub/slackbridge/internal/config"
	"github.com/notifyhub/slackbridge/internal/db"
	"github.com/notifyhub/slackbridge/internal/http/api"
	"github.com/notifyhub/slackbridge/internal/ingest"
	"github.com/notifyhub/slackbridge/internal/logging"
	"github.com/notifyhub/slackbridge/internal/slackapi"
)

const shutdownTimeout = 10 * time.Second

// Migrate opens the database and runs migrations.
func Migrate(_ context.Context, configPath string) error {
	cfg, errLoad := config.Load(configPath)
	if errLoad != nil {
		return errLoad
	}
	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	return db.Migrate(conn)
}

// RunServer boots the HTTP server and blocks until ctx is canceled.
func RunServer(ctx context.Context, configPath string) error {
	cfg, errLoad := config.Load(configPath)
	if errLoad != nil {
		return errLoad
	}
	logging.Setup(cfg.Log)
	if errSlack := cfg.Slack.Validate(); errSlack != nil {
		return errSlack
	}

	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	queue := ingest.NewQueue(ingest.LoggingSink{}, cfg.Ingest.QueueSizeOrDefault())
	queueCtx, stopQueue := context.WithCancel(context.Background())
	queue.Start(queueCtx)
	dedup := ingest.NewDeduper(cfg.Ingest.DedupTTL())

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api.RegisterRoutes(engine, conn, cfg, slackapi.NewWebClient(nil), queue, dedup)

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.Server.Addr)
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- errServe
		}
	}()

	select {
	case errServe := <-errCh:
		stopQueue()
		return errServe
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	errShutdown := server.Shutdown(shutdownCtx)

	stopQueue()
	queue.Wait()
	return errShutdown
}
