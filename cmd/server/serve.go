package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/iliyamo/records-service/internal/config"
	"github.com/iliyamo/records-service/internal/handler"
	"github.com/iliyamo/records-service/internal/middleware"
	"github.com/iliyamo/records-service/internal/queue"
	"github.com/iliyamo/records-service/internal/repository"
	"github.com/iliyamo/records-service/internal/router"
	"github.com/iliyamo/records-service/internal/service"
	"github.com/iliyamo/records-service/internal/utils"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		db, err := openDB(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		var sink queue.Sink = queue.Discard{}
		if cfg.EventsEnabled {
			sink = queue.NewPublisher(cfg.RabbitURL)
			log.Printf("auth events enabled (queue=%s)", queue.AuthEventsQueue)
		}
		events := queue.NewAsync(sink)
		defer events.Wait()

		rdb, err := config.NewRedisClient(ctx, config.LoadRedisConfig())
		if err != nil {
			log.Printf("rate limiting disabled: %v", err)
		} else {
			defer rdb.Close()
		}

		users := repository.NewUserRepo(db)
		tokens := repository.NewTokenRepo(db)
		records := repository.NewRecordRepo(db)

		accessCodec := utils.NewTokenCodec(cfg.AccessSecret, cfg.AccessTTL)
		refreshCodec := utils.NewTokenCodec(cfg.RefreshSecret, cfg.RefreshTTL)

		sessions := service.NewSessionService(users, tokens, accessCodec, refreshCodec, events, service.SessionConfig{
			BcryptCost:           cfg.BcryptCost,
			EnforceRefreshExpiry: cfg.EnforceRefreshExpiry,
		})

		e := echo.New()
		e.HideBanner = true
		e.Use(echomw.Recover())
		e.Use(echomw.Logger())

		access := middleware.AccessVerifier(accessCodec)
		limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

		router.RegisterRoutes(e)
		router.RegisterAuth(e, handler.NewAuthHandler(cfg, sessions), access, middleware.RefreshVerifier(refreshCodec), limit)
		router.RegisterRecords(e, handler.NewRecordHandler(service.NewRecordService(records)), access)
		router.RegisterUsers(e, handler.NewUserHandler(service.NewUserService(users, tokens, events)), access)

		addr := ":" + cfg.Port
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)

		errCh := make(chan error, 1)
		go func() { errCh <- e.Start(addr) }()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		log.Printf("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(sctx)
	},
}
