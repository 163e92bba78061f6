package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"internboard/internal/api"
	"internboard/internal/config"
	"internboard/internal/engine"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd, v)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
	cmd.Flags().String("addr", "", "listen address (host:port)")
	mustBind(v, "server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	reloader := engine.NewReloader(cfg.Source(), cfg.EngineSchema(), logger)

	// The API is live right away and answers 503 until the first load lands.
	e := newEcho(cfg, logger)
	h := api.NewHandler(reloader, api.Options{
		TopK:           cfg.Dashboard.TopK,
		PageSize:       cfg.Dashboard.PageSize,
		ReloadInterval: cfg.Reload.MinInterval,
		Logger:         logger,
	})
	h.RegisterRoutes(e)

	go func() {
		logger.Info("loading dataset in background", "path", cfg.Data.Path)
		if _, err := reloader.Reload(ctx); err != nil {
			logger.Error("initial load failed", "err", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr)
		if err := e.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newEcho(cfg config.Config, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = api.JSONSerializer{}
	e.Logger.SetLevel(echoLogLevel(cfg.Log.Level))

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, rv middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			attrs := []slog.Attr{
				slog.String("method", rv.Method),
				slog.String("uri", rv.URI),
				slog.Int("status", rv.Status),
				slog.Duration("latency", rv.Latency),
				slog.String("request_id", rv.RequestID),
			}
			if rv.Error != nil {
				level = slog.LevelWarn
				attrs = append(attrs, slog.String("err", rv.Error.Error()))
			}
			logger.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	}))
	return e
}

// echoLogLevel maps our level names onto echo's own logger, which only
// reports framework internals.
func echoLogLevel(level string) log.Lvl {
	switch strings.ToLower(level) {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	default:
		return log.INFO
	}
}
