package cmd

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	config "timefiles.com/timefiles/internal/configs"
	httpapi "timefiles.com/timefiles/internal/http"
	"timefiles.com/timefiles/internal/notify"
	"timefiles.com/timefiles/internal/services"
	"timefiles.com/timefiles/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the command bridge",
	Long:  "Opens the timing store, applies pending migrations and serves the command surface over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			log.Println(".env file not found, using environment variables")
		}

		cfg := config.Load()

		store, err := storage.Open(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close()

		var notifier notify.Notifier = notify.Nop{}
		if cfg.RedisAddr != "" {
			redisClient := config.NewRedisClient(cfg.RedisAddr)
			defer redisClient.Close()
			notifier = notify.NewRedisNotifier(redisClient, cfg.RedisNotifyChannel)
		}

		restService := services.NewRestService(store, notifier)
		taskService := services.NewTaskService(store, notifier)
		timerService := services.NewTimerService(store, restService, notifier)
		overviewService := services.NewOverviewService(store)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e := echo.New()
		e.HideBanner = true

		handler := httpapi.NewHandler(taskService, timerService, restService, overviewService)
		httpapi.Register(e, handler, cfg.RateLimit)

		go func() {
			log.Printf("HTTP server listening on %s", cfg.AppURL)
			if err := e.Start(cfg.AppURL); err != nil {
				log.Printf("server stopped: %v", err)
			}
		}()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second,
		)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)

		log.Println("HTTP server shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
