package cmd

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	config "time-bank.com/time-bank/internal/configs"
	httpapi "time-bank.com/time-bank/internal/http"
	"time-bank.com/time-bank/internal/notify"
	repository "time-bank.com/time-bank/internal/repositories"
	"time-bank.com/time-bank/internal/services"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP API server",
	Long:  "Starts the time bank HTTP API and the notification dispatcher",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		store := repository.NewStore(db)

		var (
			sender notify.Sender = notify.LogSender{}
			inbox  httpapi.Inbox
		)
		if cfg.NotifyDriver == config.NotifyRedis {
			redisClient, err := config.NewRedisClient(cfg.RedisAddr)
			if err != nil {
				return err
			}
			defer redisClient.Close()

			redisSender := notify.NewRedisSender(redisClient, cfg.NotifyChannel)
			sender, inbox = redisSender, redisSender
			log.Printf("notifications published to redis %s on %s", cfg.RedisAddr, cfg.NotifyChannel)
		}

		dispatcher := notify.NewDispatcher(sender, cfg.NotifyWorkers, cfg.NotifyQueueSize, cfg.NotifySendTimeout)

		taskService := services.NewTaskService(store, dispatcher, services.Options{
			StoreTimeout:         cfg.StoreTimeout,
			OverReportFactor:     decimal.NewFromFloat(cfg.OverReportFactor),
			DebitOwnerOnApproval: cfg.DebitOwnerOnApproval,
		})
		userService := services.NewUserService(store, cfg.StoreTimeout)

		decimal.MarshalJSONWithoutQuotes = true

		e := echo.New()
		e.HideBanner = true

		handler := httpapi.NewHandler(taskService, userService, inbox)
		httpapi.Register(e, handler, userService, httpapi.RateLimits{
			PerCaller: cfg.RateLimit,
			PerIP:     cfg.IPRateLimit,
		})

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

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
		dispatcher.Shutdown(shutdownCtx)

		log.Println("HTTP server and notification dispatcher shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
