package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/meinhoongagan/gym-booking/config"
	"github.com/meinhoongagan/gym-booking/controllers"
	"github.com/meinhoongagan/gym-booking/cron"
	"github.com/meinhoongagan/gym-booking/db"
	"github.com/meinhoongagan/gym-booking/middleware"
	cache "github.com/meinhoongagan/gym-booking/redis"
	"github.com/meinhoongagan/gym-booking/routes"
	"github.com/meinhoongagan/gym-booking/services"
	"github.com/meinhoongagan/gym-booking/store"
	"github.com/meinhoongagan/gym-booking/utils"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Init(cfg)
	if err != nil {
		slog.Error("database init failed", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(gdb); err != nil {
		slog.Error("database migration failed", "error", err)
		os.Exit(1)
	}
	st := store.NewPostgres(gdb)

	var identities services.IdentityCache
	if client := cache.Connect(ctx, cfg.RedisAddr); client != nil {
		defer client.Close()
		identities = cache.NewIdentityCache(client)
	}

	var mailer services.Mailer
	if m := utils.NewMailer(cfg.SMTP); m != nil {
		mailer = m
	} else {
		slog.Warn("SMTP_HOST is not set, outgoing mail disabled")
	}

	var uploader services.Uploader
	up, err := utils.NewCloudinaryUploader(cfg.Cloudinary)
	switch {
	case err != nil:
		slog.Error("cloudinary init failed, uploads disabled", "error", err)
	case up != nil:
		uploader = up
	default:
		slog.Warn("CLOUDINARY_CLOUD_NAME is not set, uploads disabled")
	}

	tokens := utils.NewJWTIssuer(cfg.JWTSecret, cfg.JWTExpiresIn)
	h := &controllers.Handler{
		Accounts:    services.NewAccounts(st, tokens, uploader, identities),
		Allocator:   services.NewAllocator(st, cfg.Location),
		Coordinator: services.NewCoordinator(st, mailer, identities),
		Store:       st,
	}

	if cfg.CronEnabled {
		hk := services.NewHousekeeper(st, mailer, cfg.Location)
		c, err := cron.Start(ctx, h.Coordinator, hk)
		if err != nil {
			slog.Error("cron start failed", "error", err)
			os.Exit(1)
		}
		defer c.Stop()
	}

	app := fiber.New(fiber.Config{
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		ErrorHandler:          middleware.ErrorHandler,
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           90 * time.Second,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(middleware.Timeout(cfg.RequestTimeout))

	routes.Setup(app, h, cfg.JWTSecret)

	go func() {
		slog.Info("server listening", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
