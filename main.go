package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"schoolku_finance/internals/configs"
	database "schoolku_finance/internals/databases"
	"schoolku_finance/internals/databases/docstore"
	"schoolku_finance/internals/features/finance"
	scheduler "schoolku_finance/internals/features/finance/billings/scheduler"
	"schoolku_finance/internals/features/finance/finerr"
	middlewares "schoolku_finance/internals/middlewares"
	routes "schoolku_finance/internals/route"
)

func main() {
	configs.LoadEnv()
	cfg := configs.Load()

	zl, err := configs.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("❌ logger init: %v", err)
	}
	defer zl.Sync()

	// 🔌 store (postgres / memory)
	store, err := database.OpenStore(cfg, zl)
	if err != nil {
		log.Fatalf("❌ store init: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 📡 relay notifikasi antar instance (opsional)
	stopRelay := func() {}
	if h, ok := store.(interface{ Hub() *docstore.Hub }); ok {
		stopRelay = database.StartRelay(ctx, cfg, h.Hub(), zl)
	}

	svc := finance.NewServices(store, zl, finance.Options{ReceiptPrefix: cfg.ReceiptPrefix})

	// ⏱ rekonsiliasi terjadwal
	stopCron, err := scheduler.StartReconcileScheduler(cfg.ReconcileCron, svc.Reconciler, zl.Named("cron"))
	if err != nil {
		log.Fatalf("❌ RECONCILE_CRON %q: %v", cfg.ReconcileCron, err)
	}

	app := fiber.New(fiber.Config{
		// 🚀 JSON super cepat
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return finerr.Respond(c, err)
		},
	})

	middlewares.SetupMiddlewares(app, zl, middlewares.SetupOptions{
		Origins:        middlewares.ParseOrigins(configs.GetEnv("CORS_ALLOW_ORIGINS")),
		RequestTimeout: cfg.RequestTimeout,
	})

	// ✅ Routes
	routes.SetupRoutes(app, cfg, svc)

	// 🔒 Keep-Alive & timeout koneksi server (WriteTimeout 0: SSE long-lived)
	app.Server().ReadTimeout = 15 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	go func() {
		log.Printf("✅ Listening on :%s (store=%s)", cfg.Port, cfg.StoreDriver)
		if err := app.Listen("0.0.0.0:" + cfg.Port); err != nil {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown
	<-ctx.Done()
	log.Println("🛑 Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(shutdownCtx)

	stopCron()
	stopRelay()
	if err := store.Close(); err != nil {
		zl.Warn("store close", zap.Error(err))
	}
}
