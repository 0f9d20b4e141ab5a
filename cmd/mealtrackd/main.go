package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"meal-attendance-backend/config"
	"meal-attendance-backend/internal/api"
	"meal-attendance-backend/internal/dashboard"
	"meal-attendance-backend/internal/db"
	"meal-attendance-backend/internal/notification"
	"meal-attendance-backend/internal/queue"
	"meal-attendance-backend/internal/reconcile"
	"meal-attendance-backend/internal/reset"
	"meal-attendance-backend/internal/scan"
	"meal-attendance-backend/internal/store"
	"meal-attendance-backend/internal/syncer"
)

func main() {
	logger := log.New(os.Stdout, "mealtrackd ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	// Remote attendance store
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	appStore := store.NewGormStore(gormDB)
	logger.Println("attendance store initialized")

	// Device-local pending-scan queue
	pendingQueue, err := queue.Open(cfg.Queue.Path)
	if err != nil {
		logger.Fatalf("failed to open pending-scan queue: %v", err)
	}
	defer pendingQueue.Close()
	logger.Printf("pending-scan queue opened at %s", cfg.Queue.Path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Staff notice delivery
	workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, &webpushOptions)
	workerPool.Start(ctx)

	// Reconciliation and sync machinery
	reconciler := reconcile.New(appStore)
	syncSvc := syncer.New(pendingQueue, reconciler, workerPool)
	monitor := syncer.NewMonitor(appStore.Ping, cfg.Sync.ProbeInterval, syncSvc)
	go monitor.Run(ctx)

	// Scan intake
	scanSvc := scan.NewService(reconciler, pendingQueue, monitor.Online, cfg.Scan.Debounce)

	// Dashboard projection over the change feed
	projection := dashboard.New(appStore)
	go projection.Run(ctx)

	// Daily reset flow
	resetCtl := reset.NewController(cfg.Reset.URL, cfg.Reset.Token, cfg.Reset.ConfirmTTL, appStore)

	handler := api.NewHandler(appStore, scanSvc, pendingQueue, syncSvc, monitor, resetCtl, projection, &webpushOptions)
	router := api.NewRouter(handler, &cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
