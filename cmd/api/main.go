package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve in minimal containers

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	// Application Layer
	appService "notifier/internal/application/service"

	// Domain Layer
	"notifier/internal/domain/entity"

	// Infrastructure Layer
	"notifier/internal/infrastructure/console"
	"notifier/internal/infrastructure/database/sqlite"
	"notifier/internal/infrastructure/filestore"
	"notifier/internal/infrastructure/ical"
	lineClient "notifier/internal/infrastructure/line"
	"notifier/internal/infrastructure/metrics"
	"notifier/internal/infrastructure/scheduler"

	// Interfaces Layer
	"notifier/internal/interfaces/api/handler"
	"notifier/internal/interfaces/api/router"

	// Packages
	"notifier/internal/pkg/config"
	appLogger "notifier/internal/pkg/logger"

	_ "github.com/joho/godotenv/autoload" // Automatically load .env file
)

func gracefulShutdown(apiServer *http.Server, coordinator appService.CoordinatorService, db *gorm.DB, stopDispatch context.CancelFunc, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("Shutting down gracefully, press Ctrl+C again to force")

	// Stop accepting webhook callbacks and API calls first
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	// Stop cron, drain the dispatcher, write the reminder file
	log.Println("Stopping notification engine...")
	if err := coordinator.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error stopping notification engine: %v", err)
	} else {
		log.Println("Notification engine stopped.")
	}
	stopDispatch()

	// Close database connection
	log.Println("Closing database connection...")
	if err := sqlite.CloseDB(db); err != nil {
		log.Printf("Error closing database: %v", err)
	} else {
		log.Println("Database connection closed.")
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {
	// --- Initialization ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	appLog := appLogger.New(cfg.LogLevel)
	appLog.Info("Logger initialized.")
	ctx := context.Background()

	// --- Infrastructure ---
	db, err := sqlite.NewDB(cfg.SettingsDBURL, appLog)
	if err != nil {
		appLog.Error("Failed to open settings database", err)
		os.Exit(1)
	}
	settingsRepo := sqlite.NewSettingsRepository(db)

	reminderRepo, err := filestore.NewReminderRepository(cfg.ReminderFile, appLog)
	if err != nil {
		appLog.Error("Failed to prepare reminder file", err)
		os.Exit(1)
	}

	observer, err := metrics.NewObserver("notifier", prometheus.DefaultRegisterer)
	if err != nil {
		appLog.Error("Failed to register metrics", err)
		os.Exit(1)
	}

	var presenter appService.Presenter = console.NewPresenter(cfg.Timezone, appLog)
	var line *lineClient.Client
	if cfg.LineEnabled() {
		line, err = lineClient.NewClient(cfg.LineChannelSecret, cfg.LineChannelToken, appLog)
		if err != nil {
			appLog.Error("Failed to create LINE client", err)
			os.Exit(1)
		}
		presenter = lineClient.NewPresenter(line, cfg.LineTargetUserID, cfg.Timezone, appLog)
	} else {
		appLog.Warn("LINE is not configured, reminders will be written to the log")
	}

	cronScheduler := scheduler.NewScheduler(cfg.Timezone, appLog)

	// --- Application Services ---
	// Stored settings are applied by coordinator.Start before any event or tick.
	reminderSvc := appService.NewReminderService(ctx, reminderRepo, entity.DefaultSettings(), observer, appLog)
	dispatcher := appService.NewDispatcher(presenter, cfg.DispatchBuffer, observer, appLog)
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	go dispatcher.Run(dispatchCtx)

	schedulerSvc := appService.NewSchedulerService(
		cronScheduler, reminderSvc, dispatcher,
		cfg.SchedulerInitialDelay, cfg.SchedulerInterval,
		observer, appLog,
	)

	coordinatorCfg := appService.CoordinatorConfig{
		Reminders:     reminderSvc,
		Scheduler:     schedulerSvc,
		SettingsRepo:  settingsRepo,
		CronScheduler: cronScheduler,
		Dispatcher:    dispatcher,
		ReloadSpec:    cfg.CalendarReloadSpec,
		Location:      cfg.Timezone,
	}
	if cfg.ICSPath != "" {
		coordinatorCfg.Source = ical.NewFileSource(cfg.ICSPath, cfg.Timezone, appLog)
	} else {
		appLog.Info("ICS_PATH not set, events must be posted to /events")
	}
	coordinator := appService.NewCoordinatorService(coordinatorCfg, appLog)
	appLog.Info("Application services initialized.")

	// --- Start Engine ---
	if err := coordinator.Start(ctx); err != nil {
		appLog.Error("Failed to start notification engine", err)
		os.Exit(1)
	}

	// --- API Handlers ---
	routerCfg := &router.Config{
		ReminderHandler: handler.NewReminderHandler(coordinator, appLog),
		Metrics:         promhttp.Handler(),
		Logger:          appLog,
	}
	if line != nil {
		routerCfg.LineHandler = handler.NewLineHandler(line, coordinator, cfg.Timezone, appLog)
	}
	appLog.Info("API handlers initialized.")

	// --- Router ---
	echoRouter := router.NewRouter(routerCfg)

	// --- HTTP Server ---
	apiServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      echoRouter,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// --- Start Server & Shutdown Handling ---
	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, coordinator, db, stopDispatch, done)

	appLog.Info(fmt.Sprintf("Server starting on port %d", cfg.Port))
	err = apiServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		appLog.Error("HTTP server ListenAndServe error", err)
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for graceful shutdown signal
	<-done
	appLog.Info("Graceful shutdown complete.")
}
