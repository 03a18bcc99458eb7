package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"fieldforce-backend/internal/attendance"
	"fieldforce-backend/internal/config"
	"fieldforce-backend/internal/cron"
	"fieldforce-backend/internal/database"
	"fieldforce-backend/internal/geofence"
	"fieldforce-backend/internal/handlers"
	"fieldforce-backend/internal/location"
	"fieldforce-backend/internal/logger"
	"fieldforce-backend/internal/metrics"
	"fieldforce-backend/internal/rates"
	"fieldforce-backend/internal/service"
	"fieldforce-backend/internal/storage"
	"fieldforce-backend/internal/store"
)

func main() {
	// 1. Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Document store: PostgreSQL when configured, memory otherwise
	var docs store.Store
	health := func() map[string]string { return map[string]string{"status": "up", "store": "memory"} }
	if cfg.DB.URL != "" {
		db, err := database.New(ctx, &cfg.DB)
		if err != nil {
			log.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		pg := store.NewPGStore(db.GetPool())
		if err := pg.Migrate(ctx); err != nil {
			log.Fatal("failed to migrate", zap.Error(err))
		}
		docs = pg
		health = db.Health
	} else {
		log.Warn("FF_DB_URL not set, using the in-memory store")
		docs = store.NewMemoryStore()
	}

	// 3. Rates cache
	var cache rates.Cache = rates.NopCache{}
	if cfg.Redis.Addr != "" {
		rc, err := rates.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.RatesTTL)
		if err != nil {
			log.Warn("redis unavailable, rates are read from the store", zap.Error(err))
		} else {
			defer rc.Close()
			cache = rc
		}
	}

	// 4. File storage: R2 when configured, local disk otherwise
	var files storage.Store
	uploadDir := ""
	if cfg.R2.Enabled() {
		files, err = storage.NewR2Store(ctx, cfg.R2)
		if err != nil {
			log.Fatal("failed to initialize R2 storage", zap.Error(err))
		}
	} else {
		local, err := storage.NewLocalStore(cfg.Upload.Dir, cfg.Upload.BaseURL)
		if err != nil {
			log.Fatal("failed to initialize file storage", zap.Error(err))
		}
		files = local
		uploadDir = local.Dir()
	}

	// Attendance exports carry GPS fixes and stay out of the served store.
	var exports storage.Store
	if cfg.R2.Enabled() && cfg.R2.ExportBucket != "" {
		private := cfg.R2
		private.Bucket = cfg.R2.ExportBucket
		private.PublicURL = ""
		exports, err = storage.NewR2Store(ctx, private)
		if err != nil {
			log.Fatal("failed to initialize export storage", zap.Error(err))
		}
	} else {
		exports, err = storage.NewLocalStore(cfg.Upload.ExportDir, "")
		if err != nil {
			log.Fatal("failed to initialize export storage", zap.Error(err))
		}
	}

	// 5. Services
	m := metrics.New()
	env := service.Env{Store: docs, Log: log, Metrics: m}
	gps := service.GPSSettings{
		Attendance: geofence.AccuracyPolicy{MaxAccuracyMeters: cfg.GPS.AttendanceMaxAccuracy},
		Visit: geofence.VisitPolicy{
			RadiusMeters:          cfg.GPS.VisitRadius,
			MaxAccuracyMeters:     cfg.GPS.VisitMaxAccuracy,
			RelaxedMode:           cfg.GPS.RelaxedMode,
			RelaxedAccuracyMeters: cfg.GPS.RelaxedAccuracy,
		},
		Location: location.Options{PrimaryTimeout: cfg.GPS.PrimaryTimeout, FallbackTimeout: cfg.GPS.FallbackTimeout},
	}
	if cfg.GPS.RelaxedMode {
		log.Warn("GPS relaxed mode is on, visit accuracy is not enforced strictly")
	}

	users := service.NewDirectory(env)
	notifications := service.NewNotifications(env)
	rateSvc := service.NewRates(env, cache)
	expenses := service.NewExpenses(env, users, rateSvc, notifications)
	att := service.NewAttendance(env, users, gps, attendance.NewExporter(exports))
	stock := service.NewInventory(env, users)
	visits := service.NewVisits(env, users, gps).WithStock(stock)
	tourPlans := service.NewTourPlans(env, users, notifications)
	targets := service.NewTargets(env, users)

	if n, err := stock.SeedItems(ctx); err != nil {
		log.Fatal("failed to seed inventory items", zap.Error(err))
	} else if n > 0 {
		log.Info("seeded inventory items", zap.Int("count", n))
	}

	if cfg.Admin.Email != "" {
		created, err := users.Bootstrap(ctx, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Name)
		if err != nil {
			log.Fatal("failed to seed admin", zap.Error(err))
		}
		if created {
			log.Info("seeded first admin", zap.String("email", cfg.Admin.Email))
		}
	}

	// 6. Background jobs
	var cronDone <-chan struct{}
	if cfg.Cron.Enabled {
		cronDone = cron.NewNotifier(log, expenses, att, cfg.Cron.ReminderInterval).Start(ctx)
	}

	// 7. Router
	router := handlers.NewRouter(handlers.RouterConfig{
		JWTSecret:   cfg.JWT.Secret,
		TokenTTL:    cfg.JWT.TTL,
		CORSOrigins: cfg.App.CORSOrigins,
		UploadDir:   uploadDir,
	}, handlers.Services{
		Users:         users,
		Rates:         rateSvc,
		Expenses:      expenses,
		Attendance:    att,
		Visits:        visits,
		Notifications: notifications,
		TourPlans:     tourPlans,
		Inventory:     stock,
		Targets:       targets,
		Files:         files,
		Metrics:       m,
		Log:           log,
		Health:        health,
	})

	// 8. Start server with graceful shutdown
	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server started", zap.String("port", cfg.App.Port), zap.String("env", cfg.App.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if cronDone != nil {
		select {
		case <-cronDone:
		case <-shutdownCtx.Done():
			log.Warn("cron still running at shutdown deadline")
		}
	}
	log.Info("server exited properly")
}
