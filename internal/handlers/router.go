package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"fieldforce-backend/internal/logger"
	"fieldforce-backend/internal/metrics"
	"fieldforce-backend/internal/middleware"
	"fieldforce-backend/internal/roster"
	"fieldforce-backend/internal/service"
	"fieldforce-backend/internal/storage"
)

// Services bundles everything the router needs.
type Services struct {
	Users         *service.Directory
	Rates         *service.Rates
	Expenses      *service.Expenses
	Attendance    *service.Attendance
	Visits        *service.Visits
	Notifications *service.Notifications
	TourPlans     *service.TourPlans
	Inventory     *service.Inventory
	Targets       *service.Targets
	Files         storage.Store
	Metrics       *metrics.Metrics
	Log           *zap.Logger
	// Health reports dependency status for /api/health. Optional.
	Health func() map[string]string
}

// RouterConfig holds the HTTP settings.
type RouterConfig struct {
	JWTSecret   string
	TokenTTL    time.Duration
	CORSOrigins []string
	// UploadDir is served under /api/files when receipts are stored locally.
	UploadDir string
}

// NewRouter wires every route.
func NewRouter(cfg RouterConfig, s Services) http.Handler {
	if s.Log == nil {
		s.Log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logger.HTTPMiddleware(s.Log))
	r.Use(chimw.Recoverer)
	if s.Metrics != nil {
		r.Use(s.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authHandler := NewAuthHandler(s.Users, cfg.JWTSecret, cfg.TokenTTL)
	userHandler := NewUserHandler(s.Users)
	ratesHandler := NewRatesHandler(s.Rates)
	expenseHandler := NewExpenseHandler(s.Expenses)
	receiptHandler := NewReceiptHandler(s.Files, s.Expenses, cfg.UploadDir)
	attendanceHandler := NewAttendanceHandler(s.Attendance)
	visitHandler := NewVisitHandler(s.Visits)
	notificationHandler := NewNotificationHandler(s.Notifications)
	tourPlanHandler := NewTourPlanHandler(s.TourPlans)
	inventoryHandler := NewInventoryHandler(s.Inventory)
	targetHandler := NewTargetHandler(s.Targets)
	dashboardHandler := NewDashboardHandler(s.Users, s.Expenses, s.Attendance, s.Visits, s.Notifications)

	// ── Public ──────────────────────────────────────────────────
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "up"}
		if s.Health != nil {
			status = s.Health()
		}
		JSON(w, http.StatusOK, status)
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	}
	r.With(middleware.RateLimit(1, 5)).Post("/api/auth/login", authHandler.Login)
	r.Get("/api/files/*", receiptHandler.ServeFile)

	// ── Authenticated ───────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))

		r.Get("/api/auth/me", authHandler.Me)
		r.Get("/api/dashboard/me", dashboardHandler.Field)

		r.Get("/api/users/{id}", userHandler.Get)
		r.Get("/api/rates", ratesHandler.Get)

		// Expenses
		r.Get("/api/expenses/sheets/{userId}/{year}/{month}", expenseHandler.Get)
		r.Get("/api/expenses/history/{userId}", expenseHandler.History)
		r.Route("/api/expenses/{sheetId}", func(r chi.Router) {
			r.Patch("/entries", expenseHandler.UpdateEntries)
			r.Post("/entries/{entryId}/receipt", receiptHandler.Upload)
			r.Post("/submit", expenseHandler.Submit)
			r.Post("/approve", expenseHandler.Approve)
			r.Post("/reject", expenseHandler.Reject)
			r.Post("/reprice", expenseHandler.Reprice)
		})

		// Attendance
		r.Get("/api/attendance/today", attendanceHandler.Today)
		r.Post("/api/attendance/punch", attendanceHandler.Punch)
		r.Get("/api/attendance/{userId}/{date}", attendanceHandler.Day)

		// Customers & visits
		r.Get("/api/customers", visitHandler.ListCustomers)
		r.Post("/api/customers", visitHandler.CreateCustomer)
		r.Post("/api/customers/{id}/tag", visitHandler.Tag)
		r.Post("/api/visits", visitHandler.Record)
		r.Get("/api/visits/{userId}/{date}", visitHandler.List)

		// Tour plans
		r.Get("/api/tour-plans/monthly/{userId}/{year}/{month}", tourPlanHandler.Get)
		r.Route("/api/tour-plans/{planId}", func(r chi.Router) {
			r.Patch("/entries", tourPlanHandler.UpdateEntries)
			r.Post("/submit", tourPlanHandler.Submit)
			r.Post("/approve", tourPlanHandler.Approve)
			r.Post("/reject", tourPlanHandler.Reject)
		})

		// Inventory & targets
		r.Get("/api/inventory/items", inventoryHandler.Items)
		r.Get("/api/inventory/stock/{userId}", inventoryHandler.Stock)
		r.Get("/api/inventory/transactions", inventoryHandler.Transactions)
		r.Post("/api/inventory/return", inventoryHandler.Return)
		r.Get("/api/targets/{userId}/{year}/{month}", targetHandler.Get)

		// Notifications
		r.Get("/api/notifications", notificationHandler.List)
		r.Post("/api/notifications/{id}/read", notificationHandler.MarkRead)

		// Managers and above
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireMinRole(roster.RoleASM))

			r.Get("/api/team", userHandler.Team)
			r.Get("/api/attendance/team", attendanceHandler.TeamStatus)
			r.Get("/api/dashboard/team", dashboardHandler.Manager)
			r.Get("/api/expenses/pending", expenseHandler.Pending)
			r.Get("/api/tour-plans/pending", tourPlanHandler.Pending)
			r.Post("/api/inventory/issue", inventoryHandler.Issue)
			r.Put("/api/targets/{userId}/{year}/{month}", targetHandler.Put)
		})

		// Admin only
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireMinRole(roster.RoleAdmin))

			r.Post("/api/users", userHandler.Create)
			r.Patch("/api/users/{id}", userHandler.Update)
			r.Put("/api/rates", ratesHandler.Put)
		})
	})

	return r
}
