package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/coursehub/coursehub-lms/internal/api/http"
	authx "github.com/coursehub/coursehub-lms/internal/auth"
	auth "github.com/coursehub/coursehub-lms/internal/auth/middleware"
	"github.com/coursehub/coursehub-lms/internal/config"
	"github.com/coursehub/coursehub-lms/internal/db"
	"github.com/coursehub/coursehub-lms/internal/eventlog"
	"github.com/coursehub/coursehub-lms/internal/exam"
	"github.com/coursehub/coursehub-lms/internal/rbac"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := exam.NewSQLStore(dbh)
	events := eventlog.NewRepo(dbh)

	svc := exam.NewService(store, store, store, store, store,
		exam.WithEventSink(events),
		exam.WithHardMaxAttempts(cfg.HardMaxAttempts),
		exam.WithTimeLimitPolicy(cfg.SecondsPerQuestion, cfg.MinTimeLimitSec),
		exam.WithDefaultPassingScore(cfg.DefaultPassingScore),
	)

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))
	}
	if cfg.EnableGuestAuth {
		r.Post("/auth/guest", authx.GuestLoginHandler(authSvc, dbh, cfg))
	}

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh, cfg.Mode == config.ModeOffline))

		pr.With(rbac.Require(rbac.PermExamView)).
			Get("/courses/{courseID}/exams", api.ListExamsHandler(svc))
		pr.With(rbac.Require(rbac.PermExamView)).
			Get("/courses/{courseID}/exams/{examID}", api.ExamOverviewHandler(svc))

		pr.With(rbac.Require(rbac.PermAttemptCreate)).
			Post("/courses/{courseID}/exams/{examID}/attempts", api.StartAttemptHandler(svc))
		pr.With(rbac.RequireAny(rbac.PermAttemptViewOwn, rbac.PermAttemptViewAll)).
			Get("/attempts/{attemptID}", api.GetAttemptHandler(svc))
		pr.With(rbac.Require(rbac.PermAttemptSave)).
			Patch("/attempts/{attemptID}/answers", api.SaveAnswerHandler(svc))
		pr.With(rbac.Require(rbac.PermAttemptSubmit)).
			Post("/attempts/{attemptID}/submit", api.SubmitAttemptHandler(svc))

		pr.With(rbac.Require(rbac.PermCertificateClaim)).
			Post("/courses/{courseID}/certificate", api.ClaimCertificateHandler(svc))
		pr.With(rbac.Require(rbac.PermCertificateViewOwn)).
			Get("/certificates", api.ListCertificatesHandler(svc))

		// Audit trail; only admin's wildcard grants this.
		pr.With(rbac.Require("events:view")).
			Get("/events", api.ListEventsHandler(events))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	log.Printf("gateway listening on %s (mode=%s driver=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
