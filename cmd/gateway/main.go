package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	api "github.com/yehyu2004/cosmo/internal/api/http"
	"github.com/yehyu2004/cosmo/internal/audit"
	auth "github.com/yehyu2004/cosmo/internal/auth/middleware"
	"github.com/yehyu2004/cosmo/internal/config"
	"github.com/yehyu2004/cosmo/internal/course"
	"github.com/yehyu2004/cosmo/internal/db"
	"github.com/yehyu2004/cosmo/internal/grading"
	"github.com/yehyu2004/cosmo/internal/grading/pdfx"
	"github.com/yehyu2004/cosmo/internal/ratelimit"
	"github.com/yehyu2004/cosmo/internal/rbac"
	"github.com/yehyu2004/cosmo/internal/storage"
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
	if err := ensureAdmin(ctx, dbh, cfg.AdminUser, cfg.AdminPassHash); err != nil {
		log.Fatalf("admin bootstrap: %v", err)
	}

	store := course.NewSQLStore(dbh, cfg.DBDriver)
	events := audit.NewEventRepo(dbh)

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret, cfg.TokenTTL)

	// --- Blobs ---
	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- AI grading ---
	var oracle grading.Oracle = grading.Unconfigured{}
	if cfg.GeminiAPIKey != "" {
		client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			log.Fatalf("gemini client: %v", err)
		}
		oracle = grading.NewGeminiOracle(client, cfg.GeminiModel)
	} else {
		log.Printf("GEMINI_API_KEY not set; ai grading disabled")
	}
	limiter := ratelimit.NewMemoryLimiter(cfg.AIRateLimit, cfg.AIRateWindow)
	grader := grading.NewService(store, bs, pdfx.New(), oracle, limiter, events)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second)) // oracle round-trips take seconds

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))

	// Protected API (JWT → DB role → impersonation → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh))
		pr.Use(auth.Impersonation(authSvc, dbh))

		// Everyone
		pr.Get("/profile", api.GetProfileHandler(dbh))
		pr.With(rbac.Require("profile:update")).
			Patch("/profile", api.UpdateProfileHandler(dbh))
		pr.With(rbac.RequireAny("grades:view-own", "submission:view-all")).
			Get("/dashboard", api.DashboardHandler(store))

		// Assignments
		pr.With(rbac.Require("assignment:view")).
			Get("/assignments", api.ListAssignmentsHandler(store))
		pr.With(rbac.Require("assignment:view")).
			Get("/assignments/{assignmentID}", api.GetAssignmentHandler(store))
		pr.With(rbac.Require("assignment:create")).
			Post("/assignments", api.CreateAssignmentHandler(store))
		pr.With(rbac.Require("assignment:update")).
			Patch("/assignments/{assignmentID}", api.UpdateAssignmentHandler(store))
		pr.With(rbac.Require("assignment:delete")).
			Delete("/assignments/{assignmentID}", api.DeleteAssignmentHandler(store))

		// Student flow
		pr.With(rbac.Require("submission:create")).
			Post("/upload", api.UploadReportHandler(bs, cfg.MaxUploadBytes))
		pr.With(rbac.Require("submission:create")).
			Post("/submissions", api.SubmitReportHandler(store))
		pr.With(rbac.Require("grades:view-own")).
			Get("/grades", api.ListGradesHandler(store))

		// Staff grading
		pr.With(rbac.Require("submission:view-all")).
			Get("/assignments/{assignmentID}/submissions", api.ListAssignmentSubmissionsHandler(store))
		pr.With(rbac.Require("submission:grade")).
			Post("/grading", api.ApplyGradeHandler(store, events))
		pr.With(rbac.Require("submission:return")).
			Delete("/grading", api.ReturnSubmissionHandler(store, events))
		pr.With(rbac.Require("submission:ai-grade")).
			Put("/grading/ai", api.AIGradeHandler(grader))

		// Admin
		pr.With(rbac.Require("users:list")).
			Get("/users", api.ListUsersHandler(dbh))
		pr.With(rbac.Require("users:create")).
			Post("/users", api.CreateUserHandler(dbh))
		pr.With(rbac.Require("users:update-role")).
			Patch("/users/{userID}/role", api.UpdateUserRoleHandler(dbh, events))
		pr.With(rbac.Require("impersonate")).
			Post("/impersonate", auth.StartImpersonationHandler(authSvc, dbh, events))
		pr.With(rbac.Require("impersonate")).
			Delete("/impersonate", auth.StopImpersonationHandler())
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s, model=%s)", cfg.HTTPAddr, cfg.DBDriver, cfg.GeminiModel)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

func ensureAdmin(ctx context.Context, dbh *sql.DB, username, passHash string) error {
	var id string
	err := dbh.QueryRowContext(ctx, `SELECT id FROM users WHERE username=$1`, username).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	_, err = dbh.ExecContext(ctx, `INSERT INTO users
		(id,username,name,password_hash,role,created_at)
		VALUES ($1,$2,$3,$4,'admin',$5)`,
		uuid.NewString(), username, "Admin", passHash, time.Now().Unix())
	return err
}
