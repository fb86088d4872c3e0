package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/akademi-sis/akademi/internal/attendance"
	"github.com/akademi-sis/akademi/internal/auth"
	"github.com/akademi-sis/akademi/internal/classes"
	"github.com/akademi-sis/akademi/internal/dashboard"
	"github.com/akademi-sis/akademi/internal/grades"
	"github.com/akademi-sis/akademi/internal/observability"
	"github.com/akademi-sis/akademi/internal/shared"
	"github.com/akademi-sis/akademi/internal/students"
	"github.com/akademi-sis/akademi/internal/teachers"
	"github.com/akademi-sis/akademi/internal/users"
	"github.com/akademi-sis/akademi/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	SessionManager    *shared.SessionManager
	CSRFManager       *shared.CSRFManager
	AuthMiddleware    auth.Middleware
	AuthHandler       *auth.Handler
	DashboardHandler  *dashboard.Handler
	StudentsHandler   *students.Handler
	TeachersHandler   *teachers.Handler
	ClassesHandler    *classes.Handler
	AttendanceHandler *attendance.Handler
	GradesHandler     *grades.Handler
	UsersHandler      *users.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		AuthMiddleware: params.AuthMiddleware,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Group(params.DashboardHandler.MountRoutes)
	r.Route("/students", params.StudentsHandler.MountRoutes)
	r.Route("/teachers", params.TeachersHandler.MountRoutes)
	r.Route("/classes", params.ClassesHandler.MountRoutes)
	r.Route("/attendance", params.AttendanceHandler.MountRoutes)
	r.Route("/grades", params.GradesHandler.MountRoutes)
	r.Route("/users", params.UsersHandler.MountRoutes)

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler lets browsers cache static assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
