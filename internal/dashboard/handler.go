package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/akademi-sis/akademi/internal/authz"
	"github.com/akademi-sis/akademi/internal/shared"
	"github.com/akademi-sis/akademi/internal/view"
)

// Handler renders the role-scoped landing page.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	guard     authz.Middleware
	printer   *message.Printer
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, guard authz.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		guard:     guard,
		printer:   message.NewPrinter(language.English),
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(authz.RoleAdmin, authz.RoleTeacher, authz.RoleStudent))
		r.Get("/", h.show)
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	switch p.Role {
	case authz.RoleAdmin:
		h.admin(w, r, p)
	case authz.RoleTeacher:
		h.teacher(w, r, p)
	case authz.RoleStudent:
		h.student(w, r, p)
	default:
		http.Error(w, "Forbidden", http.StatusForbidden)
	}
}

func (h *Handler) admin(w http.ResponseWriter, r *http.Request, p authz.Principal) {
	stats, err := h.service.AdminStats(r.Context())
	if err != nil {
		h.logger.Error("load admin dashboard failed", slog.Any("error", err))
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/dashboard/admin.html", map[string]any{
		"Stats":    stats,
		"Students": h.printer.Sprintf("%d", stats.Students),
		"Teachers": h.printer.Sprintf("%d", stats.Teachers),
		"Classes":  h.printer.Sprintf("%d", stats.Classes),
	})
}

func (h *Handler) teacher(w http.ResponseWriter, r *http.Request, p authz.Principal) {
	stats, err := h.service.TeacherStats(r.Context(), p)
	if err != nil {
		h.logger.Error("load teacher dashboard failed", slog.Any("error", err), slog.Int64("teacher_id", p.TeacherID))
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/dashboard/teacher.html", map[string]any{
		"Stats":    stats,
		"Students": h.printer.Sprintf("%d", stats.Students),
	})
}

func (h *Handler) student(w http.ResponseWriter, r *http.Request, p authz.Principal) {
	stats, err := h.service.StudentStats(r.Context(), p)
	if err != nil {
		h.logger.Error("load student dashboard failed", slog.Any("error", err), slog.Int64("student_id", p.StudentID))
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/dashboard/student.html", map[string]any{
		"Stats":       stats,
		"PresentRate": h.printer.Sprintf("%.0f%%", stats.PresentRate*100),
	})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Dashboard",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Principal:   authz.PrincipalFromContext(r.Context()),
		Data:        data,
	}
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err), slog.String("template", template))
	}
}
