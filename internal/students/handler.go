package students

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/akademi-sis/akademi/internal/authz"
	"github.com/akademi-sis/akademi/internal/shared"
	"github.com/akademi-sis/akademi/internal/view"
)

// Handler wires student management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	guard     authz.Middleware
	facts     *authz.FactFinder
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, guard authz.Middleware, facts *authz.FactFinder) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, guard: guard, facts: facts}
}

// MountRoutes registers student routes. Listing is role-gated and scoped
// in the service; record routes go through the ownership guard.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(authz.RoleAdmin, authz.RoleTeacher))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(authz.RoleAdmin))
		r.Get("/new", h.form)
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ActionRead, h.resource))
		r.Get("/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ActionWrite, h.resource))
		r.Get("/{id}/edit", h.editForm)
		r.Post("/{id}", h.update)
		r.Post("/{id}/delete", h.delete)
	})
}

func (h *Handler) resource(r *http.Request) (authz.Resource, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return authz.Resource{}, err
	}
	return h.facts.StudentResource(r.Context(), id)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filters := parseFilters(r)
	p := authz.PrincipalFromContext(r.Context())
	records, total, err := h.service.List(r.Context(), p, filters)
	if err != nil {
		h.logger.Error("list students failed", slog.Any("error", err))
		http.Error(w, "Failed to load students", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/students/list.html", map[string]any{
		"Students":   records,
		"Filters":    filters,
		"Pagination": shared.NewPagination(filters.Page, filters.Limit, total),
	}, http.StatusOK)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid student ID", http.StatusBadRequest)
		return
	}
	student, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Student not found", http.StatusNotFound)
		return
	}
	enrollments, err := h.service.Enrollments(r.Context(), id)
	if err != nil {
		h.logger.Error("load enrollments failed", slog.Any("error", err), slog.Int64("id", id))
	}
	h.render(w, r, "pages/students/detail.html", map[string]any{
		"Student":     student,
		"Enrollments": enrollments,
	}, http.StatusOK)
}

func (h *Handler) form(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/students/form.html", map[string]any{
		"Errors":  map[string]string{},
		"Student": nil,
	}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	student := formStudent(r)
	p := authz.PrincipalFromContext(r.Context())
	created, err := h.service.Create(r.Context(), p, student)
	if err != nil {
		h.logger.Error("create student failed", slog.Any("error", err))
		h.render(w, r, "pages/students/form.html", map[string]any{
			"Errors":  map[string]string{"general": shared.UserSafeMessage(err)},
			"Student": student,
		}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/students/"+strconv.FormatInt(created.ID, 10), "success", "Student created")
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid student ID", http.StatusBadRequest)
		return
	}
	student, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Student not found", http.StatusNotFound)
		return
	}
	h.render(w, r, "pages/students/form.html", map[string]any{
		"Errors":  map[string]string{},
		"Student": student,
	}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid student ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	student := formStudent(r)
	student.IsActive = r.PostFormValue("is_active") == "on"
	p := authz.PrincipalFromContext(r.Context())
	if err := h.service.Update(r.Context(), p, id, student); err != nil {
		h.logger.Error("update student failed", slog.Any("error", err), slog.Int64("id", id))
		h.render(w, r, "pages/students/form.html", map[string]any{
			"Errors":  map[string]string{"general": shared.UserSafeMessage(err)},
			"Student": student,
		}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/students/"+strconv.FormatInt(id, 10), "success", "Student updated")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid student ID", http.StatusBadRequest)
		return
	}
	p := authz.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), p, id); err != nil {
		h.logger.Error("delete student failed", slog.Any("error", err), slog.Int64("id", id))
		h.redirectWithFlash(w, r, "/students", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/students", "success", "Student deleted")
}

func formStudent(r *http.Request) Student {
	return Student{
		Number:        r.PostFormValue("number"),
		Name:          r.PostFormValue("name"),
		Email:         r.PostFormValue("email"),
		GuardianName:  r.PostFormValue("guardian_name"),
		GuardianPhone: r.PostFormValue("guardian_phone"),
		IsActive:      true,
	}
}

func parseFilters(r *http.Request) shared.ListFilters {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 20
	}
	return shared.ListFilters{
		Page:    page,
		Limit:   limit,
		Search:  r.URL.Query().Get("search"),
		SortBy:  r.URL.Query().Get("sort"),
		SortDir: r.URL.Query().Get("dir"),
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Students",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Principal:   authz.PrincipalFromContext(r.Context()),
		Data:        data,
	}
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err), slog.String("template", template))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
