package teachers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/akademi-sis/akademi/internal/authz"
	"github.com/akademi-sis/akademi/internal/shared"
	"github.com/akademi-sis/akademi/internal/view"
)

// Handler wires teacher management endpoints. The whole module is
// admin-only: teacher records are not readable by other roles.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	guard     authz.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, guard authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, guard: guard}
}

// MountRoutes registers teacher routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.guard.RequireRole(authz.RoleAdmin))
	r.Get("/", h.list)
	r.Get("/new", h.form)
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Get("/{id}/edit", h.editForm)
	r.Post("/{id}", h.update)
	r.Post("/{id}/delete", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	filters := shared.ListFilters{Page: page, Limit: 20, Search: r.URL.Query().Get("search"), SortDir: r.URL.Query().Get("dir")}
	records, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list teachers failed", slog.Any("error", err))
		http.Error(w, "Failed to load teachers", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/teachers/list.html", map[string]any{
		"Teachers":   records,
		"Filters":    filters,
		"Pagination": shared.NewPagination(filters.Page, filters.Limit, total),
	}, http.StatusOK)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid teacher ID", http.StatusBadRequest)
		return
	}
	teacher, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Teacher not found", http.StatusNotFound)
		return
	}
	classes, err := h.service.OwnedClasses(r.Context(), id)
	if err != nil {
		h.logger.Error("load owned classes failed", slog.Any("error", err), slog.Int64("id", id))
	}
	h.render(w, r, "pages/teachers/detail.html", map[string]any{
		"Teacher": teacher,
		"Classes": classes,
	}, http.StatusOK)
}

func (h *Handler) form(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/teachers/form.html", map[string]any{
		"Errors":  map[string]string{},
		"Teacher": nil,
	}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	teacher := formTeacher(r)
	p := authz.PrincipalFromContext(r.Context())
	created, err := h.service.Create(r.Context(), p, teacher)
	if err != nil {
		h.logger.Error("create teacher failed", slog.Any("error", err))
		h.render(w, r, "pages/teachers/form.html", map[string]any{
			"Errors":  map[string]string{"general": shared.UserSafeMessage(err)},
			"Teacher": teacher,
		}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/teachers/"+strconv.FormatInt(created.ID, 10), "success", "Teacher created")
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid teacher ID", http.StatusBadRequest)
		return
	}
	teacher, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Teacher not found", http.StatusNotFound)
		return
	}
	h.render(w, r, "pages/teachers/form.html", map[string]any{
		"Errors":  map[string]string{},
		"Teacher": teacher,
	}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid teacher ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	teacher := formTeacher(r)
	teacher.IsActive = r.PostFormValue("is_active") == "on"
	p := authz.PrincipalFromContext(r.Context())
	if err := h.service.Update(r.Context(), p, id, teacher); err != nil {
		h.logger.Error("update teacher failed", slog.Any("error", err), slog.Int64("id", id))
		h.render(w, r, "pages/teachers/form.html", map[string]any{
			"Errors":  map[string]string{"general": shared.UserSafeMessage(err)},
			"Teacher": teacher,
		}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/teachers/"+strconv.FormatInt(id, 10), "success", "Teacher updated")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid teacher ID", http.StatusBadRequest)
		return
	}
	p := authz.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), p, id); err != nil {
		h.logger.Error("delete teacher failed", slog.Any("error", err), slog.Int64("id", id))
		h.redirectWithFlash(w, r, "/teachers", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/teachers", "success", "Teacher deleted")
}

func formTeacher(r *http.Request) Teacher {
	return Teacher{
		Number:   r.PostFormValue("number"),
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		Subject:  r.PostFormValue("subject"),
		IsActive: true,
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
		Title:       "Teachers",
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
