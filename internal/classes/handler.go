package classes

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/akademi-sis/akademi/internal/authz"
	"github.com/akademi-sis/akademi/internal/shared"
	"github.com/akademi-sis/akademi/internal/view"
)

// Handler wires class management endpoints.
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

// MountRoutes registers class routes. Creating classes is an admin task;
// a class's own teacher may read and mutate it, enrollments included.
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
		r.Post("/{id}/students", h.enroll)
		r.Post("/{id}/students/{studentID}/remove", h.withdraw)
	})
}

func (h *Handler) resource(r *http.Request) (authz.Resource, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return authz.Resource{}, err
	}
	return h.facts.ClassResource(r.Context(), id)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	filters := shared.ListFilters{Page: page, Limit: 20, Search: r.URL.Query().Get("search")}
	p := authz.PrincipalFromContext(r.Context())
	records, total, err := h.service.List(r.Context(), p, filters)
	if err != nil {
		h.logger.Error("list classes failed", slog.Any("error", err))
		http.Error(w, "Failed to load classes", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/classes/list.html", map[string]any{
		"Classes":    records,
		"Filters":    filters,
		"Pagination": shared.NewPagination(filters.Page, filters.Limit, total),
	}, http.StatusOK)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid class ID", http.StatusBadRequest)
		return
	}
	class, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Class not found", http.StatusNotFound)
		return
	}
	members, err := h.service.Members(r.Context(), id)
	if err != nil {
		h.logger.Error("load class members failed", slog.Any("error", err), slog.Int64("id", id))
	}
	h.render(w, r, "pages/classes/detail.html", map[string]any{
		"Class":   class,
		"Members": members,
	}, http.StatusOK)
}

func (h *Handler) form(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/classes/form.html", map[string]any{
		"Errors": map[string]string{},
		"Class":  nil,
	}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	class := formClass(r)
	p := authz.PrincipalFromContext(r.Context())
	created, err := h.service.Create(r.Context(), p, class)
	if err != nil {
		h.logger.Error("create class failed", slog.Any("error", err))
		h.render(w, r, "pages/classes/form.html", map[string]any{
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
			"Class":  class,
		}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/classes/"+strconv.FormatInt(created.ID, 10), "success", "Class created")
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid class ID", http.StatusBadRequest)
		return
	}
	class, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Class not found", http.StatusNotFound)
		return
	}
	h.render(w, r, "pages/classes/form.html", map[string]any{
		"Errors": map[string]string{},
		"Class":  class,
	}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid class ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	class := formClass(r)
	p := authz.PrincipalFromContext(r.Context())
	if err := h.service.Update(r.Context(), p, id, class); err != nil {
		h.logger.Error("update class failed", slog.Any("error", err), slog.Int64("id", id))
		h.render(w, r, "pages/classes/form.html", map[string]any{
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
			"Class":  class,
		}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/classes/"+strconv.FormatInt(id, 10), "success", "Class updated")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid class ID", http.StatusBadRequest)
		return
	}
	p := authz.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), p, id); err != nil {
		h.logger.Error("delete class failed", slog.Any("error", err), slog.Int64("id", id))
		h.redirectWithFlash(w, r, "/classes", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/classes", "success", "Class deleted")
}

func (h *Handler) enroll(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid class ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	studentID, err := strconv.ParseInt(r.PostFormValue("student_id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/classes/"+chi.URLParam(r, "id"), "error", "Invalid student")
		return
	}
	p := authz.PrincipalFromContext(r.Context())
	if err := h.service.Enroll(r.Context(), p, id, studentID); err != nil {
		h.logger.Error("enroll student failed", slog.Any("error", err), slog.Int64("class_id", id))
		h.redirectWithFlash(w, r, "/classes/"+chi.URLParam(r, "id"), "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/classes/"+chi.URLParam(r, "id"), "success", "Student enrolled")
}

func (h *Handler) withdraw(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid class ID", http.StatusBadRequest)
		return
	}
	studentID, err := strconv.ParseInt(chi.URLParam(r, "studentID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid student ID", http.StatusBadRequest)
		return
	}
	p := authz.PrincipalFromContext(r.Context())
	if err := h.service.Withdraw(r.Context(), p, id, studentID); err != nil {
		h.logger.Error("withdraw student failed", slog.Any("error", err), slog.Int64("class_id", id))
		h.redirectWithFlash(w, r, "/classes/"+chi.URLParam(r, "id"), "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/classes/"+chi.URLParam(r, "id"), "success", "Student withdrawn")
}

func formClass(r *http.Request) Class {
	teacherID, _ := strconv.ParseInt(r.PostFormValue("teacher_id"), 10, 64)
	return Class{
		Code:         r.PostFormValue("code"),
		Name:         r.PostFormValue("name"),
		TeacherID:    teacherID,
		AcademicYear: r.PostFormValue("academic_year"),
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
		Title:       "Classes",
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
