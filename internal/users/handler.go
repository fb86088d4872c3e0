package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/akademi-sis/akademi/internal/authz"
	"github.com/akademi-sis/akademi/internal/shared"
	"github.com/akademi-sis/akademi/internal/view"
)

// Handler wires account administration endpoints. Everything here is
// admin only.
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

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(authz.RoleAdmin))
		r.Get("/", h.list)
		r.Get("/new", h.form)
		r.Post("/", h.create)
		r.Get("/{id}/edit", h.editForm)
		r.Post("/{id}", h.update)
		r.Post("/{id}/activate", h.activate)
		r.Post("/{id}/deactivate", h.deactivate)
		r.Post("/{id}/reset-password", h.resetPassword)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	filters := shared.ListFilters{Page: page, Limit: 20, Search: r.URL.Query().Get("search")}
	accounts, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list accounts failed", slog.Any("error", err))
		http.Error(w, "Failed to load accounts", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/users/list.html", map[string]any{
		"Accounts":   accounts,
		"Filters":    filters,
		"Pagination": shared.NewPagination(filters.Page, filters.Limit, total),
	}, http.StatusOK)
}

func (h *Handler) form(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/users/form.html", map[string]any{
		"Errors":  map[string]string{},
		"Account": nil,
	}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	input := formInput(r)
	p := authz.PrincipalFromContext(r.Context())
	created, err := h.service.Create(r.Context(), p, input)
	if err != nil {
		h.logger.Error("create account failed", slog.Any("error", err))
		h.render(w, r, "pages/users/form.html", map[string]any{
			"Errors":  map[string]string{"general": shared.UserSafeMessage(err)},
			"Account": input,
		}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/users", "success", "Account created for "+created.Email)
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid account ID", http.StatusBadRequest)
		return
	}
	account, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Account not found", http.StatusNotFound)
		return
	}
	h.render(w, r, "pages/users/form.html", map[string]any{
		"Errors":    map[string]string{},
		"Account":   account,
		"AccountID": account.ID,
	}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid account ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	input := formInput(r)
	p := authz.PrincipalFromContext(r.Context())
	if err := h.service.Update(r.Context(), p, id, input); err != nil {
		h.logger.Error("update account failed", slog.Any("error", err), slog.Int64("id", id))
		h.render(w, r, "pages/users/form.html", map[string]any{
			"Errors":    map[string]string{"general": shared.UserSafeMessage(err)},
			"Account":   input,
			"AccountID": id,
		}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/users", "success", "Account updated")
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true, "Account activated")
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false, "Account deactivated")
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool, message string) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid account ID", http.StatusBadRequest)
		return
	}
	p := authz.PrincipalFromContext(r.Context())
	if err := h.service.SetActive(r.Context(), p, id, active); err != nil {
		h.logger.Error("toggle account failed", slog.Any("error", err), slog.Int64("id", id))
		h.redirectWithFlash(w, r, "/users", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/users", "success", message)
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid account ID", http.StatusBadRequest)
		return
	}
	p := authz.PrincipalFromContext(r.Context())
	if err := h.service.ResetPassword(r.Context(), p, id); err != nil {
		h.logger.Error("reset password failed", slog.Any("error", err), slog.Int64("id", id))
		h.redirectWithFlash(w, r, "/users", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/users", "success", "Password reset; new credentials emailed")
}

func formInput(r *http.Request) Input {
	teacherID, _ := strconv.ParseInt(r.PostFormValue("teacher_id"), 10, 64)
	studentID, _ := strconv.ParseInt(r.PostFormValue("student_id"), 10, 64)
	return Input{
		Email:     r.PostFormValue("email"),
		Password:  r.PostFormValue("password"),
		Role:      r.PostFormValue("role"),
		TeacherID: teacherID,
		StudentID: studentID,
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
		Title:       "Accounts",
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
