package grades

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/akademi-sis/akademi/internal/authz"
	"github.com/akademi-sis/akademi/internal/shared"
	"github.com/akademi-sis/akademi/internal/view"
)

// Handler wires grading endpoints.
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

// MountRoutes registers grading routes. Class score entry is guarded by
// class ownership, the personal view by the student role, and term
// lifecycle changes are admin only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ActionWrite, h.classResource))
		r.Get("/class/{classID}", h.classSheet)
		r.Post("/class/{classID}", h.save)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(authz.RoleStudent))
		r.Get("/me", h.mine)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(authz.RoleAdmin))
		r.Get("/terms", h.terms)
		r.Post("/terms/{termID}/status", h.transitionTerm)
	})
}

func (h *Handler) classResource(r *http.Request) (authz.Resource, error) {
	classID, err := strconv.ParseInt(chi.URLParam(r, "classID"), 10, 64)
	if err != nil {
		return authz.Resource{}, err
	}
	return h.facts.GradeResource(r.Context(), 0, classID)
}

func (h *Handler) classSheet(w http.ResponseWriter, r *http.Request) {
	classID, err := strconv.ParseInt(chi.URLParam(r, "classID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid class ID", http.StatusBadRequest)
		return
	}
	term, err := h.resolveTerm(r)
	if err != nil {
		http.Error(w, "Term not found", http.StatusNotFound)
		return
	}
	records, err := h.service.ForClass(r.Context(), classID, term.ID)
	if err != nil {
		h.logger.Error("load class grades failed", slog.Any("error", err), slog.Int64("class_id", classID))
		http.Error(w, "Failed to load grades", http.StatusInternalServerError)
		return
	}
	terms, err := h.service.Terms(r.Context())
	if err != nil {
		h.logger.Error("load terms failed", slog.Any("error", err))
	}
	h.render(w, r, "pages/grades/class.html", map[string]any{
		"ClassID":  classID,
		"Term":     term,
		"Terms":    terms,
		"Grades":   records,
		"TermOpen": term.Status == shared.TermStatusOpen,
	}, http.StatusOK)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	classID, err := strconv.ParseInt(chi.URLParam(r, "classID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid class ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	grade, err := formGrade(r, classID)
	if err != nil {
		h.redirectWithFlash(w, r, gradesURL(classID, grade.TermID), "error", "Invalid score")
		return
	}
	p := authz.PrincipalFromContext(r.Context())
	if err := h.service.Save(r.Context(), p, grade); err != nil {
		h.logger.Error("save grade failed", slog.Any("error", err), slog.Int64("class_id", classID))
		h.redirectWithFlash(w, r, gradesURL(classID, grade.TermID), "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, gradesURL(classID, grade.TermID), "success", "Grade saved")
}

func (h *Handler) mine(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	if p.StudentID == 0 {
		http.Error(w, "No student record linked to this account", http.StatusForbidden)
		return
	}
	records, err := h.service.ForStudent(r.Context(), p.StudentID)
	if err != nil {
		h.logger.Error("load student grades failed", slog.Any("error", err), slog.Int64("student_id", p.StudentID))
		http.Error(w, "Failed to load grades", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/grades/me.html", map[string]any{
		"Grades": records,
	}, http.StatusOK)
}

func (h *Handler) terms(w http.ResponseWriter, r *http.Request) {
	terms, err := h.service.Terms(r.Context())
	if err != nil {
		h.logger.Error("load terms failed", slog.Any("error", err))
		http.Error(w, "Failed to load terms", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/grades/terms.html", map[string]any{
		"Terms":    terms,
		"Statuses": []string{shared.TermStatusOpen, shared.TermStatusClosed, shared.TermStatusLocked},
	}, http.StatusOK)
}

func (h *Handler) transitionTerm(w http.ResponseWriter, r *http.Request) {
	termID, err := strconv.ParseInt(chi.URLParam(r, "termID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid term ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	target := r.PostFormValue("status")
	override := r.PostFormValue("override") == "1"
	p := authz.PrincipalFromContext(r.Context())
	if err := h.service.TransitionTerm(r.Context(), p, termID, target, override); err != nil {
		h.logger.Error("term transition failed", slog.Any("error", err), slog.Int64("term_id", termID))
		h.redirectWithFlash(w, r, "/grades/terms", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/grades/terms", "success", "Term updated")
}

func (h *Handler) resolveTerm(r *http.Request) (Term, error) {
	if raw := r.URL.Query().Get("term"); raw != "" {
		termID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Term{}, err
		}
		return h.service.Term(r.Context(), termID)
	}
	return h.service.CurrentTerm(r.Context())
}

func formGrade(r *http.Request, classID int64) (Grade, error) {
	studentID, err := strconv.ParseInt(r.PostFormValue("student_id"), 10, 64)
	if err != nil {
		return Grade{}, err
	}
	termID, err := strconv.ParseInt(r.PostFormValue("term_id"), 10, 64)
	if err != nil {
		return Grade{}, err
	}
	score, err := strconv.ParseFloat(r.PostFormValue("score"), 64)
	if err != nil {
		return Grade{TermID: termID}, err
	}
	return Grade{
		ClassID:   classID,
		StudentID: studentID,
		TermID:    termID,
		Subject:   r.PostFormValue("subject"),
		Score:     score,
	}, nil
}

func gradesURL(classID, termID int64) string {
	url := "/grades/class/" + strconv.FormatInt(classID, 10)
	if termID > 0 {
		url += "?term=" + strconv.FormatInt(termID, 10)
	}
	return url
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Grades",
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
