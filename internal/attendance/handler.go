package attendance

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/akademi-sis/akademi/internal/authz"
	"github.com/akademi-sis/akademi/internal/shared"
	"github.com/akademi-sis/akademi/internal/view"
)

const dateLayout = "2006-01-02"

// Handler wires attendance endpoints.
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

// MountRoutes registers attendance routes. The class sheet is guarded by
// class ownership, the personal view by the student role.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ActionWrite, h.classResource))
		r.Get("/class/{classID}", h.sheet)
		r.Post("/class/{classID}", h.save)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(authz.RoleStudent))
		r.Get("/me", h.mine)
	})
}

func (h *Handler) classResource(r *http.Request) (authz.Resource, error) {
	classID, err := strconv.ParseInt(chi.URLParam(r, "classID"), 10, 64)
	if err != nil {
		return authz.Resource{}, err
	}
	return h.facts.AttendanceResource(r.Context(), 0, classID)
}

func (h *Handler) sheet(w http.ResponseWriter, r *http.Request) {
	classID, err := strconv.ParseInt(chi.URLParam(r, "classID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid class ID", http.StatusBadRequest)
		return
	}
	date := parseDate(r.URL.Query().Get("date"))
	entries, err := h.service.Sheet(r.Context(), classID, date)
	if err != nil {
		h.logger.Error("load attendance sheet failed", slog.Any("error", err), slog.Int64("class_id", classID))
		http.Error(w, "Failed to load attendance", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/attendance/sheet.html", map[string]any{
		"ClassID":  classID,
		"Date":     date.Format(dateLayout),
		"Entries":  entries,
		"Statuses": []string{StatusPresent, StatusSick, StatusLeave, StatusLate, StatusAbsent},
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
	date := parseDate(r.PostFormValue("date"))
	marks := formMarks(r)
	p := authz.PrincipalFromContext(r.Context())
	if err := h.service.SaveSheet(r.Context(), p, classID, date, marks); err != nil {
		h.logger.Error("save attendance failed", slog.Any("error", err), slog.Int64("class_id", classID))
		h.redirectWithFlash(w, r, sheetURL(classID, date), "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, sheetURL(classID, date), "success", "Attendance saved")
}

func (h *Handler) mine(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	if p.StudentID == 0 {
		http.Error(w, "No student record linked to this account", http.StatusForbidden)
		return
	}
	to := time.Now()
	from := to.AddDate(0, -1, 0)
	if v := r.URL.Query().Get("from"); v != "" {
		from = parseDate(v)
	}
	if v := r.URL.Query().Get("to"); v != "" {
		to = parseDate(v)
	}
	entries, err := h.service.ForStudent(r.Context(), p.StudentID, from, to)
	if err != nil {
		h.logger.Error("load student attendance failed", slog.Any("error", err), slog.Int64("student_id", p.StudentID))
		http.Error(w, "Failed to load attendance", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/attendance/me.html", map[string]any{
		"Entries": entries,
		"From":    from.Format(dateLayout),
		"To":      to.Format(dateLayout),
	}, http.StatusOK)
}

// formMarks collects status_<studentID> and note_<studentID> fields.
func formMarks(r *http.Request) map[int64]Entry {
	marks := make(map[int64]Entry)
	for key, values := range r.PostForm {
		idPart, ok := strings.CutPrefix(key, "status_")
		if !ok || len(values) == 0 {
			continue
		}
		studentID, err := strconv.ParseInt(idPart, 10, 64)
		if err != nil {
			continue
		}
		marks[studentID] = Entry{
			StudentID: studentID,
			Status:    values[0],
			Note:      r.PostFormValue("note_" + idPart),
		}
	}
	return marks
}

func sheetURL(classID int64, date time.Time) string {
	return "/attendance/class/" + strconv.FormatInt(classID, 10) + "?date=" + date.Format(dateLayout)
}

func parseDate(raw string) time.Time {
	if d, err := time.Parse(dateLayout, raw); err == nil {
		return d
	}
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Attendance",
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
