package view

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akademi-sis/akademi/internal/authz"
)

func TestEngineRendersLoginPage(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = engine.Render(rec, "pages/login.html", TemplateData{
		Title:     "Sign in",
		CSRFToken: "tok",
		Data: map[string]any{
			"Form":   struct{ Email, Password string }{},
			"Errors": map[string]string{},
		},
	})
	require.NoError(t, err)

	body := rec.Body.String()
	assert.Contains(t, body, "<form")
	assert.Contains(t, body, `name="csrf_token"`)
	assert.Contains(t, body, "Sign in")
}

func TestEngineUnknownTemplate(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = engine.Render(rec, "pages/missing.html", TemplateData{})
	assert.Error(t, err)
}

func TestNavScopesByRole(t *testing.T) {
	admin := TemplateData{Principal: authz.Principal{UserID: 1, Role: authz.RoleAdmin}}
	teacher := TemplateData{Principal: authz.Principal{UserID: 2, Role: authz.RoleTeacher, TeacherID: 2}}
	student := TemplateData{Principal: authz.Principal{UserID: 3, Role: authz.RoleStudent, StudentID: 9}}
	anonymous := TemplateData{}

	paths := func(links []NavLink) []string {
		var out []string
		for _, l := range links {
			out = append(out, l.Path)
		}
		return out
	}

	assert.Contains(t, paths(admin.Nav()), "/users")
	assert.NotContains(t, paths(teacher.Nav()), "/users")
	assert.NotContains(t, paths(teacher.Nav()), "/teachers")
	assert.Contains(t, paths(student.Nav()), "/grades/me")
	assert.NotContains(t, paths(student.Nav()), "/students")
	assert.Nil(t, anonymous.Nav())
}
