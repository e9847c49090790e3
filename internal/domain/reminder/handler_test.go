package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/medirx/medirx/internal/platform/auth"
)

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected echo.HTTPError, got %T (%v)", err, err)
	}
	return he.Code
}

func TestHandler_ListDefaultsToCaller(t *testing.T) {
	svc, _, src := newTestService()
	src.set("p@example.com", "A,B", "1,2")
	svc.DeriveFromPrescription(context.Background(), "p@example.com")
	h, e := NewHandler(svc), echo.New()

	req := httptest.NewRequest(http.MethodGet, "/web/api/reminders", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{Email: "p@example.com", Role: auth.RolePatient}))
	rec := httptest.NewRecorder()
	if err := h.List(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}

	var items []Reminder
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 reminders, got %d", len(items))
	}
}

func TestHandler_UpdateStatus(t *testing.T) {
	svc, repo, src := newTestService()
	src.set("p@example.com", "A", "1")
	svc.DeriveFromPrescription(context.Background(), "p@example.com")
	h, e := NewHandler(svc), echo.New()
	id := repo.items[0].ID.String()

	req := httptest.NewRequest(http.MethodPut, "/web/api/update-reminder?id="+id, strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.UpdateStatus(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}

	var resp struct {
		Message  string   `json:"message"`
		Reminder Reminder `json:"reminder"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Message != "Reminder updated successfully" || resp.Reminder.Status != StatusTaken {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHandler_UpdateStatus_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	h, e := NewHandler(svc), echo.New()

	req := httptest.NewRequest(http.MethodPut, "/?id=00000000-0000-0000-0000-000000000001", strings.NewReader(`{"status":"Taken"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	err := h.UpdateStatus(e.NewContext(req, httptest.NewRecorder()))
	if code := httpCode(t, err); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}

func TestHandler_RoutesRequirePatient(t *testing.T) {
	svc, _, _ := newTestService()
	tokens, err := auth.NewTokenService([]byte("reminder-handler-secret-0123456789ab"))
	if err != nil {
		t.Fatal(err)
	}
	e := echo.New()
	NewHandler(svc).RegisterRoutes(e.Group("/web/api"), tokens)
	doctorTok, _ := tokens.Issue("d1", "d@example.com", auth.RoleDoctor)

	req := httptest.NewRequest(http.MethodGet, "/web/api/reminders?patientEmail=p@example.com", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+doctorTok)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for a doctor token, got %d", rec.Code)
	}
}
