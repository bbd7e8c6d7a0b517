package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/cofreforte/cofre-backend/internal/billing"
	"github.com/cofreforte/cofre-backend/internal/service"
	"github.com/cofreforte/cofre-backend/internal/testutil"
	"github.com/labstack/echo/v4"
)

func newTestCalendarHandler() (*CalendarHandler, *testutil.MockSubscriptionRepository) {
	repo := testutil.NewMockSubscriptionRepository()
	logos := service.NewLogoService(repo, service.NewImageService(nil))
	h := NewCalendarHandler(service.NewCalendarService(repo), logos)
	h.now = func() time.Time { return time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC) }
	return h, repo
}

func TestGetCalendar(t *testing.T) {
	e := echo.New()
	h, repo := newTestCalendarHandler()
	seedTestSubscription(repo, "Netflix", false)
	seedTestSubscription(repo, "Trial", true)
	paused := seedTestSubscription(repo, "Paused", false)
	paused.IsActive = false

	c, rec := newWorkspaceContext(e, http.MethodGet, "/api/v1/calendar", "")
	if err := h.GetCalendar(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response CalendarResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Horizon != billing.DefaultHorizon {
		t.Errorf("Expected default horizon, got %d", response.Horizon)
	}
	if len(response.Entries) != 2 {
		t.Fatalf("Expected the paused subscription to be left out, got %d entries", len(response.Entries))
	}
	if len(response.Entries[0].Dates) != billing.DefaultHorizon+1 {
		t.Errorf("Expected %d dates, got %d", billing.DefaultHorizon+1, len(response.Entries[0].Dates))
	}
	if response.Entries[0].Dates[0] != "2024-01-15" || response.Entries[0].Dates[1] != "2024-02-15" {
		t.Errorf("Unexpected first dates %v", response.Entries[0].Dates[:2])
	}
	if !response.Entries[1].Ghost {
		t.Error("Expected the second entry to be flagged as ghost")
	}
}

func TestGetCalendar_InvalidHorizon(t *testing.T) {
	for _, q := range []string{"0", "-3", "soon"} {
		t.Run(q, func(t *testing.T) {
			e := echo.New()
			h, _ := newTestCalendarHandler()

			c, rec := newWorkspaceContext(e, http.MethodGet, "/api/v1/calendar?horizon="+q, "")
			if err := h.GetCalendar(c); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", rec.Code)
			}
		})
	}
}

func TestGetCalendar_HorizonCapped(t *testing.T) {
	e := echo.New()
	h, repo := newTestCalendarHandler()
	seedTestSubscription(repo, "Netflix", false)

	c, rec := newWorkspaceContext(e, http.MethodGet, "/api/v1/calendar?horizon=500", "")
	if err := h.GetCalendar(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var response CalendarResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Horizon != service.MaxCalendarHorizon {
		t.Errorf("Expected horizon capped at %d, got %d", service.MaxCalendarHorizon, response.Horizon)
	}
}

func TestGetDay(t *testing.T) {
	e := echo.New()
	h, repo := newTestCalendarHandler()
	seedTestSubscription(repo, "Netflix", false)
	seedTestSubscription(repo, "Trial", true)

	c, rec := newWorkspaceContext(e, http.MethodGet, "/", "")
	c.SetParamNames("date")
	c.SetParamValues("2024-03-15")
	if err := h.GetDay(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response CalendarDayResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response.Data) != 2 {
		t.Errorf("Expected both subscriptions listed, got %d", len(response.Data))
	}
	if response.Total != "39.90" {
		t.Errorf("Expected ghost left out of the total, got %s", response.Total)
	}

	c, rec = newWorkspaceContext(e, http.MethodGet, "/", "")
	c.SetParamNames("date")
	c.SetParamValues("2024-03-16")
	if err := h.GetDay(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response.Data) != 0 || response.Total != "0.00" {
		t.Errorf("Expected an empty day, got %d entries totalling %s", len(response.Data), response.Total)
	}
}

func TestGetDay_InvalidDate(t *testing.T) {
	e := echo.New()
	h, _ := newTestCalendarHandler()

	c, rec := newWorkspaceContext(e, http.MethodGet, "/", "")
	c.SetParamNames("date")
	c.SetParamValues("15-03-2024")
	if err := h.GetDay(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}
