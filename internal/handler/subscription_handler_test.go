package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/cofreforte/cofre-backend/internal/service"
	"github.com/cofreforte/cofre-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const testWorkspaceID int32 = 7

func newTestSubscriptionHandler() (*SubscriptionHandler, *testutil.MockSubscriptionRepository) {
	repo := testutil.NewMockSubscriptionRepository()
	logos := service.NewLogoService(repo, service.NewImageService(nil))
	h := NewSubscriptionHandler(service.NewSubscriptionService(repo, logos), logos)
	h.now = func() time.Time { return time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC) }
	return h, repo
}

func newWorkspaceContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|subs", "subs@example.com", "Subs", "", testWorkspaceID)
	return c, rec
}

func seedTestSubscription(repo *testutil.MockSubscriptionRepository, name string, ghost bool) *domain.Subscription {
	return repo.AddSubscription(&domain.Subscription{
		WorkspaceID: testWorkspaceID,
		Name:        name,
		Value:       decimal.RequireFromString("39.90"),
		Cycle:       domain.CycleMonthly,
		BillingDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Category:    domain.CategoryStreaming,
		IsActive:    true,
		IsGhost:     ghost,
	})
}

func TestCreateSubscription_Success(t *testing.T) {
	e := echo.New()
	h, repo := newTestSubscriptionHandler()

	body := `{"name":"Netflix","value":"55.90","cycle":"monthly","billingDate":"2024-01-15","category":"Streaming","sharedWithCount":2}`
	c, rec := newWorkspaceContext(e, http.MethodPost, "/api/v1/subscriptions", body)

	if err := h.CreateSubscription(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response SubscriptionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Value != "55.90" {
		t.Errorf("Expected value 55.90, got %s", response.Value)
	}
	if response.UserShare != "27.95" {
		t.Errorf("Expected user share 27.95, got %s", response.UserShare)
	}
	if response.BillingDate != "2024-01-15" {
		t.Errorf("Expected billing date 2024-01-15, got %s", response.BillingDate)
	}
	if response.CategoryColor != domain.CategoryStreaming.Color() {
		t.Errorf("Expected streaming color, got %s", response.CategoryColor)
	}
	if len(repo.Subscriptions) != 1 {
		t.Errorf("Expected 1 stored subscription, got %d", len(repo.Subscriptions))
	}
}

func TestCreateSubscription_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"bad value", `{"name":"Netflix","value":"abc","cycle":"monthly","billingDate":"2024-01-15"}`, "value"},
		{"bad date", `{"name":"Netflix","value":"10","cycle":"monthly","billingDate":"15/01/2024"}`, "billingDate"},
		{"zero value", `{"name":"Netflix","value":"0","cycle":"monthly","billingDate":"2024-01-15"}`, "value"},
		{"unknown cycle", `{"name":"Netflix","value":"10","cycle":"weekly","billingDate":"2024-01-15"}`, "cycle"},
		{"short name", `{"name":"N","value":"10","cycle":"monthly","billingDate":"2024-01-15"}`, "name"},
		{"missing date", `{"name":"Netflix","value":"10","cycle":"monthly"}`, "billingDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			h, _ := newTestSubscriptionHandler()
			c, rec := newWorkspaceContext(e, http.MethodPost, "/api/v1/subscriptions", tt.body)

			if err := h.CreateSubscription(c); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d", rec.Code)
			}

			var problem ProblemDetails
			if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
				t.Fatalf("Failed to unmarshal response: %v", err)
			}
			if len(problem.Errors) == 0 || problem.Errors[0].Field != tt.field {
				t.Errorf("Expected error on field %s, got %+v", tt.field, problem.Errors)
			}
		})
	}
}

func TestCreateSubscription_NoWorkspace(t *testing.T) {
	e := echo.New()
	h, _ := newTestSubscriptionHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, "auth0|nows", "x@example.com", "", "")

	if err := h.CreateSubscription(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestGetSubscription_NotFound(t *testing.T) {
	e := echo.New()
	h, _ := newTestSubscriptionHandler()

	c, rec := newWorkspaceContext(e, http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	if err := h.GetSubscription(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestGetSubscription_InvalidID(t *testing.T) {
	e := echo.New()
	h, _ := newTestSubscriptionHandler()

	c, rec := newWorkspaceContext(e, http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	if err := h.GetSubscription(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestActivateSubscription(t *testing.T) {
	e := echo.New()
	h, repo := newTestSubscriptionHandler()
	ghost := seedTestSubscription(repo, "Trial", true)
	active := seedTestSubscription(repo, "Netflix", false)

	c, rec := newWorkspaceContext(e, http.MethodPost, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(ghost.ID.String())
	if err := h.ActivateSubscription(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if repo.Subscriptions[ghost.ID].IsGhost {
		t.Error("Expected ghost to be activated")
	}

	c, rec = newWorkspaceContext(e, http.MethodPost, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(active.ID.String())
	if err := h.ActivateSubscription(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for a non-ghost, got %d", rec.Code)
	}
}

func TestGetShareMessage_NotShared(t *testing.T) {
	e := echo.New()
	h, repo := newTestSubscriptionHandler()
	sub := seedTestSubscription(repo, "Netflix", false)

	c, rec := newWorkspaceContext(e, http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(sub.ID.String())

	if err := h.GetShareMessage(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", rec.Code)
	}
}

func TestDeleteSubscription(t *testing.T) {
	e := echo.New()
	h, repo := newTestSubscriptionHandler()
	sub := seedTestSubscription(repo, "Netflix", false)

	c, rec := newWorkspaceContext(e, http.MethodDelete, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(sub.ID.String())

	if err := h.DeleteSubscription(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rec.Code)
	}
	if _, ok := repo.Subscriptions[sub.ID]; ok {
		t.Error("Expected subscription to be removed")
	}
}

func TestImportSubscriptions(t *testing.T) {
	e := echo.New()
	h, repo := newTestSubscriptionHandler()

	body := `[
		{"name":"Spotify","value":"21.90","cycle":"monthly","billingDate":{"_seconds":1705276800,"_nanoseconds":0},"category":"Streaming"},
		{"name":"Broken","value":0,"cycle":"monthly","billingDate":"2024-01-20"}
	]`
	c, rec := newWorkspaceContext(e, http.MethodPost, "/api/v1/subscriptions/import", body)

	if err := h.ImportSubscriptions(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response ImportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response.Imported) != 1 || response.Imported[0].Name != "Spotify" {
		t.Errorf("Expected Spotify to be imported, got %+v", response.Imported)
	}
	if response.Imported[0].BillingDate != "2024-01-15" {
		t.Errorf("Expected billing date 2024-01-15, got %s", response.Imported[0].BillingDate)
	}
	if len(response.Rejected) != 1 || response.Rejected[0].Index != 1 {
		t.Errorf("Expected the second record to be rejected, got %+v", response.Rejected)
	}
	if len(repo.Subscriptions) != 1 {
		t.Errorf("Expected 1 stored subscription, got %d", len(repo.Subscriptions))
	}
}

func TestImportSubscriptions_RejectionIndexesMatchInput(t *testing.T) {
	e := echo.New()
	h, _ := newTestSubscriptionHandler()

	body := `[
		"stray",
		{"name":"Spotify","value":"21.90","cycle":"monthly","billingDate":"2024-01-15"},
		{"name":"Broken","value":0,"cycle":"monthly","billingDate":"2024-01-20"}
	]`
	c, rec := newWorkspaceContext(e, http.MethodPost, "/api/v1/subscriptions/import", body)

	if err := h.ImportSubscriptions(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	var response ImportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response.Imported) != 1 {
		t.Errorf("Expected 1 imported, got %d", len(response.Imported))
	}
	if len(response.Rejected) != 2 || response.Rejected[0].Index != 0 || response.Rejected[1].Index != 2 || response.Rejected[1].Name != "Broken" {
		t.Errorf("Expected rejections at input positions 0 and 2, got %+v", response.Rejected)
	}
}

func TestImportSubscriptions_InvalidJSON(t *testing.T) {
	e := echo.New()
	h, _ := newTestSubscriptionHandler()
	c, rec := newWorkspaceContext(e, http.MethodPost, "/api/v1/subscriptions/import", `[{"name":`)

	if err := h.ImportSubscriptions(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestUploadLogo_StorageDisabled(t *testing.T) {
	e := echo.New()
	h, repo := newTestSubscriptionHandler()
	sub := seedTestSubscription(repo, "Netflix", false)

	c, rec := newWorkspaceContext(e, http.MethodPost, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(sub.ID.String())

	if err := h.UploadLogo(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", rec.Code)
	}
}
