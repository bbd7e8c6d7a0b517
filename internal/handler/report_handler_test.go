package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/cofreforte/cofre-backend/internal/service"
	"github.com/cofreforte/cofre-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

func newTestReportHandler() (*ReportHandler, *testutil.MockSubscriptionRepository, *testutil.MockPaymentRepository) {
	subs := testutil.NewMockSubscriptionRepository()
	payments := testutil.NewMockPaymentRepository()
	h := NewReportHandler(service.NewReportService(subs, payments))
	h.now = func() time.Time { return time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC) }
	return h, subs, payments
}

func seedPayment(repo *testutil.MockPaymentRepository, name, amount string, paidAt time.Time) {
	_, _ = repo.Record(context.Background(), &domain.PaymentRecord{
		WorkspaceID:      testWorkspaceID,
		SubscriptionID:   uuid.New(),
		SubscriptionName: name,
		Amount:           decimal.RequireFromString(amount),
		Category:         domain.CategoryStreaming,
		PaidAt:           paidAt,
	})
}

func TestGetReport(t *testing.T) {
	e := echo.New()
	h, subs, payments := newTestReportHandler()
	seedTestSubscription(subs, "Netflix", false)
	seedPayment(payments, "Netflix", "39.90", time.Date(2023, 11, 15, 0, 0, 0, 0, time.UTC))
	seedPayment(payments, "Netflix", "39.90", time.Date(2023, 12, 15, 0, 0, 0, 0, time.UTC))

	c, rec := newWorkspaceContext(e, http.MethodGet, "/api/v1/reports", "")
	if err := h.GetReport(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response ReportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response.Forecast) != 12 || response.Forecast[0].Month != "2024-01" || response.Forecast[0].Total != "39.90" {
		t.Errorf("Unexpected forecast %+v", response.Forecast)
	}
	if len(response.Categories) != 1 || response.Categories[0].Category != "Streaming" {
		t.Errorf("Unexpected categories %+v", response.Categories)
	}
	if response.TotalPaid != "79.80" {
		t.Errorf("Expected total paid 79.80, got %s", response.TotalPaid)
	}
	if len(response.History) != 2 || response.History[0].Month != "2023-11" {
		t.Errorf("Unexpected history %+v", response.History)
	}
}

func TestGetPayments_Range(t *testing.T) {
	e := echo.New()
	h, _, payments := newTestReportHandler()
	seedPayment(payments, "A", "10", time.Date(2023, 11, 30, 0, 0, 0, 0, time.UTC))
	seedPayment(payments, "B", "20", time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC))
	seedPayment(payments, "C", "30", time.Date(2023, 12, 31, 18, 0, 0, 0, time.UTC))
	seedPayment(payments, "D", "40", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	c, rec := newWorkspaceContext(e, http.MethodGet, "/api/v1/reports/payments?from=2023-12-01&to=2023-12-31", "")
	if err := h.GetPayments(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response PaymentListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response.Data) != 2 || response.Data[0].SubscriptionName != "B" || response.Data[1].SubscriptionName != "C" {
		t.Errorf("Expected B and C within the inclusive range, got %+v", response.Data)
	}
}

func TestGetPayments_InvalidRange(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"bad from", "?from=yesterday"},
		{"bad to", "?to=2024-13-01"},
		{"reversed", "?from=2024-02-01&to=2024-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			h, _, _ := newTestReportHandler()

			c, rec := newWorkspaceContext(e, http.MethodGet, "/api/v1/reports/payments"+tt.query, "")
			if err := h.GetPayments(c); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", rec.Code)
			}
		})
	}
}
