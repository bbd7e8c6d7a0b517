package service

import (
	"context"
	"time"

	"github.com/cofreforte/cofre-backend/internal/billing"
	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/cofreforte/cofre-backend/internal/metrics"
	"github.com/cofreforte/cofre-backend/internal/util"
	"github.com/shopspring/decimal"
)

// Report is the spending analysis of a workspace
type Report struct {
	Categories []domain.CategoryTotal
	Forecast   []domain.MonthTotal
	// History sums recorded payments per calendar month, oldest first
	History   []domain.MonthTotal
	TotalPaid decimal.Decimal
}

// ReportService builds the reports page
type ReportService struct {
	subRepo     domain.SubscriptionRepository
	paymentRepo domain.PaymentRepository
}

// NewReportService creates a new ReportService
func NewReportService(subRepo domain.SubscriptionRepository, paymentRepo domain.PaymentRepository) *ReportService {
	return &ReportService{subRepo: subRepo, paymentRepo: paymentRepo}
}

// GetReport returns the category breakdown, the 12 month charge forecast and the
// payment history totals
func (s *ReportService) GetReport(ctx context.Context, workspaceID int32, now time.Time) (*Report, error) {
	subs, err := s.subRepo.ListByWorkspace(ctx, workspaceID, domain.SubscriptionFilter{})
	if err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.ListByWorkspace(ctx, workspaceID, nil, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	report := &Report{
		Categories: billing.CategoryBreakdown(billing.Committed(subs, nil)),
		Forecast:   billing.MonthlyChargeForecast(subs, now),
		History:    paymentHistory(payments, now.Location()),
		TotalPaid:  decimal.Zero,
	}
	for _, p := range payments {
		report.TotalPaid = report.TotalPaid.Add(p.Amount)
	}
	metrics.ObserveEngine("report", time.Since(start))
	return report, nil
}

// ListPayments returns recorded payments ordered by PaidAt. Nil bounds are open.
func (s *ReportService) ListPayments(ctx context.Context, workspaceID int32, from, to *time.Time) ([]*domain.PaymentRecord, error) {
	return s.paymentRepo.ListByWorkspace(ctx, workspaceID, from, to)
}

// paymentHistory groups payments ordered by PaidAt into month buckets
func paymentHistory(payments []*domain.PaymentRecord, loc *time.Location) []domain.MonthTotal {
	history := make([]domain.MonthTotal, 0)
	for _, p := range payments {
		month := util.StartOfMonth(p.PaidAt.In(loc))
		if n := len(history); n > 0 && history[n-1].Month.Equal(month) {
			history[n-1].Total = history[n-1].Total.Add(p.Amount)
			continue
		}
		history = append(history, domain.MonthTotal{Month: month, Total: p.Amount})
	}
	return history
}
