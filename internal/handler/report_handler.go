package handler

import (
	"net/http"
	"time"

	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/cofreforte/cofre-backend/internal/middleware"
	"github.com/cofreforte/cofre-backend/internal/service"
	"github.com/cofreforte/cofre-backend/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ReportHandler serves the reports page
type ReportHandler struct {
	reportService *service.ReportService
	now           func() time.Time
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		now:           time.Now,
	}
}

// ReportResponse represents the report API response
type ReportResponse struct {
	Categories []CategoryTotalResponse `json:"categories"`
	Forecast   []MonthTotalResponse    `json:"forecast"`
	History    []MonthTotalResponse    `json:"history"`
	TotalPaid  string                  `json:"totalPaid"`
}

// PaymentResponse represents a recorded charge
type PaymentResponse struct {
	ID               string `json:"id"`
	SubscriptionID   string `json:"subscriptionId"`
	SubscriptionName string `json:"subscriptionName"`
	Amount           string `json:"amount"`
	Category         string `json:"category"`
	PaidAt           string `json:"paidAt"`
}

// PaymentListResponse represents the payment history response
type PaymentListResponse struct {
	Data []PaymentResponse `json:"data"`
}

func toPaymentResponse(p *domain.PaymentRecord) PaymentResponse {
	return PaymentResponse{
		ID:               p.ID.String(),
		SubscriptionID:   p.SubscriptionID.String(),
		SubscriptionName: p.SubscriptionName,
		Amount:           p.Amount.StringFixed(2),
		Category:         string(p.Category),
		PaidAt:           p.PaidAt.Format("2006-01-02"),
	}
}

// GetReport handles GET /api/v1/reports
// @Summary      Spending report
// @Tags         reports
// @Produce      json
// @Success      200  {object}  ReportResponse
// @Security     BearerAuth
// @Router       /reports [get]
func (h *ReportHandler) GetReport(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	report, err := h.reportService.GetReport(c.Request().Context(), workspaceID, h.now())
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to build report")
		return NewInternalError(c, "Failed to get report")
	}

	response := ReportResponse{
		Categories: make([]CategoryTotalResponse, len(report.Categories)),
		Forecast:   toMonthTotalResponses(report.Forecast),
		History:    toMonthTotalResponses(report.History),
		TotalPaid:  report.TotalPaid.StringFixed(2),
	}
	for i, ct := range report.Categories {
		response.Categories[i] = toCategoryTotalResponse(ct)
	}
	return c.JSON(http.StatusOK, response)
}

// GetPayments handles GET /api/v1/reports/payments
// @Summary      Payment history
// @Tags         reports
// @Produce      json
// @Param        from  query     string  false  "First day, YYYY-MM-DD (inclusive)"
// @Param        to    query     string  false  "Last day, YYYY-MM-DD (inclusive)"
// @Success      200   {object}  PaymentListResponse
// @Failure      400   {object}  ProblemDetails
// @Security     BearerAuth
// @Router       /reports/payments [get]
func (h *ReportHandler) GetPayments(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	loc := h.now().Location()
	var from, to *time.Time
	if p := c.QueryParam("from"); p != "" {
		d, err := util.ParseDay(p, loc)
		if err != nil {
			return NewValidationError(c, "Invalid from date", []ValidationError{
				{Field: "from", Message: "Must be a date in YYYY-MM-DD format"},
			})
		}
		from = &d
	}
	if p := c.QueryParam("to"); p != "" {
		d, err := util.ParseDay(p, loc)
		if err != nil {
			return NewValidationError(c, "Invalid to date", []ValidationError{
				{Field: "to", Message: "Must be a date in YYYY-MM-DD format"},
			})
		}
		// the repository bound is exclusive
		end := d.AddDate(0, 0, 1)
		to = &end
	}
	if from != nil && to != nil && !from.Before(*to) {
		return NewValidationError(c, "Invalid range", []ValidationError{
			{Field: "to", Message: "Must not be before from"},
		})
	}

	payments, err := h.reportService.ListPayments(c.Request().Context(), workspaceID, from, to)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to list payments")
		return NewInternalError(c, "Failed to get payments")
	}

	response := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		response[i] = toPaymentResponse(p)
	}
	return c.JSON(http.StatusOK, PaymentListResponse{Data: response})
}
