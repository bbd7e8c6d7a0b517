package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/cofreforte/cofre-backend/internal/middleware"
	"github.com/cofreforte/cofre-backend/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// DashboardHandler handles dashboard-related HTTP requests
type DashboardHandler struct {
	dashboardService *service.DashboardService
	logoService      *service.LogoService
	now              func() time.Time
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *service.DashboardService, logoService *service.LogoService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logoService:      logoService,
		now:              time.Now,
	}
}

// CategoryTotalResponse is one slice of the category chart
type CategoryTotalResponse struct {
	Category string `json:"category"`
	Color    string `json:"color"`
	Total    string `json:"total"`
	Count    int    `json:"count"`
}

// MonthTotalResponse is one month of a spend series
type MonthTotalResponse struct {
	Month string `json:"month"` // YYYY-MM
	Total string `json:"total"`
}

// SimulationResponse describes the what-if part of the summary
type SimulationResponse struct {
	Enabled       bool   `json:"enabled"`
	Savings       string `json:"savings"`
	ExcludedCount int    `json:"excludedCount"`
}

// DashboardSummaryResponse represents the dashboard summary API response
type DashboardSummaryResponse struct {
	MonthlySpending  string                  `json:"monthlySpending"`
	AnnualForecast   string                  `json:"annualForecast"`
	ActiveCount      int                     `json:"activeCount"`
	MonthlyCount     int                     `json:"monthlyCount"`
	AnnualCount      int                     `json:"annualCount"`
	GhostCount       int                     `json:"ghostCount"`
	GhostMonthly     string                  `json:"ghostMonthly"`
	GhostAnnual      string                  `json:"ghostAnnual"`
	MostExpensive    *SubscriptionResponse   `json:"mostExpensive"`
	TopCategory      *CategoryTotalResponse  `json:"topCategory"`
	Categories       []CategoryTotalResponse `json:"categories"`
	Forecast         []MonthTotalResponse    `json:"forecast"`
	NextBillingDates []string                `json:"nextBillingDates"`
	Simulation       SimulationResponse      `json:"simulation"`
}

func toCategoryTotalResponse(ct domain.CategoryTotal) CategoryTotalResponse {
	return CategoryTotalResponse{
		Category: string(ct.Category),
		Color:    ct.Category.Color(),
		Total:    ct.Total.StringFixed(2),
		Count:    ct.Count,
	}
}

func toMonthTotalResponses(months []domain.MonthTotal) []MonthTotalResponse {
	response := make([]MonthTotalResponse, len(months))
	for i, m := range months {
		response[i] = MonthTotalResponse{Month: m.Label(), Total: m.Total.StringFixed(2)}
	}
	return response
}

// parseExcluded reads the exclude parameter, either repeated or comma separated
func parseExcluded(c echo.Context) (map[uuid.UUID]bool, error) {
	excluded := make(map[uuid.UUID]bool)
	for _, param := range c.QueryParams()["exclude"] {
		for _, raw := range strings.Split(param, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil, err
			}
			excluded[id] = true
		}
	}
	return excluded, nil
}

// GetSummary handles GET /api/v1/dashboard/summary
// @Summary      Dashboard summary
// @Description  With simulate=true the subscriptions listed in exclude are left out of the totals. Nothing is saved.
// @Tags         dashboard
// @Produce      json
// @Param        simulate  query     bool    false  "Enable the what-if simulation"
// @Param        exclude   query     string  false  "Comma separated subscription IDs to leave out"
// @Success      200       {object}  DashboardSummaryResponse
// @Failure      400       {object}  ProblemDetails
// @Security     BearerAuth
// @Router       /dashboard/summary [get]
func (h *DashboardHandler) GetSummary(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	sim := domain.SimulationOptions{Enabled: c.QueryParam("simulate") == "true"}
	if sim.Enabled {
		excluded, err := parseExcluded(c)
		if err != nil {
			return NewValidationError(c, "Invalid exclude parameter", []ValidationError{
				{Field: "exclude", Message: "Must be a list of subscription IDs"},
			})
		}
		sim.ExcludedIDs = excluded
	}

	summary, err := h.dashboardService.GetSummary(c.Request().Context(), workspaceID, sim, h.now())
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to get dashboard summary")
		return NewInternalError(c, "Failed to get dashboard summary")
	}

	response := DashboardSummaryResponse{
		MonthlySpending:  summary.MonthlySpending.StringFixed(2),
		AnnualForecast:   summary.AnnualForecast.StringFixed(2),
		ActiveCount:      summary.ActiveCount,
		MonthlyCount:     summary.MonthlyCount,
		AnnualCount:      summary.AnnualCount,
		GhostCount:       summary.GhostCount,
		GhostMonthly:     summary.GhostMonthly.StringFixed(2),
		GhostAnnual:      summary.GhostAnnual.StringFixed(2),
		Categories:       make([]CategoryTotalResponse, len(summary.Categories)),
		Forecast:         toMonthTotalResponses(summary.SteadyForecast),
		NextBillingDates: make([]string, len(summary.NextBillingDates)),
		Simulation: SimulationResponse{
			Enabled:       summary.Simulated,
			Savings:       summary.SimulatedSavings.StringFixed(2),
			ExcludedCount: summary.ExcludedCount,
		},
	}
	for i, ct := range summary.Categories {
		response.Categories[i] = toCategoryTotalResponse(ct)
	}
	for i, d := range summary.NextBillingDates {
		response.NextBillingDates[i] = d.Format("2006-01-02")
	}
	if summary.TopCategory != nil {
		top := toCategoryTotalResponse(*summary.TopCategory)
		response.TopCategory = &top
	}
	if summary.MostExpensive != nil {
		most := toSubscriptionResponse(c, h.logoService, summary.MostExpensive)
		response.MostExpensive = &most
	}

	return c.JSON(http.StatusOK, response)
}

// GetSubscriptions handles GET /api/v1/dashboard/subscriptions
// @Summary      Dashboard subscription table
// @Tags         dashboard
// @Produce      json
// @Param        category  query     string  false  "Category filter"
// @Param        search    query     string  false  "Case-insensitive name search"
// @Param        sortBy    query     string  false  "billingDate, value or name"
// @Param        order     query     string  false  "asc or desc"
// @Success      200       {object}  SubscriptionListResponse
// @Failure      400       {object}  ProblemDetails
// @Security     BearerAuth
// @Router       /dashboard/subscriptions [get]
func (h *DashboardHandler) GetSubscriptions(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	q := service.DisplayQuery{
		Category: domain.Category(c.QueryParam("category")),
		Search:   c.QueryParam("search"),
		SortBy:   c.QueryParam("sortBy"),
		Order:    c.QueryParam("order"),
	}
	if q.Category != "" && !q.Category.IsValid() {
		return NewValidationError(c, "Invalid category", []ValidationError{
			{Field: "category", Message: "Category must be one of: Streaming, Work, Wellness, Games, Other"},
		})
	}

	subs, err := h.dashboardService.ListForDisplay(c.Request().Context(), workspaceID, q)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return NewValidationError(c, "Invalid sort", []ValidationError{
				{Field: "sortBy", Message: "Sort must be billingDate, value or name and order asc or desc"},
			})
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to list dashboard subscriptions")
		return NewInternalError(c, "Failed to get subscriptions")
	}

	return c.JSON(http.StatusOK, SubscriptionListResponse{Data: toSubscriptionResponses(c, h.logoService, subs)})
}
