package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cofreforte/cofre-backend/internal/billing"
	"github.com/cofreforte/cofre-backend/internal/middleware"
	"github.com/cofreforte/cofre-backend/internal/service"
	"github.com/cofreforte/cofre-backend/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CalendarHandler serves the billing calendar
type CalendarHandler struct {
	calendarService *service.CalendarService
	logoService     *service.LogoService
	now             func() time.Time
}

// NewCalendarHandler creates a new CalendarHandler
func NewCalendarHandler(calendarService *service.CalendarService, logoService *service.LogoService) *CalendarHandler {
	return &CalendarHandler{
		calendarService: calendarService,
		logoService:     logoService,
		now:             time.Now,
	}
}

// CalendarEntryResponse is one subscription on the calendar
type CalendarEntryResponse struct {
	Subscription SubscriptionResponse `json:"subscription"`
	Color        string               `json:"color"`
	Ghost        bool                 `json:"ghost"`
	Dates        []string             `json:"dates"`
}

// CalendarResponse represents the calendar API response
type CalendarResponse struct {
	Horizon int                     `json:"horizon"`
	Entries []CalendarEntryResponse `json:"entries"`
}

// CalendarDayResponse lists the charges of one day. Total covers committed subscriptions only.
type CalendarDayResponse struct {
	Date  string                 `json:"date"`
	Total string                 `json:"total"`
	Data  []SubscriptionResponse `json:"data"`
}

// GetCalendar handles GET /api/v1/calendar
// @Summary      Billing calendar
// @Tags         calendar
// @Produce      json
// @Param        horizon  query     int  false  "Occurrences per subscription (default 12, max 60)"
// @Success      200      {object}  CalendarResponse
// @Failure      400      {object}  ProblemDetails
// @Security     BearerAuth
// @Router       /calendar [get]
func (h *CalendarHandler) GetCalendar(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	horizon := billing.DefaultHorizon
	if p := c.QueryParam("horizon"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			return NewValidationError(c, "Invalid horizon", []ValidationError{
				{Field: "horizon", Message: "Must be a positive integer"},
			})
		}
		horizon = n
	}

	cal, err := h.calendarService.GetCalendar(c.Request().Context(), workspaceID, h.now(), horizon)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to build calendar")
		return NewInternalError(c, "Failed to get calendar")
	}

	response := CalendarResponse{
		Horizon: cal.Horizon,
		Entries: make([]CalendarEntryResponse, len(cal.Entries)),
	}
	for i, entry := range cal.Entries {
		dates := make([]string, len(entry.Dates))
		for j, d := range entry.Dates {
			dates[j] = d.Format("2006-01-02")
		}
		response.Entries[i] = CalendarEntryResponse{
			Subscription: toSubscriptionResponse(c, h.logoService, entry.Subscription),
			Color:        entry.Color,
			Ghost:        entry.Ghost,
			Dates:        dates,
		}
	}

	return c.JSON(http.StatusOK, response)
}

// GetDay handles GET /api/v1/calendar/:date
// @Summary      Charges of one day
// @Tags         calendar
// @Produce      json
// @Param        date  path      string  true  "Day as YYYY-MM-DD"
// @Success      200   {object}  CalendarDayResponse
// @Failure      400   {object}  ProblemDetails
// @Security     BearerAuth
// @Router       /calendar/{date} [get]
func (h *CalendarHandler) GetDay(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	now := h.now()
	day, err := util.ParseDay(c.Param("date"), now.Location())
	if err != nil {
		return NewValidationError(c, "Invalid date", []ValidationError{
			{Field: "date", Message: "Must be a date in YYYY-MM-DD format"},
		})
	}

	subs, err := h.calendarService.GetDay(c.Request().Context(), workspaceID, day, now)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Str("date", c.Param("date")).Msg("Failed to get calendar day")
		return NewInternalError(c, "Failed to get calendar day")
	}

	// ghosts are listed but not charged
	total := decimal.Zero
	for _, sub := range billing.Committed(subs, nil) {
		total = total.Add(billing.UserShare(sub))
	}
	return c.JSON(http.StatusOK, CalendarDayResponse{
		Date:  day.Format("2006-01-02"),
		Total: total.StringFixed(2),
		Data:  toSubscriptionResponses(c, h.logoService, subs),
	})
}
