package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cofreforte/cofre-backend/internal/billing"
	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/cofreforte/cofre-backend/internal/middleware"
	"github.com/cofreforte/cofre-backend/internal/service"
	"github.com/cofreforte/cofre-backend/internal/util"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// maxImportBody caps the size of an import payload
const maxImportBody = 5 << 20

// SubscriptionHandler handles subscription HTTP requests
type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
	logoService         *service.LogoService
	now                 func() time.Time
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(subscriptionService *service.SubscriptionService, logoService *service.LogoService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		logoService:         logoService,
		now:                 time.Now,
	}
}

// SubscriptionRequest represents the create/update subscription request body
type SubscriptionRequest struct {
	Name            string  `json:"name"`
	Value           string  `json:"value"`
	Cycle           string  `json:"cycle"`
	BillingDate     string  `json:"billingDate"` // YYYY-MM-DD or RFC 3339
	Category        string  `json:"category"`
	LogoURL         *string `json:"logoUrl,omitempty"`
	IsActive        *bool   `json:"isActive,omitempty"`
	IsGhost         bool    `json:"isGhost"`
	SharedWithCount *int32  `json:"sharedWithCount,omitempty"`
	Description     *string `json:"description,omitempty"`
}

// SubscriptionResponse represents a subscription in API responses
type SubscriptionResponse struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Value             string  `json:"value"`
	Cycle             string  `json:"cycle"`
	BillingDate       string  `json:"billingDate"`
	Category          string  `json:"category"`
	CategoryColor     string  `json:"categoryColor"`
	LogoURL           *string `json:"logoUrl,omitempty"`
	IsActive          bool    `json:"isActive"`
	IsGhost           bool    `json:"isGhost"`
	SharedWithCount   *int32  `json:"sharedWithCount,omitempty"`
	UserShare         string  `json:"userShare"`
	MonthlyEquivalent string  `json:"monthlyEquivalent"`
	Description       *string `json:"description,omitempty"`
	CreatedAt         string  `json:"createdAt"`
	UpdatedAt         string  `json:"updatedAt"`
}

// SubscriptionListResponse represents the list response
type SubscriptionListResponse struct {
	Data []SubscriptionResponse `json:"data"`
}

// ShareMessageResponse carries the reminder text for a shared subscription
type ShareMessageResponse struct {
	Message string `json:"message"`
}

// ImportRejectionResponse describes a record the import skipped
type ImportRejectionResponse struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ImportResponse summarizes an import
type ImportResponse struct {
	Imported []SubscriptionResponse   `json:"imported"`
	Rejected []ImportRejectionResponse `json:"rejected"`
}

func parseBillingDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := util.ParseDay(s, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return util.StartOfDay(t.UTC()), nil
}

func (req *SubscriptionRequest) toInput() (service.SubscriptionInput, []ValidationError) {
	var fieldErrors []ValidationError

	value, err := decimal.NewFromString(strings.TrimSpace(req.Value))
	if err != nil {
		fieldErrors = append(fieldErrors, ValidationError{Field: "value", Message: "Must be a valid decimal number"})
	}

	var billingDate time.Time
	if strings.TrimSpace(req.BillingDate) != "" {
		billingDate, err = parseBillingDate(req.BillingDate)
		if err != nil {
			fieldErrors = append(fieldErrors, ValidationError{Field: "billingDate", Message: "Must be a date in YYYY-MM-DD format"})
		}
	}

	return service.SubscriptionInput{
		Name:            req.Name,
		Value:           value,
		Cycle:           domain.Cycle(req.Cycle),
		BillingDate:     billingDate,
		Category:        domain.Category(req.Category),
		LogoURL:         req.LogoURL,
		IsActive:        req.IsActive,
		IsGhost:         req.IsGhost,
		SharedWithCount: req.SharedWithCount,
		Description:     req.Description,
	}, fieldErrors
}

func toSubscriptionResponse(c echo.Context, logos *service.LogoService, sub *domain.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:                sub.ID.String(),
		Name:              sub.Name,
		Value:             sub.Value.StringFixed(2),
		Cycle:             string(sub.Cycle),
		BillingDate:       sub.BillingDate.Format("2006-01-02"),
		Category:          string(sub.Category),
		CategoryColor:     sub.Category.Color(),
		LogoURL:           logos.ResolveURL(c.Request().Context(), sub.LogoURL),
		IsActive:          sub.IsActive,
		IsGhost:           sub.IsGhost,
		SharedWithCount:   sub.SharedWithCount,
		UserShare:         billing.UserShare(sub).StringFixed(2),
		MonthlyEquivalent: billing.MonthlyEquivalent(sub).StringFixed(2),
		Description:       sub.Description,
		CreatedAt:         sub.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         sub.UpdatedAt.Format(time.RFC3339),
	}
}

func toSubscriptionResponses(c echo.Context, logos *service.LogoService, subs []*domain.Subscription) []SubscriptionResponse {
	response := make([]SubscriptionResponse, len(subs))
	for i, sub := range subs {
		response[i] = toSubscriptionResponse(c, logos, sub)
	}
	return response
}

func parseSubscriptionID(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

// CreateSubscription handles POST /api/v1/subscriptions
// @Summary      Create a subscription
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        body  body      SubscriptionRequest  true  "Subscription"
// @Success      201   {object}  SubscriptionResponse
// @Failure      400   {object}  ProblemDetails
// @Security     BearerAuth
// @Router       /subscriptions [post]
func (h *SubscriptionHandler) CreateSubscription(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req SubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, fieldErrors := req.toInput()
	if len(fieldErrors) > 0 {
		return NewValidationError(c, "Validation failed", fieldErrors)
	}

	sub, err := h.subscriptionService.Create(c.Request().Context(), workspaceID, input)
	if err != nil {
		return h.handleServiceError(c, err, workspaceID, "create subscription")
	}

	log.Info().Int32("workspace_id", workspaceID).Str("subscription_id", sub.ID.String()).Str("name", sub.Name).Msg("Subscription created")

	return c.JSON(http.StatusCreated, toSubscriptionResponse(c, h.logoService, sub))
}

// GetSubscriptions handles GET /api/v1/subscriptions
// @Summary      List subscriptions
// @Tags         subscriptions
// @Produce      json
// @Param        active  query     bool  false  "Only active (true) or inactive (false)"
// @Param        ghost   query     bool  false  "Only ghosts (true) or real ones (false)"
// @Success      200     {object}  SubscriptionListResponse
// @Security     BearerAuth
// @Router       /subscriptions [get]
func (h *SubscriptionHandler) GetSubscriptions(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var filter domain.SubscriptionFilter
	if p := c.QueryParam("active"); p != "" {
		active := p == "true"
		filter.Active = &active
	}
	if p := c.QueryParam("ghost"); p != "" {
		ghost := p == "true"
		filter.Ghost = &ghost
	}

	subs, err := h.subscriptionService.List(c.Request().Context(), workspaceID, filter)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to get subscriptions")
		return NewInternalError(c, "Failed to get subscriptions")
	}

	return c.JSON(http.StatusOK, SubscriptionListResponse{Data: toSubscriptionResponses(c, h.logoService, subs)})
}

// GetSubscription handles GET /api/v1/subscriptions/:id
// @Summary      Get a subscription
// @Tags         subscriptions
// @Produce      json
// @Param        id   path      string  true  "Subscription ID"
// @Success      200  {object}  SubscriptionResponse
// @Failure      404  {object}  ProblemDetails
// @Security     BearerAuth
// @Router       /subscriptions/{id} [get]
func (h *SubscriptionHandler) GetSubscription(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := parseSubscriptionID(c)
	if err != nil {
		return NewValidationError(c, "Invalid subscription ID", nil)
	}

	sub, err := h.subscriptionService.Get(c.Request().Context(), workspaceID, id)
	if err != nil {
		return h.handleServiceError(c, err, workspaceID, "get subscription")
	}

	return c.JSON(http.StatusOK, toSubscriptionResponse(c, h.logoService, sub))
}

// UpdateSubscription handles PUT /api/v1/subscriptions/:id
// @Summary      Replace a subscription
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        id    path      string               true  "Subscription ID"
// @Param        body  body      SubscriptionRequest  true  "Subscription"
// @Success      200   {object}  SubscriptionResponse
// @Failure      400   {object}  ProblemDetails
// @Failure      404   {object}  ProblemDetails
// @Security     BearerAuth
// @Router       /subscriptions/{id} [put]
func (h *SubscriptionHandler) UpdateSubscription(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := parseSubscriptionID(c)
	if err != nil {
		return NewValidationError(c, "Invalid subscription ID", nil)
	}

	var req SubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, fieldErrors := req.toInput()
	if len(fieldErrors) > 0 {
		return NewValidationError(c, "Validation failed", fieldErrors)
	}

	sub, err := h.subscriptionService.Update(c.Request().Context(), workspaceID, id, input)
	if err != nil {
		return h.handleServiceError(c, err, workspaceID, "update subscription")
	}

	log.Info().Int32("workspace_id", workspaceID).Str("subscription_id", sub.ID.String()).Msg("Subscription updated")

	return c.JSON(http.StatusOK, toSubscriptionResponse(c, h.logoService, sub))
}

// DeleteSubscription handles DELETE /api/v1/subscriptions/:id
// @Summary      Delete a subscription
// @Tags         subscriptions
// @Param        id   path  string  true  "Subscription ID"
// @Success      204
// @Failure      404  {object}  ProblemDetails
// @Security     BearerAuth
// @Router       /subscriptions/{id} [delete]
func (h *SubscriptionHandler) DeleteSubscription(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := parseSubscriptionID(c)
	if err != nil {
		return NewValidationError(c, "Invalid subscription ID", nil)
	}

	if err := h.subscriptionService.Delete(c.Request().Context(), workspaceID, id); err != nil {
		return h.handleServiceError(c, err, workspaceID, "delete subscription")
	}

	log.Info().Int32("workspace_id", workspaceID).Str("subscription_id", id.String()).Msg("Subscription deleted")

	return c.NoContent(http.StatusNoContent)
}

// ActivateSubscription handles POST /api/v1/subscriptions/:id/activate
// @Summary      Turn a ghost into a real subscription
// @Tags         subscriptions
// @Produce      json
// @Param        id   path      string  true  "Subscription ID"
// @Success      200  {object}  SubscriptionResponse
// @Failure      404  {object}  ProblemDetails
// @Failure      409  {object}  ProblemDetails
// @Security     BearerAuth
// @Router       /subscriptions/{id}/activate [post]
func (h *SubscriptionHandler) ActivateSubscription(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := parseSubscriptionID(c)
	if err != nil {
		return NewValidationError(c, "Invalid subscription ID", nil)
	}

	sub, err := h.subscriptionService.Activate(c.Request().Context(), workspaceID, id)
	if err != nil {
		return h.handleServiceError(c, err, workspaceID, "activate subscription")
	}

	log.Info().Int32("workspace_id", workspaceID).Str("subscription_id", sub.ID.String()).Msg("Ghost subscription activated")

	return c.JSON(http.StatusOK, toSubscriptionResponse(c, h.logoService, sub))
}

// ToggleActive handles PATCH /api/v1/subscriptions/:id/toggle-active
// @Summary      Pause or resume a subscription
// @Tags         subscriptions
// @Produce      json
// @Param        id   path      string  true  "Subscription ID"
// @Success      200  {object}  SubscriptionResponse
// @Failure      404  {object}  ProblemDetails
// @Security     BearerAuth
// @Router       /subscriptions/{id}/toggle-active [patch]
func (h *SubscriptionHandler) ToggleActive(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := parseSubscriptionID(c)
	if err != nil {
		return NewValidationError(c, "Invalid subscription ID", nil)
	}

	sub, err := h.subscriptionService.ToggleActive(c.Request().Context(), workspaceID, id)
	if err != nil {
		return h.handleServiceError(c, err, workspaceID, "toggle active status")
	}

	statusText := "paused"
	if sub.IsActive {
		statusText = "resumed"
	}
	log.Info().Int32("workspace_id", workspaceID).Str("subscription_id", sub.ID.String()).Str("status", statusText).Msg("Subscription active status toggled")

	return c.JSON(http.StatusOK, toSubscriptionResponse(c, h.logoService, sub))
}

// GetShareMessage handles GET /api/v1/subscriptions/:id/share-message
// @Summary      Reminder text for a shared subscription
// @Tags         subscriptions
// @Produce      json
// @Param        id   path      string  true  "Subscription ID"
// @Success      200  {object}  ShareMessageResponse
// @Failure      404  {object}  ProblemDetails
// @Failure      409  {object}  ProblemDetails
// @Security     BearerAuth
// @Router       /subscriptions/{id}/share-message [get]
func (h *SubscriptionHandler) GetShareMessage(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := parseSubscriptionID(c)
	if err != nil {
		return NewValidationError(c, "Invalid subscription ID", nil)
	}

	msg, err := h.subscriptionService.ShareMessage(c.Request().Context(), workspaceID, id)
	if err != nil {
		return h.handleServiceError(c, err, workspaceID, "build share message")
	}

	return c.JSON(http.StatusOK, ShareMessageResponse{Message: msg})
}

// UploadLogo handles POST /api/v1/subscriptions/:id/logo
// @Summary      Upload a custom logo
// @Tags         subscriptions
// @Accept       multipart/form-data
// @Produce      json
// @Param        id    path      string  true  "Subscription ID"
// @Param        file  formData  file    true  "JPEG or PNG image"
// @Success      200   {object}  SubscriptionResponse
// @Failure      400   {object}  ProblemDetails
// @Failure      503   {object}  ProblemDetails
// @Security     BearerAuth
// @Router       /subscriptions/{id}/logo [post]
func (h *SubscriptionHandler) UploadLogo(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	if !h.logoService.UploadEnabled() {
		return NewServiceUnavailableError(c, "Logo uploads are disabled (storage not configured)")
	}

	id, err := parseSubscriptionID(c)
	if err != nil {
		return NewValidationError(c, "Invalid subscription ID", nil)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "No file provided", []ValidationError{
			{Field: "file", Message: "File is required"},
		})
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded file")
		return NewInternalError(c, "Failed to read file")
	}

	sub, err := h.logoService.Upload(c.Request().Context(), workspaceID, id, data, file.Filename)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrImageTooLarge):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "File too large. Maximum size is 2MB"},
			})
		case errors.Is(err, service.ErrInvalidFormat):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "Invalid format. Supported: JPEG, PNG"},
			})
		case errors.Is(err, service.ErrImageTooSmall):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "Image too small. Minimum 32x32 pixels"},
			})
		case errors.Is(err, service.ErrInvalidImageData):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "Invalid image data"},
			})
		case errors.Is(err, service.ErrImageStorageNotConfigured):
			return NewServiceUnavailableError(c, "Logo uploads are disabled (storage not configured)")
		}
		return h.handleServiceError(c, err, workspaceID, "upload logo")
	}

	log.Info().Int32("workspace_id", workspaceID).Str("subscription_id", sub.ID.String()).Msg("Subscription logo uploaded")

	return c.JSON(http.StatusOK, toSubscriptionResponse(c, h.logoService, sub))
}

// ImportSubscriptions handles POST /api/v1/subscriptions/import.
// The body is a JSON array of subscriptions in any of the accepted export shapes.
// @Summary      Bulk import subscriptions
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Success      200  {object}  ImportResponse
// @Failure      400  {object}  ProblemDetails
// @Security     BearerAuth
// @Router       /subscriptions/import [post]
func (h *SubscriptionHandler) ImportSubscriptions(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxImportBody+1))
	if err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if len(raw) > maxImportBody {
		return NewValidationError(c, "Import payload too large", nil)
	}
	if !json.Valid(raw) {
		return NewValidationError(c, "Import payload must be valid JSON", nil)
	}

	docs := billing.ParseDocuments(raw, h.now().UTC())
	result, err := h.subscriptionService.Import(c.Request().Context(), workspaceID, docs)
	if err != nil {
		return h.handleServiceError(c, err, workspaceID, "import subscriptions")
	}

	response := ImportResponse{
		Imported: toSubscriptionResponses(c, h.logoService, result.Imported),
		Rejected: make([]ImportRejectionResponse, len(result.Rejected)),
	}
	for i, r := range result.Rejected {
		response.Rejected[i] = ImportRejectionResponse{Index: r.Index, Name: r.Name, Reason: r.Reason}
	}
	return c.JSON(http.StatusOK, response)
}

// handleServiceError maps service errors to problem responses
func (h *SubscriptionHandler) handleServiceError(c echo.Context, err error, workspaceID int32, operation string) error {
	switch {
	case errors.Is(err, domain.ErrSubscriptionNotFound):
		return NewNotFoundError(c, "Subscription not found")
	case errors.Is(err, domain.ErrNotGhost):
		return NewConflictError(c, "Subscription is already active")
	case errors.Is(err, domain.ErrNotShared):
		return NewConflictError(c, "Subscription is not shared")
	case errors.Is(err, domain.ErrNameRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name is required"},
		})
	case errors.Is(err, domain.ErrNameTooShort):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name must be at least 2 characters"},
		})
	case errors.Is(err, domain.ErrNameTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name must be 255 characters or less"},
		})
	case errors.Is(err, domain.ErrInvalidValue):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "value", Message: "Value must be positive"},
		})
	case errors.Is(err, domain.ErrInvalidCycle):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "cycle", Message: "Cycle must be 'monthly' or 'annually'"},
		})
	case errors.Is(err, domain.ErrInvalidCategory):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "category", Message: "Category must be one of: Streaming, Work, Wellness, Games, Other"},
		})
	case errors.Is(err, domain.ErrInvalidSharedCount):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "sharedWithCount", Message: "Shared count must be at least 1"},
		})
	case errors.Is(err, domain.ErrBillingDateRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "billingDate", Message: "Billing date is required"},
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "description", Message: "Description must be 1000 characters or less"},
		})
	}
	log.Error().Err(err).Int32("workspace_id", workspaceID).Str("operation", operation).Msg("Failed to " + operation)
	return NewInternalError(c, "Failed to "+operation)
}
