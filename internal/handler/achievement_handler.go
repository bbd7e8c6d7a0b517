package handler

import (
	"net/http"
	"time"

	"github.com/cofreforte/cofre-backend/internal/middleware"
	"github.com/cofreforte/cofre-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// AchievementHandler lists the workspace's achievements
type AchievementHandler struct {
	achievementService *service.AchievementService
}

// NewAchievementHandler creates a new AchievementHandler
func NewAchievementHandler(achievementService *service.AchievementService) *AchievementHandler {
	return &AchievementHandler{achievementService: achievementService}
}

// AchievementResponse represents one achievement badge
type AchievementResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Unlocked    bool    `json:"unlocked"`
	UnlockedAt  *string `json:"unlockedAt,omitempty"`
}

// AchievementListResponse represents the achievements response
type AchievementListResponse struct {
	Data          []AchievementResponse `json:"data"`
	UnlockedCount int                   `json:"unlockedCount"`
}

// GetAchievements handles GET /api/v1/achievements
// @Summary      Achievements
// @Tags         achievements
// @Produce      json
// @Success      200  {object}  AchievementListResponse
// @Security     BearerAuth
// @Router       /achievements [get]
func (h *AchievementHandler) GetAchievements(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	statuses, err := h.achievementService.List(c.Request().Context(), workspaceID)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to list achievements")
		return NewInternalError(c, "Failed to get achievements")
	}

	response := AchievementListResponse{Data: make([]AchievementResponse, len(statuses))}
	for i, st := range statuses {
		item := AchievementResponse{
			ID:          string(st.ID),
			Name:        st.Name,
			Description: st.Description,
			Icon:        st.Icon,
			Unlocked:    st.Unlocked,
		}
		if st.UnlockedAt != nil {
			at := st.UnlockedAt.Format(time.RFC3339)
			item.UnlockedAt = &at
		}
		if st.Unlocked {
			response.UnlockedCount++
		}
		response.Data[i] = item
	}
	return c.JSON(http.StatusOK, response)
}
