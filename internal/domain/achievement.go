package domain

import (
	"context"
	"time"
)

// AchievementID identifies an entry of the achievement catalogue
type AchievementID string

const (
	AchievementFirstStep       AchievementID = "first_step"
	AchievementOrganizer       AchievementID = "organizer"
	AchievementBigSpender      AchievementID = "big_spender"
	AchievementVisionary       AchievementID = "visionary"
	AchievementSimulator       AchievementID = "simulator"
	AchievementMasterEconomist AchievementID = "master_economist"
)

// Achievement describes a badge the user can unlock
type Achievement struct {
	ID          AchievementID `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Icon        string        `json:"icon"`
}

// AchievementCatalogue lists every achievement in display order
var AchievementCatalogue = []Achievement{
	{ID: AchievementFirstStep, Name: "First Step", Description: "Added your first subscription.", Icon: "footprints"},
	{ID: AchievementOrganizer, Name: "Organizer", Description: "Tracking 5 or more subscriptions.", Icon: "list-checks"},
	{ID: AchievementBigSpender, Name: "Big Spender", Description: "Monthly spending above 200.", Icon: "gem"},
	{ID: AchievementVisionary, Name: "Visionary", Description: "Visited the billing calendar.", Icon: "calendar"},
	{ID: AchievementSimulator, Name: "Simulator", Description: "Used simulation mode.", Icon: "flask"},
	{ID: AchievementMasterEconomist, Name: "Master Economist", Description: "Simulated savings above 50 per month.", Icon: "piggy-bank"},
}

// LookupAchievement returns the catalogue entry for id
func LookupAchievement(id AchievementID) (Achievement, bool) {
	for _, a := range AchievementCatalogue {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

// AchievementUnlock records when a workspace earned an achievement
type AchievementUnlock struct {
	WorkspaceID   int32         `json:"workspaceId"`
	AchievementID AchievementID `json:"achievementId"`
	UnlockedAt    time.Time     `json:"unlockedAt"`
}

// AchievementRepository defines the interface for achievement persistence.
// Unlock is idempotent and reports whether the achievement was newly unlocked.
type AchievementRepository interface {
	Unlock(ctx context.Context, workspaceID int32, id AchievementID, at time.Time) (bool, error)
	ListByWorkspace(ctx context.Context, workspaceID int32) ([]*AchievementUnlock, error)
}
