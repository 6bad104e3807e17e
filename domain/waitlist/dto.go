package waitlist

import (
	"github.com/akeren/waitlist-api/internal/models"
	"github.com/akeren/waitlist-api/pkg/constants"
)

// Trimming, length and email format are enforced by models.NewWaitlistEntry so the
// same rules apply whichever backend is active.
type CreateWaitlistEntryRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
}

type WaitlistEntryResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type DeletedResponse struct {
	Deleted int64 `json:"deleted"`
}

const (
	ContactCountSourceExternal = "emailjs"
	ContactCountSourceLocal    = "local"
)

type ContactCountResponse struct {
	Count  int64  `json:"count"`
	Source string `json:"source"`
}

// ========================================
// Mappers
// ========================================

func ToWaitlistEntryResponse(entry *models.WaitlistEntry) WaitlistEntryResponse {
	if entry == nil {
		return WaitlistEntryResponse{}
	}
	return WaitlistEntryResponse{
		ID:        entry.ID,
		Name:      entry.Name,
		Email:     entry.Email,
		CreatedAt: entry.CreatedAt.UTC().Format(constants.RFC3339MilliDateTimeFormat),
	}
}
