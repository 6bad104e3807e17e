package status

import (
	"github.com/akeren/waitlist-api/internal/models"
	"github.com/akeren/waitlist-api/pkg/constants"
)

type CreateStatusCheckRequest struct {
	ClientName string `json:"client_name" binding:"required"`
}

type StatusCheckResponse struct {
	ID         string `json:"id"`
	ClientName string `json:"client_name"`
	Timestamp  string `json:"timestamp"`
}

type PingResponse struct {
	Status      string   `json:"status"`
	Collections []string `json:"collections"`
}

func ToStatusCheckResponse(check *models.StatusCheck) StatusCheckResponse {
	if check == nil {
		return StatusCheckResponse{}
	}
	return StatusCheckResponse{
		ID:         check.ID,
		ClientName: check.ClientName,
		Timestamp:  check.Timestamp.UTC().Format(constants.RFC3339MilliDateTimeFormat),
	}
}
