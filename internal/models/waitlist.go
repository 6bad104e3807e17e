package models

import (
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/akeren/waitlist-api/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

const (
	WaitlistCollection    = "waitlist"
	StatusCheckCollection = "status_checks"
	MaxNameLength         = 255
	MaxEmailLength        = 255
	timestampPrecision    = time.Millisecond
)

var validate = validator.New()

// WaitlistEntry is stored identically in the JSON fallback file and in the document store.
type WaitlistEntry struct {
	ID        string    `json:"id" bson:"id"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// NewWaitlistEntry trims and normalizes its input, then assigns a fresh id and creation time.
// With strictEmail the address must be syntactically valid; otherwise it only has to be present.
func NewWaitlistEntry(name, email string, strictEmail bool) (*WaitlistEntry, error) {
	name = norm.NFC.String(strings.TrimSpace(name))
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return nil, apperrors.NewValidationError("name must not exceed 255 characters", nil)
	}
	if email == "" {
		return nil, apperrors.NewValidationError("email is required", nil)
	}
	if len(email) > MaxEmailLength {
		return nil, apperrors.NewValidationError("email must not exceed 255 characters", nil)
	}
	if strictEmail {
		if err := validate.Var(email, "email"); err != nil {
			return nil, apperrors.NewValidationError("invalid email format", err)
		}
	}

	return &WaitlistEntry{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		CreatedAt: now(),
	}, nil
}

// StatusCheck is only ever persisted in the document store.
type StatusCheck struct {
	ID         string    `json:"id" bson:"id"`
	ClientName string    `json:"client_name" bson:"client_name"`
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
}

func NewStatusCheck(clientName string) (*StatusCheck, error) {
	clientName = strings.TrimSpace(clientName)
	if clientName == "" {
		return nil, apperrors.NewValidationError("client_name is required", nil)
	}

	return &StatusCheck{
		ID:         uuid.NewString(),
		ClientName: clientName,
		Timestamp:  now(),
	}, nil
}

// now is UTC at BSON date precision so both backends hold the same value.
func now() time.Time {
	return time.Now().UTC().Truncate(timestampPrecision)
}
