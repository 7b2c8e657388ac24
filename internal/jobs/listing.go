package jobs

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type LocationType string

const (
	LocationRemote  LocationType = "remote"
	LocationHybrid  LocationType = "hybrid"
	LocationOnsite  LocationType = "onsite"
	LocationUnknown LocationType = "unknown"
)

// Company is keyed by its unique name.
type Company struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Listing is a scraped job posting.
type Listing struct {
	ID           int64        `json:"id"`
	Source       string       `json:"source" validate:"required"`
	ExternalID   string       `json:"external_id,omitempty"`
	CompanyID    int64        `json:"company_id,omitempty"`
	CompanyName  string       `json:"company_name" validate:"required"`
	Title        string       `json:"title" validate:"required"`
	Location     string       `json:"location,omitempty"`
	LocationType LocationType `json:"location_type,omitempty" validate:"omitempty,oneof=remote hybrid onsite unknown"`
	Description  string       `json:"description,omitempty"`
	ApplyURL     string       `json:"apply_url,omitempty"`
	PostedAt     *time.Time   `json:"posted_at,omitempty"`
	SalaryMin    *int         `json:"salary_min,omitempty" validate:"omitempty,gte=0"`
	SalaryMax    *int         `json:"salary_max,omitempty" validate:"omitempty,gte=0"`
	IsActive     bool         `json:"is_active"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Validate checks the listing before it is written.
func (l *Listing) Validate() error {
	if err := validate.Struct(l); err != nil {
		return fmt.Errorf("invalid listing: %w", err)
	}
	return checkSalaryRange(l.SalaryMin, l.SalaryMax)
}

// Text is the lowercased title and description used for keyword matching.
func (l *Listing) Text() string {
	return strings.ToLower(l.Title + " " + l.Description)
}

// DedupKey is the case-insensitive title and company pair.
func (l *Listing) DedupKey() string {
	return strings.ToLower(strings.TrimSpace(l.Title)) + "|" + strings.ToLower(strings.TrimSpace(l.CompanyName))
}

// NormalizeLocationType maps free-form values onto the known location types.
func NormalizeLocationType(raw string) LocationType {
	switch lower := strings.ToLower(strings.TrimSpace(raw)); {
	case lower == "":
		return LocationUnknown
	case strings.Contains(lower, "remote"):
		return LocationRemote
	case strings.Contains(lower, "hybrid"):
		return LocationHybrid
	case strings.Contains(lower, "onsite"), strings.Contains(lower, "on-site"), strings.Contains(lower, "office"):
		return LocationOnsite
	default:
		return LocationUnknown
	}
}
