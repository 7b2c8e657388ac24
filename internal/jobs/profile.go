// Package jobs holds the records shared by the store, scorers and reports.
package jobs

import (
	"fmt"
	"time"
)

type SkillCategory string

const (
	SkillTechnical     SkillCategory = "technical"
	SkillDomain        SkillCategory = "domain"
	SkillCertification SkillCategory = "certification"
	SkillSoft          SkillCategory = "soft"
)

type Proficiency string

const (
	ProficiencyBeginner     Proficiency = "beginner"
	ProficiencyIntermediate Proficiency = "intermediate"
	ProficiencyAdvanced     Proficiency = "advanced"
	ProficiencyExpert       Proficiency = "expert"
)

// WorkPreferences describes where and how the candidate is willing to work.
type WorkPreferences struct {
	Remote     bool   `json:"remote" mapstructure:"remote"`
	Hybrid     bool   `json:"hybrid" mapstructure:"hybrid"`
	Onsite     bool   `json:"onsite" mapstructure:"onsite"`
	Travel     bool   `json:"travel" mapstructure:"travel"`
	Relocation bool   `json:"relocation" mapstructure:"relocation"`
	Notes      string `json:"notes,omitempty" mapstructure:"notes"`
}

// Profile is the single candidate that listings are scored against.
type Profile struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name" validate:"required"`
	Email           string          `json:"email,omitempty" validate:"omitempty,email"`
	Phone           string          `json:"phone,omitempty"`
	LinkedInURL     string          `json:"linkedin_url,omitempty"`
	GitHubURL       string          `json:"github_url,omitempty"`
	CurrentTitle    string          `json:"current_title,omitempty"`
	YearsExperience int             `json:"years_experience" validate:"gte=0"`
	Location        string          `json:"location,omitempty"`
	WorkPreferences WorkPreferences `json:"work_preferences"`
	SalaryMin       *int            `json:"salary_min,omitempty" validate:"omitempty,gte=0"`
	SalaryMax       *int            `json:"salary_max,omitempty" validate:"omitempty,gte=0"`
	CareerSummary   string          `json:"career_summary,omitempty"`

	Skills         []Skill         `json:"skills,omitempty"`
	Experiences    []Experience    `json:"experiences,omitempty"`
	Certifications []Certification `json:"certifications,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SkillNames returns skill names in insertion order.
func (p *Profile) SkillNames() []string {
	names := make([]string, 0, len(p.Skills))
	for _, s := range p.Skills {
		names = append(names, s.Name)
	}
	return names
}

// Validate checks struct constraints and the salary range.
func (p *Profile) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	return checkSalaryRange(p.SalaryMin, p.SalaryMax)
}

// ProfileUpdate carries optional profile attributes. Nil fields are left untouched.
type ProfileUpdate struct {
	Email           *string          `validate:"omitempty,email"`
	Phone           *string
	LinkedInURL     *string
	GitHubURL       *string
	CurrentTitle    *string
	YearsExperience *int `validate:"omitempty,gte=0"`
	Location        *string
	WorkPreferences *WorkPreferences
	SalaryMin       *int `validate:"omitempty,gte=0"`
	SalaryMax       *int `validate:"omitempty,gte=0"`
	CareerSummary   *string
}

// Validate checks the attributes that are set.
func (u *ProfileUpdate) Validate() error {
	if err := validate.Struct(u); err != nil {
		return fmt.Errorf("invalid profile update: %w", err)
	}
	return checkSalaryRange(u.SalaryMin, u.SalaryMax)
}

// Apply copies the set attributes onto p.
func (u *ProfileUpdate) Apply(p *Profile) {
	if u == nil {
		return
	}
	if u.Email != nil {
		p.Email = *u.Email
	}
	if u.Phone != nil {
		p.Phone = *u.Phone
	}
	if u.LinkedInURL != nil {
		p.LinkedInURL = *u.LinkedInURL
	}
	if u.GitHubURL != nil {
		p.GitHubURL = *u.GitHubURL
	}
	if u.CurrentTitle != nil {
		p.CurrentTitle = *u.CurrentTitle
	}
	if u.YearsExperience != nil {
		p.YearsExperience = *u.YearsExperience
	}
	if u.Location != nil {
		p.Location = *u.Location
	}
	if u.WorkPreferences != nil {
		p.WorkPreferences = *u.WorkPreferences
	}
	if u.SalaryMin != nil {
		p.SalaryMin = intPtr(*u.SalaryMin)
	}
	if u.SalaryMax != nil {
		p.SalaryMax = intPtr(*u.SalaryMax)
	}
	if u.CareerSummary != nil {
		p.CareerSummary = *u.CareerSummary
	}
}

// Skill is unique per profile by name.
type Skill struct {
	ID          int64         `json:"id"`
	ProfileID   int64         `json:"profile_id"`
	Name        string        `json:"name" validate:"required"`
	Category    SkillCategory `json:"category,omitempty" validate:"omitempty,oneof=technical domain certification soft"`
	Proficiency Proficiency   `json:"proficiency,omitempty" validate:"omitempty,oneof=beginner intermediate advanced expert"`
	Source      string        `json:"source,omitempty"`
	Confidence  float64       `json:"confidence" validate:"gte=0,lte=1"`
}

func (s *Skill) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid skill: %w", err)
	}
	return nil
}

// Experience is a past or current position. An empty EndDate means open-ended.
type Experience struct {
	ID          int64  `json:"id"`
	ProfileID   int64  `json:"profile_id"`
	Company     string `json:"company" validate:"required"`
	Title       string `json:"title" validate:"required"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Description string `json:"description,omitempty"`
}

func (e *Experience) Validate() error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("invalid experience: %w", err)
	}
	return nil
}

// Current reports whether the position has no end date.
func (e *Experience) Current() bool {
	return e.EndDate == ""
}

type Certification struct {
	ID         int64  `json:"id"`
	ProfileID  int64  `json:"profile_id"`
	Name       string `json:"name" validate:"required"`
	Issuer     string `json:"issuer,omitempty"`
	IssueDate  string `json:"issue_date,omitempty"`
	ExpiryDate string `json:"expiry_date,omitempty"`
}

func (c *Certification) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid certification: %w", err)
	}
	return nil
}

func checkSalaryRange(minSalary, maxSalary *int) error {
	if minSalary != nil && maxSalary != nil && *minSalary > *maxSalary {
		return fmt.Errorf("salary min %d is greater than max %d", *minSalary, *maxSalary)
	}
	return nil
}

func intPtr(v int) *int {
	return &v
}
