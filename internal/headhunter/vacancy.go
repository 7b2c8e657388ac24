package headhunter

import (
	"fmt"
	"strings"
	"time"

	"github.com/spigell/job-matcher/internal/jobs"
)

const (
	// SourceName marks listings that came from hh.ru.
	SourceName = "hh"

	publishedLayout = "2006-01-02T15:04:05-0700"
)

type Vacancies struct {
	Items []*Vacancy
}

type Vacancy struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Area struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
		URL  string `json:"url,omitempty"`
	} `json:"area,omitempty"`
	Salary *struct {
		From     int    `json:"from,omitempty"`
		To       int    `json:"to,omitempty"`
		Currency string `json:"currency,omitempty"`
		Gross    bool   `json:"gross,omitempty"`
	} `json:"salary,omitempty"`
	Experience struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"experience,omitempty"`
	Schedule struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"schedule,omitempty"`
	Employer struct {
		ID           string `json:"id,omitempty"`
		Name         string `json:"name,omitempty"`
		URL          string `json:"url,omitempty"`
		AlternateURL string `json:"alternate_url,omitempty"`
		Trusted      bool   `json:"trusted,omitempty"`
	} `json:"employer,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
	AlternateURL string `json:"alternate_url,omitempty"`
	Description  string `json:"description,omitempty"`
	Archived     bool   `json:"archived,omitempty"`
	Snipet       struct {
		Requirement    string `json:"requirement,omitempty"`
		Responsibility string `json:"responsibility,omitempty"`
	} `json:"snippet,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// highlights removes the search term markup hh.ru puts into snippets.
var highlights = strings.NewReplacer("<highlighttext>", "", "</highlighttext>", "")

func (v *Vacancies) Len() int {
	return len(v.Items)
}

func (v *Vacancies) FindByID(id string) *Vacancy {
	for _, vacancy := range v.Items {
		if vacancy.ID == id {
			return vacancy
		}
	}
	return nil
}

// Listings converts active vacancies, skipping archived ones and ones without an employer.
func (v *Vacancies) Listings() []jobs.Listing {
	listings := make([]jobs.Listing, 0, len(v.Items))
	for _, vacancy := range v.Items {
		if vacancy.Archived || strings.TrimSpace(vacancy.Employer.Name) == "" {
			continue
		}
		listings = append(listings, vacancy.Listing())
	}
	return listings
}

// Listing maps the vacancy onto a job listing.
func (va *Vacancy) Listing() jobs.Listing {
	listing := jobs.Listing{
		Source:       SourceName,
		ExternalID:   va.ID,
		CompanyName:  strings.TrimSpace(va.Employer.Name),
		Title:        strings.TrimSpace(va.Name),
		Location:     va.Area.Name,
		LocationType: locationType(va.Schedule.ID),
		Description:  va.description(),
		ApplyURL:     va.AlternateURL,
	}

	if t, err := time.Parse(publishedLayout, va.PublishedAt); err == nil {
		utc := t.UTC()
		listing.PostedAt = &utc
	}

	if va.Salary != nil {
		if va.Salary.From > 0 {
			from := va.Salary.From
			listing.SalaryMin = &from
		}
		if va.Salary.To > 0 {
			to := va.Salary.To
			listing.SalaryMax = &to
		}
	}

	return listing
}

func (va *Vacancy) description() string {
	if va.Description != "" {
		return highlights.Replace(va.Description)
	}

	parts := make([]string, 0, 2)
	if va.Snipet.Requirement != "" {
		parts = append(parts, fmt.Sprintf("Requirements: %s", highlights.Replace(va.Snipet.Requirement)))
	}
	if va.Snipet.Responsibility != "" {
		parts = append(parts, fmt.Sprintf("Responsibilities: %s", highlights.Replace(va.Snipet.Responsibility)))
	}
	return strings.Join(parts, "\n")
}

func locationType(schedule string) jobs.LocationType {
	switch schedule {
	case "remote":
		return jobs.LocationRemote
	case "flexible":
		return jobs.LocationHybrid
	case "fullDay", "shift", "flyInFlyOut":
		return jobs.LocationOnsite
	default:
		return jobs.LocationUnknown
	}
}
