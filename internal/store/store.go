// Package store persists profiles, listings, matches and run records.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spigell/job-matcher/internal/jobs"
)

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")
)

// DefaultUnmatchedLimit caps UnmatchedJobs when no limit is given.
const DefaultUnmatchedLimit = 100

// Store is the durable record of the candidate profile, listings and matches.
type Store interface {
	GetOrCreateProfile(ctx context.Context, name string, attrs jobs.ProfileUpdate) (int64, error)
	UpdateProfile(ctx context.Context, profileID int64, attrs jobs.ProfileUpdate) error
	GetProfile(ctx context.Context, profileID int64) (*jobs.Profile, error)
	// DefaultProfileID returns the oldest stored profile or ErrNotFound.
	DefaultProfileID(ctx context.Context) (int64, error)
	AddSkill(ctx context.Context, profileID int64, skill jobs.Skill) (int64, error)
	AddExperience(ctx context.Context, profileID int64, exp jobs.Experience) (int64, error)
	AddCertification(ctx context.Context, profileID int64, cert jobs.Certification) (int64, error)

	GetOrCreateCompany(ctx context.Context, name string) (int64, error)
	AddJobListing(ctx context.Context, listing jobs.Listing) (int64, bool, error)
	UnmatchedJobs(ctx context.Context, profileID int64, limit int) ([]jobs.Listing, error)

	AddJobMatch(ctx context.Context, profileID, jobID int64, result jobs.MatchResult) (int64, error)
	TopMatches(ctx context.Context, profileID int64, limit int, minScore float64) ([]jobs.JobMatch, error)

	LogSearchRun(ctx context.Context, run jobs.SearchRun) (int64, error)
	Stats(ctx context.Context) (jobs.Stats, error)
	SaveReport(ctx context.Context, report jobs.DailyReport) (int64, error)
	LogNotification(ctx context.Context, n jobs.Notification) error

	Close() error
}

var now = time.Now

// startOfDay returns local midnight of t.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// normalizeListing trims the dedup fields so every store persists and compares the same values.
func normalizeListing(l jobs.Listing) (jobs.Listing, error) {
	l.Title = strings.TrimSpace(l.Title)
	l.CompanyName = strings.TrimSpace(l.CompanyName)
	if l.LocationType == "" {
		l.LocationType = jobs.LocationUnknown
	}
	if err := l.Validate(); err != nil {
		return l, err
	}
	l.IsActive = true
	return l, nil
}

func effectiveLimit(limit int) int {
	if limit <= 0 {
		return DefaultUnmatchedLimit
	}
	return limit
}
