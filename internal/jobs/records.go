package jobs

import "time"

// SearchRun records one scraper pass.
type SearchRun struct {
	ID        int64         `json:"id"`
	Source    string        `json:"source"`
	QueryID   string        `json:"query_id,omitempty"`
	JobsFound int           `json:"jobs_found"`
	NewJobs   int           `json:"new_jobs"`
	Errors    []string      `json:"errors,omitempty"`
	Duration  time.Duration `json:"duration"`
	StartedAt time.Time     `json:"started_at"`
}

type Stats struct {
	ActiveJobs   int `json:"active_jobs"`
	TotalJobs    int `json:"total_jobs"`
	TotalMatches int `json:"total_matches"`
	Companies    int `json:"companies"`
	JobsToday    int `json:"jobs_today"`
}

type CompanyCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// MatchSummary aggregates the stored matches of a profile.
type MatchSummary struct {
	Total          int            `json:"total_matches"`
	Strong         int            `json:"strong_matches"`
	Good           int            `json:"good_matches"`
	Possible       int            `json:"possible_matches"`
	ByLocationType map[string]int `json:"by_location_type"`
	BySource       map[string]int `json:"by_source"`
	TopCompanies   []CompanyCount `json:"top_companies"`
	AverageScore   float64        `json:"average_score"`
}

// DailyReport is a rendered report persisted after the report phase.
type DailyReport struct {
	ID                int64     `json:"id"`
	ReportDate        string    `json:"report_date"`
	TotalJobsSearched int       `json:"total_jobs_searched"`
	NewJobsFound      int       `json:"new_jobs_found"`
	MatchesGenerated  int       `json:"matches_generated"`
	TopMatchesCount   int       `json:"top_matches_count"`
	HTML              string    `json:"-"`
	Markdown          string    `json:"-"`
	Path              string    `json:"path,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

type NotificationStatus string

const (
	NotificationSent   NotificationStatus = "sent"
	NotificationFailed NotificationStatus = "failed"
)

// Notification is one delivery attempt of a report.
type Notification struct {
	ReportID  int64              `json:"report_id"`
	Channel   string             `json:"channel"`
	Recipient string             `json:"recipient"`
	Subject   string             `json:"subject"`
	Status    NotificationStatus `json:"status"`
	Error     string             `json:"error,omitempty"`
	SentAt    *time.Time         `json:"sent_at,omitempty"`
}
