package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/job-matcher/internal/jobs"
)

func newMock(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLStore(db), mock
}

func TestSQLAddJobListingInsertsNew(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM job_listings WHERE source = $1 AND external_id = $2`)).
		WithArgs("adzuna", "A1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM job_listings WHERE LOWER(title) = LOWER($1)`)).
		WithArgs("HSE Manager", "Acme").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("INSERT INTO companies").
		WithArgs("Acme").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery("INSERT INTO job_listings").
		WithArgs("adzuna", "A1", 7, "Acme", "HSE Manager", "Tulsa, OK", "onsite", "", "", nil, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectCommit()

	id, created, err := s.AddJobListing(context.Background(), jobs.Listing{
		Source:       "adzuna",
		ExternalID:   "A1",
		CompanyName:  "Acme",
		Title:        "HSE Manager",
		Location:     "Tulsa, OK",
		LocationType: jobs.LocationOnsite,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(11), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLAddJobListingStoresTrimmedFields(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM job_listings WHERE LOWER(title) = LOWER($1)`)).
		WithArgs("Foo", "Acme").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("INSERT INTO companies").
		WithArgs("Acme").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery("INSERT INTO job_listings").
		WithArgs("remoteok", nil, 7, "Acme", "Foo", "", "unknown", "", "", nil, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))
	mock.ExpectCommit()

	id, created, err := s.AddJobListing(context.Background(), jobs.Listing{
		Source:      "remoteok",
		CompanyName: " Acme ",
		Title:       "Foo ",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(12), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLAddJobListingReturnsExisting(t *testing.T) {
	tests := []struct {
		name  string
		setup func(mock sqlmock.Sqlmock)
		input jobs.Listing
	}{
		{
			name: "external id hit",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT id FROM job_listings WHERE source").
					WithArgs("adzuna", "A1").
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
			},
			input: jobs.Listing{Source: "adzuna", ExternalID: "A1", CompanyName: "Acme", Title: "HSE Manager"},
		},
		{
			name: "title and company hit without external id",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("LOWER(title) = LOWER($1)")).
					WithArgs("hse manager", "ACME").
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
			},
			input: jobs.Listing{Source: "remoteok", CompanyName: "ACME", Title: "hse manager"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMock(t)
			mock.ExpectBegin()
			tt.setup(mock)
			mock.ExpectCommit()

			id, created, err := s.AddJobListing(context.Background(), tt.input)
			require.NoError(t, err)
			assert.False(t, created)
			assert.Equal(t, int64(3), id)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLAddJobListingRejectsInvalid(t *testing.T) {
	s, mock := newMock(t)

	_, _, err := s.AddJobListing(context.Background(), jobs.Listing{Source: "adzuna", Title: "No company"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLAddJobMatchUpserts(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (profile_id, job_id) DO UPDATE")).
		WithArgs(1, 2, 88.0, 100.0, nil, nil, nil, nil, `["HSE"]`, `[]`, `[]`, `[]`, "ok", "strong_match").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

	id, err := s.AddJobMatch(context.Background(), 1, 2, jobs.MatchResult{
		OverallScore:   88,
		SkillScore:     jobs.Score(100),
		MatchedSkills:  []string{"HSE"},
		Reasoning:      "ok",
		Recommendation: jobs.StrongMatch,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLAddJobMatchMissingJob(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery("INSERT INTO job_matches").
		WillReturnError(&pgconn.PgError{Code: "23503", Message: "violates foreign key constraint"})

	_, err := s.AddJobMatch(context.Background(), 1, 99, jobs.MatchResult{OverallScore: 50})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLUnmatchedJobsDefaultsLimit(t *testing.T) {
	s, mock := newMock(t)

	posted := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "source", "external_id", "company_id", "company_name", "title", "location", "location_type",
		"description", "apply_url", "posted_date", "salary_min", "salary_max", "is_active", "created_at",
	}).AddRow(4, "adzuna", "A1", 7, "Acme", "HSE Manager", "Remote", "remote", "desc", "https://x", posted, 90000, nil, true, posted)

	mock.ExpectQuery("LEFT JOIN job_matches").
		WithArgs(1, DefaultUnmatchedLimit).
		WillReturnRows(rows)

	got, err := s.UnmatchedJobs(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, jobs.LocationRemote, got[0].LocationType)
	require.NotNil(t, got[0].PostedAt)
	assert.True(t, posted.Equal(*got[0].PostedAt))
	require.NotNil(t, got[0].SalaryMin)
	assert.Equal(t, 90000, *got[0].SalaryMin)
	assert.Nil(t, got[0].SalaryMax)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLTopMatchesDecodesRows(t *testing.T) {
	s, mock := newMock(t)

	scored := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "profile_id", "overall_score", "skill_match_score", "experience_match_score",
		"location_match_score", "salary_match_score", "culture_fit_score", "matched_skills",
		"missing_skills", "strengths", "concerns", "match_reasoning", "recommendation", "updated_at",
		"id", "source", "external_id", "company_id", "company_name", "title", "location", "location_type",
		"description", "apply_url", "posted_date", "salary_min", "salary_max", "is_active", "created_at",
	}).AddRow(
		9, 1, 88.0, 100.0, 100.0, 70.0, 70.0, 70.0,
		[]byte(`["HSE","OSHA"]`), []byte(`[]`), []byte(`["Extensive 18+ years of industry experience"]`), []byte(`null`),
		"Skill match: 2/2.", "strong_match", scored,
		4, "adzuna", "", 7, "Acme", "HSE Manager", "Remote", "remote",
		"", "", nil, nil, nil, true, scored,
	)

	mock.ExpectQuery("FROM job_matches m").
		WithArgs(1, 60.0, nil).
		WillReturnRows(rows)

	got, err := s.TopMatches(context.Background(), 1, 0, 60)
	require.NoError(t, err)
	require.Len(t, got, 1)

	m := got[0]
	assert.Equal(t, 88.0, m.Result.OverallScore)
	require.NotNil(t, m.Result.LocationScore)
	assert.Equal(t, 70.0, *m.Result.LocationScore)
	assert.Equal(t, []string{"HSE", "OSHA"}, m.Result.MatchedSkills)
	assert.Equal(t, []string{}, m.Result.MissingSkills)
	assert.Equal(t, []string{}, m.Result.Concerns)
	assert.Equal(t, jobs.StrongMatch, m.Result.Recommendation)
	assert.Equal(t, "Acme", m.Job.CompanyName)
	assert.Nil(t, m.Job.PostedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStats(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM job_listings WHERE is_active")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c", "d", "e"}).AddRow(10, 12, 4, 6, 2))

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, jobs.Stats{ActiveJobs: 10, TotalJobs: 12, TotalMatches: 4, Companies: 6, JobsToday: 2}, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSaveReportAndNotification(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (report_date) DO UPDATE")).
		WithArgs("2024-03-01", 20, 3, 15, 5, "<html>", "# md", "/tmp/job_report_2024-03-01.md").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(2, "slack", "", "Job Match Report - 2024-03-01", "sent", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	id, err := s.SaveReport(context.Background(), jobs.DailyReport{
		ReportDate:        "2024-03-01",
		TotalJobsSearched: 20,
		NewJobsFound:      3,
		MatchesGenerated:  15,
		TopMatchesCount:   5,
		HTML:              "<html>",
		Markdown:          "# md",
		Path:              "/tmp/job_report_2024-03-01.md",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)

	sent := time.Now()
	err = s.LogNotification(context.Background(), jobs.Notification{
		ReportID: id,
		Channel:  "slack",
		Subject:  "Job Match Report - 2024-03-01",
		Status:   jobs.NotificationSent,
		SentAt:   &sent,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLGetOrCreateProfileReturnsExisting(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM candidate_profile WHERE name").
		WithArgs("Jane Doe").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	id, err := s.GetOrCreateProfile(context.Background(), "Jane Doe", jobs.ProfileUpdate{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLDefaultProfileID(t *testing.T) {
	s, mock := newMock(t)
	query := regexp.QuoteMeta(`SELECT id FROM candidate_profile ORDER BY id LIMIT 1`)

	mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	id, err := s.DefaultProfileID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), id)

	mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = s.DefaultProfileID(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
