package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spigell/job-matcher/internal/jobs"
)

const foreignKeyViolation = "23503"

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// SQLStore implements Store on Postgres through database/sql.
type SQLStore struct {
	DB *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{DB: db}
}

func (s *SQLStore) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

const profileColumns = `id, name, email, phone, linkedin_url, github_url, current_title, years_experience,
	location, work_preferences, salary_min, salary_max, career_summary, created_at, updated_at`

func (s *SQLStore) GetOrCreateProfile(ctx context.Context, name string, attrs jobs.ProfileUpdate) (int64, error) {
	if err := attrs.Validate(); err != nil {
		return 0, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM candidate_profile WHERE name = $1`, name).Scan(&id)
	switch {
	case err == nil:
		return id, tx.Commit()
	case !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("lookup profile: %w", err)
	}

	profile := jobs.Profile{Name: name}
	attrs.Apply(&profile)
	if err := profile.Validate(); err != nil {
		return 0, err
	}

	prefs, err := json.Marshal(profile.WorkPreferences)
	if err != nil {
		return 0, err
	}

	const query = `
INSERT INTO candidate_profile (
	name, email, phone, linkedin_url, github_url, current_title, years_experience,
	location, work_preferences, salary_min, salary_max, career_summary
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id`
	err = tx.QueryRowContext(ctx, query,
		profile.Name,
		profile.Email,
		profile.Phone,
		profile.LinkedInURL,
		profile.GitHubURL,
		profile.CurrentTitle,
		profile.YearsExperience,
		profile.Location,
		string(prefs),
		nullInt(profile.SalaryMin),
		nullInt(profile.SalaryMax),
		profile.CareerSummary,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert profile: %w", err)
	}

	return id, tx.Commit()
}

func (s *SQLStore) UpdateProfile(ctx context.Context, profileID int64, attrs jobs.ProfileUpdate) error {
	if err := attrs.Validate(); err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM candidate_profile WHERE id = $1 FOR UPDATE`, profileID)
	profile, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("profile %d: %w", profileID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	attrs.Apply(profile)
	if err := profile.Validate(); err != nil {
		return err
	}

	prefs, err := json.Marshal(profile.WorkPreferences)
	if err != nil {
		return err
	}

	const query = `
UPDATE candidate_profile SET
	email = $2, phone = $3, linkedin_url = $4, github_url = $5, current_title = $6,
	years_experience = $7, location = $8, work_preferences = $9, salary_min = $10,
	salary_max = $11, career_summary = $12, updated_at = now()
WHERE id = $1`
	_, err = tx.ExecContext(ctx, query,
		profileID,
		profile.Email,
		profile.Phone,
		profile.LinkedInURL,
		profile.GitHubURL,
		profile.CurrentTitle,
		profile.YearsExperience,
		profile.Location,
		string(prefs),
		nullInt(profile.SalaryMin),
		nullInt(profile.SalaryMax),
		profile.CareerSummary,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	return tx.Commit()
}

func (s *SQLStore) GetProfile(ctx context.Context, profileID int64) (*jobs.Profile, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM candidate_profile WHERE id = $1`, profileID)
	profile, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %d: %w", profileID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	if profile.Skills, err = s.skills(ctx, profileID); err != nil {
		return nil, err
	}
	if profile.Experiences, err = s.experiences(ctx, profileID); err != nil {
		return nil, err
	}
	if profile.Certifications, err = s.certifications(ctx, profileID); err != nil {
		return nil, err
	}

	return profile, nil
}

func (s *SQLStore) DefaultProfileID(ctx context.Context) (int64, error) {
	var id int64
	err := s.DB.QueryRowContext(ctx, `SELECT id FROM candidate_profile ORDER BY id LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("default profile: %w", ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("load default profile: %w", err)
	}
	return id, nil
}

func scanProfile(row rowScanner) (*jobs.Profile, error) {
	var (
		p         jobs.Profile
		prefs     []byte
		salaryMin sql.NullInt64
		salaryMax sql.NullInt64
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Email, &p.Phone, &p.LinkedInURL, &p.GitHubURL, &p.CurrentTitle,
		&p.YearsExperience, &p.Location, &prefs, &salaryMin, &salaryMax, &p.CareerSummary,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &p.WorkPreferences); err != nil {
			return nil, fmt.Errorf("decode work preferences: %w", err)
		}
	}
	p.SalaryMin = intFromNull(salaryMin)
	p.SalaryMax = intFromNull(salaryMax)
	return &p, nil
}

func (s *SQLStore) skills(ctx context.Context, profileID int64) ([]jobs.Skill, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, profile_id, skill_name, category, proficiency_level, source, confidence_score
FROM candidate_skills WHERE profile_id = $1 ORDER BY id`, profileID)
	if err != nil {
		return nil, fmt.Errorf("query skills: %w", err)
	}
	defer rows.Close()

	var out []jobs.Skill
	for rows.Next() {
		var sk jobs.Skill
		var category, proficiency string
		if err := rows.Scan(&sk.ID, &sk.ProfileID, &sk.Name, &category, &proficiency, &sk.Source, &sk.Confidence); err != nil {
			return nil, err
		}
		sk.Category = jobs.SkillCategory(category)
		sk.Proficiency = jobs.Proficiency(proficiency)
		out = append(out, sk)
	}
	return out, rows.Err()
}

func (s *SQLStore) experiences(ctx context.Context, profileID int64) ([]jobs.Experience, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, profile_id, company, title, start_date, end_date, description
FROM candidate_experience WHERE profile_id = $1 ORDER BY start_date DESC, id DESC`, profileID)
	if err != nil {
		return nil, fmt.Errorf("query experiences: %w", err)
	}
	defer rows.Close()

	var out []jobs.Experience
	for rows.Next() {
		var e jobs.Experience
		if err := rows.Scan(&e.ID, &e.ProfileID, &e.Company, &e.Title, &e.StartDate, &e.EndDate, &e.Description); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) certifications(ctx context.Context, profileID int64) ([]jobs.Certification, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, profile_id, certification_name, issuer, issue_date, expiry_date
FROM candidate_certifications WHERE profile_id = $1 ORDER BY id`, profileID)
	if err != nil {
		return nil, fmt.Errorf("query certifications: %w", err)
	}
	defer rows.Close()

	var out []jobs.Certification
	for rows.Next() {
		var c jobs.Certification
		if err := rows.Scan(&c.ID, &c.ProfileID, &c.Name, &c.Issuer, &c.IssueDate, &c.ExpiryDate); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) AddSkill(ctx context.Context, profileID int64, skill jobs.Skill) (int64, error) {
	if err := skill.Validate(); err != nil {
		return 0, err
	}

	const query = `
INSERT INTO candidate_skills (profile_id, skill_name, category, proficiency_level, source, confidence_score)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (profile_id, skill_name) DO UPDATE SET
	category = EXCLUDED.category,
	proficiency_level = EXCLUDED.proficiency_level,
	source = EXCLUDED.source,
	confidence_score = EXCLUDED.confidence_score
RETURNING id`

	var id int64
	err := s.DB.QueryRowContext(ctx, query,
		profileID, skill.Name, string(skill.Category), string(skill.Proficiency), skill.Source, skill.Confidence,
	).Scan(&id)
	if err != nil {
		return 0, integrityErr(fmt.Sprintf("profile %d", profileID), err)
	}
	return id, nil
}

func (s *SQLStore) AddExperience(ctx context.Context, profileID int64, exp jobs.Experience) (int64, error) {
	if err := exp.Validate(); err != nil {
		return 0, err
	}

	const query = `
INSERT INTO candidate_experience (profile_id, company, title, start_date, end_date, description)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (profile_id, company, title, start_date) DO UPDATE SET
	end_date = EXCLUDED.end_date,
	description = EXCLUDED.description
RETURNING id`

	var id int64
	err := s.DB.QueryRowContext(ctx, query,
		profileID, exp.Company, exp.Title, exp.StartDate, exp.EndDate, exp.Description,
	).Scan(&id)
	if err != nil {
		return 0, integrityErr(fmt.Sprintf("profile %d", profileID), err)
	}
	return id, nil
}

func (s *SQLStore) AddCertification(ctx context.Context, profileID int64, cert jobs.Certification) (int64, error) {
	if err := cert.Validate(); err != nil {
		return 0, err
	}

	const query = `
INSERT INTO candidate_certifications (profile_id, certification_name, issuer, issue_date, expiry_date)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (profile_id, certification_name) DO UPDATE SET
	issuer = EXCLUDED.issuer,
	issue_date = EXCLUDED.issue_date,
	expiry_date = EXCLUDED.expiry_date
RETURNING id`

	var id int64
	err := s.DB.QueryRowContext(ctx, query,
		profileID, cert.Name, cert.Issuer, cert.IssueDate, cert.ExpiryDate,
	).Scan(&id)
	if err != nil {
		return 0, integrityErr(fmt.Sprintf("profile %d", profileID), err)
	}
	return id, nil
}

func (s *SQLStore) GetOrCreateCompany(ctx context.Context, name string) (int64, error) {
	return getOrCreateCompany(ctx, s.DB, name)
}

func getOrCreateCompany(ctx context.Context, q querier, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("company name is required")
	}

	const query = `
INSERT INTO companies (name) VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id`

	var id int64
	if err := q.QueryRowContext(ctx, query, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("upsert company: %w", err)
	}
	return id, nil
}

func (s *SQLStore) AddJobListing(ctx context.Context, listing jobs.Listing) (int64, bool, error) {
	listing, err := normalizeListing(listing)
	if err != nil {
		return 0, false, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, err
	}
	defer tx.Rollback()

	var id int64
	if listing.ExternalID != "" {
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM job_listings WHERE source = $1 AND external_id = $2`,
			listing.Source, listing.ExternalID,
		).Scan(&id)
		switch {
		case err == nil:
			return id, false, tx.Commit()
		case !errors.Is(err, sql.ErrNoRows):
			return 0, false, fmt.Errorf("lookup by external id: %w", err)
		}
	}

	err = tx.QueryRowContext(ctx,
		`SELECT id FROM job_listings WHERE LOWER(title) = LOWER($1) AND LOWER(company_name) = LOWER($2) ORDER BY id LIMIT 1`,
		listing.Title, listing.CompanyName,
	).Scan(&id)
	switch {
	case err == nil:
		return id, false, tx.Commit()
	case !errors.Is(err, sql.ErrNoRows):
		return 0, false, fmt.Errorf("lookup by title and company: %w", err)
	}

	companyID, err := getOrCreateCompany(ctx, tx, listing.CompanyName)
	if err != nil {
		return 0, false, err
	}

	const query = `
INSERT INTO job_listings (
	source, external_id, company_id, company_name, title, location, location_type,
	description, apply_url, posted_date, salary_min, salary_max, is_active
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, TRUE)
RETURNING id`
	err = tx.QueryRowContext(ctx, query,
		listing.Source,
		nullString(listing.ExternalID),
		companyID,
		listing.CompanyName,
		listing.Title,
		listing.Location,
		string(listing.LocationType),
		listing.Description,
		listing.ApplyURL,
		nullTime(listing.PostedAt),
		nullInt(listing.SalaryMin),
		nullInt(listing.SalaryMax),
	).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("insert listing: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, false, err
	}
	return id, true, nil
}

const listingColumns = `j.id, j.source, COALESCE(j.external_id, ''), COALESCE(j.company_id, 0), j.company_name,
	j.title, j.location, j.location_type, j.description, j.apply_url, j.posted_date, j.salary_min,
	j.salary_max, j.is_active, j.created_at`

type listingScan struct {
	locationType string
	postedAt     sql.NullTime
	salaryMin    sql.NullInt64
	salaryMax    sql.NullInt64
}

func (ls *listingScan) dest(l *jobs.Listing) []any {
	return []any{
		&l.ID, &l.Source, &l.ExternalID, &l.CompanyID, &l.CompanyName, &l.Title, &l.Location,
		&ls.locationType, &l.Description, &l.ApplyURL, &ls.postedAt, &ls.salaryMin, &ls.salaryMax,
		&l.IsActive, &l.CreatedAt,
	}
}

func (ls *listingScan) apply(l *jobs.Listing) {
	l.LocationType = jobs.LocationType(ls.locationType)
	if ls.postedAt.Valid {
		t := ls.postedAt.Time
		l.PostedAt = &t
	}
	l.SalaryMin = intFromNull(ls.salaryMin)
	l.SalaryMax = intFromNull(ls.salaryMax)
}

func (s *SQLStore) UnmatchedJobs(ctx context.Context, profileID int64, limit int) ([]jobs.Listing, error) {
	query := `
SELECT ` + listingColumns + `
FROM job_listings j
LEFT JOIN job_matches m ON m.job_id = j.id AND m.profile_id = $1
WHERE m.id IS NULL AND j.is_active
ORDER BY j.posted_date DESC NULLS LAST, j.id DESC
LIMIT $2`

	rows, err := s.DB.QueryContext(ctx, query, profileID, effectiveLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query unmatched jobs: %w", err)
	}
	defer rows.Close()

	out := make([]jobs.Listing, 0)
	for rows.Next() {
		var (
			l  jobs.Listing
			ls listingScan
		)
		if err := rows.Scan(ls.dest(&l)...); err != nil {
			return nil, err
		}
		ls.apply(&l)
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLStore) AddJobMatch(ctx context.Context, profileID, jobID int64, result jobs.MatchResult) (int64, error) {
	lists, err := marshalLists(result.MatchedSkills, result.MissingSkills, result.Strengths, result.Concerns)
	if err != nil {
		return 0, err
	}

	const query = `
INSERT INTO job_matches (
	profile_id, job_id, overall_score, skill_match_score, experience_match_score,
	location_match_score, salary_match_score, culture_fit_score, matched_skills,
	missing_skills, strengths, concerns, match_reasoning, recommendation
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (profile_id, job_id) DO UPDATE SET
	overall_score = EXCLUDED.overall_score,
	skill_match_score = EXCLUDED.skill_match_score,
	experience_match_score = EXCLUDED.experience_match_score,
	location_match_score = EXCLUDED.location_match_score,
	salary_match_score = EXCLUDED.salary_match_score,
	culture_fit_score = EXCLUDED.culture_fit_score,
	matched_skills = EXCLUDED.matched_skills,
	missing_skills = EXCLUDED.missing_skills,
	strengths = EXCLUDED.strengths,
	concerns = EXCLUDED.concerns,
	match_reasoning = EXCLUDED.match_reasoning,
	recommendation = EXCLUDED.recommendation,
	updated_at = now()
RETURNING id`

	var id int64
	err = s.DB.QueryRowContext(ctx, query,
		profileID,
		jobID,
		result.OverallScore,
		nullFloat(result.SkillScore),
		nullFloat(result.ExperienceScore),
		nullFloat(result.LocationScore),
		nullFloat(result.SalaryScore),
		nullFloat(result.CultureScore),
		lists[0],
		lists[1],
		lists[2],
		lists[3],
		result.Reasoning,
		string(result.Recommendation),
	).Scan(&id)
	if err != nil {
		return 0, integrityErr(fmt.Sprintf("match profile %d job %d", profileID, jobID), err)
	}
	return id, nil
}

func (s *SQLStore) TopMatches(ctx context.Context, profileID int64, limit int, minScore float64) ([]jobs.JobMatch, error) {
	query := `
SELECT m.id, m.profile_id, m.overall_score, m.skill_match_score, m.experience_match_score,
	m.location_match_score, m.salary_match_score, m.culture_fit_score, m.matched_skills,
	m.missing_skills, m.strengths, m.concerns, m.match_reasoning, m.recommendation, m.updated_at,
	` + listingColumns + `
FROM job_matches m
JOIN job_listings j ON j.id = m.job_id
WHERE m.profile_id = $1 AND m.overall_score >= $2 AND j.is_active
ORDER BY m.overall_score DESC, m.id ASC
LIMIT $3`

	rows, err := s.DB.QueryContext(ctx, query, profileID, minScore, sql.NullInt64{Int64: int64(limit), Valid: limit > 0})
	if err != nil {
		return nil, fmt.Errorf("query top matches: %w", err)
	}
	defer rows.Close()

	out := make([]jobs.JobMatch, 0)
	for rows.Next() {
		var (
			m              jobs.JobMatch
			ls             listingScan
			dims           [5]sql.NullFloat64
			lists          [4][]byte
			recommendation string
		)
		dest := []any{
			&m.ID, &m.ProfileID, &m.Result.OverallScore,
			&dims[0], &dims[1], &dims[2], &dims[3], &dims[4],
			&lists[0], &lists[1], &lists[2], &lists[3],
			&m.Result.Reasoning, &recommendation, &m.ScoredAt,
		}
		dest = append(dest, ls.dest(&m.Job)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		ls.apply(&m.Job)

		m.Result.Recommendation = jobs.Recommendation(recommendation)
		m.Result.SkillScore = floatFromNull(dims[0])
		m.Result.ExperienceScore = floatFromNull(dims[1])
		m.Result.LocationScore = floatFromNull(dims[2])
		m.Result.SalaryScore = floatFromNull(dims[3])
		m.Result.CultureScore = floatFromNull(dims[4])

		targets := []*[]string{&m.Result.MatchedSkills, &m.Result.MissingSkills, &m.Result.Strengths, &m.Result.Concerns}
		for i, target := range targets {
			if err := unmarshalList(lists[i], target); err != nil {
				return nil, err
			}
		}

		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLStore) LogSearchRun(ctx context.Context, run jobs.SearchRun) (int64, error) {
	errs, err := marshalLists(run.Errors)
	if err != nil {
		return 0, err
	}

	const query = `
INSERT INTO search_runs (query_id, source, jobs_found, new_jobs, errors, duration_seconds)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`

	var id int64
	err = s.DB.QueryRowContext(ctx, query,
		run.QueryID, run.Source, run.JobsFound, run.NewJobs, errs[0], run.Duration.Seconds(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert search run: %w", err)
	}
	return id, nil
}

func (s *SQLStore) Stats(ctx context.Context) (jobs.Stats, error) {
	const query = `
SELECT
	(SELECT COUNT(*) FROM job_listings WHERE is_active),
	(SELECT COUNT(*) FROM job_listings),
	(SELECT COUNT(*) FROM job_matches),
	(SELECT COUNT(*) FROM companies),
	(SELECT COUNT(*) FROM job_listings WHERE created_at >= $1)`

	var stats jobs.Stats
	err := s.DB.QueryRowContext(ctx, query, startOfDay(now())).Scan(
		&stats.ActiveJobs, &stats.TotalJobs, &stats.TotalMatches, &stats.Companies, &stats.JobsToday,
	)
	if err != nil {
		return jobs.Stats{}, fmt.Errorf("query stats: %w", err)
	}
	return stats, nil
}

func (s *SQLStore) SaveReport(ctx context.Context, report jobs.DailyReport) (int64, error) {
	const query = `
INSERT INTO daily_reports (
	report_date, total_jobs_searched, new_jobs_found, matches_generated, top_matches_count,
	report_html, report_markdown, report_path
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (report_date) DO UPDATE SET
	total_jobs_searched = EXCLUDED.total_jobs_searched,
	new_jobs_found = EXCLUDED.new_jobs_found,
	matches_generated = EXCLUDED.matches_generated,
	top_matches_count = EXCLUDED.top_matches_count,
	report_html = EXCLUDED.report_html,
	report_markdown = EXCLUDED.report_markdown,
	report_path = EXCLUDED.report_path
RETURNING id`

	var id int64
	err := s.DB.QueryRowContext(ctx, query,
		report.ReportDate,
		report.TotalJobsSearched,
		report.NewJobsFound,
		report.MatchesGenerated,
		report.TopMatchesCount,
		report.HTML,
		report.Markdown,
		report.Path,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save report: %w", err)
	}
	return id, nil
}

func (s *SQLStore) LogNotification(ctx context.Context, n jobs.Notification) error {
	const query = `
INSERT INTO notifications (report_id, channel, recipient, subject, status, error_message, sent_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.DB.ExecContext(ctx, query,
		sql.NullInt64{Int64: n.ReportID, Valid: n.ReportID > 0},
		n.Channel,
		n.Recipient,
		n.Subject,
		string(n.Status),
		n.Error,
		nullTime(n.SentAt),
	)
	if err != nil {
		return integrityErr(fmt.Sprintf("report %d", n.ReportID), err)
	}
	return nil
}

// integrityErr maps foreign key violations onto ErrNotFound.
func integrityErr(subject string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return fmt.Errorf("%s: %w: %s", subject, ErrNotFound, pgErr.Message)
	}
	return fmt.Errorf("%s: %w", subject, err)
}

func marshalLists(lists ...[]string) ([]string, error) {
	out := make([]string, 0, len(lists))
	for _, list := range lists {
		if list == nil {
			list = []string{}
		}
		data, err := json.Marshal(list)
		if err != nil {
			return nil, err
		}
		out = append(out, string(data))
	}
	return out, nil
}

func unmarshalList(data []byte, target *[]string) error {
	if len(data) == 0 {
		*target = []string{}
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode list: %w", err)
	}
	if *target == nil {
		*target = []string{}
	}
	return nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}

func intFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func floatFromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return jobs.Score(v.Float64)
}
