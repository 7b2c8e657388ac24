package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/spigell/job-matcher/internal/jobs"
)

type matchKey struct {
	profileID int64
	jobID     int64
}

// MemoryStore keeps everything in process memory. It backs tests and dry runs
// without a database.
type MemoryStore struct {
	mu sync.RWMutex

	seq            map[string]int64
	profiles       map[int64]*jobs.Profile
	skills         map[int64][]jobs.Skill
	experiences    map[int64][]jobs.Experience
	certifications map[int64][]jobs.Certification
	companies      map[string]int64
	listings       []jobs.Listing
	matches        map[matchKey]*jobs.JobMatch
	runs           []jobs.SearchRun
	reports        map[string]jobs.DailyReport
	notifications  []jobs.Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		seq:            make(map[string]int64),
		profiles:       make(map[int64]*jobs.Profile),
		skills:         make(map[int64][]jobs.Skill),
		experiences:    make(map[int64][]jobs.Experience),
		certifications: make(map[int64][]jobs.Certification),
		companies:      make(map[string]int64),
		matches:        make(map[matchKey]*jobs.JobMatch),
		reports:        make(map[string]jobs.DailyReport),
	}
}

func (s *MemoryStore) next(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

func (s *MemoryStore) GetOrCreateProfile(ctx context.Context, name string, attrs jobs.ProfileUpdate) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := attrs.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, p := range s.profiles {
		if p.Name == name {
			return id, nil
		}
	}

	profile := &jobs.Profile{Name: name}
	attrs.Apply(profile)
	if err := profile.Validate(); err != nil {
		return 0, err
	}

	profile.ID = s.next("profiles")
	profile.CreatedAt = now().UTC()
	profile.UpdatedAt = profile.CreatedAt
	s.profiles[profile.ID] = profile

	return profile.ID, nil
}

func (s *MemoryStore) UpdateProfile(ctx context.Context, profileID int64, attrs jobs.ProfileUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := attrs.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[profileID]
	if !ok {
		return fmt.Errorf("profile %d: %w", profileID, ErrNotFound)
	}

	updated := *profile
	attrs.Apply(&updated)
	if err := updated.Validate(); err != nil {
		return err
	}
	updated.UpdatedAt = now().UTC()
	s.profiles[profileID] = &updated

	return nil
}

func (s *MemoryStore) GetProfile(ctx context.Context, profileID int64) (*jobs.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[profileID]
	if !ok {
		return nil, fmt.Errorf("profile %d: %w", profileID, ErrNotFound)
	}

	out := *profile
	out.Skills = slices.Clone(s.skills[profileID])
	out.Experiences = slices.Clone(s.experiences[profileID])
	out.Certifications = slices.Clone(s.certifications[profileID])

	return &out, nil
}

func (s *MemoryStore) DefaultProfileID(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var first int64
	for id := range s.profiles {
		if first == 0 || id < first {
			first = id
		}
	}
	if first == 0 {
		return 0, fmt.Errorf("default profile: %w", ErrNotFound)
	}
	return first, nil
}

func (s *MemoryStore) AddSkill(ctx context.Context, profileID int64, skill jobs.Skill) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := skill.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[profileID]; !ok {
		return 0, fmt.Errorf("profile %d: %w", profileID, ErrNotFound)
	}

	skills := s.skills[profileID]
	for i := range skills {
		if skills[i].Name == skill.Name {
			skill.ID = skills[i].ID
			skill.ProfileID = profileID
			skills[i] = skill
			return skill.ID, nil
		}
	}

	skill.ID = s.next("skills")
	skill.ProfileID = profileID
	s.skills[profileID] = append(skills, skill)

	return skill.ID, nil
}

func (s *MemoryStore) AddExperience(ctx context.Context, profileID int64, exp jobs.Experience) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := exp.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[profileID]; !ok {
		return 0, fmt.Errorf("profile %d: %w", profileID, ErrNotFound)
	}

	list := s.experiences[profileID]
	for i := range list {
		if list[i].Company == exp.Company && list[i].Title == exp.Title && list[i].StartDate == exp.StartDate {
			exp.ID = list[i].ID
			exp.ProfileID = profileID
			list[i] = exp
			return exp.ID, nil
		}
	}

	exp.ID = s.next("experiences")
	exp.ProfileID = profileID
	s.experiences[profileID] = append(list, exp)

	return exp.ID, nil
}

func (s *MemoryStore) AddCertification(ctx context.Context, profileID int64, cert jobs.Certification) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := cert.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[profileID]; !ok {
		return 0, fmt.Errorf("profile %d: %w", profileID, ErrNotFound)
	}

	list := s.certifications[profileID]
	for i := range list {
		if list[i].Name == cert.Name {
			cert.ID = list[i].ID
			cert.ProfileID = profileID
			list[i] = cert
			return cert.ID, nil
		}
	}

	cert.ID = s.next("certifications")
	cert.ProfileID = profileID
	s.certifications[profileID] = append(list, cert)

	return cert.ID, nil
}

func (s *MemoryStore) GetOrCreateCompany(ctx context.Context, name string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.companyLocked(name)
}

func (s *MemoryStore) companyLocked(name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("company name is required")
	}
	if id, ok := s.companies[name]; ok {
		return id, nil
	}
	id := s.next("companies")
	s.companies[name] = id
	return id, nil
}

func (s *MemoryStore) AddJobListing(ctx context.Context, listing jobs.Listing) (int64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	listing, err := normalizeListing(listing)
	if err != nil {
		return 0, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if listing.ExternalID != "" {
		for _, existing := range s.listings {
			if existing.Source == listing.Source && existing.ExternalID == listing.ExternalID {
				return existing.ID, false, nil
			}
		}
	}

	key := listing.DedupKey()
	for _, existing := range s.listings {
		if existing.DedupKey() == key {
			return existing.ID, false, nil
		}
	}

	companyID, err := s.companyLocked(listing.CompanyName)
	if err != nil {
		return 0, false, err
	}

	listing.ID = s.next("listings")
	listing.CompanyID = companyID
	listing.CreatedAt = now().UTC()
	s.listings = append(s.listings, listing)

	return listing.ID, true, nil
}

func (s *MemoryStore) UnmatchedJobs(ctx context.Context, profileID int64, limit int) ([]jobs.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]jobs.Listing, 0)
	for _, l := range s.listings {
		if !l.IsActive {
			continue
		}
		if _, matched := s.matches[matchKey{profileID: profileID, jobID: l.ID}]; matched {
			continue
		}
		out = append(out, l)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return postedAfter(out[i], out[j])
	})

	if limit = effectiveLimit(limit); len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

// postedAfter orders newest first, undated last, then by id descending.
func postedAfter(a, b jobs.Listing) bool {
	switch {
	case a.PostedAt != nil && b.PostedAt != nil:
		if !a.PostedAt.Equal(*b.PostedAt) {
			return a.PostedAt.After(*b.PostedAt)
		}
	case a.PostedAt != nil:
		return true
	case b.PostedAt != nil:
		return false
	}
	return a.ID > b.ID
}

func (s *MemoryStore) AddJobMatch(ctx context.Context, profileID, jobID int64, result jobs.MatchResult) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[profileID]; !ok {
		return 0, fmt.Errorf("profile %d: %w", profileID, ErrNotFound)
	}
	if s.listingLocked(jobID) == nil {
		return 0, fmt.Errorf("job %d: %w", jobID, ErrNotFound)
	}

	key := matchKey{profileID: profileID, jobID: jobID}
	if existing, ok := s.matches[key]; ok {
		existing.Result = cloneResult(result)
		existing.ScoredAt = now().UTC()
		return existing.ID, nil
	}

	m := &jobs.JobMatch{
		ID:        s.next("matches"),
		ProfileID: profileID,
		Result:    cloneResult(result),
		ScoredAt:  now().UTC(),
	}
	m.Job.ID = jobID
	s.matches[key] = m

	return m.ID, nil
}

func (s *MemoryStore) listingLocked(id int64) *jobs.Listing {
	for i := range s.listings {
		if s.listings[i].ID == id {
			return &s.listings[i]
		}
	}
	return nil
}

func (s *MemoryStore) TopMatches(ctx context.Context, profileID int64, limit int, minScore float64) ([]jobs.JobMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]jobs.JobMatch, 0)
	for key, m := range s.matches {
		if key.profileID != profileID || m.Result.OverallScore < minScore {
			continue
		}
		listing := s.listingLocked(key.jobID)
		if listing == nil || !listing.IsActive {
			continue
		}
		joined := *m
		joined.Job = *listing
		joined.Result = cloneResult(m.Result)
		out = append(out, joined)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Result.OverallScore != out[j].Result.OverallScore {
			return out[i].Result.OverallScore > out[j].Result.OverallScore
		}
		return out[i].ID < out[j].ID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (s *MemoryStore) LogSearchRun(ctx context.Context, run jobs.SearchRun) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	run.ID = s.next("search_runs")
	if run.StartedAt.IsZero() {
		run.StartedAt = now().UTC()
	}
	run.Errors = slices.Clone(run.Errors)
	s.runs = append(s.runs, run)

	return run.ID, nil
}

// SearchRuns returns the logged runs in insertion order.
func (s *MemoryStore) SearchRuns() []jobs.SearchRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.runs)
}

func (s *MemoryStore) Stats(ctx context.Context) (jobs.Stats, error) {
	if err := ctx.Err(); err != nil {
		return jobs.Stats{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	today := startOfDay(now())
	stats := jobs.Stats{
		TotalJobs:    len(s.listings),
		TotalMatches: len(s.matches),
		Companies:    len(s.companies),
	}
	for _, l := range s.listings {
		if l.IsActive {
			stats.ActiveJobs++
		}
		if !l.CreatedAt.Before(today) {
			stats.JobsToday++
		}
	}

	return stats, nil
}

func (s *MemoryStore) SaveReport(ctx context.Context, report jobs.DailyReport) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.reports[report.ReportDate]; ok {
		report.ID = existing.ID
		report.CreatedAt = existing.CreatedAt
	} else {
		report.ID = s.next("reports")
		report.CreatedAt = now().UTC()
	}
	s.reports[report.ReportDate] = report

	return report.ID, nil
}

// Report returns the saved report for date.
func (s *MemoryStore) Report(date string) (jobs.DailyReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[date]
	return r, ok
}

func (s *MemoryStore) LogNotification(ctx context.Context, n jobs.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = append(s.notifications, n)
	return nil
}

// Notifications returns the logged deliveries in insertion order.
func (s *MemoryStore) Notifications() []jobs.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.notifications)
}

func (s *MemoryStore) Close() error { return nil }

func cloneResult(r jobs.MatchResult) jobs.MatchResult {
	r.MatchedSkills = slices.Clone(r.MatchedSkills)
	r.MissingSkills = slices.Clone(r.MissingSkills)
	r.Strengths = slices.Clone(r.Strengths)
	r.Concerns = slices.Clone(r.Concerns)
	r.SkillScore = cloneScore(r.SkillScore)
	r.ExperienceScore = cloneScore(r.ExperienceScore)
	r.LocationScore = cloneScore(r.LocationScore)
	r.SalaryScore = cloneScore(r.SalaryScore)
	r.CultureScore = cloneScore(r.CultureScore)
	return r
}

func cloneScore(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return jobs.Score(*v)
}
