// Package profile keeps the stored candidate profile in sync with the configured one.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/logger"
)

const (
	sourceManual = "manual"
	sourceResume = "resume"

	resumeConfidence = 0.9
)

type SkillConfig struct {
	Name     string `mapstructure:"name"`
	Category string `mapstructure:"category"`
	Level    string `mapstructure:"level"`
}

type ExperienceConfig struct {
	Company     string `mapstructure:"company"`
	Title       string `mapstructure:"title"`
	StartDate   string `mapstructure:"start_date"`
	EndDate     string `mapstructure:"end_date"`
	Description string `mapstructure:"description"`
}

type CertificationConfig struct {
	Name       string `mapstructure:"name"`
	Issuer     string `mapstructure:"issuer"`
	IssueDate  string `mapstructure:"issue_date"`
	ExpiryDate string `mapstructure:"expiry_date"`
}

// Config is the candidate as written in the config file.
type Config struct {
	Name            string                `mapstructure:"name"`
	Email           string                `mapstructure:"email"`
	Phone           string                `mapstructure:"phone"`
	LinkedInURL     string                `mapstructure:"linkedin_url"`
	GitHubUsername  string                `mapstructure:"github_username"`
	CurrentTitle    string                `mapstructure:"current_title"`
	YearsExperience int                   `mapstructure:"years_experience"`
	Location        string                `mapstructure:"location"`
	WorkPreferences *jobs.WorkPreferences `mapstructure:"work_preferences"`
	SalaryMin       *int                  `mapstructure:"salary_min"`
	SalaryMax       *int                  `mapstructure:"salary_max"`
	CareerSummary   string                `mapstructure:"career_summary"`
	Skills          []SkillConfig         `mapstructure:"skills"`
	Experiences     []ExperienceConfig    `mapstructure:"experiences"`
	Certifications  []CertificationConfig `mapstructure:"certifications"`
	Resumes         []string              `mapstructure:"resumes"`
}

// Store is the part of the store the builder writes to.
type Store interface {
	GetOrCreateProfile(ctx context.Context, name string, attrs jobs.ProfileUpdate) (int64, error)
	UpdateProfile(ctx context.Context, profileID int64, attrs jobs.ProfileUpdate) error
	GetProfile(ctx context.Context, profileID int64) (*jobs.Profile, error)
	AddSkill(ctx context.Context, profileID int64, skill jobs.Skill) (int64, error)
	AddExperience(ctx context.Context, profileID int64, exp jobs.Experience) (int64, error)
	AddCertification(ctx context.Context, profileID int64, cert jobs.Certification) (int64, error)
}

type Builder struct {
	store  Store
	logger *zap.Logger
}

func NewBuilder(st Store, log *zap.Logger) *Builder {
	return &Builder{store: st, logger: logger.WithFields(log)}
}

// Build creates or updates the profile and returns its id. Resume problems are logged, not returned.
func (b *Builder) Build(ctx context.Context, cfg Config) (int64, error) {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		return 0, errors.New("profile name is required")
	}

	b.logger.Info("building profile", zap.String("name", name))

	id, err := b.store.GetOrCreateProfile(ctx, name, identity(cfg))
	if err != nil {
		return 0, fmt.Errorf("get or create profile: %w", err)
	}

	for _, path := range cfg.Resumes {
		if err := b.applyResume(ctx, id, path); err != nil {
			b.logger.Warn("resume skipped", zap.String("path", path), zap.Error(err))
		}
	}

	if err := b.applyManual(ctx, id, cfg); err != nil {
		return id, err
	}

	summary := strings.TrimSpace(cfg.CareerSummary)
	if summary == "" {
		p, err := b.store.GetProfile(ctx, id)
		if err != nil {
			return id, fmt.Errorf("load profile: %w", err)
		}
		summary = Summary(p.Skills)
	}
	if summary != "" {
		if err := b.store.UpdateProfile(ctx, id, jobs.ProfileUpdate{CareerSummary: &summary}); err != nil {
			return id, fmt.Errorf("update summary: %w", err)
		}
	}

	b.logger.Info("profile built", zap.Int64("profile_id", id))
	return id, nil
}

func identity(cfg Config) jobs.ProfileUpdate {
	var u jobs.ProfileUpdate
	if cfg.Email != "" {
		u.Email = &cfg.Email
	}
	if cfg.Phone != "" {
		u.Phone = &cfg.Phone
	}
	if cfg.LinkedInURL != "" {
		u.LinkedInURL = &cfg.LinkedInURL
	}
	if cfg.GitHubUsername != "" {
		github := "https://github.com/" + cfg.GitHubUsername
		u.GitHubURL = &github
	}
	return u
}

func (b *Builder) applyResume(ctx context.Context, id int64, path string) error {
	text, err := ExtractText(ctx, path)
	if err != nil {
		return err
	}

	parsed := ParseResume(text)
	for _, skill := range parsed.Skills {
		skill.Source = sourceResume
		skill.Confidence = resumeConfidence
		if _, err := b.store.AddSkill(ctx, id, skill); err != nil {
			return fmt.Errorf("add skill %q: %w", skill.Name, err)
		}
	}
	for _, cert := range parsed.Certifications {
		if _, err := b.store.AddCertification(ctx, id, cert); err != nil {
			return fmt.Errorf("add certification %q: %w", cert.Name, err)
		}
	}
	if parsed.YearsExperience > 0 {
		years := parsed.YearsExperience
		if err := b.store.UpdateProfile(ctx, id, jobs.ProfileUpdate{YearsExperience: &years}); err != nil {
			return fmt.Errorf("update years: %w", err)
		}
	}

	b.logger.Info("resume parsed",
		zap.String("path", path),
		zap.Int("skills", len(parsed.Skills)),
		zap.Int("certifications", len(parsed.Certifications)),
		zap.Int("years_experience", parsed.YearsExperience),
	)
	return nil
}

// applyManual writes configured values last so they win over resume guesses.
func (b *Builder) applyManual(ctx context.Context, id int64, cfg Config) error {
	var u jobs.ProfileUpdate
	if cfg.CurrentTitle != "" {
		u.CurrentTitle = &cfg.CurrentTitle
	}
	if cfg.YearsExperience > 0 {
		u.YearsExperience = &cfg.YearsExperience
	}
	if cfg.Location != "" {
		u.Location = &cfg.Location
	}
	u.WorkPreferences = cfg.WorkPreferences
	u.SalaryMin = cfg.SalaryMin
	u.SalaryMax = cfg.SalaryMax

	if err := b.store.UpdateProfile(ctx, id, u); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	for _, s := range cfg.Skills {
		category := jobs.SkillCategory(strings.ToLower(s.Category))
		if category == "" {
			category = Classify(s.Name)
		}
		skill := jobs.Skill{
			Name:        strings.TrimSpace(s.Name),
			Category:    category,
			Proficiency: jobs.Proficiency(strings.ToLower(s.Level)),
			Source:      sourceManual,
			Confidence:  1,
		}
		if _, err := b.store.AddSkill(ctx, id, skill); err != nil {
			return fmt.Errorf("add skill %q: %w", s.Name, err)
		}
	}

	for _, e := range cfg.Experiences {
		exp := jobs.Experience{
			Company:     e.Company,
			Title:       e.Title,
			StartDate:   e.StartDate,
			EndDate:     e.EndDate,
			Description: e.Description,
		}
		if _, err := b.store.AddExperience(ctx, id, exp); err != nil {
			return fmt.Errorf("add experience %q: %w", e.Title, err)
		}
	}

	for _, c := range cfg.Certifications {
		cert := jobs.Certification{
			Name:       c.Name,
			Issuer:     c.Issuer,
			IssueDate:  c.IssueDate,
			ExpiryDate: c.ExpiryDate,
		}
		if _, err := b.store.AddCertification(ctx, id, cert); err != nil {
			return fmt.Errorf("add certification %q: %w", c.Name, err)
		}
	}

	return nil
}

// Summary lists up to five skills per category, domain first.
func Summary(skills []jobs.Skill) string {
	groups := make(map[jobs.SkillCategory][]string)
	for _, s := range skills {
		groups[s.Category] = append(groups[s.Category], s.Name)
	}

	sections := []struct {
		category jobs.SkillCategory
		label    string
	}{
		{jobs.SkillDomain, "Domain expertise"},
		{jobs.SkillTechnical, "Technical skills"},
		{jobs.SkillCertification, "Certifications"},
		{jobs.SkillSoft, "Leadership"},
	}

	parts := make([]string, 0, len(sections))
	for _, sec := range sections {
		names := groups[sec.category]
		if len(names) == 0 {
			continue
		}
		if len(names) > 5 {
			names = names[:5]
		}
		parts = append(parts, fmt.Sprintf("%s: %s", sec.label, strings.Join(names, ", ")))
	}
	return strings.Join(parts, ". ")
}
