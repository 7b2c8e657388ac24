package matching

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/spigell/job-matcher/internal/jobs"
)

const (
	defaultRequiredYears = 5
	baselineScore        = 70.0
	fullScore            = 100.0
	maxMatchedSkills     = 10
	maxListItems         = 5
	strongTenureYears    = 15
	salaryShortfall      = 0.8
)

var requiredYearsRe = regexp.MustCompile(`(\d+)\+?\s*years?`)

// HeuristicScorer scores deterministically from keyword presence and profile facts.
type HeuristicScorer struct {
	weights Weights
}

// NewHeuristicScorer refuses weights that do not sum to one.
func NewHeuristicScorer(weights Weights) (*HeuristicScorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &HeuristicScorer{weights: weights}, nil
}

func (h *HeuristicScorer) Weights() Weights {
	return h.weights
}

func (h *HeuristicScorer) Score(_ context.Context, profile *jobs.Profile, listing *jobs.Listing) (*jobs.MatchResult, error) {
	if profile == nil || listing == nil {
		return nil, fmt.Errorf("profile and listing are required")
	}

	text := listing.Text()

	matched := make([]string, 0)
	missing := make([]string, 0)
	total := 0
	for _, s := range profile.Skills {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			continue
		}
		total++
		if strings.Contains(text, strings.ToLower(name)) {
			matched = append(matched, name)
		} else {
			missing = append(missing, name)
		}
	}
	skillScore := float64(len(matched)) / float64(max(total, 1)) * 100

	required := requiredYears(text)
	experienceScore := fullScore
	if profile.YearsExperience < required {
		experienceScore = float64(profile.YearsExperience) / float64(required) * 100
	}

	locationScore := baselineScore
	if isRemote(listing) {
		locationScore = fullScore
	}

	overall := skillScore*h.weights.Skill +
		experienceScore*h.weights.Experience +
		locationScore*h.weights.Location +
		baselineScore*h.weights.Salary +
		baselineScore*h.weights.Culture
	overall = jobs.Round1(overall)

	return &jobs.MatchResult{
		OverallScore:    overall,
		SkillScore:      jobs.Score(jobs.Round1(skillScore)),
		ExperienceScore: jobs.Score(jobs.Round1(experienceScore)),
		LocationScore:   jobs.Score(locationScore),
		SalaryScore:     jobs.Score(baselineScore),
		CultureScore:    jobs.Score(baselineScore),
		MatchedSkills:   capList(matched, maxMatchedSkills),
		MissingSkills:   capList(missing, maxListItems),
		Strengths:       capList(strengths(profile, text), maxListItems),
		Concerns:        capList(concerns(profile, listing, text), maxListItems),
		Reasoning: fmt.Sprintf("Skill match: %d/%d. Experience: %d years vs %d required.",
			len(matched), total, profile.YearsExperience, required),
		Recommendation: jobs.RecommendationFor(overall),
	}, nil
}

// requiredYears reads the first "N years" mention, defaulting to 5.
func requiredYears(text string) int {
	m := requiredYearsRe.FindStringSubmatch(text)
	if m == nil {
		return defaultRequiredYears
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return defaultRequiredYears
	}
	return n
}

func isRemote(l *jobs.Listing) bool {
	return l.LocationType == jobs.LocationRemote ||
		strings.Contains(strings.ToLower(l.Location), "remote")
}

func strengths(p *jobs.Profile, text string) []string {
	out := make([]string, 0)

	if p.YearsExperience >= strongTenureYears {
		out = append(out, fmt.Sprintf("Extensive %d+ years of industry experience", p.YearsExperience))
	}
	if hasSkill(p, "hse", "safety") && containsAny(text, "hse", "safety") {
		out = append(out, "Strong HSE/Safety background directly relevant to role")
	}
	if hasSkill(p, "leadership", "management") && containsAny(text, "manager", "supervisor", "leader") {
		out = append(out, "Proven leadership and management experience")
	}
	if n := len(p.Certifications); n > 0 {
		out = append(out, fmt.Sprintf("Holds %d relevant industry certifications", n))
	}

	return out
}

func concerns(p *jobs.Profile, l *jobs.Listing, text string) []string {
	out := make([]string, 0)

	if containsAny(text, "software", "developer", "engineer") {
		out = append(out, "Role may require more technical/software skills")
	}
	if l.SalaryMin != nil && p.SalaryMin != nil && *l.SalaryMin > 0 &&
		float64(*l.SalaryMin) < float64(*p.SalaryMin)*salaryShortfall {
		out = append(out, "Listed salary may be below candidate expectations")
	}
	if strings.Contains(text, "field") && !p.WorkPreferences.Travel {
		out = append(out, "Role may have field requirements conflicting with mobility limitations")
	}

	return out
}

func hasSkill(p *jobs.Profile, keywords ...string) bool {
	for _, s := range p.Skills {
		if containsAny(strings.ToLower(s.Name), keywords...) {
			return true
		}
	}
	return false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func capList(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
