package jobs

import (
	"math"
	"time"
)

type Recommendation string

const (
	StrongMatch   Recommendation = "strong_match"
	GoodMatch     Recommendation = "good_match"
	PossibleMatch Recommendation = "possible_match"
	PoorMatch     Recommendation = "poor_match"
)

// Recommendation thresholds on the overall score.
const (
	StrongThreshold   = 80.0
	GoodThreshold     = 65.0
	PossibleThreshold = 50.0
)

// RecommendationFor maps an overall score onto its recommendation label.
func RecommendationFor(score float64) Recommendation {
	switch {
	case score >= StrongThreshold:
		return StrongMatch
	case score >= GoodThreshold:
		return GoodMatch
	case score >= PossibleThreshold:
		return PossibleMatch
	default:
		return PoorMatch
	}
}

// Valid reports whether r is one of the known labels.
func (r Recommendation) Valid() bool {
	switch r {
	case StrongMatch, GoodMatch, PossibleMatch, PoorMatch:
		return true
	}
	return false
}

// MatchResult is the scored association between a profile and a listing.
// Dimension scores are nil when they were not computed.
type MatchResult struct {
	OverallScore    float64        `json:"overall_score"`
	SkillScore      *float64       `json:"skill_match_score,omitempty"`
	ExperienceScore *float64       `json:"experience_match_score,omitempty"`
	LocationScore   *float64       `json:"location_match_score,omitempty"`
	SalaryScore     *float64       `json:"salary_match_score,omitempty"`
	CultureScore    *float64       `json:"culture_fit_score,omitempty"`
	MatchedSkills   []string       `json:"matched_skills"`
	MissingSkills   []string       `json:"missing_skills"`
	Strengths       []string       `json:"strengths"`
	Concerns        []string       `json:"concerns"`
	Reasoning       string         `json:"reasoning"`
	Recommendation  Recommendation `json:"recommendation"`
}

// Consistent reports whether the recommendation agrees with the overall score.
func (r *MatchResult) Consistent() bool {
	return r.Recommendation == RecommendationFor(r.OverallScore)
}

// JobMatch is a stored match joined with its listing.
type JobMatch struct {
	ID        int64       `json:"id"`
	ProfileID int64       `json:"profile_id"`
	Job       Listing     `json:"job"`
	Result    MatchResult `json:"result"`
	ScoredAt  time.Time   `json:"scored_at"`
}

// Score returns a pointer to v, for optional dimension scores.
func Score(v float64) *float64 {
	return &v
}

// Round1 rounds v to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
