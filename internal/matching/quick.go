// Package matching scores listings against the candidate profile and persists
// the matches worth keeping.
package matching

import (
	"math"
	"strings"

	"github.com/spigell/job-matcher/internal/jobs"
)

const (
	// DefaultQuickFloor is the quick score below which a listing is not scored further.
	DefaultQuickFloor = 15.0
	// DefaultHomeRegion earns the location bonus alongside remote listings.
	DefaultHomeRegion = "oklahoma"

	neutralQuickScore = 50.0
	titleKeywordBonus = 5.0
	locationBonus     = 10.0
)

var titleKeywords = []string{
	"hse",
	"safety",
	"operations",
	"manager",
	"supervisor",
	"coordinator",
	"drilling",
	"consultant",
	"risk",
	"compliance",
}

// QuickScore is a keyword overlap pre-score in [0, 100]. A profile without
// skills scores a neutral 50.
func QuickScore(profile *jobs.Profile, listing *jobs.Listing, homeRegion string) float64 {
	skills := skillSet(profile)
	if len(skills) == 0 {
		return neutralQuickScore
	}

	text := listing.Text()
	found := 0
	for _, skill := range skills {
		if strings.Contains(text, skill) {
			found++
		}
	}
	score := float64(found) / float64(len(skills)) * 100

	title := strings.ToLower(listing.Title)
	for _, kw := range titleKeywords {
		if strings.Contains(title, kw) {
			score += titleKeywordBonus
		}
	}

	location := strings.ToLower(listing.Location)
	homeRegion = strings.ToLower(strings.TrimSpace(homeRegion))
	if strings.Contains(location, "remote") || (homeRegion != "" && strings.Contains(location, homeRegion)) {
		score += locationBonus
	}

	return math.Min(100, score)
}

// skillSet returns the distinct lowercased skill names.
func skillSet(profile *jobs.Profile) []string {
	if profile == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(profile.Skills))
	out := make([]string, 0, len(profile.Skills))
	for _, s := range profile.Skills {
		name := strings.ToLower(strings.TrimSpace(s.Name))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
