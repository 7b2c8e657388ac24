package ai

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/spigell/job-matcher/internal/jobs"
)

//go:embed prompt.md
var promptTemplate string

const (
	maxPromptSkills         = 20
	maxPromptExperiences    = 5
	maxPromptCertifications = 10
	maxDescriptionRunes     = 2000
)

// DefaultConsiderations are appended to the prompt when none are configured.
var DefaultConsiderations = []string{
	"Years of relevant industry experience are highly valuable",
	"Experience in high-risk industries transfers well to similar environments",
	"Leadership and compliance experience is transferable",
	"The candidate's work arrangement preferences",
}

// BuildPrompt renders the match prompt for one profile and listing.
func BuildPrompt(profile *jobs.Profile, listing *jobs.Listing, considerations []string) string {
	if len(considerations) == 0 {
		considerations = DefaultConsiderations
	}

	var notes strings.Builder
	for _, c := range considerations {
		if c = strings.TrimSpace(c); c == "" {
			continue
		}
		fmt.Fprintf(&notes, "- %s\n", c)
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{PROFILE}}", describeProfile(profile))
	prompt = strings.ReplaceAll(prompt, "{{JOB}}", describeListing(listing))
	return strings.ReplaceAll(prompt, "{{CONSIDERATIONS}}", strings.TrimRight(notes.String(), "\n"))
}

func describeProfile(p *jobs.Profile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Name: %s\n", p.Name)
	fmt.Fprintf(&b, "Current Title: %s\n", orNA(p.CurrentTitle))
	fmt.Fprintf(&b, "Years of Experience: %d\n", p.YearsExperience)
	fmt.Fprintf(&b, "Location: %s\n", orNA(p.Location))
	fmt.Fprintf(&b, "Work Preferences: %s\n", preferences(p.WorkPreferences))
	fmt.Fprintf(&b, "Salary Range: %s - %s\n", money(p.SalaryMin), money(p.SalaryMax))

	b.WriteString("\n### Skills\n")
	for _, s := range head(p.Skills, maxPromptSkills) {
		fmt.Fprintf(&b, "- %s (%s, %s)\n", s.Name, orDefault(string(s.Category), "general"), orDefault(string(s.Proficiency), "unspecified"))
	}

	b.WriteString("\n### Recent Experience\n")
	for _, e := range head(p.Experiences, maxPromptExperiences) {
		fmt.Fprintf(&b, "- %s at %s (%s-%s)\n", e.Title, e.Company, orDefault(e.StartDate, "?"), orDefault(e.EndDate, "present"))
	}

	b.WriteString("\n### Certifications\n")
	for _, c := range head(p.Certifications, maxPromptCertifications) {
		fmt.Fprintf(&b, "- %s\n", c.Name)
	}

	b.WriteString("\n### Career Context\n")
	b.WriteString(orNA(p.CareerSummary))

	return b.String()
}

func describeListing(l *jobs.Listing) string {
	locationType := l.LocationType
	if locationType == "" {
		locationType = jobs.LocationUnknown
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", l.Title)
	fmt.Fprintf(&b, "Company: %s\n", l.CompanyName)
	fmt.Fprintf(&b, "Location: %s (%s)\n", orNA(l.Location), locationType)
	fmt.Fprintf(&b, "Salary: %s - %s\n", money(l.SalaryMin), money(l.SalaryMax))

	b.WriteString("\n### Description\n")
	desc := strings.TrimSpace(l.Description)
	if desc == "" {
		desc = "No description available"
	}
	if runes := []rune(desc); len(runes) > maxDescriptionRunes {
		desc = string(runes[:maxDescriptionRunes])
	}
	b.WriteString(desc)

	return b.String()
}

func preferences(w jobs.WorkPreferences) string {
	var kinds []string
	if w.Remote {
		kinds = append(kinds, "remote")
	}
	if w.Hybrid {
		kinds = append(kinds, "hybrid")
	}
	if w.Onsite {
		kinds = append(kinds, "onsite")
	}
	if w.Travel {
		kinds = append(kinds, "travel")
	}
	if w.Relocation {
		kinds = append(kinds, "relocation")
	}

	out := orNA(strings.Join(kinds, ", "))
	if notes := strings.TrimSpace(w.Notes); notes != "" {
		out += " (" + notes + ")"
	}
	return out
}

func money(v *int) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("$%d", *v)
}

func orNA(s string) string {
	return orDefault(s, "N/A")
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
