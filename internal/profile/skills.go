package profile

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/spigell/job-matcher/internal/jobs"
)

// categories is checked in order; the first category listing a term wins in Classify.
var categories = []struct {
	category jobs.SkillCategory
	terms    []string
}{
	{jobs.SkillTechnical, []string{
		"python", "javascript", "typescript", "rust", "go", "java", "c++", "c#",
		"swift", "kotlin", "ruby", "php", "sql", "nosql", "mongodb", "postgresql",
		"mysql", "redis", "docker", "kubernetes", "aws", "azure", "gcp", "terraform",
		"ansible", "jenkins", "git", "linux", "react", "vue", "angular", "node.js",
		"django", "flask", "fastapi", "spring", "machine learning", "deep learning",
		"nlp", "computer vision", "data science", "analytics", "excel", "powerpoint",
		"word", "tableau", "power bi",
	}},
	{jobs.SkillDomain, []string{
		"oil and gas", "drilling", "hse", "safety", "osha", "well control", "mpd",
		"managed pressure drilling", "completions", "workover", "production",
		"upstream", "midstream", "downstream", "energy", "construction", "mining",
		"manufacturing", "logistics", "supply chain", "project management",
		"operations", "field operations", "consulting",
	}},
	{jobs.SkillCertification, []string{
		"iadc rigpass", "well control", "hazwoper", "osha 30", "osha 10",
		"safeland", "safegulf", "pmp", "six sigma", "aws certified",
		"cpr", "first aid", "forklift", "h2s", "confined space", "fall protection",
		"taprroot", "loto", "lockout tagout",
	}},
	{jobs.SkillSoft, []string{
		"leadership", "communication", "team management", "project management",
		"problem solving", "critical thinking", "decision making", "negotiation",
		"stakeholder management", "vendor management", "contractor management",
		"training", "mentoring", "reporting", "documentation", "coordination",
	}},
}

var knownCertifications = []jobs.Certification{
	{Name: "IADC RigPass", Issuer: "IADC"},
	{Name: "TapRooT", Issuer: "TapRooT"},
	{Name: "HAZWOPER", Issuer: "OSHA"},
	{Name: "Well Control / BOP", Issuer: "IADC"},
	{Name: "CPR / First Aid", Issuer: "American Red Cross"},
	{Name: "Confined Space", Issuer: "OSHA"},
	{Name: "Fall Protection", Issuer: "OSHA"},
	{Name: "Lockout/Tagout (LOTO)", Issuer: "OSHA"},
	{Name: "Forklift Safety", Issuer: "OSHA"},
}

var yearsPattern = regexp.MustCompile(`(\d+)\+?\s*years?\s*(?:of\s*)?experience`)

// Classify returns the category of a known skill term, domain otherwise.
func Classify(name string) jobs.SkillCategory {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, c := range categories {
		for _, term := range c.terms {
			if lower == term {
				return c.category
			}
		}
	}
	return jobs.SkillDomain
}

// Resume is what could be recognized in resume text.
type Resume struct {
	Skills          []jobs.Skill
	Certifications  []jobs.Certification
	YearsExperience int
}

// ParseResume finds known skill terms, certifications and the stated years of experience.
// A term listed under several categories is recorded once, under the first.
func ParseResume(text string) Resume {
	lower := strings.ToLower(text)
	compact := strings.ReplaceAll(lower, " ", "")

	var out Resume
	seen := make(map[string]struct{})
	for _, c := range categories {
		for _, term := range c.terms {
			if _, ok := seen[term]; ok || !containsTerm(lower, term) {
				continue
			}
			seen[term] = struct{}{}
			out.Skills = append(out.Skills, jobs.Skill{Name: term, Category: c.category})
		}
	}

	for _, cert := range knownCertifications {
		name := strings.ToLower(cert.Name)
		if strings.Contains(lower, name) || strings.Contains(compact, strings.ReplaceAll(name, " ", "")) {
			out.Certifications = append(out.Certifications, cert)
		}
	}

	if m := yearsPattern.FindStringSubmatch(lower); m != nil {
		out.YearsExperience, _ = strconv.Atoi(m[1])
	}

	return out
}

// containsTerm matches short terms on word boundaries so "go" does not match "good".
func containsTerm(text, term string) bool {
	if len(term) > 3 {
		return strings.Contains(text, term)
	}
	for start := 0; ; {
		i := strings.Index(text[start:], term)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(term)
		if (i == 0 || !isWordByte(text[i-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		start = i + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}
