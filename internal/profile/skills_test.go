package profile

import (
	"testing"

	"github.com/spigell/job-matcher/internal/jobs"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := map[string]jobs.SkillCategory{
		"Python":         jobs.SkillTechnical,
		"drilling":       jobs.SkillDomain,
		"HAZWOPER":       jobs.SkillCertification,
		"mentoring":      jobs.SkillSoft,
		"well control":   jobs.SkillDomain,
		"Basket weaving": jobs.SkillDomain,
	}
	for name, want := range tests {
		if got := Classify(name); got != want {
			t.Fatalf("%q: expected %s, got %s", name, want, got)
		}
	}
}

func TestParseResume(t *testing.T) {
	t.Parallel()

	text := "Drilling consultant, 18+ years experience in oil and gas. Good with Excel.\n" +
		"Certified: IADC RigPass, LockOut/TagOut (LOTO), H2S. Strong leadership."

	got := ParseResume(text)

	if got.YearsExperience != 18 {
		t.Fatalf("expected 18 years, got %d", got.YearsExperience)
	}

	names := map[string]jobs.SkillCategory{}
	for _, s := range got.Skills {
		names[s.Name] = s.Category
	}
	for name, want := range map[string]jobs.SkillCategory{
		"drilling":     jobs.SkillDomain,
		"oil and gas":  jobs.SkillDomain,
		"excel":        jobs.SkillTechnical,
		"h2s":          jobs.SkillCertification,
		"iadc rigpass": jobs.SkillCertification,
		"leadership":   jobs.SkillSoft,
	} {
		if names[name] != want {
			t.Fatalf("%q: expected %s, got %q", name, want, names[name])
		}
	}
	if _, ok := names["go"]; ok {
		t.Fatalf("short terms must match whole words only")
	}

	certs := make([]string, 0, len(got.Certifications))
	for _, c := range got.Certifications {
		certs = append(certs, c.Name)
	}
	if len(certs) != 2 || certs[0] != "IADC RigPass" || certs[1] != "Lockout/Tagout (LOTO)" {
		t.Fatalf("unexpected certifications %v", certs)
	}
}

func TestContainsTerm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		term string
		want bool
	}{
		{"we use go daily", "go", true},
		{"good team", "go", false},
		{"go", "go", true},
		{"golang, go.", "go", true},
		{"c++ and java", "c++", true},
		{"project management office", "project management", true},
	}
	for _, tt := range tests {
		if got := containsTerm(tt.text, tt.term); got != tt.want {
			t.Fatalf("containsTerm(%q, %q): expected %v", tt.text, tt.term, tt.want)
		}
	}
}
