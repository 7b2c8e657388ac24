package report

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strconv"
	"strings"
	texttemplate "text/template"

	"github.com/spigell/job-matcher/internal/jobs"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var funcs = map[string]any{
	"inc":          func(i int) int { return i + 1 },
	"badge":        badge,
	"scoreClass":   scoreClass,
	"salary":       salary,
	"head":         head,
	"upper":        strings.ToUpper,
	"locationType": locationType,
}

var (
	markdownTemplate = texttemplate.Must(texttemplate.New("report.md.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/report.md.tmpl"))
	htmlTemplate     = htmltemplate.Must(htmltemplate.New("report.html.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/report.html.tmpl"))
)

// RenderMarkdown renders r as a Markdown document.
func RenderMarkdown(r *Report) (string, error) {
	var buf bytes.Buffer
	if err := markdownTemplate.Execute(&buf, r); err != nil {
		return "", fmt.Errorf("render markdown report: %w", err)
	}
	return buf.String(), nil
}

// RenderHTML renders r as a standalone HTML page.
func RenderHTML(r *Report) (string, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, r); err != nil {
		return "", fmt.Errorf("render html report: %w", err)
	}
	return buf.String(), nil
}

func badge(score float64) string {
	switch {
	case score >= jobs.StrongThreshold:
		return "+++"
	case score >= jobs.GoodThreshold:
		return "++"
	default:
		return "+"
	}
}

func scoreClass(score float64) string {
	switch jobs.RecommendationFor(score) {
	case jobs.StrongMatch:
		return "score-strong"
	case jobs.GoodMatch:
		return "score-good"
	case jobs.PossibleMatch:
		return "score-possible"
	default:
		return "score-poor"
	}
}

func salary(minSalary, maxSalary *int) string {
	switch {
	case minSalary != nil && maxSalary != nil:
		return fmt.Sprintf("$%s - $%s", thousands(*minSalary), thousands(*maxSalary))
	case minSalary != nil:
		return "From $" + thousands(*minSalary)
	case maxSalary != nil:
		return "Up to $" + thousands(*maxSalary)
	default:
		return ""
	}
}

func thousands(v int) string {
	s := strconv.Itoa(v)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func head(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func locationType(lt jobs.LocationType) string {
	if lt == "" {
		return string(jobs.LocationUnknown)
	}
	return string(lt)
}
