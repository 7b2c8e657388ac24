package matching

import (
	"sort"

	"github.com/spigell/job-matcher/internal/jobs"
)

const maxTopCompanies = 10

// Summarize counts matches per recommendation band, location type, source and company.
func Summarize(matches []jobs.JobMatch) jobs.MatchSummary {
	summary := jobs.MatchSummary{
		Total:          len(matches),
		ByLocationType: make(map[string]int),
		BySource:       make(map[string]int),
		TopCompanies:   []jobs.CompanyCount{},
	}
	if len(matches) == 0 {
		return summary
	}

	companies := make(map[string]int)
	total := 0.0
	for _, m := range matches {
		score := m.Result.OverallScore
		total += score

		switch {
		case score >= jobs.StrongThreshold:
			summary.Strong++
		case score >= jobs.GoodThreshold:
			summary.Good++
		case score >= jobs.PossibleThreshold:
			summary.Possible++
		}

		locationType := string(m.Job.LocationType)
		if locationType == "" {
			locationType = string(jobs.LocationUnknown)
		}
		summary.ByLocationType[locationType]++

		source := m.Job.Source
		if source == "" {
			source = "unknown"
		}
		summary.BySource[source]++

		company := m.Job.CompanyName
		if company == "" {
			company = "Unknown"
		}
		companies[company]++
	}

	for name, count := range companies {
		summary.TopCompanies = append(summary.TopCompanies, jobs.CompanyCount{Name: name, Count: count})
	}
	sort.Slice(summary.TopCompanies, func(i, j int) bool {
		a, b := summary.TopCompanies[i], summary.TopCompanies[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Name < b.Name
	})
	if len(summary.TopCompanies) > maxTopCompanies {
		summary.TopCompanies = summary.TopCompanies[:maxTopCompanies]
	}

	summary.AverageScore = jobs.Round1(total / float64(len(matches)))
	return summary
}
