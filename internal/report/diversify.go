package report

import (
	"sort"

	"github.com/spigell/job-matcher/internal/jobs"
)

// DefaultMinPerSource is the per-source floor used by Diversify.
const DefaultMinPerSource = 15

// Diversify removes title and company duplicates and balances the result
// across sources before cutting it to limit.
//
// Each source contributes up to max(minPerSource, limit/sources) of its best
// matches; the union is ordered by score and truncated.
func Diversify(matches []jobs.JobMatch, limit, minPerSource int) []jobs.JobMatch {
	if limit <= 0 || len(matches) == 0 {
		return []jobs.JobMatch{}
	}

	unique := dedupe(matches)

	var order []string
	groups := make(map[string][]jobs.JobMatch)
	for _, m := range unique {
		src := m.Job.Source
		if _, ok := groups[src]; !ok {
			order = append(order, src)
		}
		groups[src] = append(groups[src], m)
	}

	perSource := max(minPerSource, limit/len(order))

	selected := make([]jobs.JobMatch, 0, limit)
	for _, src := range order {
		group := groups[src]
		sortByScore(group)
		if len(group) > perSource {
			group = group[:perSource]
		}
		selected = append(selected, group...)
	}

	sortByScore(selected)
	if len(selected) > limit {
		selected = selected[:limit]
	}
	return selected
}

// dedupe keeps the highest scoring match per title and company, in first-seen order.
func dedupe(matches []jobs.JobMatch) []jobs.JobMatch {
	index := make(map[string]int, len(matches))
	out := make([]jobs.JobMatch, 0, len(matches))
	for _, m := range matches {
		key := m.Job.DedupKey()
		if i, ok := index[key]; ok {
			if m.Result.OverallScore > out[i].Result.OverallScore {
				out[i] = m
			}
			continue
		}
		index[key] = len(out)
		out = append(out, m)
	}
	return out
}

func sortByScore(matches []jobs.JobMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Result.OverallScore > matches[j].Result.OverallScore
	})
}
