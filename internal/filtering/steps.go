package filtering

import (
	"context"
	"strings"

	"github.com/spigell/job-matcher/internal/jobs"
)

// DefaultRedFlags are phrases that mark postings not worth scoring.
var DefaultRedFlags = []string{
	"commission only",
	"unpaid",
	"multi-level marketing",
	"pay to apply",
}

type redFlagsFilter struct {
	disabled bool
	reason   string
	phrases  []string
}

// NewRedFlags creates a filter that removes listings whose title, company or description contains any phrase.
func NewRedFlags(phrases []string) Filter {
	return &redFlagsFilter{phrases: lowered(phrases)}
}

func (f *redFlagsFilter) Name() string { return "red_flags" }

func (f *redFlagsFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *redFlagsFilter) IsEnabled() bool { return !f.disabled }

func (f *redFlagsFilter) Apply(_ context.Context, listings []jobs.Listing) ([]jobs.Listing, Step, error) {
	left, step := keep(listings, func(l *jobs.Listing) bool {
		text := l.Text() + " " + strings.ToLower(l.CompanyName)
		for _, phrase := range f.phrases {
			if strings.Contains(text, phrase) {
				return false
			}
		}
		return true
	})
	return left, step, nil
}

func (f *redFlagsFilter) Status() Status {
	details := map[string]string{}
	if len(f.phrases) > 0 {
		details["phrases"] = strings.Join(f.phrases, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type companiesFilter struct {
	disabled  bool
	reason    string
	companies map[string]struct{}
}

// NewExcludedCompanies creates a filter that removes listings by company name, case-insensitively.
func NewExcludedCompanies(companies []string) Filter {
	set := make(map[string]struct{}, len(companies))
	for _, c := range lowered(companies) {
		set[c] = struct{}{}
	}
	return &companiesFilter{companies: set}
}

func (f *companiesFilter) Name() string { return "excluded_companies" }

func (f *companiesFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *companiesFilter) IsEnabled() bool { return !f.disabled }

func (f *companiesFilter) Apply(_ context.Context, listings []jobs.Listing) ([]jobs.Listing, Step, error) {
	if len(f.companies) == 0 {
		return listings, Step{Initial: len(listings), Left: len(listings)}, nil
	}

	left, step := keep(listings, func(l *jobs.Listing) bool {
		_, excluded := f.companies[strings.ToLower(strings.TrimSpace(l.CompanyName))]
		return !excluded
	})
	return left, step, nil
}

func (f *companiesFilter) Status() Status {
	names := make([]string, 0, len(f.companies))
	for name := range f.companies {
		names = append(names, name)
	}
	details := map[string]string{}
	if len(names) > 0 {
		details["companies"] = strings.Join(names, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type remoteOnlyFilter struct {
	disabled bool
	reason   string
}

// NewRemoteOnly creates a filter that keeps only listings that are remote by type or location text.
func NewRemoteOnly() Filter {
	return &remoteOnlyFilter{}
}

func (f *remoteOnlyFilter) Name() string { return "remote_only" }

func (f *remoteOnlyFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *remoteOnlyFilter) IsEnabled() bool { return !f.disabled }

func (f *remoteOnlyFilter) Apply(_ context.Context, listings []jobs.Listing) ([]jobs.Listing, Step, error) {
	left, step := keep(listings, func(l *jobs.Listing) bool {
		return l.LocationType == jobs.LocationRemote ||
			jobs.NormalizeLocationType(l.Location) == jobs.LocationRemote
	})
	return left, step, nil
}

func (f *remoteOnlyFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}

func lowered(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
