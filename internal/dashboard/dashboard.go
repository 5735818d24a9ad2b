// Package dashboard aggregates the server's metric endpoints into one
// snapshot. The nine fetches are independent and run concurrently; a
// failing metric degrades to its zero value so the board always renders.
package dashboard

import (
	"context"
	"database/sql"
	"log"
	"net/url"
	"sync"

	"incidentflow/internal/backend"
	"incidentflow/internal/storage/sqlite"
)

// Filter scopes the aggregation. An empty Month means yearly granularity:
// the month parameter is omitted entirely and the server aggregates the
// whole year, this is not client-side filtering.
type Filter struct {
	Year         string `json:"year"`
	Month        string `json:"month,omitempty"`
	ServiceOwner string `json:"serviceOwner,omitempty"`
}

const filterSlot = "dashboardFilters"

// LoadFilter restores the last selections, falling back to the given
// default.
func LoadFilter(db *sql.DB, fallback Filter) Filter {
	f := fallback
	sqlite.Load(db, filterSlot, &f)
	if f.Year == "" {
		f = fallback
	}
	return f
}

func SaveFilter(db *sql.DB, f Filter) {
	if err := sqlite.Save(db, filterSlot, f); err != nil {
		log.Printf("dashboard filter not persisted: %v", err)
	}
}

type PriorityCounts struct {
	P1 int
	P2 int
	P3 int
	P4 int
}

type YesNoCounts struct {
	Yes int
	No  int
}

type InclusionCounts struct {
	Included    int
	NotIncluded int
}

// Aggregate is one full dashboard snapshot. Failed metrics keep their zero
// value and are listed in FailedMetrics.
type Aggregate struct {
	Filter Filter

	MetSLAPercent      float64
	AvgExtraDays       float64
	Priority           PriorityCounts
	TeamIncluded       InclusionCounts
	TeamResponsible    YesNoCounts
	TeamFixed          YesNoCounts
	SystemDistribution map[string]int
	Issues             map[string]int
	DuplicateGroups    int

	FailedMetrics []string
}

type Aggregator struct {
	backend *backend.Client
}

func New(c *backend.Client) *Aggregator {
	return &Aggregator{backend: c}
}

func (a *Aggregator) query(f Filter) url.Values {
	q := url.Values{"year": {f.Year}}
	if f.Month != "" {
		q.Set("month", f.Month)
	}
	if f.ServiceOwner != "" {
		q.Set("ServiceOwner", f.ServiceOwner)
	}
	return q
}

// Fetch pulls all metrics for the filter. It never fails as a whole; the
// per-metric errors are folded into the aggregate.
func (a *Aggregator) Fetch(ctx context.Context, f Filter) Aggregate {
	agg := Aggregate{
		Filter:             f,
		SystemDistribution: map[string]int{},
		Issues:             map[string]int{},
	}
	q := a.query(f)

	type metric struct {
		name  string
		fetch func() error
	}
	metrics := []metric{
		{"met-sla", func() error {
			var raw flexNumber
			if err := a.backend.Get(ctx, "/Dashboard/met_SLA", q, &raw); err != nil {
				return err
			}
			agg.MetSLAPercent = raw.value
			return nil
		}},
		{"avg-extra-days", func() error {
			var raw flexNumber
			if err := a.backend.Get(ctx, "/Dashboard/average_extra_days", q, &raw); err != nil {
				return err
			}
			agg.AvgExtraDays = raw.value
			return nil
		}},
		{"priority", func() error {
			var raw flexPriority
			if err := a.backend.Get(ctx, "/Dashboard/priority", q, &raw); err != nil {
				return err
			}
			agg.Priority = raw.counts
			return nil
		}},
		{"team-included", func() error {
			var raw flexInclusion
			if err := a.backend.Get(ctx, "/Dashboard/team_included", q, &raw); err != nil {
				return err
			}
			agg.TeamIncluded = raw.counts
			return nil
		}},
		{"team-responsible", func() error {
			var raw flexYesNo
			if err := a.backend.Get(ctx, "/Dashboard/team_responsible", q, &raw); err != nil {
				return err
			}
			agg.TeamResponsible = raw.counts
			return nil
		}},
		{"team-fixed", func() error {
			var raw flexYesNo
			if err := a.backend.Get(ctx, "/Dashboard/team_fixed", q, &raw); err != nil {
				return err
			}
			agg.TeamFixed = raw.counts
			return nil
		}},
		{"system-distribution", func() error {
			var raw flexCountMap
			if err := a.backend.Get(ctx, "/Dashboard/system_distribution", q, &raw); err != nil {
				return err
			}
			agg.SystemDistribution = raw.counts
			return nil
		}},
		{"issues", func() error {
			var raw flexCountMap
			if err := a.backend.Get(ctx, "/Dashboard/issues", q, &raw); err != nil {
				return err
			}
			agg.Issues = raw.counts
			return nil
		}},
		{"duplicate-groups", func() error {
			var raw flexNumber
			if err := a.backend.Get(ctx, "/Dashboard/duplicate_count", q, &raw); err != nil {
				return err
			}
			agg.DuplicateGroups = int(raw.value)
			return nil
		}},
	}

	errs := make([]error, len(metrics))
	var wg sync.WaitGroup
	for i, m := range metrics {
		wg.Add(1)
		go func(idx int, m metric) {
			defer wg.Done()
			errs[idx] = m.fetch()
		}(i, m)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			log.Printf("dashboard metric=%s err=%v (using zero value)", metrics[i].name, err)
			agg.FailedMetrics = append(agg.FailedMetrics, metrics[i].name)
		}
	}
	return agg
}
