// Package enrich drives the server-side AI pipeline. Each stage is its own
// endpoint on the backend; stages run in a fixed order but fail
// independently, so one broken stage never blocks the ones after it.
package enrich

import (
	"context"
	"log"
	"net/url"

	"incidentflow/internal/backend"
)

type step struct {
	Name string
	Path string
}

// Pipeline order matters to the server: raw activities are normalized
// before the per-field passes, and automation runs last over their output.
var processSteps = []step{
	{"activities", "/Activities/process"},
	{"summary", "/AISummary/AI_summary"},
	{"system", "/System/AI_system"},
	{"issue", "/Issue/AI_Issue"},
	{"root-cause", "/RootCause/AI_RootCause"},
	{"duplicate", "/Duplicate/AI_Duplicate"},
	{"automation", "/Automation/process_further"},
}

// Date-scoped reruns work on already-normalized rows: no activities stage,
// and the backend has no date-scoped automation endpoint.
var processExistingSteps = []step{
	{"summary", "/AISummaryDate/AI_summary_date"},
	{"system", "/SystemDate/AI_system_date"},
	{"issue", "/IssueDate/AI_Issue_date"},
	{"root-cause", "/RootCauseDate/AI_RootCause_date"},
	{"duplicate", "/DuplicateDate/AI_Duplicate_date"},
}

// StepResult is one stage's outcome; Err is nil on success.
type StepResult struct {
	Name string
	Err  error
}

type Results []StepResult

func (r Results) Failed() int {
	n := 0
	for _, s := range r {
		if s.Err != nil {
			n++
		}
	}
	return n
}

func (r Results) Completed() int {
	return len(r) - r.Failed()
}

type Runner struct {
	backend *backend.Client
}

func NewRunner(c *backend.Client) *Runner {
	return &Runner{backend: c}
}

func (r *Runner) run(ctx context.Context, steps []step, query url.Values) Results {
	results := make(Results, 0, len(steps))
	for _, s := range steps {
		err := r.backend.Trigger(ctx, s.Path, query)
		if err != nil {
			log.Printf("enrich step=%s err=%v", s.Name, err)
		} else {
			log.Printf("enrich step=%s ok", s.Name)
		}
		results = append(results, StepResult{Name: s.Name, Err: err})
	}
	return results
}

// Process runs the full pipeline over the new-data working set.
func (r *Runner) Process(ctx context.Context) Results {
	return r.run(ctx, processSteps, nil)
}

// ProcessExisting reruns the pipeline over a stored year (and optionally
// month) of activities.
func (r *Runner) ProcessExisting(ctx context.Context, year, month string) Results {
	query := url.Values{"year": {year}}
	if month != "" {
		query.Set("month", month)
	}
	return r.run(ctx, processExistingSteps, query)
}
