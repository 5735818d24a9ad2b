// Package workflow owns the step machines of the client: the entry working
// set and the review pipelines. All state transitions live here, guarded
// and checkpointed; commands above this package only call actions and
// print.
package workflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"incidentflow/internal/backend"
	"incidentflow/internal/domain"
	"incidentflow/internal/enrich"
	"incidentflow/internal/storage/sqlite"
	syncer "incidentflow/internal/sync"
)

// ErrEmptyWorkingSet guards enrichment: running the pipeline with nothing
// loaded is a user mistake, reported without advancing the step.
var ErrEmptyWorkingSet = errors.New("working set is empty")

// StepOutcome is the persisted form of one enrichment stage result.
type StepOutcome struct {
	Name  string `json:"name"`
	Error string `json:"error,omitempty"`
}

func toOutcomes(results enrich.Results) []StepOutcome {
	out := make([]StepOutcome, 0, len(results))
	for _, r := range results {
		o := StepOutcome{Name: r.Name}
		if r.Err != nil {
			o.Error = r.Err.Error()
		}
		out = append(out, o)
	}
	return out
}

// Controller runs a review pipeline. The non-scoped variant works on the
// whole new-data set; the date-scoped variant works on one stored year or
// month and additionally offers the duplicate reconciliation step.
type Controller struct {
	page    string
	scoped  bool
	year    string
	month   string
	db      *sql.DB
	backend *backend.Client
	batcher *syncer.Batcher
	runner  *enrich.Runner

	records    []domain.ActivityRecord
	duplicates []domain.ActivityRecord
	step       Step
	aiResults  []StepOutcome
}

// NewReview builds the non-scoped pipeline, resuming from its checkpoint
// when one exists.
func NewReview(db *sql.DB, client *backend.Client, batcher *syncer.Batcher, runner *enrich.Runner) *Controller {
	c := &Controller{page: "review", db: db, backend: client, batcher: batcher, runner: runner}
	c.rehydrate()
	return c
}

// ExistingReview builds the date-scoped pipeline for one year and optional
// month.
func ExistingReview(db *sql.DB, client *backend.Client, batcher *syncer.Batcher, runner *enrich.Runner, year, month string) *Controller {
	c := &Controller{page: "existing", scoped: true, year: year, month: month,
		db: db, backend: client, batcher: batcher, runner: runner}
	c.rehydrate()
	return c
}

func (c *Controller) rehydrate() {
	sqlite.Load(c.db, c.page+"_activities", &c.records)
	var step int
	if sqlite.Load(c.db, c.page+"_currentStep", &step) {
		c.step = Step(step)
	}
	sqlite.Load(c.db, c.page+"_aiResults", &c.aiResults)
	sqlite.Load(c.db, c.page+"_duplicates", &c.duplicates)
}

func (c *Controller) checkpoint() {
	warn := func(err error) {
		if err != nil {
			log.Printf("%s checkpoint not persisted: %v", c.page, err)
		}
	}
	warn(sqlite.Save(c.db, c.page+"_activities", c.records))
	warn(sqlite.Save(c.db, c.page+"_currentStep", int(c.step)))
	warn(sqlite.Save(c.db, c.page+"_aiResults", c.aiResults))
	if c.scoped {
		warn(sqlite.Save(c.db, c.page+"_duplicates", c.duplicates))
	}
}

func (c *Controller) Step() Step                          { return c.step }
func (c *Controller) Records() []domain.ActivityRecord    { return c.records }
func (c *Controller) Duplicates() []domain.ActivityRecord { return c.duplicates }
func (c *Controller) AIResults() []StepOutcome            { return c.aiResults }
func (c *Controller) Scoped() bool                        { return c.scoped }

// CanAdvance reports whether the pipeline may move to target from where it
// is now. Steps only ever advance one at a time, except that Completed
// reopens to DuplicateReview on the scoped variant.
func (c *Controller) CanAdvance(target Step) bool {
	switch target {
	case DataLoaded:
		return c.step == Start || c.step == DataLoaded
	case Enriched:
		return c.step == DataLoaded && len(c.records) > 0
	case FieldsCopied:
		return c.step == Enriched
	case Completed:
		return c.step == FieldsCopied
	case DuplicateReview:
		return c.scoped && c.step == Completed
	default:
		return false
	}
}

// LoadData fetches the working set. The scoped variant refuses to run
// without a year: an unscoped fetch against the date endpoints would pull
// the whole database.
func (c *Controller) LoadData(ctx context.Context) error {
	if !c.CanAdvance(DataLoaded) {
		return fmt.Errorf("cannot load data at step %s", c.step)
	}
	records, err := c.fetchWorkingSet(ctx)
	if err != nil {
		return err
	}
	c.records = records
	c.step = DataLoaded
	c.checkpoint()
	log.Printf("%s load records=%d", c.page, len(records))
	return nil
}

func (c *Controller) fetchWorkingSet(ctx context.Context) ([]domain.ActivityRecord, error) {
	if !c.scoped {
		return c.backend.ReviewList(ctx)
	}
	if c.year == "" {
		return nil, errors.New("year is required for a date-scoped review")
	}
	return c.backend.ReviewListByDate(ctx, c.year, c.month)
}

// Enrich triggers the server pipeline, then refetches the working set so
// the fresh _AI fields land in memory. Stage failures are recorded, not
// fatal; the step advances as long as the set was non-empty.
func (c *Controller) Enrich(ctx context.Context) (enrich.Results, error) {
	if len(c.records) == 0 {
		return nil, ErrEmptyWorkingSet
	}
	if !c.CanAdvance(Enriched) {
		return nil, fmt.Errorf("cannot enrich at step %s", c.step)
	}

	var results enrich.Results
	if c.scoped {
		results = c.runner.ProcessExisting(ctx, c.year, c.month)
	} else {
		results = c.runner.Process(ctx)
	}

	refreshed, err := c.fetchWorkingSet(ctx)
	if err != nil {
		return results, fmt.Errorf("refetching after enrichment: %w", err)
	}
	c.records = refreshed
	c.aiResults = toOutcomes(results)
	c.step = Enriched
	c.checkpoint()
	log.Printf("%s enrich steps=%d failed=%d", c.page, len(results), results.Failed())
	return results, nil
}

// EnrichLocal fills suggestions through the local enricher instead of the
// server pipeline, for when the AI endpoints are down.
func (c *Controller) EnrichLocal(ctx context.Context, e *enrich.LocalEnricher) error {
	if len(c.records) == 0 {
		return ErrEmptyWorkingSet
	}
	if !c.CanAdvance(Enriched) {
		return fmt.Errorf("cannot enrich at step %s", c.step)
	}
	enriched, err := e.Enrich(ctx, c.records)
	if err != nil {
		return err
	}
	c.records = enriched
	c.aiResults = []StepOutcome{{Name: "local"}}
	c.step = Enriched
	c.checkpoint()
	return nil
}

// CopyAIFields promotes every non-blank AI suggestion into its manual
// counterpart across the working set.
func (c *Controller) CopyAIFields() error {
	if !c.CanAdvance(FieldsCopied) {
		return fmt.Errorf("cannot copy fields at step %s", c.step)
	}
	for i := range c.records {
		c.records[i].CopyAISuggestions()
	}
	c.step = FieldsCopied
	c.checkpoint()
	return nil
}

// UpdateField edits one record mid-step, persisted immediately.
func (c *Controller) UpdateField(id, field, value string) error {
	for i := range c.records {
		if c.records[i].ID == id {
			if err := c.records[i].SetField(field, value); err != nil {
				return err
			}
			c.checkpoint()
			return nil
		}
	}
	return fmt.Errorf("no record with id %s", id)
}

// Complete saves the working set. Zero successes keeps the step where it
// was so the save can be retried; full success finishes the pipeline and
// drops the working set. The scoped variant keeps its Completed step on
// disk: duplicate review opens from Completed, and the next command runs
// in a new process.
func (c *Controller) Complete(ctx context.Context) ([]syncer.Outcome, syncer.Summary, error) {
	if !c.CanAdvance(Completed) {
		return nil, syncer.Summary{}, fmt.Errorf("cannot complete at step %s", c.step)
	}
	outcomes := c.batcher.BatchActivities(ctx, c.records)
	summary := syncer.Summarize(outcomes)
	if summary.Succeeded == 0 && summary.Total > 0 {
		return outcomes, summary, nil
	}
	c.step = Completed
	if summary.Failed == 0 {
		c.records = nil
		c.aiResults = nil
		if c.scoped {
			c.checkpoint()
		} else {
			c.clearSlots()
		}
	} else {
		c.checkpoint()
	}
	log.Printf("%s complete %s", c.page, summary.Message())
	return outcomes, summary, nil
}

func (c *Controller) clearSlots() {
	for _, key := range []string{"_activities", "_currentStep", "_aiResults"} {
		if err := sqlite.Clear(c.db, c.page+key); err != nil {
			log.Printf("%s checkpoint not cleared: %v", c.page, err)
		}
	}
}

// Clear abandons the pipeline: back to Start, checkpoint gone.
func (c *Controller) Clear() {
	c.records = nil
	c.duplicates = nil
	c.aiResults = nil
	c.step = Start
	if err := sqlite.ClearAll(c.db, c.page+"_"); err != nil {
		log.Printf("%s checkpoint not cleared: %v", c.page, err)
	}
}

// --- Duplicate reconciliation (scoped variant only) ---

// OpenDuplicateReview fetches the duplicate-flagged subset from the server.
// The fetch is deliberate: memory may hold pre-enrichment rows, the server
// holds the authoritative flags.
func (c *Controller) OpenDuplicateReview(ctx context.Context) error {
	if !c.CanAdvance(DuplicateReview) {
		return fmt.Errorf("cannot open duplicate review at step %s", c.step)
	}
	records, err := c.backend.DuplicateList(ctx, c.year, c.month)
	if err != nil {
		return err
	}
	c.duplicates = records
	c.step = DuplicateReview
	c.checkpoint()
	log.Printf("%s duplicate-review records=%d", c.page, len(records))
	return nil
}

// CopyAllAIDuplicates bulk-promotes duplicate_AI into duplicate across the
// subset.
func (c *Controller) CopyAllAIDuplicates() error {
	if c.step != DuplicateReview {
		return fmt.Errorf("duplicate review is not open (step %s)", c.step)
	}
	for i := range c.duplicates {
		d := &c.duplicates[i]
		if !domain.Blank(d.DuplicateAI) {
			v := domain.StrVal(d.DuplicateAI)
			d.Duplicate = &v
		}
	}
	c.checkpoint()
	return nil
}

// UpdateDuplicateField edits one record in the duplicate subset. Nothing is
// saved until SaveDuplicates runs; there is no hidden merge.
func (c *Controller) UpdateDuplicateField(id, field, value string) error {
	if c.step != DuplicateReview {
		return fmt.Errorf("duplicate review is not open (step %s)", c.step)
	}
	for i := range c.duplicates {
		if c.duplicates[i].ID == id {
			if err := c.duplicates[i].SetField(field, value); err != nil {
				return err
			}
			c.checkpoint()
			return nil
		}
	}
	return fmt.Errorf("no duplicate record with id %s", id)
}

// SaveDuplicates pushes the subset with its own batch and summary,
// independent of the main pipeline's checkpoint.
func (c *Controller) SaveDuplicates(ctx context.Context) ([]syncer.Outcome, syncer.Summary, error) {
	if c.step != DuplicateReview {
		return nil, syncer.Summary{}, fmt.Errorf("duplicate review is not open (step %s)", c.step)
	}
	outcomes := c.batcher.BatchActivities(ctx, c.duplicates)
	summary := syncer.Summarize(outcomes)
	log.Printf("%s duplicate-save %s", c.page, summary.Message())
	return outcomes, summary, nil
}
