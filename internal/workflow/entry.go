package workflow

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"incidentflow/internal/backend"
	"incidentflow/internal/domain"
	"incidentflow/internal/storage/sqlite"
	syncer "incidentflow/internal/sync"
	"incidentflow/internal/validate"
)

const entrySlot = "entry_activities"

// Entry is the data-entry working set: rows typed in (or pulled from the
// server) before they are validated and pushed. Every mutation is
// checkpointed immediately so a new process resumes with the same rows.
type Entry struct {
	db      *sql.DB
	backend *backend.Client
	batcher *syncer.Batcher
	records []domain.TicketRecord
}

func NewEntry(db *sql.DB, client *backend.Client, batcher *syncer.Batcher) *Entry {
	e := &Entry{db: db, backend: client, batcher: batcher}
	sqlite.Load(db, entrySlot, &e.records)
	return e
}

func (e *Entry) Records() []domain.TicketRecord {
	return e.records
}

func (e *Entry) persist() {
	if err := sqlite.Save(e.db, entrySlot, e.records); err != nil {
		log.Printf("entry checkpoint not persisted: %v", err)
	}
}

// Add appends a blank row with a temp id and returns its 1-based position.
func (e *Entry) Add() int {
	e.records = append(e.records, domain.TicketRecord{ID: domain.NewTempID()})
	e.persist()
	return len(e.records)
}

func (e *Entry) row(pos int) (*domain.TicketRecord, error) {
	if pos < 1 || pos > len(e.records) {
		return nil, fmt.Errorf("row %d out of range (1..%d)", pos, len(e.records))
	}
	return &e.records[pos-1], nil
}

// SetField edits one field of one row, addressed the way findings report
// them: 1-based position and JSON field name.
func (e *Entry) SetField(pos int, field, value string) error {
	rec, err := e.row(pos)
	if err != nil {
		return err
	}
	if err := rec.SetField(field, value); err != nil {
		return err
	}
	e.persist()
	return nil
}

func (e *Entry) Delete(pos int) error {
	if _, err := e.row(pos); err != nil {
		return err
	}
	e.records = append(e.records[:pos-1], e.records[pos:]...)
	e.persist()
	return nil
}

// LoadIncident pulls the stored rows for an incident number into the
// working set, so an existing record can be edited and re-saved.
func (e *Entry) LoadIncident(ctx context.Context, incidentNumber string) (int, error) {
	records, err := e.backend.IncidentDetails(ctx, incidentNumber)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("no stored rows for incident %s", incidentNumber)
	}
	e.records = append(e.records, records...)
	e.persist()
	return len(records), nil
}

func (e *Entry) Clear() {
	e.records = nil
	if err := sqlite.Clear(e.db, entrySlot); err != nil {
		log.Printf("entry checkpoint not cleared: %v", err)
	}
}

// ValidationReport is the full pre-save picture. Checks run in a fixed
// order and all of them run; a user fixing a save sees every problem at
// once, not one per attempt.
type ValidationReport struct {
	Duplicates []validate.DuplicateFinding
	Incomplete []validate.IncompleteFinding
	Empty      []validate.EmptyFinding
}

func (r ValidationReport) Blocked() bool {
	return len(r.Duplicates) > 0 || len(r.Incomplete) > 0 || len(r.Empty) > 0
}

func (r ValidationReport) Describe() string {
	var b strings.Builder
	for _, d := range r.Duplicates {
		fmt.Fprintf(&b, "duplicate incident number %s in rows %v\n", d.IncidentNumber, d.Positions)
	}
	for _, inc := range r.Incomplete {
		fmt.Fprintf(&b, "row %d (%s) missing: %s\n", inc.Position, inc.IncidentNumber, strings.Join(inc.Missing, ", "))
	}
	for _, em := range r.Empty {
		fmt.Fprintf(&b, "row %d is empty\n", em.Position)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (e *Entry) Validate() ValidationReport {
	return ValidationReport{
		Duplicates: validate.DuplicateKeys(e.records),
		Incomplete: validate.IncompleteRows(e.records),
		Empty:      validate.EmptyRows(e.records),
	}
}

// Save validates and, only when clean, pushes the working set. Succeeded
// rows adopt their server ids; failed rows keep what they had so a rerun
// retries exactly those.
func (e *Entry) Save(ctx context.Context) ([]syncer.Outcome, syncer.Summary, error) {
	if report := e.Validate(); report.Blocked() {
		return nil, syncer.Summary{}, fmt.Errorf("validation failed:\n%s", report.Describe())
	}
	if len(e.records) == 0 {
		return nil, syncer.Summary{}, nil
	}

	outcomes := e.batcher.Batch(ctx, e.records)
	for _, o := range outcomes {
		if o.Success {
			e.records[o.Index].ID = o.ID
		}
	}
	e.persist()
	return outcomes, syncer.Summarize(outcomes), nil
}
