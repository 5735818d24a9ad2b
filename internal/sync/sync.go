// Package sync pushes a working set to the backend one record at a time.
// The batch is strictly sequential on purpose: a lookup later in the batch
// may only be answered correctly once earlier creates have landed, so
// parallelizing here would corrupt the upsert decision. Do not add a worker
// pool.
package sync

import (
	"context"
	"fmt"
	"log"
	"strings"

	"incidentflow/internal/backend"
	"incidentflow/internal/domain"
	"incidentflow/internal/mapper"
)

const (
	MethodCreate = "CREATE"
	MethodUpdate = "UPDATE"
)

// Outcome reports what happened to one record. Index refers to the input
// slice; outcomes are returned in input order, one per record, always.
type Outcome struct {
	Index          int
	ID             string
	IncidentNumber string
	Method         string
	Success        bool
	Err            error
}

type Batcher struct {
	backend *backend.Client
}

func New(c *backend.Client) *Batcher {
	return &Batcher{backend: c}
}

// Batch upserts entry-stage records. Per record: resolve the business key,
// update when the server knows it, create when it does not. A failure marks
// only its own record; siblings before and after still run.
func (b *Batcher) Batch(ctx context.Context, records []domain.TicketRecord) []Outcome {
	outcomes := make([]Outcome, len(records))
	for i, rec := range records {
		outcomes[i] = b.upsert(ctx, i, rec)
	}
	return outcomes
}

func (b *Batcher) upsert(ctx context.Context, index int, rec domain.TicketRecord) Outcome {
	out := Outcome{Index: index, ID: rec.ID, IncidentNumber: strings.TrimSpace(rec.IncidentNumber)}

	payload, err := mapper.TicketPayload(rec)
	if err != nil {
		out.Err = err
		return out
	}

	serverID := ""
	if out.IncidentNumber != "" {
		id, found, err := b.backend.LookupIncident(ctx, out.IncidentNumber)
		if err != nil {
			out.Err = fmt.Errorf("lookup %s: %w", out.IncidentNumber, err)
			return out
		}
		if found {
			serverID = id
		}
	}

	if serverID != "" {
		// The server's id wins over whatever the client carried; a stale
		// local id must not address the write.
		payload["id"] = serverID
		if err := b.backend.UpdateActivity(ctx, payload); err != nil {
			out.Method = MethodUpdate
			out.Err = fmt.Errorf("update %s: %w", out.IncidentNumber, err)
			return out
		}
		log.Printf("sync update incident=%s id=%s", out.IncidentNumber, serverID)
		out.Method = MethodUpdate
		out.ID = serverID
		out.Success = true
		return out
	}

	// Unknown to the server: create. The temp marker never goes on the
	// wire; the server assigns the real id.
	if id, ok := payload["id"].(string); !ok || id == "" || domain.IsTempID(id) {
		delete(payload, "id")
	}
	id, err := b.backend.CreateActivity(ctx, payload)
	out.Method = MethodCreate
	if err != nil {
		out.Err = fmt.Errorf("create %s: %w", out.IncidentNumber, err)
		return out
	}
	log.Printf("sync create incident=%s id=%s", out.IncidentNumber, id)
	out.ID = id
	out.Success = true
	return out
}

// BatchActivities pushes review-stage edits. These records came from the
// server, so each is a plain update addressed by its own id.
func (b *Batcher) BatchActivities(ctx context.Context, records []domain.ActivityRecord) []Outcome {
	outcomes := make([]Outcome, len(records))
	for i, rec := range records {
		out := Outcome{Index: i, ID: rec.ID, IncidentNumber: strings.TrimSpace(rec.IncidentNumber), Method: MethodUpdate}
		payload, err := mapper.ActivityPayload(rec)
		if err != nil {
			out.Err = err
			outcomes[i] = out
			continue
		}
		if err := b.backend.UpdateActivity(ctx, payload); err != nil {
			out.Err = fmt.Errorf("update %s: %w", out.IncidentNumber, err)
			outcomes[i] = out
			continue
		}
		log.Printf("sync update incident=%s id=%s", out.IncidentNumber, rec.ID)
		out.Success = true
		outcomes[i] = out
	}
	return outcomes
}

// Summary aggregates a batch for the one-line report.
type Summary struct {
	Total     int
	Succeeded int
	Created   int
	Updated   int
	Failed    int
}

func Summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		if !o.Success {
			s.Failed++
			continue
		}
		s.Succeeded++
		switch o.Method {
		case MethodCreate:
			s.Created++
		case MethodUpdate:
			s.Updated++
		}
	}
	return s
}

func (s Summary) Message() string {
	switch {
	case s.Total == 0:
		return "nothing to save"
	case s.Failed == 0:
		return fmt.Sprintf("saved %d records (%d created, %d updated)", s.Succeeded, s.Created, s.Updated)
	case s.Succeeded == 0:
		return fmt.Sprintf("all %d records failed to save", s.Total)
	default:
		return fmt.Sprintf("saved %d of %d records (%d created, %d updated, %d failed)",
			s.Succeeded, s.Total, s.Created, s.Updated, s.Failed)
	}
}
