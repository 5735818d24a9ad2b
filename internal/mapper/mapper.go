// Package mapper translates between the client-side camelCase field names
// and the backend's mixed-case contract. Only two keys actually differ; the
// table keeps the renames in one place so both directions stay in sync.
package mapper

import (
	"encoding/json"
	"fmt"

	"incidentflow/internal/domain"
)

var toBackendRename = map[string]string{
	"teamFixedIssue":       "team_Fixed_Issue",
	"teamIncludedInTicket": "team_Included_in_Ticket",
}

var fromBackendRename = invert(toBackendRename)

func invert(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

// ToBackend renames recognized client keys to their backend form, drops
// null values (the backend treats absence differently from an explicit
// null), and passes every other key through unchanged.
func ToBackend(fields map[string]any) map[string]any {
	return translate(fields, toBackendRename, true)
}

// FromBackend renames recognized backend keys to their client form. Nulls
// are kept: an inbound null is real data (an unset backend column).
func FromBackend(fields map[string]any) map[string]any {
	return translate(fields, fromBackendRename, false)
}

func translate(fields map[string]any, rename map[string]string, dropNull bool) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if dropNull && v == nil {
			continue
		}
		if mapped, ok := rename[k]; ok {
			k = mapped
		}
		out[k] = v
	}
	return out
}

// TicketPayload builds the outbound backend payload for an entry-stage
// record: marshal to the client shape, rename, strip nulls.
func TicketPayload(t domain.TicketRecord) (map[string]any, error) {
	return payload(t)
}

// ActivityPayload builds the outbound backend payload for a review-stage
// record. Activity JSON tags already use backend names, so the rename
// table is a no-op here; the null strip still applies.
func ActivityPayload(a domain.ActivityRecord) (map[string]any, error) {
	return payload(a)
}

func payload(rec any) (map[string]any, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	return ToBackend(fields), nil
}

// TicketFromBackend decodes a backend activity object into the entry-stage
// shape, applying the reverse rename first.
func TicketFromBackend(fields map[string]any) (domain.TicketRecord, error) {
	var t domain.TicketRecord
	raw, err := json.Marshal(FromBackend(fields))
	if err != nil {
		return t, fmt.Errorf("encoding backend fields: %w", err)
	}
	if err := json.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("decoding ticket: %w", err)
	}
	return t, nil
}
