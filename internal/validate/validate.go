// Package validate checks a working set of ticket records before it is
// allowed anywhere near the backend. All checks are pure functions over the
// records and return structured findings so callers can print row-level
// detail instead of a bare pass/fail.
package validate

import (
	"strings"

	"incidentflow/internal/domain"
)

// requiredFields is the ordered list of fields every row must fill before a
// save, paired with the display names shown in findings.
var requiredFields = []struct {
	display string
	value   func(domain.TicketRecord) string
}{
	{"Incident Number", func(t domain.TicketRecord) string { return t.IncidentNumber }},
	{"Assigned Group", func(t domain.TicketRecord) string { return t.AssignedGroup }},
	{"Long Description", func(t domain.TicketRecord) string { return t.LongDescription }},
	{"Team Fixed Issue", func(t domain.TicketRecord) string { return t.TeamFixedIssue }},
	{"Team Included in Ticket", func(t domain.TicketRecord) string { return t.TeamIncludedInTicket }},
	{"Service Owner", func(t domain.TicketRecord) string { return t.ServiceOwner }},
	{"Priority", func(t domain.TicketRecord) string { return t.Priority }},
	{"Open Date", func(t domain.TicketRecord) string { return t.OpenDate }},
	{"Updated Date", func(t domain.TicketRecord) string { return t.UpdatedDate }},
}

// emptyRowFields is the subset whose collective blankness marks a row as
// accidentally added rather than merely incomplete.
var emptyRowFields = []func(domain.TicketRecord) string{
	func(t domain.TicketRecord) string { return t.IncidentNumber },
	func(t domain.TicketRecord) string { return t.LongDescription },
	func(t domain.TicketRecord) string { return t.ServiceOwner },
	func(t domain.TicketRecord) string { return t.Priority },
	func(t domain.TicketRecord) string { return t.OpenDate },
	func(t domain.TicketRecord) string { return t.UpdatedDate },
}

// DuplicateFinding reports one business key shared by two or more rows.
// Positions are 1-based so they match what a user counts on screen.
type DuplicateFinding struct {
	IncidentNumber string
	Positions      []int
}

// IncompleteFinding reports the required fields a single row is missing.
type IncompleteFinding struct {
	Position       int
	IncidentNumber string
	Missing        []string
}

// EmptyFinding reports a row whose identifying fields are all blank.
type EmptyFinding struct {
	Position int
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// DuplicateKeys groups rows by trimmed incident number and reports every
// key that appears more than once. Blank keys never collide: a row without
// an incident number is incomplete, not a duplicate.
func DuplicateKeys(records []domain.TicketRecord) []DuplicateFinding {
	positions := make(map[string][]int)
	var order []string
	for i, rec := range records {
		key := strings.TrimSpace(rec.IncidentNumber)
		if key == "" {
			continue
		}
		if _, seen := positions[key]; !seen {
			order = append(order, key)
		}
		positions[key] = append(positions[key], i+1)
	}
	var findings []DuplicateFinding
	for _, key := range order {
		if rows := positions[key]; len(rows) > 1 {
			findings = append(findings, DuplicateFinding{IncidentNumber: key, Positions: rows})
		}
	}
	return findings
}

// IncompleteRows reports, per row, every required field left blank, in the
// fixed field order. Rows that are empty outright are skipped: those get an
// empty-row finding, not a completeness one.
func IncompleteRows(records []domain.TicketRecord) []IncompleteFinding {
	var findings []IncompleteFinding
	for i, rec := range records {
		if isEmpty(rec) {
			continue
		}
		var missing []string
		for _, f := range requiredFields {
			if blank(f.value(rec)) {
				missing = append(missing, f.display)
			}
		}
		if len(missing) > 0 {
			findings = append(findings, IncompleteFinding{
				Position:       i + 1,
				IncidentNumber: strings.TrimSpace(rec.IncidentNumber),
				Missing:        missing,
			})
		}
	}
	return findings
}

func isEmpty(rec domain.TicketRecord) bool {
	for _, value := range emptyRowFields {
		if !blank(value(rec)) {
			return false
		}
	}
	return true
}

// EmptyRows reports rows where every identifying field is blank.
func EmptyRows(records []domain.TicketRecord) []EmptyFinding {
	var findings []EmptyFinding
	for i, rec := range records {
		if isEmpty(rec) {
			findings = append(findings, EmptyFinding{Position: i + 1})
		}
	}
	return findings
}
