package validate

import (
	"reflect"
	"testing"

	"incidentflow/internal/domain"
)

func fullRecord(num string) domain.TicketRecord {
	return domain.TicketRecord{
		IncidentNumber:       num,
		AssignedGroup:        "Platform",
		LongDescription:      "desc",
		TeamFixedIssue:       "yes",
		TeamIncludedInTicket: "no",
		ServiceOwner:         "Payments",
		Priority:             "P2",
		OpenDate:             "2026-01-01",
		UpdatedDate:          "2026-01-02",
	}
}

func TestDuplicateKeys(t *testing.T) {
	records := []domain.TicketRecord{
		fullRecord("INC1"),
		fullRecord(" INC1 "),
		fullRecord("INC2"),
		fullRecord(""),
		fullRecord("  "),
	}
	findings := DuplicateKeys(records)
	if len(findings) != 1 {
		t.Fatalf("expected one duplicate finding, got %v", findings)
	}
	if findings[0].IncidentNumber != "INC1" {
		t.Fatalf("unexpected key: %q", findings[0].IncidentNumber)
	}
	if !reflect.DeepEqual(findings[0].Positions, []int{1, 2}) {
		t.Fatalf("positions must be 1-based input order, got %v", findings[0].Positions)
	}
}

func TestDuplicateKeysBlankKeysNeverCollide(t *testing.T) {
	if f := DuplicateKeys([]domain.TicketRecord{fullRecord(""), fullRecord("")}); f != nil {
		t.Fatalf("blank keys must not be duplicates: %v", f)
	}
}

func TestIncompleteRows(t *testing.T) {
	rec := fullRecord("INC1")
	rec.AssignedGroup = ""
	rec.UpdatedDate = "   "
	findings := IncompleteRows([]domain.TicketRecord{fullRecord("INC0"), rec})
	if len(findings) != 1 {
		t.Fatalf("expected one incomplete finding, got %v", findings)
	}
	f := findings[0]
	if f.Position != 2 || f.IncidentNumber != "INC1" {
		t.Fatalf("unexpected finding: %+v", f)
	}
	if !reflect.DeepEqual(f.Missing, []string{"Assigned Group", "Updated Date"}) {
		t.Fatalf("missing fields must follow the fixed order, got %v", f.Missing)
	}
}

func TestIncompleteRowsCleanSet(t *testing.T) {
	if f := IncompleteRows([]domain.TicketRecord{fullRecord("INC1"), fullRecord("INC2")}); f != nil {
		t.Fatalf("complete rows must produce no findings: %v", f)
	}
}

func TestEmptyRowIsNotAlsoIncomplete(t *testing.T) {
	blankRow := domain.TicketRecord{ID: "temp-1-1"}
	records := []domain.TicketRecord{blankRow}

	if f := EmptyRows(records); len(f) != 1 || f[0].Position != 1 {
		t.Fatalf("blank row must be reported empty: %v", f)
	}
	if f := IncompleteRows(records); f != nil {
		t.Fatalf("an empty row must not get a completeness finding: %v", f)
	}
}

func TestEmptyRows(t *testing.T) {
	empty := domain.TicketRecord{
		ID:                   "temp-1-1",
		AssignedGroup:        "Platform",
		TeamFixedIssue:       "yes",
		TeamIncludedInTicket: "no",
	}
	almostEmpty := empty
	almostEmpty.Priority = "P3"

	findings := EmptyRows([]domain.TicketRecord{fullRecord("INC1"), empty, almostEmpty})
	if len(findings) != 1 {
		t.Fatalf("expected one empty finding, got %v", findings)
	}
	if findings[0].Position != 2 {
		t.Fatalf("unexpected position: %d", findings[0].Position)
	}
}
