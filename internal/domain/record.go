package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// TempIDPrefix marks client-assigned placeholder identifiers. A record keeps
// its temp ID until the first successful create returns a server ID.
const TempIDPrefix = "temp-"

var tempSeq atomic.Int64

// NewTempID returns a placeholder identifier for a record that has not been
// created on the backend yet.
func NewTempID() string {
	return fmt.Sprintf("%s%d-%d", TempIDPrefix, time.Now().UnixMilli(), tempSeq.Add(1))
}

func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// TicketRecord is the entry-stage shape: the fields a user types in before
// any enrichment. JSON tags are the client-side (camelCase) contract; the
// backend rename table lives in the mapper package.
type TicketRecord struct {
	ID                   string `json:"id"`
	IncidentNumber       string `json:"incidentNumber"`
	AssignedGroup        string `json:"assignedGroup"`
	LongDescription      string `json:"longDescription"`
	TeamFixedIssue       string `json:"teamFixedIssue"`
	TeamIncludedInTicket string `json:"teamIncludedInTicket"`
	ServiceOwner         string `json:"serviceOwner"`
	Priority             string `json:"priority"`
	OpenDate             string `json:"openDate"`
	UpdatedDate          string `json:"updatedDate"`
}

// ActivityRecord is the review-stage shape: the ticket fields plus
// backend-computed metrics, decomposed date parts, and the paired
// manual/AI enrichment fields. JSON tags follow the backend contract
// verbatim, including its mixed-case names and the misspelled
// is_AissignedGroup_ResponsibleTeam key. Nullable backend fields are
// pointers so that null survives a round trip instead of collapsing
// into an empty value.
type ActivityRecord struct {
	ID                   string `json:"id"`
	IncidentNumber       string `json:"incidentNumber"`
	AssignedGroup        string `json:"assignedGroup"`
	LongDescription      string `json:"longDescription"`
	TeamFixedIssue       string `json:"team_Fixed_Issue"`
	TeamIncludedInTicket string `json:"team_Included_in_Ticket"`
	ServiceOwner         string `json:"serviceOwner"`
	Priority             string `json:"priority"`

	GuidedSLADays       *float64 `json:"guided_SLAdays"`
	MetSLA              *string  `json:"met_SLA"`
	ExtraDaysAfterSLA   *float64 `json:"extraDays_AfterSLAdays"`
	NumberTeamIncluded  int      `json:"numberTeam_Included_in_Ticket"`
	NumberTeamFixed     int      `json:"numberTeam_Fixed_Issue"`
	IsGroupResponsible  *string  `json:"is_AissignedGroup_ResponsibleTeam"`
	DidGroupFixIssue    *string  `json:"did_AssignedGroup_Fix_Issue"`

	SummaryIssue   *string `json:"summary_Issue"`
	SummaryIssueAI *string `json:"summary_Issue_AI"`
	System         *string `json:"system"`
	SystemAI       *string `json:"system_AI"`
	Issue          *string `json:"issue"`
	IssueAI        *string `json:"issue_AI"`
	RootCause      *string `json:"root_Cause"`
	RootCauseAI    *string `json:"root_Cause_AI"`
	Duplicate      *string `json:"duplicate"`
	DuplicateAI    *string `json:"duplicate_AI"`

	OpenDate         string  `json:"openDate"`
	UpdatedDate      string  `json:"updatedDate"`
	OpenDateYear     *string `json:"openDate_Year"`
	OpenDateMonth    *string `json:"openDate_Month"`
	OpenDateDay      *string `json:"openDate_Day"`
	UpdatedDateYear  *string `json:"updatedDate_Year"`
	UpdatedDateMonth *string `json:"updatedDate_Month"`
	UpdatedDateDay   *string `json:"updatedDate_Day"`
}

// Ticket returns the entry-stage projection of an activity.
func (a ActivityRecord) Ticket() TicketRecord {
	return TicketRecord{
		ID:                   a.ID,
		IncidentNumber:       a.IncidentNumber,
		AssignedGroup:        a.AssignedGroup,
		LongDescription:      a.LongDescription,
		TeamFixedIssue:       a.TeamFixedIssue,
		TeamIncludedInTicket: a.TeamIncludedInTicket,
		ServiceOwner:         a.ServiceOwner,
		Priority:             a.Priority,
		OpenDate:             a.OpenDate,
		UpdatedDate:          a.UpdatedDate,
	}
}

// StrVal dereferences a nullable backend field, treating null as blank.
func StrVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Blank reports whether a nullable field is null, empty, or whitespace.
func Blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// CopyAISuggestions overwrites each manual field with its AI counterpart
// when the counterpart is non-blank. A blank AI suggestion never replaces a
// populated manual value, and never blanks one.
func (a *ActivityRecord) CopyAISuggestions() {
	copyIfPresent(&a.SummaryIssue, a.SummaryIssueAI)
	copyIfPresent(&a.System, a.SystemAI)
	copyIfPresent(&a.Issue, a.IssueAI)
	copyIfPresent(&a.RootCause, a.RootCauseAI)
	copyIfPresent(&a.Duplicate, a.DuplicateAI)
}

func copyIfPresent(dst **string, src *string) {
	if Blank(src) {
		return
	}
	v := *src
	*dst = &v
}

// SetField updates a single record field addressed by its JSON key, the same
// way the editors address columns. Unknown keys are an error so a typo in a
// field name surfaces instead of silently dropping the edit.
func (a *ActivityRecord) SetField(key, value string) error {
	m, err := recordToMap(a)
	if err != nil {
		return err
	}
	if _, ok := m[key]; !ok {
		return fmt.Errorf("unknown activity field %q", key)
	}
	m[key] = value
	return mapToRecord(m, a)
}

// SetField updates a single ticket field addressed by its JSON key.
func (t *TicketRecord) SetField(key, value string) error {
	m, err := recordToMap(t)
	if err != nil {
		return err
	}
	if _, ok := m[key]; !ok {
		return fmt.Errorf("unknown ticket field %q", key)
	}
	m[key] = value
	return mapToRecord(m, t)
}

func recordToMap(rec any) (map[string]any, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	return m, nil
}

func mapToRecord(m map[string]any, rec any) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding fields: %w", err)
	}
	if err := json.Unmarshal(raw, rec); err != nil {
		return fmt.Errorf("applying field update: %w", err)
	}
	return nil
}
