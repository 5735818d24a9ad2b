package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"incidentflow/internal/backend"
	"incidentflow/internal/domain"
	"incidentflow/internal/httpx"
)

func TestProcessRunsAllStepsInOrder(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	r := NewRunner(backend.NewClient(srv.URL, httpx.Client()))
	results := r.Process(context.Background())

	if results.Failed() != 0 {
		t.Fatalf("expected no failures, got %d", results.Failed())
	}
	want := []string{
		"/Activities/process",
		"/AISummary/AI_summary",
		"/System/AI_system",
		"/Issue/AI_Issue",
		"/RootCause/AI_RootCause",
		"/Duplicate/AI_Duplicate",
		"/Automation/process_further",
	}
	if len(paths) != len(want) {
		t.Fatalf("expected %d calls, got %v", len(want), paths)
	}
	for i, p := range want {
		if paths[i] != p {
			t.Fatalf("call %d = %s, want %s", i, paths[i], p)
		}
	}
}

func TestProcessStepFailureDoesNotAbortRest(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path == "/System/AI_system" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	r := NewRunner(backend.NewClient(srv.URL, httpx.Client()))
	results := r.Process(context.Background())

	if calls != len(results) {
		t.Fatalf("every step must still run, got %d calls for %d steps", calls, len(results))
	}
	if results.Failed() != 1 {
		t.Fatalf("expected one failed step, got %d", results.Failed())
	}
	for _, s := range results {
		if s.Name == "system" && s.Err == nil {
			t.Fatal("failed step must carry its error")
		}
		if s.Name != "system" && s.Err != nil {
			t.Fatalf("step %s must not fail: %v", s.Name, s.Err)
		}
	}
}

func TestProcessExistingRunsDateStages(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	r := NewRunner(backend.NewClient(srv.URL, httpx.Client()))
	r.ProcessExisting(context.Background(), "2026", "")

	want := []string{
		"/AISummaryDate/AI_summary_date",
		"/SystemDate/AI_system_date",
		"/IssueDate/AI_Issue_date",
		"/RootCauseDate/AI_RootCause_date",
		"/DuplicateDate/AI_Duplicate_date",
	}
	if len(paths) != len(want) {
		t.Fatalf("expected %d date stages, got %v", len(want), paths)
	}
	for i, p := range want {
		if paths[i] != p {
			t.Fatalf("stage %d = %s, want %s", i, paths[i], p)
		}
	}
}

func TestProcessExistingScopesQuery(t *testing.T) {
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.RawQuery)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	r := NewRunner(backend.NewClient(srv.URL, httpx.Client()))

	r.ProcessExisting(context.Background(), "2026", "3")
	for _, q := range queries {
		if q != "month=3&year=2026" {
			t.Fatalf("unexpected query: %s", q)
		}
	}

	queries = nil
	r.ProcessExisting(context.Background(), "2026", "")
	for _, q := range queries {
		if q != "year=2026" {
			t.Fatalf("month must be omitted when empty, got %s", q)
		}
	}
}

func TestParseLocalSuggestionsStripsCodeFence(t *testing.T) {
	response := "```json\n" +
		`[{"incidentNumber": "INC1", "summary": "db down", "system": "billing", "issue": "outage", "root_cause": "disk full", "duplicate_group": "NO_DUPLICATE"}]` +
		"\n```"
	parsed, err := parseLocalSuggestions(response)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	s, ok := parsed["INC1"]
	if !ok || s.Summary != "db down" {
		t.Fatalf("unexpected parse result: %+v", parsed)
	}
}

func TestApplySuggestionsFillsOnlyAIFields(t *testing.T) {
	manual := "hand-written summary"
	records := []domain.ActivityRecord{
		{IncidentNumber: "INC1", SummaryIssue: &manual},
		{IncidentNumber: "INC2"},
	}
	suggestions := map[string]localSuggestion{
		"INC1": {Summary: "ai summary", System: "billing", DuplicateGroup: "NO_DUPLICATE"},
	}

	out := applySuggestions(records, suggestions)

	if domain.StrVal(out[0].SummaryIssue) != manual {
		t.Fatal("manual field must never be touched")
	}
	if domain.StrVal(out[0].SummaryIssueAI) != "ai summary" {
		t.Fatalf("suggestion not applied: %+v", out[0])
	}
	if out[1].SummaryIssueAI != nil {
		t.Fatal("unanswered record must come back unchanged")
	}
	if records[0].SummaryIssueAI != nil {
		t.Fatal("input slice must not be mutated")
	}
}
