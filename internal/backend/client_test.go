package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"incidentflow/internal/httpx"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, httpx.Client())
}

func TestLookupIncidentHit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/FrontEnd/incident/INC1" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`"42"`))
	})

	id, found, err := c.LookupIncident(context.Background(), "INC1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !found || id != "42" {
		t.Fatalf("expected hit with id 42, got found=%v id=%q", found, id)
	}
}

func TestLookupIncidentMissVariants(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"plain 404", http.StatusNotFound, "not here"},
		{"500 with not-found body", http.StatusInternalServerError,
			`Activity with IncidentNumber 'INC9' not found`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})
			_, found, err := c.LookupIncident(context.Background(), "INC9")
			if err != nil {
				t.Fatalf("a lookup miss must not be an error: %v", err)
			}
			if found {
				t.Fatal("expected miss")
			}
		})
	}
}

func TestLookupIncidentGenuineServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("database connection refused"))
	})
	_, _, err := c.LookupIncident(context.Background(), "INC1")
	if err == nil {
		t.Fatal("a 500 without the not-found message is a real failure")
	}
}

func TestCreateActivityIDShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"bare string", `abc-123`, "abc-123"},
		{"json string", `"abc-123"`, "abc-123"},
		{"object id", `{"id": "abc-123"}`, "abc-123"},
		{"object Id", `{"Id": "abc-123"}`, "abc-123"},
		{"object ID numeric", `{"ID": 7}`, "7"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/FrontEnd" {
					t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
				}
				w.Write([]byte(tc.body))
			})
			id, err := c.CreateActivity(context.Background(), map[string]any{"incidentNumber": "INC1"})
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if id != tc.want {
				t.Fatalf("id = %q, want %q", id, tc.want)
			}
		})
	}
}

func TestCreateActivityValidationError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"errors": map[string][]string{
				"Priority": {"The Priority field is required."},
			},
		})
	})
	_, err := c.CreateActivity(context.Background(), map[string]any{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if got := verr.Fields["Priority"][0]; got != "The Priority field is required." {
		t.Fatalf("field message must be verbatim, got %q", got)
	}
}

func TestUpdateAndDeleteActivity(t *testing.T) {
	var gotMethod, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.UpdateActivity(context.Background(), map[string]any{"id": "42"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/FrontEnd" {
		t.Fatalf("unexpected update request: %s %s", gotMethod, gotPath)
	}

	if err := c.DeleteActivity(context.Background(), "42"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/FrontEnd/42" {
		t.Fatalf("unexpected delete request: %s %s", gotMethod, gotPath)
	}
}

func TestIncidentDetailsMapsBackendKeys(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"1","incidentNumber":"INC1","team_Fixed_Issue":"yes","team_Included_in_Ticket":"no"}]`))
	})
	records, err := c.IncidentDetails(context.Background(), "INC1")
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	if records[0].TeamFixedIssue != "yes" || records[0].TeamIncludedInTicket != "no" {
		t.Fatalf("backend keys not mapped: %+v", records[0])
	}
}

func TestReviewListByDateQuery(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[]`))
	})

	if _, err := c.ReviewListByDate(context.Background(), "2026", "3"); err != nil {
		t.Fatalf("review list: %v", err)
	}
	if gotQuery != "month=3&year=2026" {
		t.Fatalf("unexpected query: %s", gotQuery)
	}

	if _, err := c.ReviewListByDate(context.Background(), "2026", ""); err != nil {
		t.Fatalf("review list: %v", err)
	}
	if gotQuery != "year=2026" {
		t.Fatalf("month must be omitted when empty, got %s", gotQuery)
	}
}
