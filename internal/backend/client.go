// Package backend is the HTTP client for the incident activity API. All
// paths hang off one base URL; responses are decoded at this boundary and
// nothing above it touches raw JSON.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"incidentflow/internal/domain"
	"incidentflow/internal/mapper"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// ValidationError carries the field-level messages of a backend 400
// rejection, verbatim. Callers print them; nothing interprets them.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("backend validation failed")
	for _, k := range keys {
		fmt.Fprintf(&b, "; %s: %s", k, strings.Join(e.Fields[k], ", "))
	}
	return b.String()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) (int, []byte, error) {
	apiURL := c.baseURL + path
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encoding payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, body)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("calling %s %s: %w", method, path, err)
	}
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, raw, nil
}

// statusErr turns a non-2xx response into an error, unpacking field-level
// validation messages when the backend sent them.
func statusErr(method, path string, status int, body []byte) error {
	if status == http.StatusBadRequest {
		var payload struct {
			Errors map[string][]string `json:"errors"`
		}
		if err := json.Unmarshal(body, &payload); err == nil && len(payload.Errors) > 0 {
			return &ValidationError{Fields: payload.Errors}
		}
	}
	return fmt.Errorf("%s %s returned %d: %s", method, path, status, strings.TrimSpace(string(body)))
}

// incidentNotFound recognizes the backend's two spellings of a lookup miss:
// a plain 404, or a 500 whose body carries the known not-found message.
func incidentNotFound(status int, body []byte) bool {
	if status == http.StatusNotFound {
		return true
	}
	if status != http.StatusInternalServerError {
		return false
	}
	s := string(body)
	return strings.Contains(s, "Activity with IncidentNumber") && strings.Contains(s, "not found")
}

// extractID pulls a record id out of a response body that may be a bare
// string, a JSON string, or an object keyed id/Id/ID.
func extractID(body []byte) (string, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "", fmt.Errorf("empty response body")
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err != nil {
			return "", fmt.Errorf("decoding id string: %w", err)
		}
		return s, nil
	case '{':
		var obj map[string]any
		if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
			return "", fmt.Errorf("decoding id object: %w", err)
		}
		for _, key := range []string{"id", "Id", "ID"} {
			if v, ok := obj[key]; ok {
				return fmt.Sprintf("%v", v), nil
			}
		}
		return "", fmt.Errorf("response object has no id key: %s", trimmed)
	default:
		return trimmed, nil
	}
}

// LookupIncident resolves a business key to the backend's record id.
// found=false with a nil error is a genuine miss, not a failure.
func (c *Client) LookupIncident(ctx context.Context, incidentNumber string) (string, bool, error) {
	path := "/FrontEnd/incident/" + url.PathEscape(incidentNumber)
	status, body, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return "", false, err
	}
	if incidentNotFound(status, body) {
		return "", false, nil
	}
	if status != http.StatusOK {
		return "", false, statusErr(http.MethodGet, path, status, body)
	}
	id, err := extractID(body)
	if err != nil {
		return "", false, fmt.Errorf("lookup %s: %w", incidentNumber, err)
	}
	return id, true, nil
}

// CreateActivity posts a new record and returns the server-assigned id.
func (c *Client) CreateActivity(ctx context.Context, payload map[string]any) (string, error) {
	status, body, err := c.do(ctx, http.MethodPost, "/FrontEnd", nil, payload)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return "", statusErr(http.MethodPost, "/FrontEnd", status, body)
	}
	id, err := extractID(body)
	if err != nil {
		return "", fmt.Errorf("create: %w", err)
	}
	return id, nil
}

// UpdateActivity replaces an existing record addressed by the id inside the
// payload.
func (c *Client) UpdateActivity(ctx context.Context, payload map[string]any) error {
	status, body, err := c.do(ctx, http.MethodPut, "/FrontEnd", nil, payload)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return statusErr(http.MethodPut, "/FrontEnd", status, body)
	}
	return nil
}

func (c *Client) DeleteActivity(ctx context.Context, id string) error {
	path := "/FrontEnd/" + url.PathEscape(id)
	status, body, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return statusErr(http.MethodDelete, path, status, body)
	}
	return nil
}

// IncidentDetails fetches the full stored rows for one incident number,
// mapped back to the entry-stage shape.
func (c *Client) IncidentDetails(ctx context.Context, incidentNumber string) ([]domain.TicketRecord, error) {
	path := "/FrontEnd/incident/details/" + url.PathEscape(incidentNumber)
	status, body, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	if incidentNotFound(status, body) {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, statusErr(http.MethodGet, path, status, body)
	}

	var rows []map[string]any
	if err := json.Unmarshal(body, &rows); err != nil {
		// Some deployments return a single object for a single match.
		var one map[string]any
		if err2 := json.Unmarshal(body, &one); err2 != nil {
			return nil, fmt.Errorf("parsing details: %w", err)
		}
		rows = []map[string]any{one}
	}

	records := make([]domain.TicketRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := mapper.TicketFromBackend(row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (c *Client) activityList(ctx context.Context, path string, query url.Values) ([]domain.ActivityRecord, error) {
	status, body, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusErr(http.MethodGet, path, status, body)
	}
	var records []domain.ActivityRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("parsing activity list: %w", err)
	}
	return records, nil
}

// ReviewList fetches the full non-scoped review working set.
func (c *Client) ReviewList(ctx context.Context) ([]domain.ActivityRecord, error) {
	return c.activityList(ctx, "/FrontEnd/ReviewList", nil)
}

// ReviewListByDate fetches the date-scoped review set. An empty month asks
// for the whole year.
func (c *Client) ReviewListByDate(ctx context.Context, year, month string) ([]domain.ActivityRecord, error) {
	query := url.Values{"year": {year}}
	if month != "" {
		query.Set("month", month)
	}
	return c.activityList(ctx, "/FrontEnd/ReviewListDate", query)
}

// DuplicateList fetches the duplicate-flagged subset for the scope.
func (c *Client) DuplicateList(ctx context.Context, year, month string) ([]domain.ActivityRecord, error) {
	query := url.Values{"year": {year}}
	if month != "" {
		query.Set("month", month)
	}
	return c.activityList(ctx, "/FrontEnd/DuplicateList", query)
}

// Trigger fires one of the server-side processing endpoints. The body is
// ignored: these endpoints run a pipeline stage and report only success.
func (c *Client) Trigger(ctx context.Context, path string, query url.Values) error {
	status, body, err := c.do(ctx, http.MethodPost, path, query, nil)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return statusErr(http.MethodPost, path, status, body)
	}
	return nil
}

// Get issues a GET and decodes the JSON body into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	status, body, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return statusErr(http.MethodGet, path, status, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing %s response: %w", path, err)
	}
	return nil
}
