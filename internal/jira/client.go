package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// maxBodyBytes bounds how much of a response body is read into memory and
// carried inside error values.
const maxBodyBytes = 64 * 1024

// issueFields are the fields requested when fetching or searching issues.
var issueFields = []string{"summary", "status", "assignee", "priority", "issuetype"}

// Client implements [IssueStore] against the Jira REST API v2
// (Server/Data Center flavor).
//
// Requests that fail with 429 or a 5xx are retried with exponential backoff,
// honoring Retry-After when present. Create with [NewClient].
type Client struct {
	baseURL    string
	username   string
	token      string
	httpc      *http.Client
	catalog    *Catalog
	maxRetries uint64
	pageSize   int
}

// NewClient creates a [Client] for the given base URL.
//
// When username is non-empty the client authenticates with basic auth
// (username + token); otherwise the token is sent as a bearer PAT. The
// catalog is the shared field-catalog cache; pass the same instance to every
// client that should share resolved field ids.
func NewClient(baseURL, username, token string, catalog *Catalog) *Client {
	if catalog == nil {
		catalog = NewCatalog()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   username,
		token:      token,
		httpc:      &http.Client{Timeout: 30 * time.Second},
		catalog:    catalog,
		maxRetries: 3,
		pageSize:   50,
	}
}

// SetHTTPClient overrides the underlying HTTP client (used in tests with
// httptest servers).
func (c *Client) SetHTTPClient(httpc *http.Client) {
	c.httpc = httpc
}

// SetMaxRetries overrides the retry bound for 429/5xx responses.
func (c *Client) SetMaxRetries(n int) {
	if n >= 0 {
		c.maxRetries = uint64(n)
	}
}

// do performs one JSON request with retry on 429/5xx.
//
// A non-2xx terminal response is returned as a *RequestError. When out is
// non-nil the response body is decoded into it.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	operation := func() error {
		reqURL := c.baseURL + path
		if len(query) > 0 {
			reqURL += "?" + query.Encode()
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.username != "" {
			req.SetBasicAuth(c.username, c.token)
		} else {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpc.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			// Honor the server's Retry-After hint before the backoff policy
			// schedules the next attempt.
			if after := parseRetryAfter(resp.Header.Get("Retry-After")); after > 0 {
				waitFor(ctx, after)
			}
			return &RequestError{StatusCode: resp.StatusCode, Body: string(data)}
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return backoff.Permanent(&RequestError{StatusCode: resp.StatusCode, Body: string(data)})
		}

		if out != nil && len(data) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
			}
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	return backoff.Retry(operation, policy)
}

// maxRetryAfter caps how long the client will honor a Retry-After hint.
const maxRetryAfter = 30 * time.Second

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

// waitFor sleeps for d or until the context is canceled.
func waitFor(ctx context.Context, d time.Duration) {
	if d > maxRetryAfter {
		d = maxRetryAfter
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Wire-format structures for the REST v2 endpoints.

type restIssue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary string `json:"summary"`
		Status  struct {
			Name string `json:"name"`
		} `json:"status"`
		Assignee *struct {
			Name        string `json:"name"`
			DisplayName string `json:"displayName"`
		} `json:"assignee"`
		Priority *struct {
			Name string `json:"name"`
		} `json:"priority"`
		IssueType *struct {
			Name string `json:"name"`
		} `json:"issuetype"`
	} `json:"fields"`
}

type restSearchResult struct {
	StartAt    int         `json:"startAt"`
	MaxResults int         `json:"maxResults"`
	Total      int         `json:"total"`
	Issues     []restIssue `json:"issues"`
}

type restTransition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	To   struct {
		Name string `json:"name"`
	} `json:"to"`
}

type restErrorBody struct {
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
}

func (i restIssue) toIssue() Issue {
	out := Issue{
		Key:     i.Key,
		Summary: i.Fields.Summary,
		Status:  i.Fields.Status.Name,
	}
	if i.Fields.Assignee != nil {
		out.Assignee = i.Fields.Assignee.DisplayName
	}
	if i.Fields.Priority != nil {
		out.Priority = i.Fields.Priority.Name
	}
	if i.Fields.IssueType != nil {
		out.Category = strings.ToLower(i.Fields.IssueType.Name)
	}
	return out
}

// FetchIssue retrieves one issue. A 404 maps to [ErrIssueNotFound].
func (c *Client) FetchIssue(ctx context.Context, key string) (*Issue, error) {
	query := url.Values{"fields": {strings.Join(issueFields, ",")}}

	var ri restIssue
	err := c.do(ctx, http.MethodGet, "/rest/api/2/issue/"+key, query, nil, &ri)
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s: %w", key, ErrIssueNotFound)
		}
		return nil, err
	}

	issue := ri.toIssue()
	return &issue, nil
}

// ListAssignedIssues searches for issues assigned to the current identity,
// optionally restricted to the given status names, newest first.
func (c *Client) ListAssignedIssues(ctx context.Context, statuses []string) ([]Issue, error) {
	jql := "assignee = currentUser()"
	if len(statuses) > 0 {
		quoted := make([]string, len(statuses))
		for i, s := range statuses {
			quoted[i] = `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
		}
		jql += " AND status IN (" + strings.Join(quoted, ", ") + ")"
	}
	jql += " ORDER BY updated DESC"

	var issues []Issue
	startAt := 0
	for {
		body := map[string]any{
			"jql":        jql,
			"startAt":    startAt,
			"maxResults": c.pageSize,
			"fields":     issueFields,
		}

		var result restSearchResult
		if err := c.do(ctx, http.MethodPost, "/rest/api/2/search", nil, body, &result); err != nil {
			return nil, err
		}
		for _, ri := range result.Issues {
			issues = append(issues, ri.toIssue())
		}

		startAt += len(result.Issues)
		if len(result.Issues) == 0 || startAt >= result.Total {
			return issues, nil
		}
	}
}

// AttemptTransition performs the transition named by label.
//
// The label is matched case-insensitively against the issue's transition
// catalog. A label with no matching transition yields a [*RejectionError]
// enumerating the available transitions, so callers can resolve an
// alternate label from the message. A tracker-side refusal of a matched
// transition is likewise returned as a [*RejectionError] carrying the
// tracker's error text.
func (c *Client) AttemptTransition(ctx context.Context, key, label string) error {
	var listing struct {
		Transitions []restTransition `json:"transitions"`
	}
	if err := c.do(ctx, http.MethodGet, "/rest/api/2/issue/"+key+"/transitions", nil, nil, &listing); err != nil {
		return err
	}

	var match *restTransition
	for i := range listing.Transitions {
		if strings.EqualFold(listing.Transitions[i].Name, label) {
			match = &listing.Transitions[i]
			break
		}
	}
	if match == nil {
		names := make([]string, len(listing.Transitions))
		for i, tr := range listing.Transitions {
			names[i] = `"` + tr.Name + `"`
		}
		return &RejectionError{
			IssueKey: key,
			Label:    label,
			Message: fmt.Sprintf("transition %q is not available for %s; available transitions: %s",
				label, key, strings.Join(names, ", ")),
		}
	}

	body := map[string]any{"transition": map[string]string{"id": match.ID}}
	err := c.do(ctx, http.MethodPost, "/rest/api/2/issue/"+key+"/transitions", nil, body, nil)
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusBadRequest {
			return &RejectionError{
				IssueKey: key,
				Label:    label,
				Message:  flattenErrorBody(reqErr.Body),
			}
		}
		return err
	}
	return nil
}

// flattenErrorBody turns Jira's {errorMessages, errors} JSON into one line
// of text. Unparseable bodies are passed through verbatim.
func flattenErrorBody(body string) string {
	var eb restErrorBody
	if err := json.Unmarshal([]byte(body), &eb); err != nil {
		return body
	}

	parts := append([]string{}, eb.ErrorMessages...)
	for _, msg := range eb.Errors {
		parts = append(parts, msg)
	}
	if len(parts) == 0 {
		return body
	}
	return strings.Join(parts, " ")
}

// ReadFields returns current values for the given field ids. Null or empty
// fields are omitted.
func (c *Client) ReadFields(ctx context.Context, key string, ids []string) (map[string]string, error) {
	query := url.Values{"fields": {strings.Join(ids, ",")}}

	var raw struct {
		Fields map[string]json.RawMessage `json:"fields"`
	}
	if err := c.do(ctx, http.MethodGet, "/rest/api/2/issue/"+key, query, nil, &raw); err != nil {
		return nil, err
	}

	values := make(map[string]string)
	for id, msg := range raw.Fields {
		if v := fieldToString(msg); v != "" {
			values[id] = v
		}
	}
	return values, nil
}

// fieldToString renders a raw field value as a string. Strings decode
// directly; null becomes absent; anything else keeps its compact JSON form.
func fieldToString(msg json.RawMessage) string {
	if len(msg) == 0 || string(msg) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return s
	}
	return string(msg)
}

// WriteFields updates custom fields by display name in one batched call.
func (c *Client) WriteFields(ctx context.Context, key string, fields map[string]string) error {
	byID := make(map[string]string, len(fields))
	for name, value := range fields {
		id, err := c.ResolveFieldID(ctx, name)
		if err != nil {
			return err
		}
		byID[id] = value
	}

	body := map[string]any{"fields": byID}
	return c.do(ctx, http.MethodPut, "/rest/api/2/issue/"+key, nil, body, nil)
}

// ResolveFieldID maps a field display name to its id via the shared catalog.
func (c *Client) ResolveFieldID(ctx context.Context, displayName string) (string, error) {
	return c.catalog.Resolve(ctx, displayName, c.fetchFieldCatalog)
}

func (c *Client) fetchFieldCatalog(ctx context.Context) (map[string]string, error) {
	var listing []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := c.do(ctx, http.MethodGet, "/rest/api/2/field", nil, nil, &listing); err != nil {
		return nil, err
	}

	fields := make(map[string]string, len(listing))
	for _, f := range listing {
		fields[f.Name] = f.ID
	}
	return fields, nil
}

// SearchIdentity looks up tracker users matching the query.
func (c *Client) SearchIdentity(ctx context.Context, query string) ([]Identity, error) {
	params := url.Values{"username": {query}}

	var listing []struct {
		Name        string `json:"name"`
		AccountID   string `json:"accountId"`
		DisplayName string `json:"displayName"`
	}
	if err := c.do(ctx, http.MethodGet, "/rest/api/2/user/search", params, nil, &listing); err != nil {
		return nil, err
	}

	identities := make([]Identity, len(listing))
	for i, u := range listing {
		identities[i] = Identity{AccountID: u.AccountID, Name: u.Name, DisplayName: u.DisplayName}
	}
	return identities, nil
}

// Assign sets the issue's assignee.
func (c *Client) Assign(ctx context.Context, key string, identity Identity) error {
	body := map[string]string{"name": identity.Name}
	if identity.AccountID != "" {
		body = map[string]string{"accountId": identity.AccountID}
	}
	return c.do(ctx, http.MethodPut, "/rest/api/2/issue/"+key+"/assignee", nil, body, nil)
}

// CurrentIdentity returns the identity the client authenticates as.
func (c *Client) CurrentIdentity(ctx context.Context) (*Identity, error) {
	var me struct {
		Name        string `json:"name"`
		AccountID   string `json:"accountId"`
		DisplayName string `json:"displayName"`
	}
	if err := c.do(ctx, http.MethodGet, "/rest/api/2/myself", nil, nil, &me); err != nil {
		return nil, err
	}
	return &Identity{AccountID: me.AccountID, Name: me.Name, DisplayName: me.DisplayName}, nil
}
