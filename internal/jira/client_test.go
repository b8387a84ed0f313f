package jira

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(server.URL, "tester", "secret", NewCatalog())
	client.SetHTTPClient(server.Client())
	return client
}

func TestClient_FetchIssue(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/2/issue/PROJ-1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"key": "PROJ-1",
			"fields": map[string]any{
				"summary":   "Fix the flux capacitor",
				"status":    map[string]string{"name": "In Progress"},
				"assignee":  map[string]string{"name": "marty", "displayName": "Marty McFly"},
				"priority":  map[string]string{"name": "High"},
				"issuetype": map[string]string{"name": "Documentation"},
			},
		})
	}))

	issue, err := client.FetchIssue(context.Background(), "PROJ-1")
	require.NoError(t, err)
	assert.Equal(t, "PROJ-1", issue.Key)
	assert.Equal(t, "Fix the flux capacitor", issue.Summary)
	assert.Equal(t, "In Progress", issue.Status)
	assert.Equal(t, "Marty McFly", issue.Assignee)
	assert.Equal(t, "documentation", issue.Category)
}

func TestClient_FetchIssue_NotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errorMessages":["Issue does not exist"]}`))
	}))

	_, err := client.FetchIssue(context.Background(), "PROJ-404")
	assert.ErrorIs(t, err, ErrIssueNotFound)
}

func TestClient_AttemptTransition_MatchesLabelCaseInsensitively(t *testing.T) {
	var posted atomic.Bool
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{
				"transitions": []map[string]any{
					{"id": "21", "name": "Doing", "to": map[string]string{"name": "Doing"}},
					{"id": "31", "name": "Done", "to": map[string]string{"name": "Done"}},
				},
			})
		case http.MethodPost:
			var body struct {
				Transition struct {
					ID string `json:"id"`
				} `json:"transition"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "21", body.Transition.ID)
			posted.Store(true)
			w.WriteHeader(http.StatusNoContent)
		}
	}))

	err := client.AttemptTransition(context.Background(), "PROJ-1", "DOING")
	require.NoError(t, err)
	assert.True(t, posted.Load())
}

func TestClient_AttemptTransition_UnavailableLabelListsTransitions(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"transitions": []map[string]any{
				{"id": "41", "name": "Return to Doing"},
				{"id": "51", "name": "Cancel"},
			},
		})
	}))

	err := client.AttemptTransition(context.Background(), "PROJ-1", "Doing")
	var rej *RejectionError
	require.ErrorAs(t, err, &rej)
	assert.Contains(t, rej.Message, `available transitions: "Return to Doing", "Cancel"`)
}

func TestClient_AttemptTransition_TrackerRefusal(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode(map[string]any{
				"transitions": []map[string]any{{"id": "31", "name": "Done"}},
			})
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errorMessages":[],"errors":{"customfield_10001":"Field 'Dev Start Date' is required"}}`))
	}))

	err := client.AttemptTransition(context.Background(), "PROJ-1", "Done")
	var rej *RejectionError
	require.ErrorAs(t, err, &rej)
	assert.Contains(t, rej.Message, "Field 'Dev Start Date' is required")
}

func TestClient_RetriesOn429(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"name": "tester", "displayName": "Tester",
		})
	}))

	me, err := client.CurrentIdentity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Tester", me.DisplayName)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_ReadFields_SkipsNullAndEmpty(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"fields":{"customfield_1":"2024-02-02","customfield_2":null,"customfield_3":""}}`))
	}))

	values, err := client.ReadFields(context.Background(), "PROJ-1", []string{"customfield_1", "customfield_2", "customfield_3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"customfield_1": "2024-02-02"}, values)
}

func TestClient_WriteFields_ResolvesNamesThroughCatalog(t *testing.T) {
	var catalogCalls atomic.Int32
	var written map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/api/2/field":
			catalogCalls.Add(1)
			w.Write([]byte(`[{"id":"customfield_1","name":"Dev Start Date"},{"id":"customfield_2","name":"Dev Due Date"}]`))
		default:
			var body struct {
				Fields map[string]any `json:"fields"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			written = body.Fields
			w.WriteHeader(http.StatusNoContent)
		}
	}))

	ctx := context.Background()
	err := client.WriteFields(ctx, "PROJ-1", map[string]string{"Dev Start Date": "2024-02-02"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"customfield_1": "2024-02-02"}, written)

	// Second write reuses the cached catalog.
	err = client.WriteFields(ctx, "PROJ-1", map[string]string{"Dev Due Date": "2024-03-03"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), catalogCalls.Load())
}

func TestClient_WriteFields_UnknownFieldName(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))

	err := client.WriteFields(context.Background(), "PROJ-1", map[string]string{"No Such Field": "x"})
	assert.ErrorIs(t, err, ErrFieldNotFound)
}

func TestClient_ListAssignedIssues_Paginates(t *testing.T) {
	var pages atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			JQL     string `json:"jql"`
			StartAt int    `json:"startAt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body.JQL, "assignee = currentUser()")
		assert.Contains(t, body.JQL, `status IN ("Waiting", "Doing")`)

		pages.Add(1)
		issues := []map[string]any{{
			"key":    "PROJ-1",
			"fields": map[string]any{"summary": "a", "status": map[string]string{"name": "Waiting"}},
		}}
		if body.StartAt > 0 {
			issues = []map[string]any{{
				"key":    "PROJ-2",
				"fields": map[string]any{"summary": "b", "status": map[string]string{"name": "Doing"}},
			}}
		}
		json.NewEncoder(w).Encode(map[string]any{
			"startAt": body.StartAt,
			"total":   2,
			"issues":  issues,
		})
	}))
	client.pageSize = 1

	issues, err := client.ListAssignedIssues(context.Background(), []string{"Waiting", "Doing"})
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, "PROJ-1", issues[0].Key)
	assert.Equal(t, "PROJ-2", issues[1].Key)
	assert.Equal(t, int32(2), pages.Load())
}
