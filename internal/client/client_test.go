package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/daedaleanai/pgantt/internal/domain"
	"github.com/daedaleanai/pgantt/internal/observe"
	"github.com/daedaleanai/pgantt/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(t *testing.T, w http.ResponseWriter, code int, status string, data any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"status": status, "data": data}))
}

func newTestClient(srv *httptest.Server) *Client {
	return New(Config{BaseURL: srv.URL + "/", Token: "secret", Timeout: time.Second}, observe.NoopObserver{})
}

func TestClient_Snapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/plan/PHID-PROJ-1", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Empty(t, r.URL.Query().Get("closed"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		io.WriteString(w, `{"status":"SUCCESS","data":{
			"data":[
				{"id":"T1","text":"Design","start_date":"2021-03-01","duration":"4","progress":0.5,"open":true,"column":"PHID-PCOL-1","url":"https://phab/T1"},
				{"id":2,"parent":"T1","text":"Build","open":true,"url":"https://phab/T2"}
			],
			"links":[{"id":"T1#2#0","source":"T1","target":2,"type":"0"}]
		}}`)
	}))
	defer srv.Close()

	snap, err := newTestClient(srv).Snapshot(context.Background(), "PHID-PROJ-1", false)

	require.NoError(t, err)
	require.Len(t, snap.Tasks, 2)
	assert.Equal(t, 4, snap.Tasks[0].Duration)
	assert.Equal(t, domain.RootID, snap.Tasks[0].Parent)
	assert.Equal(t, "2", snap.Tasks[1].ID)
	assert.True(t, snap.Tasks[1].Unscheduled)
	require.Len(t, snap.Links, 1)
	assert.Equal(t, "2", snap.Links[0].Target)
}

func TestClient_Snapshot_IncludeClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("closed"))
		writeEnvelope(t, w, http.StatusOK, StatusSuccess, map[string]any{"data": []any{}, "links": []any{}})
	}))
	defer srv.Close()

	snap, err := newTestClient(srv).Snapshot(context.Background(), "PHID-PROJ-1", true)

	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())
}

func TestClient_Snapshot_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, http.StatusNotFound, StatusError, "Unknown project PHID-PROJ-9")
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Snapshot(context.Background(), "PHID-PROJ-9", false)

	require.ErrorIs(t, err, ErrServer)
	assert.Contains(t, err.Error(), "Unknown project PHID-PROJ-9")
}

func TestClient_Snapshot_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Snapshot(context.Background(), "p", false)

	assert.ErrorIs(t, err, ErrServer)
}

func TestClient_Snapshot_Malformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"SUCCESS","data":{"data":[{"id":"T1","duration":"soon"}]}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Snapshot(context.Background(), "p", false)

	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestClient_Unavailable(t *testing.T) {
	c := New(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, nil)

	_, err := c.Projects(context.Background())

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Timeout: 30 * time.Millisecond}, nil)
	_, err := c.Projects(context.Background())

	assert.ErrorIs(t, err, ErrTimeout)
}

func TestClient_Projects(t *testing.T) {
	project := testutil.NewTestProject("Avionics")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects", r.URL.Path)
		writeEnvelope(t, w, http.StatusOK, StatusSuccess, []domain.Project{project})
	}))
	defer srv.Close()

	projects, err := newTestClient(srv).Projects(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []domain.Project{project}, projects)
}

func TestClient_CreateTask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/edit/PHID-PROJ-1/task", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Write tests", body["text"])
		assert.Equal(t, "T1", body["parent"])

		writeEnvelope(t, w, http.StatusOK, StatusSuccess, ActionStatus{Action: ActionInserted, Tid: "T42"})
	}))
	defer srv.Close()

	task := testutil.NewTestTask("new", testutil.WithParent("T1"), testutil.WithText("Write tests"))
	status, err := newTestClient(srv).CreateTask(context.Background(), "PHID-PROJ-1", task)

	require.NoError(t, err)
	assert.Equal(t, ActionStatus{Action: ActionInserted, Tid: "T42"}, status)
}

func TestClient_UpdateTask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		writeEnvelope(t, w, http.StatusOK, StatusSuccess, ActionStatus{Action: ActionUpdated})
	}))
	defer srv.Close()

	status, err := newTestClient(srv).UpdateTask(context.Background(), "p", testutil.NewTestTask("T1"))

	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, status.Action)
}

func TestClient_CreateLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/edit/p/link", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "T1", body["source"])
		assert.Equal(t, "T2", body["target"])
		writeEnvelope(t, w, http.StatusOK, StatusSuccess, ActionStatus{Action: ActionInserted, Tid: "T1#T2#0"})
	}))
	defer srv.Close()

	status, err := newTestClient(srv).CreateLink(context.Background(), "p", testutil.NewTestLink("T1", "T2", domain.LinkFinishToStart))

	require.NoError(t, err)
	assert.Equal(t, "T1#T2#0", status.Tid)
}

func TestClient_DeleteLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		var id string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&id))
		assert.Equal(t, "T1#T2#0", id)
		writeEnvelope(t, w, http.StatusOK, StatusSuccess, ActionStatus{Action: ActionDeleted})
	}))
	defer srv.Close()

	status, err := newTestClient(srv).DeleteLink(context.Background(), "p", "T1#T2#0")

	require.NoError(t, err)
	assert.Equal(t, ActionDeleted, status.Action)
}

func TestClient_EditRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, http.StatusBadRequest, StatusError, "Task deletion is not supported")
	}))
	defer srv.Close()

	_, err := newTestClient(srv).UpdateTask(context.Background(), "p", testutil.NewTestTask("T1"))

	require.ErrorIs(t, err, ErrServer)
	assert.Contains(t, err.Error(), "put task")
}
