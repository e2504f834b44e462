package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/daedaleanai/pgantt/internal/client"
	"github.com/daedaleanai/pgantt/internal/domain"
	"github.com/stretchr/testify/require"
)

type recordedEdit struct {
	Method  string
	Project string
	Kind    string
	Body    string
}

// fakePlanServer is an in-memory planning server speaking the JSON API.
type fakePlanServer struct {
	t   *testing.T
	srv *httptest.Server

	mu        sync.Mutex
	projects  []domain.Project
	plans     map[string]domain.Snapshot
	edits     []recordedEdit
	failEdits bool
	nextTask  int

	hits atomic.Int32
}

func newFakePlanServer(t *testing.T) *fakePlanServer {
	t.Helper()
	f := &fakePlanServer{t: t, plans: make(map[string]domain.Snapshot), nextTask: 100}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/projects", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.reply(w, http.StatusOK, client.StatusSuccess, f.projects)
	})
	mux.HandleFunc("GET /api/plan/{phid}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		plan, ok := f.plans[r.PathValue("phid")]
		if !ok {
			f.reply(w, http.StatusNotFound, client.StatusError, "unknown project")
			return
		}
		f.reply(w, http.StatusOK, client.StatusSuccess, plan)
	})
	mux.HandleFunc("/api/edit/{phid}/{kind}", f.handleEdit)

	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakePlanServer) URL() string {
	return f.srv.URL
}

func (f *fakePlanServer) addProject(p domain.Project, plan domain.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects = append(f.projects, p)
	f.plans[p.PHID] = plan
}

func (f *fakePlanServer) plan(phid string) domain.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plans[phid].Clone()
}

func (f *fakePlanServer) recorded() []recordedEdit {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedEdit(nil), f.edits...)
}

func (f *fakePlanServer) reply(w http.ResponseWriter, code int, status string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	require.NoError(f.t, json.NewEncoder(w).Encode(map[string]any{"status": status, "data": data}))
}

func (f *fakePlanServer) handleEdit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	require.NoError(f.t, err)

	f.mu.Lock()
	defer f.mu.Unlock()

	phid, kind := r.PathValue("phid"), r.PathValue("kind")
	f.edits = append(f.edits, recordedEdit{Method: r.Method, Project: phid, Kind: kind, Body: string(body)})
	if f.failEdits {
		f.reply(w, http.StatusInternalServerError, client.StatusError, "edit rejected")
		return
	}

	plan := f.plans[phid]
	switch kind + " " + r.Method {
	case "task POST":
		var task domain.Task
		require.NoError(f.t, json.Unmarshal(body, &task))
		f.nextTask++
		task.ID = fmt.Sprintf("T%d", f.nextTask)
		task.URL = "https://phab.example.com/" + task.ID
		plan.Tasks = append(plan.Tasks, task)
		f.reply(w, http.StatusOK, client.StatusSuccess, client.ActionStatus{Action: client.ActionInserted, Tid: task.ID})
	case "task PUT":
		var task domain.Task
		require.NoError(f.t, json.Unmarshal(body, &task))
		for i := range plan.Tasks {
			if plan.Tasks[i].ID == task.ID {
				plan.Tasks[i] = task
			}
		}
		f.reply(w, http.StatusOK, client.StatusSuccess, client.ActionStatus{Action: client.ActionUpdated})
	case "link POST":
		var link domain.Link
		require.NoError(f.t, json.Unmarshal(body, &link))
		plan.Links = append(plan.Links, link)
		f.reply(w, http.StatusOK, client.StatusSuccess, client.ActionStatus{Action: client.ActionInserted, Tid: link.ID})
	case "link DELETE":
		var id string
		require.NoError(f.t, json.Unmarshal(body, &id))
		kept := plan.Links[:0]
		for _, l := range plan.Links {
			if l.ID != id {
				kept = append(kept, l)
			}
		}
		plan.Links = kept
		f.reply(w, http.StatusOK, client.StatusSuccess, client.ActionStatus{Action: client.ActionDeleted})
	default:
		f.reply(w, http.StatusMethodNotAllowed, client.StatusError, "unsupported")
		return
	}
	f.plans[phid] = plan
}
