package edit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/daedaleanai/pgantt/internal/client"
	"github.com/daedaleanai/pgantt/internal/domain"
	"github.com/daedaleanai/pgantt/internal/metrics"
	"github.com/daedaleanai/pgantt/internal/refresh"
	"github.com/daedaleanai/pgantt/internal/testutil"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubmitter struct {
	calls    []string
	lastTask domain.Task
	lastLink domain.Link
	lastID   string
	status   client.ActionStatus
	err      error
}

func (f *fakeSubmitter) CreateTask(_ context.Context, _ string, task domain.Task) (client.ActionStatus, error) {
	f.calls = append(f.calls, "create_task")
	f.lastTask = task
	return f.status, f.err
}

func (f *fakeSubmitter) UpdateTask(_ context.Context, _ string, task domain.Task) (client.ActionStatus, error) {
	f.calls = append(f.calls, "update_task")
	f.lastTask = task
	return f.status, f.err
}

func (f *fakeSubmitter) CreateLink(_ context.Context, _ string, link domain.Link) (client.ActionStatus, error) {
	f.calls = append(f.calls, "create_link")
	f.lastLink = link
	return f.status, f.err
}

func (f *fakeSubmitter) DeleteLink(_ context.Context, _ string, linkID string) (client.ActionStatus, error) {
	f.calls = append(f.calls, "delete_link")
	f.lastID = linkID
	return f.status, f.err
}

type fakeRefresher struct {
	rollbacks int
	requests  []string
}

func (f *fakeRefresher) Rollback(context.Context) { f.rollbacks++ }

func (f *fakeRefresher) Request(_ context.Context, projectID string) (refresh.Result, error) {
	f.requests = append(f.requests, projectID)
	return refresh.Result{}, nil
}

type notes struct{ got []refresh.Notification }

func (n *notes) Notify(_ context.Context, note refresh.Notification) { n.got = append(n.got, note) }

func newTestService() (*Service, *fakeSubmitter, *fakeRefresher, *notes) {
	sub := &fakeSubmitter{}
	ref := &fakeRefresher{}
	n := &notes{}
	return NewService(sub, ref, n, Options{Metrics: metrics.New()}), sub, ref, n
}

func TestCreateTask_NormalizesAndRefreshes(t *testing.T) {
	svc, sub, ref, n := newTestService()
	sub.status = client.ActionStatus{Action: client.ActionInserted, Tid: "T77"}

	task := testutil.NewTestTask(" 42 ", testutil.WithParent(""), testutil.WithText("Wire harness"))
	tid, err := svc.CreateTask(context.Background(), "P", task)

	require.NoError(t, err)
	assert.Equal(t, "T77", tid)
	assert.Equal(t, "42", sub.lastTask.ID)
	assert.Equal(t, domain.RootID, sub.lastTask.Parent)
	assert.Equal(t, []string{"P"}, ref.requests)
	assert.Zero(t, ref.rollbacks)
	assert.Empty(t, n.got)
	assert.Equal(t, 1.0, promtest.ToFloat64(svc.metrics.EditTotal.WithLabelValues("create_task", "success")))
}

func TestCreateTask_RequiresText(t *testing.T) {
	svc, sub, ref, _ := newTestService()

	_, err := svc.CreateTask(context.Background(), "P", testutil.NewTestTask("T1", testutil.WithText("")))

	assert.ErrorIs(t, err, ErrInvalidEdit)
	assert.Empty(t, sub.calls)
	assert.Equal(t, 1, ref.rollbacks)
}

func TestUpdateTask_ServerRejectionRollsBack(t *testing.T) {
	svc, sub, ref, n := newTestService()
	sub.err = errors.New("planning server error: transaction failed")

	err := svc.UpdateTask(context.Background(), "P", testutil.NewTestTask("T1"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "transaction failed")
	assert.Equal(t, 1, ref.rollbacks)
	assert.Equal(t, []string{"P"}, ref.requests, "a rejected edit is followed by a refresh")
	require.Len(t, n.got, 1)
	assert.Equal(t, refresh.LevelError, n.got[0].Level)
	assert.Equal(t, 1.0, promtest.ToFloat64(svc.metrics.EditTotal.WithLabelValues("update_task", "failed")))
}

func TestUpdateTask_Validation(t *testing.T) {
	cases := []struct {
		name string
		task domain.Task
	}{
		{"missing id", testutil.NewTestTask("")},
		{"own parent", testutil.NewTestTask("T1", testutil.WithParent("T1"))},
		{"bad type", testutil.NewTestTask("T1", testutil.WithType("epic"))},
		{"bad date", testutil.NewTestTask("T1", testutil.WithStart("01-03-2021"))},
		{"negative duration", testutil.NewTestTask("T1", testutil.WithDuration(-1))},
		{"progress above one", testutil.NewTestTask("T1", testutil.WithProgress(1.5))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, sub, _, _ := newTestService()

			err := svc.UpdateTask(context.Background(), "P", tc.task)

			assert.ErrorIs(t, err, ErrInvalidEdit)
			assert.Empty(t, sub.calls)
		})
	}
}

func TestDeleteTask_Unsupported(t *testing.T) {
	svc, sub, ref, n := newTestService()

	err := svc.DeleteTask(context.Background(), "P", "T1")

	require.ErrorIs(t, err, ErrTaskDeletionUnsupported)
	assert.Contains(t, err.Error(), "cannot delete tasks")
	assert.Empty(t, sub.calls)
	assert.Empty(t, ref.requests)
	assert.Equal(t, 1, ref.rollbacks)
	assert.Len(t, n.got, 1)
}

func TestDeleteTask_NoHTTPRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := client.New(client.Config{BaseURL: srv.URL, Timeout: time.Second}, nil)
	svc := NewService(c, nil, nil, Options{})

	err := svc.DeleteTask(context.Background(), "P", "T1")

	assert.ErrorIs(t, err, ErrTaskDeletionUnsupported)
	assert.Equal(t, int32(0), hits.Load())
}

func TestUpdateLink_Unsupported(t *testing.T) {
	svc, sub, _, _ := newTestService()

	err := svc.UpdateLink(context.Background(), "P", "T1#T2#0")

	require.ErrorIs(t, err, ErrLinkUpdateUnsupported)
	assert.Contains(t, err.Error(), "cannot update links")
	assert.Empty(t, sub.calls)
}

func TestCreateLink_FillsID(t *testing.T) {
	svc, sub, ref, _ := newTestService()
	sub.status = client.ActionStatus{Action: client.ActionInserted}

	id, err := svc.CreateLink(context.Background(), "P", domain.Link{Source: "T1", Target: " T2", Type: domain.LinkStartToStart})

	require.NoError(t, err)
	assert.Equal(t, "T1#T2#1", id)
	assert.Equal(t, "T1#T2#1", sub.lastLink.ID)
	assert.Equal(t, "T2", sub.lastLink.Target)
	assert.Equal(t, []string{"P"}, ref.requests)
}

func TestCreateLink_Validation(t *testing.T) {
	cases := []struct {
		name string
		link domain.Link
	}{
		{"missing target", domain.Link{Source: "T1", Type: domain.LinkFinishToStart}},
		{"self dependency", domain.Link{Source: "T1", Target: "T1", Type: domain.LinkFinishToStart}},
		{"unknown type", domain.Link{Source: "T1", Target: "T2", Type: "9"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, sub, _, _ := newTestService()

			_, err := svc.CreateLink(context.Background(), "P", tc.link)

			assert.ErrorIs(t, err, ErrInvalidEdit)
			assert.Empty(t, sub.calls)
		})
	}
}

func TestDeleteLink(t *testing.T) {
	svc, sub, ref, _ := newTestService()
	sub.status = client.ActionStatus{Action: client.ActionDeleted}

	require.NoError(t, svc.DeleteLink(context.Background(), "P", "T1#T2#0"))

	assert.Equal(t, "T1#T2#0", sub.lastID)
	assert.Equal(t, []string{"P"}, ref.requests)
}

func TestDeleteLink_MalformedID(t *testing.T) {
	svc, sub, _, _ := newTestService()

	err := svc.DeleteLink(context.Background(), "P", "T1-T2")

	assert.ErrorIs(t, err, ErrInvalidEdit)
	assert.Empty(t, sub.calls)
}
