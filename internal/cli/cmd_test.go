package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/daedaleanai/pgantt/internal/client"
	"github.com/daedaleanai/pgantt/internal/config"
	"github.com/daedaleanai/pgantt/internal/domain"
	"github.com/daedaleanai/pgantt/internal/edit"
	"github.com/daedaleanai/pgantt/internal/repository"
	"github.com/daedaleanai/pgantt/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testToday = time.Date(2021, 3, 1, 9, 0, 0, 0, time.UTC)

// testApp wires a full App backed by an in-memory DB and a fake server.
func testApp(t *testing.T, srv *fakePlanServer) *App {
	t.Helper()
	app := &App{
		Config: config.Config{
			ServerURL:    srv.URL(),
			PollInterval: 10 * time.Millisecond,
			HTTPTimeout:  time.Second,
		},
		Client: client.New(client.Config{BaseURL: srv.URL(), Timeout: time.Second}, nil),
		Now:    func() time.Time { return testToday },
	}
	app.Wire(testutil.NewTestDB(t))
	return app
}

// apolloPlan is a small plan served out of creation order: the build task
// was created before its parent milestone.
func apolloPlan() domain.Snapshot {
	return testutil.NewTestSnapshot(
		[]domain.Task{
			testutil.NewTestTask("T3", testutil.WithText("Build"), testutil.WithParent("T1"),
				testutil.WithStart("2021-03-08"), testutil.WithDuration(5)),
			testutil.NewTestTask("T1", testutil.WithText("Design"),
				testutil.WithStart("2021-03-01"), testutil.WithDuration(5), testutil.WithProgress(0.5)),
			testutil.NewTestTask("T2", testutil.WithText("Retired"), testutil.WithClosed(),
				testutil.WithStart("2021-03-02"), testutil.WithDuration(1)),
		},
		testutil.NewTestLink("T1", "T3", domain.LinkFinishToStart),
	)
}

func seedApollo(srv *fakePlanServer) domain.Project {
	p := domain.Project{Name: "Apollo", PHID: "PHID-PROJ-apollo"}
	srv.addProject(p, apolloPlan())
	return p
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	return executeCmdContext(t, context.Background(), app, args...)
}

func executeCmdContext(t *testing.T, ctx context.Context, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return buf.String(), err
}

// --- projects ---

func TestProjectsCmd_ListsAndStores(t *testing.T) {
	srv := newFakePlanServer(t)
	seedApollo(srv)
	app := testApp(t, srv)

	out, err := executeCmd(t, app, "projects")
	require.NoError(t, err)
	assert.Contains(t, out, "Apollo")
	assert.Contains(t, out, "PHID-PROJ-apollo")

	stored, err := app.Projects.List(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Apollo", stored[0].Name)
}

func TestProjectsCmd_CachedDoesNotContactServer(t *testing.T) {
	srv := newFakePlanServer(t)
	seedApollo(srv)
	app := testApp(t, srv)

	out, err := executeCmd(t, app, "projects", "--cached")
	require.NoError(t, err)
	assert.Contains(t, out, "No projects found.")
	assert.Zero(t, srv.hits.Load())
}

func TestProjectsCmd_NoServerConfigured(t *testing.T) {
	srv := newFakePlanServer(t)
	app := testApp(t, srv)
	app.Config.ServerURL = ""

	_, err := executeCmd(t, app, "projects")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrNoHost)
}

// --- plan ---

func TestPlanCmd_PrintsTreeInCreationOrder(t *testing.T) {
	srv := newFakePlanServer(t)
	p := seedApollo(srv)
	app := testApp(t, srv)

	out, err := executeCmd(t, app, "plan", p.PHID)
	require.NoError(t, err)

	design := strings.Index(out, "Design")
	build := strings.Index(out, "Build")
	require.NotEqual(t, -1, design)
	require.NotEqual(t, -1, build)
	assert.Less(t, design, build, "parent is printed before its child")
	assert.NotContains(t, out, "Retired", "closed tasks are hidden by default")
	assert.Contains(t, out, "1 hidden by settings")
	assert.Contains(t, out, "50%")
}

func TestPlanCmd_ResolvesProjectByName(t *testing.T) {
	srv := newFakePlanServer(t)
	seedApollo(srv)
	app := testApp(t, srv)

	out, err := executeCmd(t, app, "plan", "apollo")
	require.NoError(t, err)
	assert.Contains(t, out, "Design")
}

func TestPlanCmd_UnknownProject(t *testing.T) {
	srv := newFakePlanServer(t)
	seedApollo(srv)
	app := testApp(t, srv)

	_, err := executeCmd(t, app, "plan", "Gemini")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `project not found: "Gemini"`)
}

func TestPlanCmd_UsesDefaultProject(t *testing.T) {
	srv := newFakePlanServer(t)
	p := seedApollo(srv)
	app := testApp(t, srv)

	settings := domain.DefaultSettings()
	settings.DefaultProject = p.PHID
	require.NoError(t, app.Settings.Save(context.Background(), repository.DefaultProfile, settings))

	out, err := executeCmd(t, app, "plan")
	require.NoError(t, err)
	assert.Contains(t, out, "Design")
}

func TestPlanCmd_RequiresProjectWhenNotInteractive(t *testing.T) {
	srv := newFakePlanServer(t)
	app := testApp(t, srv)

	_, err := executeCmd(t, app, "plan")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project is required")
}

func TestPlanCmd_JSONIsOrdered(t *testing.T) {
	srv := newFakePlanServer(t)
	p := seedApollo(srv)
	app := testApp(t, srv)

	out, err := executeCmd(t, app, "plan", p.PHID, "--json")
	require.NoError(t, err)

	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, []string{"T1", "T2", "T3"}, testutil.TaskIDs(snap.Tasks))
	require.Len(t, snap.Links, 1)
}

func TestPlanCmd_ClosedFlagShowsClosedTasks(t *testing.T) {
	srv := newFakePlanServer(t)
	p := seedApollo(srv)
	app := testApp(t, srv)

	out, err := executeCmd(t, app, "plan", p.PHID, "--closed")
	require.NoError(t, err)
	assert.Contains(t, out, "Retired")
	assert.Contains(t, out, "Closed")
}

func TestPlanCmd_Gantt(t *testing.T) {
	srv := newFakePlanServer(t)
	p := seedApollo(srv)
	app := testApp(t, srv)

	out, err := executeCmd(t, app, "plan", p.PHID, "--gantt")
	require.NoError(t, err)
	assert.Contains(t, out, "Design")
	assert.Contains(t, out, "█")
}

func TestPlanCmd_CachesFetchedPlan(t *testing.T) {
	srv := newFakePlanServer(t)
	p := seedApollo(srv)
	app := testApp(t, srv)

	_, err := executeCmd(t, app, "plan", p.PHID)
	require.NoError(t, err)

	cached, err := app.Snapshots.Get(context.Background(), p.PHID)
	require.NoError(t, err)
	assert.Equal(t, []string{"T1", "T2", "T3"}, testutil.TaskIDs(cached.Snapshot.Tasks))
}

func TestPlanCmd_OfflineWithoutCache(t *testing.T) {
	srv := newFakePlanServer(t)
	p := seedApollo(srv)
	app := testApp(t, srv)

	_, err := executeCmd(t, app, "plan", p.PHID, "--offline")
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Contains(t, err.Error(), "pgantt sync")
}

func TestPlanCmd_OfflineReadsCache(t *testing.T) {
	srv := newFakePlanServer(t)
	p := seedApollo(srv)
	app := testApp(t, srv)

	_, err := executeCmd(t, app, "sync")
	require.NoError(t, err)
	before := srv.hits.Load()

	out, err := executeCmd(t, app, "plan", p.PHID, "--offline")
	require.NoError(t, err)
	assert.Contains(t, out, "Design")
	assert.Contains(t, out, "cached")
	assert.Equal(t, before, srv.hits.Load())
}

func TestPlanCmd_WarnsAboutDanglingLinks(t *testing.T) {
	srv := newFakePlanServer(t)
	p := domain.Project{Name: "Apollo", PHID: "PHID-PROJ-apollo"}
	plan := apolloPlan()
	plan.Links = append(plan.Links, testutil.NewTestLink("T1", "T99", domain.LinkFinishToStart))
	srv.addProject(p, plan)
	app := testApp(t, srv)

	out, err := executeCmd(t, app, "plan", p.PHID)
	require.NoError(t, err)
	assert.Contains(t, out, "warning: link "+domain.LinkID("T1", "T99", domain.LinkFinishToStart))
}

func TestPlanCmd_ServerError(t *testing.T) {
	srv := newFakePlanServer(t)
	app := testApp(t, srv)

	_, err := executeCmd(t, app, "plan", "PHID-PROJ-missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrServer)
}

// --- sync ---

func TestSyncCmd_CachesEveryProject(t *testing.T) {
	srv := newFakePlanServer(t)
	apollo := seedApollo(srv)
	gemini := domain.Project{Name: "Gemini", PHID: "PHID-PROJ-gemini"}
	srv.addProject(gemini, testutil.NewTestSnapshot([]domain.Task{testutil.NewTestTask("T10")}))
	app := testApp(t, srv)

	out, err := executeCmd(t, app, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "Apollo")
	assert.Contains(t, out, "Gemini")

	for _, p := range []domain.Project{apollo, gemini} {
		_, err := app.Snapshots.Get(context.Background(), p.PHID)
		assert.NoError(t, err, p.Name)
	}
}

func TestSyncCmd_ReportsFailedProjects(t *testing.T) {
	srv := newFakePlanServer(t)
	apollo := seedApollo(srv)
	srv.mu.Lock()
	srv.projects = append(srv.projects, domain.Project{Name: "Ghost", PHID: "PHID-PROJ-ghost"})
	srv.mu.Unlock()
	app := testApp(t, srv)

	out, err := executeCmd(t, app, "sync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 projects failed to sync")
	assert.Contains(t, out, "Ghost")

	_, err = app.Snapshots.Get(context.Background(), apollo.PHID)
	assert.NoError(t, err, "healthy projects are still cached")
}

func TestSyncCmd_ConfiguredProjectsOnly(t *testing.T) {
	srv := newFakePlanServer(t)
	seedApollo(srv)
	gemini := domain.Project{Name: "Gemini", PHID: "PHID-PROJ-gemini"}
	srv.addProject(gemini, testutil.NewTestSnapshot(nil))
	app := testApp(t, srv)
	app.Config.Projects = []string{"Gemini"}

	_, err := executeCmd(t, app, "sync")
	require.NoError(t, err)

	_, err = app.Snapshots.Get(context.Background(), gemini.PHID)
	assert.NoError(t, err)
	_, err = app.Snapshots.Get(context.Background(), "PHID-PROJ-apollo")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// --- settings ---

func TestSettingsCmd_ShowsDefaults(t *testing.T) {
	srv := newFakePlanServer(t)
	app := testApp(t, srv)

	out, err := executeCmd(t, app, "settings")
	require.NoError(t, err)
	assert.Contains(t, out, "SETTINGS")
	assert.Contains(t, out, string(domain.ZoomDays))
	assert.Zero(t, srv.hits.Load())
}

func TestSettingsCmd_UpdatesAndPersists(t *testing.T) {
	srv := newFakePlanServer(t)
	app := testApp(t, srv)

	_, err := executeCmd(t, app, "settings", "--zoom", "weeks", "--show-closed",
		"--from", "2021-03-01", "--to", "2021-04-01")
	require.NoError(t, err)

	s, err := app.Settings.Get(context.Background(), repository.DefaultProfile)
	require.NoError(t, err)
	assert.Equal(t, domain.ZoomWeeks, s.Zoom)
	assert.True(t, s.ShowTasksClosed)
	require.True(t, s.HasRange())
	assert.Equal(t, "2021-03-01", s.StartDate.Format(domain.DateLayout))
	assert.True(t, s.ShowTasksOutsideTimescale, "untouched flags keep their value")
}

func TestSettingsCmd_Reset(t *testing.T) {
	srv := newFakePlanServer(t)
	app := testApp(t, srv)

	_, err := executeCmd(t, app, "settings", "--zoom", "months")
	require.NoError(t, err)
	_, err = executeCmd(t, app, "settings", "--reset")
	require.NoError(t, err)

	s, err := app.Settings.Get(context.Background(), repository.DefaultProfile)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), s)
}

func TestSettingsCmd_InvalidZoom(t *testing.T) {
	srv := newFakePlanServer(t)
	app := testApp(t, srv)

	_, err := executeCmd(t, app, "settings", "--zoom", "decades")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid zoom")
}

func TestSettingsCmd_InvertedRangeRejected(t *testing.T) {
	srv := newFakePlanServer(t)
	app := testApp(t, srv)

	_, err := executeCmd(t, app, "settings", "--from", "2021-04-01", "--to", "2021-03-01")
	require.Error(t, err)

	_, err = app.Settings.Get(context.Background(), repository.DefaultProfile)
	assert.ErrorIs(t, err, repository.ErrNotFound, "nothing is saved")
}

func TestSettingsCmd_EditNeedsTerminal(t *testing.T) {
	srv := newFakePlanServer(t)
	app := testApp(t, srv)

	_, err := executeCmd(t, app, "settings", "--edit")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}

// --- task ---

func TestTaskCreateCmd(t *testing.T) {
	srv := newFakePlanServer(t)
	p := seedApollo(srv)
	app := testApp(t, srv)

	out, err := executeCmd(t, app, "task", "create", p.PHID,
		"--text", "Launch", "--parent", "T1", "--start", "2021-03-15", "--duration", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Created task T101")
	assert.Contains(t, out, "plan refreshed: 4 tasks, 1 links")

	edits := srv.recorded()
	require.Len(t, edits, 1)
	assert.Equal(t, "POST", edits[0].Method)
	assert.Equal(t, "task", edits[0].Kind)
	assert.Contains(t, edits[0].Body, `"start_date":"2021-03-15"`)

	cached, err := app.Snapshots.Get(context.Background(), p.PHID)
	require.NoError(t, err)
	_, ok := cached.Snapshot.TaskByID("T101")
	assert.True(t, ok, "the refresh after an accepted edit updates the cache")
}

func TestTaskCreateCmd_RequiresText(t *testing.T) {
	srv := newFakePlanServer(t)
	p := seedApollo(srv)
	app := testApp(t, srv)

	_, err := executeCmd(t, app, "task", "create", p.PHID)
	require.Error(t, err)
	assert.Empty(t, srv.recorded())
}

func TestTaskCreateCmd_InvalidProgressNotSubmitted(t *testing.T) {
	srv := newFakePlanServer(t)
	p := seedApollo(srv)
	app := testApp(t, srv)

	_, err := executeCmd(t, app, "task", "create", p.PHID, "--text", "X", "--progress", "2")
	require.Error(t, err)
	assert.ErrorIs(t, err, edit.ErrInvalidEdit)
	assert.Empty(t, srv.recorded())
}

func TestTaskCreateCmd_ServerRejects(t *testing.T) {
	srv := newFakePlanServer(t)
	p := seedApollo(srv)
	srv.failEdits = true
	app := testApp(t, srv)

	out, err := executeCmd(t, app, "task", "create", p.PHID, "--text", "Launch")
	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrServer)
	assert.NotContains(t, out, "Created task")
}

func TestTaskUpdateCmd_KeepsUntouchedFields(t *testing.T) {
	srv := newFakePlanServer(t)
	p := seedApollo(srv)
	app := testApp(t, srv)

	out, err := executeCmd(t, app, "task", "update", p.PHID, "T3", "--start", "2021-03-09")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated task T3")

	plan := srv.plan(p.PHID)
	task, ok := plan.TaskByID("T3")
	require.True(t, ok)
	assert.Equal(t, "2021-03-09", task.StartDate)
	assert.Equal(t, "Build", task.Text)
	assert.Equal(t, "T1", task.Parent)
	assert.Equal(t, 5, task.Duration)
}

func TestTaskUpdateCmd_UnknownTask(t *testing.T) {
	srv := newFakePlanServer(t)
	p := seedApollo(srv)
	app := testApp(t, srv)

	_, err := executeCmd(t, app, "task", "update", p.PHID, "T42", "--text", "X")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task T42 not found")
	assert.Empty(t, srv.recorded())
}

func TestTaskDeleteCmd_NeverContactsServer(t *testing.T) {
	srv := newFakePlanServer(t)
	app := testApp(t, srv)

	_, err := executeCmd(t, app, "task", "delete", "PHID-PROJ-apollo", "T1")
	require.Error(t, err)
	assert.ErrorIs(t, err, edit.ErrTaskDeletionUnsupported)
	assert.Zero(t, srv.hits.Load())
}

// --- link ---

func TestLinkCreateCmd(t *testing.T) {
	srv := newFakePlanServer(t)
	p := seedApollo(srv)
	app := testApp(t, srv)

	out, err := executeCmd(t, app, "link", "create", p.PHID, "--source", "T2", "--target", "T3", "--type", "ss")
	require.NoError(t, err)
	assert.Contains(t, out, "Created link "+domain.LinkID("T2", "T3", domain.LinkStartToStart))
	assert.Len(t, srv.plan(p.PHID).Links, 2)
}

func TestLinkCreateCmd_InvalidType(t *testing.T) {
	srv := newFakePlanServer(t)
	p := seedApollo(srv)
	app := testApp(t, srv)

	_, err := executeCmd(t, app, "link", "create", p.PHID, "--source", "T2", "--target", "T3", "--type", "XX")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid link type")
	assert.Empty(t, srv.recorded())
}

func TestLinkDeleteCmd(t *testing.T) {
	srv := newFakePlanServer(t)
	p := seedApollo(srv)
	app := testApp(t, srv)
	id := domain.LinkID("T1", "T3", domain.LinkFinishToStart)

	out, err := executeCmd(t, app, "link", "delete", p.PHID, id)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted link "+id)
	assert.Empty(t, srv.plan(p.PHID).Links)
}

func TestLinkDeleteCmd_MalformedID(t *testing.T) {
	srv := newFakePlanServer(t)
	p := seedApollo(srv)
	app := testApp(t, srv)

	_, err := executeCmd(t, app, "link", "delete", p.PHID, "not-a-link")
	require.Error(t, err)
	assert.ErrorIs(t, err, edit.ErrInvalidEdit)
	assert.Empty(t, srv.recorded())
}

func TestLinkUpdateCmd_Unsupported(t *testing.T) {
	srv := newFakePlanServer(t)
	app := testApp(t, srv)

	_, err := executeCmd(t, app, "link", "update", "PHID-PROJ-apollo", "T1-T3-FS")
	require.Error(t, err)
	assert.ErrorIs(t, err, edit.ErrLinkUpdateUnsupported)
	assert.Zero(t, srv.hits.Load())
}

// --- watch ---

func TestWatchCmd_PlainFollowsFile(t *testing.T) {
	srv := newFakePlanServer(t)
	app := testApp(t, srv)

	path := filepath.Join(t.TempDir(), "plan.json")
	data, err := json.Marshal(apolloPlan())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	out, err := executeCmdContext(t, ctx, app, "watch", "--plain", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "PLAN.JSON")
	assert.Contains(t, out, "Design")
	assert.Zero(t, srv.hits.Load())
}
