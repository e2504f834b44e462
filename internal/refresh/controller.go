package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/daedaleanai/pgantt/internal/domain"
	"github.com/daedaleanai/pgantt/internal/metrics"
	"github.com/daedaleanai/pgantt/internal/observe"
	"github.com/daedaleanai/pgantt/internal/ordering"
	"github.com/daedaleanai/pgantt/internal/reconcile"
	"github.com/daedaleanai/pgantt/internal/repository"
	"github.com/daedaleanai/pgantt/internal/store"
)

// DefaultPollInterval matches the planning server's own sync cadence.
const DefaultPollInterval = 10 * time.Second

// State is the controller's position in its refresh cycle.
type State int32

const (
	Idle State = iota
	Fetching
	Applying
)

func (s State) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case Applying:
		return "applying"
	default:
		return "idle"
	}
}

// Result describes one completed refresh cycle.
type Result struct {
	FetchID   string
	ProjectID string
	Applied   bool
	Stale     bool
	Version   uint64
	Diff      reconcile.Diff
}

// Options configures a Controller. Zero values fall back to defaults.
type Options struct {
	PollInterval time.Duration
	Observer     observe.Observer
	Metrics      *metrics.Metrics
	Cache        Cache
}

// Controller keeps the Store eventually consistent with the Source. It is
// the only writer of the Store.
type Controller struct {
	store    *store.Store
	source   Source
	renderer Renderer
	notifier Notifier

	interval time.Duration
	observer observe.Observer
	metrics  *metrics.Metrics
	cache    Cache

	state  atomic.Int32
	flight singleflight.Group

	// applyMu serializes the Applying phase across projects.
	applyMu sync.Mutex

	seqMu   sync.Mutex
	issued  map[string]uint64
	applied map[string]uint64
}

// New creates a Controller.
func New(st *store.Store, src Source, r Renderer, n Notifier, opts Options) *Controller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if r == nil {
		r = RendererFunc(func(context.Context, Update) {})
	}
	if n == nil {
		n = NotifierFunc(func(context.Context, Notification) {})
	}
	return &Controller{
		store:    st,
		source:   src,
		renderer: r,
		notifier: n,
		interval: opts.PollInterval,
		observer: observe.OrNoop(opts.Observer),
		metrics:  opts.Metrics,
		cache:    opts.Cache,
		issued:   make(map[string]uint64),
		applied:  make(map[string]uint64),
	}
}

// State returns the current cycle state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Store returns the store the controller writes to.
func (c *Controller) Store() *store.Store {
	return c.store
}

// Run refreshes the selected project immediately and then on every tick
// until ctx is cancelled. Failures are reported through the Notifier; the
// next tick is the retry.
func (c *Controller) Run(ctx context.Context) error {
	c.RefreshSelected(ctx)
	return c.poll(ctx)
}

// Watch selects projectID, rendering its cached snapshot first, and then
// keeps it fresh until ctx is cancelled.
func (c *Controller) Watch(ctx context.Context, projectID string) error {
	c.Select(ctx, projectID)
	return c.poll(ctx)
}

func (c *Controller) poll(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.RefreshSelected(ctx)
		}
	}
}

// RefreshSelected requests a refresh of the selected project, if any.
func (c *Controller) RefreshSelected(ctx context.Context) (Result, error) {
	projectID := c.store.Selected()
	if projectID == "" {
		return Result{}, nil
	}
	return c.Request(ctx, projectID)
}

// Select switches the selected project. A cached snapshot of the new project
// is rendered right away, then a refresh is requested.
func (c *Controller) Select(ctx context.Context, projectID string) (Result, error) {
	if c.store.Select(projectID) {
		c.restoreCached(ctx, projectID)
	}
	return c.Request(ctx, projectID)
}

// Request runs one refresh cycle for projectID. Concurrent requests for the
// same project share a single fetch and a single apply.
func (c *Controller) Request(ctx context.Context, projectID string) (Result, error) {
	seq := c.issue(projectID)
	v, err, _ := c.flight.Do(projectID, func() (any, error) {
		return c.cycle(ctx, projectID, seq)
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

// Rollback re-renders the last known-good snapshot, discarding whatever the
// renderer shows after a rejected edit.
func (c *Controller) Rollback(ctx context.Context) {
	cur := c.store.Current()
	c.renderer.Render(ctx, Update{
		ProjectID: cur.ProjectID,
		Snapshot:  cur.Snapshot,
		Version:   cur.Version,
		Rollback:  true,
	})
}

func (c *Controller) cycle(ctx context.Context, projectID string, seq uint64) (res Result, err error) {
	start := time.Now()
	res = Result{FetchID: uuid.NewString(), ProjectID: projectID}
	outcome := metrics.OutcomeUnchanged

	defer func() {
		c.state.Store(int32(Idle))
		if err != nil {
			outcome = metrics.OutcomeFailed
		}
		c.metrics.RecordRefresh(outcome, time.Since(start))
		c.observer.Observe(ctx, observe.Event{
			Name:      "refresh_cycle",
			Duration:  time.Since(start),
			Success:   err == nil,
			Err:       err,
			StartedAt: start,
			Fields: map[string]any{
				"fetch_id": res.FetchID,
				"project":  projectID,
				"outcome":  outcome,
				"version":  res.Version,
			},
		})
	}()

	c.state.Store(int32(Fetching))
	candidate, err := c.source.Fetch(ctx, projectID)
	if err != nil {
		err = fmt.Errorf("refreshing %s: %w", projectID, err)
		c.notifier.Notify(ctx, Notification{
			Level:     LevelError,
			ProjectID: projectID,
			Message:   "Unable to fetch the plan",
			Err:       err,
		})
		return res, err
	}

	c.state.Store(int32(Applying))
	ordered := ordering.Order(candidate)

	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	if c.store.Selected() != projectID || !c.accept(projectID, seq) {
		res.Stale = true
		outcome = metrics.OutcomeStale
		return res, nil
	}

	cur := c.store.Current()
	previous := cur.Snapshot
	if cur.ProjectID != projectID {
		previous = domain.Snapshot{}
	}
	res.Diff = reconcile.Compare(previous, ordered)
	res.Version = cur.Version
	// The first fetch after a switch is rendered even when the plan is empty,
	// otherwise the view keeps showing the previous project.
	firstFetch := cur.Pending || cur.ProjectID != projectID
	if !res.Diff.ShouldApply && !firstFetch {
		return res, nil
	}

	res.Version = c.store.Replace(projectID, ordered)
	res.Applied = true
	outcome = metrics.OutcomeApplied

	reasons := make([]string, len(res.Diff.Reasons))
	for i, r := range res.Diff.Reasons {
		reasons[i] = string(r)
	}
	c.metrics.RecordApply(projectID, len(ordered.Tasks), reasons)

	c.renderer.Render(ctx, Update{
		ProjectID:      projectID,
		Snapshot:       ordered,
		Version:        res.Version,
		RemovedTaskIDs: res.Diff.RemovedTaskIDs,
		RemovedLinkIDs: res.Diff.RemovedLinkIDs,
	})

	if c.cache != nil {
		if cerr := c.cache.SaveSnapshot(ctx, projectID, ordered); cerr != nil {
			c.notifier.Notify(ctx, Notification{
				Level:     LevelWarning,
				ProjectID: projectID,
				Message:   "Unable to cache the plan",
				Err:       cerr,
			})
		}
	}
	return res, nil
}

func (c *Controller) restoreCached(ctx context.Context, projectID string) {
	if c.cache == nil {
		return
	}
	snap, err := c.cache.LoadSnapshot(ctx, projectID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			c.notifier.Notify(ctx, Notification{
				Level:     LevelWarning,
				ProjectID: projectID,
				Message:   "Unable to read the cached plan",
				Err:       err,
			})
		}
		return
	}

	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	if c.store.Selected() != projectID {
		return
	}
	ordered := ordering.Order(snap)
	version := c.store.Replace(projectID, ordered)
	c.renderer.Render(ctx, Update{
		ProjectID: projectID,
		Snapshot:  ordered,
		Version:   version,
		Cached:    true,
	})
}

// issue hands out the next request sequence number for projectID.
func (c *Controller) issue(projectID string) uint64 {
	c.seqMu.Lock()
	defer c.seqMu.Unlock()
	c.issued[projectID]++
	return c.issued[projectID]
}

// accept reports whether a response for request seq may be applied, i.e. no
// later request for the project has already been applied.
func (c *Controller) accept(projectID string, seq uint64) bool {
	c.seqMu.Lock()
	defer c.seqMu.Unlock()
	if seq < c.applied[projectID] {
		return false
	}
	c.applied[projectID] = seq
	return true
}
