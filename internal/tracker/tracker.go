// Package tracker implements the client operations on projects, activities
// and the active filter. Every operation talks to the backend first and only
// updates the stores after a successful response.
package tracker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sadopc/baralga/internal/api"
	"github.com/sadopc/baralga/internal/model"
	"github.com/sadopc/baralga/internal/state"
)

// API is the subset of the backend client used by the tracker.
type API interface {
	ListProjects(ctx context.Context) ([]api.ProjectModel, error)
	CreateProject(ctx context.Context, p api.ProjectModel) (*api.ProjectModel, error)
	GetProject(ctx context.Context, id string) (*api.ProjectModel, error)
	DeleteProject(ctx context.Context, id string) error
	ListActivities(ctx context.Context, start, end time.Time) (*api.ActivitiesModel, error)
	CreateActivity(ctx context.Context, a api.ActivityModel) (*api.ActivityModel, error)
	UpdateActivity(ctx context.Context, a api.ActivityModel) (*api.ActivityModel, error)
	GetActivity(ctx context.Context, id string) (*api.ActivityModel, error)
	DeleteActivity(ctx context.Context, id string) error
}

// Stores are the observable values owned by a Tracker.
type Stores struct {
	Projects   *state.Store[[]model.Project]
	Activities *state.Store[[]model.Activity]
	Filtered   *state.Store[[]model.Activity]
	Filter     *state.Store[model.Filter]
}

func NewStores(f model.Filter) Stores {
	return Stores{
		Projects:   state.New([]model.Project{}),
		Activities: state.New([]model.Activity{}),
		Filtered:   state.New([]model.Activity{}),
		Filter:     state.New(f),
	}
}

type Tracker struct {
	api API
	log zerolog.Logger

	Stores
	// Total is the summed duration of the filtered activities.
	Total *state.Store[time.Duration]

	// generation of the latest ApplyFilter call; older responses are dropped.
	generation atomic.Uint64
	applyMu    sync.Mutex
}

func New(client API, stores Stores, log zerolog.Logger) *Tracker {
	return &Tracker{
		api:    client,
		log:    log,
		Stores: stores,
		Total:  state.Derive(stores.Filtered, SumDurations),
	}
}

// Init refreshes projects and the current filter concurrently.
func (t *Tracker) Init(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return t.ReloadProjects(ctx)
	})
	g.Go(func() error {
		return t.ApplyFilter(ctx, t.Filter.Get())
	})
	return g.Wait()
}

func (t *Tracker) ReloadProjects(ctx context.Context) error {
	models, err := t.api.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("reload projects: %w", err)
	}

	projects := make([]model.Project, 0, len(models))
	for _, m := range models {
		projects = append(projects, projectFromModel(m))
	}
	t.Projects.Set(projects)
	t.log.Debug().Int("count", len(projects)).Msg("projects reloaded")
	return nil
}

func (t *Tracker) AddProject(ctx context.Context, p model.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, err := t.api.CreateProject(ctx, projectToModel(p)); err != nil {
		return fmt.Errorf("add project: %w", err)
	}
	return t.ReloadProjects(ctx)
}

// DeleteProject removes p on the backend. It does not check for depending
// activities; see DeleteProjectValidate.
func (t *Tracker) DeleteProject(ctx context.Context, p model.Project) error {
	if err := t.api.DeleteProject(ctx, p.ID); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return t.ReloadProjects(ctx)
}

// DeleteProjectValidate lists the activities in the activities store that
// reference p. It never blocks a delete.
func (t *Tracker) DeleteProjectValidate(p model.Project) model.DeleteValidation {
	var depending []model.Activity
	for _, a := range t.Activities.Get() {
		if a.Project != nil && a.Project.ID == p.ID {
			depending = append(depending, a)
		}
	}
	return model.DeleteValidation{
		Project:                  p,
		DependingActivities:      depending,
		DependingActivitiesCount: len(depending),
	}
}

func (t *Tracker) GetProject(ctx context.Context, id string) (*model.Project, error) {
	m, err := t.api.GetProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	p := projectFromModel(*m)
	return &p, nil
}

func (t *Tracker) GetActivity(ctx context.Context, id string) (*model.Activity, error) {
	m, err := t.api.GetActivity(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	a, err := activityFromModel(*m, t.Projects.Get())
	if err != nil {
		return nil, err
	}
	if a.Project == nil && m.ProjectID() != "" {
		a.Project = &model.Project{ID: m.ProjectID()}
	}
	return &a, nil
}

// AddActivity creates a and refreshes the filtered activities.
func (t *Tracker) AddActivity(ctx context.Context, a model.Activity) error {
	if err := a.Validate(); err != nil {
		return err
	}
	body := activityToModel(a)
	body.ID = ""
	if _, err := t.api.CreateActivity(ctx, body); err != nil {
		return fmt.Errorf("add activity: %w", err)
	}
	return t.ApplyFilter(ctx, t.Filter.Get())
}

func (t *Tracker) UpdateActivity(ctx context.Context, a model.Activity) error {
	if a.ID == "" {
		return fmt.Errorf("%w: id is required", model.ErrInvalidActivity)
	}
	if err := a.Validate(); err != nil {
		return err
	}
	if _, err := t.api.UpdateActivity(ctx, activityToModel(a)); err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	return t.ApplyFilter(ctx, t.Filter.Get())
}

func (t *Tracker) DeleteActivity(ctx context.Context, a model.Activity) error {
	if err := t.api.DeleteActivity(ctx, a.ID); err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return t.ApplyFilter(ctx, t.Filter.Get())
}

// ApplyFilter loads the activities within f and makes f the current filter.
// The filtered activities are set before the filter. Nothing changes when
// the request fails. If another ApplyFilter was issued after this one, its
// response is discarded and nil is returned.
func (t *Tracker) ApplyFilter(ctx context.Context, f model.Filter) error {
	if err := f.Validate(); err != nil {
		return err
	}

	gen := t.generation.Add(1)

	resp, err := t.api.ListActivities(ctx, f.From, f.To)
	if err != nil {
		return fmt.Errorf("apply filter: %w", err)
	}
	activities, err := activitiesFromModel(resp)
	if err != nil {
		return fmt.Errorf("apply filter: %w", err)
	}

	t.applyMu.Lock()
	defer t.applyMu.Unlock()

	if latest := t.generation.Load(); gen != latest {
		t.log.Debug().Uint64("generation", gen).Uint64("latest", latest).Msg("discard stale filter response")
		return nil
	}

	t.Filtered.Set(activities)
	t.Filter.Set(f)
	return nil
}

// ImportBackup replaces the local projects and activities. Nothing is sent
// to the backend.
func (t *Tracker) ImportBackup(b model.Backup) {
	projects := b.Projects
	if projects == nil {
		projects = []model.Project{}
	}
	activities := b.Activities
	if activities == nil {
		activities = []model.Activity{}
	}
	t.Projects.Set(projects)
	t.Activities.Set(activities)
}

// Backup snapshots the data written to an XML backup. Without locally
// imported activities the filtered activities are used.
func (t *Tracker) Backup() model.Backup {
	activities := t.Activities.Get()
	if len(activities) == 0 {
		activities = t.Filtered.Get()
	}
	return model.Backup{Projects: t.Projects.Get(), Activities: activities}
}

// TotalDuration sums the filtered activities.
func (t *Tracker) TotalDuration() time.Duration {
	return SumDurations(t.Filtered.Get())
}

func SumDurations(activities []model.Activity) time.Duration {
	var total time.Duration
	for _, a := range activities {
		total += a.Duration()
	}
	return total
}
