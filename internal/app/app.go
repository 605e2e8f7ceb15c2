// Package app wires configuration, persistence, the backend client and the
// tracker into a runnable client.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/sadopc/baralga/internal/api"
	"github.com/sadopc/baralga/internal/config"
	"github.com/sadopc/baralga/internal/export"
	"github.com/sadopc/baralga/internal/logging"
	"github.com/sadopc/baralga/internal/model"
	"github.com/sadopc/baralga/internal/state"
	"github.com/sadopc/baralga/internal/store"
	"github.com/sadopc/baralga/internal/tracker"
	"github.com/sadopc/baralga/internal/tui"
)

// Option is a functional option for configuring the client.
type Option func(*application)

type application struct {
	config  *config.Config
	apiOpts []api.Option
	now     func() time.Time
}

// WithConfig sets the client configuration.
func WithConfig(cfg *config.Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithAPIOptions appends options to the backend client, e.g. a test
// transport.
func WithAPIOptions(opts ...api.Option) Option {
	return func(a *application) {
		a.apiOpts = append(a.apiOpts, opts...)
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *application) {
		a.now = now
	}
}

// Env is an opened client. Close releases the database and log file.
type Env struct {
	Config  *config.Config
	Log     zerolog.Logger
	Store   *store.Store
	Tracker *tracker.Tracker
	Events  *tui.Events

	now       func() time.Time
	logCloser io.Closer
}

// Open builds the client. Persisted state is restored before it returns;
// nothing is requested from the backend yet.
func Open(opts ...Option) (*Env, error) {
	a := &application{now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	if a.config == nil {
		return nil, errors.New("config is required")
	}
	cfg := a.config

	log, logCloser, err := logging.New(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info().
		Str("base_url", cfg.API.BaseURL).
		Str("db_path", cfg.Storage.Path).
		Str("timespan", string(cfg.Filter.Timespan)).
		Msg("configuration loaded")

	db, err := store.New(cfg.Storage.Path)
	if err != nil {
		logCloser.Close()
		return nil, fmt.Errorf("open state database: %w", err)
	}

	env := &Env{
		Config:    cfg,
		Log:       log,
		Store:     db,
		Events:    tui.NewEvents(),
		now:       a.now,
		logCloser: logCloser,
	}

	stores := tracker.NewStores(model.NewFilter(cfg.Filter.Timespan, a.now()))
	if err := restore(stores, db, logging.Component(log, logging.ComponentState)); err != nil {
		env.Close()
		return nil, err
	}

	clientOpts := append([]api.Option{
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(logging.Component(log, logging.ComponentAPI)),
		api.WithUnauthorizedHandler(env.Events.Unauthorized),
	}, a.apiOpts...)
	client, err := api.New(cfg.API.BaseURL, clientOpts...)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("init api client: %w", err)
	}

	env.Tracker = tracker.New(client, stores, logging.Component(log, logging.ComponentTracker))
	return env, nil
}

// restore loads every store from the database and keeps writing changes
// back.
func restore(s tracker.Stores, kv state.KV, log zerolog.Logger) error {
	initialFilter := s.Filter.Get()

	projects, err := state.Persist(s.Projects, kv, store.KeyProjects,
		state.WithInitializer(state.EachElement(model.EnsureProjectID)),
		state.WithLogger[[]model.Project](log))
	if err != nil {
		return fmt.Errorf("restore projects: %w", err)
	}
	activities, err := state.Persist(s.Activities, kv, store.KeyActivities,
		state.WithInitializer(state.EachElement(model.EnsureActivityID)),
		state.WithLogger[[]model.Activity](log))
	if err != nil {
		return fmt.Errorf("restore activities: %w", err)
	}
	filtered, err := state.Persist(s.Filtered, kv, store.KeyFilteredActivities,
		state.WithInitializer(state.EachElement(model.EnsureActivityID)),
		state.WithLogger[[]model.Activity](log))
	if err != nil {
		return fmt.Errorf("restore filtered activities: %w", err)
	}
	filter, err := state.Persist(s.Filter, kv, store.KeyFilter,
		state.WithLogger[model.Filter](log))
	if err != nil {
		return fmt.Errorf("restore filter: %w", err)
	}

	for _, p := range []interface {
		Key() string
		UseStorage() error
	}{projects, activities, filtered, filter} {
		if err := p.UseStorage(); err != nil {
			return fmt.Errorf("restore %s: %w", p.Key(), err)
		}
	}

	if err := s.Filter.Get().Validate(); err != nil {
		log.Warn().Err(err).Msg("discard invalid stored filter")
		s.Filter.Set(initialFilter)
	}
	return nil
}

func (e *Env) Close() error {
	e.Events.Close()
	var errs []error
	if e.Store != nil {
		errs = append(errs, e.Store.Close())
	}
	if e.logCloser != nil {
		errs = append(errs, e.logCloser.Close())
	}
	return errors.Join(errs...)
}

// RunTUI runs the terminal UI until the user quits or ctx is done.
func (e *Env) RunTUI(ctx context.Context) error {
	ui := tui.NewApp(e.Tracker, e.Events, tui.Options{
		Ctx:        ctx,
		ExportDir:  e.Config.Export.Dir,
		BackupFile: e.Config.Export.BackupFile,
		Log:        logging.Component(e.Log, logging.ComponentTUI),
		Now:        e.now,
	})

	p := tea.NewProgram(ui, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

// refreshFiltered reloads the current filter. When the backend cannot be
// reached the stored activities are used.
func (e *Env) refreshFiltered(ctx context.Context) {
	if err := e.Tracker.Init(ctx); err != nil {
		e.Log.Warn().Err(err).Msg("backend unavailable, exporting stored activities")
	}
}

// BackupPath resolves the configured backup file against the export dir.
func (e *Env) BackupPath() string {
	if filepath.IsAbs(e.Config.Export.BackupFile) {
		return e.Config.Export.BackupFile
	}
	return filepath.Join(e.Config.Export.Dir, e.Config.Export.BackupFile)
}

// ExportCSV writes the activities of the current filter to out.
func (e *Env) ExportCSV(ctx context.Context, out string) error {
	e.refreshFiltered(ctx)
	return export.ToCSVFile(e.Tracker.Filtered.Get(), out)
}

func (e *Env) ExportJSON(ctx context.Context, out string) error {
	e.refreshFiltered(ctx)
	return export.ToJSON(e.Tracker.Filtered.Get(), out)
}

// ExportXML writes a backup of the projects and activities to out.
func (e *Env) ExportXML(ctx context.Context, out string) error {
	e.refreshFiltered(ctx)
	b := e.Tracker.Backup()
	return export.ToXMLFile(b.Activities, b.Projects, out)
}

// Import reads a backup file into the local stores.
func (e *Env) Import(path string) (model.Backup, error) {
	res := export.ReadXMLFile(path)
	if res.Status != export.StatusOK {
		return model.Backup{}, res.Err
	}
	b := res.Backup()
	e.Tracker.ImportBackup(b)
	e.Log.Info().Str("path", path).
		Int("projects", len(b.Projects)).
		Int("activities", len(b.Activities)).
		Msg("backup imported")
	return b, nil
}

// StateKeys are the database keys holding client state.
var StateKeys = []string{store.KeyProjects, store.KeyActivities, store.KeyFilteredActivities, store.KeyFilter}

// ClearState deletes every stored key. The in-memory stores are untouched.
func (e *Env) ClearState() error {
	for _, key := range StateKeys {
		if err := e.Store.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
