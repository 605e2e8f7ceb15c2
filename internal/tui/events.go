package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/baralga/internal/model"
	"github.com/sadopc/baralga/internal/tracker"
)

const eventBuffer = 64

// Events bridges store notifications and backend callbacks into the
// Bubble Tea loop. Sends never block; a dropped storeChangedMsg is harmless
// because the app re-reads every store when one arrives.
type Events struct {
	ch     chan tea.Msg
	done   chan struct{}
	once   sync.Once
	unsubs []func()
}

func NewEvents() *Events {
	return &Events{
		ch:   make(chan tea.Msg, eventBuffer),
		done: make(chan struct{}),
	}
}

// Unauthorized is meant for api.WithUnauthorizedHandler.
func (e *Events) Unauthorized() {
	e.send(unauthorizedMsg{})
}

func (e *Events) send(msg tea.Msg) {
	select {
	case e.ch <- msg:
	default:
	}
}

func (e *Events) watch(tr *tracker.Tracker) {
	changed := func() { e.send(storeChangedMsg{}) }
	e.unsubs = append(e.unsubs,
		tr.Projects.Subscribe(func([]model.Project) { changed() }),
		tr.Activities.Subscribe(func([]model.Activity) { changed() }),
		tr.Filtered.Subscribe(func([]model.Activity) { changed() }),
		tr.Filter.Subscribe(func(model.Filter) { changed() }),
	)
}

// Close drops all store subscriptions and releases pending waits. It is
// safe to call more than once.
func (e *Events) Close() {
	e.once.Do(func() {
		for _, unsub := range e.unsubs {
			unsub()
		}
		e.unsubs = nil
		close(e.done)
	})
}

// wait yields the next event, or nil once Events is closed.
func (e *Events) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-e.ch:
			return msg
		case <-e.done:
			return nil
		}
	}
}
