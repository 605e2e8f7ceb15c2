package tui

import (
	"time"

	"github.com/sadopc/baralga/internal/model"
)

// timerModel tracks a running activity until it is stopped. Nothing is
// sent to the backend while the timer runs.
type timerModel struct {
	running     bool
	startTime   time.Time
	project     model.Project
	description string
}

func (t *timerModel) start(p model.Project, now time.Time) {
	t.running = true
	t.startTime = now.Truncate(time.Minute)
	t.project = p
	t.description = ""
}

// stop ends the timer and returns the tracked activity. The end is rounded
// up to the next full minute so a short activity is never empty.
func (t *timerModel) stop(now time.Time) (model.Activity, bool) {
	if !t.running {
		return model.Activity{}, false
	}
	t.running = false

	end := now.Truncate(time.Minute)
	if !end.After(t.startTime) {
		end = t.startTime.Add(time.Minute)
	}
	p := t.project
	return model.Activity{
		Description: t.description,
		StartTime:   t.startTime,
		EndTime:     end,
		Project:     &p,
	}, true
}

func (t timerModel) elapsed(now time.Time) time.Duration {
	if !t.running {
		return 0
	}
	return now.Sub(t.startTime)
}
