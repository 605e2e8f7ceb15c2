package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/baralga/internal/format"
	"github.com/sadopc/baralga/internal/model"
	"github.com/sadopc/baralga/internal/tracker"
)

const (
	formDateLayout  = "02.01.2006"
	formClockLayout = "15:04"
)

const (
	formNewActivity    = "new"
	formEditActivity   = "edit"
	formDeleteActivity = "delete"
)

// activityFields holds the form values behind pointers so they survive
// copies of the model.
type activityFields struct {
	project     string
	date        string
	start       string
	end         string
	description string
	confirm     bool
}

type activitiesModel struct {
	tr     *tracker.Tracker
	ctx    context.Context
	now    func() time.Time
	width  int
	height int

	timer      timerModel
	filter     model.Filter
	activities []model.Activity
	projects   []model.Project
	total      time.Duration
	cursor     int

	// Project picker state
	picking      bool
	pickerCursor int

	formActive bool
	form       *huh.Form
	formType   string
	fields     *activityFields
	editing    model.Activity
}

func newActivitiesModel(ctx context.Context, tr *tracker.Tracker, now func() time.Time) activitiesModel {
	m := activitiesModel{
		tr:     tr,
		ctx:    ctx,
		now:    now,
		fields: &activityFields{},
	}
	m.sync()
	return m
}

func (m *activitiesModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

// sync re-reads the tracker stores.
func (m *activitiesModel) sync() {
	m.filter = m.tr.Filter.Get()
	m.activities = m.tr.Filtered.Get()
	m.projects = m.tr.Projects.Get()
	m.total = m.tr.Total.Get()
	if m.cursor >= len(m.activities) {
		m.cursor = max(0, len(m.activities)-1)
	}
}

func (m activitiesModel) selected() (model.Activity, bool) {
	if m.cursor < 0 || m.cursor >= len(m.activities) {
		return model.Activity{}, false
	}
	return m.activities[m.cursor], true
}

// --- Commands ---

func (m activitiesModel) applyFilter(f model.Filter) tea.Cmd {
	tr, ctx := m.tr, m.ctx
	return func() tea.Msg {
		if err := tr.ApplyFilter(ctx, f); err != nil {
			return errStatus("Filter failed", err)
		}
		return statusMsg{text: format.FilterLabel(f)}
	}
}

func (m activitiesModel) refresh() tea.Cmd {
	tr, ctx := m.tr, m.ctx
	return func() tea.Msg {
		if err := tr.Init(ctx); err != nil {
			return errStatus("Refresh failed", err)
		}
		return statusMsg{text: "Refreshed"}
	}
}

func (m activitiesModel) addActivity(a model.Activity) tea.Cmd {
	tr, ctx := m.tr, m.ctx
	return func() tea.Msg {
		if err := tr.AddActivity(ctx, a); err != nil {
			return errStatus("Add failed", err)
		}
		return statusMsg{text: "Activity added"}
	}
}

func (m activitiesModel) updateActivity(a model.Activity) tea.Cmd {
	tr, ctx := m.tr, m.ctx
	return func() tea.Msg {
		if err := tr.UpdateActivity(ctx, a); err != nil {
			return errStatus("Update failed", err)
		}
		return statusMsg{text: "Activity updated"}
	}
}

func (m activitiesModel) deleteActivity(a model.Activity) tea.Cmd {
	tr, ctx := m.tr, m.ctx
	return func() tea.Msg {
		if err := tr.DeleteActivity(ctx, a); err != nil {
			return errStatus("Delete failed", err)
		}
		return statusMsg{text: "Activity deleted"}
	}
}

// --- Update ---

func (m activitiesModel) update(msg tea.Msg) (activitiesModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.picking {
		return m.updatePicker(km)
	}

	switch {
	case key.Matches(km, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(km, keys.Down):
		if m.cursor < len(m.activities)-1 {
			m.cursor++
		}
	case key.Matches(km, keys.Left):
		return m, m.applyFilter(m.filter.Previous())
	case key.Matches(km, keys.Right):
		return m, m.applyFilter(m.filter.Next())
	case key.Matches(km, keys.Home):
		return m, m.applyFilter(m.filter.Home(m.now()))
	case key.Matches(km, keys.Timespan):
		return m, m.applyFilter(m.filter.WithTimespan(m.filter.NextTimespan()))
	case key.Matches(km, keys.Refresh):
		return m, m.refresh()
	case key.Matches(km, keys.Start):
		return m.beginTimer()
	case key.Matches(km, keys.Stop):
		return m.stopTimer()
	case key.Matches(km, keys.New):
		return m.showActivityForm(formNewActivity, m.blankActivity())
	case key.Matches(km, keys.Edit):
		if a, ok := m.selected(); ok {
			return m.showActivityForm(formEditActivity, a)
		}
	case key.Matches(km, keys.Delete):
		if a, ok := m.selected(); ok {
			return m.showDeleteForm(a)
		}
	}
	return m, nil
}

func (m activitiesModel) beginTimer() (activitiesModel, tea.Cmd) {
	if m.timer.running {
		return m, nil
	}
	if len(m.projects) == 0 {
		return m, func() tea.Msg {
			return statusMsg{text: "No projects yet. Press 2 to go to Projects and create one.", isError: true}
		}
	}
	if len(m.projects) == 1 {
		return m.startTimer(m.projects[0])
	}
	m.picking = true
	m.pickerCursor = 0
	return m, nil
}

func (m activitiesModel) updatePicker(msg tea.KeyMsg) (activitiesModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.pickerCursor > 0 {
			m.pickerCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.pickerCursor < len(m.projects)-1 {
			m.pickerCursor++
		}
	case key.Matches(msg, keys.Enter):
		m.picking = false
		if m.pickerCursor < len(m.projects) {
			return m.startTimer(m.projects[m.pickerCursor])
		}
	case key.Matches(msg, keys.Back):
		m.picking = false
	}
	return m, nil
}

func (m activitiesModel) startTimer(p model.Project) (activitiesModel, tea.Cmd) {
	m.timer.start(p, m.now())
	return m, func() tea.Msg { return timerStartedMsg{} }
}

func (m activitiesModel) stopTimer() (activitiesModel, tea.Cmd) {
	a, ok := m.timer.stop(m.now())
	if !ok {
		return m, nil
	}
	return m, m.addActivity(a)
}

// --- Forms ---

func (m activitiesModel) blankActivity() model.Activity {
	now := m.now().Truncate(time.Minute)
	a := model.Activity{StartTime: now.Add(-time.Hour), EndTime: now}
	if len(m.projects) > 0 {
		p := m.projects[0]
		a.Project = &p
	}
	return a
}

func (m activitiesModel) showActivityForm(formType string, a model.Activity) (activitiesModel, tea.Cmd) {
	if len(m.projects) == 0 {
		return m, func() tea.Msg {
			return statusMsg{text: "No projects yet. Press 2 to go to Projects and create one.", isError: true}
		}
	}

	*m.fields = activityFields{
		project:     a.ProjectID(),
		date:        a.StartTime.Format(formDateLayout),
		start:       a.StartTime.Format(formClockLayout),
		end:         a.EndTime.Format(formClockLayout),
		description: a.Description,
	}
	m.formType = formType
	m.editing = a

	options := make([]huh.Option[string], len(m.projects))
	for i, p := range m.projects {
		options[i] = huh.NewOption(p.Name, p.ID)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Project").Options(options...).Value(&m.fields.project),
			huh.NewInput().Title("Date").Placeholder("DD.MM.YYYY").Value(&m.fields.date).Validate(validateDate),
			huh.NewInput().Title("Start").Placeholder("HH:mm").Value(&m.fields.start).Validate(validateClock),
			huh.NewInput().Title("End").Placeholder("HH:mm").Value(&m.fields.end).Validate(validateClock),
			huh.NewText().Title("Description").CharLimit(500).Value(&m.fields.description),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m activitiesModel) showDeleteForm(a model.Activity) (activitiesModel, tea.Cmd) {
	*m.fields = activityFields{}
	m.formType = formDeleteActivity
	m.editing = a

	title := fmt.Sprintf("Delete activity %s %s-%s?",
		a.StartTime.Format(formDateLayout), a.StartTime.Format(formClockLayout), a.EndTime.Format(formClockLayout))

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().Title(title).Affirmative("Delete").Negative("Cancel").Value(&m.fields.confirm),
		),
	).WithShowHelp(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m activitiesModel) updateForm(msg tea.Msg) (activitiesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		m.formActive = false
		m.form = nil
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}
	m.formActive = false

	if m.formType == formDeleteActivity {
		if m.fields.confirm {
			return m, m.deleteActivity(m.editing)
		}
		return m, nil
	}

	a, err := parseActivityForm(*m.fields, m.projects, m.filter.From.Location())
	if err != nil {
		return m, func() tea.Msg { return errStatus("Invalid activity", err) }
	}
	if m.formType == formEditActivity {
		a.ID = m.editing.ID
		return m, m.updateActivity(a)
	}
	return m, m.addActivity(a)
}

func validateDate(s string) error {
	if _, err := time.Parse(formDateLayout, strings.TrimSpace(s)); err != nil {
		return errors.New("use DD.MM.YYYY")
	}
	return nil
}

func validateClock(s string) error {
	if _, err := time.Parse(formClockLayout, format.CompleteTime(strings.TrimSpace(s))); err != nil {
		return errors.New("use HH:mm")
	}
	return nil
}

// parseActivityForm builds an activity from the form values. Start and end
// accept the shorthand understood by format.CompleteTime.
func parseActivityForm(f activityFields, projects []model.Project, loc *time.Location) (model.Activity, error) {
	if loc == nil {
		loc = time.Local
	}

	day, err := time.ParseInLocation(formDateLayout, strings.TrimSpace(f.date), loc)
	if err != nil {
		return model.Activity{}, fmt.Errorf("date %q: use DD.MM.YYYY", f.date)
	}
	start, err := parseClock(day, f.start)
	if err != nil {
		return model.Activity{}, err
	}
	end, err := parseClock(day, f.end)
	if err != nil {
		return model.Activity{}, err
	}
	if end.Before(start) {
		return model.Activity{}, errors.New("end must not be before start")
	}

	var project *model.Project
	for i := range projects {
		if projects[i].ID == f.project {
			p := projects[i]
			project = &p
			break
		}
	}
	if project == nil {
		return model.Activity{}, fmt.Errorf("unknown project %q", f.project)
	}

	return model.Activity{
		Description: strings.TrimSpace(f.description),
		StartTime:   start,
		EndTime:     end,
		Project:     project,
	}, nil
}

func parseClock(day time.Time, value string) (time.Time, error) {
	completed := format.CompleteTime(strings.TrimSpace(value))
	clock, err := time.Parse(formClockLayout, completed)
	if err != nil {
		return time.Time{}, fmt.Errorf("time %q: use HH:mm", value)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, day.Location()), nil
}

// --- View ---

func (m activitiesModel) view() string {
	if m.width < 20 {
		return "Terminal too small"
	}
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := "New Activity"
		switch m.formType {
		case formEditActivity:
			title = "Edit Activity"
		case formDeleteActivity:
			title = "Delete Activity"
		}
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", m.form.View())
		return panelStyle.Width(w).Render(content)
	}

	bottom := m.renderActivityList(w)
	if m.picking {
		bottom = m.renderProjectPicker(w)
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderTimerPanel(w), bottom)
}

func (m activitiesModel) renderTimerPanel(w int) string {
	if m.timer.running {
		content := lipgloss.JoinVertical(lipgloss.Center,
			timerRunningStyle.Width(w-6).Render(formatElapsed(m.timer.elapsed(m.now()))),
			successStyle.Render("●  RUNNING since "+m.timer.startTime.Format(formClockLayout)),
			highlightStyle.Render(m.timer.project.Name),
		)
		return activePanelStyle.Width(w).Render(content)
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		timerStyle.Width(w-6).Render("00:00:00"),
		mutedStyle.Render("■  STOPPED"),
		mutedStyle.Render("Press s to start tracking"),
	)
	return panelStyle.Width(w).Render(content)
}

func (m activitiesModel) renderActivityList(w int) string {
	header := fmt.Sprintf("%s  %s  %s",
		periodStyle.Render(format.FilterLabel(m.filter)),
		mutedStyle.Render(string(m.filter.Timespan)),
		highlightStyle.Render("Total "+format.Total(m.total)),
	)

	if len(m.activities) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			mutedStyle.Render("No activities in this period. Press n to add one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := []string{header, ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-10s %-11s %-6s %-20s %s", "Date", "Time", "Hours", "Project", "Description")))

	visible := max(1, m.height-14)
	first := 0
	if m.cursor >= visible {
		first = m.cursor - visible + 1
	}
	last := min(len(m.activities), first+visible)

	for i := first; i < last; i++ {
		a := m.activities[i]
		name := "?"
		if a.Project != nil {
			name = a.Project.Name
		}
		dot := lipgloss.NewStyle().Foreground(projectColor(a.ProjectID())).Render("●")
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		line := fmt.Sprintf("%-10s %s-%s %-6s ",
			a.StartTime.Format(formDateLayout),
			a.StartTime.Format(formClockLayout),
			a.EndTime.Format(formClockLayout),
			format.Duration(a.Duration()),
		)
		rows = append(rows, style.Render(cursor+line)+dot+style.Render(fmt.Sprintf(" %-18s %s", truncate(name, 18), truncate(a.Description, 40))))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  ←/→: period  t: timespan  n: new  e: edit  d: delete  r: refresh"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m activitiesModel) renderProjectPicker(w int) string {
	rows := []string{titleStyle.Render("Select Project")}
	for i, p := range m.projects {
		dot := lipgloss.NewStyle().Foreground(projectColor(p.ID)).Render("●")
		cursor := "  "
		style := normalItemStyle
		if i == m.pickerCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor)+dot+style.Render(" "+p.Name))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: select  esc: cancel"))

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
