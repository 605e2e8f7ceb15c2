package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/baralga/internal/model"
	"github.com/sadopc/baralga/internal/tracker"
)

const (
	formNewProject    = "project"
	formDeleteProject = "delete_project"
)

type projectsModel struct {
	tr     *tracker.Tracker
	ctx    context.Context
	width  int
	height int

	projects []model.Project
	cursor   int

	formActive bool
	form       *huh.Form
	formType   string

	// Form field pointers (survive value copies)
	formName        *string
	formDescription *string
	formConfirm     *bool

	deleting   model.Project
	validation model.DeleteValidation
}

func newProjectsModel(ctx context.Context, tr *tracker.Tracker) projectsModel {
	name, description, confirm := "", "", false
	p := projectsModel{
		tr:              tr,
		ctx:             ctx,
		formName:        &name,
		formDescription: &description,
		formConfirm:     &confirm,
	}
	p.sync()
	return p
}

func (p *projectsModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

func (p *projectsModel) sync() {
	p.projects = p.tr.Projects.Get()
	if p.cursor >= len(p.projects) {
		p.cursor = max(0, len(p.projects)-1)
	}
}

func (p projectsModel) reload() tea.Cmd {
	tr, ctx := p.tr, p.ctx
	return func() tea.Msg {
		if err := tr.ReloadProjects(ctx); err != nil {
			return errStatus("Reload failed", err)
		}
		return statusMsg{text: "Projects reloaded"}
	}
}

func (p projectsModel) addProject(project model.Project) tea.Cmd {
	tr, ctx := p.tr, p.ctx
	return func() tea.Msg {
		if err := tr.AddProject(ctx, project); err != nil {
			return errStatus("Add project failed", err)
		}
		return statusMsg{text: "Project " + project.Name + " added"}
	}
}

func (p projectsModel) deleteProject(project model.Project) tea.Cmd {
	tr, ctx := p.tr, p.ctx
	return func() tea.Msg {
		if err := tr.DeleteProject(ctx, project); err != nil {
			return errStatus("Delete project failed", err)
		}
		return statusMsg{text: "Project " + project.Name + " deleted"}
	}
}

func (p projectsModel) update(msg tea.Msg) (projectsModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}

	switch {
	case key.Matches(km, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(km, keys.Down):
		if p.cursor < len(p.projects)-1 {
			p.cursor++
		}
	case key.Matches(km, keys.New):
		return p.showNewProjectForm()
	case key.Matches(km, keys.Delete):
		if len(p.projects) > 0 {
			return p.showDeleteForm(p.projects[p.cursor])
		}
	case key.Matches(km, keys.Refresh):
		return p, p.reload()
	}
	return p, nil
}

func validateProjectName(s string) error {
	return model.Project{Name: strings.TrimSpace(s)}.Validate()
}

func (p projectsModel) showNewProjectForm() (projectsModel, tea.Cmd) {
	*p.formName = ""
	*p.formDescription = ""
	p.formType = formNewProject

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Project Name").Value(p.formName).Validate(validateProjectName),
			huh.NewText().Title("Description").CharLimit(500).Value(p.formDescription),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) showDeleteForm(project model.Project) (projectsModel, tea.Cmd) {
	*p.formConfirm = false
	p.formType = formDeleteProject
	p.deleting = project
	p.validation = p.tr.DeleteProjectValidate(project)

	confirm := huh.NewConfirm().
		Title(fmt.Sprintf("Delete project %s?", project.Name)).
		Affirmative("Delete").
		Negative("Cancel").
		Value(p.formConfirm)
	if n := p.validation.DependingActivitiesCount; n > 0 {
		confirm = confirm.Description(fmt.Sprintf("%d activities still reference this project.", n))
	}

	p.form = huh.NewForm(huh.NewGroup(confirm)).WithShowHelp(true)
	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) updateForm(msg tea.Msg) (projectsModel, tea.Cmd) {
	// Check for escape to cancel form
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		p.formActive = false
		p.form = nil
		return p, nil
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		switch p.formType {
		case formNewProject:
			return p, p.addProject(model.Project{
				Name:        strings.TrimSpace(*p.formName),
				Description: strings.TrimSpace(*p.formDescription),
				Active:      true,
			})
		case formDeleteProject:
			if *p.formConfirm {
				return p, p.deleteProject(p.deleting)
			}
			return p, nil
		}
	}

	return p, cmd
}

func (p projectsModel) view() string {
	w := p.width - 4

	if p.formActive && p.form != nil {
		title := titleStyle.Render("New Project")
		if p.formType == formDeleteProject {
			title = titleStyle.Render("Delete Project")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", p.form.View())
		return panelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Projects")
	if len(p.projects) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No projects yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := []string{title, ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-3s %-28s %-8s %s", "", "Name", "Active", "Description")))

	for i, proj := range p.projects {
		dot := lipgloss.NewStyle().Foreground(projectColor(proj.ID)).Render("●")
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		active := "no"
		if proj.Active {
			active = "yes"
		}
		rows = append(rows, style.Render(cursor)+dot+style.Render(fmt.Sprintf("   %-28s %-8s %s",
			truncate(proj.Name, 28), active, truncate(proj.Description, 40))))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  d: delete  r: reload"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
