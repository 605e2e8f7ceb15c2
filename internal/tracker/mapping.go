package tracker

import (
	"fmt"
	"time"

	"github.com/sadopc/baralga/internal/api"
	"github.com/sadopc/baralga/internal/model"
)

func projectFromModel(m api.ProjectModel) model.Project {
	return model.Project{
		ID:          m.ID,
		Name:        m.Title,
		Description: m.Description,
		Active:      m.Active,
	}
}

func projectToModel(p model.Project) api.ProjectModel {
	return api.ProjectModel{
		ID:          p.ID,
		Title:       p.Name,
		Description: p.Description,
		Active:      p.Active,
	}
}

func activityToModel(a model.Activity) api.ActivityModel {
	return api.ActivityModel{
		ID:          a.ID,
		Start:       a.StartTime.Format(api.DateTimeLayout),
		End:         a.EndTime.Format(api.DateTimeLayout),
		Description: a.Description,
		Links: api.Links{
			"project": {Href: api.ProjectHref(a.ProjectID())},
		},
	}
}

// activityFromModel resolves the project link against projects. An unknown
// project leaves Project nil.
func activityFromModel(m api.ActivityModel, projects []model.Project) (model.Activity, error) {
	start, err := time.ParseInLocation(api.DateTimeLayout, m.Start, time.Local)
	if err != nil {
		return model.Activity{}, fmt.Errorf("parse start of activity %s: %w", m.ID, err)
	}
	end, err := time.ParseInLocation(api.DateTimeLayout, m.End, time.Local)
	if err != nil {
		return model.Activity{}, fmt.Errorf("parse end of activity %s: %w", m.ID, err)
	}

	a := model.Activity{
		ID:          m.ID,
		Description: m.Description,
		StartTime:   start,
		EndTime:     end,
	}
	if id := m.ProjectID(); id != "" {
		for i := range projects {
			if projects[i].ID == id {
				p := projects[i]
				a.Project = &p
				break
			}
		}
	}
	return a, nil
}

// activitiesFromModel reshapes the embedded projects first so activities can
// resolve their project.
func activitiesFromModel(resp *api.ActivitiesModel) ([]model.Activity, error) {
	activities := []model.Activity{}
	if resp == nil || resp.Embedded == nil {
		return activities, nil
	}

	projects := make([]model.Project, 0, len(resp.Embedded.Projects))
	for _, m := range resp.Embedded.Projects {
		projects = append(projects, projectFromModel(m))
	}

	for _, m := range resp.Embedded.Activities {
		a, err := activityFromModel(m, projects)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, nil
}
