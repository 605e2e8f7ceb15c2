package api

import (
	"context"
	"time"
)

const (
	projectsPath   = "/api/projects"
	activitiesPath = "/api/activities"
)

// ListProjects returns all projects of the current user.
func (c *Client) ListProjects(ctx context.Context) ([]ProjectModel, error) {
	var resp ProjectsModel
	if err := c.Get(ctx, projectsPath, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Embedded == nil {
		return []ProjectModel{}, nil
	}
	return resp.Embedded.Projects, nil
}

func (c *Client) CreateProject(ctx context.Context, p ProjectModel) (*ProjectModel, error) {
	var created ProjectModel
	if err := c.Post(ctx, projectsPath, p, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) GetProject(ctx context.Context, id string) (*ProjectModel, error) {
	var p ProjectModel
	if err := c.Get(ctx, projectsPath+"/"+id, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.Delete(ctx, projectsPath+"/"+id)
}

// ListActivities returns the activities between the dates of start and end,
// together with the projects they reference.
func (c *Client) ListActivities(ctx context.Context, start, end time.Time) (*ActivitiesModel, error) {
	query := map[string]string{
		"start": start.Format(DateLayout),
		"end":   end.Format(DateLayout),
	}

	var resp ActivitiesModel
	if err := c.Get(ctx, activitiesPath, query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CreateActivity(ctx context.Context, a ActivityModel) (*ActivityModel, error) {
	var created ActivityModel
	if err := c.Post(ctx, activitiesPath, a, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateActivity(ctx context.Context, a ActivityModel) (*ActivityModel, error) {
	var updated ActivityModel
	if err := c.Patch(ctx, activitiesPath+"/"+a.ID, a, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) GetActivity(ctx context.Context, id string) (*ActivityModel, error) {
	var a ActivityModel
	if err := c.Get(ctx, activitiesPath+"/"+id, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) DeleteActivity(ctx context.Context, id string) error {
	return c.Delete(ctx, activitiesPath+"/"+id)
}
