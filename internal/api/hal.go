package api

import "strings"

type Link struct {
	Href string `json:"href"`
}

// Links maps a relation name to its link.
type Links map[string]Link

func (l Links) Href(rel string) string {
	return l[rel].Href
}

// IDFromHref returns the trailing path segment of href.
func IDFromHref(href string) string {
	return href[strings.LastIndex(href, "/")+1:]
}

func ProjectHref(id string) string {
	return "/api/projects/" + id
}

type ProjectModel struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
	Links       Links  `json:"_links,omitempty"`
}

type EmbeddedProjects struct {
	Projects []ProjectModel `json:"projects"`
}

type ProjectsModel struct {
	Embedded *EmbeddedProjects `json:"_embedded,omitempty"`
	Links    Links             `json:"_links,omitempty"`
}

type DurationModel struct {
	Hours     int     `json:"hours"`
	Minutes   int     `json:"minutes"`
	Decimal   float64 `json:"decimal"`
	Formatted string  `json:"formatted"`
}

// ActivityModel carries start and end as local date times in DateTimeLayout.
// The owning project is referenced by the "project" link.
type ActivityModel struct {
	ID          string         `json:"id,omitempty"`
	Start       string         `json:"start"`
	End         string         `json:"end"`
	Description string         `json:"description"`
	Duration    *DurationModel `json:"duration,omitempty"`
	Links       Links          `json:"_links"`
}

func (a ActivityModel) ProjectID() string {
	href := a.Links.Href("project")
	if href == "" {
		return ""
	}
	return IDFromHref(href)
}

type EmbeddedActivities struct {
	Activities []ActivityModel `json:"activities"`
	Projects   []ProjectModel  `json:"projects"`
}

type ActivitiesModel struct {
	Embedded *EmbeddedActivities `json:"_embedded,omitempty"`
	Links    Links               `json:"_links,omitempty"`
}
