package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, append([]Option{WithHTTPClient(srv.Client())}, opts...)...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNewValidation(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty base url")
	}
	if _, err := New("http://localhost", WithHTTPClient(nil)); err == nil {
		t.Fatal("expected error for nil http client")
	}
	if _, err := New("http://localhost", WithTimeout(0)); err == nil {
		t.Fatal("expected error for zero timeout")
	}
}

func TestListProjects(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/projects" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		io.WriteString(w, `{"_embedded":{"projects":[{"id":"p1","title":"Baralga","description":"d","active":true}]}}`)
	}))

	projects, err := c.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 1 || projects[0].ID != "p1" || projects[0].Title != "Baralga" || !projects[0].Active {
		t.Fatalf("projects = %+v", projects)
	}
}

func TestListProjectsWithoutEmbedded(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	}))

	projects, err := c.ListProjects(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if projects == nil || len(projects) != 0 {
		t.Fatalf("expected empty list, got %+v", projects)
	}
}

func TestListActivitiesQuery(t *testing.T) {
	var query string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		io.WriteString(w, `{"_embedded":{"activities":[{"id":"a1","start":"2020-11-01T09:00:00","end":"2020-11-01T10:00:00","description":"x","_links":{"project":{"href":"/api/projects/p1"}}}],"projects":[]}}`)
	}))

	start := time.Date(2020, 11, 1, 0, 0, 0, 0, time.Local)
	end := time.Date(2020, 11, 30, 23, 59, 59, 0, time.Local)
	resp, err := c.ListActivities(context.Background(), start, end)
	if err != nil {
		t.Fatalf("ListActivities: %v", err)
	}
	if query != "end=2020-11-30&start=2020-11-01" {
		t.Fatalf("query = %q", query)
	}
	if got := resp.Embedded.Activities[0].ProjectID(); got != "p1" {
		t.Fatalf("ProjectID = %q", got)
	}
}

func TestCreateActivityBody(t *testing.T) {
	var body ActivityModel
	var contentType string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/activities" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		contentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"new"}`)
	}))

	created, err := c.CreateActivity(context.Background(), ActivityModel{
		Start:       "2020-11-01T09:00:00",
		End:         "2020-11-01T10:00:00",
		Description: "work",
		Links:       Links{"project": {Href: ProjectHref("p1")}},
	})
	if err != nil {
		t.Fatalf("CreateActivity: %v", err)
	}
	if created.ID != "new" {
		t.Fatalf("created = %+v", created)
	}
	if contentType != "application/json;charset=UTF-8" {
		t.Fatalf("Content-Type = %q", contentType)
	}
	if body.Start != "2020-11-01T09:00:00" || body.Links.Href("project") != "/api/projects/p1" {
		t.Fatalf("body = %+v", body)
	}
}

func TestUpdateActivityUsesPatch(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/api/activities/a1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		io.WriteString(w, `{"id":"a1"}`)
	}))

	if _, err := c.UpdateActivity(context.Background(), ActivityModel{ID: "a1"}); err != nil {
		t.Fatal(err)
	}
}

func TestDeleteEndpoints(t *testing.T) {
	var paths []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))

	ctx := context.Background()
	if err := c.DeleteProject(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if err := c.DeleteActivity(ctx, "a1"); err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 || paths[0] != "/api/projects/p1" || paths[1] != "/api/activities/a1" {
		t.Fatalf("paths = %v", paths)
	}
}

func TestStatusError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such project", http.StatusNotFound)
	}))

	_, err := c.GetProject(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsNotFound(err) || IsUnauthorized(err) {
		t.Fatalf("unexpected classification for %v", err)
	}
	se, ok := err.(*StatusError)
	if !ok {
		t.Fatalf("expected *StatusError, got %T", err)
	}
	if se.Method != http.MethodGet || se.Path != "/api/projects/missing" || se.StatusCode != 404 {
		t.Fatalf("StatusError = %+v", se)
	}
}

func TestUnauthorizedHandler(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t,
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}),
		WithUnauthorizedHandler(func() { calls.Add(1) }),
	)

	_, err := c.ListProjects(context.Background())
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("handler called %d times", calls.Load())
	}
}

func TestNoRetryOnServerError(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	if _, err := c.ListProjects(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if hits.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", hits.Load())
	}
}

func TestDecodeError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{not json`)
	}))

	if _, err := c.GetActivity(context.Background(), "a1"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestIDFromHref(t *testing.T) {
	tests := map[string]string{
		"/api/projects/p1": "p1",
		"/p1":              "p1",
		"p1":               "p1",
		"/api/projects/":   "",
	}
	for href, want := range tests {
		if got := IDFromHref(href); got != want {
			t.Errorf("IDFromHref(%q) = %q, want %q", href, got, want)
		}
	}
}
