package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/baralga/internal/model"
)

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.Local)
}

func sampleData() ([]model.Activity, []model.Project) {
	projects := []model.Project{
		{ID: "p1", Name: "Baralga", Description: "Time tracking", Active: true},
		{ID: "p2", Name: "Internal", Description: "", Active: false},
	}

	alpha := projects[0]
	beta := projects[1]
	activities := []model.Activity{
		{
			ID:          "a1",
			Description: "worked on feature",
			StartTime:   at(2020, 11, 1, 9, 0),
			EndTime:     at(2020, 11, 1, 10, 30),
			Project:     &alpha,
		},
		{
			ID:          "a2",
			Description: "",
			StartTime:   at(2020, 11, 2, 13, 15),
			EndTime:     at(2020, 11, 2, 14, 0),
			Project:     &beta,
		},
	}
	return activities, projects
}

// ============================================================
// CSV
// ============================================================

func TestCreateCSV(t *testing.T) {
	activities, _ := sampleData()

	got := string(CreateCSV(activities))
	want := "Date;Start;End;Duration;Project;Description\n" +
		"01.11.2020;09:00;10:30;01:30;Baralga;worked on feature\n" +
		"02.11.2020;13:15;14:00;00:45;Internal;\n"

	if got != want {
		t.Fatalf("CreateCSV =\n%s\nwant\n%s", got, want)
	}
}

func TestCreateCSVEmpty(t *testing.T) {
	got := string(CreateCSV(nil))
	if got != "Date;Start;End;Duration;Project;Description\n" {
		t.Fatalf("expected header only, got %q", got)
	}
}

func TestCreateCSVWithoutProject(t *testing.T) {
	activities := []model.Activity{
		{ID: "a1", StartTime: at(2020, 11, 1, 9, 0), EndTime: at(2020, 11, 1, 9, 5)},
	}

	lines := strings.Split(strings.TrimSuffix(string(CreateCSV(activities)), "\n"), "\n")
	if lines[1] != "01.11.2020;09:00;09:05;00:05;;" {
		t.Fatalf("row = %q", lines[1])
	}
}

// Separators inside fields are written verbatim. Readers that split on ';'
// will see an extra column; this documents the current output format.
func TestCreateCSVDoesNotEscape(t *testing.T) {
	p := model.Project{ID: "p1", Name: "Baralga"}
	activities := []model.Activity{
		{ID: "a1", Description: `fix "this"; then that`, StartTime: at(2020, 11, 1, 9, 0), EndTime: at(2020, 11, 1, 10, 0), Project: &p},
	}

	lines := strings.Split(strings.TrimSuffix(string(CreateCSV(activities)), "\n"), "\n")
	if !strings.HasSuffix(lines[1], `;fix "this"; then that`) {
		t.Fatalf("description was altered: %q", lines[1])
	}
	if n := len(strings.Split(lines[1], ";")); n != 7 {
		t.Fatalf("expected 7 raw columns, got %d", n)
	}
}

func TestToCSVFile(t *testing.T) {
	activities, _ := sampleData()
	path := filepath.Join(t.TempDir(), "activities.csv")

	if err := ToCSVFile(activities, path); err != nil {
		t.Fatalf("ToCSVFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(CreateCSV(activities)) {
		t.Fatalf("file content differs from CreateCSV")
	}
}

func TestToCSVFileBadPath(t *testing.T) {
	if err := ToCSVFile(nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// XML
// ============================================================

func TestCreateXML(t *testing.T) {
	activities, projects := sampleData()

	data, err := CreateXML(activities, projects)
	if err != nil {
		t.Fatalf("CreateXML: %v", err)
	}
	doc := string(data)

	if !strings.HasPrefix(doc, `<?xml version="1.0" encoding="UTF-8" standalone="no"?><baralga version="1">`) {
		t.Fatalf("unexpected document start: %.120s", doc)
	}
	for _, want := range []string{
		`<project active="true" id="p1"><title>Baralga</title><description>Time tracking</description></project>`,
		`<project active="true" id="p2"><title>Internal</title><description></description></project>`,
		`<activity id="a1" projectReference="p1" start="2020-11-01T09:00" end="2020-11-01T10:30"><description>worked on feature</description></activity>`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("missing %s", want)
		}
	}
}

func TestCreateXMLEmpty(t *testing.T) {
	data, err := CreateXML(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "<projects></projects><activities></activities>") {
		t.Fatalf("expected empty wrappers, got %s", data)
	}

	result := ReadXML(data)
	if result.Status != StatusOK {
		t.Fatalf("read empty backup: %v", result.Err)
	}
	if len(result.Projects) != 0 || len(result.Activities) != 0 {
		t.Fatalf("expected empty backup, got %+v", result)
	}
}

func TestXMLRoundTrip(t *testing.T) {
	activities, projects := sampleData()

	data, err := CreateXML(activities, projects)
	if err != nil {
		t.Fatal(err)
	}
	result := ReadXML(data)
	if result.Status != StatusOK {
		t.Fatalf("ReadXML: %v", result.Err)
	}

	if len(result.Projects) != 2 || len(result.Activities) != 2 {
		t.Fatalf("got %d projects, %d activities", len(result.Projects), len(result.Activities))
	}
	for i, a := range result.Activities {
		orig := activities[i]
		if a.ID != orig.ID || !a.StartTime.Equal(orig.StartTime) || !a.EndTime.Equal(orig.EndTime) {
			t.Errorf("activity %d = %+v, want %+v", i, a, orig)
		}
		if a.Description != orig.Description {
			t.Errorf("activity %d description = %q", i, a.Description)
		}
		if a.Project == nil || a.Project.ID != orig.Project.ID || a.Project.Name != orig.Project.Name {
			t.Errorf("activity %d project = %+v", i, a.Project)
		}
	}
}

// Projects are always written as active, so an inactive project comes back
// active after a round trip.
func TestXMLRoundTripMarksProjectsActive(t *testing.T) {
	_, projects := sampleData()
	data, _ := CreateXML(nil, projects)

	result := ReadXML(data)
	if result.Status != StatusOK {
		t.Fatal(result.Err)
	}
	if !result.Projects[1].Active {
		t.Fatal("inactive project should be exported as active")
	}
}

func TestReadXMLUnknownProjectReference(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<baralga version="1">
  <projects>
    <project active="true" id="p1"><title>Baralga</title><description></description></project>
  </projects>
  <activities>
    <activity id="a1" projectReference="missing" start="2020-11-01T09:00" end="2020-11-01T10:00"><description>x</description></activity>
  </activities>
</baralga>`

	result := ReadXML([]byte(doc))
	if result.Status != StatusOK {
		t.Fatalf("ReadXML: %v", result.Err)
	}
	if result.Activities[0].Project != nil {
		t.Fatalf("expected nil project, got %+v", result.Activities[0].Project)
	}
}

func TestReadXMLSecondsLayout(t *testing.T) {
	doc := `<baralga version="1"><projects></projects><activities>
<activity id="a1" projectReference="p1" start="2020-11-01T09:00:00" end="2020-11-01T10:00:30"></activity>
</activities></baralga>`

	result := ReadXML([]byte(doc))
	if result.Status != StatusOK {
		t.Fatalf("ReadXML: %v", result.Err)
	}
	if got := result.Activities[0].EndTime; !got.Equal(time.Date(2020, 11, 1, 10, 0, 30, 0, time.Local)) {
		t.Fatalf("end = %v", got)
	}
	if result.Activities[0].Description != "" {
		t.Fatalf("description = %q", result.Activities[0].Description)
	}
}

func TestReadXMLFailures(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not xml", "this is not a backup"},
		{"truncated", `<baralga version="1"><projects><project id="p1">`},
		{"project without title", `<baralga><projects><project id="p1"><description/></project></projects></baralga>`},
		{"project without id", `<baralga><projects><project><title>x</title><description/></project></projects></baralga>`},
		{"activity without start", `<baralga><activities><activity id="a1" projectReference="p1" end="2020-11-01T10:00"/></activities></baralga>`},
		{"bad timestamp", `<baralga><activities><activity id="a1" projectReference="p1" start="yesterday" end="2020-11-01T10:00"/></activities></baralga>`},
		{"open tag after root", `<baralga><projects><project id="p1"><title>x</title><description/></project></projects></baralga><broken`},
		{"stray end tag after root", `<baralga></baralga></unmatched>`},
		{"text after root", `<baralga></baralga>trailing text`},
		{"second root", `<baralga></baralga><baralga></baralga>`},
		{"doctype after root", `<baralga version="1"></baralga><!DOCTYPE x>`},
	}

	for _, tt := range tests {
		result := ReadXML([]byte(tt.doc))
		if result.Status != StatusError {
			t.Errorf("%s: status = %q, want error", tt.name, result.Status)
			continue
		}
		if result.Err == nil {
			t.Errorf("%s: expected error cause", tt.name)
		}
		if len(result.Projects) != 0 || len(result.Activities) != 0 {
			t.Errorf("%s: partial data returned", tt.name)
		}
	}
}

func TestReadXMLAllowsTrailingMisc(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
		`<baralga version="1"><projects><project id="p1" active="true"><title>x</title><description/></project></projects></baralga>` +
		"\n<!-- exported -->\n<?done?>\n"
	result := ReadXML([]byte(doc))
	if result.Status != StatusOK {
		t.Fatalf("status = %q: %v", result.Status, result.Err)
	}
	if len(result.Projects) != 1 {
		t.Fatalf("projects = %+v", result.Projects)
	}
}

func TestXMLFileRoundTrip(t *testing.T) {
	activities, projects := sampleData()
	path := filepath.Join(t.TempDir(), "backup.xml")

	if err := ToXMLFile(activities, projects, path); err != nil {
		t.Fatalf("ToXMLFile: %v", err)
	}
	result := ReadXMLFile(path)
	if result.Status != StatusOK {
		t.Fatalf("ReadXMLFile: %v", result.Err)
	}
	if b := result.Backup(); len(b.Activities) != 2 {
		t.Fatalf("backup activities = %d", len(b.Activities))
	}

	if missing := ReadXMLFile(filepath.Join(t.TempDir(), "none.xml")); missing.Status != StatusError {
		t.Fatal("expected error for missing file")
	}
}

// ============================================================
// JSON
// ============================================================

func TestCreateJSON(t *testing.T) {
	activities, _ := sampleData()
	now := time.Date(2020, 11, 3, 8, 0, 0, 0, time.UTC)

	data, err := CreateJSON(activities, now)
	if err != nil {
		t.Fatalf("CreateJSON: %v", err)
	}

	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if result.ExportedAt != "2020-11-03T08:00:00Z" {
		t.Fatalf("exported_at = %q", result.ExportedAt)
	}
	if result.Count != 2 || len(result.Entries) != 2 {
		t.Fatalf("count = %d, entries = %d", result.Count, len(result.Entries))
	}

	e := result.Entries[0]
	if e.ID != "a1" || e.Project != "Baralga" || e.ProjectID != "p1" {
		t.Fatalf("entry = %+v", e)
	}
	if e.DurationSec != 5400 || e.Duration != "01:30" {
		t.Fatalf("duration = %d / %q", e.DurationSec, e.Duration)
	}
	if _, err := time.Parse(time.RFC3339, e.StartTime); err != nil {
		t.Fatalf("start_time is not RFC3339: %q", e.StartTime)
	}
	if !strings.Contains(string(data), "\n  ") {
		t.Fatal("JSON should be indented")
	}
}

func TestCreateJSONUnknownProject(t *testing.T) {
	activities := []model.Activity{
		{ID: "a1", StartTime: at(2020, 11, 1, 9, 0), EndTime: at(2020, 11, 1, 9, 1)},
	}
	data, _ := CreateJSON(activities, time.Now())

	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatal(err)
	}
	if result.Entries[0].Project != "Unknown" {
		t.Fatalf("expected 'Unknown', got %q", result.Entries[0].Project)
	}
}

func TestToJSONBadPath(t *testing.T) {
	if err := ToJSON(nil, "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}
