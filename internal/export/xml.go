package export

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/baralga/internal/model"
)

const (
	XMLContentType = "text/xml;charset=utf-8"
	xmlDeclaration = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>`
	backupVersion  = "1"

	// BackupTimeLayout is minute precision local time without zone.
	BackupTimeLayout        = "2006-01-02T15:04"
	backupTimeLayoutSeconds = "2006-01-02T15:04:05"
)

type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// BackupResult is the outcome of reading a backup. On StatusError both
// lists are empty and Err holds the cause.
type BackupResult struct {
	Status     Status
	Projects   []model.Project
	Activities []model.Activity
	Err        error
}

func (r BackupResult) Backup() model.Backup {
	return model.Backup{Projects: r.Projects, Activities: r.Activities}
}

type xmlBackup struct {
	XMLName    xml.Name      `xml:"baralga"`
	Version    string        `xml:"version,attr"`
	Projects   xmlProjects   `xml:"projects"`
	Activities xmlActivities `xml:"activities"`
}

type xmlProjects struct {
	Items []xmlProject `xml:"project"`
}

type xmlActivities struct {
	Items []xmlActivity `xml:"activity"`
}

type xmlProject struct {
	Active      string `xml:"active,attr"`
	ID          string `xml:"id,attr"`
	Title       string `xml:"title"`
	Description string `xml:"description"`
}

type xmlActivity struct {
	ID               string `xml:"id,attr"`
	ProjectReference string `xml:"projectReference,attr"`
	Start            string `xml:"start,attr"`
	End              string `xml:"end,attr"`
	Description      string `xml:"description"`
}

// WriteXML writes the Baralga backup document. Every project is exported
// with active="true" regardless of its actual state.
func WriteXML(w io.Writer, activities []model.Activity, projects []model.Project) error {
	doc := xmlBackup{Version: backupVersion}

	for _, p := range projects {
		doc.Projects.Items = append(doc.Projects.Items, xmlProject{
			Active:      "true",
			ID:          p.ID,
			Title:       p.Name,
			Description: p.Description,
		})
	}

	for _, a := range activities {
		doc.Activities.Items = append(doc.Activities.Items, xmlActivity{
			ID:               a.ID,
			ProjectReference: a.ProjectID(),
			Start:            a.StartTime.Format(BackupTimeLayout),
			End:              a.EndTime.Format(BackupTimeLayout),
			Description:      a.Description,
		})
	}

	if _, err := io.WriteString(w, xmlDeclaration); err != nil {
		return err
	}
	if err := xml.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}

func CreateXML(activities []model.Activity, projects []model.Project) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteXML(&buf, activities, projects); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ToXMLFile(activities []model.Activity, projects []model.Project, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create xml file: %w", err)
	}
	defer f.Close()

	if err := WriteXML(f, activities, projects); err != nil {
		return err
	}
	return f.Close()
}

// The read side uses pointers so that missing attributes and elements can
// be told apart from empty ones.
type xmlBackupIn struct {
	XMLName    xml.Name        `xml:"baralga"`
	Projects   []xmlProjectIn  `xml:"projects>project"`
	Activities []xmlActivityIn `xml:"activities>activity"`
}

type xmlProjectIn struct {
	ID          *string `xml:"id,attr"`
	Active      *string `xml:"active,attr"`
	Title       *string `xml:"title"`
	Description *string `xml:"description"`
}

type xmlActivityIn struct {
	ID               *string `xml:"id,attr"`
	ProjectReference *string `xml:"projectReference,attr"`
	Start            *string `xml:"start,attr"`
	End              *string `xml:"end,attr"`
	Description      *string `xml:"description"`
}

var errMissing = errors.New("missing")

// ReadXML parses a Baralga backup. It never returns partial data: any
// syntax error or incomplete project/activity makes the whole read fail.
// Activities whose projectReference matches no project keep a nil Project.
func ReadXML(data []byte) (result BackupResult) {
	defer func() {
		if r := recover(); r != nil {
			result = failed(fmt.Errorf("read backup: %v", r))
		}
	}()

	var doc xmlBackupIn
	d := xml.NewDecoder(bytes.NewReader(data))
	if err := d.Decode(&doc); err != nil {
		return failed(fmt.Errorf("parse backup: %w", err))
	}
	if err := expectEOF(d); err != nil {
		return failed(fmt.Errorf("parse backup: %w", err))
	}

	projects := make([]model.Project, 0, len(doc.Projects))
	for i, p := range doc.Projects {
		if p.ID == nil || p.Title == nil || p.Description == nil {
			return failed(fmt.Errorf("project %d: %w id, title or description", i, errMissing))
		}
		projects = append(projects, model.Project{
			ID:          *p.ID,
			Name:        *p.Title,
			Description: *p.Description,
			Active:      p.Active != nil && *p.Active == "true",
		})
	}

	activities := make([]model.Activity, 0, len(doc.Activities))
	for i, a := range doc.Activities {
		if a.ID == nil || a.ProjectReference == nil || a.Start == nil || a.End == nil {
			return failed(fmt.Errorf("activity %d: %w id, projectReference, start or end", i, errMissing))
		}
		start, err := parseBackupTime(*a.Start)
		if err != nil {
			return failed(fmt.Errorf("activity %d start: %w", i, err))
		}
		end, err := parseBackupTime(*a.End)
		if err != nil {
			return failed(fmt.Errorf("activity %d end: %w", i, err))
		}

		activity := model.Activity{
			ID:        *a.ID,
			StartTime: start,
			EndTime:   end,
			Project:   findProject(projects, *a.ProjectReference),
		}
		if a.Description != nil {
			activity.Description = *a.Description
		}
		activities = append(activities, activity)
	}

	return BackupResult{Status: StatusOK, Projects: projects, Activities: activities}
}

// expectEOF consumes what follows the root element. Only whitespace,
// comments and processing instructions may remain.
func expectEOF(d *xml.Decoder) error {
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return fmt.Errorf("unexpected element <%s> after root", t.Name.Local)
		case xml.EndElement:
			return fmt.Errorf("unexpected end element </%s> after root", t.Name.Local)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return errors.New("unexpected text after root")
			}
		case xml.Directive:
			return errors.New("unexpected directive after root")
		}
	}
}

func ReadXMLFile(path string) BackupResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return failed(fmt.Errorf("read backup file: %w", err))
	}
	return ReadXML(data)
}

func failed(err error) BackupResult {
	return BackupResult{
		Status:     StatusError,
		Projects:   []model.Project{},
		Activities: []model.Activity{},
		Err:        err,
	}
}

func findProject(projects []model.Project, id string) *model.Project {
	for i := range projects {
		if projects[i].ID == id {
			p := projects[i]
			return &p
		}
	}
	return nil
}

func parseBackupTime(value string) (time.Time, error) {
	t, err := time.ParseInLocation(BackupTimeLayout, value, time.Local)
	if err == nil {
		return t, nil
	}
	return time.ParseInLocation(backupTimeLayoutSeconds, value, time.Local)
}
