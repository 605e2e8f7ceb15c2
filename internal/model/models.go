package model

import (
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

var (
	ErrInvalidProject  = errors.New("invalid project")
	ErrInvalidActivity = errors.New("invalid activity")
	ErrInvalidFilter   = errors.New("invalid filter")
)

type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
}

// Validate applies the same limits the backend enforces on project titles.
func (p Project) Validate() error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required, validation.RuneLength(3, 100)),
		validation.Field(&p.Description, validation.RuneLength(0, 500)),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProject, err)
	}
	return nil
}

// Activity is a tracked time span. Project is a snapshot copied when the
// activity was loaded; it is not updated when the project changes later.
type Activity struct {
	ID          string    `json:"id"`
	Description string    `json:"description,omitempty"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Project     *Project  `json:"project,omitempty"`
}

func (a Activity) Duration() time.Duration {
	return a.EndTime.Sub(a.StartTime)
}

// ProjectID returns the id of the embedded project, or "" if there is none.
func (a Activity) ProjectID() string {
	if a.Project == nil {
		return ""
	}
	return a.Project.ID
}

func (a Activity) Validate() error {
	err := validation.ValidateStruct(&a,
		validation.Field(&a.StartTime, validation.Required),
		validation.Field(&a.EndTime, validation.Required,
			validation.Min(a.StartTime).Error("must not be before the start time")),
		validation.Field(&a.Description, validation.RuneLength(0, 500)),
		// The snapshot is not validated as a whole, only its presence and id.
		validation.Field(&a.Project, validation.Required, validation.Skip),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidActivity, err)
	}
	if a.Project.ID == "" {
		return fmt.Errorf("%w: project: id is required", ErrInvalidActivity)
	}
	return nil
}

// Backup is the unit of import and export.
type Backup struct {
	Projects   []Project  `json:"projects"`
	Activities []Activity `json:"activities"`
}

// DeleteValidation lists the activities that still reference a project
// about to be deleted. It is advisory only.
type DeleteValidation struct {
	Project                  Project
	DependingActivities      []Activity
	DependingActivitiesCount int
}

// NewID returns a fresh random identifier for locally created entities.
func NewID() string {
	return uuid.NewString()
}

// EnsureActivityID assigns an id to activities restored without one.
func EnsureActivityID(a *Activity) {
	if a.ID == "" {
		a.ID = NewID()
	}
}

// EnsureProjectID assigns an id to projects restored without one.
func EnsureProjectID(p *Project) {
	if p.ID == "" {
		p.ID = NewID()
	}
}
