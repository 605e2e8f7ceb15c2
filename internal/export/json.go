package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/baralga/internal/format"
	"github.com/sadopc/baralga/internal/model"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Count      int         `json:"count"`
	Entries    []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	ID          string `json:"id"`
	Project     string `json:"project"`
	ProjectID   string `json:"project_id,omitempty"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	DurationSec int64  `json:"duration_seconds"`
	Duration    string `json:"duration"`
	Description string `json:"description,omitempty"`
}

func ToJSON(activities []model.Activity, path string) error {
	data, err := CreateJSON(activities, time.Now())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

// CreateJSON renders activities as an indented JSON document stamped with now.
func CreateJSON(activities []model.Activity, now time.Time) ([]byte, error) {
	export := jsonExport{
		ExportedAt: now.UTC().Format(time.RFC3339),
		Count:      len(activities),
	}

	for _, a := range activities {
		projectName := "Unknown"
		if a.Project != nil {
			projectName = a.Project.Name
		}

		export.Entries = append(export.Entries, jsonEntry{
			ID:          a.ID,
			Project:     projectName,
			ProjectID:   a.ProjectID(),
			StartTime:   a.StartTime.Format(time.RFC3339),
			EndTime:     a.EndTime.Format(time.RFC3339),
			DurationSec: int64(a.Duration() / time.Second),
			Duration:    format.Total(a.Duration()),
			Description: a.Description,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return data, nil
}
