package export

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sadopc/baralga/internal/format"
	"github.com/sadopc/baralga/internal/model"
)

const (
	CSVContentType = "text/csv;charset=utf-8"
	csvSeparator   = ";"
)

var csvHeader = []string{"Date", "Start", "End", "Duration", "Project", "Description"}

// WriteCSV writes one semicolon separated row per activity, in input order.
// Fields are written verbatim: a ';' or newline inside a description is not
// escaped and will break the row structure for strict readers.
func WriteCSV(w io.Writer, activities []model.Activity) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(strings.Join(csvHeader, csvSeparator) + "\n"); err != nil {
		return err
	}

	for _, a := range activities {
		projectName := ""
		if a.Project != nil {
			projectName = a.Project.Name
		}
		row := []string{
			a.StartTime.Format("02.01.2006"),
			a.StartTime.Format("15:04"),
			a.EndTime.Format("15:04"),
			format.Between(a.StartTime, a.EndTime),
			projectName,
			a.Description,
		}
		if _, err := bw.WriteString(strings.Join(row, csvSeparator) + "\n"); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// CreateCSV returns the CSV export as a blob.
func CreateCSV(activities []model.Activity) []byte {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer cannot fail.
	_ = WriteCSV(&buf, activities)
	return buf.Bytes()
}

func ToCSVFile(activities []model.Activity, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, activities); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}
