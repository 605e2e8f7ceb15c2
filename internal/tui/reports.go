package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/baralga/internal/format"
	"github.com/sadopc/baralga/internal/model"
	"github.com/sadopc/baralga/internal/tracker"
)

// reportBucket is one bar of the chart.
type reportBucket struct {
	label  string
	values []projectHours
}

type projectHours struct {
	id    string
	name  string
	hours float64
}

type projectTotal struct {
	id       string
	name     string
	duration time.Duration
	count    int
}

type reportsModel struct {
	tr     *tracker.Tracker
	width  int
	height int

	filter     model.Filter
	activities []model.Activity
	buckets    []reportBucket
	totals     []projectTotal

	chart barchart.Model
}

func newReportsModel(tr *tracker.Tracker) reportsModel {
	r := reportsModel{
		tr:    tr,
		chart: barchart.New(60, 12),
	}
	r.sync()
	return r
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
	r.buildChart()
}

func (r *reportsModel) sync() {
	r.filter = r.tr.Filter.Get()
	r.activities = r.tr.Filtered.Get()
	r.buckets = reportBuckets(r.filter, r.activities)
	r.totals = projectTotals(r.activities)
	r.buildChart()
}

// reportBuckets groups the activities of f into bars. Weeks and months
// get one bar per day, quarters and years one bar per month.
func reportBuckets(f model.Filter, activities []model.Activity) []reportBucket {
	var (
		bucketKeys []string
		labels     []string
		keyOf      func(time.Time) string
		perDay     = f.Timespan == model.TimespanWeek || f.Timespan == model.TimespanMonth
		loc        = f.From.Location()
	)

	if perDay {
		keyOf = func(t time.Time) string { return t.In(loc).Format("2006-01-02") }
		for d := f.From; !d.After(f.To); d = d.AddDate(0, 0, 1) {
			bucketKeys = append(bucketKeys, keyOf(d))
			if f.Timespan == model.TimespanWeek {
				labels = append(labels, d.Format("Mon 02"))
			} else {
				labels = append(labels, d.Format("02"))
			}
		}
	} else {
		keyOf = func(t time.Time) string { return t.In(loc).Format("2006-01") }
		for d := f.From; !d.After(f.To); d = d.AddDate(0, 1, 0) {
			bucketKeys = append(bucketKeys, keyOf(d))
			labels = append(labels, d.Format("Jan"))
		}
	}

	index := make(map[string]int, len(bucketKeys))
	for i, k := range bucketKeys {
		index[k] = i
	}

	buckets := make([]reportBucket, len(bucketKeys))
	for i := range buckets {
		buckets[i].label = labels[i]
	}

	for _, a := range activities {
		i, ok := index[keyOf(a.StartTime)]
		if !ok {
			continue
		}
		id, name := a.ProjectID(), "?"
		if a.Project != nil {
			name = a.Project.Name
		}
		hours := a.Duration().Hours()

		b := &buckets[i]
		found := false
		for j := range b.values {
			if b.values[j].id == id {
				b.values[j].hours += hours
				found = true
				break
			}
		}
		if !found {
			b.values = append(b.values, projectHours{id: id, name: name, hours: hours})
		}
	}
	return buckets
}

// projectTotals sums the activities per project, longest first.
func projectTotals(activities []model.Activity) []projectTotal {
	byID := make(map[string]*projectTotal)
	var order []string
	for _, a := range activities {
		id := a.ProjectID()
		t, ok := byID[id]
		if !ok {
			name := "?"
			if a.Project != nil {
				name = a.Project.Name
			}
			t = &projectTotal{id: id, name: name}
			byID[id] = t
			order = append(order, id)
		}
		t.duration += a.Duration()
		t.count++
	}

	totals := make([]projectTotal, 0, len(order))
	for _, id := range order {
		totals = append(totals, *byID[id])
	}
	sort.SliceStable(totals, func(i, j int) bool {
		if totals[i].duration != totals[j].duration {
			return totals[i].duration > totals[j].duration
		}
		return totals[i].name < totals[j].name
	})
	return totals
}

func (r *reportsModel) buildChart() {
	chartWidth := max(r.width-8, 20)
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	bars := make([]barchart.BarData, 0, len(r.buckets))
	for _, b := range r.buckets {
		var values []barchart.BarValue
		for _, v := range b.values {
			values = append(values, barchart.BarValue{
				Name:  v.name,
				Value: v.hours,
				Style: lipgloss.NewStyle().Foreground(projectColor(v.id)),
			})
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}
		bars = append(bars, barchart.BarData{Label: b.label, Values: values})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ",
		periodStyle.Render(format.FilterLabel(r.filter)), "  ",
		highlightStyle.Render("Total "+format.Total(tracker.SumDurations(r.activities))),
	)

	nav := mutedStyle.Render("  change the period in the Activities view (←/→, t)")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", r.renderTotals(w), "", nav,
		),
	)
}

func (r reportsModel) renderTotals(w int) string {
	if len(r.totals) == 0 {
		return mutedStyle.Render("  No data for this period")
	}

	rows := []string{
		mutedStyle.Render(fmt.Sprintf("  %-22s %10s %8s %8s", "Project", "Duration", "Hours", "Entries")),
		mutedStyle.Render("  " + strings.Repeat("─", max(0, min(w-6, 52)))),
	}
	for _, t := range r.totals {
		dot := lipgloss.NewStyle().Foreground(projectColor(t.id)).Render("●")
		rows = append(rows, fmt.Sprintf("  %s %-20s %10s %8s %8d",
			dot, truncate(t.name, 20), format.Total(t.duration), formatHours(t.duration), t.count))
	}
	return strings.Join(rows, "\n")
}
