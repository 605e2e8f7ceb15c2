// Package format renders durations, filter periods and user typed times.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/baralga/internal/model"
)

// Duration renders d as HH:mm. HH is the hours component, so whole days
// are dropped (25h renders as 01:00). Minutes are truncated.
func Duration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	mins := int64(d / time.Minute)
	return fmt.Sprintf("%02d:%02d", (mins/60)%24, mins%60)
}

// Between renders the span between two instants with Duration.
func Between(from, to time.Time) string {
	return Duration(to.Sub(from))
}

// Total renders d as total hours and minutes, without dropping days.
func Total(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	mins := int64(d / time.Minute)
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// FilterLabel names the period of f, e.g. "4th Quarter 2020".
func FilterLabel(f model.Filter) string {
	switch f.Timespan {
	case model.TimespanYear:
		return f.From.Format("2006")
	case model.TimespanQuarter:
		return Ordinal(Quarter(f.From)) + " Quarter " + f.From.Format("2006")
	case model.TimespanMonth:
		return f.From.Format("January 2006")
	case model.TimespanWeek:
		return Ordinal(Week(f.From)) + " Week " + f.From.Format("January 2006")
	default:
		return "?"
	}
}

func Quarter(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

// Week returns the week of year with weeks starting on Sunday, where week 1
// is the week containing January 1st.
func Week(t time.Time) int {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := day.AddDate(0, 0, -int(day.Weekday()))
	weekYear := weekStart.AddDate(0, 0, 6).Year()

	jan1 := time.Date(weekYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	firstWeek := jan1.AddDate(0, 0, -int(jan1.Weekday()))

	days := int(weekStart.Sub(firstWeek).Hours() / 24)
	return days/7 + 1
}

// Ordinal appends the English ordinal suffix: 1st, 2nd, 3rd, 4th, 11th.
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

// CompleteTime expands shorthand time input into HH:mm.
// "9" becomes "09:00", "10/12" "10:12" and "10,75" "10:45" (decimal hours).
// Input it cannot make sense of is returned unchanged.
func CompleteTime(value string) string {
	completed := strings.NewReplacer(",,", ":", "/", ":", ";", ",", ".", ":").Replace(value)

	if parts := strings.Split(completed, ","); len(parts) >= 2 {
		hh, mm := parts[0], parts[1]
		if len(mm) < 2 {
			mm += "0"
		}
		fraction, err := strconv.ParseFloat(mm, 64)
		if err != nil {
			return value
		}
		if len(hh) < 2 {
			hh = "0" + hh
		}
		return fmt.Sprintf("%s:%02.0f", hh, math.Round(fraction*0.6))
	}

	if strings.Contains(completed, ":") {
		return completed
	}

	if _, err := strconv.ParseInt(completed, 10, 32); err != nil {
		return value
	}
	if len(completed) < 2 {
		completed = "0" + completed
	}
	return completed + ":00"
}
