package model

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type Timespan string

const (
	TimespanYear    Timespan = "year"
	TimespanQuarter Timespan = "quarter"
	TimespanMonth   Timespan = "month"
	TimespanWeek    Timespan = "week"
)

// Timespans lists the supported filter periods from widest to narrowest.
var Timespans = []Timespan{TimespanYear, TimespanQuarter, TimespanMonth, TimespanWeek}

// Filter bounds the activities shown. From is the first instant of the
// period and To the last one, both inclusive.
type Filter struct {
	Timespan Timespan  `json:"timespan"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
}

// NewFilter returns the period of the given timespan that contains at.
// Weeks start on Monday.
func NewFilter(ts Timespan, at time.Time) Filter {
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())

	var from, next time.Time
	switch ts {
	case TimespanQuarter:
		firstMonth := time.Month((int(day.Month())-1)/3*3 + 1)
		from = time.Date(day.Year(), firstMonth, 1, 0, 0, 0, 0, day.Location())
		next = from.AddDate(0, 3, 0)
	case TimespanMonth:
		from = time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		next = from.AddDate(0, 1, 0)
	case TimespanWeek:
		offset := (int(day.Weekday()) + 6) % 7
		from = day.AddDate(0, 0, -offset)
		next = from.AddDate(0, 0, 7)
	default:
		ts = TimespanYear
		from = time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, day.Location())
		next = from.AddDate(1, 0, 0)
	}

	return Filter{Timespan: ts, From: from, To: next.Add(-time.Nanosecond)}
}

// Home re-anchors the filter on now, keeping its timespan.
func (f Filter) Home(now time.Time) Filter {
	return NewFilter(f.Timespan, now)
}

func (f Filter) Next() Filter {
	return NewFilter(f.Timespan, f.shift(1))
}

func (f Filter) Previous() Filter {
	return NewFilter(f.Timespan, f.shift(-1))
}

func (f Filter) shift(n int) time.Time {
	switch f.Timespan {
	case TimespanQuarter:
		return f.From.AddDate(0, 3*n, 0)
	case TimespanMonth:
		return f.From.AddDate(0, n, 0)
	case TimespanWeek:
		return f.From.AddDate(0, 0, 7*n)
	default:
		return f.From.AddDate(n, 0, 0)
	}
}

// WithTimespan switches to another timespan around the current start.
func (f Filter) WithTimespan(ts Timespan) Filter {
	return NewFilter(ts, f.From)
}

// NextTimespan cycles year, quarter, month, week.
func (f Filter) NextTimespan() Timespan {
	for i, ts := range Timespans {
		if ts == f.Timespan {
			return Timespans[(i+1)%len(Timespans)]
		}
	}
	return TimespanYear
}

func (f Filter) Validate() error {
	err := validation.ValidateStruct(&f,
		validation.Field(&f.Timespan, validation.Required,
			validation.In(TimespanYear, TimespanQuarter, TimespanMonth, TimespanWeek)),
		validation.Field(&f.From, validation.Required),
		validation.Field(&f.To, validation.Required,
			validation.Min(f.From).Error("must not be before from")),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}
	return nil
}
