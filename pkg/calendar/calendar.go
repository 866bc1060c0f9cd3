/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package calendar provides working-day arithmetic over a weekly
// work-day mask and a holiday set. All task intervals are half-open:
// a successor starting on a predecessor's end date does not overlap
// its work.
package calendar

import (
	"time"

	"github.com/Davidian-Abdo/planitor/pkg/utils/functional"
)

// Workweek is a per-weekday work mask indexed by time.Weekday.
type Workweek [7]bool

// DefaultWorkweek is Monday through Friday.
func DefaultWorkweek() Workweek {
	var w Workweek
	for d := time.Monday; d <= time.Friday; d++ {
		w[d] = true
	}
	return w
}

// Calendar holds the project origin date, the workweek mask, and the
// holiday set.
type Calendar struct {
	origin   time.Time
	workweek Workweek
	holidays map[time.Time]struct{}
}

type Options struct {
	Workweek *Workweek
	Holidays []time.Time
}

func WithWorkweek(w Workweek) func(Options) Options {
	return func(o Options) Options {
		o.Workweek = &w
		return o
	}
}

func WithHolidays(days ...time.Time) func(Options) Options {
	return func(o Options) Options {
		o.Holidays = append(o.Holidays, days...)
		return o
	}
}

// New constructs a calendar anchored at origin. The default workweek is
// Mon-Fri with no holidays.
func New(origin time.Time, opts ...functional.Option[Options]) *Calendar {
	options := functional.ResolveOptions(opts...)
	c := &Calendar{
		origin:   Date(origin),
		workweek: DefaultWorkweek(),
		holidays: map[time.Time]struct{}{},
	}
	if options.Workweek != nil {
		c.workweek = *options.Workweek
	}
	for _, d := range options.Holidays {
		c.holidays[Date(d)] = struct{}{}
	}
	return c
}

// Date normalizes t to midnight UTC. All calendar arithmetic operates
// on normalized dates.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Origin returns the project start date. No task starts before it.
func (c *Calendar) Origin() time.Time {
	return c.origin
}

// IsWorkDay reports whether d is in the workweek mask and not a
// holiday.
func (c *Calendar) IsWorkDay(d time.Time) bool {
	d = Date(d)
	if !c.workweek[d.Weekday()] {
		return false
	}
	_, holiday := c.holidays[d]
	return !holiday
}

// AddCalendarDays is raw date arithmetic, ignoring the work mask.
func (c *Calendar) AddCalendarDays(d time.Time, n int) time.Time {
	return Date(d).AddDate(0, 0, n)
}

// AddWorkdays advances d by n working days, skipping non-working days,
// and lands on a working day. n = 0 returns d unchanged; a negative n
// walks backward. A non-work-day start is permitted: the working-day
// count still applies.
func (c *Calendar) AddWorkdays(d time.Time, n int) time.Time {
	cur := Date(d)
	switch {
	case n > 0:
		consumed := 0
		for consumed < n {
			if c.IsWorkDay(cur) {
				consumed++
			}
			cur = cur.AddDate(0, 0, 1)
		}
		for !c.IsWorkDay(cur) {
			cur = cur.AddDate(0, 0, 1)
		}
	case n < 0:
		consumed := 0
		for consumed < -n {
			cur = cur.AddDate(0, 0, -1)
			if c.IsWorkDay(cur) {
				consumed++
			}
		}
	}
	return cur
}

// NextWorkday returns d if it is a working day, else the first working
// day after it.
func (c *Calendar) NextWorkday(d time.Time) time.Time {
	cur := Date(d)
	for !c.IsWorkDay(cur) {
		cur = cur.AddDate(0, 0, 1)
	}
	return cur
}

// WorkdaysBetween counts working days in the half-open interval
// [start, end). It returns 0 when end is not after start.
func (c *Calendar) WorkdaysBetween(start, end time.Time) int {
	days := 0
	for cur := Date(start); cur.Before(Date(end)); cur = cur.AddDate(0, 0, 1) {
		if c.IsWorkDay(cur) {
			days++
		}
	}
	return days
}
