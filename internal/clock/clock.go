// Package clock abstracts wall-clock time so the booking cutoff, late
// checkout fee and daily sweep can be driven deterministically in tests.
package clock

import "time"

type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Daily parses an "HH:MM" wall-clock time.
type Daily struct {
	Hour   int
	Minute int
}

func ParseDaily(s string) (Daily, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Daily{}, err
	}
	return Daily{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// On returns the instant of d on the calendar day of t in loc.
func (d Daily) On(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), d.Hour, d.Minute, 0, 0, loc)
}

// Next returns the first occurrence of d strictly after t.
func (d Daily) Next(t time.Time, loc *time.Location) time.Time {
	next := d.On(t, loc)
	if !next.After(t) {
		next = d.On(t.In(loc).AddDate(0, 0, 1), loc)
	}
	return next
}

// Last returns the most recent occurrence of d at or before t.
func (d Daily) Last(t time.Time, loc *time.Location) time.Time {
	last := d.On(t, loc)
	if last.After(t) {
		last = d.On(t.In(loc).AddDate(0, 0, -1), loc)
	}
	return last
}

func (d Daily) String() string {
	return time.Date(0, 1, 1, d.Hour, d.Minute, 0, 0, time.UTC).Format("15:04")
}

// OnDate returns the instant of d on the civil date date (see CivilDate) in loc.
func (d Daily) OnDate(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), d.Hour, d.Minute, 0, 0, loc)
}

// CivilDate returns the calendar day of t in loc as midnight UTC. Stay dates
// are kept in this form so night counts never depend on DST shifts.
func CivilDate(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}
