package services

import "time"

// Clock yields civil dates in one fixed timezone. Weeks start on Monday 00:00.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock returns a wall clock in loc.
func NewClock(loc *time.Location) *Clock {
	return NewClockFunc(loc, time.Now)
}

// NewClockFunc returns a clock reading the instant from now.
func NewClockFunc(loc *time.Location, now func() time.Time) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{loc: loc, now: now}
}

func (c *Clock) Location() *time.Location { return c.loc }

// Now is the current instant in the clock's zone.
func (c *Clock) Now() time.Time { return c.now().In(c.loc) }

// Today is midnight of the current civil date.
func (c *Clock) Today() time.Time { return c.Date(c.Now()) }

// Date truncates t to midnight using t's own calendar fields, so DATE values read back
// from the database keep their day regardless of the zone the driver attached.
func (c *Clock) Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}

// WeekStart is the Monday on or before day.
func (c *Clock) WeekStart(day time.Time) time.Time {
	d := c.Date(day)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// CurrentWeekStart is the Monday of the current week.
func (c *Clock) CurrentWeekStart() time.Time { return c.WeekStart(c.Today()) }
