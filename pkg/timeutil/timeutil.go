// Package timeutil pins every timestamp the bot writes to one configured
// timezone, so "today" in statistics and the date in stored file names agree.
package timeutil

import (
	"fmt"
	"time"
)

// Layouts used across the project.
const (
	// FormatDate is the day prefix used for "today" counts.
	FormatDate = "2006-01-02"
	// FormatDateTime is the layout of the applications.timestamp column.
	FormatDateTime = "2006-01-02 15:04:05"
	// FormatFileStamp prefixes stored document names.
	FormatFileStamp = "20060102_150405"
	// FormatRussianDate is shown in console output.
	FormatRussianDate = "02.01.2006 15:04"
)

// DefaultTimezone is used when none is configured.
const DefaultTimezone = "Europe/Minsk"

// Clock returns the current time in a fixed location.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock loads the named IANA zone. An empty name selects DefaultTimezone;
// "Local" selects the host zone.
func NewClock(name string) (*Clock, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return &Clock{loc: loc, now: time.Now}, nil
}

// FixedClock always returns t. Used in tests.
func FixedClock(t time.Time) *Clock {
	return &Clock{loc: t.Location(), now: func() time.Time { return t }}
}

// Location returns the clock's location.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Now returns the current time in the clock's location.
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// Today returns the current day formatted with FormatDate.
func (c *Clock) Today() string {
	return c.Now().Format(FormatDate)
}

// StartOfDay returns midnight of t's day in the clock's location.
func (c *Clock) StartOfDay(t time.Time) time.Time {
	t = t.In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
}

// Parse parses a FormatDateTime value in the clock's location.
func (c *Clock) Parse(value string) (time.Time, error) {
	return time.ParseInLocation(FormatDateTime, value, c.loc)
}

// FormatRussian formats t as DD.MM.YYYY HH:MM in the clock's location.
func (c *Clock) FormatRussian(t time.Time) string {
	return t.In(c.loc).Format(FormatRussianDate)
}
