package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClock(t *testing.T) {
	c, err := NewClock("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTimezone, c.Location().String())

	_, err = NewClock("Mars/Olympus")
	assert.Error(t, err)
}

func TestClock_Today(t *testing.T) {
	// 23:30 UTC is already the next day in UTC+3.
	at := time.Date(2024, 3, 5, 23, 30, 0, 0, time.UTC)
	loc := time.FixedZone("UTC+3", 3*60*60)

	c := &Clock{loc: loc, now: func() time.Time { return at }}
	assert.Equal(t, "2024-03-06", c.Today())
	assert.Equal(t, "06.03.2024 02:30", c.FormatRussian(at))
	assert.Equal(t, time.Date(2024, 3, 6, 0, 0, 0, 0, loc), c.StartOfDay(at))
}

func TestClock_Parse(t *testing.T) {
	c := FixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	got, err := c.Parse("2024-03-05 09:07:01")
	require.NoError(t, err)
	assert.Equal(t, "20240305_090701", got.Format(FormatFileStamp))
}
