package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/bookings")
	t.Setenv("JWT_SECRET", "secret")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, 60*time.Second, c.SchedulerInterval)
	assert.Equal(t, time.Duration(0), c.ReminderWindowStart)
	assert.Equal(t, time.Hour, c.ReminderWindowEnd)
	assert.Equal(t, -60*time.Minute, c.FeedbackWindowStart)
	assert.Equal(t, -15*time.Minute, c.FeedbackWindowEnd)
	assert.False(t, c.UltraMsgEnabled())
	assert.False(t, c.EmailEnabled())
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	require.NoError(t, os.Unsetenv("DATABASE_URL"))
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsInvertedWindow(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/bookings")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("FEEDBACK_WINDOW_START", "-10m")
	t.Setenv("FEEDBACK_WINDOW_END", "-20m")

	_, err := Load()
	require.Error(t, err)
}

func TestLocation(t *testing.T) {
	c := Config{TimeZone: "Africa/Nairobi"}
	loc, err := c.Location()
	require.NoError(t, err)
	assert.Equal(t, "Africa/Nairobi", loc.String())

	_, err = Config{TimeZone: "Nowhere/Land"}.Location()
	require.Error(t, err)
}
