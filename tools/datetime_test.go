package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateTimeToolDefaultsToUTC(t *testing.T) {
	tool := NewDateTimeTool()
	tool.now = func() time.Time {
		return time.Date(2026, 8, 25, 12, 30, 0, 0, time.UTC)
	}

	out, err := tool.Execute(context.Background(), map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, "2026-08-25 12:30:00 UTC", out)
}

func TestDateTimeToolTimezone(t *testing.T) {
	tool := NewDateTimeTool()
	tool.now = func() time.Time {
		return time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	}

	out, err := tool.Execute(context.Background(), map[string]interface{}{
		"timezone": "America/New_York",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "08:00:00")
}

func TestDateTimeToolUnknownTimezone(t *testing.T) {
	_, err := NewDateTimeTool().Execute(context.Background(), map[string]interface{}{
		"timezone": "Mars/Olympus",
	})
	assert.Error(t, err)
}
