package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"pending", StatusPending, false},
		{"CONFIRMED", StatusConfirmed, false},
		{"Cancelled", StatusCancelled, false},
		{" completed ", StatusCompleted, false},
		{"archived", "", true},
		{"", "", true},
		{"done", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseStatus(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseTimeOfDay(t *testing.T) {
	got, err := ParseTimeOfDay("09:30:15")
	require.NoError(t, err)
	assert.Equal(t, NewTimeOfDay(9, 30, 15), got)
	assert.Equal(t, 9, got.Hour())
	assert.Equal(t, 30, got.Minute())
	assert.Equal(t, 15, got.Second())
	assert.Equal(t, "09:30:15", got.String())

	got, err = ParseTimeOfDay("14:05")
	require.NoError(t, err)
	assert.Equal(t, NewTimeOfDay(14, 5, 0), got)

	_, err = ParseTimeOfDay("25:00")
	assert.Error(t, err)
	_, err = ParseTimeOfDay("not a time")
	assert.Error(t, err)
}

func TestInBusinessHours(t *testing.T) {
	assert.False(t, NewTimeOfDay(7, 59, 59).InBusinessHours())
	assert.True(t, NewTimeOfDay(8, 0, 0).InBusinessHours())
	assert.True(t, NewTimeOfDay(20, 0, 0).InBusinessHours())
	assert.False(t, NewTimeOfDay(20, 0, 1).InBusinessHours())
}

func TestDateOnly(t *testing.T) {
	in := time.Date(2025, 6, 10, 17, 45, 12, 999, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), DateOnly(in))
}
