package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseWindow(t *testing.T) {
	tCases := []struct {
		name     string
		from, to string
		wantFrom time.Time
		wantTo   time.Time
	}{
		{
			name:     "single_day",
			from:     "2024-05-01",
			to:       "2024-05-01",
			wantFrom: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "timestamps_unchanged",
			from:     "2024-05-01T10:00:00Z",
			to:       "2024-05-01T12:30:00Z",
			wantFrom: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC),
		},
	}

	for _, tCase := range tCases {
		t.Run(tCase.name, func(t *testing.T) {
			from, err := ParseStart(tCase.from)
			require.NoError(t, err)
			to, err := ParseEnd(tCase.to)
			require.NoError(t, err)

			require.True(t, tCase.wantFrom.Equal(from))
			require.True(t, tCase.wantTo.Equal(to))
		})
	}
}

func TestParseWindowError(t *testing.T) {
	_, err := ParseStart("yesterday")
	require.ErrorIs(t, err, ErrInvalidTime)

	_, err = ParseEnd("05/01/2024")
	require.ErrorIs(t, err, ErrInvalidTime)
}
