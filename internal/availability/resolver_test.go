package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestResolveScheduleOpen(t *testing.T) {
	st := Resolve(strPtr("09:00"), strPtr("21:00"), nil, MustParseWallClock("14:00"))
	assert.Equal(t, Open, st.Label)
	assert.Contains(t, st.Reason, "21:00")
	assert.False(t, st.ClosingSoon)
	assert.True(t, st.IsOpen())
}

func TestResolveManualPause(t *testing.T) {
	st := Resolve(strPtr("09:00"), strPtr("21:00"), boolPtr(false), MustParseWallClock("14:00"))
	assert.Equal(t, Status{Label: Closed, Reason: "manually paused"}, st)

	// a manual pause wins over missing hours
	st = Resolve(nil, nil, boolPtr(false), MustParseWallClock("14:00"))
	assert.Equal(t, ReasonManuallyPaused, st.Reason)
}

func TestResolveOverrideTrueEqualsAbsent(t *testing.T) {
	for _, now := range []string{"00:00", "08:30", "09:00", "20:59", "21:00", "23:59"} {
		w := MustParseWallClock(now)
		assert.Equal(t,
			Resolve(strPtr("09:00"), strPtr("21:00"), nil, w),
			Resolve(strPtr("09:00"), strPtr("21:00"), boolPtr(true), w),
			now,
		)
	}
}

func TestResolveMissingHours(t *testing.T) {
	now := MustParseWallClock("12:00")
	cases := []struct {
		name             string
		opening, closing *string
	}{
		{"both nil", nil, nil},
		{"opening nil", nil, strPtr("21:00")},
		{"closing nil", strPtr("09:00"), nil},
		{"garbage", strPtr("nine"), strPtr("21:00")},
		{"out of range", strPtr("09:00"), strPtr("25:00")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := Resolve(tc.opening, tc.closing, nil, now)
			assert.Equal(t, Closed, st.Label)
			assert.Equal(t, ReasonHoursNotSet, st.Reason)
		})
	}
}

func TestResolveWindowEdges(t *testing.T) {
	open, closeAt := strPtr("09:00"), strPtr("21:00")
	cases := []struct {
		now         string
		label       Label
		reason      string
		openingSoon bool
		closingSoon bool
	}{
		{"07:59", Closed, "opens at 09:00", false, false},
		{"08:00", Closed, "opens at 09:00", true, false},
		{"08:59", Closed, "opens at 09:00", true, false},
		{"09:00", Open, "closes at 21:00", false, false},
		{"19:59", Open, "closes at 21:00", false, false},
		{"20:00", Open, "closes at 21:00", false, true},
		{"20:59", Open, "closes at 21:00", false, true},
		{"21:00", Closed, "closed at 21:00", false, false},
		{"23:30", Closed, "closed at 21:00", false, false},
	}
	for _, tc := range cases {
		st := Resolve(open, closeAt, nil, MustParseWallClock(tc.now))
		assert.Equal(t, tc.label, st.Label, tc.now)
		assert.Equal(t, tc.reason, st.Reason, tc.now)
		assert.Equal(t, tc.openingSoon, st.OpeningSoon, tc.now)
		assert.Equal(t, tc.closingSoon, st.ClosingSoon, tc.now)
	}
}

func TestResolveIgnoresSeconds(t *testing.T) {
	st := Resolve(strPtr("09:00:45"), strPtr("21:00:59"), nil, MustParseWallClock("09:00"))
	assert.Equal(t, Open, st.Label)
	assert.Equal(t, "closes at 21:00", st.Reason)

	now := time.Date(2024, 1, 1, 20, 59, 59, 0, time.UTC)
	assert.Equal(t, MustParseWallClock("20:59"), WallClockOf(now))
}

func TestResolveIsPure(t *testing.T) {
	now := MustParseWallClock("20:30")
	a := Resolve(strPtr("09:00"), strPtr("21:00"), nil, now)
	b := Resolve(strPtr("09:00"), strPtr("21:00"), nil, now)
	assert.Equal(t, a, b)
}

func TestResolveOvernightDefaultIsEmptyWindow(t *testing.T) {
	open, closeAt := strPtr("22:00"), strPtr("06:00")
	assert.Equal(t, Closed, Resolve(open, closeAt, nil, MustParseWallClock("23:30")).Label)
	assert.Equal(t, Closed, Resolve(open, closeAt, nil, MustParseWallClock("05:00")).Label)
}

func TestResolveOvernightWrapping(t *testing.T) {
	r := NewResolver(WithOvernight(true))
	require.True(t, r.Overnight())
	open, closeAt := strPtr("22:00"), strPtr("06:00")

	st := r.Resolve(open, closeAt, nil, MustParseWallClock("23:30"))
	assert.Equal(t, Open, st.Label)
	assert.Equal(t, "closes at 06:00", st.Reason)
	assert.False(t, st.ClosingSoon)

	st = r.Resolve(open, closeAt, nil, MustParseWallClock("05:15"))
	assert.Equal(t, Open, st.Label)
	assert.True(t, st.ClosingSoon)

	st = r.Resolve(open, closeAt, nil, MustParseWallClock("06:00"))
	assert.Equal(t, Closed, st.Label)
	assert.Equal(t, "opens at 22:00", st.Reason)

	st = r.Resolve(open, closeAt, nil, MustParseWallClock("21:10"))
	assert.True(t, st.OpeningSoon)

	// ordinary windows are unaffected
	assert.Equal(t,
		Resolve(strPtr("09:00"), strPtr("21:00"), nil, MustParseWallClock("14:00")),
		r.Resolve(strPtr("09:00"), strPtr("21:00"), nil, MustParseWallClock("14:00")),
	)
	// the manual pause still wins
	assert.Equal(t, ReasonManuallyPaused, r.Resolve(open, closeAt, boolPtr(false), MustParseWallClock("23:00")).Reason)
}

func TestParseWallClock(t *testing.T) {
	for in, want := range map[string]string{"9:05": "09:05", "09:05": "09:05", "23:59:59": "23:59", "00:00": "00:00"} {
		w, err := ParseWallClock(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, w.String())
	}
	for _, in := range []string{"", "24:00", "12:60", "12", "12:5", "a:bc", "12:00:6", "123:00"} {
		_, err := ParseWallClock(in)
		assert.ErrorIs(t, err, ErrInvalidTime, in)
	}
}

func TestNormalizeTime(t *testing.T) {
	out, err := NormalizeTime(strPtr("9:30:15"))
	require.NoError(t, err)
	assert.Equal(t, "09:30", *out)

	out, err = NormalizeTime(strPtr("  "))
	require.NoError(t, err)
	assert.Nil(t, out)

	_, err = NormalizeTime(strPtr("99:99"))
	assert.Error(t, err)
}
