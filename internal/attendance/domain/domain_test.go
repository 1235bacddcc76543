package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekdaySet(t *testing.T) {
	weekend := NewWeekdaySet(time.Saturday, time.Sunday)

	tests := []struct {
		name    string
		raw     string
		want    WeekdaySet
		wantErr bool
	}{
		{"json names", `["Saturday","Sunday"]`, weekend, false},
		{"json numbers", `[0, 6]`, weekend, false},
		{"json string", `"sat, sun"`, weekend, false},
		{"postgres array", `{Saturday,Sunday}`, weekend, false},
		{"comma list", `Sunday, Saturday`, weekend, false},
		{"single name", `Friday`, NewWeekdaySet(time.Friday), false},
		{"empty", ``, 0, false},
		{"json null", `null`, 0, false},
		{"unknown day", `["Funday"]`, 0, true},
		{"out of range number", `[7]`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWeekdaySet([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWeekdaySet_String(t *testing.T) {
	assert.Equal(t, "Sunday,Saturday", NewWeekdaySet(time.Saturday, time.Sunday).String())
}

func TestParseRecurrence(t *testing.T) {
	start := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	t.Run("not recurring", func(t *testing.T) {
		r, err := ParseRecurrence(false, "weekly", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, RecurrenceOneOff, r.Kind)
		assert.True(t, r.Matches(start))
	})

	t.Run("weekly", func(t *testing.T) {
		r, err := ParseRecurrence(true, "Weekly", []byte(`["Mon","Fri"]`), &start)
		require.NoError(t, err)
		assert.True(t, r.Matches(time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)))
		assert.False(t, r.Matches(time.Date(2024, 2, 6, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("weekly needs days", func(t *testing.T) {
		_, err := ParseRecurrence(true, "weekly", []byte(`[]`), &start)
		assert.Error(t, err)
	})

	t.Run("monthly anchors to start day", func(t *testing.T) {
		r, err := ParseRecurrence(true, "monthly", nil, &start)
		require.NoError(t, err)
		assert.Equal(t, 31, r.AnchorDay)
		assert.True(t, r.Matches(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)))
		assert.False(t, r.Matches(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("monthly needs a start date", func(t *testing.T) {
		_, err := ParseRecurrence(true, "monthly", nil, nil)
		assert.Error(t, err)
	})

	t.Run("custom always matches", func(t *testing.T) {
		r, err := ParseRecurrence(true, "custom", []byte(`whatever`), nil)
		require.NoError(t, err)
		assert.Equal(t, RecurrenceCustom, r.Kind)
		assert.True(t, r.Matches(start))
	})

	t.Run("unknown pattern", func(t *testing.T) {
		_, err := ParseRecurrence(true, "fortnightly", nil, nil)
		assert.Error(t, err)
	})
}

func TestPermissionRemarks(t *testing.T) {
	v, ok := ParsePermissionRemark("late arrival; permUsedHours=1.5")
	require.True(t, ok)
	assert.True(t, v.Equal(decimal.RequireFromString("1.5")))

	_, ok = ParsePermissionRemark("no machine data here")
	assert.False(t, ok)

	assert.Equal(t, "permUsedHours=2", WithPermissionRemark("", decimal.NewFromInt(2)))
	assert.Equal(t, "manual fix; permUsedHours=0", WithPermissionRemark("manual fix; permUsedHours=2", decimal.Zero))
}

func TestAttendance_PreviousPermissionUsed(t *testing.T) {
	var missing *Attendance
	assert.True(t, missing.PreviousPermissionUsed().IsZero())

	legacy := &Attendance{Remarks: "permUsedHours=2"}
	assert.True(t, legacy.PreviousPermissionUsed().Equal(decimal.NewFromInt(2)))

	one := decimal.NewFromInt(1)
	current := &Attendance{Remarks: "permUsedHours=2", PermissionUsedHours: &one}
	assert.True(t, current.PreviousPermissionUsed().Equal(one))
}

func TestShiftType_Validate(t *testing.T) {
	valid := ShiftType{ID: "st", StartTime: "09:00", EndTime: "17:00:00",
		HalfDayHours: decimal.NewFromInt(4), MinimumHours: decimal.NewFromInt(6)}
	assert.NoError(t, valid.Validate())

	inverted := valid
	inverted.HalfDayHours = decimal.NewFromInt(6)
	assert.Error(t, inverted.Validate())

	badTime := valid
	badTime.EndTime = "5pm"
	assert.Error(t, badTime.Validate())
}

func TestEachDay(t *testing.T) {
	var got []string
	EachDay(time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), func(d time.Time) {
		got = append(got, DateKey(d))
	})
	assert.Equal(t, []string{"2024-02-28", "2024-02-29", "2024-03-01"}, got)
}
