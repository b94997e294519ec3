package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/engagement-funnel/internal/models"
)

func canceledAfter(days int) models.EnrollmentStatus {
	return models.Canceled{DaysToCancel: days}
}

func TestIsPaid(t *testing.T) {
	cases := []struct {
		name   string
		status models.EnrollmentStatus
		want   bool
	}{
		{"active", models.Active{}, true},
		{"canceled during trial", canceledAfter(3), false},
		{"canceled on last trial day", canceledAfter(7), false},
		{"canceled after trial", canceledAfter(8), true},
		{"canceled same day", canceledAfter(0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsPaid(models.EnrollmentRecord{AccountKey: 1, Status: tc.status}))
		})
	}
}

func TestPaidStudentsKeepsLatestJoinDate(t *testing.T) {
	enrollments := []models.EnrollmentRecord{
		{AccountKey: 1, JoinDate: date(t, "2014-11-10"), Status: models.Active{}},
		{AccountKey: 1, JoinDate: date(t, "2015-03-01"), Status: canceledAfter(30)},
		{AccountKey: 1, JoinDate: date(t, "2015-01-01"), Status: models.Active{}},
		{AccountKey: 2, JoinDate: date(t, "2015-01-05"), Status: canceledAfter(2)},
		{AccountKey: 3, Status: models.Active{}},
		{AccountKey: 3, JoinDate: date(t, "2015-02-02"), Status: models.Active{}},
	}

	paid := PaidStudents(enrollments)

	require.Len(t, paid, 2)
	assert.Equal(t, date(t, "2015-03-01"), paid[1])
	assert.Equal(t, date(t, "2015-02-02"), paid[3])
	_, ok := paid[2]
	assert.False(t, ok)
}

func TestPaidStudentsInvariant(t *testing.T) {
	enrollments := []models.EnrollmentRecord{
		{AccountKey: 4, JoinDate: date(t, "2015-01-01"), Status: canceledAfter(1)},
		{AccountKey: 4, JoinDate: date(t, "2015-02-01"), Status: canceledAfter(9)},
		{AccountKey: 5, JoinDate: date(t, "2015-01-01"), Status: canceledAfter(7)},
	}
	paid := PaidStudents(enrollments)

	for key, join := range paid {
		found := false
		for _, r := range enrollments {
			if r.AccountKey == key && IsPaid(r) {
				found = true
				assert.False(t, r.JoinDate.After(join))
			}
		}
		assert.True(t, found)
	}
	assert.Equal(t, date(t, "2015-02-01"), paid[4])
	assert.NotContains(t, paid, models.AccountKey(5))
}

func TestWithinOneWeekBoundaries(t *testing.T) {
	join := date(t, "2015-01-10")
	cases := map[int]bool{-1: false, 0: true, 6: true, 7: false}
	for offset, want := range cases {
		engage := join.AddDate(0, 0, offset)
		assert.Equal(t, want, WithinOneWeek(join, engage), "offset %d", offset)
	}
}

func TestWithinOneWeekMissingDates(t *testing.T) {
	assert.False(t, WithinOneWeek(time.Time{}, date(t, "2015-01-10")))
	assert.False(t, WithinOneWeek(date(t, "2015-01-10"), time.Time{}))
}

func TestDaysBetweenFloors(t *testing.T) {
	from := date(t, "2015-01-10")
	assert.Equal(t, 0, DaysBetween(from, from.Add(23*time.Hour)))
	assert.Equal(t, -1, DaysBetween(from, from.Add(-time.Hour)))
	assert.Equal(t, 3, DaysBetween(from, from.AddDate(0, 0, 3)))
}

func TestFirstWeekEngagement(t *testing.T) {
	paid := models.PaidStudentMap{1: date(t, "2014-01-01")}
	engagements := []models.EngagementRecord{
		{AccountKey: 1, UTCDate: date(t, "2014-01-01"), TotalMinutesVisited: 5},
		{AccountKey: 1, UTCDate: date(t, "2014-01-08"), TotalMinutesVisited: 10},
		{AccountKey: 2, UTCDate: date(t, "2014-01-02"), TotalMinutesVisited: 3},
		{AccountKey: 1, UTCDate: date(t, "2013-12-31"), TotalMinutesVisited: 4},
		{AccountKey: 1, UTCDate: date(t, "2014-01-07"), TotalMinutesVisited: 0},
	}

	firstWeek := FirstWeekEngagement(engagements, paid)

	require.Len(t, firstWeek, 2)
	assert.Equal(t, 5.0, firstWeek[0].TotalMinutesVisited)
	assert.Equal(t, date(t, "2014-01-07"), firstWeek[1].UTCDate)
}
