package service

import (
	"time"

	"github.com/noah-isme/engagement-funnel/internal/models"
)

const (
	// trialDays is the free-trial length: a cancellation on day 7 or earlier is not a paying customer.
	trialDays = 7
	// firstWeekDays bounds the half-open engagement window [join, join+7).
	firstWeekDays = 7
)

const day = 24 * time.Hour

// IsPaid reports whether an enrollment counts as a paying customer: never canceled,
// or canceled strictly after the trial.
func IsPaid(r models.EnrollmentRecord) bool {
	c, canceled := r.Cancellation()
	return !canceled || c.DaysToCancel > trialDays
}

// PaidStudents maps every paying account to its latest qualifying join date.
// A missing join date orders before any real date.
func PaidStudents(enrollments []models.EnrollmentRecord) models.PaidStudentMap {
	paid := make(models.PaidStudentMap)
	for _, r := range enrollments {
		if !IsPaid(r) {
			continue
		}
		current, ok := paid[r.AccountKey]
		if !ok || r.JoinDate.After(current) {
			paid[r.AccountKey] = r.JoinDate
		}
	}
	return paid
}

// DaysBetween returns the whole days from one date to another, rounded toward negative infinity.
func DaysBetween(from, to time.Time) int {
	d := to.Sub(from)
	days := int(d / day)
	if d%day != 0 && d < 0 {
		days--
	}
	return days
}

// WithinOneWeek holds iff 0 <= engage-join < 7 days. Missing dates never qualify.
func WithinOneWeek(join, engage time.Time) bool {
	if join.IsZero() || engage.IsZero() {
		return false
	}
	diff := DaysBetween(join, engage)
	return diff >= 0 && diff < firstWeekDays
}

// FirstWeekEngagement keeps engagement rows of paid students that fall in their first week.
func FirstWeekEngagement(engagements []models.EngagementRecord, paid models.PaidStudentMap) []models.EngagementRecord {
	firstWeek := make([]models.EngagementRecord, 0)
	for _, r := range engagements {
		join, ok := paid[r.AccountKey]
		if ok && WithinOneWeek(join, r.UTCDate) {
			firstWeek = append(firstWeek, r)
		}
	}
	return firstWeek
}
