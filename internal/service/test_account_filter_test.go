package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/engagement-funnel/internal/models"
)

func TestRemoveTestAccounts(t *testing.T) {
	enrollments := []models.EnrollmentRecord{
		{AccountKey: 1, Status: models.Active{}},
		{AccountKey: 2, IsUdacity: true, Status: models.Active{}},
		{AccountKey: 3, Status: models.Active{}},
		{AccountKey: 2, Status: models.Active{}},
	}
	engagements := []models.EngagementRecord{{AccountKey: 3}, {AccountKey: 2}, {AccountKey: 1}, {AccountKey: 2}}
	submissions := []models.SubmissionRecord{{AccountKey: 2}, {AccountKey: 9}}

	test := TestAccounts(enrollments)
	assert.Len(t, test, 1)
	assert.True(t, test.Has(2))

	keptEnrollments := RemoveTestEnrollments(enrollments, test)
	keptEngagements := RemoveTestEngagements(engagements, test)
	keptSubmissions := RemoveTestSubmissions(submissions, test)

	assert.Equal(t, []models.AccountKey{1, 3}, keysOf(keptEnrollments))
	assert.Equal(t, []models.AccountKey{3, 1}, keysOf(keptEngagements))
	assert.Equal(t, []models.AccountKey{9}, keysOf(keptSubmissions))

	for _, r := range keptEngagements {
		assert.False(t, test.Has(r.AccountKey))
	}
	assert.Len(t, engagements, 4, "input must not be mutated")
}

func TestRemoveTestAccountsWithoutTestAccounts(t *testing.T) {
	engagements := []models.EngagementRecord{{AccountKey: 5}, {AccountKey: 6}}
	kept := RemoveTestEngagements(engagements, TestAccounts(nil))
	assert.Equal(t, engagements, kept)
}

func keysOf[T models.Keyed](records []T) []models.AccountKey {
	keys := make([]models.AccountKey, 0, len(records))
	for _, r := range records {
		keys = append(keys, r.Key())
	}
	return keys
}
