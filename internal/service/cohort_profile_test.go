package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/engagement-funnel/internal/models"
)

func TestUniqueAccounts(t *testing.T) {
	assert.Equal(t, 2, UniqueAccounts([]models.SubmissionRecord{{AccountKey: 1}, {AccountKey: 2}, {AccountKey: 1}}))
	assert.Equal(t, 0, UniqueAccounts([]models.EngagementRecord{}))
}

func TestCountMissingEngagement(t *testing.T) {
	enrollments := []models.EnrollmentRecord{
		{AccountKey: 1, Status: models.Active{}},
		{AccountKey: 2, Status: models.Active{}},
		{AccountKey: 3, Status: models.Canceled{DaysToCancel: 0}},
		{AccountKey: 4, Status: models.Canceled{DaysToCancel: 5}},
	}
	engagements := []models.EngagementRecord{{AccountKey: 1}}

	assert.Equal(t, 2, CountMissingEngagement(enrollments, engagements))
}

func TestProfileDataset(t *testing.T) {
	raw := []models.EngagementRecord{{AccountKey: 1}, {AccountKey: 1}, {AccountKey: 2}}
	filtered := raw[:2]

	p := profileDataset(models.DatasetEngagement, raw, filtered)
	assert.Equal(t, models.DatasetProfile{
		Dataset:          models.DatasetEngagement,
		Rows:             3,
		Accounts:         2,
		FilteredRows:     2,
		FilteredAccounts: 1,
	}, p)
}
