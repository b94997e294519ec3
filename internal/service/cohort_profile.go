package service

import "github.com/noah-isme/engagement-funnel/internal/models"

// AccountsOf returns the distinct accounts present in records.
func AccountsOf[T models.Keyed](records []T) models.AccountSet {
	accounts := make(models.AccountSet)
	for _, r := range records {
		accounts.Add(r.Key())
	}
	return accounts
}

// UniqueAccounts counts distinct accounts in records.
func UniqueAccounts[T models.Keyed](records []T) int {
	return len(AccountsOf(records))
}

// CountMissingEngagement counts enrollments whose account never shows up in the engagement data,
// skipping same-day cancellations which legitimately have no classroom activity.
func CountMissingEngagement(enrollments []models.EnrollmentRecord, engagements []models.EngagementRecord) int {
	engaged := AccountsOf(engagements)
	count := 0
	for _, r := range enrollments {
		if engaged.Has(r.AccountKey) {
			continue
		}
		if c, canceled := r.Cancellation(); !canceled || c.DaysToCancel > 0 {
			count++
		}
	}
	return count
}

// CountMixedOutcomes counts accounts present in both the passed and failed sets.
func CountMixedOutcomes(sets models.OutcomeSets) int {
	count := 0
	for key := range sets.Passed {
		if sets.Failed.Has(key) {
			count++
		}
	}
	return count
}

func profileDataset[T models.Keyed](dataset models.Dataset, raw, filtered []T) models.DatasetProfile {
	return models.DatasetProfile{
		Dataset:          dataset,
		Rows:             len(raw),
		Accounts:         UniqueAccounts(raw),
		FilteredRows:     len(filtered),
		FilteredAccounts: UniqueAccounts(filtered),
	}
}
