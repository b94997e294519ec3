package service

import "github.com/noah-isme/engagement-funnel/internal/models"

// TestAccounts collects accounts flagged is_udacity. Only enrollment data marks test accounts.
func TestAccounts(enrollments []models.EnrollmentRecord) models.AccountSet {
	accounts := make(models.AccountSet)
	for _, r := range enrollments {
		if r.IsUdacity {
			accounts.Add(r.AccountKey)
		}
	}
	return accounts
}

// RemoveTestEnrollments drops enrollments of test accounts.
func RemoveTestEnrollments(records []models.EnrollmentRecord, test models.AccountSet) []models.EnrollmentRecord {
	return removeAccounts(records, test)
}

// RemoveTestEngagements drops engagement rows of test accounts.
func RemoveTestEngagements(records []models.EngagementRecord, test models.AccountSet) []models.EngagementRecord {
	return removeAccounts(records, test)
}

// RemoveTestSubmissions drops submissions of test accounts.
func RemoveTestSubmissions(records []models.SubmissionRecord, test models.AccountSet) []models.SubmissionRecord {
	return removeAccounts(records, test)
}

// removeAccounts returns a new slice without records whose key is in drop, keeping input order.
func removeAccounts[T models.Keyed](records []T, drop models.AccountSet) []T {
	kept := make([]T, 0, len(records))
	for _, r := range records {
		if !drop.Has(r.Key()) {
			kept = append(kept, r)
		}
	}
	return kept
}
