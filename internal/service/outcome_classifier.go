package service

import "github.com/noah-isme/engagement-funnel/internal/models"

// Lesson keys of the cohort's first graded project.
const (
	firstProjectLessonA int64 = 746169184
	firstProjectLessonB int64 = 3176718735
)

// FirstProjectLessons returns the lesson keys that count as the first project.
func FirstProjectLessons() []int64 {
	return []int64{firstProjectLessonA, firstProjectLessonB}
}

// IsFirstProject reports whether lesson is one of the first-project lessons.
func IsFirstProject(lesson int64) bool {
	return lesson == firstProjectLessonA || lesson == firstProjectLessonB
}

// IsPassingRating reports whether a rating counts as passing.
func IsPassingRating(r models.Rating) bool {
	return r == models.RatingPassed || r == models.RatingDistinction
}

// ClassifySubmissions sorts first-project submissions of cohort accounts into passed and failed sets.
// The sets are filled independently, so an account with mixed results lands in both.
func ClassifySubmissions(submissions []models.SubmissionRecord, cohort models.AccountSet) models.OutcomeSets {
	sets := models.OutcomeSets{Passed: make(models.AccountSet), Failed: make(models.AccountSet)}
	for _, s := range submissions {
		if !cohort.Has(s.AccountKey) || !IsFirstProject(s.LessonKey) {
			continue
		}
		if IsPassingRating(s.AssignedRating) {
			sets.Passed.Add(s.AccountKey)
		} else {
			sets.Failed.Add(s.AccountKey)
		}
	}
	return sets
}

// OutcomeFor resolves the final group of an account. Membership in Passed wins over Failed;
// every account not in Passed, including ones without any first-project submission, is failed.
func OutcomeFor(sets models.OutcomeSets, key models.AccountKey) models.Outcome {
	if sets.Passed.Has(key) {
		return models.OutcomePassed
	}
	return models.OutcomeFailed
}

// SplitByOutcome partitions first-week engagement rows by their account's outcome, keeping order.
func SplitByOutcome(records []models.EngagementRecord, sets models.OutcomeSets) (passed, failed []models.EngagementRecord) {
	passed = make([]models.EngagementRecord, 0)
	failed = make([]models.EngagementRecord, 0)
	for _, r := range records {
		if OutcomeFor(sets, r.AccountKey) == models.OutcomePassed {
			passed = append(passed, r)
		} else {
			failed = append(failed, r)
		}
	}
	return passed, failed
}
