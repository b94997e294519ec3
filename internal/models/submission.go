package models

import "time"

// Rating is the grader's verdict on a project submission. Values outside the constants below are kept verbatim.
type Rating string

const (
	RatingPassed      Rating = "PASSED"
	RatingDistinction Rating = "DISTINCTION"
	RatingIncomplete  Rating = "INCOMPLETE"
	RatingUngraded    Rating = "UNGRADED"
)

// SubmissionRecord is one project submission. Zero dates mean the source left them blank.
type SubmissionRecord struct {
	AccountKey     AccountKey `json:"account_key"`
	LessonKey      int64      `json:"lesson_key"`
	CreationDate   time.Time  `json:"creation_date"`
	CompletionDate time.Time  `json:"completion_date"`
	AssignedRating Rating     `json:"assigned_rating"`
}
