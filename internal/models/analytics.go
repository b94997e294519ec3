package models

import "time"

// Dataset names one of the three raw inputs.
type Dataset string

const (
	DatasetEnrollments Dataset = "enrollments"
	DatasetEngagement  Dataset = "daily_engagement"
	DatasetSubmissions Dataset = "project_submissions"
)

// Datasets lists the inputs in load order.
var Datasets = []Dataset{DatasetEnrollments, DatasetEngagement, DatasetSubmissions}

// RawRecord is a string-keyed row as produced by a row source.
type RawRecord map[string]string

// PaidStudentMap holds the latest qualifying join date for each paying account.
type PaidStudentMap map[AccountKey]time.Time

// AccountSet is a set of account keys.
type AccountSet map[AccountKey]struct{}

// Has reports membership.
func (s AccountSet) Has(key AccountKey) bool {
	_, ok := s[key]
	return ok
}

// Add inserts key into the set.
func (s AccountSet) Add(key AccountKey) {
	s[key] = struct{}{}
}

// AccountValue pairs an account with an aggregated value.
type AccountValue struct {
	AccountKey AccountKey `json:"account_key"`
	Value      float64    `json:"value"`
}

// GroupStatistics describes per-account sums of one column across a group of accounts.
type GroupStatistics struct {
	Column   EngagementColumn `json:"column"`
	Accounts int              `json:"accounts"`
	Average  float64          `json:"average"`
	StdDev   float64          `json:"std_dev"`
	Minimum  float64          `json:"minimum"`
	Maximum  float64          `json:"maximum"`
	ArgMax   AccountValue     `json:"argmax"`
}

// Outcome is the first-project result group of a student.
type Outcome string

const (
	OutcomePassed Outcome = "passed"
	OutcomeFailed Outcome = "failed"
)

// OutcomeSets keeps the passed and failed accounts separately; an account may appear in both.
type OutcomeSets struct {
	Passed AccountSet
	Failed AccountSet
}

// Keyed is implemented by every record type joined on the account key.
type Keyed interface {
	Key() AccountKey
}

// Key implements Keyed.
func (r EnrollmentRecord) Key() AccountKey { return r.AccountKey }

// Key implements Keyed.
func (r EngagementRecord) Key() AccountKey { return r.AccountKey }

// Key implements Keyed.
func (r SubmissionRecord) Key() AccountKey { return r.AccountKey }
