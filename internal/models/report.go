package models

import "time"

// HistogramRequest is handed to the rendering sink.
type HistogramRequest struct {
	Values     []float64 `json:"values"`
	ColumnName string    `json:"column_name"`
	Title      string    `json:"title"`
	Outcome    Outcome   `json:"outcome"`
}

// DatasetProfile counts rows and distinct accounts of one dataset.
type DatasetProfile struct {
	Dataset          Dataset `json:"dataset"`
	Rows             int     `json:"rows"`
	Accounts         int     `json:"accounts"`
	FilteredRows     int     `json:"filtered_rows"`
	FilteredAccounts int     `json:"filtered_accounts"`
}

// CohortProfile summarises the cohort as it moves through the funnel.
type CohortProfile struct {
	Datasets             []DatasetProfile `json:"datasets"`
	TestAccounts         int              `json:"test_accounts"`
	MissingEngagement    int              `json:"missing_engagement"`
	PaidStudents         int              `json:"paid_students"`
	FirstWeekRows        int              `json:"first_week_rows"`
	FirstWeekAccounts    int              `json:"first_week_accounts"`
	PassedAccounts       int              `json:"passed_accounts"`
	FailedAccounts       int              `json:"failed_accounts"`
	MixedOutcomeAccounts int              `json:"mixed_outcome_accounts"`
}

// OutcomeComparison holds the passed and failed statistics for a column.
type OutcomeComparison struct {
	Column EngagementColumn `json:"column"`
	Passed GroupStatistics  `json:"passed"`
	Failed GroupStatistics  `json:"failed"`
}

// FunnelReport is the full output of a pipeline run.
type FunnelReport struct {
	RunID       string              `json:"run_id"`
	GeneratedAt time.Time           `json:"generated_at"`
	Profile     CohortProfile       `json:"profile"`
	CohortStats []GroupStatistics   `json:"cohort_stats"`
	Comparisons []OutcomeComparison `json:"comparisons"`
	Histograms  []HistogramRequest  `json:"histograms"`
}
