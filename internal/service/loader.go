package service

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/noah-isme/engagement-funnel/internal/models"
	appErrors "github.com/noah-isme/engagement-funnel/pkg/errors"
)

const (
	// DateLayout is the only accepted date format (YYYY-MM-DD).
	DateLayout = "2006-01-02"
	// TrueToken is the canonical spelling of true in the boolean columns. Any other value is false.
	TrueToken = "True"
)

// ParseDate parses a YYYY-MM-DD date. An empty string is "no date" and yields the zero time.
func ParseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, raw)
}

// ParseFlag is an exact match against TrueToken. It is not a general boolean parser:
// "true", "1" and malformed values are all false.
func ParseFlag(raw string) bool {
	return raw == TrueToken
}

// ParseInt parses a column that always holds a plain integer.
func ParseInt(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

// ParseTruncatedInt parses a column that may arrive as "3.0" and truncates toward zero.
func ParseTruncatedInt(raw string) (int, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a finite number", raw)
	}
	return int(f), nil
}

// ParseFloat parses a fractional column.
func ParseFloat(raw string) (float64, error) {
	return strconv.ParseFloat(raw, 64)
}

// rowReader coerces columns of one raw record. The first failure sticks and later reads become no-ops.
type rowReader struct {
	dataset models.Dataset
	row     int
	raw     models.RawRecord
	err     error
}

func newRowReader(dataset models.Dataset, index int, raw models.RawRecord) *rowReader {
	return &rowReader{dataset: dataset, row: index + 1, raw: raw}
}

func (r *rowReader) str(column string) string {
	if r.err != nil {
		return ""
	}
	v, ok := r.raw[column]
	if !ok {
		r.err = appErrors.NewSchemaError(string(r.dataset), column, r.row)
		return ""
	}
	return v
}

func (r *rowReader) fail(column, value string, err error) {
	r.err = appErrors.NewParseError(string(r.dataset), column, value, r.row, err)
}

func (r *rowReader) date(column string) time.Time {
	raw := r.str(column)
	if r.err != nil {
		return time.Time{}
	}
	t, err := ParseDate(raw)
	if err != nil {
		r.fail(column, raw, err)
	}
	return t
}

func (r *rowReader) flag(column string) bool {
	return ParseFlag(r.str(column))
}

func (r *rowReader) int64(column string) int64 {
	raw := r.str(column)
	if r.err != nil {
		return 0
	}
	v, err := ParseInt(raw)
	if err != nil {
		r.fail(column, raw, err)
	}
	return v
}

func (r *rowReader) truncated(column string) int {
	raw := r.str(column)
	if r.err != nil {
		return 0
	}
	v, err := ParseTruncatedInt(raw)
	if err != nil {
		r.fail(column, raw, err)
	}
	return v
}

func (r *rowReader) float(column string) float64 {
	raw := r.str(column)
	if r.err != nil {
		return 0
	}
	v, err := ParseFloat(raw)
	if err != nil {
		r.fail(column, raw, err)
	}
	return v
}

// LoadEnrollments coerces raw enrollment rows. cancel_date and days_to_cancel are only read for canceled rows.
func LoadEnrollments(rows []models.RawRecord) ([]models.EnrollmentRecord, error) {
	records := make([]models.EnrollmentRecord, 0, len(rows))
	for i, raw := range rows {
		r := newRowReader(models.DatasetEnrollments, i, raw)
		rec := models.EnrollmentRecord{
			AccountKey: models.AccountKey(r.int64("account_key")),
			JoinDate:   r.date("join_date"),
			Status:     models.Active{},
		}
		canceled := r.flag("is_canceled")
		rec.IsUdacity = r.flag("is_udacity")
		if canceled {
			rec.Status = models.Canceled{
				CancelDate:   r.date("cancel_date"),
				DaysToCancel: int(r.int64("days_to_cancel")),
			}
		}
		if r.err != nil {
			return nil, r.err
		}
		records = append(records, rec)
	}
	return records, nil
}

// LoadEngagements coerces raw daily engagement rows. The source's acct column becomes AccountKey.
func LoadEngagements(rows []models.RawRecord) ([]models.EngagementRecord, error) {
	records := make([]models.EngagementRecord, 0, len(rows))
	for i, raw := range rows {
		r := newRowReader(models.DatasetEngagement, i, raw)
		rec := models.EngagementRecord{
			AccountKey:          models.AccountKey(r.int64("acct")),
			UTCDate:             r.date("utc_date"),
			NumCoursesVisited:   r.truncated("num_courses_visited"),
			TotalMinutesVisited: r.float("total_minutes_visited"),
			LessonsCompleted:    r.truncated("lessons_completed"),
			ProjectsCompleted:   r.truncated("projects_completed"),
		}
		if r.err != nil {
			return nil, r.err
		}
		records = append(records, rec)
	}
	return records, nil
}

// LoadSubmissions coerces raw project submission rows.
func LoadSubmissions(rows []models.RawRecord) ([]models.SubmissionRecord, error) {
	records := make([]models.SubmissionRecord, 0, len(rows))
	for i, raw := range rows {
		r := newRowReader(models.DatasetSubmissions, i, raw)
		rec := models.SubmissionRecord{
			AccountKey:     models.AccountKey(r.int64("account_key")),
			LessonKey:      r.int64("lesson_key"),
			CreationDate:   r.date("creation_date"),
			CompletionDate: r.date("completion_date"),
			AssignedRating: models.Rating(r.str("assigned_rating")),
		}
		if r.err != nil {
			return nil, r.err
		}
		records = append(records, rec)
	}
	return records, nil
}
