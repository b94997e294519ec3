package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/engagement-funnel/internal/models"
)

// DatasetColumns lists the columns selected from each dataset's table.
var DatasetColumns = map[models.Dataset][]string{
	models.DatasetEnrollments: {"account_key", "status", "join_date", "cancel_date", "days_to_cancel", "is_udacity", "is_canceled"},
	models.DatasetEngagement:  {"acct", "utc_date", "num_courses_visited", "total_minutes_visited", "lessons_completed", "projects_completed"},
	models.DatasetSubmissions: {"creation_date", "completion_date", "assigned_rating", "account_key", "lesson_key", "processing_state"},
}

// flagColumns hold booleans; initcap turns PostgreSQL's "true" into the CSV spelling "True".
var flagColumns = map[string]bool{"is_udacity": true, "is_canceled": true}

type queryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// PostgresSource reads datasets from PostgreSQL tables. Every column is selected as text and
// NULL becomes the empty string, so rows look exactly like CSV rows.
type PostgresSource struct {
	db      *sqlx.DB
	tables  map[models.Dataset]string
	metrics queryObserver
}

// NewPostgresSource constructs a table-backed row source.
func NewPostgresSource(db *sqlx.DB, tables map[models.Dataset]string, metrics queryObserver) *PostgresSource {
	return &PostgresSource{db: db, tables: tables, metrics: metrics}
}

// Rows selects every row of the dataset's table.
func (s *PostgresSource) Rows(ctx context.Context, dataset models.Dataset) ([]models.RawRecord, error) {
	table, ok := s.tables[dataset]
	if !ok || table == "" {
		return nil, fmt.Errorf("no table configured for dataset %s", dataset)
	}
	columns, ok := DatasetColumns[dataset]
	if !ok {
		return nil, fmt.Errorf("unknown dataset %s", dataset)
	}

	query := selectAsText(table, columns)
	start := time.Now()
	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	records := make([]models.RawRecord, 0)
	values := make([]sql.NullString, len(columns))
	dest := make([]interface{}, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		record := make(models.RawRecord, len(columns))
		for i, column := range columns {
			record[column] = values[i].String
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery(string(dataset), time.Since(start))
	}
	return records, nil
}

func selectAsText(table string, columns []string) string {
	exprs := make([]string, len(columns))
	for i, column := range columns {
		quoted := pq.QuoteIdentifier(column)
		if flagColumns[column] {
			exprs[i] = "initcap(" + quoted + "::text) AS " + quoted
			continue
		}
		exprs[i] = quoted + "::text AS " + quoted
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(exprs, ", "), pq.QuoteIdentifier(table))
}
