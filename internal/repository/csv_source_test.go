package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/engagement-funnel/internal/models"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestCSVSourceRows(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "enrollments.csv", "\ufeffaccount_key,status,join_date,cancel_date,days_to_cancel,is_udacity,is_canceled\n"+
		"448,canceled,2014-11-10,2015-01-14,65,True,True\n"+
		"700,current,2014-11-12,,,False,False\n")

	source := NewCSVSource(dir, map[models.Dataset]string{models.DatasetEnrollments: "enrollments.csv"})
	rows, err := source.Rows(context.Background(), models.DatasetEnrollments)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "448", rows[0]["account_key"])
	assert.Equal(t, "True", rows[0]["is_udacity"])
	assert.Equal(t, "", rows[1]["cancel_date"])
	_, ok := rows[1]["days_to_cancel"]
	assert.True(t, ok, "empty cells keep their column")
}

func TestCSVSourceHeaderOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "subs.csv", "creation_date,completion_date,assigned_rating,account_key,lesson_key,processing_state\n")

	source := NewCSVSource(dir, map[models.Dataset]string{models.DatasetSubmissions: "subs.csv"})
	rows, err := source.Rows(context.Background(), models.DatasetSubmissions)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCSVSourceErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ragged.csv", "acct,utc_date\n1,2015-01-09,extra\n")

	source := NewCSVSource(dir, map[models.Dataset]string{
		models.DatasetEngagement:  "ragged.csv",
		models.DatasetEnrollments: "missing.csv",
	})

	_, err := source.Rows(context.Background(), models.DatasetEngagement)
	assert.Error(t, err)

	_, err = source.Rows(context.Background(), models.DatasetEnrollments)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = source.Rows(context.Background(), models.DatasetSubmissions)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = source.Rows(ctx, models.DatasetEngagement)
	assert.ErrorIs(t, err, context.Canceled)
}
