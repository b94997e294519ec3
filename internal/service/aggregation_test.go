package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/engagement-funnel/internal/models"
	appErrors "github.com/noah-isme/engagement-funnel/pkg/errors"
)

func TestGroupByKeepsFirstAppearanceOrder(t *testing.T) {
	items := []string{"b1", "a1", "b2", "c1", "a2"}
	order, groups := GroupBy(items, func(s string) byte { return s[0] })

	assert.Equal(t, []byte{'b', 'a', 'c'}, order)
	assert.Equal(t, []string{"b1", "b2"}, groups['b'])
	assert.Equal(t, []string{"a1", "a2"}, groups['a'])
	assert.Equal(t, []string{"c1"}, groups['c'])
}

func TestSumByAccount(t *testing.T) {
	records := []models.EngagementRecord{
		{AccountKey: 7, TotalMinutesVisited: 1.5, LessonsCompleted: 1},
		{AccountKey: 3, TotalMinutesVisited: 0, LessonsCompleted: 2},
		{AccountKey: 7, TotalMinutesVisited: 2.5, LessonsCompleted: 0},
	}

	minutes, err := SumByAccount(records, models.ColumnTotalMinutesVisited)
	require.NoError(t, err)
	assert.Equal(t, []models.AccountValue{{AccountKey: 7, Value: 4}, {AccountKey: 3, Value: 0}}, minutes)

	days, err := SumByAccount(records, models.ColumnDaysVisited)
	require.NoError(t, err)
	assert.Equal(t, []models.AccountValue{{AccountKey: 7, Value: 2}, {AccountKey: 3, Value: 0}}, days)

	_, err = SumByAccount(records, models.EngagementColumn("unknown"))
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	stats, err := Describe([]models.AccountValue{
		{AccountKey: 10, Value: 2},
		{AccountKey: 11, Value: 4},
		{AccountKey: 12, Value: 6},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Accounts)
	assert.InDelta(t, 4.0, stats.Average, 1e-9)
	assert.InDelta(t, 1.632993, stats.StdDev, 1e-6)
	assert.Equal(t, 2.0, stats.Minimum)
	assert.Equal(t, 6.0, stats.Maximum)
	assert.Equal(t, models.AccountValue{AccountKey: 12, Value: 6}, stats.ArgMax)
}

func TestDescribeArgMaxTieKeepsFirst(t *testing.T) {
	stats, err := Describe([]models.AccountValue{
		{AccountKey: 5, Value: 9},
		{AccountKey: 2, Value: 9},
		{AccountKey: 8, Value: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, models.AccountKey(5), stats.ArgMax.AccountKey)
}

func TestDescribeAllZero(t *testing.T) {
	stats, err := Describe([]models.AccountValue{{AccountKey: 1}, {AccountKey: 2}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, stats.Average)
	assert.Equal(t, 0.0, stats.StdDev)
	assert.Equal(t, models.AccountKey(1), stats.ArgMax.AccountKey)
}

func TestDescribeEmpty(t *testing.T) {
	_, err := Describe(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrEmptyGroup)
}

func TestSummarizeColumnEmptyGroup(t *testing.T) {
	_, err := SummarizeColumn("passed", nil, models.ColumnLessonsCompleted)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrEmptyGroup)
	assert.Contains(t, err.Error(), `"passed"`)
}

func TestSummarizeColumn(t *testing.T) {
	records := []models.EngagementRecord{
		{AccountKey: 1, TotalMinutesVisited: 5},
		{AccountKey: 2, TotalMinutesVisited: 20},
		{AccountKey: 1, TotalMinutesVisited: 10},
	}
	stats, err := SummarizeColumn("first_week", records, models.ColumnTotalMinutesVisited)
	require.NoError(t, err)
	assert.Equal(t, models.ColumnTotalMinutesVisited, stats.Column)
	assert.Equal(t, 2, stats.Accounts)
	assert.InDelta(t, 17.5, stats.Average, 1e-9)
	assert.InDelta(t, 2.5, stats.StdDev, 1e-9)
	assert.Equal(t, models.AccountValue{AccountKey: 2, Value: 20}, stats.ArgMax)
}

func TestColumnValuesOnePerRow(t *testing.T) {
	values, err := ColumnValues([]models.EngagementRecord{
		{AccountKey: 1, LessonsCompleted: 2},
		{AccountKey: 1, LessonsCompleted: 3},
	}, models.ColumnLessonsCompleted)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3}, values)
}
