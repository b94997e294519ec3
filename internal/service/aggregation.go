package service

import (
	"fmt"
	"math"

	"github.com/noah-isme/engagement-funnel/internal/models"
	appErrors "github.com/noah-isme/engagement-funnel/pkg/errors"
)

// GroupBy buckets items by key. Keys are returned in order of first appearance so callers iterate deterministically.
func GroupBy[T any, K comparable](items []T, key func(T) K) ([]K, map[K][]T) {
	order := make([]K, 0)
	groups := make(map[K][]T)
	for _, item := range items {
		k := key(item)
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], item)
	}
	return order, groups
}

// SumByAccount totals a column per account, in order of first appearance.
func SumByAccount(records []models.EngagementRecord, column models.EngagementColumn) ([]models.AccountValue, error) {
	order, groups := GroupBy(records, models.EngagementRecord.Key)
	sums := make([]models.AccountValue, 0, len(order))
	for _, key := range order {
		var total float64
		for _, r := range groups[key] {
			v, err := column.Value(r)
			if err != nil {
				return nil, err
			}
			total += v
		}
		sums = append(sums, models.AccountValue{AccountKey: key, Value: total})
	}
	return sums, nil
}

// Describe computes mean, population standard deviation, min, max and arg-max over per-account values.
// The arg-max keeps the first account on ties.
func Describe(values []models.AccountValue) (models.GroupStatistics, error) {
	if len(values) == 0 {
		return models.GroupStatistics{}, appErrors.Clone(appErrors.ErrEmptyGroup, "")
	}

	n := float64(len(values))
	stats := models.GroupStatistics{
		Accounts: len(values),
		Minimum:  values[0].Value,
		Maximum:  values[0].Value,
		ArgMax:   values[0],
	}

	var sum float64
	for _, v := range values {
		sum += v.Value
		if v.Value < stats.Minimum {
			stats.Minimum = v.Value
		}
		if v.Value > stats.ArgMax.Value {
			stats.ArgMax = v
		}
	}
	stats.Maximum = stats.ArgMax.Value
	stats.Average = sum / n

	var squares float64
	for _, v := range values {
		d := v.Value - stats.Average
		squares += d * d
	}
	stats.StdDev = math.Sqrt(squares / n)

	return stats, nil
}

// SummarizeColumn sums column per account and describes the sums. group names the population in errors.
func SummarizeColumn(group string, records []models.EngagementRecord, column models.EngagementColumn) (models.GroupStatistics, error) {
	if len(records) == 0 {
		return models.GroupStatistics{}, appErrors.NewEmptyGroupError(group)
	}
	sums, err := SumByAccount(records, column)
	if err != nil {
		return models.GroupStatistics{}, fmt.Errorf("sum %s for %s: %w", column, group, err)
	}
	stats, err := Describe(sums)
	if err != nil {
		return models.GroupStatistics{}, fmt.Errorf("describe %s for %s: %w", column, group, err)
	}
	stats.Column = column
	return stats, nil
}

// ColumnValues lists the column value of every record, one per row.
func ColumnValues(records []models.EngagementRecord, column models.EngagementColumn) ([]float64, error) {
	values := make([]float64, 0, len(records))
	for _, r := range records {
		v, err := column.Value(r)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}
