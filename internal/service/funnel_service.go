package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/engagement-funnel/internal/models"
	appErrors "github.com/noah-isme/engagement-funnel/pkg/errors"
	"github.com/noah-isme/engagement-funnel/pkg/logger"
)

// RowSource yields the fully materialised raw rows of one dataset.
type RowSource interface {
	Rows(ctx context.Context, dataset models.Dataset) ([]models.RawRecord, error)
}

// FunnelServiceConfig tunes which columns are analysed.
type FunnelServiceConfig struct {
	// CohortColumns are described over the whole first-week cohort.
	CohortColumns []models.EngagementColumn
	// ComparedColumns are described per outcome group and plotted.
	ComparedColumns []models.EngagementColumn
}

// DefaultAnalysedColumns are the columns the funnel reports on unless configured otherwise.
var DefaultAnalysedColumns = []models.EngagementColumn{
	models.ColumnTotalMinutesVisited,
	models.ColumnLessonsCompleted,
	models.ColumnDaysVisited,
}

// FunnelServiceParams groups constructor dependencies.
type FunnelServiceParams struct {
	Source  RowSource
	Metrics *MetricsService
	Logger  *zap.Logger
	Config  FunnelServiceConfig
}

// FunnelService runs the first-week engagement funnel end to end on a single goroutine.
type FunnelService struct {
	source  RowSource
	metrics *MetricsService
	logger  *zap.Logger
	cfg     FunnelServiceConfig
	now     func() time.Time
	newID   func() string
}

// NewFunnelService constructs a FunnelService with sane defaults.
func NewFunnelService(params FunnelServiceParams) *FunnelService {
	cfg := params.Config
	if len(cfg.CohortColumns) == 0 {
		cfg.CohortColumns = DefaultAnalysedColumns
	}
	if len(cfg.ComparedColumns) == 0 {
		cfg.ComparedColumns = DefaultAnalysedColumns
	}
	log := params.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &FunnelService{
		source:  params.Source,
		metrics: params.Metrics,
		logger:  log,
		cfg:     cfg,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

type rawDatasets struct {
	enrollments []models.RawRecord
	engagements []models.RawRecord
	submissions []models.RawRecord
}

type typedDatasets struct {
	enrollments []models.EnrollmentRecord
	engagements []models.EngagementRecord
	submissions []models.SubmissionRecord
}

// Run executes every stage in order. Each stage finishes before the next starts and
// produces new collections; the first failure aborts the run.
func (s *FunnelService) Run(ctx context.Context) (*models.FunnelReport, error) {
	report := &models.FunnelReport{RunID: s.newID(), GeneratedAt: s.now().UTC()}
	log := logger.WithRun(s.logger, report.RunID)
	log.Info("funnel run started")

	err := s.run(ctx, log, report)
	s.metrics.RecordRun(err == nil)
	if err != nil {
		log.Error("funnel run failed", zap.Error(err))
		return nil, err
	}

	log.Info("funnel run finished",
		zap.Int("paid_students", report.Profile.PaidStudents),
		zap.Int("first_week_accounts", report.Profile.FirstWeekAccounts),
		zap.Int("passed_accounts", report.Profile.PassedAccounts),
		zap.Int("failed_accounts", report.Profile.FailedAccounts),
	)
	return report, nil
}

func (s *FunnelService) run(ctx context.Context, log *zap.Logger, report *models.FunnelReport) error {
	var raw rawDatasets
	if err := s.stage(log, "fetch", func() error {
		var err error
		raw, err = s.fetch(ctx)
		return err
	}); err != nil {
		return err
	}

	var loaded typedDatasets
	if err := s.stage(log, "load", func() error {
		var err error
		loaded, err = load(raw)
		return err
	}); err != nil {
		return err
	}
	s.observeRows("loaded", loaded)
	missingEngagement := CountMissingEngagement(loaded.enrollments, loaded.engagements)

	var (
		filtered     typedDatasets
		testAccounts models.AccountSet
	)
	_ = s.stage(log, "filter_test_accounts", func() error {
		testAccounts = TestAccounts(loaded.enrollments)
		filtered = typedDatasets{
			enrollments: RemoveTestEnrollments(loaded.enrollments, testAccounts),
			engagements: RemoveTestEngagements(loaded.engagements, testAccounts),
			submissions: RemoveTestSubmissions(loaded.submissions, testAccounts),
		}
		return nil
	})
	s.observeRows("filtered", filtered)

	var (
		paid      models.PaidStudentMap
		firstWeek []models.EngagementRecord
	)
	_ = s.stage(log, "join_cohort", func() error {
		paid = PaidStudents(filtered.enrollments)
		firstWeek = FirstWeekEngagement(filtered.engagements, paid)
		return nil
	})
	s.metrics.SetRows(models.DatasetEngagement, "first_week", len(firstWeek))
	cohort := AccountsOf(firstWeek)

	if err := s.stage(log, "describe_cohort", func() error {
		stats, err := describeColumns("first_week", firstWeek, s.cfg.CohortColumns)
		report.CohortStats = stats
		return err
	}); err != nil {
		return err
	}

	var (
		outcomes       models.OutcomeSets
		passed, failed []models.EngagementRecord
	)
	_ = s.stage(log, "classify_outcomes", func() error {
		outcomes = ClassifySubmissions(filtered.submissions, cohort)
		passed, failed = SplitByOutcome(firstWeek, outcomes)
		return nil
	})

	if err := s.stage(log, "compare_outcomes", func() error {
		var err error
		report.Comparisons, report.Histograms, err = compareOutcomes(passed, failed, s.cfg.ComparedColumns)
		return err
	}); err != nil {
		return err
	}

	report.Profile = models.CohortProfile{
		Datasets: []models.DatasetProfile{
			profileDataset(models.DatasetEnrollments, loaded.enrollments, filtered.enrollments),
			profileDataset(models.DatasetEngagement, loaded.engagements, filtered.engagements),
			profileDataset(models.DatasetSubmissions, loaded.submissions, filtered.submissions),
		},
		TestAccounts:         len(testAccounts),
		MissingEngagement:    missingEngagement,
		PaidStudents:         len(paid),
		FirstWeekRows:        len(firstWeek),
		FirstWeekAccounts:    len(cohort),
		PassedAccounts:       UniqueAccounts(passed),
		FailedAccounts:       UniqueAccounts(failed),
		MixedOutcomeAccounts: CountMixedOutcomes(outcomes),
	}
	return nil
}

func (s *FunnelService) stage(log *zap.Logger, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	s.metrics.ObserveStage(name, elapsed, err)
	if err != nil {
		log.Error("stage failed", zap.String("stage", name), zap.Duration("elapsed", elapsed), zap.Error(err))
		return err
	}
	log.Debug("stage finished", zap.String("stage", name), zap.Duration("elapsed", elapsed))
	return nil
}

func (s *FunnelService) fetch(ctx context.Context) (rawDatasets, error) {
	if s.source == nil {
		return rawDatasets{}, appErrors.Clone(appErrors.ErrSource, "no row source configured")
	}
	fetched := make(map[models.Dataset][]models.RawRecord, len(models.Datasets))
	for _, ds := range models.Datasets {
		rows, err := s.source.Rows(ctx, ds)
		if err != nil {
			var appErr *appErrors.Error
			if errors.As(err, &appErr) {
				return rawDatasets{}, err
			}
			wrapped := appErrors.Wrap(err, appErrors.ErrSource.Code, appErrors.ErrSource.ExitCode, "read dataset")
			wrapped.Dataset = string(ds)
			return rawDatasets{}, wrapped
		}
		fetched[ds] = rows
		s.metrics.SetRows(ds, "raw", len(rows))
	}
	return rawDatasets{
		enrollments: fetched[models.DatasetEnrollments],
		engagements: fetched[models.DatasetEngagement],
		submissions: fetched[models.DatasetSubmissions],
	}, nil
}

func (s *FunnelService) observeRows(stage string, d typedDatasets) {
	s.metrics.SetRows(models.DatasetEnrollments, stage, len(d.enrollments))
	s.metrics.SetRows(models.DatasetEngagement, stage, len(d.engagements))
	s.metrics.SetRows(models.DatasetSubmissions, stage, len(d.submissions))
}

func load(raw rawDatasets) (typedDatasets, error) {
	enrollments, err := LoadEnrollments(raw.enrollments)
	if err != nil {
		return typedDatasets{}, err
	}
	engagements, err := LoadEngagements(raw.engagements)
	if err != nil {
		return typedDatasets{}, err
	}
	submissions, err := LoadSubmissions(raw.submissions)
	if err != nil {
		return typedDatasets{}, err
	}
	return typedDatasets{enrollments: enrollments, engagements: engagements, submissions: submissions}, nil
}

func describeColumns(group string, records []models.EngagementRecord, columns []models.EngagementColumn) ([]models.GroupStatistics, error) {
	stats := make([]models.GroupStatistics, 0, len(columns))
	for _, column := range columns {
		st, err := SummarizeColumn(group, records, column)
		if err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	return stats, nil
}

func compareOutcomes(passed, failed []models.EngagementRecord, columns []models.EngagementColumn) ([]models.OutcomeComparison, []models.HistogramRequest, error) {
	comparisons := make([]models.OutcomeComparison, 0, len(columns))
	histograms := make([]models.HistogramRequest, 0, 2*len(columns))
	for _, column := range columns {
		passedStats, err := SummarizeColumn(string(models.OutcomePassed), passed, column)
		if err != nil {
			return nil, nil, err
		}
		failedStats, err := SummarizeColumn(string(models.OutcomeFailed), failed, column)
		if err != nil {
			return nil, nil, err
		}
		comparisons = append(comparisons, models.OutcomeComparison{Column: column, Passed: passedStats, Failed: failedStats})

		for _, group := range []struct {
			outcome models.Outcome
			rows    []models.EngagementRecord
		}{{models.OutcomePassed, passed}, {models.OutcomeFailed, failed}} {
			req, err := histogramRequest(group.outcome, group.rows, column)
			if err != nil {
				return nil, nil, err
			}
			histograms = append(histograms, req)
		}
	}
	return comparisons, histograms, nil
}

// histogramRequest plots one value per engagement row of the group.
func histogramRequest(outcome models.Outcome, rows []models.EngagementRecord, column models.EngagementColumn) (models.HistogramRequest, error) {
	values, err := ColumnValues(rows, column)
	if err != nil {
		return models.HistogramRequest{}, err
	}
	return models.HistogramRequest{
		Values:     values,
		ColumnName: string(column),
		Title:      fmt.Sprintf("%s students %s", outcomeTitle(outcome), column.Label()),
		Outcome:    outcome,
	}, nil
}

func outcomeTitle(o models.Outcome) string {
	if o == models.OutcomePassed {
		return "Passed"
	}
	return "Failed"
}
