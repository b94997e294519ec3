package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/noah-isme/engagement-funnel/internal/models"
	"github.com/noah-isme/engagement-funnel/internal/repository"
	"github.com/noah-isme/engagement-funnel/internal/service"
	"github.com/noah-isme/engagement-funnel/pkg/cache"
	"github.com/noah-isme/engagement-funnel/pkg/config"
	"github.com/noah-isme/engagement-funnel/pkg/database"
	appErrors "github.com/noah-isme/engagement-funnel/pkg/errors"
	"github.com/noah-isme/engagement-funnel/pkg/export"
	"github.com/noah-isme/engagement-funnel/pkg/logger"
	"github.com/noah-isme/engagement-funnel/pkg/storage"
)

type options struct {
	dataDir  string
	outDir   string
	source   string
	noRender bool
	asJSON   bool
	latest   bool
}

func main() {
	var opts options
	flag.StringVar(&opts.dataDir, "data-dir", "", "Directory holding the CSV datasets (overrides FUNNEL_DATA_DIR)")
	flag.StringVar(&opts.outDir, "out", "", "Directory for rendered reports (overrides REPORTS_STORAGE_DIR)")
	flag.StringVar(&opts.source, "source", "", "Row source: csv or postgres (overrides FUNNEL_SOURCE)")
	flag.BoolVar(&opts.noRender, "no-render", false, "Skip histogram, CSV and PDF rendering")
	flag.BoolVar(&opts.asJSON, "json", false, "Print the full report as JSON instead of a summary")
	flag.BoolVar(&opts.latest, "latest", false, "Print the last published report from Redis and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Printf("failed to load config: %v", err)
		os.Exit(appErrors.FromError(err).ExitCode)
	}
	if err := applyFlags(cfg, opts); err != nil {
		log.Printf("invalid flags: %v", err)
		os.Exit(appErrors.FromError(err).ExitCode)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, logr, os.Stdout); err != nil {
		appErr := appErrors.FromError(err)
		logr.Error("funnel failed",
			zap.String("code", appErr.Code),
			zap.String("dataset", appErr.Dataset),
			zap.String("column", appErr.Column),
			zap.Int("row", appErr.Row),
			zap.Error(err),
		)
		_ = logr.Sync()
		os.Exit(appErr.ExitCode)
	}
}

func applyFlags(cfg *config.Config, opts options) error {
	if opts.dataDir != "" {
		cfg.Source.DataDir = opts.dataDir
	}
	if opts.source != "" {
		cfg.Source.Kind = strings.ToLower(opts.source)
	}
	if opts.outDir != "" {
		cfg.Reports.StorageDir = opts.outDir
	}
	if opts.noRender {
		cfg.Reports.Enabled = false
	}
	if opts.latest && !cfg.Publish.Enabled {
		return appErrors.Clone(appErrors.ErrConfig, "-latest requires ENABLE_PUBLISH=true")
	}
	return cfg.Validate()
}

func run(ctx context.Context, cfg *config.Config, opts options, logr *zap.Logger, out io.Writer) error {
	metrics := service.NewMetricsService()
	defer func() {
		if err := metrics.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			logr.Warn("write metrics textfile", zap.Error(err))
		}
	}()

	publisher, closePublisher, err := newPublisher(ctx, cfg, metrics, logr)
	if err != nil {
		return err
	}
	defer closePublisher()

	if opts.latest {
		report, err := publisher.Latest(ctx)
		if err != nil {
			return err
		}
		return writeJSON(out, report)
	}

	source, closeSource, err := newRowSource(ctx, cfg, metrics)
	if err != nil {
		return err
	}
	defer closeSource()

	columns := make([]models.EngagementColumn, 0, len(cfg.Source.Columns))
	for _, c := range cfg.Source.Columns {
		columns = append(columns, models.EngagementColumn(c))
	}
	funnel := service.NewFunnelService(service.FunnelServiceParams{
		Source:  source,
		Metrics: metrics,
		Logger:  logr,
		Config:  service.FunnelServiceConfig{ComparedColumns: columns},
	})

	report, err := funnel.Run(ctx)
	if err != nil {
		return err
	}

	if cfg.Reports.Enabled {
		files, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrRender.Code, appErrors.ErrRender.ExitCode, "prepare report storage")
		}
		reports := service.NewReportService(service.ReportServiceParams{
			Storage: files,
			Histograms: export.NewHistogramExporter(export.HistogramOptions{
				Width:    cfg.Reports.ChartWidth,
				Height:   cfg.Reports.ChartHeight,
				Bins:     cfg.Reports.HistogramBins,
				FontPath: cfg.Reports.FontPath,
			}),
			Publisher: publisher,
			Logger:    logr,
		})
		result, err := reports.Render(ctx, report)
		if err != nil {
			return err
		}
		logr.Info("report written", zap.String("dir", files.Path(report.RunID)), zap.Strings("files", result.Files))
	} else if publisher.Enabled() {
		if _, err := publisher.Publish(ctx, report); err != nil {
			return err
		}
	}

	if opts.asJSON {
		return writeJSON(out, report)
	}
	printSummary(out, report)
	return nil
}

func newRowSource(ctx context.Context, cfg *config.Config, metrics *service.MetricsService) (service.RowSource, func(), error) {
	switch cfg.Source.Kind {
	case config.SourcePostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrSource.Code, appErrors.ErrSource.ExitCode, "connect to postgres")
		}
		tables := map[models.Dataset]string{
			models.DatasetEnrollments: cfg.Source.EnrollmentsTable,
			models.DatasetEngagement:  cfg.Source.EngagementTable,
			models.DatasetSubmissions: cfg.Source.SubmissionsTable,
		}
		return repository.NewPostgresSource(db, tables, metrics), func() { _ = db.Close() }, nil
	case config.SourceCSV:
		files := map[models.Dataset]string{
			models.DatasetEnrollments: cfg.Source.EnrollmentsFile,
			models.DatasetEngagement:  cfg.Source.EngagementFile,
			models.DatasetSubmissions: cfg.Source.SubmissionsFile,
		}
		return repository.NewCSVSource(cfg.Source.DataDir, files), func() {}, nil
	default:
		return nil, nil, appErrors.Clone(appErrors.ErrConfig, fmt.Sprintf("unknown source %q", cfg.Source.Kind))
	}
}

func newPublisher(ctx context.Context, cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) (*service.PublishService, func(), error) {
	if !cfg.Publish.Enabled {
		return service.NewPublishService(nil, cfg.Publish.KeyPrefix, cfg.Publish.TTL, metrics, logr), func() {}, nil
	}
	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrSource.Code, appErrors.ErrSource.ExitCode, "connect to redis")
	}
	repo := repository.NewReportCacheRepository(client, logr)
	return service.NewPublishService(repo, cfg.Publish.KeyPrefix, cfg.Publish.TTL, metrics, logr), func() { _ = repo.Close() }, nil
}

func writeJSON(out io.Writer, report *models.FunnelReport) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.ExitCode, "encode report")
	}
	return nil
}

func printSummary(out io.Writer, report *models.FunnelReport) {
	p := report.Profile
	fmt.Fprintf(out, "Run %s\n", report.RunID)
	for _, ds := range p.Datasets {
		fmt.Fprintf(out, "  %-20s rows=%d accounts=%d (after test filter: rows=%d accounts=%d)\n",
			ds.Dataset, ds.Rows, ds.Accounts, ds.FilteredRows, ds.FilteredAccounts)
	}
	fmt.Fprintf(out, "  test accounts: %d, missing engagement: %d\n", p.TestAccounts, p.MissingEngagement)
	fmt.Fprintf(out, "  paid students: %d, first-week rows: %d, first-week accounts: %d\n", p.PaidStudents, p.FirstWeekRows, p.FirstWeekAccounts)
	fmt.Fprintf(out, "  passed: %d, failed: %d, mixed outcomes: %d\n", p.PassedAccounts, p.FailedAccounts, p.MixedOutcomeAccounts)

	fmt.Fprintln(out, "\nFirst week")
	for _, st := range report.CohortStats {
		printStats(out, "", st)
	}
	for _, cmp := range report.Comparisons {
		fmt.Fprintf(out, "\n%s\n", cmp.Column)
		printStats(out, "passed", cmp.Passed)
		printStats(out, "failed", cmp.Failed)
	}
}

func printStats(out io.Writer, label string, st models.GroupStatistics) {
	if label == "" {
		label = string(st.Column)
	}
	fmt.Fprintf(out, "  %-22s mean=%.6f std=%.6f min=%g max=%g argmax=%d (%g)\n",
		label, st.Average, st.StdDev, st.Minimum, st.Maximum, st.ArgMax.AccountKey, st.ArgMax.Value)
}
