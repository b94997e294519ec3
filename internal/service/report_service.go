package service

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/engagement-funnel/internal/models"
	appErrors "github.com/noah-isme/engagement-funnel/pkg/errors"
	"github.com/noah-isme/engagement-funnel/pkg/export"
)

// Report artefact names inside a run directory.
const (
	summaryFile = "summary.csv"
	profileFile = "profile.csv"
	pdfFile     = "report.pdf"
	reportTitle = "First-week engagement funnel"
)

// HistogramRenderer is the rendering sink for histogram requests.
type HistogramRenderer interface {
	Render(values []float64, columnName, title string) ([]byte, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
}

type tableRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type documentRenderer interface {
	Render(title string, tables []export.Table, charts []export.Chart) ([]byte, error)
}

type reportPublisher interface {
	Enabled() bool
	Publish(ctx context.Context, report *models.FunnelReport) (string, error)
}

// ReportServiceParams groups constructor dependencies.
type ReportServiceParams struct {
	Storage    fileStorage
	Histograms HistogramRenderer
	CSV        tableRenderer
	PDF        documentRenderer
	Publisher  reportPublisher
	Logger     *zap.Logger
}

// ReportService turns a finished FunnelReport into files and publishes it.
type ReportService struct {
	storage    fileStorage
	histograms HistogramRenderer
	csv        tableRenderer
	pdf        documentRenderer
	publisher  reportPublisher
	logger     *zap.Logger
}

// RenderResult lists what a render produced.
type RenderResult struct {
	Files        []string `json:"files"`
	PublishedKey string   `json:"published_key,omitempty"`
}

// NewReportService constructs the report service.
func NewReportService(params ReportServiceParams) *ReportService {
	log := params.Logger
	if log == nil {
		log = zap.NewNop()
	}
	csv := params.CSV
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	pdf := params.PDF
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ReportService{
		storage:    params.Storage,
		histograms: params.Histograms,
		csv:        csv,
		pdf:        pdf,
		publisher:  params.Publisher,
		logger:     log,
	}
}

// Render writes one PNG per histogram request, the summary and profile CSVs and a PDF with
// everything under a directory named after the run, then publishes the report if enabled.
func (s *ReportService) Render(ctx context.Context, report *models.FunnelReport) (*RenderResult, error) {
	if report == nil || report.RunID == "" {
		return nil, appErrors.Clone(appErrors.ErrRender, "report without run id cannot be rendered")
	}
	if s.storage == nil {
		return nil, appErrors.Clone(appErrors.ErrRender, "no report storage configured")
	}
	log := s.logger.With(zap.String("run_id", report.RunID))
	result := &RenderResult{Files: make([]string, 0, len(report.Histograms)+3)}

	charts := make([]export.Chart, 0, len(report.Histograms))
	for i, req := range report.Histograms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.histograms == nil {
			break
		}
		png, err := s.histograms.Render(req.Values, req.ColumnName, req.Title)
		if err != nil {
			return nil, renderError(err, "render histogram "+req.Title)
		}
		name := path.Join(report.RunID, chartFileName(i, req))
		saved, err := s.storage.Save(name, png)
		if err != nil {
			return nil, renderError(err, "save histogram")
		}
		result.Files = append(result.Files, saved)
		charts = append(charts, export.Chart{Name: name, PNG: png})
	}

	summary := SummaryTable(report)
	profile := ProfileTable(report.Profile)
	for _, file := range []struct {
		name string
		data export.Dataset
	}{{summaryFile, summary}, {profileFile, profile}} {
		payload, err := s.csv.Render(file.data)
		if err != nil {
			return nil, renderError(err, "render "+file.name)
		}
		saved, err := s.storage.Save(path.Join(report.RunID, file.name), payload)
		if err != nil {
			return nil, renderError(err, "save "+file.name)
		}
		result.Files = append(result.Files, saved)
	}

	tables := []export.Table{
		{Heading: "Cohort profile", Data: profile},
		{Heading: "Engagement statistics", Data: summary},
	}
	doc, err := s.pdf.Render(fmt.Sprintf("%s %s", reportTitle, report.RunID), tables, charts)
	if err != nil {
		return nil, renderError(err, "render pdf")
	}
	saved, err := s.storage.Save(path.Join(report.RunID, pdfFile), doc)
	if err != nil {
		return nil, renderError(err, "save pdf")
	}
	result.Files = append(result.Files, saved)
	log.Info("report rendered", zap.Int("files", len(result.Files)), zap.Int("charts", len(charts)))

	if s.publisher != nil && s.publisher.Enabled() {
		key, err := s.publisher.Publish(ctx, report)
		if err != nil {
			return nil, err
		}
		result.PublishedKey = key
	}
	return result, nil
}

// SummaryTable lays out the cohort statistics followed by every passed/failed comparison.
func SummaryTable(report *models.FunnelReport) export.Dataset {
	data := export.NewDataset("group", "column", "accounts", "average", "std_dev", "minimum", "maximum", "argmax_account", "argmax_value")
	add := func(group string, st models.GroupStatistics) {
		data.Append(
			group,
			string(st.Column),
			strconv.Itoa(st.Accounts),
			formatFloat(st.Average),
			formatFloat(st.StdDev),
			formatFloat(st.Minimum),
			formatFloat(st.Maximum),
			strconv.FormatInt(int64(st.ArgMax.AccountKey), 10),
			formatFloat(st.ArgMax.Value),
		)
	}
	for _, st := range report.CohortStats {
		add("first_week", st)
	}
	for _, cmp := range report.Comparisons {
		add(string(models.OutcomePassed), cmp.Passed)
		add(string(models.OutcomeFailed), cmp.Failed)
	}
	return data
}

// ProfileTable flattens the cohort profile into metric/value rows.
func ProfileTable(p models.CohortProfile) export.Dataset {
	data := export.NewDataset("metric", "value")
	for _, ds := range p.Datasets {
		data.Append(string(ds.Dataset)+"_rows", strconv.Itoa(ds.Rows))
		data.Append(string(ds.Dataset)+"_accounts", strconv.Itoa(ds.Accounts))
		data.Append(string(ds.Dataset)+"_filtered_rows", strconv.Itoa(ds.FilteredRows))
		data.Append(string(ds.Dataset)+"_filtered_accounts", strconv.Itoa(ds.FilteredAccounts))
	}
	data.Append("test_accounts", strconv.Itoa(p.TestAccounts))
	data.Append("missing_engagement", strconv.Itoa(p.MissingEngagement))
	data.Append("paid_students", strconv.Itoa(p.PaidStudents))
	data.Append("first_week_rows", strconv.Itoa(p.FirstWeekRows))
	data.Append("first_week_accounts", strconv.Itoa(p.FirstWeekAccounts))
	data.Append("passed_accounts", strconv.Itoa(p.PassedAccounts))
	data.Append("failed_accounts", strconv.Itoa(p.FailedAccounts))
	data.Append("mixed_outcome_accounts", strconv.Itoa(p.MixedOutcomeAccounts))
	return data
}

func chartFileName(index int, req models.HistogramRequest) string {
	return fmt.Sprintf("%02d_%s_%s.png", index+1, req.Outcome, strings.ReplaceAll(req.ColumnName, " ", "_"))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func renderError(err error, message string) *appErrors.Error {
	return appErrors.Wrap(err, appErrors.ErrRender.Code, appErrors.ErrRender.ExitCode, message)
}
