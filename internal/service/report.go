package service

import (
	"context"
	"fmt"
	"time"

	"github.com/templui/feedbackdesk/internal/export"
	"github.com/templui/feedbackdesk/internal/model"
	"github.com/templui/feedbackdesk/internal/report"
	"github.com/templui/feedbackdesk/internal/repository"
	"golang.org/x/sync/errgroup"
)

// ReportService serves the list page, the exports and the dashboard
// statistics. Every read goes through the same compiled filter.
type ReportService struct {
	feedbackRepository repository.FeedbackRepository
	loc                *time.Location
	now                func() time.Time
}

func NewReportService(feedbackRepository repository.FeedbackRepository, loc *time.Location) *ReportService {
	return &ReportService{
		feedbackRepository: feedbackRepository,
		loc:                loc,
		now:                time.Now,
	}
}

func (s *ReportService) Location() *time.Location {
	return s.loc
}

type ListResult struct {
	Rows []*model.FeedbackRow
	Page report.Page
}

// List returns one page of the filtered listing. Out of range page numbers
// are clamped.
func (s *ReportService) List(ctx context.Context, filter report.Filter, rawPage string) (*ListResult, error) {
	total, err := s.feedbackRepository.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count feedbacks: %w", err)
	}

	page := report.NewPage(rawPage, total, report.PageSize)

	rows, err := s.feedbackRepository.Rows(ctx, filter, page.Size, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list feedbacks: %w", err)
	}

	return &ListResult{Rows: rows, Page: page}, nil
}

// ExportRows returns filtered rows in listing order. limit <= 0 means all.
func (s *ReportService) ExportRows(ctx context.Context, filter report.Filter, limit int) ([]*model.FeedbackRow, error) {
	rows, err := s.feedbackRepository.Rows(ctx, filter, limit, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load export rows: %w", err)
	}
	return rows, nil
}

// Month resolves a raw month parameter, defaulting to the current month.
func (s *ReportService) Month(raw string) string {
	return report.MonthOrCurrent(raw, s.now(), s.loc)
}

func (s *ReportService) monthRecords(ctx context.Context, month string, filter report.Filter) ([]*model.Feedback, time.Time, time.Time, error) {
	start, end, err := report.MonthBounds(s.Month(month), s.loc)
	if err != nil {
		return nil, time.Time{}, time.Time{}, err
	}

	records, err := s.feedbackRepository.CreatedBetween(ctx, filter, start, end)
	if err != nil {
		return nil, start, end, fmt.Errorf("failed to load month: %w", err)
	}

	return records, start, end, nil
}

// Summary aggregates the month intersected with filter.
// A malformed month yields report.ErrInvalidMonth.
func (s *ReportService) Summary(ctx context.Context, month string, filter report.Filter) (report.Summary, error) {
	records, _, _, err := s.monthRecords(ctx, month, filter)
	if err != nil {
		return report.Summary{}, err
	}
	return report.Summarize(records), nil
}

func (s *ReportService) Breakdown(ctx context.Context, month string, filter report.Filter) (report.Breakdown, error) {
	records, _, _, err := s.monthRecords(ctx, month, filter)
	if err != nil {
		return report.Breakdown{}, err
	}
	return report.NewBreakdown(records), nil
}

func (s *ReportService) Timeseries(ctx context.Context, month string, filter report.Filter) (report.Series, error) {
	records, start, end, err := s.monthRecords(ctx, month, filter)
	if err != nil {
		return report.Series{}, err
	}
	return report.DailySeries(records, start, end, s.loc), nil
}

// Recent is the dashboard feed: the newest records regardless of filters.
func (s *ReportService) Recent(ctx context.Context) ([]report.RecentItem, error) {
	rows, err := s.feedbackRepository.Rows(ctx, report.Filter{}, report.RecentLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent feedbacks: %w", err)
	}

	records := make([]*model.Feedback, 0, len(rows))
	for _, row := range rows {
		records = append(records, &row.Feedback)
	}
	return report.RecentItems(records, s.loc), nil
}

// MonthReport loads the PDF data: the unfiltered month summary and the most
// recent records overall. The two reads run concurrently.
func (s *ReportService) MonthReport(ctx context.Context, month string) (export.MonthReport, error) {
	month = s.Month(month)
	rep := export.MonthReport{Month: month}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := s.Summary(gctx, month, report.Filter{})
		if err != nil {
			return err
		}
		rep.Summary = summary
		return nil
	})
	g.Go(func() error {
		rows, err := s.feedbackRepository.Rows(gctx, report.Filter{}, export.PDFDetailLimit, 0)
		if err != nil {
			return fmt.Errorf("failed to load report rows: %w", err)
		}
		rep.Rows = rows
		return nil
	})

	err := g.Wait()
	if err != nil {
		return export.MonthReport{}, err
	}
	return rep, nil
}
