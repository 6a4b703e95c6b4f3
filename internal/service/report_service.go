package service

import (
	"context"
	"fmt"

	"inventory-service/internal/models"
	"inventory-service/internal/util"

	"go.uber.org/zap"
)

// CreateReportRequest asks for a new snapshot report
type CreateReportRequest struct {
	Period    string `json:"period"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Notes     string `json:"notes"`
}

// ReportService generates and manages snapshot reports
type ReportService struct {
	reports ReportStore
	items   ItemStore
	logger  *zap.Logger
}

// NewReportService creates a new report service
func NewReportService(reports ReportStore, items ItemStore) *ReportService {
	return &ReportService{
		reports: reports,
		items:   items,
		logger:  util.GetLogger(),
	}
}

// Create aggregates the current item set into a new immutable report row.
// Repeating a period inserts another row.
func (s *ReportService) Create(ctx context.Context, req *CreateReportRequest) (*models.Report, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.Create")
	defer span.End()

	// Validate before touching the store.
	if _, err := Aggregate(nil, req.Period, req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	items, _, err := s.items.ListItems(ctx, models.ItemFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}

	snap, err := Aggregate(items, req.Period, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	report := &models.Report{
		Period:          snap.Period,
		StartDate:       snap.StartDate,
		EndDate:         snap.EndDate,
		TotalItems:      snap.TotalItems,
		TotalValue:      snap.TotalValue,
		LowStockCount:   snap.LowStockCount,
		OutOfStockCount: snap.OutOfStockCount,
		Notes:           req.Notes,
	}
	if err := s.reports.CreateReport(ctx, report); err != nil {
		return nil, util.SpanError(span, fmt.Errorf("failed to save report: %w", err))
	}

	util.ReportsGeneratedTotal.Inc()
	s.logger.Info("Report generated",
		zap.Int64("report_id", report.ID),
		zap.String("period", report.Period),
		zap.Int("items", len(items)))
	return report, nil
}

// List returns reports, optionally paginated
func (s *ReportService) List(ctx context.Context, page models.PageRequest) ([]models.Report, int, error) {
	return s.reports.ListReports(ctx, page)
}

// Get retrieves a report
func (s *ReportService) Get(ctx context.Context, id int64) (*models.Report, error) {
	return s.reports.GetReport(ctx, id)
}

// Delete removes a report
func (s *ReportService) Delete(ctx context.Context, id int64) error {
	return s.reports.DeleteReport(ctx, id)
}

// Deduplicate removes older reports sharing a period and date range
func (s *ReportService) Deduplicate(ctx context.Context) (int64, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.Deduplicate")
	defer span.End()

	removed, err := s.reports.DeleteDuplicateReports(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to deduplicate reports: %w", err)
	}
	s.logger.Info("Duplicate reports removed", zap.Int64("count", removed))
	return removed, nil
}
