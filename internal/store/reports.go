package store

import (
	"context"
	"fmt"

	"inventory-service/internal/models"
)

// ListReports returns reports newest first, with the total row count
func (s *Store) ListReports(ctx context.Context, page models.PageRequest) ([]models.Report, int, error) {
	query := "SELECT * FROM reports ORDER BY created_at DESC, id DESC"
	reports := []models.Report{}

	if !page.Paginated() {
		if err := s.db.SelectContext(ctx, &reports, query); err != nil {
			return nil, 0, err
		}
		return reports, len(reports), nil
	}

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM reports"); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(" LIMIT %d OFFSET %d", page.PerPage, page.Offset())
	if err := s.db.SelectContext(ctx, &reports, query); err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

// GetReport retrieves a report by ID
func (s *Store) GetReport(ctx context.Context, id int64) (*models.Report, error) {
	var report models.Report
	if err := s.db.GetContext(ctx, &report, "SELECT * FROM reports WHERE id = $1", id); err != nil {
		return nil, translateError(err)
	}
	return &report, nil
}

// CreateReport inserts a report snapshot
func (s *Store) CreateReport(ctx context.Context, report *models.Report) error {
	query := `
		INSERT INTO reports (period, start_date, end_date, total_items, total_value,
		                     low_stock_count, out_of_stock_count, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	return translateError(s.db.GetContext(ctx, report, query,
		report.Period, report.StartDate, report.EndDate, report.TotalItems, report.TotalValue,
		report.LowStockCount, report.OutOfStockCount, report.Notes))
}

// DeleteReport removes a report
func (s *Store) DeleteReport(ctx context.Context, id int64) error {
	return s.execAffectingOne(ctx, "DELETE FROM reports WHERE id = $1", id)
}

// DeleteDuplicateReports keeps only the newest row of each (period, start_date, end_date)
func (s *Store) DeleteDuplicateReports(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM reports older
		USING reports newer
		WHERE older.period = newer.period
		  AND older.start_date = newer.start_date
		  AND older.end_date = newer.end_date
		  AND older.id < newer.id`

	res, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
