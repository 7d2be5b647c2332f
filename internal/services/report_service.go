package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/summer-camp-school/camp-service/internal/repositories"
)

const ordersSheet = "Orders"

var orderColumns = []interface{}{
	"Tran ID", "Course ID", "Class", "Student Email", "Student Name",
	"Price", "Currency", "Paid", "Status", "Paid At", "Created At",
}

type reportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewReportService(repo repositories.Repository, logger *slog.Logger) ReportService {
	return &reportService{repo: repo, logger: logger}
}

func (s *reportService) ExportOrders(ctx context.Context, w io.Writer) error {
	orders, err := s.repo.Order().List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list orders: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ordersSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetSheetRow(ordersSheet, "A1", &orderColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.SetCellStyle(ordersSheet, "A1", "K1", header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, o := range orders {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		paidAt := ""
		if o.PaidAt != nil {
			paidAt = o.PaidAt.UTC().Format(time.RFC3339)
		}
		row := []interface{}{
			o.TranID, o.CourseID, o.ClassName, o.StudentEmail, o.StudentName,
			o.Price, o.Currency, o.PaidStatus, string(o.Status), paidAt,
			o.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := f.SetSheetRow(ordersSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write order %s: %w", o.TranID, err)
		}
	}

	if err := f.SetColWidth(ordersSheet, "A", "K", 22); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Orders exported", "count", len(orders))
	return nil
}
