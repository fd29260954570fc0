package service

import (
	"context"
	"fmt"
	"time"

	"taxmanager/internal/model"
	"taxmanager/internal/workflow"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type MonthlyStat struct {
	Month       string  `json:"month"` // YYYY-MM
	TotalAmount float64 `json:"total_amount"`
	PaidAmount  float64 `json:"paid_amount"`
}

type GroupStat struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Count       int64   `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

type StatisticsResponse struct {
	TotalTaxes    int64         `json:"total_taxes"`
	TotalAmount   float64       `json:"total_amount"`
	PaidTaxes     int64         `json:"paid_taxes"`
	PaidAmount    float64       `json:"paid_amount"`
	UnpaidTaxes   int64         `json:"unpaid_taxes"`
	UnpaidAmount  float64       `json:"unpaid_amount"`
	OverdueTaxes  int64         `json:"overdue_taxes"`
	MonthlyStats  []MonthlyStat `json:"monthly_stats"`
	ByTaxType     []GroupStat   `json:"by_tax_type"`
	ByStation     []GroupStat   `json:"by_station"`
}

// --- Interface ---

type StatisticsService interface {
	GetStatistics(ctx context.Context, userID string) (StatisticsResponse, error)
}

type statisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// GetStatistics aggregates the dashboard numbers, scoped to the stations
// of userID when non-empty (admins pass "" to see everything).
func (s *statisticsService) GetStatistics(ctx context.Context, userID string) (StatisticsResponse, error) {
	var response StatisticsResponse

	base := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&model.Tax{})
		if userID != "" {
			if owner, err := uuid.Parse(userID); err == nil {
				q = q.Joins("JOIN charge_stations ON charge_stations.id = taxes.charge_station_id").
					Where("charge_stations.user_id = ?", owner)
			}
		}
		return q
	}

	type sumRow struct {
		Count int64
		Total float64
	}

	var all sumRow
	if err := base().Select("COUNT(*) as count, COALESCE(SUM(taxes.amount), 0) as total").Scan(&all).Error; err != nil {
		return response, fmt.Errorf("failed to aggregate taxes: %w", err)
	}
	response.TotalTaxes = all.Count
	response.TotalAmount = all.Total

	var paid sumRow
	if err := base().Where("taxes.status = ?", workflow.StatusCompleted).
		Select("COUNT(*) as count, COALESCE(SUM(taxes.amount), 0) as total").Scan(&paid).Error; err != nil {
		return response, fmt.Errorf("failed to aggregate paid taxes: %w", err)
	}
	response.PaidTaxes = paid.Count
	response.PaidAmount = paid.Total

	unpaidStatuses := []workflow.Status{workflow.StatusPending, workflow.StatusAccountantReview}
	var unpaid sumRow
	if err := base().Where("taxes.status IN ?", unpaidStatuses).
		Select("COUNT(*) as count, COALESCE(SUM(taxes.amount), 0) as total").Scan(&unpaid).Error; err != nil {
		return response, fmt.Errorf("failed to aggregate unpaid taxes: %w", err)
	}
	response.UnpaidTaxes = unpaid.Count
	response.UnpaidAmount = unpaid.Total

	// Overdue is derived, not stored: unpaid and strictly past due
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := base().Where("taxes.status IN ? AND taxes.due_date < ?", unpaidStatuses, today).
		Count(&response.OverdueTaxes).Error; err != nil {
		return response, fmt.Errorf("failed to count overdue taxes: %w", err)
	}

	var monthly []MonthlyStat
	if err := base().
		Select("to_char(taxes.due_date, 'YYYY-MM') as month, " +
			"COALESCE(SUM(taxes.amount), 0) as total_amount, " +
			"COALESCE(SUM(taxes.amount) FILTER (WHERE taxes.status = 'completed'), 0) as paid_amount").
		Group("to_char(taxes.due_date, 'YYYY-MM')").
		Order("month asc").
		Scan(&monthly).Error; err != nil {
		return response, fmt.Errorf("failed to aggregate monthly stats: %w", err)
	}
	response.MonthlyStats = monthly

	var byType []GroupStat
	if err := base().
		Select("tax_types.id as id, tax_types.name as name, COUNT(*) as count, COALESCE(SUM(taxes.amount), 0) as total_amount").
		Joins("JOIN tax_types ON tax_types.id = taxes.tax_type_id").
		Group("tax_types.id, tax_types.name").
		Order("total_amount DESC").
		Scan(&byType).Error; err != nil {
		return response, fmt.Errorf("failed to aggregate by tax type: %w", err)
	}
	response.ByTaxType = byType

	var byStation []GroupStat
	byStationQuery := base()
	if userID == "" {
		// base() only joins charge_stations for scoped queries
		byStationQuery = byStationQuery.Joins("JOIN charge_stations ON charge_stations.id = taxes.charge_station_id")
	}
	if err := byStationQuery.
		Select("charge_stations.id as id, charge_stations.name as name, COUNT(*) as count, COALESCE(SUM(taxes.amount), 0) as total_amount").
		Group("charge_stations.id, charge_stations.name").
		Order("total_amount DESC").
		Scan(&byStation).Error; err != nil {
		return response, fmt.Errorf("failed to aggregate by station: %w", err)
	}
	response.ByStation = byStation

	return response, nil
}
