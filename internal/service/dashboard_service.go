package service

import (
	"context"
	"time"

	"go-storefront/internal/repository"
)

const maxChartDays = 365

type DashboardService interface {
	GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error)
}

type dashboardService struct {
	reportRepo        repository.ReportRepository
	lowStockThreshold int
}

func NewDashboardService(reportRepo repository.ReportRepository, lowStockThreshold int) DashboardService {
	return &dashboardService{reportRepo: reportRepo, lowStockThreshold: lowStockThreshold}
}

func (s *dashboardService) GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error) {
	if days <= 0 || days > maxChartDays {
		return nil, invalidInput("days must be between 1 and 365")
	}
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)

	return s.reportRepo.GetStockMovement(ctx, startDate, endDate)
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error) {
	return s.reportRepo.GetDashboardStats(ctx, s.lowStockThreshold)
}
