package repository

import (
	"context"
	"time"

	"go-storefront/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReportRepository interface {
	GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error)
	GetDashboardStats(ctx context.Context, lowStockThreshold int) (*DashboardStats, error)
}

// StockMovementData is one day of ledger activity for the admin chart
type StockMovementData struct {
	Date      string `json:"date"`
	Reserved  int    `json:"reserved"`
	Released  int    `json:"released"`
	Restocked int    `json:"restocked"`
}

type DashboardStats struct {
	TotalProducts      int64           `json:"total_products"`
	LowStockCount      int64           `json:"low_stock_count"`
	InventoryValuation decimal.Decimal `json:"inventory_valuation"`
	TotalOrders        int64           `json:"total_orders"`
	CompletedOrders    int64           `json:"completed_orders"`
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
}

// paidStatuses are the statuses an order can only reach after payment.
var paidStatuses = []model.OrderStatus{model.OrderProcessing, model.OrderShipped, model.OrderCompleted}

type reportRepo struct {
	db *gorm.DB
}

func NewReportRepo(db *gorm.DB) ReportRepository {
	return &reportRepo{db}
}

func (r *reportRepo) GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error) {
	var results []StockMovementData

	rows, err := r.db.WithContext(ctx).Model(&model.StockMovement{}).
		Select(`
			TO_CHAR(DATE(created_at), 'YYYY-MM-DD') as date,
			COALESCE(SUM(CASE WHEN type = 'RESERVE' THEN quantity ELSE 0 END), 0) as reserved,
			COALESCE(SUM(CASE WHEN type = 'RELEASE' THEN quantity ELSE 0 END), 0) as released,
			COALESCE(SUM(CASE WHEN type = 'RESTOCK' THEN quantity ELSE 0 END), 0) as restocked
		`).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.Reserved, &data.Released, &data.Restocked); err != nil {
			return nil, err
		}
		results = append(results, data)
	}
	return results, rows.Err()
}

func (r *reportRepo) GetDashboardStats(ctx context.Context, lowStockThreshold int) (*DashboardStats, error) {
	var stats DashboardStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Product{}).Where("stock < ?", lowStockThreshold).Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Product{}).Select("COALESCE(SUM(stock * price), 0)").Scan(&stats.InventoryValuation).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Order{}).Where("status = ?", model.OrderCompleted).Count(&stats.CompletedOrders).Error; err != nil {
		return nil, err
	}
	err := db.Model(&model.Order{}).
		Where("status IN ?", paidStatuses).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&stats.TotalRevenue).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
