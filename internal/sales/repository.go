package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/andreshoyos/gymdesk-backend/pkg/db/models"
	"github.com/andreshoyos/gymdesk-backend/pkg/enums"
	"github.com/andreshoyos/gymdesk-backend/pkg/pagination"
)

// ListFilter narrows sale listings.
type ListFilter struct {
	From *time.Time
	To   *time.Time
	Type *enums.SaleType
}

// ReportRow aggregates sales for one payment method over a period. Void
// sales carry negative amounts, so the sums net out voided transactions.
type ReportRow struct {
	PaymentMethodID   uuid.UUID       `gorm:"column:payment_method_id"`
	PaymentMethodName string          `gorm:"column:payment_method_name"`
	SaleCount         int64           `gorm:"column:sale_count"`
	Subtotal          decimal.Decimal `gorm:"column:subtotal"`
	TotalDiscount     decimal.Decimal `gorm:"column:total_discount"`
	Total             decimal.Decimal `gorm:"column:total"`
}

// ProductReportRow aggregates units and revenue for one product.
type ProductReportRow struct {
	ProductID    uuid.UUID       `gorm:"column:product_id"`
	ProductName  string          `gorm:"column:product_name"`
	UnitsSold    int64           `gorm:"column:units_sold"`
	GrossRevenue decimal.Decimal `gorm:"column:gross_revenue"`
	NetRevenue   decimal.Decimal `gorm:"column:net_revenue"`
}

// SaleRepository defines persistence for finalized transactions.
type SaleRepository interface {
	Create(ctx context.Context, tx *gorm.DB, sale *models.Sale) (*models.Sale, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.SaleStatus) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	List(ctx context.Context, params pagination.Params, filter ListFilter) ([]models.Sale, error)
	Report(ctx context.Context, from, to time.Time) ([]ReportRow, error)
	ReportByProduct(ctx context.Context, from, to time.Time) ([]ProductReportRow, error)
}

// Repository is the GORM-backed sales store.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the sale and its details in one call. Callers pass the
// transaction handle so the insert shares a unit of work with the stock
// adjustments.
func (r *Repository) Create(ctx context.Context, tx *gorm.DB, sale *models.Sale) (*models.Sale, error) {
	if tx == nil {
		tx = r.db
	}
	if err := tx.WithContext(ctx).Create(sale).Error; err != nil {
		return nil, err
	}
	return sale, nil
}

// UpdateStatus flips the status column on an existing sale.
func (r *Repository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.SaleStatus) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&models.Sale{}).
		Where("id = ?", id).
		UpdateColumn("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindByID loads a sale with its details and payment method.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Details").
		Preload("PaymentMethod").
		First(&sale, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// List pages through sales newest first, optionally bounded by date range and
// sale type.
func (r *Repository) List(ctx context.Context, params pagination.Params, filter ListFilter) ([]models.Sale, error) {
	tx := r.db.WithContext(ctx).
		Preload("PaymentMethod").
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))
	if filter.From != nil {
		tx = tx.Where("sale_date >= ?", *filter.From)
	}
	if filter.To != nil {
		tx = tx.Where("sale_date < ?", *filter.To)
	}
	if filter.Type != nil {
		tx = tx.Where("type = ?", *filter.Type)
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		tx = tx.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var rows []models.Sale
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

const reportQuery = `
SELECT pm.id AS payment_method_id,
       pm.name AS payment_method_name,
       COUNT(s.id) AS sale_count,
       COALESCE(SUM(s.subtotal), 0) AS subtotal,
       COALESCE(SUM(s.total_discount), 0) AS total_discount,
       COALESCE(SUM(s.total), 0) AS total
FROM sales s
JOIN payment_methods pm ON pm.id = s.payment_method_id
WHERE s.sale_date >= ? AND s.sale_date < ?
GROUP BY pm.id, pm.name
ORDER BY total DESC
`

// Report aggregates the period per payment method.
func (r *Repository) Report(ctx context.Context, from, to time.Time) ([]ReportRow, error) {
	var rows []ReportRow
	if err := r.db.WithContext(ctx).Raw(reportQuery, from, to).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

const productReportQuery = `
SELECT sd.product_id,
       sd.product_name,
       COALESCE(SUM(sd.quantity), 0) AS units_sold,
       COALESCE(SUM(sd.total_price), 0) AS gross_revenue,
       COALESCE(SUM(sd.subtotal), 0) AS net_revenue
FROM sale_details sd
JOIN sales s ON s.id = sd.sale_id
WHERE s.sale_date >= ? AND s.sale_date < ?
GROUP BY sd.product_id, sd.product_name
ORDER BY net_revenue DESC
`

// ReportByProduct aggregates the period per product.
func (r *Repository) ReportByProduct(ctx context.Context, from, to time.Time) ([]ProductReportRow, error) {
	var rows []ProductReportRow
	if err := r.db.WithContext(ctx).Raw(productReportQuery, from, to).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
