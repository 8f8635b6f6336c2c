package repository

import (
	"context"

	"gastropos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovimientoStockFilter defines filters for listing stock movements.
type MovimientoStockFilter struct {
	ProductoID *uuid.UUID
	Page       int
	Limit      int
}

// MovimientoStockRepository is append-only by contract: movements are created
// and listed, never updated or deleted.
type MovimientoStockRepository interface {
	CreateTx(tx *gorm.DB, m *model.MovimientoStock) error
	// SumCantidadTx re-derives Σ cantidad for a product inside the caller's tx.
	SumCantidadTx(tx *gorm.DB, productoID uuid.UUID) (int, error)
	List(ctx context.Context, filter MovimientoStockFilter) ([]model.MovimientoStock, int64, error)
}

type movimientoStockRepo struct{ db *gorm.DB }

func NewMovimientoStockRepository(db *gorm.DB) MovimientoStockRepository {
	return &movimientoStockRepo{db: db}
}

func (r *movimientoStockRepo) CreateTx(tx *gorm.DB, m *model.MovimientoStock) error {
	return tx.Create(m).Error
}

func (r *movimientoStockRepo) SumCantidadTx(tx *gorm.DB, productoID uuid.UUID) (int, error) {
	var suma *int
	err := tx.Model(&model.MovimientoStock{}).
		Where("producto_id = ?", productoID).
		Select("SUM(cantidad)").
		Scan(&suma).Error
	if err != nil {
		return 0, err
	}
	if suma == nil {
		return 0, nil
	}
	return *suma, nil
}

func (r *movimientoStockRepo) List(ctx context.Context, filter MovimientoStockFilter) ([]model.MovimientoStock, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.MovimientoStock{}).Preload("Producto")
	if filter.ProductoID != nil {
		q = q.Where("producto_id = ?", *filter.ProductoID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	offset := (page - 1) * limit

	var movimientos []model.MovimientoStock
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&movimientos).Error
	return movimientos, total, err
}
