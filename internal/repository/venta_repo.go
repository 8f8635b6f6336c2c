package repository

import (
	"context"
	"time"

	"gastropos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VentaFilter defines filters for listing sales.
type VentaFilter struct {
	Tipo   string
	Estado string // activa | anulada | all
	Page   int
	Limit  int
}

type VentaRepository interface {
	CreateTx(tx *gorm.DB, v *model.Venta) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Venta, error)
	List(ctx context.Context, filter VentaFilter) ([]model.Venta, int64, error)
	MarcarAnuladaTx(tx *gorm.DB, id uuid.UUID, momento time.Time) error
	NextNumeroTx(tx *gorm.DB) (int, error)
	DB() *gorm.DB
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) CreateTx(tx *gorm.DB, v *model.Venta) error {
	return tx.Create(v).Error
}

func (r *ventaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).
		Preload("Lineas").Preload("Lineas.Producto").Preload("Usuario").
		First(&v, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *ventaRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := tx.Preload("Lineas").Preload("Lineas.Producto").First(&v, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *ventaRepo) List(ctx context.Context, filter VentaFilter) ([]model.Venta, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Venta{}).
		Preload("Lineas").Preload("Lineas.Producto").Preload("Usuario")

	if filter.Tipo != "" {
		q = q.Where("tipo = ?", filter.Tipo)
	}
	switch filter.Estado {
	case "anulada":
		q = q.Where("anulado IS NOT NULL")
	case "all":
		// no filter
	default:
		q = q.Where("anulado IS NULL")
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
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := (page - 1) * limit

	var ventas []model.Venta
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&ventas).Error
	return ventas, total, err
}

func (r *ventaRepo) MarcarAnuladaTx(tx *gorm.DB, id uuid.UUID, momento time.Time) error {
	return tx.Model(&model.Venta{}).Where("id = ?", id).Update("anulado", momento).Error
}

func (r *ventaRepo) NextNumeroTx(tx *gorm.DB) (int, error) {
	var max *int
	err := tx.Model(&model.Venta{}).Select("MAX(numero)").Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

func (r *ventaRepo) DB() *gorm.DB { return r.db }
