package repository

import (
	"context"

	"gastropos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IngresoRepository interface {
	CreateTx(tx *gorm.DB, i *model.Ingreso) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Ingreso, error)
	List(ctx context.Context, page, limit int) ([]model.Ingreso, int64, error)
	NextNumeroTx(tx *gorm.DB) (int, error)
	DB() *gorm.DB
}

type ingresoRepo struct{ db *gorm.DB }

func NewIngresoRepository(db *gorm.DB) IngresoRepository { return &ingresoRepo{db: db} }

func (r *ingresoRepo) CreateTx(tx *gorm.DB, i *model.Ingreso) error {
	return tx.Create(i).Error
}

func (r *ingresoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Ingreso, error) {
	var i model.Ingreso
	err := r.db.WithContext(ctx).
		Preload("Lineas").Preload("Lineas.Producto").Preload("Usuario").
		First(&i, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *ingresoRepo) List(ctx context.Context, page, limit int) ([]model.Ingreso, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Ingreso{}).
		Preload("Lineas").Preload("Lineas.Producto").Preload("Usuario")

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	var ingresos []model.Ingreso
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&ingresos).Error
	return ingresos, total, err
}

func (r *ingresoRepo) NextNumeroTx(tx *gorm.DB) (int, error) {
	var max *int
	err := tx.Model(&model.Ingreso{}).Select("MAX(numero)").Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

func (r *ingresoRepo) DB() *gorm.DB { return r.db }
