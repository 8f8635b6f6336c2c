package repository

import (
	"context"

	"gastropos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReemplazoRepository interface {
	CreateTx(tx *gorm.DB, re *model.Reemplazo) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Reemplazo, error)
	List(ctx context.Context, page, limit int) ([]model.Reemplazo, int64, error)
	NextNumeroTx(tx *gorm.DB) (int, error)
	DB() *gorm.DB
}

type reemplazoRepo struct{ db *gorm.DB }

func NewReemplazoRepository(db *gorm.DB) ReemplazoRepository { return &reemplazoRepo{db: db} }

func (r *reemplazoRepo) CreateTx(tx *gorm.DB, re *model.Reemplazo) error {
	return tx.Create(re).Error
}

func (r *reemplazoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Reemplazo, error) {
	var re model.Reemplazo
	err := r.db.WithContext(ctx).
		Preload("Lineas").Preload("Lineas.Producto").Preload("Usuario").
		First(&re, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &re, nil
}

func (r *reemplazoRepo) List(ctx context.Context, page, limit int) ([]model.Reemplazo, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Reemplazo{}).
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

	var reemplazos []model.Reemplazo
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&reemplazos).Error
	return reemplazos, total, err
}

func (r *reemplazoRepo) NextNumeroTx(tx *gorm.DB) (int, error) {
	var max *int
	err := tx.Model(&model.Reemplazo{}).Select("MAX(numero)").Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

func (r *reemplazoRepo) DB() *gorm.DB { return r.db }
