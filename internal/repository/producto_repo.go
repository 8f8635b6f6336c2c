package repository

import (
	"context"

	"gastropos/internal/dto"
	"gastropos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductoRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type ProductoRepository interface {
	Create(ctx context.Context, p *model.Producto) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error)
	List(ctx context.Context, filter dto.ProductoFilter) ([]model.Producto, int64, error)
	Update(ctx context.Context, p *model.Producto) error
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// Used inside transactions — callers must pass the tx instance.
	// FindByIDForUpdateTx takes the row lock that serializes concurrent
	// reconciliations against the same product.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Producto, error)

	// SetStockTx writes the cached stock projection. Only StockService calls it.
	SetStockTx(tx *gorm.DB, id uuid.UUID, stock int) error

	// SetCostoTx records the latest purchase price as the current cost.
	SetCostoTx(tx *gorm.DB, id uuid.UUID, costo decimal.Decimal) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) Create(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).Where("borrado = false").First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productoRepo) List(ctx context.Context, filter dto.ProductoFilter) ([]model.Producto, int64, error) {
	var productos []model.Producto
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Producto{}).Where("borrado = false")

	// Habilitado filter: "false" = deshabilitados, "all" = todos, default = habilitados
	switch filter.Habilitado {
	case "false":
		q = q.Where("habilitado = false")
	case "all":
		// no filter
	default:
		q = q.Where("habilitado = true")
	}

	if filter.Nombre != "" {
		q = q.Where("nombre LIKE ?", "%"+filter.Nombre+"%")
	}
	if filter.CompraDirecta {
		q = q.Where("compra_directa = true")
	}
	if filter.VentaDirecta {
		q = q.Where("venta_directa = true")
	}

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
	err := q.Order("nombre ASC").Limit(limit).Offset(offset).Find(&productos).Error
	return productos, total, err
}

func (r *productoRepo) Update(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productoRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Producto{}).Where("id = ?", id).
		Updates(map[string]interface{}{"borrado": true, "habilitado": false}).Error
}

func (r *productoRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	q := tx
	// SELECT … FOR UPDATE is the postgres serialization point; the sqlite test
	// driver rejects the clause and serializes writers on its own.
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var p model.Producto
	if err := q.First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productoRepo) SetStockTx(tx *gorm.DB, id uuid.UUID, stock int) error {
	return tx.Model(&model.Producto{}).Where("id = ?", id).Update("stock", stock).Error
}

func (r *productoRepo) SetCostoTx(tx *gorm.DB, id uuid.UUID, costo decimal.Decimal) error {
	return tx.Model(&model.Producto{}).Where("id = ?", id).Update("costo_vigente", costo).Error
}

func (r *productoRepo) DB() *gorm.DB { return r.db }
