package repository

import (
	"context"
	"errors"

	"gastropos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PedidoFilter defines filters for listing orders.
type PedidoFilter struct {
	UsuarioID *uuid.UUID
	Estado    string
	Page      int
	Limit     int
}

type PedidoRepository interface {
	CreateTx(tx *gorm.DB, p *model.Pedido) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Pedido, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Pedido, error)
	// FindAbiertoPorUsuario returns the customer's single open order, if any.
	FindAbiertoPorUsuario(ctx context.Context, usuarioID uuid.UUID) (*model.Pedido, error)
	List(ctx context.Context, filter PedidoFilter) ([]model.Pedido, int64, error)
	SaveTx(tx *gorm.DB, p *model.Pedido) error
	// DeleteTx removes the order with all its lines and state history.
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
	NextNumeroTx(tx *gorm.DB) (int, error)

	CreateLineaTx(tx *gorm.DB, l *model.PedidoLinea) error
	UpdateLineaTx(tx *gorm.DB, l *model.PedidoLinea) error
	DeleteLineaTx(tx *gorm.DB, id uuid.UUID) error

	// AgregarEstadoTx appends a state-history row and updates ultimo_estado.
	AgregarEstadoTx(tx *gorm.DB, pedido *model.Pedido, estado string) error

	DB() *gorm.DB
}

type pedidoRepo struct{ db *gorm.DB }

func NewPedidoRepository(db *gorm.DB) PedidoRepository { return &pedidoRepo{db: db} }

func (r *pedidoRepo) CreateTx(tx *gorm.DB, p *model.Pedido) error {
	return tx.Create(p).Error
}

func (r *pedidoRepo) preloaded(q *gorm.DB) *gorm.DB {
	return q.Preload("Lineas").Preload("Lineas.Producto").Preload("Estados").Preload("Venta")
}

func (r *pedidoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Pedido, error) {
	var p model.Pedido
	err := r.preloaded(r.db.WithContext(ctx)).First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pedidoRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Pedido, error) {
	var p model.Pedido
	err := r.preloaded(tx).First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pedidoRepo) FindAbiertoPorUsuario(ctx context.Context, usuarioID uuid.UUID) (*model.Pedido, error) {
	var p model.Pedido
	err := r.preloaded(r.db.WithContext(ctx)).
		Where("usuario_id = ? AND ultimo_estado = ?", usuarioID, model.PedidoAbierto).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pedidoRepo) List(ctx context.Context, filter PedidoFilter) ([]model.Pedido, int64, error) {
	q := r.preloaded(r.db.WithContext(ctx).Model(&model.Pedido{}))
	if filter.UsuarioID != nil {
		q = q.Where("usuario_id = ?", *filter.UsuarioID)
	}
	if filter.Estado != "" {
		q = q.Where("ultimo_estado = ?", filter.Estado)
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

	var pedidos []model.Pedido
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&pedidos).Error
	return pedidos, total, err
}

func (r *pedidoRepo) SaveTx(tx *gorm.DB, p *model.Pedido) error {
	// Omit associations: line rows are managed one by one during reconciliation.
	return tx.Omit("Lineas", "Estados", "Venta", "Usuario").Save(p).Error
}

func (r *pedidoRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("pedido_id = ?", id).Delete(&model.PedidoLinea{}).Error; err != nil {
		return err
	}
	if err := tx.Where("pedido_id = ?", id).Delete(&model.PedidoEstado{}).Error; err != nil {
		return err
	}
	return tx.Delete(&model.Pedido{}, "id = ?", id).Error
}

func (r *pedidoRepo) NextNumeroTx(tx *gorm.DB) (int, error) {
	var max *int
	err := tx.Model(&model.Pedido{}).Select("MAX(numero)").Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

func (r *pedidoRepo) CreateLineaTx(tx *gorm.DB, l *model.PedidoLinea) error {
	return tx.Create(l).Error
}

func (r *pedidoRepo) UpdateLineaTx(tx *gorm.DB, l *model.PedidoLinea) error {
	return tx.Omit("Producto").Save(l).Error
}

func (r *pedidoRepo) DeleteLineaTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.PedidoLinea{}, "id = ?", id).Error
}

func (r *pedidoRepo) AgregarEstadoTx(tx *gorm.DB, pedido *model.Pedido, estado string) error {
	if pedido.UltimoEstado == estado && pedido.ID != uuid.Nil {
		var count int64
		tx.Model(&model.PedidoEstado{}).
			Where("pedido_id = ? AND estado = ?", pedido.ID, estado).
			Count(&count)
		if count > 0 {
			return nil
		}
	}
	registro := &model.PedidoEstado{PedidoID: pedido.ID, Estado: estado}
	if err := tx.Create(registro).Error; err != nil {
		return err
	}
	pedido.UltimoEstado = estado
	return tx.Model(&model.Pedido{}).Where("id = ?", pedido.ID).
		Update("ultimo_estado", estado).Error
}

func (r *pedidoRepo) DB() *gorm.DB { return r.db }
