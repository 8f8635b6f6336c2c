package repository

import (
	"context"
	"errors"

	"gastropos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TurnoRepository interface {
	// Mesas
	CreateMesa(ctx context.Context, m *model.Mesa) error
	FindMesaByID(ctx context.Context, id uuid.UUID) (*model.Mesa, error)
	FindMesaPorNumero(ctx context.Context, numero int) (*model.Mesa, error)
	ListMesas(ctx context.Context) ([]model.Mesa, error)
	SaveMesa(ctx context.Context, m *model.Mesa) error
	SetEstadoMesaTx(tx *gorm.DB, id uuid.UUID, estado string) error
	ContarTurnosDeMesa(ctx context.Context, mesaID uuid.UUID) (int64, error)
	DeleteMesa(ctx context.Context, id uuid.UUID) error

	// Turnos
	CreateTurnoTx(tx *gorm.DB, t *model.Turno) error
	FindTurnoByID(ctx context.Context, id uuid.UUID) (*model.Turno, error)
	FindTurnoByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Turno, error)
	FindTurnoAbiertoPorMesa(ctx context.Context, mesaID uuid.UUID) (*model.Turno, error)
	SaveTurnoTx(tx *gorm.DB, t *model.Turno) error

	// Ordenes
	CreateOrdenTx(tx *gorm.DB, o *model.TurnoOrden) error
	UpdateOrdenTx(tx *gorm.DB, o *model.TurnoOrden) error
	DeleteOrdenTx(tx *gorm.DB, id uuid.UUID) error

	DB() *gorm.DB
}

type turnoRepo struct{ db *gorm.DB }

func NewTurnoRepository(db *gorm.DB) TurnoRepository { return &turnoRepo{db: db} }

func (r *turnoRepo) CreateMesa(ctx context.Context, m *model.Mesa) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *turnoRepo) FindMesaByID(ctx context.Context, id uuid.UUID) (*model.Mesa, error) {
	var m model.Mesa
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *turnoRepo) FindMesaPorNumero(ctx context.Context, numero int) (*model.Mesa, error) {
	var m model.Mesa
	err := r.db.WithContext(ctx).Where("numero = ?", numero).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *turnoRepo) ListMesas(ctx context.Context) ([]model.Mesa, error) {
	var mesas []model.Mesa
	err := r.db.WithContext(ctx).Order("numero ASC").Find(&mesas).Error
	return mesas, err
}

func (r *turnoRepo) SaveMesa(ctx context.Context, m *model.Mesa) error {
	return r.db.WithContext(ctx).Omit("Turnos").Save(m).Error
}

func (r *turnoRepo) SetEstadoMesaTx(tx *gorm.DB, id uuid.UUID, estado string) error {
	return tx.Model(&model.Mesa{}).Where("id = ?", id).Update("estado", estado).Error
}

func (r *turnoRepo) ContarTurnosDeMesa(ctx context.Context, mesaID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Turno{}).Where("mesa_id = ?", mesaID).Count(&count).Error
	return count, err
}

func (r *turnoRepo) DeleteMesa(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Mesa{}, "id = ?", id).Error
}

func (r *turnoRepo) CreateTurnoTx(tx *gorm.DB, t *model.Turno) error {
	return tx.Create(t).Error
}

func (r *turnoRepo) turnoPreloaded(q *gorm.DB) *gorm.DB {
	return q.Preload("Mesa").Preload("Mozo").Preload("Ordenes").Preload("Ordenes.Producto")
}

func (r *turnoRepo) FindTurnoByID(ctx context.Context, id uuid.UUID) (*model.Turno, error) {
	var t model.Turno
	err := r.turnoPreloaded(r.db.WithContext(ctx)).First(&t, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *turnoRepo) FindTurnoByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Turno, error) {
	var t model.Turno
	err := r.turnoPreloaded(tx).First(&t, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *turnoRepo) FindTurnoAbiertoPorMesa(ctx context.Context, mesaID uuid.UUID) (*model.Turno, error) {
	var t model.Turno
	err := r.turnoPreloaded(r.db.WithContext(ctx)).
		Where("mesa_id = ? AND estado = ?", mesaID, model.TurnoAbierto).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *turnoRepo) SaveTurnoTx(tx *gorm.DB, t *model.Turno) error {
	return tx.Omit("Mesa", "Mozo", "Ordenes").Save(t).Error
}

func (r *turnoRepo) CreateOrdenTx(tx *gorm.DB, o *model.TurnoOrden) error {
	return tx.Create(o).Error
}

func (r *turnoRepo) UpdateOrdenTx(tx *gorm.DB, o *model.TurnoOrden) error {
	return tx.Omit("Producto").Save(o).Error
}

func (r *turnoRepo) DeleteOrdenTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.TurnoOrden{}, "id = ?", id).Error
}

func (r *turnoRepo) DB() *gorm.DB { return r.db }
