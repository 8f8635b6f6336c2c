package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Estados de mesa.
const (
	MesaDisponible = "disponible"
	MesaOcupada    = "ocupada"
)

// Mesa is a physical table. Its state mirrors that of its active turn.
type Mesa struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Numero      int       `gorm:"uniqueIndex;not null"`
	Estado      string    `gorm:"type:varchar(20);not null;default:'disponible'"`
	Descripcion string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Turnos []Turno `gorm:"foreignKey:MesaID"`
}

func (m *Mesa) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// NumeroTexto returns the human-readable table number, e.g. #00007.
func (m *Mesa) NumeroTexto() string { return fmt.Sprintf("#%05d", m.Numero) }

func (m *Mesa) EstaDisponible() bool { return m.Estado == MesaDisponible }

// PuedeEditarse: only while no turn occupies the table.
func (m *Mesa) PuedeEditarse() bool { return m.EstaDisponible() }

// Estados de turno.
const (
	TurnoAbierto = "abierto"
	TurnoCerrado = "cerrado"
	TurnoAnulado = "anulado"
)

// Turno is a table-service session: product lines accumulate while the table
// is occupied, and closing the turn materializes a single sale. A turn is
// never auto-deleted when its lines drop to zero.
type Turno struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	MesaID     uuid.UUID `gorm:"type:uuid;not null;index"`
	MozoID     uuid.UUID `gorm:"type:uuid;not null"`
	VentaID    *uuid.UUID `gorm:"type:uuid"`
	Estado     string     `gorm:"type:varchar(20);not null;default:'abierto'"`
	HoraInicio time.Time  `gorm:"not null"`
	HoraFin    *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Mesa    *Mesa        `gorm:"foreignKey:MesaID"`
	Mozo    *Usuario     `gorm:"foreignKey:MozoID"`
	Ordenes []TurnoOrden `gorm:"foreignKey:TurnoID"`
}

func (t *Turno) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.HoraInicio.IsZero() {
		t.HoraInicio = time.Now()
	}
	return nil
}

func (t *Turno) EstaAbierto() bool { return t.Estado == TurnoAbierto && t.HoraFin == nil }

// PuedeCerrar: a turn closes only with at least one line.
func (t *Turno) PuedeCerrar() bool { return len(t.Ordenes) > 0 }

// Estados de orden de turno.
const (
	OrdenSolicitada = "solicitado"
	OrdenEntregada  = "entregado"
)

// TurnoOrden is one product line of a turn: quantity ordered plus how much of
// it already reached the table.
type TurnoOrden struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	TurnoID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductoID uuid.UUID `gorm:"type:uuid;not null;index"`
	Estado     string    `gorm:"type:varchar(20);not null;default:'solicitado'"`
	Cantidad   int       `gorm:"not null"`
	Entregado  int       `gorm:"not null;default:0"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

func (o *TurnoOrden) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// TableName keeps the historical table name.
func (TurnoOrden) TableName() string { return "turnos_ordenes" }

// CantidadRestante is the amount still owed to the table.
func (o *TurnoOrden) CantidadRestante() int { return o.Cantidad - o.Entregado }
