package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovimientoStock is one row of the append-only stock ledger. Rows are never
// edited or deleted; corrections append an opposite-sign movement. For every
// product the invariant stock == Σ cantidad over its movements is re-derived
// (not trusted) on every reconcile.
type MovimientoStock struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductoID uuid.UUID `gorm:"type:uuid;not null;index"`
	// Cantidad is the signed delta: positive = entrada, negative = salida.
	Cantidad      int `gorm:"not null"`
	StockAnterior int `gorm:"not null"`
	StockNuevo    int `gorm:"not null"`
	Descripcion   string
	UsuarioID     uuid.UUID `gorm:"type:uuid"`

	// Origin reference: at most one is set. Plain uuid columns without FK
	// constraints so that deleting an order line never cascades into the ledger.
	PedidoLineaID    *uuid.UUID `gorm:"type:uuid"`
	VentaLineaID     *uuid.UUID `gorm:"type:uuid"`
	IngresoLineaID   *uuid.UUID `gorm:"type:uuid"`
	ReemplazoLineaID *uuid.UUID `gorm:"type:uuid"`

	CreatedAt time.Time

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

// TableName overrides GORM's default pluralization.
func (MovimientoStock) TableName() string { return "movimientos_stock" }

func (m *MovimientoStock) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// OrigenMovimiento identifies the line row a movement was produced by.
// The zero value means "no origin" (manual adjustment, removal audit, etc.).
type OrigenMovimiento struct {
	PedidoLineaID    *uuid.UUID
	VentaLineaID     *uuid.UUID
	IngresoLineaID   *uuid.UUID
	ReemplazoLineaID *uuid.UUID
}

func OrigenPedidoLinea(id uuid.UUID) OrigenMovimiento {
	return OrigenMovimiento{PedidoLineaID: &id}
}

func OrigenVentaLinea(id uuid.UUID) OrigenMovimiento {
	return OrigenMovimiento{VentaLineaID: &id}
}

func OrigenIngresoLinea(id uuid.UUID) OrigenMovimiento {
	return OrigenMovimiento{IngresoLineaID: &id}
}

func OrigenReemplazoLinea(id uuid.UUID) OrigenMovimiento {
	return OrigenMovimiento{ReemplazoLineaID: &id}
}
