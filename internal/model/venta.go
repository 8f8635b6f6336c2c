package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tipos de venta.
const (
	VentaAlmacen = "almacen"
	VentaOnline  = "online"
	VentaMesa    = "mesa"
)

// Venta is an immutable sale record materialized from an order, a table turn,
// or a direct counter sale. Its lines are independent price-frozen copies,
// never references to order lines. A sale is voided in place, never deleted.
type Venta struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Numero    int       `gorm:"uniqueIndex;not null"`
	UsuarioID uuid.UUID `gorm:"type:uuid;not null;index"`
	Tipo      string    `gorm:"type:varchar(20);not null;default:'almacen'"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Anulado   *time.Time

	// Back-references to the originating container. Read-only, informational.
	PedidoID *uuid.UUID `gorm:"type:uuid"`
	TurnoID  *uuid.UUID `gorm:"type:uuid"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Usuario *Usuario     `gorm:"foreignKey:UsuarioID"`
	Lineas  []VentaLinea `gorm:"foreignKey:VentaID"`
}

func (v *Venta) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// IDTexto returns the human-readable sale id, e.g. V00042.
func (v *Venta) IDTexto() string { return fmt.Sprintf("V%05d", v.Numero) }

func (v *Venta) EstaAnulada() bool { return v.Anulado != nil }

func (v *Venta) EsOnline() bool { return v.Tipo == VentaOnline }

// ActualizarTotal recomputes the sale total from its line totals.
func (v *Venta) ActualizarTotal() {
	total := decimal.Zero
	for _, linea := range v.Lineas {
		total = total.Add(linea.Total)
	}
	v.Total = total
}

// VentaLinea is a price-frozen copy of a source line.
type VentaLinea struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	VentaID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductoID uuid.UUID `gorm:"type:uuid;not null;index"`
	Cantidad   int       `gorm:"not null"`
	Precio     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total      decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

func (l *VentaLinea) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
