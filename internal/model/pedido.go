package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Estados del ciclo de vida de un pedido.
const (
	PedidoAbierto    = "abierto"
	PedidoCerrado    = "cerrado"
	PedidoDisponible = "disponible"
	PedidoRecibido   = "recibido"
	PedidoCancelado  = "cancelado"
)

// Tipos de entrega.
const (
	PedidoRetiro   = "retiro"
	PedidoDelivery = "delivery"
)

// Pedido is a customer order. It owns its lines exclusively: reconciling the
// order down to zero lines destroys the order and every child row.
type Pedido struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Numero       int       `gorm:"uniqueIndex;not null"`
	UsuarioID    uuid.UUID `gorm:"type:uuid;not null;index"`
	UltimoEstado string    `gorm:"type:varchar(20);not null;default:'abierto'"`
	Total        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Tipo         string          `gorm:"type:varchar(20);not null;default:'retiro'"`
	// Cambio is the cash amount the customer will pay with, used to compute change.
	Cambio            decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Direccion         string
	Observaciones     string
	MotivoCancelacion string
	VentaID           *uuid.UUID `gorm:"type:uuid"`
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Usuario *Usuario      `gorm:"foreignKey:UsuarioID"`
	Lineas  []PedidoLinea `gorm:"foreignKey:PedidoID"`
	Estados []PedidoEstado `gorm:"foreignKey:PedidoID"`
	Venta   *Venta         `gorm:"foreignKey:VentaID"`
}

func (p *Pedido) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// IDTexto returns the human-readable order id, e.g. P00042.
func (p *Pedido) IDTexto() string { return fmt.Sprintf("P%05d", p.Numero) }

func (p *Pedido) EstaAbierto() bool    { return p.UltimoEstado == PedidoAbierto }
func (p *Pedido) EstaCerrado() bool    { return p.UltimoEstado == PedidoCerrado }
func (p *Pedido) EstaDisponible() bool { return p.UltimoEstado == PedidoDisponible }
func (p *Pedido) EstaCancelado() bool  { return p.UltimoEstado == PedidoCancelado }

func (p *Pedido) Vacio() bool { return len(p.Lineas) == 0 }

func (p *Pedido) TipoValido() bool {
	return p.Tipo == PedidoRetiro || p.Tipo == PedidoDelivery
}

// PuedeVisualizar: owner, any seller, and admins.
func (p *Pedido) PuedeVisualizar(actor Actor) bool {
	return p.UsuarioID == actor.ID || actor.EsVendedor() || actor.EsAdmin()
}

// PuedeCerrar: only the owner places an open order.
func (p *Pedido) PuedeCerrar(actor Actor) bool {
	return p.EstaAbierto() && p.UsuarioID == actor.ID
}

// PuedeMarcarDisponible: seller-only, from cerrado.
func (p *Pedido) PuedeMarcarDisponible(actor Actor) bool {
	return p.EstaCerrado() && (actor.EsVendedor() || actor.EsAdmin())
}

// PuedeEntregar: seller-only, from disponible.
func (p *Pedido) PuedeEntregar(actor Actor) bool {
	return p.EstaDisponible() && (actor.EsVendedor() || actor.EsAdmin())
}

// PuedeCancelar: the owner from abierto/cerrado/disponible, a seller from
// cerrado/disponible.
func (p *Pedido) PuedeCancelar(actor Actor) bool {
	lePertenece := p.UsuarioID == actor.ID
	esVendedor := actor.EsVendedor() || actor.EsAdmin()
	if lePertenece && (p.EstaAbierto() || p.EstaCerrado() || p.EstaDisponible()) {
		return true
	}
	return esVendedor && (p.EstaCerrado() || p.EstaDisponible())
}

// ActualizarTotal recomputes the order total from its line totals.
// Callers persist the change.
func (p *Pedido) ActualizarTotal() {
	total := decimal.Zero
	for _, linea := range p.Lineas {
		total = total.Add(linea.Total)
	}
	p.Total = total
}

// PedidoLinea is owned exclusively by its Pedido.
type PedidoLinea struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	PedidoID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductoID uuid.UUID `gorm:"type:uuid;not null;index"`
	Cantidad   int       `gorm:"not null"`
	// Precio is the unit-price snapshot taken when the line was written.
	Precio decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total  decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

func (l *PedidoLinea) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// PedidoEstado is one row of the order's state history.
type PedidoEstado struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	PedidoID uuid.UUID `gorm:"type:uuid;not null;index"`
	Estado   string    `gorm:"type:varchar(20);not null"`
	Fecha    time.Time `gorm:"not null"`
}

func (e *PedidoEstado) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Fecha.IsZero() {
		e.Fecha = time.Now()
	}
	return nil
}
