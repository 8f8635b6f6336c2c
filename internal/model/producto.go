package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Producto holds catalog identity, price/cost snapshots and the cached stock
// counter. Stock is a projection of the movement ledger: it is written only by
// StockService.Reconciliar, never by direct arithmetic anywhere else.
type Producto struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Nombre        string    `gorm:"index;not null"`
	Descripcion   string
	CostoVigente  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PrecioVigente decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Stock         int             `gorm:"not null;default:0"`
	// StockSeguridad is the low-stock alert threshold, not a hard floor.
	// The flags carry no column default on purpose: GORM omits zero-valued
	// fields that have one, so a false here would silently come back true.
	// Callers always set them explicitly.
	StockSeguridad int  `gorm:"not null;default:0"`
	CompraDirecta  bool `gorm:"not null"`
	VentaDirecta   bool `gorm:"not null"`
	Habilitado     bool `gorm:"not null"`
	Borrado        bool `gorm:"not null;default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (p *Producto) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// BajoStockSeguridad reports whether the cached stock fell to or below the
// alert threshold.
func (p *Producto) BajoStockSeguridad() bool {
	return p.Stock <= p.StockSeguridad
}
