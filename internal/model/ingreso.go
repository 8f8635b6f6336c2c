package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ingreso is a merchandise receipt: every line adds stock through the ledger.
type Ingreso struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Numero    int       `gorm:"uniqueIndex;not null"`
	UsuarioID uuid.UUID `gorm:"type:uuid;not null;index"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt time.Time

	Usuario *Usuario       `gorm:"foreignKey:UsuarioID"`
	Lineas  []IngresoLinea `gorm:"foreignKey:IngresoID"`
}

func (i *Ingreso) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// IDTexto returns the human-readable receipt id, e.g. I00042.
func (i *Ingreso) IDTexto() string { return fmt.Sprintf("I%05d", i.Numero) }

// ActualizarTotal recomputes the receipt total from its line totals.
func (i *Ingreso) ActualizarTotal() {
	total := decimal.Zero
	for _, linea := range i.Lineas {
		total = total.Add(linea.Total)
	}
	i.Total = total
}

// IngresoLinea records quantity received and the purchase cost at that moment.
type IngresoLinea struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	IngresoID  uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductoID uuid.UUID `gorm:"type:uuid;not null;index"`
	Cantidad   int       `gorm:"not null"`
	Precio     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total      decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

func (l *IngresoLinea) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
