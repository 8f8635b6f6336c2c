package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reemplazo is a physical recount/swap of merchandise: every line sets the
// product stock to an audited absolute value through the ledger.
type Reemplazo struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Numero    int       `gorm:"uniqueIndex;not null"`
	UsuarioID uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time

	Usuario *Usuario         `gorm:"foreignKey:UsuarioID"`
	Lineas  []ReemplazoLinea `gorm:"foreignKey:ReemplazoID"`
}

func (r *Reemplazo) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// IDTexto returns the human-readable replacement id, e.g. R00042.
func (r *Reemplazo) IDTexto() string { return fmt.Sprintf("R%05d", r.Numero) }

// ReemplazoLinea captures the stock before and after the recount.
type ReemplazoLinea struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	ReemplazoID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductoID    uuid.UUID `gorm:"type:uuid;not null;index"`
	StockAnterior int       `gorm:"not null"`
	StockNuevo    int       `gorm:"not null"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

func (l *ReemplazoLinea) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
