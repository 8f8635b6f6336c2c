package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineaVentaRequest is one line of a direct counter sale.
type LineaVentaRequest struct {
	ProductoID uuid.UUID `json:"producto_id" binding:"required"`
	Cantidad   int       `json:"cantidad" binding:"required,gt=0"`
}

type RegistrarVentaRequest struct {
	Lineas []LineaVentaRequest `json:"lineas" binding:"required,min=1,dive"`
}

type VentaLineaResponse struct {
	ID         uuid.UUID       `json:"id"`
	ProductoID uuid.UUID       `json:"producto_id"`
	Producto   string          `json:"producto,omitempty"`
	Cantidad   int             `json:"cantidad"`
	Precio     decimal.Decimal `json:"precio"`
	Total      decimal.Decimal `json:"total"`
}

type VentaResponse struct {
	ID        uuid.UUID            `json:"id"`
	IDTexto   string               `json:"id_texto"`
	Numero    int                  `json:"numero"`
	UsuarioID uuid.UUID            `json:"usuario_id"`
	Tipo      string               `json:"tipo"`
	Total     decimal.Decimal      `json:"total"`
	Anulado   *time.Time           `json:"anulado,omitempty"`
	PedidoID  *uuid.UUID           `json:"pedido_id,omitempty"`
	TurnoID   *uuid.UUID           `json:"turno_id,omitempty"`
	Lineas    []VentaLineaResponse `json:"lineas"`
	CreatedAt time.Time            `json:"created_at"`
}
