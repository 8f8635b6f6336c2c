package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineaPedidaRequest is one requested line of the desired final order state.
// Clients send the complete desired state on every call; quantity 0 is an
// explicit removal.
type LineaPedidaRequest struct {
	ProductoID uuid.UUID `json:"producto_id" binding:"required"`
	Cantidad   int       `json:"cantidad" binding:"gte=0"`
}

// GuardarPedidoRequest creates the customer's open order or edits it in place.
type GuardarPedidoRequest struct {
	Tipo          string               `json:"tipo" binding:"omitempty,oneof=retiro delivery"`
	Direccion     string               `json:"direccion" binding:"max=250"`
	Observaciones string               `json:"observaciones" binding:"max=500"`
	Cambio        decimal.Decimal      `json:"cambio"`
	Lineas        []LineaPedidaRequest `json:"lineas" binding:"required,dive"`
}

type CancelarPedidoRequest struct {
	Motivo string `json:"motivo" binding:"max=500"`
}

type PedidoLineaResponse struct {
	ID         uuid.UUID       `json:"id"`
	ProductoID uuid.UUID       `json:"producto_id"`
	Producto   string          `json:"producto,omitempty"`
	Cantidad   int             `json:"cantidad"`
	Precio     decimal.Decimal `json:"precio"`
	Total      decimal.Decimal `json:"total"`
}

type PedidoEstadoResponse struct {
	Estado string    `json:"estado"`
	Fecha  time.Time `json:"fecha"`
}

type PedidoResponse struct {
	ID                uuid.UUID             `json:"id"`
	IDTexto           string                `json:"id_texto"`
	Numero            int                   `json:"numero"`
	UsuarioID         uuid.UUID             `json:"usuario_id"`
	UltimoEstado      string                `json:"ultimo_estado"`
	Tipo              string                `json:"tipo"`
	Total             decimal.Decimal       `json:"total"`
	Cambio            decimal.Decimal       `json:"cambio"`
	Direccion         string                `json:"direccion,omitempty"`
	Observaciones     string                `json:"observaciones,omitempty"`
	MotivoCancelacion string                `json:"motivo_cancelacion,omitempty"`
	VentaID           *uuid.UUID            `json:"venta_id,omitempty"`
	Lineas            []PedidoLineaResponse `json:"lineas"`
	Estados           []PedidoEstadoResponse `json:"estados,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
}

// GuardarPedidoResponse distinguishes the destroyed-because-empty outcome.
type GuardarPedidoResponse struct {
	Pedido    *PedidoResponse `json:"pedido,omitempty"`
	Eliminado bool            `json:"eliminado"`
}
