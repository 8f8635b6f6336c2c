package dto

import (
	"time"

	"github.com/google/uuid"
)

type CrearMesaRequest struct {
	Numero      int    `json:"numero" binding:"required,gt=0"`
	Descripcion string `json:"descripcion" binding:"max=250"`
}

type ActualizarMesaRequest struct {
	Numero      int    `json:"numero" binding:"required,gt=0"`
	Descripcion string `json:"descripcion" binding:"max=250"`
}

type MesaResponse struct {
	ID          uuid.UUID `json:"id"`
	Numero      int       `json:"numero"`
	NumeroTexto string    `json:"numero_texto"`
	Estado      string    `json:"estado"`
	Descripcion string    `json:"descripcion,omitempty"`
	TurnoID     *uuid.UUID `json:"turno_id,omitempty"`
}

type CrearTurnoRequest struct {
	MesaID uuid.UUID `json:"mesa_id" binding:"required"`
}

// OrdenPedidaRequest is one requested line of the desired final turn state.
// Same contract as order lines: full desired state, quantity 0 removes.
type OrdenPedidaRequest struct {
	ProductoID uuid.UUID `json:"producto_id" binding:"required"`
	Cantidad   int       `json:"cantidad" binding:"gte=0"`
}

type GuardarOrdenesRequest struct {
	Ordenes []OrdenPedidaRequest `json:"ordenes" binding:"required,dive"`
}

type EntregarOrdenRequest struct {
	Cantidad int `json:"cantidad" binding:"required,gt=0"`
}

type TurnoOrdenResponse struct {
	ID         uuid.UUID `json:"id"`
	ProductoID uuid.UUID `json:"producto_id"`
	Producto   string    `json:"producto,omitempty"`
	Estado     string    `json:"estado"`
	Cantidad   int       `json:"cantidad"`
	Entregado  int       `json:"entregado"`
}

type TurnoResponse struct {
	ID         uuid.UUID            `json:"id"`
	MesaID     uuid.UUID            `json:"mesa_id"`
	Mesa       string               `json:"mesa,omitempty"`
	MozoID     uuid.UUID            `json:"mozo_id"`
	Estado     string               `json:"estado"`
	VentaID    *uuid.UUID           `json:"venta_id,omitempty"`
	HoraInicio time.Time            `json:"hora_inicio"`
	HoraFin    *time.Time           `json:"hora_fin,omitempty"`
	Ordenes    []TurnoOrdenResponse `json:"ordenes"`
}
