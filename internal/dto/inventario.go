package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineaIngresoRequest adds merchandise at a given purchase cost.
type LineaIngresoRequest struct {
	ProductoID uuid.UUID       `json:"producto_id" binding:"required"`
	Cantidad   int             `json:"cantidad" binding:"required,gt=0"`
	Precio     decimal.Decimal `json:"precio" binding:"required"`
}

type RegistrarIngresoRequest struct {
	Lineas []LineaIngresoRequest `json:"lineas" binding:"required,min=1,dive"`
}

type IngresoLineaResponse struct {
	ID         uuid.UUID       `json:"id"`
	ProductoID uuid.UUID       `json:"producto_id"`
	Producto   string          `json:"producto,omitempty"`
	Cantidad   int             `json:"cantidad"`
	Precio     decimal.Decimal `json:"precio"`
	Total      decimal.Decimal `json:"total"`
}

type IngresoResponse struct {
	ID        uuid.UUID              `json:"id"`
	IDTexto   string                 `json:"id_texto"`
	Numero    int                    `json:"numero"`
	UsuarioID uuid.UUID              `json:"usuario_id"`
	Total     decimal.Decimal        `json:"total"`
	Lineas    []IngresoLineaResponse `json:"lineas"`
	CreatedAt time.Time              `json:"created_at"`
}

// LineaReemplazoRequest sets the audited absolute stock after a recount.
type LineaReemplazoRequest struct {
	ProductoID uuid.UUID `json:"producto_id" binding:"required"`
	StockNuevo int       `json:"stock_nuevo" binding:"gte=0"`
}

type RegistrarReemplazoRequest struct {
	Lineas []LineaReemplazoRequest `json:"lineas" binding:"required,min=1,dive"`
}

type ReemplazoLineaResponse struct {
	ID            uuid.UUID `json:"id"`
	ProductoID    uuid.UUID `json:"producto_id"`
	Producto      string    `json:"producto,omitempty"`
	StockAnterior int       `json:"stock_anterior"`
	StockNuevo    int       `json:"stock_nuevo"`
}

type ReemplazoResponse struct {
	ID        uuid.UUID                `json:"id"`
	IDTexto   string                   `json:"id_texto"`
	Numero    int                      `json:"numero"`
	UsuarioID uuid.UUID                `json:"usuario_id"`
	Lineas    []ReemplazoLineaResponse `json:"lineas"`
	CreatedAt time.Time                `json:"created_at"`
}
