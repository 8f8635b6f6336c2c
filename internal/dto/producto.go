package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductoFilter collects the query-string filters for product listings.
type ProductoFilter struct {
	Habilitado    string `form:"habilitado"`
	Nombre        string `form:"nombre"`
	CompraDirecta bool   `form:"compra_directa"`
	VentaDirecta  bool   `form:"venta_directa"`
	Page          int    `form:"page"`
	Limit         int    `form:"limit"`
}

type CrearProductoRequest struct {
	Nombre         string          `json:"nombre" binding:"required,min=2,max=120"`
	Descripcion    string          `json:"descripcion" binding:"max=500"`
	CostoVigente   decimal.Decimal `json:"costo_vigente" binding:"required"`
	PrecioVigente  decimal.Decimal `json:"precio_vigente" binding:"required"`
	StockSeguridad int             `json:"stock_seguridad" binding:"gte=0"`
	CompraDirecta  *bool           `json:"compra_directa"`
	VentaDirecta   *bool           `json:"venta_directa"`
}

type ActualizarProductoRequest struct {
	Nombre         string          `json:"nombre" binding:"required,min=2,max=120"`
	Descripcion    string          `json:"descripcion" binding:"max=500"`
	CostoVigente   decimal.Decimal `json:"costo_vigente" binding:"required"`
	PrecioVigente  decimal.Decimal `json:"precio_vigente" binding:"required"`
	StockSeguridad int             `json:"stock_seguridad" binding:"gte=0"`
	CompraDirecta  *bool           `json:"compra_directa"`
	VentaDirecta   *bool           `json:"venta_directa"`
	Habilitado     *bool           `json:"habilitado"`
}

type ProductoResponse struct {
	ID             uuid.UUID       `json:"id"`
	Nombre         string          `json:"nombre"`
	Descripcion    string          `json:"descripcion,omitempty"`
	CostoVigente   decimal.Decimal `json:"costo_vigente"`
	PrecioVigente  decimal.Decimal `json:"precio_vigente"`
	Stock          int             `json:"stock"`
	StockSeguridad int             `json:"stock_seguridad"`
	BajoStock      bool            `json:"bajo_stock"`
	CompraDirecta  bool            `json:"compra_directa"`
	VentaDirecta   bool            `json:"venta_directa"`
	Habilitado     bool            `json:"habilitado"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ConsultaPrecioResponse is the cacheable price-lookup projection.
type ConsultaPrecioResponse struct {
	ID            uuid.UUID       `json:"id"`
	Nombre        string          `json:"nombre"`
	PrecioVigente decimal.Decimal `json:"precio_vigente"`
	Stock         int             `json:"stock"`
}

type MovimientoStockResponse struct {
	ID            uuid.UUID `json:"id"`
	ProductoID    uuid.UUID `json:"producto_id"`
	Producto      string    `json:"producto,omitempty"`
	Cantidad      int       `json:"cantidad"`
	StockAnterior int       `json:"stock_anterior"`
	StockNuevo    int       `json:"stock_nuevo"`
	Descripcion   string    `json:"descripcion,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
