package handler

import (
	"net/http"

	"gastropos/internal/apierror"
	"gastropos/internal/dto"
	"gastropos/internal/middleware"
	"gastropos/internal/repository"
	"gastropos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProductosHandler struct{ svc service.ProductoService }

func NewProductosHandler(svc service.ProductoService) *ProductosHandler {
	return &ProductosHandler{svc: svc}
}

// Crear godoc
// @Summary      Crear un producto
// @Tags         productos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearProductoRequest true "Datos del producto"
// @Success      201  {object} dto.ProductoResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/productos [post]
func (h *ProductosHandler) Crear(c *gin.Context) {
	var req dto.CrearProductoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Obtener godoc
// @Summary      Obtener un producto
// @Tags         productos
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del producto"
// @Success      200  {object} dto.ProductoResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/productos/{id} [get]
func (h *ProductosHandler) Obtener(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Listar godoc
// @Summary      Listar productos
// @Tags         productos
// @Produce      json
// @Security     BearerAuth
// @Param        habilitado     query string false "true (default) | false | all"
// @Param        nombre         query string false "Búsqueda por nombre"
// @Param        compra_directa query bool   false "Solo compra directa"
// @Param        venta_directa  query bool   false "Solo venta directa"
// @Success      200  {object} dto.ListResponse[dto.ProductoResponse]
// @Router       /v1/productos [get]
func (h *ProductosHandler) Listar(c *gin.Context) {
	var filter dto.ProductoFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	productos, total, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListResponse[dto.ProductoResponse]{
		Data:       productos,
		Paginacion: dto.Paginacion{Page: filter.Page, Limit: filter.Limit, Total: total},
	})
}

// Actualizar godoc
// @Summary      Actualizar un producto
// @Tags         productos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID del producto"
// @Param        body body dto.ActualizarProductoRequest true "Datos del producto"
// @Success      200  {object} dto.ProductoResponse
// @Router       /v1/productos/{id} [put]
func (h *ProductosHandler) Actualizar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarProductoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Eliminar godoc
// @Summary      Eliminar (baja lógica) un producto
// @Tags         productos
// @Security     BearerAuth
// @Param        id path string true "UUID del producto"
// @Success      204
// @Router       /v1/productos/{id} [delete]
func (h *ProductosHandler) Eliminar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ConsultarPrecio godoc
// @Summary      Consulta de precio
// @Description  Proyección cacheada en Redis para el kiosco de consulta de precios.
// @Tags         productos
// @Produce      json
// @Param        id path string true "UUID del producto"
// @Success      200  {object} dto.ConsultaPrecioResponse
// @Router       /v1/productos/{id}/precio [get]
func (h *ProductosHandler) ConsultarPrecio(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ConsultarPrecio(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Movimientos godoc
// @Summary      Libro de movimientos de stock
// @Description  Lista paginada del libro append-only, opcionalmente filtrada por producto.
// @Tags         productos
// @Produce      json
// @Security     BearerAuth
// @Param        producto_id query string false "UUID del producto"
// @Success      200  {object} dto.ListResponse[dto.MovimientoStockResponse]
// @Router       /v1/movimientos [get]
func (h *ProductosHandler) Movimientos(c *gin.Context) {
	var filter repository.MovimientoStockFilter
	if raw := c.Query("producto_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("producto_id invalido"))
			return
		}
		filter.ProductoID = &id
	}
	filter.Page = queryInt(c, "page")
	filter.Limit = queryInt(c, "limit")

	movimientos, total, err := h.svc.Movimientos(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListResponse[dto.MovimientoStockResponse]{
		Data:       movimientos,
		Paginacion: dto.Paginacion{Page: filter.Page, Limit: filter.Limit, Total: total},
	})
}
