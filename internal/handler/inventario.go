package handler

import (
	"net/http"

	"gastropos/internal/dto"
	"gastropos/internal/middleware"
	"gastropos/internal/service"

	"github.com/gin-gonic/gin"
)

// InventarioHandler agrupa ingresos y reemplazos de mercadería.
type InventarioHandler struct {
	ingresos   service.IngresoService
	reemplazos service.ReemplazoService
}

func NewInventarioHandler(ingresos service.IngresoService, reemplazos service.ReemplazoService) *InventarioHandler {
	return &InventarioHandler{ingresos: ingresos, reemplazos: reemplazos}
}

// RegistrarIngreso godoc
// @Summary      Registrar un ingreso de mercadería
// @Description  Cada línea suma stock a través del libro de movimientos y actualiza el costo vigente del producto.
// @Tags         inventario
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.RegistrarIngresoRequest true "Líneas del ingreso"
// @Success      201  {object} dto.IngresoResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/ingresos [post]
func (h *InventarioHandler) RegistrarIngreso(c *gin.Context) {
	var req dto.RegistrarIngresoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.ingresos.Registrar(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ObtenerIngreso godoc
// @Summary      Obtener un ingreso
// @Tags         inventario
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del ingreso"
// @Success      200  {object} dto.IngresoResponse
// @Router       /v1/ingresos/{id} [get]
func (h *InventarioHandler) ObtenerIngreso(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.ingresos.Obtener(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarIngresos godoc
// @Summary      Listar ingresos
// @Tags         inventario
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object} dto.ListResponse[dto.IngresoResponse]
// @Router       /v1/ingresos [get]
func (h *InventarioHandler) ListarIngresos(c *gin.Context) {
	page, limit := queryInt(c, "page"), queryInt(c, "limit")
	ingresos, total, err := h.ingresos.Listar(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListResponse[dto.IngresoResponse]{
		Data:       ingresos,
		Paginacion: dto.Paginacion{Page: page, Limit: limit, Total: total},
	})
}

// RegistrarReemplazo godoc
// @Summary      Registrar un reemplazo de mercadería
// @Description  Recuento físico: cada línea fija el stock del producto al valor auditado a través del libro de movimientos.
// @Tags         inventario
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.RegistrarReemplazoRequest true "Líneas del reemplazo"
// @Success      201  {object} dto.ReemplazoResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/reemplazos [post]
func (h *InventarioHandler) RegistrarReemplazo(c *gin.Context) {
	var req dto.RegistrarReemplazoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.reemplazos.Registrar(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ObtenerReemplazo godoc
// @Summary      Obtener un reemplazo
// @Tags         inventario
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del reemplazo"
// @Success      200  {object} dto.ReemplazoResponse
// @Router       /v1/reemplazos/{id} [get]
func (h *InventarioHandler) ObtenerReemplazo(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.reemplazos.Obtener(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarReemplazos godoc
// @Summary      Listar reemplazos
// @Tags         inventario
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object} dto.ListResponse[dto.ReemplazoResponse]
// @Router       /v1/reemplazos [get]
func (h *InventarioHandler) ListarReemplazos(c *gin.Context) {
	page, limit := queryInt(c, "page"), queryInt(c, "limit")
	reemplazos, total, err := h.reemplazos.Listar(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListResponse[dto.ReemplazoResponse]{
		Data:       reemplazos,
		Paginacion: dto.Paginacion{Page: page, Limit: limit, Total: total},
	})
}
