package handler

import (
	"net/http"

	"gastropos/internal/dto"
	"gastropos/internal/middleware"
	"gastropos/internal/repository"
	"gastropos/internal/service"

	"github.com/gin-gonic/gin"
)

type VentasHandler struct{ svc service.VentaService }

func NewVentasHandler(svc service.VentaService) *VentasHandler { return &VentasHandler{svc: svc} }

// Registrar godoc
// @Summary      Registrar una venta de almacén
// @Description  Venta directa de mostrador: congela precios vigentes y descuenta stock en una única transacción.
// @Tags         ventas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.RegistrarVentaRequest true "Líneas de la venta"
// @Success      201  {object} dto.VentaResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/ventas [post]
func (h *VentasHandler) Registrar(c *gin.Context) {
	var req dto.RegistrarVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarAlmacen(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Obtener godoc
// @Summary      Obtener una venta
// @Tags         ventas
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la venta"
// @Success      200  {object} dto.VentaResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/ventas/{id} [get]
func (h *VentasHandler) Obtener(c *gin.Context) {
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
// @Summary      Listar ventas
// @Tags         ventas
// @Produce      json
// @Security     BearerAuth
// @Param        tipo   query string false "almacen | online | mesa"
// @Param        estado query string false "activa (default) | anulada | all"
// @Success      200  {object} dto.ListResponse[dto.VentaResponse]
// @Router       /v1/ventas [get]
func (h *VentasHandler) Listar(c *gin.Context) {
	filter := repository.VentaFilter{
		Tipo:   c.Query("tipo"),
		Estado: c.Query("estado"),
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
	}
	ventas, total, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListResponse[dto.VentaResponse]{
		Data:       ventas,
		Paginacion: dto.Paginacion{Page: filter.Page, Limit: filter.Limit, Total: total},
	})
}

// Anular godoc
// @Summary      Anular una venta
// @Description  Anula la venta en el lugar. Las ventas de almacén y mesa devuelven su stock; las online solo pueden anularse mientras el pedido de origen está disponible.
// @Tags         ventas
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la venta"
// @Success      200  {object} dto.VentaResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/ventas/{id} [delete]
func (h *VentasHandler) Anular(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Anular(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
