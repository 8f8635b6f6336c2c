package handler

import (
	"net/http"

	"gastropos/internal/dto"
	"gastropos/internal/middleware"
	"gastropos/internal/repository"
	"gastropos/internal/service"

	"github.com/gin-gonic/gin"
)

type PedidosHandler struct{ svc service.PedidoService }

func NewPedidosHandler(svc service.PedidoService) *PedidosHandler {
	return &PedidosHandler{svc: svc}
}

// Guardar godoc
// @Summary      Crear o editar el pedido abierto
// @Description  El cliente envía el estado final deseado de sus líneas. Si ya tiene un pedido abierto se edita ese; cantidad 0 o ausencia eliminan la línea. Un pedido que queda sin líneas se elimina.
// @Tags         pedidos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.GuardarPedidoRequest true "Estado final de las líneas"
// @Success      200  {object} dto.GuardarPedidoResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/pedidos [post]
func (h *PedidosHandler) Guardar(c *gin.Context) {
	var req dto.GuardarPedidoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Guardar(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener godoc
// @Summary      Obtener un pedido
// @Description  Visible para su dueño, vendedores y administradores.
// @Tags         pedidos
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del pedido"
// @Success      200  {object} dto.PedidoResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/pedidos/{id} [get]
func (h *PedidosHandler) Obtener(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Listar godoc
// @Summary      Listar pedidos
// @Description  Los comensales ven solo los suyos; vendedores y admins ven todos.
// @Tags         pedidos
// @Produce      json
// @Security     BearerAuth
// @Param        estado query string false "abierto | cerrado | disponible | recibido | cancelado"
// @Success      200  {object} dto.ListResponse[dto.PedidoResponse]
// @Router       /v1/pedidos [get]
func (h *PedidosHandler) Listar(c *gin.Context) {
	filter := repository.PedidoFilter{
		Estado: c.Query("estado"),
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
	}
	pedidos, total, err := h.svc.Listar(c.Request.Context(), middleware.GetActor(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListResponse[dto.PedidoResponse]{
		Data:       pedidos,
		Paginacion: dto.Paginacion{Page: filter.Page, Limit: filter.Limit, Total: total},
	})
}

// Cerrar godoc
// @Summary      Cerrar (enviar) el pedido
// @Description  El dueño confirma su pedido abierto con los datos de entrega. Dispara la comanda de cocina.
// @Tags         pedidos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID del pedido"
// @Param        body body dto.GuardarPedidoRequest true "Datos de entrega y, opcionalmente, líneas finales"
// @Success      200  {object} dto.PedidoResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/pedidos/{id}/cerrar [post]
func (h *PedidosHandler) Cerrar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.GuardarPedidoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Cerrar(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MarcarDisponible godoc
// @Summary      Marcar el pedido como disponible
// @Description  Solo vendedores. Materializa la venta online y notifica al cliente.
// @Tags         pedidos
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del pedido"
// @Success      200  {object} dto.PedidoResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/pedidos/{id}/disponible [post]
func (h *PedidosHandler) MarcarDisponible(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.MarcarDisponible(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Entregar godoc
// @Summary      Entregar el pedido
// @Description  Solo vendedores, desde disponible.
// @Tags         pedidos
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del pedido"
// @Success      200  {object} dto.PedidoResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/pedidos/{id}/entregar [post]
func (h *PedidosHandler) Entregar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Entregar(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancelar godoc
// @Summary      Cancelar el pedido
// @Description  Devuelve el stock de todas las líneas y anula la venta materializada si existe. Cancelar un pedido ya enviado requiere un motivo de al menos 10 caracteres.
// @Tags         pedidos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID del pedido"
// @Param        body body dto.CancelarPedidoRequest true "Motivo"
// @Success      200  {object} dto.PedidoResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/pedidos/{id}/cancelar [post]
func (h *PedidosHandler) Cancelar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.CancelarPedidoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Cancelar(c.Request.Context(), middleware.GetActor(c), id, req.Motivo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
