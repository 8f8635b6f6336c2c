package handler

import (
	"net/http"

	"gastropos/internal/dto"
	"gastropos/internal/middleware"
	"gastropos/internal/service"

	"github.com/gin-gonic/gin"
)

type TurnosHandler struct{ svc service.TurnoService }

func NewTurnosHandler(svc service.TurnoService) *TurnosHandler { return &TurnosHandler{svc: svc} }

// CrearMesa godoc
// @Summary      Crear una mesa
// @Tags         mesas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearMesaRequest true "Datos de la mesa"
// @Success      201  {object} dto.MesaResponse
// @Router       /v1/mesas [post]
func (h *TurnosHandler) CrearMesa(c *gin.Context) {
	var req dto.CrearMesaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearMesa(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ActualizarMesa godoc
// @Summary      Editar una mesa
// @Description  Solo mientras la mesa está disponible.
// @Tags         mesas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID de la mesa"
// @Param        body body dto.ActualizarMesaRequest true "Datos de la mesa"
// @Success      200  {object} dto.MesaResponse
// @Router       /v1/mesas/{id} [put]
func (h *TurnosHandler) ActualizarMesa(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarMesaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarMesa(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EliminarMesa godoc
// @Summary      Eliminar una mesa
// @Description  Solo mesas disponibles y sin turnos registrados.
// @Tags         mesas
// @Security     BearerAuth
// @Param        id path string true "UUID de la mesa"
// @Success      204
// @Router       /v1/mesas/{id} [delete]
func (h *TurnosHandler) EliminarMesa(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.EliminarMesa(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListarMesas godoc
// @Summary      Listar mesas con su estado
// @Tags         mesas
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array} dto.MesaResponse
// @Router       /v1/mesas [get]
func (h *TurnosHandler) ListarMesas(c *gin.Context) {
	resp, err := h.svc.ListarMesas(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Crear godoc
// @Summary      Abrir un turno sobre una mesa disponible
// @Tags         turnos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearTurnoRequest true "Mesa a ocupar"
// @Success      201  {object} dto.TurnoResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/turnos [post]
func (h *TurnosHandler) Crear(c *gin.Context) {
	var req dto.CrearTurnoRequest
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
// @Summary      Obtener un turno con sus órdenes
// @Tags         turnos
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del turno"
// @Success      200  {object} dto.TurnoResponse
// @Router       /v1/turnos/{id} [get]
func (h *TurnosHandler) Obtener(c *gin.Context) {
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

// GuardarOrdenes godoc
// @Summary      Agregar o editar las órdenes del turno
// @Description  El mozo envía el estado final deseado: cantidad 0 o ausencia eliminan la orden; lo entregado se recorta a la nueva cantidad.
// @Tags         turnos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID del turno"
// @Param        body body dto.GuardarOrdenesRequest true "Estado final de las órdenes"
// @Success      200  {object} dto.TurnoResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/turnos/{id}/ordenes [put]
func (h *TurnosHandler) GuardarOrdenes(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.GuardarOrdenesRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.GuardarOrdenes(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EntregarOrden godoc
// @Summary      Registrar entrega parcial o total de una orden
// @Tags         turnos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path string true "UUID del turno"
// @Param        ordenId  path string true "UUID de la orden"
// @Param        body     body dto.EntregarOrdenRequest true "Cantidad entregada"
// @Success      200  {object} dto.TurnoResponse
// @Router       /v1/turnos/{id}/ordenes/{ordenId}/entregar [post]
func (h *TurnosHandler) EntregarOrden(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	ordenID, ok := parseID(c, "ordenId")
	if !ok {
		return
	}
	var req dto.EntregarOrdenRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.EntregarOrden(c.Request.Context(), middleware.GetActor(c), id, ordenID, req.Cantidad)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cerrar godoc
// @Summary      Cerrar el turno
// @Description  Requiere al menos una orden. Materializa la venta de mesa, entrega todo lo pendiente y libera la mesa.
// @Tags         turnos
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del turno"
// @Success      200  {object} dto.TurnoResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/turnos/{id}/cerrar [post]
func (h *TurnosHandler) Cerrar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Cerrar(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Anular godoc
// @Summary      Anular el turno
// @Description  Solo turnos abiertos: devuelve el stock de todas las órdenes y libera la mesa sin generar venta.
// @Tags         turnos
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del turno"
// @Success      200  {object} dto.TurnoResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/turnos/{id}/anular [post]
func (h *TurnosHandler) Anular(c *gin.Context) {
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
