package handler

import (
	"net/http"

	"gastropos/internal/dto"
	"gastropos/internal/middleware"
	"gastropos/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct{ svc service.AuthService }

func NewAuthHandler(svc service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

// Registrar godoc
// @Summary      Registrar un nuevo usuario
// @Description  Crea una cuenta de comensal con email y contraseña.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body body dto.RegistroRequest true "Datos de registro"
// @Success      201  {object} dto.UsuarioResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/auth/registro [post]
func (h *AuthHandler) Registrar(c *gin.Context) {
	var req dto.RegistroRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Registrar(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Login godoc
// @Summary      Iniciar sesión
// @Description  Valida credenciales y devuelve un JWT con el rol del usuario.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body body dto.LoginRequest true "Credenciales"
// @Success      200  {object} dto.LoginResponse
// @Failure      401  {object} apierror.APIError
// @Router       /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Email o contraseña incorrectos."})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Perfil godoc
// @Summary      Perfil del usuario autenticado
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object} dto.UsuarioResponse
// @Router       /v1/auth/perfil [get]
func (h *AuthHandler) Perfil(c *gin.Context) {
	actor := middleware.GetActor(c)
	resp, err := h.svc.Obtener(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CambiarRol godoc
// @Summary      Cambiar el rol de un usuario
// @Description  Solo administradores. Roles: comensal | mozo | vendedor | admin.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID del usuario"
// @Param        body body dto.CambiarRolRequest true "Nuevo rol"
// @Success      200  {object} dto.UsuarioResponse
// @Failure      403  {object} apierror.APIError
// @Router       /v1/usuarios/{id}/rol [put]
func (h *AuthHandler) CambiarRol(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.CambiarRolRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CambiarRol(c.Request.Context(), middleware.GetActor(c), id, req.Rol)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
