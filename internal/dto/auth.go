package dto

import (
	"time"

	"github.com/google/uuid"
)

type RegistroRequest struct {
	Nombre   string `json:"nombre" binding:"required,min=2,max=120"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiraEn  time.Time       `json:"expira_en"`
	Usuario   UsuarioResponse `json:"usuario"`
}

type UsuarioResponse struct {
	ID         uuid.UUID `json:"id"`
	Nombre     string    `json:"nombre"`
	Email      string    `json:"email"`
	Rol        string    `json:"rol"`
	Habilitado bool      `json:"habilitado"`
}

type CambiarRolRequest struct {
	Rol string `json:"rol" binding:"required,oneof=comensal mozo vendedor admin"`
}
