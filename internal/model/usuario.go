package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles del sistema.
const (
	RolComensal = "comensal"
	RolMozo     = "mozo"
	RolVendedor = "vendedor"
	RolAdmin    = "admin"
)

// Usuario stores system users with role-based access.
// Rol: "comensal" | "mozo" | "vendedor" | "admin"
type Usuario struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Nombre       string    `gorm:"not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Rol          string    `gorm:"type:varchar(20);not null;default:'comensal'"`
	Habilitado   bool      `gorm:"not null"`
	Borrado      bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *Usuario) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Actor is the explicit acting-user identity threaded through every engine
// call. Role checks live here instead of on flags computed at load time, so
// services never consult a global "current user".
type Actor struct {
	ID  uuid.UUID
	Rol string
}

func (a Actor) EsAdmin() bool    { return a.Rol == RolAdmin }
func (a Actor) EsVendedor() bool { return a.Rol == RolVendedor }
func (a Actor) EsMozo() bool     { return a.Rol == RolMozo }

// ActorDe builds the engine identity from a loaded user.
func ActorDe(u *Usuario) Actor { return Actor{ID: u.ID, Rol: u.Rol} }
