package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gastropos/internal/apierror"
	"gastropos/internal/config"
	"gastropos/internal/dto"
	"gastropos/internal/model"
	"gastropos/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var errCredenciales = apierror.New("Email o contraseña incorrectos.")

// AuthService registers users and issues JWTs carrying the user's role.
type AuthService interface {
	Registrar(ctx context.Context, req dto.RegistroRequest) (*dto.UsuarioResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	CambiarRol(ctx context.Context, actor model.Actor, usuarioID uuid.UUID, rol string) (*dto.UsuarioResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.UsuarioResponse, error)
}

type authService struct {
	usuarios repository.UsuarioRepository
	cfg      *config.Config
}

func NewAuthService(usuarios repository.UsuarioRepository, cfg *config.Config) AuthService {
	return &authService{usuarios: usuarios, cfg: cfg}
}

func (s *authService) Registrar(ctx context.Context, req dto.RegistroRequest) (*dto.UsuarioResponse, error) {
	existente, err := s.usuarios.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existente != nil {
		return nil, apierror.New("Ya existe un usuario con ese email.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	usuario := &model.Usuario{
		Nombre:       req.Nombre,
		Email:        req.Email,
		PasswordHash: string(hash),
		Rol:          model.RolComensal,
		Habilitado:   true,
	}
	if err := s.usuarios.Create(ctx, usuario); err != nil {
		return nil, err
	}
	log.Info().Str("email", usuario.Email).Msg("usuario registrado")
	return usuarioToResponse(usuario), nil
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	usuario, err := s.usuarios.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if usuario == nil || usuario.Borrado || !usuario.Habilitado {
		return nil, errCredenciales
	}
	if bcrypt.CompareHashAndPassword([]byte(usuario.PasswordHash), []byte(req.Password)) != nil {
		return nil, errCredenciales
	}

	expira := time.Now().Add(time.Duration(s.cfg.JWTExpirationHours) * time.Hour)
	claims := jwt.MapClaims{
		"sub": usuario.ID.String(),
		"rol": usuario.Rol,
		"exp": expira.Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	firmado, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token:    firmado,
		ExpiraEn: expira,
		Usuario:  *usuarioToResponse(usuario),
	}, nil
}

func (s *authService) CambiarRol(ctx context.Context, actor model.Actor, usuarioID uuid.UUID, rol string) (*dto.UsuarioResponse, error) {
	if !actor.EsAdmin() {
		return nil, apierror.NewIllegalTransition("Solo un administrador puede cambiar roles.")
	}
	usuario, err := s.buscar(ctx, usuarioID)
	if err != nil {
		return nil, err
	}
	usuario.Rol = rol
	if err := s.usuarios.Update(ctx, usuario); err != nil {
		return nil, err
	}
	log.Info().Str("usuario", usuario.Email).Str("rol", rol).Msg("rol actualizado")
	return usuarioToResponse(usuario), nil
}

func (s *authService) Obtener(ctx context.Context, id uuid.UUID) (*dto.UsuarioResponse, error) {
	usuario, err := s.buscar(ctx, id)
	if err != nil {
		return nil, err
	}
	return usuarioToResponse(usuario), nil
}

func (s *authService) buscar(ctx context.Context, id uuid.UUID) (*model.Usuario, error) {
	usuario, err := s.usuarios.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NewNotFound(fmt.Sprintf("usuario %s", id))
	}
	if err != nil {
		return nil, err
	}
	return usuario, nil
}

func usuarioToResponse(u *model.Usuario) *dto.UsuarioResponse {
	return &dto.UsuarioResponse{
		ID:         u.ID,
		Nombre:     u.Nombre,
		Email:      u.Email,
		Rol:        u.Rol,
		Habilitado: u.Habilitado,
	}
}
