package service

import (
	"context"
	"testing"

	"gastropos/internal/apierror"
	"gastropos/internal/config"
	"gastropos/internal/dto"
	"gastropos/internal/model"
	"gastropos/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubUsuarioRepo struct {
	usuarios map[uuid.UUID]*model.Usuario
}

func newStubUsuarioRepo() *stubUsuarioRepo {
	return &stubUsuarioRepo{usuarios: make(map[uuid.UUID]*model.Usuario)}
}

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.usuarios[u.ID] = u
	return nil
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	u, ok := r.usuarios[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUsuarioRepo) FindByEmail(_ context.Context, email string) (*model.Usuario, error) {
	for _, u := range r.usuarios {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *stubUsuarioRepo) List(_ context.Context, _ string, _, _ int) ([]model.Usuario, int64, error) {
	out := make([]model.Usuario, 0, len(r.usuarios))
	for _, u := range r.usuarios {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (r *stubUsuarioRepo) Update(_ context.Context, u *model.Usuario) error {
	r.usuarios[u.ID] = u
	return nil
}

var _ repository.UsuarioRepository = (*stubUsuarioRepo)(nil)

func nuevoAuthService() (AuthService, *stubUsuarioRepo, *config.Config) {
	usuarios := newStubUsuarioRepo()
	cfg := &config.Config{JWTSecret: "secreto-de-prueba", JWTExpirationHours: 24}
	return NewAuthService(usuarios, cfg), usuarios, cfg
}

func TestRegistrarHasheaYAsignaComensal(t *testing.T) {
	svc, usuarios, _ := nuevoAuthService()

	resp, err := svc.Registrar(context.Background(), dto.RegistroRequest{
		Nombre:   "Ana",
		Email:    "ana@example.com",
		Password: "contraseña-larga",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RolComensal, resp.Rol)
	assert.True(t, resp.Habilitado)

	guardado := usuarios.usuarios[resp.ID]
	assert.NotEqual(t, "contraseña-larga", guardado.PasswordHash, "passwords are never stored in clear")

	// Duplicate email is rejected.
	_, err = svc.Registrar(context.Background(), dto.RegistroRequest{
		Nombre:   "Otra Ana",
		Email:    "ana@example.com",
		Password: "otra-contraseña",
	})
	var api *apierror.APIError
	assert.ErrorAs(t, err, &api)
}

func TestLoginEmiteTokenConRol(t *testing.T) {
	svc, _, cfg := nuevoAuthService()
	ctx := context.Background()

	registrado, err := svc.Registrar(ctx, dto.RegistroRequest{
		Nombre:   "Ana",
		Email:    "ana@example.com",
		Password: "contraseña-larga",
	})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "contraseña-larga"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)

	token, err := jwt.Parse(resp.Token, func(*jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, registrado.ID.String(), claims["sub"])
	assert.Equal(t, model.RolComensal, claims["rol"])
}

func TestLoginRechazaCredencialesInvalidas(t *testing.T) {
	svc, usuarios, _ := nuevoAuthService()
	ctx := context.Background()

	registrado, err := svc.Registrar(ctx, dto.RegistroRequest{
		Nombre:   "Ana",
		Email:    "ana@example.com",
		Password: "contraseña-larga",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "equivocada"})
	assert.ErrorIs(t, err, errCredenciales)

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "nadie@example.com", Password: "lo-que-sea"})
	assert.ErrorIs(t, err, errCredenciales, "unknown emails fail identically")

	// A disabled account cannot log in even with the right password.
	usuarios.usuarios[registrado.ID].Habilitado = false
	_, err = svc.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "contraseña-larga"})
	assert.ErrorIs(t, err, errCredenciales)
}

func TestCambiarRolSoloAdmin(t *testing.T) {
	svc, _, _ := nuevoAuthService()
	ctx := context.Background()

	registrado, err := svc.Registrar(ctx, dto.RegistroRequest{
		Nombre:   "Ana",
		Email:    "ana@example.com",
		Password: "contraseña-larga",
	})
	require.NoError(t, err)

	_, err = svc.CambiarRol(ctx, actorVendedor(), registrado.ID, model.RolMozo)
	var transicion *apierror.IllegalTransitionError
	require.ErrorAs(t, err, &transicion)

	cambiado, err := svc.CambiarRol(ctx, actorAdmin(), registrado.ID, model.RolMozo)
	require.NoError(t, err)
	assert.Equal(t, model.RolMozo, cambiado.Rol)
}
