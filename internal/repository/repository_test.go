package repository

import (
	"context"
	"testing"
	"time"

	"gastropos/internal/dto"
	"gastropos/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB runs the real migrations against a throwaway in-memory sqlite.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Usuario{},
		&model.Producto{},
		&model.MovimientoStock{},
		&model.Pedido{},
		&model.PedidoLinea{},
		&model.PedidoEstado{},
		&model.Venta{},
		&model.VentaLinea{},
		&model.Mesa{},
		&model.Turno{},
		&model.TurnoOrden{},
	))
	return db
}

func crearProducto(t *testing.T, db *gorm.DB, nombre string, habilitado bool) *model.Producto {
	t.Helper()
	p := &model.Producto{
		Nombre:        nombre,
		PrecioVigente: decimal.RequireFromString("1500"),
		CompraDirecta: true,
		VentaDirecta:  true,
		Habilitado:    habilitado,
	}
	require.NoError(t, NewProductoRepository(db).Create(context.Background(), p))
	return p
}

func TestProductoListFiltros(t *testing.T) {
	db := openTestDB(t)
	repo := NewProductoRepository(db)
	ctx := context.Background()

	crearProducto(t, db, "Café con leche", true)
	crearProducto(t, db, "Café solo", true)
	oculto := crearProducto(t, db, "Torta", false)
	borrado := crearProducto(t, db, "Viejo", true)
	require.NoError(t, repo.SoftDelete(ctx, borrado.ID))

	// Default: only enabled, never soft-deleted.
	productos, total, err := repo.List(ctx, dto.ProductoFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, productos, 2)

	// Disabled products remain reachable by explicit filter.
	productos, _, err = repo.List(ctx, dto.ProductoFilter{Habilitado: "false"})
	require.NoError(t, err)
	require.Len(t, productos, 1)
	assert.Equal(t, oculto.ID, productos[0].ID)

	productos, _, err = repo.List(ctx, dto.ProductoFilter{Habilitado: "all", Nombre: "café"})
	require.NoError(t, err)
	assert.Len(t, productos, 2)

	// Soft-deleted products never come back.
	_, err = repo.FindByID(ctx, borrado.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMovimientoSumCantidad(t *testing.T) {
	db := openTestDB(t)
	repo := NewMovimientoStockRepository(db)
	producto := crearProducto(t, db, "Café", true)

	// No rows yet: the sum is zero, not an error.
	suma, err := repo.SumCantidadTx(db, producto.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, suma)

	for _, cantidad := range []int{10, -3, -2} {
		require.NoError(t, repo.CreateTx(db, &model.MovimientoStock{
			ProductoID: producto.ID,
			Cantidad:   cantidad,
		}))
	}
	suma, err = repo.SumCantidadTx(db, producto.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, suma)
}

func TestPedidoNumeracionYAbiertoPorUsuario(t *testing.T) {
	db := openTestDB(t)
	repo := NewPedidoRepository(db)
	ctx := context.Background()
	usuario := uuid.New()

	numero, err := repo.NextNumeroTx(db)
	require.NoError(t, err)
	assert.Equal(t, 1, numero)

	pedido := &model.Pedido{Numero: numero, UsuarioID: usuario, UltimoEstado: model.PedidoAbierto}
	require.NoError(t, repo.CreateTx(db, pedido))

	numero, err = repo.NextNumeroTx(db)
	require.NoError(t, err)
	assert.Equal(t, 2, numero)

	abierto, err := repo.FindAbiertoPorUsuario(ctx, usuario)
	require.NoError(t, err)
	require.NotNil(t, abierto)
	assert.Equal(t, pedido.ID, abierto.ID)

	// Other customers have no open order.
	otro, err := repo.FindAbiertoPorUsuario(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, otro)
}

func TestPedidoAgregarEstadoNoDuplica(t *testing.T) {
	db := openTestDB(t)
	repo := NewPedidoRepository(db)
	ctx := context.Background()

	pedido := &model.Pedido{Numero: 1, UsuarioID: uuid.New()}
	require.NoError(t, repo.CreateTx(db, pedido))

	require.NoError(t, repo.AgregarEstadoTx(db, pedido, model.PedidoAbierto))
	require.NoError(t, repo.AgregarEstadoTx(db, pedido, model.PedidoAbierto))
	require.NoError(t, repo.AgregarEstadoTx(db, pedido, model.PedidoCerrado))

	cargado, err := repo.FindByID(ctx, pedido.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PedidoCerrado, cargado.UltimoEstado)
	assert.Len(t, cargado.Estados, 2, "repeated states collapse into one history row")
}

func TestPedidoDeleteArrastraHijos(t *testing.T) {
	db := openTestDB(t)
	repo := NewPedidoRepository(db)
	producto := crearProducto(t, db, "Café", true)

	pedido := &model.Pedido{Numero: 1, UsuarioID: uuid.New()}
	require.NoError(t, repo.CreateTx(db, pedido))
	require.NoError(t, repo.AgregarEstadoTx(db, pedido, model.PedidoAbierto))
	require.NoError(t, repo.CreateLineaTx(db, &model.PedidoLinea{
		PedidoID:   pedido.ID,
		ProductoID: producto.ID,
		Cantidad:   2,
		Precio:     producto.PrecioVigente,
		Total:      producto.PrecioVigente.Mul(decimal.NewFromInt(2)),
	}))

	require.NoError(t, repo.DeleteTx(db, pedido.ID))

	var lineas, estados int64
	db.Model(&model.PedidoLinea{}).Where("pedido_id = ?", pedido.ID).Count(&lineas)
	db.Model(&model.PedidoEstado{}).Where("pedido_id = ?", pedido.ID).Count(&estados)
	assert.Zero(t, lineas)
	assert.Zero(t, estados)
}

func TestVentaMarcarAnuladaYFiltros(t *testing.T) {
	db := openTestDB(t)
	repo := NewVentaRepository(db)
	ctx := context.Background()

	venta := &model.Venta{Numero: 1, UsuarioID: uuid.New(), Tipo: model.VentaAlmacen}
	require.NoError(t, repo.CreateTx(db, venta))
	online := &model.Venta{Numero: 2, UsuarioID: uuid.New(), Tipo: model.VentaOnline}
	require.NoError(t, repo.CreateTx(db, online))

	require.NoError(t, repo.MarcarAnuladaTx(db, venta.ID, time.Now()))

	cargada, err := repo.FindByID(ctx, venta.ID)
	require.NoError(t, err)
	assert.True(t, cargada.EstaAnulada())

	// Default listing hides voided sales.
	activas, total, err := repo.List(ctx, VentaFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, activas, 1)
	assert.Equal(t, online.ID, activas[0].ID)

	todas, _, err := repo.List(ctx, VentaFilter{Estado: "all"})
	require.NoError(t, err)
	assert.Len(t, todas, 2)

	soloOnline, _, err := repo.List(ctx, VentaFilter{Tipo: model.VentaOnline, Estado: "all"})
	require.NoError(t, err)
	require.Len(t, soloOnline, 1)
	assert.Equal(t, online.ID, soloOnline[0].ID)
}

func TestTurnoAbiertoPorMesa(t *testing.T) {
	db := openTestDB(t)
	repo := NewTurnoRepository(db)
	ctx := context.Background()

	mesa := &model.Mesa{Numero: 1, Estado: model.MesaDisponible}
	require.NoError(t, repo.CreateMesa(ctx, mesa))

	abierto, err := repo.FindTurnoAbiertoPorMesa(ctx, mesa.ID)
	require.NoError(t, err)
	assert.Nil(t, abierto)

	turno := &model.Turno{MesaID: mesa.ID, MozoID: uuid.New(), Estado: model.TurnoAbierto}
	require.NoError(t, repo.CreateTurnoTx(db, turno))

	abierto, err = repo.FindTurnoAbiertoPorMesa(ctx, mesa.ID)
	require.NoError(t, err)
	require.NotNil(t, abierto)
	assert.Equal(t, turno.ID, abierto.ID)

	// Closing ends the association.
	ahora := time.Now()
	turno.Estado = model.TurnoCerrado
	turno.HoraFin = &ahora
	require.NoError(t, repo.SaveTurnoTx(db, turno))

	abierto, err = repo.FindTurnoAbiertoPorMesa(ctx, mesa.ID)
	require.NoError(t, err)
	assert.Nil(t, abierto)
}
