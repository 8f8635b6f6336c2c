package service

import (
	"context"
	"testing"

	"gastropos/internal/apierror"
	"gastropos/internal/dto"
	"gastropos/internal/model"
	"gastropos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubIngresoRepo struct {
	ingresos map[uuid.UUID]*model.Ingreso
	seq      int
}

func newStubIngresoRepo() *stubIngresoRepo {
	return &stubIngresoRepo{ingresos: make(map[uuid.UUID]*model.Ingreso)}
}

func (r *stubIngresoRepo) CreateTx(_ *gorm.DB, i *model.Ingreso) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	for j := range i.Lineas {
		if i.Lineas[j].ID == uuid.Nil {
			i.Lineas[j].ID = uuid.New()
		}
		i.Lineas[j].IngresoID = i.ID
	}
	r.ingresos[i.ID] = i
	return nil
}

func (r *stubIngresoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Ingreso, error) {
	i, ok := r.ingresos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return i, nil
}

func (r *stubIngresoRepo) List(_ context.Context, _, _ int) ([]model.Ingreso, int64, error) {
	out := make([]model.Ingreso, 0, len(r.ingresos))
	for _, i := range r.ingresos {
		out = append(out, *i)
	}
	return out, int64(len(out)), nil
}

func (r *stubIngresoRepo) NextNumeroTx(_ *gorm.DB) (int, error) {
	r.seq++
	return r.seq, nil
}

func (r *stubIngresoRepo) DB() *gorm.DB { return nil }

var _ repository.IngresoRepository = (*stubIngresoRepo)(nil)

type stubReemplazoRepo struct {
	reemplazos map[uuid.UUID]*model.Reemplazo
	seq        int
}

func newStubReemplazoRepo() *stubReemplazoRepo {
	return &stubReemplazoRepo{reemplazos: make(map[uuid.UUID]*model.Reemplazo)}
}

func (r *stubReemplazoRepo) CreateTx(_ *gorm.DB, re *model.Reemplazo) error {
	if re.ID == uuid.Nil {
		re.ID = uuid.New()
	}
	for j := range re.Lineas {
		if re.Lineas[j].ID == uuid.Nil {
			re.Lineas[j].ID = uuid.New()
		}
		re.Lineas[j].ReemplazoID = re.ID
	}
	r.reemplazos[re.ID] = re
	return nil
}

func (r *stubReemplazoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Reemplazo, error) {
	re, ok := r.reemplazos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return re, nil
}

func (r *stubReemplazoRepo) List(_ context.Context, _, _ int) ([]model.Reemplazo, int64, error) {
	out := make([]model.Reemplazo, 0, len(r.reemplazos))
	for _, re := range r.reemplazos {
		out = append(out, *re)
	}
	return out, int64(len(out)), nil
}

func (r *stubReemplazoRepo) NextNumeroTx(_ *gorm.DB) (int, error) {
	r.seq++
	return r.seq, nil
}

func (r *stubReemplazoRepo) DB() *gorm.DB { return nil }

var _ repository.ReemplazoRepository = (*stubReemplazoRepo)(nil)

type inventarioFixture struct {
	ingresos    IngresoService
	reemplazos  ReemplazoService
	productos   *stubProductoRepo
	movimientos *stubMovimientoRepo
}

func nuevoInventarioFixture(t *testing.T) *inventarioFixture {
	t.Helper()
	f := &inventarioFixture{
		productos:   newStubProductoRepo(),
		movimientos: newStubMovimientoRepo(),
	}
	stock := NewStockService(f.productos, f.movimientos)
	f.ingresos = NewIngresoService(newStubIngresoRepo(), f.productos, stock)
	f.reemplazos = NewReemplazoService(newStubReemplazoRepo(), f.productos, stock)
	return f
}

func TestRegistrarIngresoSumaStockYActualizaCosto(t *testing.T) {
	f := nuevoInventarioFixture(t)
	cafe := sembrarProducto(f.productos, f.movimientos, "Café", 5, "1500")
	cafe.CostoVigente = decimal.RequireFromString("800")

	resp, err := f.ingresos.Registrar(context.Background(), actorVendedor(), dto.RegistrarIngresoRequest{
		Lineas: []dto.LineaIngresoRequest{
			{ProductoID: cafe.ID, Cantidad: 10, Precio: decimal.RequireFromString("900")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "I00001", resp.IDTexto)
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("9000")))

	assert.Equal(t, 15, f.productos.productos[cafe.ID].Stock)
	assert.True(t, cafe.CostoVigente.Equal(decimal.RequireFromString("900")),
		"the latest purchase price becomes the current cost")

	ledger := f.movimientos.delProducto(cafe.ID)
	require.Len(t, ledger, 2)
	assert.Equal(t, 10, ledger[1].Cantidad)
	assert.NotNil(t, ledger[1].IngresoLineaID)
}

func TestRegistrarIngresoRechazaSinCompraDirecta(t *testing.T) {
	f := nuevoInventarioFixture(t)
	elaborado := sembrarProducto(f.productos, f.movimientos, "Milanesa casera", 5, "3200")
	elaborado.CompraDirecta = false

	_, err := f.ingresos.Registrar(context.Background(), actorVendedor(), dto.RegistrarIngresoRequest{
		Lineas: []dto.LineaIngresoRequest{
			{ProductoID: elaborado.ID, Cantidad: 3, Precio: decimal.RequireFromString("2000")},
			{ProductoID: uuid.New(), Cantidad: 1, Precio: decimal.RequireFromString("100")},
		},
	})
	var errores *apierror.ValidationErrors
	require.ErrorAs(t, err, &errores)
	assert.Len(t, errores.Errores, 2)
	assert.Equal(t, 5, f.productos.productos[elaborado.ID].Stock, "nothing was applied")
}

func TestRegistrarIngresoSoloVendedores(t *testing.T) {
	f := nuevoInventarioFixture(t)
	cafe := sembrarProducto(f.productos, f.movimientos, "Café", 5, "1500")

	_, err := f.ingresos.Registrar(context.Background(), actorComensal(), dto.RegistrarIngresoRequest{
		Lineas: []dto.LineaIngresoRequest{
			{ProductoID: cafe.ID, Cantidad: 1, Precio: decimal.RequireFromString("800")},
		},
	})
	var transicion *apierror.IllegalTransitionError
	assert.ErrorAs(t, err, &transicion)
}

func TestRegistrarReemplazoFuerzaElStockAuditado(t *testing.T) {
	f := nuevoInventarioFixture(t)
	cafe := sembrarProducto(f.productos, f.movimientos, "Café", 12, "1500")
	torta := sembrarProducto(f.productos, f.movimientos, "Torta", 3, "4200")

	resp, err := f.reemplazos.Registrar(context.Background(), actorAdmin(), dto.RegistrarReemplazoRequest{
		Lineas: []dto.LineaReemplazoRequest{
			{ProductoID: cafe.ID, StockNuevo: 9},  // recount found less
			{ProductoID: torta.ID, StockNuevo: 3}, // recount agrees
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "R00001", resp.IDTexto)
	require.Len(t, resp.Lineas, 2)
	assert.Equal(t, 12, resp.Lineas[0].StockAnterior)
	assert.Equal(t, 9, resp.Lineas[0].StockNuevo)

	assert.Equal(t, 9, f.productos.productos[cafe.ID].Stock)
	assert.Equal(t, 3, f.productos.productos[torta.ID].Stock)

	ledger := f.movimientos.delProducto(cafe.ID)
	require.Len(t, ledger, 2)
	assert.Equal(t, -3, ledger[1].Cantidad, "the ledger keeps the signed difference")
	assert.NotNil(t, ledger[1].ReemplazoLineaID)

	// A recount that changes nothing appends nothing.
	assert.Len(t, f.movimientos.delProducto(torta.ID), 1)
}

func TestRegistrarReemplazoProductoInexistente(t *testing.T) {
	f := nuevoInventarioFixture(t)

	_, err := f.reemplazos.Registrar(context.Background(), actorVendedor(), dto.RegistrarReemplazoRequest{
		Lineas: []dto.LineaReemplazoRequest{{ProductoID: uuid.New(), StockNuevo: 4}},
	})
	var errores *apierror.ValidationErrors
	require.ErrorAs(t, err, &errores)
	require.Len(t, errores.Errores, 1)
	var noExiste *apierror.NotFoundError
	assert.ErrorAs(t, errores.Errores[0], &noExiste)
}

func TestRegistrarIngresoAcumulaLineasRepetidas(t *testing.T) {
	f := nuevoInventarioFixture(t)
	cafe := sembrarProducto(f.productos, f.movimientos, "Café", 5, "1500")

	// Two lines of the same product on one receipt: the additions stack and
	// the last line's price wins as the current cost.
	resp, err := f.ingresos.Registrar(context.Background(), actorVendedor(), dto.RegistrarIngresoRequest{
		Lineas: []dto.LineaIngresoRequest{
			{ProductoID: cafe.ID, Cantidad: 10, Precio: decimal.RequireFromString("900")},
			{ProductoID: cafe.ID, Cantidad: 4, Precio: decimal.RequireFromString("950")},
		},
	})
	require.NoError(t, err)
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("12800")))

	assert.Equal(t, 19, f.productos.productos[cafe.ID].Stock)
	assert.True(t, cafe.CostoVigente.Equal(decimal.RequireFromString("950")))

	ledger := f.movimientos.delProducto(cafe.ID)
	require.Len(t, ledger, 3)
	assert.Equal(t, 10, ledger[1].Cantidad)
	assert.Equal(t, 4, ledger[2].Cantidad)
}

func TestRegistrarReemplazoLineasRepetidasAplicanEnOrden(t *testing.T) {
	f := nuevoInventarioFixture(t)
	cafe := sembrarProducto(f.productos, f.movimientos, "Café", 12, "1500")

	resp, err := f.reemplazos.Registrar(context.Background(), actorVendedor(), dto.RegistrarReemplazoRequest{
		Lineas: []dto.LineaReemplazoRequest{
			{ProductoID: cafe.ID, StockNuevo: 9},
			{ProductoID: cafe.ID, StockNuevo: 7},
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Lineas, 2)
	assert.Equal(t, 12, resp.Lineas[0].StockAnterior)
	assert.Equal(t, 9, resp.Lineas[1].StockAnterior, "the later recount starts from the earlier one's result")
	assert.Equal(t, 7, f.productos.productos[cafe.ID].Stock)

	ledger := f.movimientos.delProducto(cafe.ID)
	require.Len(t, ledger, 3)
	assert.Equal(t, -3, ledger[1].Cantidad)
	assert.Equal(t, -2, ledger[2].Cantidad)
}
