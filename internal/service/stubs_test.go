package service

import (
	"context"
	"time"

	"gastropos/internal/dto"
	"gastropos/internal/model"
	"gastropos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory ProductoRepository stub ────────────────────────────────────────

type stubProductoRepo struct {
	productos map[uuid.UUID]*model.Producto
}

func newStubProductoRepo() *stubProductoRepo {
	return &stubProductoRepo{productos: make(map[uuid.UUID]*model.Producto)}
}

func (r *stubProductoRepo) Create(_ context.Context, p *model.Producto) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.productos[p.ID] = p
	return nil
}

func (r *stubProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	p, ok := r.productos[id]
	if !ok || p.Borrado {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubProductoRepo) List(_ context.Context, _ dto.ProductoFilter) ([]model.Producto, int64, error) {
	out := make([]model.Producto, 0, len(r.productos))
	for _, p := range r.productos {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubProductoRepo) Update(_ context.Context, p *model.Producto) error {
	r.productos[p.ID] = p
	return nil
}

func (r *stubProductoRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if p, ok := r.productos[id]; ok {
		p.Borrado = true
	}
	return nil
}

func (r *stubProductoRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	p, ok := r.productos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubProductoRepo) SetStockTx(_ *gorm.DB, id uuid.UUID, stock int) error {
	if p, ok := r.productos[id]; ok {
		p.Stock = stock
	}
	return nil
}

func (r *stubProductoRepo) SetCostoTx(_ *gorm.DB, id uuid.UUID, costo decimal.Decimal) error {
	if p, ok := r.productos[id]; ok {
		p.CostoVigente = costo
	}
	return nil
}

func (r *stubProductoRepo) DB() *gorm.DB { return nil }

var _ repository.ProductoRepository = (*stubProductoRepo)(nil)

// ── In-memory MovimientoStockRepository stub ─────────────────────────────────

type stubMovimientoRepo struct {
	movimientos []model.MovimientoStock
}

func newStubMovimientoRepo() *stubMovimientoRepo { return &stubMovimientoRepo{} }

func (r *stubMovimientoRepo) CreateTx(_ *gorm.DB, m *model.MovimientoStock) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r *stubMovimientoRepo) SumCantidadTx(_ *gorm.DB, productoID uuid.UUID) (int, error) {
	suma := 0
	for _, m := range r.movimientos {
		if m.ProductoID == productoID {
			suma += m.Cantidad
		}
	}
	return suma, nil
}

func (r *stubMovimientoRepo) List(_ context.Context, filter repository.MovimientoStockFilter) ([]model.MovimientoStock, int64, error) {
	out := make([]model.MovimientoStock, 0, len(r.movimientos))
	for _, m := range r.movimientos {
		if filter.ProductoID != nil && m.ProductoID != *filter.ProductoID {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

// delProducto returns the ledger rows of one product, in append order.
func (r *stubMovimientoRepo) delProducto(productoID uuid.UUID) []model.MovimientoStock {
	out := make([]model.MovimientoStock, 0)
	for _, m := range r.movimientos {
		if m.ProductoID == productoID {
			out = append(out, m)
		}
	}
	return out
}

var _ repository.MovimientoStockRepository = (*stubMovimientoRepo)(nil)

// ── In-memory PedidoRepository stub ──────────────────────────────────────────

type stubPedidoRepo struct {
	pedidos    map[uuid.UUID]*model.Pedido
	lineas     map[uuid.UUID]model.PedidoLinea
	lineaOrden []uuid.UUID
	estados    map[uuid.UUID][]model.PedidoEstado
	seq        int
}

func newStubPedidoRepo() *stubPedidoRepo {
	return &stubPedidoRepo{
		pedidos: make(map[uuid.UUID]*model.Pedido),
		lineas:  make(map[uuid.UUID]model.PedidoLinea),
		estados: make(map[uuid.UUID][]model.PedidoEstado),
	}
}

func (r *stubPedidoRepo) CreateTx(_ *gorm.DB, p *model.Pedido) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.pedidos[p.ID] = p
	return nil
}

func (r *stubPedidoRepo) cargar(id uuid.UUID) (*model.Pedido, error) {
	p, ok := r.pedidos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *p
	copia.Lineas = nil
	for _, lineaID := range r.lineaOrden {
		if l, ok := r.lineas[lineaID]; ok && l.PedidoID == id {
			copia.Lineas = append(copia.Lineas, l)
		}
	}
	copia.Estados = append([]model.PedidoEstado(nil), r.estados[id]...)
	return &copia, nil
}

func (r *stubPedidoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Pedido, error) {
	return r.cargar(id)
}

func (r *stubPedidoRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Pedido, error) {
	return r.cargar(id)
}

func (r *stubPedidoRepo) FindAbiertoPorUsuario(_ context.Context, usuarioID uuid.UUID) (*model.Pedido, error) {
	for id, p := range r.pedidos {
		if p.UsuarioID == usuarioID && p.UltimoEstado == model.PedidoAbierto {
			return r.cargar(id)
		}
	}
	return nil, nil
}

func (r *stubPedidoRepo) List(_ context.Context, filter repository.PedidoFilter) ([]model.Pedido, int64, error) {
	out := make([]model.Pedido, 0, len(r.pedidos))
	for id, p := range r.pedidos {
		if filter.UsuarioID != nil && p.UsuarioID != *filter.UsuarioID {
			continue
		}
		if filter.Estado != "" && p.UltimoEstado != filter.Estado {
			continue
		}
		cargado, _ := r.cargar(id)
		out = append(out, *cargado)
	}
	return out, int64(len(out)), nil
}

func (r *stubPedidoRepo) SaveTx(_ *gorm.DB, p *model.Pedido) error {
	r.pedidos[p.ID] = p
	return nil
}

func (r *stubPedidoRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	delete(r.pedidos, id)
	for lineaID, l := range r.lineas {
		if l.PedidoID == id {
			delete(r.lineas, lineaID)
		}
	}
	delete(r.estados, id)
	return nil
}

func (r *stubPedidoRepo) NextNumeroTx(_ *gorm.DB) (int, error) {
	r.seq++
	return r.seq, nil
}

func (r *stubPedidoRepo) CreateLineaTx(_ *gorm.DB, l *model.PedidoLinea) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	r.lineas[l.ID] = *l
	r.lineaOrden = append(r.lineaOrden, l.ID)
	return nil
}

func (r *stubPedidoRepo) UpdateLineaTx(_ *gorm.DB, l *model.PedidoLinea) error {
	r.lineas[l.ID] = *l
	return nil
}

func (r *stubPedidoRepo) DeleteLineaTx(_ *gorm.DB, id uuid.UUID) error {
	delete(r.lineas, id)
	return nil
}

func (r *stubPedidoRepo) AgregarEstadoTx(_ *gorm.DB, pedido *model.Pedido, estado string) error {
	for _, e := range r.estados[pedido.ID] {
		if e.Estado == estado {
			pedido.UltimoEstado = estado
			return nil
		}
	}
	r.estados[pedido.ID] = append(r.estados[pedido.ID], model.PedidoEstado{
		ID:       uuid.New(),
		PedidoID: pedido.ID,
		Estado:   estado,
		Fecha:    time.Now(),
	})
	pedido.UltimoEstado = estado
	if guardado, ok := r.pedidos[pedido.ID]; ok {
		guardado.UltimoEstado = estado
	}
	return nil
}

func (r *stubPedidoRepo) DB() *gorm.DB { return nil }

var _ repository.PedidoRepository = (*stubPedidoRepo)(nil)

// ── In-memory VentaRepository stub ───────────────────────────────────────────

type stubVentaRepo struct {
	ventas map[uuid.UUID]*model.Venta
	seq    int
}

func newStubVentaRepo() *stubVentaRepo {
	return &stubVentaRepo{ventas: make(map[uuid.UUID]*model.Venta)}
}

func (r *stubVentaRepo) CreateTx(_ *gorm.DB, v *model.Venta) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	for i := range v.Lineas {
		if v.Lineas[i].ID == uuid.Nil {
			v.Lineas[i].ID = uuid.New()
		}
		v.Lineas[i].VentaID = v.ID
	}
	r.ventas[v.ID] = v
	return nil
}

func (r *stubVentaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Venta, error) {
	v, ok := r.ventas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

func (r *stubVentaRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Venta, error) {
	v, ok := r.ventas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

func (r *stubVentaRepo) List(_ context.Context, filter repository.VentaFilter) ([]model.Venta, int64, error) {
	out := make([]model.Venta, 0, len(r.ventas))
	for _, v := range r.ventas {
		if filter.Tipo != "" && v.Tipo != filter.Tipo {
			continue
		}
		out = append(out, *v)
	}
	return out, int64(len(out)), nil
}

func (r *stubVentaRepo) MarcarAnuladaTx(_ *gorm.DB, id uuid.UUID, momento time.Time) error {
	v, ok := r.ventas[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	v.Anulado = &momento
	return nil
}

func (r *stubVentaRepo) NextNumeroTx(_ *gorm.DB) (int, error) {
	r.seq++
	return r.seq, nil
}

func (r *stubVentaRepo) DB() *gorm.DB { return nil }

var _ repository.VentaRepository = (*stubVentaRepo)(nil)

// ── In-memory TurnoRepository stub ───────────────────────────────────────────

type stubTurnoRepo struct {
	mesas      map[uuid.UUID]*model.Mesa
	turnos     map[uuid.UUID]*model.Turno
	ordenes    map[uuid.UUID]model.TurnoOrden
	ordenOrden []uuid.UUID
}

func newStubTurnoRepo() *stubTurnoRepo {
	return &stubTurnoRepo{
		mesas:   make(map[uuid.UUID]*model.Mesa),
		turnos:  make(map[uuid.UUID]*model.Turno),
		ordenes: make(map[uuid.UUID]model.TurnoOrden),
	}
}

func (r *stubTurnoRepo) CreateMesa(_ context.Context, m *model.Mesa) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.mesas[m.ID] = m
	return nil
}

func (r *stubTurnoRepo) FindMesaByID(_ context.Context, id uuid.UUID) (*model.Mesa, error) {
	m, ok := r.mesas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m, nil
}

func (r *stubTurnoRepo) FindMesaPorNumero(_ context.Context, numero int) (*model.Mesa, error) {
	for _, m := range r.mesas {
		if m.Numero == numero {
			return m, nil
		}
	}
	return nil, nil
}

func (r *stubTurnoRepo) ListMesas(_ context.Context) ([]model.Mesa, error) {
	out := make([]model.Mesa, 0, len(r.mesas))
	for _, m := range r.mesas {
		out = append(out, *m)
	}
	return out, nil
}

func (r *stubTurnoRepo) SaveMesa(_ context.Context, m *model.Mesa) error {
	r.mesas[m.ID] = m
	return nil
}

func (r *stubTurnoRepo) SetEstadoMesaTx(_ *gorm.DB, id uuid.UUID, estado string) error {
	m, ok := r.mesas[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.Estado = estado
	return nil
}

func (r *stubTurnoRepo) ContarTurnosDeMesa(_ context.Context, mesaID uuid.UUID) (int64, error) {
	var count int64
	for _, t := range r.turnos {
		if t.MesaID == mesaID {
			count++
		}
	}
	return count, nil
}

func (r *stubTurnoRepo) DeleteMesa(_ context.Context, id uuid.UUID) error {
	delete(r.mesas, id)
	return nil
}

func (r *stubTurnoRepo) CreateTurnoTx(_ *gorm.DB, t *model.Turno) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.HoraInicio.IsZero() {
		t.HoraInicio = time.Now()
	}
	r.turnos[t.ID] = t
	return nil
}

func (r *stubTurnoRepo) cargarTurno(id uuid.UUID) (*model.Turno, error) {
	t, ok := r.turnos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *t
	copia.Ordenes = nil
	for _, ordenID := range r.ordenOrden {
		if o, ok := r.ordenes[ordenID]; ok && o.TurnoID == id {
			copia.Ordenes = append(copia.Ordenes, o)
		}
	}
	if mesa, ok := r.mesas[t.MesaID]; ok {
		copia.Mesa = mesa
	}
	return &copia, nil
}

func (r *stubTurnoRepo) FindTurnoByID(_ context.Context, id uuid.UUID) (*model.Turno, error) {
	return r.cargarTurno(id)
}

func (r *stubTurnoRepo) FindTurnoByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Turno, error) {
	return r.cargarTurno(id)
}

func (r *stubTurnoRepo) FindTurnoAbiertoPorMesa(_ context.Context, mesaID uuid.UUID) (*model.Turno, error) {
	for id, t := range r.turnos {
		if t.MesaID == mesaID && t.Estado == model.TurnoAbierto && t.HoraFin == nil {
			return r.cargarTurno(id)
		}
	}
	return nil, nil
}

func (r *stubTurnoRepo) SaveTurnoTx(_ *gorm.DB, t *model.Turno) error {
	r.turnos[t.ID] = t
	return nil
}

func (r *stubTurnoRepo) CreateOrdenTx(_ *gorm.DB, o *model.TurnoOrden) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	r.ordenes[o.ID] = *o
	r.ordenOrden = append(r.ordenOrden, o.ID)
	return nil
}

func (r *stubTurnoRepo) UpdateOrdenTx(_ *gorm.DB, o *model.TurnoOrden) error {
	r.ordenes[o.ID] = *o
	return nil
}

func (r *stubTurnoRepo) DeleteOrdenTx(_ *gorm.DB, id uuid.UUID) error {
	delete(r.ordenes, id)
	return nil
}

func (r *stubTurnoRepo) DB() *gorm.DB { return nil }

var _ repository.TurnoRepository = (*stubTurnoRepo)(nil)

// ── Materializer and dispatcher stubs ────────────────────────────────────────

type stubMaterializer struct {
	materializadas []uuid.UUID
	anuladas       []uuid.UUID
	fallaAnular    error
}

func (m *stubMaterializer) MaterializarDePedidoTx(_ *gorm.DB, _ model.Actor, pedido *model.Pedido) (*model.Venta, error) {
	venta := &model.Venta{ID: uuid.New(), Tipo: model.VentaOnline, PedidoID: &pedido.ID}
	m.materializadas = append(m.materializadas, venta.ID)
	return venta, nil
}

func (m *stubMaterializer) MaterializarDeTurnoTx(_ *gorm.DB, _ model.Actor, turno *model.Turno) (*model.Venta, error) {
	venta := &model.Venta{ID: uuid.New(), Tipo: model.VentaMesa, TurnoID: &turno.ID}
	m.materializadas = append(m.materializadas, venta.ID)
	return venta, nil
}

func (m *stubMaterializer) AnularTx(_ *gorm.DB, _ model.Actor, id uuid.UUID) error {
	if m.fallaAnular != nil {
		return m.fallaAnular
	}
	m.anuladas = append(m.anuladas, id)
	return nil
}

var _ VentaMaterializer = (*stubMaterializer)(nil)

type stubDispatcher struct {
	comandas []uuid.UUID
	emails   []uuid.UUID
}

func (d *stubDispatcher) EncolarComanda(_ context.Context, pedidoID uuid.UUID) error {
	d.comandas = append(d.comandas, pedidoID)
	return nil
}

func (d *stubDispatcher) EncolarEmailPedidoDisponible(_ context.Context, pedidoID uuid.UUID) error {
	d.emails = append(d.emails, pedidoID)
	return nil
}

var _ JobDispatcher = (*stubDispatcher)(nil)

// ── Seeding helpers ──────────────────────────────────────────────────────────

// sembrarProducto creates a product whose cached stock matches an initial
// ledger movement, keeping the stock invariant true from the start.
func sembrarProducto(productos *stubProductoRepo, movimientos *stubMovimientoRepo, nombre string, stock int, precio string) *model.Producto {
	p := &model.Producto{
		ID:            uuid.New(),
		Nombre:        nombre,
		PrecioVigente: decimal.RequireFromString(precio),
		Stock:         stock,
		CompraDirecta: true,
		VentaDirecta:  true,
		Habilitado:    true,
	}
	productos.productos[p.ID] = p
	if stock != 0 {
		movimientos.movimientos = append(movimientos.movimientos, model.MovimientoStock{
			ID:          uuid.New(),
			ProductoID:  p.ID,
			Cantidad:    stock,
			StockNuevo:  stock,
			Descripcion: "carga inicial",
		})
	}
	return p
}

func actorComensal() model.Actor { return model.Actor{ID: uuid.New(), Rol: model.RolComensal} }
func actorMozo() model.Actor     { return model.Actor{ID: uuid.New(), Rol: model.RolMozo} }
func actorVendedor() model.Actor { return model.Actor{ID: uuid.New(), Rol: model.RolVendedor} }
func actorAdmin() model.Actor    { return model.Actor{ID: uuid.New(), Rol: model.RolAdmin} }
