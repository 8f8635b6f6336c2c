package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gastropos/internal/apierror"
	"gastropos/internal/dto"
	"gastropos/internal/model"
	"gastropos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VentaMaterializer is the transaction-scoped face of the sale engine that
// the order and turn services call while they hold a container transaction.
type VentaMaterializer interface {
	// MaterializarDePedidoTx freezes an order's lines into an online sale at
	// current prices. It never touches stock: the order lines already own
	// their consumption.
	MaterializarDePedidoTx(tx *gorm.DB, actor model.Actor, pedido *model.Pedido) (*model.Venta, error)
	// MaterializarDeTurnoTx freezes a turn's lines into a table sale.
	MaterializarDeTurnoTx(tx *gorm.DB, actor model.Actor, turno *model.Turno) (*model.Venta, error)
	// AnularTx voids a sale in place, restoring stock for sales that consumed
	// it directly (counter and table sales). Authorization belongs to the
	// caller: an order cancellation voids on the owner's behalf, while the
	// endpoint-facing Anular gates on vendedor/admin.
	AnularTx(tx *gorm.DB, actor model.Actor, id uuid.UUID) error
}

// VentaService is the request-facing sale API.
type VentaService interface {
	VentaMaterializer

	// RegistrarAlmacen records a direct counter sale: lines are validated,
	// frozen at current prices and stock is consumed, all in one transaction.
	RegistrarAlmacen(ctx context.Context, actor model.Actor, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error)
	Listar(ctx context.Context, filter repository.VentaFilter) ([]dto.VentaResponse, int64, error)
	// Anular is the endpoint-facing void with the online-source guard.
	Anular(ctx context.Context, actor model.Actor, id uuid.UUID) (*dto.VentaResponse, error)
}

type ventaService struct {
	ventas    repository.VentaRepository
	pedidos   repository.PedidoRepository
	productos repository.ProductoRepository
	stock     StockService
}

func NewVentaService(
	ventas repository.VentaRepository,
	pedidos repository.PedidoRepository,
	productos repository.ProductoRepository,
	stock StockService,
) VentaService {
	return &ventaService{ventas: ventas, pedidos: pedidos, productos: productos, stock: stock}
}

func (s *ventaService) RegistrarAlmacen(ctx context.Context, actor model.Actor, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	if !actor.EsVendedor() && !actor.EsAdmin() {
		return nil, apierror.NewIllegalTransition("Solo un vendedor puede registrar una venta de almacén.")
	}

	var venta *model.Venta
	err := runTx(ctx, s.ventas.DB(), func(tx *gorm.DB) error {
		// Validate every line before applying anything, collecting all the
		// problems so the caller sees them in one response. Each product is
		// locked and loaded once; duplicate lines share the row copy and their
		// quantities count against the stock together.
		var errores apierror.ValidationErrors
		cargados := make(map[uuid.UUID]*model.Producto, len(req.Lineas))
		consumos := make(map[uuid.UUID]int, len(req.Lineas))
		productos := make([]*model.Producto, 0, len(req.Lineas))
		for _, linea := range req.Lineas {
			producto, ok := cargados[linea.ProductoID]
			if !ok {
				var err error
				producto, err = s.productos.FindByIDForUpdateTx(tx, linea.ProductoID)
				if errors.Is(err, gorm.ErrRecordNotFound) {
					errores.Agregar(apierror.NewNotFound(fmt.Sprintf("producto %s", linea.ProductoID)))
					continue
				}
				if err != nil {
					return err
				}
				if producto.Borrado || !producto.Habilitado {
					errores.Agregar(apierror.NewNotFound(fmt.Sprintf("producto %s", linea.ProductoID)))
					continue
				}
				if !producto.VentaDirecta {
					errores.Agregar(fmt.Errorf("el producto %s no admite venta directa", producto.Nombre))
					continue
				}
				cargados[linea.ProductoID] = producto
			}
			consumo := consumos[producto.ID] + linea.Cantidad
			if !s.stock.DisponibleParaConsumir(producto, consumo) {
				errores.Agregar(&apierror.StockInsuficienteError{Producto: producto.Nombre, Restante: producto.Stock})
				continue
			}
			consumos[producto.ID] = consumo
			productos = append(productos, producto)
		}
		if !errores.Vacio() {
			return &errores
		}

		numero, err := s.ventas.NextNumeroTx(tx)
		if err != nil {
			return err
		}
		venta = &model.Venta{
			Numero:    numero,
			UsuarioID: actor.ID,
			Tipo:      model.VentaAlmacen,
		}
		for i, linea := range req.Lineas {
			precio := productos[i].PrecioVigente
			venta.Lineas = append(venta.Lineas, model.VentaLinea{
				ProductoID: productos[i].ID,
				Cantidad:   linea.Cantidad,
				Precio:     precio,
				Total:      precio.Mul(decimal.NewFromInt(int64(linea.Cantidad))),
			})
		}
		venta.ActualizarTotal()
		if err := s.ventas.CreateTx(tx, venta); err != nil {
			return err
		}

		for i := range venta.Lineas {
			linea := &venta.Lineas[i]
			producto := productos[i]
			descripcion := fmt.Sprintf("Consumo por venta %s", venta.IDTexto())
			if _, err := s.stock.Reconciliar(tx, producto, producto.Stock-linea.Cantidad, descripcion, actor, model.OrigenVentaLinea(linea.ID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("venta", venta.IDTexto()).Str("total", venta.Total.String()).Msg("venta de almacén registrada")
	return ventaToResponse(venta), nil
}

func (s *ventaService) MaterializarDePedidoTx(tx *gorm.DB, actor model.Actor, pedido *model.Pedido) (*model.Venta, error) {
	lineas, err := materializarLineas(s, tx, pedido.Lineas, lineaDePedido)
	if err != nil {
		return nil, err
	}
	venta, err := s.materializarDesdeLineas(tx, model.VentaOnline, pedido.UsuarioID, lineas)
	if err != nil {
		return nil, err
	}
	venta.PedidoID = &pedido.ID
	if err := s.ventas.CreateTx(tx, venta); err != nil {
		return nil, err
	}
	log.Info().Str("venta", venta.IDTexto()).Str("pedido", pedido.IDTexto()).Msg("venta online materializada")
	return venta, nil
}

func (s *ventaService) MaterializarDeTurnoTx(tx *gorm.DB, actor model.Actor, turno *model.Turno) (*model.Venta, error) {
	lineas, err := materializarLineas(s, tx, turno.Ordenes, lineaDeOrden)
	if err != nil {
		return nil, err
	}
	venta, err := s.materializarDesdeLineas(tx, model.VentaMesa, actor.ID, lineas)
	if err != nil {
		return nil, err
	}
	venta.TurnoID = &turno.ID
	if err := s.ventas.CreateTx(tx, venta); err != nil {
		return nil, err
	}
	log.Info().Str("venta", venta.IDTexto()).Msg("venta de mesa materializada")
	return venta, nil
}

func lineaDePedido(l model.PedidoLinea) (uuid.UUID, int) { return l.ProductoID, l.Cantidad }
func lineaDeOrden(o model.TurnoOrden) (uuid.UUID, int)   { return o.ProductoID, o.Cantidad }

// materializarLineas copies source lines into price-frozen sale lines at the
// product's current price. Stock is not consumed again here.
func materializarLineas[T any](s *ventaService, tx *gorm.DB, fuente []T, extraer func(T) (uuid.UUID, int)) ([]model.VentaLinea, error) {
	lineas := make([]model.VentaLinea, 0, len(fuente))
	for _, origen := range fuente {
		productoID, cantidad := extraer(origen)
		producto, err := s.productos.FindByIDForUpdateTx(tx, productoID)
		if err != nil {
			return nil, err
		}
		precio := producto.PrecioVigente
		lineas = append(lineas, model.VentaLinea{
			ProductoID: productoID,
			Cantidad:   cantidad,
			Precio:     precio,
			Total:      precio.Mul(decimal.NewFromInt(int64(cantidad))),
		})
	}
	return lineas, nil
}

func (s *ventaService) materializarDesdeLineas(tx *gorm.DB, tipo string, usuarioID uuid.UUID, lineas []model.VentaLinea) (*model.Venta, error) {
	numero, err := s.ventas.NextNumeroTx(tx)
	if err != nil {
		return nil, err
	}
	venta := &model.Venta{
		Numero:    numero,
		UsuarioID: usuarioID,
		Tipo:      tipo,
		Lineas:    lineas,
	}
	venta.ActualizarTotal()
	return venta, nil
}

func (s *ventaService) Anular(ctx context.Context, actor model.Actor, id uuid.UUID) (*dto.VentaResponse, error) {
	if !actor.EsVendedor() && !actor.EsAdmin() {
		return nil, apierror.NewIllegalTransition("Solo un vendedor o administrador puede anular una venta.")
	}

	err := runTx(ctx, s.ventas.DB(), func(tx *gorm.DB) error {
		return s.AnularTx(tx, actor, id)
	})
	if err != nil {
		return nil, err
	}
	return s.Obtener(ctx, id)
}

func (s *ventaService) AnularTx(tx *gorm.DB, actor model.Actor, id uuid.UUID) error {
	venta, err := s.ventas.FindByIDTx(tx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.NewNotFound(fmt.Sprintf("venta %s", id))
	}
	if err != nil {
		return err
	}
	if venta.EstaAnulada() {
		return apierror.NewIllegalTransition(fmt.Sprintf("La venta %s ya está anulada.", venta.IDTexto()))
	}

	if venta.EsOnline() {
		if err := s.verificarPedidoAnulable(tx, venta); err != nil {
			return err
		}
	} else {
		// Counter and table sales consumed stock directly, so the void
		// restores it. An online sale's stock belongs to its order lines and
		// is refunded by the order's own cancellation.
		for i := range venta.Lineas {
			linea := &venta.Lineas[i]
			producto, err := s.productos.FindByIDForUpdateTx(tx, linea.ProductoID)
			if err != nil {
				return err
			}
			descripcion := fmt.Sprintf("Refund por anulación de la venta %s", venta.IDTexto())
			if _, err := s.stock.Reconciliar(tx, producto, producto.Stock+linea.Cantidad, descripcion, actor, model.OrigenVentaLinea(linea.ID)); err != nil {
				return err
			}
		}
	}

	log.Info().Str("venta", venta.IDTexto()).Str("usuario", actor.ID.String()).Msg("venta anulada")
	return s.ventas.MarcarAnuladaTx(tx, venta.ID, time.Now())
}

// verificarPedidoAnulable blocks voiding an online sale whose order already
// reached a terminal state: the order flow owns that decision.
func (s *ventaService) verificarPedidoAnulable(tx *gorm.DB, venta *model.Venta) error {
	if venta.PedidoID == nil {
		return nil
	}
	pedido, err := s.pedidos.FindByIDTx(tx, *venta.PedidoID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !pedido.EstaDisponible() {
		return apierror.NewIllegalTransition(
			fmt.Sprintf("La venta del pedido %s solo puede anularse mientras el pedido está disponible.", pedido.IDTexto()),
		)
	}
	return nil
}

func (s *ventaService) Obtener(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error) {
	venta, err := s.ventas.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NewNotFound(fmt.Sprintf("venta %s", id))
	}
	if err != nil {
		return nil, err
	}
	return ventaToResponse(venta), nil
}

func (s *ventaService) Listar(ctx context.Context, filter repository.VentaFilter) ([]dto.VentaResponse, int64, error) {
	ventas, total, err := s.ventas.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.VentaResponse, 0, len(ventas))
	for i := range ventas {
		out = append(out, *ventaToResponse(&ventas[i]))
	}
	return out, total, nil
}

func ventaToResponse(v *model.Venta) *dto.VentaResponse {
	lineas := make([]dto.VentaLineaResponse, 0, len(v.Lineas))
	for _, l := range v.Lineas {
		nombre := ""
		if l.Producto != nil {
			nombre = l.Producto.Nombre
		}
		lineas = append(lineas, dto.VentaLineaResponse{
			ID:         l.ID,
			ProductoID: l.ProductoID,
			Producto:   nombre,
			Cantidad:   l.Cantidad,
			Precio:     l.Precio,
			Total:      l.Total,
		})
	}
	return &dto.VentaResponse{
		ID:        v.ID,
		IDTexto:   v.IDTexto(),
		Numero:    v.Numero,
		UsuarioID: v.UsuarioID,
		Tipo:      v.Tipo,
		Total:     v.Total,
		Anulado:   v.Anulado,
		PedidoID:  v.PedidoID,
		TurnoID:   v.TurnoID,
		Lineas:    lineas,
		CreatedAt: v.CreatedAt,
	}
}
