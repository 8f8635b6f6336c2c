package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gastropos/internal/apierror"
	"gastropos/internal/dto"
	"gastropos/internal/model"
	"gastropos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const motivoCancelacionMinimo = 10

// PedidoService drives the customer-order lifecycle. Line edits always go
// through the reconciler; state transitions are gated by role and ownership.
type PedidoService interface {
	// Guardar creates the caller's open order or, if one already exists,
	// reconciles it against the requested final line state. An order left
	// without lines is destroyed, not kept empty.
	Guardar(ctx context.Context, actor model.Actor, req dto.GuardarPedidoRequest) (*dto.GuardarPedidoResponse, error)
	Obtener(ctx context.Context, actor model.Actor, id uuid.UUID) (*dto.PedidoResponse, error)
	Listar(ctx context.Context, actor model.Actor, filter repository.PedidoFilter) ([]dto.PedidoResponse, int64, error)

	// Cerrar submits the open order with its fulfillment data.
	Cerrar(ctx context.Context, actor model.Actor, id uuid.UUID, req dto.GuardarPedidoRequest) (*dto.PedidoResponse, error)
	// MarcarDisponible moves cerrado -> disponible and materializes the sale.
	MarcarDisponible(ctx context.Context, actor model.Actor, id uuid.UUID) (*dto.PedidoResponse, error)
	// Entregar moves disponible -> recibido.
	Entregar(ctx context.Context, actor model.Actor, id uuid.UUID) (*dto.PedidoResponse, error)
	// Cancelar refunds every line and voids the materialized sale, if any.
	Cancelar(ctx context.Context, actor model.Actor, id uuid.UUID, motivo string) (*dto.PedidoResponse, error)
}

type pedidoService struct {
	pedidos      repository.PedidoRepository
	productos    repository.ProductoRepository
	stock        StockService
	reconciliador *Reconciliador
	ventas       VentaMaterializer
	jobs         JobDispatcher
}

func NewPedidoService(
	pedidos repository.PedidoRepository,
	productos repository.ProductoRepository,
	stock StockService,
	reconciliador *Reconciliador,
	ventas VentaMaterializer,
	jobs JobDispatcher,
) PedidoService {
	return &pedidoService{
		pedidos:       pedidos,
		productos:     productos,
		stock:         stock,
		reconciliador: reconciliador,
		ventas:        ventas,
		jobs:          jobs,
	}
}

func (s *pedidoService) Guardar(ctx context.Context, actor model.Actor, req dto.GuardarPedidoRequest) (*dto.GuardarPedidoResponse, error) {
	if req.Cambio.IsNegative() {
		return nil, apierror.New("El cambio no puede ser negativo.")
	}
	abierto, err := s.pedidos.FindAbiertoPorUsuario(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	var resp dto.GuardarPedidoResponse
	err = runTx(ctx, s.pedidos.DB(), func(tx *gorm.DB) error {
		pedido := abierto
		if pedido == nil {
			numero, err := s.pedidos.NextNumeroTx(tx)
			if err != nil {
				return err
			}
			pedido = &model.Pedido{
				Numero:    numero,
				UsuarioID: actor.ID,
				Tipo:      model.PedidoRetiro,
			}
			if err := s.pedidos.CreateTx(tx, pedido); err != nil {
				return err
			}
			if err := s.pedidos.AgregarEstadoTx(tx, pedido, model.PedidoAbierto); err != nil {
				return err
			}
		} else {
			// Reload inside the tx so the diff runs over fresh lines.
			pedido, err = s.pedidos.FindByIDTx(tx, pedido.ID)
			if err != nil {
				return err
			}
		}

		aplicarDatosEntrega(pedido, req)

		eliminado, err := s.reconciliarLineas(tx, actor, pedido, req.Lineas)
		if err != nil {
			return err
		}
		if eliminado {
			resp = dto.GuardarPedidoResponse{Eliminado: true}
			return nil
		}
		resp = dto.GuardarPedidoResponse{Pedido: pedidoToResponse(pedido)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// reconciliarLineas applies the full diff-and-apply pass over the order's
// lines and recomputes the total. Returns true when the order ended up empty
// and was destroyed.
func (s *pedidoService) reconciliarLineas(tx *gorm.DB, actor model.Actor, pedido *model.Pedido, lineas []dto.LineaPedidaRequest) (bool, error) {
	previas := make([]LineaPrevia, 0, len(pedido.Lineas))
	porID := make(map[uuid.UUID]*model.PedidoLinea, len(pedido.Lineas))
	for i := range pedido.Lineas {
		l := &pedido.Lineas[i]
		previas = append(previas, LineaPrevia{ID: l.ID, ProductoID: l.ProductoID, Cantidad: l.Cantidad})
		porID[l.ID] = l
	}
	pedidas := make([]LineaPedida, 0, len(lineas))
	for _, l := range lineas {
		pedidas = append(pedidas, LineaPedida{ProductoID: l.ProductoID, Cantidad: l.Cantidad})
	}

	plan, err := s.reconciliador.Planificar(tx, previas, pedidas)
	if err != nil {
		return false, err
	}

	restantes := make([]model.PedidoLinea, 0, len(plan))
	for _, paso := range plan {
		producto := paso.Producto
		switch {
		case paso.EsBaja():
			if err := s.pedidos.DeleteLineaTx(tx, paso.LineaID); err != nil {
				return false, err
			}
			// The line row is gone, so the refund movement carries no origin.
			descripcion := fmt.Sprintf("Refund por eliminación de línea del pedido %s", pedido.IDTexto())
			if _, err := s.stock.Reconciliar(tx, producto, producto.Stock+paso.Anterior, descripcion, actor, model.OrigenMovimiento{}); err != nil {
				return false, err
			}

		case paso.EsAlta():
			linea := &model.PedidoLinea{
				PedidoID:   pedido.ID,
				ProductoID: producto.ID,
				Cantidad:   paso.Cantidad,
				Precio:     producto.PrecioVigente,
				Total:      producto.PrecioVigente.Mul(decimal.NewFromInt(int64(paso.Cantidad))),
			}
			if err := s.pedidos.CreateLineaTx(tx, linea); err != nil {
				return false, err
			}
			descripcion := fmt.Sprintf("Consumo por pedido %s", pedido.IDTexto())
			if _, err := s.stock.Reconciliar(tx, producto, producto.Stock-paso.Delta, descripcion, actor, model.OrigenPedidoLinea(linea.ID)); err != nil {
				return false, err
			}
			restantes = append(restantes, *linea)

		default:
			linea := porID[paso.LineaID]
			linea.Cantidad = paso.Cantidad
			linea.Precio = producto.PrecioVigente
			linea.Total = producto.PrecioVigente.Mul(decimal.NewFromInt(int64(paso.Cantidad)))
			if err := s.pedidos.UpdateLineaTx(tx, linea); err != nil {
				return false, err
			}
			if paso.Delta != 0 {
				descripcion := fmt.Sprintf("Ajuste de línea del pedido %s", pedido.IDTexto())
				if _, err := s.stock.Reconciliar(tx, producto, producto.Stock-paso.Delta, descripcion, actor, model.OrigenPedidoLinea(linea.ID)); err != nil {
					return false, err
				}
			}
			restantes = append(restantes, *linea)
		}
	}

	pedido.Lineas = restantes
	if pedido.Vacio() {
		log.Info().Str("pedido", pedido.IDTexto()).Msg("pedido sin líneas tras reconciliación, se elimina")
		return true, s.pedidos.DeleteTx(tx, pedido.ID)
	}

	pedido.ActualizarTotal()
	return false, s.pedidos.SaveTx(tx, pedido)
}

func aplicarDatosEntrega(pedido *model.Pedido, req dto.GuardarPedidoRequest) {
	if req.Tipo != "" {
		pedido.Tipo = req.Tipo
	}
	pedido.Direccion = req.Direccion
	pedido.Observaciones = req.Observaciones
	pedido.Cambio = req.Cambio
}

func (s *pedidoService) Obtener(ctx context.Context, actor model.Actor, id uuid.UUID) (*dto.PedidoResponse, error) {
	pedido, err := s.buscar(ctx, id)
	if err != nil {
		return nil, err
	}
	if !pedido.PuedeVisualizar(actor) {
		return nil, apierror.NewNotFound(fmt.Sprintf("pedido %s", id))
	}
	return pedidoToResponse(pedido), nil
}

func (s *pedidoService) Listar(ctx context.Context, actor model.Actor, filter repository.PedidoFilter) ([]dto.PedidoResponse, int64, error) {
	if !actor.EsVendedor() && !actor.EsAdmin() {
		filter.UsuarioID = &actor.ID
	}
	pedidos, total, err := s.pedidos.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.PedidoResponse, 0, len(pedidos))
	for i := range pedidos {
		out = append(out, *pedidoToResponse(&pedidos[i]))
	}
	return out, total, nil
}

func (s *pedidoService) Cerrar(ctx context.Context, actor model.Actor, id uuid.UUID, req dto.GuardarPedidoRequest) (*dto.PedidoResponse, error) {
	pedido, err := s.buscar(ctx, id)
	if err != nil {
		return nil, err
	}
	if !pedido.PuedeCerrar(actor) {
		return nil, apierror.NewIllegalTransition("El pedido no puede cerrarse en su estado actual.")
	}

	aplicarDatosEntrega(pedido, req)
	if !pedido.TipoValido() {
		return nil, apierror.NewIllegalTransition("El tipo de entrega del pedido no es válido.")
	}
	if pedido.Tipo == model.PedidoDelivery && strings.TrimSpace(pedido.Direccion) == "" {
		return nil, apierror.NewIllegalTransition("Un pedido con envío a domicilio necesita una dirección.")
	}

	err = runTx(ctx, s.pedidos.DB(), func(tx *gorm.DB) error {
		// Reload inside the tx so the diff runs over fresh lines.
		pedido, err = s.pedidos.FindByIDTx(tx, pedido.ID)
		if err != nil {
			return err
		}
		aplicarDatosEntrega(pedido, req)
		if len(req.Lineas) > 0 {
			eliminado, err := s.reconciliarLineas(tx, actor, pedido, req.Lineas)
			if err != nil {
				return err
			}
			if eliminado {
				return apierror.NewIllegalTransition("El pedido no tiene líneas y fue eliminado.")
			}
		}
		if pedido.Vacio() {
			return apierror.NewIllegalTransition("El pedido no puede cerrarse sin líneas.")
		}
		if err := s.pedidos.SaveTx(tx, pedido); err != nil {
			return err
		}
		return s.pedidos.AgregarEstadoTx(tx, pedido, model.PedidoCerrado)
	})
	if err != nil {
		return nil, err
	}

	if s.jobs != nil {
		if err := s.jobs.EncolarComanda(ctx, pedido.ID); err != nil {
			log.Warn().Err(err).Str("pedido", pedido.IDTexto()).Msg("no se pudo encolar la comanda")
		}
	}
	return pedidoToResponse(pedido), nil
}

func (s *pedidoService) MarcarDisponible(ctx context.Context, actor model.Actor, id uuid.UUID) (*dto.PedidoResponse, error) {
	pedido, err := s.buscar(ctx, id)
	if err != nil {
		return nil, err
	}
	if !pedido.PuedeMarcarDisponible(actor) {
		return nil, apierror.NewIllegalTransition("El pedido no puede marcarse como disponible en su estado actual.")
	}

	err = runTx(ctx, s.pedidos.DB(), func(tx *gorm.DB) error {
		venta, err := s.ventas.MaterializarDePedidoTx(tx, actor, pedido)
		if err != nil {
			return err
		}
		pedido.VentaID = &venta.ID
		if err := s.pedidos.SaveTx(tx, pedido); err != nil {
			return err
		}
		return s.pedidos.AgregarEstadoTx(tx, pedido, model.PedidoDisponible)
	})
	if err != nil {
		return nil, err
	}

	if s.jobs != nil {
		if err := s.jobs.EncolarEmailPedidoDisponible(ctx, pedido.ID); err != nil {
			log.Warn().Err(err).Str("pedido", pedido.IDTexto()).Msg("no se pudo encolar el email de pedido disponible")
		}
	}
	return pedidoToResponse(pedido), nil
}

func (s *pedidoService) Entregar(ctx context.Context, actor model.Actor, id uuid.UUID) (*dto.PedidoResponse, error) {
	pedido, err := s.buscar(ctx, id)
	if err != nil {
		return nil, err
	}
	if !pedido.PuedeEntregar(actor) {
		return nil, apierror.NewIllegalTransition("El pedido no puede entregarse en su estado actual.")
	}

	err = runTx(ctx, s.pedidos.DB(), func(tx *gorm.DB) error {
		return s.pedidos.AgregarEstadoTx(tx, pedido, model.PedidoRecibido)
	})
	if err != nil {
		return nil, err
	}
	return pedidoToResponse(pedido), nil
}

func (s *pedidoService) Cancelar(ctx context.Context, actor model.Actor, id uuid.UUID, motivo string) (*dto.PedidoResponse, error) {
	pedido, err := s.buscar(ctx, id)
	if err != nil {
		return nil, err
	}
	if !pedido.PuedeCancelar(actor) {
		return nil, apierror.NewIllegalTransition("El pedido no puede cancelarse en su estado actual.")
	}
	if !pedido.EstaAbierto() && len(strings.TrimSpace(motivo)) < motivoCancelacionMinimo {
		return nil, apierror.NewIllegalTransition(
			fmt.Sprintf("Cancelar un pedido ya enviado requiere un motivo de al menos %d caracteres.", motivoCancelacionMinimo),
		)
	}

	err = runTx(ctx, s.pedidos.DB(), func(tx *gorm.DB) error {
		// Refund every line at the locked, re-derived stock value.
		for i := range pedido.Lineas {
			linea := &pedido.Lineas[i]
			producto, err := s.productos.FindByIDForUpdateTx(tx, linea.ProductoID)
			if err != nil {
				return err
			}
			descripcion := fmt.Sprintf("Refund por cancelación del pedido %s", pedido.IDTexto())
			if _, err := s.stock.Reconciliar(tx, producto, producto.Stock+linea.Cantidad, descripcion, actor, model.OrigenPedidoLinea(linea.ID)); err != nil {
				return err
			}
		}

		// An online sale owns no stock of its own, so voiding it here moves
		// nothing: the refund above already squared the ledger.
		if pedido.VentaID != nil {
			if err := s.ventas.AnularTx(tx, actor, *pedido.VentaID); err != nil {
				return err
			}
		}

		pedido.MotivoCancelacion = strings.TrimSpace(motivo)
		if err := s.pedidos.SaveTx(tx, pedido); err != nil {
			return err
		}
		return s.pedidos.AgregarEstadoTx(tx, pedido, model.PedidoCancelado)
	})
	if err != nil {
		return nil, err
	}
	return pedidoToResponse(pedido), nil
}

func (s *pedidoService) buscar(ctx context.Context, id uuid.UUID) (*model.Pedido, error) {
	pedido, err := s.pedidos.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NewNotFound(fmt.Sprintf("pedido %s", id))
	}
	if err != nil {
		return nil, err
	}
	return pedido, nil
}

func pedidoToResponse(p *model.Pedido) *dto.PedidoResponse {
	lineas := make([]dto.PedidoLineaResponse, 0, len(p.Lineas))
	for _, l := range p.Lineas {
		nombre := ""
		if l.Producto != nil {
			nombre = l.Producto.Nombre
		}
		lineas = append(lineas, dto.PedidoLineaResponse{
			ID:         l.ID,
			ProductoID: l.ProductoID,
			Producto:   nombre,
			Cantidad:   l.Cantidad,
			Precio:     l.Precio,
			Total:      l.Total,
		})
	}
	estados := make([]dto.PedidoEstadoResponse, 0, len(p.Estados))
	for _, e := range p.Estados {
		estados = append(estados, dto.PedidoEstadoResponse{Estado: e.Estado, Fecha: e.Fecha})
	}
	return &dto.PedidoResponse{
		ID:                p.ID,
		IDTexto:           p.IDTexto(),
		Numero:            p.Numero,
		UsuarioID:         p.UsuarioID,
		UltimoEstado:      p.UltimoEstado,
		Tipo:              p.Tipo,
		Total:             p.Total,
		Cambio:            p.Cambio,
		Direccion:         p.Direccion,
		Observaciones:     p.Observaciones,
		MotivoCancelacion: p.MotivoCancelacion,
		VentaID:           p.VentaID,
		Lineas:            lineas,
		Estados:           estados,
		CreatedAt:         p.CreatedAt,
	}
}
