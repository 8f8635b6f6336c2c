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
	"gorm.io/gorm"
)

// TurnoService drives table-service sessions: a waiter opens a turn on a free
// table, accumulates product lines through the reconciler, and closing the
// turn materializes a single table sale. Turns are never auto-deleted when
// their lines drop to zero.
type TurnoService interface {
	// Mesas
	CrearMesa(ctx context.Context, actor model.Actor, req dto.CrearMesaRequest) (*dto.MesaResponse, error)
	ActualizarMesa(ctx context.Context, actor model.Actor, id uuid.UUID, req dto.ActualizarMesaRequest) (*dto.MesaResponse, error)
	EliminarMesa(ctx context.Context, actor model.Actor, id uuid.UUID) error
	ListarMesas(ctx context.Context) ([]dto.MesaResponse, error)

	// Turnos
	Crear(ctx context.Context, actor model.Actor, req dto.CrearTurnoRequest) (*dto.TurnoResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.TurnoResponse, error)
	GuardarOrdenes(ctx context.Context, actor model.Actor, id uuid.UUID, req dto.GuardarOrdenesRequest) (*dto.TurnoResponse, error)
	EntregarOrden(ctx context.Context, actor model.Actor, turnoID, ordenID uuid.UUID, cantidad int) (*dto.TurnoResponse, error)
	Cerrar(ctx context.Context, actor model.Actor, id uuid.UUID) (*dto.TurnoResponse, error)
	Anular(ctx context.Context, actor model.Actor, id uuid.UUID) (*dto.TurnoResponse, error)
}

type turnoService struct {
	turnos        repository.TurnoRepository
	productos     repository.ProductoRepository
	stock         StockService
	reconciliador *Reconciliador
	ventas        VentaMaterializer
}

func NewTurnoService(
	turnos repository.TurnoRepository,
	productos repository.ProductoRepository,
	stock StockService,
	reconciliador *Reconciliador,
	ventas VentaMaterializer,
) TurnoService {
	return &turnoService{
		turnos:        turnos,
		productos:     productos,
		stock:         stock,
		reconciliador: reconciliador,
		ventas:        ventas,
	}
}

func (s *turnoService) CrearMesa(ctx context.Context, actor model.Actor, req dto.CrearMesaRequest) (*dto.MesaResponse, error) {
	if !actor.EsAdmin() {
		return nil, apierror.NewIllegalTransition("Solo un administrador puede crear mesas.")
	}
	existente, err := s.turnos.FindMesaPorNumero(ctx, req.Numero)
	if err != nil {
		return nil, err
	}
	if existente != nil {
		return nil, apierror.NewIllegalTransition(fmt.Sprintf("Ya existe una mesa con el número %d.", req.Numero))
	}
	mesa := &model.Mesa{Numero: req.Numero, Estado: model.MesaDisponible, Descripcion: req.Descripcion}
	if err := s.turnos.CreateMesa(ctx, mesa); err != nil {
		return nil, err
	}
	return mesaToResponse(mesa, nil), nil
}

func (s *turnoService) ActualizarMesa(ctx context.Context, actor model.Actor, id uuid.UUID, req dto.ActualizarMesaRequest) (*dto.MesaResponse, error) {
	if !actor.EsAdmin() {
		return nil, apierror.NewIllegalTransition("Solo un administrador puede editar mesas.")
	}
	mesa, err := s.buscarMesa(ctx, id)
	if err != nil {
		return nil, err
	}
	if !mesa.PuedeEditarse() {
		return nil, apierror.NewIllegalTransition(fmt.Sprintf("La mesa %s está ocupada y no puede editarse.", mesa.NumeroTexto()))
	}
	if req.Numero != mesa.Numero {
		otra, err := s.turnos.FindMesaPorNumero(ctx, req.Numero)
		if err != nil {
			return nil, err
		}
		if otra != nil {
			return nil, apierror.NewIllegalTransition(fmt.Sprintf("Ya existe una mesa con el número %d.", req.Numero))
		}
	}
	mesa.Numero = req.Numero
	mesa.Descripcion = req.Descripcion
	if err := s.turnos.SaveMesa(ctx, mesa); err != nil {
		return nil, err
	}
	return mesaToResponse(mesa, nil), nil
}

func (s *turnoService) EliminarMesa(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if !actor.EsAdmin() {
		return apierror.NewIllegalTransition("Solo un administrador puede eliminar mesas.")
	}
	mesa, err := s.buscarMesa(ctx, id)
	if err != nil {
		return err
	}
	if !mesa.EstaDisponible() {
		return apierror.NewIllegalTransition(fmt.Sprintf("La mesa %s está ocupada y no puede eliminarse.", mesa.NumeroTexto()))
	}
	turnos, err := s.turnos.ContarTurnosDeMesa(ctx, id)
	if err != nil {
		return err
	}
	if turnos > 0 {
		return apierror.NewIllegalTransition(fmt.Sprintf("La mesa %s tiene turnos registrados y no puede eliminarse.", mesa.NumeroTexto()))
	}
	return s.turnos.DeleteMesa(ctx, id)
}

func (s *turnoService) ListarMesas(ctx context.Context) ([]dto.MesaResponse, error) {
	mesas, err := s.turnos.ListMesas(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MesaResponse, 0, len(mesas))
	for i := range mesas {
		mesa := &mesas[i]
		var turnoID *uuid.UUID
		if !mesa.EstaDisponible() {
			if abierto, err := s.turnos.FindTurnoAbiertoPorMesa(ctx, mesa.ID); err == nil && abierto != nil {
				turnoID = &abierto.ID
			}
		}
		out = append(out, *mesaToResponse(mesa, turnoID))
	}
	return out, nil
}

func (s *turnoService) Crear(ctx context.Context, actor model.Actor, req dto.CrearTurnoRequest) (*dto.TurnoResponse, error) {
	if !actor.EsMozo() && !actor.EsAdmin() {
		return nil, apierror.NewIllegalTransition("Solo un mozo puede abrir un turno.")
	}
	mesa, err := s.buscarMesa(ctx, req.MesaID)
	if err != nil {
		return nil, err
	}
	if !mesa.EstaDisponible() {
		return nil, apierror.NewIllegalTransition(fmt.Sprintf("La mesa %s ya está ocupada.", mesa.NumeroTexto()))
	}
	abierto, err := s.turnos.FindTurnoAbiertoPorMesa(ctx, mesa.ID)
	if err != nil {
		return nil, err
	}
	if abierto != nil {
		return nil, apierror.NewIllegalTransition(fmt.Sprintf("La mesa %s ya tiene un turno abierto.", mesa.NumeroTexto()))
	}

	turno := &model.Turno{MesaID: mesa.ID, MozoID: actor.ID, Estado: model.TurnoAbierto}
	err = runTx(ctx, s.turnos.DB(), func(tx *gorm.DB) error {
		if err := s.turnos.CreateTurnoTx(tx, turno); err != nil {
			return err
		}
		return s.turnos.SetEstadoMesaTx(tx, mesa.ID, model.MesaOcupada)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("mesa", mesa.NumeroTexto()).Str("turno", turno.ID.String()).Msg("turno abierto")
	return s.Obtener(ctx, turno.ID)
}

func (s *turnoService) Obtener(ctx context.Context, id uuid.UUID) (*dto.TurnoResponse, error) {
	turno, err := s.buscarTurno(ctx, id)
	if err != nil {
		return nil, err
	}
	return turnoToResponse(turno), nil
}

func (s *turnoService) GuardarOrdenes(ctx context.Context, actor model.Actor, id uuid.UUID, req dto.GuardarOrdenesRequest) (*dto.TurnoResponse, error) {
	turno, err := s.buscarTurno(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.verificarMozo(turno, actor); err != nil {
		return nil, err
	}
	if !turno.EstaAbierto() {
		return nil, apierror.NewIllegalTransition("Las órdenes solo pueden editarse con el turno abierto.")
	}

	err = runTx(ctx, s.turnos.DB(), func(tx *gorm.DB) error {
		// Reload inside the tx so the diff runs over fresh lines.
		turno, err = s.turnos.FindTurnoByIDTx(tx, id)
		if err != nil {
			return err
		}

		previas := make([]LineaPrevia, 0, len(turno.Ordenes))
		porID := make(map[uuid.UUID]*model.TurnoOrden, len(turno.Ordenes))
		for i := range turno.Ordenes {
			o := &turno.Ordenes[i]
			previas = append(previas, LineaPrevia{ID: o.ID, ProductoID: o.ProductoID, Cantidad: o.Cantidad})
			porID[o.ID] = o
		}
		pedidas := make([]LineaPedida, 0, len(req.Ordenes))
		for _, o := range req.Ordenes {
			pedidas = append(pedidas, LineaPedida{ProductoID: o.ProductoID, Cantidad: o.Cantidad})
		}

		plan, err := s.reconciliador.Planificar(tx, previas, pedidas)
		if err != nil {
			return err
		}

		restantes := make([]model.TurnoOrden, 0, len(plan))
		for _, paso := range plan {
			producto := paso.Producto
			switch {
			case paso.EsBaja():
				// Removed lines go outright, no partial-delivery carry-over.
				if err := s.turnos.DeleteOrdenTx(tx, paso.LineaID); err != nil {
					return err
				}
				descripcion := fmt.Sprintf("Refund por eliminación de orden de la mesa %s", mesaTexto(turno))
				if _, err := s.stock.Reconciliar(tx, producto, producto.Stock+paso.Anterior, descripcion, actor, model.OrigenMovimiento{}); err != nil {
					return err
				}

			case paso.EsAlta():
				orden := &model.TurnoOrden{
					TurnoID:    turno.ID,
					ProductoID: producto.ID,
					Estado:     model.OrdenSolicitada,
					Cantidad:   paso.Cantidad,
				}
				if err := s.turnos.CreateOrdenTx(tx, orden); err != nil {
					return err
				}
				descripcion := fmt.Sprintf("Consumo por orden de la mesa %s", mesaTexto(turno))
				if _, err := s.stock.Reconciliar(tx, producto, producto.Stock-paso.Delta, descripcion, actor, model.OrigenMovimiento{}); err != nil {
					return err
				}
				restantes = append(restantes, *orden)

			default:
				orden := porID[paso.LineaID]
				orden.Cantidad = paso.Cantidad
				// Delivered never exceeds the possibly reduced quantity.
				if orden.Entregado > orden.Cantidad {
					orden.Entregado = orden.Cantidad
				}
				orden.Estado = estadoDeOrden(orden)
				if err := s.turnos.UpdateOrdenTx(tx, orden); err != nil {
					return err
				}
				if paso.Delta != 0 {
					descripcion := fmt.Sprintf("Ajuste de orden de la mesa %s", mesaTexto(turno))
					if _, err := s.stock.Reconciliar(tx, producto, producto.Stock-paso.Delta, descripcion, actor, model.OrigenMovimiento{}); err != nil {
						return err
					}
				}
				restantes = append(restantes, *orden)
			}
		}
		turno.Ordenes = restantes
		return nil
	})
	if err != nil {
		return nil, err
	}
	return turnoToResponse(turno), nil
}

func (s *turnoService) EntregarOrden(ctx context.Context, actor model.Actor, turnoID, ordenID uuid.UUID, cantidad int) (*dto.TurnoResponse, error) {
	turno, err := s.buscarTurno(ctx, turnoID)
	if err != nil {
		return nil, err
	}
	if err := s.verificarMozo(turno, actor); err != nil {
		return nil, err
	}
	if !turno.EstaAbierto() {
		return nil, apierror.NewIllegalTransition("Las órdenes solo pueden entregarse con el turno abierto.")
	}

	var orden *model.TurnoOrden
	for i := range turno.Ordenes {
		if turno.Ordenes[i].ID == ordenID {
			orden = &turno.Ordenes[i]
			break
		}
	}
	if orden == nil {
		return nil, apierror.NewNotFound(fmt.Sprintf("orden %s", ordenID))
	}

	orden.Entregado += cantidad
	if orden.Entregado > orden.Cantidad {
		orden.Entregado = orden.Cantidad
	}
	orden.Estado = estadoDeOrden(orden)

	err = runTx(ctx, s.turnos.DB(), func(tx *gorm.DB) error {
		return s.turnos.UpdateOrdenTx(tx, orden)
	})
	if err != nil {
		return nil, err
	}
	return turnoToResponse(turno), nil
}

func (s *turnoService) Cerrar(ctx context.Context, actor model.Actor, id uuid.UUID) (*dto.TurnoResponse, error) {
	turno, err := s.buscarTurno(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.verificarMozo(turno, actor); err != nil {
		return nil, err
	}
	if !turno.EstaAbierto() {
		return nil, apierror.NewIllegalTransition("El turno ya no está abierto.")
	}
	if !turno.PuedeCerrar() {
		return nil, apierror.NewIllegalTransition("Un turno sin órdenes no puede cerrarse.")
	}

	err = runTx(ctx, s.turnos.DB(), func(tx *gorm.DB) error {
		venta, err := s.ventas.MaterializarDeTurnoTx(tx, actor, turno)
		if err != nil {
			return err
		}
		// Closing delivers everything still owed to the table.
		for i := range turno.Ordenes {
			orden := &turno.Ordenes[i]
			if orden.Entregado != orden.Cantidad || orden.Estado != model.OrdenEntregada {
				orden.Entregado = orden.Cantidad
				orden.Estado = model.OrdenEntregada
				if err := s.turnos.UpdateOrdenTx(tx, orden); err != nil {
					return err
				}
			}
		}
		ahora := time.Now()
		turno.VentaID = &venta.ID
		turno.Estado = model.TurnoCerrado
		turno.HoraFin = &ahora
		if err := s.turnos.SaveTurnoTx(tx, turno); err != nil {
			return err
		}
		return s.turnos.SetEstadoMesaTx(tx, turno.MesaID, model.MesaDisponible)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("turno", turno.ID.String()).Str("mesa", mesaTexto(turno)).Msg("turno cerrado")
	return turnoToResponse(turno), nil
}

func (s *turnoService) Anular(ctx context.Context, actor model.Actor, id uuid.UUID) (*dto.TurnoResponse, error) {
	turno, err := s.buscarTurno(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.verificarMozo(turno, actor); err != nil {
		return nil, err
	}
	if !turno.EstaAbierto() {
		return nil, apierror.NewIllegalTransition("Solo un turno abierto puede anularse.")
	}

	err = runTx(ctx, s.turnos.DB(), func(tx *gorm.DB) error {
		for i := range turno.Ordenes {
			orden := &turno.Ordenes[i]
			producto, err := s.productos.FindByIDForUpdateTx(tx, orden.ProductoID)
			if err != nil {
				return err
			}
			descripcion := fmt.Sprintf("Refund por anulación del turno de la mesa %s", mesaTexto(turno))
			if _, err := s.stock.Reconciliar(tx, producto, producto.Stock+orden.Cantidad, descripcion, actor, model.OrigenMovimiento{}); err != nil {
				return err
			}
		}
		ahora := time.Now()
		turno.Estado = model.TurnoAnulado
		turno.HoraFin = &ahora
		if err := s.turnos.SaveTurnoTx(tx, turno); err != nil {
			return err
		}
		return s.turnos.SetEstadoMesaTx(tx, turno.MesaID, model.MesaDisponible)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("turno", turno.ID.String()).Str("mesa", mesaTexto(turno)).Msg("turno anulado")
	return turnoToResponse(turno), nil
}

func (s *turnoService) buscarMesa(ctx context.Context, id uuid.UUID) (*model.Mesa, error) {
	mesa, err := s.turnos.FindMesaByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NewNotFound(fmt.Sprintf("mesa %s", id))
	}
	if err != nil {
		return nil, err
	}
	return mesa, nil
}

func (s *turnoService) buscarTurno(ctx context.Context, id uuid.UUID) (*model.Turno, error) {
	turno, err := s.turnos.FindTurnoByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NewNotFound(fmt.Sprintf("turno %s", id))
	}
	if err != nil {
		return nil, err
	}
	return turno, nil
}

// verificarMozo: only the waiter who opened the turn, or an admin.
func (s *turnoService) verificarMozo(turno *model.Turno, actor model.Actor) error {
	if turno.MozoID == actor.ID || actor.EsAdmin() {
		return nil
	}
	return apierror.NewIllegalTransition("El turno pertenece a otro mozo.")
}

func estadoDeOrden(o *model.TurnoOrden) string {
	if o.Entregado >= o.Cantidad {
		return model.OrdenEntregada
	}
	return model.OrdenSolicitada
}

func mesaTexto(t *model.Turno) string {
	if t.Mesa != nil {
		return t.Mesa.NumeroTexto()
	}
	return t.MesaID.String()
}

func mesaToResponse(m *model.Mesa, turnoID *uuid.UUID) *dto.MesaResponse {
	return &dto.MesaResponse{
		ID:          m.ID,
		Numero:      m.Numero,
		NumeroTexto: m.NumeroTexto(),
		Estado:      m.Estado,
		Descripcion: m.Descripcion,
		TurnoID:     turnoID,
	}
}

func turnoToResponse(t *model.Turno) *dto.TurnoResponse {
	ordenes := make([]dto.TurnoOrdenResponse, 0, len(t.Ordenes))
	for _, o := range t.Ordenes {
		nombre := ""
		if o.Producto != nil {
			nombre = o.Producto.Nombre
		}
		ordenes = append(ordenes, dto.TurnoOrdenResponse{
			ID:         o.ID,
			ProductoID: o.ProductoID,
			Producto:   nombre,
			Estado:     o.Estado,
			Cantidad:   o.Cantidad,
			Entregado:  o.Entregado,
		})
	}
	mesa := ""
	if t.Mesa != nil {
		mesa = t.Mesa.NumeroTexto()
	}
	return &dto.TurnoResponse{
		ID:         t.ID,
		MesaID:     t.MesaID,
		Mesa:       mesa,
		MozoID:     t.MozoID,
		Estado:     t.Estado,
		VentaID:    t.VentaID,
		HoraInicio: t.HoraInicio,
		HoraFin:    t.HoraFin,
		Ordenes:    ordenes,
	}
}
