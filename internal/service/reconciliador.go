package service

import (
	"errors"
	"fmt"

	"gastropos/internal/apierror"
	"gastropos/internal/model"
	"gastropos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LineaPrevia is the authoritative persisted state of one container line
// before reconciliation. It is always loaded from the database, never taken
// from the request.
type LineaPrevia struct {
	ID         uuid.UUID
	ProductoID uuid.UUID
	Cantidad   int
}

// LineaPedida is the desired final state of one line as requested by the
// client. Cantidad 0 removes the line; products absent from the request are
// removed too.
type LineaPedida struct {
	ProductoID uuid.UUID
	Cantidad   int
}

// PlanLinea is one reconciliation step. Producto arrives row-locked, so
// applying the plan and reconciling stock race with nobody.
type PlanLinea struct {
	Producto *model.Producto
	// LineaID is the existing line to mutate, or Nil for a brand-new line.
	LineaID uuid.UUID
	// Anterior is the previously persisted quantity (0 for new lines).
	Anterior int
	// Cantidad is the desired final quantity; 0 means the line is removed.
	Cantidad int
	// Delta is the additional consumption this step causes. Negative deltas
	// are refunds and never fail on availability.
	Delta int
}

func (p PlanLinea) EsAlta() bool  { return p.LineaID == uuid.Nil }
func (p PlanLinea) EsBaja() bool  { return p.Cantidad == 0 }
func (p PlanLinea) SinCambio() bool { return p.Delta == 0 && !p.EsBaja() && !p.EsAlta() }

// Reconciliador diffs persisted lines against a requested final state and
// produces an all-or-nothing plan. Validation problems are collected across
// every line before failing, so the client sees the full picture at once.
type Reconciliador struct {
	productos repository.ProductoRepository
	stock     StockService
}

func NewReconciliador(productos repository.ProductoRepository, stock StockService) *Reconciliador {
	return &Reconciliador{productos: productos, stock: stock}
}

// Planificar computes the reconciliation plan inside the caller's
// transaction. Every touched product row is locked before validation, and
// availability is judged against delta, not total quantity: a line shrinking
// from 5 to 3 needs no stock at all.
func (r *Reconciliador) Planificar(tx *gorm.DB, previas []LineaPrevia, pedidas []LineaPedida) ([]PlanLinea, error) {
	previasPorProducto := make(map[uuid.UUID]LineaPrevia, len(previas))
	for _, prev := range previas {
		previasPorProducto[prev.ProductoID] = prev
	}

	// Duplicate product entries collapse into one requested quantity.
	deseadas := make(map[uuid.UUID]int, len(pedidas))
	orden := make([]uuid.UUID, 0, len(pedidas))
	for _, ped := range pedidas {
		if _, visto := deseadas[ped.ProductoID]; !visto {
			orden = append(orden, ped.ProductoID)
		}
		deseadas[ped.ProductoID] += ped.Cantidad
	}

	var errores apierror.ValidationErrors
	plan := make([]PlanLinea, 0, len(orden)+len(previas))

	for _, productoID := range orden {
		cantidad := deseadas[productoID]
		prev, existia := previasPorProducto[productoID]
		delete(previasPorProducto, productoID)

		if cantidad < 0 {
			errores.Agregar(fmt.Errorf("la cantidad pedida para el producto %s no puede ser negativa", productoID))
			continue
		}

		producto, err := r.lockProducto(tx, productoID, &errores)
		if err != nil {
			return nil, err
		}
		if producto == nil {
			continue
		}
		if !producto.Habilitado && cantidad > 0 {
			errores.Agregar(fmt.Errorf("el producto %s no está habilitado para la venta", producto.Nombre))
			continue
		}

		anterior := 0
		lineaID := uuid.Nil
		if existia {
			anterior = prev.Cantidad
			lineaID = prev.ID
		}
		if !existia && cantidad == 0 {
			// Removing a line that never existed is a no-op, not an error.
			continue
		}

		delta := cantidad - anterior
		if !r.stock.DisponibleParaConsumir(producto, delta) {
			errores.Agregar(&apierror.StockInsuficienteError{
				Producto: producto.Nombre,
				Restante: producto.Stock,
			})
			continue
		}
		plan = append(plan, PlanLinea{
			Producto: producto,
			LineaID:  lineaID,
			Anterior: anterior,
			Cantidad: cantidad,
			Delta:    delta,
		})
	}

	// Persisted lines absent from the request are removals with a full refund.
	for _, prev := range previas {
		if _, sigue := previasPorProducto[prev.ProductoID]; !sigue {
			continue
		}
		producto, err := r.lockProducto(tx, prev.ProductoID, &errores)
		if err != nil {
			return nil, err
		}
		if producto == nil {
			continue
		}
		plan = append(plan, PlanLinea{
			Producto: producto,
			LineaID:  prev.ID,
			Anterior: prev.Cantidad,
			Cantidad: 0,
			Delta:    -prev.Cantidad,
		})
	}

	if !errores.Vacio() {
		return nil, &errores
	}
	return plan, nil
}

func (r *Reconciliador) lockProducto(tx *gorm.DB, id uuid.UUID, errores *apierror.ValidationErrors) (*model.Producto, error) {
	producto, err := r.productos.FindByIDForUpdateTx(tx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		errores.Agregar(&apierror.NotFoundError{Recurso: fmt.Sprintf("producto %s", id)})
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if producto.Borrado {
		errores.Agregar(&apierror.NotFoundError{Recurso: fmt.Sprintf("producto %s", id)})
		return nil, nil
	}
	return producto, nil
}
