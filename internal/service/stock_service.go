package service

import (
	"gastropos/internal/apierror"
	"gastropos/internal/model"
	"gastropos/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// StockService is the only writer of product stock. All stock changes flow
// through Reconciliar, which appends a ledger movement and rewrites the
// cached counter from the re-derived ledger sum.
type StockService interface {
	// Reconciliar moves producto to the absolute stock objetivo inside the
	// caller's transaction. It re-derives the ledger sum, repairs the cache if
	// it drifted, appends the delta movement and updates the cache. A zero
	// delta appends nothing. The caller must hold the product row lock.
	Reconciliar(tx *gorm.DB, producto *model.Producto, objetivo int, descripcion string, actor model.Actor, origen model.OrigenMovimiento) (*model.MovimientoStock, error)

	// DisponibleParaConsumir reports whether delta more units can be consumed.
	// Refunds and no-ops (delta <= 0) are always allowed.
	DisponibleParaConsumir(producto *model.Producto, delta int) bool
}

type stockService struct {
	productos   repository.ProductoRepository
	movimientos repository.MovimientoStockRepository
}

func NewStockService(productos repository.ProductoRepository, movimientos repository.MovimientoStockRepository) StockService {
	return &stockService{productos: productos, movimientos: movimientos}
}

func (s *stockService) DisponibleParaConsumir(producto *model.Producto, delta int) bool {
	if delta <= 0 {
		return true
	}
	return delta <= producto.Stock
}

func (s *stockService) Reconciliar(tx *gorm.DB, producto *model.Producto, objetivo int, descripcion string, actor model.Actor, origen model.OrigenMovimiento) (*model.MovimientoStock, error) {
	suma, err := s.movimientos.SumCantidadTx(tx, producto.ID)
	if err != nil {
		return nil, err
	}

	if suma != producto.Stock {
		// The cache drifted from the ledger. The ledger is the source of
		// truth: repair the cache, then refuse the operation so the caller's
		// transaction rolls back and the client retries over consistent state.
		// The drifted value is captured before the repair touches the struct.
		cache := producto.Stock
		log.Error().
			Str("producto_id", producto.ID.String()).
			Int("stock_cache", cache).
			Int("stock_ledger", suma).
			Msg("inconsistencia entre stock cacheado y libro de movimientos")
		if err := s.productos.SetStockTx(tx, producto.ID, suma); err != nil {
			return nil, err
		}
		producto.Stock = suma
		return nil, &apierror.ConsistencyFault{
			ProductoID:  producto.ID,
			StockCache:  cache,
			StockLedger: suma,
		}
	}

	delta := objetivo - suma
	if delta == 0 {
		return nil, nil
	}

	movimiento := &model.MovimientoStock{
		ProductoID:       producto.ID,
		Cantidad:         delta,
		StockAnterior:    suma,
		StockNuevo:       objetivo,
		Descripcion:      descripcion,
		UsuarioID:        actor.ID,
		PedidoLineaID:    origen.PedidoLineaID,
		VentaLineaID:     origen.VentaLineaID,
		IngresoLineaID:   origen.IngresoLineaID,
		ReemplazoLineaID: origen.ReemplazoLineaID,
	}
	if err := s.movimientos.CreateTx(tx, movimiento); err != nil {
		return nil, err
	}
	if err := s.productos.SetStockTx(tx, producto.ID, objetivo); err != nil {
		return nil, err
	}
	producto.Stock = objetivo

	if producto.BajoStockSeguridad() {
		log.Warn().
			Str("producto", producto.Nombre).
			Int("stock", producto.Stock).
			Int("stock_seguridad", producto.StockSeguridad).
			Msg("producto por debajo del stock de seguridad")
	}
	return movimiento, nil
}
