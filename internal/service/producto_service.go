package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gastropos/internal/apierror"
	"gastropos/internal/dto"
	"gastropos/internal/model"
	"gastropos/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const precioCacheTTL = 5 * time.Minute

// ProductoService handles catalog CRUD plus the cached price lookup. Stock is
// read-only here: it only changes through the movement ledger.
type ProductoService interface {
	Crear(ctx context.Context, actor model.Actor, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, filter dto.ProductoFilter) ([]dto.ProductoResponse, int64, error)
	Actualizar(ctx context.Context, actor model.Actor, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	Eliminar(ctx context.Context, actor model.Actor, id uuid.UUID) error

	// ConsultarPrecio serves the price-check kiosk from Redis when possible.
	ConsultarPrecio(ctx context.Context, id uuid.UUID) (*dto.ConsultaPrecioResponse, error)
	Movimientos(ctx context.Context, filter repository.MovimientoStockFilter) ([]dto.MovimientoStockResponse, int64, error)
}

type productoService struct {
	productos   repository.ProductoRepository
	movimientos repository.MovimientoStockRepository
	rdb         *redis.Client
}

func NewProductoService(
	productos repository.ProductoRepository,
	movimientos repository.MovimientoStockRepository,
	rdb *redis.Client,
) ProductoService {
	return &productoService{productos: productos, movimientos: movimientos, rdb: rdb}
}

func (s *productoService) Crear(ctx context.Context, actor model.Actor, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	if !actor.EsAdmin() {
		return nil, apierror.NewIllegalTransition("Solo un administrador puede crear productos.")
	}
	producto := &model.Producto{
		Nombre:         req.Nombre,
		Descripcion:    req.Descripcion,
		CostoVigente:   req.CostoVigente,
		PrecioVigente:  req.PrecioVigente,
		StockSeguridad: req.StockSeguridad,
		CompraDirecta:  true,
		VentaDirecta:   true,
		Habilitado:     true,
	}
	if req.CompraDirecta != nil {
		producto.CompraDirecta = *req.CompraDirecta
	}
	if req.VentaDirecta != nil {
		producto.VentaDirecta = *req.VentaDirecta
	}
	if err := s.productos.Create(ctx, producto); err != nil {
		return nil, err
	}
	log.Info().Str("producto", producto.Nombre).Msg("producto creado")
	return productoToResponse(producto), nil
}

func (s *productoService) Obtener(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	producto, err := s.buscar(ctx, id)
	if err != nil {
		return nil, err
	}
	return productoToResponse(producto), nil
}

func (s *productoService) Listar(ctx context.Context, filter dto.ProductoFilter) ([]dto.ProductoResponse, int64, error) {
	productos, total, err := s.productos.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.ProductoResponse, 0, len(productos))
	for i := range productos {
		out = append(out, *productoToResponse(&productos[i]))
	}
	return out, total, nil
}

func (s *productoService) Actualizar(ctx context.Context, actor model.Actor, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	if !actor.EsAdmin() {
		return nil, apierror.NewIllegalTransition("Solo un administrador puede editar productos.")
	}
	producto, err := s.buscar(ctx, id)
	if err != nil {
		return nil, err
	}
	producto.Nombre = req.Nombre
	producto.Descripcion = req.Descripcion
	producto.CostoVigente = req.CostoVigente
	producto.PrecioVigente = req.PrecioVigente
	producto.StockSeguridad = req.StockSeguridad
	if req.CompraDirecta != nil {
		producto.CompraDirecta = *req.CompraDirecta
	}
	if req.VentaDirecta != nil {
		producto.VentaDirecta = *req.VentaDirecta
	}
	if req.Habilitado != nil {
		producto.Habilitado = *req.Habilitado
	}
	if err := s.productos.Update(ctx, producto); err != nil {
		return nil, err
	}
	s.invalidarPrecio(ctx, id)
	return productoToResponse(producto), nil
}

func (s *productoService) Eliminar(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if !actor.EsAdmin() {
		return apierror.NewIllegalTransition("Solo un administrador puede eliminar productos.")
	}
	if _, err := s.buscar(ctx, id); err != nil {
		return err
	}
	if err := s.productos.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.invalidarPrecio(ctx, id)
	return nil
}

func (s *productoService) ConsultarPrecio(ctx context.Context, id uuid.UUID) (*dto.ConsultaPrecioResponse, error) {
	clave := clavePrecio(id)
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, clave).Result(); err == nil {
			var cacheada dto.ConsultaPrecioResponse
			if json.Unmarshal([]byte(raw), &cacheada) == nil {
				return &cacheada, nil
			}
		}
	}

	producto, err := s.buscar(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := &dto.ConsultaPrecioResponse{
		ID:            producto.ID,
		Nombre:        producto.Nombre,
		PrecioVigente: producto.PrecioVigente,
		Stock:         producto.Stock,
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(resp); err == nil {
			if err := s.rdb.Set(ctx, clave, raw, precioCacheTTL).Err(); err != nil {
				log.Warn().Err(err).Msg("no se pudo cachear la consulta de precio")
			}
		}
	}
	return resp, nil
}

func (s *productoService) Movimientos(ctx context.Context, filter repository.MovimientoStockFilter) ([]dto.MovimientoStockResponse, int64, error) {
	movimientos, total, err := s.movimientos.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.MovimientoStockResponse, 0, len(movimientos))
	for _, m := range movimientos {
		nombre := ""
		if m.Producto != nil {
			nombre = m.Producto.Nombre
		}
		out = append(out, dto.MovimientoStockResponse{
			ID:            m.ID,
			ProductoID:    m.ProductoID,
			Producto:      nombre,
			Cantidad:      m.Cantidad,
			StockAnterior: m.StockAnterior,
			StockNuevo:    m.StockNuevo,
			Descripcion:   m.Descripcion,
			CreatedAt:     m.CreatedAt,
		})
	}
	return out, total, nil
}

func (s *productoService) buscar(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	producto, err := s.productos.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NewNotFound(fmt.Sprintf("producto %s", id))
	}
	if err != nil {
		return nil, err
	}
	return producto, nil
}

func (s *productoService) invalidarPrecio(ctx context.Context, id uuid.UUID) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, clavePrecio(id)).Err(); err != nil {
		log.Warn().Err(err).Msg("no se pudo invalidar la cache de precio")
	}
}

func clavePrecio(id uuid.UUID) string { return "precio:" + id.String() }

func productoToResponse(p *model.Producto) *dto.ProductoResponse {
	return &dto.ProductoResponse{
		ID:             p.ID,
		Nombre:         p.Nombre,
		Descripcion:    p.Descripcion,
		CostoVigente:   p.CostoVigente,
		PrecioVigente:  p.PrecioVigente,
		Stock:          p.Stock,
		StockSeguridad: p.StockSeguridad,
		BajoStock:      p.BajoStockSeguridad(),
		CompraDirecta:  p.CompraDirecta,
		VentaDirecta:   p.VentaDirecta,
		Habilitado:     p.Habilitado,
		CreatedAt:      p.CreatedAt,
	}
}
