package service

import (
	"context"
	"errors"
	"fmt"

	"gastropos/internal/apierror"
	"gastropos/internal/dto"
	"gastropos/internal/model"
	"gastropos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// IngresoService records merchandise receipts. Every line adds stock through
// the ledger and updates the product's current cost.
type IngresoService interface {
	Registrar(ctx context.Context, actor model.Actor, req dto.RegistrarIngresoRequest) (*dto.IngresoResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.IngresoResponse, error)
	Listar(ctx context.Context, page, limit int) ([]dto.IngresoResponse, int64, error)
}

type ingresoService struct {
	ingresos  repository.IngresoRepository
	productos repository.ProductoRepository
	stock     StockService
}

func NewIngresoService(
	ingresos repository.IngresoRepository,
	productos repository.ProductoRepository,
	stock StockService,
) IngresoService {
	return &ingresoService{ingresos: ingresos, productos: productos, stock: stock}
}

func (s *ingresoService) Registrar(ctx context.Context, actor model.Actor, req dto.RegistrarIngresoRequest) (*dto.IngresoResponse, error) {
	if !actor.EsVendedor() && !actor.EsAdmin() {
		return nil, apierror.NewIllegalTransition("Solo un vendedor puede registrar un ingreso.")
	}

	var ingreso *model.Ingreso
	err := runTx(ctx, s.ingresos.DB(), func(tx *gorm.DB) error {
		// Duplicate lines for one product share the locked row copy so their
		// reconciliations stack instead of tripping over each other.
		var errores apierror.ValidationErrors
		cargados := make(map[uuid.UUID]*model.Producto, len(req.Lineas))
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
				if producto.Borrado {
					errores.Agregar(apierror.NewNotFound(fmt.Sprintf("producto %s", linea.ProductoID)))
					continue
				}
				if !producto.CompraDirecta {
					errores.Agregar(fmt.Errorf("el producto %s no admite compra directa", producto.Nombre))
					continue
				}
				cargados[linea.ProductoID] = producto
			}
			productos = append(productos, producto)
		}
		if !errores.Vacio() {
			return &errores
		}

		numero, err := s.ingresos.NextNumeroTx(tx)
		if err != nil {
			return err
		}
		ingreso = &model.Ingreso{Numero: numero, UsuarioID: actor.ID}
		for i, linea := range req.Lineas {
			ingreso.Lineas = append(ingreso.Lineas, model.IngresoLinea{
				ProductoID: productos[i].ID,
				Cantidad:   linea.Cantidad,
				Precio:     linea.Precio,
				Total:      linea.Precio.Mul(decimal.NewFromInt(int64(linea.Cantidad))),
			})
		}
		ingreso.ActualizarTotal()
		if err := s.ingresos.CreateTx(tx, ingreso); err != nil {
			return err
		}

		for i := range ingreso.Lineas {
			linea := &ingreso.Lineas[i]
			producto := productos[i]
			descripcion := fmt.Sprintf("Entrada por ingreso %s", ingreso.IDTexto())
			if _, err := s.stock.Reconciliar(tx, producto, producto.Stock+linea.Cantidad, descripcion, actor, model.OrigenIngresoLinea(linea.ID)); err != nil {
				return err
			}
			// The latest purchase price becomes the current cost.
			producto.CostoVigente = linea.Precio
			if err := s.productos.SetCostoTx(tx, producto.ID, linea.Precio); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("ingreso", ingreso.IDTexto()).Str("total", ingreso.Total.String()).Msg("ingreso registrado")
	return ingresoToResponse(ingreso), nil
}

func (s *ingresoService) Obtener(ctx context.Context, id uuid.UUID) (*dto.IngresoResponse, error) {
	ingreso, err := s.ingresos.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NewNotFound(fmt.Sprintf("ingreso %s", id))
	}
	if err != nil {
		return nil, err
	}
	return ingresoToResponse(ingreso), nil
}

func (s *ingresoService) Listar(ctx context.Context, page, limit int) ([]dto.IngresoResponse, int64, error) {
	ingresos, total, err := s.ingresos.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.IngresoResponse, 0, len(ingresos))
	for i := range ingresos {
		out = append(out, *ingresoToResponse(&ingresos[i]))
	}
	return out, total, nil
}

func ingresoToResponse(i *model.Ingreso) *dto.IngresoResponse {
	lineas := make([]dto.IngresoLineaResponse, 0, len(i.Lineas))
	for _, l := range i.Lineas {
		nombre := ""
		if l.Producto != nil {
			nombre = l.Producto.Nombre
		}
		lineas = append(lineas, dto.IngresoLineaResponse{
			ID:         l.ID,
			ProductoID: l.ProductoID,
			Producto:   nombre,
			Cantidad:   l.Cantidad,
			Precio:     l.Precio,
			Total:      l.Total,
		})
	}
	return &dto.IngresoResponse{
		ID:        i.ID,
		IDTexto:   i.IDTexto(),
		Numero:    i.Numero,
		UsuarioID: i.UsuarioID,
		Total:     i.Total,
		Lineas:    lineas,
		CreatedAt: i.CreatedAt,
	}
}
