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
	"gorm.io/gorm"
)

// ReemplazoService records physical recounts: each line forces the product's
// stock to the audited absolute value, with the difference appended to the
// movement ledger.
type ReemplazoService interface {
	Registrar(ctx context.Context, actor model.Actor, req dto.RegistrarReemplazoRequest) (*dto.ReemplazoResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.ReemplazoResponse, error)
	Listar(ctx context.Context, page, limit int) ([]dto.ReemplazoResponse, int64, error)
}

type reemplazoService struct {
	reemplazos repository.ReemplazoRepository
	productos  repository.ProductoRepository
	stock      StockService
}

func NewReemplazoService(
	reemplazos repository.ReemplazoRepository,
	productos repository.ProductoRepository,
	stock StockService,
) ReemplazoService {
	return &reemplazoService{reemplazos: reemplazos, productos: productos, stock: stock}
}

func (s *reemplazoService) Registrar(ctx context.Context, actor model.Actor, req dto.RegistrarReemplazoRequest) (*dto.ReemplazoResponse, error) {
	if !actor.EsVendedor() && !actor.EsAdmin() {
		return nil, apierror.NewIllegalTransition("Solo un vendedor puede registrar un reemplazo de mercadería.")
	}

	var reemplazo *model.Reemplazo
	err := runTx(ctx, s.reemplazos.DB(), func(tx *gorm.DB) error {
		// Duplicate lines for one product share the locked row copy: the later
		// recount sees the earlier one's forced stock as its anterior.
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
				cargados[linea.ProductoID] = producto
			}
			productos = append(productos, producto)
		}
		if !errores.Vacio() {
			return &errores
		}

		numero, err := s.reemplazos.NextNumeroTx(tx)
		if err != nil {
			return err
		}
		reemplazo = &model.Reemplazo{Numero: numero, UsuarioID: actor.ID}
		anteriores := make(map[uuid.UUID]int, len(productos))
		for i, linea := range req.Lineas {
			anterior, visto := anteriores[productos[i].ID]
			if !visto {
				anterior = productos[i].Stock
			}
			reemplazo.Lineas = append(reemplazo.Lineas, model.ReemplazoLinea{
				ProductoID:    productos[i].ID,
				StockAnterior: anterior,
				StockNuevo:    linea.StockNuevo,
			})
			anteriores[productos[i].ID] = linea.StockNuevo
		}
		if err := s.reemplazos.CreateTx(tx, reemplazo); err != nil {
			return err
		}

		for i := range reemplazo.Lineas {
			linea := &reemplazo.Lineas[i]
			producto := productos[i]
			descripcion := fmt.Sprintf("Ajuste por reemplazo %s", reemplazo.IDTexto())
			if _, err := s.stock.Reconciliar(tx, producto, linea.StockNuevo, descripcion, actor, model.OrigenReemplazoLinea(linea.ID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("reemplazo", reemplazo.IDTexto()).Msg("reemplazo registrado")
	return reemplazoToResponse(reemplazo), nil
}

func (s *reemplazoService) Obtener(ctx context.Context, id uuid.UUID) (*dto.ReemplazoResponse, error) {
	reemplazo, err := s.reemplazos.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NewNotFound(fmt.Sprintf("reemplazo %s", id))
	}
	if err != nil {
		return nil, err
	}
	return reemplazoToResponse(reemplazo), nil
}

func (s *reemplazoService) Listar(ctx context.Context, page, limit int) ([]dto.ReemplazoResponse, int64, error) {
	reemplazos, total, err := s.reemplazos.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.ReemplazoResponse, 0, len(reemplazos))
	for i := range reemplazos {
		out = append(out, *reemplazoToResponse(&reemplazos[i]))
	}
	return out, total, nil
}

func reemplazoToResponse(r *model.Reemplazo) *dto.ReemplazoResponse {
	lineas := make([]dto.ReemplazoLineaResponse, 0, len(r.Lineas))
	for _, l := range r.Lineas {
		nombre := ""
		if l.Producto != nil {
			nombre = l.Producto.Nombre
		}
		lineas = append(lineas, dto.ReemplazoLineaResponse{
			ID:            l.ID,
			ProductoID:    l.ProductoID,
			Producto:      nombre,
			StockAnterior: l.StockAnterior,
			StockNuevo:    l.StockNuevo,
		})
	}
	return &dto.ReemplazoResponse{
		ID:        r.ID,
		IDTexto:   r.IDTexto(),
		Numero:    r.Numero,
		UsuarioID: r.UsuarioID,
		Lineas:    lineas,
		CreatedAt: r.CreatedAt,
	}
}
